package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/jayeen28/techzu-backend/models"
	"github.com/jayeen28/techzu-backend/repository"
	"github.com/jayeen28/techzu-backend/utils"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidToken = errors.New("invalid token")

type TokenConfig struct {
	Secret string
	Expiry time.Duration
}

type UserService struct {
	users    *repository.UserRepository
	files    *repository.FileRepository
	token    TokenConfig
	validate *validator.Validate
	cost     int
}

func NewUserService(users *repository.UserRepository, files *repository.FileRepository, token TokenConfig) *UserService {
	if token.Expiry <= 0 {
		token.Expiry = 7 * 24 * time.Hour
	}
	return &UserService{
		users:    users,
		files:    files,
		token:    token,
		validate: newValidator(),
		cost:     bcrypt.DefaultCost,
	}
}

type RegisterInput struct {
	DisplayName  string  `json:"displayName" validate:"required,max=80"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=5,max=50"`
	AvatarFileID *string `json:"avatarFileId"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=5,max=50"`
}

// GoogleProfile is the subset of a verified Google account used for sign-in.
type GoogleProfile struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err, "email")
	}

	if input.AvatarFileID != nil && strings.TrimSpace(*input.AvatarFileID) == "" {
		input.AvatarFileID = nil
	}
	if input.AvatarFileID != nil {
		if _, err := s.files.FindByID(ctx, *input.AvatarFileID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &ValidationError{Field: "avatarFileId", Message: "file does not exist"}
			}
			return nil, storeErr("find avatar file", err)
		}
	}

	exists, err := s.users.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, storeErr("check email", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		DisplayName:  input.DisplayName,
		Email:        input.Email,
		PasswordHash: string(hash),
		AvatarFileID: input.AvatarFileID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, storeErr("create user", err)
	}
	return user, nil
}

// Login checks the credentials and returns the user with a signed session token.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validate.Struct(input); err != nil {
		return nil, "", validationError(err, "email")
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", storeErr("find user", err)
	}
	if user.PasswordHash == "" {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GoogleSignIn finds the user linked to profile, links an existing account with the same
// email, or creates a new passwordless account. Profiles whose email Google has not
// verified are rejected.
func (s *UserService) GoogleSignIn(ctx context.Context, profile GoogleProfile) (*models.User, string, error) {
	if profile.ID == "" || profile.Email == "" || !profile.EmailVerified {
		return nil, "", ErrInvalidCredentials
	}
	email := strings.ToLower(strings.TrimSpace(profile.Email))

	user, err := s.users.FindByGoogleID(ctx, profile.ID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		user, err = s.users.FindByEmail(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			user = &models.User{DisplayName: profile.Name, Email: email}
			if user.DisplayName == "" {
				user.DisplayName, _, _ = strings.Cut(email, "@")
			}
			user.GoogleID = &profile.ID
			if err := s.users.Create(ctx, user); err != nil {
				return nil, "", storeErr("create user", err)
			}
			break
		}
		if err != nil {
			return nil, "", storeErr("find user", err)
		}
		user.GoogleID = &profile.ID
		if err := s.users.Save(ctx, user); err != nil {
			return nil, "", storeErr("link google account", err)
		}
	default:
		return nil, "", storeErr("find user", err)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) IssueToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(s.token.Expiry).Unix(),
	})
	signed, err := token.SignedString([]byte(s.token.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a session token and returns its claims.
func (s *UserService) ParseToken(raw string) (*utils.UserClaims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.token.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidToken
	}
	return &utils.UserClaims{UserID: userID}, nil
}

func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find user", err)
	}
	return user, nil
}

func (s *UserService) EmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return false, validationError(err, "email")
	}
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return false, storeErr("check email", err)
	}
	return exists, nil
}

func (s *UserService) TokenExpiry() time.Duration {
	return s.token.Expiry
}
