package services

import (
	"context"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/jayeen28/techzu-backend/models"
	"github.com/jayeen28/techzu-backend/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T) *UserService {
	db := setupTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db), repository.NewFileRepository(db), TokenConfig{Secret: "test-secret", Expiry: time.Hour})
	svc.cost = bcrypt.MinCost
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{DisplayName: "Jane", Email: "Jane@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{DisplayName: "Other", Email: "jane@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, _, err = svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	got, token, err := svc.Login(ctx, LoginInput{Email: "JANE@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	exists, err := svc.EmailExists(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRegister_Validation(t *testing.T) {
	svc := newUserService(t)

	testCases := []struct {
		name  string
		input RegisterInput
		field string
	}{
		{"missing name", RegisterInput{Email: "a@b.co", Password: "secret"}, "displayName"},
		{"bad email", RegisterInput{DisplayName: "A", Email: "not-an-email", Password: "secret"}, "email"},
		{"short password", RegisterInput{DisplayName: "A", Email: "a@b.co", Password: "123"}, "password"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.input)
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tc.field, err.(*ValidationError).Field)
		})
	}
}

func TestParseToken_Rejects(t *testing.T) {
	svc := newUserService(t)

	_, err := svc.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := foreign.SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = svc.ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	signed, err = expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGoogleSignIn_LinksExistingAccount(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	existing, err := svc.Register(ctx, RegisterInput{DisplayName: "Sam", Email: "sam@example.com", Password: "secret1"})
	require.NoError(t, err)

	linked, token, err := svc.GoogleSignIn(ctx, GoogleProfile{ID: "g-123", Email: "sam@example.com", EmailVerified: true, Name: "Sam G"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, existing.ID, linked.ID)
	require.NotNil(t, linked.GoogleID)
	assert.Equal(t, "g-123", *linked.GoogleID)

	again, _, err := svc.GoogleSignIn(ctx, GoogleProfile{ID: "g-123", Email: "sam@example.com", EmailVerified: true})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, again.ID)

	fresh, _, err := svc.GoogleSignIn(ctx, GoogleProfile{ID: "g-999", Email: "new@example.com", EmailVerified: true})
	require.NoError(t, err)
	assert.Equal(t, "new", fresh.DisplayName)
	assert.Empty(t, fresh.PasswordHash)

	_, _, err = svc.Login(ctx, LoginInput{Email: "new@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "google-only accounts cannot use password login")
}

func TestGoogleSignIn_RequiresVerifiedEmail(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	existing, err := svc.Register(ctx, RegisterInput{DisplayName: "Sam", Email: "sam@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, _, err = svc.GoogleSignIn(ctx, GoogleProfile{ID: "g-evil", Email: "sam@example.com", Name: "Mallory"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.GoogleSignIn(ctx, GoogleProfile{ID: "g-new", Email: "unverified@example.com"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := svc.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Nil(t, user.GoogleID, "account stays unlinked")

	exists, err := svc.EmailExists(ctx, "unverified@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRegister_AvatarMustExist(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	missing := "no-such-file"
	_, err := svc.Register(ctx, RegisterInput{DisplayName: "Ann", Email: "ann@example.com", Password: "secret1", AvatarFileID: &missing})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "avatarFileId", verr.Field)

	avatar := &models.File{Filename: "a.png", Type: "image/png", OrgFilename: "a.png"}
	require.NoError(t, svc.files.Create(ctx, avatar))
	user, err := svc.Register(ctx, RegisterInput{DisplayName: "Ann", Email: "ann@example.com", Password: "secret1", AvatarFileID: &avatar.ID})
	require.NoError(t, err)
	require.NotNil(t, user.AvatarFileID)
	assert.Equal(t, avatar.ID, *user.AvatarFileID)

	blank := " "
	user, err = svc.Register(ctx, RegisterInput{DisplayName: "Bo", Email: "bo@example.com", Password: "secret1", AvatarFileID: &blank})
	require.NoError(t, err)
	assert.Nil(t, user.AvatarFileID)
}
