package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jayeen28/techzu-backend/models"
	"github.com/jayeen28/techzu-backend/repository"
	"github.com/jayeen28/techzu-backend/storage"
	"github.com/rs/zerolog/log"
)

// allowedTypes maps the accepted extensions to the content type files are served with.
var allowedTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
	".gif":  "image/gif",
	".avif": "image/avif",
	".webp": "image/webp",
}

// Upload describes one incoming multipart file. The content type is derived from
// the file extension, never from the client.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type FileService struct {
	files *repository.FileRepository
	store storage.Storage
}

func NewFileService(files *repository.FileRepository, store storage.Storage) *FileService {
	return &FileService{files: files, store: store}
}

// Save stores the upload under a fresh key and records it. uploaderID may be empty.
func (s *FileService) Save(ctx context.Context, uploaderID string, up Upload) (*models.File, error) {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	contentType, ok := allowedTypes[ext]
	if up.Filename == "" || !ok {
		return nil, ErrUnsupportedFile
	}

	key := uuid.NewString() + ext
	if err := s.store.Put(ctx, key, up.Body, up.Size, contentType); err != nil {
		return nil, &StoreError{Op: "store file", Err: err}
	}

	file := &models.File{
		Filename:    key,
		Type:        contentType,
		OrgFilename: truncate(filepath.Base(up.Filename), models.MaxOrgFilenameLength),
	}
	if uploaderID != "" {
		file.UserID = &uploaderID
	}
	if err := s.files.Create(ctx, file); err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			log.Error().Err(derr).Str("key", key).Msg("failed to remove orphaned upload")
		}
		return nil, storeErr("create file", err)
	}
	return file, nil
}

// Exists reports whether a file record with id exists.
func (s *FileService) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.files.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("find file", err)
	}
	return true, nil
}

// Open returns the file record and its contents. A missing record or object is ErrNotFound.
func (s *FileService) Open(ctx context.Context, id string) (*models.File, io.ReadCloser, error) {
	file, err := s.files.FindByID(ctx, id)
	if err != nil {
		return nil, nil, storeErr("find file", err)
	}

	body, err := s.store.Open(ctx, file.Filename)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, &StoreError{Op: "open file", Err: err}
	}
	return file, body, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
