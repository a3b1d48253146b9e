package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// Local stores objects as files below a root directory.
type Local struct {
	fs afero.Fs
}

// NewLocal roots fs at dir, creating it when missing. Pass afero.NewOsFs() for disk
// or afero.NewMemMapFs() in tests.
func NewLocal(fs afero.Fs, dir string) (*Local, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create file directory: %w", err)
	}
	return &Local{fs: afero.NewBasePathFs(fs, dir)}, nil
}

func cleanKey(key string) (string, error) {
	k := path.Clean("/" + key)
	if k == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return k, nil
}

func (l *Local) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := l.fs.MkdirAll(path.Dir(k), 0o755); err != nil {
		return err
	}

	f, err := l.fs.OpenFile(k, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		l.fs.Remove(k)
		return err
	}
	return f.Close()
}

func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	f, err := l.fs.Open(k)
	if os.IsNotExist(err) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (l *Local) Exists(ctx context.Context, key string) (bool, error) {
	k, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	return afero.Exists(l.fs, k)
}

func (l *Local) Delete(ctx context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = l.fs.Remove(k)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
