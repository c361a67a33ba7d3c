package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage writes photos under a base directory and returns file:// style
// relative URLs. Dev/test backend; production deployments plug a blob-store
// implementation behind the same interface.
type LocalStorage struct {
	baseDir string
}

func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

func (s *LocalStorage) UploadPhoto(ctx context.Context, data []byte, fileName, folder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Join(s.baseDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	name := uuid.NewString() + "_" + filepath.Base(fileName)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return filepath.ToSlash(filepath.Join(folder, name)), nil
}

func (s *LocalStorage) DeletePhoto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// refuse anything that escapes the base dir
	clean := filepath.Clean(url)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid photo url %q", url)
	}
	return os.Remove(filepath.Join(s.baseDir, clean))
}

func (s *LocalStorage) PhotoExists(ctx context.Context, url string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	clean := filepath.Clean(url)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return false, nil
	}
	_, err := os.Stat(filepath.Join(s.baseDir, clean))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
