// Package storage abstracts photo blob storage for registration evidence.
package storage

import (
	"context"
	"errors"
)

var ErrUploadFailed = errors.New("photo upload failed")

// PhotoStorage stores registration photo evidence. Any non-nil error from
// UploadPhoto fails the enclosing registration step.
type PhotoStorage interface {
	UploadPhoto(ctx context.Context, data []byte, fileName, folder string) (string, error)
	DeletePhoto(ctx context.Context, url string) error
	PhotoExists(ctx context.Context, url string) (bool, error)
}
