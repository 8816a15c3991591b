package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var (
	ErrEncodingFailed       = errors.New("could not encode image")
	ErrStorageFailed        = errors.New("could not store image")
	ErrReferenceUnavailable = errors.New("could not resolve image reference")
)

// BlobStore persists event background images and hands back a publicly
// dereferenceable URL.
type BlobStore interface {
	SaveEventImage(ctx context.Context, eventID string, data []byte) (string, error)
}

const (
	jpegQuality = 80
	thumbWidth  = 300
)

// DiskStore writes images under Dir and serves them below BaseURL.
type DiskStore struct {
	Dir     string
	BaseURL string
}

func NewDiskStore(dir, baseURL string) *DiskStore {
	return &DiskStore{Dir: dir, BaseURL: baseURL}
}

// SaveEventImage re-encodes the payload as JPEG and stores it under a name
// namespaced by the event ID plus a fresh UUID, so repeated uploads for the
// same event never overwrite each other. A thumbnail is written alongside.
func (s *DiskStore) SaveEventImage(ctx context.Context, eventID string, data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	name := fmt.Sprintf("%s_%s.jpg", eventID, uuid.New().String())
	if err := ensureDirs(s.Dir, filepath.Join(s.Dir, "thumb")); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	if err := imaging.Save(img, filepath.Join(s.Dir, name), imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(s.Dir, "thumb", name), imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	if s.BaseURL == "" {
		return "", ErrReferenceUnavailable
	}
	return s.BaseURL + "/eventpic/" + name, nil
}

func ensureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
