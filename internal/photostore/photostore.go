// Package photostore keeps uploaded food photos. A saved storage key is the
// image reference handed to a scan.
package photostore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned when no photo exists for a storage key.
var ErrNotFound = errors.New("photo not found")

type PhotoStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}

// Base64Loader reads photos from a PhotoStore as base64 for vision requests.
type Base64Loader struct {
	Store PhotoStore
}

// LoadBase64 returns the photo encoded as base64 along with its MIME type.
func (l Base64Loader) LoadBase64(ctx context.Context, storageKey string) (string, string, error) {
	rc, mimeType, err := l.Store.Get(ctx, storageKey)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", "", fmt.Errorf("failed to read photo: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), mimeType, nil
}
