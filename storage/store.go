// Package storage keeps uploaded profile images in object storage.
package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImagePrefix is the key prefix every stored image lives under.
const ImagePrefix = "images/"

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// ImageStore is the persistence contract for profile images. Open returns
// apperr.ErrNotFound for unknown keys.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// NewImageKey returns a fresh, collision-free key for an image with the
// given extension (".png", ".jpg", ...).
func NewImageKey(ext string) string {
	return ImagePrefix + uuid.NewString() + strings.ToLower(ext)
}

// ValidKey reports whether key is a well-formed image key that cannot
// escape the image prefix.
func ValidKey(key string) bool {
	if !strings.HasPrefix(key, ImagePrefix) || len(key) == len(ImagePrefix) {
		return false
	}
	return path.Clean(key) == key && !strings.Contains(key, "..")
}

// URLBuilder maps stored keys to the public paths they are served from.
type URLBuilder struct {
	Prefix string
}

// URL returns the public path of key, or nil for a nil key.
func (b URLBuilder) URL(key *string) *string {
	if key == nil || *key == "" {
		return nil
	}
	u := b.prefix() + *key
	return &u
}

func (b URLBuilder) prefix() string {
	if b.Prefix == "" {
		return "/media/"
	}
	if !strings.HasSuffix(b.Prefix, "/") {
		return b.Prefix + "/"
	}
	return b.Prefix
}
