// Package storagetest provides an in-memory ImageStore.
package storagetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"magicwords/core/apperr"
	"magicwords/storage"
)

type object struct {
	data        []byte
	contentType string
	modified    time.Time
}

// MemoryImages is a map-backed ImageStore. PutErr, when set, fails every Put.
type MemoryImages struct {
	mu      sync.RWMutex
	objects map[string]object
	PutErr  error
}

var _ storage.ImageStore = (*MemoryImages)(nil)

func NewMemoryImages() *MemoryImages {
	return &MemoryImages{objects: map[string]object{}}
}

func (m *MemoryImages) Put(_ context.Context, key, contentType string, r io.Reader, _ int64) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = object{data: data, contentType: contentType, modified: time.Now()}
	return nil
}

func (m *MemoryImages) Open(_ context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, storage.ObjectInfo{}, fmt.Errorf("get object %s: %w", key, apperr.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), storage.ObjectInfo{
		Key:          key,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		LastModified: obj.modified,
	}, nil
}

func (m *MemoryImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Keys lists stored keys in no particular order.
func (m *MemoryImages) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
