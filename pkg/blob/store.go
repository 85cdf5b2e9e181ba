// Package blob stores uploaded files in a local directory or a Google Cloud
// Storage bucket.
package blob

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// Store writes are idempotent: putting an existing key succeeds without
// overwriting it.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Object is one entry of a PutAll batch.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// PutAll stores objects concurrently, at most limit at a time. The first
// failure cancels the remaining writes.
func PutAll(ctx context.Context, s Store, objects []Object, limit int) error {
	if limit <= 0 {
		limit = 10
	}
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for _, obj := range objects {
		obj := obj
		eg.Go(func() error {
			if err := s.Put(gctx, obj.Key, obj.Data, obj.ContentType); err != nil {
				return fmt.Errorf("store %s: %w", obj.Key, err)
			}
			return nil
		})
	}
	return eg.Wait()
}
