// Package images stores invertebrate photographs and downloads the ones
// missing locally.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
)

// Store is the local image store, backed by a blob bucket.
type Store struct {
	bucket *blob.Bucket
}

// NewStore wraps an already opened bucket. The caller keeps ownership.
func NewStore(bucket *blob.Bucket) *Store {
	return &Store{bucket: bucket}
}

// OpenDirStore opens a store on a local directory, creating it if needed.
func OpenDirStore(dir string) (*Store, error) {
	bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{
		CreateDir: true,
		NoTempDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open image dir %s: %w", dir, err)
	}
	return &Store{bucket: bucket}, nil
}

// Bucket exposes the underlying bucket.
func (s *Store) Bucket() *blob.Bucket { return s.bucket }

// Close closes the underlying bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}

// Exists reports whether name is present.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	return s.bucket.Exists(ctx, name)
}

// Inventory lists every stored name.
func (s *Store) Inventory(ctx context.Context) (map[string]struct{}, error) {
	names := make(map[string]struct{})
	iter := s.bucket.List(nil)
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			return names, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list images: %w", err)
		}
		if !obj.IsDir {
			names[obj.Key] = struct{}{}
		}
	}
}

// Read returns the bytes stored under name.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", name, err)
	}
	return data, nil
}

// Write stores data under name. The writer is closed on every path; a
// failed write is aborted so no partial object becomes visible. Caller
// cancellation does not interrupt a write already under way.
func (s *Store) Write(ctx context.Context, name string, data []byte) (err error) {
	wctx, abort := context.WithCancel(context.WithoutCancel(ctx))
	defer abort()

	w, err := s.bucket.NewWriter(wctx, name, &blob.WriterOptions{
		ContentType: mime.TypeByExtension(path.Ext(name)),
	})
	if err != nil {
		return fmt.Errorf("open writer for %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			abort()
		}
		if cerr := w.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close writer for %s: %w", name, cerr)
		}
	}()

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
