// Package blobstore stores the uploaded report files behind the dashboard's
// file-download links. It defines the BlobStore interface, an in-memory
// implementation for development and tests, and a MinIO-backed
// implementation for real deployments.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	ErrMissingName  = errors.New("file name is required")
)

// MaxFileSize is the largest accepted report upload (25 MB).
const MaxFileSize = 25 * 1024 * 1024

// Blob describes one stored report file.
type Blob struct {
	Key         string    `json:"key"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// BlobStore stores and retrieves report files by opaque key.
type BlobStore interface {
	Put(ctx context.Context, key, fileName, contentType string, r io.Reader) (*Blob, error)
	Get(ctx context.Context, key string) (*Blob, io.ReadCloser, error)
}

// InMemoryBlobStore is a thread-safe in-memory BlobStore.
type InMemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

type storedBlob struct {
	meta Blob
	data []byte
}

func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{blobs: make(map[string]*storedBlob)}
}

func (s *InMemoryBlobStore) Put(_ context.Context, key, fileName, contentType string, r io.Reader) (*Blob, error) {
	if fileName == "" {
		return nil, ErrMissingName
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	blob := &storedBlob{
		meta: Blob{
			Key:         key,
			FileName:    fileName,
			ContentType: contentType,
			Size:        int64(len(data)),
			UploadedAt:  time.Now().UTC(),
		},
		data: data,
	}

	s.mu.Lock()
	s.blobs[key] = blob
	s.mu.Unlock()

	meta := blob.meta
	return &meta, nil
}

func (s *InMemoryBlobStore) Get(_ context.Context, key string) (*Blob, io.ReadCloser, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrBlobNotFound
	}
	meta := blob.meta
	return &meta, io.NopCloser(bytes.NewReader(blob.data)), nil
}
