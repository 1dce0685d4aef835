package blobstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioBlobStore stores report files in an S3-compatible bucket.
type MinioBlobStore struct {
	client *minio.Client
	bucket string
}

// NewMinioBlobStore connects to the endpoint and ensures the bucket exists.
func NewMinioBlobStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioBlobStore, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &MinioBlobStore{client: cli, bucket: bucket}, nil
}

func (s *MinioBlobStore) Put(ctx context.Context, key, fileName, contentType string, r io.Reader) (*Blob, error) {
	if fileName == "" {
		return nil, ErrMissingName
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, io.LimitReader(r, MaxFileSize), -1, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"filename": fileName},
	})
	if err != nil {
		return nil, fmt.Errorf("minio put %s: %w", key, err)
	}

	return &Blob{
		Key:         key,
		FileName:    fileName,
		ContentType: contentType,
		Size:        info.Size,
		UploadedAt:  info.LastModified,
	}, nil
}

func (s *MinioBlobStore) Get(ctx context.Context, key string) (*Blob, io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("minio get %s: %w", key, err)
	}
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, nil, ErrBlobNotFound
		}
		return nil, nil, fmt.Errorf("minio stat %s: %w", key, err)
	}

	blob := &Blob{
		Key:         key,
		FileName:    stat.UserMetadata["Filename"],
		ContentType: stat.ContentType,
		Size:        stat.Size,
		UploadedAt:  stat.LastModified,
	}
	if blob.FileName == "" {
		blob.FileName = key
	}
	return blob, obj, nil
}
