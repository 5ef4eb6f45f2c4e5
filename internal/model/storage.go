package model

import (
	"context"
	"io"
)

// Storage keeps avatar images.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Image is a normalized avatar ready to be stored.
type Image struct {
	Data        []byte
	ContentType string
}

// ImageProcessor resizes uploaded avatars.
type ImageProcessor interface {
	Normalize(reader io.Reader) (Image, error)
}
