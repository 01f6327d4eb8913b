// Package storage is a small filesystem abstraction with a local and an
// S3-compatible driver.
//
// The client uses it twice: the disk state driver keeps cart snapshots and
// the session as files, and catalog uploads read record and group photos
// from it.
//
//	disk, err := storage.Open(ctx, storage.FromConfig())
//	err = disk.Put(ctx, "cart_a@b.c.json", data)
//	rc, err := disk.Open(ctx, "covers/kind-of-blue.jpg")
package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/shashiranjanraj/recordshop/config"
)

// ErrNotExist is wrapped by every driver when a path is missing.
var ErrNotExist = fs.ErrNotExist

// Disk is the filesystem driver interface.
type Disk interface {
	// Put writes content to path, creating parent directories as needed.
	Put(ctx context.Context, path string, content []byte) error

	// Get returns the full content of the file at path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Open returns a ReadCloser for the file. Caller must close it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) bool

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error
}

// Config selects and configures a driver.
type Config struct {
	Driver     string // "local" or "s3"
	LocalRoot  string
	S3Bucket   string
	S3Region   string
	S3Key      string
	S3Secret   string
	S3Endpoint string // MinIO, R2, Spaces; empty for AWS
}

// FromConfig reads STORAGE_DISK, STORAGE_LOCAL_ROOT and the S3_* keys.
func FromConfig() Config {
	return Config{
		Driver:     config.StorageDefault(),
		LocalRoot:  config.StorageLocalRoot(),
		S3Bucket:   config.StorageS3Bucket(),
		S3Region:   config.StorageS3Region(),
		S3Key:      config.StorageS3Key(),
		S3Secret:   config.StorageS3Secret(),
		S3Endpoint: config.StorageS3Endpoint(),
	}
}

// Open builds the disk named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Disk, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.LocalRoot)
	case "s3":
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q (supported: local, s3)", cfg.Driver)
	}
}
