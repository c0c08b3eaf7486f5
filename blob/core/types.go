// Package core defines the blob storage abstraction shared by the backends.
package core

import (
	"context"
	"io"
	"time"

	"github.com/teranos/fuzzykea/errors"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs" // local directory
	DriverS3         Driver = "s3" // S3 / MinIO compatible
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	// Location is a path or s3:// URI a user can open
	Location string `json:"location"`
}

// Store is the subset of an object store that exports and reference
// downloads need. Put overwrites an existing key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Driver() Driver
}

// ErrNotFound is returned by Get for a missing key
var ErrNotFound = errors.Mark(errors.New("blob not found"), errors.ErrNotFound)
