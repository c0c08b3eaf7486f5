// Package blob opens an object store from a location string: a local
// directory or an s3://bucket/prefix URI.
package blob

import (
	"context"
	"io"
	iofs "io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/teranos/fuzzykea/blob/core"
	"github.com/teranos/fuzzykea/blob/fs"
	"github.com/teranos/fuzzykea/blob/s3"
	"github.com/teranos/fuzzykea/errors"
)

// Re-exported so callers need only this package
type (
	Store      = core.Store
	Info       = core.Info
	PutOptions = core.PutOptions
)

// S3Options carries the endpoint settings that cannot be expressed in the URI
type S3Options struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

// IsS3 reports whether location is an s3:// URI
func IsS3(location string) bool {
	return strings.HasPrefix(location, "s3://")
}

// ParseS3 splits s3://bucket/some/key into bucket and key
func ParseS3(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", errors.Wrapf(err, "parse %s", location)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", errors.NewInvalidConfigError("not an s3 URI: %q", location)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// Open returns a store rooted at location
func Open(ctx context.Context, location string, opts S3Options) (Store, error) {
	if !IsS3(location) {
		return fs.New(location)
	}
	bucket, prefix, err := ParseS3(location)
	if err != nil {
		return nil, err
	}
	return s3.New(ctx, s3.Config{
		Region:    opts.Region,
		Bucket:    bucket,
		Prefix:    prefix,
		Endpoint:  opts.Endpoint,
		PathStyle: opts.PathStyle,
	})
}

// OpenObject opens a single object given by a file path or s3:// URI.
// Used for reference datasets kept in a bucket.
func OpenObject(ctx context.Context, location string, opts S3Options) (io.ReadCloser, error) {
	if !IsS3(location) {
		f, err := os.Open(location)
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, errors.Wrapf(core.ErrNotFound, "%s", location)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", location)
		}
		return f, nil
	}

	bucket, key, err := ParseS3(location)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, errors.NewInvalidConfigError("s3 URI %q has no object key", location)
	}
	store, err := s3.New(ctx, s3.Config{
		Region:    opts.Region,
		Bucket:    bucket,
		Endpoint:  opts.Endpoint,
		PathStyle: opts.PathStyle,
	})
	if err != nil {
		return nil, err
	}
	_, body, err := store.Get(ctx, key)
	return body, err
}
