package objectstore

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	storage_go "github.com/supabase-community/storage-go"

	"docchat/internal/config"
)

var (
	// ErrUploadFailed wraps storage backend errors during upload.
	ErrUploadFailed = errors.New("object upload failed")
	// ErrDownloadFailed wraps storage backend errors during download.
	ErrDownloadFailed = errors.New("object download failed")
)

// Client wraps the Supabase storage client to centralize bucket
// configuration.
type Client struct {
	inner  *storage_go.Client
	bucket string
}

// NewClient creates the storage client from app config.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, errors.New("supabase url and key are required")
	}

	endpoint := strings.TrimSuffix(cfg.SupabaseURL, "/") + "/storage/v1"
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "documents"
	}
	return &Client{
		inner:  storage_go.NewClient(endpoint, cfg.SupabaseKey, nil),
		bucket: bucket,
	}, nil
}

// Upload stores data under path in the configured bucket.
func (c *Client) Upload(path string, data []byte, contentType string) error {
	if c == nil || c.inner == nil {
		return errors.New("storage client not initialized")
	}
	options := storage_go.FileOptions{}
	if contentType != "" {
		options.ContentType = &contentType
	}
	if _, err := c.inner.UploadFile(c.bucket, path, bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	c.debugObject(path)
	return nil
}

// Download fetches the object bytes stored under path.
func (c *Client) Download(path string) ([]byte, error) {
	if c == nil || c.inner == nil {
		return nil, errors.New("storage client not initialized")
	}
	data, err := c.inner.DownloadFile(c.bucket, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return data, nil
}

// Delete removes the object stored under path. Single attempt; callers
// decide whether a failure aborts their flow.
func (c *Client) Delete(path string) error {
	if c == nil || c.inner == nil {
		return errors.New("storage client not initialized")
	}
	if _, err := c.inner.RemoveFile(c.bucket, []string{path}); err != nil {
		return fmt.Errorf("remove object %s: %w", path, err)
	}
	return nil
}
