// Package gcs provides a payload archive backed by Google Cloud Storage.
package gcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"

	"github.com/scoreline/scoreline/internal/archive"
	"github.com/scoreline/scoreline/internal/scoreboard"
)

// Config captures the parameters required to connect to GCS.
type Config struct {
	Bucket string
	Prefix string
}

// Archive writes payloads to a configured GCS bucket.
type Archive struct {
	client *storage.Client
	bucket string
	prefix string
	now    func() time.Time
}

// New creates a GCS-backed archive.
func New(client *storage.Client, cfg Config) (*Archive, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &Archive{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		now:    time.Now,
	}, nil
}

// PutPayload uploads the body and returns a gs:// URI.
func (a *Archive) PutPayload(ctx context.Context, provider string, sport scoreboard.Sport, date string, body []byte) (string, error) {
	path := archive.ObjectPath(provider, sport, date, a.now())
	if a.prefix != "" {
		path = a.prefix + "/" + path
	}
	writer := a.client.Bucket(a.bucket).Object(path).NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := io.Copy(writer, bytes.NewReader(body)); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("copy payload: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", a.bucket, path), nil
}
