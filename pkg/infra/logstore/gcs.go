package logstore

import (
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

// GCS saves build logs as objects in a Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS creates a log store writing to gs://<bucket>/<prefix>. Credentials
// come from the application default credential chain.
func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create cloud storage client")
	}
	return &GCS{client: client, bucket: bucket, prefix: prefix}, nil
}

// Save uploads the log and returns its gs:// URL.
func (s *GCS) Save(ctx context.Context, id string, log []byte) (string, error) {
	name := path.Join(s.prefix, id+".log")

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "text/plain; charset=utf-8"

	if _, err := w.Write(log); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write build log", goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize build log", goerr.V("object", name))
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, name), nil
}

// Close releases the storage client.
func (s *GCS) Close() error {
	return s.client.Close()
}
