// Package gcs implements the ObjectStore capability on Google Cloud Storage.
package gcs

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
)

// Store is an ObjectStore backed by GCS.
type Store struct {
	client *storage.Client
}

// NewStore returns a Store using application default credentials.
func NewStore(ctx context.Context) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting storage client")
	}
	return &Store{client: client}, nil
}

// Put writes data to bucket/path, overwriting any existing object.
func (s *Store) Put(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	w := s.client.Bucket(bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return errors.Wrapf(w.Close(), "finishing write of %s", path)
}

// Get reads the object at bucket/path.
func (s *Store) Get(ctx context.Context, bucket, path string) ([]byte, error) {
	r, err := s.client.Bucket(bucket).Object(path).NewReader(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	return data, errors.Wrapf(err, "reading %s", path)
}

// Exists reports whether an object exists at bucket/path.
func (s *Store) Exists(ctx context.Context, bucket, path string) (bool, error) {
	_, err := s.client.Bucket(bucket).Object(path).Attrs(ctx)
	if err == storage.ErrObjectNotExist {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "statting %s", path)
	}
	return true, nil
}

// List returns the paths of all objects under prefix.
func (s *Store) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	it := s.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return names, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "listing %s", prefix)
		}
		names = append(names, attrs.Name)
	}
}

// URI renders a gs:// URI for bucket/path.
func (s *Store) URI(bucket, path string) string {
	return "gs://" + bucket + "/" + path
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
