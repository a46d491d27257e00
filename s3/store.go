// Package s3 implements the ObjectStore capability on AWS S3, for
// deployments that keep artifacts outside GCP.
package s3

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
)

// Store is an ObjectStore backed by S3.
type Store struct {
	s3   *s3.S3
	sess *session.Session
}

// NewStore returns a Store for the given AWS region.
func NewStore(region string) (*Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, errors.Wrap(err, "getting aws session")
	}
	return &Store{s3: s3.New(sess), sess: sess}, nil
}

// Put writes data to bucket/path, overwriting any existing object.
func (s *Store) Put(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	_, err := s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	return errors.Wrapf(err, "putting %s", path)
}

// Get reads the object at bucket/path.
func (s *Store) Get(ctx context.Context, bucket, path string) ([]byte, error) {
	out, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", path)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	return data, errors.Wrapf(err, "reading %s", path)
}

// Exists reports whether an object exists at bucket/path.
func (s *Store) Exists(ctx context.Context, bucket, path string) (bool, error) {
	_, err := s.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if reqErr, ok := err.(awserr.RequestFailure); ok && reqErr.StatusCode() == 404 {
			return false, nil
		}
		return false, errors.Wrapf(err, "statting %s", path)
	}
	return true, nil
}

// List returns the paths of all objects under prefix, walking every page.
func (s *Store) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var names []string
	err := s.s3.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			names = append(names, *obj.Key)
		}
		return true
	})
	return names, errors.Wrapf(err, "listing %s", prefix)
}

// URI renders an s3:// URI for bucket/path.
func (s *Store) URI(bucket, path string) string {
	return "s3://" + bucket + "/" + path
}
