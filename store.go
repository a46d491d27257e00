package soflow

import "context"

// ObjectStore is the object storage capability used for artifacts and the
// loader checkpoint. Implementations live in the gcs and s3 subpackages; an
// in-memory one for tests lives in mock.
type ObjectStore interface {
	// Put writes data to bucket/path, overwriting any existing object.
	Put(ctx context.Context, bucket, path string, data []byte, contentType string) error
	// Get reads the object at bucket/path.
	Get(ctx context.Context, bucket, path string) ([]byte, error)
	// Exists reports whether an object exists at bucket/path.
	Exists(ctx context.Context, bucket, path string) (bool, error)
	// List returns the paths of all objects under prefix. Order is
	// unspecified, but one call is exhaustive over the prefix.
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	// URI renders a bucket/path pair as the store's native URI (gs://,
	// s3://, ...), suitable for handing to a warehouse load job.
	URI(bucket, path string) string
}
