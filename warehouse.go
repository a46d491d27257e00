package soflow

import "context"

// Warehouse is the analytical warehouse capability used by the loader.
type Warehouse interface {
	// EnsureDataset gets or creates the destination dataset. Creation is
	// idempotent; an already-existing dataset is not an error even when
	// its location differs from the configured one.
	EnsureDataset(ctx context.Context, dataset string) error
	// LoadFolder loads every columnar artifact matching sourceURIPattern
	// (a wildcard over one partition folder) into dataset.table in append
	// mode, creating the table on first load. It blocks until the remote
	// job completes or fails.
	LoadFolder(ctx context.Context, sourceURIPattern, dataset, table string) error
}
