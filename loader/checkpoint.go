package loader

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/soflow/soflow"
)

// Checkpoint is the durable record of which hour folders have been loaded
// into the warehouse table. It is one JSON object at a fixed path, owned
// exclusively by the loader: read at the start of a run, written once at the
// end, or never when the run is empty or fails.
type Checkpoint struct {
	LoadedHourFolders []string `json:"loaded_hour_folders"`
}

// Set returns the checkpointed folders as a set.
func (c *Checkpoint) Set() map[string]bool {
	s := make(map[string]bool, len(c.LoadedHourFolders))
	for _, f := range c.LoadedHourFolders {
		s[f] = true
	}
	return s
}

// readCheckpoint fetches the checkpoint object. A missing object is an empty
// checkpoint, not an error; unknown or legacy keys in the document are
// ignored.
func readCheckpoint(ctx context.Context, store soflow.ObjectStore, bucket, object string) (*Checkpoint, error) {
	ok, err := store.Exists(ctx, bucket, object)
	if err != nil {
		return nil, soflow.FaultWrap(soflow.StorageFailure, err, "checking checkpoint object")
	}
	if !ok {
		return &Checkpoint{}, nil
	}
	data, err := store.Get(ctx, bucket, object)
	if err != nil {
		return nil, soflow.FaultWrap(soflow.StorageFailure, err, "reading checkpoint object")
	}
	cp := &Checkpoint{}
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, soflow.FaultWrap(soflow.StorageFailure, err, "parsing checkpoint object")
	}
	return cp, nil
}

// writeCheckpoint persists cp as a single atomic object write, folders
// sorted for stable diffs.
func writeCheckpoint(ctx context.Context, store soflow.ObjectStore, bucket, object string, cp *Checkpoint) error {
	sort.Strings(cp.LoadedHourFolders)
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return soflow.FaultWrap(soflow.StorageFailure, err, "marshaling checkpoint")
	}
	if err := store.Put(ctx, bucket, object, data, "application/json"); err != nil {
		return soflow.FaultWrap(soflow.StorageFailure, err, "writing checkpoint object")
	}
	return nil
}
