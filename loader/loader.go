// Package loader incrementally loads newly completed parquet hour folders
// into the warehouse table, exactly once per folder, tracked by a durable
// checkpoint in the object store.
//
// The loader is the one stateful component of the pipeline and performs a
// read-diff-write cycle on its checkpoint with no concurrency token, so at
// most one instance may run at a time. Enforce that externally with a
// non-overlapping schedule; the loader is designed to run as a fresh process
// per invocation.
package loader

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/soflow/soflow"
	"github.com/soflow/soflow/columnar"
)

// DefaultCheckpointObject returns the default checkpoint path for a prefix.
func DefaultCheckpointObject(prefix string) string {
	return prefix + "/_checkpoints/bq_loader_state.json"
}

// Loader scans for completed parquet hour folders, diffs them against the
// checkpoint and loads only the delta into the warehouse table.
type Loader struct {
	Store     soflow.ObjectStore
	Warehouse soflow.Warehouse

	// RawBucket holds the checkpoint object; ProcessedBucket holds the
	// parquet artifacts.
	RawBucket        string
	ProcessedBucket  string
	Prefix           string
	CheckpointObject string

	Dataset string
	Table   string
}

// Result reports what one run did.
type Result struct {
	// Discovered is how many distinct parquet hour folders exist.
	Discovered int
	// Loaded are the folders confirmed loaded by this run, in load order.
	Loaded []string
	// FailedFolder is the folder whose load job failed, if any. Folders in
	// Loaded were confirmed but are NOT checkpointed when FailedFolder is
	// set; they will be reloaded on the next run.
	FailedFolder string
	// Committed reports whether the checkpoint was rewritten.
	Committed bool
}

// Run executes one provision-scan-diff-load-commit cycle. On a load failure
// it stops immediately, commits nothing, and returns both the error and a
// Result naming the failed folder and the loads this run had confirmed.
func (l *Loader) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	if err := l.Warehouse.EnsureDataset(ctx, l.Dataset); err != nil {
		return res, errors.Wrap(err, "ensuring dataset")
	}

	folders, err := l.scanHourFolders(ctx)
	if err != nil {
		return res, err
	}
	res.Discovered = len(folders)

	cp, err := readCheckpoint(ctx, l.Store, l.RawBucket, l.checkpointObject())
	if err != nil {
		return res, err
	}
	loaded := cp.Set()
	log.Printf("checkpoint holds %d loaded hour folders", len(loaded))

	delta := make([]string, 0, len(folders))
	for f := range folders {
		if !loaded[f] {
			delta = append(delta, f)
		}
	}
	sort.Strings(delta)

	if len(delta) == 0 {
		log.Printf("no new hour folders found, nothing to load")
		return res, nil
	}

	// Loads are strictly sequential and each blocks until the job is
	// confirmed, so the checkpoint always describes a clean prefix of
	// completed work.
	for _, folder := range delta {
		uri := l.Store.URI(l.ProcessedBucket, folder+"/*."+columnar.Ext)
		log.Printf("loading %s -> %s.%s", uri, l.Dataset, l.Table)
		if err := l.Warehouse.LoadFolder(ctx, uri, l.Dataset, l.Table); err != nil {
			res.FailedFolder = folder
			return res, soflow.FaultWrap(soflow.LoadJobFailure, err, "loading folder "+folder)
		}
		res.Loaded = append(res.Loaded, folder)
		loaded[folder] = true
	}

	union := make([]string, 0, len(loaded))
	for f := range loaded {
		union = append(union, f)
	}
	cp.LoadedHourFolders = union
	if err := writeCheckpoint(ctx, l.Store, l.RawBucket, l.checkpointObject(), cp); err != nil {
		return res, err
	}
	res.Committed = true
	log.Printf("loaded %d new hour folders, checkpoint updated", len(res.Loaded))
	return res, nil
}

// scanHourFolders enumerates every parquet artifact under the prefix and
// collects the distinct processed folders containing at least one. The
// folder, not the file, is the unit of load.
func (l *Loader) scanHourFolders(ctx context.Context) (map[string]bool, error) {
	names, err := l.Store.List(ctx, l.ProcessedBucket, l.Prefix+"/")
	if err != nil {
		return nil, soflow.FaultWrap(soflow.StorageFailure, err, "listing processed artifacts")
	}
	folders := make(map[string]bool)
	for _, name := range names {
		if !strings.Contains(name, "/"+soflow.KindProcessed+"/") || !strings.HasSuffix(name, "."+columnar.Ext) {
			continue
		}
		i := strings.LastIndex(name, "/")
		folders[name[:i]] = true
	}
	return folders, nil
}

func (l *Loader) checkpointObject() string {
	if l.CheckpointObject != "" {
		return l.CheckpointObject
	}
	return DefaultCheckpointObject(l.Prefix)
}
