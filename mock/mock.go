// Package mock holds in-memory implementations of the pipeline's capability
// interfaces for use in tests.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/soflow/soflow"
)

var (
	_ soflow.ObjectStore = (*ObjectStore)(nil)
	_ soflow.Publisher   = (*Publisher)(nil)
	_ soflow.Warehouse   = (*Warehouse)(nil)
)

// ObjectStore keeps objects in a map keyed by "bucket/path".
type ObjectStore struct {
	mu           sync.Mutex
	Objects      map[string][]byte
	ContentTypes map[string]string

	// PutErr, when set, fails every Put.
	PutErr error
}

// NewObjectStore returns an empty store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		Objects:      make(map[string][]byte),
		ContentTypes: make(map[string]string),
	}
}

func key(bucket, path string) string { return bucket + "/" + path }

func (s *ObjectStore) Put(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.Objects[key(bucket, path)] = cp
	s.ContentTypes[key(bucket, path)] = contentType
	return nil
}

func (s *ObjectStore) Get(ctx context.Context, bucket, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.Objects[key(bucket, path)]
	if !ok {
		return nil, errors.Errorf("no object at %s", key(bucket, path))
	}
	return data, nil
}

func (s *ObjectStore) Exists(ctx context.Context, bucket, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Objects[key(bucket, path)]
	return ok, nil
}

// List returns matching paths in map iteration order, deliberately
// unordered like a real store's paged listing.
func (s *ObjectStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for k := range s.Objects {
		if strings.HasPrefix(k, bucket+"/") {
			path := strings.TrimPrefix(k, bucket+"/")
			if strings.HasPrefix(path, prefix) {
				names = append(names, path)
			}
		}
	}
	return names, nil
}

func (s *ObjectStore) URI(bucket, path string) string {
	return "mem://" + bucket + "/" + path
}

// Published is one message captured by Publisher.
type Published struct {
	Data  []byte
	Attrs map[string]string
}

// Publisher records everything published to it.
type Publisher struct {
	mu        sync.Mutex
	Published []Published

	// Err, when set, fails every Publish.
	Err error
}

func (p *Publisher) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return "", p.Err
	}
	p.Published = append(p.Published, Published{Data: data, Attrs: attrs})
	return fmt.Sprintf("m%d", len(p.Published)), nil
}

// Load is one load operation captured by Warehouse.
type Load struct {
	SourceURI string
	Dataset   string
	Table     string
}

// Warehouse records dataset provisioning and load operations, optionally
// failing loads whose source URI contains FailURISubstring.
type Warehouse struct {
	mu              sync.Mutex
	EnsuredDatasets []string
	Loads           []Load

	EnsureErr        error
	FailURISubstring string
}

func (w *Warehouse) EnsureDataset(ctx context.Context, dataset string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.EnsureErr != nil {
		return w.EnsureErr
	}
	w.EnsuredDatasets = append(w.EnsuredDatasets, dataset)
	return nil
}

func (w *Warehouse) LoadFolder(ctx context.Context, sourceURIPattern, dataset, table string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FailURISubstring != "" && strings.Contains(sourceURIPattern, w.FailURISubstring) {
		return errors.Errorf("load job failed for %s", sourceURIPattern)
	}
	w.Loads = append(w.Loads, Load{SourceURI: sourceURIPattern, Dataset: dataset, Table: table})
	return nil
}
