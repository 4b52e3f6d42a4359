package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CleanSheetLabs/cleansheet/internal/analysis"
	"github.com/CleanSheetLabs/cleansheet/internal/clean"
	"github.com/CleanSheetLabs/cleansheet/internal/table"
)

// ErrNoDataset is returned when a handler needs a dataset and none exists.
var ErrNoDataset = errors.New("no dataset uploaded")

// Dataset holds one uploaded file and everything derived from it.
type Dataset struct {
	ID         string
	Filename   string
	UploadedAt time.Time

	Raw          *table.Table
	Clean        *table.Table
	RawSummary   *analysis.Summary
	CleanSummary *analysis.Summary
	Report       *clean.Report
}

// Store keeps uploaded datasets in memory. The newest upload becomes the
// default target for id-less requests; when capacity is exceeded the oldest
// entry is dropped.
type Store struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string]*Dataset
	order    []string
	latest   string
}

// NewStore creates a store holding at most capacity datasets.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = 16
	}
	return &Store{capacity: capacity, entries: map[string]*Dataset{}}
}

// Put stores a dataset under a fresh uuid and returns the id.
func (s *Store) Put(d *Dataset) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = uuid.NewString()
	d.UploadedAt = time.Now()
	s.entries[d.ID] = d
	s.order = append(s.order, d.ID)
	s.latest = d.ID
	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
	return d.ID
}

// Get returns the dataset with the given id, or the latest when id is "".
func (s *Store) Get(id string) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == "" {
		id = s.latest
	}
	d, ok := s.entries[id]
	if !ok {
		return nil, ErrNoDataset
	}
	return d, nil
}

// Len reports how many datasets are held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
