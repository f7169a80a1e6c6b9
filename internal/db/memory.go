package db

import (
	"context"
	"sync"

	"sentinelle/internal/backup"
)

// MemoryBackupStore is the in-process RecentStore used when no database is
// configured. Backup observations then survive only for the process lifetime,
// which still covers the common case of a transient upstream outage.
type MemoryBackupStore struct {
	mu   sync.RWMutex
	recs map[string]backup.Record
}

// NewMemoryBackupStore creates an empty in-memory backup store.
func NewMemoryBackupStore() *MemoryBackupStore {
	return &MemoryBackupStore{recs: make(map[string]backup.Record)}
}

// Save stores the latest observation for the location.
func (s *MemoryBackupStore) Save(_ context.Context, rec backup.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.Location] = rec
	return nil
}

// Latest returns the stored observation for the location, nil when absent.
func (s *MemoryBackupStore) Latest(_ context.Context, location string) (*backup.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[location]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}
