package sessionstorage

import (
	"context"
	"github.com/burenotti/go_health_funnel/internal/adapter/storage"
	"github.com/burenotti/go_health_funnel/internal/domain"
	"github.com/burenotti/go_health_funnel/internal/domain/funnel"
	"sync"
	"time"
)

// MemoryBackend keeps sessions in process memory. Used in development and tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]record
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]record)}
}

// Storage ignores db: memory sessions are not transactional.
func (b *MemoryBackend) Storage(_ storage.DBContext) *MemoryStorage {
	return &MemoryStorage{backend: b, seen: newTracker()}
}

func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

type MemoryStorage struct {
	backend *MemoryBackend
	seen    *tracker
}

func (s *MemoryStorage) Add(_ context.Context, sess *funnel.Session) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	if _, ok := s.backend.records[sess.SessionID]; ok {
		return funnel.ErrSessionExists
	}
	s.backend.records[sess.SessionID] = toRecord(sess)
	s.seen.mark(sess)
	return nil
}

func (s *MemoryStorage) GetByID(_ context.Context, sessionID string) (*funnel.Session, error) {
	s.backend.mu.RLock()
	r, ok := s.backend.records[sessionID]
	s.backend.mu.RUnlock()

	if !ok {
		return nil, funnel.ErrSessionNotFound
	}
	sess := r.toDomain()
	s.seen.mark(sess)
	return sess, nil
}

func (s *MemoryStorage) Persist(_ context.Context, sess *funnel.Session) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	if _, ok := s.backend.records[sess.SessionID]; !ok {
		return funnel.ErrSessionNotFound
	}
	s.backend.records[sess.SessionID] = toRecord(sess)
	s.seen.mark(sess)
	return nil
}

func (s *MemoryStorage) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	var n int64
	for id, r := range s.backend.records {
		if !now.Before(r.ExpiresAt) {
			delete(s.backend.records, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStorage) CollectEvents() []domain.Event {
	return s.seen.collect()
}

func (s *MemoryStorage) Close() error {
	s.seen.clear()
	return nil
}
