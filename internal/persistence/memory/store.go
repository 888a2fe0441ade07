// Package memory provides in-process stores for local development and tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/domain"
)

type userKey struct{ tenantID, userID string }

type activityKey struct{ tenantID, userID, activityID string }

type syncKey struct{ tenantID, workoutLogID, activityID string }

// Store keeps connections, callbacks, exercise logs and the sync ledger in memory.
type Store struct {
	mu          sync.RWMutex
	connections map[userKey][]domain.Connection // history; only the last entry may be active
	callbacks   map[activityKey]string
	logs        []domain.ExerciseLogEntry
	syncs       map[syncKey]domain.SyncRecord
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		connections: make(map[userKey][]domain.Connection),
		callbacks:   make(map[activityKey]string),
		syncs:       make(map[syncKey]domain.SyncRecord),
	}
}

// Active implements domain.ConnectionStore.
func (s *Store) Active(_ context.Context, tenantID, userID string) (*domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.connections[userKey{tenantID, userID}]
	if len(history) == 0 || !history[len(history)-1].Active {
		return nil, nil
	}
	conn := history[len(history)-1]
	return &conn, nil
}

// Save implements domain.ConnectionStore. Any previously active connection is deactivated.
func (s *Store) Save(_ context.Context, conn domain.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	key := userKey{conn.TenantID, conn.UserID}
	history := s.connections[key]
	for i := range history {
		if history[i].Active {
			history[i].Active = false
			history[i].UpdatedAt = now
		}
	}
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now
	conn.Active = true
	s.connections[key] = append(history, conn)
	return nil
}

// MarkSynced implements domain.ConnectionStore.
func (s *Store) MarkSynced(_ context.Context, tenantID, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.connections[userKey{tenantID, userID}]
	if len(history) == 0 || !history[len(history)-1].Active {
		return domain.ErrNotConnected
	}
	ts := at.UTC()
	history[len(history)-1].LastSyncAt = &ts
	history[len(history)-1].UpdatedAt = ts
	return nil
}

// Deactivate implements domain.ConnectionStore.
func (s *Store) Deactivate(_ context.Context, tenantID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.connections[userKey{tenantID, userID}]
	if len(history) == 0 || !history[len(history)-1].Active {
		return false, nil
	}
	history[len(history)-1].Active = false
	history[len(history)-1].UpdatedAt = time.Now().UTC()
	return true, nil
}

// SaveCallback implements domain.CallbackStore.
func (s *Store) SaveCallback(_ context.Context, reg domain.CallbackRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks[activityKey{reg.TenantID, reg.UserID, reg.ActivityID}] = reg.CallbackURL
	return nil
}

// CallbackURL implements domain.CallbackStore.
func (s *Store) CallbackURL(_ context.Context, tenantID, userID, activityID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.callbacks[activityKey{tenantID, userID, activityID}], nil
}

// CreateExerciseLog implements domain.ExerciseLogStore.
func (s *Store) CreateExerciseLog(_ context.Context, entry domain.ExerciseLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(entry.ID) == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.SetDetails = append([]domain.SetDetail(nil), entry.SetDetails...)
	s.logs = append(s.logs, entry)
	return nil
}

// ExerciseLogs returns the stored entries of a workout log in insertion order.
func (s *Store) ExerciseLogs(workoutLogID string) []domain.ExerciseLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ExerciseLogEntry
	for _, entry := range s.logs {
		if entry.WorkoutLogID == workoutLogID {
			out = append(out, entry)
		}
	}
	return out
}

// HasSynced implements domain.SyncLedger.
func (s *Store) HasSynced(_ context.Context, tenantID, workoutLogID, activityID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.syncs[syncKey{tenantID, workoutLogID, activityID}]
	return ok, nil
}

// RecordSync implements domain.SyncLedger.
func (s *Store) RecordSync(_ context.Context, record domain.SyncRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := syncKey{record.TenantID, record.WorkoutLogID, record.ActivityID}
	if _, ok := s.syncs[key]; ok {
		return domain.ErrAlreadySynced
	}
	s.syncs[key] = record
	return nil
}

// Locker is an in-process domain.SyncLocker.
type Locker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocker constructs a Locker.
func NewLocker() *Locker {
	return &Locker{held: make(map[string]struct{})}
}

// TryLock implements domain.SyncLocker.
func (l *Locker) TryLock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[key]; busy {
		return nil, domain.ErrSyncInProgress
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
