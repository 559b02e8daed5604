package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/helmcode/kubectl-remediate/pkg/model"
)

// MemoryStore is an in-memory Store used by tests. It honors the same
// contract as FileStore: whole-record replacement, Updated stamped on
// every mutation.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*model.Session)}
}

func (ms *MemoryStore) Create(_ context.Context, s *model.Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.sessions[s.ID]; ok {
		return fmt.Errorf("session %s: %w", s.ID, ErrExists)
	}
	cp := *s
	ms.sessions[s.ID] = &cp
	return nil
}

func (ms *MemoryStore) Read(_ context.Context, id string) (*model.Session, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	s, ok := ms.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

// All returns every stored session, in no particular order.
func (ms *MemoryStore) All() []*model.Session {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	out := make([]*model.Session, 0, len(ms.sessions))
	for _, s := range ms.sessions {
		cp := *s
		out = append(out, &cp)
	}
	return out
}

func (ms *MemoryStore) Update(_ context.Context, id string, apply func(*model.Session)) (*model.Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	s, ok := ms.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	cp := *s
	apply(&cp)
	cp.Updated = time.Now().UTC()
	ms.sessions[id] = &cp
	out := cp
	return &out, nil
}
