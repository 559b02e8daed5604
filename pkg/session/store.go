package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/helmcode/kubectl-remediate/pkg/model"
)

var (
	// ErrNotFound is returned when no session exists for the given ID.
	ErrNotFound = errors.New("session not found")
	// ErrExists is returned by Create when a record already exists at
	// that identifier.
	ErrExists = errors.New("session already exists")
)

// Store persists remediation sessions. Implementations must make
// Update a whole-record replacement: load, apply, stamp Updated,
// write atomically. There is no field-level merge across concurrent
// writers; two processes updating the same session race (last writer
// wins).
type Store interface {
	Create(ctx context.Context, s *model.Session) error
	Read(ctx context.Context, id string) (*model.Session, error)
	Update(ctx context.Context, id string, apply func(*model.Session)) (*model.Session, error)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewID returns a fresh session identifier: a ULID, time-ordered with
// a random suffix.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewSession builds an unsaved session record in the investigating
// state.
func NewSession(issue string, mode model.Mode) *model.Session {
	now := time.Now().UTC()
	return &model.Session{
		ID:      NewID(),
		Issue:   issue,
		Mode:    mode,
		Status:  model.StatusInvestigating,
		Created: now,
		Updated: now,
	}
}
