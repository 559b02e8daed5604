package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/helmcode/kubectl-remediate/pkg/model"
)

// FileStore keeps one JSON file per session under a directory, named
// by session ID. Writes go through a temporary file followed by a
// rename so a crash mid-write never leaves a half-written record.
type FileStore struct {
	dir string
}

// NewFileStore creates the session directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) path(id string) string {
	return filepath.Join(fs.dir, id+".json")
}

// Create writes a new record, failing if one already exists at that
// identifier.
func (fs *FileStore) Create(_ context.Context, s *model.Session) error {
	if s.ID == "" {
		return fmt.Errorf("session has no ID")
	}
	if _, err := os.Stat(fs.path(s.ID)); err == nil {
		return fmt.Errorf("session %s: %w", s.ID, ErrExists)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat session %s: %w", s.ID, err)
	}
	return fs.write(s)
}

// Read returns the record or ErrNotFound.
func (fs *FileStore) Read(_ context.Context, id string) (*model.Session, error) {
	data, err := os.ReadFile(fs.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

// Update loads the current record, applies the change, stamps Updated
// and writes the whole record atomically.
func (fs *FileStore) Update(ctx context.Context, id string, apply func(*model.Session)) (*model.Session, error) {
	s, err := fs.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(s)
	s.Updated = time.Now().UTC()
	if err := fs.write(s); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns all stored sessions, newest first. ULIDs sort
// lexicographically by creation time, so the filename is the sort key.
func (fs *FileStore) List(_ context.Context) ([]*model.Session, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("list session directory %q: %w", fs.dir, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	sessions := make([]*model.Session, 0, len(ids))
	for _, id := range ids {
		s, err := fs.Read(context.Background(), id)
		if err != nil {
			log.Warn().Err(err).Str("session_id", id).Msg("Skipping unreadable session file")
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (fs *FileStore) write(s *model.Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.ID, err)
	}

	tmp, err := os.CreateTemp(fs.dir, s.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for session %s: %w", s.ID, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write session %s: %w", s.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file for session %s: %w", s.ID, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod session %s: %w", s.ID, err)
	}
	if err := os.Rename(tmpName, fs.path(s.ID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename session %s into place: %w", s.ID, err)
	}
	return nil
}
