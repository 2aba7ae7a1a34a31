// Package state persists the monitor's working set: the active port-call
// map and the live history window, saved together atomically so they can
// never drift apart.
//
// Concurrent invocations against the same state file are a lost-update
// hazard: two overlapping cycles would both load, mutate independently, and
// the later save would clobber the earlier one's transitions. Non-overlap
// is a deployment precondition; the store does not take locks.
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/ANPalert-art/Port-rep/internal/models"
)

// HistoryWindow caps the live history slice on save. Older records are only
// preserved through report-cycle archival.
const HistoryWindow = 1000

// State is the persisted two-key structure: one TrackedVessel per active
// port call plus the append-only live history window.
type State struct {
	Active  map[models.Identity]*models.TrackedVessel `json:"active"`
	History []models.HistoryRecord                    `json:"history"`
}

// NewState returns an empty state, the cold-start fallback.
func NewState() *State {
	return &State{
		Active:  make(map[models.Identity]*models.TrackedVessel),
		History: []models.HistoryRecord{},
	}
}

// Store loads and saves State against a durable file, with an
// environment-supplied JSON blob as secondary fallback source.
type Store struct {
	path        string
	fallbackEnv string
	logger      *slog.Logger
}

// NewStore creates a store over the given file path. fallbackEnv names an
// environment variable holding a JSON state blob consulted when the file
// is absent or unreadable; empty disables the fallback.
func NewStore(path, fallbackEnv string, logger *slog.Logger) *Store {
	return &Store{
		path:        path,
		fallbackEnv: fallbackEnv,
		logger:      logger.With("component", "state_store"),
	}
}

// Load reads persisted state: primary file first, then the environment
// blob, else an empty state. It never fails — malformed input is treated
// as "no prior state", accepting one cycle of fresh-start treatment over
// refusing to run.
func (s *Store) Load() *State {
	if data, err := os.ReadFile(s.path); err == nil {
		if st, derr := decode(data); derr == nil {
			s.logger.Debug("state_loaded", "path", s.path, "active", len(st.Active), "history", len(st.History))
			return st
		} else {
			s.logger.Warn("state_file_malformed", "path", s.path, "error", derr)
		}
	} else if !os.IsNotExist(err) {
		s.logger.Warn("state_file_unreadable", "path", s.path, "error", err)
	}

	if s.fallbackEnv != "" {
		if blob := os.Getenv(s.fallbackEnv); blob != "" {
			if st, err := decode([]byte(blob)); err == nil {
				s.logger.Info("state_loaded_from_env", "env", s.fallbackEnv, "active", len(st.Active))
				return st
			} else {
				s.logger.Warn("state_env_blob_malformed", "env", s.fallbackEnv, "error", err)
			}
		}
	}

	s.logger.Info("state_cold_start")
	return NewState()
}

// Save persists state atomically: trim the history window, write a temp
// file alongside the target, snapshot the previous file to a .bak path,
// then rename into place. A returned error is non-fatal to the cycle that
// already ran in memory; the operator recovers from the backup.
func (s *Store) Save(st *State) error {
	if len(st.History) > HistoryWindow {
		st.History = st.History[len(st.History)-HistoryWindow:]
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data = append(data, '\n')

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp state: %w", err)
	}

	if prev, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.path+".bak", prev, 0o644); err != nil {
			s.logger.Warn("state_backup_failed", "error", err)
		}
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	s.logger.Debug("state_saved", "path", s.path, "active", len(st.Active), "history", len(st.History))
	return nil
}

func decode(data []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	if st.Active == nil {
		st.Active = make(map[models.Identity]*models.TrackedVessel)
	}
	if st.History == nil {
		st.History = []models.HistoryRecord{}
	}
	return &st, nil
}
