package services

import (
	"fmt"
	"sync"

	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/store"
)

// StateEntry holds the in-memory half of a session: the working state the
// agent mutates across a turn, the run lock that serializes turns, and
// directives queued while no turn is live. The durable snapshot in the
// sessions row is the recovery copy; between turns the entry is
// authoritative.
type StateEntry struct {
	// mu is the run lock. A turn holds it from admission until the runner
	// goroutine finishes committing, so concurrent streams and inputs for
	// the same session are rejected rather than interleaved.
	mu sync.Mutex

	state *forge.State

	// cancelTurn aborts the live turn's context. Guarded by the service
	// mutex, nil when no turn is running.
	cancelTurn func()

	// pending holds research directives queued between turns. Guarded by
	// the service mutex; drained into the state under the run lock.
	pending []forge.Directive
}

// entry returns the in-memory entry for a session, restoring it from the
// durable snapshot on first access after a restart. The restored state keeps
// the snapshot's own round budget so a mid-flight session is not re-gated by
// a config change.
func (s *SessionService) entry(sess *store.Session) (*StateEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[sess.ID]; ok {
		return e, nil
	}

	var st *forge.State
	if len(sess.StateSnapshot) == 0 {
		// No turn has committed yet. Decode would hand back an
		// English-locale default, so rebuild from the session row instead.
		st = forge.NewState(forge.Locale(sess.Locale), sess.LocaleConfidence)
		st.MaxRounds = s.maxRounds
	} else {
		var err error
		st, err = forge.Decode(sess.StateSnapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to restore session state: %w", err)
		}
	}

	e := &StateEntry{state: st}
	s.entries[sess.ID] = e
	return e, nil
}

// evict drops the in-memory entry and returns it so the caller can flag the
// state and abort a live turn outside the service lock.
func (s *SessionService) evict(id string) (*StateEntry, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[id]
	delete(s.entries, id)
	if e == nil {
		return nil, nil
	}
	return e, e.cancelTurn
}
