package services

import (
	"context"

	"github.com/noesis-forge/noesis/pkg/agent/runner"
	"github.com/noesis-forge/noesis/pkg/events"
	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/models"
)

// Stream starts the session's next agent turn and returns its event
// channel. The channel closes when the turn reaches a pause, completes, or
// is interrupted; ctx is the stream's lifetime, so a client disconnect
// interrupts the turn at its next checkpoint.
func (s *SessionService) Stream(ctx context.Context, id string) (<-chan events.Event, error) {
	return s.startTurn(ctx, id, nil)
}

// SubmitInput resumes a paused session with a review answer and returns the
// continuation turn's event channel.
func (s *SessionService) SubmitInput(ctx context.Context, id string, in *models.UserInput) (<-chan events.Event, error) {
	if in == nil {
		return nil, NewValidationError("type", "missing input")
	}
	return s.startTurn(ctx, id, in)
}

// startTurn admits at most one turn per session: it takes the run lock,
// validates the input against the awaited pause, drains queued research
// directives into the state, and hands the turn to the runner on its own
// goroutine. The lock is released when the runner finishes committing.
func (s *SessionService) startTurn(ctx context.Context, id string, in *models.UserInput) (<-chan events.Event, error) {
	sess, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if forge.SessionStatus(sess.Status).IsTerminal() {
		return nil, ErrSessionClosed
	}

	entry, err := s.entry(sess)
	if err != nil {
		return nil, err
	}
	if !entry.mu.TryLock() {
		return nil, ErrSessionBusy
	}

	st := entry.state
	if st.Cancelled.Load() {
		entry.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if in == nil && st.AwaitingUserInput {
		entry.mu.Unlock()
		return nil, ErrAwaitingInput
	}
	if in != nil {
		if err := validateInput(st, in); err != nil {
			entry.mu.Unlock()
			return nil, err
		}
	}

	s.mu.Lock()
	for _, d := range entry.pending {
		st.AddResearchDirective(d)
	}
	entry.pending = nil
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	entry.cancelTurn = cancel
	s.mu.Unlock()

	emitter := events.NewEmitter(eventBuffer)
	turn := &runner.Turn{
		Session:  sess,
		State:    st,
		Research: s.research,
		Input:    in,
		Emitter:  emitter,
	}

	go func() {
		defer entry.mu.Unlock()
		defer func() {
			s.mu.Lock()
			entry.cancelTurn = nil
			s.mu.Unlock()
			cancel()
		}()
		s.runner.Run(runCtx, turn)
	}()

	return emitter.Events(), nil
}
