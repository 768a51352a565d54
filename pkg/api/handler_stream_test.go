package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noesis-forge/noesis/pkg/events"
	"github.com/noesis-forge/noesis/pkg/models"
	"github.com/noesis-forge/noesis/pkg/services"
)

// closedEventChannel returns a channel pre-filled with evs and already
// closed, so serveSSE drains it and returns without another goroutine.
func closedEventChannel(evs ...events.Event) <-chan events.Event {
	ch := make(chan events.Event, len(evs))
	for _, ev := range evs {
		ch <- ev
	}
	close(ch)
	return ch
}

func TestStreamSessionHandler(t *testing.T) {
	t.Run("frames events as SSE until the channel closes", func(t *testing.T) {
		stub := &sessionAPIStub{
			streamFn: func(ctx context.Context, id string) (<-chan events.Event, error) {
				return closedEventChannel(
					events.Text("hello"),
					events.ToolCall("propose_claim"),
					events.Done(false, true, "decompose_review"),
				), nil
			},
		}
		h := newTestServer(stub, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/sess-1/stream", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
		assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
		assert.True(t, rec.Flushed)

		body := rec.Body.String()
		frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
		require.Len(t, frames, 3)
		for _, frame := range frames {
			assert.True(t, strings.HasPrefix(frame, "data: "), "frame %q missing data prefix", frame)
		}
		assert.Contains(t, frames[0], `"type":"agent_text"`)
		assert.Contains(t, frames[0], `"text":"hello"`)
		assert.Contains(t, frames[1], `"type":"tool_call"`)
		assert.Contains(t, frames[2], `"type":"done"`)
		assert.Contains(t, frames[2], `"awaiting_input":true`)
	})

	t.Run("busy session returns 409 before streaming", func(t *testing.T) {
		stub := &sessionAPIStub{
			streamFn: func(ctx context.Context, id string) (<-chan events.Event, error) {
				return nil, services.ErrSessionBusy
			},
		}
		h := newTestServer(stub, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/sess-1/stream", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusConflict, rec.Code)
		body := decodeErrorBody(t, rec)
		assert.Equal(t, "CONFLICT", body.Error.Code)
	})

	t.Run("unknown session returns 404", func(t *testing.T) {
		stub := &sessionAPIStub{
			streamFn: func(ctx context.Context, id string) (<-chan events.Event, error) {
				return nil, services.ErrNotFound
			},
		}
		h := newTestServer(stub, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/nope/stream", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUserInputHandler(t *testing.T) {
	t.Run("resumes with verdicts and streams the continuation", func(t *testing.T) {
		var seen *models.UserInput
		stub := &sessionAPIStub{
			inputFn: func(ctx context.Context, id string, in *models.UserInput) (<-chan events.Event, error) {
				seen = in
				return closedEventChannel(events.Done(false, false, "")), nil
			},
		}
		h := newTestServer(stub, nil)

		body := bytes.NewBufferString(`{
			"type": "verdicts",
			"verdicts": [
				{"claim_index": 0, "verdict": "accept"},
				{"claim_index": 1, "verdict": "reject", "rejection_reason": "circular"}
			]
		}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/sess-1/user-input", body)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

		require.NotNil(t, seen)
		assert.Equal(t, models.InputVerdicts, seen.Type)
		require.NotNil(t, seen.Verdicts)
		require.Len(t, seen.Verdicts.Verdicts, 2)
		assert.Equal(t, "reject", seen.Verdicts.Verdicts[1].Verdict)

		assert.Contains(t, rec.Body.String(), `"type":"done"`)
	})

	t.Run("unknown input type returns 400", func(t *testing.T) {
		h := newTestServer(&sessionAPIStub{}, nil)

		body := bytes.NewBufferString(`{"type": "telepathy"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/sess-1/user-input", body)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		errBody := decodeErrorBody(t, rec)
		assert.Equal(t, "VALIDATION_ERROR", errBody.Error.Code)
	})

	t.Run("session not paused returns 409", func(t *testing.T) {
		stub := &sessionAPIStub{
			inputFn: func(ctx context.Context, id string, in *models.UserInput) (<-chan events.Event, error) {
				return nil, services.ErrNotAwaitingInput
			},
		}
		h := newTestServer(stub, nil)

		body := bytes.NewBufferString(`{"type": "build_decision", "decision": "continue"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/sess-1/user-input", body)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusConflict, rec.Code)
		errBody := decodeErrorBody(t, rec)
		assert.Contains(t, errBody.Error.Message, "not awaiting user input")
	})
}
