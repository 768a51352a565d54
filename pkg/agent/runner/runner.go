// Package runner drives one agent turn end to end: it assembles the request,
// consumes the model stream, dispatches tool calls, enforces the session
// language, handles the pause tools, and commits the turn atomically. Every
// outcome reaches the client through the turn's event emitter, and the last
// event of a turn is always done.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/noesis-forge/noesis/pkg/agent/conversation"
	"github.com/noesis-forge/noesis/pkg/agent/prompt"
	"github.com/noesis-forge/noesis/pkg/agent/tools"
	"github.com/noesis-forge/noesis/pkg/events"
	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/llm"
	"github.com/noesis-forge/noesis/pkg/metrics"
	"github.com/noesis-forge/noesis/pkg/models"
	"github.com/noesis-forge/noesis/pkg/store"
)

// MaxIterations caps the request→tools loop within a single turn. A turn
// that has not paused or concluded by then is stuck, not thorough.
const MaxIterations = 50

const (
	maxTokensPerTurn      = 8192
	languageRetryLimit    = 2
	documentNudgeLimit    = 1
	languageSampleMin     = 40 // runes; short acks and tool glue are never flagged
	languageConfidenceMin = 0.70
	resultPreviewLen      = 200
	commitGraceTimeout    = 5 * time.Second
)

// Outcome labels for the turns_total counter.
const (
	outcomeCompleted    = "completed"
	outcomePaused       = "paused"
	outcomeCrystallized = "crystallized"
	outcomeCancelled    = "cancelled"
	outcomeInterrupted  = "interrupted"
	outcomeError        = "error"
)

// errCancelled is the sentinel consumeStream returns when the cancel flag
// flips mid-stream.
var errCancelled = errors.New("session cancelled")

// TurnStore persists a completed turn. *store.Store satisfies it.
type TurnStore interface {
	CommitTurn(ctx context.Context, sessionID string, tc store.TurnCommit) error
}

// EventTranslator localizes review and knowledge_document payloads before
// they reach the client. Implementations return the event unchanged on any
// failure; translation is best effort by contract.
type EventTranslator interface {
	TranslateEvent(ctx context.Context, ev events.Event, locale forge.Locale) events.Event
}

// LangDetector identifies the language of assistant output so the runner can
// enforce the session locale.
type LangDetector interface {
	Detect(text string) (forge.Locale, float64)
}

// Config wires a Runner. Translator and Detector are optional; nil disables
// the corresponding concern.
type Config struct {
	Store         TurnStore
	Client        llm.Client
	Translator    EventTranslator
	Detector      LangDetector
	Model         string
	ContextWindow int
}

// Runner executes agent turns. It holds no per-session state: everything a
// turn needs arrives in the Turn, so one Runner serves the whole process.
type Runner struct {
	store         TurnStore
	client        llm.Client
	translator    EventTranslator
	detector      LangDetector
	prompt        *prompt.Assembler
	model         string
	contextWindow int
}

// New builds a Runner from its wiring.
func New(cfg Config) *Runner {
	return &Runner{
		store:         cfg.Store,
		client:        cfg.Client,
		translator:    cfg.Translator,
		detector:      cfg.Detector,
		prompt:        prompt.NewAssembler(),
		model:         cfg.Model,
		contextWindow: cfg.ContextWindow,
	}
}

// Turn is one unit of agent work: from session start or user input to the
// next pause, a clean turn end, or a failure. The runner mutates Session
// counters, history, and status in place so the caller's live entry stays
// current after Run returns.
type Turn struct {
	Session  *store.Session
	State    *forge.State
	Research tools.Researcher
	Input    *models.UserInput // nil except when answering a review pause
	Emitter  *events.Emitter
}

// toolOutcome is one dispatched tool call: the result dict, the history
// block built from it, and whether it was an accepted pause tool.
type toolOutcome struct {
	name   string
	result map[string]any
	block  llm.ContentBlock
	paused bool
}

// Run drives the turn until a pause tool fires, the model ends its turn, the
// session is cancelled, or the iteration cap trips. It never returns an
// error: all outcomes are reported through the emitter, and the emitter is
// closed before returning.
func (r *Runner) Run(ctx context.Context, t *Turn) {
	defer t.Emitter.Close()

	st := t.State
	env := &tools.Env{
		SessionID: t.Session.ID,
		Problem:   t.Session.Problem,
		State:     st,
		Staged:    &tools.Staged{},
		Research:  t.Research,
	}

	history, err := decodeHistory(t.Session.MessageHistory)
	if err != nil {
		slog.Error("Message history is unreadable", "session_id", t.Session.ID, "error", err)
		t.Emitter.Emit(ctx, events.Error("internal", "session history is unreadable"))
		t.Emitter.Emit(ctx, events.Done(true, false, ""))
		return
	}
	history = r.openTurn(t, env, history)

	slog.Info("Agent turn started",
		"session_id", t.Session.ID,
		"phase", st.CurrentPhase,
		"round", st.CurrentRound,
		"history_messages", len(history))

	// The phase label is pinned after openTurn so a resume that transitions
	// phases is counted against the phase the turn actually runs in.
	phase := string(st.CurrentPhase)
	start := time.Now()
	metrics.ActiveTurns.Inc()

	outcome := r.loop(ctx, t, env, history)

	metrics.ActiveTurns.Dec()
	metrics.Turns.WithLabelValues(phase, outcome).Inc()
	metrics.TurnDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

// loop runs the request→tools cycle until a finish handler closes the turn,
// and returns the turn's outcome label.
func (r *Runner) loop(ctx context.Context, t *Turn, env *tools.Env, history []llm.Message) string {
	st := t.State
	languageRetries := 0
	documentNudges := 0
	for iteration := 1; iteration <= MaxIterations; iteration++ {
		if st.Cancelled.Load() || ctx.Err() != nil {
			return r.finishInterrupted(ctx, t, env, history)
		}

		chunks, errs := r.client.GenerateStream(ctx, r.buildRequest(st, history))
		resp, err := r.consumeStream(ctx, t, chunks, errs)
		if err != nil {
			if errors.Is(err, errCancelled) || st.Cancelled.Load() || ctx.Err() != nil {
				return r.finishInterrupted(ctx, t, env, history)
			}
			return r.finishLLMError(ctx, t, env, history, err)
		}

		r.accountUsage(ctx, t, resp.Usage)
		history = append(history, resp.Message)

		// pause_turn means the server interrupted a long-running turn,
		// typically mid web search. Resending the history as-is lets the
		// model pick up where it stopped.
		if resp.StopReason == llm.StopPauseTurn {
			continue
		}

		toolUses := resp.Message.ToolUses()
		if len(toolUses) == 0 {
			if r.violatesLanguage(st, resp.Message.TextContent()) && languageRetries < languageRetryLimit {
				languageRetries++
				slog.Warn("Language enforcement retry",
					"session_id", t.Session.ID, "locale", st.Locale, "attempt", languageRetries)
				history = append(history, llm.UserText(r.prompt.LanguageCorrection(st.Locale)))
				continue
			}
			// Ending a turn without touching the working document in a
			// working phase gets a reminder, not a failure.
			if st.CurrentPhase != forge.PhaseCrystallize && !st.DocumentUpdatedThisPhase &&
				documentNudges < documentNudgeLimit {
				documentNudges++
				slog.Info("Working document reminder",
					"session_id", t.Session.ID, "phase", st.CurrentPhase)
				history = append(history, llm.UserText(r.prompt.DocumentReminder(st.Locale)))
				continue
			}
			return r.finishTurn(ctx, t, env, history)
		}

		resultBlocks := make([]llm.ContentBlock, 0, len(toolUses))
		var pause *toolOutcome
		for _, use := range toolUses {
			outcome := r.executeTool(ctx, t, env, use)
			resultBlocks = append(resultBlocks, outcome.block)
			if outcome.paused && pause == nil {
				pause = outcome
			}
		}

		if r.violatesLanguage(st, resp.Message.TextContent()) && languageRetries < languageRetryLimit {
			languageRetries++
			slog.Warn("Language enforcement retry",
				"session_id", t.Session.ID, "locale", st.Locale, "attempt", languageRetries)
			resultBlocks = append(resultBlocks, llm.TextBlock(r.prompt.LanguageCorrection(st.Locale)))
		}

		history = append(history, llm.Message{Role: llm.RoleUser, Content: resultBlocks})

		if pause != nil {
			return r.finishPause(ctx, t, env, history, pause)
		}
	}

	slog.Error("Agent loop exceeded its iteration cap",
		"session_id", t.Session.ID, "phase", st.CurrentPhase, "iterations", MaxIterations)
	if err := r.commit(ctx, t, env, history, r.progressStatus(t), false); err != nil {
		slog.Error("Turn commit failed after loop cap", "session_id", t.Session.ID, "error", err)
	}
	t.Emitter.Emit(ctx, events.Error("agent_loop_exceeded",
		fmt.Sprintf("the agent did not conclude within %d iterations", MaxIterations)))
	t.Emitter.Emit(ctx, events.Done(true, false, ""))
	return outcomeError
}

// openTurn appends the message that starts this turn: the formatted user
// input on resume, the problem statement on a fresh session, or a short
// continuation when the stored history already ends with the assistant.
// Queued research directives ride along in the same message.
func (r *Runner) openTurn(t *Turn, env *tools.Env, history []llm.Message) []llm.Message {
	st := t.State
	switch {
	case t.Input != nil:
		history = appendUserText(history, r.resumeMessage(t, env))
	case len(history) == 0:
		history = append(history, llm.UserText(r.prompt.InitialUserMessage(t.Session.Problem, st.Locale)))
	case history[len(history)-1].Role == llm.RoleAssistant:
		history = appendUserText(history, "Continue the work in progress.")
	}
	if directives := st.ConsumeResearchDirectives(); len(directives) > 0 {
		history = appendUserText(history, directivesNote(directives))
	}
	return history
}

// resumeMessage applies the user's input to the state and renders the
// message that tells the model what was decided. When the input drives a
// phase transition, the entry message with its digest is appended so the
// model starts the new phase anchored on the user's choices.
func (r *Runner) resumeMessage(t *Turn, env *tools.Env) string {
	st := t.State
	entering := applyInput(st, env, t.Input)
	msg := r.prompt.FormatUserInput(st, t.Input)
	if entering != "" {
		msg += "\n\n" + r.prompt.PhaseEntryMessage(entering, conversation.ForTransition(st, entering), st.Locale)
	}
	return msg
}

// buildRequest assembles one API call: compacted history, the locale- and
// phase-specific system prompt, and the phase tool surface. When the
// provider supports prompt caching, breakpoints go on the system prompt,
// the last tool definition, and the last user message, the stable prefix
// boundaries of the conversation.
func (r *Runner) buildRequest(st *forge.State, history []llm.Message) llm.Request {
	system := []llm.ContentBlock{llm.TextBlock(r.prompt.BuildSystemPrompt(st.Locale, st.CurrentPhase))}
	toolDefs := tools.ForPhase(st.CurrentPhase)
	messages := conversation.Optimize(history)

	if r.client.SupportsPromptCaching() {
		system[len(system)-1].CacheControl = llm.EphemeralCache()
		if len(toolDefs) > 0 {
			toolDefs[len(toolDefs)-1].CacheControl = llm.EphemeralCache()
		}
		markLastUserBlock(messages)
	}

	return llm.Request{
		Model:     r.model,
		System:    system,
		Messages:  messages,
		Tools:     toolDefs,
		MaxTokens: maxTokensPerTurn,
	}
}

// markLastUserBlock sets a cache breakpoint on the final block of the last
// user message. Optimize has already cloned the blocks, so the marker never
// reaches the persisted history.
func markLastUserBlock(messages []llm.Message) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != llm.RoleUser || len(messages[i].Content) == 0 {
			continue
		}
		messages[i].Content[len(messages[i].Content)-1].CacheControl = llm.EphemeralCache()
		return
	}
}

// consumeStream forwards deltas to the emitter until the stream terminates.
// The first text delta is left-trimmed so clients never render a leading
// blank line. Cancellation is checked on every delta.
func (r *Runner) consumeStream(ctx context.Context, t *Turn, chunks <-chan llm.StreamChunk, errs <-chan error) (*llm.Response, error) {
	var resp *llm.Response
	firstDelta := true
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				if resp == nil {
					return nil, fmt.Errorf("stream closed without a final response")
				}
				return resp, nil
			}
			if t.State.Cancelled.Load() && chunk.Kind != llm.ChunkDone {
				return nil, errCancelled
			}
			switch chunk.Kind {
			case llm.ChunkText:
				text := chunk.Text
				if firstDelta {
					text = strings.TrimLeft(text, " \t\r\n")
					if text == "" {
						continue
					}
					firstDelta = false
				}
				t.Emitter.Emit(ctx, events.Text(text))
			case llm.ChunkToolUse:
				t.Emitter.Emit(ctx, events.ToolCall(chunk.ToolName))
			case llm.ChunkWebSearch:
				t.Emitter.Emit(ctx, events.ServerWebSearch(chunk.Query))
			case llm.ChunkDone:
				resp = chunk.Response
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return nil, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// accountUsage folds one call's tokens into the session counters and emits
// the context_usage event. Counters are cumulative across the session;
// percent_used reflects only the context consumed by this call.
func (r *Runner) accountUsage(ctx context.Context, t *Turn, usage llm.Usage) {
	t.Session.InputTokens += int64(usage.InputTokens)
	t.Session.OutputTokens += int64(usage.OutputTokens)
	t.Session.CacheCreationTokens += int64(usage.CacheCreationInputTokens)
	t.Session.CacheReadTokens += int64(usage.CacheReadInputTokens)

	metrics.Tokens.WithLabelValues("input").Add(float64(usage.InputTokens))
	metrics.Tokens.WithLabelValues("output").Add(float64(usage.OutputTokens))
	metrics.Tokens.WithLabelValues("cache_creation").Add(float64(usage.CacheCreationInputTokens))
	metrics.Tokens.WithLabelValues("cache_read").Add(float64(usage.CacheReadInputTokens))

	window := r.contextWindow
	if window <= 0 {
		window = 200_000
	}
	callTokens := usage.InputTokens + usage.CacheCreationInputTokens + usage.CacheReadInputTokens + usage.OutputTokens
	percent := math.Round(float64(callTokens)/float64(window)*10000) / 100

	t.Emitter.Emit(ctx, events.Event{Type: events.TypeContextUsage, Data: events.ContextUsagePayload{
		InputTokens:         t.Session.InputTokens,
		OutputTokens:        t.Session.OutputTokens,
		CacheCreationTokens: t.Session.CacheCreationTokens,
		CacheReadTokens:     t.Session.CacheReadTokens,
		ContextWindow:       int64(window),
		PercentUsed:         percent,
	}})
}

// executeTool dispatches one tool_use block and emits the matching
// tool_result or tool_error event. Handler panics are contained here: the
// model receives INTERNAL_ERROR and the loop continues.
func (r *Runner) executeTool(ctx context.Context, t *Turn, env *tools.Env, use llm.ContentBlock) *toolOutcome {
	result := r.dispatch(ctx, env, use.Name, use.Input)

	content := encodeResult(result)
	outcome := &toolOutcome{name: use.Name, result: result}

	if isErrorDict(result) {
		code, message := errorFields(result)
		outcome.block = llm.ErrorToolResultBlock(use.ID, content)
		t.Emitter.Emit(ctx, events.ToolError(use.Name, code, message))
		return outcome
	}

	outcome.block = llm.ToolResultBlock(use.ID, content)
	t.Emitter.Emit(ctx, events.ToolResult(use.Name, preview(content)))

	if use.Name == tools.ToolResearch {
		var q struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(use.Input, &q); err == nil && q.Query != "" {
			t.Emitter.Emit(ctx, events.WebSearch(q.Query))
		}
	}
	outcome.paused = tools.IsPauseTool(use.Name)
	return outcome
}

// dispatch wraps tools.Dispatch with panic containment. A panicking handler
// must not take the turn down; the model gets an error result instead.
func (r *Runner) dispatch(ctx context.Context, env *tools.Env, name string, input json.RawMessage) (result map[string]any) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Tool handler panicked",
				"session_id", env.SessionID, "tool", name, "panic", rec)
			result = (&forge.GateError{Code: forge.CodeInternalError, Message: "internal tool failure"}).Dict()
		}
	}()

	res, err := tools.Dispatch(ctx, env, name, input)
	if err != nil {
		// Handlers reserve Go errors for plumbing failures, not rejections.
		slog.Error("Tool dispatch failed",
			"session_id", env.SessionID, "tool", name, "error", err)
		return (&forge.GateError{Code: forge.CodeInternalError, Message: "internal tool failure"}).Dict()
	}
	return res
}

// violatesLanguage reports whether assistant text drifted out of the session
// locale. English sessions and short fragments are never flagged.
func (r *Runner) violatesLanguage(st *forge.State, text string) bool {
	if r.detector == nil || st.Locale == forge.LocaleEnglish {
		return false
	}
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < languageSampleMin {
		return false
	}
	detected, confidence := r.detector.Detect(trimmed)
	return detected != st.Locale && confidence >= languageConfidenceMin
}

// finishPause closes the turn at a pause tool: commit first, then the review
// event, then done. The commit is the durability point; if it fails the
// client sees an error instead of a review it could never answer.
func (r *Runner) finishPause(ctx context.Context, t *Turn, env *tools.Env, history []llm.Message, pause *toolOutcome) string {
	st := t.State

	if pause.name == tools.ToolPresentDocument {
		return r.finishDocument(ctx, t, env, history)
	}

	var review events.Event
	switch pause.name {
	case tools.ToolAskUser:
		question := stringField(pause.result, "question")
		framing := stringField(pause.result, "context")
		if st.AwaitingInputType == models.InputDecomposeReview {
			review = events.Event{Type: events.TypeReviewDecompose, Data: decomposeReview(st, question, framing)}
		} else {
			review = events.Event{Type: events.TypeReviewExplore, Data: exploreReview(st, question, framing)}
		}
	case tools.ToolPresentRound:
		review = events.Event{Type: events.TypeReviewClaims, Data: claimsReview(st, stringField(pause.result, "summary"))}
	case tools.ToolPresentBuildOptions:
		review = events.Event{Type: events.TypeReviewBuild, Data: buildReview(st, stringField(pause.result, "summary"))}
	default:
		slog.Error("Unknown pause tool", "session_id", t.Session.ID, "tool", pause.name)
		t.Emitter.Emit(ctx, events.Error("internal", "unknown pause tool"))
		t.Emitter.Emit(ctx, events.Done(true, false, ""))
		return outcomeError
	}

	if err := r.commit(ctx, t, env, history, r.progressStatus(t), false); err != nil {
		slog.Error("Turn commit failed at pause", "session_id", t.Session.ID, "error", err)
		t.Emitter.Emit(ctx, events.Error("database_error", "failed to persist the session"))
		t.Emitter.Emit(ctx, events.Done(true, false, ""))
		return outcomeError
	}

	slog.Info("Turn paused for user input",
		"session_id", t.Session.ID, "phase", st.CurrentPhase, "input_type", st.AwaitingInputType)
	t.Emitter.Emit(ctx, r.translate(ctx, st, review))
	t.Emitter.Emit(ctx, events.Done(false, true, st.AwaitingInputType))
	return outcomePaused
}

// finishDocument resolves the session: the knowledge document goes out, the
// status flips to crystallized, and the done event carries no further input
// request.
func (r *Runner) finishDocument(ctx context.Context, t *Turn, env *tools.Env, history []llm.Message) string {
	st := t.State

	if err := r.commit(ctx, t, env, history, forge.StatusCrystallized, true); err != nil {
		slog.Error("Final commit failed", "session_id", t.Session.ID, "error", err)
		t.Emitter.Emit(ctx, events.Error("database_error", "failed to persist the session"))
		t.Emitter.Emit(ctx, events.Done(true, false, ""))
		return outcomeError
	}

	slog.Info("Session crystallized",
		"session_id", t.Session.ID,
		"rounds", st.CurrentRound+1,
		"graph_nodes", len(st.GraphNodes),
		"document_bytes", len(st.KnowledgeDocument))
	metrics.SessionsClosed.WithLabelValues(string(forge.StatusCrystallized)).Inc()

	doc := events.Event{Type: events.TypeKnowledgeDocument, Data: events.KnowledgeDocumentPayload{Markdown: st.KnowledgeDocument}}
	t.Emitter.Emit(ctx, r.translate(ctx, st, doc))
	t.Emitter.Emit(ctx, events.Done(false, false, ""))
	return outcomeCrystallized
}

// finishTurn ends a turn in which the model produced only text: state is
// saved and the stream closes without requesting input.
func (r *Runner) finishTurn(ctx context.Context, t *Turn, env *tools.Env, history []llm.Message) string {
	if err := r.commit(ctx, t, env, history, r.progressStatus(t), false); err != nil {
		slog.Error("Turn commit failed", "session_id", t.Session.ID, "error", err)
		t.Emitter.Emit(ctx, events.Error("database_error", "failed to persist the session"))
		t.Emitter.Emit(ctx, events.Done(true, false, ""))
		return outcomeError
	}
	t.Emitter.Emit(ctx, events.Done(false, false, ""))
	return outcomeCompleted
}

// finishInterrupted ends a turn stopped by session cancellation or client
// disconnect. The snapshot write is best effort on a detached context, and
// events use TryEmit because the turn context may already be dead. Only an
// explicit cancel marks the session cancelled; a mere disconnect leaves it
// resumable.
func (r *Runner) finishInterrupted(ctx context.Context, t *Turn, env *tools.Env, history []llm.Message) string {
	st := t.State
	if st.Cancelled.Load() {
		t.Emitter.TryEmit(events.Text("Session cancelled."))
	}

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitGraceTimeout)
	defer cancel()
	if err := r.commit(commitCtx, t, env, history, r.progressStatus(t), false); err != nil {
		slog.Error("Snapshot write failed on interrupt", "session_id", t.Session.ID, "error", err)
	}

	slog.Info("Turn interrupted",
		"session_id", t.Session.ID, "phase", st.CurrentPhase, "cancelled", st.Cancelled.Load())
	t.Emitter.TryEmit(events.Done(false, false, ""))
	if st.Cancelled.Load() {
		metrics.SessionsClosed.WithLabelValues(string(forge.StatusCancelled)).Inc()
		return outcomeCancelled
	}
	return outcomeInterrupted
}

// finishLLMError reports a failed generation. The snapshot still gets
// written so the accounting and any staged work survive, and the session
// stays resumable.
func (r *Runner) finishLLMError(ctx context.Context, t *Turn, env *tools.Env, history []llm.Message, llmErr error) string {
	category := llm.CategoryUnknown
	var apiErr *llm.APIError
	if errors.As(llmErr, &apiErr) {
		category = apiErr.Category
	}
	slog.Error("LLM call failed",
		"session_id", t.Session.ID, "category", category, "error", llmErr)

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitGraceTimeout)
	defer cancel()
	if err := r.commit(commitCtx, t, env, history, r.progressStatus(t), false); err != nil {
		slog.Error("Snapshot write failed after LLM error", "session_id", t.Session.ID, "error", err)
	}

	t.Emitter.Emit(ctx, events.Error(string(category), "the language model call failed"))
	t.Emitter.Emit(ctx, events.Done(true, false, ""))
	return outcomeError
}

// progressStatus picks the durable status for a non-final commit. Cancelled
// wins; a session mid-CRYSTALLIZE keeps its stored status because
// crystallized is terminal and is written only by the document finalizer.
func (r *Runner) progressStatus(t *Turn) forge.SessionStatus {
	if t.State.Cancelled.Load() {
		return forge.StatusCancelled
	}
	if t.State.CurrentPhase == forge.PhaseCrystallize {
		return forge.SessionStatus(t.Session.Status)
	}
	return forge.StatusForPhase(t.State.CurrentPhase)
}

// commit makes the turn durable in one transaction: session progress, the
// staged claim writes, and the wholesale projection replacement. On success
// the in-memory session mirrors the row and the staging area is cleared.
func (r *Runner) commit(ctx context.Context, t *Turn, env *tools.Env, history []llm.Message, status forge.SessionStatus, resolved bool) error {
	st := t.State

	snapshot, err := st.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode state snapshot: %w", err)
	}
	rawHistory, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode message history: %w", err)
	}

	tc := store.TurnCommit{Progress: store.SessionProgress{
		CurrentPhase:        string(st.CurrentPhase),
		CurrentRound:        st.CurrentRound,
		Status:              string(status),
		InputTokens:         t.Session.InputTokens,
		OutputTokens:        t.Session.OutputTokens,
		CacheCreationTokens: t.Session.CacheCreationTokens,
		CacheReadTokens:     t.Session.CacheReadTokens,
		MessageHistory:      rawHistory,
		StateSnapshot:       snapshot,
		KnowledgeDocument:   st.KnowledgeDocument,
		Resolved:            resolved,
	}}
	env.Staged.ApplyTo(&tc)
	projectState(st, &tc)

	if err := r.store.CommitTurn(ctx, t.Session.ID, tc); err != nil {
		return err
	}
	env.Staged.Reset()

	t.Session.CurrentPhase = string(st.CurrentPhase)
	t.Session.CurrentRound = st.CurrentRound
	t.Session.Status = string(status)
	t.Session.MessageHistory = rawHistory
	t.Session.StateSnapshot = snapshot
	t.Session.KnowledgeDocument = st.KnowledgeDocument
	return nil
}

// projectState folds the review projections into the commit. The store
// replaces these tables wholesale, so the full current lists go every time.
func projectState(st *forge.State, tc *store.TurnCommit) {
	for _, rf := range st.Reframings {
		tc.Reframings = append(tc.Reframings, store.Reframing{
			Text:      rf.Text,
			Type:      rf.Type,
			Reasoning: rf.Reasoning,
			Selected:  rf.Selected,
		})
	}
	for _, a := range st.Analogies {
		tc.Analogies = append(tc.Analogies, store.Analogy{
			Domain:           a.Domain,
			Description:      a.Description,
			SemanticDistance: a.SemanticDistance,
			Resonated:        a.Resonated,
		})
	}
	for _, c := range st.Contradictions {
		tc.Contradictions = append(tc.Contradictions, store.Contradiction{
			PropertyA:   c.PropertyA,
			PropertyB:   c.PropertyB,
			Description: c.Description,
		})
	}
}

// translate localizes an event for non-English sessions when a translator
// is wired.
func (r *Runner) translate(ctx context.Context, st *forge.State, ev events.Event) events.Event {
	if r.translator == nil || st.Locale == forge.LocaleEnglish {
		return ev
	}
	return r.translator.TranslateEvent(ctx, ev, st.Locale)
}

// decodeHistory unpacks the persisted message history. An empty column means
// a fresh session.
func decodeHistory(raw []byte) ([]llm.Message, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var msgs []llm.Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode message history: %w", err)
	}
	return msgs, nil
}

// appendUserText adds text as a user message, folding it into a trailing
// user message when one exists so the history keeps alternating roles.
func appendUserText(history []llm.Message, text string) []llm.Message {
	if n := len(history); n > 0 && history[n-1].Role == llm.RoleUser {
		history[n-1].Content = append(history[n-1].Content, llm.TextBlock(text))
		return history
	}
	return append(history, llm.UserText(text))
}

// directivesNote renders queued research directives as a steering note in
// the turn-opening message.
func directivesNote(directives []forge.Directive) string {
	var b strings.Builder
	b.WriteString("The user queued research directives:\n")
	for _, d := range directives {
		b.WriteString("- ")
		if d.DirectiveType != "" {
			b.WriteString(d.DirectiveType)
			b.WriteString(": ")
		}
		b.WriteString(d.Query)
		if d.Domain != "" {
			fmt.Fprintf(&b, " (domain: %s)", d.Domain)
		}
		b.WriteString("\n")
	}
	b.WriteString("Fold them into the research you delegate this phase where they fit.")
	return b.String()
}

// encodeResult renders a tool result dict as the JSON string the model sees.
func encodeResult(result map[string]any) string {
	data, err := json.Marshal(result)
	if err != nil {
		return `{"status":"error","error_code":"INTERNAL_ERROR","message":"unencodable tool result"}`
	}
	return string(data)
}

// preview truncates a result string for the tool_result event.
func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= resultPreviewLen {
		return s
	}
	return string(runes[:resultPreviewLen]) + "…"
}

// isErrorDict reports whether a tool result is the uniform error envelope.
func isErrorDict(result map[string]any) bool {
	status, _ := result["status"].(string)
	return status == "error"
}

// errorFields pulls the stable code and message out of an error envelope.
func errorFields(result map[string]any) (code, message string) {
	code, _ = result["error_code"].(string)
	message, _ = result["message"].(string)
	if code == "" {
		code = forge.CodeInternalError
	}
	return code, message
}

// stringField reads a string value from a tool result dict.
func stringField(result map[string]any, key string) string {
	s, _ := result[key].(string)
	return s
}
