package runner

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noesis-forge/noesis/pkg/agent/prompt"
	"github.com/noesis-forge/noesis/pkg/events"
	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/llm"
	"github.com/noesis-forge/noesis/pkg/models"
	"github.com/noesis-forge/noesis/pkg/store"
)

// scriptStep produces one call's stream: the chunk list ending in ChunkDone,
// or an error.
type scriptStep func() ([]llm.StreamChunk, error)

// scriptedClient replays canned streams, one step per call. When the script
// runs short the last step repeats, which keeps loop tests compact.
type scriptedClient struct {
	steps   []scriptStep
	reqs    []llm.Request
	caching bool
}

func (c *scriptedClient) GenerateStream(_ context.Context, req llm.Request) (<-chan llm.StreamChunk, <-chan error) {
	c.reqs = append(c.reqs, req)
	errs := make(chan error, 1)

	step := len(c.reqs) - 1
	if step >= len(c.steps) {
		step = len(c.steps) - 1
	}
	out, err := c.steps[step]()
	if err != nil {
		errs <- err
		return make(chan llm.StreamChunk), errs
	}
	chunks := make(chan llm.StreamChunk, len(out))
	for _, ch := range out {
		chunks <- ch
	}
	close(chunks)
	return chunks, errs
}

func (c *scriptedClient) SupportsPromptCaching() bool { return c.caching }

// cancelingClient flips the session's cancel flag before delivering its
// first delta, modelling a cancel racing an open stream.
type cancelingClient struct {
	st   *forge.State
	reqs int
}

func (c *cancelingClient) GenerateStream(_ context.Context, _ llm.Request) (<-chan llm.StreamChunk, <-chan error) {
	c.reqs++
	chunks := make(chan llm.StreamChunk, 1)
	c.st.Cancelled.Store(true)
	chunks <- llm.StreamChunk{Kind: llm.ChunkText, Text: "partial thought"}
	close(chunks)
	return chunks, make(chan error, 1)
}

func (c *cancelingClient) SupportsPromptCaching() bool { return false }

// captureStore records commits; failWith makes every commit fail.
type captureStore struct {
	commits  []store.TurnCommit
	failWith error
}

func (s *captureStore) CommitTurn(_ context.Context, _ string, tc store.TurnCommit) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.commits = append(s.commits, tc)
	return nil
}

type stubDetector struct {
	locale forge.Locale
	conf   float64
	calls  int
}

func (d *stubDetector) Detect(string) (forge.Locale, float64) {
	d.calls++
	return d.locale, d.conf
}

// stubTranslator tags decompose review questions so tests can see it ran.
type stubTranslator struct{ calls int }

func (tr *stubTranslator) TranslateEvent(_ context.Context, ev events.Event, locale forge.Locale) events.Event {
	tr.calls++
	if p, ok := ev.Data.(events.DecomposeReviewPayload); ok {
		p.Question = "[" + string(locale) + "] " + p.Question
		ev.Data = p
	}
	return ev
}

func assistantMessage(text string, uses ...llm.ContentBlock) llm.Message {
	var blocks []llm.ContentBlock
	if text != "" {
		blocks = append(blocks, llm.TextBlock(text))
	}
	blocks = append(blocks, uses...)
	return llm.Message{Role: llm.RoleAssistant, Content: blocks}
}

func toolUse(id, name, input string) llm.ContentBlock {
	return llm.ContentBlock{Type: llm.BlockToolUse, ID: id, Name: name, Input: json.RawMessage(input)}
}

// textStep is a text-only end_turn response streamed as one delta.
func textStep(text string) scriptStep {
	return func() ([]llm.StreamChunk, error) {
		return []llm.StreamChunk{
			{Kind: llm.ChunkText, Text: text},
			{Kind: llm.ChunkDone, Response: &llm.Response{
				Message:    assistantMessage(text),
				StopReason: llm.StopEndTurn,
				Usage:      llm.Usage{InputTokens: 1000, OutputTokens: 200},
			}},
		}, nil
	}
}

// toolStep is a tool_use response; text is optional preamble.
func toolStep(text string, uses ...llm.ContentBlock) scriptStep {
	return func() ([]llm.StreamChunk, error) {
		var chunks []llm.StreamChunk
		if text != "" {
			chunks = append(chunks, llm.StreamChunk{Kind: llm.ChunkText, Text: text})
		}
		for _, u := range uses {
			chunks = append(chunks, llm.StreamChunk{Kind: llm.ChunkToolUse, ToolID: u.ID, ToolName: u.Name})
		}
		chunks = append(chunks, llm.StreamChunk{Kind: llm.ChunkDone, Response: &llm.Response{
			Message:    assistantMessage(text, uses...),
			StopReason: llm.StopToolUse,
			Usage:      llm.Usage{InputTokens: 1200, OutputTokens: 300},
		}})
		return chunks, nil
	}
}

func errorStep(err error) scriptStep {
	return func() ([]llm.StreamChunk, error) { return nil, err }
}

// collectEvents drains the emitter concurrently so the runner never blocks
// on a full buffer.
func collectEvents(em *events.Emitter) <-chan []events.Event {
	out := make(chan []events.Event, 1)
	go func() {
		var all []events.Event
		for ev := range em.Events() {
			all = append(all, ev)
		}
		out <- all
	}()
	return out
}

func eventTypes(evs []events.Event) []string {
	types := make([]string, 0, len(evs))
	for _, ev := range evs {
		types = append(types, ev.Type)
	}
	return types
}

func donePayload(t *testing.T, ev events.Event) events.DonePayload {
	t.Helper()
	require.Equal(t, events.TypeDone, ev.Type)
	p, ok := ev.Data.(events.DonePayload)
	require.True(t, ok, "done event carries a DonePayload")
	return p
}

func decodeCommittedHistory(t *testing.T, tc store.TurnCommit) []llm.Message {
	t.Helper()
	var msgs []llm.Message
	require.NoError(t, json.Unmarshal(tc.Progress.MessageHistory, &msgs))
	return msgs
}

func testSession() *store.Session {
	return &store.Session{
		ID:      "7b6e1c1e-9f1f-4a7c-8c3d-2f5a6b7c8d9e",
		Problem: "How can district heating reuse data center waste heat?",
		Status:  string(forge.StatusDecomposing),
	}
}

func decomposeState() *forge.State {
	st := forge.NewState(forge.LocaleEnglish, 0.99)
	st.Fundamentals = []string{"heat transport", "supply-demand timing"}
	st.DecomposeApproach = "first principles"
	st.StateOfArtResearched = true
	st.Assumptions = []forge.Assumption{
		{Text: "Waste heat is too low-grade to reuse", Source: "problem statement",
			Options: []string{"keep", "drop", "invert"}, SelectedOption: -1},
		{Text: "New pipes must reach every data center", Source: "inferred",
			Options: []string{"keep", "drop"}, SelectedOption: -1},
	}
	st.Reframings = []forge.Reframing{
		{Text: "Treat the data center as a district boiler", Type: "inversion",
			Reasoning:        "turns a disposal problem into a supply problem",
			ResonanceOptions: []string{"not at all", "somewhat", "strongly"}},
	}
	st.WorkingDocument["problem_framing"] = "Heat transport and timing dominate."
	st.DocumentUpdatedThisPhase = true
	return st
}

func validatedState() *forge.State {
	st := forge.NewState(forge.LocaleEnglish, 0.99)
	st.CurrentPhase = forge.PhaseValidate
	st.AwaitingUserInput = true
	st.AwaitingInputType = models.InputVerdicts
	scores := &forge.ClaimScores{Novelty: 0.7, Groundedness: 0.8, Falsifiability: 0.9, Significance: 0.6}
	st.CurrentRoundClaims = []forge.RoundClaim{
		{ClaimID: "claim-1", ClaimText: "Heat pumps lift return-loop water to district grade",
			ThesisText: "t1", AntithesisText: "a1", FalsifiabilityCondition: "f1",
			Confidence: forge.ConfidenceHigh, Scores: scores,
			Evidence: []forge.EvidenceRef{{URL: "https://example.org/hp", Title: "Heat pump study", Type: forge.EvidenceSupporting}}},
		{ClaimID: "claim-2", ClaimText: "Seasonal storage absorbs the summer surplus",
			ThesisText: "t2", AntithesisText: "a2", FalsifiabilityCondition: "f2",
			Confidence: forge.ConfidenceMedium, Scores: scores},
	}
	return st
}

func buildState() *forge.State {
	st := forge.NewState(forge.LocaleEnglish, 0.99)
	st.CurrentPhase = forge.PhaseBuild
	st.AwaitingUserInput = true
	st.AwaitingInputType = models.InputBuildDecision
	st.GraphNodes = []forge.GraphNode{
		{ClaimID: "claim-1", ClaimText: "Heat pumps lift return-loop water", Status: forge.ClaimValidated, Round: 0},
	}
	st.Gaps = []string{"storage economics"}
	return st
}

func newRunner(client llm.Client, db TurnStore) *Runner {
	return New(Config{Store: db, Client: client, Model: "test-model", ContextWindow: 200_000})
}

func TestFirstTurnPausesAtDecomposeReview(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		toolStep("Here is the decomposition for review.",
			toolUse("tu_1", "ask_user", `{"question":"Which reframing should guide EXPLORE?","context":"One inversion candidate."}`)),
	}}
	db := &captureStore{}
	sess := testSession()
	st := decomposeState()

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: sess, State: st, Emitter: em})
	evs := <-got

	assert.Equal(t, []string{
		events.TypeAgentText, events.TypeToolCall, events.TypeContextUsage,
		events.TypeToolResult, events.TypeReviewDecompose, events.TypeDone,
	}, eventTypes(evs))

	done := donePayload(t, evs[len(evs)-1])
	assert.False(t, done.Error)
	assert.True(t, done.AwaitingInput)
	assert.Equal(t, models.InputDecomposeReview, done.AwaitingInputType)

	review, ok := evs[4].Data.(events.DecomposeReviewPayload)
	require.True(t, ok)
	assert.Equal(t, "Which reframing should guide EXPLORE?", review.Question)
	require.Len(t, review.Assumptions, 2)
	assert.Equal(t, 1, review.Assumptions[1].Index)
	require.Len(t, review.Reframings, 1)

	usage, ok := evs[2].Data.(events.ContextUsagePayload)
	require.True(t, ok)
	assert.Equal(t, int64(1200), usage.InputTokens)
	assert.InDelta(t, 0.75, usage.PercentUsed, 0.001)

	require.Len(t, db.commits, 1)
	tc := db.commits[0]
	assert.Equal(t, string(forge.StatusDecomposing), tc.Progress.Status)
	assert.False(t, tc.Progress.Resolved)

	history := decodeCommittedHistory(t, tc)
	require.Len(t, history, 3)
	assert.Equal(t, llm.RoleUser, history[0].Role)
	assert.Equal(t, prompt.NewAssembler().InitialUserMessage(sess.Problem, forge.LocaleEnglish), history[0].TextContent())
	assert.Equal(t, llm.RoleAssistant, history[1].Role)
	assert.True(t, history[2].HasToolResults())

	restored, err := forge.Decode(tc.Progress.StateSnapshot)
	require.NoError(t, err)
	assert.True(t, restored.AwaitingUserInput)
	assert.Equal(t, models.InputDecomposeReview, restored.AwaitingInputType)

	require.Len(t, client.reqs, 1)
	req := client.reqs[0]
	assert.Equal(t, "test-model", req.Model)
	require.NotEmpty(t, req.System)
	assert.NotEmpty(t, req.System[0].Text)
	names := make([]string, 0, len(req.Tools))
	for _, def := range req.Tools {
		names = append(names, def.Name)
	}
	assert.Contains(t, names, "ask_user")
}

func TestTurnLoopsThroughToolsUntilTextOnly(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		toolStep("", toolUse("tu_1", "get_session_status", `{}`)),
		textStep("The decomposition needs more research before review."),
	}}
	db := &captureStore{}
	st := decomposeState()

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: testSession(), State: st, Emitter: em})
	evs := <-got

	assert.Equal(t, []string{
		events.TypeToolCall, events.TypeContextUsage, events.TypeToolResult,
		events.TypeAgentText, events.TypeContextUsage, events.TypeDone,
	}, eventTypes(evs))

	done := donePayload(t, evs[len(evs)-1])
	assert.False(t, done.Error)
	assert.False(t, done.AwaitingInput)

	// One commit at the turn end, none mid-loop.
	require.Len(t, db.commits, 1)
	require.Len(t, client.reqs, 2)

	// The second request carries the tool result back to the model.
	last := client.reqs[1].Messages[len(client.reqs[1].Messages)-1]
	assert.Equal(t, llm.RoleUser, last.Role)
	assert.True(t, last.HasToolResults())
}

func TestTextOnlyEndWithoutDocumentUpdateGetsOneReminder(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		textStep("Wrapping up without touching the document."),
		textStep("Still not touching the document."),
	}}
	db := &captureStore{}
	st := decomposeState()
	st.DocumentUpdatedThisPhase = false

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: testSession(), State: st, Emitter: em})
	evs := <-got

	require.Len(t, client.reqs, 2, "one reminder, then the turn ends regardless")
	done := donePayload(t, evs[len(evs)-1])
	assert.False(t, done.Error)

	reminder := prompt.NewAssembler().DocumentReminder(forge.LocaleEnglish)
	require.Len(t, db.commits, 1)
	history := decodeCommittedHistory(t, db.commits[0])
	require.Len(t, history, 4)
	assert.Equal(t, reminder, history[2].TextContent())
}

func TestDocumentReminderSkippedInCrystallize(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		textStep("Reviewing the draft sections before generating the document."),
	}}
	db := &captureStore{}
	st := forge.NewState(forge.LocaleEnglish, 0.99)
	st.CurrentPhase = forge.PhaseCrystallize

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: testSession(), State: st, Emitter: em})
	<-got

	assert.Len(t, client.reqs, 1)
}

func TestPauseTurnResumesWithoutToolDispatch(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		func() ([]llm.StreamChunk, error) {
			return []llm.StreamChunk{
				{Kind: llm.ChunkText, Text: "Searching for prior art"},
				{Kind: llm.ChunkDone, Response: &llm.Response{
					Message:    assistantMessage("Searching for prior art"),
					StopReason: llm.StopPauseTurn,
					Usage:      llm.Usage{InputTokens: 900, OutputTokens: 80},
				}},
			}, nil
		},
		textStep("Prior art mapped."),
	}}
	db := &captureStore{}

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: testSession(), State: decomposeState(), Emitter: em})
	evs := <-got

	assert.Equal(t, []string{
		events.TypeAgentText, events.TypeContextUsage,
		events.TypeAgentText, events.TypeContextUsage, events.TypeDone,
	}, eventTypes(evs))

	// The interrupted assistant message is resent as-is, with no user
	// message in between.
	require.Len(t, client.reqs, 2)
	last := client.reqs[1].Messages[len(client.reqs[1].Messages)-1]
	assert.Equal(t, llm.RoleAssistant, last.Role)
}

func TestFirstTextDeltaIsLeftTrimmed(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		func() ([]llm.StreamChunk, error) {
			return []llm.StreamChunk{
				{Kind: llm.ChunkText, Text: "\n\n  "},
				{Kind: llm.ChunkText, Text: "\n\tFirst words"},
				{Kind: llm.ChunkText, Text: " and the rest."},
				{Kind: llm.ChunkDone, Response: &llm.Response{
					Message:    assistantMessage("First words and the rest."),
					StopReason: llm.StopEndTurn,
					Usage:      llm.Usage{InputTokens: 500, OutputTokens: 20},
				}},
			}, nil
		},
	}}
	db := &captureStore{}

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: testSession(), State: decomposeState(), Emitter: em})
	evs := <-got

	require.Equal(t, events.TypeAgentText, evs[0].Type)
	text := evs[0].Data.(events.TextPayload)
	assert.Equal(t, "First words", text.Text, "whitespace-only delta skipped, first real delta trimmed")
	assert.Equal(t, " and the rest.", evs[1].Data.(events.TextPayload).Text, "later deltas untouched")
}

func TestCancelBeforeStreamSkipsTheCall(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{textStep("never sent")}}
	db := &captureStore{}
	sess := testSession()
	st := decomposeState()
	st.Cancelled.Store(true)

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: sess, State: st, Emitter: em})
	evs := <-got

	require.Len(t, client.reqs, 0)
	require.Len(t, evs, 2)
	assert.Equal(t, events.TypeAgentText, evs[0].Type)
	assert.Equal(t, "Session cancelled.", evs[0].Data.(events.TextPayload).Text)
	done := donePayload(t, evs[1])
	assert.False(t, done.Error, "cancellation is not an error")

	require.Len(t, db.commits, 1)
	assert.Equal(t, string(forge.StatusCancelled), db.commits[0].Progress.Status)
	assert.Equal(t, string(forge.StatusCancelled), sess.Status)
}

func TestCancelMidStreamStopsAtTheNextDelta(t *testing.T) {
	st := decomposeState()
	client := &cancelingClient{st: st}
	db := &captureStore{}

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: testSession(), State: st, Emitter: em})
	evs := <-got

	assert.Equal(t, 1, client.reqs)
	assert.Equal(t, []string{events.TypeAgentText, events.TypeDone}, eventTypes(evs))
	assert.Equal(t, "Session cancelled.", evs[0].Data.(events.TextPayload).Text,
		"the partial delta is dropped once the cancel flag is up")

	require.Len(t, db.commits, 1)
	assert.Equal(t, string(forge.StatusCancelled), db.commits[0].Progress.Status)
	// The aborted call produced no assistant message to persist.
	history := decodeCommittedHistory(t, db.commits[0])
	require.Len(t, history, 1)
	assert.Equal(t, llm.RoleUser, history[0].Role)
}

func TestLLMErrorKeepsSessionResumable(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		errorStep(&llm.APIError{Category: llm.CategoryRateLimit, StatusCode: 429, Message: "slow down"}),
	}}
	db := &captureStore{}
	sess := testSession()

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: sess, State: decomposeState(), Emitter: em})
	evs := <-got

	require.Len(t, evs, 2)
	require.Equal(t, events.TypeError, evs[0].Type)
	assert.Equal(t, string(llm.CategoryRateLimit), evs[0].Data.(events.ErrorPayload).Category)
	done := donePayload(t, evs[1])
	assert.True(t, done.Error)
	assert.False(t, done.AwaitingInput)

	// The snapshot was still written and the session is not terminal.
	require.Len(t, db.commits, 1)
	assert.Equal(t, string(forge.StatusDecomposing), db.commits[0].Progress.Status)
	assert.Equal(t, string(forge.StatusDecomposing), sess.Status)
}

func TestIterationCapEndsTheTurn(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		toolStep("", toolUse("tu_1", "get_session_status", `{}`)),
	}}
	db := &captureStore{}

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: testSession(), State: decomposeState(), Emitter: em})
	evs := <-got

	assert.Len(t, client.reqs, MaxIterations)
	require.GreaterOrEqual(t, len(evs), 2)
	errEv := evs[len(evs)-2]
	require.Equal(t, events.TypeError, errEv.Type)
	assert.Equal(t, "agent_loop_exceeded", errEv.Data.(events.ErrorPayload).Category)
	done := donePayload(t, evs[len(evs)-1])
	assert.True(t, done.Error)

	// Progress up to the cap is still persisted.
	require.Len(t, db.commits, 1)
}

func TestLanguageEnforcementRetriesTwiceThenAccepts(t *testing.T) {
	english := "This reply deliberately stays in English despite the Portuguese session locale."
	client := &scriptedClient{steps: []scriptStep{
		textStep(english),
		textStep(english),
		textStep(english),
	}}
	db := &captureStore{}
	st := decomposeState()
	st.Locale = forge.LocalePortuguese
	detector := &stubDetector{locale: forge.LocaleEnglish, conf: 0.95}

	r := New(Config{Store: db, Client: client, Detector: detector, Model: "test-model", ContextWindow: 200_000})
	em := events.NewEmitter(8)
	got := collectEvents(em)
	r.Run(context.Background(), &Turn{Session: testSession(), State: st, Emitter: em})
	evs := <-got

	require.Len(t, client.reqs, 3, "two retries, then the reply stands")
	done := donePayload(t, evs[len(evs)-1])
	assert.False(t, done.Error)

	correction := prompt.NewAssembler().LanguageCorrection(forge.LocalePortuguese)
	require.Len(t, db.commits, 1)
	history := decodeCommittedHistory(t, db.commits[0])
	require.Len(t, history, 6)
	assert.Equal(t, correction, history[2].TextContent())
	assert.Equal(t, correction, history[4].TextContent())
}

func TestLanguageEnforcementRidesToolResults(t *testing.T) {
	english := "An answer written in English even though the session expects Portuguese output."
	client := &scriptedClient{steps: []scriptStep{
		toolStep(english, toolUse("tu_1", "get_session_status", `{}`)),
		textStep(english),
		textStep(english),
	}}
	db := &captureStore{}
	st := decomposeState()
	st.Locale = forge.LocalePortuguese
	detector := &stubDetector{locale: forge.LocaleEnglish, conf: 0.95}

	r := New(Config{Store: db, Client: client, Detector: detector, Model: "test-model", ContextWindow: 200_000})
	em := events.NewEmitter(8)
	got := collectEvents(em)
	r.Run(context.Background(), &Turn{Session: testSession(), State: st, Emitter: em})
	<-got

	require.Len(t, client.reqs, 3)
	correction := prompt.NewAssembler().LanguageCorrection(forge.LocalePortuguese)

	// First retry is folded into the tool-result message.
	second := client.reqs[1].Messages
	last := second[len(second)-1]
	require.Equal(t, llm.RoleUser, last.Role)
	require.Len(t, last.Content, 2)
	assert.Equal(t, llm.BlockToolResult, last.Content[0].Type)
	assert.Equal(t, correction, last.Content[1].Text)
}

func TestLanguageEnforcementSkipsEnglishSessions(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		textStep("A long English reply in an English session draws no correction at all."),
	}}
	detector := &stubDetector{locale: forge.LocaleEnglish, conf: 0.95}

	r := New(Config{Store: &captureStore{}, Client: client, Detector: detector, Model: "test-model", ContextWindow: 200_000})
	em := events.NewEmitter(8)
	got := collectEvents(em)
	r.Run(context.Background(), &Turn{Session: testSession(), State: decomposeState(), Emitter: em})
	<-got

	assert.Len(t, client.reqs, 1)
	assert.Zero(t, detector.calls, "English sessions never hit the detector")
}

func TestVerdictsTransitionIntoBuild(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		textStep("Applying the verdicts to the graph."),
	}}
	db := &captureStore{}
	sess := testSession()
	sess.Status = string(forge.StatusValidating)
	st := validatedState()

	input := &models.UserInput{Type: models.InputVerdicts, Verdicts: &models.VerdictsInput{
		Verdicts: []models.ClaimVerdict{
			{ClaimIndex: 0, Verdict: "accept"},
			{ClaimIndex: 1, Verdict: "reject", RejectionReason: "storage economics are unproven"},
		},
	}}

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: sess, State: st, Input: input, Emitter: em})
	<-got

	assert.Equal(t, forge.PhaseBuild, st.CurrentPhase)
	assert.False(t, st.AwaitingUserInput)
	assert.Equal(t, forge.VerdictAccept, st.CurrentRoundClaims[0].Verdict)
	assert.Equal(t, forge.VerdictReject, st.CurrentRoundClaims[1].Verdict)

	require.Len(t, st.NegativeKnowledge, 1)
	assert.Equal(t, "storage economics are unproven", st.NegativeKnowledge[0].Reason)

	require.Len(t, db.commits, 1)
	tc := db.commits[0]
	assert.Equal(t, string(forge.StatusBuilding), tc.Progress.Status)
	require.Len(t, tc.ClaimUpdates, 2)
	assert.Equal(t, "claim-1", tc.ClaimUpdates[0].ID)
	assert.Equal(t, string(forge.ClaimValidated), tc.ClaimUpdates[0].Status)
	assert.Equal(t, string(forge.ClaimRejected), tc.ClaimUpdates[1].Status)

	// The opening message carries both the rulings and the BUILD entry.
	opening := client.reqs[0].Messages[0].TextContent()
	assert.Contains(t, opening, "You are entering the BUILD phase.")
}

func TestBuildDecisionContinueOpensNewRound(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		textStep("Starting the next synthesis round."),
	}}
	db := &captureStore{}
	sess := testSession()
	sess.Status = string(forge.StatusBuilding)
	st := buildState()

	input := &models.UserInput{Type: models.InputBuildDecision, BuildDecision: &models.BuildDecisionInput{
		Decision:          "continue",
		ContinueDirection: "storage economics",
	}}

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: sess, State: st, Input: input, Emitter: em})
	<-got

	assert.Equal(t, forge.PhaseSynthesize, st.CurrentPhase)
	assert.Equal(t, 1, st.CurrentRound)
	assert.Empty(t, st.CurrentRoundClaims)
	assert.False(t, st.DeepDiveActive)

	require.Len(t, db.commits, 1)
	assert.Equal(t, string(forge.StatusSynthesizing), db.commits[0].Progress.Status)
	assert.Equal(t, 1, db.commits[0].Progress.CurrentRound)

	opening := client.reqs[0].Messages[0].TextContent()
	assert.Contains(t, opening, "You are entering the SYNTHESIZE phase.")
}

func TestPresentDocumentResolvesTheSession(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		toolStep("", toolUse("tu_1", "present_document", `{"summary":"Document ready."}`)),
	}}
	db := &captureStore{}
	sess := testSession()
	sess.Status = string(forge.StatusBuilding)
	st := forge.NewState(forge.LocaleEnglish, 0.99)
	st.CurrentPhase = forge.PhaseCrystallize
	st.KnowledgeDocument = "# Waste Heat Reuse\n\nExecutive summary."

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: sess, State: st, Emitter: em})
	evs := <-got

	assert.Equal(t, []string{
		events.TypeToolCall, events.TypeContextUsage, events.TypeToolResult,
		events.TypeKnowledgeDocument, events.TypeDone,
	}, eventTypes(evs))

	doc := evs[3].Data.(events.KnowledgeDocumentPayload)
	assert.Equal(t, st.KnowledgeDocument, doc.Markdown)

	done := donePayload(t, evs[4])
	assert.False(t, done.Error)
	assert.False(t, done.AwaitingInput)

	require.Len(t, db.commits, 1)
	assert.Equal(t, string(forge.StatusCrystallized), db.commits[0].Progress.Status)
	assert.True(t, db.commits[0].Progress.Resolved)
	assert.Equal(t, string(forge.StatusCrystallized), sess.Status)
}

func TestCommitFailureAtPauseReportsDatabaseError(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		toolStep("", toolUse("tu_1", "ask_user", `{"question":"Ready to review?"}`)),
	}}
	db := &captureStore{failWith: assert.AnError}

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: testSession(), State: decomposeState(), Emitter: em})
	evs := <-got

	types := eventTypes(evs)
	assert.NotContains(t, types, events.TypeReviewDecompose,
		"no review goes out for a pause that was never persisted")
	require.GreaterOrEqual(t, len(types), 2)
	errEv := evs[len(evs)-2]
	require.Equal(t, events.TypeError, errEv.Type)
	assert.Equal(t, "database_error", errEv.Data.(events.ErrorPayload).Category)
	assert.True(t, donePayload(t, evs[len(evs)-1]).Error)
}

func TestReviewEventsPassThroughTheTranslator(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		toolStep("", toolUse("tu_1", "ask_user", `{"question":"Qual reformulação ressoa?"}`)),
	}}
	db := &captureStore{}
	st := decomposeState()
	st.Locale = forge.LocalePortuguese
	translator := &stubTranslator{}

	r := New(Config{Store: db, Client: client, Translator: translator, Model: "test-model", ContextWindow: 200_000})
	em := events.NewEmitter(8)
	got := collectEvents(em)
	r.Run(context.Background(), &Turn{Session: testSession(), State: st, Emitter: em})
	evs := <-got

	assert.Equal(t, 1, translator.calls)
	var review events.DecomposeReviewPayload
	for _, ev := range evs {
		if ev.Type == events.TypeReviewDecompose {
			review = ev.Data.(events.DecomposeReviewPayload)
		}
	}
	assert.True(t, strings.HasPrefix(review.Question, "[pt] "), "translator saw the review payload")
}

func TestTranslatorSkippedForEnglishSessions(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		toolStep("", toolUse("tu_1", "ask_user", `{"question":"Which reframing resonates?"}`)),
	}}
	translator := &stubTranslator{}

	r := New(Config{Store: &captureStore{}, Client: client, Translator: translator, Model: "test-model", ContextWindow: 200_000})
	em := events.NewEmitter(8)
	got := collectEvents(em)
	r.Run(context.Background(), &Turn{Session: testSession(), State: decomposeState(), Emitter: em})
	<-got

	assert.Zero(t, translator.calls)
}

func TestCacheMarkersNeverReachPersistedHistory(t *testing.T) {
	client := &scriptedClient{
		steps:   []scriptStep{textStep("Cached request path.")},
		caching: true,
	}
	db := &captureStore{}

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: testSession(), State: decomposeState(), Emitter: em})
	<-got

	require.Len(t, client.reqs, 1)
	req := client.reqs[0]
	require.NotEmpty(t, req.System)
	assert.NotNil(t, req.System[len(req.System)-1].CacheControl)
	require.NotEmpty(t, req.Tools)
	assert.NotNil(t, req.Tools[len(req.Tools)-1].CacheControl)

	var lastUser *llm.Message
	for i := range req.Messages {
		if req.Messages[i].Role == llm.RoleUser {
			lastUser = &req.Messages[i]
		}
	}
	require.NotNil(t, lastUser)
	assert.NotNil(t, lastUser.Content[len(lastUser.Content)-1].CacheControl)

	require.Len(t, db.commits, 1)
	assert.NotContains(t, string(db.commits[0].Progress.MessageHistory), "cache_control")
}

func TestResearchDirectivesRideTheOpeningMessage(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{textStep("Directives noted.")}}
	db := &captureStore{}
	st := decomposeState()
	st.AddResearchDirective(forge.Directive{DirectiveType: "explore", Query: "aquifer thermal storage", Domain: "geothermal"})

	em := events.NewEmitter(8)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: testSession(), State: st, Emitter: em})
	<-got

	require.Len(t, client.reqs, 1)
	opening := client.reqs[0].Messages[0].TextContent()
	assert.Contains(t, opening, "aquifer thermal storage")
	assert.Contains(t, opening, "geothermal")
	assert.Empty(t, st.ResearchDirectives, "directives are drained once consumed")
}

func TestToolHandlerErrorsSurfaceAsToolErrors(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		toolStep("", toolUse("tu_1", "create_synthesis", `{}`)),
		textStep("Acknowledged, wrong phase."),
	}}
	db := &captureStore{}

	em := events.NewEmitter(16)
	got := collectEvents(em)
	newRunner(client, db).Run(context.Background(), &Turn{Session: testSession(), State: decomposeState(), Emitter: em})
	evs := <-got

	var toolErr events.ToolErrorPayload
	found := false
	for _, ev := range evs {
		if ev.Type == events.TypeToolError {
			toolErr = ev.Data.(events.ToolErrorPayload)
			found = true
		}
	}
	require.True(t, found)
	assert.Equal(t, "create_synthesis", toolErr.Tool)
	assert.Equal(t, forge.CodeInvalidPhase, toolErr.Code)

	// The rejection went back to the model as an error result, and the
	// loop carried on to the clean ending.
	require.Len(t, client.reqs, 2)
	last := client.reqs[1].Messages[len(client.reqs[1].Messages)-1]
	require.True(t, last.HasToolResults())
	assert.True(t, last.Content[0].IsError)
	done := donePayload(t, evs[len(evs)-1])
	assert.False(t, done.Error)
}
