package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptPlanner replays canned replies and records every message it was sent.
type scriptPlanner struct {
	replies []string
	sent    []string
	// onPlan runs before each reply is returned, for interrupt simulation.
	onPlan func(call int)
}

func (p *scriptPlanner) Plan(ctx context.Context, history []Message, next string) (string, error) {
	call := len(p.sent)
	p.sent = append(p.sent, next)
	if p.onPlan != nil {
		p.onPlan(call)
	}
	if call >= len(p.replies) {
		return "", errors.New("script exhausted")
	}
	return p.replies[call], nil
}

type recordStore struct {
	saved []Summary
}

func (s *recordStore) Save(ctx context.Context, sum Summary) error {
	s.saved = append(s.saved, sum)
	return nil
}

type fixedSelector struct{ id string }

func (s fixedSelector) Current() string             { return s.id }
func (s fixedSelector) Names() []string             { return []string{s.id} }
func (s fixedSelector) Describe(name string) string { return name }
func (s fixedSelector) Set(name string) error       { return nil }

func planJSON(t *testing.T, plan PlanResponse) string {
	t.Helper()
	data, err := json.Marshal(plan)
	require.NoError(t, err)
	return string(data)
}

func newTestLoop(t *testing.T, planner Planner, ctrl CheckpointController, store SummaryStore) (*Loop, string) {
	t.Helper()
	sessionDir := t.TempDir()
	return NewLoop(LoopOptions{
		SessionID:     "test_session",
		SessionDir:    sessionDir,
		MaxIterations: 15,
		Planner:       planner,
		Executor:      NewExecutor(t.TempDir(), sessionDir, "cat", 5*time.Second, 5*time.Second, zerolog.Nop()),
		Checkpoint:    ctrl,
		Models:        fixedSelector{id: "claude-opus-4-1-20250805"},
		Store:         store,
		Log:           zerolog.Nop(),
	}), sessionDir
}

func TestLoop_RunsToCompletion(t *testing.T) {
	planner := &scriptPlanner{replies: []string{
		planJSON(t, PlanResponse{
			Phase: PhaseExecution,
			Tasks: []Task{{Type: TaskShellCommand, Content: "echo done", Description: "run echo"}},
		}),
		planJSON(t, PlanResponse{Phase: PhaseComplete, Summary: "all done"}),
	}}
	store := &recordStore{}
	loop, sessionDir := newTestLoop(t, planner, &ScriptedController{}, store)
	loop.opts.Delay = 0

	sum, err := loop.Run(context.Background(), "build a widget")
	require.NoError(t, err)

	assert.Equal(t, PhaseComplete, sum.Phase)
	assert.Equal(t, ReasonComplete, sum.Reason)
	assert.Equal(t, 2, sum.Iterations)
	assert.Equal(t, "claude-opus-4-1-20250805", sum.Model)

	// Two round-trips, each appending a user and an assistant message.
	require.Len(t, sum.Conversation, 4)
	assert.Equal(t, RoleUser, sum.Conversation[0].Role)
	assert.Contains(t, sum.Conversation[0].Content, "build a widget")
	assert.Equal(t, RoleAssistant, sum.Conversation[1].Role)

	// Feedback after the execution iteration reports the success ratio.
	require.Len(t, planner.sent, 2)
	assert.Contains(t, planner.sent[1], "Success rate: 1/1 tasks succeeded")

	require.Len(t, store.saved, 1)
	assert.Equal(t, sum.SessionID, store.saved[0].SessionID)

	// The JSON summary file lands in the session directory.
	data, err := os.ReadFile(filepath.Join(sessionDir, "session_test_session_summary.json"))
	require.NoError(t, err)
	var onDisk Summary
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, ReasonComplete, onDisk.Reason)
	assert.Len(t, onDisk.Conversation, 4)
}

func TestLoop_EmptyInputRefused(t *testing.T) {
	planner := &scriptPlanner{}
	store := &recordStore{}
	loop, _ := newTestLoop(t, planner, &ScriptedController{}, store)

	_, err := loop.Run(context.Background(), "   \n")
	require.Error(t, err)
	assert.Empty(t, planner.sent, "no oracle call on refused input")
	assert.Empty(t, store.saved, "no summary persisted for a session that never started")
}

func TestLoop_ErrorPhaseHalts(t *testing.T) {
	planner := &scriptPlanner{replies: []string{
		planJSON(t, PlanResponse{Phase: PhaseError, Summary: "cannot proceed"}),
	}}
	store := &recordStore{}
	loop, _ := newTestLoop(t, planner, &ScriptedController{}, store)

	sum, err := loop.Run(context.Background(), "impossible request")
	require.NoError(t, err)

	assert.Equal(t, PhaseError, sum.Phase)
	assert.Equal(t, ReasonError, sum.Reason)
	assert.Equal(t, 1, sum.Iterations)
	assert.Len(t, planner.sent, 1, "no further oracle calls after a terminal phase")
}

func TestLoop_OracleFailureBecomesErrorPlan(t *testing.T) {
	// Zero replies: the very first Plan call fails.
	planner := &scriptPlanner{}
	store := &recordStore{}
	loop, _ := newTestLoop(t, planner, &ScriptedController{}, store)

	sum, err := loop.Run(context.Background(), "anything")
	require.NoError(t, err, "transport failures terminate the session, they do not error Run")

	assert.Equal(t, PhaseError, sum.Phase)
	assert.Equal(t, ReasonError, sum.Reason)
	assert.Empty(t, sum.Conversation, "a failed round-trip appends nothing")
	require.Len(t, store.saved, 1)
}

func TestLoop_MaxIterationsCap(t *testing.T) {
	execution := planJSON(t, PlanResponse{Phase: PhaseExecution})
	replies := make([]string, 20)
	for i := range replies {
		replies[i] = execution
	}
	planner := &scriptPlanner{replies: replies}
	store := &recordStore{}
	loop, _ := newTestLoop(t, planner, &ScriptedController{}, store)
	loop.opts.MaxIterations = 3
	loop.opts.Delay = 0

	sum, err := loop.Run(context.Background(), "never finishes")
	require.NoError(t, err)

	assert.Equal(t, ReasonMaxIterations, sum.Reason)
	assert.Equal(t, 3, sum.Iterations)
	// Initial request plus one feedback per completed iteration.
	assert.Len(t, planner.sent, 4)
}

func TestLoop_CheckpointStopAtIterationThree(t *testing.T) {
	execution := planJSON(t, PlanResponse{Phase: PhaseExecution})
	withCheckpoint := planJSON(t, PlanResponse{Phase: PhaseExecution, Checkpoint: true})
	planner := &scriptPlanner{replies: []string{execution, execution, withCheckpoint, execution}}
	store := &recordStore{}
	loop, _ := newTestLoop(t, planner, &ScriptedController{Actions: []CheckpointAction{ActionStop}}, store)
	loop.opts.Delay = 0

	sum, err := loop.Run(context.Background(), "long task")
	require.NoError(t, err)

	assert.Equal(t, PhaseStopped, sum.Phase)
	assert.Equal(t, ReasonStopped, sum.Reason)
	assert.Equal(t, 3, sum.Iterations)
	assert.Len(t, planner.sent, 3, "no oracle call after the stop decision")
	assert.Len(t, sum.Conversation, 6, "exactly three round-trips recorded")
}

func TestLoop_CheckpointReplacementInstructions(t *testing.T) {
	planner := &scriptPlanner{replies: []string{
		planJSON(t, PlanResponse{Phase: PhaseExecution, Checkpoint: true}),
		planJSON(t, PlanResponse{Phase: PhaseComplete}),
	}}
	ctrl := &ScriptedController{
		Actions:      []CheckpointAction{ActionModify},
		Instructions: "target linux only",
	}
	loop, _ := newTestLoop(t, planner, ctrl, &recordStore{})
	loop.opts.Delay = 0

	sum, err := loop.Run(context.Background(), "build it")
	require.NoError(t, err)

	assert.Equal(t, ReasonComplete, sum.Reason)
	require.Len(t, planner.sent, 2)
	assert.Contains(t, planner.sent[1], "User provided new instructions: target linux only")
	assert.NotContains(t, planner.sent[1], "Success rate:", "replacement supersedes default feedback")
}

func TestLoop_InterruptStopsSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	planner := &scriptPlanner{
		replies: []string{planJSON(t, PlanResponse{Phase: PhaseExecution})},
		onPlan:  func(call int) { cancel() },
	}
	store := &recordStore{}
	loop, _ := newTestLoop(t, planner, &ScriptedController{}, store)

	sum, err := loop.Run(ctx, "interrupted work")
	require.NoError(t, err)

	assert.Equal(t, PhaseStopped, sum.Phase)
	assert.Equal(t, ReasonStopped, sum.Reason)
	assert.Equal(t, 1, sum.Iterations)
	require.Len(t, store.saved, 1, "summary persisted despite cancelled context")
}

// cancelPlanner cancels the session context and then fails the way a
// transport does when its context is cut out from under it mid-call.
type cancelPlanner struct {
	cancel context.CancelFunc
	calls  int
}

func (p *cancelPlanner) Plan(ctx context.Context, history []Message, next string) (string, error) {
	p.calls++
	p.cancel()
	return "", ctx.Err()
}

func TestLoop_InterruptDuringOracleCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	planner := &cancelPlanner{cancel: cancel}
	store := &recordStore{}
	loop, _ := newTestLoop(t, planner, &ScriptedController{}, store)

	sum, err := loop.Run(ctx, "interrupted mid-call")
	require.NoError(t, err)

	assert.Equal(t, PhaseStopped, sum.Phase)
	assert.Equal(t, ReasonStopped, sum.Reason, "an interrupt is not a transport error")
	assert.Equal(t, 1, planner.calls, "no further oracle calls after the interrupt")
	assert.Empty(t, sum.Conversation, "the aborted round-trip appends nothing")
	require.Len(t, store.saved, 1, "summary persisted despite cancelled context")
}

func TestLoop_TaskOutputTruncatedInFeedback(t *testing.T) {
	longEcho := "head -c 500 /dev/zero | tr '\\0' '='"
	planner := &scriptPlanner{replies: []string{
		planJSON(t, PlanResponse{
			Phase: PhaseExecution,
			Tasks: []Task{{Type: TaskShellCommand, Content: longEcho, Description: "long output"}},
		}),
		planJSON(t, PlanResponse{Phase: PhaseComplete}),
	}}
	loop, _ := newTestLoop(t, planner, &ScriptedController{}, &recordStore{})
	loop.opts.Delay = 0

	_, err := loop.Run(context.Background(), "noisy task")
	require.NoError(t, err)

	require.Len(t, planner.sent, 2)
	// The result set inside the feedback carries at most resultLogLen bytes
	// of output per task; 500 bytes were produced.
	assert.LessOrEqual(t, countRune(planner.sent[1], '='), resultLogLen, "output was not truncated")
}

func countRune(s string, r rune) int {
	n := 0
	for _, c := range s {
		if c == r {
			n++
		}
	}
	return n
}
