package orchestrator

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlanResponse_PureJSON(t *testing.T) {
	raw := `{"phase":"execution","tasks":[{"type":"command","content":"ls","description":"list files"}],"checkpoint":true,"summary":"listing"}`

	plan := ParsePlanResponse(raw)

	assert.Equal(t, PhaseExecution, plan.Phase)
	assert.True(t, plan.Checkpoint)
	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, TaskShellCommand, plan.Tasks[0].Type)
	assert.Equal(t, "ls", plan.Tasks[0].Content)
}

func TestParsePlanResponse_EmbeddedInProse(t *testing.T) {
	raw := `Here is the plan you asked for:

{"phase":"planning","tasks":[],"checkpoint":false,"summary":"getting started"}

Let me know if you need adjustments.`

	plan := ParsePlanResponse(raw)

	assert.Equal(t, PhasePlanning, plan.Phase)
	assert.False(t, plan.Checkpoint)
	assert.Equal(t, "getting started", plan.Summary)
}

func TestParsePlanResponse_CodeFence(t *testing.T) {
	raw := "```json\n{\"phase\":\"verification\",\"summary\":\"checking\"}\n```"

	plan := ParsePlanResponse(raw)

	assert.Equal(t, PhaseVerification, plan.Phase)
	assert.Equal(t, "checking", plan.Summary)
}

func TestParsePlanResponse_BracesInsideStrings(t *testing.T) {
	raw := `noise {"phase":"execution","summary":"prints {not a brace}","tasks":[{"type":"command","content":"echo '}'","description":"tricky"}]} trailing`

	plan := ParsePlanResponse(raw)

	assert.Equal(t, PhaseExecution, plan.Phase)
	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, "echo '}'", plan.Tasks[0].Content)
}

func TestParsePlanResponse_FallbackOnGarbage(t *testing.T) {
	raw := "I could not produce a plan, sorry about that."

	plan := ParsePlanResponse(raw)

	assert.Equal(t, PhasePlanning, plan.Phase)
	assert.True(t, plan.Checkpoint, "fallback plan must pause at a checkpoint")
	assert.Empty(t, plan.Tasks)
	assert.Contains(t, plan.Summary, "could not produce a plan")
	assert.Equal(t, "Review and provide clearer instructions", plan.NextAction)
}

func TestParsePlanResponse_FallbackTruncatesSummary(t *testing.T) {
	raw := strings.Repeat("x", 5000)

	plan := ParsePlanResponse(raw)

	assert.Len(t, plan.Summary, fallbackSummaryLen)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "", Truncate("", 10))
}

func TestTruncate_KeepsRuneBoundaries(t *testing.T) {
	// Each arrow is three bytes; cutting at byte 4 must back off to the
	// boundary rather than leave a partial rune.
	s := "→→→"
	got := Truncate(s, 4)
	assert.Equal(t, "→", got)
	assert.True(t, utf8.ValidString(got))

	got = Truncate(strings.Repeat("é", 200), fallbackSummaryLen-1)
	assert.True(t, utf8.ValidString(got))
}
