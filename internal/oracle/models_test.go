package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTable = map[string]string{
	"opus-4.1": "claude-opus-4-1-20250805",
	"sonnet":   "claude-3-5-sonnet-20241022",
	"haiku":    "claude-3-haiku-20240307",
}

func TestSelector_ResolvesShortName(t *testing.T) {
	s := NewSelector(testTable, "sonnet")
	assert.Equal(t, "claude-3-5-sonnet-20241022", s.Current())
}

func TestSelector_ResolveIsCaseInsensitive(t *testing.T) {
	s := NewSelector(testTable, "SONNET")
	assert.Equal(t, "claude-3-5-sonnet-20241022", s.Current())
}

func TestSelector_PassesThroughRawIdentifier(t *testing.T) {
	s := NewSelector(testTable, "claude-future-model-20270101")
	assert.Equal(t, "claude-future-model-20270101", s.Current())
}

func TestSelector_SetSwitchesModel(t *testing.T) {
	s := NewSelector(testTable, "opus-4.1")

	require.NoError(t, s.Set("haiku"))
	assert.Equal(t, "claude-3-haiku-20240307", s.Current())
}

func TestSelector_SetRejectsUnknownName(t *testing.T) {
	s := NewSelector(testTable, "opus-4.1")

	err := s.Set("gpt-9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown model")
	assert.Equal(t, "claude-opus-4-1-20250805", s.Current(), "active model unchanged on error")
}

func TestSelector_NamesSorted(t *testing.T) {
	s := NewSelector(testTable, "sonnet")
	assert.Equal(t, []string{"haiku", "opus-4.1", "sonnet"}, s.Names())
}

func TestSelector_Describe(t *testing.T) {
	s := NewSelector(testTable, "sonnet")
	assert.Equal(t, "haiku (claude-3-haiku-20240307)", s.Describe("haiku"))
	assert.Equal(t, "mystery", s.Describe("mystery"))
}
