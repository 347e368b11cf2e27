package input

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_CommandCapture(t *testing.T) {
	src := &Source{Command: "echo '  fix the login bug  '", Log: zerolog.Nop()}

	text, err := src.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fix the login bug", text)
}

func TestSource_FailingCommandFallsBackToPrompt(t *testing.T) {
	src := &Source{
		Command: "exit 3",
		Prompt: func(ctx context.Context) (string, error) {
			return "typed instead\n", nil
		},
		Log: zerolog.Nop(),
	}

	text, err := src.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "typed instead", text)
}

func TestSource_EmptyOutputFallsBackToPrompt(t *testing.T) {
	src := &Source{
		Command: "echo '   '",
		Prompt: func(ctx context.Context) (string, error) {
			return "fallback text", nil
		},
		Log: zerolog.Nop(),
	}

	text, err := src.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fallback text", text)
}

func TestSource_CommandTimeoutFallsBack(t *testing.T) {
	src := &Source{
		Command: "sleep 5",
		Timeout: 100 * time.Millisecond,
		Prompt: func(ctx context.Context) (string, error) {
			return "after timeout", nil
		},
		Log: zerolog.Nop(),
	}

	text, err := src.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "after timeout", text)
}

func TestSource_NoMethodsAvailable(t *testing.T) {
	src := &Source{Log: zerolog.Nop()}

	_, err := src.Capture(context.Background())
	assert.Error(t, err)
}

func TestSource_PromptErrorPropagates(t *testing.T) {
	wantErr := errors.New("aborted")
	src := &Source{
		Prompt: func(ctx context.Context) (string, error) { return "", wantErr },
		Log:    zerolog.Nop(),
	}

	_, err := src.Capture(context.Background())
	assert.ErrorIs(t, err, wantErr)
}
