package randid

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name   string
		length int
	}{
		{"length 0", 0},
		{"negative length", -3},
		{"length 1", 1},
		{"length 4", 4},
		{"length 16", 16},
	}

	pattern := regexp.MustCompile(`^[a-z0-9]*$`)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Generate(tt.length)

			want := tt.length
			if want < 0 {
				want = 0
			}
			assert.Len(t, result, want)
			assert.True(t, pattern.MatchString(result), "Generate(%d) = %q, want only [a-z0-9]", tt.length, result)
		})
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	// Statistical check - extremely unlikely to fail with working randomness.
	seen := make(map[string]bool)
	for range 100 {
		seen[Generate(8)] = true
	}

	assert.GreaterOrEqual(t, len(seen), 90, "Generate produced only %d unique values in 100 calls", len(seen))
}
