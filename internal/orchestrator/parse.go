package orchestrator

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// fallbackSummaryLen bounds the raw-text excerpt carried into a synthetic
// fallback plan.
const fallbackSummaryLen = 200

// ParsePlanResponse turns raw oracle output into a PlanResponse. The oracle
// is instructed to return pure JSON but is not guaranteed to comply, so
// parsing runs a fallback ladder and never fails:
//
//  1. the whole response is valid JSON - parsed directly
//  2. the response wraps a JSON object in extraneous text or a code fence -
//     the payload is located by bracket matching and parsed
//  3. nothing parses - a synthetic plan is returned that pauses the loop at
//     a checkpoint with an excerpt of the raw text
func ParsePlanResponse(raw string) PlanResponse {
	var plan PlanResponse
	if err := json.Unmarshal([]byte(raw), &plan); err == nil {
		return plan
	}

	if payload, ok := extractJSONObject(raw); ok {
		if err := json.Unmarshal([]byte(payload), &plan); err == nil {
			return plan
		}
	}

	return PlanResponse{
		Phase:      PhasePlanning,
		Checkpoint: true,
		Summary:    Truncate(strings.TrimSpace(raw), fallbackSummaryLen),
		NextAction: "Review and provide clearer instructions",
	}
}

// extractJSONObject locates the first balanced top-level JSON object in text,
// skipping braces inside string literals. Markdown code fences are stripped
// first.
func extractJSONObject(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimLeft(trimmed, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}
	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}

	start := -1
	depth := 0
	inString := false
	escape := false
	for i, r := range trimmed {
		if start == -1 {
			if r == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if inString {
			if escape {
				escape = false
				continue
			}
			switch r {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(trimmed[start : i+1]), true
			}
		}
	}
	return "", false
}

// Truncate caps s at n bytes without splitting a multi-byte rune, so the
// result is valid UTF-8 whenever the input is.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
