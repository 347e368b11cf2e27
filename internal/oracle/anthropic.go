package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/saralegui-solutions/claude-assistant/internal/orchestrator"
)

// maxPlanTokens bounds a single plan response.
const maxPlanTokens = 4000

// systemPrompt pins the oracle to the structured plan contract. The parser
// still tolerates non-compliant replies, but the prompt is what keeps them
// rare.
const systemPrompt = `You are helping orchestrate a code-agent session.

When given planning requirements, respond with a JSON structure:
{
    "phase": "planning|execution|verification|complete",
    "tasks": [
        {
            "type": "claude_code_prompt|file_creation|command",
            "content": "the actual prompt or file content",
            "filename": "optional filename if creating a file",
            "description": "what this task does"
        }
    ],
    "checkpoint": true/false,
    "summary": "brief summary of what's being done",
    "next_action": "what should happen next",
    "success_criteria": "how to know if this succeeded"
}

Guidelines:
- Break complex tasks into smaller, executable steps
- Use claude_code_prompt for tasks requiring the code agent
- Use file_creation for creating config/data files
- Use command for shell commands like testing or running scripts
- Set checkpoint:true at major milestones for user review
- In verification phase, check outputs and provide fixes if needed
- Set phase:complete only when all requirements are fully met

IMPORTANT: Your entire response must be valid JSON only. No markdown, no explanations outside JSON.`

// Client is the Anthropic-backed Planner. It is transport only: conversation
// bookkeeping and response parsing live in the session loop.
type Client struct {
	api    anthropic.Client
	models *Selector
	log    zerolog.Logger
}

var _ orchestrator.Planner = (*Client)(nil)

// NewClient builds a planning client. An empty apiKey falls back to the
// SDK's environment lookup (ANTHROPIC_API_KEY).
func NewClient(apiKey string, models *Selector, log zerolog.Logger) *Client {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &Client{
		api:    anthropic.NewClient(opts...),
		models: models,
		log:    log,
	}
}

// Plan sends the full history plus one new user message and returns the raw
// response text. History order is preserved; the new message goes last.
func (c *Client) Plan(ctx context.Context, history []orchestrator.Message, next string) (string, error) {
	msgs := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, m := range history {
		switch m.Role {
		case orchestrator.RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(next)))

	model := c.models.Current()
	c.log.Debug().Str("model", model).Int("messages", len(msgs)).Msg("sending plan request")

	resp, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxPlanTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:  msgs,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("model %s returned no text content", model)
	}
	return sb.String(), nil
}
