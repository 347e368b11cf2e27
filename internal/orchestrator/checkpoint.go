package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
)

// CheckpointAction is one operator choice from the checkpoint menu.
type CheckpointAction string

const (
	ActionContinue    CheckpointAction = "continue"
	ActionReview      CheckpointAction = "review"
	ActionModify      CheckpointAction = "modify"
	ActionAddInput    CheckpointAction = "add-input"
	ActionChangeModel CheckpointAction = "change-model"
	ActionStop        CheckpointAction = "stop"
)

// ResolutionKind is the controller's answer to the loop.
type ResolutionKind int

const (
	// ResumeDefault resumes the loop with the default iteration feedback.
	ResumeDefault ResolutionKind = iota
	// ResumeReplacement resumes with operator instructions superseding the
	// default feedback message.
	ResumeReplacement
	// StopSession terminates the loop.
	StopSession
)

// Resolution is what a checkpoint decision resolves to. Instructions is set
// only for ResumeReplacement.
type Resolution struct {
	Kind         ResolutionKind
	Instructions string
}

// CheckpointState carries everything the operator may want to inspect before
// deciding.
type CheckpointState struct {
	Plan      PlanResponse
	Results   TaskResultSet
	Iteration int
}

// CheckpointController decides the next action when a plan requests a pause.
// Implementations must not resolve on unrecognized input: a failed capture or
// a model change re-presents the menu. Review shows the results and then
// resumes.
type CheckpointController interface {
	Decide(ctx context.Context, state CheckpointState) (Resolution, error)
}

// ModelSelector mutates the session-level model choice without touching
// conversation state.
type ModelSelector interface {
	// Current returns the active model identifier.
	Current() string
	// Names returns the selectable short names, sorted.
	Names() []string
	// Describe returns a human-readable label for a short name.
	Describe(name string) string
	// Set switches the active model. Unknown names are an error.
	Set(name string) error
}

// InputSource supplies operator text, either from an external capture
// command or an interactive prompt.
type InputSource interface {
	Capture(ctx context.Context) (string, error)
}

// InteractiveController presents the checkpoint menu on the terminal.
type InteractiveController struct {
	Models ModelSelector
	Input  InputSource
	Out    io.Writer
}

var _ CheckpointController = (*InteractiveController)(nil)

// Decide loops over the menu until the operator picks an action that
// resolves the checkpoint. Review renders the results and resumes; model
// changes are handled locally and return to the menu.
func (c *InteractiveController) Decide(ctx context.Context, state CheckpointState) (Resolution, error) {
	for {
		var action CheckpointAction

		form := huh.NewForm(huh.NewGroup(
			huh.NewSelect[CheckpointAction]().
				Title(fmt.Sprintf("Checkpoint - iteration %d", state.Iteration)).
				Description(state.Plan.Summary).
				Options(
					huh.NewOption("Continue - proceed with execution", ActionContinue),
					huh.NewOption("Review - show detailed results", ActionReview),
					huh.NewOption("Modify - provide new instructions", ActionModify),
					huh.NewOption("Add input - capture another request", ActionAddInput),
					huh.NewOption("Change model", ActionChangeModel),
					huh.NewOption("Stop - end session", ActionStop),
				).
				Value(&action),
		))

		if err := form.RunWithContext(ctx); err != nil {
			return Resolution{}, fmt.Errorf("checkpoint menu: %w", err)
		}

		switch action {
		case ActionContinue:
			return Resolution{Kind: ResumeDefault}, nil

		case ActionStop:
			return Resolution{Kind: StopSession}, nil

		case ActionReview:
			c.review(state)
			return Resolution{Kind: ResumeDefault}, nil

		case ActionModify:
			var text string
			err := huh.NewForm(huh.NewGroup(
				huh.NewText().Title("New instructions").Value(&text),
			)).RunWithContext(ctx)
			if err != nil {
				return Resolution{}, fmt.Errorf("collect instructions: %w", err)
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			return Resolution{Kind: ResumeReplacement, Instructions: text}, nil

		case ActionAddInput:
			text, err := c.Input.Capture(ctx)
			if err != nil {
				fmt.Fprintf(c.Out, "input capture failed: %v\n", err)
				continue
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			return Resolution{Kind: ResumeReplacement, Instructions: text}, nil

		case ActionChangeModel:
			if err := c.changeModel(ctx); err != nil {
				fmt.Fprintf(c.Out, "model selection failed: %v\n", err)
			}
		}
	}
}

// review renders the plan context and per-task results as markdown.
func (c *InteractiveController) review(state CheckpointState) {
	var md strings.Builder
	fmt.Fprintf(&md, "## Iteration %d - %s\n\n", state.Iteration, state.Plan.Phase)
	if state.Plan.Summary != "" {
		fmt.Fprintf(&md, "%s\n\n", state.Plan.Summary)
	}
	if state.Plan.NextAction != "" {
		fmt.Fprintf(&md, "**Next action:** %s\n\n", state.Plan.NextAction)
	}
	if state.Plan.SuccessCriteria != "" {
		fmt.Fprintf(&md, "**Success criteria:** %s\n\n", state.Plan.SuccessCriteria)
	}

	if len(state.Results) > 0 {
		results, err := json.MarshalIndent(state.Results, "", "  ")
		if err == nil {
			fmt.Fprintf(&md, "```json\n%s\n```\n", results)
		}
	} else {
		md.WriteString("_No task results yet._\n")
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Fprintln(c.Out, md.String())
		return
	}
	rendered, err := r.Render(md.String())
	if err != nil {
		fmt.Fprintln(c.Out, md.String())
		return
	}
	fmt.Fprint(c.Out, rendered)
}

func (c *InteractiveController) changeModel(ctx context.Context) error {
	names := c.Models.Names()
	opts := make([]huh.Option[string], 0, len(names))
	for _, name := range names {
		opts = append(opts, huh.NewOption(c.Models.Describe(name), name))
	}

	var choice string
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title("Select model").Options(opts...).Value(&choice),
	)).RunWithContext(ctx)
	if err != nil {
		return err
	}
	if err := c.Models.Set(choice); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "switched to %s\n", c.Models.Describe(choice))
	return nil
}

// ScriptedController replays a fixed action sequence. It backs headless runs
// and deterministic tests in place of a human operator.
type ScriptedController struct {
	// Actions are consumed one per menu presentation.
	Actions []CheckpointAction
	// Instructions is returned for modify/add-input actions.
	Instructions string

	next int
	// Decisions records every resolved checkpoint for inspection.
	Decisions []CheckpointAction
}

var _ CheckpointController = (*ScriptedController)(nil)

// Decide consumes scripted actions until one resolves the checkpoint.
// Unrecognized or non-resolving actions re-present the menu, matching the
// interactive contract that the loop never advances on bad input. An
// exhausted script resolves to continue.
func (s *ScriptedController) Decide(ctx context.Context, state CheckpointState) (Resolution, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Resolution{}, err
		}
		if s.next >= len(s.Actions) {
			s.Decisions = append(s.Decisions, ActionContinue)
			return Resolution{Kind: ResumeDefault}, nil
		}

		action := s.Actions[s.next]
		s.next++

		switch action {
		case ActionContinue, ActionReview:
			s.Decisions = append(s.Decisions, action)
			return Resolution{Kind: ResumeDefault}, nil
		case ActionStop:
			s.Decisions = append(s.Decisions, action)
			return Resolution{Kind: StopSession}, nil
		case ActionModify, ActionAddInput:
			s.Decisions = append(s.Decisions, action)
			return Resolution{Kind: ResumeReplacement, Instructions: s.Instructions}, nil
		default:
			// change-model or garbage: menu comes back.
		}
	}
}
