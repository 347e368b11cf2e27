package orchestrator

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/saralegui-solutions/claude-assistant/internal/core/styles"
)

// Planner is the oracle boundary: it turns the conversation so far plus one
// new message into raw response text. The loop owns appending both sides of
// the exchange to the conversation and parsing the response.
type Planner interface {
	Plan(ctx context.Context, history []Message, next string) (string, error)
}

// SummaryStore persists the final session record.
type SummaryStore interface {
	Save(ctx context.Context, sum Summary) error
}

// LoopOptions wires a session loop.
type LoopOptions struct {
	SessionID  string
	SessionDir string
	// MaxIterations is the safety cap; zero means the design default of 15.
	MaxIterations int
	// Delay is the courtesy pause between oracle round-trips.
	Delay time.Duration

	Planner    Planner
	Executor   *Executor
	Checkpoint CheckpointController
	Models     ModelSelector
	Store      SummaryStore

	Log zerolog.Logger
	Out io.Writer
}

// Loop is the session state machine. Strictly sequential: it never issues a
// second oracle request while a prior one or its task executions are
// outstanding.
type Loop struct {
	opts LoopOptions
	conv *Conversation
}

// NewLoop creates a session loop. Output defaults to io.Discard when nil.
func NewLoop(opts LoopOptions) *Loop {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 15
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Loop{opts: opts, conv: NewConversation()}
}

// Run drives the session to a terminal state and persists its summary on
// every exit path, including interrupts. The returned Summary is exactly the
// record that was persisted.
func (l *Loop) Run(ctx context.Context, initialInput string) (sum Summary, err error) {
	if strings.TrimSpace(initialInput) == "" {
		return Summary{}, fmt.Errorf("no task description provided")
	}

	started := time.Now()
	phase := PhasePlanning
	reason := ReasonStopped
	iterations := 0

	defer func() {
		sum = Summary{
			SessionID:    l.opts.SessionID,
			Model:        l.currentModel(),
			Phase:        phase,
			Reason:       reason,
			Iterations:   iterations,
			StartedAt:    started,
			EndedAt:      time.Now(),
			Conversation: l.conv.Snapshot(),
			Artifacts:    l.opts.Executor.CreatedFiles(),
		}
		l.persist(ctx, sum)
	}()

	l.opts.Log.Info().
		Str("session_id", l.opts.SessionID).
		Str("model", l.currentModel()).
		Msg("session started")

	plan := l.requestPlan(ctx, initialPlanningMessage(initialInput))

	for iteration := 1; ; iteration++ {
		if iteration > l.opts.MaxIterations {
			reason = ReasonMaxIterations
			l.opts.Log.Warn().Int("max_iterations", l.opts.MaxIterations).Msg("iteration cap reached")
			fmt.Fprintln(l.opts.Out, styles.Warnf("Session ended: maximum iterations (%d) reached", l.opts.MaxIterations))
			return sum, nil
		}
		iterations = iteration

		// An interrupt can land while blocked on the oracle call or during
		// the inter-iteration pause. Either way the session stops; it is not
		// a transport failure.
		if ctx.Err() != nil {
			phase = PhaseStopped
			reason = ReasonStopped
			l.opts.Log.Warn().Msg("session interrupted")
			fmt.Fprintln(l.opts.Out, styles.Warnf("Session interrupted"))
			return sum, nil
		}

		if plan.Phase != "" {
			phase = plan.Phase
		}

		fmt.Fprintln(l.opts.Out, styles.Banner("Iteration %d - Phase: %s", iteration, strings.ToUpper(string(phase))))
		if plan.Summary != "" {
			fmt.Fprintln(l.opts.Out, styles.Muted.Render(plan.Summary))
		}

		// Terminal phases have no outgoing transitions.
		if phase == PhaseComplete {
			reason = ReasonComplete
			l.opts.Log.Info().Int("iterations", iteration).Msg("session completed")
			fmt.Fprintln(l.opts.Out, styles.Okf("Project completed successfully"))
			return sum, nil
		}
		if phase == PhaseError {
			reason = ReasonError
			l.opts.Log.Error().Str("summary", plan.Summary).Msg("oracle reported error phase")
			fmt.Fprintln(l.opts.Out, styles.Errf("Session failed: %s", plan.Summary))
			return sum, nil
		}

		results := l.executeTasks(ctx, plan)

		if ctx.Err() != nil {
			phase = PhaseStopped
			reason = ReasonStopped
			l.opts.Log.Warn().Msg("session interrupted")
			fmt.Fprintln(l.opts.Out, styles.Warnf("Session interrupted"))
			return sum, nil
		}

		next := feedbackMessage(phase, results)

		if plan.Checkpoint {
			res, err := l.opts.Checkpoint.Decide(ctx, CheckpointState{
				Plan:      plan,
				Results:   results,
				Iteration: iteration,
			})
			if err != nil {
				phase = PhaseStopped
				reason = ReasonStopped
				l.opts.Log.Warn().Err(err).Msg("checkpoint aborted")
				return sum, nil
			}

			switch res.Kind {
			case StopSession:
				phase = PhaseStopped
				reason = ReasonStopped
				l.opts.Log.Info().Int("iteration", iteration).Msg("session stopped by operator")
				fmt.Fprintln(l.opts.Out, styles.Warnf("Session stopped"))
				return sum, nil
			case ResumeReplacement:
				next = replacementMessage(res.Instructions, results)
			}
		}

		plan = l.requestPlan(ctx, next)
		l.pause(ctx)
	}
}

// executeTasks runs every task in plan order, one at a time. Task k may
// depend on side effects of task k-1, so ordering is contractual and a failed
// task does not skip its successors: the oracle sees all outcomes and decides
// how to re-plan.
func (l *Loop) executeTasks(ctx context.Context, plan PlanResponse) TaskResultSet {
	results := make(TaskResultSet, 0, len(plan.Tasks))
	if len(plan.Tasks) == 0 {
		return results
	}

	fmt.Fprintln(l.opts.Out, styles.Primary.Render(fmt.Sprintf("Executing %d tasks:", len(plan.Tasks))))

	for i, task := range plan.Tasks {
		desc := task.Description
		if desc == "" {
			desc = "Unknown task"
		}
		fmt.Fprintf(l.opts.Out, "  [%d/%d] %s\n", i+1, len(plan.Tasks), desc)

		outcome := l.opts.Executor.Execute(ctx, task)
		results = append(results, TaskResult{
			Task:    desc,
			Type:    task.Type,
			Success: outcome.Success,
			Output:  Truncate(outcome.Output, resultLogLen),
			Error:   outcome.Error,
		})

		if outcome.Success {
			l.opts.Log.Info().Str("task", desc).Msg("task completed")
			fmt.Fprintln(l.opts.Out, "  "+styles.Okf("%s", desc))
		} else {
			l.opts.Log.Error().Str("task", desc).Str("error", outcome.Error).Msg("task failed")
			fmt.Fprintln(l.opts.Out, "  "+styles.Errf("%s: %s", desc, outcome.Error))
		}

		if ctx.Err() != nil {
			break
		}
	}

	return results
}

// requestPlan performs one oracle round-trip. On success both sides of the
// exchange are appended to the conversation and the reply is parsed through
// the fallback ladder. A transport failure becomes a terminal error plan,
// unless it was caused by the session context being cancelled, in which case
// the session stops. The oracle call itself is never retried.
func (l *Loop) requestPlan(ctx context.Context, text string) PlanResponse {
	l.opts.Log.Debug().Int("history_len", l.conv.Len()).Msg("requesting plan")

	raw, err := l.opts.Planner.Plan(ctx, l.conv.Snapshot(), text)
	if err != nil {
		if ctx.Err() != nil {
			l.opts.Log.Warn().Msg("oracle request interrupted")
			return PlanResponse{Phase: PhaseStopped}
		}
		l.opts.Log.Error().Err(err).Msg("oracle request failed")
		return PlanResponse{
			Phase:      PhaseError,
			Checkpoint: true,
			Summary:    fmt.Sprintf("oracle request failed: %v", err),
		}
	}

	_ = l.conv.Append(Message{Role: RoleUser, Content: text})
	_ = l.conv.Append(Message{Role: RoleAssistant, Content: raw})

	return ParsePlanResponse(raw)
}

// pause applies the inter-iteration courtesy delay, cut short by ctx.
func (l *Loop) pause(ctx context.Context) {
	if l.opts.Delay <= 0 {
		return
	}
	t := time.NewTimer(l.opts.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (l *Loop) currentModel() string {
	if l.opts.Models == nil {
		return ""
	}
	return l.opts.Models.Current()
}

// persist saves the summary record and the JSON summary file. It must run
// even when ctx was cancelled by an interrupt, so storage calls get a
// detached context.
func (l *Loop) persist(ctx context.Context, sum Summary) {
	saveCtx := context.WithoutCancel(ctx)

	if l.opts.Store != nil {
		if err := l.opts.Store.Save(saveCtx, sum); err != nil {
			l.opts.Log.Error().Err(err).Msg("failed to persist session summary")
			fmt.Fprintln(l.opts.Out, styles.Errf("failed to save session: %v", err))
		}
	}

	if l.opts.SessionDir != "" {
		path, err := WriteSummaryFile(sum, l.opts.SessionDir)
		if err != nil {
			l.opts.Log.Error().Err(err).Msg("failed to write summary file")
		} else {
			l.opts.Log.Info().Str("path", path).Msg("session summary written")
			fmt.Fprintln(l.opts.Out, styles.Muted.Render("Session files saved in: "+l.opts.SessionDir))
		}
	}
}
