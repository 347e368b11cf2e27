package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/saralegui-solutions/claude-assistant/internal/core/styles"
	"github.com/saralegui-solutions/claude-assistant/internal/orchestrator"
)

type SessionsCmd struct {
	flags *Flags

	// flags
	limit int
}

// NewSessionsCmd creates a new sessions command
func NewSessionsCmd(flags *Flags) *SessionsCmd {
	return &SessionsCmd{flags: flags}
}

// Register adds the sessions command to the application
func (cmd *SessionsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "sessions",
		Usage:     "List past sessions",
		UsageText: "claude-assistant sessions [--limit n]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "maximum number of sessions to show",
				Value:       20,
				Destination: &cmd.limit,
			},
		},
		Action: cmd.run,
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show one session's conversation and artifacts",
				UsageText: "claude-assistant sessions show <session-id>",
				Action:    cmd.show,
			},
		},
	})

	return app
}

func (cmd *SessionsCmd) run(ctx context.Context, c *cli.Command) error {
	sessions, err := cmd.flags.Store.List(ctx, cmd.limit)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "No sessions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tPHASE\tREASON\tITER\tSTARTED\t")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t\n",
			s.SessionID, s.Model, s.Phase, s.Reason, s.Iterations,
			s.StartedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func (cmd *SessionsCmd) show(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("session id required")
	}

	sum, err := cmd.flags.Store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get session %s: %w", id, err)
	}

	fmt.Println(styles.Banner("Session %s", sum.SessionID))
	fmt.Printf("Model: %s  Phase: %s  Reason: %s  Iterations: %d\n\n",
		sum.Model, sum.Phase, sum.Reason, sum.Iterations)

	for _, msg := range sum.Conversation {
		label := styles.Primary.Render(string(msg.Role))
		if msg.Role == orchestrator.RoleAssistant {
			label = styles.Success.Render(string(msg.Role))
		}
		fmt.Printf("%s:\n%s\n\n", label, msg.Content)
	}

	if len(sum.Artifacts) > 0 {
		fmt.Println(styles.Primary.Render("Files created:"))
		for _, path := range sum.Artifacts {
			fmt.Println("  " + path)
		}
	}
	return nil
}
