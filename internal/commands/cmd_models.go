package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
)

type ModelsCmd struct {
	flags *Flags
}

// NewModelsCmd creates a new models command
func NewModelsCmd(flags *Flags) *ModelsCmd {
	return &ModelsCmd{flags: flags}
}

// Register adds the models command to the application
func (cmd *ModelsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "models",
		Usage:     "List available models",
		UsageText: "claude-assistant models",
		Action:    cmd.run,
	})

	return app
}

func (cmd *ModelsCmd) run(ctx context.Context, c *cli.Command) error {
	table := cmd.flags.Config.ModelTable()
	current := cmd.flags.Selector.Current()

	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tIDENTIFIER\t")
	for _, name := range names {
		marker := ""
		if table[name] == current {
			marker = " (active)"
		}
		fmt.Fprintf(w, "%s\t%s%s\t\n", name, table[name], marker)
	}
	return w.Flush()
}
