package terminal

import (
	"context"
	"io"
	"os"

	"github.com/de-tools/sisvan-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/sisvan-atlas/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	bench    *commands.Workbench
	output   io.Writer
	reporter *export.Reporter
	text     *export.TextReporter
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Workbench *commands.Workbench
	Output    io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		bench:    opts.Workbench,
		output:   opts.Output,
		reporter: export.NewReporter(opts.Output),
		text:     export.NewTextReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides the process arguments.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sisvan",
		Short:         "SISVAN nutritional survey tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(cli.output)

	cmd.AddCommand(commands.NewSummaryCmd(cli.bench, cli.reporter, cli.text))
	cmd.AddCommand(commands.NewRenderCmd(cli.bench, cli.output))
	cmd.AddCommand(commands.NewExportCmd(cli.bench, cli.output))

	return cmd
}
