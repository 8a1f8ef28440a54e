// Command autocoder is the Azure Pipelines task that runs an AI coding agent
// against the checked-out repository and opens a pull request with the result.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"autocoder/pkg/config"
	"autocoder/pkg/exec"
	"autocoder/pkg/logx"
	"autocoder/pkg/pipeline"
	"autocoder/pkg/version"
)

// errReported marks a failure already reported to the pipeline.
var errReported = errors.New("reported")

// app carries what every subcommand shares.
type app struct {
	v        *viper.Viper
	commands *pipeline.Commands
	stdout   io.Writer
	stderr   io.Writer
	logger   *logx.Logger

	// host runs git and the agent; lookPath resolves their binaries.
	host     exec.Executor
	lookPath exec.LookPathFunc
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr, pipeline.IsTerminal(os.Stdout))
	stop()
	os.Exit(code)
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer, tty bool) int {
	a := &app{
		v:        config.NewViper(),
		commands: pipeline.New(stdout, tty),
		stdout:   stdout,
		stderr:   stderr,
		logger:   logx.NewLogger("main"),
		host:     exec.NewLocalExec(),
		lookPath: exec.Which,
	}
	return a.cli(ctx, args)
}

// cli runs the command tree with args and returns the exit code.
func (a *app) cli(ctx context.Context, args []string) int {
	logx.SetOutput(a.stderr)
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		}
		return 1
	}
	return 0
}

func newRootCommand(a *app) *cobra.Command {
	run := newRunCommand(a)

	root := &cobra.Command{
		Use:           "autocoder",
		Short:         "Run an AI coding agent on the current pipeline branch",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          run.RunE,
	}
	// The bare command behaves like "autocoder run".
	root.Flags().AddFlagSet(run.Flags())

	root.AddCommand(run)
	root.AddCommand(newQueueCommand(a))
	root.AddCommand(newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
