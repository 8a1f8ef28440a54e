package agent

import (
	"context"
	"io"
	"os"

	"autocoder/pkg/config"
	"autocoder/pkg/exec"
	"autocoder/pkg/logx"
	"autocoder/pkg/taskerr"
)

// LogFileName is the agent log written into the output directory.
const LogFileName = "autocoder.log"

// Options describes a single agent invocation. It is passed by value.
//
//nolint:govet // Logical grouping preferred over memory optimization
type Options struct {
	AgentType      config.AgentType
	ContainerImage string
	Prompt         string
	WorkDir        string
	OutDir         string
	APIKey         string
}

// Strategy runs an agent. Output is streamed to stream as it is produced.
type Strategy interface {
	Name() string
	Run(ctx context.Context, opts Options, stream io.Writer) error
}

// NewStrategy returns the strategy for mode.
func NewStrategy(mode config.ExecutionMode, host exec.Executor, lookPath exec.LookPathFunc) Strategy {
	if mode == config.ModeDirect {
		return NewDirectStrategy(host, lookPath)
	}
	return NewContainerStrategy(host, lookPath)
}

// Executor runs the agent with the configured strategy.
type Executor struct {
	strategy Strategy
	stream   io.Writer
	logger   *logx.Logger
}

// NewExecutor creates an Executor. A nil stream discards live output.
func NewExecutor(strategy Strategy, stream io.Writer) *Executor {
	if stream == nil {
		stream = io.Discard
	}
	return &Executor{
		strategy: strategy,
		stream:   stream,
		logger:   logx.NewLogger("agent"),
	}
}

// Execute runs the agent once and fails with an execution error carrying
// the exit code when the agent exits non-zero.
func (e *Executor) Execute(ctx context.Context, opts Options) error {
	if !opts.AgentType.Valid() {
		return taskerr.Validation("Invalid agent type: %s. Must be 'copilot' or 'claude'", opts.AgentType)
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return taskerr.Execution("agent", "Failed to create output directory %s: %v", opts.OutDir, err)
	}

	e.logger.Debug("Agent type: %s", opts.AgentType)
	e.logger.Info("Executing %s agent (%s)", opts.AgentType.DisplayName(), e.strategy.Name())

	return e.strategy.Run(ctx, opts, e.stream)
}

// exitError converts an agent exit code into the run's failure.
func exitError(code int) error {
	return taskerr.ExecutionExit("agent", code, "AI agent execution failed with exit code %d", code)
}
