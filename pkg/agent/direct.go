package agent

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"autocoder/pkg/config"
	"autocoder/pkg/exec"
	"autocoder/pkg/logx"
	"autocoder/pkg/taskerr"
)

// cliSpec describes how to launch an agent CLI on the host.
type cliSpec struct {
	binary     string
	args       []string
	envNames   []string
	missingMsg string
}

var cliSpecs = map[config.AgentType]cliSpec{
	config.AgentCopilot: {
		binary:     "gh",
		args:       []string{"copilot", "suggest", "-t", "code"},
		envNames:   []string{"GH_TOKEN", "GITHUB_PAT"},
		missingMsg: "GitHub CLI (gh) is not installed. Please use container execution or install gh CLI.",
	},
	config.AgentClaude: {
		binary:     "claude",
		args:       []string{"--print", "--dangerously-skip-permissions"},
		envNames:   []string{"ANTHROPIC_API_KEY", "CLAUDE_API_KEY"},
		missingMsg: "Claude CLI is not installed. Please use container execution or install Claude CLI.",
	},
}

// DirectStrategy runs an agent CLI installed on the build host.
type DirectStrategy struct {
	host     exec.Executor
	lookPath exec.LookPathFunc
	logger   *logx.Logger
}

// NewDirectStrategy creates a direct strategy.
func NewDirectStrategy(host exec.Executor, lookPath exec.LookPathFunc) *DirectStrategy {
	return &DirectStrategy{
		host:     host,
		lookPath: lookPath,
		logger:   logx.NewLogger("agent"),
	}
}

// Name returns the strategy name.
func (s *DirectStrategy) Name() string {
	return string(config.ModeDirect)
}

// Run executes the agent CLI in the working tree. Its output is also
// written to <OutDir>/autocoder.log.
func (s *DirectStrategy) Run(ctx context.Context, opts Options, stream io.Writer) error {
	spec, ok := cliSpecs[opts.AgentType]
	if !ok {
		return taskerr.Validation("Invalid agent type: %s. Must be 'copilot' or 'claude'", opts.AgentType)
	}
	binPath, err := s.lookPath(spec.binary)
	if err != nil || binPath == "" {
		return taskerr.Configuration("%s", spec.missingMsg)
	}

	logFile, err := os.Create(filepath.Join(opts.OutDir, LogFileName))
	if err != nil {
		return taskerr.Execution("agent", "Failed to create agent log: %v", err)
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			s.logger.Warn("Failed to close agent log: %v", cerr)
		}
	}()
	out := io.MultiWriter(stream, logFile)

	env := make([]string, 0, len(spec.envNames))
	for _, name := range spec.envNames {
		env = append(env, name+"="+opts.APIKey)
	}

	cmd := append([]string{binPath}, spec.args...)
	cmd = append(cmd, opts.Prompt)

	s.logger.Info("Executing %s agent directly", opts.AgentType.DisplayName())
	res, err := s.host.Run(ctx, cmd, &exec.Opts{
		Env:     env,
		WorkDir: opts.WorkDir,
		Stdout:  out,
		Stderr:  out,
	})
	if err != nil {
		return taskerr.Execution("agent", "Failed to start %s: %v", spec.binary, err)
	}
	if !res.Success() {
		return exitError(res.ExitCode)
	}
	return nil
}
