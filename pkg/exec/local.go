package exec

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// LocalExec executes commands directly on the host.
type LocalExec struct{}

// NewLocalExec creates a new LocalExec executor.
func NewLocalExec() *LocalExec {
	return &LocalExec{}
}

// Name returns the executor type name.
func (e *LocalExec) Name() ExecutorType {
	return ExecutorTypeLocal
}

// Run executes a command locally with the given options.
func (e *LocalExec) Run(ctx context.Context, cmd []string, opts *Opts) (Result, error) {
	if len(cmd) == 0 {
		return Result{}, fmt.Errorf("command cannot be empty")
	}
	if opts == nil {
		opts = &Opts{}
	}

	startTime := time.Now()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(ctx, cmd[0], cmd[1:]...)

	if opts.WorkDir != "" {
		if _, err := os.Stat(opts.WorkDir); os.IsNotExist(err) {
			return Result{}, fmt.Errorf("working directory does not exist: %s", opts.WorkDir)
		}
		execCmd.Dir = opts.WorkDir
	}

	if len(opts.Env) > 0 {
		// Later entries win, so the overlay overrides inherited values.
		execCmd.Env = append(os.Environ(), opts.Env...)
	}

	stdout, stderr, exitCode, err := e.executeCommand(execCmd, opts)

	result := Result{
		ExitCode:     exitCode,
		Stdout:       stdout,
		Stderr:       stderr,
		Duration:     time.Since(startTime),
		ExecutorUsed: e.Name(),
	}

	// The caller checks ExitCode to determine success/failure.
	return result, err
}

// executeCommand runs the command and captures output, teeing to the
// streaming writers when configured.
func (e *LocalExec) executeCommand(cmd *exec.Cmd, opts *Opts) (stdout, stderr string, exitCode int, err error) {
	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = tee(&stdoutBuf, opts.Stdout)
	cmd.Stderr = tee(&stderrBuf, opts.Stderr)

	err = cmd.Run()

	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
			err = nil
		} else {
			// Command failed to start or other error
			exitCode = -1
		}
	}

	return stdout, stderr, exitCode, err
}

func tee(buf io.Writer, stream io.Writer) io.Writer {
	if stream == nil {
		return buf
	}
	return io.MultiWriter(buf, stream)
}
