// Package exec provides the process-runner abstraction Autocoder uses for every
// external binary (git, docker, agent CLIs), with local and container-backed
// implementations.
package exec

import (
	"context"
	"io"
	"os/exec"
	"time"
)

// ExecutorType represents the type of executor.
type ExecutorType string

// Executor type constants.
const (
	ExecutorTypeLocal  ExecutorType = "local"
	ExecutorTypeDocker ExecutorType = "docker"
)

// Executor runs a command and reports its exit code and captured output.
//
// A non-zero exit code is not an error: callers inspect Result.ExitCode.
// An error is returned only when the command could not be run at all.
type Executor interface {
	Run(ctx context.Context, cmd []string, opts *Opts) (Result, error)
}

// Opts contains options for command execution.
//
//nolint:govet // Configuration struct, logical grouping preferred
type Opts struct {
	// Env is an overlay of KEY=VALUE pairs applied on top of the inherited environment.
	Env []string

	// WorkDir is the working directory for the command.
	WorkDir string

	// Timeout is the maximum duration for command execution. Zero means no limit.
	Timeout time.Duration

	// Stdout and Stderr, when set, receive output as it is produced in addition
	// to being captured in Result.
	Stdout io.Writer
	Stderr io.Writer

	// Mounts are bind mounts for container executors. Ignored by LocalExec.
	Mounts []Mount
}

// Mount is a host-to-container bind mount.
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// Result contains the result of command execution.
type Result struct {
	// Stdout contains the standard output.
	Stdout string

	// Stderr contains the standard error output.
	Stderr string

	// ExecutorUsed indicates which executor was used (for debugging)
	ExecutorUsed ExecutorType

	// Duration is how long the command took to execute.
	Duration time.Duration

	// ExitCode is the exit code of the command.
	ExitCode int
}

// Success reports whether the command exited with code 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// LookPathFunc resolves a binary name to a usable path.
type LookPathFunc func(name string) (string, error)

// Which resolves name on PATH.
func Which(name string) (string, error) {
	return exec.LookPath(name)
}
