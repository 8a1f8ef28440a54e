package exec

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"autocoder/pkg/logx"
)

// Container runtime binaries, in order of preference.
const (
	binDocker = "docker"
	binPodman = "podman"
)

// DetectContainerRuntime returns the path of the container runtime binary.
// Docker is preferred; podman is accepted when docker is absent.
func DetectContainerRuntime(lookPath LookPathFunc) (string, bool) {
	for _, name := range []string{binDocker, binPodman} {
		if path, err := lookPath(name); err == nil && path != "" {
			return path, true
		}
	}
	return "", false
}

// DockerExec runs commands inside a disposable container by delegating a
// "docker run --rm" invocation to a host executor.
type DockerExec struct {
	host      Executor
	dockerCmd string
	image     string
	logger    *logx.Logger
}

// NewDockerExec creates a container executor. dockerCmd is the runtime binary
// path, normally from DetectContainerRuntime.
func NewDockerExec(host Executor, dockerCmd, image string) *DockerExec {
	return &DockerExec{
		host:      host,
		dockerCmd: dockerCmd,
		image:     image,
		logger:    logx.NewLogger("docker-exec"),
	}
}

// Name returns the executor type name.
func (d *DockerExec) Name() ExecutorType {
	return ExecutorTypeDocker
}

// Image returns the container image.
func (d *DockerExec) Image() string {
	return d.image
}

// Run executes cmd as the container's arguments. opts.Env and opts.Mounts are
// translated into container flags; opts.WorkDir becomes the container workdir.
func (d *DockerExec) Run(ctx context.Context, cmd []string, opts *Opts) (Result, error) {
	if opts == nil {
		opts = &Opts{}
	}

	args := append([]string{d.dockerCmd}, d.buildDockerArgs(cmd, opts)...)
	d.logger.Debug("Executing docker command: %s", redactEnv(args))

	result, err := d.host.Run(ctx, args, &Opts{
		Timeout: opts.Timeout,
		Stdout:  opts.Stdout,
		Stderr:  opts.Stderr,
	})
	result.ExecutorUsed = d.Name()
	if err != nil {
		return result, fmt.Errorf("docker command failed: %w", err)
	}
	return result, nil
}

// buildDockerArgs constructs the docker run command arguments.
func (d *DockerExec) buildDockerArgs(cmd []string, opts *Opts) []string {
	args := []string{"run", "--rm"}

	for _, m := range opts.Mounts {
		spec := fmt.Sprintf("%s:%s", normalizePath(m.Source), m.Target)
		if m.ReadOnly {
			spec += ":ro"
		}
		args = append(args, "-v", spec)
	}

	if opts.WorkDir != "" {
		args = append(args, "-w", opts.WorkDir)
	}

	for _, env := range opts.Env {
		args = append(args, "-e", env)
	}

	args = append(args, d.image)
	return append(args, cmd...)
}

// normalizePath handles cross-platform path normalization for Docker.
func normalizePath(path string) string {
	if runtime.GOOS == "windows" {
		// Convert C:\path\to\dir to /c/path/to/dir
		if len(path) > 2 && path[1] == ':' {
			drive := strings.ToLower(string(path[0]))
			rest := strings.ReplaceAll(path[2:], "\\", "/")
			return "/" + drive + rest
		}
	}
	return path
}

// redactEnv renders args for logging with environment values masked.
func redactEnv(args []string) string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 1; i < len(out); i++ {
		if out[i-1] != "-e" {
			continue
		}
		if name, _, ok := strings.Cut(out[i], "="); ok {
			out[i] = name + "=***"
		}
	}
	return strings.Join(out, " ")
}
