package agent

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"autocoder/pkg/config"
	"autocoder/pkg/exec"
	"autocoder/pkg/logx"
	"autocoder/pkg/taskerr"
)

// ImageRegistry is the repository prefix of the published agent images.
const ImageRegistry = "ghcr.io/gheorghiuradu/ado-autocoder"

// ImageTag is the default agent image tag. It is set at release time.
// Example: go build -ldflags "-X autocoder/pkg/agent.ImageTag=1.4.0".
//
//nolint:gochecknoglobals // Must be a package-level var for ldflags injection.
var ImageTag = "latest"

// Container mount points.
const (
	containerSrc = "/src"
	containerOut = "/out"
)

// DefaultImage returns the published image for agentType.
func DefaultImage(agentType config.AgentType) string {
	return fmt.Sprintf("%s/ubuntu-%s:%s", ImageRegistry, agentType, ImageTag)
}

// EffectiveImage returns the override image if set, else the default.
func (o Options) EffectiveImage() string {
	if o.ContainerImage != "" {
		return o.ContainerImage
	}
	return DefaultImage(o.AgentType)
}

// CredentialEnv returns the environment variable the agent image reads its
// credential from.
func CredentialEnv(agentType config.AgentType) string {
	if agentType == config.AgentClaude {
		return "CLAUDE_API_KEY"
	}
	return "GITHUB_PAT"
}

// EncodePrompt encodes the prompt for transport as a container argument.
// The image entrypoint decodes it.
func EncodePrompt(prompt string) string {
	return base64.StdEncoding.EncodeToString([]byte(prompt))
}

// ContainerStrategy runs the agent image in a disposable container.
type ContainerStrategy struct {
	host     exec.Executor
	lookPath exec.LookPathFunc
	uid      func() int
	gid      func() int
	logger   *logx.Logger
}

// NewContainerStrategy creates a container strategy using host to launch the
// container runtime.
func NewContainerStrategy(host exec.Executor, lookPath exec.LookPathFunc) *ContainerStrategy {
	return &ContainerStrategy{
		host:     host,
		lookPath: lookPath,
		uid:      os.Getuid,
		gid:      os.Getgid,
		logger:   logx.NewLogger("agent"),
	}
}

// Name returns the strategy name.
func (s *ContainerStrategy) Name() string {
	return string(config.ModeContainer)
}

// Run starts the container and waits for it to exit. A missing container
// runtime fails immediately; there is no fallback.
func (s *ContainerStrategy) Run(ctx context.Context, opts Options, stream io.Writer) error {
	runtime, ok := exec.DetectContainerRuntime(s.lookPath)
	if !ok {
		return taskerr.Configuration("Docker is not available in the current environment. Please run in an environment with Docker support.")
	}

	docker := exec.NewDockerExec(s.host, runtime, opts.EffectiveImage())
	s.logger.Info("Executing AI agent in container: %s", docker.Image())
	res, err := docker.Run(ctx, []string{EncodePrompt(opts.Prompt)}, &exec.Opts{
		Mounts: []exec.Mount{
			{Source: opts.WorkDir, Target: containerSrc},
			{Source: opts.OutDir, Target: containerOut},
		},
		Env: []string{
			fmt.Sprintf("HID=%d", s.uid()),
			fmt.Sprintf("HGID=%d", s.gid()),
			CredentialEnv(opts.AgentType) + "=" + opts.APIKey,
		},
		Stdout: stream,
		Stderr: stream,
	})
	if err != nil {
		return taskerr.Execution("agent", "Failed to start agent container: %v", err)
	}
	if !res.Success() {
		return exitError(res.ExitCode)
	}
	return nil
}
