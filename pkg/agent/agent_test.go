package agent

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocoder/internal/mocks"
	"autocoder/pkg/config"
	"autocoder/pkg/exec"
	"autocoder/pkg/taskerr"
)

func lookPathFor(available ...string) exec.LookPathFunc {
	return func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func testOptions(t *testing.T, agentType config.AgentType) Options {
	t.Helper()
	return Options{
		AgentType: agentType,
		Prompt:    "Line one\nIt's \"quoted\"",
		WorkDir:   "/agent/s",
		OutDir:    filepath.Join(t.TempDir(), "out"),
		APIKey:    "secret",
	}
}

func TestDefaultImage(t *testing.T) {
	assert.Equal(t, "ghcr.io/gheorghiuradu/ado-autocoder/ubuntu-copilot:latest", DefaultImage(config.AgentCopilot))
	assert.Equal(t, "ghcr.io/gheorghiuradu/ado-autocoder/ubuntu-claude:latest", DefaultImage(config.AgentClaude))

	opts := Options{AgentType: config.AgentClaude, ContainerImage: "my/image:1"}
	assert.Equal(t, "my/image:1", opts.EffectiveImage())
}

func TestContainerInvocation(t *testing.T) {
	tests := []struct {
		agentType config.AgentType
		credEnv   string
	}{
		{config.AgentCopilot, "GITHUB_PAT=secret"},
		{config.AgentClaude, "CLAUDE_API_KEY=secret"},
	}
	for _, tt := range tests {
		t.Run(string(tt.agentType), func(t *testing.T) {
			host := mocks.NewMockExecutor()
			strategy := NewContainerStrategy(host, lookPathFor("docker"))
			strategy.uid = func() int { return 1001 }
			strategy.gid = func() int { return 121 }
			opts := testOptions(t, tt.agentType)

			require.NoError(t, NewExecutor(strategy, nil).Execute(context.Background(), opts))

			call := host.LastCall()
			require.NotNil(t, call)
			assert.Equal(t, []string{
				"/usr/bin/docker", "run", "--rm",
				"-v", "/agent/s:/src",
				"-v", opts.OutDir + ":/out",
				"-e", "HID=1001",
				"-e", "HGID=121",
				"-e", tt.credEnv,
				DefaultImage(tt.agentType),
				base64.StdEncoding.EncodeToString([]byte(opts.Prompt)),
			}, call.Cmd)

			decoded, err := base64.StdEncoding.DecodeString(call.Cmd[len(call.Cmd)-1])
			require.NoError(t, err)
			assert.Equal(t, opts.Prompt, string(decoded))
			assert.DirExists(t, opts.OutDir)
		})
	}
}

func TestContainerExitCodeIsFatal(t *testing.T) {
	host := mocks.NewMockExecutor()
	host.ExitWith("run --rm", 3)

	err := NewExecutor(NewContainerStrategy(host, lookPathFor("docker")), nil).
		Execute(context.Background(), testOptions(t, config.AgentClaude))

	require.Error(t, err)
	assert.Equal(t, "AI agent execution failed with exit code 3", err.Error())
	var te *taskerr.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 3, te.ExitCode)
}

func TestContainerStderrIsNotFailure(t *testing.T) {
	host := mocks.NewMockExecutor()
	host.RespondTo("run", exec.Result{Stderr: "warning: something"})

	err := NewExecutor(NewContainerStrategy(host, lookPathFor("docker")), nil).
		Execute(context.Background(), testOptions(t, config.AgentCopilot))
	assert.NoError(t, err)
}

func TestContainerRequiresRuntime(t *testing.T) {
	host := mocks.NewMockExecutor()

	err := NewExecutor(NewContainerStrategy(host, lookPathFor("gh", "claude")), nil).
		Execute(context.Background(), testOptions(t, config.AgentCopilot))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Docker is not available")
	assert.True(t, taskerr.IsKind(err, taskerr.KindConfiguration))
	// No fallback to the host CLI.
	assert.Equal(t, 0, host.CallCount())
}

func TestContainerFallsBackToPodman(t *testing.T) {
	host := mocks.NewMockExecutor()

	err := NewExecutor(NewContainerStrategy(host, lookPathFor("podman")), nil).
		Execute(context.Background(), testOptions(t, config.AgentCopilot))

	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/podman", host.LastCall().Cmd[0])
}

func TestDirectStrategyClaude(t *testing.T) {
	host := mocks.NewMockExecutor()
	opts := testOptions(t, config.AgentClaude)

	err := NewExecutor(NewStrategy(config.ModeDirect, host, lookPathFor("claude")), nil).
		Execute(context.Background(), opts)
	require.NoError(t, err)

	call := host.LastCall()
	require.NotNil(t, call)
	assert.Equal(t, []string{"/usr/bin/claude", "--print", "--dangerously-skip-permissions", opts.Prompt}, call.Cmd)
	assert.Equal(t, "/agent/s", call.Opts.WorkDir)
	assert.Contains(t, call.Opts.Env, "ANTHROPIC_API_KEY=secret")
	assert.Contains(t, call.Opts.Env, "CLAUDE_API_KEY=secret")
	assert.FileExists(t, filepath.Join(opts.OutDir, LogFileName))
}

func TestDirectStrategyTeesOutputToLog(t *testing.T) {
	host := mocks.NewMockExecutor()
	host.OnRun(func(_ context.Context, _ []string, o *exec.Opts) (exec.Result, error) {
		_, _ = o.Stdout.Write([]byte("created README.md\n"))
		return exec.Result{Stdout: "created README.md\n"}, nil
	})
	opts := testOptions(t, config.AgentCopilot)

	err := NewExecutor(NewDirectStrategy(host, lookPathFor("gh")), nil).Execute(context.Background(), opts)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(opts.OutDir, LogFileName))
	require.NoError(t, err)
	assert.Equal(t, "created README.md\n", string(content))
	assert.Equal(t, "copilot suggest -t code "+opts.Prompt, host.LastCall().Args())
}

func TestDirectStrategyMissingCLI(t *testing.T) {
	host := mocks.NewMockExecutor()

	err := NewExecutor(NewDirectStrategy(host, lookPathFor("docker")), nil).
		Execute(context.Background(), testOptions(t, config.AgentClaude))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Claude CLI is not installed")
	assert.Equal(t, 0, host.CallCount())
}

func TestDirectStrategyExitCode(t *testing.T) {
	host := mocks.NewMockExecutor()
	host.ExitWith("copilot", 2)

	err := NewExecutor(NewDirectStrategy(host, lookPathFor("gh")), nil).
		Execute(context.Background(), testOptions(t, config.AgentCopilot))
	require.Error(t, err)
	assert.Equal(t, "AI agent execution failed with exit code 2", err.Error())
}

func TestNewStrategyDefaultsToContainer(t *testing.T) {
	assert.Equal(t, "container", NewStrategy(config.ModeContainer, nil, nil).Name())
	assert.Equal(t, "direct", NewStrategy(config.ModeDirect, nil, nil).Name())
}
