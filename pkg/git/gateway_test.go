package git

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocoder/internal/mocks"
	"autocoder/pkg/exec"
	"autocoder/pkg/taskerr"
)

func fakeLookPath(string) (string, error) { return "/usr/bin/git", nil }

func newMockGateway(t *testing.T) (*Gateway, *mocks.MockExecutor) {
	t.Helper()
	m := mocks.NewMockExecutor()
	g, err := New(m, "/work", fakeLookPath)
	require.NoError(t, err)
	return g, m
}

func TestNewRequiresGit(t *testing.T) {
	_, err := New(mocks.NewMockExecutor(), "/work", func(string) (string, error) {
		return "", errors.New("not found")
	})
	require.Error(t, err)
	assert.True(t, taskerr.IsKind(err, taskerr.KindConfiguration))
}

func TestFetchBranchIgnoresFailure(t *testing.T) {
	g, m := newMockGateway(t)
	m.ExitWith("fetch", 128)

	require.NoError(t, g.FetchBranch(context.Background(), "feature/x"))
	assert.Equal(t, []string{"fetch origin feature/x"}, m.CommandLines())

	m.Reset()
	m.FailWith("fetch", errors.New("boom"))
	assert.NoError(t, g.FetchBranch(context.Background(), "feature/x"))
}

func TestCheckoutBranchFailure(t *testing.T) {
	g, m := newMockGateway(t)
	m.ExitWith("checkout", 1)

	err := g.CheckoutBranch(context.Background(), "feature/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to checkout branch feature/x. Make sure you add a checkout step")
	assert.True(t, taskerr.IsKind(err, taskerr.KindExecution))
}

func TestCommandsRunInWorkDir(t *testing.T) {
	g, m := newMockGateway(t)
	require.NoError(t, g.CheckoutBranch(context.Background(), "main"))

	call := m.LastCall()
	require.NotNil(t, call)
	assert.Equal(t, "/usr/bin/git", call.Cmd[0])
	assert.Equal(t, "/work", call.Opts.WorkDir)
}

func TestHeadCommit(t *testing.T) {
	g, m := newMockGateway(t)
	m.RespondTo("rev-parse HEAD", exec.Result{Stdout: "abc123\n"})

	head, err := g.HeadCommit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", head)

	m.Reset()
	m.ExitWith("rev-parse", 128)
	_, err = g.HeadCommit(context.Background())
	assert.True(t, taskerr.IsKind(err, taskerr.KindExecution))
}

func TestHasChanges(t *testing.T) {
	tests := []struct {
		name     string
		diffExit int
		want     bool
		wantErr  bool
	}{
		{"clean tree", 0, false, false},
		{"staged changes", 1, true, false},
		{"diff failure", 128, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, m := newMockGateway(t)
			if tt.diffExit != 0 {
				m.ExitWith("diff --cached --quiet", tt.diffExit)
			}

			got, err := g.HasChanges(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{"add -A", "diff --cached --quiet"}, m.CommandLines())
		})
	}
}

func TestHasChangesStageFailure(t *testing.T) {
	g, m := newMockGateway(t)
	m.ExitWith("add", 1)

	_, err := g.HasChanges(context.Background())
	require.Error(t, err)
	assert.False(t, m.WasCalled("diff"))
}

func TestCommitChangesConfiguresMissingIdentity(t *testing.T) {
	g, m := newMockGateway(t)
	// user.name is unset; user.email is present.
	m.RespondTo("config user.name Autocoder Bot", exec.Result{})
	m.ExitWith("config user.name", 1)

	require.NoError(t, g.CommitChanges(context.Background(), "msg"))
	assert.Equal(t, []string{
		"config user.name",
		"config user.name Autocoder Bot",
		"config user.email",
		"commit -m msg",
	}, m.CommandLines())

	// Identity is only checked once per gateway.
	require.NoError(t, g.CommitChanges(context.Background(), "again"))
	assert.Len(t, m.CallsFor("config"), 3)
}

func TestCommitChangesFailure(t *testing.T) {
	g, m := newMockGateway(t)
	m.ExitWith("commit", 1)

	err := g.CommitChanges(context.Background(), "msg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to commit changes")
}

func TestPullAndPushFailuresNameBranch(t *testing.T) {
	g, m := newMockGateway(t)
	m.ExitWith("pull", 1)
	m.ExitWith("push", 1)

	err := g.PullBranch(context.Background(), "dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to pull branch dev")

	err = g.PushBranch(context.Background(), "dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to push branch dev")
}

func TestStreamToReceivesOutput(t *testing.T) {
	g, m := newMockGateway(t)
	var buf bytes.Buffer
	g.StreamTo(&buf)

	require.NoError(t, g.PushBranch(context.Background(), "main"))
	call := m.LastCall()
	require.NotNil(t, call)
	assert.Equal(t, &buf, call.Opts.Stdout)

	// rev-parse output stays out of the task log.
	_, _ = g.HeadCommit(context.Background())
	assert.Nil(t, m.LastCall().Opts.Stdout)
}
