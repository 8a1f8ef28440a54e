// Package git provides the source control gateway: the handful of git
// operations an Autocoder run performs against the pipeline's clone.
package git

import (
	"context"
	"io"
	"strings"

	"autocoder/pkg/exec"
	"autocoder/pkg/logx"
	"autocoder/pkg/taskerr"
)

const binGit = "git"

// Gateway runs git against a single working tree. The git binary is
// located once, at construction.
type Gateway struct {
	runner  exec.Executor
	gitPath string
	dir     string
	stream  io.Writer
	logger  *logx.Logger

	identityConfigured bool
}

// New creates a Gateway for the repository at dir. It fails with a
// configuration error when git cannot be found.
func New(runner exec.Executor, dir string, lookPath exec.LookPathFunc) (*Gateway, error) {
	gitPath, err := lookPath(binGit)
	if err != nil || gitPath == "" {
		return nil, taskerr.Configuration("Unable to locate the git executable on PATH")
	}
	return &Gateway{
		runner:  runner,
		gitPath: gitPath,
		dir:     dir,
		logger:  logx.NewLogger("git"),
	}, nil
}

// StreamTo sends git's output to w as it runs, in addition to capturing it.
func (g *Gateway) StreamTo(w io.Writer) *Gateway {
	g.stream = w
	return g
}

// FetchBranch fetches branch from origin. Failures are ignored: the fetch
// only primes the clone before an explicit checkout.
func (g *Gateway) FetchBranch(ctx context.Context, branch string) error {
	g.logger.Debug("Fetching branch %s from origin", branch)

	res, err := g.run(ctx, true, "fetch", "origin", branch)
	if err != nil {
		g.logger.Debug("Fetch of %s could not run: %v", branch, err)
		return nil
	}
	if !res.Success() {
		g.logger.Debug("Fetch of %s exited with %d, continuing", branch, res.ExitCode)
	}
	return nil
}

// CheckoutBranch checks out branch.
func (g *Gateway) CheckoutBranch(ctx context.Context, branch string) error {
	g.logger.Debug("Checking out branch %s", branch)

	if err := g.mustRun(ctx, "checkout", "checkout", branch); err != nil {
		return taskerr.Wrap(err, "Failed to checkout branch %s. Make sure you add a checkout step in your pipeline before running this task.", branch)
	}
	return nil
}

// HeadCommit returns the commit hash HEAD points at.
func (g *Gateway) HeadCommit(ctx context.Context) (string, error) {
	res, err := g.run(ctx, false, "rev-parse", "HEAD")
	if err != nil {
		return "", taskerr.Wrap(err, "Failed to read HEAD commit")
	}
	if !res.Success() {
		return "", taskerr.ExecutionExit("rev-parse", res.ExitCode, "Failed to read HEAD commit (exit code %d)", res.ExitCode)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// HasChanges stages every working-tree modification and reports whether
// the staged diff is non-empty. Staging is a side effect; repeated calls
// are safe.
func (g *Gateway) HasChanges(ctx context.Context) (bool, error) {
	if err := g.mustRun(ctx, "add", "add", "-A"); err != nil {
		return false, taskerr.Wrap(err, "Failed to stage changes")
	}

	// diff --quiet exits 0 when there is nothing staged and 1 when there is.
	res, err := g.run(ctx, false, "diff", "--cached", "--quiet")
	if err != nil {
		return false, taskerr.Wrap(err, "Failed to inspect staged changes")
	}
	switch res.ExitCode {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, taskerr.ExecutionExit("diff", res.ExitCode, "Failed to inspect staged changes (exit code %d)", res.ExitCode)
	}
}

// CommitChanges commits the staged changes with message, configuring a
// committer identity first if the clone has none.
func (g *Gateway) CommitChanges(ctx context.Context, message string) error {
	g.logger.Debug("Committing changes with message: %s", message)

	if err := g.ensureIdentity(ctx); err != nil {
		return err
	}
	if err := g.mustRun(ctx, "commit", "commit", "-m", message); err != nil {
		return taskerr.Wrap(err, "Failed to commit changes")
	}
	return nil
}

// PullBranch pulls branch from origin into the current checkout.
func (g *Gateway) PullBranch(ctx context.Context, branch string) error {
	g.logger.Debug("Pulling latest changes for branch %s", branch)

	if err := g.mustRun(ctx, "pull", "pull", "origin", branch); err != nil {
		return taskerr.Wrap(err, "Failed to pull branch %s", branch)
	}
	return nil
}

// PushBranch pushes branch to origin.
func (g *Gateway) PushBranch(ctx context.Context, branch string) error {
	g.logger.Debug("Pushing branch %s to origin", branch)

	if err := g.mustRun(ctx, "push", "push", "origin", branch); err != nil {
		return taskerr.Wrap(err, "Failed to push branch %s", branch)
	}
	return nil
}

// run executes git with args in the gateway's directory. Output is
// streamed only when stream is true.
func (g *Gateway) run(ctx context.Context, stream bool, args ...string) (exec.Result, error) {
	opts := &exec.Opts{WorkDir: g.dir}
	if stream && g.stream != nil {
		opts.Stdout = g.stream
		opts.Stderr = g.stream
	}

	cmd := append([]string{g.gitPath}, args...)
	res, err := g.runner.Run(ctx, cmd, opts)
	if err != nil {
		g.logger.Error("git %s could not run: %v", strings.Join(args, " "), err)
		return res, taskerr.Execution(args[0], "git %s could not run: %v", args[0], err)
	}
	return res, nil
}

// mustRun executes git and turns a non-zero exit into an execution error
// for op.
func (g *Gateway) mustRun(ctx context.Context, op string, args ...string) error {
	res, err := g.run(ctx, true, args...)
	if err != nil {
		return err
	}
	if !res.Success() {
		g.logger.Debug("git %s output: %s%s", strings.Join(args, " "), res.Stdout, res.Stderr)
		return taskerr.ExecutionExit(op, res.ExitCode, "git %s exited with code %d", op, res.ExitCode)
	}
	return nil
}
