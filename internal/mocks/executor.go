package mocks

import (
	"context"
	"strings"
	"sync"

	"autocoder/pkg/exec"
)

// ExecCall records the parameters of an Executor.Run call.
type ExecCall struct {
	Cmd  []string
	Opts exec.Opts
}

// Args returns the command line without the binary, joined by spaces.
func (c ExecCall) Args() string {
	if len(c.Cmd) < 2 {
		return ""
	}
	return strings.Join(c.Cmd[1:], " ")
}

type response struct {
	prefix string
	result exec.Result
	err    error
}

// MockExecutor implements exec.Executor for testing.
//
// Responses are matched by prefix against the arguments that follow the
// binary ("add -A", "config user.name"). The first registered match wins;
// unmatched commands succeed with empty output.
type MockExecutor struct {
	// RunFunc, when set, replaces prefix matching entirely.
	RunFunc func(ctx context.Context, cmd []string, opts *exec.Opts) (exec.Result, error)

	// Calls tracks all calls to Run for verification.
	Calls []ExecCall

	responses []response

	// mu protects call tracking and responses
	mu sync.Mutex
}

// NewMockExecutor creates a new mock executor with default behavior.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{}
}

// Run implements exec.Executor.
func (m *MockExecutor) Run(ctx context.Context, cmd []string, opts *exec.Opts) (exec.Result, error) {
	call := ExecCall{Cmd: append([]string(nil), cmd...)}
	if opts != nil {
		call.Opts = *opts
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	fn := m.RunFunc
	responses := m.responses
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, cmd, opts)
	}

	args := call.Args()
	for _, r := range responses {
		if strings.HasPrefix(args, r.prefix) {
			return r.result, r.err
		}
	}
	return exec.Result{ExecutorUsed: exec.ExecutorTypeLocal}, nil
}

// --- Configuration methods ---

// OnRun sets a custom handler for Run calls.
func (m *MockExecutor) OnRun(fn func(ctx context.Context, cmd []string, opts *exec.Opts) (exec.Result, error)) {
	m.mu.Lock()
	m.RunFunc = fn
	m.mu.Unlock()
}

// RespondTo configures the result for commands whose arguments start with prefix.
func (m *MockExecutor) RespondTo(prefix string, result exec.Result) {
	m.mu.Lock()
	m.responses = append(m.responses, response{prefix: prefix, result: result})
	m.mu.Unlock()
}

// ExitWith configures commands matching prefix to exit with code.
func (m *MockExecutor) ExitWith(prefix string, code int) {
	m.RespondTo(prefix, exec.Result{ExitCode: code, Stderr: "mock failure"})
}

// FailWith configures commands matching prefix to fail to start.
func (m *MockExecutor) FailWith(prefix string, err error) {
	m.mu.Lock()
	m.responses = append(m.responses, response{prefix: prefix, result: exec.Result{ExitCode: -1}, err: err})
	m.mu.Unlock()
}

// --- Verification helpers ---

// Reset clears all recorded calls and configured responses.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.responses = nil
	m.RunFunc = nil
}

// CallCount returns the number of times Run was called.
func (m *MockExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent Run call, or nil if none.
func (m *MockExecutor) LastCall() *ExecCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	c := m.Calls[len(m.Calls)-1]
	return &c
}

// WasCalled returns true if Run was called with arguments starting with prefix.
func (m *MockExecutor) WasCalled(prefix string) bool {
	return len(m.CallsFor(prefix)) > 0
}

// CallsFor returns all Run calls whose arguments start with prefix.
func (m *MockExecutor) CallsFor(prefix string) []ExecCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var calls []ExecCall
	for _, call := range m.Calls {
		if strings.HasPrefix(call.Args(), prefix) {
			calls = append(calls, call)
		}
	}
	return calls
}

// CommandLines returns the argument strings of every call, in order.
func (m *MockExecutor) CommandLines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]string, 0, len(m.Calls))
	for _, call := range m.Calls {
		lines = append(lines, call.Args())
	}
	return lines
}
