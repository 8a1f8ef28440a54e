// Package mocks provides shared mock implementations for testing.
//
// # Usage
//
//	import "autocoder/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    runner := mocks.NewMockExecutor()
//	    runner.RespondTo("rev-parse HEAD", exec.Result{Stdout: "abc123\n"})
//	    runner.ExitWith("push", 128)
//	    // Use runner wherever an exec.Executor is expected...
//	}
//
// # Available Mocks
//
//   - MockExecutor: Mock for pkg/exec.Executor (git, docker and agent CLIs)
package mocks
