// Package pipeline emits Azure Pipelines logging commands
// (##vso[...] lines) that report task results, warnings and output
// variables to the agent. On an interactive terminal the same events are
// rendered as coloured text instead.
package pipeline

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Result is a task completion result.
type Result string

// Task results.
const (
	Succeeded Result = "Succeeded"
	Failed    Result = "Failed"
)

// Commands writes logging commands to a single writer.
type Commands struct {
	w   io.Writer
	tty bool
	mu  sync.Mutex
}

// New creates a Commands writing to w. When tty is true events are rendered
// for a human instead of the pipeline agent.
func New(w io.Writer, tty bool) *Commands {
	return &Commands{w: w, tty: tty}
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

var (
	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Complete sets the task result. It should be the last command emitted.
func (c *Commands) Complete(result Result, message string) {
	if c.tty {
		if result == Succeeded {
			c.println(green("✔ ") + message)
		} else {
			c.println(red("✖ ") + message)
		}
		return
	}
	c.println(fmt.Sprintf("##vso[task.complete result=%s;]%s", result, escapeData(message)))
}

// SetOutputVariable publishes name as an output variable of the step.
func (c *Commands) SetOutputVariable(name, value string) {
	if c.tty {
		c.println(cyan(name) + " = " + value)
		return
	}
	c.println(fmt.Sprintf("##vso[task.setvariable variable=%s;isOutput=true]%s", escapeProperty(name), escapeData(value)))
}

// Warning reports a non-fatal issue on the run summary.
func (c *Commands) Warning(message string) {
	if c.tty {
		c.println(yellow("WARNING: ") + message)
		return
	}
	c.println("##vso[task.logissue type=warning]" + escapeData(message))
}

// Error reports an error issue on the run summary without failing the task.
func (c *Commands) Error(message string) {
	if c.tty {
		c.println(red("ERROR: ") + message)
		return
	}
	c.println("##vso[task.logissue type=error]" + escapeData(message))
}

// SetSecret registers value to be masked in the pipeline log.
func (c *Commands) SetSecret(value string) {
	if value == "" || c.tty {
		return
	}
	c.println("##vso[task.setsecret]" + escapeData(value))
}

// Section starts a collapsible log section.
func (c *Commands) Section(name string) {
	if c.tty {
		c.println(bold("== " + name + " =="))
		return
	}
	c.println("##[section]" + name)
}

func (c *Commands) println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, line)
}

// escapeData escapes a command's message part.
func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%AZP25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}

// escapeProperty escapes a command property value.
func escapeProperty(s string) string {
	s = escapeData(s)
	s = strings.ReplaceAll(s, "]", "%5D")
	return strings.ReplaceAll(s, ";", "%3B")
}
