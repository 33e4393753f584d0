// Package editor resolves the user's editor command and runs it on a file.
package editor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/kballard/go-shellquote"
	"golang.org/x/term"
)

// EnvVar names the environment variable holding the preferred editor.
const EnvVar = "EDITOR"

// Command is an editor program plus the arguments that precede the file path.
type Command struct {
	Program string
	Args    []string
}

// String renders the command with shell quoting, for display.
func (c Command) String() string {
	return shellquote.Join(append([]string{c.Program}, c.Args...)...)
}

// IsZero reports whether no program is set.
func (c Command) IsZero() bool {
	return c.Program == ""
}

// Parse splits value into a program and arguments using shell word rules.
// No shell is involved in running the result.
func Parse(value string) (Command, error) {
	words, err := shellquote.Split(value)
	if err != nil {
		return Command{}, fmt.Errorf("parse editor command %q: %w", value, err)
	}
	if len(words) == 0 {
		return Command{}, fmt.Errorf("editor command is empty")
	}
	return Command{Program: words[0], Args: words[1:]}, nil
}

// Default returns the platform's fallback editor.
func Default() Command {
	return Command{Program: defaultProgram}
}

// Resolve picks the editor command to run. An explicit override wins, then the
// configured command, then $EDITOR, then the platform default. It never fails:
// an $EDITOR value that cannot be split is used verbatim as the program name.
func Resolve(override, configured *Command, getenv func(string) string) Command {
	if override != nil && !override.IsZero() {
		return *override
	}
	if configured != nil && !configured.IsZero() {
		return *configured
	}

	if getenv == nil {
		getenv = os.Getenv
	}
	if value := strings.TrimSpace(getenv(EnvVar)); value != "" {
		if cmd, err := Parse(value); err == nil {
			return cmd
		}
		return Command{Program: value}
	}

	return Default()
}

// Runner launches an editor on a file and blocks until it exits.
type Runner interface {
	Run(cmd Command, path string) error
}

// ExitError reports an editor that exited with a non-zero or abnormal status.
type ExitError struct {
	Command Command
	// Code is the exit status, or -1 when the process was killed by a signal.
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("editor exited with status %d", e.Code)
}

// ExitCode returns the editor's exit status.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// NotFoundError reports an editor program that could not be started.
type NotFoundError struct {
	Command Command
	Err     error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("failed to run editor %s: %v", e.Command.Program, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// ExecRunner runs editors as child processes. Nil streams are inherited from
// the current process so the editor can draw in the controlling terminal.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts cmd with path as its final argument and waits for it to exit.
func (r ExecRunner) Run(cmd Command, path string) error {
	args := append(slices.Clone(cmd.Args), path)
	proc := exec.Command(cmd.Program, args...)
	if proc.Err != nil {
		return &NotFoundError{Command: cmd, Err: proc.Err}
	}

	proc.Stdin = r.Stdin
	if proc.Stdin == nil {
		proc.Stdin = os.Stdin
	}
	proc.Stdout = r.Stdout
	if proc.Stdout == nil {
		proc.Stdout = os.Stdout
	}
	proc.Stderr = r.Stderr
	if proc.Stderr == nil {
		proc.Stderr = os.Stderr
	}

	if err := proc.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Command: cmd, Code: exitErr.ExitCode()}
		}
		return &NotFoundError{Command: cmd, Err: err}
	}

	return nil
}

// IsInteractive returns true if stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
