package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amonks/scrawl"
	"github.com/amonks/scrawl/buffer"
	"github.com/amonks/scrawl/internal/editor"
	"github.com/amonks/scrawl/internal/markdown"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Open an empty buffer and print what you write",
	Args:  cobra.NoArgs,
	RunE:  runNew,
}

var withCmd = &cobra.Command{
	Use:   "with [text]",
	Short: "Open a buffer holding text (or piped stdin) and print the result",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWith,
}

var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Open a copy of a file and print the result; the file is not changed",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

var editCmd = &cobra.Command{
	Use:   "edit <path>",
	Short: "Edit a file in place",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

func init() {
	rootCmd.AddCommand(newCmd, withCmd, openCmd, editCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	session, err := newSession(cmd, nil)
	if err != nil {
		return err
	}
	return execute(cmd, session)
}

func runWith(cmd *cobra.Command, args []string) error {
	var content string
	piped := false
	switch {
	case len(args) > 0:
		content = args[0]
	case !editor.IsInteractive():
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		content = string(data)
		piped = true
	default:
		return fmt.Errorf("provide text as an argument or pipe it on stdin")
	}

	// Stdin is spent, so give the editor the controlling terminal if there is one.
	var editorStdin io.Reader
	if piped {
		if tty, err := os.Open("/dev/tty"); err == nil {
			defer tty.Close()
			editorStdin = tty
		}
	}

	session, err := newSession(cmd, editorStdin)
	if err != nil {
		return err
	}
	return execute(cmd, session.Contents(content))
}

func runOpen(cmd *cobra.Command, args []string) error {
	session, err := newSession(cmd, nil)
	if err != nil {
		return err
	}
	return execute(cmd, session.File(args[0]))
}

func runEdit(cmd *cobra.Command, args []string) error {
	session, err := newSession(cmd, nil)
	if err != nil {
		return err
	}
	return session.File(args[0]).Edit()
}

// newSession builds a session from config and flags. A nil stdin lets the
// editor inherit the process's stdin.
func newSession(cmd *cobra.Command, stdin io.Reader) (*buffer.Session, error) {
	session, err := scrawl.NewSession()
	if err != nil {
		return nil, err
	}

	if editorFlag != "" {
		session.EditorString(editorFlag)
	}
	if cmd.Flags().Changed("extension") {
		session.Extension(extensionFlag)
	}
	if cmd.Flags().Changed("dir") {
		session.Dir(dirFlag)
	}

	// Captured text goes to stdout, so editor chatter goes to stderr unless
	// stdout is the terminal the editor draws on.
	runner := editor.ExecRunner{Stdin: stdin, Stdout: cmd.ErrOrStderr()}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		runner.Stdout = os.Stdout
	}

	return session.
		Runner(runner).
		Logger(buffer.NewConsoleLogger(cmd.ErrOrStderr(), verboseFlag)), nil
}

func execute(cmd *cobra.Command, session *buffer.Session) error {
	outcome, err := session.Execute()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if markdownFlag && term.IsTerminal(int(os.Stdout.Fd())) {
		width, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || width <= 0 {
			width = 80
		}
		rendered := markdown.SafeRender(width, 0, []byte(outcome.Text))
		_, err = fmt.Fprintln(out, strings.TrimRight(string(rendered), "\n"))
		return err
	}

	_, err = fmt.Fprint(out, outcome.Text)
	return err
}
