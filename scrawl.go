// Package scrawl opens text in the user's preferred editor and returns what
// they wrote.
//
// The editor is chosen from, in order: the [editor] command in scrawl.toml
// (in the working directory) or ~/.config/scrawl/config.toml, then $EDITOR,
// then vi (notepad on windows). A configured command wins over $EDITOR; a
// session built with buffer.New skips the config file and goes straight to
// $EDITOR. Use package buffer directly for finer control.
package scrawl

import (
	"github.com/amonks/scrawl/buffer"
	"github.com/amonks/scrawl/internal/config"
	"github.com/amonks/scrawl/internal/paths"
)

// NewSession returns a buffer session with the user's configuration applied.
func NewSession() (*buffer.Session, error) {
	dir, err := paths.WorkingDir()
	if err != nil {
		return nil, &buffer.ConfigurationError{Reason: "load config", Err: err}
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, &buffer.ConfigurationError{Reason: "load config", Err: err}
	}

	session := buffer.New().
		Extension(cfg.Buffer.Extension).
		Dir(cfg.Buffer.Dir)
	cmd, ok, err := cfg.EditorCommand()
	if err != nil {
		return nil, &buffer.ConfigurationError{Reason: "load config", Err: err}
	}
	if ok {
		session.FallbackEditor(cmd.Program, cmd.Args...)
	}
	return session, nil
}

// New opens an empty buffer and returns its contents once the editor exits.
func New() (string, error) {
	session, err := NewSession()
	if err != nil {
		return "", err
	}
	return session.Open()
}

// With opens a buffer holding content and returns the edited text.
func With(content string) (string, error) {
	session, err := NewSession()
	if err != nil {
		return "", err
	}
	return session.Contents(content).Open()
}

// Open opens a copy of the file at path and returns the edited text. The
// file itself is not modified.
func Open(path string) (string, error) {
	session, err := NewSession()
	if err != nil {
		return "", err
	}
	return session.File(path).Open()
}

// Edit opens the file at path in the editor and saves changes to it directly.
func Edit(path string) error {
	session, err := NewSession()
	if err != nil {
		return err
	}
	return session.File(path).Edit()
}
