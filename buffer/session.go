// Package buffer opens text in the user's editor and captures the result.
//
// A Session describes one edit: where the initial text comes from, whether
// the editor works on a scratch copy or on the file itself, and which editor
// to launch. Execute runs the editor synchronously, reads the result back,
// and removes any scratch file on every return path.
package buffer

import (
	"os"
	"slices"
	"time"

	"github.com/amonks/scrawl/internal/editor"
	"github.com/amonks/scrawl/internal/tempfile"
)

// Command is an editor program plus the arguments that precede the file path.
type Command = editor.Command

// Runner launches an editor on a file and blocks until it exits.
type Runner = editor.Runner

// Outcome is the result of a successful session.
type Outcome struct {
	// Text is the edited buffer. It is empty for in-place sessions.
	Text string

	// Edited is true for in-place sessions, where the file holds the result.
	Edited bool

	// Path is the file the editor was pointed at. For temporary sessions it
	// no longer exists.
	Path string

	// CleanupErr is set when the scratch file could not be removed. The edit
	// itself still succeeded.
	CleanupErr error
}

// disposeScratch removes a session's scratch file.
var disposeScratch = (*tempfile.File).Dispose

// Session configures a single edit. Build one with New and the chained
// setters; a session can be executed once.
type Session struct {
	source    Source
	mode      Mode
	override  *Command
	rawEditor *string
	fallback  *Command
	scratch   tempfile.Options
	runner    Runner
	logger    Logger
	getenv    func(string) string
	used      bool
}

// New returns a session for an empty buffer in temporary mode.
func New() *Session {
	return &Session{
		source: Empty(),
		mode:   Temporary,
		runner: editor.ExecRunner{},
		logger: noopLogger{},
		getenv: os.Getenv,
	}
}

// Source sets the buffer's initial content.
func (s *Session) Source(source Source) *Session {
	s.source = source
	return s
}

// Contents starts the buffer with text.
func (s *Session) Contents(text string) *Session {
	return s.Source(Text(text))
}

// File starts the buffer with the contents of the file at path.
func (s *Session) File(path string) *Session {
	return s.Source(File(path))
}

// InPlace points the editor at the source file itself instead of a copy.
func (s *Session) InPlace() *Session {
	s.mode = InPlace
	return s
}

// Editor overrides the editor command.
func (s *Session) Editor(program string, args ...string) *Session {
	s.override = &Command{Program: program, Args: slices.Clone(args)}
	s.rawEditor = nil
	return s
}

// EditorString overrides the editor command with a string split by shell
// word rules. A string that cannot be split fails Execute with a
// ConfigurationError.
func (s *Session) EditorString(command string) *Session {
	s.rawEditor = &command
	s.override = nil
	return s
}

// FallbackEditor sets the editor used when there is no override. Unlike an
// override it takes precedence over $EDITOR but not over Editor or
// EditorString.
func (s *Session) FallbackEditor(program string, args ...string) *Session {
	if program == "" {
		s.fallback = nil
		return s
	}
	s.fallback = &Command{Program: program, Args: slices.Clone(args)}
	return s
}

// Extension sets the scratch file extension, e.g. ".md".
func (s *Session) Extension(ext string) *Session {
	s.scratch.Extension = ext
	return s
}

// Dir sets the directory scratch files are created in.
func (s *Session) Dir(dir string) *Session {
	s.scratch.Dir = dir
	return s
}

// Runner replaces the process runner.
func (s *Session) Runner(runner Runner) *Session {
	if runner == nil {
		runner = editor.ExecRunner{}
	}
	s.runner = runner
	return s
}

// Logger sets the session's event logger.
func (s *Session) Logger(logger Logger) *Session {
	if logger == nil {
		logger = noopLogger{}
	}
	s.logger = logger
	return s
}

// Getenv replaces the environment lookup used to find $EDITOR.
func (s *Session) Getenv(getenv func(string) string) *Session {
	if getenv == nil {
		getenv = os.Getenv
	}
	s.getenv = getenv
	return s
}

// Open executes the session and returns the edited text. An in-place session
// is rejected and cannot be executed afterwards.
func (s *Session) Open() (string, error) {
	if s.mode == InPlace {
		s.used = true
		return "", &ConfigurationError{Reason: "in-place sessions produce no text; use Edit"}
	}
	outcome, err := s.Execute()
	if err != nil {
		return "", err
	}
	return outcome.Text, nil
}

// Edit executes the session in place, leaving the result in the source file.
func (s *Session) Edit() error {
	s.mode = InPlace
	_, err := s.Execute()
	return err
}

// Execute launches the editor, waits for it to exit, and reads back the
// result. Any scratch file is removed before Execute returns.
func (s *Session) Execute() (outcome Outcome, err error) {
	if s.used {
		return Outcome{}, &ConfigurationError{Reason: "a session can only be executed once", Err: ErrSessionUsed}
	}
	s.used = true

	if err := s.validate(); err != nil {
		return Outcome{}, err
	}

	cmd, err := s.resolveEditor()
	if err != nil {
		return Outcome{}, err
	}

	target, scratch, err := s.resolveTarget()
	if err != nil {
		return Outcome{}, err
	}
	if scratch != nil {
		defer func() {
			cleanupErr := disposeScratch(scratch)
			if cleanupErr == nil {
				return
			}
			cleanupErr = fileError("remove", scratch.Path(), cleanupErr)
			s.logger.Warn(WarnLog{Message: "Could not remove scratch file:", Path: scratch.Path(), Err: cleanupErr})
			if err == nil {
				outcome.CleanupErr = cleanupErr
			}
		}()
	}

	s.logger.Launch(LaunchLog{Command: cmd, Path: target, Mode: s.mode})
	started := time.Now()
	runErr := s.runner.Run(cmd, target)
	s.logger.Finish(FinishLog{Command: cmd, Path: target, Err: runErr, Duration: time.Since(started)})
	if runErr != nil {
		return Outcome{}, runnerError(cmd, runErr)
	}

	if scratch == nil {
		if _, err := tempfile.ReadText(target); err != nil {
			return Outcome{}, fileError("read", target, err)
		}
		return Outcome{Edited: true, Path: target}, nil
	}

	text, err := scratch.Read()
	if err != nil {
		return Outcome{}, fileError("read", target, err)
	}
	return Outcome{Text: text, Path: target}, nil
}

func (s *Session) validate() error {
	if s.source.Kind == SourceFile && s.source.Path == "" {
		return &ConfigurationError{Reason: "file source requires a path"}
	}
	if s.mode == InPlace && s.source.Kind != SourceFile {
		return &ConfigurationError{Reason: "in-place editing requires an existing file, got " + s.source.Kind.String() + " source"}
	}
	return nil
}

func (s *Session) resolveEditor() (Command, error) {
	override := s.override
	if s.rawEditor != nil {
		cmd, err := editor.Parse(*s.rawEditor)
		if err != nil {
			return Command{}, &ConfigurationError{Reason: "editor command", Err: err}
		}
		override = &cmd
	}
	return editor.Resolve(override, s.fallback, s.getenv), nil
}

// resolveTarget returns the path to hand to the editor, and the scratch file
// backing it when the session is not in place.
func (s *Session) resolveTarget() (string, *tempfile.File, error) {
	switch {
	case s.mode == InPlace:
		info, err := os.Stat(s.source.Path)
		if err != nil {
			return "", nil, fileError("stat", s.source.Path, err)
		}
		if info.IsDir() {
			return "", nil, &IOError{Op: "open", Path: s.source.Path, Err: errIsDirectory}
		}
		return s.source.Path, nil, nil

	case s.source.Kind == SourceFile:
		f, err := tempfile.CreateFromFile(s.scratch, s.source.Path)
		if err != nil {
			return "", nil, fileError("copy", s.source.Path, err)
		}
		return f.Path(), f, nil

	case s.source.Kind == SourceText:
		text := s.source.Text
		f, err := tempfile.Create(s.scratch, &text)
		if err != nil {
			return "", nil, fileError("create", s.scratch.Dir, err)
		}
		return f.Path(), f, nil

	default:
		f, err := tempfile.Create(s.scratch, nil)
		if err != nil {
			return "", nil, fileError("create", s.scratch.Dir, err)
		}
		return f.Path(), f, nil
	}
}
