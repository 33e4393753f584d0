package buffer

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/amonks/scrawl/internal/editor"
	"github.com/amonks/scrawl/internal/tempfile"
	"github.com/amonks/scrawl/internal/testsupport"
)

type fakeCall struct {
	cmd  Command
	path string
}

type fakeRunner struct {
	calls []fakeCall
	edit  func(path string) error
}

func (r *fakeRunner) Run(cmd Command, path string) error {
	r.calls = append(r.calls, fakeCall{cmd: cmd, path: path})
	if r.edit != nil {
		return r.edit(path)
	}
	return nil
}

func assertNoScratchFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read scratch dir: %v", err)
	}
	if len(entries) > 0 {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		t.Fatalf("expected no scratch files, found %v", names)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestExecute_ContentsWithEditorStub(t *testing.T) {
	scratch := t.TempDir()
	stub := testsupport.WriteEditorStub(t, t.TempDir(), "append", testsupport.AppendEdited)

	outcome, err := New().Contents("Hello World!").Editor(stub).Dir(scratch).Execute()
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if outcome.Text != "Hello World! edited" {
		t.Errorf("expected %q, got %q", "Hello World! edited", outcome.Text)
	}
	if outcome.Edited {
		t.Error("temporary sessions should not report Edited")
	}
	if filepath.Dir(outcome.Path) != scratch {
		t.Errorf("expected scratch file in %s, got %s", scratch, outcome.Path)
	}
	assertNoScratchFiles(t, scratch)
}

func TestExecute_EmptyBuffer(t *testing.T) {
	scratch := t.TempDir()
	runner := &fakeRunner{edit: func(path string) error {
		if got := readFile(t, path); got != "" {
			t.Errorf("expected empty buffer, got %q", got)
		}
		return os.WriteFile(path, []byte("a note"), 0o600)
	}}

	text, err := New().Runner(runner).Dir(scratch).Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if text != "a note" {
		t.Errorf("expected %q, got %q", "a note", text)
	}
	assertNoScratchFiles(t, scratch)
}

func TestExecute_FileTemporaryLeavesSourceUntouched(t *testing.T) {
	scratch := t.TempDir()
	source := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, source, "abc")
	stub := testsupport.WriteEditorStub(t, t.TempDir(), "overwrite", testsupport.OverwriteXYZ)

	outcome, err := New().File(source).Editor(stub).Dir(scratch).Execute()
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if outcome.Text != "xyz" {
		t.Errorf("expected %q, got %q", "xyz", outcome.Text)
	}
	if outcome.Path == source {
		t.Error("temporary session should not edit the source path")
	}
	if got := readFile(t, source); got != "abc" {
		t.Errorf("expected source to stay %q, got %q", "abc", got)
	}
	assertNoScratchFiles(t, scratch)
}

func TestExecute_FileTemporaryLeavesSourceUntouchedOnFailure(t *testing.T) {
	scratch := t.TempDir()
	source := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, source, "abc")
	stub := testsupport.WriteEditorStub(t, t.TempDir(), "overwrite-fail", testsupport.OverwriteXYZ+"\nexit 1")

	if _, err := New().File(source).Editor(stub).Dir(scratch).Execute(); !errors.Is(err, ErrEditorExit) {
		t.Fatalf("expected editor exit error, got %v", err)
	}
	if got := readFile(t, source); got != "abc" {
		t.Errorf("expected source to stay %q, got %q", "abc", got)
	}
	assertNoScratchFiles(t, scratch)
}

func TestExecute_InPlace(t *testing.T) {
	scratch := t.TempDir()
	source := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, source, "abc")
	stub := testsupport.WriteEditorStub(t, t.TempDir(), "overwrite", testsupport.OverwriteXYZ)

	outcome, err := New().File(source).InPlace().Editor(stub).Dir(scratch).Execute()
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !outcome.Edited {
		t.Error("expected in-place outcome to report Edited")
	}
	if outcome.Text != "" {
		t.Errorf("expected no text for in-place edit, got %q", outcome.Text)
	}
	if outcome.Path != source {
		t.Errorf("expected editor to receive %s, got %s", source, outcome.Path)
	}
	if got := readFile(t, source); got != "xyz" {
		t.Errorf("expected source to become %q, got %q", "xyz", got)
	}
	assertNoScratchFiles(t, scratch)
}

func TestEdit(t *testing.T) {
	source := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, source, "abc")
	runner := &fakeRunner{edit: func(path string) error {
		return os.WriteFile(path, []byte("xyz"), 0o644)
	}}

	if err := New().File(source).Runner(runner).Edit(); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if len(runner.calls) != 1 || runner.calls[0].path != source {
		t.Fatalf("expected one call on %s, got %+v", source, runner.calls)
	}
	if got := readFile(t, source); got != "xyz" {
		t.Errorf("expected %q, got %q", "xyz", got)
	}
}

func TestExecute_InPlaceRequiresFileSource(t *testing.T) {
	tests := []struct {
		name   string
		source Source
	}{
		{name: "empty", source: Empty()},
		{name: "text", source: Text("Hello World!")},
		{name: "empty text", source: Text("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scratch := t.TempDir()
			runner := &fakeRunner{}

			_, err := New().Source(tt.source).InPlace().Runner(runner).Dir(scratch).Execute()

			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigurationError, got %v", err)
			}
			if !errors.Is(err, ErrConfiguration) || Kind(err) != KindConfiguration {
				t.Errorf("expected configuration kind, got %v", Kind(err))
			}
			if len(runner.calls) != 0 {
				t.Errorf("expected no editor launch, got %d", len(runner.calls))
			}
			assertNoScratchFiles(t, scratch)
		})
	}
}

func TestExecute_FileSourceRequiresPath(t *testing.T) {
	runner := &fakeRunner{}
	_, err := New().File("").Runner(runner).Execute()
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("expected no editor launch, got %d", len(runner.calls))
	}
}

func TestOpen_RejectsInPlace(t *testing.T) {
	source := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, source, "abc")
	runner := &fakeRunner{}

	_, err := New().File(source).InPlace().Runner(runner).Open()
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("expected no editor launch, got %d", len(runner.calls))
	}
}

func TestExecute_EditorExitError(t *testing.T) {
	source := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, source, "abc")
	stub := testsupport.WriteEditorStub(t, t.TempDir(), "fail", testsupport.ExitOne)

	tests := []struct {
		name    string
		session func() *Session
	}{
		{name: "empty", session: func() *Session { return New() }},
		{name: "text", session: func() *Session { return New().Contents("Hello World!") }},
		{name: "file copy", session: func() *Session { return New().File(source) }},
		{name: "in place", session: func() *Session { return New().File(source).InPlace() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scratch := t.TempDir()

			outcome, err := tt.session().Editor(stub).Dir(scratch).Execute()

			var exitErr *EditorExitError
			if !errors.As(err, &exitErr) {
				t.Fatalf("expected *EditorExitError, got %v", err)
			}
			if exitErr.Code != 1 {
				t.Errorf("expected code 1, got %d", exitErr.Code)
			}
			if exitErr.Command.Program != stub {
				t.Errorf("expected command %s, got %s", stub, exitErr.Command.Program)
			}
			if Kind(err) != KindEditorExit {
				t.Errorf("expected editor-exit kind, got %v", Kind(err))
			}
			if outcome != (Outcome{}) {
				t.Errorf("expected zero outcome, got %+v", outcome)
			}
			assertNoScratchFiles(t, scratch)
		})
	}
}

func TestExecute_ExitErrorSkipsReadBack(t *testing.T) {
	scratch := t.TempDir()
	runner := &fakeRunner{edit: func(path string) error {
		if err := os.WriteFile(path, []byte{0xff}, 0o600); err != nil {
			return err
		}
		return &editor.ExitError{Code: 2}
	}}

	_, err := New().Runner(runner).Dir(scratch).Execute()
	if Kind(err) != KindEditorExit {
		t.Fatalf("expected editor exit to win over unread content, got %v", err)
	}
	assertNoScratchFiles(t, scratch)
}

func TestExecute_EditorNotFound(t *testing.T) {
	scratch := t.TempDir()

	_, err := New().Contents("hi").Editor("scrawl-no-such-editor").Dir(scratch).Execute()

	var notFound *EditorNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *EditorNotFoundError, got %v", err)
	}
	if notFound.Command.Program != "scrawl-no-such-editor" {
		t.Errorf("unexpected command %q", notFound.Command.Program)
	}
	if Kind(err) != KindEditorNotFound {
		t.Errorf("expected editor-not-found kind, got %v", Kind(err))
	}
	assertNoScratchFiles(t, scratch)
}

func TestExecute_RunnerFailureIsLaunchFailure(t *testing.T) {
	scratch := t.TempDir()
	boom := errors.New("boom")
	runner := &fakeRunner{edit: func(string) error { return boom }}

	_, err := New().Runner(runner).Dir(scratch).Execute()
	if !errors.Is(err, ErrEditorNotFound) || !errors.Is(err, boom) {
		t.Fatalf("expected launch failure wrapping boom, got %v", err)
	}
	assertNoScratchFiles(t, scratch)
}

func TestExecute_EncodingError(t *testing.T) {
	stub := testsupport.WriteEditorStub(t, t.TempDir(), "binary", testsupport.WriteInvalidUTF8)

	t.Run("temporary", func(t *testing.T) {
		scratch := t.TempDir()
		_, err := New().Editor(stub).Dir(scratch).Execute()

		var encErr *EncodingError
		if !errors.As(err, &encErr) {
			t.Fatalf("expected *EncodingError, got %v", err)
		}
		assertNoScratchFiles(t, scratch)
	})

	t.Run("in place", func(t *testing.T) {
		source := filepath.Join(t.TempDir(), "notes.txt")
		writeFile(t, source, "abc")

		_, err := New().File(source).InPlace().Editor(stub).Execute()
		if Kind(err) != KindEncoding {
			t.Fatalf("expected encoding kind, got %v", err)
		}
	})
}

func TestExecute_MissingSourceFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.txt")

	for _, inPlace := range []bool{false, true} {
		scratch := t.TempDir()
		runner := &fakeRunner{}
		session := New().File(missing).Runner(runner).Dir(scratch)
		if inPlace {
			session.InPlace()
		}

		_, err := session.Execute()

		var ioErr *IOError
		if !errors.As(err, &ioErr) {
			t.Fatalf("inPlace=%v: expected *IOError, got %v", inPlace, err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("inPlace=%v: expected not-exist cause, got %v", inPlace, err)
		}
		if len(runner.calls) != 0 {
			t.Errorf("inPlace=%v: expected no editor launch", inPlace)
		}
		assertNoScratchFiles(t, scratch)
	}
}

func TestExecute_InPlaceDirectory(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}

	_, err := New().File(dir).InPlace().Runner(runner).Execute()
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected io error, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("expected no editor launch")
	}
}

func TestExecute_ScratchDirNotWritable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	runner := &fakeRunner{}

	_, err := New().Contents("hi").Runner(runner).Dir(missing).Execute()
	if Kind(err) != KindIO {
		t.Fatalf("expected io kind, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("expected no editor launch")
	}
}

func TestExecute_NoLeakedScratchFiles(t *testing.T) {
	scratch := t.TempDir()
	stubs := t.TempDir()
	ok := testsupport.WriteEditorStub(t, stubs, "append", testsupport.AppendEdited)
	fail := testsupport.WriteEditorStub(t, stubs, "fail", testsupport.ExitOne)
	binary := testsupport.WriteEditorStub(t, stubs, "binary", testsupport.WriteInvalidUTF8)
	source := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, source, "abc")

	editors := []string{ok, fail, binary, "scrawl-no-such-editor"}
	for i := range 24 {
		session := New().Editor(editors[i%len(editors)]).Dir(scratch)
		switch i % 3 {
		case 0:
			session.Contents("Hello World!")
		case 1:
			session.File(source)
		}
		_, _ = session.Execute()
	}

	assertNoScratchFiles(t, scratch)
	if got := readFile(t, source); got != "abc" {
		t.Errorf("expected source to stay %q, got %q", "abc", got)
	}
}

func TestExecute_OnlyOnce(t *testing.T) {
	runner := &fakeRunner{}
	session := New().Runner(runner).Dir(t.TempDir())

	if _, err := session.Execute(); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	_, err := session.Execute()
	if !errors.Is(err, ErrSessionUsed) || !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrSessionUsed configuration error, got %v", err)
	}
	if len(runner.calls) != 1 {
		t.Errorf("expected one launch, got %d", len(runner.calls))
	}
}

func TestOpen_RejectedInPlaceConsumesSession(t *testing.T) {
	source := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, source, "abc")
	runner := &fakeRunner{}
	session := New().File(source).InPlace().Runner(runner)

	if _, err := session.Open(); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	_, err := session.Execute()
	if !errors.Is(err, ErrSessionUsed) {
		t.Fatalf("expected ErrSessionUsed after rejected Open, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("expected no editor launch, got %d", len(runner.calls))
	}
}

func TestExecute_EditorResolution(t *testing.T) {
	env := func(value string) func(string) string {
		return func(key string) string {
			if key == "EDITOR" {
				return value
			}
			return ""
		}
	}

	tests := []struct {
		name      string
		configure func(*Session)
		want      Command
	}{
		{
			name:      "override beats fallback and env",
			configure: func(s *Session) { s.Editor("hx", "-v").FallbackEditor("nano").Getenv(env("emacs")) },
			want:      Command{Program: "hx", Args: []string{"-v"}},
		},
		{
			name:      "editor string is split",
			configure: func(s *Session) { s.EditorString(`"my editor" --wait`).Getenv(env("emacs")) },
			want:      Command{Program: "my editor", Args: []string{"--wait"}},
		},
		{
			name:      "fallback beats env",
			configure: func(s *Session) { s.FallbackEditor("nano").Getenv(env("emacs")) },
			want:      Command{Program: "nano"},
		},
		{
			name:      "env beats default",
			configure: func(s *Session) { s.Getenv(env("emacs -nw")) },
			want:      Command{Program: "emacs", Args: []string{"-nw"}},
		},
		{
			name:      "default",
			configure: func(s *Session) { s.Getenv(env("")) },
			want:      editor.Default(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			session := New().Runner(runner).Dir(t.TempDir())
			tt.configure(session)

			if _, err := session.Execute(); err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if len(runner.calls) != 1 {
				t.Fatalf("expected one launch, got %d", len(runner.calls))
			}
			got := runner.calls[0].cmd
			if got.Program != tt.want.Program || (len(tt.want.Args) > 0 && !slices.Equal(got.Args, tt.want.Args)) {
				t.Errorf("command = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExecute_InvalidEditorString(t *testing.T) {
	scratch := t.TempDir()
	runner := &fakeRunner{}

	_, err := New().EditorString(`vim "unterminated`).Runner(runner).Dir(scratch).Execute()
	if Kind(err) != KindConfiguration {
		t.Fatalf("expected configuration kind, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("expected no editor launch")
	}
	assertNoScratchFiles(t, scratch)
}

func TestExecute_Extension(t *testing.T) {
	runner := &fakeRunner{}

	if _, err := New().Extension("md").Runner(runner).Dir(t.TempDir()).Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if ext := filepath.Ext(runner.calls[0].path); ext != ".md" {
		t.Errorf("expected .md scratch file, got %q", runner.calls[0].path)
	}
}

type recordingLogger struct {
	launches []LaunchLog
	finishes []FinishLog
	warnings []WarnLog
}

func (l *recordingLogger) Launch(entry LaunchLog) { l.launches = append(l.launches, entry) }
func (l *recordingLogger) Finish(entry FinishLog) { l.finishes = append(l.finishes, entry) }
func (l *recordingLogger) Warn(entry WarnLog)     { l.warnings = append(l.warnings, entry) }

func TestExecute_LogsLaunchAndFinish(t *testing.T) {
	logger := &recordingLogger{}
	runner := &fakeRunner{edit: func(string) error { return &editor.ExitError{Code: 4} }}

	_, _ = New().Runner(runner).Logger(logger).Dir(t.TempDir()).Execute()

	if len(logger.launches) != 1 || logger.launches[0].Mode != Temporary {
		t.Fatalf("expected one temporary launch, got %+v", logger.launches)
	}
	if len(logger.finishes) != 1 || logger.finishes[0].Err == nil {
		t.Fatalf("expected one failed finish, got %+v", logger.finishes)
	}
	if len(logger.warnings) != 0 {
		t.Errorf("expected no warnings, got %+v", logger.warnings)
	}
}

// failScratchDisposal makes scratch removal report a failure after the file
// has really been removed.
func failScratchDisposal(t *testing.T) {
	t.Helper()
	prev := disposeScratch
	t.Cleanup(func() { disposeScratch = prev })
	disposeScratch = func(f *tempfile.File) error {
		if err := f.Dispose(); err != nil {
			return err
		}
		return &tempfile.PathError{Op: "remove", Path: f.Path(), Err: fs.ErrPermission}
	}
}

// replaceWithDirectory swaps the file at path for a directory, optionally
// holding one file so that it cannot be removed.
func replaceWithDirectory(path string, populated bool) error {
	if err := os.Remove(path); err != nil {
		return err
	}
	if err := os.Mkdir(path, 0o700); err != nil {
		return err
	}
	if populated {
		return os.WriteFile(filepath.Join(path, "keep"), []byte("x"), 0o600)
	}
	return nil
}

func TestExecute_CleanupFailureKeepsText(t *testing.T) {
	failScratchDisposal(t)
	scratch := t.TempDir()
	logger := &recordingLogger{}
	runner := &fakeRunner{edit: func(path string) error {
		return os.WriteFile(path, []byte("kept"), 0o600)
	}}

	outcome, err := New().Runner(runner).Logger(logger).Dir(scratch).Execute()
	if err != nil {
		t.Fatalf("cleanup failure must not fail the session: %v", err)
	}
	if outcome.Text != "kept" {
		t.Errorf("expected %q, got %q", "kept", outcome.Text)
	}
	if Kind(outcome.CleanupErr) != KindIO {
		t.Errorf("expected io CleanupErr, got %v", outcome.CleanupErr)
	}
	if !errors.Is(outcome.CleanupErr, fs.ErrPermission) {
		t.Errorf("expected permission cause, got %v", outcome.CleanupErr)
	}
	if len(logger.warnings) != 1 {
		t.Errorf("expected one warning, got %+v", logger.warnings)
	}
}

func TestExecute_CleanupFailureDoesNotMaskPrimaryError(t *testing.T) {
	scratch := t.TempDir()
	logger := &recordingLogger{}
	runner := &fakeRunner{edit: func(path string) error {
		if err := replaceWithDirectory(path, true); err != nil {
			return err
		}
		return &editor.ExitError{Code: 1}
	}}

	outcome, err := New().Runner(runner).Logger(logger).Dir(scratch).Execute()
	if Kind(err) != KindEditorExit {
		t.Fatalf("expected editor exit error, got %v", err)
	}
	if outcome.CleanupErr != nil {
		t.Errorf("expected no CleanupErr on failure, got %v", outcome.CleanupErr)
	}
	if len(logger.warnings) != 1 {
		t.Errorf("expected cleanup warning, got %+v", logger.warnings)
	}
}

func TestExecute_ReadErrorNamesPathOnce(t *testing.T) {
	scratch := t.TempDir()
	var target string
	runner := &fakeRunner{edit: func(path string) error {
		target = path
		return replaceWithDirectory(path, false)
	}}

	_, err := New().Contents("abc").Runner(runner).Dir(scratch).Execute()
	if Kind(err) != KindIO {
		t.Fatalf("expected io error, got %v", err)
	}
	if n := strings.Count(err.Error(), target); n != 1 {
		t.Errorf("expected path once in %q, got %d", err.Error(), n)
	}
}

func TestExecute_MissingSourceNamesPathOnce(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.txt")

	for _, inPlace := range []bool{false, true} {
		session := New().File(missing).Runner(&fakeRunner{}).Dir(t.TempDir())
		if inPlace {
			session.InPlace()
		}

		_, err := session.Execute()
		if err == nil {
			t.Fatalf("inPlace=%v: expected error", inPlace)
		}
		if n := strings.Count(err.Error(), missing); n != 1 {
			t.Errorf("inPlace=%v: expected path once in %q, got %d", inPlace, err.Error(), n)
		}
	}
}
