package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// Editor stub bodies. Each receives the file to edit as its last argument.
const (
	// AppendEdited appends " edited" to the file.
	AppendEdited = `printf ' edited' >> "$1"`
	// OverwriteXYZ replaces the file contents with "xyz".
	OverwriteXYZ = `printf 'xyz' > "$1"`
	// ExitOne leaves the file alone and exits 1.
	ExitOne = `exit 1`
	// WriteInvalidUTF8 replaces the file contents with bytes that are not UTF-8.
	WriteInvalidUTF8 = `printf '\377\376' > "$1"`
	// RecordPath writes the edited path next to the script as "<name>.path".
	RecordPath = `printf '%s' "$1" > "$0.path"`
)

// WriteEditorStub writes an executable /bin/sh script named name into dir and
// returns its path. Tests using stubs are skipped on windows.
func WriteEditorStub(t testing.TB, dir, name, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("editor stubs are shell scripts")
	}

	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write editor stub: %v", err)
	}
	return path
}
