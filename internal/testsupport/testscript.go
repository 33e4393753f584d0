package testsupport

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

var (
	buildOnce  sync.Once
	scrawlPath string
	buildErr   error
)

// BuildScrawl builds the scrawl binary once and returns its path.
func BuildScrawl(t testing.TB) string {
	t.Helper()

	buildOnce.Do(func() {
		moduleRoot, err := findModuleRoot()
		if err != nil {
			buildErr = err
			return
		}

		binDir, err := os.MkdirTemp("", "scrawl-bin-")
		if err != nil {
			buildErr = err
			return
		}

		scrawlPath = filepath.Join(binDir, "scrawl")
		cmd := exec.Command("go", "build", "-o", scrawlPath, "./cmd/scrawl")
		cmd.Dir = moduleRoot
		output, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = fmt.Errorf("build scrawl: %w: %s", err, strings.TrimSpace(string(output)))
		}
	})

	if buildErr != nil {
		t.Fatalf("%v", buildErr)
	}

	return scrawlPath
}

// SetupScriptEnv configures common environment variables for testscript.
func SetupScriptEnv(t testing.TB, env *testscript.Env) error {
	t.Helper()

	env.Setenv("SCRAWL", BuildScrawl(t))

	homeDir := filepath.Join(env.WorkDir, "home")
	if err := EnsureHomeDirs(homeDir); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	env.Setenv("EDITOR", "")
	env.Setenv("SCRAWL_CONFIG", "")
	return nil
}

// CmdNoFiles fails unless the named directory is empty or missing.
func CmdNoFiles(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("nofiles does not support negation")
	}
	if len(args) != 1 {
		ts.Fatalf("usage: nofiles DIR")
	}

	entries, err := os.ReadDir(ts.MkAbs(args[0]))
	if os.IsNotExist(err) {
		return
	}
	ts.Check(err)

	if len(entries) > 0 {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		ts.Fatalf("expected %s to be empty, found: %s", args[0], strings.Join(names, ", "))
	}
}

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find module root (go.mod)")
		}
		dir = parent
	}
}
