// Package main implements the scrawl CLI tool.
package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "scrawl",
	Short:        "Capture text from your editor",
	SilenceUsage: true,
}

var (
	editorFlag    string
	extensionFlag string
	dirFlag       string
	verboseFlag   bool
	markdownFlag  bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&editorFlag, "editor", "e", "", "Editor command (overrides config and $EDITOR)")
	flags.StringVar(&extensionFlag, "extension", "", "Scratch file extension, e.g. .md")
	flags.StringVar(&dirFlag, "dir", "", "Directory for scratch files")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Log editor activity to stderr")
	flags.BoolVar(&markdownFlag, "markdown", false, "Render the result as markdown when writing to a terminal")
	addExtensionFlagAliases(rootCmd)
}
