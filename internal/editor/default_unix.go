//go:build !windows

package editor

const defaultProgram = "vi"
