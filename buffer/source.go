package buffer

import "fmt"

// SourceKind identifies where a buffer's initial text comes from.
type SourceKind int

const (
	// SourceNone starts from an empty buffer.
	SourceNone SourceKind = iota
	// SourceText starts from caller-supplied text.
	SourceText
	// SourceFile starts from the contents of an existing file.
	SourceFile
)

func (k SourceKind) String() string {
	switch k {
	case SourceNone:
		return "empty"
	case SourceText:
		return "text"
	case SourceFile:
		return "file"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// Source is the initial content of a buffer. Only the field matching Kind is
// meaningful.
type Source struct {
	Kind SourceKind
	Text string
	Path string
}

// Empty returns a source for an empty buffer.
func Empty() Source {
	return Source{Kind: SourceNone}
}

// Text returns a source holding text.
func Text(text string) Source {
	return Source{Kind: SourceText, Text: text}
}

// File returns a source that reads from the file at path.
func File(path string) Source {
	return Source{Kind: SourceFile, Path: path}
}

// Mode selects which file the editor is pointed at.
type Mode int

const (
	// Temporary edits a scratch copy and leaves any source file untouched.
	Temporary Mode = iota
	// InPlace edits the source file directly. It requires a SourceFile.
	InPlace
)

func (m Mode) String() string {
	switch m {
	case Temporary:
		return "temporary"
	case InPlace:
		return "in-place"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}
