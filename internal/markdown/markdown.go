// Package markdown renders captured buffers for terminal display.
package markdown

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

type renderer interface {
	Render(string) (string, error)
}

var (
	rendererMu sync.Mutex
	renderers  = map[int]renderer{}
)

// Render formats markdown text for terminal output. Text that cannot be
// rendered is returned as-is, minus trailing newlines.
func Render(width, indent int, input []byte) []byte {
	if len(input) == 0 {
		return nil
	}
	value := strings.ReplaceAll(string(input), "\r\n", "\n")
	value = strings.TrimRight(value, "\r\n")
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if width < 1 {
		width = 1
	}
	if indent < 0 {
		indent = 0
	}
	renderWidth := width - indent
	if renderWidth < 1 {
		renderWidth = 1
	}

	rendered := value
	if r := markdownRenderer(renderWidth); r != nil {
		if formatted, err := r.Render(value); err == nil {
			rendered = formatted
		}
	}
	rendered = strings.TrimRight(rendered, "\r\n")
	if strings.TrimSpace(rendered) == "" {
		return nil
	}
	return []byte(indentBlock(rendered, indent))
}

// SafeRender is Render, but falls back to the input if the renderer panics.
func SafeRender(width, indent int, input []byte) (out []byte) {
	defer func() {
		if recover() != nil {
			value := strings.TrimRight(string(input), "\r\n")
			out = []byte(indentBlock(value, indent))
		}
	}()
	return Render(width, indent, input)
}

func markdownRenderer(width int) renderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	if cached, ok := renderers[width]; ok {
		return cached
	}
	style := styles.ASCIIStyleConfig
	style.Item.BlockPrefix = "- "
	created, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderers[width] = created
	return created
}

func indentBlock(value string, spaces int) string {
	if spaces <= 0 {
		return value
	}
	prefix := strings.Repeat(" ", spaces)
	lines := strings.Split(value, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
