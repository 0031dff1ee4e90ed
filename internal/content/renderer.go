// Package content renders store payloads for display. Raw JSON is syntax
// highlighted with chroma using the style named by the active theme.
package content

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"

	"github.com/storefront-console/storefront/internal/interfaces"
)

// Formatter names accepted by NewHighlighter.
const (
	FormatterTerminal = "terminal256"
	FormatterPlain    = "noop"
)

// Highlighter applies chroma syntax highlighting.
type Highlighter struct {
	mutex     sync.RWMutex
	formatter chroma.Formatter
	style     *chroma.Style
	styleName string
}

// NewHighlighter creates a highlighter. Unknown formatter names fall back to
// chroma's plain formatter and unknown styles to github.
func NewHighlighter(styleName, formatterName string) *Highlighter {
	formatter := formatters.Get(formatterName)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	style := styles.Get(styleName)
	if style == nil || style == styles.Fallback {
		style = styles.GitHub
		styleName = "github"
	}

	return &Highlighter{
		formatter: formatter,
		style:     style,
		styleName: styleName,
	}
}

// ForTheme returns a terminal highlighter using theme's syntax style.
func ForTheme(theme interfaces.Theme) *Highlighter {
	return NewHighlighter(theme.Syntax, FormatterTerminal)
}

// StyleName reports the chroma style in use.
func (h *Highlighter) StyleName() string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.styleName
}

// SetStyle switches to another chroma style.
func (h *Highlighter) SetStyle(name string) error {
	style := styles.Get(name)
	if style == nil || style == styles.Fallback {
		return fmt.Errorf("style '%s' not found", name)
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.style = style
	h.styleName = name
	return nil
}

// Highlight applies syntax highlighting to code. On failure the input is
// returned unchanged together with the error.
func (h *Highlighter) Highlight(code, language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	h.mutex.RLock()
	formatter, style := h.formatter, h.style
	h.mutex.RUnlock()

	var highlighted strings.Builder
	if err := formatter.Format(&highlighted, style, iterator); err != nil {
		return code, err
	}
	return highlighted.String(), nil
}

// ProductJSON returns p as indented, highlighted JSON.
func (h *Highlighter) ProductJSON(p interfaces.Product) (string, error) {
	return h.JSON(p)
}

// JSON marshals v with two-space indentation and highlights it.
func (h *Highlighter) JSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal content: %w", err)
	}
	return h.Highlight(string(data), "json")
}
