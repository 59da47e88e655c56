package highlight

import (
	"bytes"
	"io"
	"sync"

	"braces.dev/errtrace"
	chroma "github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
)

// Highlighter turns source text into HTML span markup.
//
// The output carries no surrounding <pre> or <code>;
// callers are expected to provide their own wrapping,
// typically <pre><code class="language-...">.
type Highlighter struct {
	// Style used for syntax highlighting of code.
	// Defaults to [PlainStyle].
	Style *chroma.Style

	// UseClasses specifies whether the highlighter
	// uses inline 'style' attributes for highlighting,
	// or classes, assuming use of an appropriate style sheet.
	UseClasses bool

	once      sync.Once
	formatter *chromahtml.Formatter
}

func (h *Highlighter) init() {
	h.once.Do(func() {
		if h.Style == nil {
			h.Style = PlainStyle
		}
		h.formatter = chromahtml.New(
			chromahtml.PreventSurroundingPre(true),
			chromahtml.WithClasses(h.UseClasses),
		)
	})
}

// WriteCSS writes the style classes for this highlighter to writer.
// If this highlighter is not using classes, WriteCSS is a no-op.
func (h *Highlighter) WriteCSS(w io.Writer) error {
	h.init()

	if !h.UseClasses {
		return nil
	}

	return errtrace.Wrap(h.formatter.WriteCSS(w, h.Style))
}

// Highlight renders src with the given grammar into HTML.
func (h *Highlighter) Highlight(lexer chroma.Lexer, src string) (string, error) {
	h.init()

	tokens, err := lexer.Tokenise(nil, src)
	if err != nil {
		return "", errtrace.Wrap(err)
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.Style, tokens); err != nil {
		return "", errtrace.Wrap(err)
	}
	return buf.String(), nil
}
