package hlserver

import (
	"fmt"

	chroma "github.com/alecthomas/chroma/v2"

	"go.halloway.dev/website/internal/highlight"
	"go.halloway.dev/website/internal/hlproto"
)

// Highlighter renders source text with a resolved grammar into HTML.
type Highlighter interface {
	Highlight(lexer chroma.Lexer, src string) (string, error)
}

var _ Highlighter = (*highlight.Highlighter)(nil)

// Handler maps a single request to its response.
// It never returns an error:
// every failure mode becomes a failure response.
type Handler struct {
	// Registry resolves language names to grammars.
	// Built once at startup; read-only afterwards.
	Registry *highlight.Registry

	// Highlighter renders code with a resolved grammar.
	Highlighter Highlighter
}

// Handle highlights the requested code,
// converting unknown languages, highlighting errors,
// and panics from the highlighting library into failure responses.
func (h *Handler) Handle(req *hlproto.Request) (resp *hlproto.Response) {
	defer func() {
		if p := recover(); p != nil {
			resp = hlproto.Fail(fmt.Sprintf("highlighting panicked: %v", p))
		}
	}()

	lexer, ok := h.Registry.Lookup(req.Language)
	if !ok {
		return hlproto.Fail("no such language recognized")
	}

	html, err := h.Highlighter.Highlight(lexer, req.Code)
	if err != nil {
		return hlproto.Fail(err.Error())
	}
	return hlproto.Succeed(html)
}
