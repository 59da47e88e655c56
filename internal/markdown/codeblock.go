package markdown

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
	"go.uber.org/zap"
)

// codeBlockRenderer renders code blocks
// through the converter's code highlighter.
//
// Code blocks are formatted as:
//
//	<pre><code class="language-...">
//	...
//	</code></pre>
//
// Highlighting can fail for a number of reasons -- on failure,
// the code is rendered as if no language was selected.
type codeBlockRenderer struct {
	conv *Converter
}

var _ renderer.NodeRenderer = (*codeBlockRenderer)(nil)

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.render)
	reg.Register(ast.KindCodeBlock, r.render)
}

func (r *codeBlockRenderer) render(
	w util.BufWriter,
	source []byte,
	node ast.Node,
	entering bool,
) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var language string
	if fcb, ok := node.(*ast.FencedCodeBlock); ok {
		if info := fcb.Language(source); len(info) > 0 {
			language = string(info)
		}
	}

	var code bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		code.Write(line.Value(source))
	}

	if language != "" {
		fmt.Fprintf(w, `<pre><code class="language-%s">`, html.EscapeString(language))
	} else {
		fmt.Fprint(w, "<pre><code>")
	}
	fmt.Fprintf(w, "\n%s\n</code></pre>\n", r.highlighted(language, code.String()))

	return ast.WalkSkipChildren, nil
}

// highlighted returns the HTML body for a code block,
// falling back to escaped plain text
// when there is no language or highlighting fails.
func (r *codeBlockRenderer) highlighted(language, code string) string {
	if language == "" || r.conv.Highlighter == nil {
		return html.EscapeString(code)
	}

	out, err := r.conv.Highlighter.HighlightCode(language, code)
	if err != nil {
		r.conv.Log.Warn("could not highlight code block",
			zap.String("language", language),
			zap.Error(err))
		return html.EscapeString(code)
	}
	return out
}
