// Package markdown converts markdown documents to HTML
// the way the rest of the site expects:
// GitHub-flavored extras, typographic dashes,
// and code blocks highlighted by the highlight service.
package markdown

import (
	"bytes"
	"sync"

	"braces.dev/errtrace"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
	"go.uber.org/zap"
)

// CodeHighlighter turns a code block into highlighted HTML spans.
type CodeHighlighter interface {
	HighlightCode(language, code string) (string, error)
}

// Converter converts markdown to HTML.
// The zero value renders without syntax highlighting.
type Converter struct {
	// Highlighter highlights fenced code blocks.
	// If nil, or when highlighting fails,
	// code is rendered as escaped plain text instead.
	Highlighter CodeHighlighter

	// Log records highlighting failures.
	Log *zap.Logger

	once sync.Once
	md   goldmark.Markdown
}

func (c *Converter) init() {
	c.once.Do(func() {
		if c.Log == nil {
			c.Log = zap.NewNop()
		}
		c.md = goldmark.New(
			goldmark.WithExtensions(
				extension.Strikethrough,
				extension.Footnote,
				extension.Table,
				extension.TaskList,
			),
			goldmark.WithParserOptions(
				parser.WithASTTransformers(
					util.Prioritized(&dashTransformer{}, 500),
				),
			),
			goldmark.WithRendererOptions(
				renderer.WithNodeRenderers(
					util.Prioritized(&codeBlockRenderer{conv: c}, 100),
				),
			),
		)
	})
}

// Convert renders the markdown document into HTML.
func (c *Converter) Convert(src []byte) (string, error) {
	c.init()

	var buf bytes.Buffer
	if err := c.md.Convert(src, &buf); err != nil {
		return "", errtrace.Wrap(err)
	}
	return buf.String(), nil
}

// ConvertString is Convert for string input.
func (c *Converter) ConvertString(src string) (string, error) {
	return errtrace.Wrap2(c.Convert([]byte(src)))
}
