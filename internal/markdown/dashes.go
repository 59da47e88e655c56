package markdown

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var (
	// Matcher for three hyphens ("---") in a row with whitespace on either side.
	_tripleHyphen = regexp.MustCompile(`(^| )---( |$)`)

	// Matcher for two hyphens ("--") in a row with whitespace on either side.
	_doubleHyphen = regexp.MustCompile(`(^| )--( |$)`)
)

// dashTransformer substitutes em- and en-dashes
// for three and two hyphens in prose, respectively.
// The hyphens must have whitespace or a line boundary on either side,
// so that things like command line flags stay untouched.
type dashTransformer struct{}

var _ parser.ASTTransformer = (*dashTransformer)(nil)

func (*dashTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()

	// Collect first: replacing nodes mid-walk
	// would confuse the walker's child iteration.
	var texts []*ast.Text
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		t, ok := n.(*ast.Text)
		if !ok {
			return ast.WalkContinue, nil
		}

		// Code spans render their Text children by segment,
		// and must come out character-for-character anyway.
		if p := t.Parent(); p != nil && p.Kind() == ast.KindCodeSpan {
			return ast.WalkContinue, nil
		}

		// A hard break is rendered by the Text node itself;
		// a replacement String node would lose it. Dashes at the end
		// of such a line keep their hyphens.
		if t.HardLineBreak() {
			return ast.WalkContinue, nil
		}

		texts = append(texts, t)
		return ast.WalkContinue, nil
	})

	for _, t := range texts {
		val := t.Segment.Value(source)

		replaced := _tripleHyphen.ReplaceAll(val, []byte("${1}—${2}"))
		replaced = _doubleHyphen.ReplaceAll(replaced, []byte("${1}–${2}"))
		if bytes.Equal(replaced, val) {
			continue
		}

		if t.SoftLineBreak() {
			replaced = append(replaced, '\n')
		}

		parent := t.Parent()
		parent.ReplaceChild(parent, t, ast.NewString(replaced))
	}
}
