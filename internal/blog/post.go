// Package blog loads and serves the site's blog posts.
//
// Each post is a markdown file with a TOML header,
// separated from the body by a "+++" line.
package blog

import (
	"html/template"
	"net/mail"
	"strings"
	"time"

	"braces.dev/errtrace"
	"github.com/pelletier/go-toml/v2"
	"go.halloway.dev/website/internal/markdown"
	"go.halloway.dev/website/internal/timefmt"
)

// Minimum number of markdown bytes shown in a post's sneak peek.
const _minSneakPeek = 100

// Post is a single blog post, ready to render.
type Post struct {
	// Name is the post's file stem and its URL path segment.
	Name string

	// Title heads the post's page.
	Title string

	// TabTitle titles the browser tab.
	// Defaults to Title when the header doesn't set one.
	TabTitle string

	// DescriptionHTML is the post's subtitle, rendered from markdown.
	DescriptionHTML template.HTML

	// SneakPeekHTML is the first few paragraphs of the body,
	// shown on the blog index.
	SneakPeekHTML template.HTML

	// BodyHTML is the full body of the post.
	BodyHTML template.HTML

	FirstPublished time.Time
	Updated        []time.Time
	Tags           []string
}

// postHeader is the TOML front matter of a post file.
type postHeader struct {
	Title          string   `toml:"title"`
	TabTitle       string   `toml:"tab_title"`
	Description    string   `toml:"description"`
	FirstPublished string   `toml:"first_published"`
	Updated        []string `toml:"updated"`
	Tags           []string `toml:"tags"`
}

// ParsePost parses a post file.
// name is the file stem; it becomes the post's URL path segment.
func ParsePost(name string, src []byte, md *markdown.Converter) (*Post, error) {
	header, body, ok := strings.Cut(string(src), "\n+++\n")
	if !ok {
		return nil, errtrace.New(`file must include a "+++" line to split header and body`)
	}

	var meta postHeader
	if err := toml.Unmarshal([]byte(header), &meta); err != nil {
		return nil, errtrace.Errorf("parse header: %w", err)
	}
	switch {
	case meta.Title == "":
		return nil, errtrace.New("header must set a title")
	case meta.Description == "":
		return nil, errtrace.New("header must set a description")
	}

	firstPublished, err := parseDate(meta.FirstPublished)
	if err != nil {
		return nil, errtrace.Errorf("parse first_published: %w", err)
	}

	updated := make([]time.Time, len(meta.Updated))
	for i, s := range meta.Updated {
		if updated[i], err = parseDate(s); err != nil {
			return nil, errtrace.Errorf("parse updated[%d]: %w", i, err)
		}
	}

	tabTitle := meta.TabTitle
	if tabTitle == "" {
		tabTitle = meta.Title
	}

	descriptionHTML, err := md.ConvertString(meta.Description)
	if err != nil {
		return nil, errtrace.Errorf("render description: %w", err)
	}
	peekHTML, err := md.ConvertString(sneakPeek(body))
	if err != nil {
		return nil, errtrace.Errorf("render sneak peek: %w", err)
	}
	bodyHTML, err := md.ConvertString(body)
	if err != nil {
		return nil, errtrace.Errorf("render body: %w", err)
	}

	return &Post{
		Name:            name,
		Title:           meta.Title,
		TabTitle:        tabTitle,
		DescriptionHTML: template.HTML(descriptionHTML),
		SneakPeekHTML:   template.HTML(peekHTML),
		BodyHTML:        template.HTML(bodyHTML),
		FirstPublished:  firstPublished,
		Updated:         updated,
		Tags:            meta.Tags,
	}, nil
}

// parseDate parses an RFC 2822 timestamp,
// e.g. "Sun, 07 Nov 2021 13:27:45 -0800".
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errtrace.New("missing timestamp")
	}
	return errtrace.Wrap2(mail.ParseDate(s))
}

// sneakPeek cuts body at the first paragraph break
// past the minimum peek size.
// Bodies without such a break are returned whole.
func sneakPeek(body string) string {
	off := 0
	for rest := body; ; {
		i := strings.Index(rest, "\n\n")
		if i < 0 {
			return body
		}
		if off+i >= _minSneakPeek {
			return body[:off+i]
		}
		off += i + 2
		rest = body[off:]
	}
}

// FirstPublishedDate renders the publish date for display.
func (p *Post) FirstPublishedDate() string {
	return timefmt.Date(p.FirstPublished)
}

// UpdatedDates renders each update date for display.
func (p *Post) UpdatedDates() []string {
	dates := make([]string, len(p.Updated))
	for i, t := range p.Updated {
		dates[i] = timefmt.Date(t)
	}
	return dates
}
