package blog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.halloway.dev/website/internal/markdown"
)

const _samplePost = `title = "Getting Things Done"
tab_title = "gtd"
description = "On doing *things*"
first_published = "Sun, 07 Nov 2021 13:27:45 -0800"
updated = ["Mon, 08 Nov 2021 09:00:00 -0800"]
tags = ["productivity", "essays"]
+++
This is the body of the post.

It has a second paragraph too.`

func TestParsePost(t *testing.T) {
	t.Parallel()

	post, err := ParsePost("getting-things-done", []byte(_samplePost), new(markdown.Converter))
	require.NoError(t, err)

	assert.Equal(t, "getting-things-done", post.Name)
	assert.Equal(t, "Getting Things Done", post.Title)
	assert.Equal(t, "gtd", post.TabTitle)
	assert.Contains(t, string(post.DescriptionHTML), "doing <em>things</em>")
	assert.Contains(t, string(post.BodyHTML), "second paragraph")
	assert.Equal(t, []string{"productivity", "essays"}, post.Tags)

	want := time.Date(2021, time.November, 7, 13, 27, 45, 0, time.FixedZone("", -8*60*60))
	assert.True(t, post.FirstPublished.Equal(want),
		"first published was %v", post.FirstPublished)
	assert.Equal(t, "Nov 7, 2021", post.FirstPublishedDate())
	assert.Equal(t, []string{"Nov 8, 2021"}, post.UpdatedDates())
}

func TestParsePost_tabTitleDefaultsToTitle(t *testing.T) {
	t.Parallel()

	src := strings.Replace(_samplePost, "tab_title = \"gtd\"\n", "", 1)
	post, err := ParsePost("post", []byte(src), new(markdown.Converter))
	require.NoError(t, err)

	assert.Equal(t, "Getting Things Done", post.TabTitle)
}

func TestParsePost_errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc    string
		give    string
		wantErr string
	}{
		{
			desc:    "no separator",
			give:    `title = "x"`,
			wantErr: `"+++" line`,
		},
		{
			desc:    "bad header",
			give:    "title = not toml\n+++\nbody",
			wantErr: "parse header",
		},
		{
			desc:    "missing title",
			give:    "description = \"d\"\nfirst_published = \"Sun, 07 Nov 2021 13:27:45 -0800\"\n+++\nbody",
			wantErr: "must set a title",
		},
		{
			desc:    "missing description",
			give:    "title = \"t\"\nfirst_published = \"Sun, 07 Nov 2021 13:27:45 -0800\"\n+++\nbody",
			wantErr: "must set a description",
		},
		{
			desc:    "missing publish date",
			give:    "title = \"t\"\ndescription = \"d\"\n+++\nbody",
			wantErr: "first_published",
		},
		{
			desc:    "bad publish date",
			give:    "title = \"t\"\ndescription = \"d\"\nfirst_published = \"2021-11-07\"\n+++\nbody",
			wantErr: "first_published",
		},
		{
			desc:    "bad update date",
			give:    "title = \"t\"\ndescription = \"d\"\nfirst_published = \"Sun, 07 Nov 2021 13:27:45 -0800\"\nupdated = [\"yesterday\"]\n+++\nbody",
			wantErr: "updated[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			_, err := ParsePost("post", []byte(tt.give), new(markdown.Converter))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSneakPeek(t *testing.T) {
	t.Parallel()

	t.Run("stops at first break past the minimum", func(t *testing.T) {
		t.Parallel()

		first := strings.Repeat("a", 50)
		second := strings.Repeat("b", 60)
		body := first + "\n\n" + second + "\n\nthe tail"

		got := sneakPeek(body)
		assert.Equal(t, first+"\n\n"+second, got)
	})

	t.Run("short body returned whole", func(t *testing.T) {
		t.Parallel()

		body := "just one short paragraph\n\nand another"
		assert.Equal(t, body, sneakPeek(body))
	})

	t.Run("no paragraph breaks", func(t *testing.T) {
		t.Parallel()

		body := strings.Repeat("long ", 100)
		assert.Equal(t, body, sneakPeek(body))
	})
}
