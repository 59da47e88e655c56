package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.halloway.dev/website/internal/iotest"
)

func TestCLIParser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc string
		give []string
		want params
	}{
		{
			desc: "defaults",
			want: params{
				Addr:      ":8000",
				Content:   "content",
				Static:    "static",
				Highlight: "localhost:8001",
				Watch:     true,
			},
		},
		{
			desc: "everything set",
			give: []string{
				"-addr", ":9999",
				"-content", "/srv/site/content",
				"-static", "/srv/site/static",
				"-highlight", "hl.internal:7000",
				"-watch=false",
				"-verbose",
			},
			want: params{
				Addr:      ":9999",
				Content:   "/srv/site/content",
				Static:    "/srv/site/static",
				Highlight: "hl.internal:7000",
				Watch:     false,
				Verbose:   true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			parser := cliParser{Stderr: new(bytes.Buffer)}
			got, err := parser.Parse(tt.give)
			require.NoError(t, err)
			assert.Equal(t, &tt.want, got)
		})
	}
}

func TestCLIParser_env(t *testing.T) {
	t.Setenv("SITED_ADDR", ":7777")

	parser := cliParser{Stderr: new(bytes.Buffer)}
	got, err := parser.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, ":7777", got.Addr)
}

func TestMainCmd_help(t *testing.T) {
	t.Parallel()

	cmd := mainCmd{
		Stdout: iotest.Writer(t),
		Stderr: iotest.Writer(t),
	}
	assert.Zero(t, cmd.Run([]string{"-h"}))
}

func TestMainCmd_missingContent(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	cmd := mainCmd{Stdout: iotest.Writer(t), Stderr: &stderr}
	code := cmd.Run([]string{"-content", "/does/not/exist", "-watch=false"})
	assert.NotZero(t, code)
	assert.Contains(t, stderr.String(), "load photos")
}
