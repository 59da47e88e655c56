package main

import (
	"flag"
	"io"

	"github.com/peterbourgon/ff/v3"

	"go.halloway.dev/website/internal/hlclient"
)

// params holds all arguments for sited.
type params struct {
	// Addr is the HTTP address to listen on.
	Addr string

	// Content is the directory holding blog-posts/ and photos/.
	Content string

	// Static is the directory served at the site root.
	Static string

	// Highlight is the address of the highlight service.
	Highlight string

	// Watch reloads content when the content directories change.
	Watch bool

	Verbose bool
}

// cliParser parses the command line arguments for sited.
// Every flag can also be set through a SITED_* environment
// variable, e.g. SITED_ADDR.
type cliParser struct {
	Stderr io.Writer
}

func (cmd *cliParser) Parse(args []string) (*params, error) {
	fset := flag.NewFlagSet("sited", flag.ContinueOnError)
	fset.SetOutput(cmd.Stderr)

	var p params
	fset.StringVar(&p.Addr, "addr", ":8000",
		"HTTP address to listen on")
	fset.StringVar(&p.Content, "content", "content",
		"directory holding the site's content")
	fset.StringVar(&p.Static, "static", "static",
		"directory holding the static assets")
	fset.StringVar(&p.Highlight, "highlight", hlclient.DefaultAddr,
		"address of the highlight service")
	fset.BoolVar(&p.Watch, "watch", true,
		"reload content when it changes on disk")
	fset.BoolVar(&p.Verbose, "verbose", false,
		"enable debug logging")

	if err := ff.Parse(fset, args, ff.WithEnvVarPrefix("SITED")); err != nil {
		return nil, err
	}
	return &p, nil
}
