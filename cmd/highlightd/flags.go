package main

import (
	"flag"
	"io"

	"github.com/peterbourgon/ff/v3"

	"go.halloway.dev/website/internal/flagvalue"
)

// params holds all arguments for highlightd.
type params struct {
	// Addr is the TCP address to listen on.
	Addr string

	// Languages to register grammars for.
	// Empty means the default set.
	Languages []flagvalue.String

	// WriteCSS writes the highlighting stylesheet and exits.
	WriteCSS flagvalue.FileSwitch

	Verbose bool
}

// cliParser parses the command line arguments for highlightd.
// Every flag can also be set through a HIGHLIGHTD_* environment
// variable, e.g. HIGHLIGHTD_ADDR.
type cliParser struct {
	Stderr io.Writer
}

func (cmd *cliParser) Parse(args []string) (*params, error) {
	fset := flag.NewFlagSet("highlightd", flag.ContinueOnError)
	fset.SetOutput(cmd.Stderr)

	var p params
	fset.StringVar(&p.Addr, "addr", "127.0.0.1:8001",
		"TCP address to listen on")
	fset.Var(flagvalue.ListOf(&p.Languages), "lang",
		"language to recognize; may be repeated (default: a built-in set)")
	fset.Var(&p.WriteCSS, "write-css",
		"write the highlighting stylesheet to the given file (or stdout) and exit")
	fset.BoolVar(&p.Verbose, "verbose", false,
		"enable debug logging")

	if err := ff.Parse(fset, args, ff.WithEnvVarPrefix("HIGHLIGHTD")); err != nil {
		return nil, err
	}
	return &p, nil
}
