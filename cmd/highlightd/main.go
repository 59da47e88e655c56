// highlightd is the syntax highlighting service.
//
// It speaks a minimal TCP protocol: a client connects, sends one
// JSON request terminated by a NUL byte, and receives one JSON
// response followed by a newline before the connection closes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"braces.dev/errtrace"
	"go.uber.org/zap"

	"go.halloway.dev/website/internal/flagvalue"
	"go.halloway.dev/website/internal/highlight"
	"go.halloway.dev/website/internal/hlserver"
)

func main() {
	cmd := mainCmd{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	os.Exit(cmd.Run(os.Args[1:]))
}

// mainCmd is the actual entry point to the program.
type mainCmd struct {
	Stdout io.Writer // == os.Stdout
	Stderr io.Writer // == os.Stderr
}

func (cmd *mainCmd) Run(args []string) (exitCode int) {
	opts, err := (&cliParser{Stderr: cmd.Stderr}).Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if err := cmd.run(opts); err != nil {
		fmt.Fprintln(cmd.Stderr, "highlightd:", err)
		return 1
	}
	return 0
}

func (cmd *mainCmd) run(opts *params) error {
	languages := flagvalue.Strings(opts.Languages)
	if len(languages) == 0 {
		languages = highlight.DefaultLanguages
	}
	registry, err := highlight.NewRegistry(languages)
	if err != nil {
		return errtrace.Wrap(err)
	}

	highlighter := &highlight.Highlighter{
		Style:      highlight.PlainStyle,
		UseClasses: true,
	}

	if opts.WriteCSS.Bool() {
		return errtrace.Wrap(cmd.writeCSS(opts, highlighter))
	}

	log, err := newLogger(opts.Verbose)
	if err != nil {
		return errtrace.Wrap(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	lis, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return errtrace.Errorf("listen on %v: %w", opts.Addr, err)
	}

	log.Info("highlight service listening",
		zap.Stringer("addr", lis.Addr()),
		zap.Strings("languages", registry.Names()))

	srv := hlserver.Server{
		Handler: &hlserver.Handler{
			Registry:    registry,
			Highlighter: highlighter,
		},
		Log: log,
	}
	return errtrace.Wrap(srv.Serve(ctx, lis))
}

// writeCSS emits the stylesheet for the highlighter's classed output
// instead of serving.
func (cmd *mainCmd) writeCSS(opts *params, h *highlight.Highlighter) (err error) {
	w, closef, err := opts.WriteCSS.Create(cmd.Stdout)
	if err != nil {
		return errtrace.Wrap(err)
	}
	defer func() { err = errors.Join(err, closef()) }()

	return errtrace.Wrap(h.WriteCSS(w))
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return errtrace.Wrap2(cfg.Build())
}
