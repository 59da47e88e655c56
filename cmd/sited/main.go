// sited serves the website: the blog, the photo pages,
// and the static assets.
//
// Content loads once at startup and reloads automatically
// when the content directories change.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"braces.dev/errtrace"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go.halloway.dev/website/internal/blog"
	"go.halloway.dev/website/internal/hlclient"
	"go.halloway.dev/website/internal/linebuf"
	"go.halloway.dev/website/internal/markdown"
	"go.halloway.dev/website/internal/photos"
	"go.halloway.dev/website/internal/site"
)

// How long in-flight requests get to finish on shutdown.
const _shutdownTimeout = 5 * time.Second

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
		fmt.Fprintln(cmd.Stderr, "sited:", err)
		return 1
	}
	return 0
}

func (cmd *mainCmd) run(opts *params) error {
	log, err := newLogger(opts.Verbose)
	if err != nil {
		return errtrace.Wrap(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Route the router's own chatter through the logger.
	if !opts.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	ginLog, flushGinLog := linebuf.Writer(func(line []byte) {
		log.Debug("gin: " + strings.TrimRight(string(line), "\n"))
	})
	defer flushGinLog()
	gin.DefaultWriter = ginLog
	gin.DefaultErrorWriter = ginLog

	md := &markdown.Converter{
		Highlighter: &hlclient.Client{Addr: opts.Highlight},
		Log:         log,
	}

	blogDir := filepath.Join(opts.Content, "blog-posts")
	photosDir := filepath.Join(opts.Content, "photos")

	blogStore := &blog.Store{Dir: blogDir, Markdown: md}
	if err := blogStore.Load(); err != nil {
		return errtrace.Errorf("load blog posts: %w", err)
	}

	photoStore := &photos.Store{Dir: photosDir, Markdown: md, Log: log}
	if err := photoStore.Load(ctx); err != nil {
		return errtrace.Errorf("load photos: %w", err)
	}

	server := site.Server{
		Blog:      blogStore,
		Photos:    photoStore,
		StaticDir: opts.Static,
		Log:       log,
	}
	router, err := server.Router()
	if err != nil {
		return errtrace.Wrap(err)
	}

	httpServer := &http.Server{
		Addr:    opts.Addr,
		Handler: router,
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("site listening", zap.String("addr", opts.Addr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return errtrace.Wrap(err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), _shutdownTimeout)
		defer cancel()
		return errtrace.Wrap(httpServer.Shutdown(shutdownCtx))
	})
	if opts.Watch {
		group.Go(func() error {
			watcher := site.Watcher{Log: log}
			return errtrace.Wrap(watcher.Watch(gctx, map[string]func() error{
				blogDir:   blogStore.Load,
				photosDir: func() error { return photoStore.Load(gctx) },
			}))
		})
	}

	return errtrace.Wrap(group.Wait())
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return errtrace.Wrap2(cfg.Build())
}
