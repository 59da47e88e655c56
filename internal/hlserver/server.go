package hlserver

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"braces.dev/errtrace"
	"go.uber.org/zap"

	"go.halloway.dev/website/internal/hlproto"
)

// RequestHandler turns a parsed request into the response to send back.
type RequestHandler interface {
	Handle(*hlproto.Request) *hlproto.Response
}

var _ RequestHandler = (*Handler)(nil)

// Server accepts highlight connections and serves them,
// one goroutine per connection.
type Server struct {
	// Handler answers individual requests. Required.
	Handler RequestHandler

	// Log records per-connection outcomes.
	// Defaults to a no-op logger.
	Log *zap.Logger
}

// Serve accepts connections from lis until ctx is canceled,
// then waits for in-flight connections to finish.
//
// The listener is closed before Serve returns.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}

	// Unblocks Accept when the context ends.
	stop := context.AfterFunc(ctx, func() {
		_ = lis.Close()
	})
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return errtrace.Wrap(err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(log, conn)
		}()
	}
}

// serveConn runs one connection's full lifecycle:
// read a NUL-terminated request, reply once, close.
func (s *Server) serveConn(log *zap.Logger, conn net.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	log = log.With(zap.Stringer("remote", conn.RemoteAddr()))

	frame, err := hlproto.ReadFrame(conn)
	if err != nil {
		// The peer went away mid-request.
		// There is nobody to respond to; just release the connection.
		if !errors.Is(err, io.EOF) {
			log.Warn("read request", zap.Error(err))
		}
		return
	}

	var resp *hlproto.Response
	req, err := hlproto.ParseRequest(frame)
	if err != nil {
		resp = hlproto.Fail("could not parse request: " + err.Error())
	} else {
		resp = s.Handler.Handle(req)
	}

	if err := hlproto.WriteResponse(conn, resp); err != nil {
		log.Warn("write response", zap.Error(err))
		return
	}

	if resp.Failure != nil {
		log.Info("request failed", zap.String("reason", *resp.Failure))
	}
}
