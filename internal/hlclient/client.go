// Package hlclient is the rendering-side client of the highlight service.
//
// Each call opens one connection, sends one request,
// and reads the single response before the server closes the connection.
// Connections are deliberately not reused;
// that matches the service's one-request-per-connection contract.
package hlclient

import (
	"context"
	"net"
	"time"

	"braces.dev/errtrace"

	"go.halloway.dev/website/internal/hlproto"
)

// DefaultAddr is where the highlight service listens by convention.
const DefaultAddr = "localhost:8001"

// DefaultTimeout bounds a whole highlight round trip
// when the caller provides no deadline of its own.
const DefaultTimeout = 10 * time.Second

// Client highlights code by talking to a running highlight service.
// The zero value talks to [DefaultAddr].
type Client struct {
	// Addr is the TCP address of the highlight service.
	Addr string

	// Timeout bounds each round trip
	// if the context carries no deadline.
	// Defaults to [DefaultTimeout].
	Timeout time.Duration
}

// Highlight sends code to the service
// and returns the highlighted HTML markup.
//
// A failure response from the server is returned as an error
// carrying the server's message.
func (c *Client) Highlight(ctx context.Context, language, code string) (string, error) {
	addr := c.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	if _, ok := ctx.Deadline(); !ok {
		timeout := c.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", errtrace.Errorf("connect to highlight service at %s: %w", addr, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return "", errtrace.Wrap(err)
		}
	}

	req := hlproto.Request{Code: code, Language: language}
	if err := hlproto.WriteRequest(conn, &req); err != nil {
		return "", errtrace.Errorf("send highlight request: %w", err)
	}

	resp, err := hlproto.ReadResponse(conn)
	if err != nil {
		return "", errtrace.Errorf("read highlight response: %w", err)
	}

	return errtrace.Wrap2(resp.Result())
}

// HighlightCode implements the markdown renderer's highlighter contract
// using a background context.
func (c *Client) HighlightCode(language, code string) (string, error) {
	return errtrace.Wrap2(c.Highlight(context.Background(), language, code))
}
