package hlserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	chroma "github.com/alecthomas/chroma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"go.halloway.dev/website/internal/highlight"
	"go.halloway.dev/website/internal/hlproto"
)

func TestHandler(t *testing.T) {
	t.Parallel()

	reg, err := highlight.NewRegistry([]string{"rust", "go"})
	require.NoError(t, err)

	h := Handler{
		Registry:    reg,
		Highlighter: &highlight.Highlighter{UseClasses: true},
	}

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		resp := h.Handle(&hlproto.Request{Code: "fn main() {}", Language: "rust"})
		require.NoError(t, resp.Validate())
		require.NotNil(t, resp.Success)
		assert.Contains(t, *resp.Success, "<span")
	})

	t.Run("unknown language", func(t *testing.T) {
		t.Parallel()

		resp := h.Handle(&hlproto.Request{Code: "x", Language: "cobol"})
		require.NotNil(t, resp.Failure)
		assert.Equal(t, "no such language recognized", *resp.Failure)
	})

	t.Run("highlighter panic", func(t *testing.T) {
		t.Parallel()

		panicky := Handler{
			Registry:    reg,
			Highlighter: highlighterFunc(func(chroma.Lexer, string) (string, error) {
				panic("pathological input")
			}),
		}

		resp := panicky.Handle(&hlproto.Request{Code: "x", Language: "go"})
		require.NotNil(t, resp.Failure)
		assert.Contains(t, *resp.Failure, "pathological input")
	})

	t.Run("highlighter error", func(t *testing.T) {
		t.Parallel()

		failing := Handler{
			Registry:    reg,
			Highlighter: highlighterFunc(func(chroma.Lexer, string) (string, error) {
				return "", errors.New("great sadness")
			}),
		}

		resp := failing.Handle(&hlproto.Request{Code: "x", Language: "go"})
		require.NotNil(t, resp.Failure)
		assert.Equal(t, "great sadness", *resp.Failure)
	})
}

type highlighterFunc func(chroma.Lexer, string) (string, error)

func (f highlighterFunc) Highlight(l chroma.Lexer, src string) (string, error) {
	return f(l, src)
}

// startServer runs a real server on a loopback port,
// returning its address. The server stops when the test ends.
func startServer(t *testing.T) string {
	t.Helper()

	reg, err := highlight.NewRegistry([]string{"rust", "go"})
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := Server{
		Handler: &Handler{
			Registry:    reg,
			Highlighter: &highlight.Highlighter{UseClasses: true},
		},
		Log: zaptest.NewLogger(t),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, srv.Serve(ctx, lis))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return lis.Addr().String()
}

// roundTrip sends raw request bytes and returns the full response line.
func roundTrip(t *testing.T, addr string, raw []byte) hlproto.Response {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, conn.Close())
	}()

	_, err = conn.Write(raw)
	require.NoError(t, err)

	data, err := io.ReadAll(conn)
	require.NoError(t, err, "server must close the connection after responding")
	assert.True(t, strings.HasSuffix(string(data), "\n"),
		"response must end with a newline")

	var resp hlproto.Response
	require.NoError(t, json.Unmarshal(data, &resp))
	require.NoError(t, resp.Validate())
	return resp
}

func TestServer_EndToEnd(t *testing.T) {
	t.Parallel()

	addr := startServer(t)

	t.Run("registered language", func(t *testing.T) {
		t.Parallel()

		resp := roundTrip(t, addr, []byte(`{"code": "fn main() {}", "language": "rust"}`+"\x00"))
		require.NotNil(t, resp.Success)
		assert.Contains(t, *resp.Success, "<span")
	})

	t.Run("unregistered language", func(t *testing.T) {
		t.Parallel()

		resp := roundTrip(t, addr, []byte(`{"code": "x", "language": "cobol"}`+"\x00"))
		require.NotNil(t, resp.Failure)
		assert.Equal(t, "no such language recognized", *resp.Failure)
	})

	t.Run("not json", func(t *testing.T) {
		t.Parallel()

		resp := roundTrip(t, addr, []byte("not json at all\x00"))
		require.NotNil(t, resp.Failure)
		assert.Contains(t, *resp.Failure, "could not parse request")
	})

	t.Run("chunked request matches single write", func(t *testing.T) {
		t.Parallel()

		raw := []byte(`{"code": "var x = 1", "language": "go"}` + "\x00")

		whole := roundTrip(t, addr, raw)

		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		defer conn.Close()

		// One byte at a time, with a pause to defeat coalescing.
		for _, b := range raw {
			_, err := conn.Write([]byte{b})
			require.NoError(t, err)
			time.Sleep(time.Millisecond)
		}

		data, err := io.ReadAll(conn)
		require.NoError(t, err)

		var chunked hlproto.Response
		require.NoError(t, json.Unmarshal(data, &chunked))
		assert.Equal(t, whole, chunked,
			"framing must be chunk-size-independent")
	})

	t.Run("disconnect before terminator", func(t *testing.T) {
		t.Parallel()

		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)

		_, err = conn.Write([]byte(`{"code": "fn`))
		require.NoError(t, err)
		require.NoError(t, conn.Close())

		// The next request must be unaffected.
		resp := roundTrip(t, addr, []byte(`{"code": "x", "language": "go"}`+"\x00"))
		assert.NotNil(t, resp.Success)
	})
}

func TestServer_ConcurrentConnections(t *testing.T) {
	t.Parallel()

	addr := startServer(t)

	// Interleave many connections with distinct payloads and check
	// that every response corresponds to its own request.
	const n = 16

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		marker := fmt.Sprintf("m%d_", i)

		wg.Add(1)
		go func() {
			defer wg.Done()

			raw, err := json.Marshal(hlproto.Request{
				Code:     "let " + marker + " = 1;",
				Language: "rust",
			})
			if !assert.NoError(t, err) {
				return
			}

			resp := roundTrip(t, addr, append(raw, 0))
			if assert.NotNil(t, resp.Success) {
				assert.Contains(t, *resp.Success, marker,
					"response delivered on the wrong connection")
			}
		}()
	}
	wg.Wait()
}
