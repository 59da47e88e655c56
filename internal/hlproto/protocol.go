package hlproto

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"braces.dev/errtrace"
	"go.halloway.dev/website/internal/must"
)

// Terminator marks the end of a request's byte stream.
const Terminator byte = 0x00

// Request asks the service to highlight a block of source text.
type Request struct {
	// Code is the source text to highlight. Arbitrary UTF-8.
	Code string `json:"code"`

	// Language names the grammar to highlight with.
	Language string `json:"language"`
}

// Response is the reply to a [Request]: a tagged union
// carrying either highlighted HTML or a human-readable error.
// Exactly one of the two variants is populated, never both.
type Response struct {
	Success *string `json:"success,omitempty"`
	Failure *string `json:"failure,omitempty"`
}

// Succeed builds a success response carrying the highlighted HTML.
func Succeed(html string) *Response {
	return &Response{Success: &html}
}

// Fail builds a failure response carrying the error description.
func Fail(msg string) *Response {
	return &Response{Failure: &msg}
}

// Validate reports an error unless exactly one variant is populated.
func (r *Response) Validate() error {
	switch {
	case r.Success != nil && r.Failure != nil:
		return errors.New("response carries both success and failure")
	case r.Success == nil && r.Failure == nil:
		return errors.New("response carries neither success nor failure")
	default:
		return nil
	}
}

// Result unpacks the response,
// turning the failure variant into an error.
func (r *Response) Result() (string, error) {
	if err := r.Validate(); err != nil {
		return "", errtrace.Wrap(err)
	}
	if r.Failure != nil {
		return "", errtrace.Errorf("server failed to highlight code: %s", *r.Failure)
	}
	return *r.Success, nil
}

// ReadFrame accumulates bytes from r until the NUL terminator,
// returning everything before it.
// The result is independent of how the bytes were chunked on the wire.
//
// An EOF before the terminator is a transport error, not a framing one:
// the peer went away mid-request and no reply should be attempted.
func ReadFrame(r io.Reader) ([]byte, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	frame, err := br.ReadBytes(Terminator)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return frame[:len(frame)-1], nil
}

// ParseRequest decodes a frame into a [Request].
// Anything that is not a JSON object with the expected shape is an error.
func ParseRequest(frame []byte) (*Request, error) {
	dec := json.NewDecoder(bytes.NewReader(frame))
	dec.DisallowUnknownFields()

	var req Request
	if err := dec.Decode(&req); err != nil {
		return nil, errtrace.Wrap(err)
	}
	if dec.More() {
		return nil, errtrace.New("trailing data after request object")
	}
	return &req, nil
}

// marshal encodes v without HTML escaping,
// so that highlighted markup survives the trip as-is.
// The trailing newline the encoder adds is stripped.
func marshal(v any) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	must.NotErrorf(enc.Encode(v), "marshal highlight message")
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}

// WriteRequest writes the request followed by the NUL terminator.
func WriteRequest(w io.Writer, req *Request) error {
	data := append(marshal(req), Terminator)
	_, err := w.Write(data)
	return errtrace.Wrap(err)
}

// WriteResponse writes the response followed by a newline.
func WriteResponse(w io.Writer, resp *Response) error {
	must.NotErrorf(resp.Validate(), "malformed highlight response")

	data := append(marshal(resp), '\n')
	_, err := w.Write(data)
	return errtrace.Wrap(err)
}

// ReadResponse consumes r to EOF and decodes the single response.
func ReadResponse(r io.Reader) (*Response, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errtrace.Wrap(err)
	}
	if err := resp.Validate(); err != nil {
		return nil, errtrace.Wrap(err)
	}
	return &resp, nil
}
