// Package hlproto defines the wire protocol spoken by the highlight service.
//
// A request is a single UTF-8 JSON object followed by one NUL byte (0x00).
// The NUL byte is the sole framing mechanism; there is no length prefix.
// A response is a single JSON object followed by a newline,
// after which the server closes the connection.
// Exactly one request and one response travel over each connection.
package hlproto
