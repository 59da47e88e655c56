// Package hlserver implements the highlight service:
// a TCP server that answers one NUL-terminated [hlproto.Request]
// per connection with exactly one [hlproto.Response], then closes.
//
// Connections are handled independently and concurrently.
// The only state shared between them is the immutable grammar registry.
package hlserver
