// Package highlight provides support to highlight source code blocks.
// It uses the Chroma library to do this work.
//
// The set of recognized languages is fixed when a [Registry] is built.
// Grammars are never added or removed afterwards,
// so a Registry is safe for concurrent use without synchronization.
package highlight
