// Package urlpath inspects strings destined for URL paths.
package urlpath

// IsIdempotent reports whether s percent-encodes to itself:
// every character is one of RFC 3986's unreserved characters
// (ALPHA, DIGIT, '-', '.', '_', '~').
//
// Names that pass this check can be embedded in a URL
// without any encoding step, and the URL stays readable.
func IsIdempotent(s string) bool {
	for _, c := range s {
		switch {
		case 'A' <= c && c <= 'Z',
			'a' <= c && c <= 'z',
			'0' <= c && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
		default:
			return false
		}
	}
	return true
}
