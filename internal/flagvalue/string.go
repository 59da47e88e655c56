package flagvalue

// String is a plain string flag.Getter,
// useful as the element type of a [List].
type String string

// Get returns the stored string.
func (s *String) Get() any { return string(*s) }

func (s *String) String() string { return string(*s) }

// Set receives the value for this flag.
func (s *String) Set(v string) error {
	*s = String(v)
	return nil
}

// Strings converts a list of String values to a plain string slice.
func Strings(vs []String) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}
