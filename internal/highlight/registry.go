package highlight

import (
	"sort"
	"strings"

	"braces.dev/errtrace"
	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// DefaultLanguages is the set of languages loaded by the highlight
// service when no explicit list is given.
var DefaultLanguages = []string{
	"bash",
	"c",
	"c++",
	"css",
	"go",
	"haskell",
	"html",
	"javascript",
	"json",
	"python",
	"rust",
	"sql",
	"toml",
	"typescript",
	"yaml",
}

// Registry holds the grammars for a fixed set of languages.
//
// Build one with [NewRegistry] before serving requests.
// Changing the supported set requires building a new Registry;
// there is deliberately no way to mutate one in place.
type Registry struct {
	byName map[string]chroma.Lexer
	names  []string
}

// NewRegistry loads a grammar for each of the named languages.
// Every grammar is registered under the requested name,
// its canonical Chroma name, and all of that grammar's aliases.
//
// Languages with no known grammar are an error:
// a service that silently dropped a configured language
// would report "no such language" for requests it was meant to serve.
func NewRegistry(languages []string) (*Registry, error) {
	byName := make(map[string]chroma.Lexer)
	names := make([]string, 0, len(languages))

	for _, name := range languages {
		lex := lexers.Get(name)
		if lex == nil {
			return nil, errtrace.Errorf("no grammar available for language %q", name)
		}
		lex = chroma.Coalesce(lex)

		cfg := lex.Config()
		byName[normalize(name)] = lex
		byName[normalize(cfg.Name)] = lex
		for _, alias := range cfg.Aliases {
			byName[normalize(alias)] = lex
		}

		names = append(names, normalize(name))
	}

	sort.Strings(names)
	return &Registry{byName: byName, names: names}, nil
}

// Lookup finds the grammar registered for the given language name.
// Lookup is case-insensitive.
func (r *Registry) Lookup(language string) (chroma.Lexer, bool) {
	lex, ok := r.byName[normalize(language)]
	return lex, ok
}

// Names reports the languages the registry was built with, sorted.
// Aliases are not included.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

func normalize(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}
