package blog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"braces.dev/errtrace"
	"go.halloway.dev/website/internal/markdown"
	"go.halloway.dev/website/internal/urlpath"
)

// Store holds every loaded blog post
// and answers the queries the site's pages need.
//
// [Store.Load] swaps the whole state in one shot,
// so readers always see a consistent set of posts.
type Store struct {
	// Dir is the directory holding the post files.
	Dir string

	// Markdown renders post bodies to HTML.
	Markdown *markdown.Converter

	state atomic.Pointer[blogState]
}

type blogState struct {
	byName map[string]*Post
	byTag  map[string][]*Post // newest first
	byTime []*Post            // newest first
	tags   []string           // sorted
}

// Load reads every post in the store's directory
// and replaces the current state with the result.
// On error the previous state, if any, stays in place.
func (s *Store) Load() error {
	paths, err := filepath.Glob(filepath.Join(s.Dir, "*.md"))
	if err != nil {
		return errtrace.Wrap(err)
	}

	st := blogState{
		byName: make(map[string]*Post),
		byTag:  make(map[string][]*Post),
	}
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".md")
		if !urlpath.IsIdempotent(name) {
			return errtrace.Errorf("bad post file name %q: must URI encode to itself", name)
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return errtrace.Wrap(err)
		}
		post, err := ParsePost(name, src, s.Markdown)
		if err != nil {
			return errtrace.Errorf("could not parse %v: %w", path, err)
		}

		st.byName[name] = post
		st.byTime = append(st.byTime, post)
		for _, tag := range post.Tags {
			st.byTag[tag] = append(st.byTag[tag], post)
		}
	}

	sort.Slice(st.byTime, func(i, j int) bool {
		return st.byTime[i].FirstPublished.After(st.byTime[j].FirstPublished)
	})
	for _, posts := range st.byTag {
		sort.Slice(posts, func(i, j int) bool {
			return posts[i].FirstPublished.After(posts[j].FirstPublished)
		})
	}
	st.tags = make([]string, 0, len(st.byTag))
	for tag := range st.byTag {
		st.tags = append(st.tags, tag)
	}
	sort.Strings(st.tags)

	s.state.Store(&st)
	return nil
}

func (s *Store) snapshot() *blogState {
	if st := s.state.Load(); st != nil {
		return st
	}
	return &blogState{}
}

// IndexContext feeds the blog index page.
type IndexContext struct {
	// Posts holds every post, newest first.
	Posts []*Post

	// Tags holds every tag in use, sorted.
	Tags []string
}

// Index returns the context for the blog index page.
func (s *Store) Index() IndexContext {
	st := s.snapshot()
	return IndexContext{Posts: st.byTime, Tags: st.tags}
}

// Post returns the named post, if it exists.
func (s *Store) Post(name string) (*Post, bool) {
	post, ok := s.snapshot().byName[name]
	return post, ok
}

// TagContext feeds a tag's listing page.
type TagContext struct {
	Tag string

	// Posts holds the tag's posts, newest first.
	Posts []*Post
}

// Tag returns the context for the named tag's page,
// or false if no post carries the tag.
func (s *Store) Tag(name string) (TagContext, bool) {
	posts, ok := s.snapshot().byTag[name]
	return TagContext{Tag: name, Posts: posts}, ok
}

// Recent returns up to n posts, newest first.
func (s *Store) Recent(n int) []*Post {
	posts := s.snapshot().byTime
	if len(posts) > n {
		posts = posts[:n]
	}
	return posts
}
