package photos

import (
	"encoding/json"
	"html/template"

	"braces.dev/errtrace"
)

// AlbumKind classifies an album.
type AlbumKind int

const (
	// KindPlain is an ordinary, hand-curated album.
	KindPlain AlbumKind = iota

	// KindLocation groups photos taken at one place.
	// A photo belongs to at most one location album.
	KindLocation

	// KindDay groups photos taken on one day.
	// Photos without an explicit day album get one generated
	// from their timestamp.
	KindDay

	// KindAll is the generated album holding every photo.
	KindAll
)

// Album is a displayed collection of photos.
type Album struct {
	// Path is the album's URL path segment.
	Path string

	// Name is the album's displayed name.
	Name string

	// DescriptionHTML describes the album, rendered from markdown.
	DescriptionHTML template.HTML

	Kind AlbumKind

	// Cover represents the album in listings.
	Cover *Photo

	// Photos in display order.
	Photos []*Photo
}

// AlbumRef is a lightweight pointer from a photo back to an album.
type AlbumRef struct {
	// Path is the album's URL path segment.
	Path string `json:"path"`

	// Name is the album's displayed name.
	Name string `json:"name"`
}

// albumEntry is one entry of the albums file,
// serialized as a two-element array: ["path", {...album...}].
type albumEntry struct {
	Path  string
	Album parsedAlbum
}

func (e *albumEntry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return errtrace.Wrap(err)
	}
	if len(pair) != 2 {
		return errtrace.Errorf("album entry must be a [path, album] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.Path); err != nil {
		return errtrace.Errorf("album entry path: %w", err)
	}
	if err := json.Unmarshal(pair[1], &e.Album); err != nil {
		return errtrace.Errorf("album %q: %w", e.Path, err)
	}
	return nil
}

// parsedAlbum is an album as written in the albums file.
// Photos are referenced by file stem
// and resolved when the store loads.
type parsedAlbum struct {
	Name        string        `json:"name"`
	Kind        *parsedKind   `json:"kind"`
	Display     displayOrder  `json:"display"`
	Description string        `json:"description"`
	CoverImg    string        `json:"cover_img"`
	Photos      []string      `json:"photos"`
}

// parsedKind is the albums file's kind field:
// the string "location", or an object {"day": "..."}.
type parsedKind struct {
	Kind AlbumKind
}

func (k *parsedKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "location" {
			return errtrace.Errorf("unknown album kind %q", s)
		}
		k.Kind = KindLocation
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return errtrace.Errorf("album kind must be a string or an object: %w", err)
	}
	if _, ok := obj["day"]; !ok || len(obj) != 1 {
		return errtrace.Errorf("unknown album kind object %s", data)
	}
	k.Kind = KindDay
	return nil
}

// displayOrder says which end of the photos list displays first.
type displayOrder int

const (
	fromFirst displayOrder = iota
	fromLast
)

func (d *displayOrder) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errtrace.Wrap(err)
	}
	switch s {
	case "from_first":
		*d = fromFirst
	case "from_last":
		*d = fromLast
	default:
		return errtrace.Errorf("unknown display order %q", s)
	}
	return nil
}
