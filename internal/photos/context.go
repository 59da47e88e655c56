package photos

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/url"
	"path/filepath"

	"go.halloway.dev/website/internal/must"
)

// MapView is the initial viewport of a photo map.
// The JSON field names feed the map script directly.
type MapView struct {
	CenteredAt Coords `json:"centeredAt"`
	ZoomLevel  int    `json:"zoomLevel"`
}

// JS renders the view as a Javascript object literal
// for embedding into a page.
func (v MapView) JS() template.JS {
	data, err := json.Marshal(v)
	must.NotErrorf(err, "marshal map view")
	return template.JS(data)
}

// The map of every photo opens on the Bay.
var _globalMapView = MapView{
	CenteredAt: Coords{Lat: 37.839, Lon: -122.396},
	ZoomLevel:  11,
}

// Zoom level for the single-photo map on each photo's page.
const _photoZoomLevel = 12

// IndexContext feeds the photos index page.
type IndexContext struct {
	// Favorites is the favorites album,
	// or nil if the albums file doesn't define one.
	Favorites *Album

	FlexGrid FlexGridSettings
}

// Index returns the context for the photos index page.
func (s *Store) Index() IndexContext {
	st := s.snapshot()
	return IndexContext{
		Favorites: st.albums[FavoritesAlbum],
		FlexGrid:  st.flexGrid,
	}
}

// Albums returns the curated albums in their file order, split by kind.
func (s *Store) Albums() AlbumsInOrder {
	return s.snapshot().ordered
}

// AlbumContext feeds a single album's page.
type AlbumContext struct {
	Album    *Album
	FlexGrid FlexGridSettings
}

// Album returns the context for the named album's page.
// Generated albums (dates, "all") resolve here too.
func (s *Store) Album(name string) (AlbumContext, bool) {
	st := s.snapshot()
	album, ok := st.albums[name]
	return AlbumContext{Album: album, FlexGrid: st.flexGrid}, ok
}

// ImagePage feeds a single photo's page.
type ImagePage struct {
	// AlbumPath is the album the photo is being browsed within,
	// or empty for the date-ordered stream.
	AlbumPath string

	Photo *Photo

	// Previous and Next are the photo's neighbors
	// within the browsed list, when they exist.
	Previous *Photo
	Next     *Photo

	// MapView centers on the photo, if it has coordinates.
	MapView *MapView
}

// ImagePage returns the page context for the named photo,
// browsed within the named album ("" for the date-ordered stream).
//
// When the album doesn't exist or doesn't contain the photo,
// redirect is the URL of the photo's plain view instead.
// ok is false when the photo itself doesn't exist.
func (s *Store) ImagePage(name, album string) (ctx *ImagePage, redirect string, ok bool) {
	st := s.snapshot()

	photo, ok := st.photos[name]
	if !ok {
		return nil, "", false
	}

	list := st.byTime
	if album != "" {
		a, ok := st.albums[album]
		if !ok {
			return nil, "/photos/view/" + url.PathEscape(name), true
		}
		list = a.Photos
	}

	idx := -1
	for i, p := range list {
		if p == photo {
			idx = i
			break
		}
	}
	if idx < 0 {
		// The photo exists but not in this album;
		// fall back to its plain view.
		return nil, "/photos/view/" + url.PathEscape(name), true
	}

	page := ImagePage{AlbumPath: album, Photo: photo}
	if idx > 0 {
		page.Previous = list[idx-1]
	}
	if idx+1 < len(list) {
		page.Next = list[idx+1]
	}
	if photo.Coords != nil {
		page.MapView = &MapView{CenteredAt: *photo.Coords, ZoomLevel: _photoZoomLevel}
	}
	return &page, "", true
}

// MapContext feeds the page mapping every located photo.
type MapContext struct {
	// Photos in the order they were taken.
	Photos []*Photo

	View MapView
}

// Map returns the context for the global photo map.
func (s *Store) Map() MapContext {
	return MapContext{
		Photos: s.snapshot().byTime,
		View:   _globalMapView,
	}
}

// Recent returns up to n favorite photos for preview sections.
func (s *Store) Recent(n int) []*Photo {
	favorites := s.snapshot().albums[FavoritesAlbum]
	if favorites == nil {
		return nil
	}
	photos := favorites.Photos
	if len(photos) > n {
		photos = photos[:n]
	}
	return photos
}

// Errors reported by [Store.Image].
var (
	ErrUnknownSize   = errors.New(`size must be "small" or "full"`)
	ErrImageNotFound = errors.New("no such image")
)

// ImageContent is the body of an image response.
// Either Path names a file on disk, or Data holds the bytes.
type ImageContent struct {
	Path string
	Data []byte
}

// ImageRedirect points a stale image URL at the current one.
type ImageRedirect struct {
	URL string

	// Permanent is set when the requested URL named an old revision;
	// revision-less requests get a temporary redirect,
	// since the photo's current revision can still change.
	Permanent bool
}

// Image resolves a request for an image file.
//
// Image URLs carry the content's hash in rev so they can be cached
// forever. Requests whose rev doesn't match the current content
// are redirected to the canonical URL. hasRev distinguishes
// an absent rev parameter from an empty one.
func (s *Store) Image(name, size, rev string, hasRev bool) (*ImageContent, *ImageRedirect, error) {
	var full bool
	switch size {
	case "full":
		full = true
	case "small":
		full = false
	default:
		return nil, nil, ErrUnknownSize
	}

	photo, ok := s.snapshot().photos[name]
	if !ok {
		return nil, nil, ErrImageNotFound
	}

	hash := photo.Small.Hash
	if full {
		hash = photo.FullHash
	}
	if rev != hash || !hasRev {
		return nil, &ImageRedirect{
			URL: "/photos/img-file/" + url.PathEscape(name) +
				"?size=" + size + "&rev=" + url.QueryEscape(hash),
			Permanent: hasRev,
		}, nil
	}

	if full {
		return &ImageContent{Path: s.fullPath(name)}, nil, nil
	}
	return &ImageContent{Data: photo.Small.Data}, nil, nil
}

func (s *Store) fullPath(name string) string {
	return filepath.Join(s.Dir, name+_fullExt)
}
