// Package photos loads the photo collection and its albums,
// and answers the queries the site's photo pages need.
package photos

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"braces.dev/errtrace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go.halloway.dev/website/internal/markdown"
	"go.halloway.dev/website/internal/urlpath"
)

const (
	// File inside the photos directory describing the albums.
	_albumsFile = "albums.json"

	// File inside the photos directory holding the default grid settings.
	_flexGridFile = "default-flex-grid-config.json"

	// Extension of the full-size images on disk.
	_fullExt = ".jpg"

	// The generated album holding every photo.
	// The albums file must not use this path.
	_allAlbumPath = "all"
	_allAlbumName = "All photos"
	_allAlbumDesc = "All of my photos on this site, each and every one"
)

// FavoritesAlbum is the path of the album whose members
// display as favorites and feed the site's preview sections.
const FavoritesAlbum = "favorites"

// Store holds the processed photo collection.
//
// [Store.Load] processes every image up front,
// small renditions included, and swaps the whole state in one shot.
type Store struct {
	// Dir is the directory holding the images and their metadata files.
	Dir string

	// Markdown renders album and photo descriptions.
	Markdown *markdown.Converter

	// Log reports loading progress.
	Log *zap.Logger

	// Concurrency bounds how many images are processed at once.
	// Defaults to GOMAXPROCS.
	Concurrency int

	state atomic.Pointer[photoState]
}

type photoState struct {
	albums   map[string]*Album
	ordered  AlbumsInOrder
	photos   map[string]*Photo
	byTime   []*Photo // ascending by taken time
	flexGrid FlexGridSettings
}

// AlbumsInOrder lists the hand-curated albums by kind,
// in the order the albums file gives them.
// Generated albums (day albums, "all") are not included.
type AlbumsInOrder struct {
	Albums    []*Album
	Days      []*Album
	Locations []*Album
}

// Load reads the albums file and every image in the store's directory,
// then replaces the current state with the result.
// On error the previous state, if any, stays in place.
//
// Every image must parse, every album reference must resolve,
// and every image gets its small rendition computed here,
// so a successful load means every photo page can be served.
func (s *Store) Load(ctx context.Context) error {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()

	flexGrid, err := LoadFlexGridSettings(filepath.Join(s.Dir, _flexGridFile))
	if err != nil {
		return errtrace.Wrap(err)
	}

	entries, err := s.readAlbumsFile()
	if err != nil {
		return errtrace.Wrap(err)
	}

	// Collect each photo's album memberships up front
	// so that dangling references fail before any image processing.
	parsed := make(map[string]parsedAlbum, len(entries))
	membership := make(map[string][]AlbumRef)
	for _, e := range entries {
		if e.Path == _allAlbumPath {
			return errtrace.Errorf("albums file uses reserved album path %q", _allAlbumPath)
		}
		if !urlpath.IsIdempotent(e.Path) {
			return errtrace.Errorf("bad album path %q: must URI encode to itself", e.Path)
		}
		if _, ok := parsed[e.Path]; ok {
			return errtrace.Errorf("duplicate album path %q", e.Path)
		}
		parsed[e.Path] = e.Album

		ref := AlbumRef{Path: e.Path, Name: e.Album.Name}
		for _, p := range e.Album.Photos {
			membership[p] = append(membership[p], ref)
		}
		// Cover images count as referenced even when they're not listed.
		if _, ok := membership[e.Album.CoverImg]; !ok {
			membership[e.Album.CoverImg] = nil
		}
	}

	paths, err := filepath.Glob(filepath.Join(s.Dir, "*"+_fullExt))
	if err != nil {
		return errtrace.Wrap(err)
	}
	type candidate struct {
		path string
		name string
		refs []AlbumRef
	}
	candidates := make([]candidate, len(paths))
	for i, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), _fullExt)
		if !urlpath.IsIdempotent(name) {
			return errtrace.Errorf("bad image file name %q: must URI encode to itself", name)
		}
		candidates[i] = candidate{path: path, name: name, refs: membership[name]}
		delete(membership, name)
	}
	if len(membership) > 0 {
		missing := make([]string, 0, len(membership))
		for name := range membership {
			missing = append(missing, name)
		}
		sort.Strings(missing)
		return errtrace.Errorf("images referenced in albums but not on disk: %v", missing)
	}
	if len(candidates) == 0 {
		return errtrace.New("no images found")
	}

	log.Info("processing photos",
		zap.Int("count", len(candidates)),
		zap.String("dir", s.Dir))

	var (
		dayMu     sync.Mutex
		dayAlbums = make(map[string]*dayAlbumBuilder)
	)
	photos := make([]*Photo, len(candidates))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency())
	for i, c := range candidates {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			photo, day, err := s.processPhoto(c.path, c.name, c.refs, parsed)
			if err != nil {
				return errtrace.Errorf("process photo %q: %w", c.name, err)
			}

			if day == nil {
				// No curated day album; file the photo under
				// a generated one for its date.
				dayMu.Lock()
				builder, ok := dayAlbums[dayPath(photo.Taken)]
				if !ok {
					builder = newDayAlbumBuilder(photo.Taken)
					if _, conflict := parsed[builder.path]; conflict {
						dayMu.Unlock()
						return errtrace.Errorf(
							"album path %q conflicts with a generated date album", builder.path)
					}
					dayAlbums[builder.path] = builder
				}
				builder.photos = append(builder.photos, photo)
				photo.Day = builder.ref()
				dayMu.Unlock()
			} else {
				photo.Day = *day
			}

			photos[i] = photo
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return errtrace.Wrap(err)
	}

	st, err := s.assemble(entries, parsed, photos, dayAlbums)
	if err != nil {
		return errtrace.Wrap(err)
	}
	st.flexGrid = flexGrid

	s.state.Store(st)
	log.Info("photos loaded",
		zap.Int("photos", len(photos)),
		zap.Int("albums", len(st.albums)),
		zap.Duration("took", time.Since(start)))
	return nil
}

func (s *Store) concurrency() int {
	if s.Concurrency > 0 {
		return s.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

func (s *Store) readAlbumsFile() ([]albumEntry, error) {
	path := filepath.Join(s.Dir, _albumsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errtrace.Errorf("read albums file: %w", err)
	}

	var entries []albumEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errtrace.Errorf("parse albums file %v: %w", path, err)
	}
	return entries, nil
}

// processPhoto builds the Photo for one image file.
// The returned day ref is nil when no curated day album claims the photo.
func (s *Store) processPhoto(
	path, name string,
	refs []AlbumRef,
	albums map[string]parsedAlbum,
) (*Photo, *AlbumRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errtrace.Wrap(err)
	}

	meta, err := ParseMeta(data)
	if err != nil {
		return nil, nil, errtrace.Errorf("photo metadata: %w", err)
	}

	small, err := makeDerivative(data)
	if err != nil {
		return nil, nil, errtrace.Errorf("small rendition: %w", err)
	}

	// A photo gets at most one location and one curated day album;
	// everything else stays in the plain membership list.
	var (
		location *AlbumRef
		day      *AlbumRef
		rest     []AlbumRef
	)
	for _, ref := range refs {
		switch kindOf(albums, ref.Path) {
		case KindLocation:
			if location != nil {
				return nil, nil, errtrace.New("photo is in multiple location albums")
			}
			location = &ref
		case KindDay:
			if day != nil {
				return nil, nil, errtrace.New("photo is in multiple day albums")
			}
			day = &ref
		default:
			rest = append(rest, ref)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Name < rest[j].Name })

	isFavorite := false
	for i, ref := range rest {
		if ref.Path == FavoritesAlbum {
			isFavorite = true
			rest = append(rest[:i], rest[i+1:]...)
			break
		}
	}

	var descriptionHTML string
	if meta.Description != "" {
		descriptionHTML, err = s.Markdown.ConvertString(meta.Description)
		if err != nil {
			return nil, nil, errtrace.Errorf("render description: %w", err)
		}
	}

	return &Photo{
		Name:            name,
		Title:           meta.Title,
		DescriptionHTML: template.HTML(descriptionHTML),
		AltText:         meta.AltText,
		Coords:          meta.Coords,
		Camera:          meta.Camera,
		Taken:           meta.Taken,
		IsFavorite:      isFavorite,
		Albums:          rest,
		Location:        location,
		Small:           small,
		FullHash:        hashBytes(data),
	}, day, nil
}

func kindOf(albums map[string]parsedAlbum, path string) AlbumKind {
	if a, ok := albums[path]; ok && a.Kind != nil {
		return a.Kind.Kind
	}
	return KindPlain
}

// assemble resolves photo references into the final album set.
func (s *Store) assemble(
	entries []albumEntry,
	parsed map[string]parsedAlbum,
	photos []*Photo,
	dayAlbums map[string]*dayAlbumBuilder,
) (*photoState, error) {
	byName := make(map[string]*Photo, len(photos))
	for _, p := range photos {
		byName[p.Name] = p
	}

	albums := make(map[string]*Album, len(entries)+len(dayAlbums)+1)
	var ordered AlbumsInOrder

	for _, e := range entries {
		pa := parsed[e.Path]

		descriptionHTML, err := s.Markdown.ConvertString(pa.Description)
		if err != nil {
			return nil, errtrace.Errorf("render description of album %q: %w", e.Path, err)
		}

		members := make([]*Photo, len(pa.Photos))
		for i, name := range pa.Photos {
			members[i] = byName[name]
		}
		if pa.Display == fromLast {
			for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
				members[i], members[j] = members[j], members[i]
			}
		}

		a := &Album{
			Path:            e.Path,
			Name:            pa.Name,
			DescriptionHTML: template.HTML(descriptionHTML),
			Kind:            kindOf(parsed, e.Path),
			Cover:           byName[pa.CoverImg],
			Photos:          members,
		}
		albums[e.Path] = a

		switch a.Kind {
		case KindDay:
			ordered.Days = append(ordered.Days, a)
		case KindLocation:
			ordered.Locations = append(ordered.Locations, a)
		default:
			ordered.Albums = append(ordered.Albums, a)
		}
	}

	for path, builder := range dayAlbums {
		sort.Slice(builder.photos, func(i, j int) bool {
			return builder.photos[i].Taken.Before(builder.photos[j].Taken)
		})
		albums[path] = &Album{
			Path:            path,
			Name:            builder.name,
			DescriptionHTML: template.HTML("<p>Everything from " + builder.name + "</p>"),
			Kind:            KindDay,
			Cover:           builder.photos[0],
			Photos:          builder.photos,
		}
	}

	// The "all" album shows the newest photos first,
	// with the collection's midpoint as its cover.
	newestFirst := make([]*Photo, len(photos))
	copy(newestFirst, photos)
	sort.Slice(newestFirst, func(i, j int) bool {
		return newestFirst[i].Taken.After(newestFirst[j].Taken)
	})
	albums[_allAlbumPath] = &Album{
		Path:            _allAlbumPath,
		Name:            _allAlbumName,
		DescriptionHTML: template.HTML("<p>" + _allAlbumDesc + "</p>"),
		Kind:            KindAll,
		Cover:           newestFirst[len(newestFirst)/2],
		Photos:          newestFirst,
	}

	byTime := make([]*Photo, len(photos))
	copy(byTime, photos)
	sort.Slice(byTime, func(i, j int) bool {
		return byTime[i].Taken.Before(byTime[j].Taken)
	})

	return &photoState{
		albums:  albums,
		ordered: ordered,
		photos:  byName,
		byTime:  byTime,
	}, nil
}

func (s *Store) snapshot() *photoState {
	if st := s.state.Load(); st != nil {
		return st
	}
	return &photoState{}
}

// dayAlbumBuilder accumulates the photos of a generated day album.
type dayAlbumBuilder struct {
	path   string
	name   string
	photos []*Photo
}

func newDayAlbumBuilder(taken time.Time) *dayAlbumBuilder {
	return &dayAlbumBuilder{
		path: dayPath(taken),
		name: dayName(taken),
	}
}

func (b *dayAlbumBuilder) ref() AlbumRef {
	return AlbumRef{Path: b.path, Name: b.name}
}

// dayPath is the URL path of a date's generated album, e.g. "2021-12-18".
func dayPath(t time.Time) string {
	return t.Format("2006-01-02")
}

// dayName is the displayed name of a date's generated album,
// e.g. "18 December, 2021".
func dayName(t time.Time) string {
	return fmt.Sprintf("%d %s, %d", t.Day(), t.Month(), t.Year())
}
