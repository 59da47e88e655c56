package photos

import (
	"html/template"
	"time"

	"go.halloway.dev/website/internal/timefmt"
)

// Photo is a fully processed photo: metadata, album membership,
// and the small rendition ready to serve.
type Photo struct {
	// Name is the photo's file stem and its URL path segment.
	Name string

	// Title of the photo, from its EXIF block.
	Title string

	// DescriptionHTML is the photo's description, rendered from markdown.
	// Empty if the photo has none.
	DescriptionHTML template.HTML

	// AltText for the image, if provided.
	AltText string

	// Coords is where the photo was taken, if tagged.
	Coords *Coords

	Camera Camera

	// Taken is when the shutter fired.
	Taken time.Time

	// IsFavorite is set for members of the favorites album.
	IsFavorite bool

	// Albums lists the photo's ordinary albums, sorted by name.
	// The favorites, location, and day albums are split out.
	Albums []AlbumRef

	// Location is the photo's location album, if it has one.
	Location *AlbumRef

	// Day is the photo's day album.
	Day AlbumRef

	// Small is the scaled-down rendition, held in memory.
	Small *Derivative

	// FullHash is the cache-busting hash of the full image file.
	FullHash string
}

// TakenDate renders the photo's date for display, e.g. "Nov 7, 2021".
func (p *Photo) TakenDate() string {
	return timefmt.Date(p.Taken)
}

// TakenLocalTime renders the photo's wall-clock time, e.g. "13:27:45".
func (p *Photo) TakenLocalTime() string {
	return timefmt.LocalTime(p.Taken)
}

// TakenOffset renders the timestamp's UTC offset, e.g. "+00:00".
func (p *Photo) TakenOffset() string {
	return timefmt.Offset(p.Taken)
}
