package photos

import (
	"bytes"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"braces.dev/errtrace"
	"github.com/rwcarlsen/goexif/exif"
)

// altPrefix on the first line of a photo's UserComment
// marks that line as the image's alt text.
// The rest of the comment is the description.
const _altPrefix = "alt:"

// Coords is a GPS position in decimal degrees.
// The JSON field names feed the map scripts directly.
type Coords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Camera describes the camera and its settings for one photo.
type Camera struct {
	// Make and Model identify the camera.
	// When the model repeats the make as a prefix, the prefix is stripped.
	Make  string
	Model string

	// LensMake and LensModel identify the attached lens.
	// Either both are set or neither is.
	LensMake  string
	LensModel string

	// ISO is the PhotographicSensitivity value.
	ISO int

	FStop       float64
	FocalLength float64

	// Exposure is the exposure time, e.g. "1/30" or "2.5".
	Exposure string
}

// Meta is everything we pull out of a photo's EXIF block.
type Meta struct {
	// Title of the photo (ImageDescription). Required, ASCII.
	Title string

	// Description is the photo's markdown description (UserComment),
	// with any alt-text line already removed. Empty if not provided.
	Description string

	// AltText for the image, if the description's first line carried one.
	AltText string

	// Coords is where the photo was taken, if it was tagged.
	Coords *Coords

	Camera Camera

	// Taken is the wall-clock time the photo was taken (DateTimeOriginal).
	Taken time.Time
}

// ParseMeta extracts photo metadata from a JPEG's EXIF block.
//
// Tags that the site requires (title, camera settings, timestamp)
// produce errors when missing or malformed.
// GPS tags must be all present or all absent.
func ParseMeta(data []byte) (*Meta, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errtrace.Errorf("read exif data: %w", err)
	}

	title, err := photoTitle(x)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	description, altText, err := photoDescription(x)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	coords, err := gpsCoords(x)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	camera, err := cameraInfo(x)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	taken, err := takenTime(x)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	return &Meta{
		Title:       title,
		Description: description,
		AltText:     altText,
		Coords:      coords,
		Camera:      camera,
		Taken:       taken,
	}, nil
}

// photoTitle reads the photo's title from the ImageDescription tag.
//
// Despite its name, ImageDescription holds the image's title;
// longer prose goes in UserComment.
func photoTitle(x *exif.Exif) (string, error) {
	title, ok, err := asciiField(x, exif.ImageDescription)
	if err != nil {
		return "", errtrace.Errorf("read ImageDescription tag: %w", err)
	}
	if !ok {
		return "", errtrace.New("missing ImageDescription tag")
	}
	return title, nil
}

// photoDescription reads the markdown description and optional alt text
// from the UserComment tag.
//
// UserComment is an Undefined-typed tag: its first 8 bytes declare
// the character encoding of the rest.
// ASCII and little-endian UTF-16 are supported.
func photoDescription(x *exif.Exif) (description, altText string, _ error) {
	tag, err := x.Get(exif.UserComment)
	if err != nil {
		if exif.IsTagNotPresentError(err) {
			return "", "", nil
		}
		return "", "", errtrace.Errorf("read UserComment tag: %w", err)
	}

	raw := tag.Val
	if len(raw) == 0 {
		return "", "", nil
	}
	if len(raw) < 8 {
		return "", "", errtrace.Errorf("UserComment tag too short for a character code: %q", raw)
	}

	var text string
	switch code := string(raw[:8]); code {
	case "ASCII\x00\x00\x00":
		text = string(raw[8:])
	case "UNICODE\x00":
		body := raw[8:]
		if len(body)%2 != 0 {
			return "", "", errtrace.New("odd length on UserComment tag's UTF-16 content")
		}
		u16 := make([]uint16, len(body)/2)
		for i := range u16 {
			u16[i] = uint16(body[i*2]) | uint16(body[i*2+1])<<8
		}
		text = string(utf16.Decode(u16))
	default:
		return "", "", errtrace.Errorf("unsupported character code %q for UserComment tag", code)
	}
	if text == "" {
		return "", "", nil
	}

	if !strings.HasPrefix(text, _altPrefix) {
		return text, "", nil
	}

	firstLine, rest, ok := strings.Cut(text, "\n")
	if !ok {
		// A lone alt-text line means there's no description at all.
		return "", text, nil
	}
	return rest, strings.TrimPrefix(firstLine, _altPrefix), nil
}

func cameraInfo(x *exif.Exif) (Camera, error) {
	var c Camera

	camMake, ok, err := asciiField(x, exif.Make)
	if err != nil {
		return c, errtrace.Errorf("read Make tag: %w", err)
	}
	if !ok {
		return c, errtrace.New("missing camera Make tag")
	}
	model, ok, err := asciiField(x, exif.Model)
	if err != nil {
		return c, errtrace.Errorf("read Model tag: %w", err)
	}
	if !ok {
		return c, errtrace.New("missing camera Model tag")
	}
	// Most cameras repeat the make at the front of the model name.
	if rest, found := strings.CutPrefix(model, camMake); found {
		model = strings.TrimLeft(rest, " ")
	}
	c.Make, c.Model = camMake, model

	lensMake, haveMake, err := asciiField(x, exif.LensMake)
	if err != nil {
		return c, errtrace.Errorf("read LensMake tag: %w", err)
	}
	lensModel, haveModel, err := asciiField(x, exif.LensModel)
	if err != nil {
		return c, errtrace.Errorf("read LensModel tag: %w", err)
	}
	switch {
	case haveMake && haveModel:
		c.LensMake, c.LensModel = lensMake, lensModel
	case haveMake:
		return c, errtrace.New("found LensMake tag but no LensModel")
	case haveModel:
		return c, errtrace.New("found LensModel tag but no LensMake")
	}

	isoTag, err := x.Get(exif.ISOSpeedRatings)
	if err != nil {
		return c, errtrace.Errorf("read PhotographicSensitivity (ISO) tag: %w", err)
	}
	if c.ISO, err = isoTag.Int(0); err != nil {
		return c, errtrace.Errorf("read PhotographicSensitivity (ISO) tag: %w", err)
	}

	if c.FStop, err = ratField(x, exif.FNumber); err != nil {
		return c, errtrace.Errorf("read FNumber (f-stop) tag: %w", err)
	}
	if c.FocalLength, err = ratField(x, exif.FocalLength); err != nil {
		return c, errtrace.Errorf("read FocalLength tag: %w", err)
	}

	expTag, err := x.Get(exif.ExposureTime)
	if err != nil {
		return c, errtrace.Errorf("read ExposureTime tag: %w", err)
	}
	num, den, err := expTag.Rat2(0)
	if err != nil {
		return c, errtrace.Errorf("read ExposureTime tag: %w", err)
	}
	if num == 1 {
		c.Exposure = "1/" + strconv.FormatInt(den, 10)
	} else {
		c.Exposure = strconv.FormatFloat(float64(num)/float64(den), 'f', -1, 64)
	}

	return c, nil
}

// takenTime reads DateTimeOriginal, the time the shutter actually fired.
// The timestamp has no zone information; it's interpreted as UTC.
func takenTime(x *exif.Exif) (time.Time, error) {
	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, errtrace.Errorf("read DateTimeOriginal tag: %w", err)
	}
	s, err := tag.StringVal()
	if err != nil {
		return time.Time{}, errtrace.Errorf("read DateTimeOriginal tag: %w", err)
	}
	return errtrace.Wrap2(time.Parse("2006:01:02 15:04:05", strings.TrimSpace(s)))
}

// ratField reads the first rational of a tag as a float.
func ratField(x *exif.Exif, name exif.FieldName) (float64, error) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, errtrace.Wrap(err)
	}
	num, den, err := tag.Rat2(0)
	if err != nil {
		return 0, errtrace.Wrap(err)
	}
	return float64(num) / float64(den), nil
}

// gpsCoords reads the photo's position in decimal degrees.
// The four GPS tags must be all present or all absent.
func gpsCoords(x *exif.Exif) (*Coords, error) {
	lat, haveLat, err := gpsDecimal(x, exif.GPSLatitude)
	if err != nil {
		return nil, errtrace.Errorf("read GPSLatitude tag: %w", err)
	}
	lon, haveLon, err := gpsDecimal(x, exif.GPSLongitude)
	if err != nil {
		return nil, errtrace.Errorf("read GPSLongitude tag: %w", err)
	}
	latSign, haveLatRef, err := gpsRef(x, exif.GPSLatitudeRef, "N", "S")
	if err != nil {
		return nil, errtrace.Errorf("read GPSLatitudeRef tag: %w", err)
	}
	lonSign, haveLonRef, err := gpsRef(x, exif.GPSLongitudeRef, "E", "W")
	if err != nil {
		return nil, errtrace.Errorf("read GPSLongitudeRef tag: %w", err)
	}

	switch {
	case haveLat && haveLon && haveLatRef && haveLonRef:
		return &Coords{Lat: lat * latSign, Lon: lon * lonSign}, nil
	case !haveLat && !haveLon && !haveLatRef && !haveLonRef:
		return nil, nil
	default:
		var present []string
		for _, t := range []struct {
			have bool
			name string
		}{
			{haveLat, "GPSLatitude"},
			{haveLatRef, "GPSLatitudeRef"},
			{haveLon, "GPSLongitude"},
			{haveLonRef, "GPSLongitudeRef"},
		} {
			if t.have {
				present = append(present, t.name)
			}
		}
		return nil, errtrace.Errorf("partial GPS tags: have only %v", present)
	}
}

// gpsDecimal converts a degrees/minutes/seconds GPS tag to decimal degrees.
func gpsDecimal(x *exif.Exif, name exif.FieldName) (_ float64, ok bool, _ error) {
	tag, err := x.Get(name)
	if err != nil {
		if exif.IsTagNotPresentError(err) {
			return 0, false, nil
		}
		return 0, false, errtrace.Wrap(err)
	}
	if tag.Count != 3 {
		return 0, false, errtrace.Errorf("expected 3 rationals, found %d", tag.Count)
	}

	var parts [3]float64
	for i := range parts {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return 0, false, errtrace.Wrap(err)
		}
		parts[i] = float64(num) / float64(den)
	}
	return parts[0] + parts[1]/60 + parts[2]/3600, true, nil
}

// gpsRef turns a GPS direction tag into a sign: +1 for pos, -1 for neg.
func gpsRef(x *exif.Exif, name exif.FieldName, pos, neg string) (_ float64, ok bool, _ error) {
	tag, err := x.Get(name)
	if err != nil {
		if exif.IsTagNotPresentError(err) {
			return 0, false, nil
		}
		return 0, false, errtrace.Wrap(err)
	}

	switch s, err := tag.StringVal(); {
	case err != nil:
		return 0, false, errtrace.Wrap(err)
	case s == pos:
		return 1, true, nil
	case s == neg:
		return -1, true, nil
	default:
		return 0, false, errtrace.Errorf("expected either %q or %q, found %q", pos, neg, s)
	}
}

// asciiField extracts a non-empty ASCII string tag,
// reporting ok=false when the tag is absent.
func asciiField(x *exif.Exif, name exif.FieldName) (_ string, ok bool, _ error) {
	tag, err := x.Get(name)
	if err != nil {
		if exif.IsTagNotPresentError(err) {
			return "", false, nil
		}
		return "", false, errtrace.Wrap(err)
	}

	s, err := tag.StringVal()
	if err != nil {
		return "", false, errtrace.Wrap(err)
	}
	s = strings.TrimRight(s, "\x00")
	if s == "" {
		return "", false, errtrace.Errorf("empty %v field", name)
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return "", false, errtrace.Errorf("non-ASCII bytes in %v field: %q", name, s)
		}
	}
	return s, true, nil
}
