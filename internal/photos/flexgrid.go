package photos

import (
	"encoding/json"
	"html/template"
	"os"

	"braces.dev/errtrace"
	"go.halloway.dev/website/internal/must"
)

// FlexGridSettings parameterizes the photo grid layout script.
// The JSON field names match the script's constructor options,
// so a marshaled value can be passed to it directly.
type FlexGridSettings struct {
	// MinColumns and MaxColumns bound the number of grid columns.
	MinColumns uint `json:"minColumns"`
	MaxColumns uint `json:"maxColumns"`

	// MinColumnWidth is the narrowest allowed column, in pixels.
	MinColumnWidth uint `json:"minColumnWidth"`

	// ColumnWidthRange is the range of column widths
	// the user can pick between.
	ColumnWidthRange Range `json:"columnWidthRange"`

	// Padding between grid items, in pixels.
	Padding uint `json:"padding"`

	// MaxColumnCrop bounds how much a single dimension may be cropped
	// to produce multi-column items.
	MaxColumnCrop float64 `json:"maxColumnCrop"`

	// MaxMultiCrop bounds the cropping of multi-column items
	// to fit them under MaxMultiColumnHeightMultiplier.
	MaxMultiCrop float64 `json:"maxMultiCrop"`

	// MaxMultiColumnHeightMultiplier bounds the height of
	// multi-column items, as a multiple of a single column's width.
	// Zero disables multi-column items.
	MaxMultiColumnHeightMultiplier float64 `json:"maxMultiColumnHeightMultiplier"`

	// MaxSequentialMulti bounds how many multi-column images
	// may stack over the same columns in a row. Must be positive.
	MaxSequentialMulti uint `json:"maxSequentialMulti"`
}

// Range is a half-open interval, [Start, End).
type Range struct {
	Start uint `json:"start"`
	End   uint `json:"end"`
}

// LoadFlexGridSettings reads grid settings from a JSON file.
func LoadFlexGridSettings(path string) (FlexGridSettings, error) {
	var settings FlexGridSettings

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, errtrace.Errorf("read grid settings: %w", err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return settings, errtrace.Errorf("parse grid settings in %v: %w", path, err)
	}
	return settings, nil
}

// JS renders the settings as a Javascript object literal
// for embedding into a page.
func (s FlexGridSettings) JS() template.JS {
	data, err := json.Marshal(s)
	must.NotErrorf(err, "marshal grid settings")
	return template.JS(data)
}
