// Package timefmt renders timestamps in the site's house formats.
//
// Everything user-visible goes through one of these functions
// so that dates look the same on every page.
package timefmt

import "time"

// Date renders just the calendar date, e.g. "Nov 7, 2021".
func Date(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// DateTime renders the full timestamp with its UTC offset,
// e.g. "13:27:45 Nov 07 2021 -08:00".
func DateTime(t time.Time) string {
	return t.Format("15:04:05 Jan 02 2006 -07:00")
}

// LocalTime renders the wall-clock time, e.g. "13:27:45".
func LocalTime(t time.Time) string {
	return t.Format("15:04:05")
}

// Offset renders just the UTC offset, e.g. "-08:00".
func Offset(t time.Time) string {
	return t.Format("-07:00")
}
