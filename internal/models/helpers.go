package models

import (
	"regexp"
	"strings"
)

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[-\s_]+`)
)

// maxSlugLength bounds slugs used in output filenames.
const maxSlugLength = 80

// Slugify turns a title or prompt into a lowercase, dash-separated filename fragment.
// Long inputs are cut at the last dash that keeps the result within maxSlugLength.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) <= maxSlugLength {
		return s
	}
	cut := s[:maxSlugLength]
	if i := strings.LastIndex(cut, "-"); i > 0 {
		cut = cut[:i]
	}
	return strings.Trim(cut, "-")
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 {
	return &f
}
