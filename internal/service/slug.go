package service

import (
	"regexp"
	"strings"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces   = regexp.MustCompile(`[-\s]+`)
	validSlug    = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Slugify lowercases s, drops anything but ASCII letters, digits, spaces and
// hyphens, and joins the words with single hyphens.
func Slugify(s string) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(s), "")
	s = slugSpaces.ReplaceAllString(strings.TrimSpace(s), "-")
	return strings.Trim(s, "-_")
}
