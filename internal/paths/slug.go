// Package paths turns taxon names into URL- and shell-friendly slug paths
// such as "animalia/chordata/mammalia/felis-catus".
package paths

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	maxSlugLen  = 255
)

// NormalizeSlug normalizes a taxon name to a slug.
// Rules:
// - Always lower-case
// - Spaces, underscores and dots become hyphens; runs of hyphens collapse
// - Allowed characters: a-z, 0-9, -
// - Must start with [a-z0-9]
// - Max length: 255 bytes
func NormalizeSlug(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("slug cannot be empty")
	}

	s = strings.ToLower(s)

	var result strings.Builder
	lastHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			result.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '_' || r == '.' || r == '-':
			if !lastHyphen {
				result.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	s = strings.Trim(result.String(), "-")

	if s == "" {
		return "", fmt.Errorf("slug must contain at least one alphanumeric character")
	}
	if len(s) > maxSlugLen {
		return "", fmt.Errorf("slug exceeds maximum length of %d bytes", maxSlugLen)
	}
	if !slugPattern.MatchString(s) {
		return "", fmt.Errorf("invalid slug format: %s", s)
	}

	return s, nil
}

// Slug is NormalizeSlug for display paths: names that cannot be slugged
// fall back to their lower-cased, trimmed form.
func Slug(name string) string {
	s, err := NormalizeSlug(name)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(name))
	}
	return s
}

// MatchSlug reports whether a path segment names the taxon, either by slug
// or by its literal name (case-insensitive).
func MatchSlug(segment, name string) bool {
	if strings.EqualFold(segment, name) {
		return true
	}
	return Slug(segment) == Slug(name)
}

// SlugPath joins the slugs of a lineage.
func SlugPath(names []string) string {
	slugs := make([]string, len(names))
	for i, name := range names {
		slugs[i] = Slug(name)
	}
	return JoinPath(slugs...)
}

// SplitPath splits a path into segments
func SplitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// JoinPath joins path segments
func JoinPath(segments ...string) string {
	return strings.Join(segments, "/")
}
