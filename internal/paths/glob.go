package paths

import (
	"path"
	"strings"
)

// MatchGlob checks if a slug path matches a glob pattern.
// Supports *, ?, [..] within a segment and ** across segments.
func MatchGlob(pattern, slugPath string) bool {
	if !strings.Contains(pattern, "**") {
		matched, err := path.Match(pattern, slugPath)
		return err == nil && matched
	}
	return matchParts(SplitPath(pattern), SplitPath(slugPath))
}

func matchParts(patternParts, pathParts []string) bool {
	if len(patternParts) == 0 {
		return len(pathParts) == 0
	}

	if patternParts[0] == "**" {
		// ** matches zero or more segments
		if matchParts(patternParts[1:], pathParts) {
			return true
		}
		return len(pathParts) > 0 && matchParts(patternParts, pathParts[1:])
	}

	if len(pathParts) == 0 {
		return false
	}
	matched, err := path.Match(patternParts[0], pathParts[0])
	if err != nil || !matched {
		return false
	}
	return matchParts(patternParts[1:], pathParts[1:])
}

// IsGlobPattern checks if a string contains glob characters
func IsGlobPattern(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
