package id

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	specimenIDPattern = regexp.MustCompile(`^S-\d{5,}$`)
	nodeIDPattern     = regexp.MustCompile(`^N-\d{5,}$`)
	uuidPattern       = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// Type represents the type of resource
type Type string

const (
	TypeSpecimen Type = "specimen"
	TypeNode     Type = "node"
)

// FormatSpecimen formats a catalog specimen friendly ID
func FormatSpecimen(seq int) string {
	return fmt.Sprintf("S-%05d", seq)
}

// FormatNode formats a tree node friendly ID. Node IDs are only stable for
// one build of the tree.
func FormatNode(index int) string {
	return fmt.Sprintf("N-%05d", index)
}

// Parse parses an ID string and returns the type and sequence number
func Parse(id string) (Type, int, error) {
	id = strings.TrimSpace(id)

	switch {
	case specimenIDPattern.MatchString(id):
		seq, err := strconv.Atoi(id[2:])
		if err != nil {
			return "", 0, fmt.Errorf("invalid specimen ID %s: %w", id, err)
		}
		return TypeSpecimen, seq, nil
	case nodeIDPattern.MatchString(id):
		seq, err := strconv.Atoi(id[2:])
		if err != nil {
			return "", 0, fmt.Errorf("invalid node ID %s: %w", id, err)
		}
		return TypeNode, seq, nil
	default:
		return "", 0, fmt.Errorf("invalid friendly ID format: %s", id)
	}
}

// IsUUID checks if a string is a valid UUID
func IsUUID(s string) bool {
	return uuidPattern.MatchString(strings.ToLower(s))
}

// IsFriendlyID checks if a string is a valid friendly ID
func IsFriendlyID(s string) bool {
	_, _, err := Parse(s)
	return err == nil
}
