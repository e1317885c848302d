package taxon

import (
	"fmt"
	"strings"
)

// Rank is one of the fixed taxonomic levels, ordered from the root down.
type Rank int

const (
	RankDomain Rank = iota
	RankKingdom
	RankPhylum
	RankClass
	RankOrder
	RankFamily
	RankGenus
	RankSpecies
)

var rankNames = [...]string{
	RankDomain:  "domain",
	RankKingdom: "kingdom",
	RankPhylum:  "phylum",
	RankClass:   "class",
	RankOrder:   "order",
	RankFamily:  "family",
	RankGenus:   "genus",
	RankSpecies: "species",
}

// Ranks returns every rank in hierarchy order.
func Ranks() []Rank {
	return []Rank{RankDomain, RankKingdom, RankPhylum, RankClass, RankOrder, RankFamily, RankGenus, RankSpecies}
}

// LineageRanks returns the ranks a specimen record can carry (everything below domain).
func LineageRanks() []Rank {
	return Ranks()[1:]
}

// ParseRank parses a lower-case rank name.
func ParseRank(s string) (Rank, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range rankNames {
		if name == s {
			return Rank(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rank: %q", s)
}

// Valid reports whether r is one of the defined ranks.
func (r Rank) Valid() bool {
	return r >= RankDomain && r <= RankSpecies
}

// Next returns the rank immediately below r. The second result is false for species.
func (r Rank) Next() (Rank, bool) {
	if !r.Valid() || r == RankSpecies {
		return r, false
	}
	return r + 1, true
}

func (r Rank) String() string {
	if !r.Valid() {
		return fmt.Sprintf("rank(%d)", int(r))
	}
	return rankNames[r]
}

// MarshalText encodes the rank by name so JSON and YAML output stay readable.
func (r Rank) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rank %d", int(r))
	}
	return []byte(rankNames[r]), nil
}

func (r *Rank) UnmarshalText(text []byte) error {
	parsed, err := ParseRank(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
