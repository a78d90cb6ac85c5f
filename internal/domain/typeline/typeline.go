// Package typeline classifies a card's type line into super-types,
// card-types and sub-types.
package typeline

import (
	"slices"
	"strings"
)

const (
	// Dash separates the type segment from the sub-type segment (U+2014).
	Dash = "—"
	// FaceSeparator joins the faces of a multi-face card.
	FaceSeparator = " // "
)

// superTypes is the closed super-type vocabulary.
var superTypes = map[string]struct{}{ //nolint:gochecknoglobals // read-only vocabulary
	"Legendary": {},
	"Basic":     {},
	"Snow":      {},
	"World":     {},
	"Ongoing":   {},
}

// Parsed is the classified form of a type line. Each slice keeps first
// occurrence order and holds no duplicates.
type Parsed struct {
	SuperTypes []string `json:"super_types"`
	CardTypes  []string `json:"card_types"`
	SubTypes   []string `json:"sub_types"`
}

// HasSuperType reports whether t is among the super-types.
func (p Parsed) HasSuperType(t string) bool { return slices.Contains(p.SuperTypes, t) }

// HasCardType reports whether t is among the card-types.
func (p Parsed) HasCardType(t string) bool { return slices.Contains(p.CardTypes, t) }

// HasSubType reports whether t is among the sub-types.
func (p Parsed) HasSubType(t string) bool { return slices.Contains(p.SubTypes, t) }

// IsSuperType reports whether token belongs to the super-type vocabulary.
func IsSuperType(token string) bool {
	_, ok := superTypes[token]
	return ok
}

// Parse classifies line. Only the front face of a multi-face line is
// considered. Any non-blank input parses.
func Parse(line string) (Parsed, error) {
	if strings.TrimSpace(line) == "" {
		return Parsed{}, ErrMalformedTypeLine
	}
	if i := strings.Index(line, FaceSeparator); i >= 0 {
		line = line[:i]
	}

	head, tail, _ := strings.Cut(line, Dash)
	p := Parsed{
		SuperTypes: []string{},
		CardTypes:  []string{},
		SubTypes:   []string{},
	}
	for _, tok := range strings.Fields(head) {
		if IsSuperType(tok) {
			p.SuperTypes = appendUnique(p.SuperTypes, tok)
		} else {
			p.CardTypes = appendUnique(p.CardTypes, tok)
		}
	}
	for _, tok := range strings.Fields(tail) {
		p.SubTypes = appendUnique(p.SubTypes, tok)
	}
	return p, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(line string) Parsed {
	p, err := Parse(line)
	if err != nil {
		panic(err)
	}
	return p
}

func appendUnique(s []string, v string) []string {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}
