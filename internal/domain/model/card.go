// Package model contains domain models passed between layers.
package model

import (
	"strings"
)

// ColorSymbol is one of the five colored mana symbols.
type ColorSymbol string

// Color symbols in canonical WUBRG order.
const (
	White ColorSymbol = "W"
	Blue  ColorSymbol = "U"
	Black ColorSymbol = "B"
	Red   ColorSymbol = "R"
	Green ColorSymbol = "G"
)

// AllColors lists the color symbols in canonical order.
var AllColors = []ColorSymbol{White, Blue, Black, Red, Green} //nolint:gochecknoglobals // read-only table

// ParseColors extracts color symbols from a stored representation such as
// "W,U", "{W}{U}", "['W', 'U']" or "WU". Unknown characters are ignored and
// the result is de-duplicated in canonical order. Colorless is the empty set.
func ParseColors(raw string) []ColorSymbol {
	seen := make(map[ColorSymbol]bool, len(AllColors))
	for _, r := range strings.ToUpper(raw) {
		switch c := ColorSymbol(string(r)); c {
		case White, Blue, Black, Red, Green:
			seen[c] = true
		}
	}
	out := make([]ColorSymbol, 0, len(seen))
	for _, c := range AllColors {
		if seen[c] {
			out = append(out, c)
		}
	}
	return out
}

// Card is a catalog record. Optional attributes are pointers; nil means the
// catalog has no value for this card.
type Card struct {
	ID             int64  // catalog id; catalog order is ascending ID
	ScryfallID     string // upstream identifier
	Name           string // unique key
	OracleText     *string
	ManaCost       string
	CMC            float64
	TypeLine       string
	Colors         []ColorSymbol
	ColorIdentity  []ColorSymbol
	Power          *string
	Toughness      *string
	CommanderLegal bool
	SetCode        string
	Rarity         string
	EDHRecRank     *int
	Prices         string // raw JSON as stored
}

// HasOracleText reports whether the card carries non-blank rules text.
func (c Card) HasOracleText() bool {
	return c.OracleText != nil && strings.TrimSpace(*c.OracleText) != ""
}

// Commander is a card with an EDHREC commander page.
type Commander struct {
	ID         int64  // edhrec commander row id
	Slug       string // sanitized name as stored, e.g. "atraxa-praetors-voice"
	CardName   string
	CardID     int64
	ScryfallID string
}

// RelatedCard is a card seen in a commander's decks together with the
// relation statistics recorded for the pair.
type RelatedCard struct {
	Card
	Percentage   float64
	NumDecks     int
	SynergyScore float64
}

// Relation carries the pair statistics when a parsed card has them.
type Relation struct {
	Percentage   float64 `json:"percentage"`
	NumDecks     int     `json:"num_decks"`
	SynergyScore float64 `json:"synergy_score"`
}

// Str returns a pointer to s. Handy for building cards in code and tests.
func Str(s string) *string { return &s }
