// Package types contains common types used across the application
package types

import (
	"github.com/okian/cardcognition/internal/domain/model"
	"github.com/okian/cardcognition/internal/domain/typeline"
)

// ParsedCard is a scored card with its type-line breakdown and, when the
// commander has an edge to it, the recorded relation statistics.
type ParsedCard struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	ManaCost   string          `json:"mana_cost"`
	CMC        float64         `json:"cmc"`
	TypeLine   string          `json:"type_line"`
	OracleText *string         `json:"oracle_text"`
	Colors     []string        `json:"colors"`
	Power      *string         `json:"power"`
	Toughness  *string         `json:"toughness"`
	Types      typeline.Parsed `json:"types"`
	Relation   *model.Relation `json:"relation,omitempty"`
	Unseen     []string        `json:"unseen_categories,omitempty"`
}

// Failure explains why a card scored 0.
type Failure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

// ScoringResult is the response of a scoring request.
type ScoringResult struct {
	RequestID   string             `json:"request_id"`
	Commander   string             `json:"commander"`
	Scores      map[string]float64 `json:"scores"`
	ParsedCards []ParsedCard       `json:"parsed_cards"`
	Failures    []Failure          `json:"failures"`
	Missing     []string           `json:"missing"`
}

// Progress is passed to progress hooks while a request is scored.
type Progress struct {
	Done      int     `json:"done"`
	Total     int     `json:"total"`
	Fraction  float64 `json:"fraction"`
	Elapsed   float64 `json:"elapsed_seconds"`
	Remaining float64 `json:"remaining_seconds"`
}

// CardView is the read-only card detail shape.
type CardView struct {
	ID             int64    `json:"id"`
	ScryfallID     string   `json:"scryfall_id"`
	Name           string   `json:"card_name"`
	ManaCost       string   `json:"mana_cost"`
	CMC            float64  `json:"cmc"`
	TypeLine       string   `json:"type_line"`
	OracleText     *string  `json:"oracle_text"`
	Colors         []string `json:"colors"`
	ColorIdentity  []string `json:"color_identity"`
	Power          *string  `json:"power,omitempty"`
	Toughness      *string  `json:"toughness,omitempty"`
	CommanderLegal bool     `json:"commander_legal"`
	SetCode        string   `json:"set_code"`
	Rarity         string   `json:"rarity"`
	EDHRecRank     *int     `json:"edhrec_rank"`
	Prices         string   `json:"prices"`
}

// Suggestion is a ranked related card.
type Suggestion struct {
	CardView
	Percentage   float64 `json:"percentage"`
	NumDecks     int     `json:"num_decks"`
	SynergyScore float64 `json:"synergy_score"`
}

// SimilarCommander is a commander sharing related cards with another.
type SimilarCommander struct {
	Name        string `json:"name"`
	CardName    string `json:"card_name"`
	SharedCards int    `json:"shared_cards"`
}

// CommanderInfo summarises a commander's related-card statistics.
type CommanderInfo struct {
	Name              string             `json:"name"`
	CardName          string             `json:"card_name"`
	ScryfallID        string             `json:"scryfall_id"`
	Card              *CardView          `json:"card,omitempty"`
	RelatedCards      int                `json:"related_cards"`
	AverageSynergy    float64            `json:"average_synergy"`
	SimilarCommanders []SimilarCommander `json:"similar_commanders"`
}

// DBInfo holds aggregate catalog statistics.
type DBInfo struct {
	Cards          int `json:"cards"`
	LegalCards     int `json:"commander_legal_cards"`
	Commanders     int `json:"commanders"`
	RelationEdges  int `json:"relations"`
	TaxonomyTypes  int `json:"taxonomy_card_types"`
	TaxonomySubs   int `json:"taxonomy_sub_types"`
	ModelCacheSize int `json:"model_cache_size"`
}

// NewCardView converts a catalog card for responses.
func NewCardView(c model.Card) CardView {
	return CardView{
		ID:             c.ID,
		ScryfallID:     c.ScryfallID,
		Name:           c.Name,
		ManaCost:       c.ManaCost,
		CMC:            c.CMC,
		TypeLine:       c.TypeLine,
		OracleText:     c.OracleText,
		Colors:         ColorStrings(c.Colors),
		ColorIdentity:  ColorStrings(c.ColorIdentity),
		Power:          c.Power,
		Toughness:      c.Toughness,
		CommanderLegal: c.CommanderLegal,
		SetCode:        c.SetCode,
		Rarity:         c.Rarity,
		EDHRecRank:     c.EDHRecRank,
		Prices:         c.Prices,
	}
}

// ColorStrings converts color symbols to plain strings; never nil.
func ColorStrings(cs []model.ColorSymbol) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}
