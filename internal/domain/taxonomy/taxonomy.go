// Package taxonomy holds the closed card-type and sub-type vocabularies
// fitted from the legal card catalog, and the categorical encoders built
// from them.
package taxonomy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/okian/cardcognition/internal/domain/model"
	"github.com/okian/cardcognition/internal/domain/typeline"
)

// Taxonomy is immutable after construction and safe for concurrent reads.
type Taxonomy struct {
	version     string
	cardTypes   []string
	subTypes    []string
	cardIndex   map[string]int
	subIndex    map[string]int
	fingerprint string
	skipped     int
}

// Fit parses every card's type line and collects the observed card-types
// and sub-types. Cards with a malformed type line are skipped and counted.
// The vocabularies are sorted so that the same catalog always yields the
// same positions.
func Fit(cards []model.Card, opts ...Option) *Taxonomy {
	ct := make(map[string]struct{})
	st := make(map[string]struct{})
	skipped := 0
	for i := range cards {
		p, err := typeline.Parse(cards[i].TypeLine)
		if err != nil {
			skipped++
			continue
		}
		for _, t := range p.CardTypes {
			ct[t] = struct{}{}
		}
		for _, t := range p.SubTypes {
			st[t] = struct{}{}
		}
	}
	t := New(keys(ct), keys(st), opts...)
	t.skipped = skipped
	return t
}

// New builds a taxonomy from explicit vocabularies. Input is de-duplicated and sorted.
func New(cardTypes, subTypes []string, opts ...Option) *Taxonomy {
	t := &Taxonomy{version: DefaultVersion}
	for _, opt := range opts {
		opt(t)
	}
	t.cardTypes = normalize(cardTypes)
	t.subTypes = normalize(subTypes)
	t.cardIndex = indexOf(t.cardTypes)
	t.subIndex = indexOf(t.subTypes)
	t.fingerprint = fingerprint(t.version, t.cardTypes, t.subTypes)
	return t
}

// Version returns the schema version.
func (t *Taxonomy) Version() string { return t.version }

// Fingerprint identifies the version and exact category order.
func (t *Taxonomy) Fingerprint() string { return t.fingerprint }

// Skipped returns how many cards Fit ignored because of a malformed type line.
func (t *Taxonomy) Skipped() int { return t.skipped }

// CardTypes returns a copy of the card-type vocabulary.
func (t *Taxonomy) CardTypes() []string { return slices.Clone(t.cardTypes) }

// SubTypes returns a copy of the sub-type vocabulary.
func (t *Taxonomy) SubTypes() []string { return slices.Clone(t.subTypes) }

// CardTypeWidth is |card_types|.
func (t *Taxonomy) CardTypeWidth() int { return len(t.cardTypes) }

// SubTypeWidth is |sub_types|.
func (t *Taxonomy) SubTypeWidth() int { return len(t.subTypes) }

// EncodeCardType returns the one-hot vector for a single card-type.
// ok is false for an unseen type, in which case the vector is all zeros.
func (t *Taxonomy) EncodeCardType(ct string) ([]float64, bool) {
	v := make([]float64, len(t.cardTypes))
	i, ok := t.cardIndex[ct]
	if ok {
		v[i] = 1
	}
	return v, ok
}

// EncodeCardTypes sets one position per distinct known card-type and
// returns the unseen values.
func (t *Taxonomy) EncodeCardTypes(ts []string) ([]float64, []string) {
	return encode(ts, t.cardIndex, len(t.cardTypes))
}

// EncodeSubTypes sums the one-hot vectors of the de-duplicated sub-types
// and returns the unseen values.
func (t *Taxonomy) EncodeSubTypes(ts []string) ([]float64, []string) {
	return encode(ts, t.subIndex, len(t.subTypes))
}

func encode(ts []string, idx map[string]int, width int) ([]float64, []string) {
	v := make([]float64, width)
	var unseen []string
	seen := make(map[string]struct{}, len(ts))
	for _, s := range ts {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if i, ok := idx[s]; ok {
			v[i]++
			continue
		}
		unseen = append(unseen, s)
	}
	return v, unseen
}

type document struct {
	Version     string   `json:"version"`
	Fingerprint string   `json:"fingerprint"`
	CardTypes   []string `json:"card_types"`
	SubTypes    []string `json:"sub_types"`
	Skipped     int      `json:"skipped"`
}

// Save writes the taxonomy as JSON.
func (t *Taxonomy) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(document{
		Version:     t.version,
		Fingerprint: t.fingerprint,
		CardTypes:   t.cardTypes,
		SubTypes:    t.subTypes,
		Skipped:     t.skipped,
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return nil
}

// Load reads a taxonomy written by Save and verifies its fingerprint.
func Load(r io.Reader) (*Taxonomy, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	t := New(doc.CardTypes, doc.SubTypes, WithVersion(doc.Version))
	t.skipped = doc.Skipped
	if doc.Fingerprint != t.fingerprint {
		return nil, fmt.Errorf("%w: stored %s, computed %s", ErrFingerprintMismatch, doc.Fingerprint, t.fingerprint)
	}
	return t, nil
}

func fingerprint(version string, cardTypes, subTypes []string) string {
	h := sha256.New()
	h.Write([]byte(version))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(cardTypes, "\x1f")))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(subTypes, "\x1f")))
	return hex.EncodeToString(h.Sum(nil))
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func indexOf(vocab []string) map[string]int {
	m := make(map[string]int, len(vocab))
	for i, v := range vocab {
		m[v] = i
	}
	return m
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
