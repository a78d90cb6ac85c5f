// Package color encodes a card's color set as a fixed-width vector.
package color

import "github.com/okian/cardcognition/internal/domain/model"

// Width is the encoded width: five colors plus colorless.
const Width = 6

// Colorless is the index of the colorless position.
const Colorless = 5

var index = map[model.ColorSymbol]int{ //nolint:gochecknoglobals // read-only table
	model.White: 0,
	model.Blue:  1,
	model.Black: 2,
	model.Red:   3,
	model.Green: 4,
}

// Encode maps colors onto W U B R G Colorless. Colorless is set only for
// the empty set. Unknown symbols are ignored.
func Encode(colors []model.ColorSymbol) [Width]float64 {
	var v [Width]float64
	colored := false
	for _, c := range colors {
		if i, ok := index[c]; ok {
			v[i] = 1
			colored = true
		}
	}
	if !colored {
		v[Colorless] = 1
	}
	return v
}
