// Package samples holds the canned example results shown from the home screen.
package samples

import (
	"fmt"

	"github.com/five82/cattlelens/internal/classifier"
)

// Sample is a fixed example with static measurements.
type Sample struct {
	ID           string
	Title        string
	Breed        string
	BodyLengthCm int
	ChestWidthCm int
	RumpAngleDeg int
	Score        float64
}

// Details returns the sample's measurements as display rows.
func (s Sample) Details() classifier.InfoFields {
	return classifier.InfoFields{
		{Label: "Breed", Value: s.Breed},
		{Label: "Body Length", Value: fmt.Sprintf("%d cm", s.BodyLengthCm)},
		{Label: "Chest Width", Value: fmt.Sprintf("%d cm", s.ChestWidthCm)},
		{Label: "Rump Angle", Value: fmt.Sprintf("%d°", s.RumpAngleDeg)},
		{Label: "Score", Value: fmt.Sprintf("%.1f / 10", s.Score)},
	}
}

var all = []Sample{
	{ID: "cow1", Title: "Sample 1", Breed: "Sahiwal", BodyLengthCm: 142, ChestWidthCm: 55, RumpAngleDeg: 21, Score: 8.5},
	{ID: "cow2", Title: "Sample 2", Breed: "Gir", BodyLengthCm: 135, ChestWidthCm: 48, RumpAngleDeg: 19, Score: 7.8},
	{ID: "cow3", Title: "Sample 3", Breed: "Red Sindhi", BodyLengthCm: 138, ChestWidthCm: 51, RumpAngleDeg: 22, Score: 8.1},
}

// All returns the samples in display order.
func All() []Sample {
	out := make([]Sample, len(all))
	copy(out, all)
	return out
}

// Lookup finds a sample by its ID.
func Lookup(id string) (Sample, bool) {
	for _, s := range all {
		if s.ID == id {
			return s, true
		}
	}
	return Sample{}, false
}
