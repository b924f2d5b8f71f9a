package classifier

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// MockBreeds is the fixed label set used for placeholder results.
var MockBreeds = []string{"Sahiwal", "Gir", "Red Sindhi"}

const mockModelVersion = "1.0.0"

// Synthesize builds a placeholder classification. One label is picked and
// given 60-85%; the rest of the 100% is split across the other labels, so the
// picked label is always the maximum and the scores always sum to 100.
func Synthesize(r *rand.Rand, now time.Time) ClassificationResult {
	predicted := MockBreeds[r.IntN(len(MockBreeds))]
	top := 60 + r.Float64()*25
	remaining := 100 - top

	others := make([]string, 0, len(MockBreeds)-1)
	for _, breed := range MockBreeds {
		if breed != predicted {
			others = append(others, breed)
		}
	}

	weights := make([]float64, len(others))
	var total float64
	for i := range others {
		weights[i] = 0.05 + r.Float64()
		total += weights[i]
	}

	scores := make(map[string]float64, len(MockBreeds))
	scores[predicted] = top
	assigned := 0.0
	for i, breed := range others {
		if i == len(others)-1 {
			scores[breed] = remaining - assigned
			break
		}
		share := remaining * weights[i] / total
		scores[breed] = share
		assigned += share
	}

	return ClassificationResult{
		PredictedBreed:   predicted,
		ConfidenceScores: scores,
		PredictionTime:   now.UTC().Format(time.RFC3339),
		ModelVersion:     mockModelVersion,
		AdditionalInfo: InfoFields{
			{Label: "Body Length", Value: fmt.Sprintf("%d cm", 130+r.IntN(20))},
			{Label: "Chest Width", Value: fmt.Sprintf("%d cm", 45+r.IntN(15))},
			{Label: "Rump Angle", Value: fmt.Sprintf("%d°", 18+r.IntN(8))},
			{Label: "Overall Score", Value: fmt.Sprintf("%.1f / 10", 6.5+r.Float64()*2.5)},
			{Label: "Health Status", Value: "Good"},
			{Label: "Age Estimate", Value: fmt.Sprintf("%d years", 2+r.IntN(6))},
		},
	}
}
