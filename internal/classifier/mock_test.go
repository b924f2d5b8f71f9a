package classifier

import (
	"math/rand/v2"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_ScoresInvariant(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	want := append([]string(nil), MockBreeds...)
	sort.Strings(want)

	for seed := uint64(0); seed < 500; seed++ {
		r := rand.New(rand.NewPCG(seed, seed*31+7))
		res := Synthesize(r, now)

		labels := make([]string, 0, len(res.ConfidenceScores))
		for label := range res.ConfidenceScores {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		require.Equal(t, want, labels, "seed %d", seed)

		assertScoresSumTo100(t, res.ConfidenceScores)

		top := res.ConfidenceScores[res.PredictedBreed]
		assert.GreaterOrEqual(t, top, 60.0, "seed %d", seed)
		assert.LessOrEqual(t, top, 85.0, "seed %d", seed)
		for label, pct := range res.ConfidenceScores {
			assert.GreaterOrEqual(t, pct, 0.0, "seed %d label %s", seed, label)
			if label != res.PredictedBreed {
				assert.Less(t, pct, top, "seed %d: %s should not beat %s", seed, label, res.PredictedBreed)
			}
		}
	}
}

func TestSynthesize_DeterministicForSeed(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := Synthesize(rand.New(rand.NewPCG(42, 43)), now)
	b := Synthesize(rand.New(rand.NewPCG(42, 43)), now)
	assert.Equal(t, a, b)
}

func TestSynthesize_AdditionalInfoShape(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	res := Synthesize(rand.New(rand.NewPCG(9, 9)), now)

	assert.Equal(t, "1.0.0", res.ModelVersion)
	assert.Equal(t, "2026-01-02T03:04:05Z", res.PredictionTime)
	assert.Equal(t, now, res.ParsedPredictionTime())

	labels := make([]string, 0, len(res.AdditionalInfo))
	for _, f := range res.AdditionalInfo {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, []string{"Body Length", "Chest Width", "Rump Angle", "Overall Score", "Health Status", "Age Estimate"}, labels)

	health, ok := res.AdditionalInfo.Get("Health Status")
	assert.True(t, ok)
	assert.Equal(t, "Good", health)
	score, _ := res.AdditionalInfo.Get("Overall Score")
	assert.Contains(t, score, " / 10")
}
