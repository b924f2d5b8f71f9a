package analyze

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/five82/cattlelens/internal/classifier"
)

type rawAnalysis struct {
	Breed        json.RawMessage `json:"breed"`
	BodyLengthCm json.RawMessage `json:"bodyLengthCm"`
	ChestWidthCm json.RawMessage `json:"chestWidthCm"`
	RumpAngleDeg json.RawMessage `json:"rumpAngleDeg"`
	Score        json.RawMessage `json:"score"`
}

// Normalize converts an /analyze response body into display rows. Missing
// measurements render as "—" and a missing breed as "Unknown".
func Normalize(body []byte) (Analysis, error) {
	var raw rawAnalysis
	if err := json.Unmarshal(body, &raw); err != nil {
		return Analysis{}, fmt.Errorf("%w: %w", classifier.ErrMalformedResponse, err)
	}

	breed, ok := scalar(raw.Breed)
	if !ok {
		breed = "Unknown"
	}

	return Analysis{
		Details: classifier.InfoFields{
			{Label: "Breed", Value: breed},
			{Label: "Body Length", Value: withUnit(raw.BodyLengthCm, " cm")},
			{Label: "Chest Width", Value: withUnit(raw.ChestWidthCm, " cm")},
			{Label: "Rump Angle", Value: withUnit(raw.RumpAngleDeg, "°")},
			{Label: "Score", Value: withUnit(raw.Score, " / 10")},
		},
		Raw: json.RawMessage(bytes.Clone(body)),
	}, nil
}

func withUnit(v json.RawMessage, unit string) string {
	s, ok := scalar(v)
	if !ok {
		return placeholder
	}
	return s + unit
}

// scalar renders a JSON string or number; null and absent values report false.
func scalar(v json.RawMessage) (string, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return "", false
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", false
		}
		return s, true
	}
	return string(v), true
}
