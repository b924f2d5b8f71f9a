package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Image is an encoded photo ready for upload.
type Image struct {
	Data  []byte
	Label string // display name, usually the source file name
}

// LoadImage reads an image file from disk.
func LoadImage(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("image %s is empty", path)
	}
	return Image{Data: data, Label: filepath.Base(path)}, nil
}

// ClassificationResult mirrors the payload returned by /classify.
type ClassificationResult struct {
	PredictedBreed   string             `json:"predicted_breed"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	PredictionTime   string             `json:"prediction_time,omitempty"`
	ModelVersion     string             `json:"model_version,omitempty"`
	AdditionalInfo   InfoFields         `json:"additional_info,omitempty"`
}

// Score is a single breed confidence entry.
type Score struct {
	Breed   string
	Percent float64
}

// Ranked returns the confidence scores ordered from highest to lowest.
func (r ClassificationResult) Ranked() []Score {
	scores := make([]Score, 0, len(r.ConfidenceScores))
	for breed, pct := range r.ConfidenceScores {
		scores = append(scores, Score{Breed: breed, Percent: pct})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Percent == scores[j].Percent {
			return scores[i].Breed < scores[j].Breed
		}
		return scores[i].Percent > scores[j].Percent
	})
	return scores
}

// ParsedPredictionTime returns the prediction timestamp as time.Time when possible.
func (r ClassificationResult) ParsedPredictionTime() time.Time {
	value := strings.TrimSpace(r.PredictionTime)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (r ClassificationResult) validate() error {
	if strings.TrimSpace(r.PredictedBreed) == "" {
		return fmt.Errorf("%w: missing predicted_breed", ErrMalformedResponse)
	}
	if r.ConfidenceScores == nil {
		return fmt.Errorf("%w: missing confidence_scores", ErrMalformedResponse)
	}
	return nil
}

// DetailField is a label/value pair rendered in result views.
type DetailField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// InfoFields holds additional_info entries in the order the server sent them.
// Non-string values are rendered to their JSON text.
type InfoFields []DetailField

// Get returns the value for label.
func (f InfoFields) Get(label string) (string, bool) {
	for _, field := range f {
		if field.Label == label {
			return field.Value, true
		}
	}
	return "", false
}

// UnmarshalJSON decodes a JSON object preserving key order.
func (f *InfoFields) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*f = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("additional_info: want object, got %v", tok)
	}
	var out InfoFields
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("additional_info: unexpected key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		out = append(out, DetailField{Label: key, Value: displayValue(raw)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}

// MarshalJSON encodes the fields as a JSON object in order.
func (f InfoFields) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Label)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(field.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func displayValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}

// Source tags where a classification result came from.
type Source int

const (
	// SourceServer marks a genuine response from the classification service.
	SourceServer Source = iota
	// SourceSynthesized marks locally generated placeholder data.
	SourceSynthesized
)

func (s Source) String() string {
	switch s {
	case SourceServer:
		return "server"
	case SourceSynthesized:
		return "synthesized"
	default:
		return "unknown"
	}
}

// ClassifyOutcome is the result of Classify. Result is always usable; Source
// says whether it is real.
type ClassifyOutcome struct {
	Source Source
	Result ClassificationResult
	Err    error
}

// Success reports whether the result came from the server.
func (o ClassifyOutcome) Success() bool {
	return o.Source == SourceServer
}

// Message returns the failure text, or "" on success.
func (o ClassifyOutcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// DetectOutcome is the result of Detect. Payload is the detection response
// passed through unmodified and is nil on failure.
type DetectOutcome struct {
	Payload json.RawMessage
	Err     error
}

// Success reports whether a detection payload is available.
func (o DetectOutcome) Success() bool {
	return o.Err == nil && len(o.Payload) > 0
}

// Message returns the failure text, or "" on success.
func (o DetectOutcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// ProbeStatus is the per-candidate outcome of a connectivity sweep.
type ProbeStatus string

const (
	ProbeSuccess ProbeStatus = "success"
	ProbeFailed  ProbeStatus = "failed"
)

// ProbeResult records a single candidate's connectivity check.
type ProbeResult struct {
	Endpoint     string        `json:"endpoint"`
	Status       ProbeStatus   `json:"status"`
	ResponseTime time.Duration `json:"response_time_ns,omitempty"`
	Error        string        `json:"error,omitempty"`
	Body         string        `json:"body,omitempty"`
}

// OK reports whether the candidate answered.
func (p ProbeResult) OK() bool {
	return p.Status == ProbeSuccess
}
