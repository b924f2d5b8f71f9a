package history

import (
	"encoding/json"
	"time"

	"github.com/five82/cattlelens/internal/classifier"
)

// Entry is one recorded classification attempt.
type Entry struct {
	ID             string
	Source         classifier.Source
	ImageLabel     string
	PredictedBreed string
	Scores         map[string]float64
	ModelVersion   string
	Error          string
	CreatedAt      time.Time
}

// FromOutcome builds an Entry for a Classify outcome.
func FromOutcome(imageLabel string, outcome classifier.ClassifyOutcome) Entry {
	return Entry{
		Source:         outcome.Source,
		ImageLabel:     imageLabel,
		PredictedBreed: outcome.Result.PredictedBreed,
		Scores:         outcome.Result.ConfidenceScores,
		ModelVersion:   outcome.Result.ModelVersion,
		Error:          outcome.Message(),
	}
}

// EntryModel is the GORM model for the classifications table.
type EntryModel struct {
	ID             string    `gorm:"primaryKey;size:36"`
	Source         string    `gorm:"size:16;not null"`
	ImageLabel     string    `gorm:"size:255"`
	PredictedBreed string    `gorm:"size:128;index"`
	Scores         string    `gorm:"type:text"`
	ModelVersion   string    `gorm:"size:64"`
	Error          string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"index;not null"`
}

// TableName returns the table name for GORM.
func (EntryModel) TableName() string {
	return "classifications"
}

func modelFromEntry(e Entry) (EntryModel, error) {
	scores, err := json.Marshal(e.Scores)
	if err != nil {
		return EntryModel{}, err
	}
	return EntryModel{
		ID:             e.ID,
		Source:         e.Source.String(),
		ImageLabel:     e.ImageLabel,
		PredictedBreed: e.PredictedBreed,
		Scores:         string(scores),
		ModelVersion:   e.ModelVersion,
		Error:          e.Error,
		CreatedAt:      e.CreatedAt.UTC(),
	}, nil
}

func (m EntryModel) toEntry() Entry {
	var scores map[string]float64
	// A corrupt row still lists; it just shows no scores.
	_ = json.Unmarshal([]byte(m.Scores), &scores)

	source := classifier.SourceServer
	if m.Source == classifier.SourceSynthesized.String() {
		source = classifier.SourceSynthesized
	}
	return Entry{
		ID:             m.ID,
		Source:         source,
		ImageLabel:     m.ImageLabel,
		PredictedBreed: m.PredictedBreed,
		Scores:         scores,
		ModelVersion:   m.ModelVersion,
		Error:          m.Error,
		CreatedAt:      m.CreatedAt,
	}
}
