package samples

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_OrderAndCopy(t *testing.T) {
	got := All()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Sahiwal", "Gir", "Red Sindhi"}, []string{got[0].Breed, got[1].Breed, got[2].Breed})

	got[0].Breed = "mutated"
	assert.Equal(t, "Sahiwal", All()[0].Breed)
}

func TestDetails(t *testing.T) {
	s, ok := Lookup("cow2")
	require.True(t, ok)

	details := s.Details()
	want := map[string]string{
		"Breed":       "Gir",
		"Body Length": "135 cm",
		"Chest Width": "48 cm",
		"Rump Angle":  "19°",
		"Score":       "7.8 / 10",
	}
	require.Len(t, details, len(want))
	for label, value := range want {
		got, ok := details.Get(label)
		assert.True(t, ok, label)
		assert.Equal(t, value, got, label)
	}

	_, ok = Lookup("cow9")
	assert.False(t, ok)
}
