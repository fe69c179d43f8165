package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidPoint(t *testing.T) {
	point, err := Parse(`{"type":"Point","coordinates":[75.7873,26.9124]}`)
	require.NoError(t, err)
	assert.Equal(t, 75.7873, point.Lng())
	assert.Equal(t, 26.9124, point.Lat())
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "26.9124,75.7873"},
		{"wrong type tag", `{"type":"Polygon","coordinates":[75.78,26.91]}`},
		{"longitude out of range", `{"type":"Point","coordinates":[200,26.91]}`},
		{"latitude out of range", `{"type":"Point","coordinates":[75.78,95]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			assert.Error(t, err)
		})
	}
}
