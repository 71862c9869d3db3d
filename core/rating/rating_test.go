package rating

import (
	"testing"

	"github.com/huangsam/livemeasure/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingForDensity(t *testing.T) {
	tests := []struct {
		density float64
		want    Rating
	}{
		{0, A},
		{0.05, A}, // bounds are inclusive
		{0.0500001, B},
		{0.1, B},
		{0.125, C},
		{0.2, C},
		{0.3, D},
		{0.5, D},
		{0.51, E},
		{2, E},
	}

	for _, tt := range tests {
		got, err := DefaultGrid.RatingForDensity(tt.density)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "density %v", tt.density)
	}
}

func TestRatingForDensityNegative(t *testing.T) {
	_, err := DefaultGrid.RatingForDensity(-0.01)
	assert.ErrorIs(t, err, ErrNegativeDensity)
}

func TestRatingForDensityCustomGrid(t *testing.T) {
	g, err := NewGrid(0.1, 0.2, 0.3, 0.4)
	require.NoError(t, err)

	r, err := g.RatingForDensity(0.125)
	require.NoError(t, err)
	assert.Equal(t, B, r)
	assert.Equal(t, 0.1, g.GradeA())
}

func TestParseGrid(t *testing.T) {
	g, err := ParseGrid("0.05, 0.1,0.2,0.5")
	require.NoError(t, err)
	assert.Equal(t, DefaultGrid, g)
	assert.Equal(t, "0.05,0.1,0.2,0.5", g.String())

	for _, bad := range []string{"", "0.1,0.2,0.3", "0.1,0.2,0.3,x", "0.2,0.1,0.3,0.4", "0.1,0.1,0.3,0.4", "-0.1,0.1,0.3,0.4"} {
		_, err := ParseGrid(bad)
		assert.Error(t, err, bad)
	}
}

func TestRatingString(t *testing.T) {
	assert.Equal(t, "A", A.String())
	assert.Equal(t, "E", E.String())
	assert.Equal(t, "?", Rating(0).String())
	assert.Equal(t, "?", Rating(6).String())
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Rating
		wantErr bool
	}{
		{"A", A, false},
		{"c", C, false},
		{"4", D, false},
		{"5.0", E, false},
		{"0", 0, true},
		{"F", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFromSeverity(t *testing.T) {
	assert.Equal(t, A, FromSeverity(schema.Info))
	assert.Equal(t, B, FromSeverity(schema.Minor))
	assert.Equal(t, C, FromSeverity(schema.Major))
	assert.Equal(t, D, FromSeverity(schema.Critical))
	assert.Equal(t, E, FromSeverity(schema.Blocker))
}

func TestForHotspotReview(t *testing.T) {
	p := func(v float64) *float64 { return &v }
	assert.Equal(t, A, ForHotspotReview(nil))
	assert.Equal(t, A, ForHotspotReview(p(100)))
	assert.Equal(t, A, ForHotspotReview(p(80)))
	assert.Equal(t, B, ForHotspotReview(p(79.9)))
	assert.Equal(t, C, ForHotspotReview(p(50)))
	assert.Equal(t, D, ForHotspotReview(p(30)))
	assert.Equal(t, E, ForHotspotReview(p(29.9)))
}
