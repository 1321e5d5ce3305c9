package jsondb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		region   Region
		expected string
	}{
		{GB, "GB"},
		{JP, "JP"},
		{KR, "KR"},
		{TW, "TW"},
		{US, "US"},
		{Region(0), "Region(0)"},
		{Region(42), "Region(42)"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, tc.region.String())
	}
}

func TestRegionsCanonicalOrder(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Region{GB, JP, KR, TW, US}, Regions())

	// Callers get their own slice.
	regions := Regions()
	regions[0] = US
	assert.Equal(t, GB, Regions()[0])
}

func TestParseRegion(t *testing.T) {
	t.Parallel()

	for _, region := range Regions() {
		got, err := ParseRegion(region.String())
		require.NoError(t, err)
		assert.Equal(t, region, got)
	}

	got, err := ParseRegion(" jp ")
	require.NoError(t, err)
	assert.Equal(t, JP, got)

	_, err = ParseRegion("EU")
	require.ErrorIs(t, err, ErrUnknownRegion)
}

func TestRegionValid(t *testing.T) {
	t.Parallel()

	assert.True(t, US.Valid())
	assert.False(t, Region(0).Valid())
	assert.False(t, Region(6).Valid())
}
