package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilename(t *testing.T) {
	meta, err := ParseFilename("671_20250810_2040utc.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "671", meta.Kingdom)
	assert.Equal(t, time.Date(2025, 8, 10, 20, 40, 0, 0, time.UTC), meta.TakenAt)
}

func TestParseFilename_Invalid(t *testing.T) {
	cases := []string{
		"",
		"stats.xlsx",
		"671_20250810_2040utc.csv",
		"671_20250810_2040.xlsx",
		"671-20250810-2040utc.xlsx",
		"abc_20250810_2040utc.xlsx",
		"671_2025081_2040utc.xlsx",
		"671_20250810_2040utc.xlsx.bak",
	}
	for _, name := range cases {
		_, err := ParseFilename(name)
		assert.Error(t, err, "expected rejection for %q", name)
	}
}

func TestParseFilename_BadTimestamp(t *testing.T) {
	// Matches the pattern but is not a real date.
	_, err := ParseFilename("671_20259999_2040utc.xlsx")
	assert.Error(t, err)
}
