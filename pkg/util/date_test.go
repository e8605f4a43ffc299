package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayKey(t *testing.T) {
	cases := map[string]string{
		"2024-10-10":               "2024-10-10",
		"2024-10-10T10:10:10Z":     "2024-10-10",
		"2024-10-10T00:00:00.000Z": "2024-10-10",
		"2024-10-10 16:00:00":      "2024-10-10",
		"  2024-10-10T10:10:10Z  ": "2024-10-10",
		"":                         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, DayKey(in), "input %q", in)
	}
}

func TestParseDay(t *testing.T) {
	got, ok := ParseDay("2024-10-10T10:10:10Z")
	assert.True(t, ok)
	assert.True(t, got.Equal(time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)))

	_, ok = ParseDay("10/10/2024")
	assert.False(t, ok)
}

func TestFormatDay(t *testing.T) {
	ts := time.Date(2024, 10, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2024-10-10", FormatDay(ts))
}

func TestNormalizeTicker(t *testing.T) {
	assert.Equal(t, "BTCUSD", NormalizeTicker(" btcusd "))
}
