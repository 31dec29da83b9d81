package source_test

import (
	"codetransform/internal/source"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsEstimatedTokensIsCeilOfQuarter(t *testing.T) {
	for _, total := range []int{1, 3, 4, 5, 8, 9, 1001} {
		var s source.Stats
		s.Add(strings.Repeat("x", total))

		want := int(math.Ceil(float64(total) / 4))
		assert.Equal(t, want, s.EstimatedTokens(), "total = %d", total)
	}
}

func TestStatsZeroValue(t *testing.T) {
	var s source.Stats
	assert.Equal(t, 0, s.EstimatedTokens())
	assert.Equal(t, 0, s.Files)
}

func TestStatsAverageIsRoundedUp(t *testing.T) {
	var s source.Stats
	s.Add("abc")
	s.Add("ab")
	s.Add("")

	assert.Equal(t, 3, s.Files)
	assert.InDelta(t, 5.0, s.TotalCharacters, 0)
	assert.InDelta(t, 2.0, s.AverageCharactersPerFile, 0)
	assert.Equal(t, 2, s.EstimatedTokens())
}

func TestStatsCountsCodePoints(t *testing.T) {
	var s source.Stats
	s.Add("héllo, 世界")

	assert.InDelta(t, 9.0, s.TotalCharacters, 0)
}

func TestStatsString(t *testing.T) {
	var s source.Stats
	s.Add(strings.Repeat("x", 12345))

	assert.Equal(t,
		"Files: 1\nTotal Characters: 12,345\nAverage Characters Per File: 12,345\nEstimated Tokens: 3,087",
		s.String())
}
