package source

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

const charsPerToken = 4

// Stats accumulates per-flatten statistics. Characters are Unicode code points.
type Stats struct {
	Files                    int
	TotalCharacters          float64
	AverageCharactersPerFile float64
}

func (s *Stats) Add(content string) {
	s.TotalCharacters += float64(utf8.RuneCountInString(content))
	s.Files++
	s.AverageCharactersPerFile = math.Ceil(s.TotalCharacters / float64(s.Files))
}

func (s Stats) EstimatedTokens() int {
	if s.TotalCharacters <= 0 {
		return 0
	}

	return int(math.Ceil(s.TotalCharacters / charsPerToken))
}

// LogAttrs returns the stats as slog key/value pairs.
func (s Stats) LogAttrs() []any {
	return []any{
		"fileCount", s.Files,
		"totalCharacters", s.TotalCharacters,
		"averageCharactersPerFile", s.AverageCharactersPerFile,
		"estimatedTokens", s.EstimatedTokens(),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf(
		"Files: %s\nTotal Characters: %s\nAverage Characters Per File: %s\nEstimated Tokens: %s",
		humanize.Comma(int64(s.Files)),
		humanize.Commaf(s.TotalCharacters),
		humanize.Commaf(s.AverageCharactersPerFile),
		humanize.Comma(int64(s.EstimatedTokens())),
	)
}
