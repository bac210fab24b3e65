package textnorm

import (
	"math"
	"strings"
)

// WordsPerMinute is the reading speed behind EstimateReadMinutes.
const WordsPerMinute = 200

// EstimateReadMinutes counts whitespace-separated words and converts them
// to minutes, rounding half to even. The result is never below 1.
func EstimateReadMinutes(text string) int {
	words := len(strings.Fields(text))
	minutes := int(math.RoundToEven(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}
