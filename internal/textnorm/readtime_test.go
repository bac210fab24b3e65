package textnorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestEstimateReadMinutes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"empty text", "", 1},
		{"half a minute floors to one", words(100), 1},
		{"one and a half rounds to two", words(300), 2},
		{"two and a half rounds to even", words(500), 2},
		{"three and a half rounds to even", words(700), 4},
		{"exact minutes", words(1000), 5},
		{"mixed whitespace", "one\ttwo\nthree   four", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EstimateReadMinutes(tt.input))
		})
	}
}
