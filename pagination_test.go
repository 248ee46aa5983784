package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		offset   int
		total    int
		expected Page
	}{
		{
			name:     "defaults applied when limit unset",
			limit:    0,
			offset:   0,
			total:    25,
			expected: Page{Limit: 10, Offset: 0, Total: 25, HasNext: true},
		},
		{
			name:     "negative limit falls back to default",
			limit:    -5,
			offset:   0,
			total:    3,
			expected: Page{Limit: 10, Offset: 0, Total: 3, HasNext: false},
		},
		{
			name:     "limit clamped to upper bound",
			limit:    1000,
			offset:   0,
			total:    500,
			expected: Page{Limit: 100, Offset: 0, Total: 500, HasNext: true},
		},
		{
			name:     "negative offset clamped to zero",
			limit:    10,
			offset:   -3,
			total:    25,
			expected: Page{Limit: 10, Offset: 0, Total: 25, HasNext: true},
		},
		{
			name:     "middle page has next",
			limit:    10,
			offset:   10,
			total:    25,
			expected: Page{Limit: 10, Offset: 10, Total: 25, HasNext: true},
		},
		{
			name:     "last partial page has no next",
			limit:    10,
			offset:   20,
			total:    25,
			expected: Page{Limit: 10, Offset: 20, Total: 25, HasNext: false},
		},
		{
			// Página cheia exatamente no fim do resultado: has_next vem do
			// total filtrado, não do tamanho da página retornada
			name:     "exactly full last page has no next",
			limit:    10,
			offset:   10,
			total:    20,
			expected: Page{Limit: 10, Offset: 10, Total: 20, HasNext: false},
		},
		{
			name:     "offset beyond total has no next",
			limit:    10,
			offset:   100,
			total:    25,
			expected: Page{Limit: 10, Offset: 100, Total: 25, HasNext: false},
		},
		{
			// offset enorme vindo da query não pode estourar a conta de has_next
			name:     "huge offset does not overflow",
			limit:    100,
			offset:   math.MaxInt - 50,
			total:    25,
			expected: Page{Limit: 100, Offset: math.MaxInt - 50, Total: 25, HasNext: false},
		},
		{
			name:     "empty result set",
			limit:    10,
			offset:   0,
			total:    0,
			expected: Page{Limit: 10, Offset: 0, Total: 0, HasNext: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewPage(tt.limit, tt.offset, tt.total))
		})
	}
}

func TestNewPage_HasNextTruthTable(t *testing.T) {
	// has_next deve ser verdadeiro se e somente se offset+limit < total
	for offset := 0; offset <= 30; offset += 5 {
		for total := 0; total <= 30; total += 5 {
			page := NewPage(10, offset, total)
			assert.Equal(t, offset+10 < total, page.HasNext,
				"offset=%d total=%d", offset, total)
		}
	}
}
