package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortStable(t *testing.T) {
	names := []string{"Óbidos", "Abaetetuba", "Ourém", "Ânapu", "Belém"}

	SortStable(names, func(s string) string { return s })

	assert.Equal(t, []string{"Abaetetuba", "Ânapu", "Belém", "Óbidos", "Ourém"}, names)
}

func TestLess(t *testing.T) {
	assert.True(t, Less("Água Boa", "Alta Floresta"))
	assert.False(t, Less("Zé Doca", "Açailândia"))
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234, "1.234"},
		{1234567, "1.234.567"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCount(tt.in))
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "12.3%", FormatPercent(12.345))
	assert.Equal(t, "0.0%", FormatPercent(0))
}
