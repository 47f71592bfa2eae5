// Package locale holds the pt-BR presentation rules shared by the engine,
// renderers and outer surfaces.
package locale

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Tag is the display language.
var Tag = language.BrazilianPortuguese

// NewCollator returns a pt-BR collator. Collators are not safe for
// concurrent use, so callers create one per sort.
func NewCollator() *collate.Collator {
	return collate.New(Tag)
}

// SortStable orders items by the name returned from key using pt-BR collation.
func SortStable[T any](items []T, key func(T) string) {
	col := NewCollator()
	sort.SliceStable(items, func(i, j int) bool {
		return col.CompareString(key(items[i]), key(items[j])) < 0
	})
}

// Less reports whether a sorts before b.
func Less(a, b string) bool {
	return NewCollator().CompareString(a, b) < 0
}

// FormatCount renders a count with pt-BR digit grouping, e.g. 1.234.567.
func FormatCount(v float64) string {
	p := message.NewPrinter(Tag)
	return p.Sprint(number.Decimal(v, number.MaxFractionDigits(0)))
}

// FormatPercent renders a percentage rounded to one decimal place.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
