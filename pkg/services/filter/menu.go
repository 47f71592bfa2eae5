package filter

import (
	"fmt"

	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
)

var (
	conflicts = map[string][]string{
		domain.IndicatorExcessWeight: {
			domain.IndicatorOverweight,
			domain.IndicatorObesityGrade1,
			domain.IndicatorObesityGrade2,
			domain.IndicatorObesityGrade3,
			domain.IndicatorComputedObesity,
		},
		domain.IndicatorComputedObesity: {
			domain.IndicatorObesityGrade1,
			domain.IndicatorObesityGrade2,
			domain.IndicatorObesityGrade3,
			domain.IndicatorExcessWeight,
		},
	}
	companions = map[string][]string{
		domain.IndicatorExcessWeight: {
			domain.IndicatorUnderweight,
			domain.IndicatorEutrophic,
		},
		domain.IndicatorComputedObesity: {
			domain.IndicatorUnderweight,
			domain.IndicatorEutrophic,
			domain.IndicatorOverweight,
		},
	}
	syntheticOrder = []string{domain.IndicatorExcessWeight, domain.IndicatorComputedObesity}
)

type menuEntry struct {
	key      string
	checked  bool
	disabled bool
	touched  bool
}

// Menu is the adult indicator checkbox menu. Synthetic entries exclude the
// columns they are computed from.
type Menu struct {
	entries []*menuEntry
	byKey   map[string]*menuEntry
}

func NewAdultMenu() *Menu {
	m := &Menu{byKey: map[string]*menuEntry{}}
	keys := append(domain.IndicatorColumns(domain.PhaseAdult), syntheticOrder...)
	for _, k := range keys {
		e := &menuEntry{key: k}
		m.entries = append(m.entries, e)
		m.byKey[k] = e
	}
	m.Reset()
	return m
}

// Reset restores the defaults: every concrete column checked, no synthetic.
func (m *Menu) Reset() {
	for _, e := range m.entries {
		e.checked = !domain.IsSynthetic(e.key)
		e.disabled = false
		e.touched = false
	}
}

// Toggle flips one entry and applies the exclusion rules.
func (m *Menu) Toggle(key string) error {
	e, ok := m.byKey[key]
	if !ok {
		return fmt.Errorf("%w: indicator %q", ErrUnknownOption, key)
	}
	if e.disabled {
		return fmt.Errorf("%w: %q", ErrDisabledIndicator, key)
	}

	e.touched = true
	e.checked = !e.checked

	if group, ok := conflicts[key]; ok {
		for _, k := range group {
			other := m.byKey[k]
			if e.checked {
				other.checked = false
				other.disabled = true
			} else {
				other.disabled = false
			}
		}
	}

	active := false
	for _, s := range syntheticOrder {
		if !m.byKey[s].checked {
			continue
		}
		active = true
		for _, k := range companions[s] {
			m.byKey[k].checked = true
		}
	}

	if !active {
		for _, entry := range m.entries {
			if !domain.IsSynthetic(entry.key) && !entry.touched {
				entry.checked = true
			}
		}
	}
	return nil
}

// Selected returns the checked keys in menu order.
func (m *Menu) Selected() []string {
	var out []string
	for _, e := range m.entries {
		if e.checked {
			out = append(out, e.key)
		}
	}
	return out
}

func (m *Menu) Entries() []domain.MenuEntry {
	out := make([]domain.MenuEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, domain.MenuEntry{Key: e.key, Checked: e.checked, Disabled: e.disabled})
	}
	return out
}
