package filter

import (
	"testing"

	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryOf(t *testing.T, m *Menu, key string) domain.MenuEntry {
	t.Helper()
	for _, e := range m.Entries() {
		if e.Key == key {
			return e
		}
	}
	t.Fatalf("menu has no entry %q", key)
	return domain.MenuEntry{}
}

func TestMenu_Defaults(t *testing.T) {
	m := NewAdultMenu()

	assert.Equal(t, domain.IndicatorColumns(domain.PhaseAdult), m.Selected())
	assert.Len(t, m.Entries(), 8)
	assert.False(t, entryOf(t, m, domain.IndicatorExcessWeight).Checked)
	assert.False(t, entryOf(t, m, domain.IndicatorComputedObesity).Checked)
}

func TestMenu_ExcessWeightExcludesComponents(t *testing.T) {
	m := NewAdultMenu()

	require.NoError(t, m.Toggle(domain.IndicatorExcessWeight))

	assert.Equal(t, []string{
		domain.IndicatorUnderweight,
		domain.IndicatorEutrophic,
		domain.IndicatorExcessWeight,
	}, m.Selected())
	for _, k := range []string{
		domain.IndicatorOverweight,
		domain.IndicatorObesityGrade1,
		domain.IndicatorObesityGrade2,
		domain.IndicatorObesityGrade3,
		domain.IndicatorComputedObesity,
	} {
		e := entryOf(t, m, k)
		assert.True(t, e.Disabled, k)
		assert.False(t, e.Checked, k)
	}

	err := m.Toggle(domain.IndicatorOverweight)
	assert.ErrorIs(t, err, ErrDisabledIndicator)
}

func TestMenu_ComputedObesityKeepsOverweight(t *testing.T) {
	m := NewAdultMenu()

	require.NoError(t, m.Toggle(domain.IndicatorComputedObesity))

	assert.Equal(t, []string{
		domain.IndicatorUnderweight,
		domain.IndicatorEutrophic,
		domain.IndicatorOverweight,
		domain.IndicatorComputedObesity,
	}, m.Selected())
	assert.True(t, entryOf(t, m, domain.IndicatorExcessWeight).Disabled)
	assert.False(t, entryOf(t, m, domain.IndicatorOverweight).Disabled)
}

func TestMenu_CompanionsForcedWhileSyntheticActive(t *testing.T) {
	m := NewAdultMenu()
	require.NoError(t, m.Toggle(domain.IndicatorComputedObesity))

	// Unchecking a companion while a synthetic is active is undone.
	require.NoError(t, m.Toggle(domain.IndicatorUnderweight))

	assert.True(t, entryOf(t, m, domain.IndicatorUnderweight).Checked)
}

func TestMenu_UncheckRestoresUntouched(t *testing.T) {
	// Given a user who unchecked eutrofico and then picked excesso_peso
	m := NewAdultMenu()
	require.NoError(t, m.Toggle(domain.IndicatorEutrophic))
	require.NoError(t, m.Toggle(domain.IndicatorExcessWeight))

	// When excesso_peso is unchecked again
	require.NoError(t, m.Toggle(domain.IndicatorExcessWeight))

	// Then every untouched column is checked and enabled again
	for _, k := range domain.IndicatorColumns(domain.PhaseAdult) {
		e := entryOf(t, m, k)
		assert.False(t, e.Disabled, k)
	}
	assert.True(t, entryOf(t, m, domain.IndicatorOverweight).Checked)
	assert.True(t, entryOf(t, m, domain.IndicatorObesityGrade3).Checked)
	// eutrofico was forced on by the synthetic, so it stays checked
	assert.True(t, entryOf(t, m, domain.IndicatorEutrophic).Checked)
	assert.False(t, entryOf(t, m, domain.IndicatorExcessWeight).Checked)
}

func TestMenu_TouchedEntryStaysUnchecked(t *testing.T) {
	m := NewAdultMenu()

	require.NoError(t, m.Toggle(domain.IndicatorObesityGrade2))

	assert.False(t, entryOf(t, m, domain.IndicatorObesityGrade2).Checked)
	assert.NotContains(t, m.Selected(), domain.IndicatorObesityGrade2)
}

func TestMenu_UnknownKey(t *testing.T) {
	m := NewAdultMenu()
	assert.ErrorIs(t, m.Toggle("magreza"), ErrUnknownOption)
}

func TestMenu_Reset(t *testing.T) {
	m := NewAdultMenu()
	require.NoError(t, m.Toggle(domain.IndicatorExcessWeight))

	m.Reset()

	assert.Equal(t, domain.IndicatorColumns(domain.PhaseAdult), m.Selected())
	for _, e := range m.Entries() {
		assert.False(t, e.Disabled, e.Key)
	}
}
