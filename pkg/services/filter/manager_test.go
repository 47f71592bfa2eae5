package filter

import (
	"testing"

	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/services/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset() *dataset.Dataset {
	rows := []domain.IndicatorRow{
		{State: "MG", Municipality: "310620", MunicipalityName: "Belo Horizonte", Year: "2022", Sex: domain.SexFemale, Phase: domain.PhaseAdolescent, Total: 10},
		{State: "MG", Municipality: "310620", MunicipalityName: "Belo Horizonte", Year: "2023", Sex: domain.SexMale, Phase: domain.PhaseAdult, Total: 12},
		{State: "MG", Municipality: "317020", MunicipalityName: "Uberlândia", Year: "2023", Sex: domain.SexFemale, Phase: domain.PhaseAdult, Total: 7},
		{State: "AC", Municipality: "120040", MunicipalityName: "Rio Branco", Year: "2021", Sex: domain.SexFemale, Phase: domain.PhaseAdult, Total: 3},
	}
	regions := []domain.RegionLookupRow{
		{Municipality: "310620", Region: "31001", State: "MG", Name: "Centro"},
		{Municipality: "317020", Region: "31002", State: "MG", Name: "Triângulo do Norte"},
		{Municipality: "120040", Region: "12001", State: "AC", Name: "Baixo Acre"},
	}
	return dataset.New(rows, regions)
}

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager(testDataset(), WithYearPinned())

	s := m.State()
	assert.Equal(t, "", s.State)
	assert.True(t, s.National())
	assert.Equal(t, domain.SubdivisionAdministrative, s.Subdivision)
	assert.Equal(t, domain.SexAll, s.Sex)
	// last phase present in the data
	assert.Equal(t, domain.PhaseAdult, s.Phase)
	assert.Equal(t, domain.IndicatorUnderweight, s.Indicator)
	assert.Equal(t, "2023", s.Year)
	assert.Empty(t, s.Indicators)
}

func TestManager_Options(t *testing.T) {
	m := NewManager(testDataset(), WithYearPinned(), WithTotalIndicator())

	opts := m.Options()

	assert.Equal(t, []domain.NamedCode{
		{Code: "AC", Name: "Acre (AC)"},
		{Code: "MG", Name: "Minas Gerais (MG)"},
	}, opts.States)
	assert.Equal(t, []string{"2023", "2022", "2021"}, opts.Years)
	assert.Equal(t, []domain.Sex{domain.SexAll, domain.SexMale, domain.SexFemale}, opts.Sexes)
	assert.Equal(t, []domain.LifePhase{domain.PhaseAdolescent, domain.PhaseAdult}, opts.Phases)
	assert.Contains(t, opts.Indicators, domain.IndicatorTotal)
	assert.Empty(t, opts.Areas)
	assert.Empty(t, opts.Menu)
}

func TestManager_CascadingResets(t *testing.T) {
	m := NewManager(testDataset())

	require.NoError(t, m.SetState("MG"))
	assert.Equal(t, []domain.NamedCode{
		{Code: "310620", Name: "Belo Horizonte"},
		{Code: "317020", Name: "Uberlândia"},
	}, m.Options().Areas)

	require.NoError(t, m.SetArea("317020"))
	assert.Equal(t, "317020", m.State().Area)

	// Given a municipality selected, when switching to health regions
	require.NoError(t, m.SetSubdivision(domain.SubdivisionHealthRegion))

	// Then the area resets and the options list regions
	assert.Equal(t, "", m.State().Area)
	assert.Equal(t, []domain.NamedCode{
		{Code: "31001", Name: "Centro"},
		{Code: "31002", Name: "Triângulo do Norte"},
	}, m.Options().Areas)

	// When switching back to the administrative subdivision with a region selected
	require.NoError(t, m.SetArea("31002"))
	require.NoError(t, m.SetSubdivision(domain.SubdivisionAdministrative))

	// Then the municipalities are listed again and the region code is dropped
	assert.Equal(t, "", m.State().Area)
	assert.Equal(t, domain.SubdivisionAdministrative, m.State().Subdivision)
	assert.Equal(t, []domain.NamedCode{
		{Code: "310620", Name: "Belo Horizonte"},
		{Code: "317020", Name: "Uberlândia"},
	}, m.Options().Areas)
	require.NoError(t, m.SetArea("310620"))

	require.NoError(t, m.SetSubdivision(domain.SubdivisionHealthRegion))
	require.NoError(t, m.SetArea("31002"))
	require.NoError(t, m.SetState("AC"))
	assert.Equal(t, "", m.State().Area)
	assert.Equal(t, domain.SubdivisionHealthRegion, m.State().Subdivision)
}

func TestManager_SetPhaseRepopulatesIndicators(t *testing.T) {
	m := NewManager(testDataset(), WithIndicatorMenu())
	require.NoError(t, m.SetIndicator(domain.IndicatorObesityGrade2))
	require.NoError(t, m.ToggleIndicator(domain.IndicatorExcessWeight))

	require.NoError(t, m.SetPhase(domain.PhaseAdolescent))

	s := m.State()
	assert.Equal(t, domain.IndicatorSevereThinness, s.Indicator)
	assert.Equal(t, domain.IndicatorColumns(domain.PhaseAdolescent), s.Indicators)
	assert.Empty(t, m.Options().Menu)

	require.NoError(t, m.SetPhase(domain.PhaseAdult))
	assert.Equal(t, domain.IndicatorColumns(domain.PhaseAdult), m.State().Indicators)
}

func TestManager_Rejections(t *testing.T) {
	m := NewManager(testDataset())

	tests := []struct {
		name  string
		field Field
		value string
	}{
		{name: "unknown state", field: FieldState, value: "ZZ"},
		{name: "area outside state", field: FieldArea, value: "120040"},
		{name: "unknown sex", field: FieldSex, value: "Outro"},
		{name: "unknown phase", field: FieldPhase, value: "idoso"},
		{name: "indicator of other phase", field: FieldIndicator, value: domain.IndicatorThinness},
		{name: "year not selectable", field: FieldYear, value: "2023"},
		{name: "menu disabled", field: FieldIndicators, value: domain.IndicatorExcessWeight},
		{name: "unknown field", field: Field("color"), value: "x"},
	}

	before := m.State()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Set(tt.field, tt.value)
			assert.ErrorIs(t, err, ErrUnknownOption)
			assert.Equal(t, before, m.State())
		})
	}
}

func TestManager_ToggleDisabledIndicator(t *testing.T) {
	m := NewManager(testDataset(), WithIndicatorMenu())
	require.NoError(t, m.ToggleIndicator(domain.IndicatorComputedObesity))

	err := m.ToggleIndicator(domain.IndicatorObesityGrade1)

	assert.ErrorIs(t, err, ErrDisabledIndicator)
	assert.Contains(t, m.State().Indicators, domain.IndicatorComputedObesity)
}

func TestManager_Subscribe(t *testing.T) {
	m := NewManager(testDataset())

	var order []string
	var changes []Change
	unsubscribe := m.Subscribe(func(c Change) {
		order = append(order, "first")
		changes = append(changes, c)
	})
	m.Subscribe(func(Change) { order = append(order, "second") })

	require.NoError(t, m.SetSex(domain.SexFemale))
	assert.Equal(t, []string{"first", "second"}, order)
	require.Len(t, changes, 1)
	assert.Equal(t, FieldSex, changes[0].Field)
	assert.Equal(t, domain.SexAll, changes[0].Previous.Sex)
	assert.Equal(t, domain.SexFemale, changes[0].Current.Sex)

	// rejected mutations do not notify
	assert.Error(t, m.SetSex("Outro"))
	assert.Len(t, changes, 1)

	unsubscribe()
	require.NoError(t, m.SetSex(domain.SexMale))
	assert.Len(t, changes, 1)
	assert.Equal(t, []string{"first", "second", "second"}, order)
}

func TestManager_SubscriberMayReadState(t *testing.T) {
	m := NewManager(testDataset())

	var seen domain.FilterState
	m.Subscribe(func(Change) { seen = m.State() })

	require.NoError(t, m.SetState("AC"))
	assert.Equal(t, "AC", seen.State)
}
