package visual

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/de-tools/sisvan-atlas/pkg/geo"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/render/chart"
	"github.com/de-tools/sisvan-atlas/pkg/services/aggregate"
	"github.com/de-tools/sisvan-atlas/pkg/services/dataset"
	"github.com/de-tools/sisvan-atlas/pkg/services/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var municipalityNames = map[string]string{
	"310620": "Belo Horizonte",
	"317020": "Uberlândia",
	"120040": "Rio Branco",
}

func adult(uf, mun, year string, sex domain.Sex, total float64, values map[string]float64) domain.IndicatorRow {
	return domain.IndicatorRow{
		State:            uf,
		Municipality:     mun,
		MunicipalityName: municipalityNames[mun],
		Year:             year,
		Sex:              sex,
		Phase:            domain.PhaseAdult,
		Total:            total,
		Values:           values,
	}
}

func testDataset() *dataset.Dataset {
	rows := []domain.IndicatorRow{
		adult("MG", "310620", "2023", domain.SexFemale, 100, map[string]float64{
			domain.IndicatorUnderweight: 5, domain.IndicatorEutrophic: 50, domain.IndicatorOverweight: 30,
			domain.IndicatorObesityGrade1: 10, domain.IndicatorObesityGrade2: 3, domain.IndicatorObesityGrade3: 2,
		}),
		adult("MG", "310620", "2023", domain.SexMale, 50, map[string]float64{
			domain.IndicatorUnderweight: 5, domain.IndicatorEutrophic: 30, domain.IndicatorOverweight: 10,
			domain.IndicatorObesityGrade1: 5,
		}),
		adult("MG", "317020", "2023", domain.SexFemale, 40, map[string]float64{
			domain.IndicatorEutrophic: 32, domain.IndicatorOverweight: 8,
		}),
		adult("AC", "120040", "2023", domain.SexFemale, 20, map[string]float64{
			domain.IndicatorEutrophic: 16, domain.IndicatorOverweight: 4,
		}),
		adult("MG", "310620", "2022", domain.SexFemale, 80, map[string]float64{
			domain.IndicatorEutrophic: 64, domain.IndicatorOverweight: 16,
		}),
	}
	regions := []domain.RegionLookupRow{
		{Municipality: "310620", Region: "31001", State: "MG", Name: "Centro"},
		{Municipality: "317020", Region: "31002", State: "MG", Name: "Triângulo do Norte"},
		{Municipality: "120040", Region: "12001", State: "AC", Name: "Baixo Acre"},
	}
	return dataset.New(rows, regions)
}

const (
	countryJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"name":"Brasil"},"geometry":{"type":"Polygon","coordinates":[[[-73,-33],[-35,-33],[-35,5],[-73,5],[-73,-33]]]}}]}`
	statesJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","id":"MG","properties":{"Estado":"Minas Gerais"},"geometry":{"type":"Polygon","coordinates":[[[-50,-20],[-40,-20],[-40,-15],[-50,-15],[-50,-20]]]}},
{"type":"Feature","id":"AC","properties":{"Estado":"Acre"},"geometry":{"type":"Polygon","coordinates":[[[-73,-11],[-66,-11],[-66,-7],[-73,-7],[-73,-11]]]}}]}`
	mgMunicipalitiesJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"id":"3106200","name":"Belo Horizonte"},"geometry":{"type":"Polygon","coordinates":[[[-44,-20],[-43,-20],[-43,-19],[-44,-19],[-44,-20]]]}},
{"type":"Feature","properties":{"id":"3170206","name":"Uberlândia"},"geometry":{"type":"Polygon","coordinates":[[[-48,-19],[-47,-19],[-47,-18],[-48,-18],[-48,-19]]]}}]}`
	mgRegionsJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"reg_id":31001,"nome":"Centro"},"geometry":{"type":"Polygon","coordinates":[[[-45,-21],[-43,-21],[-43,-19],[-45,-19],[-45,-21]]]}},
{"type":"Feature","properties":{"reg_id":31002,"nome":"Triângulo do Norte"},"geometry":{"type":"Polygon","coordinates":[[[-49,-20],[-47,-20],[-47,-18],[-49,-18],[-49,-20]]]}}]}`
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Layer(ctx context.Context, drill domain.Drill) (*geo.Layer, error) {
	args := m.Called(ctx, drill)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geo.Layer), args.Error(1)
}

func decode(t *testing.T, data string, kind geo.Kind) *geo.Layer {
	t.Helper()
	layer, err := geo.Decode([]byte(data), kind)
	require.NoError(t, err)
	return layer
}

func testStore(t *testing.T) *mockStore {
	store := new(mockStore)
	store.On("Layer", mock.Anything, domain.NationalDrill()).Return(decode(t, countryJSON, geo.KindCountry), nil).Maybe()
	store.On("Layer", mock.Anything, domain.StatesDrill()).Return(decode(t, statesJSON, geo.KindStates), nil).Maybe()
	store.On("Layer", mock.Anything, domain.StateDrill("MG", domain.SubdivisionAdministrative)).
		Return(decode(t, mgMunicipalitiesJSON, geo.KindMunicipalities), nil).Maybe()
	store.On("Layer", mock.Anything, domain.StateDrill("MG", domain.SubdivisionHealthRegion)).
		Return(decode(t, mgRegionsJSON, geo.KindHealthRegions), nil).Maybe()
	store.On("Layer", mock.Anything, domain.StateDrill("AC", domain.SubdivisionAdministrative)).
		Return(nil, geo.ErrNoGeometry).Maybe()
	return store
}

type countingEngine struct {
	aggregate.Engine
	mu    sync.Mutex
	calls int
}

func (e *countingEngine) Aggregate(ctx context.Context, rows []domain.IndicatorRow, lookup domain.RegionIndex, f domain.FilterState, q aggregate.Query) aggregate.Result {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return e.Engine.Aggregate(ctx, rows, lookup, f, q)
}

func (e *countingEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func TestMapping_Lifecycle(t *testing.T) {
	ctx := context.Background()
	engine := &countingEngine{Engine: aggregate.NewEngine()}
	var pushed []domain.Counters
	m := NewMapping(Deps{
		Engine:     engine,
		OnCounters: func(k Kind, c domain.Counters) { pushed = append(pushed, c) },
	})

	// Given an unloaded module
	assert.Equal(t, Unloaded, m.Lifecycle())
	_, err := m.Filters()
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = m.Chart(ctx, chart.Size{})
	assert.ErrorIs(t, err, ErrNotLoaded)

	// When a dataset is attached
	require.NoError(t, m.Load(ctx, testDataset()))

	// Then the first frame is drawn for the latest year
	assert.Equal(t, Rendered, m.Lifecycle())
	assert.Equal(t, domain.Counters{Female: 160, Male: 50, Total: 210}, m.Counters())
	require.Len(t, pushed, 1)
	assert.Equal(t, "Mapeamento de Estados Nutricionais em Adultos Todos - Brasil 2023", m.Title())

	c, err := m.Chart(ctx, chart.Size{})
	require.NoError(t, err)
	assert.NotNil(t, c.SVG.Find("bar-sobrepeso-total"))

	// And resizing reuses the last aggregation
	calls := engine.Calls()
	resized, err := m.Chart(ctx, chart.Size{Width: 400, Height: 300})
	require.NoError(t, err)
	assert.Equal(t, calls, engine.Calls())
	w, _ := resized.SVG.Get("width")
	assert.Equal(t, "400", w)

	// And a filter change aggregates again
	filters, err := m.Filters()
	require.NoError(t, err)
	require.NoError(t, filters.SetState("MG"))
	assert.Greater(t, engine.Calls(), calls)
	assert.Equal(t, domain.Counters{Female: 140, Male: 50, Total: 190}, m.Counters())
	assert.Equal(t, "Mapeamento de Estados Nutricionais em Adultos Todos - Minas Gerais 2023", m.Title())
	require.Len(t, pushed, 2)

	require.NoError(t, filters.SetArea("317020"))
	assert.Equal(t, "Mapeamento de Estados Nutricionais em Adultos Todos - Uberlândia-MG 2023", m.Title())

	// When closed
	m.Close()
	assert.Equal(t, Closed, m.Lifecycle())
	_, err = m.Chart(ctx, chart.Size{})
	assert.ErrorIs(t, err, ErrClosed)
	m.Close()
}

func TestMapping_EmptyMenuRendersPlaceholder(t *testing.T) {
	ctx := context.Background()
	m := NewMapping(Deps{})
	require.NoError(t, m.Load(ctx, testDataset()))
	filters, err := m.Filters()
	require.NoError(t, err)

	for _, k := range domain.IndicatorColumns(domain.PhaseAdult) {
		require.NoError(t, filters.ToggleIndicator(k))
	}

	c, err := m.Chart(ctx, chart.Size{})
	require.NoError(t, err)
	assert.True(t, c.Empty)
	assert.Equal(t, domain.Counters{}, m.Counters())
}

func TestTemporal_Render(t *testing.T) {
	ctx := context.Background()
	m := NewTemporal(Deps{})
	require.NoError(t, m.Load(ctx, testDataset()))
	filters, err := m.Filters()
	require.NoError(t, err)

	require.NoError(t, filters.SetIndicator(domain.IndicatorOverweight))

	assert.Equal(t, "Análise Temporal de Sobrepeso em Adultos - Brasil", m.Title())
	assert.Equal(t, domain.Counters{Female: 240, Male: 50, Total: 290}, m.Counters())

	c, err := m.Chart(ctx, chart.Size{})
	require.NoError(t, err)
	html, ok := c.Tooltip("point-fem-2023")
	require.True(t, ok)
	// (30 + 8 + 4) / 160
	assert.Equal(t, "<strong>2023</strong><br/>26.2%", html)
	_, ok = c.Tooltip("point-all-2022")
	assert.True(t, ok)

	require.NoError(t, filters.SetSex(domain.SexMale))
	assert.Equal(t, "Análise Temporal de Sobrepeso em Adultos Masculinos - Brasil", m.Title())
	c, err = m.Chart(ctx, chart.Size{})
	require.NoError(t, err)
	_, ok = c.Tooltip("point-fem-2023")
	assert.False(t, ok)
	html, _ = c.Tooltip("point-masc-2023")
	assert.Equal(t, "<strong>2023</strong><br/>20.0%", html)
}

func TestRegional_DrillHierarchy(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	m := NewRegional(Deps{}, store)
	require.NoError(t, m.Load(ctx, testDataset()))

	// Given the national view
	assert.Equal(t, domain.NationalDrill(), m.Drill())
	assert.Equal(t, "Mapeamento Regional de Baixo Peso em Adultos - 2023", m.Title())
	assert.Equal(t, domain.Counters{Female: 5, Male: 5, Total: 10}, m.Counters())
	c, err := m.Chart(ctx, chart.Size{})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Targets())
	require.NotNil(t, c.Legend)

	// When drilling into the states
	require.NoError(t, m.DrillDown(ctx, ""))
	assert.Equal(t, domain.StatesDrill(), m.Drill())
	c, err = m.Chart(ctx, chart.Size{})
	require.NoError(t, err)
	assert.NotNil(t, c.SVG.Find("area-MG"))
	drill, _ := c.SVG.Find("area-MG").Get("data-drill")
	assert.Equal(t, "MG", drill)

	// And into one state
	require.NoError(t, m.DrillDown(ctx, "MG"))
	assert.Equal(t, domain.StateDrill("MG", domain.SubdivisionAdministrative), m.Drill())
	assert.Equal(t, "Mapeamento Regional de Baixo Peso em Adultos - Minas Gerais 2023", m.Title())
	c, err = m.Chart(ctx, chart.Size{})
	require.NoError(t, err)
	bh := c.SVG.Find("area-3106200")
	require.NotNil(t, bh)
	fill, _ := bh.Get("fill")
	assert.NotEqual(t, "#ccc", fill)
	fill, _ = c.SVG.Find("area-3170206").Get("fill")
	assert.Equal(t, "#ccc", fill)
	_, drillable := bh.Get("data-drill")
	assert.False(t, drillable)
	assert.ErrorIs(t, m.DrillDown(ctx, "3106200"), ErrInvalidDrill)

	// And switching subdivision keeps the state
	filters, err := m.Filters()
	require.NoError(t, err)
	require.NoError(t, filters.SetSubdivision(domain.SubdivisionHealthRegion))
	assert.Equal(t, domain.StateDrill("MG", domain.SubdivisionHealthRegion), m.Drill())
	c, err = m.Chart(ctx, chart.Size{})
	require.NoError(t, err)
	assert.NotNil(t, c.SVG.Find("area-31001"))

	// Then drilling up walks back to the country
	require.NoError(t, m.DrillUp(ctx))
	assert.Equal(t, domain.StatesDrill(), m.Drill())
	require.NoError(t, m.DrillUp(ctx))
	assert.Equal(t, domain.NationalDrill(), m.Drill())
	require.NoError(t, m.DrillUp(ctx))
	assert.Equal(t, domain.NationalDrill(), m.Drill())
}

func TestRegional_DrillErrors(t *testing.T) {
	ctx := context.Background()
	m := NewRegional(Deps{}, testStore(t))

	assert.ErrorIs(t, m.DrillDown(ctx, "MG"), ErrNotLoaded)

	require.NoError(t, m.Load(ctx, testDataset()))
	require.NoError(t, m.DrillDown(ctx, ""))

	assert.ErrorIs(t, m.DrillDown(ctx, ""), ErrInvalidDrill)
	assert.ErrorIs(t, m.DrillDown(ctx, "ZZ"), filter.ErrUnknownOption)
	assert.Equal(t, domain.StatesDrill(), m.Drill())
}

func TestRegional_MissingGeometryDrawsPlaceholder(t *testing.T) {
	ctx := context.Background()
	m := NewRegional(Deps{}, testStore(t))
	require.NoError(t, m.Load(ctx, testDataset()))
	require.NoError(t, m.DrillDown(ctx, ""))

	require.NoError(t, m.DrillDown(ctx, "AC"))

	c, err := m.Chart(ctx, chart.Size{})
	require.NoError(t, err)
	assert.True(t, c.Empty)
	assert.Equal(t, Rendered, m.Lifecycle())
}

func TestRegional_TotalUsesCounts(t *testing.T) {
	ctx := context.Background()
	m := NewRegional(Deps{}, testStore(t))
	require.NoError(t, m.Load(ctx, testDataset()))
	filters, err := m.Filters()
	require.NoError(t, err)
	require.NoError(t, m.DrillDown(ctx, ""))

	require.NoError(t, filters.SetIndicator(domain.IndicatorTotal))

	assert.Equal(t, domain.Counters{Female: 160, Male: 50, Total: 210}, m.Counters())
	c, err := m.Chart(ctx, chart.Size{})
	require.NoError(t, err)
	html, ok := c.Tooltip("area-MG")
	require.True(t, ok)
	assert.Contains(t, html, "Minas Gerais: <span class=\"notbold\">190</span>")
}

func TestModule_Fail(t *testing.T) {
	m := NewTemporal(Deps{})

	m.Fail(errors.New("boom"))

	assert.Equal(t, Failed, m.Lifecycle())
	assert.EqualError(t, m.Err(), "boom")
	_, err := m.Filters()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("regional")
	require.NoError(t, err)
	assert.Equal(t, KindRegional, k)

	_, err = ParseKind("pie")
	assert.ErrorIs(t, err, ErrUnknownModule)
}
