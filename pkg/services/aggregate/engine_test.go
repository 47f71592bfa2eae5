package aggregate

import (
	"context"
	"testing"

	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adultRow(uf, mun, name, year string, sex domain.Sex, total float64, values map[string]float64) domain.IndicatorRow {
	return domain.IndicatorRow{
		State:            uf,
		Municipality:     mun,
		MunicipalityName: name,
		Year:             year,
		Sex:              sex,
		Phase:            domain.PhaseAdult,
		Total:            total,
		Values:           values,
	}
}

func TestAggregate_StatePercentBySex(t *testing.T) {
	rows := []domain.IndicatorRow{
		adultRow("MG", "310620", "Belo Horizonte", "2020", domain.SexFemale, 100, map[string]float64{domain.IndicatorOverweight: 30}),
		adultRow("MG", "310620", "Belo Horizonte", "2020", domain.SexMale, 50, map[string]float64{domain.IndicatorOverweight: 10}),
	}
	f := domain.FilterState{
		State:     "MG",
		Sex:       domain.SexAll,
		Phase:     domain.PhaseAdult,
		Indicator: domain.IndicatorOverweight,
		Year:      "2020",
	}

	res := NewEngine().Aggregate(context.Background(), rows, nil, f, Query{})

	require.Len(t, res.Groups, 1)
	g := res.Groups[0]
	assert.Equal(t, "MG", g.Key)
	assert.Equal(t, "Minas Gerais", g.Label)
	assert.InDelta(t, 26.666, g.Value.All, 0.001)
	assert.InDelta(t, 30.0, g.Value.Female, 1e-9)
	assert.InDelta(t, 20.0, g.Value.Male, 1e-9)
	assert.Equal(t, domain.Counters{Female: 100, Male: 50, Total: 150}, res.Totals)
	assert.Equal(t, domain.Counters{Female: 30, Male: 10, Total: 40}, res.Cases)
}

func TestAggregate_UnresolvedMunicipality(t *testing.T) {
	rows := []domain.IndicatorRow{
		adultRow("MG", "310620", "Belo Horizonte", "2023", domain.SexFemale, 10, map[string]float64{domain.IndicatorEutrophic: 4}),
		adultRow("MG", "999999", "Sem Região", "2023", domain.SexFemale, 20, map[string]float64{domain.IndicatorEutrophic: 6}),
	}
	lookup := domain.RegionIndex{
		"310620": {Municipality: "310620", Region: "31001", State: "MG", Name: "Centro"},
	}
	f := domain.FilterState{
		State:     "MG",
		Sex:       domain.SexAll,
		Phase:     domain.PhaseAdult,
		Indicator: domain.IndicatorEutrophic,
		Year:      "2023",
	}
	e := NewEngine()

	// Given health-region grouping, the unmapped municipality is dropped
	regional := e.Aggregate(context.Background(), rows, lookup, f, Query{GroupBy: GroupByRegion, Mode: ModeCount})
	assert.Equal(t, 1, regional.Unresolved)
	require.Len(t, regional.Groups, 1)
	assert.Equal(t, "31001", regional.Groups[0].Key)
	assert.Equal(t, "Centro", regional.Groups[0].Label)
	assert.Equal(t, 4.0, regional.Cases.Total)

	// And administrative grouping still counts it
	admin := e.Aggregate(context.Background(), rows, lookup, f, Query{GroupBy: GroupByMunicipality, Mode: ModeCount})
	assert.Equal(t, 0, admin.Unresolved)
	assert.Len(t, admin.Groups, 2)
	assert.Equal(t, 10.0, admin.Cases.Total)
}

func TestAggregate_HealthRegionArea(t *testing.T) {
	rows := []domain.IndicatorRow{
		adultRow("MG", "310620", "Belo Horizonte", "2023", domain.SexFemale, 10, nil),
		adultRow("MG", "310670", "Betim", "2023", domain.SexMale, 20, nil),
		adultRow("MG", "317020", "Uberlândia", "2023", domain.SexMale, 40, nil),
		adultRow("MG", "999999", "Sem Região", "2023", domain.SexMale, 80, nil),
	}
	lookup := domain.RegionIndex{
		"310620": {Municipality: "310620", Region: "31001", State: "MG"},
		"310670": {Municipality: "310670", Region: "31001", State: "MG"},
		"317020": {Municipality: "317020", Region: "31002", State: "MG"},
	}
	f := domain.FilterState{
		State:       "MG",
		Subdivision: domain.SubdivisionHealthRegion,
		Area:        "31001",
		Sex:         domain.SexAll,
		Phase:       domain.PhaseAdult,
		Indicator:   domain.IndicatorTotal,
	}

	res := NewEngine().Aggregate(context.Background(), rows, lookup, f, Query{GroupBy: GroupByYear, Mode: ModeCount})

	require.Len(t, res.Groups, 1)
	assert.Equal(t, 30.0, res.Groups[0].Value.All)
	assert.Equal(t, 1, res.Unresolved)
}

func TestAggregate_SyntheticIndicators(t *testing.T) {
	values := map[string]float64{
		domain.IndicatorOverweight:    12,
		domain.IndicatorObesityGrade1: 5,
		domain.IndicatorObesityGrade2: 3,
		domain.IndicatorObesityGrade3: 1,
	}
	rows := []domain.IndicatorRow{
		adultRow("AC", "120040", "Rio Branco", "2021", domain.SexFemale, 50, values),
		adultRow("AC", "120040", "Rio Branco", "2022", domain.SexMale, 40, values),
		adultRow("AM", "130260", "Manaus", "2022", domain.SexMale, 40, values),
	}
	f := domain.FilterState{Sex: domain.SexAll, Phase: domain.PhaseAdult}
	e := NewEngine()

	for _, by := range []GroupBy{GroupNone, GroupByYear, GroupByState, GroupByMunicipality} {
		t.Run(by.String(), func(t *testing.T) {
			synth := e.Aggregate(context.Background(), rows, nil, f, Query{
				GroupBy: by, Mode: ModeCount, Indicators: []string{domain.IndicatorExcessWeight},
			})
			parts := e.Aggregate(context.Background(), rows, nil, f, Query{
				GroupBy: by, Mode: ModeCount, Indicators: domain.Components(domain.IndicatorExcessWeight),
			})
			require.Equal(t, len(parts.Groups), len(synth.Groups))
			for i := range synth.Groups {
				assert.Equal(t, parts.Groups[i].Value, synth.Groups[i].Value)
			}
		})
	}

	calc := e.Aggregate(context.Background(), rows, nil, f, Query{Mode: ModeCount, Indicators: []string{domain.IndicatorComputedObesity}})
	assert.Equal(t, 27.0, calc.Groups[0].Value.All)
}

func TestAggregate_BarChartShares(t *testing.T) {
	rows := []domain.IndicatorRow{
		adultRow("SP", "355030", "São Paulo", "2023", domain.SexFemale, 100, map[string]float64{
			domain.IndicatorUnderweight: 10, domain.IndicatorEutrophic: 30,
		}),
		adultRow("SP", "355030", "São Paulo", "2023", domain.SexMale, 100, map[string]float64{
			domain.IndicatorUnderweight: 20, domain.IndicatorEutrophic: 40,
		}),
	}
	f := domain.FilterState{
		Sex:        domain.SexAll,
		Phase:      domain.PhaseAdult,
		Year:       "2023",
		Indicators: []string{domain.IndicatorUnderweight, domain.IndicatorEutrophic},
	}

	res := NewEngine().Aggregate(context.Background(), rows, nil, f, Query{
		GroupBy: GroupByIndicator, Denominator: DenomSelected,
	})

	require.Len(t, res.Groups, 2)
	assert.Equal(t, domain.IndicatorUnderweight, res.Groups[0].Key)
	assert.Equal(t, "Baixo Peso", res.Groups[0].Label)
	// grand total of the selected columns is 100
	assert.InDelta(t, 10.0, res.Groups[0].Share.Female, 1e-9)
	assert.InDelta(t, 20.0, res.Groups[0].Share.Male, 1e-9)
	assert.InDelta(t, 30.0, res.Groups[0].Share.All, 1e-9)
	assert.InDelta(t, 70.0, res.Groups[1].Share.All, 1e-9)

	var sum float64
	for _, g := range res.Groups {
		assert.InDelta(t, g.Share.All, g.Share.Female+g.Share.Male, 1e-9)
		sum += g.Share.All
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
	assert.Equal(t, [2]float64{30, 70}, res.Domain)
}

func TestAggregate_ZeroDenominator(t *testing.T) {
	rows := []domain.IndicatorRow{
		adultRow("RR", "140010", "Boa Vista", "2023", domain.SexFemale, 0, map[string]float64{domain.IndicatorOverweight: 0}),
	}
	f := domain.FilterState{Sex: domain.SexAll, Phase: domain.PhaseAdult, Indicator: domain.IndicatorOverweight}

	for _, d := range []Denominator{DenomRespondents, DenomIndicatorSum, DenomSelected} {
		res := NewEngine().Aggregate(context.Background(), rows, nil, f, Query{Denominator: d})
		require.Len(t, res.Groups, 1)
		assert.Equal(t, SexValues{}, res.Groups[0].Value)
	}
}

func TestAggregate_PercentBounds(t *testing.T) {
	rows := []domain.IndicatorRow{
		adultRow("BA", "292740", "Salvador", "2022", domain.SexFemale, 90, map[string]float64{
			domain.IndicatorUnderweight: 5, domain.IndicatorEutrophic: 40, domain.IndicatorOverweight: 25,
			domain.IndicatorObesityGrade1: 10, domain.IndicatorObesityGrade2: 6, domain.IndicatorObesityGrade3: 4,
		}),
		adultRow("BA", "292740", "Salvador", "2023", domain.SexMale, 0, map[string]float64{}),
		adultRow("PE", "261160", "Recife", "2023", domain.SexMale, 70, map[string]float64{
			domain.IndicatorUnderweight: 2, domain.IndicatorEutrophic: 30, domain.IndicatorOverweight: 20,
			domain.IndicatorObesityGrade1: 10, domain.IndicatorObesityGrade2: 5, domain.IndicatorObesityGrade3: 3,
		}),
	}
	keys := append(domain.IndicatorColumns(domain.PhaseAdult), domain.IndicatorExcessWeight, domain.IndicatorComputedObesity)
	e := NewEngine()

	for _, sex := range domain.Sexes {
		for _, key := range keys {
			for _, by := range []GroupBy{GroupNone, GroupByYear, GroupByState, GroupByMunicipality} {
				for _, d := range []Denominator{DenomRespondents, DenomIndicatorSum} {
					f := domain.FilterState{Sex: sex, Phase: domain.PhaseAdult, Indicator: key}
					res := e.Aggregate(context.Background(), rows, nil, f, Query{GroupBy: by, Denominator: d})
					for _, g := range res.Groups {
						for _, v := range []float64{g.Value.All, g.Value.Female, g.Value.Male} {
							assert.GreaterOrEqual(t, v, 0.0)
							assert.LessOrEqual(t, v, 100.0)
						}
					}
				}
			}
		}
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	rows := []domain.IndicatorRow{
		adultRow("SP", "355030", "São Paulo", "2023", domain.SexFemale, 10, map[string]float64{domain.IndicatorEutrophic: 3}),
		adultRow("RJ", "330455", "Rio de Janeiro", "2023", domain.SexMale, 10, map[string]float64{domain.IndicatorEutrophic: 7}),
		adultRow("ES", "320530", "Vitória", "2023", domain.SexMale, 10, map[string]float64{domain.IndicatorEutrophic: 5}),
	}
	f := domain.FilterState{Sex: domain.SexAll, Phase: domain.PhaseAdult, Indicator: domain.IndicatorEutrophic}
	q := Query{GroupBy: GroupByState}

	first := NewEngine().Aggregate(context.Background(), rows, nil, f, q)
	second := NewEngine().Aggregate(context.Background(), rows, nil, f, q)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"ES", "RJ", "SP"}, keysOf(first))
}

func TestAggregate_CollationOrder(t *testing.T) {
	rows := []domain.IndicatorRow{
		adultRow("MT", "510340", "Fortaleza", "2023", domain.SexFemale, 1, nil),
		adultRow("MT", "510350", "Éden", "2023", domain.SexFemale, 1, nil),
		adultRow("MT", "510360", "Cuiabá", "2023", domain.SexFemale, 1, nil),
	}
	f := domain.FilterState{Sex: domain.SexAll, Phase: domain.PhaseAdult, Indicator: domain.IndicatorTotal}

	res := NewEngine().Aggregate(context.Background(), rows, nil, f, Query{GroupBy: GroupByMunicipality})

	assert.Equal(t, []string{"510360", "510350", "510340"}, keysOf(res))
}

type staticNames map[string]string

func (n staticNames) Name(_, code string) (string, bool) {
	name, ok := n[code]
	return name, ok
}

func TestAggregate_FriendlyNames(t *testing.T) {
	rows := []domain.IndicatorRow{
		adultRow("MT", "510340", "", "2023", domain.SexFemale, 1, nil),
		adultRow("MT", "510350", "", "2023", domain.SexFemale, 1, nil),
	}
	f := domain.FilterState{Sex: domain.SexAll, Phase: domain.PhaseAdult, Indicator: domain.IndicatorTotal}

	res := NewEngine(WithNames(staticNames{"510340": "Cuiabá"})).
		Aggregate(context.Background(), rows, nil, f, Query{GroupBy: GroupByMunicipality})

	g, ok := res.Group("510340")
	require.True(t, ok)
	assert.Equal(t, "Cuiabá", g.Label)
	g, ok = res.Group("510350")
	require.True(t, ok)
	assert.Equal(t, "510350", g.Label)
}

func TestAggregate_EmptyResult(t *testing.T) {
	rows := []domain.IndicatorRow{
		adultRow("MG", "310620", "Belo Horizonte", "2020", domain.SexFemale, 100, nil),
	}
	f := domain.FilterState{State: "AC", Sex: domain.SexAll, Phase: domain.PhaseAdult, Indicator: domain.IndicatorOverweight}

	res := NewEngine().Aggregate(context.Background(), rows, nil, f, Query{GroupBy: GroupByIndicator})

	assert.True(t, res.Empty())
	assert.Empty(t, res.Groups)
	assert.Equal(t, [2]float64{}, res.Domain)
	assert.Equal(t, domain.Counters{}, res.Totals)
}

func TestAggregate_DomainFollowsSex(t *testing.T) {
	rows := []domain.IndicatorRow{
		adultRow("AC", "120040", "Rio Branco", "2023", domain.SexFemale, 10, map[string]float64{domain.IndicatorOverweight: 5}),
		adultRow("AM", "130260", "Manaus", "2023", domain.SexFemale, 10, map[string]float64{domain.IndicatorOverweight: 1}),
		adultRow("AM", "130260", "Manaus", "2023", domain.SexMale, 10, map[string]float64{domain.IndicatorOverweight: 9}),
	}
	f := domain.FilterState{Sex: domain.SexFemale, Phase: domain.PhaseAdult, Indicator: domain.IndicatorOverweight}

	res := NewEngine().Aggregate(context.Background(), rows, nil, f, Query{GroupBy: GroupByState})

	assert.Equal(t, [2]float64{10, 50}, res.Domain)
	assert.Equal(t, map[string]float64{"AC": 50, "AM": 10}, res.Values(domain.SexFemale))
}

func keysOf(r Result) []string {
	out := make([]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		out = append(out, g.Key)
	}
	return out
}
