package aggregate

import (
	"context"
	"math"
	"sort"

	"github.com/de-tools/sisvan-atlas/pkg/catalog"
	"github.com/de-tools/sisvan-atlas/pkg/locale"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Names resolves friendly municipality names.
type Names interface {
	Name(uf, code string) (string, bool)
}

// Engine turns filtered survey rows into grouped sums and percentages. It
// keeps no state between calls.
type Engine interface {
	Aggregate(ctx context.Context, rows []domain.IndicatorRow, lookup domain.RegionIndex, f domain.FilterState, q Query) Result
}

type Option func(*engine)

func WithNames(names Names) Option {
	return func(e *engine) { e.names = names }
}

func WithCatalog(c *catalog.Catalog) Option {
	return func(e *engine) { e.cat = c }
}

type engine struct {
	cat   *catalog.Catalog
	names Names
}

func NewEngine(opts ...Option) Engine {
	e := &engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.cat == nil {
		e.cat = catalog.Default()
	}
	return e
}

type bucket struct {
	key   string
	label string
	group Group
}

func (e *engine) Aggregate(
	ctx context.Context,
	rows []domain.IndicatorRow,
	lookup domain.RegionIndex,
	f domain.FilterState,
	q Query,
) Result {
	logger := zerolog.Ctx(ctx)
	keys := q.keys(f)

	var res Result
	buckets := map[string]*bucket{}
	var order []string

	get := func(key, label string) *bucket {
		b, ok := buckets[key]
		if !ok {
			b = &bucket{key: key, label: label}
			buckets[key] = b
			order = append(order, key)
		}
		return b
	}

	for _, row := range rows {
		if !e.matches(row, f, q) {
			continue
		}

		var region string
		needRegion := q.GroupBy == GroupByRegion ||
			(!q.IgnoreArea && f.Area != "" && f.Subdivision == domain.SubdivisionHealthRegion)
		if needRegion {
			r, ok := lookup.RegionOf(row.Municipality)
			if !ok {
				res.Unresolved++
				logger.Debug().
					Str("municipality", row.Municipality).
					Str("state", row.State).
					Msg("municipality has no health region")
				continue
			}
			region = r
			if !q.IgnoreArea && f.Area != "" && f.Subdivision == domain.SubdivisionHealthRegion && region != f.Area {
				continue
			}
		}

		res.Rows++
		res.Totals = addCounter(res.Totals, row.Sex, row.Total)
		for _, k := range keys {
			res.Cases = addCounter(res.Cases, row.Sex, numerator(row, k))
		}

		if q.GroupBy == GroupByIndicator {
			den := denominator(row, keys, q.Denominator)
			for _, k := range keys {
				b := get(k, e.cat.IndicatorName(k))
				b.group.Numerator.add(row.Sex, numerator(row, k))
				b.group.Denominator.add(row.Sex, den)
				b.group.Respondents.add(row.Sex, row.Total)
				b.group.Rows++
			}
			continue
		}

		key, label := e.groupKey(row, region, lookup, f, q.GroupBy)
		b := get(key, label)
		for _, k := range keys {
			b.group.Numerator.add(row.Sex, numerator(row, k))
		}
		b.group.Denominator.add(row.Sex, denominator(row, keys, q.Denominator))
		b.group.Respondents.add(row.Sex, row.Total)
		b.group.Rows++
	}

	res.Totals.Total = res.Totals.Female + res.Totals.Male
	res.Cases.Total = res.Cases.Female + res.Cases.Male

	if res.Unresolved > 0 {
		logger.Debug().Int("unresolved", res.Unresolved).Msg("rows dropped from health-region aggregation")
	}

	res.Groups = make([]Group, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		g := b.group
		g.Key = b.key
		g.Label = b.label
		finish(&g, q.Mode)
		res.Groups = append(res.Groups, g)
	}
	sortGroups(res.Groups, q.GroupBy, keys)
	res.Domain = valueDomain(res.Groups, f.Sex)
	return res
}

func (e *engine) matches(row domain.IndicatorRow, f domain.FilterState, q Query) bool {
	if f.Phase != "" && row.Phase != f.Phase {
		return false
	}
	if !q.IgnoreYear && f.Year != "" && row.Year != f.Year {
		return false
	}
	if f.Sex != "" && f.Sex != domain.SexAll && row.Sex != f.Sex {
		return false
	}
	if !q.IgnoreState && f.State != "" && row.State != f.State {
		return false
	}
	if !q.IgnoreArea && f.Area != "" && f.Subdivision != domain.SubdivisionHealthRegion {
		return row.Municipality == f.Area
	}
	return true
}

func (e *engine) groupKey(row domain.IndicatorRow, region string, lookup domain.RegionIndex, f domain.FilterState, by GroupBy) (string, string) {
	switch by {
	case GroupByYear:
		return row.Year, row.Year
	case GroupByState:
		return row.State, e.cat.StateName(row.State)
	case GroupByMunicipality:
		return row.Municipality, e.municipalityName(row)
	case GroupByRegion:
		name := lookup[row.Municipality].Name
		if name == "" {
			name = region
		}
		return region, name
	}
	return f.State, e.cat.StateName(f.State)
}

func (e *engine) municipalityName(row domain.IndicatorRow) string {
	if e.names != nil {
		if name, ok := e.names.Name(row.State, row.Municipality); ok {
			return name
		}
	}
	if row.MunicipalityName != "" {
		return row.MunicipalityName
	}
	return row.Municipality
}

// numerator returns the count of one indicator key in a row.
func numerator(row domain.IndicatorRow, key string) float64 {
	if key == domain.IndicatorTotal {
		return row.Total
	}
	var sum float64
	for _, c := range domain.Components(key) {
		sum += row.Value(c)
	}
	return sum
}

func denominator(row domain.IndicatorRow, keys []string, d Denominator) float64 {
	switch d {
	case DenomIndicatorSum:
		var sum float64
		for _, c := range domain.IndicatorColumns(row.Phase) {
			sum += row.Value(c)
		}
		return sum
	case DenomSelected:
		var sum float64
		for _, k := range keys {
			sum += numerator(row, k)
		}
		return sum
	}
	return row.Total
}

func finish(g *Group, mode Mode) {
	if mode == ModeCount {
		g.Value = g.Numerator
		g.Share = g.Numerator
		return
	}
	g.Value = SexValues{
		Female: percent(g.Numerator.Female, g.Denominator.Female),
		Male:   percent(g.Numerator.Male, g.Denominator.Male),
		All:    percent(g.Numerator.All, g.Denominator.All),
	}
	g.Share = SexValues{
		Female: percent(g.Numerator.Female, g.Denominator.All),
		Male:   percent(g.Numerator.Male, g.Denominator.All),
		All:    percent(g.Numerator.All, g.Denominator.All),
	}
}

// percent returns 0 for a zero denominator.
func percent(num, den float64) float64 {
	if den == 0 || math.IsNaN(den) {
		return 0
	}
	return num / den * 100
}

func addCounter(c domain.Counters, s domain.Sex, v float64) domain.Counters {
	switch s {
	case domain.SexFemale:
		c.Female += v
	case domain.SexMale:
		c.Male += v
	}
	return c
}

func sortGroups(groups []Group, by GroupBy, keys []string) {
	switch by {
	case GroupByYear:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	case GroupByIndicator:
		rank := make(map[string]int, len(keys))
		for i, k := range keys {
			rank[k] = i
		}
		sort.SliceStable(groups, func(i, j int) bool { return rank[groups[i].Key] < rank[groups[j].Key] })
	case GroupByState, GroupByMunicipality, GroupByRegion:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
		locale.SortStable(groups, func(g Group) string { return g.Label })
	}
}

func valueDomain(groups []Group, s domain.Sex) [2]float64 {
	if len(groups) == 0 {
		return [2]float64{}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, g := range groups {
		v := g.Value.Of(s)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return [2]float64{lo, hi}
}
