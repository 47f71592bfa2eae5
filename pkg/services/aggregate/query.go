package aggregate

import (
	"fmt"

	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
)

// GroupBy selects the dimension rows are grouped on.
type GroupBy int

const (
	GroupNone GroupBy = iota
	GroupByYear
	GroupByState
	GroupByMunicipality
	GroupByRegion
	GroupByIndicator
)

func (g GroupBy) String() string {
	switch g {
	case GroupNone:
		return "none"
	case GroupByYear:
		return "year"
	case GroupByState:
		return "state"
	case GroupByMunicipality:
		return "municipality"
	case GroupByRegion:
		return "region"
	case GroupByIndicator:
		return "indicator"
	}
	return fmt.Sprintf("group(%d)", int(g))
}

type Mode int

const (
	ModePercent Mode = iota
	ModeCount
)

// Denominator selects what a percentage is relative to.
type Denominator int

const (
	// DenomRespondents divides by the respondent total column.
	DenomRespondents Denominator = iota
	// DenomIndicatorSum divides by the sum of the phase's concrete columns.
	DenomIndicatorSum
	// DenomSelected divides by the sum of every requested indicator.
	DenomSelected
)

// Query describes one aggregation on top of a filter state.
type Query struct {
	GroupBy     GroupBy
	Mode        Mode
	Denominator Denominator
	// Indicators overrides the indicator keys taken from the filter state.
	Indicators []string
	IgnoreState bool
	IgnoreArea  bool
	IgnoreYear  bool
}

// keys resolves the indicator keys the query sums.
func (q Query) keys(f domain.FilterState) []string {
	if len(q.Indicators) > 0 {
		return q.Indicators
	}
	if q.GroupBy == GroupByIndicator {
		if len(f.Indicators) > 0 {
			return f.Indicators
		}
		return domain.IndicatorColumns(f.Phase)
	}
	if f.Indicator != "" {
		return []string{f.Indicator}
	}
	return nil
}

// SexValues holds one quantity split by sex. All covers both sexes.
type SexValues struct {
	Female float64
	Male   float64
	All    float64
}

// Of returns the value for a sex selector.
func (v SexValues) Of(s domain.Sex) float64 {
	switch s {
	case domain.SexFemale:
		return v.Female
	case domain.SexMale:
		return v.Male
	}
	return v.All
}

func (v *SexValues) add(s domain.Sex, x float64) {
	switch s {
	case domain.SexFemale:
		v.Female += x
	case domain.SexMale:
		v.Male += x
	}
	v.All += x
}

// Group is one aggregated category.
type Group struct {
	Key         string
	Label       string
	Numerator   SexValues
	Denominator SexValues
	Respondents SexValues
	// Value uses each sex's own denominator; All uses the combined one.
	Value SexValues
	// Share divides every numerator by the combined denominator, so
	// Share.Female + Share.Male == Share.All.
	Share SexValues
	Rows  int
}

// Result is the output of one aggregation.
type Result struct {
	Groups []Group
	// Domain is [min, max] of the active sex's group values.
	Domain [2]float64
	// Totals are respondent counts by sex over the matched rows.
	Totals domain.Counters
	// Cases sums the requested indicators by sex over the matched rows.
	Cases      domain.Counters
	Rows       int
	Unresolved int
}

// Empty reports whether no row matched the filters.
func (r Result) Empty() bool {
	return r.Rows == 0
}

func (r Result) Group(key string) (Group, bool) {
	for _, g := range r.Groups {
		if g.Key == key {
			return g, true
		}
	}
	return Group{}, false
}

// Values maps every group key to its value for sex.
func (r Result) Values(s domain.Sex) map[string]float64 {
	out := make(map[string]float64, len(r.Groups))
	for _, g := range r.Groups {
		out[g.Key] = g.Value.Of(s)
	}
	return out
}
