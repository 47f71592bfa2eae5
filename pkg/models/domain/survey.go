package domain

// Sex is the demographic sex code used by the survey tables.
type Sex string

const (
	SexFemale Sex = "Fem"
	SexMale   Sex = "Masc"
	// SexAll selects both sexes. It never appears in a data row.
	SexAll Sex = "Todos"
)

// Sexes lists the selectable sex options in display order.
var Sexes = []Sex{SexAll, SexMale, SexFemale}

func (s Sex) Valid() bool {
	switch s {
	case SexFemale, SexMale, SexAll:
		return true
	}
	return false
}

// LifePhase selects which indicator set is valid.
type LifePhase string

const (
	PhaseAdult      LifePhase = "adulto"
	PhaseAdolescent LifePhase = "adolescente"
)

// LifePhases lists the known phases in display order.
var LifePhases = []LifePhase{PhaseAdult, PhaseAdolescent}

func (p LifePhase) Valid() bool {
	return p == PhaseAdult || p == PhaseAdolescent
}

// Subdivision is the drill hierarchy used below the state level.
type Subdivision string

const (
	SubdivisionAdministrative Subdivision = "federativa"
	SubdivisionHealthRegion   Subdivision = "saude"
)

// Subdivisions lists both modes in display order.
var Subdivisions = []Subdivision{SubdivisionAdministrative, SubdivisionHealthRegion}

func (s Subdivision) Valid() bool {
	return s == SubdivisionAdministrative || s == SubdivisionHealthRegion
}

// IndicatorRow is one respondent-aggregate record of the indicator table.
type IndicatorRow struct {
	State            string
	Municipality     string
	MunicipalityName string
	Year             string
	Sex              Sex
	Phase            LifePhase
	Total            float64
	Values           map[string]float64
}

// Value returns the named indicator column, 0 when absent.
func (r IndicatorRow) Value(column string) float64 {
	return r.Values[column]
}

// RegionLookupRow maps a municipality to its health region.
type RegionLookupRow struct {
	Municipality string
	Region       string
	State        string
	Name         string
}

// NamedCode is a selectable code with its display name.
type NamedCode struct {
	Code string
	Name string
}

// RegionIndex resolves municipality codes to health-region rows.
type RegionIndex map[string]RegionLookupRow

// RegionOf returns the health-region id of a municipality.
func (idx RegionIndex) RegionOf(municipality string) (string, bool) {
	r, ok := idx[municipality]
	if !ok || r.Region == "" {
		return "", false
	}
	return r.Region, true
}
