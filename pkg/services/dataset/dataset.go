package dataset

import (
	"sort"

	"github.com/de-tools/sisvan-atlas/pkg/locale"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
)

// Dataset is an immutable snapshot of both survey tables.
type Dataset struct {
	rows           []domain.IndicatorRow
	regions        []domain.RegionLookupRow
	regionIndex    domain.RegionIndex
	years          []string
	states         []string
	phases         []domain.LifePhase
	municipalities map[string][]domain.NamedCode
	healthRegions  map[string][]domain.NamedCode
}

// New indexes the given rows. The slices are owned by the dataset afterwards.
func New(rows []domain.IndicatorRow, regions []domain.RegionLookupRow) *Dataset {
	ds := &Dataset{
		rows:           rows,
		regions:        regions,
		regionIndex:    make(domain.RegionIndex, len(regions)),
		municipalities: make(map[string][]domain.NamedCode),
		healthRegions:  make(map[string][]domain.NamedCode),
	}

	for _, r := range regions {
		if r.Municipality == "" {
			continue
		}
		if _, dup := ds.regionIndex[r.Municipality]; !dup {
			ds.regionIndex[r.Municipality] = r
		}
	}

	years := map[string]bool{}
	states := map[string]bool{}
	phases := map[domain.LifePhase]bool{}
	municipalities := map[string]map[string]string{}
	for _, row := range rows {
		if row.Year != "" {
			years[row.Year] = true
		}
		if row.State != "" {
			states[row.State] = true
		}
		if row.Phase != "" && !phases[row.Phase] {
			phases[row.Phase] = true
			ds.phases = append(ds.phases, row.Phase)
		}
		if row.State != "" && row.Municipality != "" {
			byCode, ok := municipalities[row.State]
			if !ok {
				byCode = map[string]string{}
				municipalities[row.State] = byCode
			}
			if _, seen := byCode[row.Municipality]; !seen {
				name := row.MunicipalityName
				if name == "" {
					name = row.Municipality
				}
				byCode[row.Municipality] = name
			}
		}
	}

	ds.years = sortedKeys(years)
	ds.states = sortedKeys(states)
	for uf, byCode := range municipalities {
		ds.municipalities[uf] = namedCodes(byCode)
	}

	regionsByState := map[string]map[string]string{}
	for _, r := range regions {
		if r.State == "" || r.Region == "" {
			continue
		}
		byID, ok := regionsByState[r.State]
		if !ok {
			byID = map[string]string{}
			regionsByState[r.State] = byID
		}
		if _, seen := byID[r.Region]; !seen {
			name := r.Name
			if name == "" {
				name = r.Region
			}
			byID[r.Region] = name
		}
	}
	for uf, byID := range regionsByState {
		ds.healthRegions[uf] = namedCodes(byID)
	}

	return ds
}

func sortedKeys[K ~string](m map[K]bool) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func namedCodes(byCode map[string]string) []domain.NamedCode {
	out := make([]domain.NamedCode, 0, len(byCode))
	for code, name := range byCode {
		out = append(out, domain.NamedCode{Code: code, Name: name})
	}
	// Code order first so equal names stay deterministic.
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	locale.SortStable(out, func(n domain.NamedCode) string { return n.Name })
	return out
}

// Rows returns the indicator rows. Callers must not modify them.
func (d *Dataset) Rows() []domain.IndicatorRow {
	return d.rows
}

func (d *Dataset) Regions() []domain.RegionLookupRow {
	return d.regions
}

// RegionIndex maps municipality codes to their health region.
func (d *Dataset) RegionIndex() domain.RegionIndex {
	return d.regionIndex
}

// Years lists the distinct years in ascending order.
func (d *Dataset) Years() []string {
	return append([]string(nil), d.years...)
}

// LatestYear returns the most recent year, or "" for an empty dataset.
func (d *Dataset) LatestYear() string {
	if len(d.years) == 0 {
		return ""
	}
	return d.years[len(d.years)-1]
}

// States lists the distinct state siglas in ascending order.
func (d *Dataset) States() []string {
	return append([]string(nil), d.states...)
}

// LifePhases lists the phases in order of first appearance.
func (d *Dataset) LifePhases() []domain.LifePhase {
	return append([]domain.LifePhase(nil), d.phases...)
}

// Municipalities lists a state's municipalities ordered by name.
func (d *Dataset) Municipalities(uf string) []domain.NamedCode {
	return append([]domain.NamedCode(nil), d.municipalities[uf]...)
}

// HealthRegions lists a state's health regions ordered by name.
func (d *Dataset) HealthRegions(uf string) []domain.NamedCode {
	return append([]domain.NamedCode(nil), d.healthRegions[uf]...)
}

// Len returns the number of indicator rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}
