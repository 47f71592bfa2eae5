package visual

import (
	"context"

	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/render/chart"
	"github.com/de-tools/sisvan-atlas/pkg/services/aggregate"
	"github.com/de-tools/sisvan-atlas/pkg/services/dataset"
	"github.com/de-tools/sisvan-atlas/pkg/services/filter"
)

// mapping compares the checked indicators of one place and year.
type mapping struct {
	deps Deps
	bar  *chart.Bar
}

// NewMapping returns the nutritional mapping module.
func NewMapping(deps Deps) Module {
	deps = deps.withDefaults()
	return newModule(KindMapping, deps, &mapping{
		deps: deps,
		bar:  chart.NewBar(deps.Tooltip, deps.Catalog),
	})
}

func (v *mapping) options() []filter.Option {
	return []filter.Option{filter.WithYearPinned(), filter.WithIndicatorMenu()}
}

func (v *mapping) aggregate(ctx context.Context, ds *dataset.Dataset, f domain.FilterState) (frame, error) {
	var res aggregate.Result
	if len(f.Indicators) > 0 {
		res = v.deps.Engine.Aggregate(ctx, ds.Rows(), ds.RegionIndex(), f, aggregate.Query{
			GroupBy:     aggregate.GroupByIndicator,
			Denominator: aggregate.DenomSelected,
			Indicators:  f.Indicators,
		})
	}
	data := chart.BarData{Result: res, Sex: f.Sex}
	return frame{
		draw:     func(size chart.Size) *chart.Chart { return v.bar.Render(data, size) },
		counters: res.Totals,
		title:    v.title(ds, f),
	}, nil
}

func (v *mapping) defaultSize() chart.Size { return chart.BarSize }

func (v *mapping) changed(filter.Change, domain.FilterState) {}

// title names the place as "Municipality-UF year" when a municipality is
// selected, otherwise as the state (or Brasil) and year.
func (v *mapping) title(ds *dataset.Dataset, f domain.FilterState) string {
	cat := v.deps.Catalog
	place := cat.StateName(f.State)
	if f.State == "" {
		place = cat.StateName("Brasil")
	}
	if f.Area != "" && f.Subdivision == domain.SubdivisionAdministrative {
		if name := areaName(v.deps, ds, f); name != "" {
			place = name + "-" + f.State
		}
	}
	return joinTitle(
		"Mapeamento de Estados Nutricionais em", cat.PhaseLabel(f.Phase), cat.SexLabel(f.Sex),
		"-", place, f.Year,
	)
}

// areaName resolves the display name of the selected municipality or
// health region, empty when unknown.
func areaName(deps Deps, ds *dataset.Dataset, f domain.FilterState) string {
	if f.Subdivision == domain.SubdivisionAdministrative {
		if name, ok := deps.Names.Name(f.State, f.Area); ok {
			return name
		}
		for _, m := range ds.Municipalities(f.State) {
			if m.Code == f.Area {
				return m.Name
			}
		}
		return ""
	}
	for _, r := range ds.HealthRegions(f.State) {
		if r.Code == f.Area {
			return r.Name
		}
	}
	return ""
}
