package visual

import (
	"context"

	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/render/chart"
	"github.com/de-tools/sisvan-atlas/pkg/services/aggregate"
	"github.com/de-tools/sisvan-atlas/pkg/services/dataset"
	"github.com/de-tools/sisvan-atlas/pkg/services/filter"
)

// temporal follows one indicator across every survey year.
type temporal struct {
	deps Deps
	line *chart.Line
}

// NewTemporal returns the temporal analysis module.
func NewTemporal(deps Deps) Module {
	deps = deps.withDefaults()
	return newModule(KindTemporal, deps, &temporal{
		deps: deps,
		line: chart.NewLine(deps.Tooltip, deps.Catalog),
	})
}

func (v *temporal) options() []filter.Option { return nil }

func (v *temporal) aggregate(ctx context.Context, ds *dataset.Dataset, f domain.FilterState) (frame, error) {
	res := v.deps.Engine.Aggregate(ctx, ds.Rows(), ds.RegionIndex(), f, aggregate.Query{
		GroupBy:     aggregate.GroupByYear,
		Denominator: aggregate.DenomRespondents,
		IgnoreYear:  true,
	})
	data := chart.LineData{Result: res, Sex: f.Sex}
	return frame{
		draw:     func(size chart.Size) *chart.Chart { return v.line.Render(data, size) },
		counters: res.Totals,
		title:    v.title(ds, f),
	}, nil
}

func (v *temporal) defaultSize() chart.Size { return chart.LineSize }

func (v *temporal) changed(filter.Change, domain.FilterState) {}

func (v *temporal) title(ds *dataset.Dataset, f domain.FilterState) string {
	cat := v.deps.Catalog
	sex := ""
	if f.Sex != domain.SexAll {
		sex = cat.SexLabel(f.Sex)
	}
	uf := f.State
	if uf == "" {
		uf = "Brasil"
	}
	var area string
	if f.Area != "" {
		area = areaName(v.deps, ds, f)
	}
	return joinTitle(
		"Análise Temporal de", cat.IndicatorName(f.Indicator), "em", cat.PhaseLabel(f.Phase), sex,
		"-", area, cat.StateName(uf),
	)
}
