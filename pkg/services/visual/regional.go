package visual

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/de-tools/sisvan-atlas/pkg/geo"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/render/chart"
	"github.com/de-tools/sisvan-atlas/pkg/render/overlay"
	"github.com/de-tools/sisvan-atlas/pkg/services/aggregate"
	"github.com/de-tools/sisvan-atlas/pkg/services/dataset"
	"github.com/de-tools/sisvan-atlas/pkg/services/filter"
	"github.com/rs/zerolog"
)

// ErrInvalidDrill is returned for a drill step the current level does not allow.
var ErrInvalidDrill = errors.New("invalid drill")

// Regional is the map module. Besides filters it keeps a position in the
// country > states > municipalities or health regions hierarchy.
type Regional interface {
	Module
	Drill() domain.Drill
	// DrillDown enters the level below the current one. id names the state
	// when leaving the states level and is ignored at the national level.
	DrillDown(ctx context.Context, id string) error
	DrillUp(ctx context.Context) error
}

type regionalModule struct {
	*module
	view *regional
}

type regional struct {
	deps   Deps
	store  geo.Store
	render *chart.Choropleth

	mu    sync.Mutex
	drill domain.Drill
}

// NewRegional returns the regional map module. Geometry is read from store.
func NewRegional(deps Deps, store geo.Store) Regional {
	deps = deps.withDefaults()
	v := &regional{
		deps:   deps,
		store:  store,
		render: chart.NewChoropleth(deps.Tooltip, deps.Legend, deps.Catalog),
		drill:  domain.NationalDrill(),
	}
	return &regionalModule{module: newModule(KindRegional, deps, v), view: v}
}

func (r *regionalModule) Drill() domain.Drill {
	return r.view.current()
}

func (r *regionalModule) DrillDown(ctx context.Context, id string) error {
	filters, err := r.Filters()
	if err != nil {
		return err
	}
	d := r.view.current()
	switch d.Level {
	case domain.LevelNational:
		r.view.set(domain.StatesDrill())
		return r.redraw(ctx)
	case domain.LevelStates:
		if id == "" {
			return fmt.Errorf("%w: missing state", ErrInvalidDrill)
		}
		// the state filter moves the drill through changed
		if err := filters.SetState(id); err != nil {
			return err
		}
		return nil
	}
	return fmt.Errorf("%w: %s has no level below", ErrInvalidDrill, d)
}

func (r *regionalModule) DrillUp(ctx context.Context) error {
	filters, err := r.Filters()
	if err != nil {
		return err
	}
	d := r.view.current()
	switch {
	case d.InsideState():
		return filters.SetState("")
	case d.Level == domain.LevelStates:
		r.view.set(domain.NationalDrill())
		return r.redraw(ctx)
	}
	return nil
}

func (v *regional) current() domain.Drill {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.drill
}

func (v *regional) set(d domain.Drill) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.drill = d
}

func (v *regional) options() []filter.Option {
	return []filter.Option{filter.WithYearPinned(), filter.WithTotalIndicator()}
}

// changed keeps the drill in line with the state and subdivision filters.
// Switching subdivision inside a state shows the same state at the new
// granularity.
func (v *regional) changed(c filter.Change, f domain.FilterState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch c.Field {
	case filter.FieldState:
		if f.State != "" {
			v.drill = domain.StateDrill(f.State, f.Subdivision)
		} else if v.drill.InsideState() {
			v.drill = domain.StatesDrill()
		}
	case filter.FieldSubdivision:
		if v.drill.InsideState() {
			v.drill = domain.StateDrill(v.drill.State, f.Subdivision)
		}
	}
}

func (v *regional) defaultSize() chart.Size { return chart.MapSize }

func (v *regional) aggregate(ctx context.Context, ds *dataset.Dataset, f domain.FilterState) (frame, error) {
	drill := v.current()
	logger := zerolog.Ctx(ctx)

	layer, err := v.store.Layer(ctx, drill)
	if err != nil {
		if !errors.Is(err, geo.ErrNoGeometry) && !errors.Is(err, fs.ErrNotExist) {
			return frame{}, fmt.Errorf("failed to load geometry for %s: %w", drill, err)
		}
		logger.Warn().Err(err).Str("drill", drill.String()).Msg("no geometry for drill level")
		layer = nil
	}

	total := f.Indicator == domain.IndicatorTotal
	data := chart.MapData{
		Layer:     layer,
		Sex:       f.Sex,
		Indicator: v.deps.Catalog.IndicatorName(f.Indicator),
		DrillDown: !drill.InsideState(),
		DrillUp:   drill.Level != domain.LevelNational,
	}
	if total {
		data.Format = overlay.FormatCount
	}

	var counters domain.Counters
	if drill.Level == domain.LevelNational {
		counters = v.national(ctx, ds, f, &data)
	} else {
		counters = v.subnational(ctx, ds, f, drill, &data)
	}

	return frame{
		draw:     func(size chart.Size) *chart.Chart { return v.render.Render(data, size) },
		counters: counters,
		title:    v.title(f, drill),
	}, nil
}

// national fills the single country area. The color domain spans every
// indicator of the phase so the country color is comparable between them.
func (v *regional) national(ctx context.Context, ds *dataset.Dataset, f domain.FilterState, data *chart.MapData) domain.Counters {
	scope := f.Clone()
	scope.State, scope.Area = "", ""
	q := aggregate.Query{Denominator: aggregate.DenomRespondents, IgnoreState: true, IgnoreArea: true}
	total := f.Indicator == domain.IndicatorTotal
	if total {
		q.Mode = aggregate.ModeCount
	}

	res := v.deps.Engine.Aggregate(ctx, ds.Rows(), ds.RegionIndex(), scope, q)
	if res.Empty() || len(res.Groups) == 0 {
		return res.Totals
	}
	g := res.Groups[0]
	value := g.Value.Of(f.Sex)
	data.Areas = map[string]chart.Area{chart.CountryKey: {
		Value:  value,
		Female: share(g.Respondents.Female, g.Respondents.All),
		Male:   share(g.Respondents.Male, g.Respondents.All),
	}}

	if total {
		data.Domain = [2]float64{value, value}
		return res.Totals
	}

	keys := domain.IndicatorColumns(f.Phase)
	if domain.IsSynthetic(f.Indicator) {
		keys = append(keys, f.Indicator)
	}
	all := v.deps.Engine.Aggregate(ctx, ds.Rows(), ds.RegionIndex(), scope, aggregate.Query{
		GroupBy:     aggregate.GroupByIndicator,
		Denominator: aggregate.DenomRespondents,
		Indicators:  keys,
		IgnoreState: true,
		IgnoreArea:  true,
	})
	data.Domain = all.Domain
	return res.Cases
}

// subnational fills one area per state, municipality or health region.
// Percentages are relative to the sum of the phase's nutritional columns.
func (v *regional) subnational(ctx context.Context, ds *dataset.Dataset, f domain.FilterState, drill domain.Drill, data *chart.MapData) domain.Counters {
	scope := f.Clone()
	scope.Area = ""
	q := aggregate.Query{Denominator: aggregate.DenomIndicatorSum, IgnoreArea: true}
	switch drill.Level {
	case domain.LevelStates:
		q.GroupBy = aggregate.GroupByState
		q.IgnoreState = true
	case domain.LevelMunicipalities:
		q.GroupBy = aggregate.GroupByMunicipality
		scope.State = drill.State
	case domain.LevelHealthRegions:
		q.GroupBy = aggregate.GroupByRegion
		scope.State = drill.State
	}
	total := f.Indicator == domain.IndicatorTotal
	if total {
		q.Mode = aggregate.ModeCount
		q.Indicators = domain.IndicatorColumns(f.Phase)
	}

	res := v.deps.Engine.Aggregate(ctx, ds.Rows(), ds.RegionIndex(), scope, q)
	data.Areas = make(map[string]chart.Area, len(res.Groups))
	for _, g := range res.Groups {
		a := chart.Area{
			Value:  g.Value.Of(f.Sex),
			Female: share(g.Numerator.Female, g.Numerator.All),
			Male:   share(g.Numerator.Male, g.Numerator.All),
		}
		if g.Label != g.Key {
			a.Name = g.Label
		}
		data.Areas[g.Key] = a
	}
	data.Domain = res.Domain

	if total {
		return res.Totals
	}
	return res.Cases
}

func (v *regional) title(f domain.FilterState, drill domain.Drill) string {
	cat := v.deps.Catalog
	sex := ""
	if f.Sex != domain.SexAll {
		sex = cat.SexLabel(f.Sex)
	}
	place := ""
	if drill.InsideState() {
		place = cat.StateName(drill.State)
	}
	return joinTitle(
		"Mapeamento Regional de", cat.IndicatorName(f.Indicator), "em", cat.PhaseLabel(f.Phase), sex,
		"-", place, f.Year,
	)
}

func share(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
