// Package visual ties filters, aggregation and rendering together into the
// three dashboard modules: the nutritional mapping bar chart, the temporal
// line chart and the regional map.
package visual

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/de-tools/sisvan-atlas/pkg/catalog"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/render/chart"
	"github.com/de-tools/sisvan-atlas/pkg/render/overlay"
	"github.com/de-tools/sisvan-atlas/pkg/services/aggregate"
	"github.com/de-tools/sisvan-atlas/pkg/services/dataset"
	"github.com/de-tools/sisvan-atlas/pkg/services/filter"
	"github.com/rs/zerolog"
)

var (
	ErrNotLoaded     = errors.New("module has no dataset")
	ErrUnknownModule = errors.New("unknown module")
	ErrClosed        = errors.New("module is closed")
)

// Kind names a module.
type Kind string

const (
	KindMapping  Kind = "mapping"
	KindTemporal Kind = "temporal"
	KindRegional Kind = "regional"
)

// Kinds lists every module in dashboard order.
var Kinds = []Kind{KindMapping, KindTemporal, KindRegional}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModule, s)
}

// Lifecycle is the load and render state of a module.
type Lifecycle string

const (
	Unloaded Lifecycle = "unloaded"
	Loaded   Lifecycle = "loaded"
	Rendered Lifecycle = "rendered"
	Failed   Lifecycle = "failed"
	Closed   Lifecycle = "closed"
)

// Module is one dashboard visualization.
type Module interface {
	Kind() Kind
	Lifecycle() Lifecycle
	// Err returns the load error of a failed module.
	Err() error
	// Load attaches a dataset and draws the first frame.
	Load(ctx context.Context, ds *dataset.Dataset) error
	// Fail marks the module as failed to load.
	Fail(err error)
	Filters() (filter.Manager, error)
	// Chart returns the current drawing, resized to size when it differs
	// from the last one. Resizing reuses the last aggregation.
	Chart(ctx context.Context, size chart.Size) (*chart.Chart, error)
	Title() string
	Counters() domain.Counters
	Close()
}

// Deps are the collaborators shared by every module of a session.
type Deps struct {
	Catalog *catalog.Catalog
	Engine  aggregate.Engine
	Names   *dataset.NameIndex
	Tooltip *overlay.Tooltip
	Legend  *overlay.Legend
	// OnCounters receives the counters of every redraw.
	OnCounters func(Kind, domain.Counters)
}

func (d Deps) withDefaults() Deps {
	if d.Catalog == nil {
		d.Catalog = catalog.Default()
	}
	if d.Names == nil {
		d.Names = dataset.NewNameIndex()
	}
	if d.Engine == nil {
		d.Engine = aggregate.NewEngine(aggregate.WithCatalog(d.Catalog), aggregate.WithNames(d.Names))
	}
	if d.Tooltip == nil {
		d.Tooltip = overlay.NewTooltip()
	}
	if d.Legend == nil {
		d.Legend = overlay.NewLegend()
	}
	return d
}

// frame is one aggregation ready to be drawn at any size.
type frame struct {
	draw     func(size chart.Size) *chart.Chart
	counters domain.Counters
	title    string
}

// view is what differs between the modules.
type view interface {
	options() []filter.Option
	aggregate(ctx context.Context, ds *dataset.Dataset, f domain.FilterState) (frame, error)
	defaultSize() chart.Size
	// changed reacts to a filter change before the redraw.
	changed(c filter.Change, f domain.FilterState)
}

// module runs the lifecycle shared by every view.
type module struct {
	kind Kind
	deps Deps
	view view

	mu          sync.Mutex
	state       Lifecycle
	err         error
	ds          *dataset.Dataset
	filters     filter.Manager
	unsubscribe func()
	size        chart.Size
	frame       *frame
	chart       *chart.Chart
	ctx         context.Context
}

func newModule(kind Kind, deps Deps, v view) *module {
	return &module{kind: kind, deps: deps, view: v, state: Unloaded, size: v.defaultSize()}
}

func (m *module) Kind() Kind { return m.kind }

func (m *module) Lifecycle() Lifecycle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *module) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *module) Load(ctx context.Context, ds *dataset.Dataset) error {
	m.mu.Lock()
	if m.state == Closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.ds = ds
	m.err = nil
	m.ctx = context.WithoutCancel(ctx)
	m.filters = filter.NewManager(ds, m.view.options()...)
	m.unsubscribe = m.filters.Subscribe(m.onChange)
	m.state = Loaded
	m.mu.Unlock()

	return m.redraw(ctx)
}

func (m *module) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Closed {
		return
	}
	m.state = Failed
	m.err = err
}

func (m *module) Filters() (filter.Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readyLocked(); err != nil {
		return nil, err
	}
	return m.filters, nil
}

func (m *module) readyLocked() error {
	switch m.state {
	case Closed:
		return ErrClosed
	case Failed:
		return fmt.Errorf("%w: %v", ErrNotLoaded, m.err)
	case Unloaded:
		return ErrNotLoaded
	}
	return nil
}

// onChange re-aggregates and redraws after every filter mutation.
func (m *module) onChange(c filter.Change) {
	m.mu.Lock()
	ctx := m.ctx
	m.mu.Unlock()

	m.view.changed(c, m.filters.State())
	if err := m.redraw(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("module", string(m.kind)).Str("field", string(c.Field)).Msg("redraw failed")
	}
}

// redraw runs a full aggregation and draws it at the current size.
func (m *module) redraw(ctx context.Context) error {
	m.mu.Lock()
	if err := m.readyLocked(); err != nil {
		m.mu.Unlock()
		return err
	}
	ds, size, filters := m.ds, m.size, m.filters
	m.mu.Unlock()

	fr, err := m.view.aggregate(ctx, ds, filters.State())
	if err != nil {
		return fmt.Errorf("failed to aggregate %s: %w", m.kind, err)
	}
	c := fr.draw(size)

	m.mu.Lock()
	if m.state == Closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.frame = &fr
	m.chart = c
	m.state = Rendered
	m.mu.Unlock()

	if m.deps.OnCounters != nil {
		m.deps.OnCounters(m.kind, fr.counters)
	}
	zerolog.Ctx(ctx).Debug().
		Str("module", string(m.kind)).
		Bool("empty", c.Empty).
		Float64("total", fr.counters.Total).
		Msg("module rendered")
	return nil
}

func (m *module) Chart(ctx context.Context, size chart.Size) (*chart.Chart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readyLocked(); err != nil {
		return nil, err
	}
	if m.frame == nil {
		return nil, ErrNotLoaded
	}
	if size.Valid() && size != m.size {
		m.size = size
		m.chart = m.frame.draw(size)
		zerolog.Ctx(ctx).Debug().
			Str("module", string(m.kind)).
			Float64("width", size.Width).
			Float64("height", size.Height).
			Msg("module resized")
	}
	return m.chart, nil
}

func (m *module) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frame == nil {
		return ""
	}
	return m.frame.title
}

func (m *module) Counters() domain.Counters {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frame == nil {
		return domain.Counters{}
	}
	return m.frame.counters
}

// Close detaches the dataset and drops the drawing. It is idempotent.
func (m *module) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.state = Closed
	m.ds = nil
	m.frame = nil
	m.chart = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// joinTitle collapses the blanks left by empty title parts.
func joinTitle(parts ...string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
