package visual

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/de-tools/sisvan-atlas/pkg/catalog"
	"github.com/de-tools/sisvan-atlas/pkg/geo"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/render/overlay"
	"github.com/de-tools/sisvan-atlas/pkg/services/aggregate"
	"github.com/de-tools/sisvan-atlas/pkg/services/dataset"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrUnknownSession is returned for ids the registry does not hold.
var ErrUnknownSession = errors.New("unknown session")

// Session is one client's set of modules sharing a tooltip and a dataset.
type Session struct {
	ID      string
	Profile domain.DatasetProfile
	Tooltip *overlay.Tooltip
	Legend  *overlay.Legend

	key      dataset.Key
	modules  map[Kind]Module
	mu       sync.Mutex
	counters map[Kind]domain.Counters
	released bool
	closed   bool
}

// NewSession returns a session holding modules, with a fresh tooltip and
// legend. Sessions built outside a registry hold no dataset.
func NewSession(id string, profile domain.DatasetProfile, modules ...Module) *Session {
	s := &Session{
		ID:       id,
		Profile:  profile,
		Tooltip:  overlay.NewTooltip(),
		Legend:   overlay.NewLegend(),
		key:      dataset.Key{Indicators: profile.Indicators, Regions: profile.Regions},
		modules:  make(map[Kind]Module, len(modules)),
		counters: make(map[Kind]domain.Counters),
		released: true,
	}
	for _, m := range modules {
		s.modules[m.Kind()] = m
	}
	return s
}

// Module returns the module of kind k.
func (s *Session) Module(k Kind) (Module, error) {
	m, ok := s.modules[k]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, k)
	}
	return m, nil
}

// Regional returns the map module, nil when the session has none.
func (s *Session) Regional() Regional {
	r, _ := s.modules[KindRegional].(Regional)
	return r
}

// Counters returns the last counters pushed by module k.
func (s *Session) Counters(k Kind) domain.Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[k]
}

func (s *Session) pushCounters(k Kind, c domain.Counters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[k] = c
}

// Registry creates and tracks sessions. Sessions of the same profile share
// one loaded dataset through the cache.
type Registry interface {
	Create(ctx context.Context, profile domain.DatasetProfile) (*Session, error)
	Get(id string) (*Session, error)
	Close(ctx context.Context, id string) error
	Len() int
}

type registry struct {
	cache   *dataset.Cache
	store   geo.Store
	cat     *catalog.Catalog
	names   *dataset.NameIndex
	engine  aggregate.Engine
	mu      sync.RWMutex
	entries map[string]*Session
}

// NewRegistry returns a registry loading datasets through cache and map
// geometry from store. names may be nil.
func NewRegistry(cache *dataset.Cache, store geo.Store, cat *catalog.Catalog, names *dataset.NameIndex) Registry {
	if cat == nil {
		cat = catalog.Default()
	}
	if names == nil {
		names = dataset.NewNameIndex()
	}
	return &registry{
		cache:   cache,
		store:   store,
		cat:     cat,
		names:   names,
		engine:  aggregate.NewEngine(aggregate.WithCatalog(cat), aggregate.WithNames(names)),
		entries: make(map[string]*Session),
	}
}

// Create builds a session and loads its dataset. When loading fails the
// session is still returned with every module in the failed state, along
// with the load error. A session closed before its load finishes yields
// ErrClosed.
func (r *registry) Create(ctx context.Context, profile domain.DatasetProfile) (*Session, error) {
	s := NewSession(uuid.NewString(), profile)
	deps := Deps{
		Catalog:    r.cat,
		Engine:     r.engine,
		Names:      r.names,
		Tooltip:    s.Tooltip,
		Legend:     s.Legend,
		OnCounters: s.pushCounters,
	}
	for _, m := range []Module{NewMapping(deps), NewTemporal(deps), NewRegional(deps, r.store)} {
		s.modules[m.Kind()] = m
	}

	r.mu.Lock()
	r.entries[s.ID] = s
	r.mu.Unlock()

	logger := zerolog.Ctx(ctx).With().Str("session", s.ID).Str("profile", profile.Name).Logger()

	ds, err := r.cache.Acquire(ctx, s.key)
	if err != nil {
		logger.Error().Err(err).Msg("dataset load failed")
		for _, m := range s.modules {
			m.Fail(err)
		}
		return s, fmt.Errorf("failed to load dataset %s: %w", profile, err)
	}

	// the session may have been closed while the dataset was loading
	s.mu.Lock()
	closed := s.closed
	if !closed {
		s.released = false
	}
	s.mu.Unlock()
	if closed {
		r.cache.Release(s.key)
		logger.Info().Msg("session closed during load")
		return s, ErrClosed
	}

	if !r.names.Ready() {
		r.names.AddFromDataset(ds)
	}

	for _, k := range Kinds {
		if err := s.modules[k].Load(ctx, ds); err != nil {
			logger.Error().Err(err).Str("module", string(k)).Msg("first render failed")
		}
	}
	logger.Info().Int("rows", ds.Len()).Msg("session created")
	return s, nil
}

func (r *registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSession, id)
	}
	return s, nil
}

// Close tears down every module of the session and releases its dataset.
func (r *registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	s, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSession, id)
	}

	for _, m := range s.modules {
		m.Close()
	}
	s.Tooltip.Hide()
	s.Legend.Clear()

	s.mu.Lock()
	s.closed = true
	release := !s.released
	s.released = true
	s.mu.Unlock()
	if release {
		r.cache.Release(s.key)
	}
	zerolog.Ctx(ctx).Info().Str("session", id).Msg("session closed")
	return nil
}

func (r *registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
