package filter

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/de-tools/sisvan-atlas/pkg/catalog"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
)

var (
	ErrUnknownOption     = errors.New("unknown option")
	ErrDisabledIndicator = errors.New("indicator is disabled")
)

// Field names one selector.
type Field string

const (
	FieldState       Field = "state"
	FieldSubdivision Field = "subdivision"
	FieldArea        Field = "area"
	FieldSex         Field = "sex"
	FieldPhase       Field = "phase"
	FieldIndicator   Field = "indicator"
	FieldIndicators  Field = "indicators"
	FieldYear        Field = "year"
)

// Change describes one applied mutation.
type Change struct {
	Field    Field
	Previous domain.FilterState
	Current  domain.FilterState
}

// Source supplies the option lists derived from a dataset.
type Source interface {
	States() []string
	Years() []string
	LifePhases() []domain.LifePhase
	Municipalities(uf string) []domain.NamedCode
	HealthRegions(uf string) []domain.NamedCode
}

type Manager interface {
	State() domain.FilterState
	Options() domain.Options
	// Subscribe registers fn for every applied change and returns a function
	// that removes it. Subscribers run synchronously in registration order.
	Subscribe(fn func(Change)) func()

	Set(field Field, value string) error
	SetState(uf string) error
	SetSubdivision(s domain.Subdivision) error
	SetArea(code string) error
	SetSex(s domain.Sex) error
	SetPhase(p domain.LifePhase) error
	SetIndicator(key string) error
	SetYear(year string) error
	ToggleIndicator(key string) error
}

type Option func(*manager)

// WithTotalIndicator offers the respondent-total pseudo indicator.
func WithTotalIndicator() Option {
	return func(m *manager) { m.withTotal = true }
}

// WithYearPinned makes the year a selector defaulting to the latest year.
func WithYearPinned() Option {
	return func(m *manager) { m.yearPinned = true }
}

// WithIndicatorMenu enables the multi-indicator checkbox menu.
func WithIndicatorMenu() Option {
	return func(m *manager) { m.menu = NewAdultMenu() }
}

type subscriber struct {
	id int
	fn func(Change)
}

type manager struct {
	mu          sync.Mutex
	src         Source
	cat         *catalog.Catalog
	state       domain.FilterState
	withTotal   bool
	yearPinned  bool
	menu        *Menu
	subscribers []subscriber
	nextID      int
}

// NewManager returns a manager initialized to the broadest scope of src.
func NewManager(src Source, opts ...Option) Manager {
	m := &manager{src: src, cat: catalog.Default()}
	for _, opt := range opts {
		opt(m)
	}

	phase := domain.PhaseAdult
	if phases := src.LifePhases(); len(phases) > 0 {
		phase = phases[len(phases)-1]
	}

	m.state = domain.FilterState{
		Subdivision: domain.SubdivisionAdministrative,
		Sex:         domain.SexAll,
		Phase:       phase,
	}
	if m.yearPinned {
		if years := src.Years(); len(years) > 0 {
			m.state.Year = years[len(years)-1]
		}
	}
	m.resetIndicators()
	return m
}

func (m *manager) State() domain.FilterState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

func (m *manager) Options() domain.Options {
	m.mu.Lock()
	defer m.mu.Unlock()

	opts := domain.Options{
		Subdivisions: append([]domain.Subdivision(nil), domain.Subdivisions...),
		Sexes:        append([]domain.Sex(nil), domain.Sexes...),
		Phases:       m.phases(),
		Indicators:   m.indicators(m.state.Phase),
		Areas:        m.areas(m.state.State, m.state.Subdivision),
	}
	for _, uf := range m.src.States() {
		opts.States = append(opts.States, domain.NamedCode{Code: uf, Name: m.cat.StateOption(uf)})
	}
	if m.yearPinned {
		opts.Years = m.src.Years()
		sort.Sort(sort.Reverse(sort.StringSlice(opts.Years)))
	}
	if m.menuActive() {
		opts.Menu = m.menu.Entries()
	}
	return opts
}

func (m *manager) Subscribe(fn func(Change)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subscribers {
			if s.id == id {
				m.subscribers = append(m.subscribers[:i:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (m *manager) Set(field Field, value string) error {
	switch field {
	case FieldState:
		return m.SetState(value)
	case FieldSubdivision:
		return m.SetSubdivision(domain.Subdivision(value))
	case FieldArea:
		return m.SetArea(value)
	case FieldSex:
		return m.SetSex(domain.Sex(value))
	case FieldPhase:
		return m.SetPhase(domain.LifePhase(value))
	case FieldIndicator:
		return m.SetIndicator(value)
	case FieldYear:
		return m.SetYear(value)
	case FieldIndicators:
		return m.ToggleIndicator(value)
	}
	return fmt.Errorf("%w: field %q", ErrUnknownOption, field)
}

func (m *manager) SetState(uf string) error {
	return m.apply(FieldState, func(s *domain.FilterState) error {
		if uf != "" && !contains(m.src.States(), uf) {
			return fmt.Errorf("%w: state %q", ErrUnknownOption, uf)
		}
		s.State = uf
		s.Area = ""
		return nil
	})
}

func (m *manager) SetSubdivision(sub domain.Subdivision) error {
	return m.apply(FieldSubdivision, func(s *domain.FilterState) error {
		if !sub.Valid() {
			return fmt.Errorf("%w: subdivision %q", ErrUnknownOption, sub)
		}
		s.Subdivision = sub
		s.Area = ""
		return nil
	})
}

func (m *manager) SetArea(code string) error {
	return m.apply(FieldArea, func(s *domain.FilterState) error {
		if code != "" && !containsCode(m.areas(s.State, s.Subdivision), code) {
			return fmt.Errorf("%w: area %q", ErrUnknownOption, code)
		}
		s.Area = code
		return nil
	})
}

func (m *manager) SetSex(sex domain.Sex) error {
	return m.apply(FieldSex, func(s *domain.FilterState) error {
		if !sex.Valid() {
			return fmt.Errorf("%w: sex %q", ErrUnknownOption, sex)
		}
		s.Sex = sex
		return nil
	})
}

func (m *manager) SetPhase(p domain.LifePhase) error {
	return m.apply(FieldPhase, func(s *domain.FilterState) error {
		if !containsPhase(m.phases(), p) {
			return fmt.Errorf("%w: phase %q", ErrUnknownOption, p)
		}
		if s.Phase == p {
			return nil
		}
		s.Phase = p
		if m.menu != nil {
			m.menu.Reset()
		}
		m.fillIndicators(s)
		return nil
	})
}

func (m *manager) SetIndicator(key string) error {
	return m.apply(FieldIndicator, func(s *domain.FilterState) error {
		if !contains(m.indicators(s.Phase), key) {
			return fmt.Errorf("%w: indicator %q for phase %q", ErrUnknownOption, key, s.Phase)
		}
		s.Indicator = key
		return nil
	})
}

func (m *manager) SetYear(year string) error {
	return m.apply(FieldYear, func(s *domain.FilterState) error {
		if !m.yearPinned {
			if year != "" {
				return fmt.Errorf("%w: year is not selectable", ErrUnknownOption)
			}
			return nil
		}
		if !contains(m.src.Years(), year) {
			return fmt.Errorf("%w: year %q", ErrUnknownOption, year)
		}
		s.Year = year
		return nil
	})
}

func (m *manager) ToggleIndicator(key string) error {
	return m.apply(FieldIndicators, func(s *domain.FilterState) error {
		if !m.menuActive() {
			return fmt.Errorf("%w: indicator menu is not available", ErrUnknownOption)
		}
		if err := m.menu.Toggle(key); err != nil {
			return err
		}
		s.Indicators = m.menu.Selected()
		return nil
	})
}

// apply mutates a copy of the state and commits it only when fn succeeds.
func (m *manager) apply(field Field, fn func(*domain.FilterState) error) error {
	m.mu.Lock()
	prev := m.state.Clone()
	next := m.state.Clone()
	if err := fn(&next); err != nil {
		m.mu.Unlock()
		return err
	}
	m.state = next
	subs := append([]subscriber(nil), m.subscribers...)
	m.mu.Unlock()

	change := Change{Field: field, Previous: prev, Current: next.Clone()}
	for _, s := range subs {
		s.fn(change)
	}
	return nil
}

func (m *manager) resetIndicators() {
	m.fillIndicators(&m.state)
}

func (m *manager) fillIndicators(s *domain.FilterState) {
	indicators := m.indicators(s.Phase)
	s.Indicator = ""
	if len(indicators) > 0 {
		s.Indicator = indicators[0]
	}

	s.Indicators = nil
	if m.menu == nil {
		return
	}
	if s.Phase == domain.PhaseAdult {
		s.Indicators = m.menu.Selected()
	} else {
		s.Indicators = domain.IndicatorColumns(s.Phase)
	}
}

func (m *manager) menuActive() bool {
	return m.menu != nil && m.state.Phase == domain.PhaseAdult
}

func (m *manager) phases() []domain.LifePhase {
	phases := m.src.LifePhases()
	if len(phases) == 0 {
		return append([]domain.LifePhase(nil), domain.LifePhases...)
	}
	var out []domain.LifePhase
	for _, p := range phases {
		if p.Valid() {
			out = append(out, p)
		}
	}
	return out
}

func (m *manager) indicators(p domain.LifePhase) []string {
	out := domain.IndicatorColumns(p)
	if m.withTotal {
		out = append(out, domain.IndicatorTotal)
	}
	return out
}

func (m *manager) areas(uf string, sub domain.Subdivision) []domain.NamedCode {
	if uf == "" {
		return nil
	}
	if sub == domain.SubdivisionHealthRegion {
		return m.src.HealthRegions(uf)
	}
	return m.src.Municipalities(uf)
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func containsCode(values []domain.NamedCode, code string) bool {
	for _, x := range values {
		if x.Code == code {
			return true
		}
	}
	return false
}

func containsPhase(values []domain.LifePhase, p domain.LifePhase) bool {
	for _, x := range values {
		if x == p {
			return true
		}
	}
	return false
}
