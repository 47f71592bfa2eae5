package domain

// FilterState is the complete set of selector values of one module.
type FilterState struct {
	// State is the UF sigla; empty means national scope.
	State       string
	Subdivision Subdivision
	// Area is a municipality code or health-region id; empty means all.
	Area      string
	Sex       Sex
	Phase     LifePhase
	Indicator string
	// Indicators is the checked set of the bar-chart menu, in menu order.
	Indicators []string
	// Year is empty when the module does not pin a year.
	Year string
}

func (f FilterState) National() bool {
	return f.State == ""
}

// Clone returns a copy that shares no slices with f.
func (f FilterState) Clone() FilterState {
	out := f
	out.Indicators = append([]string(nil), f.Indicators...)
	return out
}

// Options holds the selectable values of every selector for the current state.
type Options struct {
	States       []NamedCode
	Subdivisions []Subdivision
	Areas        []NamedCode
	Sexes        []Sex
	Phases       []LifePhase
	Indicators   []string
	Years        []string
	Menu         []MenuEntry
}

// MenuEntry is one checkbox of the indicator menu.
type MenuEntry struct {
	Key      string
	Checked  bool
	Disabled bool
}
