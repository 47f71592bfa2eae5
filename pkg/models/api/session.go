package api

type CreateSessionRequest struct {
	Profile string `json:"profile"`
}

type Session struct {
	ID      string       `json:"id"`
	Profile string       `json:"profile"`
	Error   string       `json:"error,omitempty"`
	Modules []ModuleView `json:"modules"`
}

type ModuleView struct {
	Module    string   `json:"module"`
	Lifecycle string   `json:"lifecycle"`
	Error     string   `json:"error,omitempty"`
	Title     string   `json:"title,omitempty"`
	Filters   *Filters `json:"filters,omitempty"`
	Options   *Options `json:"options,omitempty"`
	Counters  Counters `json:"counters"`
	Drill     *Drill   `json:"drill,omitempty"`
}

type Filters struct {
	State       string   `json:"state"`
	Subdivision string   `json:"subdivision"`
	Area        string   `json:"area"`
	Sex         string   `json:"sex"`
	Phase       string   `json:"phase"`
	Indicator   string   `json:"indicator"`
	Indicators  []string `json:"indicators,omitempty"`
	Year        string   `json:"year,omitempty"`
}

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type MenuEntry struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Checked  bool   `json:"checked"`
	Disabled bool   `json:"disabled"`
}

type Options struct {
	States       []Option    `json:"states"`
	Subdivisions []Option    `json:"subdivisions"`
	Areas        []Option    `json:"areas"`
	Sexes        []Option    `json:"sexes"`
	Phases       []Option    `json:"phases"`
	Indicators   []Option    `json:"indicators"`
	Years        []string    `json:"years,omitempty"`
	Menu         []MenuEntry `json:"menu,omitempty"`
}

// Counters carries the raw respondent counts and their pt-BR display form.
type Counters struct {
	Female  float64         `json:"female"`
	Male    float64         `json:"male"`
	Total   float64         `json:"total"`
	Display CounterDisplays `json:"display"`
}

type CounterDisplays struct {
	Female string `json:"female"`
	Male   string `json:"male"`
	Total  string `json:"total"`
}

type Drill struct {
	Level string `json:"level"`
	State string `json:"state,omitempty"`
}

// FilterPatch applies one selector value.
type FilterPatch struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// DrillRequest enters the state id, or leaves the current level when Up is set.
type DrillRequest struct {
	ID string `json:"id,omitempty"`
	Up bool   `json:"up,omitempty"`
}

type HoverAction string

const (
	HoverEnter HoverAction = "enter"
	HoverMove  HoverAction = "move"
	HoverLeave HoverAction = "leave"
)

type HoverRequest struct {
	Action HoverAction `json:"action"`
	Key    string      `json:"key,omitempty"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
}

type Tooltip struct {
	Visible bool    `json:"visible"`
	Left    float64 `json:"left"`
	Top     float64 `json:"top"`
	HTML    string  `json:"html"`
}
