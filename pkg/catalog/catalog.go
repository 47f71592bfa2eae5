package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var rawCatalog []byte

const missingColor = "#ccc"

type Gradient struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// GeometryIndex locates GeoJSON files relative to a geometry root.
type GeometryIndex struct {
	Country        string            `yaml:"country"`
	States         string            `yaml:"states"`
	Municipalities string            `yaml:"municipalities"`
	HealthRegions  string            `yaml:"health_regions"`
	IBGE           map[string]string `yaml:"ibge"`
}

// Catalog holds display labels, colors and geometry file names.
type Catalog struct {
	States       map[string]string             `yaml:"states"`
	Sexes        map[domain.Sex]string         `yaml:"sexes"`
	Phases       map[domain.LifePhase]string   `yaml:"phases"`
	Subdivisions map[domain.Subdivision]string `yaml:"subdivisions"`
	Indicators   map[string]string             `yaml:"indicators"`
	Conditions   map[string]string             `yaml:"conditions"`
	Gradients    map[domain.Sex]Gradient       `yaml:"gradients"`
	Strokes      map[domain.Sex]string         `yaml:"strokes"`
	Geometry     GeometryIndex                 `yaml:"geometry"`
}

var (
	loadOnce sync.Once
	loaded   *Catalog
	loadErr  error
)

// Default returns the embedded catalog. It panics when the embedded file is
// malformed, which can only happen at build time.
func Default() *Catalog {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(rawCatalog)
	})
	if loadErr != nil {
		panic(fmt.Sprintf("catalog: invalid embedded catalog: %v", loadErr))
	}
	return loaded
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &c, nil
}

// StateName returns the state's full name, or the sigla when unknown.
// An empty sigla names the whole country.
func (c *Catalog) StateName(uf string) string {
	if uf == "" {
		uf = "Brasil"
	}
	if name, ok := c.States[uf]; ok {
		return name
	}
	return uf
}

// StateOption formats a state for a selector, e.g. "Minas Gerais (MG)".
func (c *Catalog) StateOption(uf string) string {
	if name, ok := c.States[uf]; ok {
		return fmt.Sprintf("%s (%s)", name, uf)
	}
	return uf
}

func (c *Catalog) SexLabel(s domain.Sex) string {
	if l, ok := c.Sexes[s]; ok {
		return l
	}
	return string(s)
}

func (c *Catalog) PhaseLabel(p domain.LifePhase) string {
	if l, ok := c.Phases[p]; ok {
		return l
	}
	return string(p)
}

func (c *Catalog) SubdivisionLabel(s domain.Subdivision) string {
	if l, ok := c.Subdivisions[s]; ok {
		return l
	}
	return string(s)
}

// IndicatorName returns the friendly indicator name, or the key itself.
func (c *Catalog) IndicatorName(key string) string {
	if n, ok := c.Indicators[key]; ok {
		return n
	}
	return key
}

// ConditionName returns the nutritional condition label used by selectors.
func (c *Catalog) ConditionName(key string) string {
	if n, ok := c.Conditions[key]; ok {
		return n
	}
	return c.IndicatorName(key)
}

// GradientFor returns the color ramp of a sex, falling back to the all-sexes ramp.
func (c *Catalog) GradientFor(s domain.Sex) Gradient {
	if g, ok := c.Gradients[s]; ok {
		return g
	}
	return c.Gradients[domain.SexAll]
}

func (c *Catalog) StrokeFor(s domain.Sex) string {
	if col, ok := c.Strokes[s]; ok {
		return col
	}
	return missingColor
}

// MissingColor is the fill of features without data.
func (c *Catalog) MissingColor() string {
	return missingColor
}

func (c *Catalog) IBGECode(uf string) (string, bool) {
	code, ok := c.Geometry.IBGE[uf]
	return code, ok
}

// StateSiglas lists every state with geometry, sorted.
func (c *Catalog) StateSiglas() []string {
	out := make([]string, 0, len(c.Geometry.IBGE))
	for uf := range c.Geometry.IBGE {
		out = append(out, uf)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) MunicipalityFile(uf string) (string, bool) {
	code, ok := c.IBGECode(uf)
	if !ok {
		return "", false
	}
	return fmt.Sprintf(c.Geometry.Municipalities, code), true
}

func (c *Catalog) HealthRegionFile(uf string) (string, bool) {
	code, ok := c.IBGECode(uf)
	if !ok {
		return "", false
	}
	return fmt.Sprintf(c.Geometry.HealthRegions, code), true
}
