package chart

import (
	"fmt"
	"strings"

	"github.com/de-tools/sisvan-atlas/pkg/catalog"
	"github.com/de-tools/sisvan-atlas/pkg/geo"
	"github.com/de-tools/sisvan-atlas/pkg/locale"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/render/overlay"
	"github.com/de-tools/sisvan-atlas/pkg/render/svg"
)

// CountryKey is the area key of the single national feature.
const CountryKey = "BR"

// MapSize is the default size of the regional map.
var MapSize = Size{Width: 800, Height: 450}

// Area is the value drawn for one feature. Female and Male are only shown
// when both sexes are selected.
type Area struct {
	Name   string
	Value  float64
	Female float64
	Male   float64
}

// MapData describes one level of the regional map.
type MapData struct {
	Layer *geo.Layer
	// Areas is keyed by survey code: UF sigla, municipality code or region id.
	Areas  map[string]Area
	Sex    domain.Sex
	Domain [2]float64
	Format overlay.TickFormat
	// Indicator is the display name shown on the national tooltip.
	Indicator string
	// DrillDown marks features as clickable; DrillUp enables the way back.
	DrillDown bool
	DrillUp   bool
}

// Choropleth draws the regional map and its legend.
type Choropleth struct {
	tooltip *overlay.Tooltip
	legend  *overlay.Legend
	cat     *catalog.Catalog
}

func NewChoropleth(tooltip *overlay.Tooltip, legend *overlay.Legend, cat *catalog.Catalog) *Choropleth {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Choropleth{tooltip: tooltip, legend: legend, cat: cat}
}

// Render projects the layer into size and fills every feature from the
// color ramp of the selected sex. Features without data are grey.
func (m *Choropleth) Render(d MapData, size Size) *Chart {
	size = size.Or(MapSize)
	if d.Layer == nil || len(d.Layer.Features) == 0 || len(d.Areas) == 0 {
		if m.legend != nil {
			m.legend.Clear()
		}
		return Empty(size, m.tooltip)
	}

	sex := d.Sex
	if sex == "" {
		sex = domain.SexAll
	}
	grad := m.cat.GradientFor(sex)
	ramp := svg.NewRamp(grad.From, grad.To, d.Domain[0], d.Domain[1])
	stroke := m.cat.StrokeFor(sex)
	proj := geo.Fit(d.Layer.Bound, size.Width, size.Height)

	doc := svg.Document(size.Width, size.Height).Class("chart-map").Class(layerClass(d.Layer.Kind))
	if d.DrillUp {
		doc.Attr("data-drill-up", "true")
	}
	c := newChart(doc, m.tooltip)
	paths := doc.Add("g").Key("features")

	for i, f := range d.Layer.Features {
		area, ok := m.lookup(d, f)
		fill := m.cat.MissingColor()
		if ok && area.Value != 0 {
			fill = ramp.Color(area.Value)
		}

		key := f.ID
		if key == "" {
			key = fmt.Sprintf("%d", i)
		}
		path := paths.Add("path").
			Attr("d", proj.Path(f.Geometry)).
			Attr("fill", fill).
			Attr("stroke", stroke).
			Attr("stroke-width", 1).
			Class("map-path")
		if d.DrillDown {
			path.Attr("data-drill", key)
		}
		c.target(path, "area-"+key, m.tooltipHTML(d, f, area), func(on bool) {
			if on {
				path.Attr("stroke-width", 2)
				return
			}
			path.Attr("stroke-width", 1)
		})
	}

	if m.legend != nil {
		c.Legend = m.legend.Draw(ramp, d.Format)
	}
	return c
}

func (m *Choropleth) lookup(d MapData, f geo.Feature) (Area, bool) {
	if d.Layer.Kind == geo.KindCountry {
		a, ok := d.Areas[CountryKey]
		return a, ok
	}
	for _, code := range geo.CodeCandidates(f.ID) {
		if a, ok := d.Areas[code]; ok {
			return a, true
		}
	}
	return Area{}, false
}

func (m *Choropleth) name(d MapData, f geo.Feature, a Area) string {
	switch {
	case d.Layer.Kind == geo.KindCountry:
		return m.cat.StateName("Brasil")
	case a.Name != "":
		return a.Name
	case d.Layer.Kind == geo.KindStates:
		return m.cat.StateName(f.ID)
	case f.Name != "":
		return f.Name
	}
	return f.ID
}

func (m *Choropleth) tooltipHTML(d MapData, f geo.Feature, a Area) string {
	value := func(v float64) string {
		if d.Format == overlay.FormatCount {
			return locale.FormatCount(v)
		}
		return fmt.Sprintf("%.1f%%", v)
	}
	name := svg.Escape(m.name(d, f, a))
	both := d.Sex == domain.SexAll || d.Sex == ""

	var b strings.Builder
	b.WriteString(`<div class="tooltip-content">`)
	if d.Layer.Kind == geo.KindCountry {
		fmt.Fprintf(&b, `<div class="tooltip-title">%s</div>`, name)
		fmt.Fprintf(&b, `<div><span class="tooltip-subtitle">%s:</span> %s</div>`, svg.Escape(d.Indicator), value(a.Value))
		if both {
			fmt.Fprintf(&b, `<div class="tooltip-fem">Fem: %.1f%%</div>`, a.Female)
			fmt.Fprintf(&b, `<div class="tooltip-masc">Masc: %.1f%%</div>`, a.Male)
		}
	} else {
		fmt.Fprintf(&b, `<div class="tooltip-title">%s: <span class="notbold">%s</span></div>`, name, value(a.Value))
		if both {
			fmt.Fprintf(&b, `<div class="tooltip-fem">Feminino: <span class="notbold">%.1f%%</span></div>`, a.Female)
			fmt.Fprintf(&b, `<div class="tooltip-masc">Masculino: <span class="notbold">%.1f%%</span></div>`, a.Male)
		}
	}
	b.WriteString(`</div>`)
	return b.String()
}

func layerClass(k geo.Kind) string {
	switch k {
	case geo.KindCountry:
		return "country"
	case geo.KindStates:
		return "states"
	case geo.KindMunicipalities:
		return "municipalities"
	}
	return "health-regions"
}
