package chart

import (
	"fmt"

	"github.com/de-tools/sisvan-atlas/pkg/catalog"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/render/overlay"
	"github.com/de-tools/sisvan-atlas/pkg/render/svg"
	"github.com/de-tools/sisvan-atlas/pkg/services/aggregate"
)

const (
	barHeadroom = 1.1
	barTicks    = 10
)

var barMargin = margin{top: 30, right: 30, bottom: 50, left: 60}

// BarSize is the default size of the mapping chart.
var BarSize = Size{Width: 960, Height: 500}

// BarData is an indicator-grouped result drawn as one bar group per indicator.
type BarData struct {
	Result aggregate.Result
	Sex    domain.Sex
}

// Bar draws the nutritional mapping chart.
type Bar struct {
	tooltip *overlay.Tooltip
	cat     *catalog.Catalog
}

func NewBar(tooltip *overlay.Tooltip, cat *catalog.Catalog) *Bar {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Bar{tooltip: tooltip, cat: cat}
}

// Render draws d at size. With both sexes selected each indicator gets a
// total bar and a stacked male/female bar whose segments add up to it.
func (b *Bar) Render(d BarData, size Size) *Chart {
	size = size.Or(BarSize)
	if d.Result.Empty() || len(d.Result.Groups) == 0 {
		return Empty(size, b.tooltip)
	}

	width, height := barMargin.inner(size)
	doc := svg.Document(size.Width, size.Height).Class("chart-bar")
	c := newChart(doc, b.tooltip)
	root := doc.Add("g").Key("plot").Attr("transform", svg.Translate(barMargin.left, barMargin.top))

	both := d.Sex == domain.SexAll || d.Sex == ""
	var peak float64
	for _, g := range d.Result.Groups {
		v := g.Value.Of(d.Sex)
		if both {
			v = g.Share.All
		}
		if v > peak {
			peak = v
		}
	}
	yMax := peak * barHeadroom
	if yMax <= 0 {
		yMax = 1
	}
	y := svg.NewLinear(0, yMax, height, 0).Nice(barTicks)

	keys := make([]string, len(d.Result.Groups))
	labels := make(map[string]string, len(keys))
	for i, g := range d.Result.Groups {
		keys[i] = g.Key
		labels[g.Key] = g.Label
	}
	x0 := svg.Band{Domain: keys, R0: 0, R1: width, PaddingInner: 0.1}

	bottomAxis(root, x0, height, func(k string) string { return labels[k] })
	leftAxis(root, y, y.Ticks(barTicks), percentTick)

	barHeight := func(v float64) float64 {
		h := height - y.Map(v)
		if h < 0 {
			return 0
		}
		return h
	}

	for _, g := range d.Result.Groups {
		x, _ := x0.Pos(g.Key)
		group := root.Add("g").
			Key("indicator-"+g.Key).
			Class("indicador-group").
			Attr("transform", svg.Translate(x, 0))
		name := svg.Escape(g.Label)

		if !both {
			v := g.Value.Of(d.Sex)
			rect := group.Add("rect").
				Attr("x", x0.Bandwidth()*0.25).
				Attr("y", y.Map(v)).
				Attr("width", x0.Bandwidth()*0.5).
				Attr("height", barHeight(v)).
				Attr("fill", b.cat.GradientFor(d.Sex).To).
				Class(sexClass(d.Sex))
			c.target(rect, fmt.Sprintf("bar-%s-%s", g.Key, d.Sex),
				fmt.Sprintf("<strong>%s</strong><br/>Valor: %.2f%%", name, v), nil)
			continue
		}

		x1 := svg.Band{Domain: []string{"total", "stacked"}, R0: 0, R1: x0.Bandwidth(), PaddingInner: 0.1, PaddingOuter: 0.1}
		bw := x1.Bandwidth()
		xTotal, _ := x1.Pos("total")
		xStacked, _ := x1.Pos("stacked")

		total := g.Share.All
		rect := group.Add("rect").
			Attr("x", xTotal+bw*0.25).
			Attr("y", y.Map(total)).
			Attr("width", bw*0.7).
			Attr("height", barHeight(total)).
			Attr("fill", b.cat.GradientFor(domain.SexAll).To).
			Class("total fill-primary")
		c.target(rect, fmt.Sprintf("bar-%s-total", g.Key),
			fmt.Sprintf("<strong>%s</strong><br/>Valor Total: %.2f%%", name, total), nil)

		var base float64
		for _, s := range []domain.Sex{domain.SexMale, domain.SexFemale} {
			v := g.Share.Of(s)
			top := base + v
			seg := group.Add("rect").
				Attr("x", xStacked+bw*0.05).
				Attr("y", y.Map(top)).
				Attr("width", bw*0.3).
				Attr("height", y.Map(base)-y.Map(top)).
				Attr("fill", b.cat.GradientFor(s).To).
				Class("stacked " + sexClass(s))
			c.target(seg, fmt.Sprintf("bar-%s-%s", g.Key, s),
				fmt.Sprintf("<strong>%s</strong><br/>Sexo: %s<br/>Valor: %.2f%%", name, b.cat.SexLabel(s), v), nil)
			base = top
		}
	}

	yLabel(root, -(height/1.5 - barMargin.top), -45)
	return c
}

func sexClass(s domain.Sex) string {
	switch s {
	case domain.SexMale:
		return "fill-accent"
	case domain.SexFemale:
		return "fill-secondary"
	}
	return "fill-primary"
}
