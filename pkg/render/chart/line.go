package chart

import (
	"fmt"
	"strings"

	"github.com/de-tools/sisvan-atlas/pkg/catalog"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/render/overlay"
	"github.com/de-tools/sisvan-atlas/pkg/render/svg"
	"github.com/de-tools/sisvan-atlas/pkg/services/aggregate"
)

const (
	lineTicks   = 6
	pointRadius = 4
	hoverRadius = 6
)

var lineMargin = margin{top: 30, right: 30, bottom: 50, left: 50}

// LineSize is the default size of the temporal chart.
var LineSize = Size{
	Width:  700 + lineMargin.left + lineMargin.right,
	Height: 355 + lineMargin.top + lineMargin.bottom,
}

// LineData is a year-grouped result drawn as one series per sex.
type LineData struct {
	Result aggregate.Result
	Sex    domain.Sex
}

// Line draws the temporal analysis chart.
type Line struct {
	tooltip *overlay.Tooltip
	cat     *catalog.Catalog
}

func NewLine(tooltip *overlay.Tooltip, cat *catalog.Catalog) *Line {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Line{tooltip: tooltip, cat: cat}
}

type series struct {
	sex   domain.Sex
	key   string
	color string
}

func (l *Line) series(sex domain.Sex) []series {
	mk := func(s domain.Sex) series {
		key := strings.ToLower(string(s))
		if s == domain.SexAll {
			key = "all"
		}
		return series{sex: s, key: key, color: l.cat.GradientFor(s).To}
	}
	if sex == domain.SexAll || sex == "" {
		return []series{mk(domain.SexFemale), mk(domain.SexMale), mk(domain.SexAll)}
	}
	return []series{mk(sex)}
}

// Render draws d at size. Years run left to right; the y axis starts at 0
// and ends at the largest plotted value.
func (l *Line) Render(d LineData, size Size) *Chart {
	size = size.Or(LineSize)
	if d.Result.Empty() || len(d.Result.Groups) == 0 {
		return Empty(size, l.tooltip)
	}

	width, height := lineMargin.inner(size)
	doc := svg.Document(size.Width, size.Height).Class("chart-line")
	c := newChart(doc, l.tooltip)
	root := doc.Add("g").Key("plot").Attr("transform", svg.Translate(lineMargin.left, lineMargin.top))

	all := l.series(d.Sex)
	years := make([]string, len(d.Result.Groups))
	var maxY float64
	for i, g := range d.Result.Groups {
		years[i] = g.Key
		for _, s := range all {
			if v := g.Value.Of(s.sex); v > maxY {
				maxY = v
			}
		}
	}
	if maxY <= 0 {
		maxY = 100
	}

	x := svg.NewPoint(years, 0, width, 0.2)
	y := svg.NewLinear(0, maxY, height, 0)

	lines := root.Add("g").Key("lines")
	circles := root.Add("g").Key("circles")
	labels := root.Add("g").Key("labels")

	bottomAxis(root, x, height, func(k string) string { return k })
	ticks := y.Ticks(lineTicks)
	leftAxis(root, y, ticks, percentTick)
	root.Add("text").
		Key("y-label").
		Attr("transform", "rotate(-90)").
		Attr("x", -height/2).
		Attr("y", -lineMargin.left-3).
		Attr("dy", "1em").
		Attr("text-anchor", "middle").
		Class("y-axis-label").
		SetText("Prevalência")

	if len(ticks) > 0 {
		for _, tv := range ticks[:len(ticks)-1] {
			lines.Add("line").
				Key("grid-"+svg.Num(tv)).
				Attr("x1", 0).Attr("x2", width).
				Attr("y1", y.Map(tv)).Attr("y2", y.Map(tv)).
				Class("grid-line")
		}
	}

	for _, s := range all {
		var path strings.Builder
		for i, g := range d.Result.Groups {
			px, _ := x.Pos(g.Key)
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			path.WriteString(cmd + svg.Num(px) + "," + svg.Num(y.Map(g.Value.Of(s.sex))))
		}
		lines.Add("path").
			Key("line-"+s.key).
			Attr("d", path.String()).
			Attr("fill", "none").
			Attr("stroke", s.color).
			Attr("stroke-width", 2)

		for _, g := range d.Result.Groups {
			v := g.Value.Of(s.sex)
			px, _ := x.Pos(g.Key)
			py := y.Map(v)

			circle := circles.Add("circle").
				Class("circle-"+s.key).
				Attr("cx", px).
				Attr("cy", py).
				Attr("r", pointRadius).
				Attr("fill", s.color)

			label := labels.Add("g").
				Key(fmt.Sprintf("label-%s-%s", s.key, g.Key)).
				Class("label-" + s.key).
				Attr("visibility", "hidden")
			label.Add("rect").
				Attr("x", px-20).Attr("y", py-30).
				Attr("width", 40).Attr("height", 20).
				Attr("fill", "white").Attr("stroke", "#d1d5db")
			label.Add("text").
				Attr("x", px).Attr("y", py-15).
				Attr("text-anchor", "middle").
				SetText(fmt.Sprintf("%.1f%%", v))

			c.target(circle, fmt.Sprintf("point-%s-%s", s.key, g.Key),
				fmt.Sprintf("<strong>%s</strong><br/>%.1f%%", svg.Escape(g.Key), v),
				func(on bool) {
					if on {
						circle.Attr("r", hoverRadius)
						label.Attr("visibility", "visible")
						return
					}
					circle.Attr("r", pointRadius)
					label.Attr("visibility", "hidden")
				})
		}
	}
	return c
}
