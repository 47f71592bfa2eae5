// Package static draws fixed-size PNG or SVG charts of aggregation results
// for offline export.
package static

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/de-tools/sisvan-atlas/pkg/catalog"
	"github.com/de-tools/sisvan-atlas/pkg/locale"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/render/svg"
	"github.com/de-tools/sisvan-atlas/pkg/services/aggregate"
	"github.com/wcharczuk/go-chart/v2"
)

const (
	defaultWidth  = 960
	defaultHeight = 500
	axisLabel     = "Prevalência (%)"
)

var (
	ErrEmpty         = errors.New("nothing to draw")
	ErrUnknownFormat = errors.New("unknown export format")
)

type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPNG, FormatSVG:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) provider() chart.RendererProvider {
	if f == FormatSVG {
		return chart.SVG
	}
	return chart.PNG
}

// Renderable is satisfied by every go-chart chart type.
type Renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

// Write renders r to w in format f.
func Write(w io.Writer, r Renderable, f Format) error {
	if err := r.Render(f.provider(), w); err != nil {
		return fmt.Errorf("failed to render %s: %w", f, err)
	}
	return nil
}

type Painter struct {
	cat    *catalog.Catalog
	width  int
	height int
}

func NewPainter(cat *catalog.Catalog, width, height int) *Painter {
	if cat == nil {
		cat = catalog.Default()
	}
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	return &Painter{cat: cat, width: width, height: height}
}

func (p *Painter) style(s domain.Sex) chart.Style {
	col := svg.ParseColor(p.cat.GradientFor(s).To)
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    4,
	}
}

func yRange(peak float64) *chart.ContinuousRange {
	if peak <= 0 {
		return &chart.ContinuousRange{Min: 0, Max: 100}
	}
	return &chart.ContinuousRange{Min: 0, Max: math.Ceil(peak * 1.1)}
}

func percent(v any) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f%%", f)
	}
	return ""
}

// Timeline draws one line per sex over the years of a year-grouped result.
// With a single sex selected only that line is drawn.
func (p *Painter) Timeline(res aggregate.Result, sex domain.Sex, title string) (*chart.Chart, error) {
	if res.Empty() || len(res.Groups) == 0 {
		return nil, ErrEmpty
	}

	sexes := []domain.Sex{domain.SexFemale, domain.SexMale, domain.SexAll}
	if sex != domain.SexAll && sex != "" {
		sexes = []domain.Sex{sex}
	}

	xs := make([]float64, 0, len(res.Groups))
	ticks := make([]chart.Tick, 0, len(res.Groups))
	for i, g := range res.Groups {
		x := float64(i)
		if year, err := strconv.Atoi(g.Key); err == nil {
			x = float64(year)
		}
		xs = append(xs, x)
		ticks = append(ticks, chart.Tick{Value: x, Label: g.Label})
	}

	var peak float64
	series := make([]chart.Series, 0, len(sexes))
	for _, s := range sexes {
		ys := make([]float64, 0, len(res.Groups))
		for _, g := range res.Groups {
			v := g.Value.Of(s)
			peak = math.Max(peak, v)
			ys = append(ys, v)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    p.cat.SexLabel(s),
			XValues: xs,
			YValues: ys,
			Style:   p.style(s),
		})
	}

	ch := &chart.Chart{
		Title:      title,
		Width:      p.width,
		Height:     p.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "Ano",
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: xs[0] - 0.5, Max: xs[len(xs)-1] + 0.5},
		},
		YAxis: chart.YAxis{
			Name:           axisLabel,
			Range:          yRange(peak),
			ValueFormatter: percent,
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(ch)}
	return ch, nil
}

// Bars draws one bar per indicator of an indicator-grouped result. Counts
// are labelled in pt-BR when the result holds counts.
func (p *Painter) Bars(res aggregate.Result, sex domain.Sex, title string) (*chart.BarChart, error) {
	if res.Empty() || len(res.Groups) == 0 {
		return nil, ErrEmpty
	}

	fill := svg.ParseColor(p.cat.GradientFor(sex).To)
	var peak float64
	bars := make([]chart.Value, 0, len(res.Groups))
	for _, g := range res.Groups {
		v := g.Value.Of(sex)
		peak = math.Max(peak, v)
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s (%s)", g.Label, locale.FormatPercent(v)),
			Value: v,
			Style: chart.Style{FillColor: fill, StrokeColor: fill},
		})
	}

	return &chart.BarChart{
		Title:      title,
		Width:      p.width,
		Height:     p.height,
		BarWidth:   p.width / (len(bars)*2 + 1),
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis: chart.YAxis{
			Name:           axisLabel,
			Range:          yRange(peak),
			ValueFormatter: percent,
		},
		Bars: bars,
	}, nil
}
