package overlay

import (
	"fmt"
	"sync"

	"github.com/de-tools/sisvan-atlas/pkg/locale"
	"github.com/de-tools/sisvan-atlas/pkg/render/svg"
)

const (
	legendWidth  = 20
	legendHeight = 200
	legendTicks  = 4
	legendLabel  = "Prevalência (%)"
	gradientID   = "legend-gradient"
)

// TickFormat selects how legend ticks are printed.
type TickFormat int

const (
	FormatPercent TickFormat = iota
	// FormatCount prints pt-BR grouped integers, used for the respondent total.
	FormatCount
)

func (f TickFormat) format(v float64) string {
	if f == FormatCount {
		return locale.FormatCount(v)
	}
	return fmt.Sprintf("%.0f%%", v)
}

// Legend draws the vertical color gradient of a map. The last drawn legend
// stays available until the next Draw or Clear.
type Legend struct {
	mu   sync.Mutex
	last *svg.Node
}

func NewLegend() *Legend {
	return &Legend{}
}

// Draw renders the legend for ramp and keeps it as the current legend.
func (l *Legend) Draw(ramp svg.Ramp, format TickFormat) *svg.Node {
	doc := svg.Document(120, 250).Class("legend")

	grad := doc.Add("defs").Add("linearGradient").
		Attr("id", gradientID).
		Attr("x1", "0%").Attr("y1", "100%").
		Attr("x2", "0%").Attr("y2", "0%")
	grad.Add("stop").Attr("offset", "0%").Attr("stop-color", ramp.Color(ramp.Min))
	grad.Add("stop").Attr("offset", "100%").Attr("stop-color", ramp.Color(ramp.Max))

	doc.Add("rect").
		Attr("x", 10).Attr("y", 10).
		Attr("width", legendWidth).Attr("height", legendHeight).
		Attr("fill", "url(#"+gradientID+")")

	scale := svg.NewLinear(ramp.Min, ramp.Max, legendHeight, 0)
	axis := doc.Add("g").Class("axis axis-right").Attr("transform", svg.Translate(legendWidth+20, 10))
	for _, v := range scale.Ticks(legendTicks) {
		y := scale.Map(v)
		tick := axis.Add("g").Class("tick").Key("legend-tick-"+svg.Num(v)).Attr("transform", svg.Translate(0, y))
		tick.Add("line").Attr("x2", 6).Attr("stroke", "currentColor")
		tick.Add("text").Attr("x", 9).Attr("dy", "0.32em").SetText(format.format(v))
	}

	doc.Add("text").
		Attr("transform", fmt.Sprintf("translate(%d, %d) rotate(-90)", legendWidth+65, 10+legendHeight/2)).
		Attr("text-anchor", "middle").
		Attr("font-size", "18px").
		SetText(legendLabel)

	l.mu.Lock()
	l.last = doc
	l.mu.Unlock()
	return doc
}

func (l *Legend) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = nil
}

// Current returns the last drawn legend, nil after Clear.
func (l *Legend) Current() *svg.Node {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}
