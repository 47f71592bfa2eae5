// Package chart renders aggregation results as keyed SVG documents. Every
// hover target carries its tooltip content, so the same chart can be
// driven from a browser or from the HTTP hover action.
package chart

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/de-tools/sisvan-atlas/pkg/render/overlay"
	"github.com/de-tools/sisvan-atlas/pkg/render/svg"
)

// ErrUnknownElement is returned when a hover targets a key the chart does not draw.
var ErrUnknownElement = errors.New("unknown chart element")

// EmptyMessage is shown instead of a chart when no row matches the filters.
const EmptyMessage = "Sem dados para os filtros selecionados"

// Size is the outer size of a chart in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both sides are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Or returns s, or def when s is not valid.
func (s Size) Or(def Size) Size {
	if s.Valid() {
		return s
	}
	return def
}

type margin struct {
	top, right, bottom, left float64
}

func (m margin) inner(s Size) (float64, float64) {
	w := s.Width - m.left - m.right
	h := s.Height - m.top - m.bottom
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return w, h
}

// effect toggles the highlighted look of a hover target.
type effect func(on bool)

// Chart is one rendered document plus its hover targets.
type Chart struct {
	SVG    *svg.Node
	Legend *svg.Node
	Empty  bool

	tooltips map[string]string
	effects  map[string]effect
	tip      *overlay.Tooltip

	mu     sync.Mutex
	active string
}

func newChart(doc *svg.Node, tip *overlay.Tooltip) *Chart {
	return &Chart{
		SVG:      doc,
		tooltips: make(map[string]string),
		effects:  make(map[string]effect),
		tip:      tip,
	}
}

// Empty returns the placeholder drawn when no data matches.
func Empty(size Size, tip *overlay.Tooltip) *Chart {
	doc := svg.Document(size.Width, size.Height).Class("chart-empty")
	doc.Add("text").
		Key("empty").
		Attr("x", size.Width/2).
		Attr("y", size.Height/2).
		Attr("text-anchor", "middle").
		Attr("dominant-baseline", "middle").
		Class("placeholder").
		SetText(EmptyMessage)
	c := newChart(doc, tip)
	c.Empty = true
	return c
}

// target registers n as a hover target under key.
func (c *Chart) target(n *svg.Node, key, html string, fx effect) {
	n.Key(key).Attr("data-tooltip", html)
	c.tooltips[key] = html
	if fx != nil {
		c.effects[key] = fx
	}
}

// WriteTo serializes the document. Hover effects mutate the tree, so writes
// are serialized with Hover and Leave.
func (c *Chart) WriteTo(w io.Writer) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.SVG.WriteTo(w)
}

// String returns the serialized document.
func (c *Chart) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.SVG.String()
}

// Tooltip returns the content shown when hovering key.
func (c *Chart) Tooltip(key string) (string, bool) {
	html, ok := c.tooltips[key]
	return html, ok
}

// Targets returns the number of hover targets.
func (c *Chart) Targets() int {
	return len(c.tooltips)
}

// Hover shows the tooltip of key next to p and highlights the element.
// Hovering another key first releases the previous one.
func (c *Chart) Hover(key string, p overlay.Pointer) error {
	html, ok := c.tooltips[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownElement, key)
	}

	c.mu.Lock()
	if c.active != "" && c.active != key {
		if fx := c.effects[c.active]; fx != nil {
			fx(false)
		}
	}
	c.active = key
	if fx := c.effects[key]; fx != nil {
		fx(true)
	}
	c.mu.Unlock()

	if c.tip != nil {
		c.tip.Show(html, p)
	}
	return nil
}

// Move follows the pointer while an element is hovered.
func (c *Chart) Move(p overlay.Pointer) {
	if c.tip != nil {
		c.tip.Move(p)
	}
}

// Leave hides the tooltip and removes the highlight.
func (c *Chart) Leave() {
	c.mu.Lock()
	if fx := c.effects[c.active]; fx != nil {
		fx(false)
	}
	c.active = ""
	c.mu.Unlock()

	if c.tip != nil {
		c.tip.Hide()
	}
}

// yLabel draws the rotated axis title used by the cartesian charts.
func yLabel(g *svg.Node, x, y float64) *svg.Node {
	return g.Add("text").
		Key("y-label").
		Attr("transform", "rotate(-90)").
		Attr("x", x).
		Attr("y", y).
		Class("y-axis-label").
		SetText("Prevalência")
}

// leftAxis draws tick lines and labels of a vertical linear scale.
func leftAxis(g *svg.Node, scale svg.Linear, ticks []float64, format func(float64) string) *svg.Node {
	axis := g.Add("g").Key("y-axis").Class("axis axis-left")
	for _, v := range ticks {
		tick := axis.Add("g").
			Key("y-tick-"+svg.Num(v)).
			Class("tick").
			Attr("transform", svg.Translate(0, scale.Map(v)))
		tick.Add("line").Attr("x2", -6).Attr("stroke", "currentColor")
		tick.Add("text").Attr("x", -9).Attr("dy", "0.32em").Attr("text-anchor", "end").SetText(format(v))
	}
	return axis
}

// bottomAxis draws one label per band, centered on it.
func bottomAxis(g *svg.Node, band svg.Band, height float64, label func(string) string) *svg.Node {
	axis := g.Add("g").Key("x-axis").Class("axis axis-bottom").Attr("transform", svg.Translate(0, height))
	axis.Add("line").Attr("x1", band.R0).Attr("x2", band.R1).Attr("stroke", "currentColor")
	for _, k := range band.Domain {
		x, _ := band.Pos(k)
		tick := axis.Add("g").
			Key("x-tick-"+k).
			Class("tick").
			Attr("transform", svg.Translate(x+band.Bandwidth()/2, 0))
		tick.Add("line").Attr("y2", 6).Attr("stroke", "currentColor")
		tick.Add("text").Attr("y", 9).Attr("dy", "0.71em").Attr("text-anchor", "middle").SetText(label(k))
	}
	return axis
}

func percentTick(v float64) string {
	return svg.Num(v) + "%"
}
