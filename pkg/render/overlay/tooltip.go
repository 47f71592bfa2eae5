// Package overlay holds the floating tooltip and the color legend shared by
// every chart.
package overlay

import "sync"

// Offset is the distance between the pointer and the tooltip corner.
const Offset = 10

// Pointer is a position in client coordinates.
type Pointer struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TooltipState is a snapshot of the tooltip.
type TooltipState struct {
	Visible bool    `json:"visible"`
	Left    float64 `json:"left"`
	Top     float64 `json:"top"`
	HTML    string  `json:"html"`
}

// Tooltip is the shared floating overlay. It is safe for concurrent use.
type Tooltip struct {
	mu    sync.Mutex
	state TooltipState
}

func NewTooltip() *Tooltip {
	return &Tooltip{}
}

// Show sets the content and places the tooltip next to p. Showing the same
// content at the same position again changes nothing.
func (t *Tooltip) Show(html string, p Pointer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = TooltipState{
		Visible: true,
		HTML:    html,
		Left:    p.X + Offset,
		Top:     p.Y + Offset,
	}
}

// Move follows the pointer without touching the content.
func (t *Tooltip) Move(p Pointer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Left = p.X + Offset
	t.state.Top = p.Y + Offset
}

func (t *Tooltip) Hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Visible = false
}

func (t *Tooltip) State() TooltipState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
