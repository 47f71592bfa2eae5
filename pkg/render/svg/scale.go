package svg

import (
	"fmt"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Linear maps a continuous domain onto a range.
type Linear struct {
	D0, D1 float64
	R0, R1 float64
}

func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{D0: d0, D1: d1, R0: r0, R1: r1}
}

// Map projects v. A degenerate domain maps to the middle of the range.
func (s Linear) Map(v float64) float64 {
	span := s.D1 - s.D0
	if span == 0 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + (v-s.D0)/span*(s.R1-s.R0)
}

// Nice extends the domain to round tick boundaries.
func (s Linear) Nice(count int) Linear {
	start, stop := s.D0, s.D1
	prev := 0.0
	for i := 0; i < 10; i++ {
		step := tickIncrement(start, stop, count)
		if step == prev || step == 0 || math.IsInf(step, 0) || math.IsNaN(step) {
			break
		}
		if step > 0 {
			start = math.Floor(start/step) * step
			stop = math.Ceil(stop/step) * step
		} else {
			start = math.Ceil(start*-step) / -step
			stop = math.Floor(stop*-step) / -step
		}
		prev = step
	}
	s.D0, s.D1 = start, stop
	return s
}

// Ticks returns about count round values inside the domain.
func (s Linear) Ticks(count int) []float64 {
	return Ticks(s.D0, s.D1, count)
}

// Ticks returns about count round values between start and stop.
func Ticks(start, stop float64, count int) []float64 {
	if count <= 0 || math.IsNaN(start) || math.IsNaN(stop) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}
	step := tickIncrement(start, stop, count)
	if step == 0 || math.IsInf(step, 0) {
		return nil
	}

	var out []float64
	if step > 0 {
		lo, hi := math.Ceil(start/step), math.Floor(stop/step)
		for i := lo; i <= hi; i++ {
			out = append(out, i*step)
		}
	} else {
		lo, hi := math.Ceil(start*-step), math.Floor(stop*-step)
		for i := lo; i <= hi; i++ {
			out = append(out, i / -step)
		}
	}
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// tickIncrement returns a positive step, or the negative inverse of a step
// below one, so that ticks stay exact decimals.
func tickIncrement(start, stop float64, count int) float64 {
	step := (stop - start) / math.Max(0, float64(count))
	if step <= 0 || math.IsNaN(step) {
		return 0
	}
	power := math.Floor(math.Log10(step))
	e := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case e >= math.Sqrt(50):
		factor = 10
	case e >= math.Sqrt(10):
		factor = 5
	case e >= math.Sqrt(2):
		factor = 2
	}
	if power >= 0 {
		return factor * math.Pow(10, power)
	}
	return -math.Pow(10, -power) / factor
}

// Band divides a range into equal bands, one per domain value.
type Band struct {
	Domain       []string
	R0, R1       float64
	PaddingInner float64
	PaddingOuter float64
}

func (b Band) step() (float64, float64) {
	n := float64(len(b.Domain))
	span := b.R1 - b.R0
	step := span / math.Max(1, n-b.PaddingInner+b.PaddingOuter*2)
	start := b.R0 + (span-step*(n-b.PaddingInner))*0.5
	return start, step
}

func (b Band) Bandwidth() float64 {
	_, step := b.step()
	return step * (1 - b.PaddingInner)
}

// Pos returns the start of key's band, false for unknown keys.
func (b Band) Pos(key string) (float64, bool) {
	start, step := b.step()
	for i, k := range b.Domain {
		if k == key {
			return start + step*float64(i), true
		}
	}
	return 0, false
}

// NewPoint returns a band scale with zero-width bands, as used for points
// on a line.
func NewPoint(domain []string, r0, r1, padding float64) Band {
	return Band{Domain: domain, R0: r0, R1: r1, PaddingInner: 1, PaddingOuter: padding}
}

// Ramp interpolates linearly between two colors over a domain.
type Ramp struct {
	Min, Max float64
	from, to drawing.Color
}

func NewRamp(from, to string, min, max float64) Ramp {
	return Ramp{Min: min, Max: max, from: ParseColor(from), to: ParseColor(to)}
}

// Color returns the hex color for v, clamped to the ramp ends.
func (r Ramp) Color(v float64) string {
	t := 0.5
	if r.Max != r.Min {
		t = (v - r.Min) / (r.Max - r.Min)
	}
	t = math.Max(0, math.Min(1, t))
	return Hex(drawing.Color{
		R: lerp(r.from.R, r.to.R, t),
		G: lerp(r.from.G, r.to.G, t),
		B: lerp(r.from.B, r.to.B, t),
		A: 255,
	})
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// ParseColor reads #rgb or #rrggbb.
func ParseColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func Hex(c drawing.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
