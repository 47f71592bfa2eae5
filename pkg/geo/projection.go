package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Projection maps Mercator coordinates to screen pixels.
type Projection struct {
	scale float64
	tx    float64
	ty    float64
}

// Fit centers bound inside a width x height viewport keeping its aspect ratio.
func Fit(bound orb.Bound, width, height float64) Projection {
	dx := bound.Max[0] - bound.Min[0]
	dy := bound.Max[1] - bound.Min[1]
	if dx <= 0 && dy <= 0 {
		return Projection{scale: 1, tx: width/2 - bound.Min[0], ty: height/2 + bound.Min[1]}
	}

	k := math.Inf(1)
	if dx > 0 {
		k = width / dx
	}
	if dy > 0 {
		k = math.Min(k, height/dy)
	}
	return Projection{
		scale: k,
		tx:    (width-k*dx)/2 - k*bound.Min[0],
		ty:    (height-k*dy)/2 + k*bound.Max[1],
	}
}

// Point projects one coordinate. Screen y grows downwards.
func (p Projection) Point(pt orb.Point) (float64, float64) {
	return p.scale*pt[0] + p.tx, -p.scale*pt[1] + p.ty
}

// Path renders a geometry as SVG path data.
func (p Projection) Path(g orb.Geometry) string {
	var sb strings.Builder
	p.write(&sb, g)
	return sb.String()
}

func (p Projection) write(sb *strings.Builder, g orb.Geometry) {
	switch geom := g.(type) {
	case orb.Polygon:
		for _, ring := range geom {
			p.ring(sb, ring, true)
		}
	case orb.MultiPolygon:
		for _, poly := range geom {
			p.write(sb, poly)
		}
	case orb.Ring:
		p.ring(sb, geom, true)
	case orb.LineString:
		p.ring(sb, orb.Ring(geom), false)
	case orb.MultiLineString:
		for _, ls := range geom {
			p.ring(sb, orb.Ring(ls), false)
		}
	case orb.Collection:
		for _, part := range geom {
			p.write(sb, part)
		}
	}
}

func (p Projection) ring(sb *strings.Builder, ring orb.Ring, closed bool) {
	for i, pt := range ring {
		if closed && i == len(ring)-1 && len(ring) > 1 && pt == ring[0] {
			break
		}
		if i == 0 {
			sb.WriteByte('M')
		} else {
			sb.WriteByte('L')
		}
		x, y := p.Point(pt)
		sb.WriteString(coord(x))
		sb.WriteByte(',')
		sb.WriteString(coord(y))
	}
	if closed && len(ring) > 0 {
		sb.WriteByte('Z')
	}
}

func coord(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
