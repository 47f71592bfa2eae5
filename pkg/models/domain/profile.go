package domain

import "fmt"

// DatasetProfile names a pair of source locations and the geometry root
// used to render them.
type DatasetProfile struct {
	Name       string
	Indicators string
	Regions    string
	Geometry   string
}

func (p DatasetProfile) String() string {
	return fmt.Sprintf("%s:%s", p.Name, p.Indicators)
}

// Counters are the respondent totals shown next to a chart.
type Counters struct {
	Female float64
	Male   float64
	Total  float64
}
