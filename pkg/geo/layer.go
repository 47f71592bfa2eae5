// Package geo decodes the boundary files and projects them to SVG paths.
package geo

import (
	"fmt"
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
)

// Kind tells which properties identify the features of a layer.
type Kind int

const (
	KindCountry Kind = iota
	KindStates
	KindMunicipalities
	KindHealthRegions
)

var (
	idKeys = map[Kind][]string{
		KindStates:         {"SIGLA", "PK_sigla"},
		KindMunicipalities: {"id", "CODMUN", "cod_mun"},
		KindHealthRegions:  {"reg_id"},
	}
	nameKeys = map[Kind][]string{
		KindCountry:        {"name"},
		KindStates:         {"Estado"},
		KindMunicipalities: {"name", "NOME"},
		KindHealthRegions:  {"nome"},
	}
)

// Feature is one boundary in Web Mercator coordinates.
type Feature struct {
	ID       string
	Name     string
	Geometry orb.Geometry
}

// Layer is a decoded, projected feature collection.
type Layer struct {
	Kind     Kind
	Features []Feature
	Bound    orb.Bound
}

// Decode parses a GeoJSON feature collection.
func Decode(data []byte, kind Kind) (*Layer, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode feature collection: %w", err)
	}

	layer := &Layer{Kind: kind}
	first := true
	for i, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		g := project.Geometry(orb.Clone(f.Geometry), project.WGS84.ToMercator)

		id := featureID(f, kind)
		if id == "" && kind == KindCountry {
			id = strconv.Itoa(i)
		}
		layer.Features = append(layer.Features, Feature{
			ID:       id,
			Name:     property(f.Properties, nameKeys[kind]),
			Geometry: g,
		})

		if first {
			layer.Bound = g.Bound()
			first = false
		} else {
			layer.Bound = layer.Bound.Union(g.Bound())
		}
	}
	return layer, nil
}

// Names maps feature ids to names, skipping unnamed features.
func (l *Layer) Names() map[string]string {
	out := make(map[string]string, len(l.Features))
	for _, f := range l.Features {
		if f.ID != "" && f.Name != "" {
			out[f.ID] = f.Name
		}
	}
	return out
}

func featureID(f *geojson.Feature, kind Kind) string {
	if kind == KindStates && f.ID != nil {
		if id := stringify(f.ID); id != "" {
			return id
		}
	}
	return property(f.Properties, idKeys[kind])
}

func property(props geojson.Properties, keys []string) string {
	for _, k := range keys {
		if v, ok := props[k]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// CodeCandidates returns the keys a feature id may appear under in the
// survey tables. Seven-digit IBGE codes are also tried without the check digit.
func CodeCandidates(id string) []string {
	if len(id) == 7 {
		return []string{id, id[:6]}
	}
	return []string{id}
}
