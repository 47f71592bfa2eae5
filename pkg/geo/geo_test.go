package geo

import (
	"context"
	"math"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/de-tools/sisvan-atlas/pkg/catalog"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/services/dataset"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statesJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "AC", "properties": {"Estado": "Acre"},
     "geometry": {"type": "Polygon", "coordinates": [[[-73,-11],[-66,-11],[-66,-7],[-73,-7],[-73,-11]]]}},
    {"type": "Feature", "properties": {"SIGLA": "AM", "Estado": "Amazonas"},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[-70,-7],[-57,-7],[-57,2],[-70,2],[-70,-7]]]]}}
  ]
}`

const acMunicipalitiesJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"id": "1200401", "name": "Rio Branco"},
     "geometry": {"type": "Polygon", "coordinates": [[[-68,-10],[-67,-10],[-67,-9],[-68,-9],[-68,-10]]]}},
    {"type": "Feature", "properties": {"CODMUN": 120001, "NOME": "Acrelândia"},
     "geometry": {"type": "Polygon", "coordinates": [[[-67,-10],[-66,-10],[-66,-9],[-67,-9],[-67,-10]]]}}
  ]
}`

const acRegionsJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"reg_id": 12001, "nome": "Baixo Acre e Purus", "est_id": 12},
     "geometry": {"type": "Polygon", "coordinates": [[[-68,-10],[-66,-10],[-66,-9],[-68,-9],[-68,-10]]]}}
  ]
}`

func TestDecode_FeatureIdentifiers(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		kind  Kind
		ids   []string
		names []string
	}{
		{name: "states", data: statesJSON, kind: KindStates, ids: []string{"AC", "AM"}, names: []string{"Acre", "Amazonas"}},
		{name: "municipalities", data: acMunicipalitiesJSON, kind: KindMunicipalities, ids: []string{"1200401", "120001"}, names: []string{"Rio Branco", "Acrelândia"}},
		{name: "health regions", data: acRegionsJSON, kind: KindHealthRegions, ids: []string{"12001"}, names: []string{"Baixo Acre e Purus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layer, err := Decode([]byte(tt.data), tt.kind)
			require.NoError(t, err)

			var ids, names []string
			for _, f := range layer.Features {
				ids = append(ids, f.ID)
				names = append(names, f.Name)
			}
			assert.Equal(t, tt.ids, ids)
			assert.Equal(t, tt.names, names)
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte(`{"type": "FeatureCollection", "features": [`), KindStates)
	assert.Error(t, err)
}

func TestFit_CentersInsideViewport(t *testing.T) {
	layer, err := Decode([]byte(statesJSON), KindStates)
	require.NoError(t, err)

	p := Fit(layer.Bound, 800, 450)

	minX, minY := p.Point(layer.Bound.Min)
	maxX, maxY := p.Point(layer.Bound.Max)
	// y flips: the southern edge is at the bottom
	assert.Greater(t, minY, maxY)
	assert.GreaterOrEqual(t, minX, -1e-6)
	assert.LessOrEqual(t, maxX, 800+1e-6)
	assert.GreaterOrEqual(t, maxY, -1e-6)
	assert.LessOrEqual(t, minY, 450+1e-6)

	// one dimension touches the viewport edges
	touchesX := math.Abs(minX) < 1e-6 && math.Abs(maxX-800) < 1e-6
	touchesY := math.Abs(maxY) < 1e-6 && math.Abs(minY-450) < 1e-6
	assert.True(t, touchesX || touchesY)
}

func TestProjection_Path(t *testing.T) {
	p := Fit(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}, 100, 100)

	path := p.Path(orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 0}}})

	assert.Equal(t, "M0,100L100,100L100,0Z", path)
	assert.Empty(t, p.Path(orb.Point{1, 1}))
	assert.Equal(t, 2, strings.Count(p.Path(orb.MultiPolygon{
		{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
		{{{2, 2}, {3, 2}, {3, 3}, {2, 2}}},
	}), "Z"))
}

func TestCodeCandidates(t *testing.T) {
	assert.Equal(t, []string{"1200401", "120040"}, CodeCandidates("1200401"))
	assert.Equal(t, []string{"120040"}, CodeCandidates("120040"))
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"br_states.json":                     {Data: []byte(statesJSON)},
		"br_cities/geojs-12-mun.json":        {Data: []byte(acMunicipalitiesJSON)},
		"by_state/health_regions_12.geojson": {Data: []byte(acRegionsJSON)},
	}
}

func TestStore_Layer(t *testing.T) {
	store := NewStore(testFS(), catalog.Default())
	ctx := context.Background()

	states, err := store.Layer(ctx, domain.StatesDrill())
	require.NoError(t, err)
	assert.Len(t, states.Features, 2)

	again, err := store.Layer(ctx, domain.StatesDrill())
	require.NoError(t, err)
	assert.Same(t, states, again)

	regions, err := store.Layer(ctx, domain.StateDrill("AC", domain.SubdivisionHealthRegion))
	require.NoError(t, err)
	assert.Equal(t, KindHealthRegions, regions.Kind)

	_, err = store.Layer(ctx, domain.NationalDrill())
	assert.Error(t, err)

	_, err = store.Layer(ctx, domain.StateDrill("XX", domain.SubdivisionAdministrative))
	assert.ErrorIs(t, err, ErrNoGeometry)
}

func TestFillNames(t *testing.T) {
	store := NewStore(testFS(), catalog.Default())
	idx := dataset.NewNameIndex()
	require.False(t, idx.Ready())

	err := FillNames(context.Background(), store, idx, []string{"AC", "MG"})

	require.NoError(t, err)
	assert.True(t, idx.Ready())
	name, ok := idx.Name("AC", "120040")
	assert.True(t, ok)
	assert.Equal(t, "Rio Branco", name)
	name, ok = idx.Name("AC", "120001")
	assert.True(t, ok)
	assert.Equal(t, "Acrelândia", name)
}
