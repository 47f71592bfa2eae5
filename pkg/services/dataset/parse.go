package dataset

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

const (
	colState            = "UF"
	colMunicipality     = "codigo_municipio"
	colMunicipalityName = "municipio"
	colYear             = "ANO"
	colSex              = "SEXO"
	colPhase            = "fase_vida"
	colTotal            = "total"

	colRegionMunicipality = "municipio_id_sdv"
	colRegionID           = "regional_id"
	colRegionState        = "estado_abrev"
	colRegionName         = "regional_nome"
	colRegionNameFallback = "nome"
)

var indicatorKeyColumns = map[string]bool{
	colState:            true,
	colMunicipality:     true,
	colMunicipalityName: true,
	colYear:             true,
	colSex:              true,
	colPhase:            true,
	colTotal:            true,
}

const bom = "\ufeff"

type header map[string]int

func newHeader(record []string) header {
	h := make(header, len(record))
	for i, name := range record {
		name = strings.TrimSpace(strings.TrimPrefix(name, bom))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

func (h header) require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := h[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", ErrMalformed, strings.Join(missing, ", "))
	}
	return nil
}

func (h header) cell(record []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// coercer turns cells into counts, replacing anything non-numeric with 0.
type coercer struct {
	logger  *zerolog.Logger
	invalid int
}

func (c *coercer) count(raw, column string, line int) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		c.invalid++
		c.logger.Debug().
			Str("column", column).
			Int("line", line).
			Str("value", raw).
			Msg("non-numeric count coerced to 0")
		return 0
	}
	return v
}

func parseIndicators(ctx context.Context, records [][]string) ([]domain.IndicatorRow, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty indicator table", ErrMalformed)
	}
	h := newHeader(records[0])
	if err := h.require(colState, colMunicipality, colYear, colSex, colPhase); err != nil {
		return nil, err
	}

	var valueColumns []string
	for _, name := range records[0] {
		name = strings.TrimSpace(strings.TrimPrefix(name, bom))
		if name != "" && !indicatorKeyColumns[name] {
			valueColumns = append(valueColumns, name)
		}
	}

	c := &coercer{logger: zerolog.Ctx(ctx)}
	rows := make([]domain.IndicatorRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		row := domain.IndicatorRow{
			State:            h.cell(rec, colState),
			Municipality:     h.cell(rec, colMunicipality),
			MunicipalityName: h.cell(rec, colMunicipalityName),
			Year:             h.cell(rec, colYear),
			Sex:              domain.Sex(h.cell(rec, colSex)),
			Phase:            domain.LifePhase(h.cell(rec, colPhase)),
			Total:            c.count(h.cell(rec, colTotal), colTotal, line),
			Values:           make(map[string]float64, len(valueColumns)),
		}
		for _, col := range valueColumns {
			row.Values[col] = c.count(h.cell(rec, col), col, line)
		}
		rows = append(rows, row)
	}

	if c.invalid > 0 {
		zerolog.Ctx(ctx).Warn().Int("cells", c.invalid).Msg("indicator table contains non-numeric counts")
	}
	return rows, nil
}

func parseRegions(_ context.Context, records [][]string) ([]domain.RegionLookupRow, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty region table", ErrMalformed)
	}
	h := newHeader(records[0])
	if err := h.require(colRegionMunicipality, colRegionID, colRegionState); err != nil {
		return nil, err
	}

	rows := make([]domain.RegionLookupRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		name := h.cell(rec, colRegionName)
		if name == "" {
			name = h.cell(rec, colRegionNameFallback)
		}
		rows = append(rows, domain.RegionLookupRow{
			Municipality: h.cell(rec, colRegionMunicipality),
			Region:       h.cell(rec, colRegionID),
			State:        h.cell(rec, colRegionState),
			Name:         name,
		})
	}
	return rows, nil
}
