package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/de-tools/sisvan-atlas/pkg/catalog"
	"github.com/de-tools/sisvan-atlas/pkg/geo"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/services/aggregate"
	"github.com/de-tools/sisvan-atlas/pkg/services/config"
	"github.com/de-tools/sisvan-atlas/pkg/services/dataset"
	"github.com/de-tools/sisvan-atlas/pkg/services/filter"
	"github.com/de-tools/sisvan-atlas/pkg/services/visual"
)

// Workbench holds what every command needs to reach a dataset.
type Workbench struct {
	Profiles config.Profiles
	Cache    *dataset.Cache
	Store    geo.Store
	Catalog  *catalog.Catalog
	Names    *dataset.NameIndex

	engine   aggregate.Engine
	sessions visual.Registry
}

func (w *Workbench) init() {
	if w.Catalog == nil {
		w.Catalog = catalog.Default()
	}
	if w.Names == nil {
		w.Names = dataset.NewNameIndex()
	}
	if w.engine == nil {
		w.engine = aggregate.NewEngine(aggregate.WithCatalog(w.Catalog), aggregate.WithNames(w.Names))
	}
	if w.sessions == nil {
		w.sessions = visual.NewRegistry(w.Cache, w.Store, w.Catalog, w.Names)
	}
}

// acquire loads the dataset of a profile. release must be called when done.
func (w *Workbench) acquire(ctx context.Context, name string) (ds *dataset.Dataset, release func(), err error) {
	profile, err := w.Profiles.GetProfile(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	key := dataset.Key{Indicators: profile.Indicators, Regions: profile.Regions}
	ds, err = w.Cache.Acquire(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile %s: %w", name, err)
	}
	return ds, func() { w.Cache.Release(key) }, nil
}

type filterArg struct {
	field filter.Field
	value string
}

// parseFilters reads field=value pairs. An empty value clears the field.
func parseFilters(values []string) ([]filterArg, error) {
	out := make([]filterArg, 0, len(values))
	for _, v := range values {
		field, value, ok := strings.Cut(v, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q, expected field=value", v)
		}
		out = append(out, filterArg{field: filter.Field(strings.TrimSpace(field)), value: strings.TrimSpace(value)})
	}
	return out, nil
}

func applyFilters(mgr filter.Manager, args []filterArg) error {
	for _, a := range args {
		if err := mgr.Set(a.field, a.value); err != nil {
			return fmt.Errorf("failed to apply filter %s=%s: %w", a.field, a.value, err)
		}
	}
	return nil
}

// scope describes a filter state in one line.
func scope(cat *catalog.Catalog, f domain.FilterState) string {
	parts := []string{cat.StateName(f.State)}
	if f.Area != "" {
		parts = append(parts, f.Area)
	}
	parts = append(parts, cat.PhaseLabel(f.Phase), cat.SexLabel(f.Sex))
	if f.Year != "" {
		parts = append(parts, f.Year)
	}
	return strings.Join(parts, " · ")
}

// create opens path for writing; "-" is out.
func create(path string, out io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return out, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}
