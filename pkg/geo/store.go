package geo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/de-tools/sisvan-atlas/pkg/catalog"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/de-tools/sisvan-atlas/pkg/services/dataset"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var ErrNoGeometry = errors.New("no geometry for drill level")

// Store reads boundary layers for a drill level.
type Store interface {
	Layer(ctx context.Context, drill domain.Drill) (*Layer, error)
}

type fsStore struct {
	root fs.FS
	cat  *catalog.Catalog

	mu     sync.Mutex
	layers map[string]*Layer
}

// NewStore serves layers from root, caching every decoded file.
func NewStore(root fs.FS, cat *catalog.Catalog) Store {
	if cat == nil {
		cat = catalog.Default()
	}
	return &fsStore{root: root, cat: cat, layers: make(map[string]*Layer)}
}

func (s *fsStore) Layer(ctx context.Context, drill domain.Drill) (*Layer, error) {
	file, kind, err := s.locate(drill)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	layer, ok := s.layers[file]
	s.mu.Unlock()
	if ok {
		return layer, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.root, file)
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry %s: %w", file, err)
	}
	layer, err = Decode(data, kind)
	if err != nil {
		return nil, fmt.Errorf("geometry %s: %w", file, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("file", file).
		Int("features", len(layer.Features)).
		Msg("geometry loaded")

	s.mu.Lock()
	s.layers[file] = layer
	s.mu.Unlock()
	return layer, nil
}

func (s *fsStore) locate(drill domain.Drill) (string, Kind, error) {
	switch drill.Level {
	case domain.LevelNational:
		return s.cat.Geometry.Country, KindCountry, nil
	case domain.LevelStates:
		return s.cat.Geometry.States, KindStates, nil
	case domain.LevelMunicipalities:
		if file, ok := s.cat.MunicipalityFile(drill.State); ok {
			return file, KindMunicipalities, nil
		}
	case domain.LevelHealthRegions:
		if file, ok := s.cat.HealthRegionFile(drill.State); ok {
			return file, KindHealthRegions, nil
		}
	}
	return "", 0, fmt.Errorf("%w: %s", ErrNoGeometry, drill)
}

// FillNames adds the municipality names of every state layer to idx and
// marks it ready. States whose file is missing are skipped.
func FillNames(ctx context.Context, store Store, idx *dataset.NameIndex, states []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, uf := range states {
		g.Go(func() error {
			layer, err := store.Layer(ctx, domain.Drill{Level: domain.LevelMunicipalities, State: uf})
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrNoGeometry) {
					zerolog.Ctx(ctx).Debug().Str("state", uf).Msg("no municipality geometry")
					return nil
				}
				return err
			}
			for id, name := range layer.Names() {
				for _, code := range CodeCandidates(id) {
					idx.Add(uf, code, name)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to build municipality names: %w", err)
	}
	idx.MarkReady()
	return nil
}
