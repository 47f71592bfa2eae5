package config

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"gopkg.in/ini.v1"
)

// ErrUnknownProfile is returned for a profile name absent from the file.
var ErrUnknownProfile = errors.New("unknown profile")

// Profiles lists the dataset profiles of an INI file. Every section with an
// indicators key is a profile:
//
//	[default]
//	indicators = s3://sisvan/db_final.csv
//	regions    = s3://sisvan/db_region.csv
//	geometry   = ./geo
type Profiles interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, name string) (domain.DatasetProfile, error)
}

type iniProfiles struct {
	cfg *ini.File
}

func NewProfiles(path string) (Profiles, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles %s: %w", path, err)
	}
	return &iniProfiles{cfg: cfg}, nil
}

// ParseProfiles reads profiles from INI content.
func ParseProfiles(data []byte) (Profiles, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	return &iniProfiles{cfg: cfg}, nil
}

func (p *iniProfiles) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range p.cfg.Sections() {
		if section.HasKey("indicators") {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (p *iniProfiles) GetProfile(_ context.Context, name string) (domain.DatasetProfile, error) {
	section, err := p.cfg.GetSection(name)
	if err != nil || !section.HasKey("indicators") {
		return domain.DatasetProfile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}

	profile := domain.DatasetProfile{
		Name:       name,
		Indicators: section.Key("indicators").String(),
		Regions:    section.Key("regions").String(),
		Geometry:   section.Key("geometry").String(),
	}
	if profile.Regions == "" {
		return domain.DatasetProfile{}, fmt.Errorf("profile %s has no regions location", name)
	}
	return profile, nil
}

// StaticProfiles serves a fixed set of profiles.
type StaticProfiles map[string]domain.DatasetProfile

func (s StaticProfiles) GetProfiles(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s StaticProfiles) GetProfile(_ context.Context, name string) (domain.DatasetProfile, error) {
	p, ok := s[name]
	if !ok {
		return domain.DatasetProfile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	p.Name = name
	return p, nil
}
