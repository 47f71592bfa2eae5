package domain

import "fmt"

// DrillLevel tags the geographic granularity shown by the regional map.
type DrillLevel int

const (
	LevelNational DrillLevel = iota
	LevelStates
	LevelMunicipalities
	LevelHealthRegions
)

func (l DrillLevel) String() string {
	switch l {
	case LevelNational:
		return "national"
	case LevelStates:
		return "states"
	case LevelMunicipalities:
		return "municipalities"
	case LevelHealthRegions:
		return "health_regions"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Drill is the current position in the map hierarchy. State is only set for
// the municipality and health-region levels.
type Drill struct {
	Level DrillLevel
	State string
}

func NationalDrill() Drill { return Drill{Level: LevelNational} }

func StatesDrill() Drill { return Drill{Level: LevelStates} }

// StateDrill returns the level below uf for the given subdivision mode.
func StateDrill(uf string, sub Subdivision) Drill {
	if sub == SubdivisionHealthRegion {
		return Drill{Level: LevelHealthRegions, State: uf}
	}
	return Drill{Level: LevelMunicipalities, State: uf}
}

// InsideState reports whether the drill shows the interior of one state.
func (d Drill) InsideState() bool {
	return d.Level == LevelMunicipalities || d.Level == LevelHealthRegions
}

func (d Drill) String() string {
	if d.InsideState() {
		return fmt.Sprintf("%s:%s", d.Level, d.State)
	}
	return d.Level.String()
}
