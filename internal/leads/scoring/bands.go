package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Maximum contribution from each factor category. The three caps sum to 100,
// which keeps every total score in range. Engagement is intentionally
// weighted lower than facility size and projected savings.
const (
	maxFacilityPoints   = 40
	maxSavingsPoints    = 40
	maxEngagementPoints = 20
)

// Band awards Points to any input value >= Min. Within a factor the bands are
// ordered by descending Min and the first match wins, so a value sitting
// exactly on a boundary always lands in the higher band.
type Band struct {
	Min    int64 `yaml:"min"`
	Points int   `yaml:"points"`
}

// Bands holds the step-function tables for the three scoring factors.
// These boundaries are business policy, not engine design: they are loaded
// from configuration and may change without touching the calculator.
type Bands struct {
	Facility   []Band `yaml:"facility"`
	Savings    []Band `yaml:"savings"`
	Engagement []Band `yaml:"engagement"`
}

// DefaultBands returns the built-in scoring policy.
// Facility size is in thousands of square feet, savings in projected annual
// dollars, engagement in accumulated interaction points.
func DefaultBands() Bands {
	return Bands{
		Facility: []Band{
			{Min: 50, Points: 40},
			{Min: 35, Points: 36},
			{Min: 25, Points: 30},
			{Min: 15, Points: 24},
			{Min: 8, Points: 17},
			{Min: 3, Points: 10},
			{Min: 0, Points: 4},
		},
		Savings: []Band{
			{Min: 200000, Points: 40},
			{Min: 120000, Points: 35},
			{Min: 75000, Points: 29},
			{Min: 40000, Points: 22},
			{Min: 20000, Points: 15},
			{Min: 8000, Points: 8},
			{Min: 0, Points: 3},
		},
		Engagement: []Band{
			{Min: 60, Points: 20},
			{Min: 40, Points: 16},
			{Min: 25, Points: 12},
			{Min: 12, Points: 8},
			{Min: 1, Points: 4},
			{Min: 0, Points: 0},
		},
	}
}

// LoadBands reads a band table from a YAML file. An empty path returns the
// built-in defaults.
func LoadBands(path string) (Bands, error) {
	if path == "" {
		return DefaultBands(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Bands{}, fmt.Errorf("read scoring config: %w", err)
	}

	var bands Bands
	if err := yaml.Unmarshal(data, &bands); err != nil {
		return Bands{}, fmt.Errorf("parse scoring config: %w", err)
	}

	if err := bands.Validate(); err != nil {
		return Bands{}, err
	}

	return bands, nil
}

// Validate checks that each factor table is well-formed: non-empty, ordered by
// strictly descending Min down to 0, points non-increasing with Min, and
// capped at the factor maximum.
func (b Bands) Validate() error {
	if err := validateTable("facility", b.Facility, maxFacilityPoints); err != nil {
		return err
	}
	if err := validateTable("savings", b.Savings, maxSavingsPoints); err != nil {
		return err
	}
	return validateTable("engagement", b.Engagement, maxEngagementPoints)
}

func validateTable(name string, bands []Band, maxPoints int) error {
	if len(bands) == 0 {
		return fmt.Errorf("scoring: %s band table is empty", name)
	}

	for i, band := range bands {
		if band.Points < 0 || band.Points > maxPoints {
			return fmt.Errorf("scoring: %s band %d points %d outside [0,%d]", name, i, band.Points, maxPoints)
		}
		if band.Min < 0 {
			return fmt.Errorf("scoring: %s band %d has negative min", name, i)
		}
		if i > 0 {
			if band.Min >= bands[i-1].Min {
				return fmt.Errorf("scoring: %s bands must be ordered by descending min", name)
			}
			if band.Points > bands[i-1].Points {
				return fmt.Errorf("scoring: %s band points must not increase as min decreases", name)
			}
		}
	}

	if bands[len(bands)-1].Min != 0 {
		return fmt.Errorf("scoring: %s bands must end with a min of 0", name)
	}

	return nil
}

func pointsFor(bands []Band, value int64) int {
	for _, band := range bands {
		if value >= band.Min {
			return band.Points
		}
	}
	return 0
}
