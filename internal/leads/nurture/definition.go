// Package nurture advances leads through their track's time-gated email
// sequence: an ordered, immutable stage list per track, a scheduler that
// sends each due stage exactly once per record, and a coordinator that runs
// every track in a fixed order.
package nurture

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed tracks.yaml
var defaultTracksYAML []byte

// Stage is one step in a track's sequence.
type Stage struct {
	Name     string        // unique within the track
	Delay    time.Duration // minimum dwell since the previous send (or creation, for the first stage)
	Template string        // stage template id for the renderer
	Terminal bool          // sending this stage completes the sequence
}

// UnmarshalYAML parses a stage with the delay given as a Go duration string.
func (s *Stage) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Name     string `yaml:"name"`
		Delay    string `yaml:"delay"`
		Template string `yaml:"template"`
		Terminal bool   `yaml:"terminal"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	delay, err := time.ParseDuration(raw.Delay)
	if err != nil {
		return fmt.Errorf("stage %q: invalid delay %q: %w", raw.Name, raw.Delay, err)
	}

	s.Name = raw.Name
	s.Delay = delay
	s.Template = raw.Template
	s.Terminal = raw.Terminal
	return nil
}

// Track is one independent nurture sequence with its own stage list.
type Track struct {
	Name   string  `yaml:"name"`
	Stages []Stage `yaml:"stages"`
}

// Validate checks the track's stage list is usable by the scheduler.
func (t Track) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("nurture: track without a name")
	}
	if len(t.Stages) == 0 {
		return fmt.Errorf("nurture: track %q has no stages", t.Name)
	}

	seen := make(map[string]bool, len(t.Stages))
	for i, stage := range t.Stages {
		if stage.Name == "" {
			return fmt.Errorf("nurture: track %q stage %d has no name", t.Name, i)
		}
		if seen[stage.Name] {
			return fmt.Errorf("nurture: track %q has duplicate stage %q", t.Name, stage.Name)
		}
		seen[stage.Name] = true
		if stage.Delay < 0 {
			return fmt.Errorf("nurture: track %q stage %q has negative delay", t.Name, stage.Name)
		}
		if stage.Template == "" {
			return fmt.Errorf("nurture: track %q stage %q has no template", t.Name, stage.Name)
		}

		// Terminal exactly on the last stage, so sequence completion and
		// running out of stages are the same thing.
		isLast := i == len(t.Stages)-1
		if stage.Terminal != isLast {
			return fmt.Errorf("nurture: track %q stage %q: terminal must be set on the last stage only", t.Name, stage.Name)
		}
	}

	return nil
}

type tracksFile struct {
	Tracks []Track `yaml:"tracks"`
}

// LoadTracks reads track definitions from a YAML file. An empty path returns
// the embedded defaults.
func LoadTracks(path string) ([]Track, error) {
	data := defaultTracksYAML
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read tracks config: %w", err)
		}
		data = fileData
	}

	var file tracksFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tracks config: %w", err)
	}
	if len(file.Tracks) == 0 {
		return nil, fmt.Errorf("tracks config defines no tracks")
	}

	names := make(map[string]bool, len(file.Tracks))
	for _, track := range file.Tracks {
		if err := track.Validate(); err != nil {
			return nil, err
		}
		if names[track.Name] {
			return nil, fmt.Errorf("nurture: duplicate track %q", track.Name)
		}
		names[track.Name] = true
	}

	return file.Tracks, nil
}
