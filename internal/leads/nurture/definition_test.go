package nurture

import (
	"strings"
	"testing"
	"time"
)

func TestLoadTracksDefaults(t *testing.T) {
	tracks, err := LoadTracks("")
	if err != nil {
		t.Fatalf("LoadTracks: %v", err)
	}

	byName := make(map[string]Track, len(tracks))
	for _, track := range tracks {
		byName[track.Name] = track
	}
	for _, name := range []string{"calculator", "resource", "newsletter"} {
		track, ok := byName[name]
		if !ok {
			t.Fatalf("default config missing track %q", name)
		}
		last := track.Stages[len(track.Stages)-1]
		if !last.Terminal {
			t.Fatalf("track %q last stage %q must be terminal", name, last.Name)
		}
	}

	calc := byName["calculator"]
	if len(calc.Stages) != 3 {
		t.Fatalf("expected 3 calculator stages, got %d", len(calc.Stages))
	}
	if calc.Stages[0].Delay != 24*time.Hour {
		t.Fatalf("calculator day1 delay = %v, want 24h", calc.Stages[0].Delay)
	}
	if byName["newsletter"].Stages[0].Delay != time.Hour {
		t.Fatalf("newsletter welcome delay = %v, want 1h", byName["newsletter"].Stages[0].Delay)
	}
}

func TestTrackValidate(t *testing.T) {
	valid := calculatorTrack()
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid track rejected: %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*Track)
		wantErr string
	}{
		{
			name:    "no stages",
			mutate:  func(tr *Track) { tr.Stages = nil },
			wantErr: "no stages",
		},
		{
			name:    "duplicate stage name",
			mutate:  func(tr *Track) { tr.Stages[1].Name = tr.Stages[0].Name },
			wantErr: "duplicate stage",
		},
		{
			name:    "negative delay",
			mutate:  func(tr *Track) { tr.Stages[0].Delay = -time.Hour },
			wantErr: "negative delay",
		},
		{
			name:    "missing template",
			mutate:  func(tr *Track) { tr.Stages[2].Template = "" },
			wantErr: "no template",
		},
		{
			name:    "terminal before last stage",
			mutate:  func(tr *Track) { tr.Stages[0].Terminal = true },
			wantErr: "terminal",
		},
		{
			name:    "last stage not terminal",
			mutate:  func(tr *Track) { tr.Stages[2].Terminal = false },
			wantErr: "terminal",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			track := calculatorTrack()
			tc.mutate(&track)
			err := track.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}
