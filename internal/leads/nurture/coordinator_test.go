package nurture

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRunAllIsolatesFailingTrack(t *testing.T) {
	store := newFakeStore()
	sender := newFakeSender()
	sched := newTestScheduler(store, sender, 100)

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		store.add("calculator", fmt.Sprintf("calc%d@example.com", i), created)
		store.add("resource", fmt.Sprintf("res%d@example.com", i), created)
	}
	store.failTrack["resource"] = errors.New("pg: connection reset")

	resourceTrack := calculatorTrack()
	resourceTrack.Name = "resource"
	resourceTrack.Stages[0].Template = "resource_day1"
	resourceTrack.Stages[1].Template = "resource_day3"
	resourceTrack.Stages[2].Template = "resource_day7"

	coord := NewCoordinator(sched, []Track{calculatorTrack(), resourceTrack}, nil)
	atTime(sched, created.Add(30*time.Hour))
	report := coord.RunAll(context.Background())

	if report.TotalAdvanced != 3 {
		t.Fatalf("expected healthy track to advance 3, got %d", report.TotalAdvanced)
	}
	if len(report.Tracks) != 1 || report.Tracks[0].Track != "calculator" {
		t.Fatalf("expected one completed track result, got %+v", report.Tracks)
	}
	failure, ok := report.TrackFailures["resource"]
	if !ok {
		t.Fatalf("expected resource track failure in report")
	}
	if failure == "" {
		t.Fatalf("expected failure reason")
	}

	// Resource subscribers are untouched.
	for id, sub := range store.subs {
		if sub.Track == "resource" && sub.LastStageSent != nil {
			t.Fatalf("resource subscriber %s advanced during failed run", id)
		}
	}
}

func TestRunAllReportsTotals(t *testing.T) {
	store := newFakeStore()
	sender := newFakeSender()
	sender.failFor["broken@example.com"] = errors.New("smtp: timeout")
	sched := newTestScheduler(store, sender, 100)

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.add("calculator", "ok@example.com", created)
	store.add("calculator", "broken@example.com", created)

	coord := NewCoordinator(sched, []Track{calculatorTrack()}, nil)
	atTime(sched, created.Add(30*time.Hour))
	report := coord.RunAll(context.Background())

	if report.TotalAdvanced != 1 {
		t.Fatalf("expected 1 advance, got %d", report.TotalAdvanced)
	}
	if report.TotalErrors != 1 {
		t.Fatalf("expected 1 record error, got %d", report.TotalErrors)
	}
	if len(report.TrackFailures) != 0 {
		t.Fatalf("record errors must not count as track failures: %v", report.TrackFailures)
	}
	if len(report.Tracks) != 1 || report.Tracks[0].EmailsSent != 1 {
		t.Fatalf("expected track stats with 1 email sent, got %+v", report.Tracks)
	}
}
