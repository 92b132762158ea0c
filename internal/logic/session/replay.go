// Package session replays a recorded head-movement trace against a
// viewport resolver and aggregates tile popularity and head-motion
// statistics.
package session

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/acahuzac/tilevis/internal/debug"
	"github.com/acahuzac/tilevis/internal/logic/orientation"
	"github.com/acahuzac/tilevis/internal/logic/viewport"
	"github.com/acahuzac/tilevis/internal/trace"
)

// Observer is notified after every visibility query during a replay.
// The visibility map must not be retained past the call.
type Observer func(index int, sample trace.Sample, visibility map[int]int)

// Report is the outcome of a replay: per-tile popularity over the
// whole trace plus angular-speed statistics between samples.
type Report struct {
	Samples    int             `json:"samples"`
	TileCounts map[int]int     `json:"tile_counts"` // summed visibility per tile
	TileShare  map[int]float64 `json:"tile_share"`  // fraction of all sample hits per tile
	MeanSpeed  float64         `json:"mean_speed"`  // rad/s, 0 when no timed pairs exist
	MaxSpeed   float64         `json:"max_speed"`   // rad/s
}

// Replay runs head-movement traces through one resolver.
type Replay struct {
	resolver *viewport.Resolver
	observer Observer
}

func NewReplay(r *viewport.Resolver) *Replay {
	return &Replay{resolver: r}
}

// SetObserver registers a per-sample callback (e.g. for live SSE
// streaming). Must be called before Run.
func (rp *Replay) SetObserver(fn Observer) {
	rp.observer = fn
}

// Run replays the samples in order, computing the visibility histogram
// for each and accumulating the report. It stops early when ctx is
// cancelled. The trace must be non-empty.
func (rp *Replay) Run(ctx context.Context, samples []trace.Sample) (*Report, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("session: trace contains no samples")
	}

	debug.Section("Replay")
	w, h := rp.resolver.FrameSize()
	debug.Layout(rp.resolver.TileCount(), w, h)
	debug.Value("Samples", len(samples))

	report := &Report{
		Samples:    len(samples),
		TileCounts: make(map[int]int),
		TileShare:  make(map[int]float64),
	}
	var speeds []float64

	for i, s := range samples {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		visibility, err := rp.resolver.TileVisibility(s.Q)
		if err != nil {
			return nil, fmt.Errorf("session: sample %d (t=%.3fs): %w", i, s.T, err)
		}
		for tile, count := range visibility {
			report.TileCounts[tile] += count
		}
		debug.Query(i, s.T, len(visibility))
		if rp.observer != nil {
			rp.observer(i, s, visibility)
		}

		if i > 0 {
			prev := samples[i-1]
			dt := s.T - prev.T
			// non-increasing timestamps carry no rate information
			if dt > 0 {
				av, err := orientation.AverageAngularVelocity(
					prev.Q.Quaternion(), s.Q.Quaternion(), dt)
				if err != nil {
					return nil, fmt.Errorf("session: samples %d-%d: %w", i-1, i, err)
				}
				speeds = append(speeds, av.Norm())
			}
		}
	}

	total := float64(len(samples) * rp.resolver.SampleCount())
	for tile, count := range report.TileCounts {
		report.TileShare[tile] = float64(count) / total
	}
	if len(speeds) > 0 {
		report.MeanSpeed = stat.Mean(speeds, nil)
		report.MaxSpeed = floats.Max(speeds)
	}

	debug.Summary("Replay Report")
	debug.Value("Tiles seen", len(report.TileCounts))
	debug.Value("Mean speed (rad/s)", debug.Fmt("%.4f", report.MeanSpeed))
	debug.Value("Max speed (rad/s)", debug.Fmt("%.4f", report.MaxSpeed))

	return report, nil
}
