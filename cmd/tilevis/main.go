package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/acahuzac/tilevis/internal/config"
	"github.com/acahuzac/tilevis/internal/debug"
	"github.com/acahuzac/tilevis/internal/logic/orientation"
	"github.com/acahuzac/tilevis/internal/logic/session"
	"github.com/acahuzac/tilevis/internal/logic/viewport"
	"github.com/acahuzac/tilevis/internal/manifest"
	"github.com/acahuzac/tilevis/internal/trace"
	"github.com/acahuzac/tilevis/internal/web"
)

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start web server on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	layoutPath := flag.String("layout", "", "override tile layout file")
	tracePath := flag.String("trace", "", "override head-movement trace file")
	horizontalFOVDeg := flag.Float64("horizontal_fov_deg", 0, "override horizontal field of view in degrees (0-180 exclusive)")
	verticalFOVDeg := flag.Float64("vertical_fov_deg", 0, "override vertical field of view in degrees (0-180 exclusive)")
	sampleRes := flag.Int("sample_resolution", 0, "override sample grid resolution (>= 1)")
	yawDeg := flag.Float64("yaw", 0, "head yaw in degrees for a one-shot query")
	pitchDeg := flag.Float64("pitch", 0, "head pitch in degrees for a one-shot query")
	rollDeg := flag.Float64("roll", 0, "head roll in degrees for a one-shot query")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	// Validate CLI overrides (only non-zero values are applied; zero means "use config default")
	if err := validateCLIOverrides(*horizontalFOVDeg, *verticalFOVDeg, *sampleRes); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	applyOverrides(cfg, *layoutPath, *tracePath, *horizontalFOVDeg, *verticalFOVDeg, *sampleRes)

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)

	// Load the tile layout
	debug.Step(1, "Loading tile layout")
	layout, err := manifest.Load(cfg.Layout)
	if err != nil {
		log.Fatalf("load layout failed: %v", err)
	}
	frameW, frameH := layout.FrameSize()
	debug.Layout(len(layout.Tiles), frameW, frameH)

	// Build the viewport resolver
	debug.Step(2, "Building viewport resolver")
	resolver, err := viewport.NewResolver(layout, viewport.Params{
		HorizontalFOVDeg: cfg.Viewport.HorizontalFOVDeg,
		VerticalFOVDeg:   cfg.Viewport.VerticalFOVDeg,
		SampleRes:        cfg.Viewport.SampleResolution,
	})
	if err != nil {
		log.Fatalf("build resolver failed: %v", err)
	}
	debug.Value("Horizontal FOV", cfg.Viewport.HorizontalFOVDeg)
	debug.Value("Vertical FOV", cfg.Viewport.VerticalFOVDeg)
	debug.Value("Sample points", resolver.SampleCount())

	// Load the trace, if configured
	var samples []trace.Sample
	if cfg.Trace != "" {
		debug.Step(3, "Loading head-movement trace")
		samples, err = trace.Load(cfg.Trace)
		if err != nil {
			log.Fatalf("load trace failed: %v", err)
		}
		debug.Value("Trace samples", len(samples))
	}

	info := web.InfoResponse{
		Tiles:            resolver.TileCount(),
		FrameWidth:       frameW,
		FrameHeight:      frameH,
		HorizontalFOVDeg: cfg.Viewport.HorizontalFOVDeg,
		VerticalFOVDeg:   cfg.Viewport.VerticalFOVDeg,
		SamplePoints:     resolver.SampleCount(),
	}

	if port := webPort.port(); port > 0 {
		webAddr := fmt.Sprintf(":%d", port)
		broadcaster := web.NewStatusBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))

		var runReplay web.RunReplayFunc
		if len(samples) > 0 {
			runReplay = func(ctx context.Context) error {
				rp := session.NewReplay(resolver)
				rp.SetObserver(func(i int, s trace.Sample, visibility map[int]int) {
					broadcaster.BroadcastVisibility(i, s.T, visibility)
				})
				_, err := rp.Run(ctx, samples)
				return err
			}
		}

		srv := web.NewServer(webAddr, broadcaster, resolver, runReplay, info)
		if err := srv.Run(ctx); err != nil {
			log.Fatalf("web server: %v", err)
		}
		return
	}

	if len(samples) > 0 {
		// Replay the whole trace and print the aggregated report.
		report, err := session.NewReplay(resolver).Run(ctx, samples)
		if err != nil {
			log.Fatalf("replay failed: %v", err)
		}
		printJSON(report)
		return
	}

	// One-shot query for the given Euler angles (defaults to the
	// identity orientation).
	const degToRad = math.Pi / 180
	head := orientation.FromEuler(*yawDeg*degToRad, *pitchDeg*degToRad, *rollDeg*degToRad)
	visibility, err := resolver.TileVisibility(head)
	if err != nil {
		log.Fatalf("visibility query failed: %v", err)
	}
	printJSON(map[string]interface{}{"visibility": visibility})
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encode output: %v", err)
	}
}

// validateCLIOverrides checks that non-zero CLI overrides are within valid ranges.
// Zero values are ignored (they mean "use config default").
func validateCLIOverrides(hfov, vfov float64, res int) error {
	if hfov != 0 {
		if math.IsNaN(hfov) || math.IsInf(hfov, 0) || hfov <= 0 || hfov >= 180 {
			return fmt.Errorf("horizontal_fov_deg must be in (0, 180), got %g", hfov)
		}
	}
	if vfov != 0 {
		if math.IsNaN(vfov) || math.IsInf(vfov, 0) || vfov <= 0 || vfov >= 180 {
			return fmt.Errorf("vertical_fov_deg must be in (0, 180), got %g", vfov)
		}
	}
	if res != 0 && res < 1 {
		return fmt.Errorf("sample_resolution must be >= 1, got %d", res)
	}
	return nil
}

// applyOverrides mutates cfg with overrides. Only non-zero override values are applied.
func applyOverrides(cfg *config.Config, layoutPath, tracePath string, hfov, vfov float64, res int) {
	if layoutPath != "" {
		cfg.Layout = layoutPath
	}
	if tracePath != "" {
		cfg.Trace = tracePath
	}
	if hfov > 0 {
		cfg.Viewport.HorizontalFOVDeg = hfov
	}
	if vfov > 0 {
		cfg.Viewport.VerticalFOVDeg = vfov
	}
	if res > 0 {
		cfg.Viewport.SampleResolution = res
	}
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }
