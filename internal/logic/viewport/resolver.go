package viewport

import (
	"fmt"
	"math"
	"sort"

	"github.com/acahuzac/tilevis/internal/logic/orientation"
	"github.com/acahuzac/tilevis/internal/manifest"
)

// Defaults for the projection parameters: a 92° monocular field of
// view on both axes, sampled on a 9x9 viewport grid.
const (
	DefaultFOVDeg    = 92.0
	DefaultSampleRes = 8
)

// phaseOffset aligns the projection's forward direction (+X) with the
// horizontal center of the equirectangular frame. It is a fixed
// protocol constant: changing it rotates the apparent viewing
// direction of every query.
const phaseOffset = 0.75

// Params configures a Resolver. Zero values fall back to the defaults
// above.
type Params struct {
	HorizontalFOVDeg float64
	VerticalFOVDeg   float64
	SampleRes        int
}

func (p Params) withDefaults() Params {
	if p.HorizontalFOVDeg == 0 {
		p.HorizontalFOVDeg = DefaultFOVDeg
	}
	if p.VerticalFOVDeg == 0 {
		p.VerticalFOVDeg = DefaultFOVDeg
	}
	if p.SampleRes == 0 {
		p.SampleRes = DefaultSampleRes
	}
	return p
}

func (p Params) validate() error {
	if p.HorizontalFOVDeg <= 0 || p.HorizontalFOVDeg >= 180 {
		return fmt.Errorf("horizontal FOV must be in (0, 180), got %g", p.HorizontalFOVDeg)
	}
	if p.VerticalFOVDeg <= 0 || p.VerticalFOVDeg >= 180 {
		return fmt.Errorf("vertical FOV must be in (0, 180), got %g", p.VerticalFOVDeg)
	}
	if p.SampleRes < 1 {
		return fmt.Errorf("sample resolution must be >= 1, got %d", p.SampleRes)
	}
	return nil
}

// point is a normalized coordinate in [0,1]x[0,1]: a viewport sample
// before projection, an equirectangular position after.
type point struct {
	x, y float64
}

// column holds the sorted Y boundaries of all tiles sharing one X
// boundary, with the tile index recorded at each.
type column struct {
	ys    []float64
	tiles []int
}

// Resolver answers which tiles of a layout are visible under a given
// head orientation. The tile boundary index and the sample grid are
// built once; a Resolver is read-only afterwards and safe for
// concurrent queries.
type Resolver struct {
	xs       []float64
	cols     []column
	samples  []point
	maxHDist float64
	maxVDist float64
	frameW   int
	frameH   int
	tiles    int
}

// NewResolver builds a resolver for the given tile layout. The layout
// must be non-empty with positive frame dimensions; the boundary index
// assumes a regular grid tiling (two chained nearest-boundary searches
// stand in for true rectangle containment).
func NewResolver(layout *manifest.Layout, p Params) (*Resolver, error) {
	if layout == nil || len(layout.Tiles) == 0 {
		return nil, fmt.Errorf("viewport: layout must contain at least one tile")
	}
	p = p.withDefaults()
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("viewport: %w", err)
	}

	frameW, frameH := layout.FrameSize()
	if frameW <= 0 || frameH <= 0 {
		return nil, fmt.Errorf("viewport: degenerate frame size %dx%d", frameW, frameH)
	}

	// Normalized bottom-right corner of each tile, keyed X then Y.
	// Later tiles sharing a corner overwrite earlier ones, matching
	// declaration-order semantics of the source manifest.
	byX := make(map[float64]map[float64]int)
	for i, t := range layout.Tiles {
		nx := float64(t.X+t.W) / float64(frameW)
		ny := float64(t.Y+t.H) / float64(frameH)
		if byX[nx] == nil {
			byX[nx] = make(map[float64]int)
		}
		byX[nx][ny] = i
	}

	r := &Resolver{
		maxHDist: 2 * math.Tan(p.HorizontalFOVDeg*math.Pi/180/2),
		maxVDist: 2 * math.Tan(p.VerticalFOVDeg*math.Pi/180/2),
		frameW:   frameW,
		frameH:   frameH,
		tiles:    len(layout.Tiles),
	}

	for nx := range byX {
		r.xs = append(r.xs, nx)
	}
	sort.Float64s(r.xs)
	for _, nx := range r.xs {
		var c column
		for ny := range byX[nx] {
			c.ys = append(c.ys, ny)
		}
		sort.Float64s(c.ys)
		for _, ny := range c.ys {
			c.tiles = append(c.tiles, byX[nx][ny])
		}
		r.cols = append(r.cols, c)
	}

	// Uniform sample grid over the viewport, reused by every query.
	res := p.SampleRes
	r.samples = make([]point, 0, (res+1)*(res+1))
	for i := 0; i <= res; i++ {
		for j := 0; j <= res; j++ {
			r.samples = append(r.samples, point{
				x: float64(i) / float64(res),
				y: float64(j) / float64(res),
			})
		}
	}

	return r, nil
}

// SampleCount returns the number of viewport sample points per query.
func (r *Resolver) SampleCount() int {
	return len(r.samples)
}

// TileCount returns the number of tiles in the layout.
func (r *Resolver) TileCount() int {
	return r.tiles
}

// FrameSize returns the full frame dimensions in pixels.
func (r *Resolver) FrameSize() (width, height int) {
	return r.frameW, r.frameH
}

// TileVisibility computes the visibility histogram for the given head
// orientation: a mapping from tile index to the number of viewport
// samples landing in that tile. Counts always sum to SampleCount.
// A sample resolving outside the layout's boundary coverage is a
// layout contract violation and returns an error.
func (r *Resolver) TileVisibility(head orientation.UnitQuaternion) (map[int]int, error) {
	visibility := make(map[int]int)
	for _, s := range r.samples {
		eq := r.toEquirect(head, s)
		tile, err := r.tileAt(eq)
		if err != nil {
			return nil, err
		}
		visibility[tile]++
	}
	return visibility, nil
}

// toEquirect maps one viewport sample, under the given head rotation,
// to a normalized equirectangular coordinate. The sample's offset from
// the viewport center becomes a pinhole viewing ray (forward axis +X),
// which is rotated and converted to spherical angles; the 0.75 phase
// offset then centers the forward direction horizontally.
func (r *Resolver) toEquirect(head orientation.UnitQuaternion, s point) point {
	u := (s.x - 0.5) * r.maxHDist
	v := (0.5 - s.y) * r.maxVDist

	ray := orientation.Vector3{X: 1, Y: u, Z: v}.Normalized()
	sph := head.Rotation(ray).Spherical()

	return point{
		x: 1.0 - math.Mod(phaseOffset+sph.Theta/(2*math.Pi), 1.0),
		y: sph.Phi / math.Pi,
	}
}

// tileAt resolves a normalized equirectangular coordinate to a tile
// index: the tile whose recorded boundary is the smallest value >= the
// query in each axis independently.
func (r *Resolver) tileAt(eq point) (int, error) {
	i := sort.SearchFloat64s(r.xs, eq.x)
	if i == len(r.xs) {
		return 0, fmt.Errorf("viewport: coordinate x=%g outside tile coverage", eq.x)
	}
	c := r.cols[i]
	j := sort.SearchFloat64s(c.ys, eq.y)
	if j == len(c.ys) {
		return 0, fmt.Errorf("viewport: coordinate y=%g outside tile coverage", eq.y)
	}
	return c.tiles[j], nil
}
