package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tile describes one spatial tile of the frame: a rectangle in pixel
// units plus the horizontal/vertical tiling multipliers from the source
// manifest (SRD-style). Tiles are indexed by declaration order.
type Tile struct {
	X  int `yaml:"x"`
	Y  int `yaml:"y"`
	W  int `yaml:"w"`
	H  int `yaml:"h"`
	TH int `yaml:"th"`
	TV int `yaml:"tv"`
}

// Layout is the tile layout of one tiled 360° stream, immutable once
// loaded.
type Layout struct {
	Tiles []Tile `yaml:"tiles"`
}

// Load reads a YAML layout file and validates it.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout file: %w", err)
	}

	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Validate checks the layout invariants: at least one tile, positive
// dimensions and multipliers on every tile.
func (l *Layout) Validate() error {
	if len(l.Tiles) == 0 {
		return fmt.Errorf("layout must contain at least one tile")
	}
	for i, t := range l.Tiles {
		if t.W <= 0 || t.H <= 0 {
			return fmt.Errorf("tile %d: width and height must be > 0, got %dx%d", i, t.W, t.H)
		}
		if t.TH <= 0 || t.TV <= 0 {
			return fmt.Errorf("tile %d: tiling multipliers must be > 0, got th=%d tv=%d", i, t.TH, t.TV)
		}
		if t.X < 0 || t.Y < 0 {
			return fmt.Errorf("tile %d: position must be >= 0, got (%d,%d)", i, t.X, t.Y)
		}
	}
	return nil
}

// FrameSize returns the full frame dimensions in pixels, derived from
// the first tile's rectangle and multipliers. Multipliers are assumed
// uniform across tiles; only the first tile's are read.
func (l *Layout) FrameSize() (width, height int) {
	t := l.Tiles[0]
	return t.W * t.TH, t.H * t.TV
}

// Grid builds a regular rows x cols layout covering a frame of the
// given size, tiles declared row-major. Convenience for tests and
// synthetic setups.
func Grid(cols, rows, frameWidth, frameHeight int) *Layout {
	w := frameWidth / cols
	h := frameHeight / rows
	l := &Layout{}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			l.Tiles = append(l.Tiles, Tile{
				X: c * w, Y: r * h, W: w, H: h, TH: cols, TV: rows,
			})
		}
	}
	return l
}
