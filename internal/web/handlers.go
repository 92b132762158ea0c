package web

import (
	"context"
	"encoding/json"
	"io/fs"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/acahuzac/tilevis/internal/logic/orientation"
	"github.com/acahuzac/tilevis/internal/logic/viewport"
)

// OrientationRequest is the body of POST /visibility: either raw
// quaternion components or Euler angles in degrees. When all four
// quaternion components are zero, the Euler fields are used.
type OrientationRequest struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	YawDeg   float64 `json:"yaw_deg"`
	PitchDeg float64 `json:"pitch_deg"`
	RollDeg  float64 `json:"roll_deg"`
}

// UnitQuaternion converts the request to a head orientation.
func (o OrientationRequest) UnitQuaternion() (orientation.UnitQuaternion, error) {
	if o.W == 0 && o.X == 0 && o.Y == 0 && o.Z == 0 {
		const degToRad = math.Pi / 180
		return orientation.FromEuler(o.YawDeg*degToRad, o.PitchDeg*degToRad, o.RollDeg*degToRad), nil
	}
	return orientation.NewComponents(o.W, o.X, o.Y, o.Z).Normalized()
}

// InfoResponse describes the loaded layout and projection for GET /config.
type InfoResponse struct {
	Tiles            int     `json:"tiles"`
	FrameWidth       int     `json:"frame_width"`
	FrameHeight      int     `json:"frame_height"`
	HorizontalFOVDeg float64 `json:"horizontal_fov_deg"`
	VerticalFOVDeg   float64 `json:"vertical_fov_deg"`
	SamplePoints     int     `json:"sample_points"`
}

// RunReplayFunc runs a trace replay. It is called from the POST /replay
// handler in a goroutine.
type RunReplayFunc func(ctx context.Context) error

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Resolver    *viewport.Resolver
	RunReplay   RunReplayFunc
	Info        InfoResponse
	runningMu   sync.Mutex
	running     bool
	staticFS    fs.FS
}

// NewHandlers creates handlers with the given dependencies.
// If runReplay is nil, POST /replay will return 503 Service Unavailable.
func NewHandlers(broadcaster *StatusBroadcaster, resolver *viewport.Resolver, runReplay RunReplayFunc, info InfoResponse, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Resolver:    resolver,
		RunReplay:   runReplay,
		Info:        info,
		staticFS:    staticFS,
	}
}

// HandleInfo returns the layout and projection summary as JSON.
func (h *Handlers) HandleInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Info)
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleVisibility handles POST /visibility: one orientation in, one
// visibility histogram out.
func (h *Handlers) HandleVisibility(w http.ResponseWriter, r *http.Request) {
	if h.Resolver == nil {
		http.Error(w, "no layout loaded", http.StatusServiceUnavailable)
		return
	}

	var req OrientationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	head, err := req.UnitQuaternion()
	if err != nil {
		http.Error(w, "invalid orientation: "+err.Error(), http.StatusBadRequest)
		return
	}

	visibility, err := h.Resolver.TileVisibility(head)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"visibility": visibility})
}

// HandleReplay handles POST /replay to start a trace replay.
func (h *Handlers) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if h.RunReplay == nil {
		http.Error(w, "replay not configured", http.StatusServiceUnavailable)
		return
	}

	h.runningMu.Lock()
	if h.running {
		h.runningMu.Unlock()
		http.Error(w, "replay already in progress", http.StatusConflict)
		return
	}
	h.running = true
	h.runningMu.Unlock()

	// Run in goroutine; clear running when done
	go func() {
		defer func() {
			h.runningMu.Lock()
			h.running = false
			h.runningMu.Unlock()
		}()

		ctx := context.Background()
		if err := h.RunReplay(ctx); err != nil {
			h.Broadcaster.Broadcast("error", "Replay failed: "+err.Error())
			log.Printf("replay failed: %v", err)
		} else {
			h.Broadcaster.Broadcast("info", "Replay complete")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
