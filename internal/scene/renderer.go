package scene

import (
	"context"
	"sync"
	"time"
)

// DefaultFPS is the animation loop rate when none is configured.
const DefaultFPS = 60

// Renderer drives the animation loop and turns scene state into snapshots.
// It does not rasterise; viewers subscribe and draw the snapshots.
type Renderer struct {
	mu      sync.Mutex
	width   int
	height  int
	fps     int
	loop    func()
	frame   uint64
	last    *Snapshot
	subs    map[int]chan Snapshot
	nextSub int
}

// NewRenderer creates a renderer with the given output size and loop rate.
func NewRenderer(width, height, fps int) *Renderer {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Renderer{
		width:  width,
		height: height,
		fps:    fps,
		subs:   make(map[int]chan Snapshot),
	}
}

// SetSize sets the output surface size.
func (r *Renderer) SetSize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width = width
	r.height = height
}

// Size returns the output surface size.
func (r *Renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// SetAnimationLoop installs the per-tick callback. Nil pauses the loop.
func (r *Renderer) SetAnimationLoop(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loop = fn
}

// Run calls the animation loop once per tick until ctx is done.
func (r *Renderer) Run(ctx context.Context) error {
	r.mu.Lock()
	interval := time.Second / time.Duration(r.fps)
	r.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.mu.Lock()
			loop := r.loop
			r.mu.Unlock()

			if loop != nil {
				loop()
			}
		}
	}
}

// Render captures the scene as seen by camera and publishes the snapshot.
func (r *Renderer) Render(s *Scene, camera *PerspectiveCamera) Snapshot {
	objects := s.Objects()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.frame++
	snap := newSnapshot(r.frame, r.width, r.height, camera, objects)
	r.last = &snap

	for _, ch := range r.subs {
		publish(ch, snap)
	}
	return snap
}

// Last returns the most recent snapshot.
func (r *Renderer) Last() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return Snapshot{}, false
	}
	return *r.last, true
}

// Frames returns the number of rendered frames.
func (r *Renderer) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

// Subscribe returns a channel that always holds the latest snapshot.
// Slow subscribers skip frames rather than block the loop.
// Call the returned function to unsubscribe.
func (r *Renderer) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	if r.last != nil {
		ch <- *r.last
	}
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}

// publish replaces any unread snapshot with snap.
func publish(ch chan Snapshot, snap Snapshot) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
