package scene

import "sync"

// Scene is the root of the object graph. Membership changes are
// goroutine-safe; object fields are not (see package doc).
type Scene struct {
	mu       sync.RWMutex
	children []*Object
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

// Add attaches objects. Objects already attached are left in place.
func (s *Scene) Add(objs ...*Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range objs {
		if o != nil && s.indexLocked(o) < 0 {
			s.children = append(s.children, o)
		}
	}
}

// Remove detaches objects. Returns true if any was attached.
func (s *Scene) Remove(objs ...*Object) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := false
	for _, o := range objs {
		if s.removeLocked(o) {
			removed = true
		}
	}
	return removed
}

// Swap detaches out and attaches in as one step, so no reader observes
// both or neither.
func (s *Scene) Swap(out, in *Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(out)
	if in != nil && s.indexLocked(in) < 0 {
		s.children = append(s.children, in)
	}
}

// Contains reports whether o is attached.
func (s *Scene) Contains(o *Object) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(o) >= 0
}

// FindByName returns the attached objects with the given name.
func (s *Scene) FindByName(name string) []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Object
	for _, o := range s.children {
		if o.Name == name {
			out = append(out, o)
		}
	}
	return out
}

// Objects returns the attached objects in insertion order.
func (s *Scene) Objects() []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Object, len(s.children))
	copy(out, s.children)
	return out
}

// Len returns the number of attached objects.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.children)
}

func (s *Scene) indexLocked(o *Object) int {
	for i, c := range s.children {
		if c == o {
			return i
		}
	}
	return -1
}

func (s *Scene) removeLocked(o *Object) bool {
	i := s.indexLocked(o)
	if i < 0 {
		return false
	}
	s.children = append(s.children[:i], s.children[i+1:]...)
	return true
}
