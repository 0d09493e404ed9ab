package ecs

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// PtrComponentStore is a generic typed store that iterates in insertion
// order. Simulation code walks these stores every tick, so iteration order
// must be identical across runs of the same input.
type PtrComponentStore[T any] struct {
	data  map[EntityID]*T
	order []EntityID
	dirty bool // order holds removed ids awaiting compaction
}

func NewPtrComponentStore[T any]() *PtrComponentStore[T] {
	return &PtrComponentStore[T]{
		data:  make(map[EntityID]*T, 256),
		order: make([]EntityID, 0, 256),
	}
}

func (s *PtrComponentStore[T]) Set(id EntityID, c *T) {
	if _, ok := s.data[id]; !ok {
		s.order = append(s.order, id)
	}
	s.data[id] = c
}

func (s *PtrComponentStore[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *PtrComponentStore[T]) Remove(id EntityID) {
	if _, ok := s.data[id]; !ok {
		return
	}
	delete(s.data, id)
	s.dirty = true
}

func (s *PtrComponentStore[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *PtrComponentStore[T]) Len() int {
	return len(s.data)
}

// Each visits components in insertion order. fn may Set new components;
// they are visited only by later calls.
func (s *PtrComponentStore[T]) Each(fn func(EntityID, *T)) {
	s.compact()
	n := len(s.order)
	for i := 0; i < n; i++ {
		id := s.order[i]
		if c, ok := s.data[id]; ok {
			fn(id, c)
		}
	}
}

func (s *PtrComponentStore[T]) compact() {
	if !s.dirty {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.data[id]; ok {
			kept = append(kept, id)
		}
	}
	s.order = kept
	s.dirty = false
}
