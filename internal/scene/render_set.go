package scene

import "github.com/san-kum/atmovis/internal/mesh"

// Renderer is the render set the composer adds actors to and removes them
// from.
type Renderer interface {
	AddActor(a *mesh.Actor)
	RemoveActor(a *mesh.Actor)
}

// ActorSet is an insertion-ordered set of actors. Adding a member again or
// removing a non-member is a no-op.
type ActorSet struct {
	actors  []*mesh.Actor
	index   map[*mesh.Actor]int
	version uint64
}

func NewActorSet() *ActorSet {
	return &ActorSet{index: make(map[*mesh.Actor]int)}
}

func (s *ActorSet) AddActor(a *mesh.Actor) {
	if _, ok := s.index[a]; ok {
		return
	}
	s.index[a] = len(s.actors)
	s.actors = append(s.actors, a)
	s.version++
}

func (s *ActorSet) RemoveActor(a *mesh.Actor) {
	i, ok := s.index[a]
	if !ok {
		return
	}
	delete(s.index, a)
	s.actors = append(s.actors[:i], s.actors[i+1:]...)
	for j := i; j < len(s.actors); j++ {
		s.index[s.actors[j]] = j
	}
	s.version++
}

func (s *ActorSet) Contains(a *mesh.Actor) bool {
	_, ok := s.index[a]
	return ok
}

func (s *ActorSet) Len() int { return len(s.actors) }

// Actors returns the members in insertion order. The slice must not be
// modified.
func (s *ActorSet) Actors() []*mesh.Actor { return s.actors }

// Version changes whenever membership changes.
func (s *ActorSet) Version() uint64 { return s.version }
