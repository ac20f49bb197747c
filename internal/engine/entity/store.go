package entity

import (
	"fmt"

	"github.com/kamstrup/intmap"

	"github.com/Faultbox/scenekit/internal/assets"
	"github.com/Faultbox/scenekit/pkg/math"
)

// Store owns all scene entities and issues their ids. Ids are handed
// out sequentially from 1 and stay unique for the store's lifetime,
// including across Clear.
type Store struct {
	entities *intmap.Map[ID, *Entity]
	order    []ID // creation order, survives removals of other ids
	nextID   ID
}

// NewStore creates an empty entity store.
func NewStore() *Store {
	return &Store{
		entities: intmap.New[ID, *Entity](64),
		nextID:   1,
	}
}

// Add creates an entity with the given name, asset, position and scale.
// Rotation starts at zero and tint at white.
func (s *Store) Add(name string, ref assets.Ref, pos math.Vec3, scale math.Vec3) (ID, error) {
	if !pos.IsFinite() {
		return 0, fmt.Errorf("%w: position %v", ErrInvalidParameter, pos)
	}
	if !scale.IsFinite() || !scale.AllPositive() {
		return 0, fmt.Errorf("%w: scale %v must be positive", ErrInvalidParameter, scale)
	}

	id := s.nextID
	s.nextID++

	e := &Entity{
		ID:           id,
		Name:         name,
		Asset:        ref,
		BasePosition: pos,
		BaseScale:    scale,
		BaseTint:     math.White,
	}
	e.ResetEvaluated()

	s.entities.Put(id, e)
	s.order = append(s.order, id)

	return id, nil
}

// Remove deletes an entity. The id is never reissued.
func (s *Store) Remove(id ID) error {
	if _, ok := s.entities.Get(id); !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	s.entities.Del(id)

	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the entity with the given id.
func (s *Store) Get(id ID) (*Entity, error) {
	e, ok := s.entities.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return e, nil
}

// Count returns the number of live entities.
func (s *Store) Count() int {
	return len(s.order)
}

// IDs returns the live entity ids in creation order.
func (s *Store) IDs() []ID {
	ids := make([]ID, len(s.order))
	copy(ids, s.order)
	return ids
}

// Each visits every live entity in creation order.
func (s *Store) Each(fn func(*Entity)) {
	for _, id := range s.order {
		if e, ok := s.entities.Get(id); ok {
			fn(e)
		}
	}
}

// Clear removes all entities. The id sequence keeps counting so stale
// ids from before the clear stay stale.
func (s *Store) Clear() {
	s.entities.Clear()
	s.order = nil
}

// SetPosition sets an entity's base position. The evaluated position
// follows immediately so reads between ticks see the new value.
func (s *Store) SetPosition(id ID, pos math.Vec3) error {
	e, err := s.Get(id)
	if err != nil {
		return err
	}
	if !pos.IsFinite() {
		return fmt.Errorf("%w: position %v", ErrInvalidParameter, pos)
	}
	e.BasePosition = pos
	e.Position = pos
	return nil
}

// SetRotation sets an entity's base rotation in Euler degrees.
func (s *Store) SetRotation(id ID, rot math.Vec3) error {
	e, err := s.Get(id)
	if err != nil {
		return err
	}
	if !rot.IsFinite() {
		return fmt.Errorf("%w: rotation %v", ErrInvalidParameter, rot)
	}
	e.BaseRotation = rot
	e.Rotation = rot
	return nil
}

// SetScale sets an entity's base scale. All components must be
// strictly positive.
func (s *Store) SetScale(id ID, scale math.Vec3) error {
	e, err := s.Get(id)
	if err != nil {
		return err
	}
	if !scale.IsFinite() || !scale.AllPositive() {
		return fmt.Errorf("%w: scale %v must be positive", ErrInvalidParameter, scale)
	}
	e.BaseScale = scale
	e.Scale = scale
	return nil
}

// SetTint sets an entity's base color tint. Components must lie in
// [0, 1].
func (s *Store) SetTint(id ID, tint math.RGB) error {
	e, err := s.Get(id)
	if err != nil {
		return err
	}
	if !tint.Valid() {
		return fmt.Errorf("%w: tint %v out of range", ErrInvalidParameter, tint)
	}
	e.BaseTint = tint
	e.Tint = tint
	return nil
}

// Position returns an entity's evaluated position.
func (s *Store) Position(id ID) (math.Vec3, error) {
	e, err := s.Get(id)
	if err != nil {
		return math.Vec3{}, err
	}
	return e.Position, nil
}

// Rotation returns an entity's evaluated rotation.
func (s *Store) Rotation(id ID) (math.Vec3, error) {
	e, err := s.Get(id)
	if err != nil {
		return math.Vec3{}, err
	}
	return e.Rotation, nil
}

// Scale returns an entity's evaluated scale.
func (s *Store) Scale(id ID) (math.Vec3, error) {
	e, err := s.Get(id)
	if err != nil {
		return math.Vec3{}, err
	}
	return e.Scale, nil
}

// Tint returns an entity's evaluated color tint.
func (s *Store) Tint(id ID) (math.RGB, error) {
	e, err := s.Get(id)
	if err != nil {
		return math.RGB{}, err
	}
	return e.Tint, nil
}

// Name returns an entity's display name.
func (s *Store) Name(id ID) (string, error) {
	e, err := s.Get(id)
	if err != nil {
		return "", err
	}
	return e.Name, nil
}
