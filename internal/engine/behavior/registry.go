package behavior

import (
	"github.com/kamstrup/intmap"

	"github.com/Faultbox/scenekit/internal/engine/entity"
	"github.com/Faultbox/scenekit/pkg/math"
)

// set holds one entity's attached behaviors.
type set struct {
	animation  *Animation
	hover      *Hover
	movement   *Movement
	spin       *Spin
	orbit      *Orbit
	pulse      *Pulse
	colorCycle *ColorCycle
}

// Attached is a copy of an entity's behavior set, one pointer per
// kind, nil when that kind is not attached.
type Attached struct {
	Animation  *Animation
	Hover      *Hover
	Movement   *Movement
	Spin       *Spin
	Orbit      *Orbit
	Pulse      *Pulse
	ColorCycle *ColorCycle
}

// Registry stores behavior attachments keyed by entity id. Entities
// are referenced weakly: behaviors do not keep an entity alive, and
// evaluating an id with no attachments yields a neutral effect.
type Registry struct {
	store *entity.Store
	sets  *intmap.Map[entity.ID, *set]
}

// NewRegistry creates a registry bound to an entity store.
func NewRegistry(store *entity.Store) *Registry {
	return &Registry{
		store: store,
		sets:  intmap.New[entity.ID, *set](64),
	}
}

// ensure verifies the target entity exists before an attach.
func (r *Registry) ensure(id entity.ID) error {
	_, err := r.store.Get(id)
	return err
}

func (r *Registry) setFor(id entity.ID) *set {
	if s, ok := r.sets.Get(id); ok {
		return s
	}
	s := &set{}
	r.sets.Put(id, s)
	return s
}

// SetAnimation attaches or replaces the entity's animation behavior.
func (r *Registry) SetAnimation(id entity.ID, b Animation) error {
	if err := r.ensure(id); err != nil {
		return err
	}
	if err := b.validate(); err != nil {
		return err
	}
	r.setFor(id).animation = &b
	return nil
}

// SetHover attaches or replaces the entity's hover behavior.
func (r *Registry) SetHover(id entity.ID, b Hover) error {
	if err := r.ensure(id); err != nil {
		return err
	}
	if err := b.validate(); err != nil {
		return err
	}
	r.setFor(id).hover = &b
	return nil
}

// SetMovement attaches or replaces the entity's movement behavior.
func (r *Registry) SetMovement(id entity.ID, b Movement) error {
	if err := r.ensure(id); err != nil {
		return err
	}
	if err := b.validate(); err != nil {
		return err
	}
	r.setFor(id).movement = &b
	return nil
}

// SetSpin attaches or replaces the entity's spin behavior.
func (r *Registry) SetSpin(id entity.ID, b Spin) error {
	if err := r.ensure(id); err != nil {
		return err
	}
	if err := b.validate(); err != nil {
		return err
	}
	r.setFor(id).spin = &b
	return nil
}

// SetOrbit attaches or replaces the entity's orbit behavior.
func (r *Registry) SetOrbit(id entity.ID, b Orbit) error {
	if err := r.ensure(id); err != nil {
		return err
	}
	if err := b.validate(); err != nil {
		return err
	}
	r.setFor(id).orbit = &b
	return nil
}

// SetPulse attaches or replaces the entity's pulse behavior.
func (r *Registry) SetPulse(id entity.ID, b Pulse) error {
	if err := r.ensure(id); err != nil {
		return err
	}
	if err := b.validate(); err != nil {
		return err
	}
	r.setFor(id).pulse = &b
	return nil
}

// SetColorCycle attaches or replaces the entity's color cycle behavior.
func (r *Registry) SetColorCycle(id entity.ID, b ColorCycle) error {
	if err := r.ensure(id); err != nil {
		return err
	}
	if err := b.validate(); err != nil {
		return err
	}
	r.setFor(id).colorCycle = &b
	return nil
}

// Detach removes every behavior attached to the entity. Detaching an
// id with no attachments is a no-op.
func (r *Registry) Detach(id entity.ID) {
	r.sets.Del(id)
}

// Active reports whether the entity has at least one enabled behavior.
func (r *Registry) Active(id entity.ID) bool {
	s, ok := r.sets.Get(id)
	if !ok {
		return false
	}
	return s.animation != nil && s.animation.Enabled ||
		s.hover != nil && s.hover.Enabled ||
		s.movement != nil && s.movement.Enabled ||
		s.spin != nil && s.spin.Enabled ||
		s.orbit != nil && s.orbit.Enabled ||
		s.pulse != nil && s.pulse.Enabled ||
		s.colorCycle != nil && s.colorCycle.Enabled
}

// Playback returns the animation flag and rate the external animation
// player consumes. Entities without an animation behavior report
// (false, 0).
func (r *Registry) Playback(id entity.ID) (bool, float64) {
	s, ok := r.sets.Get(id)
	if !ok || s.animation == nil {
		return false, 0
	}
	return s.animation.Enabled, s.animation.Speed
}

// Attached returns a copy of the entity's behavior set. Mutating the
// copy does not affect the registry.
func (r *Registry) Attached(id entity.ID) Attached {
	s, ok := r.sets.Get(id)
	if !ok {
		return Attached{}
	}

	var a Attached
	if s.animation != nil {
		cp := *s.animation
		a.Animation = &cp
	}
	if s.hover != nil {
		cp := *s.hover
		a.Hover = &cp
	}
	if s.movement != nil {
		cp := *s.movement
		a.Movement = &cp
	}
	if s.spin != nil {
		cp := *s.spin
		a.Spin = &cp
	}
	if s.orbit != nil {
		cp := *s.orbit
		a.Orbit = &cp
	}
	if s.pulse != nil {
		cp := *s.pulse
		a.Pulse = &cp
	}
	if s.colorCycle != nil {
		cp := *s.colorCycle
		a.ColorCycle = &cp
	}
	return a
}

// Evaluate computes the entity's combined effect at time t. The bool
// reports whether any enabled behavior contributed; an animation-only
// entity contributes nothing to the transform and reports false.
//
// At most one absolute-position behavior is honored per entity:
// movement takes precedence over orbit. An orbit's facing yaw still
// applies under a movement override.
func (r *Registry) Evaluate(id entity.ID, t float64) (Effect, bool) {
	s, ok := r.sets.Get(id)
	if !ok {
		return Neutral(), false
	}

	eff := Neutral()
	contributed := false

	if s.orbit != nil && s.orbit.Enabled {
		eff.Position = s.orbit.position(t)
		eff.HasPosition = true
		if s.orbit.FaceMotion {
			eff.Yaw = s.orbit.yaw(t)
			eff.HasYaw = true
		}
		contributed = true
	}
	if s.movement != nil && s.movement.Enabled {
		eff.Position = s.movement.position(t)
		eff.HasPosition = true
		contributed = true
	}
	if s.hover != nil && s.hover.Enabled {
		eff.Offset = eff.Offset.Add(math.Vec3{Y: float32(s.hover.offset(t))})
		contributed = true
	}
	if s.spin != nil && s.spin.Enabled {
		eff.YawDelta += s.spin.yawDelta(t)
		contributed = true
	}
	if s.pulse != nil && s.pulse.Enabled {
		eff.ScaleMult = s.pulse.multiplier(t)
		contributed = true
	}
	if s.colorCycle != nil && s.colorCycle.Enabled {
		eff.Tint = s.colorCycle.tint(t)
		eff.HasTint = true
		contributed = true
	}

	return eff, contributed
}
