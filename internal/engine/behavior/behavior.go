// Package behavior implements the time-driven behaviors that animate
// scene entities.
//
// A behavior is a pure function of elapsed time. Attaching one stores
// parameters only; Evaluate derives a frame effect from those
// parameters and the given instant, so identical inputs always yield
// identical output.
package behavior

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/scenekit/internal/engine/entity"
	"github.com/Faultbox/scenekit/pkg/math"
)

// Kind identifies a behavior slot. An entity carries at most one
// behavior of each kind.
type Kind uint8

// Behavior kinds.
const (
	KindAnimation Kind = iota
	KindHover
	KindMovement
	KindSpin
	KindOrbit
	KindPulse
	KindColorCycle
)

// String returns the behavior kind name.
func (k Kind) String() string {
	switch k {
	case KindAnimation:
		return "animation"
	case KindHover:
		return "hover"
	case KindMovement:
		return "movement"
	case KindSpin:
		return "spin"
	case KindOrbit:
		return "orbit"
	case KindPulse:
		return "pulse"
	case KindColorCycle:
		return "colorcycle"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Animation toggles playback of an entity's animation clip and sets
// its rate. The clip itself plays in the external animation player;
// this behavior never affects the transform.
type Animation struct {
	Enabled bool
	Speed   float64 // playback rate, frames per second equivalent
}

func (a Animation) validate() error {
	if !isFinite(a.Speed) || a.Speed < 0 {
		return fmt.Errorf("%w: animation speed %v", entity.ErrInvalidParameter, a.Speed)
	}
	return nil
}

// Hover bobs an entity vertically around its base height.
type Hover struct {
	Enabled   bool
	Frequency float64 // full oscillations per second
	Amplitude float64 // peak offset in world units
}

func (h Hover) validate() error {
	if !isFinite(h.Frequency) || h.Frequency <= 0 {
		return fmt.Errorf("%w: hover frequency %v", entity.ErrInvalidParameter, h.Frequency)
	}
	if !isFinite(h.Amplitude) || h.Amplitude < 0 {
		return fmt.Errorf("%w: hover amplitude %v", entity.ErrInvalidParameter, h.Amplitude)
	}
	return nil
}

// offset returns the vertical displacement at time t.
func (h Hover) offset(t float64) float64 {
	return h.Amplitude * gomath.Sin(2*gomath.Pi*h.Frequency*t)
}

// Movement glides an entity back and forth between two points. The
// cosine ease keeps both position and velocity continuous through the
// turn-arounds.
type Movement struct {
	Enabled bool
	Start   math.Vec3
	End     math.Vec3
	Speed   float64 // legs per second: one start-to-end leg takes 1/Speed
}

func (m Movement) validate() error {
	if !m.Start.IsFinite() || !m.End.IsFinite() {
		return fmt.Errorf("%w: movement endpoints %v -> %v", entity.ErrInvalidParameter, m.Start, m.End)
	}
	if !isFinite(m.Speed) || m.Speed <= 0 {
		return fmt.Errorf("%w: movement speed %v", entity.ErrInvalidParameter, m.Speed)
	}
	return nil
}

// position returns the absolute position at time t. The phase sweeps
// 0 → 1 → 0 over a full cycle of 2/Speed seconds.
func (m Movement) position(t float64) math.Vec3 {
	phase := (1 - gomath.Cos(gomath.Pi*m.Speed*t)) / 2
	return m.Start.Lerp(m.End, float32(phase))
}

// Spin yaws an entity at a constant rate. Negative rates spin the
// other way.
type Spin struct {
	Enabled       bool
	DegreesPerSec float64
}

func (s Spin) validate() error {
	if !isFinite(s.DegreesPerSec) {
		return fmt.Errorf("%w: spin rate %v", entity.ErrInvalidParameter, s.DegreesPerSec)
	}
	return nil
}

// yawDelta returns the accumulated yaw at time t, normalized to
// [0, 360).
func (s Spin) yawDelta(t float64) float64 {
	return normalizeDeg(s.DegreesPerSec * t)
}

// Orbit circles an entity around a fixed center in the XZ plane.
type Orbit struct {
	Enabled      bool
	Center       math.Vec3
	Radius       float64
	AngularSpeed float64 // radians per second
	FaceMotion   bool    // yaw the entity along its direction of travel
}

func (o Orbit) validate() error {
	if !o.Center.IsFinite() {
		return fmt.Errorf("%w: orbit center %v", entity.ErrInvalidParameter, o.Center)
	}
	if !isFinite(o.Radius) || o.Radius < 0 {
		return fmt.Errorf("%w: orbit radius %v", entity.ErrInvalidParameter, o.Radius)
	}
	if !isFinite(o.AngularSpeed) {
		return fmt.Errorf("%w: orbit angular speed %v", entity.ErrInvalidParameter, o.AngularSpeed)
	}
	return nil
}

// position returns the absolute position on the orbit at time t.
func (o Orbit) position(t float64) math.Vec3 {
	angle := o.AngularSpeed * t
	return o.Center.Add(math.Vec3{
		X: float32(gomath.Cos(angle) * o.Radius),
		Y: 0,
		Z: float32(gomath.Sin(angle) * o.Radius),
	})
}

// yaw returns the travel-facing yaw at time t in degrees.
func (o Orbit) yaw(t float64) float64 {
	return normalizeDeg(o.AngularSpeed*t*180/gomath.Pi + 90)
}

// Pulse scales an entity rhythmically around its base scale.
// Amplitude below 1 keeps the result strictly positive.
type Pulse struct {
	Enabled   bool
	Frequency float64 // full oscillations per second
	Amplitude float64 // fraction of base scale, in [0, 1)
}

func (p Pulse) validate() error {
	if !isFinite(p.Frequency) || p.Frequency <= 0 {
		return fmt.Errorf("%w: pulse frequency %v", entity.ErrInvalidParameter, p.Frequency)
	}
	if !isFinite(p.Amplitude) || p.Amplitude < 0 || p.Amplitude >= 1 {
		return fmt.Errorf("%w: pulse amplitude %v outside [0, 1)", entity.ErrInvalidParameter, p.Amplitude)
	}
	return nil
}

// multiplier returns the uniform scale factor at time t.
func (p Pulse) multiplier(t float64) float64 {
	return 1 + p.Amplitude*gomath.Sin(2*gomath.Pi*p.Frequency*t)
}

// ColorCycle sweeps an entity's tint through the spectrum. Floor lifts
// the minimum channel value so the tint never goes fully dark.
type ColorCycle struct {
	Enabled bool
	Speed   float64 // radians per second through the cycle
	Floor   float64 // minimum channel value, in [0, 1)
}

// colorPhases staggers the three channels so they peak in sequence.
var colorPhases = [3]float64{0, 2, 4}

func (c ColorCycle) validate() error {
	if !isFinite(c.Speed) || c.Speed <= 0 {
		return fmt.Errorf("%w: colorcycle speed %v", entity.ErrInvalidParameter, c.Speed)
	}
	if !isFinite(c.Floor) || c.Floor < 0 || c.Floor >= 1 {
		return fmt.Errorf("%w: colorcycle floor %v outside [0, 1)", entity.ErrInvalidParameter, c.Floor)
	}
	return nil
}

// tint returns the cycling color at time t. Each channel stays within
// [Floor, 1].
func (c ColorCycle) tint(t float64) math.RGB {
	channel := func(phase float64) float32 {
		s := (gomath.Sin(c.Speed*t+phase) + 1) / 2
		return float32(c.Floor + (1-c.Floor)*s)
	}
	return math.RGB{
		R: channel(colorPhases[0]),
		G: channel(colorPhases[1]),
		B: channel(colorPhases[2]),
	}
}

// Effect is the combined contribution of one entity's behaviors at a
// single instant. When HasPosition is set the base position is
// replaced before Offset is added; YawDelta applies on top of the base
// yaw or the Yaw override.
type Effect struct {
	Position    math.Vec3
	HasPosition bool
	Offset      math.Vec3
	Yaw         float64
	HasYaw      bool
	YawDelta    float64
	ScaleMult   float64
	Tint        math.RGB
	HasTint     bool
}

// Neutral returns the effect that leaves an entity at its base state.
func Neutral() Effect {
	return Effect{ScaleMult: 1}
}

// Finite reports whether every numeric field holds a usable value.
// Parameters that pass validation individually can still overflow
// float32 during composition; callers drop such effects instead of
// committing them.
func (e Effect) Finite() bool {
	if !e.Position.IsFinite() || !e.Offset.IsFinite() {
		return false
	}
	for _, v := range []float64{e.Yaw, e.YawDelta, e.ScaleMult, float64(e.Tint.R), float64(e.Tint.G), float64(e.Tint.B)} {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

// normalizeDeg wraps an angle in degrees into [0, 360).
func normalizeDeg(deg float64) float64 {
	d := gomath.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

func isFinite(v float64) bool {
	return !gomath.IsNaN(v) && !gomath.IsInf(v, 0)
}
