// Package driver advances a scene frame by frame, applying behavior
// effects on top of each entity's base state.
package driver

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/scenekit/internal/engine/behavior"
	"github.com/Faultbox/scenekit/internal/engine/entity"
	"github.com/Faultbox/scenekit/internal/logger"
)

// ErrStopped is returned for ticks and deferrals after Stop.
var ErrStopped = errors.New("driver stopped")

// State is the driver lifecycle state.
type State uint8

// Lifecycle states. A driver only moves forward through them; Stopped
// is terminal.
const (
	StateUninitialized State = iota
	StateReady
	StateTicking
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateTicking:
		return "ticking"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Config holds driver tuning.
type Config struct {
	// DiagInterval is the accumulated time between diagnostic log
	// lines, in seconds. Zero or negative disables them.
	DiagInterval float64

	// FPS optionally reports the host frame rate for diagnostics.
	FPS func() float64
}

// Driver owns the per-frame pipeline. Each tick flushes deferred
// mutations, then recomputes every entity's evaluated state from its
// base state plus the attached behavior effects. Single writer: the
// host calls Tick from one goroutine, and mid-tick mutations go
// through Defer.
type Driver struct {
	store    *entity.Store
	registry *behavior.Registry
	log      *zap.Logger

	state    State
	initTime float64
	ticked   bool
	now      float64

	deferred []func()

	diagInterval float64
	diagAccum    float64
	fps          func() float64
}

// New creates a driver over a store and its behavior registry.
func New(store *entity.Store, registry *behavior.Registry, cfg Config) *Driver {
	return &Driver{
		store:        store,
		registry:     registry,
		log:          logger.Named("driver"),
		diagInterval: cfg.DiagInterval,
		fps:          cfg.FPS,
	}
}

// Init moves a fresh driver to Ready. Calling it again in any state is
// a no-op. Tick also initializes lazily on its first call.
func (d *Driver) Init() {
	if d.state != StateUninitialized {
		return
	}
	d.state = StateReady
	d.log.Info("driver ready", zap.Int("entities", d.store.Count()))
}

// Tick advances the scene to the host's elapsed time, given in seconds
// together with the delta since the previous frame. Scene time starts
// at the first Tick's elapsed value. On an uninitialized driver the
// first Tick only initializes; evaluation starts with the next one.
// A tick that has started always runs to completion.
func (d *Driver) Tick(elapsed, delta float64) error {
	if d.state == StateStopped {
		return ErrStopped
	}

	if !d.ticked {
		d.initTime = elapsed
		d.ticked = true
	}

	d.flush()

	if d.state == StateUninitialized {
		d.state = StateReady
		d.log.Info("driver ready",
			zap.Int("entities", d.store.Count()),
			zap.Float64("elapsed", elapsed))
		return nil
	}
	d.state = StateTicking

	t := elapsed - d.initTime
	if t < 0 {
		t = 0
	}
	d.now = t

	evaluated := 0
	d.store.Each(func(e *entity.Entity) {
		if d.apply(e, t) {
			evaluated++
		}
	})

	if d.diagInterval > 0 {
		d.diagAccum += delta
		if d.diagAccum >= d.diagInterval {
			d.diagAccum = 0
			fields := []zap.Field{
				zap.Float64("t", t),
				zap.Int("entities", d.store.Count()),
				zap.Int("evaluated", evaluated),
			}
			if d.fps != nil {
				fields = append(fields, zap.Float64("fps", d.fps()))
			}
			d.log.Debug("tick", fields...)
		}
	}

	return nil
}

// apply recomputes one entity's evaluated state for time t. A behavior
// that panics or produces non-finite values leaves the entity at its
// base state, and the tick carries on with the remaining entities.
func (d *Driver) apply(e *entity.Entity, t float64) (evaluated bool) {
	defer func() {
		if r := recover(); r != nil {
			e.ResetEvaluated()
			d.log.Warn("behavior evaluation panicked",
				zap.Uint64("entity", uint64(e.ID)),
				zap.String("name", e.Name),
				zap.Any("panic", r))
			evaluated = false
		}
	}()

	eff, ok := d.registry.Evaluate(e.ID, t)
	if !ok {
		e.ResetEvaluated()
		return false
	}
	if !eff.Finite() {
		e.ResetEvaluated()
		d.log.Warn("discarding non-finite behavior result",
			zap.Uint64("entity", uint64(e.ID)),
			zap.String("name", e.Name),
			zap.Float64("t", t))
		return false
	}

	e.ResetEvaluated()
	if eff.HasPosition {
		e.Position = eff.Position
	}
	e.Position = e.Position.Add(eff.Offset)
	if eff.HasYaw {
		e.Rotation.Y = float32(eff.Yaw)
	}
	e.Rotation.Y += float32(eff.YawDelta)
	e.Scale = e.BaseScale.Scale(float32(eff.ScaleMult))
	if eff.HasTint {
		e.Tint = eff.Tint
	}
	return true
}

// Defer queues fn to run at the start of the next tick, before any
// evaluation. A mutation queued from inside a deferred call lands in
// the tick after that.
func (d *Driver) Defer(fn func()) error {
	if d.state == StateStopped {
		return ErrStopped
	}
	d.deferred = append(d.deferred, fn)
	return nil
}

func (d *Driver) flush() {
	if len(d.deferred) == 0 {
		return
	}
	queue := d.deferred
	d.deferred = nil
	for _, fn := range queue {
		fn()
	}
}

// Stop shuts the driver down and drops any queued mutations. Further
// Tick and Defer calls return ErrStopped.
func (d *Driver) Stop() {
	if d.state == StateStopped {
		return
	}
	d.state = StateStopped
	d.deferred = nil
	d.log.Info("driver stopped", zap.Float64("t", d.now))
}

// State returns the lifecycle state.
func (d *Driver) State() State {
	return d.state
}

// Time returns the scene time of the last evaluated tick, in seconds.
func (d *Driver) Time() float64 {
	return d.now
}

// FPS returns the host frame rate, or 0 when no source is configured.
func (d *Driver) FPS() float64 {
	if d.fps == nil {
		return 0
	}
	return d.fps()
}
