// Package scene exposes the host-facing API: model management,
// behavior toggles, and the per-frame update entry points.
package scene

import (
	"errors"
	"fmt"

	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/scenekit/internal/assets"
	"github.com/Faultbox/scenekit/internal/engine/behavior"
	"github.com/Faultbox/scenekit/internal/engine/driver"
	"github.com/Faultbox/scenekit/internal/engine/entity"
	"github.com/Faultbox/scenekit/internal/logger"
	"github.com/Faultbox/scenekit/pkg/math"
)

// Config wires a scene's collaborators.
type Config struct {
	// Library resolves model asset paths. Required.
	Library *assets.Library

	// DiagInterval is forwarded to the frame driver, in seconds.
	DiagInterval float64

	// FPS optionally reports the host frame rate.
	FPS func() float64

	// SnapshotAppName names the storage app for saved scenes. Empty
	// disables snapshots.
	SnapshotAppName string
}

// Scene is the world a host script manipulates. All methods are meant
// for a single goroutine; mutations from elsewhere go through Defer.
type Scene struct {
	store    *entity.Store
	registry *behavior.Registry
	driver   *driver.Driver
	library  *assets.Library
	saves    *gdata.Manager
	log      *zap.Logger
}

// New creates an empty scene.
func New(cfg Config) (*Scene, error) {
	if cfg.Library == nil {
		return nil, errors.New("scene: nil asset library")
	}

	store := entity.NewStore()
	registry := behavior.NewRegistry(store)
	s := &Scene{
		store:    store,
		registry: registry,
		library:  cfg.Library,
		log:      logger.Named("scene"),
	}
	s.driver = driver.New(store, registry, driver.Config{
		DiagInterval: cfg.DiagInterval,
		FPS:          cfg.FPS,
	})

	if cfg.SnapshotAppName != "" {
		m, err := gdata.Open(gdata.Config{AppName: cfg.SnapshotAppName})
		if err != nil {
			return nil, fmt.Errorf("open snapshot storage: %w", err)
		}
		s.saves = m
	}

	return s, nil
}

// AddModel resolves the asset at path and places it in the scene with
// a uniform scale. The model's name is the path's file stem.
func (s *Scene) AddModel(path string, pos math.Vec3, scale float64) (entity.ID, error) {
	ref, err := s.library.Resolve(path)
	if err != nil {
		return 0, err
	}

	id, err := s.store.Add(assets.Stem(path), ref, pos, math.Uniform(float32(scale)))
	if err != nil {
		return 0, err
	}

	s.log.Info("loaded model",
		zap.Uint64("id", uint64(id)),
		zap.String("path", path),
		zap.Float64("scale", scale))
	return id, nil
}

// RemoveModel removes the model and detaches its behaviors.
func (s *Scene) RemoveModel(id entity.ID) error {
	if err := s.store.Remove(id); err != nil {
		return err
	}
	s.registry.Detach(id)
	s.log.Info("removed model", zap.Uint64("id", uint64(id)))
	return nil
}

// DuplicateModel clones a model's base state and behaviors into a new
// entity, offset one unit along X so the copy is visible.
func (s *Scene) DuplicateModel(id entity.ID) (entity.ID, error) {
	src, err := s.store.Get(id)
	if err != nil {
		return 0, err
	}

	pos := src.BasePosition
	pos.X += 1
	dup, err := s.store.Add(src.Name, src.Asset, pos, src.BaseScale)
	if err != nil {
		return 0, err
	}
	if err := s.store.SetRotation(dup, src.BaseRotation); err != nil {
		return 0, err
	}
	if err := s.store.SetTint(dup, src.BaseTint); err != nil {
		return 0, err
	}
	if err := s.copyBehaviors(id, dup); err != nil {
		return 0, err
	}

	s.log.Info("duplicated model",
		zap.Uint64("from", uint64(id)),
		zap.Uint64("to", uint64(dup)))
	return dup, nil
}

func (s *Scene) copyBehaviors(from, to entity.ID) error {
	att := s.registry.Attached(from)
	if att.Animation != nil {
		if err := s.registry.SetAnimation(to, *att.Animation); err != nil {
			return err
		}
	}
	if att.Hover != nil {
		if err := s.registry.SetHover(to, *att.Hover); err != nil {
			return err
		}
	}
	if att.Movement != nil {
		if err := s.registry.SetMovement(to, *att.Movement); err != nil {
			return err
		}
	}
	if att.Spin != nil {
		if err := s.registry.SetSpin(to, *att.Spin); err != nil {
			return err
		}
	}
	if att.Orbit != nil {
		if err := s.registry.SetOrbit(to, *att.Orbit); err != nil {
			return err
		}
	}
	if att.Pulse != nil {
		if err := s.registry.SetPulse(to, *att.Pulse); err != nil {
			return err
		}
	}
	if att.ColorCycle != nil {
		if err := s.registry.SetColorCycle(to, *att.ColorCycle); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes every model and its behaviors. Ids handed out before
// the clear stay retired.
func (s *Scene) Clear() {
	for _, id := range s.store.IDs() {
		s.registry.Detach(id)
	}
	s.store.Clear()
	s.log.Info("scene cleared")
}

// SetModelPosition sets the model's base position.
func (s *Scene) SetModelPosition(id entity.ID, pos math.Vec3) error {
	return s.store.SetPosition(id, pos)
}

// ModelPosition returns the model's evaluated position.
func (s *Scene) ModelPosition(id entity.ID) (math.Vec3, error) {
	return s.store.Position(id)
}

// SetModelRotation sets the model's base rotation, Euler degrees per
// axis.
func (s *Scene) SetModelRotation(id entity.ID, rot math.Vec3) error {
	return s.store.SetRotation(id, rot)
}

// ModelRotation returns the model's evaluated rotation.
func (s *Scene) ModelRotation(id entity.ID) (math.Vec3, error) {
	return s.store.Rotation(id)
}

// SetModelScale sets the model's base scale per axis.
func (s *Scene) SetModelScale(id entity.ID, scale math.Vec3) error {
	return s.store.SetScale(id, scale)
}

// ModelScale returns the model's evaluated scale.
func (s *Scene) ModelScale(id entity.ID) (math.Vec3, error) {
	return s.store.Scale(id)
}

// SetModelColorTint sets the model's base tint, RGB in [0, 1].
func (s *Scene) SetModelColorTint(id entity.ID, tint math.RGB) error {
	return s.store.SetTint(id, tint)
}

// ModelColorTint returns the model's evaluated tint.
func (s *Scene) ModelColorTint(id entity.ID) (math.RGB, error) {
	return s.store.Tint(id)
}

// ModelName returns the model's name.
func (s *Scene) ModelName(id entity.ID) (string, error) {
	return s.store.Name(id)
}

// ModelCount returns the number of models in the scene.
func (s *Scene) ModelCount() int {
	return s.store.Count()
}

// ModelIDs returns the ids of all models in creation order.
func (s *Scene) ModelIDs() []entity.ID {
	return s.store.IDs()
}

// EnableModelAnimation toggles clip playback at the given rate. The
// transform is untouched; the external animation player reads the
// flag and rate through ModelPlayback.
func (s *Scene) EnableModelAnimation(id entity.ID, enabled bool, speed float64) error {
	return s.registry.SetAnimation(id, behavior.Animation{Enabled: enabled, Speed: speed})
}

// EnableModelHover attaches a vertical bobbing motion.
func (s *Scene) EnableModelHover(id entity.ID, enabled bool, frequency, amplitude float64) error {
	return s.registry.SetHover(id, behavior.Hover{Enabled: enabled, Frequency: frequency, Amplitude: amplitude})
}

// EnableModelMovement attaches a patrol between start and end.
func (s *Scene) EnableModelMovement(id entity.ID, enabled bool, start, end math.Vec3, speed float64) error {
	return s.registry.SetMovement(id, behavior.Movement{Enabled: enabled, Start: start, End: end, Speed: speed})
}

// EnableModelSpin attaches a constant yaw rotation in degrees per
// second.
func (s *Scene) EnableModelSpin(id entity.ID, enabled bool, degreesPerSec float64) error {
	return s.registry.SetSpin(id, behavior.Spin{Enabled: enabled, DegreesPerSec: degreesPerSec})
}

// EnableModelOrbit attaches a circular path around center at the given
// radius and angular speed in radians per second. With faceMotion the
// model yaws along its direction of travel.
func (s *Scene) EnableModelOrbit(id entity.ID, enabled bool, center math.Vec3, radius, angularSpeed float64, faceMotion bool) error {
	return s.registry.SetOrbit(id, behavior.Orbit{
		Enabled:      enabled,
		Center:       center,
		Radius:       radius,
		AngularSpeed: angularSpeed,
		FaceMotion:   faceMotion,
	})
}

// EnableModelPulse attaches a rhythmic scale throb.
func (s *Scene) EnableModelPulse(id entity.ID, enabled bool, frequency, amplitude float64) error {
	return s.registry.SetPulse(id, behavior.Pulse{Enabled: enabled, Frequency: frequency, Amplitude: amplitude})
}

// EnableModelColorCycle attaches a rainbow tint sweep.
func (s *Scene) EnableModelColorCycle(id entity.ID, enabled bool, speed, floor float64) error {
	return s.registry.SetColorCycle(id, behavior.ColorCycle{Enabled: enabled, Speed: speed, Floor: floor})
}

// ModelPlayback returns the animation flag and rate the external
// player consumes.
func (s *Scene) ModelPlayback(id entity.ID) (bool, float64, error) {
	if _, err := s.store.Get(id); err != nil {
		return false, 0, err
	}
	enabled, speed := s.registry.Playback(id)
	return enabled, speed, nil
}

// Init readies the frame driver. Calling it again is a no-op.
func (s *Scene) Init() {
	s.driver.Init()
}

// Update advances the scene; the host calls it once per frame with
// elapsed and delta seconds. The first call on an uninitialized scene
// only initializes.
func (s *Scene) Update(elapsed, delta float64) error {
	return s.driver.Tick(elapsed, delta)
}

// Defer queues a scene mutation for the start of the next update.
func (s *Scene) Defer(fn func(*Scene)) error {
	return s.driver.Defer(func() { fn(s) })
}

// Stop shuts the scene down. Further updates fail with
// driver.ErrStopped.
func (s *Scene) Stop() {
	s.driver.Stop()
}

// Time returns the scene time of the last update, in seconds.
func (s *Scene) Time() float64 {
	return s.driver.Time()
}

// FPS returns the host frame rate, or 0 without a source.
func (s *Scene) FPS() float64 {
	return s.driver.FPS()
}
