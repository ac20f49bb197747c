package scene

import (
	"fmt"
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenekit/internal/assets"
	"github.com/Faultbox/scenekit/internal/engine/driver"
	"github.com/Faultbox/scenekit/internal/engine/entity"
	"github.com/Faultbox/scenekit/pkg/math"
)

// stubLoader serves canned model metadata without touching disk.
type stubLoader struct {
	models map[string]*assets.Model
}

func (l *stubLoader) LoadModel(path string) (*assets.Model, error) {
	m, ok := l.models[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", assets.ErrNotFound, path)
	}
	return m, nil
}

func newStubLoader() *stubLoader {
	return &stubLoader{models: map[string]*assets.Model{
		"models/duck.glb":    {Path: "models/duck.glb", Meshes: 1, Animations: []string{"Idle", "Walk"}},
		"models/avocado.glb": {Path: "models/avocado.glb", Meshes: 1},
	}}
}

func newTestScene(t *testing.T) *Scene {
	t.Helper()
	s, err := New(Config{Library: assets.NewLibrary(newStubLoader())})
	require.NoError(t, err)
	return s
}

func TestNewRequiresLibrary(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestAddModel(t *testing.T) {
	s := newTestScene(t)

	id, err := s.AddModel("models/duck.glb", math.Vec3{X: 1, Y: 2, Z: 3}, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 1, s.ModelCount())
	assert.Equal(t, []entity.ID{id}, s.ModelIDs())

	name, err := s.ModelName(id)
	require.NoError(t, err)
	assert.Equal(t, "duck", name)

	pos, err := s.ModelPosition(id)
	require.NoError(t, err)
	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: 3}, pos)

	rot, err := s.ModelRotation(id)
	require.NoError(t, err)
	assert.Equal(t, math.Vec3{}, rot)

	scale, err := s.ModelScale(id)
	require.NoError(t, err)
	assert.Equal(t, math.Uniform(1.5), scale)

	tint, err := s.ModelColorTint(id)
	require.NoError(t, err)
	assert.Equal(t, math.White, tint)

	enabled, speed, err := s.ModelPlayback(id)
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.Zero(t, speed)
}

func TestAddModelErrors(t *testing.T) {
	s := newTestScene(t)

	_, err := s.AddModel("models/missing.glb", math.Vec3{}, 1)
	assert.ErrorIs(t, err, assets.ErrNotFound)

	_, err = s.AddModel("", math.Vec3{}, 1)
	assert.ErrorIs(t, err, assets.ErrNotFound)

	_, err = s.AddModel("models/duck.glb", math.Vec3{}, 0)
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)

	_, err = s.AddModel("models/duck.glb", math.Vec3{}, -1)
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)

	assert.Equal(t, 0, s.ModelCount())
}

func TestSettersAndGetters(t *testing.T) {
	s := newTestScene(t)
	id, err := s.AddModel("models/duck.glb", math.Vec3{}, 1)
	require.NoError(t, err)

	require.NoError(t, s.SetModelPosition(id, math.Vec3{X: 4, Y: 5, Z: 6}))
	require.NoError(t, s.SetModelRotation(id, math.Vec3{Y: 90}))
	require.NoError(t, s.SetModelScale(id, math.Vec3{X: 2, Y: 3, Z: 4}))
	require.NoError(t, s.SetModelColorTint(id, math.RGB{R: 0.5, G: 0.25, B: 1}))

	pos, err := s.ModelPosition(id)
	require.NoError(t, err)
	assert.Equal(t, math.Vec3{X: 4, Y: 5, Z: 6}, pos)

	rot, err := s.ModelRotation(id)
	require.NoError(t, err)
	assert.Equal(t, math.Vec3{Y: 90}, rot)

	scale, err := s.ModelScale(id)
	require.NoError(t, err)
	assert.Equal(t, math.Vec3{X: 2, Y: 3, Z: 4}, scale)

	tint, err := s.ModelColorTint(id)
	require.NoError(t, err)
	assert.Equal(t, math.RGB{R: 0.5, G: 0.25, B: 1}, tint)
}

func TestOperationsOnRemovedModel(t *testing.T) {
	s := newTestScene(t)

	id, err := s.AddModel("models/duck.glb", math.Vec3{}, 1)
	require.NoError(t, err)
	keep, err := s.AddModel("models/avocado.glb", math.Vec3{X: 3}, 0.1)
	require.NoError(t, err)

	require.NoError(t, s.EnableModelHover(id, true, 2, 0.3))
	require.NoError(t, s.RemoveModel(id))
	assert.Equal(t, 1, s.ModelCount())

	att := s.registry.Attached(id)
	assert.Nil(t, att.Hover)

	ops := map[string]func() error{
		"set position": func() error { return s.SetModelPosition(id, math.Vec3{X: 1}) },
		"set rotation": func() error { return s.SetModelRotation(id, math.Vec3{Y: 1}) },
		"set scale":    func() error { return s.SetModelScale(id, math.Uniform(1)) },
		"set tint":     func() error { return s.SetModelColorTint(id, math.RGB{R: 1}) },
		"position":     func() error { _, err := s.ModelPosition(id); return err },
		"rotation":     func() error { _, err := s.ModelRotation(id); return err },
		"scale":        func() error { _, err := s.ModelScale(id); return err },
		"tint":         func() error { _, err := s.ModelColorTint(id); return err },
		"name":         func() error { _, err := s.ModelName(id); return err },
		"playback":     func() error { _, _, err := s.ModelPlayback(id); return err },
		"animation":    func() error { return s.EnableModelAnimation(id, true, 30) },
		"hover":        func() error { return s.EnableModelHover(id, true, 2, 0.3) },
		"movement": func() error {
			return s.EnableModelMovement(id, true, math.Vec3{}, math.Vec3{X: 1}, 0.5)
		},
		"spin":        func() error { return s.EnableModelSpin(id, true, 30) },
		"orbit":       func() error { return s.EnableModelOrbit(id, true, math.Vec3{}, 4, 0.3, false) },
		"pulse":       func() error { return s.EnableModelPulse(id, true, 1, 0.25) },
		"color cycle": func() error { return s.EnableModelColorCycle(id, true, 0.5, 0.5) },
		"duplicate":   func() error { _, err := s.DuplicateModel(id); return err },
		"remove":      func() error { return s.RemoveModel(id) },
	}
	for name, op := range ops {
		assert.ErrorIs(t, op(), entity.ErrNotFound, name)
	}

	// The surviving model keeps working.
	name, err := s.ModelName(keep)
	require.NoError(t, err)
	assert.Equal(t, "avocado", name)
}

func TestDuplicateModel(t *testing.T) {
	s := newTestScene(t)

	id, err := s.AddModel("models/duck.glb", math.Vec3{X: 2}, 1)
	require.NoError(t, err)
	require.NoError(t, s.SetModelRotation(id, math.Vec3{Y: 45}))
	require.NoError(t, s.SetModelColorTint(id, math.RGB{R: 1, G: 1, B: 0.8}))
	require.NoError(t, s.EnableModelAnimation(id, true, 30))
	require.NoError(t, s.EnableModelHover(id, true, 2, 0.3))

	dup, err := s.DuplicateModel(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, dup)
	assert.Equal(t, 2, s.ModelCount())

	name, err := s.ModelName(dup)
	require.NoError(t, err)
	assert.Equal(t, "duck", name)

	pos, err := s.ModelPosition(dup)
	require.NoError(t, err)
	assert.Equal(t, math.Vec3{X: 3}, pos)

	rot, err := s.ModelRotation(dup)
	require.NoError(t, err)
	assert.Equal(t, math.Vec3{Y: 45}, rot)

	tint, err := s.ModelColorTint(dup)
	require.NoError(t, err)
	assert.Equal(t, math.RGB{R: 1, G: 1, B: 0.8}, tint)

	enabled, speed, err := s.ModelPlayback(dup)
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, 30.0, speed)

	// Behaviors are copies: retuning the source leaves the duplicate on
	// its original parameters.
	require.NoError(t, s.EnableModelHover(id, true, 4, 0.1))

	s.Init()
	require.NoError(t, s.Update(0, 0))
	require.NoError(t, s.Update(0.125, 0.125))

	srcPos, err := s.ModelPosition(id)
	require.NoError(t, err)
	assert.InDelta(t, 0.1*gomath.Sin(gomath.Pi), float64(srcPos.Y), 1e-6)

	dupPos, err := s.ModelPosition(dup)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, float64(dupPos.Y), 1e-6)
}

func TestEnableBehaviorValidation(t *testing.T) {
	s := newTestScene(t)
	id, err := s.AddModel("models/duck.glb", math.Vec3{}, 1)
	require.NoError(t, err)

	require.NoError(t, s.EnableModelHover(id, true, 2, 0.3))

	assert.ErrorIs(t, s.EnableModelHover(id, true, 0, 0.3), entity.ErrInvalidParameter)
	assert.ErrorIs(t, s.EnableModelAnimation(id, true, -1), entity.ErrInvalidParameter)
	assert.ErrorIs(t, s.EnableModelMovement(id, true, math.Vec3{}, math.Vec3{X: 1}, 0), entity.ErrInvalidParameter)
	assert.ErrorIs(t, s.EnableModelOrbit(id, true, math.Vec3{}, -1, 0.3, false), entity.ErrInvalidParameter)
	assert.ErrorIs(t, s.EnableModelPulse(id, true, 1, 1.5), entity.ErrInvalidParameter)
	assert.ErrorIs(t, s.EnableModelColorCycle(id, true, 0.5, 1), entity.ErrInvalidParameter)

	// The rejected hover left the previous parameters in place.
	att := s.registry.Attached(id)
	require.NotNil(t, att.Hover)
	assert.Equal(t, 2.0, att.Hover.Frequency)
	assert.Equal(t, 0.3, att.Hover.Amplitude)
}

func TestClearScene(t *testing.T) {
	s := newTestScene(t)

	first, err := s.AddModel("models/duck.glb", math.Vec3{}, 1)
	require.NoError(t, err)
	second, err := s.AddModel("models/avocado.glb", math.Vec3{X: 3}, 0.1)
	require.NoError(t, err)
	require.NoError(t, s.EnableModelSpin(first, true, 30))

	s.Clear()
	assert.Equal(t, 0, s.ModelCount())
	assert.Empty(t, s.ModelIDs())

	_, err = s.ModelName(first)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	_, err = s.ModelName(second)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.Nil(t, s.registry.Attached(first).Spin)

	// Ids keep counting after a clear.
	next, err := s.AddModel("models/duck.glb", math.Vec3{}, 1)
	require.NoError(t, err)
	assert.Greater(t, next, second)
}

func TestUpdateLifecycle(t *testing.T) {
	s := newTestScene(t)
	id, err := s.AddModel("models/duck.glb", math.Vec3{}, 1)
	require.NoError(t, err)
	require.NoError(t, s.EnableModelHover(id, true, 2, 0.3))

	// The first update on an uninitialized scene only initializes.
	require.NoError(t, s.Update(1.0, 0))
	pos, err := s.ModelPosition(id)
	require.NoError(t, err)
	assert.Equal(t, math.Vec3{}, pos)

	require.NoError(t, s.Update(1.125, 0.125))
	pos, err = s.ModelPosition(id)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, float64(pos.Y), 1e-6)
	assert.InDelta(t, 0.125, s.Time(), 1e-9)

	s.Stop()
	assert.ErrorIs(t, s.Update(1.25, 0.125), driver.ErrStopped)
	assert.ErrorIs(t, s.Defer(func(*Scene) {}), driver.ErrStopped)
}

func TestDeferredSceneMutation(t *testing.T) {
	s := newTestScene(t)
	s.Init()
	require.NoError(t, s.Update(0, 0))

	var added entity.ID
	require.NoError(t, s.Defer(func(sc *Scene) {
		id, err := sc.AddModel("models/duck.glb", math.Vec3{X: 1}, 1)
		require.NoError(t, err)
		added = id
	}))
	assert.Equal(t, 0, s.ModelCount())

	require.NoError(t, s.Update(0.5, 0.5))
	assert.Equal(t, 1, s.ModelCount())

	name, err := s.ModelName(added)
	require.NoError(t, err)
	assert.Equal(t, "duck", name)
}

// TestFourModelDemoScene drives a populated scene for one simulated
// second and checks each model against its behavior stack.
func TestFourModelDemoScene(t *testing.T) {
	s := newTestScene(t)

	duck, err := s.AddModel("models/duck.glb", math.Vec3{}, 1)
	require.NoError(t, err)
	require.NoError(t, s.SetModelColorTint(duck, math.RGB{R: 1, G: 1, B: 0.8}))
	require.NoError(t, s.EnableModelAnimation(duck, true, 30))
	require.NoError(t, s.EnableModelSpin(duck, true, 30))
	require.NoError(t, s.EnableModelColorCycle(duck, true, 0.5, 0.5))

	avocado, err := s.AddModel("models/avocado.glb", math.Vec3{X: 3}, 0.1)
	require.NoError(t, err)
	require.NoError(t, s.SetModelColorTint(avocado, math.RGB{R: 0.8, G: 1, B: 0.8}))
	require.NoError(t, s.EnableModelHover(avocado, true, 2, 0.3))
	require.NoError(t, s.EnableModelOrbit(avocado, true, math.Vec3{}, 4, 0.3, true))

	walker, err := s.AddModel("models/duck.glb", math.Vec3{X: -3}, 0.8)
	require.NoError(t, err)
	require.NoError(t, s.SetModelColorTint(walker, math.RGB{R: 0.8, G: 0.8, B: 1}))
	require.NoError(t, s.EnableModelMovement(walker, true, math.Vec3{X: -3}, math.Vec3{X: -3, Z: -5}, 0.8))
	require.NoError(t, s.EnableModelPulse(walker, true, 1/gomath.Pi, 0.25))

	floater, err := s.AddModel("models/avocado.glb", math.Vec3{Z: -4}, 0.15)
	require.NoError(t, err)
	require.NoError(t, s.SetModelColorTint(floater, math.RGB{R: 1, G: 0.8, B: 0.8}))
	require.NoError(t, s.EnableModelAnimation(floater, true, 45))
	require.NoError(t, s.EnableModelSpin(floater, true, 45))
	require.NoError(t, s.EnableModelHover(floater, true, 1.5, 0.4))

	require.Equal(t, 4, s.ModelCount())

	s.Init()
	for i := 0; i <= 60; i++ {
		require.NoError(t, s.Update(float64(i)/60, 1.0/60))
	}
	require.InDelta(t, 1.0, s.Time(), 1e-9)

	// Spinning duck: transform pinned to base, yaw and tint animated.
	pos, err := s.ModelPosition(duck)
	require.NoError(t, err)
	assert.Equal(t, math.Vec3{}, pos)
	rot, err := s.ModelRotation(duck)
	require.NoError(t, err)
	assert.InDelta(t, 30, float64(rot.Y), 1e-4)
	tint, err := s.ModelColorTint(duck)
	require.NoError(t, err)
	assert.InDelta(t, 0.5+0.25*(gomath.Sin(0.5)+1), float64(tint.R), 1e-4)
	enabled, speed, err := s.ModelPlayback(duck)
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, 30.0, speed)

	// Orbiting avocado: circle position, hover offset, travel-facing yaw.
	pos, err = s.ModelPosition(avocado)
	require.NoError(t, err)
	assert.InDelta(t, 4*gomath.Cos(0.3), float64(pos.X), 1e-4)
	assert.InDelta(t, 0.3*gomath.Sin(4*gomath.Pi), float64(pos.Y), 1e-5)
	assert.InDelta(t, 4*gomath.Sin(0.3), float64(pos.Z), 1e-4)
	rot, err = s.ModelRotation(avocado)
	require.NoError(t, err)
	assert.InDelta(t, 0.3*180/gomath.Pi+90, float64(rot.Y), 1e-3)
	scale, err := s.ModelScale(avocado)
	require.NoError(t, err)
	assert.Equal(t, math.Uniform(0.1), scale)

	// Walking duck: eased glide toward the far endpoint, pulsing scale.
	pos, err = s.ModelPosition(walker)
	require.NoError(t, err)
	assert.InDelta(t, -3, float64(pos.X), 1e-6)
	assert.InDelta(t, -5*(1-gomath.Cos(0.8*gomath.Pi))/2, float64(pos.Z), 1e-4)
	scale, err = s.ModelScale(walker)
	require.NoError(t, err)
	assert.InDelta(t, 0.8*(1+0.25*gomath.Sin(2)), float64(scale.X), 1e-5)

	// Floating avocado: spin plus hover, tint untouched.
	rot, err = s.ModelRotation(floater)
	require.NoError(t, err)
	assert.InDelta(t, 45, float64(rot.Y), 1e-4)
	pos, err = s.ModelPosition(floater)
	require.NoError(t, err)
	assert.InDelta(t, 0.4*gomath.Sin(3*gomath.Pi), float64(pos.Y), 1e-5)
	assert.InDelta(t, -4, float64(pos.Z), 1e-6)
	tint, err = s.ModelColorTint(floater)
	require.NoError(t, err)
	assert.Equal(t, math.RGB{R: 1, G: 0.8, B: 0.8}, tint)
	enabled, speed, err = s.ModelPlayback(floater)
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, 45.0, speed)
}
