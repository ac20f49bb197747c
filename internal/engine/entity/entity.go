// Package entity implements the scene entity store.
package entity

import (
	"errors"

	"github.com/Faultbox/scenekit/internal/assets"
	"github.com/Faultbox/scenekit/pkg/math"
)

// Store errors.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ID identifies an entity. Ids start at 1 and are never reused; 0 is
// not a valid id.
type ID uint64

// Entity is one model instance in the scene.
//
// Base state is what the host last set. Evaluated state is what
// behaviors produced for the current frame; it is recomputed from base
// state every tick and never fed back into it.
type Entity struct {
	ID    ID
	Name  string
	Asset assets.Ref

	BasePosition math.Vec3
	BaseRotation math.Vec3 // Euler degrees per axis; Y is yaw
	BaseScale    math.Vec3
	BaseTint     math.RGB

	Position math.Vec3
	Rotation math.Vec3
	Scale    math.Vec3
	Tint     math.RGB
}

// ResetEvaluated copies base state into the evaluated fields.
func (e *Entity) ResetEvaluated() {
	e.Position = e.BasePosition
	e.Rotation = e.BaseRotation
	e.Scale = e.BaseScale
	e.Tint = e.BaseTint
}
