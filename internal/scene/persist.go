package scene

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/scenekit/internal/assets"
	"github.com/Faultbox/scenekit/internal/engine/behavior"
	"github.com/Faultbox/scenekit/internal/engine/entity"
	"github.com/Faultbox/scenekit/pkg/math"
)

// Snapshot errors.
var (
	ErrNoStorage        = errors.New("snapshot storage not configured")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// snapshotVersion is bumped whenever the snapshot layout changes.
const snapshotVersion = 1

const (
	snapshotObject = "scenes"
	indexProp      = "index"
)

// snapshotDoc is the stored layout of one saved scene. Models carry
// asset paths, not refs; loading resolves them through the library
// again.
type snapshotDoc struct {
	UUID    string          `yaml:"uuid"`
	Version int             `yaml:"version"`
	Name    string          `yaml:"name"`
	Saved   time.Time       `yaml:"saved"`
	Models  []snapshotModel `yaml:"models"`
}

type snapshotModel struct {
	Name     string    `yaml:"name"`
	Path     string    `yaml:"path"`
	Position snapVec   `yaml:"position"`
	Rotation snapVec   `yaml:"rotation"`
	Scale    snapVec   `yaml:"scale"`
	Tint     snapColor `yaml:"tint"`

	Animation  *snapAnimation  `yaml:"animation,omitempty"`
	Hover      *snapHover      `yaml:"hover,omitempty"`
	Movement   *snapMovement   `yaml:"movement,omitempty"`
	Spin       *snapSpin       `yaml:"spin,omitempty"`
	Orbit      *snapOrbit      `yaml:"orbit,omitempty"`
	Pulse      *snapPulse      `yaml:"pulse,omitempty"`
	ColorCycle *snapColorCycle `yaml:"color_cycle,omitempty"`
}

type snapVec struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

func vecOf(v math.Vec3) snapVec {
	return snapVec{X: v.X, Y: v.Y, Z: v.Z}
}

func (v snapVec) vec() math.Vec3 {
	return math.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

type snapColor struct {
	R float32 `yaml:"r"`
	G float32 `yaml:"g"`
	B float32 `yaml:"b"`
}

func colorOf(c math.RGB) snapColor {
	return snapColor{R: c.R, G: c.G, B: c.B}
}

func (c snapColor) rgb() math.RGB {
	return math.RGB{R: c.R, G: c.G, B: c.B}
}

type snapAnimation struct {
	Enabled bool    `yaml:"enabled"`
	Speed   float64 `yaml:"speed"`
}

type snapHover struct {
	Enabled   bool    `yaml:"enabled"`
	Frequency float64 `yaml:"frequency"`
	Amplitude float64 `yaml:"amplitude"`
}

type snapMovement struct {
	Enabled bool    `yaml:"enabled"`
	Start   snapVec `yaml:"start"`
	End     snapVec `yaml:"end"`
	Speed   float64 `yaml:"speed"`
}

type snapSpin struct {
	Enabled       bool    `yaml:"enabled"`
	DegreesPerSec float64 `yaml:"degrees_per_sec"`
}

type snapOrbit struct {
	Enabled      bool    `yaml:"enabled"`
	Center       snapVec `yaml:"center"`
	Radius       float64 `yaml:"radius"`
	AngularSpeed float64 `yaml:"angular_speed"`
	FaceMotion   bool    `yaml:"face_motion"`
}

type snapPulse struct {
	Enabled   bool    `yaml:"enabled"`
	Frequency float64 `yaml:"frequency"`
	Amplitude float64 `yaml:"amplitude"`
}

type snapColorCycle struct {
	Enabled bool    `yaml:"enabled"`
	Speed   float64 `yaml:"speed"`
	Floor   float64 `yaml:"floor"`
}

type snapshotIndex struct {
	Names []string `yaml:"names"`
}

// SaveSnapshot writes the scene's base state and behaviors under the
// given name, overwriting any previous snapshot with that name.
func (s *Scene) SaveSnapshot(name string) error {
	if s.saves == nil {
		return ErrNoStorage
	}
	if err := validSnapshotName(name); err != nil {
		return err
	}

	doc := snapshotDoc{
		UUID:    uuid.NewString(),
		Version: snapshotVersion,
		Name:    name,
		Saved:   time.Now(),
	}
	for _, id := range s.store.IDs() {
		e, err := s.store.Get(id)
		if err != nil {
			return err
		}
		model, ok := s.library.Model(e.Asset)
		if !ok {
			return fmt.Errorf("%w: no cached asset for model %q", assets.ErrNotFound, e.Name)
		}
		doc.Models = append(doc.Models, encodeModel(e, model.Path, s.registry.Attached(id)))
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.saves.SaveObjectProp(snapshotObject, name, data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := s.indexAdd(name); err != nil {
		return err
	}

	s.log.Info("snapshot saved",
		zap.String("name", name),
		zap.String("uuid", doc.UUID),
		zap.Int("models", len(doc.Models)))
	return nil
}

// LoadSnapshot clears the scene and rebuilds it from the named
// snapshot. Assets resolve through the library again, and the rebuilt
// models get fresh ids. A failed rebuild leaves the scene empty.
func (s *Scene) LoadSnapshot(name string) error {
	if s.saves == nil {
		return ErrNoStorage
	}
	if err := validSnapshotName(name); err != nil {
		return err
	}
	doc, err := s.readSnapshot(name)
	if err != nil {
		return err
	}

	s.Clear()
	if err := s.rebuild(doc); err != nil {
		s.Clear()
		return fmt.Errorf("snapshot %q: %w", name, err)
	}

	s.log.Info("snapshot loaded",
		zap.String("name", name),
		zap.String("uuid", doc.UUID),
		zap.Int("models", len(doc.Models)))
	return nil
}

// Snapshots lists saved snapshot names in sorted order.
func (s *Scene) Snapshots() ([]string, error) {
	if s.saves == nil {
		return nil, ErrNoStorage
	}
	idx, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	return idx.Names, nil
}

// DeleteSnapshot removes the named snapshot.
func (s *Scene) DeleteSnapshot(name string) error {
	if s.saves == nil {
		return ErrNoStorage
	}
	if err := validSnapshotName(name); err != nil {
		return err
	}
	found, err := s.indexRemove(name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}
	if err := s.saves.SaveObjectProp(snapshotObject, name, nil); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	s.log.Info("snapshot deleted", zap.String("name", name))
	return nil
}

func (s *Scene) readSnapshot(name string) (*snapshotDoc, error) {
	idx, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(idx.Names, name) || !s.saves.ObjectPropExists(snapshotObject, name) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}

	data, err := s.saves.LoadObjectProp(snapshotObject, name)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var doc snapshotDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Version != snapshotVersion {
		return nil, fmt.Errorf("decode snapshot: unsupported version %d", doc.Version)
	}
	return &doc, nil
}

func (s *Scene) rebuild(doc *snapshotDoc) error {
	for _, m := range doc.Models {
		ref, err := s.library.Resolve(m.Path)
		if err != nil {
			return err
		}
		id, err := s.store.Add(m.Name, ref, m.Position.vec(), m.Scale.vec())
		if err != nil {
			return err
		}
		if err := s.store.SetRotation(id, m.Rotation.vec()); err != nil {
			return err
		}
		if err := s.store.SetTint(id, m.Tint.rgb()); err != nil {
			return err
		}
		if err := s.attachSnapshot(id, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scene) attachSnapshot(id entity.ID, m snapshotModel) error {
	if m.Animation != nil {
		if err := s.registry.SetAnimation(id, behavior.Animation{
			Enabled: m.Animation.Enabled,
			Speed:   m.Animation.Speed,
		}); err != nil {
			return err
		}
	}
	if m.Hover != nil {
		if err := s.registry.SetHover(id, behavior.Hover{
			Enabled:   m.Hover.Enabled,
			Frequency: m.Hover.Frequency,
			Amplitude: m.Hover.Amplitude,
		}); err != nil {
			return err
		}
	}
	if m.Movement != nil {
		if err := s.registry.SetMovement(id, behavior.Movement{
			Enabled: m.Movement.Enabled,
			Start:   m.Movement.Start.vec(),
			End:     m.Movement.End.vec(),
			Speed:   m.Movement.Speed,
		}); err != nil {
			return err
		}
	}
	if m.Spin != nil {
		if err := s.registry.SetSpin(id, behavior.Spin{
			Enabled:       m.Spin.Enabled,
			DegreesPerSec: m.Spin.DegreesPerSec,
		}); err != nil {
			return err
		}
	}
	if m.Orbit != nil {
		if err := s.registry.SetOrbit(id, behavior.Orbit{
			Enabled:      m.Orbit.Enabled,
			Center:       m.Orbit.Center.vec(),
			Radius:       m.Orbit.Radius,
			AngularSpeed: m.Orbit.AngularSpeed,
			FaceMotion:   m.Orbit.FaceMotion,
		}); err != nil {
			return err
		}
	}
	if m.Pulse != nil {
		if err := s.registry.SetPulse(id, behavior.Pulse{
			Enabled:   m.Pulse.Enabled,
			Frequency: m.Pulse.Frequency,
			Amplitude: m.Pulse.Amplitude,
		}); err != nil {
			return err
		}
	}
	if m.ColorCycle != nil {
		if err := s.registry.SetColorCycle(id, behavior.ColorCycle{
			Enabled: m.ColorCycle.Enabled,
			Speed:   m.ColorCycle.Speed,
			Floor:   m.ColorCycle.Floor,
		}); err != nil {
			return err
		}
	}
	return nil
}

func encodeModel(e *entity.Entity, path string, att behavior.Attached) snapshotModel {
	m := snapshotModel{
		Name:     e.Name,
		Path:     path,
		Position: vecOf(e.BasePosition),
		Rotation: vecOf(e.BaseRotation),
		Scale:    vecOf(e.BaseScale),
		Tint:     colorOf(e.BaseTint),
	}
	if att.Animation != nil {
		m.Animation = &snapAnimation{
			Enabled: att.Animation.Enabled,
			Speed:   att.Animation.Speed,
		}
	}
	if att.Hover != nil {
		m.Hover = &snapHover{
			Enabled:   att.Hover.Enabled,
			Frequency: att.Hover.Frequency,
			Amplitude: att.Hover.Amplitude,
		}
	}
	if att.Movement != nil {
		m.Movement = &snapMovement{
			Enabled: att.Movement.Enabled,
			Start:   vecOf(att.Movement.Start),
			End:     vecOf(att.Movement.End),
			Speed:   att.Movement.Speed,
		}
	}
	if att.Spin != nil {
		m.Spin = &snapSpin{
			Enabled:       att.Spin.Enabled,
			DegreesPerSec: att.Spin.DegreesPerSec,
		}
	}
	if att.Orbit != nil {
		m.Orbit = &snapOrbit{
			Enabled:      att.Orbit.Enabled,
			Center:       vecOf(att.Orbit.Center),
			Radius:       att.Orbit.Radius,
			AngularSpeed: att.Orbit.AngularSpeed,
			FaceMotion:   att.Orbit.FaceMotion,
		}
	}
	if att.Pulse != nil {
		m.Pulse = &snapPulse{
			Enabled:   att.Pulse.Enabled,
			Frequency: att.Pulse.Frequency,
			Amplitude: att.Pulse.Amplitude,
		}
	}
	if att.ColorCycle != nil {
		m.ColorCycle = &snapColorCycle{
			Enabled: att.ColorCycle.Enabled,
			Speed:   att.ColorCycle.Speed,
			Floor:   att.ColorCycle.Floor,
		}
	}
	return m
}

func (s *Scene) readIndex() (snapshotIndex, error) {
	var idx snapshotIndex
	if !s.saves.ObjectPropExists(snapshotObject, indexProp) {
		return idx, nil
	}
	data, err := s.saves.LoadObjectProp(snapshotObject, indexProp)
	if err != nil {
		return idx, fmt.Errorf("read snapshot index: %w", err)
	}
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return idx, fmt.Errorf("decode snapshot index: %w", err)
	}
	return idx, nil
}

func (s *Scene) writeIndex(idx snapshotIndex) error {
	data, err := yaml.Marshal(&idx)
	if err != nil {
		return fmt.Errorf("encode snapshot index: %w", err)
	}
	if err := s.saves.SaveObjectProp(snapshotObject, indexProp, data); err != nil {
		return fmt.Errorf("write snapshot index: %w", err)
	}
	return nil
}

func (s *Scene) indexAdd(name string) error {
	idx, err := s.readIndex()
	if err != nil {
		return err
	}
	if slices.Contains(idx.Names, name) {
		return nil
	}
	idx.Names = append(idx.Names, name)
	slices.Sort(idx.Names)
	return s.writeIndex(idx)
}

func (s *Scene) indexRemove(name string) (bool, error) {
	idx, err := s.readIndex()
	if err != nil {
		return false, err
	}
	if !slices.Contains(idx.Names, name) {
		return false, nil
	}
	idx.Names = slices.DeleteFunc(idx.Names, func(n string) bool { return n == name })
	return true, s.writeIndex(idx)
}

// validSnapshotName rejects names that cannot serve as storage keys.
func validSnapshotName(name string) error {
	if name == "" || name == indexProp || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: snapshot name %q", entity.ErrInvalidParameter, name)
	}
	return nil
}
