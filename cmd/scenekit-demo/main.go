// Package main is the entry point for the SceneKit demo.
//
// It populates a small animated scene, drives it at a fixed tick rate
// for a configurable duration and reports the final model states.
// Placeholder GLB assets are generated on first run so the demo works
// from a clean checkout.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/scenekit/internal/assets"
	"github.com/Faultbox/scenekit/internal/config"
	"github.com/Faultbox/scenekit/internal/engine/clock"
	"github.com/Faultbox/scenekit/internal/engine/entity"
	"github.com/Faultbox/scenekit/internal/logger"
	"github.com/Faultbox/scenekit/internal/scene"
	"github.com/Faultbox/scenekit/pkg/formats"
	"github.com/Faultbox/scenekit/pkg/math"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== SceneKit Demo ===", zap.String("run", uuid.NewString()))
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("demo error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("demo finished")
}

func run(cfg *config.Config) error {
	if err := ensureDemoAssets(cfg.Assets.Dir); err != nil {
		return fmt.Errorf("preparing assets: %w", err)
	}

	fps := &fpsCounter{timer: time.Now()}

	// Snapshot storage is only opened when the demo is asked to save.
	snapshotApp := ""
	if cfg.Demo.SaveSnapshot != "" {
		snapshotApp = cfg.Snapshots.AppName
	}

	s, err := scene.New(scene.Config{
		Library:         assets.NewLibrary(assets.NewFileLoader(cfg.Assets.Dir)),
		DiagInterval:    cfg.Engine.DiagInterval.Seconds(),
		FPS:             fps.Rate,
		SnapshotAppName: snapshotApp,
	})
	if err != nil {
		return err
	}
	defer s.Stop()

	first, err := populate(s)
	if err != nil {
		return fmt.Errorf("building scene: %w", err)
	}
	logger.Info("scene populated", zap.Int("models", s.ModelCount()))

	s.Init()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	rate := cfg.Engine.TickRate
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	logger.Info("starting demo loop",
		zap.Int("tick_rate", rate),
		zap.Duration("duration", cfg.Demo.Duration))

	clk := clock.New()
	duplicated := false

	running := true
	for running {
		select {
		case <-sig:
			logger.Info("interrupt received")
			running = false

		case <-ticker.C:
			dt := clk.Tick()
			elapsed := clk.Now()

			if elapsed >= cfg.Demo.Duration.Seconds() {
				running = false
				break
			}

			// Halfway through, clone the first model through the
			// deferred queue while ticks are in flight.
			if !duplicated && elapsed >= cfg.Demo.Duration.Seconds()/2 {
				duplicated = true
				err := s.Defer(func(sc *scene.Scene) {
					id, err := sc.DuplicateModel(first)
					if err != nil {
						logger.Warn("duplicating model", zap.Error(err))
						return
					}
					if err := sc.SetModelPosition(id, math.Vec3{X: 1.5, Z: 2}); err != nil {
						logger.Warn("placing duplicate", zap.Error(err))
					}
				})
				if err != nil {
					return err
				}
			}

			if err := s.Update(elapsed, dt); err != nil {
				return err
			}
			fps.frame()
		}
	}

	report(s)

	if name := cfg.Demo.SaveSnapshot; name != "" {
		if err := s.SaveSnapshot(name); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
		names, err := s.Snapshots()
		if err != nil {
			return err
		}
		logger.Info("snapshots on disk", zap.Strings("names", names))
	}

	return nil
}

// populate builds the demo scene: a spinning duck, an orbiting avocado,
// a duck gliding between two points and a hovering avocado. Returns the
// id of the first model.
func populate(s *scene.Scene) (entity.ID, error) {
	duck, err := s.AddModel("models/duck.glb", math.Vec3{}, 1.0)
	if err != nil {
		return 0, err
	}
	if err := errors.Join(
		s.SetModelColorTint(duck, math.RGB{R: 1, G: 1, B: 0.8}),
		s.EnableModelAnimation(duck, true, 30),
		s.EnableModelSpin(duck, true, 30),
		s.EnableModelColorCycle(duck, true, 0.5, 0.5),
	); err != nil {
		return 0, err
	}

	avocado, err := s.AddModel("models/avocado.glb", math.Vec3{X: 3}, 0.1)
	if err != nil {
		return 0, err
	}
	if err := errors.Join(
		s.SetModelColorTint(avocado, math.RGB{R: 0.8, G: 1, B: 0.8}),
		s.EnableModelHover(avocado, true, 2.0, 0.3),
		s.EnableModelOrbit(avocado, true, math.Vec3{}, 4, 0.3, true),
	); err != nil {
		return 0, err
	}

	walker, err := s.AddModel("models/duck.glb", math.Vec3{X: -3}, 0.8)
	if err != nil {
		return 0, err
	}
	if err := errors.Join(
		s.SetModelColorTint(walker, math.RGB{R: 0.8, G: 0.8, B: 1}),
		s.EnableModelMovement(walker, true, math.Vec3{X: -3}, math.Vec3{X: -3, Z: -5}, 0.8),
		s.EnableModelPulse(walker, true, 0.5, 0.25),
	); err != nil {
		return 0, err
	}

	floater, err := s.AddModel("models/avocado.glb", math.Vec3{Z: -4}, 0.15)
	if err != nil {
		return 0, err
	}
	if err := errors.Join(
		s.SetModelColorTint(floater, math.RGB{R: 1, G: 0.8, B: 0.8}),
		s.EnableModelAnimation(floater, true, 45),
		s.EnableModelSpin(floater, true, 45),
		s.EnableModelHover(floater, true, 1.5, 0.4),
	); err != nil {
		return 0, err
	}

	return duck, nil
}

// report logs the final state of every model in the scene.
func report(s *scene.Scene) {
	for _, id := range s.ModelIDs() {
		name, err := s.ModelName(id)
		if err != nil {
			continue
		}
		pos, _ := s.ModelPosition(id)
		rot, _ := s.ModelRotation(id)
		scale, _ := s.ModelScale(id)
		playing, speed, _ := s.ModelPlayback(id)
		logger.Info("model",
			zap.Uint64("id", uint64(id)),
			zap.String("name", name),
			zap.String("position", fmt.Sprintf("(%.2f, %.2f, %.2f)", pos.X, pos.Y, pos.Z)),
			zap.Float32("yaw", rot.Y),
			zap.Float32("scale", scale.X),
			zap.Bool("playing", playing),
			zap.Float64("rate", speed))
	}
	logger.Info("scene time", zap.Float64("t", s.Time()), zap.Float64("fps", s.FPS()))
}

// fpsCounter tracks the realized frame rate of the demo loop.
type fpsCounter struct {
	frames int
	rate   float64
	timer  time.Time
}

func (c *fpsCounter) frame() {
	c.frames++
	if since := time.Since(c.timer); since >= time.Second {
		c.rate = float64(c.frames) / since.Seconds()
		c.frames = 0
		c.timer = time.Now()
	}
}

// Rate returns the last measured frames per second.
func (c *fpsCounter) Rate() float64 {
	return c.rate
}

// gltfStub describes one placeholder asset written on first run.
type gltfStub struct {
	mesh       string
	animations []string
}

// demoAssets are the placeholder GLB containers the demo scene loads.
// Each carries a valid glTF document and no geometry payload.
var demoAssets = map[string]gltfStub{
	"models/duck.glb":    {mesh: "duck", animations: []string{"Idle", "Walk"}},
	"models/avocado.glb": {mesh: "avocado"},
}

func (g gltfStub) document() ([]byte, error) {
	doc := map[string]any{
		"asset":  map[string]any{"version": "2.0", "generator": "scenekit demo"},
		"scenes": []map[string]any{{"nodes": []int{0}}},
		"nodes":  []map[string]any{{"name": g.mesh, "mesh": 0}},
		"meshes": []map[string]any{{"name": g.mesh}},
	}
	if len(g.animations) > 0 {
		anims := make([]map[string]any, len(g.animations))
		for i, name := range g.animations {
			anims[i] = map[string]any{"name": name}
		}
		doc["animations"] = anims
	}
	return json.Marshal(doc)
}

// ensureDemoAssets writes any missing placeholder models under dir.
func ensureDemoAssets(dir string) error {
	for p, stub := range demoAssets {
		full := filepath.Join(dir, filepath.FromSlash(p))
		if _, err := os.Stat(full); err == nil {
			continue
		}
		docJSON, err := stub.document()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(full, formats.EncodeGLB(docJSON, nil), 0o644); err != nil {
			return err
		}
		logger.Info("wrote placeholder asset", zap.String("path", full))
	}
	return nil
}
