package main

import (
	"flag"
	"log"
	"os"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"voxel-terrain/internal/config"
	"voxel-terrain/internal/graphics/renderables/terrain"
	renderer "voxel-terrain/internal/graphics/renderer"
	"voxel-terrain/internal/voxel"
	"voxel-terrain/internal/worldgen"
)

func setupWindow(width, height int) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(width, height, "terra", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	// Initialize OpenGL bindings
	if err := gl.Init(); err != nil {
		return nil, err
	}

	glfw.SwapInterval(1)
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)

	return window, nil
}

// Components holds everything the demo loop drives.
type Components struct {
	Renderer *renderer.Renderer
	Terrain  *terrain.Terrain
	Context  *terrain.Context
}

// loadSettings parses flags: an optional YAML settings file and an
// optional persisted voxel asset to render instead of generated terrain.
func loadSettings() (config.Settings, string) {
	configPath := flag.String("config", "", "YAML settings file")
	assetPath := flag.String("asset", "", "persisted voxel asset to load instead of generating terrain")
	flag.Parse()

	if *configPath == "" {
		return config.Default(), *assetPath
	}
	s, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("terra: %v", err)
	}
	return s, *assetPath
}

// loadWorld either reads a persisted asset or generates demo terrain.
func loadWorld(assetPath string) (*voxel.ColumnStore, voxel.Bounds, error) {
	if assetPath != "" {
		f, err := os.Open(assetPath)
		if err != nil {
			return nil, voxel.Bounds{}, err
		}
		defer f.Close()
		bounds, store, err := voxel.ReadAsset(f)
		return store, bounds, err
	}
	store, bounds := worldgen.Generate(worldgen.DefaultOptions())
	return store, bounds, nil
}

// setupScene builds the world, publishes it and positions the camera above
// the terrain center.
func setupScene(cfg config.Settings, assetPath string, width, height int) (*Components, error) {
	ctx, err := terrain.NewContext()
	if err != nil {
		return nil, err
	}

	terrainRenderer := terrain.NewTerrain(ctx, cfg)
	r, err := renderer.NewRenderer(width, height, terrainRenderer)
	if err != nil {
		ctx.Dispose()
		return nil, err
	}

	store, bounds, err := loadWorld(assetPath)
	if err != nil {
		ctx.Dispose()
		return nil, err
	}
	if err := terrainRenderer.Publish(bounds, store); err != nil {
		ctx.Dispose()
		return nil, err
	}
	placeCamera(r, bounds)
	return &Components{Renderer: r, Terrain: terrainRenderer, Context: ctx}, nil
}

func placeCamera(r *renderer.Renderer, bounds voxel.Bounds) {
	cam := r.GetCamera()
	cam.Position = bounds.Center
	cam.Position[1] = bounds.Center.Y() + bounds.Size.Y() + 24
	cam.Pitch = -30
}
