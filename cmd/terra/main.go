package main

import (
	"log"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/xlab/closer"

	"voxel-terrain/internal/profiling"
)

const (
	windowWidth  = 1280
	windowHeight = 720
)

func init() {
	runtime.LockOSThread()
}

func main() {
	cfg, assetPath := loadSettings()

	if err := glfw.Init(); err != nil {
		log.Fatalf("terra: glfw init: %v", err)
	}
	closer.Bind(glfw.Terminate)

	window, err := setupWindow(windowWidth, windowHeight)
	if err != nil {
		log.Fatalf("terra: window: %v", err)
	}

	components, err := setupScene(cfg, assetPath, windowWidth, windowHeight)
	if err != nil {
		log.Fatalf("terra: setup: %v", err)
	}
	closer.Bind(func() {
		components.Renderer.Dispose()
		components.Context.Dispose()
	})

	input := newInputState(window, components.Renderer)
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		components.Renderer.UpdateViewport(w, h)
	})

	last := time.Now()
	statsAt := last
	for !window.ShouldClose() {
		now := time.Now()
		dt := now.Sub(last).Seconds()
		last = now

		profiling.ResetFrame()
		glfw.PollEvents()
		input.update(dt)
		components.Renderer.Render(dt)
		window.SwapBuffers()

		if now.Sub(statsAt) >= 5*time.Second {
			statsAt = now
			log.Printf("terra: frame profile: %s", profiling.TopN(4))
		}
	}
	closer.Close()
}
