package main

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	renderer "voxel-terrain/internal/graphics/renderer"
)

// inputState drives the free-flying camera from keyboard and mouse.
type inputState struct {
	window   *glfw.Window
	renderer *renderer.Renderer

	lastX, lastY float64
	firstMove    bool
	sensitivity  float32
	speed        float32
}

func newInputState(window *glfw.Window, r *renderer.Renderer) *inputState {
	s := &inputState{
		window:      window,
		renderer:    r,
		firstMove:   true,
		sensitivity: 0.1,
		speed:       48,
	}
	window.SetCursorPosCallback(s.onCursor)
	window.SetKeyCallback(s.onKey)
	return s
}

func (s *inputState) onCursor(_ *glfw.Window, x, y float64) {
	if s.firstMove {
		s.lastX, s.lastY = x, y
		s.firstMove = false
		return
	}
	dx := float32(x-s.lastX) * s.sensitivity
	dy := float32(s.lastY-y) * s.sensitivity
	s.lastX, s.lastY = x, y
	s.renderer.GetCamera().Rotate(dx, dy)
}

func (s *inputState) onKey(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
}

func (s *inputState) update(dt float64) {
	cam := s.renderer.GetCamera()
	front := cam.Front()
	right := front.Cross(mgl32.Vec3{0, 1, 0}).Normalize()

	velocity := s.speed * float32(dt)
	if s.window.GetKey(glfw.KeyLeftShift) == glfw.Press {
		velocity *= 4
	}
	if s.window.GetKey(glfw.KeyW) == glfw.Press {
		cam.Position = cam.Position.Add(front.Mul(velocity))
	}
	if s.window.GetKey(glfw.KeyS) == glfw.Press {
		cam.Position = cam.Position.Sub(front.Mul(velocity))
	}
	if s.window.GetKey(glfw.KeyA) == glfw.Press {
		cam.Position = cam.Position.Sub(right.Mul(velocity))
	}
	if s.window.GetKey(glfw.KeyD) == glfw.Press {
		cam.Position = cam.Position.Add(right.Mul(velocity))
	}
	if s.window.GetKey(glfw.KeySpace) == glfw.Press {
		cam.Position[1] += velocity
	}
	if s.window.GetKey(glfw.KeyLeftControl) == glfw.Press {
		cam.Position[1] -= velocity
	}
}
