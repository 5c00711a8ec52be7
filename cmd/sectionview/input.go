package main

import (
	"chunkmesh/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func (v *viewer) setupInputHandlers() {
	v.window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if !v.paused {
			v.cam.HandleMouseMovement(xpos, ypos)
		}
	})

	v.window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if v.paused || action != glfw.Press {
			return
		}
		hit := world.Raycast(v.cam.Position, v.cam.Front(), world.MinReachDistance, world.MaxReachDistance, v.store)
		if !hit.Ok {
			return
		}
		switch button {
		case glfw.MouseButtonLeft:
			v.store.Set(hit.Hit.X, hit.Hit.Y, hit.Hit.Z, world.BlockTypeAir, true)
		case glfw.MouseButtonRight:
			p := hit.Adjacent
			v.store.Set(p.X, p.Y, p.Z, v.placing, true)
		}
	})

	v.window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		gl.Viewport(0, 0, int32(width), int32(height))
		v.cam.SetViewport(width, height)
	})

	v.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			v.paused = !v.paused
			if v.paused {
				w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			} else {
				w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
				v.cam.ResetMouse()
			}
		case glfw.KeyQ:
			w.SetShouldClose(true)
		case glfw.KeyF:
			v.wireframe = !v.wireframe
		case glfw.KeyR:
			v.view.MarkAllDirty()
		case glfw.Key1:
			v.placing = world.BlockTypeStone
		case glfw.Key2:
			v.placing = world.BlockTypeStainedGlass
		case glfw.Key3:
			v.placing = world.BlockTypeWater
		}
	})
}

// movement reads the held fly keys.
func (v *viewer) movement() (forward, right, up float32) {
	held := func(k glfw.Key) bool { return v.window.GetKey(k) == glfw.Press }
	if held(glfw.KeyW) {
		forward++
	}
	if held(glfw.KeyS) {
		forward--
	}
	if held(glfw.KeyD) {
		right++
	}
	if held(glfw.KeyA) {
		right--
	}
	if held(glfw.KeySpace) {
		up++
	}
	if held(glfw.KeyLeftShift) {
		up--
	}
	return forward, right, up
}
