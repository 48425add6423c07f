// Copyright 2026 The monado-sub011 Authors. All rights reserved.

//go:build (darwin && !ios) || windows || (linux && !android) || dragonfly || openbsd

package wsi

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
)

// Desktop builds use glfw. Init must run on the main thread
// before any window or bundle is created.

func init() {
	if err := glfw.Init(); err != nil {
		return
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		glfw.Terminate()
		return
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return
	}
	platform = GLFW
	newWindow = newWindowGLFW
	dispatch = glfw.PollEvents
	instanceExts = instanceExtsGLFW
}

// instanceExtsGLFW asks an existing window for the surface
// extensions; NewWindow must run before the bundle is created.
func instanceExtsGLFW() []string {
	wins := Windows()
	if len(wins) == 0 {
		return nil
	}
	if w, ok := wins[0].(*windowGLFW); ok {
		return w.win.GetRequiredInstanceExtensions()
	}
	return nil
}

type windowGLFW struct {
	win    *glfw.Window
	width  int
	height int
	title  string
}

func newWindowGLFW(width, height int, title string) (Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("wsi: create window: %w", err)
	}
	w := &windowGLFW{win: win, width: width, height: height, title: title}
	win.SetSizeCallback(func(_ *glfw.Window, newWidth, newHeight int) {
		w.width, w.height = newWidth, newHeight
		if windowHandler != nil {
			windowHandler.WindowResize(w, newWidth, newHeight)
		}
	})
	win.SetCloseCallback(func(_ *glfw.Window) {
		if windowHandler != nil {
			windowHandler.WindowClose(w)
		}
	})
	return w, nil
}

func (w *windowGLFW) Surface(inst vk.Instance) (vk.Surface, error) {
	surfPtr, err := w.win.CreateWindowSurface(inst, nil)
	if err != nil {
		return vk.NullSurface, fmt.Errorf("wsi: create surface: %w", err)
	}
	return vk.SurfaceFromPointer(surfPtr), nil
}

func (w *windowGLFW) Resize(width, height int) error {
	w.win.SetSize(width, height)
	w.width, w.height = width, height
	return nil
}

func (w *windowGLFW) SetTitle(title string) error {
	w.win.SetTitle(title)
	w.title = title
	return nil
}

func (w *windowGLFW) Close() {
	w.win.Destroy()
	closeWindow(w)
}

func (w *windowGLFW) Width() int        { return w.width }
func (w *windowGLFW) Height() int       { return w.height }
func (w *windowGLFW) Title() string     { return w.title }
func (w *windowGLFW) ShouldClose() bool { return w.win.ShouldClose() }
