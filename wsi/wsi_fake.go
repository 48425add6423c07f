// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package wsi

import (
	"errors"

	vk "github.com/goki/vulkan"
)

// windowFake is the headless window. It has an extent and a
// title but no surface; the fake target composes into its own
// images and never presents.
type windowFake struct {
	width  int
	height int
	title  string
	closed bool
}

// NewFakeWindow creates a headless window regardless of the
// platform in use.
func NewFakeWindow(width, height int, title string) (Window, error) {
	if windowCount >= MaxWindows {
		return nil, errors.New("wsi: too many windows")
	}
	win := &windowFake{width: width, height: height, title: title}
	for i := range createdWindows {
		if createdWindows[i] == nil {
			createdWindows[i] = win
			windowCount++
			break
		}
	}
	return win, nil
}

func (w *windowFake) Surface(vk.Instance) (vk.Surface, error) {
	return vk.NullSurface, errors.New("wsi: fake window has no surface")
}

func (w *windowFake) Resize(width, height int) error {
	w.width, w.height = width, height
	if windowHandler != nil {
		windowHandler.WindowResize(w, width, height)
	}
	return nil
}

func (w *windowFake) SetTitle(title string) error {
	w.title = title
	return nil
}

func (w *windowFake) Close() {
	if w.closed {
		return
	}
	w.closed = true
	closeWindow(w)
}

func (w *windowFake) Width() int        { return w.width }
func (w *windowFake) Height() int       { return w.height }
func (w *windowFake) Title() string     { return w.title }
func (w *windowFake) ShouldClose() bool { return w.closed }
