// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package xrt

import (
	vk "github.com/goki/vulkan"
)

// TimingPoint labels an instant within a frame's lifecycle. The
// points are fed back to the pacer to refine its predictions.
type TimingPoint int

const (
	// TimingWakeUp is when the app woke from its frame wait.
	TimingWakeUp TimingPoint = iota

	// TimingBegin is when the app began CPU-side work for the GPU.
	TimingBegin

	// TimingSubmit is when the app submitted its GPU work.
	TimingSubmit
)

func (p TimingPoint) String() string {
	switch p {
	case TimingWakeUp:
		return "WAKE_UP"
	case TimingBegin:
		return "BEGIN"
	case TimingSubmit:
		return "SUBMIT"
	}
	return "TIMING_POINT_UNKNOWN"
}

// Frame is the per-frame timing record produced by pacing.
// All times are absolute monotonic nanoseconds.
type Frame struct {
	ID               int64
	WakeUp           int64
	DesiredPresent   int64
	PresentSlop      int64
	PredictedDisplay int64
}

// Image is one addressable swapchain image exposed by a target for
// the render pass.
type Image struct {
	Image vk.Image
	View  vk.ImageView
}

// CreateImagesInfo carries the caller's preferences for
// Target.CreateImages. The target may override the extent when the
// surface is authoritative.
type CreateImagesInfo struct {
	Width, Height int
	Format        Format
	ColorSpace    ColorSpace
	Usage         SwapchainUsage
	PresentMode   PresentMode
}

// Target is a uniform abstraction over something that can be
// rendered into and presented from: an on-screen window, a
// direct-mode display output, or a headless substitute.
type Target interface {
	// InitPreGPU runs target setup that must happen before the GPU
	// bundle exists (e.g. window creation).
	InitPreGPU() error

	// InitPostGPU runs target setup that needs the GPU bundle
	// (e.g. surface minting and pacer selection).
	InitPostGPU() error

	// CheckReady reports whether the target can accept
	// CreateImages.
	CheckReady() bool

	// CreateImages (re)creates the presentable images. Prior
	// images the compositor still references remain legal until
	// drained.
	CreateImages(info CreateImagesInfo) error

	// HasImages reports whether a usable image ring exists.
	HasImages() bool

	// Images returns the current ring of presentable images.
	Images() []Image

	// Acquire obtains the next presentable image index, signaling
	// sem when the image is ready for rendering.
	Acquire(sem vk.Semaphore) (index int, err error)

	// Present queues image index for presentation after sem,
	// aiming for desiredPresent with slop nanoseconds of slack.
	Present(queue vk.Queue, index int, sem vk.Semaphore, desiredPresent, slop int64) error

	// Flush pushes any batched window-system work out.
	Flush()

	// CalcFramePacing predicts the next frame's timing.
	CalcFramePacing() Frame

	// MarkTimingPoint feeds a labeled instant of frame frameID back
	// into pacing.
	MarkTimingPoint(p TimingPoint, frameID int64, when int64)

	// UpdateTimings folds any display feedback accumulated since
	// the last call into the pacer.
	UpdateTimings()

	// SetTitle renames the target where that means something.
	// Others return ErrFeatureUnsupported.
	SetTitle(title string) error

	// Destroy releases the target. Safe to call repeatedly.
	Destroy()
}
