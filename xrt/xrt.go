// Copyright 2026 The monado-sub011 Authors. All rights reserved.

// Package xrt defines the interfaces and common types that tie the
// compositor's display targets, client swapchains and frame pacing
// together.
// It is designed so that platform-specific presentation backends can
// be implemented in a mostly straightforward manner, and so that the
// state machines layered on top of them can be driven by fakes in
// tests.
package xrt

// Config is the single configuration record passed at construction.
// There are no environment reads anywhere in the core; everything an
// implementation may want to tweak is enumerated here.
type Config struct {
	// LogLevel is one of the goarrg.com/debug LogLevel* values.
	// Zero keeps the library default.
	LogLevel uint32

	// FrameInterval is the display refresh period in nanoseconds.
	// Used as the pacing interval when the target cannot measure
	// the real one.
	FrameInterval int64

	// DisplayTiming selects between the fake pacer and display
	// feedback, when the target supports the latter.
	DisplayTiming DisplayTiming

	PreferredFormat      Format
	PreferredColorSpace  ColorSpace
	PreferredPresentMode PresentMode

	// SelectedGPU is the index of the physical device to use.
	// -1 selects automatically.
	SelectedGPU int

	// TimelineSemaphore requests timeline semaphores when the
	// device supports them.
	TimelineSemaphore bool

	// OnlyComputeQueue restricts queue selection to compute-only
	// families.
	OnlyComputeQueue bool
}

// DefaultConfig returns a Config with conservative defaults:
// 60 Hz pacing, sRGB 8-bit color, FIFO presentation, automatic
// GPU selection.
func DefaultConfig() Config {
	return Config{
		FrameInterval:        16_666_666,
		DisplayTiming:        DisplayTimingIfAvailable,
		PreferredFormat:      FormatB8G8R8A8Srgb,
		PreferredColorSpace:  ColorSpaceSRGBNonlinear,
		PreferredPresentMode: PresentModeFifo,
		SelectedGPU:          -1,
		TimelineSemaphore:    true,
	}
}

// DisplayTiming selects how the pacer obtains display feedback.
type DisplayTiming int

const (
	// DisplayTimingIfAvailable uses actual present timestamps when
	// the target can produce them, falling back to the fake pacer
	// otherwise.
	DisplayTimingIfAvailable DisplayTiming = iota

	// DisplayTimingForceFake always uses the fixed-interval pacer.
	DisplayTimingForceFake
)
