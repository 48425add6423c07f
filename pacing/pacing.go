// Copyright 2026 The monado-sub011 Authors. All rights reserved.

// Package pacing predicts per-frame wake-up, present and display
// times, and refines those predictions from timing marks fed back
// by the compositor.
package pacing

import (
	"time"

	"github.com/shinyquagsire23/monado-sub011/xrt"
)

// Pacer is the frame-pacing interface targets drive.
// Implementations are safe for use from multiple goroutines.
type Pacer interface {
	// Predict produces the timing record for the next frame.
	// Frame ids are monotonic, +1 per prediction.
	Predict(now int64) xrt.Frame

	// Mark feeds a labeled instant of a predicted frame back into
	// the model. Marks arriving out of order or with an unknown
	// frame id are ignored.
	Mark(p xrt.TimingPoint, frameID int64, when int64)

	// Update folds any accumulated display feedback into the
	// model. A no-op for pacers without feedback.
	Update()
}

var epoch = time.Now()

// Now returns the current time on the pacing clock, in monotonic
// nanoseconds.
func Now() int64 {
	return int64(time.Since(epoch))
}
