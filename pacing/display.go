// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package pacing

import (
	"sync"

	"github.com/shinyquagsire23/monado-sub011/xrt"
)

// Sample is one actual presentation report from a display-timing
// capable target.
type Sample struct {
	FrameID         int64
	DesiredPresent  int64
	ActualPresent   int64
	EarliestPresent int64
	PresentMargin   int64
}

// Display is a pacer that consumes actual present timestamps.
// Until feedback arrives it behaves exactly like the fake pacer;
// once it does, the display instant and refresh period are locked
// to what the display reported.
type Display struct {
	fake *Fake

	mu      sync.Mutex
	pending []Sample
	// minPeriod is the shortest observed distance between two
	// actual presents, i.e. the display's refresh period.
	minPeriod  int64
	lastActual int64
}

// NewDisplay creates a display-feedback pacer seeded with the given
// frame interval.
func NewDisplay(interval int64) *Display {
	return &Display{fake: NewFake(interval)}
}

// Predict implements Pacer.
func (d *Display) Predict(now int64) xrt.Frame {
	return d.fake.Predict(now)
}

// Mark implements Pacer.
func (d *Display) Mark(p xrt.TimingPoint, frameID int64, when int64) {
	d.fake.Mark(p, frameID, when)
}

// Feed queues an actual presentation report. Safe from any thread;
// the report is folded in on the next Update.
func (d *Display) Feed(s Sample) {
	d.mu.Lock()
	d.pending = append(d.pending, s)
	d.mu.Unlock()
}

// Update implements Pacer. It folds queued samples into the model.
func (d *Display) Update() {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, s := range pending {
		d.fold(s)
	}
}

func (d *Display) fold(s Sample) {
	d.mu.Lock()
	if d.lastActual != 0 && s.ActualPresent > d.lastActual {
		period := s.ActualPresent - d.lastActual
		if d.minPeriod == 0 || period < d.minPeriod {
			d.minPeriod = period
		}
	}
	if s.ActualPresent > d.lastActual {
		d.lastActual = s.ActualPresent
	}
	minPeriod := d.minPeriod
	lastActual := d.lastActual
	d.mu.Unlock()

	d.fake.mu.Lock()
	if minPeriod > 0 {
		d.fake.interval = filter(d.fake.interval, minPeriod)
	}
	// Re-anchor the prediction chain on reality so drift cannot
	// accumulate.
	if lastActual > d.fake.lastDisplay-d.fake.interval {
		d.fake.lastDisplay = lastActual
	}
	d.fake.mu.Unlock()
}

// MinPeriod returns the shortest observed refresh period, or 0 when
// no feedback has arrived yet.
func (d *Display) MinPeriod() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.minPeriod
}
