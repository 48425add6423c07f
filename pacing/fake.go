// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package pacing

import (
	"sync"

	"github.com/shinyquagsire23/monado-sub011/xrt"
)

// Conservative startup estimates. Refined by marks as frames
// complete.
const (
	defaultCPUHeadroom = 4_000_000
	defaultGPUHeadroom = 4_000_000
)

// historyLen bounds how many predicted frames can have marks
// outstanding at once.
const historyLen = 16

// frameMarks accumulates the marks of one predicted frame.
// A zero time means the mark has not arrived.
type frameMarks struct {
	id     int64
	wakeUp int64
	begin  int64
	submit int64
}

// Fake is a constant-interval pacer. It assumes the display
// refreshes every interval nanoseconds and back-predicts wake-up
// times from the next display instant. It is authoritative on
// targets without display timing.
type Fake struct {
	mu          sync.Mutex
	interval    int64
	nextID      int64
	lastDisplay int64
	cpuHeadroom int64
	gpuHeadroom int64
	history     [historyLen]frameMarks
}

// NewFake creates a fake pacer with the given frame interval in
// nanoseconds.
func NewFake(interval int64) *Fake {
	if interval <= 0 {
		interval = 16_666_666
	}
	return &Fake{
		interval:    interval,
		cpuHeadroom: defaultCPUHeadroom,
		gpuHeadroom: defaultGPUHeadroom,
	}
}

// Predict implements Pacer.
func (f *Fake) Predict(now int64) xrt.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	display := f.lastDisplay + f.interval
	for display < now+f.interval {
		display += f.interval
	}
	f.lastDisplay = display

	wake := display - f.cpuHeadroom - f.gpuHeadroom
	if wake < now {
		wake = now
	}

	fr := xrt.Frame{
		ID:               f.nextID,
		WakeUp:           wake,
		DesiredPresent:   display,
		PresentSlop:      f.interval / 2,
		PredictedDisplay: display,
	}
	f.record(fr)
	return fr
}

// record remembers the predicted frame so later marks can be
// matched against it.
func (f *Fake) record(fr xrt.Frame) {
	f.history[fr.ID%historyLen] = frameMarks{id: fr.ID}
}

// Mark implements Pacer. Ids are positive; marks with any other id
// are ignored.
func (f *Fake) Mark(p xrt.TimingPoint, frameID int64, when int64) {
	if frameID <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	m := &f.history[frameID%historyLen]
	if m.id != frameID {
		return
	}
	switch p {
	case xrt.TimingWakeUp:
		if m.wakeUp == 0 {
			m.wakeUp = when
		}
	case xrt.TimingBegin:
		if m.wakeUp == 0 || m.begin != 0 {
			return
		}
		m.begin = when
		f.cpuHeadroom = filter(f.cpuHeadroom, m.begin-m.wakeUp)
	case xrt.TimingSubmit:
		if m.begin == 0 || m.submit != 0 {
			return
		}
		m.submit = when
		f.gpuHeadroom = filter(f.gpuHeadroom, m.submit-m.begin)
	}
}

// Update implements Pacer. The fake pacer has no feedback source.
func (f *Fake) Update() {}

// Interval returns the current frame interval estimate.
func (f *Fake) Interval() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interval
}

// filter moves est a quarter of the way toward sample. Samples that
// would drive the estimate nonpositive are discarded.
func filter(est, sample int64) int64 {
	if sample <= 0 {
		return est
	}
	return est + (sample-est)/4
}
