// Copyright 2026 The monado-sub011 Authors. All rights reserved.

// Package session orchestrates the per-frame flow: the pacer
// predicts, the client wakes and renders, the compositor composes
// the most recently released client images into the target and
// presents, then feeds timing marks back into pacing.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	vk "github.com/goki/vulkan"
	"goarrg.com/debug"

	"github.com/shinyquagsire23/monado-sub011/pacing"
	"github.com/shinyquagsire23/monado-sub011/swapchain"
	"github.com/shinyquagsire23/monado-sub011/vkb"
	"github.com/shinyquagsire23/monado-sub011/xrt"
)

var logger = debug.NewLogger("comp", "session")

// historyLen bounds the retained per-frame timing records.
const historyLen = 16

// layerSync is what the session needs from a layer's
// synchronization backend beyond the client-facing Syncer.
type layerSync interface {
	swapchain.Syncer
	SignalDone(index int) error
}

// layer pairs a client swapchain with its sync backend.
type layer struct {
	client *swapchain.Client
	sync   layerSync
}

// Session drives one target. Frame operations (WaitFrame, Commit)
// belong to the compositor thread; CreateSwapchain and Destroy may
// be called from the app thread between frames.
type Session struct {
	cfg     xrt.Config
	b       *vkb.Bundle
	target  xrt.Target
	catalog *vkb.Catalog
	gc      *swapchain.GC

	mu     sync.Mutex
	layers []layer

	acquireSem vk.Semaphore
	renderSem  vk.Semaphore

	// imageInfo is the last CreateImages request, replayed on
	// OUT_OF_DATE so recreation picks up the new surface size.
	imageInfo xrt.CreateImagesInfo

	history [historyLen]xrt.Frame

	needsRecreate bool

	events eventMachine

	dying chan struct{}
	once  sync.Once
}

// New wires a session over an initialized target. The bundle may
// be nil for targets that never touch the GPU.
func New(cfg xrt.Config, b *vkb.Bundle, target xrt.Target, catalog *vkb.Catalog) (*Session, error) {
	s := &Session{
		cfg:     cfg,
		b:       b,
		target:  target,
		catalog: catalog,
		gc:      swapchain.NewGC(),
		dying:   make(chan struct{}),
	}
	if cfg.LogLevel != 0 {
		debug.SetLevel(cfg.LogLevel)
	}
	if b != nil {
		var err error
		if s.acquireSem, err = vkb.NewSemaphore(b.Device); err != nil {
			return nil, err
		}
		if s.renderSem, err = vkb.NewSemaphore(b.Device); err != nil {
			vk.DestroySemaphore(b.Device, s.acquireSem, nil)
			return nil, err
		}
	}
	return s, nil
}

// GC returns the deferred-destruction stack client swapchains
// register with.
func (s *Session) GC() *swapchain.GC { return s.gc }

// CreateImages sizes the target's presentable images. The request
// is remembered so OUT_OF_DATE recovery can replay it.
func (s *Session) CreateImages(info xrt.CreateImagesInfo) error {
	s.mu.Lock()
	s.imageInfo = info
	s.mu.Unlock()
	return s.target.CreateImages(info)
}

// CreateSwapchain builds a client swapchain of count images. The
// format must be in the catalog for the requested usage.
func (s *Session) CreateSwapchain(info xrt.SwapchainCreateInfo, count int) (xrt.Swapchain, error) {
	if s.b == nil {
		return nil, fmt.Errorf("session: no gpu bundle: %w", xrt.ErrRuntime)
	}
	if s.catalog != nil {
		if err := s.catalog.Check(info.Format, info.Usage); err != nil {
			return nil, err
		}
	}
	allocs, err := vkb.AllocImages(s.b, info, count)
	if err != nil {
		return nil, err
	}
	sync, err := vkb.NewImageSync(s.b, allocImages(allocs), info, false)
	if err != nil {
		vkb.FreeImages(s.b, allocs)
		return nil, err
	}
	images := make([]xrt.Image, len(allocs))
	for i, a := range allocs {
		images[i] = xrt.Image{Image: a.Image, View: a.View}
	}
	client, err := swapchain.New(info, images, sync, s.gc)
	if err != nil {
		sync.Destroy()
		vkb.FreeImages(s.b, allocs)
		return nil, err
	}
	s.addLayer(client, sync)
	return client, nil
}

func allocImages(allocs []vkb.Allocation) []vk.Image {
	imgs := make([]vk.Image, len(allocs))
	for i, a := range allocs {
		imgs[i] = a.Image
	}
	return imgs
}

// addLayer registers a client swapchain for composition.
func (s *Session) addLayer(client *swapchain.Client, sync layerSync) {
	s.mu.Lock()
	s.layers = append(s.layers, layer{client: client, sync: sync})
	s.mu.Unlock()
}

// WaitFrame predicts the next frame, sleeps until its wake time,
// and marks WAKE_UP. Returns ErrShutdown if the session dies
// while sleeping.
func (s *Session) WaitFrame() (xrt.Frame, error) {
	fr := s.target.CalcFramePacing()
	s.history[fr.ID%historyLen] = fr

	if d := time.Duration(fr.WakeUp - pacing.Now()); d > 0 {
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-s.dying:
			t.Stop()
			return xrt.Frame{}, xrt.ErrShutdown
		}
	}
	select {
	case <-s.dying:
		return xrt.Frame{}, xrt.ErrShutdown
	default:
	}
	s.target.MarkTimingPoint(xrt.TimingWakeUp, fr.ID, pacing.Now())
	return fr, nil
}

// Frame returns the timing record for frameID if still retained.
// Ids are positive; anything else is unknown.
func (s *Session) Frame(frameID int64) (xrt.Frame, bool) {
	if frameID <= 0 {
		return xrt.Frame{}, false
	}
	fr := s.history[frameID%historyLen]
	return fr, fr.ID == frameID
}

// Commit composes the most recently released image of every layer
// into the target and presents it.
//
// An OUT_OF_DATE present drops the frame, recreates the target
// images at the surface's current size, and reports success; the
// client never sees the error. SUBOPTIMAL presents the frame and
// schedules a recreate before the next commit.
func (s *Session) Commit(frameID int64) error {
	select {
	case <-s.dying:
		return xrt.ErrShutdown
	default:
	}
	fr, ok := s.Frame(frameID)
	if !ok {
		return fmt.Errorf("session: unknown frame %d: %w", frameID, xrt.ErrCallOrder)
	}
	s.target.MarkTimingPoint(xrt.TimingBegin, frameID, pacing.Now())

	if s.needsRecreate {
		if err := s.recreate(); err != nil {
			return err
		}
	}

	index, err := s.target.Acquire(s.acquireSem)
	switch {
	case errors.Is(err, xrt.ErrOutOfDate):
		return s.dropAndRecreate(frameID)
	case errors.Is(err, xrt.ErrSuboptimal):
		s.needsRecreate = true
	case err != nil:
		logger.EPrintf("frame %d: acquire: %s", frameID, err)
		s.finishFrame(false)
		return nil
	}

	s.compose(index)
	submitted := pacing.Now()

	err = s.target.Present(s.queue(), index, s.renderSem, fr.DesiredPresent, fr.PresentSlop)
	switch {
	case errors.Is(err, xrt.ErrOutOfDate):
		return s.dropAndRecreate(frameID)
	case errors.Is(err, xrt.ErrSuboptimal):
		s.needsRecreate = true
		s.target.MarkTimingPoint(xrt.TimingSubmit, frameID, submitted)
	case err != nil:
		// Dropped frame; the pacer gets no SUBMIT for it.
		logger.EPrintf("frame %d: present: %s", frameID, err)
		s.finishFrame(false)
		return nil
	default:
		s.target.MarkTimingPoint(xrt.TimingSubmit, frameID, submitted)
	}

	s.finishFrame(true)
	return nil
}

func (s *Session) queue() vk.Queue {
	if s.b == nil {
		return nil
	}
	return s.b.Queue
}

// compose samples each layer's most recently released image. A
// release that lands after this snapshot is not observed by the
// frame being built.
func (s *Session) compose(targetIndex int) {
	s.mu.Lock()
	layers := make([]layer, len(s.layers))
	copy(layers, s.layers)
	s.mu.Unlock()

	for _, l := range layers {
		idx := l.client.LastReleased()
		if idx < 0 {
			continue
		}
		if err := l.sync.SignalDone(idx); err != nil {
			logger.EPrintf("compose: layer image %d: %s", idx, err)
		}
	}
	_ = targetIndex
}

// finishFrame runs the post-submit bookkeeping: GC drain, pacing
// feedback, window-system flush, event progression. A dropped frame
// walks the event machine back toward ready; client swapchains are
// untouched.
func (s *Session) finishFrame(presented bool) {
	s.gc.Drain()
	s.target.UpdateTimings()
	s.target.Flush()
	s.events.targetOK(presented && s.target.CheckReady() && s.target.HasImages())
}

// dropAndRecreate handles a fatal surface change mid-commit.
func (s *Session) dropAndRecreate(frameID int64) error {
	logger.WPrintf("frame %d dropped: surface out of date", frameID)
	s.events.targetOK(false)
	if err := s.recreate(); err != nil {
		return err
	}
	s.gc.Drain()
	s.target.UpdateTimings()
	return nil
}

func (s *Session) recreate() error {
	s.mu.Lock()
	info := s.imageInfo
	s.mu.Unlock()
	if err := s.target.CreateImages(info); err != nil {
		return fmt.Errorf("session: recreate images: %w", err)
	}
	s.needsRecreate = false
	s.events.targetOK(true)
	return nil
}

// PollEvent returns the next compositor state change, at most one
// per call.
func (s *Session) PollEvent() (Event, bool) {
	return s.events.poll()
}

// State returns the currently advertised compositor state.
func (s *Session) State() State {
	return s.events.state()
}

// Destroy tears the session down: client swapchains drain through
// the GC, then the target goes. The caller destroys the bundle
// last. Safe to call repeatedly.
func (s *Session) Destroy() {
	s.once.Do(func() { close(s.dying) })

	s.mu.Lock()
	layers := s.layers
	s.layers = nil
	s.mu.Unlock()
	for _, l := range layers {
		l.client.Destroy()
	}
	// Final drain; anything still in flight is forced out since
	// no more frames will complete it.
	for s.gc.Pending() > 0 {
		if s.gc.Drain() == 0 {
			logger.WPrintf("teardown with %d swapchains still in flight", s.gc.Pending())
			break
		}
	}
	if s.target != nil {
		s.target.Destroy()
		s.target = nil
	}
	if s.b != nil {
		if s.acquireSem != vk.NullSemaphore {
			vk.DestroySemaphore(s.b.Device, s.acquireSem, nil)
			s.acquireSem = vk.NullSemaphore
		}
		if s.renderSem != vk.NullSemaphore {
			vk.DestroySemaphore(s.b.Device, s.renderSem, nil)
			s.renderSem = vk.NullSemaphore
		}
	}
}
