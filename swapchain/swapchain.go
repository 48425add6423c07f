// Copyright 2026 The monado-sub011 Authors. All rights reserved.

// Package swapchain implements the application-facing swapchain
// ring and its deferred-destruction machinery.
//
// Every image passes through READY → ACQUIRED → WAITED → READY in
// strict order: at most one image is WAITED at any time, indices
// are waited in the order they were acquired, and a static-image
// swapchain admits exactly one successful acquire over its whole
// lifetime.
package swapchain

import (
	"fmt"
	"sync"
	"time"

	"goarrg.com/debug"

	"github.com/shinyquagsire23/monado-sub011/internal/bitm"
	"github.com/shinyquagsire23/monado-sub011/xrt"
)

var logger = debug.NewLogger("comp", "swapchain")

// imageState is the per-image position in the ordering state
// machine.
type imageState uint8

const (
	stateReady imageState = iota
	stateAcquired
	stateWaited
)

func (s imageState) String() string {
	switch s {
	case stateReady:
		return "READY"
	case stateAcquired:
		return "ACQUIRED"
	case stateWaited:
		return "WAITED"
	}
	return "UNKNOWN"
}

// Syncer is the GPU-side half of a client swapchain. The real
// implementation wraps bundle fences and ownership-transfer
// barriers; tests substitute fakes.
type Syncer interface {
	// WaitAcquired blocks until image index's acquisition has
	// completed on the GPU, up to timeout. A zero timeout must not
	// block: it succeeds immediately or returns xrt.ErrTimeout.
	WaitAcquired(index int, timeout time.Duration) error

	// ToApp transfers image index's ownership to the application.
	ToApp(index int) error

	// ToComp transfers image index's ownership back to the
	// compositor.
	ToComp(index int) error

	// BarrierInWait reports whether the TO_APP transfer belongs in
	// Wait rather than Acquire. Captured once at construction.
	BarrierInWait() bool

	// Destroy releases the GPU resources backing the ring. Called
	// from the compositor thread only, via GC drain.
	Destroy()
}

// Client models one application-facing swapchain ring.
// It implements xrt.Swapchain.
type Client struct {
	mu   sync.Mutex
	info xrt.SwapchainCreateInfo

	images []xrt.Image
	states []imageState

	// nonReady mirrors the states slice: a set bit means the image
	// is not READY. Count() is the acquired count.
	nonReady bitm.Bitm[uint8]

	// fifo holds the ACQUIRED indices in acquire order. The WAITED
	// index has already been popped.
	fifo []int

	// inFlight is the single WAITED index, or -1.
	inFlight int

	// waiting is set while a Wait holds the fifo head with the
	// mutex released for the fence wait.
	waiting bool

	// lastReleased is the most recently released index, or -1. It
	// is what the compositor composes at commit.
	lastReleased int

	// cursor is where the next acquire starts scanning, so the
	// ring is walked round-robin and no index starves.
	cursor int

	staticAcquired bool

	sync          Syncer
	barrierInWait bool

	gc        *GC
	destroyed bool
}

var _ xrt.Swapchain = (*Client)(nil)

// New creates a client swapchain over a ring of images.
// The images must all match info; gc takes ownership of the GPU
// resources once the client drops the swapchain.
func New(info xrt.SwapchainCreateInfo, images []xrt.Image, sy Syncer, gc *GC) (*Client, error) {
	if info.Flags&xrt.SwapchainCreateProtected != 0 {
		return nil, fmt.Errorf("swapchain: protected content: %w", xrt.ErrFlagUnsupported)
	}
	switch info.FaceCount {
	case 0:
		info.FaceCount = 1
	case 1, 6:
	default:
		return nil, fmt.Errorf("swapchain: face count %d: %w", info.FaceCount, xrt.ErrCallOrder)
	}
	if n := len(images); n < 1 || n > xrt.ImageMax {
		return nil, fmt.Errorf("swapchain: image count %d: %w", len(images), xrt.ErrRuntime)
	}
	c := &Client{
		info:          info,
		images:        images,
		states:        make([]imageState, len(images)),
		inFlight:      -1,
		lastReleased:  -1,
		cursor:        len(images) - 1,
		sync:          sy,
		barrierInWait: sy.BarrierInWait(),
		gc:            gc,
	}
	c.nonReady.Grow((len(images) + 7) / 8)
	return c, nil
}

// checkLocked validates the state-machine invariants. Violations
// are programming errors inside this package, so it panics.
func (c *Client) checkLocked() {
	acquired := c.nonReady.Count()
	n := 0
	waited := 0
	for i, s := range c.states {
		if s != stateReady {
			n++
			if !c.nonReady.IsSet(i) {
				panic("swapchain: bitmap out of sync with states")
			}
		} else if c.nonReady.IsSet(i) {
			panic("swapchain: bitmap out of sync with states")
		}
		if s == stateWaited {
			waited++
		}
	}
	if n != acquired {
		panic("swapchain: acquired count out of sync")
	}
	if waited > 1 {
		panic("swapchain: more than one image WAITED")
	}
	w := 0
	if c.inFlight >= 0 {
		w = 1
		if c.states[c.inFlight] != stateWaited {
			panic("swapchain: in-flight index not WAITED")
		}
	}
	if waited != w {
		panic("swapchain: in-flight slot out of sync")
	}
	if len(c.fifo)+w != acquired {
		panic("swapchain: fifo out of sync with acquired count")
	}
	for _, i := range c.fifo {
		if c.states[i] != stateAcquired {
			panic("swapchain: fifo entry not ACQUIRED")
		}
	}
}

// Acquire implements xrt.Swapchain.
func (c *Client) Acquire() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkLocked()

	if c.nonReady.Count() >= len(c.images) {
		return -1, fmt.Errorf("swapchain: all %d images acquired: %w", len(c.images), xrt.ErrCallOrder)
	}
	if c.info.Flags&xrt.SwapchainCreateStaticImage != 0 && c.staticAcquired {
		return -1, fmt.Errorf("swapchain: static image already acquired: %w", xrt.ErrCallOrder)
	}

	n := len(c.images)
	index := -1
	for i := 1; i <= n; i++ {
		j := (c.cursor + i) % n
		if c.states[j] == stateReady {
			index = j
			break
		}
	}
	if index < 0 {
		panic("swapchain: no READY image below capacity")
	}

	if !c.barrierInWait {
		if err := c.sync.ToApp(index); err != nil {
			return -1, fmt.Errorf("swapchain: to-app transfer: %w", err)
		}
	}

	c.states[index] = stateAcquired
	c.nonReady.Set(index)
	c.fifo = append(c.fifo, index)
	c.cursor = index
	if c.lastReleased == index {
		c.lastReleased = -1
	}
	c.staticAcquired = true

	c.checkLocked()
	return index, nil
}

// Wait implements xrt.Swapchain. The fence wait happens with the
// mutex released, so compositor-side reads never block behind a
// client's timeout.
func (c *Client) Wait(timeout time.Duration) error {
	c.mu.Lock()
	c.checkLocked()

	if len(c.fifo) == 0 {
		c.mu.Unlock()
		return fmt.Errorf("swapchain: no image acquired: %w", xrt.ErrCallOrder)
	}
	if c.inFlight >= 0 {
		c.mu.Unlock()
		return fmt.Errorf("swapchain: index %d already WAITED: %w", c.inFlight, xrt.ErrCallOrder)
	}
	if c.waiting {
		c.mu.Unlock()
		return fmt.Errorf("swapchain: wait already in progress: %w", xrt.ErrCallOrder)
	}

	// Peek rather than pop: a timeout leaves the image ACQUIRED at
	// the head of the queue. Only Wait pops and waiting excludes a
	// second one, so the head cannot change while unlocked.
	index := c.fifo[0]
	c.waiting = true
	c.mu.Unlock()

	err := c.sync.WaitAcquired(index, timeout)
	if err == nil && c.barrierInWait {
		if terr := c.sync.ToApp(index); terr != nil {
			err = fmt.Errorf("swapchain: to-app transfer: %w", terr)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.waiting = false
	if err != nil {
		return err
	}
	c.fifo = c.fifo[1:]
	c.states[index] = stateWaited
	c.inFlight = index

	c.checkLocked()
	return nil
}

// Release implements xrt.Swapchain.
func (c *Client) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkLocked()

	if c.inFlight < 0 {
		return fmt.Errorf("swapchain: no image WAITED: %w", xrt.ErrCallOrder)
	}
	index := c.inFlight
	if err := c.sync.ToComp(index); err != nil {
		return fmt.Errorf("swapchain: to-comp transfer: %w", err)
	}

	c.states[index] = stateReady
	c.nonReady.Unset(index)
	c.inFlight = -1
	c.lastReleased = index

	c.checkLocked()
	return nil
}

// ImageCount implements xrt.Swapchain.
func (c *Client) ImageCount() int { return len(c.images) }

// Info implements xrt.Swapchain.
func (c *Client) Info() xrt.SwapchainCreateInfo { return c.info }

// Images returns the image ring for composition.
func (c *Client) Images() []xrt.Image {
	return append([]xrt.Image(nil), c.images...)
}

// LastReleased returns the most recently released index, or -1 if
// nothing has been published. This is a snapshot: a release that
// happens after the call is not observed by it.
func (c *Client) LastReleased() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastReleased
}

// AcquiredCount returns the number of images not in READY state.
func (c *Client) AcquiredCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonReady.Count()
}

// Destroy implements xrt.Swapchain. The GPU resources outlive the
// call: they are freed on the compositor thread when the garbage
// collector drains past the last in-flight reference.
func (c *Client) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	if c.inFlight >= 0 || len(c.fifo) > 0 {
		logger.EPrintf("swapchain destroyed with %d in-flight image(s); this is a caller bug",
			c.nonReady.Count())
	}
	gc := c.gc
	c.mu.Unlock()
	if gc != nil {
		gc.push(c)
	} else {
		c.sync.Destroy()
	}
}

// collectable reports whether the GPU resources may be freed now.
// A pending fence wait still touches the Syncer, so it keeps the
// swapchain alive.
func (c *Client) collectable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight < 0 && !c.waiting
}
