// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package swapchain

import (
	"sync"
)

// GC owns client swapchains after the client drops them. Push is
// safe from any thread; Drain runs only on the compositor thread,
// once per presented frame, after the platform has acknowledged
// that prior frames' GPU work cannot still reference the objects.
type GC struct {
	mu    sync.Mutex
	stack []*Client
}

// NewGC creates an empty garbage collector.
func NewGC() *GC {
	return &GC{}
}

// push hands a dropped swapchain to the collector.
func (g *GC) push(c *Client) {
	g.mu.Lock()
	g.stack = append(g.stack, c)
	g.mu.Unlock()
}

// Pending returns the number of swapchains awaiting destruction.
func (g *GC) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.stack)
}

// Drain frees every collectable swapchain on the stack and returns
// how many it freed. Swapchains that still hold an in-flight index
// survive to the next drain so the GPU can finish with them first.
func (g *GC) Drain() int {
	g.mu.Lock()
	stack := g.stack
	g.stack = nil
	g.mu.Unlock()

	freed := 0
	var kept []*Client
	for _, c := range stack {
		if c.collectable() {
			c.sync.Destroy()
			freed++
		} else {
			kept = append(kept, c)
		}
	}
	if len(kept) > 0 {
		logger.VPrintf("gc: %d swapchain(s) still in flight", len(kept))
		g.mu.Lock()
		g.stack = append(g.stack, kept...)
		g.mu.Unlock()
	}
	return freed
}
