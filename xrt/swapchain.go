// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package xrt

import "time"

// ImageMax is the largest image ring a client swapchain may own.
const ImageMax = 8

// SwapchainUsage are the usage bits a client requests for a
// swapchain's images.
type SwapchainUsage uint32

const (
	UsageColor SwapchainUsage = 1 << iota
	UsageDepthStencil
	UsageUnordered
	UsageTransferSrc
	UsageTransferDst
	UsageSampled
	UsageMutableFormat
	UsageInputAttachment
)

// SwapchainCreateFlags carry the create flags of the client
// contract.
type SwapchainCreateFlags uint32

const (
	// SwapchainCreateProtected requests protected content images.
	SwapchainCreateProtected SwapchainCreateFlags = 1 << iota

	// SwapchainCreateStaticImage marks a swapchain whose content is
	// set once and presented repeatedly. Acquire succeeds exactly
	// once over the swapchain's lifetime.
	SwapchainCreateStaticImage
)

// SwapchainCreateInfo is the creation-info snapshot a client
// swapchain keeps for its whole lifetime.
type SwapchainCreateInfo struct {
	Width, Height int
	Format        Format
	Usage         SwapchainUsage
	Flags         SwapchainCreateFlags
	ArraySize     int
	// FaceCount is 1, or 6 for cube swapchains.
	FaceCount   int
	MipCount    int
	SampleCount int
}

// Swapchain is an application-facing swapchain ring.
// Every image passes through READY → ACQUIRED → WAITED → READY in
// strict order. Acquire, Wait and Release must be called from a
// single thread at a time; cross-thread handoffs must be externally
// synchronized.
type Swapchain interface {
	// Acquire marks a READY image as ACQUIRED and returns its
	// index. It fails with ErrCallOrder when all images are
	// acquired, or when the swapchain is static-image and a
	// release has already happened.
	Acquire() (index int, err error)

	// Wait pops the oldest ACQUIRED index, waits up to timeout for
	// its acquisition to complete on the GPU and marks it WAITED.
	// At most one image is WAITED at a time. A zero timeout never
	// blocks: it either succeeds immediately or returns ErrTimeout.
	Wait(timeout time.Duration) error

	// Release returns the WAITED image to READY and publishes it
	// as the most recently released index.
	Release() error

	// ImageCount returns the size of the image ring.
	ImageCount() int

	// Info returns the creation-info snapshot.
	Info() SwapchainCreateInfo

	// Destroy drops the client's reference. GPU resources are
	// released later, from the compositor thread, once no in-flight
	// frame can still reference them.
	Destroy()
}
