// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package vkb

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/shinyquagsire23/monado-sub011/xrt"
)

// colorCandidates and depthCandidates are the only formats the
// catalog will ever advertise, in preference order. A format the
// device supports but this list omits is never advertised.
var colorCandidates = []xrt.Format{
	xrt.FormatR16G16B16A16Unorm,
	xrt.FormatR16G16B16A16Sfloat,
	xrt.FormatR16G16B16Unorm,
	xrt.FormatR16G16B16Sfloat,
	xrt.FormatR8G8B8A8Srgb,
	xrt.FormatB8G8R8A8Srgb,
	xrt.FormatR8G8B8Srgb,
	xrt.FormatR8G8B8A8Unorm,
	xrt.FormatB8G8R8A8Unorm,
	xrt.FormatR8G8B8Unorm,
	xrt.FormatB8G8R8Unorm,
}

var depthCandidates = []xrt.Format{
	xrt.FormatD16Unorm,
	xrt.FormatD32Sfloat,
	xrt.FormatD24UnormS8Uint,
	xrt.FormatD32SfloatS8Uint,
}

// Prober answers per-format capability questions. The bundle
// implements it against the device; tests substitute fakes.
type Prober interface {
	// Sampled reports optimal-tiling sampled-image support.
	Sampled(f xrt.Format) bool
	// Renderable reports color-attachment support for color
	// formats and depth-stencil-attachment support for the rest.
	Renderable(f xrt.Format) bool
	// External reports whether the format can be both imported
	// and exported with the platform's buffer handle type.
	External(f xrt.Format) bool
	// AndroidHardwareBuffer reports whether the platform's
	// external buffer type is the Android hardware buffer.
	AndroidHardwareBuffer() bool
}

// Catalog is the set of formats the compositor advertises.
type Catalog struct {
	Colors []xrt.Format
	Depths []xrt.Format
	// Emulated formats are advertised but not natively
	// importable; sRGB transfer happens in shaders.
	Emulated map[xrt.Format]bool
}

// NewCatalog probes every candidate and keeps the qualifying ones
// in preference order. A format qualifies only when it is sampled,
// renderable for its aspect, and externally importable and
// exportable.
func NewCatalog(p Prober) *Catalog {
	c := &Catalog{Emulated: make(map[xrt.Format]bool)}
	for _, f := range colorCandidates {
		if qualifies(p, f) {
			c.Colors = append(c.Colors, f)
			continue
		}
		// Android drivers often lack external sRGB. An UNORM
		// alias plus shader transfer stands in for it.
		if f == xrt.FormatR8G8B8A8Srgb && p.AndroidHardwareBuffer() &&
			p.Sampled(f) && p.Renderable(f) && qualifies(p, xrt.FormatR8G8B8A8Unorm) {
			c.Colors = append(c.Colors, f)
			c.Emulated[f] = true
		}
	}
	for _, f := range depthCandidates {
		if qualifies(p, f) {
			c.Depths = append(c.Depths, f)
		}
	}
	return c
}

func qualifies(p Prober, f xrt.Format) bool {
	return p.Sampled(f) && p.Renderable(f) && p.External(f)
}

// Supports reports whether f is advertised for the given usage.
// Color usage on a depth format never qualifies, regardless of
// what the device reports.
func (c *Catalog) Supports(f xrt.Format, usage xrt.SwapchainUsage) bool {
	if usage&xrt.UsageColor != 0 && (f.HasDepth() || f.HasStencil()) {
		return false
	}
	if usage&xrt.UsageDepthStencil != 0 && !f.HasDepth() && !f.HasStencil() {
		return false
	}
	for _, have := range c.Colors {
		if have == f {
			return true
		}
	}
	for _, have := range c.Depths {
		if have == f {
			return true
		}
	}
	return false
}

// Check returns ErrFormatUnsupported unless f is advertised for
// the given usage.
func (c *Catalog) Check(f xrt.Format, usage xrt.SwapchainUsage) error {
	if !c.Supports(f, usage) {
		return fmt.Errorf("format %s with usage %#x: %w", f, usage, xrt.ErrFormatUnsupported)
	}
	return nil
}

// deviceProber probes the physical device. External import/export
// requires the bundle to have negotiated the external memory
// extensions; without them nothing is externally shareable.
type deviceProber struct {
	b *Bundle
}

// NewProber returns a Prober backed by the bundle's device.
func NewProber(b *Bundle) Prober { return deviceProber{b} }

func (p deviceProber) formatFeatures(f xrt.Format) vk.FormatFeatureFlags {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(p.b.GPU, vk.Format(f), &props)
	props.Deref()
	return props.OptimalTilingFeatures
}

func (p deviceProber) Sampled(f xrt.Format) bool {
	return p.formatFeatures(f)&vk.FormatFeatureFlags(vk.FormatFeatureSampledImageBit) != 0
}

func (p deviceProber) Renderable(f xrt.Format) bool {
	want := vk.FormatFeatureFlags(vk.FormatFeatureColorAttachmentBit)
	if f.HasDepth() || f.HasStencil() {
		want = vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	}
	return p.formatFeatures(f)&want != 0
}

func (p deviceProber) External(f xrt.Format) bool {
	if !p.b.Features.ExternalMemory {
		return false
	}
	usage := vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	if f.HasDepth() || f.HasStencil() {
		usage |= vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
	} else {
		usage |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	}
	var props vk.ImageFormatProperties
	ret := vk.GetPhysicalDeviceImageFormatProperties(p.b.GPU, vk.Format(f),
		vk.ImageType2d, vk.ImageTilingOptimal, usage, 0, &props)
	return ret == vk.Success
}

func (p deviceProber) AndroidHardwareBuffer() bool { return false }
