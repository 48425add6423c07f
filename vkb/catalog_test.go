// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package vkb

import (
	"errors"
	"testing"

	"github.com/shinyquagsire23/monado-sub011/xrt"
)

// fakeProber reports capabilities from explicit sets.
type fakeProber struct {
	sampled    map[xrt.Format]bool
	renderable map[xrt.Format]bool
	external   map[xrt.Format]bool
	ahb        bool
}

func (p fakeProber) Sampled(f xrt.Format) bool    { return p.sampled[f] }
func (p fakeProber) Renderable(f xrt.Format) bool { return p.renderable[f] }
func (p fakeProber) External(f xrt.Format) bool   { return p.external[f] }
func (p fakeProber) AndroidHardwareBuffer() bool  { return p.ahb }

// allOf marks every candidate format true.
func allOf() map[xrt.Format]bool {
	m := make(map[xrt.Format]bool)
	for _, f := range colorCandidates {
		m[f] = true
	}
	for _, f := range depthCandidates {
		m[f] = true
	}
	return m
}

func fullProber() fakeProber {
	return fakeProber{sampled: allOf(), renderable: allOf(), external: allOf()}
}

func TestCatalogOrder(t *testing.T) {
	c := NewCatalog(fullProber())
	if len(c.Colors) != len(colorCandidates) {
		t.Fatalf("colors: have %d, want %d", len(c.Colors), len(colorCandidates))
	}
	for i, f := range colorCandidates {
		if c.Colors[i] != f {
			t.Fatalf("colors[%d]: have %s, want %s", i, c.Colors[i], f)
		}
	}
	if len(c.Depths) != len(depthCandidates) {
		t.Fatalf("depths: have %d, want %d", len(c.Depths), len(depthCandidates))
	}
	if len(c.Emulated) != 0 {
		t.Fatalf("emulated: have %d formats, want none", len(c.Emulated))
	}
}

func TestCatalogAllThreeRequired(t *testing.T) {
	f := xrt.FormatB8G8R8A8Srgb
	for _, tc := range []struct {
		name string
		mod  func(*fakeProber)
	}{
		{"no sampled", func(p *fakeProber) { p.sampled[f] = false }},
		{"no renderable", func(p *fakeProber) { p.renderable[f] = false }},
		{"no external", func(p *fakeProber) { p.external[f] = false }},
	} {
		p := fullProber()
		tc.mod(&p)
		c := NewCatalog(p)
		if c.Supports(f, xrt.UsageColor) {
			t.Fatalf("%s: %s advertised, want dropped", tc.name, f)
		}
	}
}

func TestCatalogDepthWithColorUsage(t *testing.T) {
	c := NewCatalog(fullProber())
	if c.Supports(xrt.FormatD24UnormS8Uint, xrt.UsageColor) {
		t.Fatal("D24_UNORM_S8_UINT with color usage: have supported, want not")
	}
	if !c.Supports(xrt.FormatD24UnormS8Uint, xrt.UsageDepthStencil) {
		t.Fatal("D24_UNORM_S8_UINT with depth usage: have not supported, want supported")
	}
	err := c.Check(xrt.FormatD24UnormS8Uint, xrt.UsageColor)
	if !errors.Is(err, xrt.ErrFormatUnsupported) {
		t.Fatalf("Check: have %v, want ErrFormatUnsupported", err)
	}
}

func TestCatalogUnlistedNeverAdvertised(t *testing.T) {
	p := fullProber()
	// R5G6B5 (VkFormat 4) is supported nearly everywhere but is
	// not a candidate.
	const r5g6b5 = xrt.Format(4)
	p.sampled[r5g6b5] = true
	p.renderable[r5g6b5] = true
	p.external[r5g6b5] = true
	c := NewCatalog(p)
	if c.Supports(r5g6b5, xrt.UsageColor) {
		t.Fatal("non-candidate format advertised")
	}
}

func TestCatalogAndroidSRGBEmulation(t *testing.T) {
	p := fullProber()
	p.ahb = true
	p.external[xrt.FormatR8G8B8A8Srgb] = false
	c := NewCatalog(p)
	if !c.Supports(xrt.FormatR8G8B8A8Srgb, xrt.UsageColor) {
		t.Fatal("R8G8B8A8_SRGB: have not supported, want emulated")
	}
	if !c.Emulated[xrt.FormatR8G8B8A8Srgb] {
		t.Fatal("R8G8B8A8_SRGB: emulated flag not set")
	}

	// Without the hardware-buffer platform the same gap just
	// drops the format.
	p.ahb = false
	c = NewCatalog(p)
	if c.Supports(xrt.FormatR8G8B8A8Srgb, xrt.UsageColor) {
		t.Fatal("R8G8B8A8_SRGB: have supported, want dropped")
	}
	if c.Emulated[xrt.FormatR8G8B8A8Srgb] {
		t.Fatal("R8G8B8A8_SRGB: emulated flag set off-platform")
	}

	// Emulation needs the UNORM alias to qualify.
	p = fullProber()
	p.ahb = true
	p.external[xrt.FormatR8G8B8A8Srgb] = false
	p.external[xrt.FormatR8G8B8A8Unorm] = false
	c = NewCatalog(p)
	if c.Supports(xrt.FormatR8G8B8A8Srgb, xrt.UsageColor) {
		t.Fatal("R8G8B8A8_SRGB: have supported, want dropped without UNORM alias")
	}
}

func TestCatalogPartialDevice(t *testing.T) {
	p := fullProber()
	p.renderable[xrt.FormatR16G16B16Unorm] = false
	p.renderable[xrt.FormatR16G16B16Sfloat] = false
	p.external[xrt.FormatD24UnormS8Uint] = false
	c := NewCatalog(p)
	want := []xrt.Format{
		xrt.FormatR16G16B16A16Unorm,
		xrt.FormatR16G16B16A16Sfloat,
		xrt.FormatR8G8B8A8Srgb,
		xrt.FormatB8G8R8A8Srgb,
		xrt.FormatR8G8B8Srgb,
		xrt.FormatR8G8B8A8Unorm,
		xrt.FormatB8G8R8A8Unorm,
		xrt.FormatR8G8B8Unorm,
		xrt.FormatB8G8R8Unorm,
	}
	if len(c.Colors) != len(want) {
		t.Fatalf("colors: have %d, want %d", len(c.Colors), len(want))
	}
	for i := range want {
		if c.Colors[i] != want[i] {
			t.Fatalf("colors[%d]: have %s, want %s", i, c.Colors[i], want[i])
		}
	}
	wantD := []xrt.Format{xrt.FormatD16Unorm, xrt.FormatD32Sfloat, xrt.FormatD32SfloatS8Uint}
	if len(c.Depths) != len(wantD) {
		t.Fatalf("depths: have %d, want %d", len(c.Depths), len(wantD))
	}
	for i := range wantD {
		if c.Depths[i] != wantD[i] {
			t.Fatalf("depths[%d]: have %s, want %s", i, c.Depths[i], wantD[i])
		}
	}
}
