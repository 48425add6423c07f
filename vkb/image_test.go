// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package vkb

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/shinyquagsire23/monado-sub011/xrt"
)

func TestImageInfoUsage(t *testing.T) {
	info := xrt.SwapchainCreateInfo{
		Width:  1280,
		Height: 720,
		Format: xrt.FormatB8G8R8A8Srgb,
		Usage:  xrt.UsageColor | xrt.UsageSampled | xrt.UsageTransferDst,
	}
	ici, err := csci(info)
	if err != nil {
		t.Fatalf("csci: %v", err)
	}
	want := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit |
		vk.ImageUsageSampledBit | vk.ImageUsageTransferDstBit)
	if ici.Usage != want {
		t.Fatalf("usage: have %#x, want %#x", ici.Usage, want)
	}
	if ici.ArrayLayers != 1 || ici.MipLevels != 1 {
		t.Fatalf("layers/mips: have %d/%d, want 1/1", ici.ArrayLayers, ici.MipLevels)
	}
	if ici.Extent.Width != 1280 || ici.Extent.Height != 720 || ici.Extent.Depth != 1 {
		t.Fatalf("extent: have %dx%dx%d, want 1280x720x1",
			ici.Extent.Width, ici.Extent.Height, ici.Extent.Depth)
	}
	if ici.Samples != vk.SampleCount1Bit {
		t.Fatalf("samples: have %d, want 1", ici.Samples)
	}
}

func TestImageInfoCube(t *testing.T) {
	info := xrt.SwapchainCreateInfo{
		Width:     512,
		Height:    512,
		Format:    xrt.FormatR8G8B8A8Srgb,
		Usage:     xrt.UsageColor | xrt.UsageSampled,
		ArraySize: 2,
		FaceCount: 6,
		MipCount:  4,
	}
	ici, err := csci(info)
	if err != nil {
		t.Fatalf("csci: %v", err)
	}
	if ici.ArrayLayers != 12 {
		t.Fatalf("layers: have %d, want 12", ici.ArrayLayers)
	}
	if ici.Flags&vk.ImageCreateFlags(vk.ImageCreateCubeCompatibleBit) == 0 {
		t.Fatal("cube-compatible flag not set")
	}
	if ici.MipLevels != 4 {
		t.Fatalf("mips: have %d, want 4", ici.MipLevels)
	}
}

func TestImageInfoBadUsage(t *testing.T) {
	_, err := csci(xrt.SwapchainCreateInfo{
		Width:  64,
		Height: 64,
		Format: xrt.FormatD32Sfloat,
		Usage:  xrt.UsageColor,
	})
	if !errors.Is(err, xrt.ErrFlagUnsupported) {
		t.Fatalf("color on depth: have %v, want ErrFlagUnsupported", err)
	}
	_, err = csci(xrt.SwapchainCreateInfo{
		Width:  64,
		Height: 64,
		Format: xrt.FormatB8G8R8A8Srgb,
		Usage:  xrt.UsageDepthStencil,
	})
	if !errors.Is(err, xrt.ErrFlagUnsupported) {
		t.Fatalf("depth on color: have %v, want ErrFlagUnsupported", err)
	}
	_, err = csci(xrt.SwapchainCreateInfo{
		Width:  64,
		Height: 64,
		Format: xrt.FormatB8G8R8A8Srgb,
	})
	if !errors.Is(err, xrt.ErrFlagUnsupported) {
		t.Fatalf("no usage: have %v, want ErrFlagUnsupported", err)
	}
}
