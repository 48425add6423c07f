// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package vkb

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/shinyquagsire23/monado-sub011/xrt"
)

// Allocation is one device-local swapchain image with its memory,
// the compositor-facing view, and when the format has alpha an
// alpha-less view for layers that ignore it.
type Allocation struct {
	Image   vk.Image
	Memory  vk.DeviceMemory
	View    vk.ImageView
	NoAlpha vk.ImageView
}

// csci translates a swapchain create info into the Vulkan image
// create info. Returns an error for usage bits the device cannot
// express on this format.
func csci(info xrt.SwapchainCreateInfo) (vk.ImageCreateInfo, error) {
	usage := vk.ImageUsageFlags(0)
	if info.Usage&xrt.UsageColor != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	}
	if info.Usage&xrt.UsageDepthStencil != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
	}
	if info.Usage&xrt.UsageUnordered != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageStorageBit)
	}
	if info.Usage&xrt.UsageTransferSrc != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)
	}
	if info.Usage&xrt.UsageTransferDst != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	}
	if info.Usage&xrt.UsageSampled != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	}
	if info.Usage&xrt.UsageInputAttachment != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageInputAttachmentBit)
	}
	if usage == 0 {
		return vk.ImageCreateInfo{}, fmt.Errorf("vkb: no usage bits: %w", xrt.ErrFlagUnsupported)
	}
	if info.Usage&xrt.UsageColor != 0 && info.Format.HasDepth() {
		return vk.ImageCreateInfo{}, fmt.Errorf("vkb: color usage on depth format %s: %w",
			info.Format, xrt.ErrFlagUnsupported)
	}
	if info.Usage&xrt.UsageDepthStencil != 0 && !info.Format.HasDepth() && !info.Format.HasStencil() {
		return vk.ImageCreateInfo{}, fmt.Errorf("vkb: depth usage on color format %s: %w",
			info.Format, xrt.ErrFlagUnsupported)
	}

	flags := vk.ImageCreateFlags(0)
	layers := uint32(max(info.ArraySize, 1))
	if info.FaceCount == 6 {
		layers *= 6
		flags |= vk.ImageCreateFlags(vk.ImageCreateCubeCompatibleBit)
	}
	if info.Usage&xrt.UsageMutableFormat != 0 {
		flags |= vk.ImageCreateFlags(vk.ImageCreateMutableFormatBit)
	}

	return vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		Flags:     flags,
		ImageType: vk.ImageType2d,
		Format:    vk.Format(info.Format),
		Extent: vk.Extent3D{
			Width:  uint32(info.Width),
			Height: uint32(info.Height),
			Depth:  1,
		},
		MipLevels:     uint32(max(info.MipCount, 1)),
		ArrayLayers:   layers,
		Samples:       vk.SampleCountFlagBits(max(info.SampleCount, 1)),
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil
}

// AllocImages creates count images per info, backed by device-local
// memory, with compositor views. When the bundle negotiated external
// memory the images and memory are created exportable, so a client
// in another process can import them. On error everything already
// allocated is freed.
func AllocImages(b *Bundle, info xrt.SwapchainCreateInfo, count int) ([]Allocation, error) {
	ici, err := csci(info)
	if err != nil {
		return nil, err
	}
	var extImage vk.ExternalMemoryImageCreateInfo
	var extAlloc vk.ExportMemoryAllocateInfo
	if b.Features.ExternalMemory {
		extImage = vk.ExternalMemoryImageCreateInfo{
			SType:       vk.StructureTypeExternalMemoryImageCreateInfo,
			HandleTypes: vk.ExternalMemoryHandleTypeFlags(vk.ExternalMemoryHandleTypeOpaqueFdBit),
		}
		extAlloc = vk.ExportMemoryAllocateInfo{
			SType:       vk.StructureTypeExportMemoryAllocateInfo,
			HandleTypes: extImage.HandleTypes,
		}
		ici.PNext = unsafe.Pointer(&extImage)
	}
	allocs := make([]Allocation, 0, count)
	fail := func(err error) ([]Allocation, error) {
		FreeImages(b, allocs)
		return nil, err
	}
	for i := 0; i < count; i++ {
		var a Allocation
		ret := vk.CreateImage(b.Device, &ici, nil, &a.Image)
		if err := ErrFor(ret); err != nil {
			return fail(fmt.Errorf("vkb: create image %d: %w", i, err))
		}
		allocs = append(allocs, a)

		var reqs vk.MemoryRequirements
		vk.GetImageMemoryRequirements(b.Device, a.Image, &reqs)
		reqs.Deref()
		var memProps vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(b.GPU, &memProps)
		memProps.Deref()
		memType, ok := findMemoryType(memProps, reqs.MemoryTypeBits,
			vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
		if !ok {
			return fail(fmt.Errorf("vkb: no device-local memory type: %w", xrt.ErrRuntime))
		}
		mai := vk.MemoryAllocateInfo{
			SType:           vk.StructureTypeMemoryAllocateInfo,
			AllocationSize:  reqs.Size,
			MemoryTypeIndex: memType,
		}
		if b.Features.ExternalMemory {
			mai.PNext = unsafe.Pointer(&extAlloc)
		}
		ret = vk.AllocateMemory(b.Device, &mai, nil, &allocs[i].Memory)
		if err := ErrFor(ret); err != nil {
			return fail(fmt.Errorf("vkb: alloc image memory %d: %w", i, err))
		}
		ret = vk.BindImageMemory(b.Device, allocs[i].Image, allocs[i].Memory, 0)
		if err := ErrFor(ret); err != nil {
			return fail(fmt.Errorf("vkb: bind image memory %d: %w", i, err))
		}
		if err := makeViews(b, &allocs[i], info); err != nil {
			return fail(err)
		}
	}
	return allocs, nil
}

func makeViews(b *Bundle, a *Allocation, info xrt.SwapchainCreateInfo) error {
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if info.Format.HasDepth() {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	layers := uint32(max(info.ArraySize, 1))
	viewType := vk.ImageViewType2d
	switch {
	case info.FaceCount == 6:
		layers *= 6
		viewType = vk.ImageViewTypeCube
	case layers > 1:
		viewType = vk.ImageViewType2dArray
	}
	vci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    a.Image,
		ViewType: viewType,
		Format:   vk.Format(info.Format),
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: uint32(max(info.MipCount, 1)),
			LayerCount: layers,
		},
	}
	if err := ErrFor(vk.CreateImageView(b.Device, &vci, nil, &a.View)); err != nil {
		return fmt.Errorf("vkb: create view: %w", err)
	}
	if aspect == vk.ImageAspectFlags(vk.ImageAspectColorBit) {
		vci.Components = vk.ComponentMapping{A: vk.ComponentSwizzleOne}
		if err := ErrFor(vk.CreateImageView(b.Device, &vci, nil, &a.NoAlpha)); err != nil {
			return fmt.Errorf("vkb: create no-alpha view: %w", err)
		}
	}
	return nil
}

// FreeImages releases allocations in reverse creation order.
func FreeImages(b *Bundle, allocs []Allocation) {
	for i := len(allocs) - 1; i >= 0; i-- {
		a := &allocs[i]
		if a.NoAlpha != vk.NullImageView {
			vk.DestroyImageView(b.Device, a.NoAlpha, nil)
			a.NoAlpha = vk.NullImageView
		}
		if a.View != vk.NullImageView {
			vk.DestroyImageView(b.Device, a.View, nil)
			a.View = vk.NullImageView
		}
		if a.Image != vk.NullImage {
			vk.DestroyImage(b.Device, a.Image, nil)
			a.Image = vk.NullImage
		}
		if a.Memory != vk.NullDeviceMemory {
			vk.FreeMemory(b.Device, a.Memory, nil)
			a.Memory = vk.NullDeviceMemory
		}
	}
}

func findMemoryType(props vk.PhysicalDeviceMemoryProperties, typeBits uint32, want vk.MemoryPropertyFlags) (uint32, bool) {
	for i := uint32(0); i < vk.MaxMemoryTypes; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		props.MemoryTypes[i].Deref()
		if props.MemoryTypes[i].PropertyFlags&want == want {
			return i, true
		}
	}
	return 0, false
}
