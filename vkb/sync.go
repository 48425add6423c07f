// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package vkb

import (
	"fmt"
	"time"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/shinyquagsire23/monado-sub011/xrt"
)

// NewSemaphore creates a plain binary semaphore.
func NewSemaphore(dev vk.Device) (vk.Semaphore, error) {
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(dev, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &sem)
	if err := ErrFor(ret); err != nil {
		return vk.NullSemaphore, fmt.Errorf("vkb: create semaphore: %w", err)
	}
	return sem, nil
}

// NewTimelineSemaphore creates a timeline semaphore starting at
// value. The bundle must have negotiated Features.TimelineSemaphore.
func NewTimelineSemaphore(b *Bundle, value uint64) (vk.Semaphore, error) {
	if !b.Features.TimelineSemaphore {
		return vk.NullSemaphore, fmt.Errorf("vkb: timeline semaphores: %w", xrt.ErrFeatureUnsupported)
	}
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(b.Device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
		PNext: unsafe.Pointer(&vk.SemaphoreTypeCreateInfo{
			SType:         vk.StructureTypeSemaphoreTypeCreateInfo,
			SemaphoreType: vk.SemaphoreTypeTimeline,
			InitialValue:  value,
		}),
	}, nil, &sem)
	if err := ErrFor(ret); err != nil {
		return vk.NullSemaphore, fmt.Errorf("vkb: create timeline semaphore: %w", err)
	}
	return sem, nil
}

// NewFence creates a fence, optionally pre-signaled.
func NewFence(dev vk.Device, signaled bool) (vk.Fence, error) {
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var f vk.Fence
	ret := vk.CreateFence(dev, &info, nil, &f)
	if err := ErrFor(ret); err != nil {
		return vk.NullFence, fmt.Errorf("vkb: create fence: %w", err)
	}
	return f, nil
}

// ImageSync synchronizes one swapchain's images between the app and
// the compositor. Each image carries a fence that the compositor
// submits with the work reading it; waiting on the fence is how the
// app learns the image is safe to write again. Queue ownership stays
// on the one bundle queue, so ToApp/ToComp are layout transitions.
type ImageSync struct {
	b             *Bundle
	images        []vk.Image
	fences        []vk.Fence
	aspect        vk.ImageAspectFlags
	layerCount    uint32
	mipCount      uint32
	barrierInWait bool
}

// NewImageSync builds synchronization state for images. When
// barrierInWait is set the app-facing transition happens at wait
// time instead of acquire time.
func NewImageSync(b *Bundle, images []vk.Image, info xrt.SwapchainCreateInfo, barrierInWait bool) (*ImageSync, error) {
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if info.Format.HasDepth() {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
		if info.Format.HasStencil() {
			aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
		}
	}
	s := &ImageSync{
		b:             b,
		images:        images,
		aspect:        aspect,
		layerCount:    uint32(max(info.ArraySize, 1) * max(info.FaceCount, 1)),
		mipCount:      uint32(max(info.MipCount, 1)),
		barrierInWait: barrierInWait,
	}
	for range images {
		f, err := NewFence(b.Device, true)
		if err != nil {
			s.Destroy()
			return nil, err
		}
		s.fences = append(s.fences, f)
	}
	return s, nil
}

// BarrierInWait reports where the app-facing barrier is issued.
func (s *ImageSync) BarrierInWait() bool { return s.barrierInWait }

// Fence returns the fence the compositor must submit with work that
// reads image index.
func (s *ImageSync) Fence(index int) vk.Fence { return s.fences[index] }

// WaitAcquired blocks until the compositor is done with image index.
// The fence stays signaled; SignalDone rearms it when the
// compositor reads the image again.
func (s *ImageSync) WaitAcquired(index int, timeout time.Duration) error {
	ret := vk.WaitForFences(s.b.Device, 1, s.fences[index:index+1], vk.True, uint64(timeout))
	if ret == vk.Timeout {
		return xrt.ErrTimeout
	}
	if err := ErrFor(ret); err != nil {
		return fmt.Errorf("vkb: wait image %d: %w", index, err)
	}
	return nil
}

// SignalDone rearms image index's fence behind the queue work that
// read it. The compositor calls this after composing the image;
// until the fence signals again, WaitAcquired on the index blocks.
func (s *ImageSync) SignalDone(index int) error {
	ret := vk.ResetFences(s.b.Device, 1, s.fences[index:index+1])
	if err := ErrFor(ret); err != nil {
		return fmt.Errorf("vkb: reset fence %d: %w", index, err)
	}
	ret = vk.QueueSubmit(s.b.Queue, 0, nil, s.fences[index])
	if err := ErrFor(ret); err != nil {
		return fmt.Errorf("vkb: signal fence %d: %w", index, err)
	}
	return nil
}

// ToApp transitions image index for app rendering.
func (s *ImageSync) ToApp(index int) error {
	return s.barrier(index,
		vk.AccessFlags(vk.AccessShaderReadBit),
		vk.AccessFlags(vk.AccessColorAttachmentWriteBit|vk.AccessShaderWriteBit),
		vk.ImageLayoutShaderReadOnlyOptimal,
		vk.ImageLayoutColorAttachmentOptimal)
}

// ToComp transitions image index for compositor sampling.
func (s *ImageSync) ToComp(index int) error {
	return s.barrier(index,
		vk.AccessFlags(vk.AccessColorAttachmentWriteBit|vk.AccessShaderWriteBit),
		vk.AccessFlags(vk.AccessShaderReadBit),
		vk.ImageLayoutColorAttachmentOptimal,
		vk.ImageLayoutShaderReadOnlyOptimal)
}

func (s *ImageSync) barrier(index int, srcAccess, dstAccess vk.AccessFlags, oldLayout, newLayout vk.ImageLayout) error {
	if s.aspect != vk.ImageAspectFlags(vk.ImageAspectColorBit) {
		if oldLayout == vk.ImageLayoutColorAttachmentOptimal {
			oldLayout = vk.ImageLayoutDepthStencilAttachmentOptimal
		}
		if newLayout == vk.ImageLayoutColorAttachmentOptimal {
			newLayout = vk.ImageLayoutDepthStencilAttachmentOptimal
		}
	}
	cmd, err := s.b.beginOneShot()
	if err != nil {
		return err
	}
	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       srcAccess,
			DstAccessMask:       dstAccess,
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               s.images[index],
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: s.aspect,
				LevelCount: s.mipCount,
				LayerCount: s.layerCount,
			},
		}})
	return s.b.endOneShot(cmd)
}

// Destroy releases the fences. Images are owned by the allocator.
func (s *ImageSync) Destroy() {
	for _, f := range s.fences {
		if f != vk.NullFence {
			vk.DestroyFence(s.b.Device, f, nil)
		}
	}
	s.fences = nil
}

// beginOneShot allocates and begins a transient command buffer.
func (b *Bundle) beginOneShot() (vk.CommandBuffer, error) {
	cmds := make([]vk.CommandBuffer, 1)
	ret := vk.AllocateCommandBuffers(b.Device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        b.CmdPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, cmds)
	if err := ErrFor(ret); err != nil {
		return nil, fmt.Errorf("vkb: alloc command buffer: %w", err)
	}
	ret = vk.BeginCommandBuffer(cmds[0], &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	if err := ErrFor(ret); err != nil {
		vk.FreeCommandBuffers(b.Device, b.CmdPool, 1, cmds)
		return nil, fmt.Errorf("vkb: begin command buffer: %w", err)
	}
	return cmds[0], nil
}

// endOneShot submits cmd and waits for it to retire.
func (b *Bundle) endOneShot(cmd vk.CommandBuffer) error {
	cmds := []vk.CommandBuffer{cmd}
	defer vk.FreeCommandBuffers(b.Device, b.CmdPool, 1, cmds)
	if err := ErrFor(vk.EndCommandBuffer(cmd)); err != nil {
		return fmt.Errorf("vkb: end command buffer: %w", err)
	}
	ret := vk.QueueSubmit(b.Queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    cmds,
	}}, vk.NullFence)
	if err := ErrFor(ret); err != nil {
		return fmt.Errorf("vkb: submit: %w", err)
	}
	if err := ErrFor(vk.QueueWaitIdle(b.Queue)); err != nil {
		return fmt.Errorf("vkb: wait idle: %w", err)
	}
	return nil
}
