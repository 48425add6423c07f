// Copyright 2026 The monado-sub011 Authors. All rights reserved.

// Package vkb owns the Vulkan bundle: instance, physical device,
// logical device, queue and command pool, plus the feature flags
// and format catalog the rest of the compositor consults.
//
// The bundle outlives every object created from it; teardown order
// is session → targets → presentation swapchain → surface → bundle.
package vkb

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"goarrg.com/debug"
	"golang.org/x/exp/maps"

	"github.com/shinyquagsire23/monado-sub011/xrt"
)

var logger = debug.NewLogger("comp", "vkb")

// Features are the optional device capabilities the bundle
// negotiated at creation.
type Features struct {
	TimelineSemaphore bool
	ExternalMemory    bool
	GlobalPriority    bool
}

// Bundle groups the Vulkan objects shared by the whole compositor.
type Bundle struct {
	Instance   vk.Instance
	GPU        vk.PhysicalDevice
	Device     vk.Device
	Queue      vk.Queue
	QueueIndex uint32
	CmdPool    vk.CommandPool
	Features   Features

	deviceName string
}

const (
	extSwapchain      = "VK_KHR_swapchain"
	extTimelineSem    = "VK_KHR_timeline_semaphore"
	extExternalMemory = "VK_KHR_external_memory"
	extExternalMemFd  = "VK_KHR_external_memory_fd"
	extGlobalPriority = "VK_EXT_global_priority"
)

// New creates a bundle per cfg. instanceExts are the
// window-system instance extensions the target needs (empty for
// headless). Device selection honors cfg.SelectedGPU; -1 picks the
// best-scoring device that has a usable queue family.
func New(cfg xrt.Config, instanceExts []string) (*Bundle, error) {
	b := &Bundle{}
	if err := b.initInstance(instanceExts); err != nil {
		return nil, err
	}
	if err := b.initDevice(cfg); err != nil {
		b.Destroy()
		return nil, err
	}
	logger.IPrintf("bundle ready: %s (timeline=%v external=%v priority=%v)",
		b.deviceName, b.Features.TimelineSemaphore, b.Features.ExternalMemory, b.Features.GlobalPriority)
	return b, nil
}

func (b *Bundle) initInstance(instanceExts []string) error {
	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString("monado-sub011"),
		ApplicationVersion: vk.MakeVersion(0, 1, 0),
		PEngineName:        safeString("monado-sub011"),
		EngineVersion:      vk.MakeVersion(0, 1, 0),
		ApiVersion:         vk.MakeVersion(1, 2, 0),
	}
	exts := safeStrings(instanceExts)
	var inst vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(exts)),
		PpEnabledExtensionNames: exts,
	}, nil, &inst)
	if err := ErrFor(ret); err != nil {
		return fmt.Errorf("vkb: create instance: %w", err)
	}
	vk.InitInstance(inst)
	b.Instance = inst
	return nil
}

func (b *Bundle) initDevice(cfg xrt.Config) error {
	var count uint32
	vk.EnumeratePhysicalDevices(b.Instance, &count, nil)
	if count == 0 {
		return fmt.Errorf("vkb: no Vulkan devices: %w", xrt.ErrRuntime)
	}
	gpus := make([]vk.PhysicalDevice, count)
	vk.EnumeratePhysicalDevices(b.Instance, &count, gpus)

	if cfg.SelectedGPU >= 0 {
		if cfg.SelectedGPU >= int(count) {
			return fmt.Errorf("vkb: gpu index %d out of range (%d devices): %w",
				cfg.SelectedGPU, count, xrt.ErrRuntime)
		}
		gpus = gpus[cfg.SelectedGPU : cfg.SelectedGPU+1]
	}

	best := -1
	bestScore := -1
	bestQueue := uint32(0)
	for i, gpu := range gpus {
		q, ok := findQueue(gpu, cfg.OnlyComputeQueue)
		if !ok {
			continue
		}
		s := score(gpu)
		if s > bestScore {
			best, bestScore, bestQueue = i, s, q
		}
	}
	if best < 0 {
		return fmt.Errorf("vkb: no device with a usable queue family: %w", xrt.ErrRuntime)
	}
	b.GPU = gpus[best]
	b.QueueIndex = bestQueue

	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(b.GPU, &props)
	props.Deref()
	b.deviceName = vk.ToString(props.DeviceName[:])

	have := deviceExtensions(b.GPU)
	logger.VPrintf("%s: %d device extensions: %v", b.deviceName, len(have), maps.Keys(have))
	if !have[extSwapchain] {
		return fmt.Errorf("vkb: %s missing %s: %w", b.deviceName, extSwapchain, xrt.ErrRuntime)
	}
	exts := []string{extSwapchain}
	if cfg.TimelineSemaphore && have[extTimelineSem] {
		b.Features.TimelineSemaphore = true
		exts = append(exts, extTimelineSem)
	}
	if have[extExternalMemory] && have[extExternalMemFd] {
		b.Features.ExternalMemory = true
		exts = append(exts, extExternalMemory, extExternalMemFd)
	}
	if have[extGlobalPriority] {
		b.Features.GlobalPriority = true
		exts = append(exts, extGlobalPriority)
	}

	info := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos: []vk.DeviceQueueCreateInfo{{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: b.QueueIndex,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}},
		EnabledExtensionCount:   uint32(len(exts)),
		PpEnabledExtensionNames: safeStrings(exts),
	}
	if b.Features.TimelineSemaphore {
		info.PNext = unsafe.Pointer(&vk.PhysicalDeviceVulkan12Features{
			SType:             vk.StructureTypePhysicalDeviceVulkan12Features,
			TimelineSemaphore: vk.True,
		})
	}

	var dev vk.Device
	ret := vk.CreateDevice(b.GPU, &info, nil, &dev)
	if err := ErrFor(ret); err != nil {
		return fmt.Errorf("vkb: create device: %w", err)
	}
	b.Device = dev

	var queue vk.Queue
	vk.GetDeviceQueue(b.Device, b.QueueIndex, 0, &queue)
	b.Queue = queue

	var pool vk.CommandPool
	ret = vk.CreateCommandPool(b.Device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: b.QueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &pool)
	if err := ErrFor(ret); err != nil {
		return fmt.Errorf("vkb: create command pool: %w", err)
	}
	b.CmdPool = pool
	return nil
}

// findQueue picks a queue family: graphics-capable normally, or a
// compute-only family when computeOnly is set.
func findQueue(gpu vk.PhysicalDevice, computeOnly bool) (uint32, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, props)
	for i := range props {
		props[i].Deref()
		flags := props[i].QueueFlags
		graphics := flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
		compute := flags&vk.QueueFlags(vk.QueueComputeBit) != 0
		if computeOnly {
			if compute && !graphics {
				return uint32(i), true
			}
		} else if graphics {
			return uint32(i), true
		}
	}
	return 0, false
}

func score(gpu vk.PhysicalDevice) int {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &props)
	props.Deref()
	switch props.DeviceType {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return 1000
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return 500
	default:
		return 100
	}
}

func deviceExtensions(gpu vk.PhysicalDevice) map[string]bool {
	var count uint32
	vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil)
	props := make([]vk.ExtensionProperties, count)
	vk.EnumerateDeviceExtensionProperties(gpu, "", &count, props)
	have := make(map[string]bool, count)
	for i := range props {
		props[i].Deref()
		have[vk.ToString(props[i].ExtensionName[:])] = true
	}
	return have
}

// DeviceName returns the selected physical device's name.
func (b *Bundle) DeviceName() string { return b.deviceName }

// Destroy tears the bundle down. Safe to call repeatedly; the
// bundle must be destroyed last.
func (b *Bundle) Destroy() {
	if b.Device != nil {
		vk.DeviceWaitIdle(b.Device)
		if b.CmdPool != vk.NullCommandPool {
			vk.DestroyCommandPool(b.Device, b.CmdPool, nil)
			b.CmdPool = vk.NullCommandPool
		}
		vk.DestroyDevice(b.Device, nil)
		b.Device = nil
	}
	if b.Instance != nil {
		vk.DestroyInstance(b.Instance, nil)
		b.Instance = nil
	}
}

// safeString null-terminates s for the C side.
func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}

func safeStrings(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = safeString(s)
	}
	return out
}
