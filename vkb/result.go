// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package vkb

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/shinyquagsire23/monado-sub011/xrt"
)

// ErrFor converts a Vulkan result into one of the package errors.
// Success maps to nil; Suboptimal is the soft failure callers may
// carry on from.
func ErrFor(res vk.Result) error {
	switch res {
	case vk.Success:
		return nil
	case vk.Suboptimal:
		return xrt.ErrSuboptimal
	case vk.ErrorOutOfDate:
		return xrt.ErrOutOfDate
	case vk.Timeout:
		return xrt.ErrTimeout
	case vk.ErrorSurfaceLost:
		return fmt.Errorf("surface lost: %w", xrt.ErrOutOfDate)
	case vk.ErrorDeviceLost:
		return fmt.Errorf("device lost: %w", xrt.ErrRuntime)
	case vk.ErrorOutOfHostMemory, vk.ErrorOutOfDeviceMemory:
		return fmt.Errorf("out of memory (%d): %w", res, xrt.ErrRuntime)
	case vk.ErrorFormatNotSupported:
		return xrt.ErrFormatUnsupported
	default:
		return fmt.Errorf("vulkan result %d: %w", res, xrt.ErrRuntime)
	}
}
