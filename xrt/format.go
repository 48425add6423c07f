// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package xrt

// Format identifies an image format.
// The values match the corresponding VkFormat values so that
// backend conversion is a cast. Only formats that may appear in
// the advertised catalog are named here; anything else is never
// advertised even if the device supports it.
type Format uint32

// Color formats, in advertising-preference order.
const (
	FormatR16G16B16A16Unorm  Format = 91
	FormatR16G16B16A16Sfloat Format = 97
	FormatR16G16B16Unorm     Format = 84
	FormatR16G16B16Sfloat    Format = 90
	FormatR8G8B8A8Srgb       Format = 43
	FormatB8G8R8A8Srgb       Format = 50
	FormatR8G8B8Srgb         Format = 29
	FormatR8G8B8A8Unorm      Format = 37
	FormatB8G8R8A8Unorm      Format = 44
	FormatR8G8B8Unorm        Format = 23
	FormatB8G8R8Unorm        Format = 30
)

// Depth/stencil formats.
const (
	FormatD16Unorm        Format = 124
	FormatD32Sfloat       Format = 126
	FormatD24UnormS8Uint  Format = 129
	FormatD32SfloatS8Uint Format = 130
)

// HasDepth reports whether f carries a depth aspect.
func (f Format) HasDepth() bool {
	switch f {
	case FormatD16Unorm, FormatD32Sfloat, FormatD24UnormS8Uint, FormatD32SfloatS8Uint:
		return true
	}
	return false
}

// HasStencil reports whether f carries a stencil aspect.
func (f Format) HasStencil() bool {
	switch f {
	case FormatD24UnormS8Uint, FormatD32SfloatS8Uint:
		return true
	}
	return false
}

func (f Format) String() string {
	switch f {
	case FormatR16G16B16A16Unorm:
		return "R16G16B16A16_UNORM"
	case FormatR16G16B16A16Sfloat:
		return "R16G16B16A16_SFLOAT"
	case FormatR16G16B16Unorm:
		return "R16G16B16_UNORM"
	case FormatR16G16B16Sfloat:
		return "R16G16B16_SFLOAT"
	case FormatR8G8B8A8Srgb:
		return "R8G8B8A8_SRGB"
	case FormatB8G8R8A8Srgb:
		return "B8G8R8A8_SRGB"
	case FormatR8G8B8Srgb:
		return "R8G8B8_SRGB"
	case FormatR8G8B8A8Unorm:
		return "R8G8B8A8_UNORM"
	case FormatB8G8R8A8Unorm:
		return "B8G8R8A8_UNORM"
	case FormatR8G8B8Unorm:
		return "R8G8B8_UNORM"
	case FormatB8G8R8Unorm:
		return "B8G8R8_UNORM"
	case FormatD16Unorm:
		return "D16_UNORM"
	case FormatD32Sfloat:
		return "D32_SFLOAT"
	case FormatD24UnormS8Uint:
		return "D24_UNORM_S8_UINT"
	case FormatD32SfloatS8Uint:
		return "D32_SFLOAT_S8_UINT"
	}
	return "FORMAT_UNKNOWN"
}

// ColorSpace identifies a color space for presentation.
// Values match VkColorSpaceKHR.
type ColorSpace uint32

const (
	ColorSpaceSRGBNonlinear ColorSpace = 0
)

// PresentMode is the platform's policy for queuing presented
// images. Values match VkPresentModeKHR.
type PresentMode int

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "IMMEDIATE"
	case PresentModeMailbox:
		return "MAILBOX"
	case PresentModeFifo:
		return "FIFO"
	case PresentModeFifoRelaxed:
		return "FIFO_RELAXED"
	}
	return "PRESENT_MODE_UNKNOWN"
}
