// Copyright 2026 The monado-sub011 Authors. All rights reserved.

package xrt

import "errors"

// ErrCallOrder means that an operation was called in violation of
// the swapchain state machine (e.g. wait without a prior acquire,
// release without a prior wait, or a second acquire on a
// static-image swapchain).
// The operation has no side effects and never advances state.
var ErrCallOrder = errors.New("xrt: call order invalid")

// ErrOutOfDate means that the presentation surface changed and the
// swapchain can no longer present. The frame that produced it is
// lost; images must be recreated before any further presentation.
var ErrOutOfDate = errors.New("xrt: surface out of date")

// ErrSuboptimal means that the swapchain no longer matches the
// surface exactly but presentation still succeeded. It is a soft
// hint: the caller should recreate images at its convenience.
var ErrSuboptimal = errors.New("xrt: swapchain suboptimal for surface")

// ErrFormatUnsupported means that the requested format is not in
// the device's advertised catalog.
var ErrFormatUnsupported = errors.New("xrt: format unsupported")

// ErrFlagUnsupported means that the requested create-flag
// combination is legal but not implemented here.
var ErrFlagUnsupported = errors.New("xrt: flag valid but unsupported")

// ErrTimeout means that a wait exceeded the caller-supplied
// timeout. It is a normal outcome, not a failure.
var ErrTimeout = errors.New("xrt: wait timed out")

// ErrFeatureUnsupported means that a requested feature is not
// available. It is returned through to the client unchanged.
var ErrFeatureUnsupported = errors.New("xrt: feature unsupported")

// ErrShutdown means that the session is tearing down. Pending
// waits observe it at suspension points.
var ErrShutdown = errors.New("xrt: session shutting down")

// ErrRuntime covers any other platform failure. It is fatal for
// the affected swapchain or target, which must be recreated.
var ErrRuntime = errors.New("xrt: runtime failure")
