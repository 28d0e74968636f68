// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package resource

import "errors"

// Resource errors.
var (
	// ErrExpiredHandle is returned when an operation receives a handle whose
	// resource has already been destroyed.
	ErrExpiredHandle = errors.New("resource: handle is expired")

	// ErrZeroExtent is returned when a texture or surface is created with a
	// zero width or height.
	ErrZeroExtent = errors.New("resource: extent has zero width or height")

	// ErrZeroSize is returned when a buffer is created with size 0.
	ErrZeroSize = errors.New("resource: buffer size is zero")

	// ErrNilProvider is returned by NewSwapSurface when the provider is nil.
	ErrNilProvider = errors.New("resource: device provider is nil")
)
