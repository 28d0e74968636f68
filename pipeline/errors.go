// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"errors"
	"fmt"
)

// Pipeline errors.
var (
	// ErrInvalidArgument is returned by Build when the pipeline name is empty.
	ErrInvalidArgument = errors.New("pipeline: invalid argument")

	// ErrNilDriver is returned by Build when the builder has no driver.
	ErrNilDriver = errors.New("pipeline: driver is nil")

	// ErrNilHandle is returned when a driver reports success but returns a
	// nil handle.
	ErrNilHandle = errors.New("pipeline: driver returned a nil handle")
)

// Status is a driver result code. Negative values are failures, following
// the Vulkan convention.
type Status int32

// Driver status codes.
const (
	StatusSuccess                 Status = 0
	StatusErrorOutOfHostMemory    Status = -1
	StatusErrorOutOfDeviceMemory  Status = -2
	StatusErrorInitialization     Status = -3
	StatusErrorDeviceLost         Status = -4
	StatusErrorInvalidShader      Status = -1000012000
	StatusPipelineCompileRequired Status = 1000297000
	StatusErrorUnknown            Status = -13
)

// String returns the Vulkan-style name of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusErrorOutOfHostMemory:
		return "ERROR_OUT_OF_HOST_MEMORY"
	case StatusErrorOutOfDeviceMemory:
		return "ERROR_OUT_OF_DEVICE_MEMORY"
	case StatusErrorInitialization:
		return "ERROR_INITIALIZATION_FAILED"
	case StatusErrorDeviceLost:
		return "ERROR_DEVICE_LOST"
	case StatusErrorInvalidShader:
		return "ERROR_INVALID_SHADER_NV"
	case StatusPipelineCompileRequired:
		return "PIPELINE_COMPILE_REQUIRED"
	case StatusErrorUnknown:
		return "ERROR_UNKNOWN"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// StatusError is implemented by driver errors that carry a status code.
type StatusError interface {
	error
	Status() Status
}

// DriverError is a driver failure with an explicit status code.
type DriverError struct {
	Code Status
	Err  error
}

// NewDriverError wraps err with status.
func NewDriverError(status Status, err error) *DriverError {
	return &DriverError{Code: status, Err: err}
}

func (e *DriverError) Error() string {
	if e.Err == nil {
		return "pipeline: driver failed with " + e.Code.String()
	}
	return fmt.Sprintf("pipeline: driver failed with %s: %v", e.Code, e.Err)
}

// Status returns the driver status code.
func (e *DriverError) Status() Status { return e.Code }

func (e *DriverError) Unwrap() error { return e.Err }

// StatusOf extracts the status carried by err, or StatusErrorUnknown.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var se StatusError
	if errors.As(err, &se) {
		return se.Status()
	}
	return StatusErrorUnknown
}

// PipelineCreationError is returned by Build when the driver rejects the
// pipeline or its layout.
type PipelineCreationError struct {
	Name   string
	Status Status
	Err    error
}

func (e *PipelineCreationError) Error() string {
	return fmt.Sprintf("pipeline: create %q failed (%s): %v", e.Name, e.Status, e.Err)
}

func (e *PipelineCreationError) Unwrap() error { return e.Err }
