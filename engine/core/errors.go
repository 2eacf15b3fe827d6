package core

import (
	"errors"
)

var (
	ErrNoCommandQueue        = errors.New("device could not create a command queue")
	ErrNoCommandBuffer       = errors.New("failed to create command buffer")
	ErrNoRenderEncoder       = errors.New("failed to create render encoder")
	ErrShaderFunctionMissing = errors.New("shader function not found in library")
	ErrPipelineCreation      = errors.New("unable to compile render pipeline state")
	ErrDepthStateCreation    = errors.New("unable to create depth stencil state")
	ErrTrackingSession       = errors.New("failed to initialize tracking session")
)
