package renderer

import (
	"fmt"

	"github.com/spaghettifunk/anima-skybox/engine/core"
	"github.com/spaghettifunk/anima-skybox/engine/math"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
)

/**
 * @brief UniformRing is one CPU-visible buffer split into fixed, aligned
 * slots, one per frame in flight. Slots never overlap, so the CPU can fill
 * the next slot while the GPU still reads the previous ones.
 */
type UniformRing struct {
	buffer      metadata.Buffer
	slots       int
	alignedSize int
	index       int
}

func NewUniformRing(device metadata.Device, slots, alignment int) (*UniformRing, error) {
	if slots < 1 {
		return nil, fmt.Errorf("uniform ring needs at least one slot, got %d", slots)
	}
	alignedSize := math.AlignUp(metadata.UniformsArraySize, alignment)
	buffer, err := device.NewBuffer(alignedSize*slots, metadata.StorageModeShared)
	if err != nil {
		err = fmt.Errorf("failed to allocate uniform buffer: %w", err)
		core.LogError(err.Error())
		return nil, err
	}
	buffer.SetLabel("UniformBuffer")
	return &UniformRing{
		buffer:      buffer,
		slots:       slots,
		alignedSize: alignedSize,
	}, nil
}

// Advance rotates to the next slot and returns it with its byte offset.
// The first call returns slot 1.
func (r *UniformRing) Advance() (slot, offset int) {
	r.index = (r.index + 1) % r.slots
	return r.index, r.Offset(r.index)
}

func (r *UniformRing) Offset(slot int) int {
	return slot * r.alignedSize
}

// SlotSize is the aligned size of one slot in bytes.
func (r *UniformRing) SlotSize() int {
	return r.alignedSize
}

func (r *UniformRing) Buffer() metadata.Buffer {
	return r.buffer
}

// Write stores up to metadata.MaxViewCount entries at offset. Entries past
// len(uniforms) keep whatever they held before.
func (r *UniformRing) Write(offset int, uniforms []metadata.Uniforms) {
	dst := r.buffer.Contents()
	for i, u := range uniforms {
		if i == metadata.MaxViewCount {
			break
		}
		u.Put(dst[offset+i*metadata.UniformsSize:])
	}
}

func (r *UniformRing) Read(offset int) metadata.UniformsArray {
	return metadata.ReadUniformsArray(r.buffer.Contents()[offset:])
}

func (r *UniformRing) Release() {
	r.buffer.Release()
}
