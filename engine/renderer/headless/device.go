package headless

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima-skybox/engine/containers"
	"github.com/spaghettifunk/anima-skybox/engine/core"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-skybox/engine/systems"
)

// Fault makes the device fail a specific kind of request. Faults are sticky
// until cleared with InjectFault(0).
type Fault uint32

const (
	FaultCommandQueue Fault = 1 << iota
	FaultCommandBuffer
	FaultRenderEncoder
	FaultPipeline
	FaultDepthState
	FaultBuffer
	FaultTexture
)

type Options struct {
	Name string
	// Sample counts accepted by SupportsTextureSampleCount.
	SampleCounts      []int
	Supports32BitMSAA bool
	// Functions exported by the default library.
	Functions []string
	// ManualCompletion keeps committed command buffers pending until
	// CompleteNext is called.
	ManualCompletion bool
	// Latency is the simulated GPU execution time of one command buffer.
	Latency time.Duration
	Faults  Fault
}

func DefaultOptions() Options {
	return Options{
		Name:              "Headless GPU",
		SampleCounts:      []int{1, 2, 4},
		Supports32BitMSAA: true,
		Functions:         []string{"skyboxVertex", "skyboxFragment"},
	}
}

/** @brief Allocation counters, for leak checks. */
type Stats struct {
	Buffers            int
	Textures           int
	MemorylessTextures int
}

/**
 * @brief Device is a software metadata.Device. It executes nothing: command
 * buffers are recorded on commit and completed asynchronously by a single
 * job worker, in commit order.
 */
type Device struct {
	opts   Options
	jobs   *systems.JobSystem
	faults atomic.Uint32

	mu          sync.Mutex
	pending     *containers.RingQueue[*CommandBuffer]
	submissions []Submission
	stats       Stats
	completed   int
}

func NewDevice(opts Options) (*Device, error) {
	if opts.Name == "" {
		opts.Name = DefaultOptions().Name
	}
	d := &Device{
		opts:    opts,
		pending: containers.NewRingQueue[*CommandBuffer](4),
	}
	d.faults.Store(uint32(opts.Faults))
	if !opts.ManualCompletion {
		jobs, err := systems.NewJobSystem(1, 64)
		if err != nil {
			return nil, err
		}
		d.jobs = jobs
	}
	core.LogDebug("headless device '%s' created (msaa32=%t, manual=%t)", opts.Name, opts.Supports32BitMSAA, opts.ManualCompletion)
	return d, nil
}

func (d *Device) Name() string { return d.opts.Name }

// InjectFault replaces the active fault set.
func (d *Device) InjectFault(f Fault) {
	d.faults.Store(uint32(f))
}

func (d *Device) faulted(f Fault) bool {
	return Fault(d.faults.Load())&f != 0
}

func (d *Device) SupportsTextureSampleCount(count int) bool {
	for _, c := range d.opts.SampleCounts {
		if c == count {
			return true
		}
	}
	return false
}

func (d *Device) Supports32BitMSAA() bool {
	return d.opts.Supports32BitMSAA
}

func (d *Device) NewCommandQueue() (metadata.CommandQueue, error) {
	if d.faulted(FaultCommandQueue) {
		return nil, fmt.Errorf("headless: command queue creation failed")
	}
	return &CommandQueue{device: d}, nil
}

func (d *Device) NewBuffer(length int, mode metadata.StorageMode) (metadata.Buffer, error) {
	if d.faulted(FaultBuffer) {
		return nil, fmt.Errorf("headless: buffer allocation of %d bytes failed", length)
	}
	if length <= 0 {
		return nil, fmt.Errorf("headless: invalid buffer length %d", length)
	}
	if mode == metadata.StorageModeMemoryless {
		return nil, fmt.Errorf("headless: buffers cannot be memoryless")
	}
	d.mu.Lock()
	d.stats.Buffers++
	d.mu.Unlock()
	return &Buffer{device: d, data: make([]byte, length), mode: mode}, nil
}

func (d *Device) NewBufferWithBytes(data []byte, mode metadata.StorageMode) (metadata.Buffer, error) {
	b, err := d.NewBuffer(len(data), mode)
	if err != nil {
		return nil, err
	}
	copy(b.(*Buffer).data, data)
	return b, nil
}

func (d *Device) NewTexture(desc metadata.TextureDescriptor) (metadata.Texture, error) {
	return d.NewTextureWithData(desc, nil)
}

func (d *Device) NewTextureWithData(desc metadata.TextureDescriptor, slices [][]byte) (metadata.Texture, error) {
	if d.faulted(FaultTexture) {
		return nil, fmt.Errorf("headless: texture allocation failed")
	}
	if err := validateTextureDescriptor(d, desc); err != nil {
		return nil, err
	}
	t := newTexture(d, desc)
	if len(slices) > 0 {
		if err := t.upload(slices); err != nil {
			return nil, err
		}
	}
	d.mu.Lock()
	if desc.StorageMode == metadata.StorageModeMemoryless {
		d.stats.MemorylessTextures++
	} else {
		d.stats.Textures++
	}
	d.mu.Unlock()
	return t, nil
}

func (d *Device) NewDefaultLibrary() (metadata.Library, error) {
	if len(d.opts.Functions) == 0 {
		return nil, fmt.Errorf("headless: no default library")
	}
	return &Library{functions: d.opts.Functions}, nil
}

func (d *Device) NewRenderPipelineState(desc *metadata.RenderPipelineDescriptor) (metadata.RenderPipelineState, error) {
	if d.faulted(FaultPipeline) {
		return nil, fmt.Errorf("headless: pipeline '%s' creation failed", desc.Label)
	}
	if desc.VertexFunction == nil || desc.FragmentFunction == nil {
		return nil, fmt.Errorf("headless: pipeline '%s' is missing a shader function", desc.Label)
	}
	if desc.RasterSampleCount > 1 && !d.SupportsTextureSampleCount(desc.RasterSampleCount) {
		return nil, fmt.Errorf("headless: sample count %d not supported", desc.RasterSampleCount)
	}
	copied := *desc
	return &RenderPipelineState{desc: copied}, nil
}

func (d *Device) NewDepthStencilState(desc *metadata.DepthStencilDescriptor) (metadata.DepthStencilState, error) {
	if d.faulted(FaultDepthState) {
		return nil, fmt.Errorf("headless: depth stencil state creation failed")
	}
	return &DepthStencilState{desc: *desc}, nil
}

// Stats returns the number of live allocations.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Submissions returns a copy of every committed command buffer record.
func (d *Device) Submissions() []Submission {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Submission, len(d.submissions))
	copy(out, d.submissions)
	return out
}

// Completed returns how many command buffers finished executing.
func (d *Device) Completed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.completed
}

// Pending returns how many committed command buffers wait for CompleteNext.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending.Len()
}

// CompleteNext finishes the oldest pending command buffer on the calling
// goroutine. It reports false when nothing is pending.
func (d *Device) CompleteNext() bool {
	d.mu.Lock()
	cb, err := d.pending.Dequeue()
	d.mu.Unlock()
	if err != nil {
		return false
	}
	cb.complete()
	return true
}

// Shutdown drains the completion worker. Pending manual command buffers are
// completed so no completion handler is left waiting.
func (d *Device) Shutdown() error {
	for d.CompleteNext() {
	}
	if d.jobs != nil {
		return d.jobs.Shutdown()
	}
	return nil
}

func (d *Device) commit(cb *CommandBuffer) {
	d.mu.Lock()
	d.submissions = append(d.submissions, cb.record())
	if d.opts.ManualCompletion {
		d.pending.Enqueue(cb)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	latency := d.opts.Latency
	err := d.jobs.Submit(systems.JobTask{
		Name: cb.Label(),
		OnStart: func() error {
			if latency > 0 {
				time.Sleep(latency)
			}
			return nil
		},
		OnCompletionCallback: cb.complete,
	})
	if err != nil {
		core.LogError("headless: command buffer '%s' lost: %s", cb.Label(), err.Error())
	}
}

func (d *Device) markCompleted() {
	d.mu.Lock()
	d.completed++
	d.mu.Unlock()
}

func (d *Device) releaseTexture(memoryless bool) {
	d.mu.Lock()
	if memoryless {
		d.stats.MemorylessTextures--
	} else {
		d.stats.Textures--
	}
	d.mu.Unlock()
}

func (d *Device) releaseBuffer() {
	d.mu.Lock()
	d.stats.Buffers--
	d.mu.Unlock()
}
