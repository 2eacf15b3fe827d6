package headless

import (
	"sync"
	"testing"
	"time"

	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
)

func newTestDevice(t *testing.T, manual bool) *Device {
	t.Helper()
	opts := DefaultOptions()
	opts.ManualCompletion = manual
	d, err := NewDevice(opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Shutdown() })
	return d
}

func colorTarget(t *testing.T, d *Device) metadata.Texture {
	t.Helper()
	tex, err := d.NewTexture(metadata.TextureDescriptor{
		PixelFormat: metadata.PixelFormatBGRA8UnormSRGB,
		TextureType: metadata.TextureType2D,
		Width:       64,
		Height:      32,
		Usage:       metadata.TextureUsageRenderTarget,
		StorageMode: metadata.StorageModePrivate,
	})
	if err != nil {
		t.Fatal(err)
	}
	return tex
}

func TestManualCompletionOrder(t *testing.T) {
	d := newTestDevice(t, true)
	q, _ := d.NewCommandQueue()

	var order []string
	for _, label := range []string{"a", "b"} {
		cb, err := q.NewCommandBuffer()
		if err != nil {
			t.Fatal(err)
		}
		cb.SetLabel(label)
		cb.AddCompletedHandler(func(c metadata.CommandBuffer) { order = append(order, c.Label()) })
		cb.Commit()
	}
	if d.Pending() != 2 {
		t.Fatalf("Pending() = %d, want 2", d.Pending())
	}
	for d.CompleteNext() {
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("completion order = %v", order)
	}
	if d.Completed() != 2 {
		t.Errorf("Completed() = %d", d.Completed())
	}
}

func TestAsyncCompletion(t *testing.T) {
	opts := DefaultOptions()
	opts.Latency = time.Millisecond
	d, err := NewDevice(opts)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Shutdown()

	q, _ := d.NewCommandQueue()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		cb, _ := q.NewCommandBuffer()
		wg.Add(1)
		cb.AddCompletedHandler(func(metadata.CommandBuffer) { wg.Done() })
		cb.Commit()
	}
	wg.Wait()
	if d.Completed() != 5 {
		t.Errorf("Completed() = %d, want 5", d.Completed())
	}
}

func TestEncoderRecordsPass(t *testing.T) {
	d := newTestDevice(t, true)
	q, _ := d.NewCommandQueue()
	cb, _ := q.NewCommandBuffer()

	desc := &metadata.RenderPassDescriptor{}
	desc.ColorAttachments[0].Texture = colorTarget(t, d)
	desc.ColorAttachments[0].StoreAction = metadata.StoreActionStore

	lib, _ := d.NewDefaultLibrary()
	vf, _ := lib.NewFunction("skyboxVertex")
	ff, _ := lib.NewFunction("skyboxFragment")
	pipeline, err := d.NewRenderPipelineState(&metadata.RenderPipelineDescriptor{
		Label: "p", VertexFunction: vf, FragmentFunction: ff, RasterSampleCount: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	uniforms, _ := d.NewBuffer(512, metadata.StorageModeShared)
	uniforms.Contents()[256] = 0xAB

	enc, err := cb.NewRenderCommandEncoder(desc)
	if err != nil {
		t.Fatal(err)
	}
	enc.SetLabel("enc")
	enc.SetRenderPipelineState(pipeline)
	enc.SetVertexBuffer(uniforms, 256, metadata.BufferIndexUniforms)
	enc.DrawPrimitives(metadata.PrimitiveTypeTriangle, 0, 36)
	enc.EndEncoding()
	cb.Commit()

	subs := d.Submissions()
	if len(subs) != 1 || len(subs[0].Passes) != 1 {
		t.Fatalf("unexpected submissions %+v", subs)
	}
	pass := subs[0].Passes[0]
	if pass.EncoderLabel != "enc" || len(pass.Draws) != 1 || pass.Draws[0].VertexCount != 36 {
		t.Errorf("unexpected pass %+v", pass)
	}
	if pass.Draws[0].Uniforms[0] != 0xAB {
		t.Error("draw did not snapshot the bound uniform region")
	}
}

func TestMemorylessAttachmentCannotBeStored(t *testing.T) {
	d := newTestDevice(t, true)
	ms, err := d.NewTexture(metadata.TextureDescriptor{
		PixelFormat: metadata.PixelFormatBGRA8UnormSRGB,
		TextureType: metadata.TextureType2DMultisampleArray,
		Width:       64, Height: 32, ArrayLength: 2, SampleCount: 4,
		Usage:       metadata.TextureUsageRenderTarget,
		StorageMode: metadata.StorageModeMemoryless,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Stats().MemorylessTextures; got != 1 {
		t.Errorf("MemorylessTextures = %d", got)
	}

	q, _ := d.NewCommandQueue()
	cb, _ := q.NewCommandBuffer()
	desc := &metadata.RenderPassDescriptor{}
	desc.ColorAttachments[0].Texture = ms
	desc.ColorAttachments[0].StoreAction = metadata.StoreActionStore
	if _, err := cb.NewRenderCommandEncoder(desc); err == nil {
		t.Error("storing a memoryless attachment should fail")
	}

	desc.ColorAttachments[0].StoreAction = metadata.StoreActionMultisampleResolve
	desc.ColorAttachments[0].ResolveTexture = colorTarget(t, d)
	if _, err := cb.NewRenderCommandEncoder(desc); err != nil {
		t.Errorf("resolve pass rejected: %v", err)
	}

	ms.Release()
	ms.Release()
	if got := d.Stats().MemorylessTextures; got != 0 {
		t.Errorf("MemorylessTextures after release = %d", got)
	}
}

func TestFaultInjection(t *testing.T) {
	d := newTestDevice(t, true)
	q, _ := d.NewCommandQueue()
	d.InjectFault(FaultCommandBuffer)
	if _, err := q.NewCommandBuffer(); err == nil {
		t.Error("expected command buffer fault")
	}
	d.InjectFault(0)
	if _, err := q.NewCommandBuffer(); err != nil {
		t.Errorf("fault not cleared: %v", err)
	}
}

func TestCubeUploadValidatesSlices(t *testing.T) {
	d := newTestDevice(t, true)
	desc := metadata.TextureDescriptor{
		PixelFormat: metadata.PixelFormatRGBA8Unorm,
		TextureType: metadata.TextureTypeCube,
		Width:       2, Height: 2,
		Usage:       metadata.TextureUsageShaderRead,
		StorageMode: metadata.StorageModePrivate,
	}
	face := make([]byte, 2*2*4)
	if _, err := d.NewTextureWithData(desc, [][]byte{face}); err == nil {
		t.Error("a cube map needs six faces")
	}
	faces := [][]byte{face, face, face, face, face, face}
	tex, err := d.NewTextureWithData(desc, faces)
	if err != nil {
		t.Fatal(err)
	}
	if len(tex.(*Texture).Slice(5)) != len(face) {
		t.Error("face 5 not uploaded")
	}
}
