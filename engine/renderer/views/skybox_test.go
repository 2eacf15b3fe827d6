package views

import (
	"testing"

	"github.com/spaghettifunk/anima-skybox/engine/compositor"
	"github.com/spaghettifunk/anima-skybox/engine/math"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-skybox/engine/tracking"
)

type stubDrawable struct {
	compositor.Drawable
	views []compositor.View
}

func (d *stubDrawable) Views() []compositor.View { return d.views }

func (d *stubDrawable) ComputeProjection(viewIndex int) math.Mat4 {
	p := math.NewMat4Identity()
	p.Data[0] = float32(viewIndex + 1)
	return p
}

func eye(x float32) compositor.View {
	return compositor.View{Transform: math.NewMat4Translation(math.NewVec3(x, 0, 0))}
}

func TestUniformsIdentityPoseFallback(t *testing.T) {
	d := &stubDrawable{views: []compositor.View{eye(-0.03), eye(0.03)}}
	got := NewSkybox().Uniforms(d, nil)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for i, v := range d.views {
		want := v.Transform.Inverse()
		if !got[i].ModelViewMatrix.Compare(want, 1e-6) {
			t.Errorf("view %d: %v, want %v", i, got[i].ModelViewMatrix, want)
		}
		if got[i].ProjectionMatrix.Data[0] != float32(i+1) {
			t.Errorf("view %d: projection not taken from the drawable", i)
		}
	}
}

func TestUniformsAppliesAnchor(t *testing.T) {
	d := &stubDrawable{views: []compositor.View{eye(0.5)}}
	anchor := &tracking.DeviceAnchor{
		OriginFromAnchorTransform: math.NewMat4Translation(math.NewVec3(0, 1.6, 0)),
	}
	got := NewSkybox().Uniforms(d, anchor)
	if len(got) != 1 {
		t.Fatalf("mono drawable produced %d entries", len(got))
	}
	// The eye sits at (0.5, 1.6, 0) in world space; the view matrix maps it to the origin.
	p := math.NewVec3(0.5, 1.6, 0).Transform(got[0].ModelViewMatrix)
	if !p.Compare(math.NewVec3(0, 0, 0), 1e-5) {
		t.Errorf("eye position maps to %+v", p)
	}
}

// mulColumnMajor returns the column-vector product a * b of two column-major
// matrices.
func mulColumnMajor(a, b math.Mat4) math.Mat4 {
	var out math.Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a.Data[k*4+row] * b.Data[col*4+k]
			}
			out.Data[col*4+row] = sum
		}
	}
	return out
}

func TestUniformsComposesRotatedAnchorBeforeEye(t *testing.T) {
	// Head turned 90 degrees about +Y and standing 1.6m up.
	originFromAnchor := mulColumnMajor(
		math.NewMat4Translation(math.NewVec3(0, 1.6, 0)),
		math.NewMat4EulerY(math.DegToRad(90)),
	)
	d := &stubDrawable{views: []compositor.View{eye(0.5)}}
	got := NewSkybox().Uniforms(d, &tracking.DeviceAnchor{OriginFromAnchorTransform: originFromAnchor})

	originFromView := mulColumnMajor(originFromAnchor, d.views[0].Transform)
	want := originFromView.Inverse()
	if !got[0].ModelViewMatrix.Compare(want, 1e-5) {
		t.Errorf("view matrix = %v, want inverse(anchor * view) = %v", got[0].ModelViewMatrix, want)
	}
	if id := mulColumnMajor(originFromView, got[0].ModelViewMatrix); !id.Compare(math.NewMat4Identity(), 1e-5) {
		t.Errorf("(anchor * view) * result = %v, want identity", id)
	}

	// The eye offset turns with the head: +X in the head frame is -Z in the world.
	p := math.NewVec3(0, 1.6, -0.5).Transform(got[0].ModelViewMatrix)
	if !p.Compare(math.NewVec3(0, 0, 0), 1e-5) {
		t.Errorf("eye position maps to %+v", p)
	}
	// Applying the anchor first would put the eye at (0.5, 1.6, 0).
	if q := math.NewVec3(0.5, 1.6, 0).Transform(got[0].ModelViewMatrix); q.Compare(math.NewVec3(0, 0, 0), 1e-3) {
		t.Error("eye offset was not rotated by the head pose")
	}
}

func TestUniformsCapsViewCount(t *testing.T) {
	d := &stubDrawable{views: []compositor.View{eye(0), eye(0), eye(0)}}
	if got := NewSkybox().Uniforms(d, nil); len(got) != metadata.MaxViewCount {
		t.Errorf("len = %d, want %d", len(got), metadata.MaxViewCount)
	}
}
