package views

import (
	"github.com/spaghettifunk/anima-skybox/engine/compositor"
	"github.com/spaghettifunk/anima-skybox/engine/math"
	"github.com/spaghettifunk/anima-skybox/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-skybox/engine/tracking"
)

/**
 * @brief The skybox render view. Computes the per-eye projection and view
 * matrices the skybox shaders consume.
 */
type Skybox struct{}

func NewSkybox() *Skybox {
	return &Skybox{}
}

/**
 * @brief Builds one Uniforms entry per drawable view, at most
 * metadata.MaxViewCount of them.
 *
 * @param drawable The drawable being rendered.
 * @param anchor The predicted device pose; nil falls back to the identity pose.
 * @return The per-view uniforms, in view order.
 */
func (s *Skybox) Uniforms(drawable compositor.Drawable, anchor *tracking.DeviceAnchor) []metadata.Uniforms {
	originFromAnchor := math.NewMat4Identity()
	if anchor != nil {
		originFromAnchor = anchor.OriginFromAnchorTransform
	}

	views := drawable.Views()
	count := len(views)
	if count > metadata.MaxViewCount {
		count = metadata.MaxViewCount
	}
	out := make([]metadata.Uniforms, count)
	for i := 0; i < count; i++ {
		// Apply the eye offset first, then the head pose.
		originFromView := views[i].Transform.Mul(originFromAnchor)
		out[i] = metadata.Uniforms{
			ProjectionMatrix: drawable.ComputeProjection(i),
			ModelViewMatrix:  originFromView.Inverse(),
		}
	}
	return out
}
