package renderer

import (
	"github.com/spaghettifunk/anima-skybox/engine/compositor"
	"github.com/spaghettifunk/anima-skybox/engine/core"
)

type loopAction int

const (
	actionRender loopAction = iota
	actionWaitUntilRunning
	actionExit
)

type step struct {
	action loopAction
	notify core.ImmersiveSpaceState
}

// nextStep maps the layer state observed at the top of a loop iteration to
// what the loop does next and what the application is told.
func nextStep(state compositor.LayerState) step {
	switch state {
	case compositor.LayerStateInvalidated:
		return step{action: actionExit, notify: core.ImmersiveSpaceClosed}
	case compositor.LayerStateRunning:
		return step{action: actionRender, notify: core.ImmersiveSpaceOpen}
	default:
		return step{action: actionWaitUntilRunning, notify: core.ImmersiveSpaceInTransition}
	}
}
