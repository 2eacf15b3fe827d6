package engine

import (
	"sync"

	"github.com/spaghettifunk/anima-skybox/engine/core"
)

type FnOnStateChange func(state core.ImmersiveSpaceState)

/**
 * @brief AppModel holds the UI facing state of the application. The render
 * loop never reads it; it only receives updates through the event bus.
 */
type AppModel struct {
	mutex     sync.RWMutex
	state     core.ImmersiveSpaceState
	history   []core.ImmersiveSpaceState
	listeners []FnOnStateChange
}

func NewAppModel() *AppModel {
	return &AppModel{state: core.ImmersiveSpaceClosed}
}

func (m *AppModel) ImmersiveSpaceState() core.ImmersiveSpaceState {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.state
}

// History returns every state the model moved through, oldest first.
func (m *AppModel) History() []core.ImmersiveSpaceState {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]core.ImmersiveSpaceState(nil), m.history...)
}

func (m *AppModel) OnChange(fn FnOnStateChange) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *AppModel) setState(state core.ImmersiveSpaceState) {
	m.mutex.Lock()
	m.state = state
	m.history = append(m.history, state)
	listeners := append([]FnOnStateChange(nil), m.listeners...)
	m.mutex.Unlock()

	for _, l := range listeners {
		l(state)
	}
}

func (m *AppModel) onEvent(context core.EventContext) {
	state, ok := context.Data.(core.ImmersiveSpaceState)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}
	core.LogInfo("immersive space %s", state)
	m.setState(state)
}
