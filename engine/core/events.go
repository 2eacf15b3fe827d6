package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// The immersive space changed state.
	/* Context usage:
	 * state := context.Data.(ImmersiveSpaceState)
	 */
	EVENT_CODE_IMMERSIVE_SPACE_STATE SystemEventCode = 0x02
)

// ImmersiveSpaceState is the coarse lifecycle signal the render loop sends
// to the application shell. The render loop never reads it back.
type ImmersiveSpaceState uint8

const (
	ImmersiveSpaceClosed ImmersiveSpaceState = iota
	ImmersiveSpaceInTransition
	ImmersiveSpaceOpening
	ImmersiveSpaceOpen
)

func (s ImmersiveSpaceState) String() string {
	switch s {
	case ImmersiveSpaceClosed:
		return "closed"
	case ImmersiveSpaceInTransition:
		return "in-transition"
	case ImmersiveSpaceOpening:
		return "opening"
	case ImmersiveSpaceOpen:
		return "open"
	default:
		return "unknown"
	}
}

type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

type FnOnEvent func(context EventContext)

// EventBus queues fired events and dispatches them on whichever goroutine
// runs Process. Firing never blocks the caller.
type EventBus struct {
	mutex      sync.RWMutex
	registered map[SystemEventCode][]FnOnEvent
	queue      chan EventContext
	done       chan struct{}
	closeOnce  sync.Once
}

func NewEventBus(capacity int) *EventBus {
	if capacity <= 0 {
		capacity = 64
	}
	return &EventBus{
		registered: make(map[SystemEventCode][]FnOnEvent),
		queue:      make(chan EventContext, capacity),
		done:       make(chan struct{}),
	}
}

// Register adds a listener for the given code.
func (eb *EventBus) Register(code SystemEventCode, onEvent FnOnEvent) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	eb.registered[code] = append(eb.registered[code], onEvent)
}

// Fire enqueues the event for dispatch. It returns false when the bus is shut
// down or the queue is full; in the latter case the event is dropped.
func (eb *EventBus) Fire(context EventContext) bool {
	select {
	case <-eb.done:
		return false
	default:
	}
	select {
	case eb.queue <- context:
		return true
	default:
		LogWarn("event queue full, dropping event code %d", context.Type)
		return false
	}
}

// Process dispatches queued events until Shutdown is called. Events still
// queued at shutdown are drained first.
func (eb *EventBus) Process() {
	for {
		select {
		case e := <-eb.queue:
			eb.dispatch(e)
		case <-eb.done:
			for {
				select {
				case e := <-eb.queue:
					eb.dispatch(e)
				default:
					return
				}
			}
		}
	}
}

func (eb *EventBus) dispatch(context EventContext) {
	eb.mutex.RLock()
	listeners := eb.registered[context.Type]
	eb.mutex.RUnlock()
	for _, l := range listeners {
		l(context)
	}
}

func (eb *EventBus) Shutdown() error {
	eb.closeOnce.Do(func() {
		close(eb.done)
	})
	return nil
}
