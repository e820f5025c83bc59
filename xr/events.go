package xr

// Event is one entry drained from the runtime's event queue. The set of variants
// is closed on the shell side: events the shell does not recognize must still
// satisfy this interface and are ignored, which keeps the dispatch
// forward-compatible with runtimes that emit additional kinds.
type Event interface {
	isEvent()
}

// SessionStateChangedEvent reports a session lifecycle transition.
type SessionStateChangedEvent struct {
	State SessionState
	Time  Time
}

// InstanceLossPendingEvent warns that the runtime instance is about to become
// unusable; the process should quit.
type InstanceLossPendingEvent struct {
	LossTime Time
}

// EventsLostEvent reports that the runtime's event queue overflowed and events
// were dropped.
type EventsLostEvent struct {
	LostEventCount uint32
}

// InteractionProfileChangedEvent reports that the active input bindings changed.
type InteractionProfileChangedEvent struct{}

func (SessionStateChangedEvent) isEvent()      {}
func (InstanceLossPendingEvent) isEvent()      {}
func (EventsLostEvent) isEvent()               {}
func (InteractionProfileChangedEvent) isEvent() {}
