package wv

// Event describes one creation attempt.
type Event struct {
	WeaveID string
	Op      Op
	Kind    Kind
	// Entity is the created entity, or the zero Ref when the attempt was rejected.
	Entity Ref
	Src    Ref
	Tgt    Ref
	Err    error
}

// HookFunc is invoked for creation notifications.
type HookFunc func(Event)

// Hooks aggregates optional lifecycle callbacks. They run synchronously on the
// calling goroutine after the weave's lock has been released.
type Hooks struct {
	OnCreate HookFunc
	OnReject HookFunc
	OnClose  func(Stats)
}

// Merge combines two hook sets, running the receiver first.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnCreate: chainHooks(h.OnCreate, other.OnCreate),
		OnReject: chainHooks(h.OnReject, other.OnReject),
		OnClose:  chainClose(h.OnClose, other.OnClose),
	}
}

func chainHooks(first, second HookFunc) HookFunc {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	default:
		return func(event Event) {
			first(event)
			second(event)
		}
	}
}

func chainClose(first, second func(Stats)) func(Stats) {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	default:
		return func(stats Stats) {
			first(stats)
			second(stats)
		}
	}
}
