package dashboard

// Observer receives a snapshot after every state transition, in order, on the
// coordinator's loop goroutine. Implementations must not block.
type Observer interface {
	OnState(state State)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(State)

// OnState calls f(state)
func (f ObserverFunc) OnState(state State) { f(state) }

// ChannelObserver adapts Observer to a channel for Bubble Tea.
// When the channel is full the oldest snapshot is dropped, so a slow reader
// always catches up to the newest state.
type ChannelObserver struct {
	ch chan State
}

// NewChannelObserver creates an observer with the given buffer size (minimum 1)
func NewChannelObserver(size int) *ChannelObserver {
	if size < 1 {
		size = 1
	}
	return &ChannelObserver{ch: make(chan State, size)}
}

// C returns the receive side of the snapshot channel
func (o *ChannelObserver) C() <-chan State {
	return o.ch
}

// OnState delivers state without blocking
func (o *ChannelObserver) OnState(state State) {
	for {
		select {
		case o.ch <- state:
			return
		default:
		}
		select {
		case <-o.ch:
		default:
		}
	}
}
