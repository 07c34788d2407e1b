// Package circuit provides a two-state circuit breaker for degrading to a
// fallback when a backing service keeps failing.
package circuit

import "sync"

// State is the breaker position.
type State int

const (
	// StateClosed sends calls to the primary.
	StateClosed State = iota
	// StateOpen sends calls to the fallback while the primary is probed.
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Transition reports a state change caused by the last observation.
type Transition int

const (
	NoChange Transition = iota
	Opened
	Closed
)

// Breaker opens after FailureThreshold consecutive failures and closes again
// after SuccessThreshold consecutive successes while open.
type Breaker struct {
	mu               sync.Mutex
	name             string
	state            State
	failures         int
	successes        int
	failureThreshold int
	successThreshold int
}

type Option func(*Breaker)

// WithFailureThreshold defaults to 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold defaults to 3.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 3,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Observe records the outcome of a primary call. usePrimary reports whether
// the caller should trust the primary result; it is false while open, even
// after a success, until the breaker closes.
func (b *Breaker) Observe(err error) (usePrimary bool, t Transition) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.successes = 0
		if b.state == StateClosed && b.failures >= b.failureThreshold {
			b.state = StateOpen
			return false, Opened
		}
		return false, NoChange
	}

	if b.state == StateClosed {
		b.failures = 0
		return true, NoChange
	}

	b.successes++
	if b.successes >= b.successThreshold {
		b.state = StateClosed
		b.failures = 0
		b.successes = 0
		return true, Closed
	}
	return false, NoChange
}

// Reset closes the breaker and clears its counts.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}
