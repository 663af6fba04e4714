package application

import (
	"sync"
	"time"

	"github.com/bnema/clawsync/internal/domain"
)

const DefaultQuiescence = 50 * time.Millisecond

// BatcherConfig wires a Batcher. OnImmediate may be nil when Immediate is nil.
type BatcherConfig[T any] struct {
	Quiescence  time.Duration
	Immediate   func(T) bool
	OnBatch     func([]T)
	OnImmediate func(T)
}

// Batcher coalesces bursts of events into one delivery once no event has
// arrived for the quiescence window. Events matching Immediate skip the
// wait: anything already buffered is delivered first, so callbacks always
// observe events in push order.
type Batcher[T any] struct {
	cfg BatcherConfig[T]

	// deliver serializes callbacks; it is always taken before mu.
	deliver sync.Mutex

	mu         sync.Mutex
	buffer     []T
	timer      *time.Timer
	generation uint64
	destroyed  bool
}

func NewBatcher[T any](cfg BatcherConfig[T]) *Batcher[T] {
	if cfg.Quiescence <= 0 {
		cfg.Quiescence = DefaultQuiescence
	}
	return &Batcher[T]{cfg: cfg}
}

// ImmediateAgentEvent routes events that change visible system status past
// the buffer.
func ImmediateAgentEvent(event domain.AgentEvent) bool {
	switch event.Stream() {
	case domain.StreamLifecycle, domain.StreamError:
		return true
	default:
		return false
	}
}

func (b *Batcher[T]) Push(event T) {
	if b.cfg.Immediate != nil && b.cfg.Immediate(event) {
		b.pushImmediate(event)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}

	b.buffer = append(b.buffer, event)
	if b.timer != nil {
		b.timer.Stop()
	}
	b.generation++
	generation := b.generation
	b.timer = time.AfterFunc(b.cfg.Quiescence, func() {
		b.flush(generation)
	})
}

func (b *Batcher[T]) pushImmediate(event T) {
	b.deliver.Lock()
	defer b.deliver.Unlock()

	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return
	}
	pending := b.buffer
	b.buffer = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.generation++
	b.mu.Unlock()

	if len(pending) > 0 && b.cfg.OnBatch != nil {
		b.cfg.OnBatch(pending)
	}
	if b.cfg.OnImmediate != nil {
		b.cfg.OnImmediate(event)
	}
}

func (b *Batcher[T]) flush(generation uint64) {
	b.deliver.Lock()
	defer b.deliver.Unlock()

	b.mu.Lock()
	if b.destroyed || generation != b.generation || len(b.buffer) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.buffer
	b.buffer = nil
	b.timer = nil
	b.mu.Unlock()

	if b.cfg.OnBatch != nil {
		b.cfg.OnBatch(batch)
	}
}

// Destroy stops the timer and drops anything still buffered. Later pushes
// are ignored.
func (b *Batcher[T]) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	b.destroyed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.buffer = nil
}
