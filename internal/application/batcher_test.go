package application

import (
	"sync"
	"testing"
	"time"

	"github.com/bnema/clawsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type batchRecorder struct {
	mu        sync.Mutex
	batches   [][]int
	immediate []int
}

func (r *batchRecorder) onBatch(batch []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, batch)
}

func (r *batchRecorder) onImmediate(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.immediate = append(r.immediate, v)
}

func (r *batchRecorder) snapshot() ([][]int, []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]int(nil), r.batches...), append([]int(nil), r.immediate...)
}

func newIntBatcher(recorder *batchRecorder) *Batcher[int] {
	return NewBatcher(BatcherConfig[int]{
		Quiescence:  20 * time.Millisecond,
		Immediate:   func(v int) bool { return v < 0 },
		OnBatch:     recorder.onBatch,
		OnImmediate: recorder.onImmediate,
	})
}

func TestBatcherCoalescesBurst(t *testing.T) {
	recorder := &batchRecorder{}
	batcher := newIntBatcher(recorder)
	defer batcher.Destroy()

	batcher.Push(1)
	batcher.Push(2)
	batcher.Push(3)

	require.Eventually(t, func() bool {
		batches, _ := recorder.snapshot()
		return len(batches) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	batches, immediate := recorder.snapshot()
	assert.Equal(t, [][]int{{1, 2, 3}}, batches)
	assert.Empty(t, immediate)
}

func TestBatcherImmediateEventFlushesPendingBufferFirst(t *testing.T) {
	var mu sync.Mutex
	var delivered []int
	record := func(values ...int) {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, values...)
	}

	recorder := &batchRecorder{}
	batcher := NewBatcher(BatcherConfig[int]{
		Quiescence: 20 * time.Millisecond,
		Immediate:  func(v int) bool { return v < 0 },
		OnBatch: func(batch []int) {
			recorder.onBatch(batch)
			record(batch...)
		},
		OnImmediate: func(v int) {
			recorder.onImmediate(v)
			record(v)
		},
	})
	defer batcher.Destroy()

	batcher.Push(1)
	batcher.Push(2)
	batcher.Push(-1)

	batches, immediate := recorder.snapshot()
	assert.Equal(t, [][]int{{1, 2}}, batches)
	assert.Equal(t, []int{-1}, immediate)

	batcher.Push(3)
	require.Eventually(t, func() bool {
		batches, _ := recorder.snapshot()
		return len(batches) == 2
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	batches, _ = recorder.snapshot()
	assert.Equal(t, [][]int{{1, 2}, {3}}, batches)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, -1, 3}, delivered)
}

func TestBatcherImmediateEventWithEmptyBufferSkipsBatch(t *testing.T) {
	recorder := &batchRecorder{}
	batcher := newIntBatcher(recorder)
	defer batcher.Destroy()

	batcher.Push(-1)

	batches, immediate := recorder.snapshot()
	assert.Empty(t, batches)
	assert.Equal(t, []int{-1}, immediate)
}

func TestBatcherDestroyDropsBufferAndIsIdempotent(t *testing.T) {
	recorder := &batchRecorder{}
	batcher := newIntBatcher(recorder)

	batcher.Push(1)
	batcher.Destroy()
	batcher.Destroy()
	batcher.Push(2)
	batcher.Push(-2)

	time.Sleep(60 * time.Millisecond)
	batches, immediate := recorder.snapshot()
	assert.Empty(t, batches)
	assert.Empty(t, immediate)
}

func TestBatcherDefaultsQuiescence(t *testing.T) {
	batcher := NewBatcher(BatcherConfig[int]{})
	defer batcher.Destroy()

	assert.Equal(t, DefaultQuiescence, batcher.cfg.Quiescence)
	batcher.Push(1)
}

func TestImmediateAgentEvent(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		data domain.StreamData
		want bool
	}{
		{name: "lifecycle", data: domain.LifecycleData{Phase: "start"}, want: true},
		{name: "error", data: domain.ErrorData{Message: "boom"}, want: true},
		{name: "tool", data: domain.ToolData{Phase: "start"}, want: false},
		{name: "assistant", data: domain.AssistantData{Text: "hi"}, want: false},
		{name: "unknown", data: domain.UnknownData{Name: "compaction"}, want: false},
		{name: "nil", data: nil, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ImmediateAgentEvent(domain.AgentEvent{Data: tc.data}))
		})
	}
}
