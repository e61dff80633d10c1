package ticker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_FiresOncePerInterval(t *testing.T) {
	m := NewManual()
	count := 0
	m.Every(time.Second, func() { count++ })

	m.Advance(500 * time.Millisecond)
	assert.Equal(t, 0, count)

	m.Advance(500 * time.Millisecond)
	assert.Equal(t, 1, count)

	m.Advance(3 * time.Second)
	assert.Equal(t, 4, count)
	assert.Equal(t, 4*time.Second, m.Now())
}

func TestManual_CancelStopsTask(t *testing.T) {
	m := NewManual()
	count := 0
	task := m.Every(time.Second, func() { count++ })

	m.Advance(2 * time.Second)
	task.Cancel()
	task.Cancel()
	m.Advance(5 * time.Second)

	assert.Equal(t, 2, count)
	assert.False(t, task.Active())
	assert.Equal(t, 0, m.Live())
}

func TestManual_CallbackCanCancelItself(t *testing.T) {
	m := NewManual()
	remaining := 3
	var task Task
	task = m.Every(time.Second, func() {
		remaining--
		if remaining == 0 {
			task.Cancel()
		}
	})

	m.Advance(10 * time.Second)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, 0, m.Live())
}

func TestManual_FiresInTimeOrder(t *testing.T) {
	m := NewManual()
	var order []string
	m.Every(2*time.Second, func() { order = append(order, "slow") })
	m.Every(time.Second, func() { order = append(order, "fast") })

	m.Advance(2 * time.Second)
	assert.Equal(t, []string{"fast", "slow", "fast"}, order)
}

func TestManual_TaskStartedInsideCallback(t *testing.T) {
	m := NewManual()
	inner := 0
	started := false
	m.Every(time.Second, func() {
		if !started {
			started = true
			m.Every(time.Second, func() { inner++ })
		}
	})

	m.Advance(3 * time.Second)
	assert.Equal(t, 2, inner, "task started at t=1s fires at 2s and 3s")
}

// loop collects posted callbacks so the test decides when they run.
type loop struct {
	mu    sync.Mutex
	queue []func()
}

func (l *loop) post(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = append(l.queue, fn)
}

func (l *loop) drain() int {
	l.mu.Lock()
	q := l.queue
	l.queue = nil
	l.mu.Unlock()
	for _, fn := range q {
		fn()
	}
	return len(q)
}

func (l *loop) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func TestDispatch_PostsTicks(t *testing.T) {
	l := &loop{}
	d := NewDispatch(l.post)

	count := 0
	task := d.Every(5*time.Millisecond, func() { count++ })
	defer task.Cancel()

	require.Eventually(t, func() bool { return l.size() >= 2 }, time.Second, time.Millisecond)
	l.drain()
	assert.GreaterOrEqual(t, count, 2)
	assert.Equal(t, 1, d.Live())
}

func TestDispatch_DropsTicksQueuedBeforeCancel(t *testing.T) {
	l := &loop{}
	d := NewDispatch(l.post)

	count := 0
	task := d.Every(2*time.Millisecond, func() { count++ })

	require.Eventually(t, func() bool { return l.size() >= 1 }, time.Second, time.Millisecond)
	task.Cancel()
	l.drain()

	assert.Equal(t, 0, count, "ticks delivered after Cancel must not run")
	assert.False(t, task.Active())
	assert.Equal(t, 0, d.Live())
}

func TestDispatch_CancelIsIdempotent(t *testing.T) {
	d := NewDispatch(func(fn func()) { fn() })
	task := d.Every(time.Hour, func() {})

	task.Cancel()
	task.Cancel()
	assert.Equal(t, 0, d.Live())
}
