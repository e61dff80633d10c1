package ticker

import "time"

// Manual is a deterministic scheduler driven by Advance. Tests and headless
// runs use it in place of wall-clock time.
type Manual struct {
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	interval  time.Duration
	next      time.Duration
	seq       int
	fn        func()
	cancelled bool
}

func (t *manualTask) Cancel()      { t.cancelled = true }
func (t *manualTask) Active() bool { return !t.cancelled }

// NewManual creates a manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Every implements Scheduler.
func (m *Manual) Every(interval time.Duration, fn func()) Task {
	m.seq++
	t := &manualTask{interval: interval, next: m.now + interval, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

// Now returns the elapsed virtual time.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Advance moves virtual time forward by d, firing due callbacks in time order.
// Callbacks may cancel tasks or start new ones.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for {
		t := m.due(target)
		if t == nil {
			break
		}
		m.now = t.next
		t.next += t.interval
		t.fn()
	}
	m.now = target
	m.prune()
}

// due returns the earliest active task firing at or before target.
func (m *Manual) due(target time.Duration) *manualTask {
	var best *manualTask
	for _, t := range m.tasks {
		if t.cancelled || t.next > target {
			continue
		}
		if best == nil || t.next < best.next || (t.next == best.next && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (m *Manual) prune() {
	kept := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.cancelled {
			kept = append(kept, t)
		}
	}
	m.tasks = kept
}

// Live returns the number of tasks that have not been cancelled.
func (m *Manual) Live() int {
	n := 0
	for _, t := range m.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}
