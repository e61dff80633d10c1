// Package ticker provides recurring scheduled tasks that are started with an
// explicit handle and stopped with an explicit Cancel.
package ticker

import (
	"sync"
	"sync/atomic"
	"time"
)

// Task is the handle of a running recurring callback.
type Task interface {
	// Cancel stops the task. Calling it more than once is a no-op.
	Cancel()
	// Active reports whether the task has not been cancelled.
	Active() bool
}

// Scheduler starts recurring tasks.
type Scheduler interface {
	// Every calls fn once per interval until the returned task is cancelled.
	Every(interval time.Duration, fn func()) Task
}

// Dispatch runs real tickers but delivers every tick through post, which must
// hand the callback to the owner's event loop. Callbacks therefore never run
// concurrently with other events. Ticks already queued when a task is
// cancelled are dropped.
type Dispatch struct {
	post func(func())
	live atomic.Int64
}

// NewDispatch creates a scheduler that posts ticks through post.
func NewDispatch(post func(func())) *Dispatch {
	return &Dispatch{post: post}
}

// Every implements Scheduler.
func (d *Dispatch) Every(interval time.Duration, fn func()) Task {
	t := &dispatchTask{stop: make(chan struct{}), owner: d}
	d.live.Add(1)

	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-tk.C:
				d.post(func() {
					if t.Active() {
						fn()
					}
				})
			}
		}
	}()
	return t
}

// Live returns the number of tasks that have not been cancelled.
func (d *Dispatch) Live() int {
	return int(d.live.Load())
}

type dispatchTask struct {
	stop      chan struct{}
	once      sync.Once
	cancelled atomic.Bool
	owner     *Dispatch
}

func (t *dispatchTask) Cancel() {
	t.once.Do(func() {
		t.cancelled.Store(true)
		close(t.stop)
		t.owner.live.Add(-1)
	})
}

func (t *dispatchTask) Active() bool {
	return !t.cancelled.Load()
}
