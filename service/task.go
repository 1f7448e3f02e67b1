package service

import (
	"sync"
	"time"
)

// Task is a handle to a pending timer. Cancel is idempotent and safe to
// call on a task that already fired.
type Task interface {
	Cancel()
}

// Scheduler creates timers. StreamSession takes one so tests can fire
// timers by hand instead of sleeping.
type Scheduler interface {
	// After runs f once after d.
	After(d time.Duration, f func()) Task
	// Every runs f every d until cancelled. Runs never overlap.
	Every(d time.Duration, f func()) Task
}

// RealScheduler is the Scheduler backed by the runtime timers.
type RealScheduler struct{}

func NewRealScheduler() *RealScheduler {
	return &RealScheduler{}
}

type timerTask struct {
	t *time.Timer
}

func (t *timerTask) Cancel() {
	t.t.Stop()
}

func (RealScheduler) After(d time.Duration, f func()) Task {
	return &timerTask{t: time.AfterFunc(d, f)}
}

type tickerTask struct {
	once sync.Once
	stop chan struct{}
}

func (t *tickerTask) Cancel() {
	t.once.Do(func() { close(t.stop) })
}

func (RealScheduler) Every(d time.Duration, f func()) Task {
	task := &tickerTask{stop: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-task.stop:
				return
			case <-ticker.C:
				// A cancel that raced with the tick wins.
				select {
				case <-task.stop:
					return
				default:
				}
				f()
			}
		}
	}()
	return task
}

// TaskSlot owns at most one pending task of a given kind. Setting a new
// task cancels the previous one, so two reconnect (or health) timers can
// never be pending at once.
type TaskSlot struct {
	task Task
}

// Set cancels any pending task and stores t.
func (s *TaskSlot) Set(t Task) {
	s.Cancel()
	s.task = t
}

// Cancel cancels the pending task, if any.
func (s *TaskSlot) Cancel() {
	if s.task != nil {
		s.task.Cancel()
		s.task = nil
	}
}

// Clear forgets the task without cancelling it; used from inside the
// task's own callback once it has fired.
func (s *TaskSlot) Clear() {
	s.task = nil
}

// Pending reports whether a task is stored.
func (s *TaskSlot) Pending() bool {
	return s.task != nil
}
