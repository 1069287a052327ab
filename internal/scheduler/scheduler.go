package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task is a scheduled unit of work that can be cancelled before it fires.
type Task interface {
	// ID identifies the task instance. Lifecycle code compares IDs to
	// ignore callbacks from superseded timers.
	ID() uuid.UUID

	// Cancel stops the task if it has not fired yet. Safe to call twice.
	Cancel()
}

// Scheduler schedules deferred and periodic work.
type Scheduler interface {
	// ScheduleOnce runs fn once after delay.
	ScheduleOnce(delay time.Duration, fn func()) Task

	// SchedulePeriodic runs fn every interval until the task is cancelled.
	SchedulePeriodic(interval time.Duration, fn func()) Task
}

// TimerScheduler implements Scheduler on top of the runtime timer facilities.
// Callbacks are passed through dispatch, which lets the owner serialize them
// onto a single goroutine. A nil dispatch runs callbacks inline on the timer
// goroutine.
type TimerScheduler struct {
	dispatch func(func())
}

// NewTimerScheduler creates a scheduler that funnels callbacks through
// dispatch.
func NewTimerScheduler(dispatch func(func())) *TimerScheduler {
	return &TimerScheduler{dispatch: dispatch}
}

func (s *TimerScheduler) run(fn func()) {
	if s.dispatch != nil {
		s.dispatch(fn)
		return
	}
	fn()
}

// ScheduleOnce runs fn once after delay.
func (s *TimerScheduler) ScheduleOnce(delay time.Duration, fn func()) Task {
	task := &timerTask{id: uuid.New()}
	task.timer = time.AfterFunc(delay, func() {
		s.run(fn)
	})
	return task
}

// SchedulePeriodic runs fn every interval until cancelled.
func (s *TimerScheduler) SchedulePeriodic(interval time.Duration, fn func()) Task {
	task := &tickerTask{
		id:     uuid.New(),
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-task.ticker.C:
				s.run(fn)
			case <-task.done:
				return
			}
		}
	}()
	return task
}

type timerTask struct {
	id    uuid.UUID
	timer *time.Timer
}

func (t *timerTask) ID() uuid.UUID { return t.id }

func (t *timerTask) Cancel() {
	t.timer.Stop()
}

type tickerTask struct {
	id     uuid.UUID
	ticker *time.Ticker
	once   sync.Once
	done   chan struct{}
}

func (t *tickerTask) ID() uuid.UUID { return t.id }

func (t *tickerTask) Cancel() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}
