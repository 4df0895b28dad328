package game

import (
	"sync"
	"time"
)

// Handle is a cancellable timer registration. Cancel is idempotent and safe
// after the timer has fired.
type Handle interface {
	Cancel()
}

// Scheduler hands out cancellable timers. Every session and every mini-game
// owns the handles it creates and cancels all of them on teardown, so no
// orphaned callback can mutate state for a screen no longer shown.
type Scheduler interface {
	// After runs fn once after d.
	After(d time.Duration, fn func()) Handle
	// Every runs fn repeatedly every d until cancelled.
	Every(d time.Duration, fn func()) Handle
}

// --- TimerScheduler: wall-clock implementation ---

// TimerScheduler is the production Scheduler backed by the runtime's timers.
type TimerScheduler struct{}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

type afterHandle struct {
	t *time.Timer
}

func (h *afterHandle) Cancel() {
	h.t.Stop()
}

func (s *TimerScheduler) After(d time.Duration, fn func()) Handle {
	return &afterHandle{t: time.AfterFunc(d, fn)}
}

type everyHandle struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (h *everyHandle) Cancel() {
	h.once.Do(func() {
		h.ticker.Stop()
		close(h.done)
	})
}

func (s *TimerScheduler) Every(d time.Duration, fn func()) Handle {
	h := &everyHandle{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-h.ticker.C:
				fn()
			case <-h.done:
				return
			}
		}
	}()
	return h
}

// --- handleSet: teardown bookkeeping shared by session and battle ---

type handleSet struct {
	handles []Handle
}

func (hs *handleSet) track(h Handle) Handle {
	hs.handles = append(hs.handles, h)
	return h
}

func (hs *handleSet) cancelAll() {
	for _, h := range hs.handles {
		h.Cancel()
	}
	hs.handles = nil
}
