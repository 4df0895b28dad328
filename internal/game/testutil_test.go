package game

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/tmarcon/idledeck/internal/log"
	"github.com/tmarcon/idledeck/internal/store"
)

// --- seqRNG: replays a fixed sequence of draws ---

// seqRNG cycles through a scripted sequence of [0,1) values so tests can
// force specific weighted-draw outcomes.
type seqRNG struct {
	vals []float64
	pos  int
}

func newSeqRNG(vals ...float64) *seqRNG {
	if len(vals) == 0 {
		vals = []float64{0.5}
	}
	return &seqRNG{vals: vals}
}

func (r *seqRNG) Float64() float64 {
	v := r.vals[r.pos%len(r.vals)]
	r.pos++
	return v
}

// --- ManualScheduler: virtual time, no sleeping ---

type manualTimer struct {
	id        int
	at        time.Duration
	period    time.Duration // 0 for one-shot
	fn        func()
	cancelled bool
}

func (t *manualTimer) Cancel() { t.cancelled = true }

// ManualScheduler runs timers on a virtual clock driven by Advance.
type ManualScheduler struct {
	now    time.Duration
	nextID int
	timers []*manualTimer
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) After(d time.Duration, fn func()) Handle {
	s.nextID++
	t := &manualTimer{id: s.nextID, at: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *ManualScheduler) Every(d time.Duration, fn func()) Handle {
	s.nextID++
	t := &manualTimer{id: s.nextID, at: s.now + d, period: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward, firing due timers in time order.
// Callbacks may register new timers; those fire too if they come due.
func (s *ManualScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		next := s.dueBefore(target)
		if next == nil {
			break
		}
		s.now = next.at
		if next.period > 0 {
			next.at += next.period
		} else {
			next.cancelled = true
		}
		next.fn()
	}
	s.now = target
}

func (s *ManualScheduler) dueBefore(target time.Duration) *manualTimer {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	s.timers = live
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].at != s.timers[j].at {
			return s.timers[i].at < s.timers[j].at
		}
		return s.timers[i].id < s.timers[j].id
	})
	for _, t := range s.timers {
		if t.at <= target {
			return t
		}
	}
	return nil
}

// --- countStore: save-counting store wrapper ---

type countStore struct {
	store.Store
	saves int
}

func (s *countStore) Save(ctx context.Context, key string, data []byte) bool {
	s.saves++
	return s.Store.Save(ctx, key, data)
}

// --- Session fixtures ---

type fixture struct {
	cfg    *Config
	store  *store.MemoryStore
	logger *log.MemoryLogger
	sched  *ManualScheduler
	sess   *Session
}

// newFixture builds a session over a memory store with a manual clock and a
// scripted or seeded RNG.
func newFixture(t *testing.T, rng RandomSource) *fixture {
	t.Helper()
	if rng == nil {
		rng = NewSeededRNG(1)
	}
	f := &fixture{
		cfg:    DefaultConfig(),
		store:  store.NewMemoryStore(),
		logger: log.NewMemoryLogger(),
		sched:  NewManualScheduler(),
	}
	sess, err := NewSession(f.cfg, f.store, f.logger, rng, f.sched)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	f.sess = sess
	return f
}

// offer places a named catalog card in the shop slot, visible.
func (f *fixture) offer(t *testing.T, name string) {
	t.Helper()
	card, ok := f.cfg.CardByName(name)
	if !ok {
		t.Fatalf("card %q not in catalog", name)
	}
	f.sess.mu.Lock()
	f.sess.state.CurrentCard = &card
	f.sess.state.CardVisible = true
	f.sess.mu.Unlock()
}

// give appends a named catalog card straight into the deck.
func (f *fixture) give(t *testing.T, name string) {
	t.Helper()
	card, ok := f.cfg.CardByName(name)
	if !ok {
		t.Fatalf("card %q not in catalog", name)
	}
	f.sess.mu.Lock()
	f.sess.state.Deck = append(f.sess.state.Deck, DeckCard{Card: card, PurchaseID: "test-" + name})
	f.sess.mu.Unlock()
}

// setMoney overwrites the money counter.
func (f *fixture) setMoney(amount int64) {
	f.sess.mu.Lock()
	f.sess.state.Money = amount
	f.sess.mu.Unlock()
}

// state returns a snapshot.
func (f *fixture) state() GameState {
	return f.sess.Snapshot()
}

// solveCable pairs every point by matching colors across sides.
func solveCable(t *testing.T, b *BattleSession) {
	t.Helper()
	points := b.Cable().Points()
	for _, left := range points {
		if left.Side != SideLeft {
			continue
		}
		for _, right := range points {
			if right.Side != SideRight || right.Color != left.Color {
				continue
			}
			b.SelectCablePoint(left.ID)
			if out := b.SelectCablePoint(right.ID); out != CablePaired && out != CableWon {
				t.Fatalf("pairing %s: got outcome %d", left.Color, out)
			}
			break
		}
	}
}
