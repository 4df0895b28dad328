package game

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tmarcon/idledeck/internal/log"
	"github.com/tmarcon/idledeck/internal/store"
)

// Persistence keys. One document per key; the battle keys exist only while
// a battle session is in flight.
const (
	StateKey         = "idledeck:state"
	BattlePartyKey   = "idledeck:battle:party"
	BattleRewardsKey = "idledeck:battle:rewards"
)

// Session owns the live game: the state, the store, the RNG, the logger and
// every timer handle. All mutation happens under one mutex, modelling the
// single cooperative thread of the original event-driven game — timer
// callbacks and user actions interleave but never overlap.
type Session struct {
	mu     sync.Mutex
	cfg    *Config
	state  *GameState
	store  store.Store
	logger log.EventLogger
	rng    RandomSource
	sched  Scheduler
	ctx    context.Context

	shopTable  *LootTable
	bonusTable *LootTable

	timers      handleSet
	offerReveal Handle // pending blink-gap timer, replaced each cycle
	battle      *BattleSession
	closed      bool
}

// NewSession loads (and migrates) the saved state and prepares a session.
// Timers do not run until Start.
func NewSession(cfg *Config, st store.Store, logger log.EventLogger, rng RandomSource, sched Scheduler) (*Session, error) {
	if logger == nil {
		logger = log.NewMemoryLogger()
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	if sched == nil {
		sched = NewTimerScheduler()
	}

	shopTable, err := NewLootTable(cfg.ShopWeights)
	if err != nil {
		return nil, err
	}
	bonusTable, err := NewLootTable(cfg.BattleBonusWeights)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:        cfg,
		store:      st,
		logger:     logger,
		rng:        rng,
		sched:      sched,
		ctx:        context.Background(),
		shopTable:  shopTable,
		bonusTable: bonusTable,
	}
	s.state = loadState(s.ctx, st, cfg, logger)

	// A freshly migrated or repaired state may already satisfy predicates.
	s.evaluateQuests()
	return s, nil
}

// Config returns the session's configuration.
func (s *Session) Config() *Config { return s.cfg }

// Logger returns the session's event logger.
func (s *Session) Logger() log.EventLogger { return s.logger }

// Start launches the idle loops: offer rotation and passive income.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.showNewOffer()
	cycle := s.cfg.OfferVisible() + s.cfg.OfferHidden()
	s.timers.track(s.sched.Every(cycle, s.rotateOffer))
	s.timers.track(s.sched.Every(s.cfg.IncomeInterval(), s.incomeTick))
}

// Close stops every timer the session or its battle owns, persists once and
// marks the session unusable.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.timers.cancelAll()
	if s.offerReveal != nil {
		s.offerReveal.Cancel()
		s.offerReveal = nil
	}
	if s.battle != nil {
		s.battle.teardownLocked()
		s.battle = nil
	}
	s.persist()
	s.logger.Log(log.NewSessionClosedEvent())
}

// Snapshot returns a deep copy of the current game state for rendering.
func (s *Session) Snapshot() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() GameState {
	cp := *s.state
	cp.Deck = append([]DeckCard(nil), s.state.Deck...)
	cp.Quests = append([]QuestState(nil), s.state.Quests...)
	if s.state.CurrentCard != nil {
		card := *s.state.CurrentCard
		cp.CurrentCard = &card
	}
	return cp
}

// Battle returns the in-flight battle session, or nil.
func (s *Session) Battle() *BattleSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.battle
}

// Reset wipes the save and restores the default state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Remove(s.ctx, StateKey)
	s.clearBattleKeys()
	if s.battle != nil {
		s.battle.teardownLocked()
		s.battle = nil
	}
	s.state = defaultState(s.cfg)
	s.logger.Log(log.NewStateResetEvent("player reset"))
	s.evaluateQuests()
	s.persist()
}

// persist writes the state document. Failure is logged and absorbed: the
// engine keeps running in memory and the next scheduled save retries.
func (s *Session) persist() {
	data, err := json.Marshal(s.state)
	if err != nil {
		s.logger.Log(log.NewSaveFailedEvent(StateKey))
		return
	}
	if !s.store.Save(s.ctx, StateKey, data) {
		s.logger.Log(log.NewSaveFailedEvent(StateKey))
	}
}

func (s *Session) clearBattleKeys() {
	s.store.Remove(s.ctx, BattlePartyKey)
	s.store.Remove(s.ctx, BattleRewardsKey)
}
