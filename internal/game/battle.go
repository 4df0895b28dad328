package game

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tmarcon/idledeck/internal/log"
)

// BattlePartySize is how many deck entries a battle stages.
const BattlePartySize = 4

// BonusCardCount is how many extra cards the reward pipeline draws.
const BonusCardCount = 2

// battleSwapCount is how many staged cards the reconciliation trades away
// (by convention the first two of the four selected).
const battleSwapCount = 2

var (
	ErrBattleInFlight = errors.New("a battle is already in flight")
	ErrBadParty       = errors.New("battle needs exactly 4 distinct deck entries")
	ErrNoRewards      = errors.New("no battle rewards to reconcile")
)

// BattlePhase tracks where the battle pipeline stands.
type BattlePhase int

const (
	PhaseCable BattlePhase = iota
	PhaseShooting
	PhaseRewards
	PhaseLost
)

func (p BattlePhase) String() string {
	switch p {
	case PhaseCable:
		return "cable"
	case PhaseShooting:
		return "shooting"
	case PhaseRewards:
		return "rewards"
	case PhaseLost:
		return "lost"
	default:
		return "unknown"
	}
}

// BattleParty is the staged-cards document handed across screens.
type BattleParty struct {
	Cards []DeckCard `json:"cards"`
}

// RewardSet is the battle's outcome document: the 6-card reward set, the
// scores, and the optional wheel prize with its precomputed landing angle.
type RewardSet struct {
	Staged     []DeckCard `json:"staged"`
	Bonus      []Card     `json:"bonus"`
	Score      int        `json:"score"`
	Total      int        `json:"total"`
	Won        bool       `json:"won"`
	Wheel      *Card      `json:"wheel,omitempty"`
	WheelAngle float64    `json:"wheelAngle,omitempty"`
}

// BattleSession is the ephemeral two-stage mini-game run. It works against
// a snapshot of the staged cards, never against GameState directly, and
// owns every timer it starts — teardown cancels them all.
type BattleSession struct {
	s      *Session
	staged []DeckCard
	phase  BattlePhase

	cable          *CableGame
	cableRemaining int
	cableElapsed   int

	shooting       *ShootingGame
	shootRemaining int

	rewards *RewardSet
	timers  handleSet
	spawn   Handle
}

// --- Staging ---

// StageBattle snapshots the four selected deck entries under the battle key
// and opens the cable stage. The indices must be distinct and in range.
func (s *Session) StageBattle(indices []int) (*BattleSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.battle != nil {
		return nil, ErrBattleInFlight
	}
	if len(indices) != BattlePartySize {
		return nil, ErrBadParty
	}
	seen := make(map[int]bool, BattlePartySize)
	staged := make([]DeckCard, 0, BattlePartySize)
	names := make([]string, 0, BattlePartySize)
	for _, i := range indices {
		if i < 0 || i >= len(s.state.Deck) || seen[i] {
			return nil, ErrBadParty
		}
		seen[i] = true
		staged = append(staged, s.state.Deck[i])
		names = append(names, s.state.Deck[i].Name)
	}

	if data, err := json.Marshal(BattleParty{Cards: staged}); err == nil {
		if !s.store.Save(s.ctx, BattlePartyKey, data) {
			s.logger.Log(log.NewSaveFailedEvent(BattlePartyKey))
		}
	}

	b := &BattleSession{
		s:              s,
		staged:         staged,
		phase:          PhaseCable,
		cable:          NewCableGame(s.cfg.Cable, s.rng),
		cableRemaining: s.cfg.Cable.TimeLimitSec,
	}
	b.timers.track(s.sched.Every(time.Second, b.cableCountdown))
	s.battle = b
	s.logger.Log(log.NewBattleStagedEvent(names))
	return b, nil
}

// Phase returns the battle's current stage.
func (b *BattleSession) Phase() BattlePhase {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return b.phase
}

// Staged returns the snapshotted party.
func (b *BattleSession) Staged() []DeckCard {
	return append([]DeckCard(nil), b.staged...)
}

// Cable returns the cable puzzle.
func (b *BattleSession) Cable() *CableGame {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return b.cable
}

// Shooting returns the shooting stage, or nil before it starts.
func (b *BattleSession) Shooting() *ShootingGame {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return b.shooting
}

// Rewards returns the resolved reward set, or nil until the pipeline ends.
func (b *BattleSession) Rewards() *RewardSet {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return b.rewards
}

// CableRemaining returns the cable countdown in seconds.
func (b *BattleSession) CableRemaining() int {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return b.cableRemaining
}

// ShootRemaining returns the shooting countdown in seconds.
func (b *BattleSession) ShootRemaining() int {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return b.shootRemaining
}

// BattleView is a consistent snapshot of the battle for rendering.
type BattleView struct {
	Phase          string       `json:"phase"`
	CableRemaining int          `json:"cableRemaining"`
	CablePoints    []CablePoint `json:"cablePoints"`
	CableSelected  int          `json:"cableSelected"`
	CableScore     int          `json:"cableScore"`
	ShootRemaining int          `json:"shootRemaining,omitempty"`
	Shapes         []Shape      `json:"shapes,omitempty"`
	Score          int          `json:"score"`
	Rewards        *RewardSet   `json:"rewards,omitempty"`
}

// View snapshots the battle under the session lock.
func (b *BattleSession) View() BattleView {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	v := BattleView{
		Phase:          b.phase.String(),
		CableRemaining: b.cableRemaining,
		CablePoints:    b.cable.Points(),
		CableSelected:  b.cable.Selected(),
		CableScore:     b.cable.Score(),
		Score:          b.cable.Score(),
		Rewards:        b.rewards,
	}
	if b.shooting != nil {
		v.ShootRemaining = b.shootRemaining
		v.Shapes = b.shooting.Shapes()
		v.Score = b.shooting.Score()
	}
	return v
}

// --- Cable stage ---

func (b *BattleSession) cableCountdown() {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.phase != PhaseCable {
		return
	}
	b.cableRemaining--
	if b.cableRemaining > 0 {
		return
	}
	// Timeout: the player is dismissed, no shooting stage, no rewards.
	b.cable.timeout()
	b.phase = PhaseLost
	b.timers.cancelAll()
	b.s.logger.Log(log.NewCableTimeoutEvent())
}

// SelectCablePoint forwards one click into the puzzle. A win records the
// elapsed time and schedules the shooting stage after a short beat.
func (b *BattleSession) SelectCablePoint(id int) CableOutcome {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.phase != PhaseCable {
		return CableIgnored
	}
	outcome := b.cable.Select(id)
	switch outcome {
	case CablePaired:
		b.s.logger.Log(log.NewCablePairedEvent(b.colorOf(id), b.cable.Paired(), len(b.cable.Points())/2))
	case CableMismatch:
		b.s.logger.Log(log.NewCableRejectedEvent("color or side mismatch"))
	case CableWon:
		b.cableElapsed = b.s.cfg.Cable.TimeLimitSec - b.cableRemaining
		b.s.logger.Log(log.NewCablePairedEvent(b.colorOf(id), b.cable.Paired(), len(b.cable.Points())/2))
		b.s.logger.Log(log.NewCableWinEvent(b.cableElapsed))
		b.timers.cancelAll()
		b.timers.track(b.s.sched.After(2*time.Second, b.startShooting))
	}
	return outcome
}

func (b *BattleSession) colorOf(id int) string {
	points := b.cable.Points()
	if id < 0 || id >= len(points) {
		return ""
	}
	return points[id].Color
}

// CableElapsed returns the seconds the puzzle took, once won.
func (b *BattleSession) CableElapsed() int {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return b.cableElapsed
}

// --- Shooting stage ---

func (b *BattleSession) startShooting() {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.phase != PhaseCable || !b.cable.Won() {
		return
	}
	cfg := b.s.cfg.Shooting
	b.phase = PhaseShooting
	b.shooting = NewShootingGame(cfg, b.cable.Score())
	b.shootRemaining = cfg.DurationSec

	b.timers.track(b.s.sched.Every(time.Second, b.shootCountdown))
	b.timers.track(b.s.sched.Every(cfg.Frame(), b.frame))
	b.scheduleSpawn()
}

func (b *BattleSession) shootCountdown() {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.phase != PhaseShooting {
		return
	}
	b.shootRemaining--
	if b.shootRemaining <= 0 {
		b.endShooting()
	}
}

func (b *BattleSession) frame() {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.phase != PhaseShooting {
		return
	}
	b.shooting.Step()
}

func (b *BattleSession) scheduleSpawn() {
	cfg := b.s.cfg.Shooting
	delay := time.Duration(cfg.SpawnMinDelayMs) * time.Millisecond
	delay += time.Duration(b.s.rng.Float64()*float64(cfg.SpawnDelayRangeMs)) * time.Millisecond
	b.spawn = b.timers.track(b.s.sched.After(delay, func() {
		b.s.mu.Lock()
		defer b.s.mu.Unlock()
		if b.phase != PhaseShooting {
			return
		}
		b.shooting.Spawn(b.s.rng)
		b.scheduleSpawn()
	}))
}

// Shoot registers a shot at (x, y). Reaching the score goal under the
// threshold policy ends the stage early.
func (b *BattleSession) Shoot(x, y float64) ShootResult {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.phase != PhaseShooting {
		return ShootMiss
	}
	result := b.shooting.Shoot(x, y)
	switch result {
	case ShootTarget:
		b.s.logger.Log(log.NewShotHitEvent(b.shooting.Score()))
	case ShootDecoy:
		b.s.logger.Log(log.NewShotDecoyEvent(b.shooting.Score()))
	}
	if b.shooting.goalReached() {
		b.endShooting()
	}
	return result
}

// endShooting settles the stage and runs the reward pipeline. Rewards are
// granted whatever the shooting outcome was.
func (b *BattleSession) endShooting() {
	b.shooting.finish()
	b.timers.cancelAll()
	b.s.logger.Log(log.NewShootingOverEvent(b.shooting.Score(), b.shooting.Won()))
	b.resolveRewards()
}

// --- Reward pipeline ---

// resolveRewards draws the two bonus cards, totals the 6-card reward set
// and spins the wheel, then hands the document over via the rewards key.
func (b *BattleSession) resolveRewards() {
	s := b.s
	rewards := &RewardSet{
		Staged: append([]DeckCard(nil), b.staged...),
		Score:  b.shooting.Score(),
		Won:    b.shooting.Won(),
	}

	for i := 0; i < BonusCardCount; i++ {
		card, err := s.bonusTable.DrawCard(s.cfg, s.rng)
		if err != nil {
			continue
		}
		rewards.Bonus = append(rewards.Bonus, card)
		s.logger.Log(log.NewRewardDrawnEvent(card.Name, card.Rarity.String()))
	}

	rewards.Total = rewards.Score
	for _, c := range rewards.Staged {
		rewards.Total += int(c.Income)
	}
	for _, c := range rewards.Bonus {
		rewards.Total += int(c.Income)
	}

	// The wheel only spins for a won battle; a threshold-policy loss still
	// pays the staged and bonus cards but skips the prize.
	if rewards.Won {
		tierIdx, rarity := s.cfg.Wheel.tierFor(rewards.Total)
		pool := s.cfg.CardsOfRarity(rarity)
		if len(pool) == 0 {
			// Same fallback rule as every other draw: nearest populated band.
			if table, err := NewLootTable([]RarityWeight{{Rarity: rarity, Weight: 1}}); err == nil {
				if card, err := table.DrawCard(s.cfg, s.rng); err == nil {
					pool = []Card{card}
				}
			}
		}
		if len(pool) > 0 {
			card := pool[intn(s.rng, len(pool))]
			rewards.Wheel = &card
			rewards.WheelAngle = wheelAngle(s.cfg.Wheel, tierIdx, s.rng)
			s.logger.Log(log.NewWheelSpinEvent(card.Name, card.Rarity.String(), rewards.Total))
		}
	}

	b.rewards = rewards
	b.phase = PhaseRewards

	if data, err := json.Marshal(rewards); err == nil {
		if !s.store.Save(s.ctx, BattleRewardsKey, data) {
			s.logger.Log(log.NewSaveFailedEvent(BattleRewardsKey))
		}
	}
}

// tierFor maps a total score to its wheel tier. The first band whose
// MaxTotal covers the score wins; the last band is open-ended.
func (w WheelConfig) tierFor(total int) (int, Rarity) {
	last := len(w.Tiers) - 1
	for i, tier := range w.Tiers {
		if i == last || (tier.MaxTotal > 0 && total < tier.MaxTotal) {
			return i, tier.Rarity
		}
	}
	return last, w.Tiers[last].Rarity
}

// wheelAngle precomputes the spin's landing angle: full rotations plus a
// point inside the winning tier's segment, padded off the segment edges.
func wheelAngle(w WheelConfig, tierIdx int, rng RandomSource) float64 {
	sweep := 360.0 / float64(len(w.Tiers))
	offset := sweep * (0.1 + 0.8*rng.Float64())
	return float64(w.SpinRotations)*360 + float64(tierIdx)*sweep + offset
}

// --- Reconciliation ---

// FinishBattle reads the reward document back and reconciles it into the
// deck: all removals happen before any addition, so the deck never exceeds
// capacity even transiently. The swap trades the first two staged cards
// (plus one random card when the wheel paid out) for the new arrivals — a
// net-zero reshuffle, not a pure gain. All battle-scoped data is cleared.
func (s *Session) FinishBattle() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.store.Load(s.ctx, BattleRewardsKey)
	if err != nil || !ok {
		return ErrNoRewards
	}
	var rewards RewardSet
	if err := json.Unmarshal(data, &rewards); err != nil {
		return ErrNoRewards
	}

	removed := 0
	for i := 0; i < battleSwapCount && i < len(rewards.Staged); i++ {
		if idx := s.state.FindByPurchaseID(rewards.Staged[i].PurchaseID); idx >= 0 {
			s.state.removeDeckIndex(idx)
			removed++
		}
	}
	if rewards.Wheel != nil && len(s.state.Deck) > 0 {
		s.state.removeDeckIndex(intn(s.rng, len(s.state.Deck)))
		removed++
	}

	added := 0
	for _, card := range rewards.Bonus {
		if len(s.state.Deck) >= s.state.MaxDeckSize {
			break
		}
		s.state.Deck = append(s.state.Deck, DeckCard{Card: card, PurchaseID: uuid.NewString()})
		added++
	}
	if rewards.Wheel != nil && len(s.state.Deck) < s.state.MaxDeckSize {
		s.state.Deck = append(s.state.Deck, DeckCard{Card: *rewards.Wheel, PurchaseID: uuid.NewString()})
		added++
	}

	s.logger.Log(log.NewReconciledEvent(removed, added, len(s.state.Deck)))

	if s.battle != nil {
		s.battle.teardownLocked()
		s.battle = nil
	}
	s.clearBattleKeys()
	s.evaluateQuests()
	s.persist()
	return nil
}

// AbandonBattle discards the in-flight battle: timers cancelled, battle
// keys cleared, no deck mutation.
func (s *Session) AbandonBattle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.battle == nil {
		return
	}
	s.battle.teardownLocked()
	s.battle = nil
	s.clearBattleKeys()
}

// teardownLocked cancels every timer the battle owns. Callers hold s.mu.
func (b *BattleSession) teardownLocked() {
	b.timers.cancelAll()
	b.spawn = nil
}
