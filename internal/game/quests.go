package game

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tmarcon/idledeck/internal/log"
)

// QuestKind selects the completion predicate of a quest definition.
type QuestKind string

const (
	// QuestOwnCard completes when the deck contains the named card.
	QuestOwnCard QuestKind = "own_card"
	// QuestCollection completes when the deck holds at least Count cards of
	// Rarity and money is at least Money.
	QuestCollection QuestKind = "collection"
	// QuestTrade completes when the deck contains every card in Cards;
	// claiming consumes one copy of each as the price of the reward.
	QuestTrade QuestKind = "trade"
)

// QuestReward is what claiming grants. Any subset of the fields may be set.
type QuestReward struct {
	Money     int64  `yaml:"money"`
	DeckSlots int    `yaml:"deck_slots"`
	Card      string `yaml:"card"`
}

// QuestDef is one quest in the configured chain. Quests unlock strictly in
// list order: quest i+1 unlocks when quest i is claimed.
type QuestDef struct {
	ID    string    `yaml:"id"`
	Title string    `yaml:"title"`
	Kind  QuestKind `yaml:"kind"`

	Card   string   `yaml:"card"`   // own_card
	Cards  []string `yaml:"cards"`  // trade
	Rarity Rarity   `yaml:"rarity"` // collection
	Count  int      `yaml:"count"`  // collection
	Money  int64    `yaml:"money"`  // collection

	Reward QuestReward `yaml:"reward"`
}

func (q QuestDef) validate(cfg *Config) error {
	if q.ID == "" {
		return fmt.Errorf("config: quest with empty id")
	}
	switch q.Kind {
	case QuestOwnCard:
		if _, ok := cfg.CardByName(q.Card); !ok {
			return fmt.Errorf("config: quest %q references unknown card %q", q.ID, q.Card)
		}
	case QuestCollection:
		if q.Count <= 0 {
			return fmt.Errorf("config: quest %q needs a positive count", q.ID)
		}
	case QuestTrade:
		if len(q.Cards) == 0 {
			return fmt.Errorf("config: quest %q trades no cards", q.ID)
		}
		for _, name := range q.Cards {
			if _, ok := cfg.CardByName(name); !ok {
				return fmt.Errorf("config: quest %q references unknown card %q", q.ID, name)
			}
		}
	default:
		return fmt.Errorf("config: quest %q has unknown kind %q", q.ID, q.Kind)
	}
	if q.Reward.Card != "" {
		if _, ok := cfg.CardByName(q.Reward.Card); !ok {
			return fmt.Errorf("config: quest %q rewards unknown card %q", q.ID, q.Reward.Card)
		}
	}
	return nil
}

// met reports whether the quest's completion predicate holds for the state.
func (q QuestDef) met(gs *GameState) bool {
	switch q.Kind {
	case QuestOwnCard:
		return gs.FindByName(q.Card) >= 0
	case QuestCollection:
		return gs.CountRarity(q.Rarity) >= q.Count && gs.Money >= q.Money
	case QuestTrade:
		// Each required name must be covered by a distinct deck entry.
		counts := make(map[string]int)
		for _, c := range gs.Deck {
			counts[c.Name]++
		}
		need := make(map[string]int)
		for _, name := range q.Cards {
			need[name]++
		}
		for name, n := range need {
			if counts[name] < n {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// defaultQuestStates builds fresh QuestState entries for the configured
// chain: everything locked except the first quest.
func defaultQuestStates(cfg *Config) []QuestState {
	states := make([]QuestState, len(cfg.Quests))
	for i, q := range cfg.Quests {
		states[i] = QuestState{ID: q.ID, Unlocked: i == 0}
	}
	return states
}

// --- Quest engine (session methods) ---

// evaluateQuests re-runs unlock gating and completion predicates. It is
// called synchronously after every state-mutating action so no observer ever
// sees a completed-but-unflagged quest. Transitions are monotonic; states
// already completed or claimed are left untouched.
func (s *Session) evaluateQuests() {
	for i, def := range s.cfg.Quests {
		if i >= len(s.state.Quests) {
			break
		}
		qs := &s.state.Quests[i]

		if !qs.Unlocked {
			if i == 0 || s.state.Quests[i-1].Claimed {
				qs.Unlocked = true
				s.logger.Log(log.NewQuestUnlockedEvent(qs.ID))
			}
		}
		if qs.Unlocked && !qs.Completed && def.met(s.state) {
			qs.Completed = true
			s.logger.Log(log.NewQuestCompletedEvent(qs.ID))
		}
	}
}

// ClaimQuest applies a completed quest's reward exactly once. Returns false
// with no state change when the quest is unknown, locked, incomplete or
// already claimed. Trade quests consume one copy of each traded card before
// the reward lands.
func (s *Session) ClaimQuest(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimQuestLocked(id)
}

func (s *Session) claimQuestLocked(id string) bool {
	var def QuestDef
	found := false
	for _, q := range s.cfg.Quests {
		if q.ID == id {
			def = q
			found = true
			break
		}
	}
	if !found {
		return false
	}
	qs := s.state.Quest(id)
	if qs == nil || !qs.Unlocked || !qs.Completed || qs.Claimed {
		return false
	}

	// Trade quests pay with cards. The predicate held when Completed was
	// set, but the deck may have changed since; re-check before consuming.
	if def.Kind == QuestTrade {
		if !def.met(s.state) {
			return false
		}
		for _, name := range def.Cards {
			if i := s.state.FindByName(name); i >= 0 {
				s.state.removeDeckIndex(i)
			}
		}
	}

	qs.Claimed = true
	s.state.Money += def.Reward.Money
	if def.Reward.DeckSlots > 0 {
		s.state.MaxDeckSize += def.Reward.DeckSlots
	}
	if def.Reward.Card != "" {
		if card, ok := s.cfg.CardByName(def.Reward.Card); ok && len(s.state.Deck) < s.state.MaxDeckSize {
			s.state.Deck = append(s.state.Deck, DeckCard{Card: card, PurchaseID: uuid.NewString()})
		}
	}
	s.logger.Log(log.NewQuestClaimedEvent(id, s.state.Money))

	// Claiming may unlock the next quest and even complete it immediately.
	s.evaluateQuests()
	s.persist()
	return true
}
