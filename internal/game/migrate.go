package game

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/tmarcon/idledeck/internal/log"
	"github.com/tmarcon/idledeck/internal/store"
)

// defaultState builds a fresh GameState from configuration.
func defaultState(cfg *Config) *GameState {
	return &GameState{
		Money:       cfg.StartingMoney,
		Deck:        []DeckCard{},
		MaxDeckSize: cfg.DefaultMaxDeckSize,
		Quests:      defaultQuestStates(cfg),
	}
}

// loadState loads, repairs and (if anything changed) rewrites the saved
// state document. Corrupt or missing data degrades to the default state —
// never an error for the caller.
func loadState(ctx context.Context, st store.Store, cfg *Config, logger log.EventLogger) *GameState {
	data, ok, err := st.Load(ctx, StateKey)
	if err != nil {
		logger.Log(log.NewStateResetEvent(fmt.Sprintf("load failed: %v", err)))
		return defaultState(cfg)
	}
	if !ok {
		return defaultState(cfg)
	}

	gs, fixes, err := DecodeState(data, cfg)
	if err != nil {
		logger.Log(log.NewStateResetEvent("corrupt save document"))
		return defaultState(cfg)
	}
	if len(fixes) > 0 {
		logger.Log(log.NewMigratedEvent(fixes))
		if repaired, merr := json.Marshal(gs); merr == nil {
			if !st.Save(ctx, StateKey, repaired) {
				logger.Log(log.NewSaveFailedEvent(StateKey))
			}
		}
	}
	return gs
}

// DecodeState parses a state document defensively: each field is decoded on
// its own and backfilled with its schema default when missing or mistyped,
// then Migrate canonicalizes the result. Only an unparseable document is an
// error. The returned fix list is empty iff the document was already
// canonical, which makes the whole pass idempotent.
func DecodeState(data []byte, cfg *Config) (*GameState, []string, error) {
	var raw struct {
		Money       json.RawMessage `json:"money"`
		Deck        json.RawMessage `json:"deck"`
		MaxDeckSize json.RawMessage `json:"maxDeckSize"`
		CurrentCard json.RawMessage `json:"currentCard"`
		CardVisible json.RawMessage `json:"cardVisible"`
		Quests      json.RawMessage `json:"quests"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	gs := defaultState(cfg)
	var fixes []string

	if raw.Money == nil {
		fixes = append(fixes, "money missing, reset to starting value")
	} else {
		// Old saves carry fractional balances; keep the floor instead of
		// throwing the whole value away.
		var money float64
		if err := json.Unmarshal(raw.Money, &money); err != nil {
			gs.Money = cfg.StartingMoney
			fixes = append(fixes, "money mistyped, reset to starting value")
		} else if floored := math.Floor(money); floored != money {
			gs.Money = int64(floored)
			fixes = append(fixes, "money had a fractional part, floored")
		} else {
			gs.Money = int64(money)
		}
	}

	if raw.MaxDeckSize == nil {
		fixes = append(fixes, "maxDeckSize missing, reset to default")
	} else if err := json.Unmarshal(raw.MaxDeckSize, &gs.MaxDeckSize); err != nil {
		gs.MaxDeckSize = cfg.DefaultMaxDeckSize
		fixes = append(fixes, "maxDeckSize mistyped, reset to default")
	}

	if raw.CardVisible != nil {
		if err := json.Unmarshal(raw.CardVisible, &gs.CardVisible); err != nil {
			gs.CardVisible = false
			fixes = append(fixes, "cardVisible mistyped, reset")
		}
	}

	if raw.CurrentCard != nil {
		var offered struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw.CurrentCard, &offered); err == nil && offered.Name != "" {
			if card, ok := cfg.CardByName(offered.Name); ok {
				gs.CurrentCard = &card
			}
		}
	}

	gs.Deck, fixes = decodeDeck(raw.Deck, cfg, fixes)
	gs.Quests, fixes = decodeQuests(raw.Quests, cfg, fixes)

	fixes = append(fixes, Migrate(gs, cfg)...)
	return gs, fixes, nil
}

// decodeDeck rebuilds the deck entry by entry, dropping unreadable rows.
func decodeDeck(raw json.RawMessage, cfg *Config, fixes []string) ([]DeckCard, []string) {
	deck := []DeckCard{}
	if raw == nil {
		return deck, append(fixes, "deck missing, reset to empty")
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return deck, append(fixes, "deck mistyped, reset to empty")
	}
	for _, entry := range entries {
		var loose struct {
			Name       string `json:"name"`
			Rarity     string `json:"rarity"`
			Price      int64  `json:"price"`
			Income     int64  `json:"income"`
			PurchaseID string `json:"purchaseId"`
		}
		if err := json.Unmarshal(entry, &loose); err != nil || loose.Name == "" {
			fixes = append(fixes, "unreadable deck entry dropped")
			continue
		}
		card := Card{Name: loose.Name, Price: loose.Price, Income: loose.Income}
		// An unknown rarity name leaves the zero value; Migrate rewrites it
		// to catalog canon either way.
		card.Rarity, _ = ParseRarity(loose.Rarity)
		deck = append(deck, DeckCard{Card: card, PurchaseID: loose.PurchaseID})
	}
	return deck, fixes
}

// decodeQuests restores quest progress, matching saved entries to the
// configured chain by id first, then by position for pre-id saves.
func decodeQuests(raw json.RawMessage, cfg *Config, fixes []string) ([]QuestState, []string) {
	states := defaultQuestStates(cfg)
	if raw == nil {
		return states, append(fixes, "quests missing, reset to defaults")
	}
	var saved []struct {
		ID        json.RawMessage `json:"id"`
		Unlocked  bool            `json:"unlocked"`
		Completed bool            `json:"completed"`
		Claimed   bool            `json:"claimed"`
	}
	if err := json.Unmarshal(raw, &saved); err != nil {
		return states, append(fixes, "quests mistyped, reset to defaults")
	}

	savedID := func(raw json.RawMessage) string {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
		return ""
	}

	for i := range states {
		matched := -1
		for j := range saved {
			if savedID(saved[j].ID) == states[i].ID {
				matched = j
				break
			}
		}
		if matched < 0 && i < len(saved) {
			// Pre-id schema: align by position.
			matched = i
		}
		if matched >= 0 {
			states[i].Unlocked = states[i].Unlocked || saved[matched].Unlocked
			states[i].Completed = saved[matched].Completed
			states[i].Claimed = saved[matched].Claimed
		}
	}
	return states, fixes
}

// Migrate applies schema repair and one-off value corrections to a decoded
// state: deck entries are rewritten to catalog canon (stale prices, incomes
// and rarities from previously-issued data), unknown cards are dropped,
// missing purchase ids are minted, and the quest chain's monotonic
// invariants are restored. Running it twice is a no-op.
func Migrate(gs *GameState, cfg *Config) []string {
	var fixes []string

	if gs.Money < 0 {
		gs.Money = 0
		fixes = append(fixes, "negative money clamped to 0")
	}
	if gs.MaxDeckSize < cfg.DefaultMaxDeckSize {
		gs.MaxDeckSize = cfg.DefaultMaxDeckSize
		fixes = append(fixes, "maxDeckSize below default, raised")
	}

	deck := gs.Deck[:0]
	for _, owned := range gs.Deck {
		canon, ok := cfg.CardByName(owned.Name)
		if !ok {
			fixes = append(fixes, fmt.Sprintf("unknown card %q dropped from deck", owned.Name))
			continue
		}
		if owned.Card != canon {
			fixes = append(fixes, fmt.Sprintf("%s rewritten to canonical values", owned.Name))
			owned.Card = canon
		}
		if owned.PurchaseID == "" {
			owned.PurchaseID = uuid.NewString()
			fixes = append(fixes, fmt.Sprintf("%s missing purchase id, minted", owned.Name))
		}
		deck = append(deck, owned)
	}
	gs.Deck = deck

	if len(gs.Deck) > gs.MaxDeckSize {
		fixes = append(fixes, fmt.Sprintf("deck over capacity, trimmed to %d", gs.MaxDeckSize))
		gs.Deck = gs.Deck[:gs.MaxDeckSize]
	}

	if gs.CurrentCard != nil {
		if canon, ok := cfg.CardByName(gs.CurrentCard.Name); ok {
			if *gs.CurrentCard != canon {
				fixes = append(fixes, "offered card rewritten to canonical values")
				gs.CurrentCard = &canon
			}
		} else {
			fixes = append(fixes, "unknown offered card cleared")
			gs.CurrentCard = nil
			gs.CardVisible = false
		}
	}
	if gs.CurrentCard == nil && gs.CardVisible {
		gs.CardVisible = false
		fixes = append(fixes, "cardVisible without an offer, cleared")
	}

	for i := range gs.Quests {
		q := &gs.Quests[i]
		if q.Claimed && !q.Completed {
			q.Completed = true
			fixes = append(fixes, fmt.Sprintf("quest %s claimed but not completed, repaired", q.ID))
		}
		if q.Claimed && !q.Unlocked {
			q.Unlocked = true
			fixes = append(fixes, fmt.Sprintf("quest %s claimed but locked, repaired", q.ID))
		}
		if i == 0 {
			if !q.Unlocked {
				q.Unlocked = true
				fixes = append(fixes, "first quest locked, unlocked")
			}
			continue
		}
		if q.Unlocked && !gs.Quests[i-1].Claimed {
			q.Unlocked = false
			q.Completed = false
			q.Claimed = false
			fixes = append(fixes, fmt.Sprintf("quest %s unlocked out of order, relocked", q.ID))
		}
	}

	return fixes
}
