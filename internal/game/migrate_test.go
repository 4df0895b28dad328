package game

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/tmarcon/idledeck/internal/log"
	"github.com/tmarcon/idledeck/internal/store"
)

func TestAbsentSaveGivesDefaultState(t *testing.T) {
	f := newFixture(t, nil)
	st := f.state()
	if st.Money != f.cfg.StartingMoney {
		t.Errorf("money = %d, want %d", st.Money, f.cfg.StartingMoney)
	}
	if len(st.Deck) != 0 || st.MaxDeckSize != f.cfg.DefaultMaxDeckSize {
		t.Errorf("deck = %v, maxDeckSize = %d", st.Deck, st.MaxDeckSize)
	}
	if len(f.logger.EventsOfType(log.EventMigrated)) != 0 {
		t.Error("a missing save must not count as a migration")
	}
}

func TestCorruptSaveResetsToDefault(t *testing.T) {
	cfg := DefaultConfig()
	mem := store.NewMemoryStore()
	mem.Save(context.Background(), StateKey, []byte("{not json"))
	logger := log.NewMemoryLogger()

	sess, err := NewSession(cfg, mem, logger, nil, NewManualScheduler())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	st := sess.Snapshot()
	if st.Money != cfg.StartingMoney || len(st.Deck) != 0 {
		t.Errorf("corrupt save did not reset: %+v", st)
	}
	if len(logger.EventsOfType(log.EventStateReset)) != 1 {
		t.Error("expected a StateReset event")
	}
}

func TestDecodeIsIdempotentOnCanonicalState(t *testing.T) {
	// A round-tripped canonical state must decode with zero fixes, or every
	// load would rewrite and re-log a phantom migration.
	cfg := DefaultConfig()
	gs := defaultState(cfg)
	card, _ := cfg.CardByName("Emberwing")
	gs.Deck = append(gs.Deck, DeckCard{Card: card, PurchaseID: "abc"})
	gs.Quests[0].Completed = true

	data, err := json.Marshal(gs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, fixes, err := DecodeState(data, cfg)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if len(fixes) != 0 {
		t.Fatalf("canonical state produced fixes: %v", fixes)
	}
	if decoded.Deck[0] != gs.Deck[0] || !decoded.Quests[0].Completed {
		t.Error("round trip lost data")
	}
}

func TestDecodeBackfillsMissingFields(t *testing.T) {
	cfg := DefaultConfig()
	gs, fixes, err := DecodeState([]byte(`{}`), cfg)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if len(fixes) == 0 {
		t.Fatal("empty document should report fixes")
	}
	if gs.Money != cfg.StartingMoney || gs.MaxDeckSize != cfg.DefaultMaxDeckSize {
		t.Errorf("defaults not backfilled: %+v", gs)
	}
	if len(gs.Quests) != len(cfg.Quests) {
		t.Errorf("quests = %d, want %d", len(gs.Quests), len(cfg.Quests))
	}
}

func TestDecodeSurvivesMistypedFields(t *testing.T) {
	cfg := DefaultConfig()
	doc := `{"money":"lots","deck":{"oops":1},"maxDeckSize":[],"cardVisible":"yes","quests":7}`
	gs, fixes, err := DecodeState([]byte(doc), cfg)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if len(fixes) < 4 {
		t.Errorf("fixes = %v, want one per mistyped field", fixes)
	}
	if gs.Money != cfg.StartingMoney || len(gs.Deck) != 0 || gs.CardVisible {
		t.Errorf("mistyped fields not reset: %+v", gs)
	}
}

func TestDecodeFloorsFractionalMoney(t *testing.T) {
	// Legacy saves accumulated fractional balances; the floor is kept
	// instead of resetting the whole value.
	cfg := DefaultConfig()
	data, err := json.Marshal(defaultState(cfg))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	doc["money"] = 41.7
	data, _ = json.Marshal(doc)

	gs, fixes, err := DecodeState(data, cfg)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if gs.Money != 41 {
		t.Errorf("money = %d, want 41", gs.Money)
	}
	if len(fixes) != 1 {
		t.Errorf("fixes = %v, want just the floor", fixes)
	}

	redone, err := json.Marshal(gs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, again, _ := DecodeState(redone, cfg); len(again) != 0 {
		t.Errorf("floored save not canonical: %v", again)
	}
}

func TestMigrateCanonicalizesDeck(t *testing.T) {
	// Stale price/income/rarity from old saves gets rewritten from the
	// catalog; unknown cards drop; missing purchase ids are minted.
	cfg := DefaultConfig()
	gs := defaultState(cfg)
	gs.Deck = []DeckCard{
		{Card: Card{Name: "Emberwing", Rarity: RarityCommon, Price: 1, Income: 99}, PurchaseID: "p1"},
		{Card: Card{Name: "No Such Card", Price: 10}, PurchaseID: "p2"},
		{Card: mustCard(t, cfg, "Mudfin")},
	}

	fixes := Migrate(gs, cfg)
	if len(fixes) != 3 {
		t.Fatalf("fixes = %v, want 3", fixes)
	}
	if len(gs.Deck) != 2 {
		t.Fatalf("deck = %v, want unknown card dropped", gs.Deck)
	}
	canon, _ := cfg.CardByName("Emberwing")
	if gs.Deck[0].Card != canon {
		t.Errorf("Emberwing not canonicalized: %+v", gs.Deck[0].Card)
	}
	if gs.Deck[1].PurchaseID == "" {
		t.Error("missing purchase id not minted")
	}

	if again := Migrate(gs, cfg); len(again) != 0 {
		t.Errorf("second migration not a no-op: %v", again)
	}
}

func mustCard(t *testing.T, cfg *Config, name string) Card {
	t.Helper()
	card, ok := cfg.CardByName(name)
	if !ok {
		t.Fatalf("card %q not in catalog", name)
	}
	return card
}

func TestMigrateClampsAndTrims(t *testing.T) {
	cfg := DefaultConfig()
	gs := defaultState(cfg)
	gs.Money = -50
	gs.MaxDeckSize = 1 // below default: raised, not honored
	for i := 0; i < 6; i++ {
		gs.Deck = append(gs.Deck, DeckCard{Card: mustCard(t, cfg, "Mudfin"), PurchaseID: "p"})
	}

	Migrate(gs, cfg)
	if gs.Money != 0 {
		t.Errorf("money = %d, want 0", gs.Money)
	}
	if gs.MaxDeckSize != cfg.DefaultMaxDeckSize {
		t.Errorf("maxDeckSize = %d, want %d", gs.MaxDeckSize, cfg.DefaultMaxDeckSize)
	}
	if len(gs.Deck) != cfg.DefaultMaxDeckSize {
		t.Errorf("deck = %d entries, want trimmed to %d", len(gs.Deck), cfg.DefaultMaxDeckSize)
	}
}

func TestMigrateRepairsOfferSlot(t *testing.T) {
	cfg := DefaultConfig()
	gs := defaultState(cfg)
	gs.CurrentCard = &Card{Name: "No Such Card"}
	gs.CardVisible = true

	Migrate(gs, cfg)
	if gs.CurrentCard != nil || gs.CardVisible {
		t.Errorf("unknown offer not cleared: card=%v visible=%v", gs.CurrentCard, gs.CardVisible)
	}
}

func TestMigrateRepairsQuestChain(t *testing.T) {
	cfg := DefaultConfig()
	gs := defaultState(cfg)
	gs.Quests[0] = QuestState{ID: gs.Quests[0].ID, Claimed: true}   // claimed but locked and incomplete
	gs.Quests[1] = QuestState{ID: gs.Quests[1].ID, Unlocked: false} // chain gap
	gs.Quests[2] = QuestState{ID: gs.Quests[2].ID, Unlocked: true}  // unlocked out of order

	Migrate(gs, cfg)
	if !gs.Quests[0].Unlocked || !gs.Quests[0].Completed || !gs.Quests[0].Claimed {
		t.Errorf("quest 0 not repaired: %+v", gs.Quests[0])
	}
	if gs.Quests[2].Unlocked {
		t.Errorf("quest 2 should be relocked: %+v", gs.Quests[2])
	}
}

func TestQuestDecodeFallsBackToPosition(t *testing.T) {
	// Pre-id saves carried quests as a bare array; align by position.
	cfg := DefaultConfig()
	doc := `{"money":20,"deck":[],"maxDeckSize":4,
		"quests":[{"unlocked":true,"completed":true,"claimed":true},{"unlocked":true}]}`
	gs, _, err := DecodeState([]byte(doc), cfg)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if !gs.Quests[0].Claimed {
		t.Error("positional quest 0 progress lost")
	}
	if !gs.Quests[1].Unlocked {
		t.Error("positional quest 1 progress lost")
	}
}

func TestLoadRewritesRepairedSave(t *testing.T) {
	// A save that needed fixes is rewritten in place, so the next load is
	// clean.
	cfg := DefaultConfig()
	mem := store.NewMemoryStore()
	mem.Save(context.Background(), StateKey, []byte(`{"money":20,"deck":[{"name":"Emberwing"}],"maxDeckSize":4}`))
	logger := log.NewMemoryLogger()

	if _, err := NewSession(cfg, mem, logger, nil, NewManualScheduler()); err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if len(logger.EventsOfType(log.EventMigrated)) != 1 {
		t.Fatal("expected a Migrated event on first load")
	}

	logger2 := log.NewMemoryLogger()
	if _, err := NewSession(cfg, mem, logger2, nil, NewManualScheduler()); err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if n := len(logger2.EventsOfType(log.EventMigrated)); n != 0 {
		t.Errorf("second load migrated again (%d events); rewrite not persisted", n)
	}
}
