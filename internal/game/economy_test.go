package game

import (
	"testing"
	"time"

	"github.com/tmarcon/idledeck/internal/log"
	"github.com/tmarcon/idledeck/internal/store"
)

func TestBuyDebitsAndAppends(t *testing.T) {
	// Starting state: money=20, empty deck, capacity 4. Buying a card
	// priced 15 leaves money=5 and one deck entry; a second identical buy
	// is rejected with no state change.
	f := newFixture(t, nil)
	f.offer(t, "Emberwing") // price 15

	if !f.sess.Buy() {
		t.Fatal("first buy should succeed")
	}
	st := f.state()
	if st.Money != 5 {
		t.Errorf("money = %d, want 5", st.Money)
	}
	if len(st.Deck) != 1 || st.Deck[0].Name != "Emberwing" {
		t.Fatalf("deck = %v, want one Emberwing", st.Deck)
	}
	if st.Deck[0].PurchaseID == "" {
		t.Error("purchased card has no purchase id")
	}

	f.offer(t, "Emberwing")
	if f.sess.Buy() {
		t.Fatal("second buy should be rejected")
	}
	after := f.state()
	if after.Money != 5 || len(after.Deck) != 1 {
		t.Errorf("rejected buy mutated state: money=%d deck=%d", after.Money, len(after.Deck))
	}
}

func TestBuyRequiresVisibleOffer(t *testing.T) {
	f := newFixture(t, nil)
	f.setMoney(1000)

	if f.sess.Buy() {
		t.Fatal("buy with no offer should fail")
	}

	f.offer(t, "Mudfin")
	f.sess.mu.Lock()
	f.sess.state.CardVisible = false
	f.sess.mu.Unlock()
	if f.sess.Buy() {
		t.Fatal("buy with hidden offer should fail")
	}
}

func TestBuyRejectedWhenDeckFull(t *testing.T) {
	f := newFixture(t, nil)
	f.setMoney(1000)
	for i := 0; i < f.cfg.DefaultMaxDeckSize; i++ {
		f.give(t, "Mudfin")
	}

	f.offer(t, "Mudfin")
	if f.sess.Buy() {
		t.Fatal("buy into a full deck should fail")
	}
	if got := f.state(); got.Money != 1000 || len(got.Deck) != f.cfg.DefaultMaxDeckSize {
		t.Errorf("rejected buy mutated state: money=%d deck=%d", got.Money, len(got.Deck))
	}
}

func TestSellRemovesExactIndex(t *testing.T) {
	f := newFixture(t, nil)
	f.give(t, "Mudfin")
	f.give(t, "Emberwing")
	f.give(t, "Nullmind")
	before := f.state()

	if !f.sess.Sell(1) {
		t.Fatal("sell of index 1 should succeed")
	}
	after := f.state()
	if after.Money != before.Money+f.cfg.SellPrice {
		t.Errorf("money = %d, want %d", after.Money, before.Money+f.cfg.SellPrice)
	}
	if len(after.Deck) != 2 || after.Deck[0].Name != "Mudfin" || after.Deck[1].Name != "Nullmind" {
		t.Fatalf("deck after sell = %v", after.Deck)
	}
}

func TestSellOutOfRangeIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	f.give(t, "Mudfin")
	before := f.state()

	for _, i := range []int{-1, 1, 99} {
		if f.sess.Sell(i) {
			t.Errorf("sell(%d) should fail", i)
		}
	}
	after := f.state()
	if after.Money != before.Money || len(after.Deck) != 1 {
		t.Error("out-of-range sell mutated state")
	}
}

func TestDeckNeverExceedsCapacity(t *testing.T) {
	// Arbitrary interleaving of buys and sells keeps the invariant.
	f := newFixture(t, nil)
	f.setMoney(1_000_000)
	rng := NewSeededRNG(7)

	for i := 0; i < 500; i++ {
		if rng.Float64() < 0.7 {
			f.offer(t, "Mudfin")
			f.sess.Buy()
		} else {
			st := f.state()
			f.sess.Sell(intn(rng, len(st.Deck)+1))
		}
		if n := len(f.state().Deck); n > f.cfg.DefaultMaxDeckSize {
			t.Fatalf("deck length %d exceeds capacity after %d ops", n, i+1)
		}
	}
}

func TestBuyDeckUpgrade(t *testing.T) {
	f := newFixture(t, nil)

	if f.sess.BuyDeckUpgrade() {
		t.Fatal("upgrade should fail with starting money")
	}

	f.setMoney(100)
	if !f.sess.BuyDeckUpgrade() {
		t.Fatal("upgrade should succeed")
	}
	st := f.state()
	if st.Money != 100-f.cfg.DeckUpgradePrice {
		t.Errorf("money = %d", st.Money)
	}
	if st.MaxDeckSize != f.cfg.UpgradedDeckSize {
		t.Errorf("maxDeckSize = %d, want %d", st.MaxDeckSize, f.cfg.UpgradedDeckSize)
	}

	f.setMoney(1000)
	if f.sess.BuyDeckUpgrade() {
		t.Fatal("second upgrade should be a no-op")
	}
}

func TestOfferRotation(t *testing.T) {
	f := newFixture(t, nil)
	f.sess.Start()
	defer f.sess.Close()

	if st := f.state(); !st.CardVisible || st.CurrentCard == nil {
		t.Fatal("an offer should be visible right after Start")
	}

	// End of the visible window: the offer blinks out.
	f.sched.Advance(f.cfg.OfferVisible() + f.cfg.OfferHidden())
	if st := f.state(); st.CardVisible {
		t.Fatal("offer should be hidden at the end of the cycle")
	}

	// After the blink gap a fresh offer appears.
	f.sched.Advance(f.cfg.OfferHidden())
	if st := f.state(); !st.CardVisible || st.CurrentCard == nil {
		t.Fatal("a new offer should be visible after the hidden gap")
	}
}

func TestShopOfferUsesWeightedDraw(t *testing.T) {
	// Shop bands 61/25/10/4: a 0.70 draw lands in the Rare band
	// (cumulative 0.61..0.86); the within-band draw of 0 picks the first
	// Rare catalog card.
	f := newFixture(t, newSeqRNG(0.70, 0.0))
	f.sess.mu.Lock()
	f.sess.showNewOffer()
	card := *f.sess.state.CurrentCard
	f.sess.mu.Unlock()

	if card.Rarity != RarityRare {
		t.Fatalf("offer rarity = %s, want Rare", card.Rarity)
	}
}

func TestIncomeTickCreditsDeckIncome(t *testing.T) {
	f := newFixture(t, nil)
	f.give(t, "Mudfin")    // +2
	f.give(t, "Emberwing") // +3
	f.sess.Start()
	defer f.sess.Close()
	before := f.state().Money

	f.sched.Advance(f.cfg.IncomeInterval())
	if got := f.state().Money; got != before+5 {
		t.Errorf("money = %d, want %d", got, before+5)
	}

	ticks := f.logger.EventsOfType(log.EventIncomeTick)
	if len(ticks) != 1 {
		t.Fatalf("income events = %d, want 1", len(ticks))
	}
}

func TestIncomeTickSkipsEmptyDeck(t *testing.T) {
	f := newFixture(t, nil)
	f.sess.Start()
	defer f.sess.Close()
	before := f.state().Money

	f.sched.Advance(f.cfg.IncomeInterval())
	if got := f.state().Money; got != before {
		t.Errorf("empty deck accrued income: %d -> %d", before, got)
	}
}

func TestIncomeTickSampledPersistence(t *testing.T) {
	// Sample rate 0.2: a 0.9 draw skips the save, a 0.1 draw persists.
	cfg := DefaultConfig()
	mem := store.NewMemoryStore()
	counting := &countStore{Store: mem}
	sched := NewManualScheduler()
	sess, err := NewSession(cfg, counting, log.NewMemoryLogger(), newSeqRNG(0.9, 0.1), sched)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	sess.mu.Lock()
	card, _ := cfg.CardByName("Mudfin")
	sess.state.Deck = append(sess.state.Deck, DeckCard{Card: card, PurchaseID: "p"})
	sess.mu.Unlock()

	sess.mu.Lock()
	sess.timers.track(sched.Every(cfg.IncomeInterval(), sess.incomeTick))
	sess.mu.Unlock()

	sched.Advance(cfg.IncomeInterval()) // draw 0.9 → skip
	if counting.saves != 0 {
		t.Fatalf("saves after skipped tick = %d, want 0", counting.saves)
	}
	sched.Advance(cfg.IncomeInterval()) // draw 0.1 → persist
	if counting.saves != 1 {
		t.Fatalf("saves after sampled tick = %d, want 1", counting.saves)
	}
}

func TestPersistFailureIsAbsorbed(t *testing.T) {
	f := newFixture(t, nil)
	f.store.FailSaves = true
	f.offer(t, "Mudfin")

	if !f.sess.Buy() {
		t.Fatal("buy should succeed even when persistence fails")
	}
	if len(f.logger.EventsOfType(log.EventSaveFailed)) == 0 {
		t.Error("expected a SaveFailed event")
	}
}

func TestCloseCancelsTimers(t *testing.T) {
	f := newFixture(t, nil)
	f.give(t, "Mudfin")
	f.sess.Start()
	f.sess.Close()
	before := f.state().Money

	f.sched.Advance(10 * time.Second)
	if got := f.state().Money; got != before {
		t.Errorf("timers still running after Close: %d -> %d", before, got)
	}
}
