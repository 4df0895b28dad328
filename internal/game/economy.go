package game

import (
	"github.com/google/uuid"

	"github.com/tmarcon/idledeck/internal/log"
)

// --- Offer rotation ---

// rotateOffer is the timer callback for one full offer cycle: hide the
// current offer, wait the blink gap, then reveal a fresh draw.
func (s *Session) rotateOffer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state.CardVisible = false
	s.logger.Log(log.NewOfferHiddenEvent())

	if s.offerReveal != nil {
		s.offerReveal.Cancel()
	}
	s.offerReveal = s.sched.After(s.cfg.OfferHidden(), func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		s.showNewOffer()
	})
}

// showNewOffer draws the next shop card: a weighted rarity band, then a
// uniform pick within the tier.
func (s *Session) showNewOffer() {
	card, err := s.shopTable.DrawCard(s.cfg, s.rng)
	if err != nil {
		// Validated config cannot get here; leave the slot empty.
		s.state.CurrentCard = nil
		s.state.CardVisible = false
		return
	}
	s.state.CurrentCard = &card
	s.state.CardVisible = true
	s.logger.Log(log.NewOfferShownEvent(card.Name, card.Price))
}

// --- Purchase / sell / upgrade ---

// Buy purchases the currently offered card. It succeeds only if an offer is
// visible, money covers the price and the deck has room; anything else is a
// silent no-op, not an error.
func (s *Session) Buy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	card := s.state.CurrentCard
	if !s.state.CardVisible || card == nil {
		return false
	}
	if s.state.Money < card.Price || len(s.state.Deck) >= s.state.MaxDeckSize {
		return false
	}

	s.state.Money -= card.Price
	s.state.Deck = append(s.state.Deck, DeckCard{
		Card:       *card,
		PurchaseID: uuid.NewString(),
	})
	s.logger.Log(log.NewPurchaseEvent(card.Name, card.Price, s.state.Money))

	s.evaluateQuests()
	s.persist()
	return true
}

// Sell removes the deck entry at index i and credits the flat sell price.
// Out-of-range indices are a silent no-op.
func (s *Session) Sell(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.state.Deck) {
		return false
	}

	removed := s.state.removeDeckIndex(i)
	s.state.Money += s.cfg.SellPrice
	s.logger.Log(log.NewSellEvent(removed.Name, s.cfg.SellPrice, s.state.Money))

	s.evaluateQuests()
	s.persist()
	return true
}

// BuyDeckUpgrade pays for the one-shot deck-size upgrade. No-op if already
// owned or unaffordable.
func (s *Session) BuyDeckUpgrade() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.MaxDeckSize >= s.cfg.UpgradedDeckSize {
		return false
	}
	if s.state.Money < s.cfg.DeckUpgradePrice {
		return false
	}

	s.state.Money -= s.cfg.DeckUpgradePrice
	s.state.MaxDeckSize = s.cfg.UpgradedDeckSize
	s.logger.Log(log.NewDeckUpgradeEvent(s.state.MaxDeckSize, s.state.Money))

	s.evaluateQuests()
	s.persist()
	return true
}

// --- Passive income ---

// incomeTick credits the deck's summed income. Persistence is sampled: only
// a configured fraction of ticks write through, trading write amplification
// for losing at most a few ticks of income on a crash.
func (s *Session) incomeTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || len(s.state.Deck) == 0 {
		return
	}

	income := s.state.TotalIncome()
	s.state.Money += income
	s.logger.Log(log.NewIncomeTickEvent(income, s.state.Money))

	s.evaluateQuests()
	if s.rng.Float64() < s.cfg.SaveSampleRate {
		s.persist()
	}
}
