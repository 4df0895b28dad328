package web

// Message types for the JSON protocol over the websocket.

import "github.com/tmarcon/idledeck/internal/game"

// --- Server → Client messages ---

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type string `json:"type"`

	// For "state"
	State *StateView `json:"state,omitempty"`

	// For "battle"
	Battle *game.BattleView `json:"battle,omitempty"`

	// For "error"
	Error string `json:"error,omitempty"`
}

// StateView is the game state as the page renders it.
type StateView struct {
	Money        int64       `json:"money"`
	TotalIncome  int64       `json:"totalIncome"`
	Deck         []CardView  `json:"deck"`
	MaxDeckSize  int         `json:"maxDeckSize"`
	Offer        *CardView   `json:"offer,omitempty"`
	OfferVisible bool        `json:"offerVisible"`
	Quests       []QuestView `json:"quests"`
	BattleActive bool        `json:"battleActive"`
}

// CardView is one card with its display style resolved.
type CardView struct {
	Name   string `json:"name"`
	Rarity string `json:"rarity"`
	Price  int64  `json:"price"`
	Income int64  `json:"income"`
	Emoji  string `json:"emoji"`
	Color  string `json:"color"`
}

// QuestView is one quest with its definition and progress merged.
type QuestView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Unlocked  bool   `json:"unlocked"`
	Completed bool   `json:"completed"`
	Claimed   bool   `json:"claimed"`
}

// ConfigView is the static tuning the page needs up front.
type ConfigView struct {
	Catalog          []CardView `json:"catalog"`
	DeckUpgradePrice int64      `json:"deckUpgradePrice"`
	SellPrice        int64      `json:"sellPrice"`
	OfferVisibleMs   int        `json:"offerVisibleMs"`
	OfferHiddenMs    int        `json:"offerHiddenMs"`
	WheelTiers       int        `json:"wheelTiers"`
	SpinRotations    int        `json:"spinRotations"`
}

// --- Client → Server messages ---

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string `json:"type"`

	// For "sell"
	Index int `json:"index,omitempty"`

	// For "claim_quest"
	QuestID string `json:"questId,omitempty"`

	// For "start_battle"
	Indices []int `json:"indices,omitempty"`

	// For "cable_select"
	PointID int `json:"pointId,omitempty"`

	// For "shoot"
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
}

// --- View builders ---

func cardView(cfg *game.Config, c game.Card) CardView {
	style := cfg.StyleFor(c.Rarity)
	return CardView{
		Name:   c.Name,
		Rarity: c.Rarity.String(),
		Price:  c.Price,
		Income: c.Income,
		Emoji:  style.Emoji,
		Color:  style.Color,
	}
}

// BuildStateView projects a snapshot into the wire shape.
func BuildStateView(s *game.Session) *StateView {
	cfg := s.Config()
	gs := s.Snapshot()

	view := &StateView{
		Money:        gs.Money,
		TotalIncome:  gs.TotalIncome(),
		Deck:         make([]CardView, 0, len(gs.Deck)),
		MaxDeckSize:  gs.MaxDeckSize,
		OfferVisible: gs.CardVisible,
		BattleActive: s.Battle() != nil,
	}
	for _, owned := range gs.Deck {
		view.Deck = append(view.Deck, cardView(cfg, owned.Card))
	}
	if gs.CurrentCard != nil && gs.CardVisible {
		offer := cardView(cfg, *gs.CurrentCard)
		view.Offer = &offer
	}

	titles := make(map[string]string, len(cfg.Quests))
	for _, q := range cfg.Quests {
		titles[q.ID] = q.Title
	}
	for _, qs := range gs.Quests {
		if !qs.Unlocked {
			continue
		}
		view.Quests = append(view.Quests, QuestView{
			ID:        qs.ID,
			Title:     titles[qs.ID],
			Unlocked:  qs.Unlocked,
			Completed: qs.Completed,
			Claimed:   qs.Claimed,
		})
	}
	return view
}

// BuildConfigView projects the static tuning into the wire shape.
func BuildConfigView(cfg *game.Config) *ConfigView {
	view := &ConfigView{
		DeckUpgradePrice: cfg.DeckUpgradePrice,
		SellPrice:        cfg.SellPrice,
		OfferVisibleMs:   cfg.OfferVisibleMs,
		OfferHiddenMs:    cfg.OfferHiddenMs,
		WheelTiers:       len(cfg.Wheel.Tiers),
		SpinRotations:    cfg.Wheel.SpinRotations,
	}
	for _, c := range cfg.Catalog {
		view.Catalog = append(view.Catalog, cardView(cfg, c))
	}
	return view
}
