package game

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// --- Enums ---

// Rarity is a card's rarity tier. The active set for a given game is
// configuration; the enum is the closed universe of tiers the engine knows.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityRare
	RarityEpic
	RarityMythic
	RarityLegendary
	RarityMega
	RaritySecret
)

func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "Common"
	case RarityRare:
		return "Rare"
	case RarityEpic:
		return "Epic"
	case RarityMythic:
		return "Mythic"
	case RarityLegendary:
		return "Legendary"
	case RarityMega:
		return "Mega"
	case RaritySecret:
		return "Secret"
	default:
		return "Unknown"
	}
}

// ParseRarity maps a rarity name to its enum value.
func ParseRarity(s string) (Rarity, error) {
	switch s {
	case "Common":
		return RarityCommon, nil
	case "Rare":
		return RarityRare, nil
	case "Epic":
		return RarityEpic, nil
	case "Mythic":
		return RarityMythic, nil
	case "Legendary":
		return RarityLegendary, nil
	case "Mega":
		return RarityMega, nil
	case "Secret":
		return RaritySecret, nil
	default:
		return RarityCommon, fmt.Errorf("unknown rarity %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler so rarities serialize by name.
func (r Rarity) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rarity) UnmarshalText(text []byte) error {
	parsed, err := ParseRarity(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalYAML serializes rarities by name in config files.
func (r Rarity) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

// UnmarshalYAML parses a rarity name from a config file.
func (r *Rarity) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseRarity(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// --- Card definitions ---

// Card is a catalog entry: the immutable definition of a collectible card.
type Card struct {
	Name   string `json:"name" yaml:"name"`
	Rarity Rarity `json:"rarity" yaml:"rarity"`
	Price  int64  `json:"price" yaml:"price"`
	Income int64  `json:"income" yaml:"income"`
}

func (c Card) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Rarity)
}

// DeckCard is an owned card in the player's deck. PurchaseID distinguishes
// otherwise-identical stacked entries.
type DeckCard struct {
	Card       `yaml:",inline"`
	PurchaseID string `json:"purchaseId" yaml:"purchaseId"`
}

// RarityStyle is the display mapping for a rarity tier. Unknown rarities
// render with DefaultStyle but remain otherwise valid.
type RarityStyle struct {
	Emoji string `json:"emoji" yaml:"emoji"`
	Color string `json:"color" yaml:"color"`
}

// DefaultStyle is the fallback for rarities missing from the style map.
var DefaultStyle = RarityStyle{Emoji: "🂠", Color: "#cbd5e0"}

// --- Persistent state ---

// QuestState is the persisted progress of one quest. All three flags are
// monotonic false→true and Claimed implies Completed.
type QuestState struct {
	ID        string `json:"id"`
	Unlocked  bool   `json:"unlocked"`
	Completed bool   `json:"completed"`
	Claimed   bool   `json:"claimed"`
}

// GameState is the authoritative snapshot of the whole game, persisted as a
// single JSON document.
type GameState struct {
	Money       int64        `json:"money"`
	Deck        []DeckCard   `json:"deck"`
	MaxDeckSize int          `json:"maxDeckSize"`
	CurrentCard *Card        `json:"currentCard"`
	CardVisible bool         `json:"cardVisible"`
	Quests      []QuestState `json:"quests"`
}

// TotalIncome sums the per-tick income over the whole deck.
func (gs *GameState) TotalIncome() int64 {
	var total int64
	for _, c := range gs.Deck {
		total += c.Income
	}
	return total
}

// FindByPurchaseID returns the deck index of the entry with the given
// purchase id, or -1.
func (gs *GameState) FindByPurchaseID(id string) int {
	for i, c := range gs.Deck {
		if c.PurchaseID == id {
			return i
		}
	}
	return -1
}

// FindByName returns the first deck index holding a card with the given
// name, or -1.
func (gs *GameState) FindByName(name string) int {
	for i, c := range gs.Deck {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// CountRarity returns how many deck cards have the given rarity.
func (gs *GameState) CountRarity(r Rarity) int {
	count := 0
	for _, c := range gs.Deck {
		if c.Rarity == r {
			count++
		}
	}
	return count
}

// Quest returns the quest state with the given id, or nil.
func (gs *GameState) Quest(id string) *QuestState {
	for i := range gs.Quests {
		if gs.Quests[i].ID == id {
			return &gs.Quests[i]
		}
	}
	return nil
}

// removeDeckIndex removes the deck entry at i. The caller validates i.
func (gs *GameState) removeDeckIndex(i int) DeckCard {
	removed := gs.Deck[i]
	gs.Deck = append(gs.Deck[:i], gs.Deck[i+1:]...)
	return removed
}
