package game

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full data-driven surface of the game: timings, prices, the
// card catalog, the three weight tables, and the quest chain. Everything the
// engine treats as tunable data lives here, not in code.
type Config struct {
	StartingMoney      int64 `yaml:"starting_money"`
	DefaultMaxDeckSize int   `yaml:"default_max_deck_size"`
	UpgradedDeckSize   int   `yaml:"upgraded_deck_size"`
	DeckUpgradePrice   int64 `yaml:"deck_upgrade_price"`
	SellPrice          int64 `yaml:"sell_price"`

	OfferVisibleMs   int `yaml:"offer_visible_ms"`
	OfferHiddenMs    int `yaml:"offer_hidden_ms"`
	IncomeIntervalMs int `yaml:"income_interval_ms"`

	// Fraction of income ticks that persist the state. A crash loses at most
	// the ticks accrued since the last sampled save.
	SaveSampleRate float64 `yaml:"save_sample_rate"`

	Catalog      []Card                 `yaml:"catalog"`
	RarityStyles map[string]RarityStyle `yaml:"rarity_styles"`

	ShopWeights        []RarityWeight `yaml:"shop_weights"`
	BattleBonusWeights []RarityWeight `yaml:"battle_bonus_weights"`

	Wheel    WheelConfig    `yaml:"wheel"`
	Cable    CableConfig    `yaml:"cable"`
	Shooting ShootingConfig `yaml:"shooting"`

	Quests []QuestDef `yaml:"quests"`
}

// RarityWeight is one band of a weighted rarity table. Band order in the
// list fixes the cumulative-threshold order of the unit-interval partition.
type RarityWeight struct {
	Rarity Rarity  `yaml:"rarity"`
	Weight float64 `yaml:"weight"`
}

// WheelConfig maps a battle's total score to the prize wheel's rarity tier.
type WheelConfig struct {
	// Ordered tiers; the first tier whose MaxTotal covers the score wins.
	// MaxTotal 0 marks the open-ended top tier.
	Tiers []WheelTier `yaml:"tiers"`
	// Full rotations the client animation performs before landing.
	SpinRotations int `yaml:"spin_rotations"`
}

// WheelTier is one score band of the prize wheel.
type WheelTier struct {
	MaxTotal int    `yaml:"max_total"`
	Rarity   Rarity `yaml:"rarity"`
}

// CableConfig tunes the cable-matching puzzle.
type CableConfig struct {
	Palette      []string `yaml:"palette"`
	TimeLimitSec int      `yaml:"time_limit_sec"`
	PairScore    int      `yaml:"pair_score"`
}

// ShootingConfig tunes the timed shooting stage.
type ShootingConfig struct {
	DurationSec  int     `yaml:"duration_sec"`
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	TargetRatio  float64 `yaml:"target_ratio"`
	HitScore     int     `yaml:"hit_score"`
	DecoyPenalty int     `yaml:"decoy_penalty"`
	ShapeSize    float64 `yaml:"shape_size"`
	HitSlack     float64 `yaml:"hit_slack"`
	MinSpeed     float64 `yaml:"min_speed"`
	SpeedRange   float64 `yaml:"speed_range"`

	SpawnMinDelayMs   int `yaml:"spawn_min_delay_ms"`
	SpawnDelayRangeMs int `yaml:"spawn_delay_range_ms"`
	FrameMs           int `yaml:"frame_ms"`

	// WinPolicy resolves the historically ambiguous outcome rule:
	// "threshold" wins only if the final score reaches ScoreGoal,
	// "always" wins whenever the timer runs out.
	WinPolicy WinPolicy `yaml:"win_policy"`
	ScoreGoal int       `yaml:"score_goal"`
}

// WinPolicy selects the shooting stage's outcome rule.
type WinPolicy string

const (
	WinThreshold WinPolicy = "threshold"
	WinAlways    WinPolicy = "always"
)

// --- Duration helpers ---

func (c *Config) OfferVisible() time.Duration {
	return time.Duration(c.OfferVisibleMs) * time.Millisecond
}

func (c *Config) OfferHidden() time.Duration {
	return time.Duration(c.OfferHiddenMs) * time.Millisecond
}

func (c *Config) IncomeInterval() time.Duration {
	return time.Duration(c.IncomeIntervalMs) * time.Millisecond
}

func (c *ShootingConfig) Duration() time.Duration {
	return time.Duration(c.DurationSec) * time.Second
}

func (c *ShootingConfig) Frame() time.Duration {
	return time.Duration(c.FrameMs) * time.Millisecond
}

// --- Catalog lookups ---

// CardByName returns the catalog entry with the given name.
func (c *Config) CardByName(name string) (Card, bool) {
	for _, card := range c.Catalog {
		if card.Name == name {
			return card, true
		}
	}
	return Card{}, false
}

// CardsOfRarity returns every catalog entry of the given rarity.
func (c *Config) CardsOfRarity(r Rarity) []Card {
	var cards []Card
	for _, card := range c.Catalog {
		if card.Rarity == r {
			cards = append(cards, card)
		}
	}
	return cards
}

// StyleFor returns the display style for a rarity, falling back to
// DefaultStyle for tiers missing from the map.
func (c *Config) StyleFor(r Rarity) RarityStyle {
	if style, ok := c.RarityStyles[r.String()]; ok {
		return style
	}
	return DefaultStyle
}

// --- Loading ---

// DefaultConfig returns the built-in tuning: the values the game shipped
// with, used whenever no config file overrides them.
func DefaultConfig() *Config {
	return &Config{
		StartingMoney:      20,
		DefaultMaxDeckSize: 4,
		UpgradedDeckSize:   6,
		DeckUpgradePrice:   80,
		SellPrice:          10,

		OfferVisibleMs:   3000,
		OfferHiddenMs:    1000,
		IncomeIntervalMs: 1000,
		SaveSampleRate:   0.2,

		Catalog: []Card{
			{Name: "Mudfin", Rarity: RarityCommon, Price: 10, Income: 2},
			{Name: "Gutter Rat", Rarity: RarityCommon, Price: 10, Income: 2},
			{Name: "Emberwing", Rarity: RarityRare, Price: 15, Income: 3},
			{Name: "Tidehorn", Rarity: RarityRare, Price: 15, Income: 3},
			{Name: "Bramblemaw", Rarity: RarityRare, Price: 15, Income: 3},
			{Name: "Nullmind", Rarity: RarityEpic, Price: 20, Income: 5},
			{Name: "Stormroc", Rarity: RarityEpic, Price: 20, Income: 5},
			{Name: "Sunfeather", Rarity: RarityEpic, Price: 20, Income: 5},
			{Name: "Skyserpent", Rarity: RarityEpic, Price: 20, Income: 5},
			{Name: "Wispling", Rarity: RarityMythic, Price: 35, Income: 10},
			{Name: "Chronofern", Rarity: RarityMythic, Price: 35, Income: 10},
			{Name: "Primarch Aeon", Rarity: RarityLegendary, Price: 50, Income: 15},
		},

		RarityStyles: map[string]RarityStyle{
			"Common":    {Emoji: "⚪", Color: "#cbd5e0"},
			"Rare":      {Emoji: "🔵", Color: "#90cdf4"},
			"Epic":      {Emoji: "✨", Color: "#9b59b6"},
			"Mythic":    {Emoji: "💫", Color: "#fbb6ce"},
			"Legendary": {Emoji: "🌟", Color: "#fbd38d"},
		},

		ShopWeights: []RarityWeight{
			{Rarity: RarityCommon, Weight: 61},
			{Rarity: RarityRare, Weight: 25},
			{Rarity: RarityEpic, Weight: 10},
			{Rarity: RarityMythic, Weight: 4},
		},

		BattleBonusWeights: []RarityWeight{
			{Rarity: RarityLegendary, Weight: 5},
			{Rarity: RarityMythic, Weight: 15},
			{Rarity: RarityEpic, Weight: 40},
			{Rarity: RarityRare, Weight: 40},
		},

		Wheel: WheelConfig{
			Tiers: []WheelTier{
				{MaxTotal: 120, Rarity: RarityRare},
				{MaxTotal: 180, Rarity: RarityEpic},
				{MaxTotal: 0, Rarity: RarityLegendary},
			},
			SpinRotations: 5,
		},

		Cable: CableConfig{
			Palette:      []string{"orange", "red", "green"},
			TimeLimitSec: 30,
			PairScore:    5,
		},

		Shooting: ShootingConfig{
			DurationSec:       10,
			Width:             800,
			Height:            500,
			TargetRatio:       0.7,
			HitScore:          10,
			DecoyPenalty:      10,
			ShapeSize:         40,
			HitSlack:          10,
			MinSpeed:          4,
			SpeedRange:        4,
			SpawnMinDelayMs:   300,
			SpawnDelayRangeMs: 500,
			FrameMs:           16,
			WinPolicy:         WinAlways,
			ScoreGoal:         100,
		},

		Quests: []QuestDef{
			{
				ID:    "first-ember",
				Title: "Catch an Emberwing",
				Kind:  QuestOwnCard,
				Card:  "Emberwing",
				Reward: QuestReward{
					Money: 30,
				},
			},
			{
				ID:     "rare-collector",
				Title:  "Hold two Rares and a full purse",
				Kind:   QuestCollection,
				Rarity: RarityRare,
				Count:  2,
				Money:  50,
				Reward: QuestReward{
					DeckSlots: 1,
				},
			},
			{
				ID:    "old-debts",
				Title: "Trade a Mudfin away",
				Kind:  QuestTrade,
				Cards: []string{"Mudfin"},
				Reward: QuestReward{
					Money: 25,
					Card:  "Wispling",
				},
			},
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. Fields absent from
// the file keep their default values; lists present in the file replace the
// default lists wholesale.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration integrity: a non-empty catalog, positive
// weights, resolvable quest references, and a sane wheel table.
func (c *Config) Validate() error {
	if len(c.Catalog) == 0 {
		return fmt.Errorf("config: empty card catalog")
	}
	seen := make(map[string]bool, len(c.Catalog))
	for _, card := range c.Catalog {
		if card.Name == "" {
			return fmt.Errorf("config: catalog card with empty name")
		}
		if seen[card.Name] {
			return fmt.Errorf("config: duplicate catalog card %q", card.Name)
		}
		seen[card.Name] = true
	}

	for _, table := range [][]RarityWeight{c.ShopWeights, c.BattleBonusWeights} {
		if len(table) == 0 {
			return fmt.Errorf("config: empty weight table")
		}
		for _, band := range table {
			if band.Weight <= 0 {
				return fmt.Errorf("config: non-positive weight for %s", band.Rarity)
			}
		}
	}

	if len(c.Wheel.Tiers) == 0 {
		return fmt.Errorf("config: empty wheel tier table")
	}
	last := len(c.Wheel.Tiers) - 1
	for i, tier := range c.Wheel.Tiers {
		if i < last && tier.MaxTotal <= 0 {
			return fmt.Errorf("config: wheel tier %d needs a positive max_total", i)
		}
	}

	if len(c.Cable.Palette) == 0 {
		return fmt.Errorf("config: empty cable palette")
	}

	switch c.Shooting.WinPolicy {
	case WinThreshold, WinAlways:
	default:
		return fmt.Errorf("config: unknown shooting win_policy %q", c.Shooting.WinPolicy)
	}

	ids := make(map[string]bool, len(c.Quests))
	for _, q := range c.Quests {
		if err := q.validate(c); err != nil {
			return err
		}
		if ids[q.ID] {
			return fmt.Errorf("config: duplicate quest id %q", q.ID)
		}
		ids[q.ID] = true
	}
	return nil
}
