package log

import (
	"fmt"
	"io"
	"strings"
)

// EventLogger is the interface for logging game events.
type EventLogger interface {
	Log(event GameEvent)
	Events() []GameEvent
}

// --- MemoryLogger: stores events in memory for test assertions ---

type MemoryLogger struct {
	events []GameEvent
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event GameEvent) {
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
}

func (l *MemoryLogger) Events() []GameEvent {
	return l.events
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []GameEvent {
	var result []GameEvent
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() GameEvent {
	if len(l.events) == 0 {
		return GameEvent{}
	}
	return l.events[len(l.events)-1]
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event GameEvent) {
	l.MemoryLogger.Log(event)
	fmt.Fprintln(l.w, FormatEvent(event))
}

// --- Formatting ---

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e GameEvent) string {
	t := e.Type.String()
	// Pad type to 16 chars for alignment
	for len(t) < 16 {
		t += " "
	}
	return fmt.Sprintf("#%-4d %s| %s", e.Seq, t, e.Details)
}

// FormatAll formats all events as a multi-line string.
func FormatAll(events []GameEvent) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- Helper constructors for common events ---

func NewOfferShownEvent(cardName string, price int64) GameEvent {
	return GameEvent{
		Type:    EventOfferShown,
		Card:    cardName,
		Details: fmt.Sprintf("shop offers %s for %d", cardName, price),
	}
}

func NewOfferHiddenEvent() GameEvent {
	return GameEvent{
		Type:    EventOfferHidden,
		Details: "shop offer hidden",
	}
}

func NewPurchaseEvent(cardName string, price, money int64) GameEvent {
	return GameEvent{
		Type:    EventPurchase,
		Card:    cardName,
		Money:   money,
		Details: fmt.Sprintf("bought %s for %d (money: %d)", cardName, price, money),
	}
}

func NewSellEvent(cardName string, credit, money int64) GameEvent {
	return GameEvent{
		Type:    EventSell,
		Card:    cardName,
		Money:   money,
		Details: fmt.Sprintf("sold %s for %d (money: %d)", cardName, credit, money),
	}
}

func NewIncomeTickEvent(income, money int64) GameEvent {
	return GameEvent{
		Type:    EventIncomeTick,
		Money:   money,
		Details: fmt.Sprintf("income +%d (money: %d)", income, money),
	}
}

func NewDeckUpgradeEvent(size int, money int64) GameEvent {
	return GameEvent{
		Type:    EventDeckUpgrade,
		Money:   money,
		Details: fmt.Sprintf("deck upgraded to %d slots (money: %d)", size, money),
	}
}

func NewQuestUnlockedEvent(questID string) GameEvent {
	return GameEvent{
		Type:    EventQuestUnlocked,
		Details: fmt.Sprintf("quest %s unlocked", questID),
	}
}

func NewQuestCompletedEvent(questID string) GameEvent {
	return GameEvent{
		Type:    EventQuestCompleted,
		Details: fmt.Sprintf("quest %s completed", questID),
	}
}

func NewQuestClaimedEvent(questID string, money int64) GameEvent {
	return GameEvent{
		Type:    EventQuestClaimed,
		Money:   money,
		Details: fmt.Sprintf("quest %s claimed (money: %d)", questID, money),
	}
}

func NewBattleStagedEvent(names []string) GameEvent {
	return GameEvent{
		Type:    EventBattleStaged,
		Details: fmt.Sprintf("battle staged with %s", strings.Join(names, ", ")),
	}
}

func NewCablePairedEvent(color string, paired, total int) GameEvent {
	return GameEvent{
		Type:    EventCablePaired,
		Details: fmt.Sprintf("%s cable paired (%d/%d)", color, paired, total),
	}
}

func NewCableRejectedEvent(reason string) GameEvent {
	return GameEvent{
		Type:    EventCableRejected,
		Details: fmt.Sprintf("cable pair rejected (%s)", reason),
	}
}

func NewCableWinEvent(elapsedSec int) GameEvent {
	return GameEvent{
		Type:    EventCableWin,
		Details: fmt.Sprintf("all cables connected in %ds", elapsedSec),
	}
}

func NewCableTimeoutEvent() GameEvent {
	return GameEvent{
		Type:    EventCableTimeout,
		Details: "cable puzzle timed out",
	}
}

func NewShotHitEvent(score int) GameEvent {
	return GameEvent{
		Type:    EventShotHit,
		Details: fmt.Sprintf("target hit +10 (score: %d)", score),
	}
}

func NewShotDecoyEvent(score int) GameEvent {
	return GameEvent{
		Type:    EventShotDecoy,
		Details: fmt.Sprintf("decoy hit -10 (score: %d)", score),
	}
}

func NewShootingOverEvent(score int, won bool) GameEvent {
	outcome := "lost"
	if won {
		outcome = "won"
	}
	return GameEvent{
		Type:    EventShootingOver,
		Details: fmt.Sprintf("shooting over, %s with score %d", outcome, score),
	}
}

func NewRewardDrawnEvent(cardName, rarity string) GameEvent {
	return GameEvent{
		Type:    EventRewardDrawn,
		Card:    cardName,
		Details: fmt.Sprintf("bonus card drawn: %s (%s)", cardName, rarity),
	}
}

func NewWheelSpinEvent(cardName, rarity string, total int) GameEvent {
	return GameEvent{
		Type:    EventWheelSpin,
		Card:    cardName,
		Details: fmt.Sprintf("wheel landed on %s (%s) at total score %d", cardName, rarity, total),
	}
}

func NewReconciledEvent(removed, added int, deckSize int) GameEvent {
	return GameEvent{
		Type:    EventReconciled,
		Details: fmt.Sprintf("battle reconciled: -%d +%d cards (deck: %d)", removed, added, deckSize),
	}
}

func NewSaveFailedEvent(key string) GameEvent {
	return GameEvent{
		Type:    EventSaveFailed,
		Details: fmt.Sprintf("save to %q failed, retrying on next cadence", key),
	}
}

func NewMigratedEvent(fixes []string) GameEvent {
	return GameEvent{
		Type:    EventMigrated,
		Details: fmt.Sprintf("save migrated: %s", strings.Join(fixes, "; ")),
	}
}

func NewStateResetEvent(reason string) GameEvent {
	return GameEvent{
		Type:    EventStateReset,
		Details: fmt.Sprintf("state reset to defaults (%s)", reason),
	}
}

func NewSessionClosedEvent() GameEvent {
	return GameEvent{
		Type:    EventSessionClosed,
		Details: "session closed, timers cancelled",
	}
}
