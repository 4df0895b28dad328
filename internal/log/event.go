package log

// EventType enumerates all observable game events.
type EventType int

const (
	EventOfferShown EventType = iota
	EventOfferHidden
	EventPurchase
	EventSell
	EventIncomeTick
	EventDeckUpgrade
	EventQuestUnlocked
	EventQuestCompleted
	EventQuestClaimed
	EventBattleStaged
	EventCablePaired
	EventCableRejected
	EventCableWin
	EventCableTimeout
	EventShotHit
	EventShotDecoy
	EventShootingOver
	EventRewardDrawn
	EventWheelSpin
	EventReconciled
	EventSaveFailed
	EventMigrated
	EventStateReset
	EventSessionClosed
)

func (e EventType) String() string {
	switch e {
	case EventOfferShown:
		return "OfferShown"
	case EventOfferHidden:
		return "OfferHidden"
	case EventPurchase:
		return "Purchase"
	case EventSell:
		return "Sell"
	case EventIncomeTick:
		return "IncomeTick"
	case EventDeckUpgrade:
		return "DeckUpgrade"
	case EventQuestUnlocked:
		return "QuestUnlocked"
	case EventQuestCompleted:
		return "QuestCompleted"
	case EventQuestClaimed:
		return "QuestClaimed"
	case EventBattleStaged:
		return "BattleStaged"
	case EventCablePaired:
		return "CablePaired"
	case EventCableRejected:
		return "CableRejected"
	case EventCableWin:
		return "CableWin"
	case EventCableTimeout:
		return "CableTimeout"
	case EventShotHit:
		return "ShotHit"
	case EventShotDecoy:
		return "ShotDecoy"
	case EventShootingOver:
		return "ShootingOver"
	case EventRewardDrawn:
		return "RewardDrawn"
	case EventWheelSpin:
		return "WheelSpin"
	case EventReconciled:
		return "Reconciled"
	case EventSaveFailed:
		return "SaveFailed"
	case EventMigrated:
		return "Migrated"
	case EventStateReset:
		return "StateReset"
	case EventSessionClosed:
		return "SessionClosed"
	default:
		return "Unknown"
	}
}

// GameEvent represents a single observable event in a session.
type GameEvent struct {
	Seq     int       // monotonic sequence number
	Type    EventType // event type
	Card    string    // card name (if applicable)
	Money   int64     // money after the event (if applicable)
	Details string    // human-readable detail string
}
