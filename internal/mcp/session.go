package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/tmarcon/idledeck/internal/game"
	"github.com/tmarcon/idledeck/internal/log"
	"github.com/tmarcon/idledeck/internal/web"
)

// GameSession wraps one live game session for the MCP tools: the session
// itself plus an event cursor so each tool call reports only what happened
// since the previous one.
type GameSession struct {
	session *game.Session
	logger  *log.MemoryLogger
	lastSeq int
}

// NewGameSession builds the singleton session the stdio process serves.
func NewGameSession(session *game.Session, logger *log.MemoryLogger) *GameSession {
	return &GameSession{session: session, logger: logger}
}

// drainEvents returns the formatted events logged since the last drain.
func (s *GameSession) drainEvents() []string {
	var lines []string
	for _, e := range s.logger.Events() {
		if e.Seq <= s.lastSeq {
			continue
		}
		s.lastSeq = e.Seq
		lines = append(lines, log.FormatEvent(e))
	}
	return lines
}

// ToolResponse is the JSON envelope returned by all MCP tools.
type ToolResponse struct {
	Events  []string         `json:"events"`
	State   *web.StateView   `json:"state,omitempty"`
	Battle  *game.BattleView `json:"battle,omitempty"`
	Rewards *game.RewardSet  `json:"rewards,omitempty"`
}

// respond builds the standard envelope: drained events plus fresh views.
func (s *GameSession) respond() string {
	resp := &ToolResponse{
		Events: s.drainEvents(),
		State:  web.BuildStateView(s.session),
	}
	if b := s.session.Battle(); b != nil {
		view := b.View()
		resp.Battle = &view
		resp.Rewards = b.Rewards()
	}
	// Ensure events is never null in JSON
	if resp.Events == nil {
		resp.Events = []string{}
	}
	return respondJSON(resp)
}

// respondJSON marshals a ToolResponse to a JSON string.
func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
