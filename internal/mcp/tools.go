package mcp

import (
	"context"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// activeSession is the singleton game session (one per stdio process).
var activeSession *GameSession

// SetSession installs the session the tools operate on, set by main.
func SetSession(s *GameSession) {
	activeSession = s
}

// RegisterTools adds all game tools to the MCP server.
func RegisterTools(s *server.MCPServer) {
	s.AddTool(getStateTool(), handleGetState)
	s.AddTool(buyCardTool(), handleBuyCard)
	s.AddTool(sellCardTool(), handleSellCard)
	s.AddTool(upgradeDeckTool(), handleUpgradeDeck)
	s.AddTool(claimQuestTool(), handleClaimQuest)
	s.AddTool(startBattleTool(), handleStartBattle)
	s.AddTool(pairCablesTool(), handlePairCables)
	s.AddTool(shootTool(), handleShoot)
	s.AddTool(finishBattleTool(), handleFinishBattle)
	s.AddTool(abandonBattleTool(), handleAbandonBattle)
}

// --- Tool definitions ---

func getStateTool() mcp.Tool {
	return mcp.NewTool("get_state",
		mcp.WithDescription("Get the current game state (money, deck, shop offer, quests) and any in-flight battle, plus the events since the last call. Read-only."),
	)
}

func buyCardTool() mcp.Tool {
	return mcp.NewTool("buy_card",
		mcp.WithDescription("Buy the currently offered shop card. A no-op if no offer is visible, money is short, or the deck is full."),
	)
}

func sellCardTool() mcp.Tool {
	return mcp.NewTool("sell_card",
		mcp.WithDescription("Sell the deck card at the given index for the flat sell price."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based deck index of the card to sell")),
	)
}

func upgradeDeckTool() mcp.Tool {
	return mcp.NewTool("upgrade_deck",
		mcp.WithDescription("Buy the one-time deck capacity upgrade. A no-op if already bought or money is short."),
	)
}

func claimQuestTool() mcp.Tool {
	return mcp.NewTool("claim_quest",
		mcp.WithDescription("Claim a completed quest's reward by quest id. Trade quests consume their traded cards."),
		mcp.WithString("quest_id", mcp.Required(), mcp.Description("Quest id, as shown in the state's quest list")),
	)
}

func startBattleTool() mcp.Tool {
	return mcp.NewTool("start_battle",
		mcp.WithDescription("Stage 4 distinct deck cards for battle and open the cable-matching puzzle. Battle trades the first two staged cards for new loot."),
		mcp.WithString("indices", mcp.Required(), mcp.Description("Space-separated 0-based deck indices of exactly 4 distinct cards (e.g. '0 1 2 3')")),
	)
}

func pairCablesTool() mcp.Tool {
	return mcp.NewTool("pair_cables",
		mcp.WithDescription("Click a sequence of cable points. A pair commits when two clicked points have the same color on opposite sides. Pair all colors before the timer to advance."),
		mcp.WithString("point_ids", mcp.Required(), mcp.Description("Space-separated point ids to click in order (e.g. '0 4 1 3')")),
	)
}

func shootTool() mcp.Tool {
	return mcp.NewTool("shoot",
		mcp.WithDescription("Fire one shot at (x, y) in the shooting stage. Targets score, decoys penalize."),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Horizontal coordinate of the shot")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Vertical coordinate of the shot")),
	)
}

func finishBattleTool() mcp.Tool {
	return mcp.NewTool("finish_battle",
		mcp.WithDescription("Reconcile a finished battle's rewards into the deck and return to the main game."),
	)
}

func abandonBattleTool() mcp.Tool {
	return mcp.NewTool("abandon_battle",
		mcp.WithDescription("Discard the in-flight battle without touching the deck."),
	)
}

// --- Tool handlers ---

func handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := activeSession
	if sess == nil {
		return mcp.NewToolResultError("No session is running."), nil
	}
	return mcp.NewToolResultText(sess.respond()), nil
}

func handleBuyCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := activeSession
	if sess == nil {
		return mcp.NewToolResultError("No session is running."), nil
	}
	sess.session.Buy()
	return mcp.NewToolResultText(sess.respond()), nil
}

func handleSellCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := activeSession
	if sess == nil {
		return mcp.NewToolResultError("No session is running."), nil
	}
	index := request.GetInt("index", -1)
	sess.session.Sell(index)
	return mcp.NewToolResultText(sess.respond()), nil
}

func handleUpgradeDeck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := activeSession
	if sess == nil {
		return mcp.NewToolResultError("No session is running."), nil
	}
	sess.session.BuyDeckUpgrade()
	return mcp.NewToolResultText(sess.respond()), nil
}

func handleClaimQuest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := activeSession
	if sess == nil {
		return mcp.NewToolResultError("No session is running."), nil
	}
	id := request.GetString("quest_id", "")
	if id == "" {
		return mcp.NewToolResultError("quest_id is required."), nil
	}
	sess.session.ClaimQuest(id)
	return mcp.NewToolResultText(sess.respond()), nil
}

func handleStartBattle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := activeSession
	if sess == nil {
		return mcp.NewToolResultError("No session is running."), nil
	}
	indices, err := parseInts(request.GetString("indices", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("Invalid indices: %v", err), nil
	}
	if _, err := sess.session.StageBattle(indices); err != nil {
		return mcp.NewToolResultErrorf("Could not start battle: %v", err), nil
	}
	return mcp.NewToolResultText(sess.respond()), nil
}

func handlePairCables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := activeSession
	if sess == nil {
		return mcp.NewToolResultError("No session is running."), nil
	}
	b := sess.session.Battle()
	if b == nil {
		return mcp.NewToolResultError("No battle is in flight. Use start_battle first."), nil
	}
	ids, err := parseInts(request.GetString("point_ids", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("Invalid point_ids: %v", err), nil
	}
	for _, id := range ids {
		b.SelectCablePoint(id)
	}
	return mcp.NewToolResultText(sess.respond()), nil
}

func handleShoot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := activeSession
	if sess == nil {
		return mcp.NewToolResultError("No session is running."), nil
	}
	b := sess.session.Battle()
	if b == nil {
		return mcp.NewToolResultError("No battle is in flight. Use start_battle first."), nil
	}
	x := request.GetFloat("x", -1)
	y := request.GetFloat("y", -1)
	b.Shoot(x, y)
	return mcp.NewToolResultText(sess.respond()), nil
}

func handleFinishBattle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := activeSession
	if sess == nil {
		return mcp.NewToolResultError("No session is running."), nil
	}
	if err := sess.session.FinishBattle(); err != nil {
		return mcp.NewToolResultErrorf("Could not finish battle: %v", err), nil
	}
	return mcp.NewToolResultText(sess.respond()), nil
}

func handleAbandonBattle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := activeSession
	if sess == nil {
		return mcp.NewToolResultError("No session is running."), nil
	}
	sess.session.AbandonBattle()
	return mcp.NewToolResultText(sess.respond()), nil
}

// parseInts splits a space-separated integer list.
func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Fields(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
