package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/tmarcon/idledeck/internal/game"
)

//go:embed static
var staticFiles embed.FS

// pushInterval is how often the websocket pushes a fresh snapshot while
// idle; commands push immediately.
const pushInterval = 250 * time.Millisecond

// Server drives one game session over HTTP and a websocket.
type Server struct {
	session *game.Session
	mux     *http.ServeMux
}

// NewServer wraps a session with the HTTP surface.
func NewServer(session *game.Session) *Server {
	s := &Server{
		session: session,
		mux:     http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	staticFS, _ := fs.Sub(staticFiles, "static")

	s.mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		f, err := staticFS.Open("index.html")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer f.Close()
		io.Copy(w, f.(io.Reader))
	})
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /api/config", s.handleConfig)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BuildStateView(s.session))
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BuildConfigView(s.session.Config()))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		log.Printf("WebSocket accept error: %v", err)
		return
	}
	defer wsConn.CloseNow()

	ctx := r.Context()
	conn := &wsClient{conn: wsConn}

	if err := s.push(ctx, conn); err != nil {
		return
	}

	// Periodic pusher: income ticks and offer rotation change the state
	// without any client command, so the page needs a heartbeat.
	pushCtx, stopPush := context.WithCancel(ctx)
	defer stopPush()
	go func() {
		ticker := time.NewTicker(pushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pushCtx.Done():
				return
			case <-ticker.C:
				if err := s.push(pushCtx, conn); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := wsConn.Read(ctx)
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.pushError(ctx, conn, "malformed message")
			continue
		}
		if errText := s.apply(msg); errText != "" {
			s.pushError(ctx, conn, errText)
		}
		if err := s.push(ctx, conn); err != nil {
			return
		}
	}
}

// apply dispatches one client command. Invalid in-game actions are silent
// no-ops by contract; only structural problems produce an error message.
func (s *Server) apply(msg ClientMessage) string {
	switch msg.Type {
	case "buy":
		s.session.Buy()
	case "sell":
		s.session.Sell(msg.Index)
	case "upgrade_deck":
		s.session.BuyDeckUpgrade()
	case "claim_quest":
		s.session.ClaimQuest(msg.QuestID)
	case "start_battle":
		if _, err := s.session.StageBattle(msg.Indices); err != nil {
			return err.Error()
		}
	case "cable_select":
		if b := s.session.Battle(); b != nil {
			b.SelectCablePoint(msg.PointID)
		}
	case "shoot":
		if b := s.session.Battle(); b != nil {
			b.Shoot(msg.X, msg.Y)
		}
	case "finish_battle":
		if err := s.session.FinishBattle(); err != nil && !errors.Is(err, game.ErrNoRewards) {
			return err.Error()
		}
	case "abandon_battle":
		s.session.AbandonBattle()
	case "reset":
		s.session.Reset()
	default:
		return "unknown message type"
	}
	return ""
}

// wsClient serializes writes: the command loop and the heartbeat pusher
// share one socket, and the websocket allows a single concurrent writer.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) write(ctx context.Context, msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// push sends the current state, plus the battle view while one is in flight.
func (s *Server) push(ctx context.Context, conn *wsClient) error {
	if err := conn.write(ctx, ServerMessage{Type: "state", State: BuildStateView(s.session)}); err != nil {
		return err
	}
	if b := s.session.Battle(); b != nil {
		view := b.View()
		return conn.write(ctx, ServerMessage{Type: "battle", Battle: &view})
	}
	return nil
}

func (s *Server) pushError(ctx context.Context, conn *wsClient, text string) {
	conn.write(ctx, ServerMessage{Type: "error", Error: text})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

// Handler exposes the mux, for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}
