package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/game"
	"github.com/hailam/chessplay/internal/storage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is a request from the client.
type WSMessage struct {
	Type    string          `json:"type"`              // "new", "load", "move", "engine", "undo", "state", "ping"
	ID      string          `json:"id"`                // Request ID for correlating responses
	Payload json.RawMessage `json:"payload,omitempty"` // Type-specific payload
}

// WSResponse is a reply to the client.
type WSResponse struct {
	Type    string `json:"type"`              // "state", "error", "pong"
	ID      string `json:"id,omitempty"`      // Request ID
	Payload any    `json:"payload,omitempty"` // Response data
	Error   string `json:"error,omitempty"`   // Error message if any
}

// NewRequest starts a game, from the standard position when FEN is empty.
type NewRequest struct {
	FEN string `json:"fen"`
}

// LoadRequest resumes a saved game.
type LoadRequest struct {
	GameID string `json:"game_id"`
}

// MoveRequest plays a move given as coordinate text or SAN.
type MoveRequest struct {
	Move string `json:"move"`
}

// StateResponse describes the game after a request.
type StateResponse struct {
	GameID   string   `json:"game_id"`
	FEN      string   `json:"fen"`
	Turn     string   `json:"turn"`
	Status   string   `json:"status"`
	Result   string   `json:"result"`
	InCheck  bool     `json:"in_check"`
	LastMove string   `json:"last_move,omitempty"`
	Moves    []string `json:"moves"`
	SAN      []string `json:"san"`
	Legal    []string `json:"legal"`
}

func stateOf(g *game.Session) StateResponse {
	pos := g.Position()
	legal := pos.LegalMoves()

	resp := StateResponse{
		GameID:  g.ID,
		FEN:     g.FEN(),
		Turn:    g.Turn().String(),
		Status:  g.Status().String(),
		Result:  g.Status().Result(),
		InCheck: pos.InCheck(),
		Moves:   g.Moves(),
		SAN:     g.SAN(),
		Legal:   make([]string, len(legal)),
	}
	for i, m := range legal {
		resp.Legal[i] = m.String()
	}
	if last := g.LastMove(); last != board.NoMove {
		resp.LastMove = last.String()
	}
	return resp
}

// wsClient is one connection. It owns its game; all messages are handled on
// the read goroutine so the session has a single writer.
type wsClient struct {
	conn     *websocket.Conn
	server   *Server
	game     *game.Session
	sendChan chan WSResponse
}

// WebSocket upgrades the connection and plays one game per client.
func (s *Server) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	g, _ := game.New("")
	client := &wsClient{conn: conn, server: s, game: g, sendChan: make(chan WSResponse, 64)}
	go client.writePump()
	client.readPump(r.Context())
}

// writePump sends queued responses until readPump closes sendChan. After a
// write error it closes the connection, which ends readPump, and discards the
// rest of the queue so handlers never block on a full channel.
func (c *wsClient) writePump() {
	defer c.conn.Close()
	for msg := range c.sendChan {
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Printf("WebSocket write error: %v", err)
			c.conn.Close()
			for range c.sendChan {
			}
			return
		}
	}
}

func (c *wsClient) readPump(ctx context.Context) {
	defer func() { close(c.sendChan); c.conn.Close() }()
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		c.handleMessage(ctx, msg)
	}
}

func (c *wsClient) sendError(id, msg string) {
	c.sendChan <- WSResponse{Type: "error", ID: id, Error: msg}
}

func (c *wsClient) sendState(id string) {
	c.sendChan <- WSResponse{Type: "state", ID: id, Payload: stateOf(c.game)}
}

func (c *wsClient) handleMessage(ctx context.Context, msg WSMessage) {
	switch msg.Type {
	case "new":
		c.handleNew(msg)
	case "load":
		c.handleLoad(msg)
	case "move":
		c.handleMove(msg)
	case "engine":
		c.handleEngine(ctx, msg)
	case "undo":
		if !c.game.TakeBack() {
			c.sendError(msg.ID, "no move to take back")
			return
		}
		c.server.saveGame(c.game)
		c.sendState(msg.ID)
	case "state":
		c.sendState(msg.ID)
	case "ping":
		c.sendChan <- WSResponse{Type: "pong", ID: msg.ID}
	default:
		c.sendError(msg.ID, "unknown message type")
	}
}

// decode unmarshals an optional payload. An absent payload leaves v unchanged.
func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, v)
}

func (c *wsClient) handleNew(msg WSMessage) {
	var req NewRequest
	if err := decode(msg.Payload, &req); err != nil {
		c.sendError(msg.ID, "invalid payload")
		return
	}
	g, err := game.New(req.FEN)
	if err != nil {
		c.sendError(msg.ID, err.Error())
		return
	}
	c.game = g
	c.sendState(msg.ID)
}

func (c *wsClient) handleLoad(msg WSMessage) {
	var req LoadRequest
	if err := decode(msg.Payload, &req); err != nil || req.GameID == "" {
		c.sendError(msg.ID, "invalid payload")
		return
	}
	if c.server.store == nil {
		c.sendError(msg.ID, "storage disabled")
		return
	}
	rec, err := c.server.store.LoadGame(req.GameID)
	if errors.Is(err, storage.ErrNotFound) {
		c.sendError(msg.ID, "game not found")
		return
	}
	if err != nil {
		c.sendError(msg.ID, err.Error())
		return
	}
	g, err := game.Replay(rec.ID, rec.StartFEN, rec.Moves)
	if err != nil {
		c.sendError(msg.ID, err.Error())
		return
	}
	g.Created = rec.Created
	c.game = g
	c.sendState(msg.ID)
}

func (c *wsClient) handleMove(msg WSMessage) {
	var req MoveRequest
	if err := decode(msg.Payload, &req); err != nil || req.Move == "" {
		c.sendError(msg.ID, "invalid payload")
		return
	}
	if _, err := c.game.Play(req.Move); err != nil {
		c.sendError(msg.ID, err.Error())
		return
	}
	c.server.saveGame(c.game)
	c.sendState(msg.ID)
}

func (c *wsClient) handleEngine(ctx context.Context, msg WSMessage) {
	if c.server.engine == nil {
		c.sendError(msg.ID, "no engine configured")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.server.config.EngineTimeout)
	defer cancel()

	if _, err := c.game.EngineReply(ctx, c.server.engine); err != nil {
		c.sendError(msg.ID, err.Error())
		return
	}
	c.server.saveGame(c.game)
	c.sendState(msg.ID)
}
