package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/storage"
)

// fixedEngine always answers with the same move.
type fixedEngine struct {
	move string
}

func (e fixedEngine) BestMove(ctx context.Context, fen string, history []board.Move) (string, error) {
	return e.move, nil
}

func dial(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	t.Cleanup(func() { ws.Close() })

	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusSwitchingProtocols)
	}
	return ws
}

// exchange sends one message and decodes the reply. State payloads land in state.
func exchange(t *testing.T, ws *websocket.Conn, typ string, payload any) (WSResponse, StateResponse) {
	t.Helper()
	msg := WSMessage{Type: typ, ID: typ + "-1"}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		msg.Payload = raw
	}
	if err := ws.WriteJSON(msg); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var raw struct {
		WSResponse
		Payload json.RawMessage `json:"payload"`
	}
	if err := ws.ReadJSON(&raw); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if raw.ID != msg.ID {
		t.Errorf("ID = %q, want %q", raw.ID, msg.ID)
	}

	var state StateResponse
	if raw.Type == "state" {
		if err := json.Unmarshal(raw.Payload, &state); err != nil {
			t.Fatalf("Decode state: %v", err)
		}
	}
	return raw.WSResponse, state
}

func TestWebSocketPing(t *testing.T) {
	ws := dial(t, New(DefaultConfig(), nil, nil))

	resp, _ := exchange(t, ws, "ping", nil)
	if resp.Type != "pong" {
		t.Errorf("Type = %q, want pong", resp.Type)
	}

	resp, _ = exchange(t, ws, "bogus", nil)
	if resp.Type != "error" {
		t.Errorf("Type = %q, want error", resp.Type)
	}
}

func TestWebSocketGame(t *testing.T) {
	ws := dial(t, New(DefaultConfig(), nil, fixedEngine{move: "e7e5"}))

	resp, state := exchange(t, ws, "state", nil)
	if resp.Type != "state" {
		t.Fatalf("Type = %q, want state", resp.Type)
	}
	if state.FEN != board.StartFEN || len(state.Legal) != 20 || state.Turn != "white" {
		t.Errorf("Unexpected initial state %+v", state)
	}

	_, state = exchange(t, ws, "move", MoveRequest{Move: "e2e4"})
	if state.LastMove != "e2e4" || state.Turn != "black" {
		t.Errorf("After e2e4: %+v", state)
	}

	_, state = exchange(t, ws, "engine", nil)
	if state.LastMove != "e7e5" || len(state.Moves) != 2 {
		t.Errorf("After engine: %+v", state)
	}
	if state.SAN[0] != "e4" || state.SAN[1] != "e5" {
		t.Errorf("SAN = %v", state.SAN)
	}

	resp, _ = exchange(t, ws, "move", MoveRequest{Move: "e4e5"})
	if resp.Type != "error" {
		t.Errorf("Expected error for blocked pawn, got %q", resp.Type)
	}

	_, state = exchange(t, ws, "undo", nil)
	if len(state.Moves) != 1 {
		t.Errorf("After undo: %d moves", len(state.Moves))
	}
}

func TestWebSocketNewGame(t *testing.T) {
	ws := dial(t, New(DefaultConfig(), nil, nil))

	// Fool's mate position, white to move and mated.
	fen := "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 0 1"
	_, state := exchange(t, ws, "new", NewRequest{FEN: fen})
	if state.Status != "black wins" || state.Result != "0-1" || !state.InCheck {
		t.Errorf("Unexpected state %+v", state)
	}
	if len(state.Legal) != 0 {
		t.Errorf("Expected no legal moves, got %v", state.Legal)
	}

	resp, _ := exchange(t, ws, "new", NewRequest{FEN: "not a fen"})
	if resp.Type != "error" {
		t.Errorf("Expected error for bad FEN, got %q", resp.Type)
	}

	resp, _ = exchange(t, ws, "engine", nil)
	if resp.Type != "error" {
		t.Errorf("Expected error without engine, got %q", resp.Type)
	}
}

func TestWebSocketPersistence(t *testing.T) {
	store, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer store.Close()

	s := New(DefaultConfig(), store, nil)
	ws := dial(t, s)

	exchange(t, ws, "move", MoveRequest{Move: "d2d4"})
	_, state := exchange(t, ws, "move", MoveRequest{Move: "Nf6"})

	rec, err := store.LoadGame(state.GameID)
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if len(rec.Moves) != 2 || rec.Moves[1] != "g8f6" || rec.Result != "*" {
		t.Errorf("Unexpected record %+v", rec)
	}

	// A second connection resumes the saved game.
	ws2 := dial(t, s)
	_, resumed := exchange(t, ws2, "load", LoadRequest{GameID: state.GameID})
	if resumed.FEN != state.FEN {
		t.Errorf("Resumed FEN = %s, want %s", resumed.FEN, state.FEN)
	}

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/api/games/" + state.GameID + "/pgn")
	if err != nil {
		t.Fatalf("GET pgn: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d", res.StatusCode)
	}

	res2, err := http.Get(ts.URL + "/api/games/missing/pgn")
	if err != nil {
		t.Fatalf("GET pgn: %v", err)
	}
	res2.Body.Close()
	if res2.StatusCode != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", res2.StatusCode)
	}
}

func TestWebSocketReplayedResultCountsOnce(t *testing.T) {
	store, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer store.Close()

	ws := dial(t, New(DefaultConfig(), store, nil))

	for _, m := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		exchange(t, ws, "move", MoveRequest{Move: m})
	}
	if _, state := exchange(t, ws, "undo", nil); state.Result != "*" {
		t.Fatalf("Result after undo = %q, want *", state.Result)
	}
	_, state := exchange(t, ws, "move", MoveRequest{Move: "d8h4"})
	if state.Result != "0-1" {
		t.Fatalf("Result = %q, want 0-1", state.Result)
	}

	stats, err := store.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	want := storage.GameStats{GamesPlayed: 1, BlackWins: 1}
	if *stats != want {
		t.Errorf("Stats = %+v, want %+v", *stats, want)
	}
}

func TestWritePumpDrainsAfterWriteError(t *testing.T) {
	conns := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	defer ts.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	defer ws.Close()

	conn := <-conns
	conn.Close() // every write now fails

	c := &wsClient{conn: conn, sendChan: make(chan WSResponse, 1)}
	done := make(chan struct{})
	go func() {
		c.writePump()
		close(done)
	}()

	sent := make(chan struct{})
	go func() {
		for i := 0; i < 8; i++ {
			c.sendChan <- WSResponse{Type: "pong"}
		}
		close(c.sendChan)
		close(sent)
	}()

	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("Sender blocked after a write error")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("writePump did not return after sendChan closed")
	}
}

func TestHealth(t *testing.T) {
	s := New(DefaultConfig(), nil, nil)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body["status"] != "ok" || body["engine"] != false {
		t.Errorf("Unexpected body %v", body)
	}

	req = httptest.NewRequest("GET", "/api/games", nil)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503 without storage", w.Code)
	}
}
