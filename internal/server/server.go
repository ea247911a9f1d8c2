// Package server exposes chess game sessions to remote clients over websockets.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hailam/chessplay/internal/game"
	"github.com/hailam/chessplay/internal/storage"
)

// Config holds the server configuration.
type Config struct {
	Host          string        // Host to bind to (default "localhost")
	Port          int           // Port to listen on (default 8080)
	ReadTimeout   time.Duration // Read timeout (default 30s)
	WriteTimeout  time.Duration // Write timeout (default 30s)
	IdleTimeout   time.Duration // Idle timeout (default 60s)
	EngineTimeout time.Duration // Limit for one engine reply (default 30s)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:          "localhost",
		Port:          8080,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   60 * time.Second,
		EngineTimeout: 30 * time.Second,
	}
}

// Server is the HTTP and websocket front end.
type Server struct {
	config Config
	store  *storage.Storage // optional
	engine game.Searcher    // optional
	server *http.Server
}

// New creates a server. store and engine may be nil: games are then not
// persisted and "engine" requests are refused.
func New(config Config, store *storage.Storage, engine game.Searcher) *Server {
	if config.EngineTimeout <= 0 {
		config.EngineTimeout = DefaultConfig().EngineTimeout
	}
	return &Server{
		config: config,
		store:  store,
		engine: engine,
	}
}

// loggingMiddleware logs all requests.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.health)
	mux.HandleFunc("GET /api/games", s.listGames)
	mux.HandleFunc("GET /api/games/{id}/pgn", s.gamePGN)
	mux.HandleFunc("/api/ws", s.WebSocket)

	return loggingMiddleware(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"engine":  s.engine != nil,
		"storage": s.store != nil,
	})
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "storage disabled")
		return
	}
	games, err := s.store.ListGames()
	if err != nil {
		log.Printf("list games: %v", err)
		writeError(w, http.StatusInternalServerError, "list games failed")
		return
	}
	if games == nil {
		games = []*storage.GameRecord{}
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) gamePGN(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "storage disabled")
		return
	}
	rec, err := s.store.LoadGame(r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	g, err := game.Replay(rec.ID, rec.StartFEN, rec.Moves)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	pgn, err := g.PGN()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/x-chess-pgn")
	fmt.Fprint(w, pgn)
}

// saveGame persists the session if a store is configured. The store counts a
// finished game's result once per game ID. Failures are logged, the game goes
// on without persistence.
func (s *Server) saveGame(g *game.Session) {
	if s.store == nil {
		return
	}
	rec := &storage.GameRecord{
		ID:       g.ID,
		StartFEN: g.StartFEN(),
		Moves:    g.Moves(),
		Result:   g.Status().Result(),
		Created:  g.Created,
	}
	if err := s.store.SaveGame(rec); err != nil {
		log.Printf("save game %s: %v", g.ID, err)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	log.Printf("Starting chessplay server on %s", addr)
	log.Printf("  GET  /api/health          - Health check")
	log.Printf("  GET  /api/games           - Saved games")
	log.Printf("  GET  /api/games/{id}/pgn  - Saved game as PGN")
	log.Printf("  WS   /api/ws              - Play a game")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ListenAndServeWithGracefulShutdown starts the server and handles shutdown signals.
func (s *Server) ListenAndServeWithGracefulShutdown() error {
	errChan := make(chan error, 1)

	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		log.Printf("Received signal %v, shutting down...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped gracefully")
	return nil
}
