package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPreferences(t *testing.T) {
	s := openTest(t)

	t.Run("Defaults", func(t *testing.T) {
		prefs, err := s.LoadPreferences()
		if err != nil {
			t.Fatalf("LoadPreferences: %v", err)
		}
		if prefs.EngineDepth != 6 {
			t.Errorf("Expected depth 6, got %d", prefs.EngineDepth)
		}
		if prefs.PlayerColor != ColorWhite {
			t.Errorf("Expected white by default")
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		want := &Preferences{EnginePath: "/usr/bin/stockfish", EngineDepth: 12, PlayerColor: ColorBlack}
		if err := s.SavePreferences(want); err != nil {
			t.Fatalf("SavePreferences: %v", err)
		}
		got, err := s.LoadPreferences()
		if err != nil {
			t.Fatalf("LoadPreferences: %v", err)
		}
		if got.EnginePath != want.EnginePath || got.EngineDepth != 12 || got.PlayerColor != ColorBlack {
			t.Errorf("Got %+v, want %+v", got, want)
		}
	})
}

func TestRecordResult(t *testing.T) {
	s := openTest(t)

	for _, r := range []string{"1-0", "1-0", "0-1", "1/2-1/2"} {
		if err := s.RecordResult(r); err != nil {
			t.Fatalf("RecordResult(%s): %v", r, err)
		}
	}
	if err := s.RecordResult("*"); err == nil {
		t.Error("Expected error recording an unfinished game")
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	want := GameStats{GamesPlayed: 4, WhiteWins: 2, BlackWins: 1, Draws: 1}
	if *stats != want {
		t.Errorf("Got %+v, want %+v", *stats, want)
	}
}

func TestGames(t *testing.T) {
	s := openTest(t)

	if _, err := s.LoadGame("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	first := &GameRecord{ID: "a", StartFEN: "startpos", Moves: []string{"e2e4"}, Result: "*"}
	if err := s.SaveGame(first); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	second := &GameRecord{ID: "b", Moves: []string{"d2d4", "d7d5"}, Result: "*"}
	if err := s.SaveGame(second); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}

	got, err := s.LoadGame("a")
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if len(got.Moves) != 1 || got.Moves[0] != "e2e4" || got.Created.IsZero() {
		t.Errorf("Unexpected record %+v", got)
	}

	games, err := s.ListGames()
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(games) != 2 || games[0].ID != "b" || games[1].ID != "a" {
		t.Fatalf("Expected [b a], got %d games", len(games))
	}

	if err := s.SaveGame(&GameRecord{}); err == nil {
		t.Error("Expected error saving a record without ID")
	}

	if err := s.DeleteGame("a"); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	if _, err := s.LoadGame("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected deleted game to be gone, got %v", err)
	}
}

func TestSaveGameCountsResultOnce(t *testing.T) {
	s := openTest(t)

	mate := []string{"f2f3", "e7e5", "g2g4", "d8h4"}
	saves := []struct {
		moves  []string
		result string
	}{
		{mate[:3], "*"},
		{mate, "0-1"},
		{mate, "0-1"},   // saved again unchanged
		{mate[:3], "*"}, // mating move taken back
		{mate, "0-1"},   // and replayed
	}
	for i, sv := range saves {
		rec := &GameRecord{ID: "g", Moves: sv.moves, Result: sv.result}
		if err := s.SaveGame(rec); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		if want := i > 0; rec.Recorded != want {
			t.Errorf("save %d: Recorded = %v, want %v", i, rec.Recorded, want)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	want := GameStats{GamesPlayed: 1, BlackWins: 1}
	if *stats != want {
		t.Errorf("Got %+v, want %+v", *stats, want)
	}

	got, err := s.LoadGame("g")
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if !got.Recorded {
		t.Error("Expected stored record to be marked recorded")
	}
}

func TestPerftCache(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer s.Close()

	const fen = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	const hash = 0x1234

	if _, err := s.GetPerft(hash, fen, 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on empty cache, got %v", err)
	}

	if err := s.PutPerft(hash, PerftEntry{FEN: fen, Depth: 3, Nodes: 8902}); err != nil {
		t.Fatalf("PutPerft: %v", err)
	}

	entry, err := s.GetPerft(hash, fen, 3)
	if err != nil {
		t.Fatalf("GetPerft: %v", err)
	}
	if entry.Nodes != 8902 {
		t.Errorf("Expected 8902 nodes, got %d", entry.Nodes)
	}

	if _, err := s.GetPerft(hash, fen, 4); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected miss for another depth, got %v", err)
	}
	if _, err := s.GetPerft(hash, "8/8/8/8/8/8/8/K6k w - - 0 1", 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected miss on FEN mismatch, got %v", err)
	}
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv(EnvDataDir, "")

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}

	// Verify directory exists
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}

	t.Logf("Data directory: %s", dataDir)
}

func TestDataDirOverride(t *testing.T) {
	want := filepath.Join(t.TempDir(), "custom")
	t.Setenv(EnvDataDir, want)

	got, err := GetDatabaseDir()
	if err != nil {
		t.Fatalf("GetDatabaseDir failed: %v", err)
	}
	if got != filepath.Join(want, "db") {
		t.Errorf("GetDatabaseDir = %s, want %s", got, filepath.Join(want, "db"))
	}
	if _, err := os.Stat(got); err != nil {
		t.Errorf("Database directory was not created: %v", err)
	}
}
