package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	prefixGame     = "game/"
	prefixPerft    = "perft/"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// PlayerColor represents which color the human plays against the engine
type PlayerColor int

const (
	ColorWhite PlayerColor = iota
	ColorBlack
)

// Preferences stores user settings
type Preferences struct {
	EnginePath  string      `json:"engine_path"`
	EngineDepth int         `json:"engine_depth"`
	PlayerColor PlayerColor `json:"player_color"`
	LastPlayed  time.Time   `json:"last_played"`
}

// DefaultPreferences returns default user preferences
func DefaultPreferences() *Preferences {
	return &Preferences{
		EngineDepth: 6,
		PlayerColor: ColorWhite,
		LastPlayed:  time.Now(),
	}
}

// GameStats stores finished game counts
type GameStats struct {
	GamesPlayed int `json:"games_played"`
	WhiteWins   int `json:"white_wins"`
	BlackWins   int `json:"black_wins"`
	Draws       int `json:"draws"`
}

// GameRecord is a saved game: where it started and the moves played, in coordinate notation.
type GameRecord struct {
	ID       string    `json:"id"`
	StartFEN string    `json:"start_fen"`
	Moves    []string  `json:"moves"`
	Result   string    `json:"result"` // PGN result token, "*" while ongoing
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
	Recorded bool      `json:"recorded"` // result already counted in GameStats
}

// PerftEntry is a cached perft count for one position and depth.
type PerftEntry struct {
	FEN     string        `json:"fen"`
	Depth   int           `json:"depth"`
	Nodes   int64         `json:"nodes"`
	Elapsed time.Duration `json:"elapsed"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the database in the platform data directory
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens (or creates) the database in dir
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging
	return open(opts)
}

// OpenInMemory opens a database that lives only as long as the process
func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Storage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) putJSON(key string, v any) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, key, v)
	})
}

// getJSON decodes the value at key into v. It returns ErrNotFound for a missing key.
func (s *Storage) getJSON(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		return readJSON(txn, key, v)
	})
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

func readJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// SavePreferences saves user preferences
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastPlayed = time.Now()
	return s.putJSON(keyPreferences, prefs)
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()
	err := s.getJSON(keyPreferences, prefs)
	if errors.Is(err, ErrNotFound) {
		return prefs, nil // Use defaults
	}
	return prefs, err
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := &GameStats{}
	err := s.getJSON(keyStats, stats)
	if errors.Is(err, ErrNotFound) {
		return stats, nil
	}
	return stats, err
}

// RecordResult counts a finished game by its PGN result token.
func (s *Storage) RecordResult(result string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return countResult(txn, result)
	})
}

func countResult(txn *badger.Txn, result string) error {
	stats := &GameStats{}
	if err := readJSON(txn, keyStats, stats); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	switch result {
	case "1-0":
		stats.WhiteWins++
	case "0-1":
		stats.BlackWins++
	case "1/2-1/2":
		stats.Draws++
	default:
		return fmt.Errorf("storage: game not finished: %q", result)
	}
	stats.GamesPlayed++

	return setJSON(txn, keyStats, stats)
}

// SaveGame stores a game record under its ID, replacing any earlier version.
// The first save of a finished game also counts its result in the stats and
// marks the record Recorded. A game counted once is never counted again, even
// if moves are taken back and the game finishes a second time.
func (s *Storage) SaveGame(rec *GameRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("storage: game record without ID")
	}
	if rec.Created.IsZero() {
		rec.Created = time.Now()
	}
	rec.Updated = time.Now()

	key := prefixGame + rec.ID
	return s.db.Update(func(txn *badger.Txn) error {
		prev := &GameRecord{}
		switch err := readJSON(txn, key, prev); {
		case err == nil:
			rec.Recorded = rec.Recorded || prev.Recorded
		case !errors.Is(err, ErrNotFound):
			return err
		}

		if !rec.Recorded && rec.Result != "" && rec.Result != "*" {
			if err := countResult(txn, rec.Result); err != nil {
				return err
			}
			rec.Recorded = true
		}
		return setJSON(txn, key, rec)
	})
}

// LoadGame returns the game record with the given ID.
func (s *Storage) LoadGame(id string) (*GameRecord, error) {
	rec := &GameRecord{}
	if err := s.getJSON(prefixGame+id, rec); err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	return rec, nil
}

// DeleteGame removes a saved game.
func (s *Storage) DeleteGame(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(prefixGame + id))
	})
}

// ListGames returns every saved game, most recently updated first.
func (s *Storage) ListGames() ([]*GameRecord, error) {
	var games []*GameRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixGame)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			rec := &GameRecord{}
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, rec)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			games = append(games, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(games, func(i, j int) bool {
		return games[i].Updated.After(games[j].Updated)
	})
	return games, nil
}

func perftKey(hash uint64, depth int) string {
	return fmt.Sprintf("%s%016x/%d", prefixPerft, hash, depth)
}

// PutPerft caches a perft count under the position hash and depth.
func (s *Storage) PutPerft(hash uint64, entry PerftEntry) error {
	return s.putJSON(perftKey(hash, entry.Depth), entry)
}

// GetPerft returns a cached perft count. A cached entry whose FEN differs
// from fen is a hash collision and reported as ErrNotFound.
func (s *Storage) GetPerft(hash uint64, fen string, depth int) (*PerftEntry, error) {
	entry := &PerftEntry{}
	if err := s.getJSON(perftKey(hash, depth), entry); err != nil {
		return nil, err
	}
	if entry.FEN != fen {
		return nil, ErrNotFound
	}
	return entry, nil
}
