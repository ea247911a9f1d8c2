// Command chessplay plays a game of chess on the terminal, optionally against
// an external UCI engine.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/book"
	"github.com/hailam/chessplay/internal/game"
	"github.com/hailam/chessplay/internal/storage"
	"github.com/hailam/chessplay/internal/tablebase"
	"github.com/hailam/chessplay/internal/uci"
)

var (
	fenFlag    = flag.String("fen", "", "start position (defaults to the standard position)")
	engineFlag = flag.String("engine", "", "UCI engine binary (default $"+uci.EnvEngine+" or the bundled engine)")
	noEngine   = flag.Bool("no-engine", false, "play both sides by hand")
	depthFlag  = flag.Int("depth", 0, "engine search depth (default from saved preferences)")
	colorFlag  = flag.String("color", "", "side you play against the engine: white or black")
	dataFlag   = flag.String("data", "", "data directory (default platform data dir)")
	loadFlag   = flag.String("load", "", "resume the saved game with this ID")
	listFlag   = flag.Bool("list", false, "list saved games and exit")
	bookFlag   = flag.String("book", "", "opening book (binary, or .txt move lines)")
	tbFlag     = flag.Bool("tablebase", false, "play endgames from the online tablebase")
	timeout    = flag.Duration("movetime", time.Minute, "limit for one engine reply")
)

func main() {
	flag.Parse()

	store, err := openStorage(*dataFlag)
	if err != nil {
		log.Printf("Warning: storage unavailable: %v (games will not be saved)", err)
	}
	if store != nil {
		defer store.Close()
	}

	if *listFlag {
		if store == nil {
			log.Fatalf("cannot list games without storage")
		}
		if err := listGames(store); err != nil {
			log.Fatalf("list games: %v", err)
		}
		return
	}

	prefs := storage.DefaultPreferences()
	if store != nil {
		if p, err := store.LoadPreferences(); err == nil {
			prefs = p
		}
	}
	applyFlags(prefs)

	g, err := startGame(store)
	if err != nil {
		log.Fatalf("start game: %v", err)
	}

	var engine *uci.Client
	if !*noEngine {
		engine, err = startEngine(prefs)
		if err != nil {
			log.Printf("Warning: engine not started: %v (playing both sides by hand)", err)
		} else {
			defer engine.Close()
			log.Printf("Engine: %s (depth %d)", engine.Name, prefs.EngineDepth)
		}
	}

	if store != nil {
		if err := store.SavePreferences(prefs); err != nil {
			log.Printf("Warning: preferences not saved: %v", err)
		}
	}

	human := board.White
	if prefs.PlayerColor == storage.ColorBlack {
		human = board.Black
	}

	var searcher game.Searcher
	if engine != nil {
		searcher = engine
	}
	searcher = withBookAndTablebase(searcher)

	p := &player{game: g, store: store, human: human, engine: searcher}
	p.run(bufio.NewScanner(os.Stdin))
}

// withBookAndTablebase puts the opening book and the tablebase in front of next.
func withBookAndTablebase(next game.Searcher) game.Searcher {
	if *tbFlag {
		next = &tablebase.Player{Prober: tablebase.NewCachedLichessProber(), Fallback: next}
	}
	if *bookFlag != "" {
		b, err := book.LoadFile(*bookFlag)
		if err != nil {
			log.Printf("Warning: opening book not loaded: %v", err)
			return next
		}
		log.Printf("Opening book: %d positions", b.Size())
		next = &book.Player{Book: b, Fallback: next}
	}
	return next
}

func openStorage(dir string) (*storage.Storage, error) {
	if dir == "" {
		return storage.NewStorage()
	}
	return storage.Open(dir)
}

func applyFlags(prefs *storage.Preferences) {
	if *engineFlag != "" {
		prefs.EnginePath = *engineFlag
	}
	if *depthFlag > 0 {
		prefs.EngineDepth = *depthFlag
	}
	switch strings.ToLower(*colorFlag) {
	case "white", "w":
		prefs.PlayerColor = storage.ColorWhite
	case "black", "b":
		prefs.PlayerColor = storage.ColorBlack
	}
}

func startGame(store *storage.Storage) (*game.Session, error) {
	if *loadFlag == "" {
		return game.New(*fenFlag)
	}
	if store == nil {
		return nil, errors.New("cannot load a game without storage")
	}
	rec, err := store.LoadGame(*loadFlag)
	if err != nil {
		return nil, err
	}
	g, err := game.Replay(rec.ID, rec.StartFEN, rec.Moves)
	if err != nil {
		return nil, err
	}
	g.Created = rec.Created
	return g, nil
}

func startEngine(prefs *storage.Preferences) (*uci.Client, error) {
	path := prefs.EnginePath
	if path == "" {
		root, err := storage.GetEngineRoot()
		if err != nil {
			return nil, err
		}
		path = uci.DefaultEnginePath(root)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return uci.Start(ctx, uci.Options{Path: path, Depth: prefs.EngineDepth})
}

func listGames(store *storage.Storage) error {
	games, err := store.ListGames()
	if err != nil {
		return err
	}
	for _, rec := range games {
		fmt.Printf("%s  %s  %-7s  %d moves\n", rec.ID, rec.Updated.Format("2006-01-02 15:04"), rec.Result, len(rec.Moves))
	}
	return nil
}

// player drives one game from the terminal.
type player struct {
	game   *game.Session
	store  *storage.Storage
	engine game.Searcher // nil when playing both sides
	human  board.Color
}

const help = `Enter moves as e2e4, e7e8q or SAN (Nf3, O-O).
Commands: undo, fen, moves, pgn, save, help, quit`

func (p *player) run(in *bufio.Scanner) {
	fmt.Println(help)
	for {
		fmt.Print(p.game.Position())

		if status := p.game.Status(); status != game.Ongoing {
			fmt.Printf("Game over: %s (%s)\n", status, status.Result())
			p.save()
			return
		}

		if p.engine != nil && p.game.Turn() != p.human {
			p.engineMove()
			continue
		}

		fmt.Printf("%s> ", p.game.Turn())
		if !in.Scan() {
			p.save()
			return
		}
		if !p.command(strings.TrimSpace(in.Text())) {
			p.save()
			return
		}
	}
}

func (p *player) engineMove() {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	m, err := p.game.EngineReply(ctx, p.engine)
	if err != nil {
		log.Printf("Engine failed: %v (playing both sides by hand)", err)
		p.engine = nil
		return
	}
	fmt.Printf("Engine plays %s\n", m)
	p.save()
}

// command handles one input line. It returns false to quit.
func (p *player) command(line string) bool {
	switch line {
	case "":
	case "quit", "exit":
		return false
	case "help":
		fmt.Println(help)
	case "fen":
		fmt.Println(p.game.FEN())
	case "moves":
		fmt.Println(strings.Join(p.game.SAN(), " "))
	case "pgn":
		pgn, err := p.game.PGN()
		if err != nil {
			fmt.Printf("PGN export failed: %v\n", err)
			break
		}
		fmt.Println(pgn)
	case "save":
		p.save()
		fmt.Printf("Saved as %s\n", p.game.ID)
	case "undo":
		// Against an engine, take back its reply as well.
		if p.engine != nil && p.game.Turn() == p.human && len(p.game.History()) >= 2 {
			p.game.TakeBack()
		}
		if !p.game.TakeBack() {
			fmt.Println("Nothing to take back")
		}
		p.save()
	default:
		if _, err := p.game.Play(line); err != nil {
			fmt.Println(err)
			break
		}
		p.save()
	}
	return true
}

// save persists the game. The store counts a finished game in the stats once.
func (p *player) save() {
	if p.store == nil {
		return
	}
	rec := &storage.GameRecord{
		ID:       p.game.ID,
		StartFEN: p.game.StartFEN(),
		Moves:    p.game.Moves(),
		Result:   p.game.Status().Result(),
		Created:  p.game.Created,
	}
	if err := p.store.SaveGame(rec); err != nil {
		log.Printf("Warning: game not saved: %v", err)
	}
}
