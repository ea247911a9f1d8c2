// Command chessplay-server serves chess games over websockets.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/hailam/chessplay/internal/book"
	"github.com/hailam/chessplay/internal/game"
	"github.com/hailam/chessplay/internal/server"
	"github.com/hailam/chessplay/internal/storage"
	"github.com/hailam/chessplay/internal/tablebase"
	"github.com/hailam/chessplay/internal/uci"
)

func main() {
	defaults := server.DefaultConfig()

	host := flag.String("host", defaults.Host, "Host to bind to (use 0.0.0.0 for all interfaces)")
	port := flag.Int("port", defaults.Port, "Port to listen on")
	readTimeout := flag.Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	engineTimeout := flag.Duration("engine-timeout", defaults.EngineTimeout, "Limit for one engine reply")
	enginePath := flag.String("engine", "", "UCI engine binary (default $"+uci.EnvEngine+" or the bundled engine)")
	depth := flag.Int("depth", uci.DefaultDepth, "Engine search depth")
	noEngine := flag.Bool("no-engine", false, "Serve without an engine")
	dataDir := flag.String("data", "", "Database directory (default platform data dir)")
	memory := flag.Bool("memory", false, "Keep games in memory only")
	bookPath := flag.String("book", "", "Opening book (binary, or .txt move lines)")
	useTablebase := flag.Bool("tablebase", false, "Play endgames from the online tablebase")
	flag.Parse()

	var store *storage.Storage
	var err error
	switch {
	case *memory:
		store, err = storage.OpenInMemory()
	case *dataDir != "":
		store, err = storage.Open(*dataDir)
	default:
		store, err = storage.NewStorage()
	}
	if err != nil {
		log.Printf("Warning: storage unavailable: %v (games will not be saved)", err)
		store = nil
	} else {
		defer store.Close()
	}

	config := server.Config{
		Host:          *host,
		Port:          *port,
		ReadTimeout:   *readTimeout,
		WriteTimeout:  *writeTimeout,
		IdleTimeout:   defaults.IdleTimeout,
		EngineTimeout: *engineTimeout,
	}

	var searcher game.Searcher
	if engine := startEngine(*noEngine, *enginePath, *depth); engine != nil {
		defer engine.Close()
		searcher = engine
	}
	if *useTablebase {
		searcher = &tablebase.Player{Prober: tablebase.NewCachedLichessProber(), Fallback: searcher}
	}
	if *bookPath != "" {
		b, err := book.LoadFile(*bookPath)
		if err != nil {
			log.Fatalf("Failed to load opening book: %v", err)
		}
		log.Printf("Opening book: %d positions", b.Size())
		searcher = &book.Player{Book: b, Fallback: searcher}
	}

	srv := server.New(config, store, searcher)
	if err := srv.ListenAndServeWithGracefulShutdown(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startEngine(disabled bool, path string, depth int) *uci.Client {
	if disabled {
		return nil
	}
	if path == "" {
		root, err := storage.GetEngineRoot()
		if err != nil {
			log.Printf("Warning: no engine: %v", err)
			return nil
		}
		path = uci.DefaultEnginePath(root)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	engine, err := uci.Start(ctx, uci.Options{Path: path, Depth: depth})
	if err != nil {
		log.Printf("Warning: engine not started: %v (engine replies disabled)", err)
		return nil
	}
	log.Printf("Engine: %s (depth %d)", engine.Name, depth)
	return engine
}
