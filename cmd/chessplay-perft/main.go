// Command chessplay-perft counts move-generation leaf nodes for a position.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/storage"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func main() {
	fen := flag.String("fen", board.StartFEN, "FEN string (defaults to initial position)")
	depth := flag.Int("depth", 0, "Perft depth (required)")
	divide := flag.Bool("divide", false, "Print per-move node counts at root")
	repeat := flag.Int("repeat", 1, "Repeat perft N times and report timing statistics")
	label := flag.String("label", "", "Optional label prefix for one-line output")
	verify := flag.Bool("verify-magics", false, "Check the magic numbers for collisions and exit")
	cache := flag.Bool("cache", false, "Look up and store results in the perft cache")
	dataDir := flag.String("data", "", "Cache database directory (default platform data dir)")
	cpuProf := flag.String("cpuprofile", "", "Write CPU profile to file during run")
	flag.Parse()

	if *verify {
		if err := board.VerifyMagics(); err != nil {
			log.Fatalf("magic verification failed: %v", err)
		}
		fmt.Println("magic numbers OK")
		return
	}

	if *depth <= 0 {
		fmt.Fprintln(os.Stderr, "-depth must be > 0")
		os.Exit(2)
	}

	pos, err := board.ParseFEN(*fen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ParseFEN error: %v\n", err)
		os.Exit(2)
	}

	if *divide {
		var total int64
		for _, r := range pos.PerftDivide(*depth) {
			fmt.Printf("%s: %d\n", r.Move, r.Nodes)
			total += r.Nodes
		}
		fmt.Printf("Total: %d\n", total)
		return
	}

	var store *storage.Storage
	if *cache {
		store, err = openCache(*dataDir)
		if err != nil {
			log.Printf("Warning: perft cache unavailable: %v", err)
		} else {
			defer store.Close()
		}
	}

	hash := pos.Hash()
	if store != nil {
		entry, err := store.GetPerft(hash, pos.FEN(), *depth)
		switch {
		case err == nil:
			fmt.Printf("%s \t%d \t\t%d \t\t(cached, %s)\n", *label, *depth, entry.Nodes, entry.Elapsed)
			return
		case !errors.Is(err, storage.ErrNotFound):
			log.Printf("Warning: perft cache lookup: %v", err)
		}
	}

	if *cpuProf != "" {
		f, err := os.Create(*cpuProf)
		if err != nil {
			log.Fatalf("creating cpuprofile: %v", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("start cpu profile: %v", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
		}()
	}

	if *repeat < 1 {
		*repeat = 1
	}

	var nodes int64
	var total time.Duration
	nps := make([]float64, *repeat)
	for i := range nps {
		start := time.Now()
		nodes = pos.Perft(*depth)
		elapsed := time.Since(start)
		total += elapsed
		nps[i] = float64(nodes) / elapsed.Seconds()
	}

	// Single line: Depth Nodes Time NPS
	fmt.Printf("%s \t%d \t\t%d \t\t%s \t%.0f\n", *label, *depth, nodes, total/time.Duration(*repeat), stat.Mean(nps, nil))
	if *repeat > 1 {
		mean, std := stat.MeanStdDev(nps, nil)
		fmt.Printf("nps over %d runs: mean %.0f  stddev %.0f  min %.0f  max %.0f\n",
			*repeat, mean, std, floats.Min(nps), floats.Max(nps))
	}

	if store != nil {
		entry := storage.PerftEntry{FEN: pos.FEN(), Depth: *depth, Nodes: nodes, Elapsed: total / time.Duration(*repeat)}
		if err := store.PutPerft(hash, entry); err != nil {
			log.Printf("Warning: perft result not cached: %v", err)
		}
	}
}

func openCache(dir string) (*storage.Storage, error) {
	if dir == "" {
		return storage.NewStorage()
	}
	return storage.Open(dir)
}
