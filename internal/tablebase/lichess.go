package tablebase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hailam/chessplay/internal/board"
)

// DefaultLichessURL is the public Lichess tablebase endpoint.
const DefaultLichessURL = "https://tablebase.lichess.ovh/standard"

// LichessProber uses the Lichess tablebase API for online lookups.
// It requires network access and is rate limited.
type LichessProber struct {
	client    *http.Client
	baseURL   string
	maxPieces int
}

// NewLichessProber creates a prober for baseURL, DefaultLichessURL if empty.
func NewLichessProber(baseURL string) *LichessProber {
	if baseURL == "" {
		baseURL = DefaultLichessURL
	}
	return &LichessProber{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL:   baseURL,
		maxPieces: 7, // Lichess supports up to 7-piece tablebases
	}
}

// Lichess API response structure
type lichessResponse struct {
	Category string `json:"category"` // "win", "draw", "maybe-win", "maybe-draw", "loss"
	DTZ      int    `json:"dtz"`
	Moves    []struct {
		UCI      string `json:"uci"`
		Category string `json:"category"`
		DTZ      int    `json:"dtz"`
	} `json:"moves"`
}

// query fetches the tablebase entry for pos. ok is false for positions with
// too many pieces and for any transport or decoding failure.
func (lp *LichessProber) query(ctx context.Context, pos *board.Position) (lichessResponse, bool) {
	var result lichessResponse
	if CountPieces(pos) > lp.maxPieces {
		return result, false
	}

	// Spaces become underscores for Lichess
	fen := strings.ReplaceAll(pos.FEN(), " ", "_")
	u := fmt.Sprintf("%s?fen=%s", lp.baseURL, url.QueryEscape(fen))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return result, false
	}
	resp, err := lp.client.Do(req)
	if err != nil {
		return result, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, false
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return result, false
	}
	return result, true
}

func (lp *LichessProber) Probe(ctx context.Context, pos *board.Position) ProbeResult {
	result, ok := lp.query(ctx, pos)
	if !ok {
		return ProbeResult{Found: false}
	}

	return ProbeResult{
		Found: true,
		WDL:   categoryToWDL(result.Category),
		DTZ:   result.DTZ,
	}
}

func (lp *LichessProber) ProbeRoot(ctx context.Context, pos *board.Position) RootResult {
	result, ok := lp.query(ctx, pos)
	if !ok || len(result.Moves) == 0 {
		return RootResult{Found: false}
	}

	// Lichess lists the best move first
	best := result.Moves[0]
	move := pos.ParseUserMove(best.UCI)
	if move == board.NoMove {
		return RootResult{Found: false}
	}

	return RootResult{
		Found: true,
		Move:  move,
		WDL:   categoryToWDL(best.Category),
		DTZ:   best.DTZ,
	}
}

func (lp *LichessProber) MaxPieces() int {
	return lp.maxPieces
}

func categoryToWDL(category string) WDL {
	switch category {
	case "win":
		return WDLWin
	case "maybe-win", "cursed-win":
		return WDLCursedWin
	case "loss":
		return WDLLoss
	case "maybe-loss", "blessed-loss":
		return WDLBlessedLoss
	default:
		return WDLDraw
	}
}
