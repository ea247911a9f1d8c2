// Package uci drives an external move-search engine over the Universal Chess Interface.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/hailam/chessplay/internal/board"
)

// DefaultDepth is the search depth sent with "go" when Options.Depth is zero.
const DefaultDepth = 6

var (
	// ErrNoBestMove is returned when the engine answers "bestmove (none)" or "bestmove 0000".
	ErrNoBestMove = errors.New("uci: engine returned no move")

	// ErrClosed is returned when the engine output ends before the expected reply.
	ErrClosed = errors.New("uci: engine closed")
)

// Options configures an engine subprocess.
type Options struct {
	Path  string   // engine binary
	Args  []string // extra command-line arguments
	Depth int      // search depth per move, DefaultDepth if zero
}

// Client talks to one engine. Requests are serialised; a Client is safe for
// concurrent use but the engine only ever works on one position at a time.
type Client struct {
	mu    sync.Mutex
	w     *bufio.Writer
	lines chan string
	done  chan struct{}
	depth int

	// Name is the engine's "id name" line, if it sent one.
	Name string

	// bestmove replies still owed by the engine for cancelled searches
	stale int

	cmd    *exec.Cmd
	closer io.Closer
}

// Start launches the engine binary and completes the UCI handshake.
// The context bounds the handshake only; the process lives until Close.
func Start(ctx context.Context, opts Options) (*Client, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("uci: no engine path configured")
	}

	cmd := exec.Command(opts.Path, opts.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("uci: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("uci: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("uci: start %s: %w", opts.Path, err)
	}

	c := NewClient(stdout, stdin, opts.Depth)
	c.cmd = cmd

	if err := c.Handshake(ctx); err != nil {
		c.Close()
		return nil, err
	}

	log.Printf("Engine started: %s (%s)", c.Name, opts.Path)
	return c, nil
}

// NewClient wraps an already running engine. r carries the engine's output
// and w its input. No handshake is performed.
func NewClient(r io.Reader, w io.Writer, depth int) *Client {
	if depth <= 0 {
		depth = DefaultDepth
	}
	c := &Client{
		w:     bufio.NewWriter(w),
		lines: make(chan string, 64),
		done:  make(chan struct{}),
		depth: depth,
	}
	if wc, ok := w.(io.Closer); ok {
		c.closer = wc
	}
	go c.readLoop(r)
	return c
}

func (c *Client) readLoop(r io.Reader) {
	defer close(c.lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case c.lines <- line:
		case <-c.done:
			return
		}
	}
}

func (c *Client) send(cmd string) error {
	if _, err := c.w.WriteString(cmd + "\n"); err != nil {
		return fmt.Errorf("uci: write %q: %w", cmd, err)
	}
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("uci: write %q: %w", cmd, err)
	}
	return nil
}

// waitFor reads engine output until a line whose first token is want.
func (c *Client) waitFor(ctx context.Context, want string) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-c.lines:
			if !ok {
				return "", ErrClosed
			}
			fields := strings.Fields(line)
			switch {
			case fields[0] == "id" && len(fields) > 2 && fields[1] == "name":
				c.Name = strings.Join(fields[2:], " ")
			case fields[0] == "bestmove" && c.stale > 0:
				c.stale--
				continue
			}
			if fields[0] == want {
				return line, nil
			}
		}
	}
}

// Handshake sends "uci" and "isready" and waits for both replies.
func (c *Client) Handshake(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.send("uci"); err != nil {
		return err
	}
	if _, err := c.waitFor(ctx, "uciok"); err != nil {
		return fmt.Errorf("uci: waiting for uciok: %w", err)
	}
	return c.ready(ctx)
}

func (c *Client) ready(ctx context.Context) error {
	if err := c.send("isready"); err != nil {
		return err
	}
	if _, err := c.waitFor(ctx, "readyok"); err != nil {
		return fmt.Errorf("uci: waiting for readyok: %w", err)
	}
	return nil
}

// NewGame tells the engine a new game starts.
func (c *Client) NewGame(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.send("ucinewgame"); err != nil {
		return err
	}
	return c.ready(ctx)
}

// PositionCommand builds the "position" command for a game that started at
// fen and continued with history. An empty fen or StartFEN uses "startpos".
func PositionCommand(fen string, history []board.Move) string {
	var sb strings.Builder
	if fen == "" || fen == board.StartFEN {
		sb.WriteString("position startpos")
	} else {
		sb.WriteString("position fen ")
		sb.WriteString(fen)
	}

	if len(history) > 0 {
		sb.WriteString(" moves")
		for _, m := range history {
			sb.WriteByte(' ')
			sb.WriteString(m.String())
		}
	}
	return sb.String()
}

// BestMove asks the engine for a move in the position reached from fen by
// history and returns the move token, e.g. "e7e8q". If ctx is cancelled while
// the engine searches, "stop" is sent and the late reply is discarded.
func (c *Client) BestMove(ctx context.Context, fen string, history []board.Move) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.send(PositionCommand(fen, history)); err != nil {
		return "", err
	}
	if err := c.send(fmt.Sprintf("go depth %d", c.depth)); err != nil {
		return "", err
	}

	line, err := c.waitFor(ctx, "bestmove")
	if err != nil {
		if ctx.Err() != nil {
			c.stale++
			c.send("stop")
		}
		return "", fmt.Errorf("uci: waiting for bestmove: %w", err)
	}

	fields := strings.Fields(line)
	if len(fields) < 2 || fields[1] == "(none)" || fields[1] == "0000" {
		return "", ErrNoBestMove
	}
	return fields[1], nil
}

// Close sends "quit" and waits briefly for the engine to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.send("quit")
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	if c.closer != nil {
		c.closer.Close()
	}
	if c.cmd == nil {
		return nil
	}

	exited := make(chan error, 1)
	go func() { exited <- c.cmd.Wait() }()

	select {
	case err := <-exited:
		return err
	case <-time.After(2 * time.Second):
		log.Printf("Engine did not exit after quit, killing it")
		c.cmd.Process.Kill()
		return <-exited
	}
}
