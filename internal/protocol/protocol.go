// Package protocol implements a line-based engine protocol for Othello,
// modelled on UCI.
//
//	othello                        identify, list options, "othellook"
//	isready                        "readyok"
//	newgame                        reset position and engine state
//	position startpos [moves ...]
//	position board <64 cells> <X|O> [moves ...]
//	go [depth N] [movetime MS]     search; "info ..." lines then "bestmove M"
//	stop                           end the running search
//	setoption name N value V       Tier, Hash, PlyGate, HistoryPolicy, Book
//	tier [name]                    show or select the tier
//	d | eval | perft N             debugging
//	quit
package protocol

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/othelloplay/internal/board"
	"github.com/hailam/othelloplay/internal/book"
	"github.com/hailam/othelloplay/internal/engine"
	"github.com/hailam/othelloplay/internal/storage"
)

// Protocol reads commands from an input stream and answers on an output stream.
type Protocol struct {
	in  io.Reader
	out io.Writer
	mu  sync.Mutex // Guards out

	cfg       engine.Config
	tier      engine.Tier
	book      engine.OpeningBook
	store     *storage.Storage
	analyzers map[engine.Tier]engine.Analyzer

	position  board.Position
	moveCount int

	// Search state
	cancel     context.CancelFunc
	searchDone chan struct{}
}

// New creates a new protocol handler.
func New(cfg engine.Config, tier engine.Tier, in io.Reader, out io.Writer) *Protocol {
	return &Protocol{
		in:        in,
		out:       out,
		cfg:       cfg,
		tier:      tier,
		analyzers: make(map[engine.Tier]engine.Analyzer),
		position:  board.NewPosition(),
	}
}

// SetBook sets the opening book used by the full tier. Nil disables it.
func (p *Protocol) SetBook(b engine.OpeningBook) {
	p.book = b
	p.resetAnalyzers()
}

// SetStore enables the analysis cache.
func (p *Protocol) SetStore(s *storage.Storage) {
	p.store = s
	p.resetAnalyzers()
}

// Position returns the current position.
func (p *Protocol) Position() board.Position {
	return p.position
}

// Run starts the main loop. It returns when the input ends or on "quit".
func (p *Protocol) Run() error {
	scanner := bufio.NewScanner(p.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "othello":
			p.handleHello()
		case "isready":
			p.wait()
			p.printf("readyok\n")
		case "newgame":
			p.handleNewGame()
		case "position":
			p.handlePosition(args)
		case "go":
			p.handleGo(args)
		case "stop":
			p.handleStop()
		case "quit":
			p.handleStop()
			return nil
		case "setoption":
			p.handleSetOption(args)
		case "tier":
			p.handleTier(args)
		// Debug commands
		case "d":
			p.printf("%s\n", p.position.String())
		case "eval":
			p.handleEval()
		case "perft":
			p.handlePerft(args)
		default:
			p.printf("info string unknown command %s\n", cmd)
		}
	}

	// Let a search started at the end of the input finish
	p.wait()
	return scanner.Err()
}

func (p *Protocol) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

// handleHello responds to the "othello" command.
func (p *Protocol) handleHello() {
	p.printf("id name OthelloPlay\n")
	p.printf("id author OthelloPlay Team\n")
	p.printf("\n")
	p.printf("option name Tier type combo default full var random var greedy var shallow var full\n")
	p.printf("option name Hash type spin default %d min 1 max 4096\n", engine.DefaultConfig().HashMB)
	p.printf("option name PlyGate type spin default %d min 1 max %d\n", engine.DefaultPlyGate, engine.MaxPly)
	p.printf("option name HistoryPolicy type combo default age var age var reset var keep\n")
	p.printf("option name Book type string default <empty>\n")
	p.printf("othellook\n")
}

// handleNewGame resets the engine for a new game.
func (p *Protocol) handleNewGame() {
	p.handleStop()
	p.resetAnalyzers()
	p.position = board.NewPosition()
	p.moveCount = 0
}

func (p *Protocol) resetAnalyzers() {
	p.analyzers = make(map[engine.Tier]engine.Analyzer)
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves f5 d6
//   - position board <cells> <side>
//   - position board <cells> <side> moves c3
func (p *Protocol) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	// Find "moves" keyword
	setupEnd, moveStart := len(args), len(args)
	for i, arg := range args {
		if arg == "moves" {
			setupEnd, moveStart = i, i+1
			break
		}
	}

	var pos board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "board":
		parsed, err := board.ParsePosition(strings.Join(args[1:setupEnd], " "))
		if err != nil {
			p.printf("info string invalid board: %v\n", err)
			return
		}
		pos = parsed
	default:
		p.printf("info string unknown position type %s\n", args[0])
		return
	}

	moveCount := pos.Occupied().PopCount() - 4
	for _, moveStr := range args[moveStart:] {
		m, err := board.ParseMove(moveStr)
		if err != nil || !pos.IsLegal(m) {
			p.printf("info string invalid move: %s\n", moveStr)
			return
		}
		pos = pos.Apply(m)
		moveCount++
	}

	p.position = pos
	p.moveCount = moveCount
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth    int
	MoveTime time.Duration
}

func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "movetime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.MoveTime = time.Duration(ms) * time.Millisecond
				i++
			}
		}
	}

	return opts
}

func (p *Protocol) analyzer() (engine.Analyzer, error) {
	if a, ok := p.analyzers[p.tier]; ok {
		return a, nil
	}

	a, err := engine.NewAnalyzer(p.tier, p.cfg, p.book)
	if err != nil {
		return nil, err
	}
	if p.store != nil {
		a = storage.CachedAnalyzer{Analyzer: a, Tier: p.tier, Store: p.store}
	}
	p.analyzers[p.tier] = a
	return a, nil
}

// handleGo starts a search with the given parameters.
func (p *Protocol) handleGo(args []string) {
	p.handleStop()

	opts := parseGoOptions(args)
	a, err := p.analyzer()
	if err != nil {
		p.printf("info string %v\n", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.searchDone = done

	pos := p.position
	req := engine.Request{
		Position:  pos,
		Depth:     opts.Depth,
		TimeLimit: opts.MoveTime,
		MoveCount: p.moveCount,
		OnInfo:    func(info engine.SearchInfo) { p.sendInfo(pos, info) },
	}

	go func() {
		defer close(done)
		defer cancel()

		res, err := a.Analyze(ctx, req)
		if err != nil {
			log.Error().Err(err).Msg("analysis-failed")
			p.printf("info string %v\n", err)
			p.printf("bestmove none\n")
			return
		}
		if res.Book {
			p.printf("info string book move\n")
		}
		p.printf("bestmove %s\n", BestMoveText(pos, res.BestMove))
	}()
}

// BestMoveText renders the answer to "go": the move, "pass" when the side
// to move must pass, or "none" when the game is over.
func BestMoveText(pos board.Position, m board.Move) string {
	if m != board.NoMove {
		return m.String()
	}
	if pos.MustPass() {
		return "pass"
	}
	return "none"
}

// sendInfo outputs search info.
func (p *Protocol) sendInfo(pos board.Position, info engine.SearchInfo) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))

	// Scores are Black-relative
	if engine.IsDecided(info.Score) {
		parts = append(parts, fmt.Sprintf("score final %d", finalMargin(info.Score)))
	} else {
		parts = append(parts, fmt.Sprintf("score %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}

	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}

	// Stop at the first move that does not apply
	if len(info.PV) > 0 {
		validPV := make([]string, 0, len(info.PV))
		testPos := pos
		for _, move := range info.PV {
			if !testPos.IsLegal(move) {
				break
			}
			validPV = append(validPV, move.String())
			testPos = testPos.Apply(move)
		}
		if len(validPV) > 0 {
			parts = append(parts, "pv "+strings.Join(validPV, " "))
		}
	}

	p.printf("info %s\n", strings.Join(parts, " "))
}

// finalMargin extracts the disc margin from a decided score.
func finalMargin(score int) int {
	if score > 0 {
		return score - engine.WinScore
	}
	return score + engine.WinScore
}

// handleStop stops the current search and waits for its bestmove.
func (p *Protocol) handleStop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wait()
}

func (p *Protocol) wait() {
	if p.searchDone != nil {
		<-p.searchDone
		p.searchDone = nil
		p.cancel = nil
	}
}

// handleSetOption processes "setoption" commands.
func (p *Protocol) handleSetOption(args []string) {
	// Format: setoption name <name> value <value>
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName = true
			readingValue = false
		case "value":
			readingName = false
			readingValue = true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	p.handleStop()

	switch strings.ToLower(name) {
	case "tier":
		t, err := engine.ParseTier(value)
		if err != nil {
			p.printf("info string %v\n", err)
			return
		}
		p.tier = t
	case "hash":
		mb, err := strconv.Atoi(value)
		if err != nil || mb < 1 {
			p.printf("info string invalid hash size %q\n", value)
			return
		}
		p.cfg.HashMB = mb
		p.resetAnalyzers()
	case "plygate":
		gate, err := strconv.Atoi(value)
		if err != nil || gate < 1 {
			p.printf("info string invalid ply gate %q\n", value)
			return
		}
		p.cfg.PlyGate = gate
		p.resetAnalyzers()
	case "historypolicy":
		hp, err := engine.ParseHistoryPolicy(value)
		if err != nil {
			p.printf("info string %v\n", err)
			return
		}
		p.cfg.HistoryPolicy = hp
		p.resetAnalyzers()
	case "book":
		p.loadBook(value)
	default:
		p.printf("info string unknown option %s\n", name)
	}
}

// handleTier prints the current tier or switches to a new one.
func (p *Protocol) handleTier(args []string) {
	if len(args) == 0 {
		p.printf("tier %s\n", p.tier)
		return
	}
	t, err := engine.ParseTier(args[0])
	if err != nil {
		p.printf("info string %v\n", err)
		return
	}
	p.handleStop()
	p.tier = t
	p.printf("tier %s\n", p.tier)
}

func (p *Protocol) loadBook(value string) {
	switch strings.ToLower(value) {
	case "", "none", "<empty>":
		p.SetBook(nil)
	case "default":
		p.SetBook(book.Default())
	default:
		b, err := book.Load(value)
		if err != nil {
			p.printf("info string failed to load book: %v\n", err)
			return
		}
		p.SetBook(b)
		p.printf("info string book loaded with %d positions\n", b.Size())
	}
}

// handleEval prints the static evaluation of the current position.
func (p *Protocol) handleEval() {
	score := engine.Evaluate(p.position, board.Black)
	winProb, err := engine.WinProbability(float64(score))
	if err != nil {
		p.printf("info string %v\n", err)
		return
	}
	stones, err := engine.StoneEquivalent(float64(score))
	if err != nil {
		p.printf("info string %v\n", err)
		return
	}
	p.printf("eval %s winprob %.3f stones %d\n", engine.ScoreToString(score), winProb, stones)
}

// handlePerft runs a perft test.
func (p *Protocol) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}

	start := time.Now()
	nodes := board.Perft(p.position, depth)
	elapsed := time.Since(start)

	p.printf("Nodes: %d\n", nodes)
	p.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		p.printf("NPS: %.0f\n", nps)
	}
}
