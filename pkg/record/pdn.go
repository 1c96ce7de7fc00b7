package record

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/yourusername/ckengine/pkg/engine"
)

// PDN (Portable Draughts Notation) is the PGN-derived text format for
// draughts games. See: https://pdn.fmjd.org
//
// Example PDN:
// [Event "Casual game"]
// [Red "Player"]
// [Black "CPU"]
// [Result "0-1"]
// [GameType "21"]
//
// 1. 22-18 10-15 2. 18-14 9x18 3. 23x14 ... 0-1
//
// Red moves first. Square numbers run 1-32 from Black's home row.

// ErrSyntax is returned for PDN text that cannot be read.
var ErrSyntax = errors.New("PDN syntax error")

const lineWidth = 79

var (
	pdnTagRE     = regexp.MustCompile(`^\[(\w+)\s+"((?:[^"\\]|\\.)*)"\]$`)
	pdnTokenRE   = regexp.MustCompile(`\{[^}]*\}?|[^\s{]+`)
	pdnMoveNumRE = regexp.MustCompile(`^\d+\.+`)
	pdnMoveRE    = regexp.MustCompile(`^\d+([-x]\d+)+$`)
)

// Write writes games in PDN format, separated by blank lines. Every game is
// replayed first; an illegal move aborts the export.
func Write(w io.Writer, games ...*Game) error {
	bw := bufio.NewWriter(w)
	for i, g := range games {
		if i > 0 {
			bw.WriteString("\n")
		}
		if err := writeGame(bw, g); err != nil {
			return fmt.Errorf("game %d: %w", i+1, err)
		}
	}
	return bw.Flush()
}

func writeGame(w *bufio.Writer, g *Game) error {
	turns, _, err := g.Turns()
	if err != nil {
		return err
	}

	writeTag := func(name, value string) {
		fmt.Fprintf(w, "[%s \"%s\"]\n", name, escapeTag(value))
	}
	if g.Event != "" {
		writeTag("Event", g.Event)
	}
	if g.Site != "" {
		writeTag("Site", g.Site)
	}
	if g.Date != "" {
		writeTag("Date", g.Date)
	}
	writeTag("Red", g.Red)
	writeTag("Black", g.Black)
	writeTag("Result", g.Result.String())
	writeTag("GameType", GameType)
	if g.Position != "" {
		writeTag("PositionID", g.Position)
	}
	w.WriteString("\n")

	tokens := make([]string, 0, len(turns)*3/2+1)
	num := 1
	for i, t := range turns {
		switch {
		case t.Side == engine.Red:
			tokens = append(tokens, strconv.Itoa(num)+".")
		case i == 0:
			tokens = append(tokens, strconv.Itoa(num)+"...")
		}
		tokens = append(tokens, t.String())
		if t.Side == engine.Black {
			num++
		}
	}
	tokens = append(tokens, g.Result.String())

	col := 0
	for _, tok := range tokens {
		if col > 0 && col+1+len(tok) > lineWidth {
			w.WriteString("\n")
			col = 0
		}
		if col > 0 {
			w.WriteString(" ")
			col++
		}
		w.WriteString(tok)
		col += len(tok)
	}
	w.WriteString("\n")
	return nil
}

func escapeTag(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func unescapeTag(s string) string {
	var sb strings.Builder
	escaped := false
	for _, r := range s {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// pdnReader holds the state of the game being read.
type pdnReader struct {
	games     []*Game
	cur       *Game
	board     *engine.Board
	pending   bool // the last token stopped inside a capture chain
	inComment bool
}

// Parse reads all games from PDN text. Moves are checked against the rules
// while reading, and multi-jump tokens such as "9x18x27" are split into
// single jumps. A game may end inside a capture chain (adjudicated games),
// but a chain may not be split across tokens.
func Parse(r io.Reader) ([]*Game, error) {
	p := &pdnReader{}
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		if err := p.line(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PDN: %w", err)
	}
	if p.cur != nil {
		p.finish()
	}
	return p.games, nil
}

func (p *pdnReader) game() *Game {
	if p.cur == nil {
		p.cur = NewGame("", "")
	}
	return p.cur
}

func (p *pdnReader) finish() {
	p.games = append(p.games, p.cur)
	p.cur = nil
	p.board = nil
	p.pending = false
}

func (p *pdnReader) line(line string) error {
	if p.inComment {
		end := strings.IndexByte(line, '}')
		if end < 0 {
			return nil
		}
		p.inComment = false
		line = strings.TrimSpace(line[end+1:])
	}
	if line == "" {
		return nil
	}

	if m := pdnTagRE.FindStringSubmatch(line); m != nil {
		// Tags after moves start the next game
		if p.board != nil {
			p.finish()
		}
		return p.tag(m[1], unescapeTag(m[2]))
	}

	for _, tok := range pdnTokenRE.FindAllString(line, -1) {
		if strings.HasPrefix(tok, "{") {
			if !strings.HasSuffix(tok, "}") {
				p.inComment = true
			}
			continue
		}
		if err := p.token(tok); err != nil {
			return err
		}
	}
	return nil
}

func (p *pdnReader) tag(name, value string) error {
	g := p.game()
	switch name {
	case "Event":
		g.Event = value
	case "Site":
		g.Site = value
	case "Date":
		g.Date = value
	case "Red":
		g.Red = value
	case "Black":
		g.Black = value
	case "Result":
		res, err := ParseResult(value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		g.Result = res
	case "GameType":
		if value != GameType && !strings.HasPrefix(value, GameType+",") {
			return fmt.Errorf("%w: unsupported game type %q", ErrSyntax, value)
		}
	case "PositionID":
		g.Position = value
	}
	return nil
}

func (p *pdnReader) token(tok string) error {
	tok = pdnMoveNumRE.ReplaceAllString(tok, "")
	if tok == "" || tok == "..." {
		return nil
	}
	if res, err := ParseResult(tok); err == nil {
		p.game().Result = res
		p.finish()
		return nil
	}
	if !pdnMoveRE.MatchString(tok) {
		return fmt.Errorf("%w: unexpected %q", ErrSyntax, tok)
	}

	if p.pending {
		return fmt.Errorf("%s follows an unfinished capture chain: %w", tok, engine.ErrIllegalMove)
	}
	g := p.game()
	if p.board == nil {
		b, err := g.Start()
		if err != nil {
			return err
		}
		p.board = b
	}

	capture := strings.Contains(tok, "x")
	if capture && strings.Contains(tok, "-") {
		return fmt.Errorf("%w: mixed separators in %q", ErrSyntax, tok)
	}
	parts := strings.FieldsFunc(tok, func(r rune) bool { return r == '-' || r == 'x' })
	if !capture && len(parts) != 2 {
		return fmt.Errorf("%w: step %q has more than two squares", ErrSyntax, tok)
	}

	squares := make([]engine.Pos, len(parts))
	for i, s := range parts {
		n, _ := strconv.Atoi(s)
		pos, ok := engine.SquarePos(n)
		if !ok {
			return fmt.Errorf("%w: no square %d in %q", ErrSyntax, n, tok)
		}
		squares[i] = pos
	}

	for i := 1; i < len(squares); i++ {
		m := engine.Move{From: squares[i-1], To: squares[i]}
		if m.IsCapture() != capture {
			return fmt.Errorf("%s: %w", tok, engine.ErrIllegalMove)
		}
		res := p.board.ApplyPlayerMove(m.From, m.To)
		if !res.Accepted {
			return fmt.Errorf("%s: %w", tok, engine.ErrIllegalMove)
		}
		g.AddMove(m)
		p.pending = res.CapturePending
	}
	return nil
}
