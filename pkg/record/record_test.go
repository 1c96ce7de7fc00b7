package record

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/yourusername/ckengine/pkg/engine"
)

func mv(fromRow, fromCol, toRow, toCol int) engine.Move {
	return engine.Move{From: engine.Pos{Row: fromRow, Col: fromCol}, To: engine.Pos{Row: toRow, Col: toCol}}
}

// openingMoves is 22-18 10-15 18-14 9x18 from the standard start.
var openingMoves = []engine.Move{
	mv(5, 2, 4, 3),
	mv(2, 3, 3, 4),
	mv(4, 3, 3, 2),
	mv(2, 1, 4, 3),
}

// chainPosition has Red to move with the double jump 25x18x11.
func chainPosition(t *testing.T) string {
	t.Helper()
	b := engine.EmptyBoard(engine.Red)
	pieces := map[engine.Pos]engine.Piece{
		{Row: 6, Col: 1}: engine.RedMan,
		{Row: 6, Col: 5}: engine.RedMan,
		{Row: 5, Col: 2}: engine.BlackMan,
		{Row: 3, Col: 4}: engine.BlackMan,
		{Row: 5, Col: 6}: engine.BlackMan,
		{Row: 0, Col: 7}: engine.BlackMan,
	}
	for p, piece := range pieces {
		if err := b.Set(p, piece); err != nil {
			t.Fatalf("Set(%v): %v", p, err)
		}
	}
	return b.PositionID()
}

func TestResultTokens(t *testing.T) {
	for _, r := range []Result{ResultUnfinished, ResultRedWins, ResultBlackWins, ResultDraw} {
		got, err := ParseResult(r.String())
		if err != nil || got != r {
			t.Errorf("ParseResult(%q) = %v, %v; want %v", r.String(), got, err, r)
		}
	}
	if _, err := ParseResult("2-0"); err == nil {
		t.Error("ParseResult(\"2-0\") should fail")
	}
	if WinnerResult(engine.Black) != ResultBlackWins || WinnerResult(engine.Red) != ResultRedWins {
		t.Error("WinnerResult maps sides incorrectly")
	}
}

func TestTurnsGroupsChains(t *testing.T) {
	g := NewGame("Red", "Black")
	g.Position = chainPosition(t)
	g.AddMove(mv(6, 1, 4, 3))
	g.AddMove(mv(4, 3, 2, 5))
	g.AddMove(mv(5, 6, 7, 4))

	turns, final, err := g.Turns()
	if err != nil {
		t.Fatalf("Turns error: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[0].Side != engine.Red || turns[0].String() != "25x18x11" {
		t.Errorf("first turn = %s %s, want R 25x18x11", turns[0].Side, turns[0])
	}
	if !turns[0].Capture() {
		t.Error("first turn should be a capture")
	}
	if turns[1].Side != engine.Black || turns[1].String() != "24x31" {
		t.Errorf("second turn = %s %s, want B 24x31", turns[1].Side, turns[1])
	}
	if final.At(engine.Pos{Row: 7, Col: 4}) != engine.BlackKing {
		t.Error("black man should be crowned on 31")
	}
	if final.Turn() != engine.Red {
		t.Errorf("final turn = %s, want R", final.Turn())
	}
}

func TestWrite(t *testing.T) {
	g := NewGame("Alice", "CPU")
	g.Event = "Test"
	g.Moves = openingMoves

	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	want := `[Event "Test"]
[Red "Alice"]
[Black "CPU"]
[Result "*"]
[GameType "21"]

1. 22-18 10-15 2. 18-14 9x18 *
`
	if buf.String() != want {
		t.Errorf("Write output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteBlackToMove(t *testing.T) {
	b := engine.NewBoard()
	b.SetTurn(engine.Black)

	g := NewGame("", "")
	g.Position = b.PositionID()
	g.AddMove(mv(2, 1, 3, 2))
	g.AddMove(mv(5, 2, 4, 3))

	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), "[PositionID \""+g.Position+"\"]") {
		t.Errorf("missing PositionID tag:\n%s", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\n1... 9-14 2. 22-18 *\n") {
		t.Errorf("unexpected movetext:\n%s", buf.String())
	}
}

func TestWriteRejectsIllegalMoves(t *testing.T) {
	g := NewGame("", "")
	g.AddMove(mv(5, 2, 3, 4))

	err := Write(&bytes.Buffer{}, g)
	if !errors.Is(err, engine.ErrIllegalMove) {
		t.Errorf("Write error = %v, want ErrIllegalMove", err)
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	opening := NewGame("Alice", `Bob "the \ blocker"`)
	opening.Event = "Club night"
	opening.Site = "Online"
	opening.Date = "2026.10.15"
	opening.Result = ResultBlackWins
	opening.Moves = openingMoves

	chain := NewGame("A", "B")
	chain.Position = chainPosition(t)
	chain.Moves = []engine.Move{mv(6, 1, 4, 3), mv(4, 3, 2, 5), mv(5, 6, 7, 4)}

	e := engine.NewEngine(engine.EngineOptions{CacheSize: 1 << 12})
	report := e.SelfPlay(engine.SelfPlayOptions{
		Games:        1,
		RandomPlies:  6,
		RedDepth:     2,
		BlackDepth:   2,
		Seed:         3,
		KeepMoveList: true,
	})
	long := FromSelfPlay(report.Records[0], "engine", "engine")

	var buf bytes.Buffer
	if err := Write(&buf, opening, chain, long); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	for i, line := range strings.Split(buf.String(), "\n") {
		if len(line) > lineWidth {
			t.Errorf("line %d is %d characters long", i+1, len(line))
		}
	}

	games, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := []*Game{opening, chain, long}
	if len(games) != len(want) {
		t.Fatalf("parsed %d games, want %d", len(games), len(want))
	}
	for i, g := range games {
		w := want[i]
		if g.Event != w.Event || g.Site != w.Site || g.Date != w.Date ||
			g.Red != w.Red || g.Black != w.Black || g.Position != w.Position || g.Result != w.Result {
			t.Errorf("game %d header = %+v, want %+v", i+1, g, w)
		}
		if len(g.Moves) != len(w.Moves) {
			t.Fatalf("game %d has %d moves, want %d", i+1, len(g.Moves), len(w.Moves))
		}
		for j := range g.Moves {
			if g.Moves[j] != w.Moves[j] {
				t.Errorf("game %d move %d = %s, want %s", i+1, j+1, g.Moves[j], w.Moves[j])
			}
		}
	}
}

func TestParseLooseText(t *testing.T) {
	text := `{ opening analysis
  spans two lines }
1.22-18 10-15 {book} 2. 18-14
9x18 1/2-1/2

[Red "Second"]
1. 21-17 *
`
	games, err := Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("parsed %d games, want 2", len(games))
	}
	if len(games[0].Moves) != 4 || games[0].Result != ResultDraw {
		t.Errorf("first game: %d moves, result %s", len(games[0].Moves), games[0].Result)
	}
	if games[1].Red != "Second" || len(games[1].Moves) != 1 || games[1].Result != ResultUnfinished {
		t.Errorf("second game: %+v", games[1])
	}
}

func TestParseErrors(t *testing.T) {
	chainTag := `[PositionID "` + chainPosition(t) + `"]` + "\n"
	tests := []struct {
		name string
		text string
		want error
	}{
		{"not a diagonal neighbour", "1. 22-19 *", engine.ErrIllegalMove},
		{"man stepping backward", "1. 22-26 *", engine.ErrIllegalMove},
		{"step written as capture", "1. 22x18 *", engine.ErrIllegalMove},
		{"split chain", chainTag + "1. 25x18 18x11 *", engine.ErrIllegalMove},
		{"step must capture", chainTag + "1. 27-23 *", engine.ErrIllegalMove},
		{"three square step", "1. 22-18-14 *", ErrSyntax},
		{"mixed separators", "1. 22-18x11 *", ErrSyntax},
		{"no such square", "1. 22-33 *", ErrSyntax},
		{"junk", "1. e4 *", ErrSyntax},
		{"other game type", `[GameType "20"]`, ErrSyntax},
		{"bad result tag", `[Result "2-0"]`, ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.text))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse error = %v, want %v", err, tt.want)
			}
		})
	}
}
