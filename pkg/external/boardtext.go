package external

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/ckengine/pkg/engine"
)

// ErrBoardText is returned for malformed board strings.
var ErrBoardText = errors.New("invalid board text")

// Board text is a one-line position for socket clients:
//
//	board:<32 cells>:<side to move>[:<chain square>]
//
// The cells follow square numbers 1-32. '.' is empty, 'r'/'R' a Red
// man/king and 'b'/'B' a Black man/king. The chain square names the piece
// that must continue capturing, if any. The starting position is
//
//	board:bbbbbbbbbbbb........rrrrrrrrrrrr:R

const boardPrefix = "board:"

var cellChars = map[byte]engine.Piece{
	'.': engine.Empty,
	'r': engine.RedMan,
	'R': engine.RedKing,
	'b': engine.BlackMan,
	'B': engine.BlackKing,
}

// ParseBoardText parses a board string.
func ParseBoardText(s string) (*engine.Board, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), boardPrefix)

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("%w: expected 2 or 3 fields, got %d", ErrBoardText, len(parts))
	}
	cells := parts[0]
	if len(cells) != 32 {
		return nil, fmt.Errorf("%w: expected 32 cells, got %d", ErrBoardText, len(cells))
	}

	turn, err := engine.ParseSide(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBoardText, err)
	}
	b := engine.EmptyBoard(turn)
	for i := 0; i < len(cells); i++ {
		piece, ok := cellChars[cells[i]]
		if !ok {
			return nil, fmt.Errorf("%w: square %d holds %q", ErrBoardText, i+1, cells[i])
		}
		pos, _ := engine.SquarePos(i + 1)
		if err := b.Set(pos, piece); err != nil {
			return nil, err
		}
	}

	if len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("%w: chain square %q", ErrBoardText, parts[2])
		}
		pos, ok := engine.SquarePos(n)
		if !ok {
			return nil, fmt.Errorf("%w: no square %d", ErrBoardText, n)
		}
		if err := b.SetChain(pos); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBoardText, err)
		}
	}
	return b, nil
}

// FormatBoardText is the inverse of ParseBoardText.
func FormatBoardText(b *engine.Board) string {
	var sb strings.Builder
	sb.WriteString(boardPrefix)
	for n := 1; n <= 32; n++ {
		pos, _ := engine.SquarePos(n)
		piece := b.At(pos)
		for c, p := range cellChars {
			if p == piece {
				sb.WriteByte(c)
				break
			}
		}
	}
	sb.WriteString(":")
	sb.WriteString(b.Turn().String())
	if chain, ok := b.MultiCapture(); ok {
		fmt.Fprintf(&sb, ":%d", chain.Square())
	}
	return sb.String()
}
