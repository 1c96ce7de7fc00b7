// Package positionid implements position encoding/decoding for checkers boards.
//
// A position ID is an 18-character base64 string that identifies the grid,
// the side to move and any capture chain in progress. Only the 32 dark
// squares are encoded, 3 bits each, followed by one state byte.
package positionid

import (
	"errors"
	"fmt"
)

const (
	// PositionIDLength is the length of a position ID string
	PositionIDLength = 18
	// Squares is the number of playable (dark) squares
	Squares = 32

	// Cell values, matching engine.Piece
	CellEmpty     = 0
	CellRedMan    = 1
	CellRedKing   = 2
	CellBlackMan  = 3
	CellBlackKing = 4

	keyBytes = 13
)

// Base64 alphabet used for position ID encoding
const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

var (
	ErrLength    = errors.New("position ID must be 18 characters")
	ErrCharacter = errors.New("invalid character in position ID")
	ErrCell      = errors.New("invalid cell value")
	ErrChain     = errors.New("invalid chain square")
)

// Board is the grid as raw cell values, [row][col].
type Board [8][8]uint8

// State is a board plus the turn information needed to resume play.
type State struct {
	Board    Board
	Turn     uint8 // 0 = Red, 1 = Black
	Chaining bool  // side to move must continue a capture
	Chain    uint8 // square index 0-31 of the chaining piece
}

// PositionKey is a compact binary representation of a position.
// 4 bits per dark square, 8 squares per word, plus a state word.
type PositionKey struct {
	Data [5]uint32
}

// SquareCoords returns the (row, col) of dark square i (0-31).
func SquareCoords(i int) (row, col int) {
	row = i / 4
	col = 2 * (i % 4)
	if row%2 == 0 {
		col++
	}
	return row, col
}

// SquareIndex is the inverse of SquareCoords. Returns -1 for light or
// off-board cells.
func SquareIndex(row, col int) int {
	if row < 0 || row > 7 || col < 0 || col > 7 || (row+col)%2 == 0 {
		return -1
	}
	return row*4 + col/2
}

func stateByte(s State) uint8 {
	b := s.Turn & 0x01
	if s.Chaining {
		b |= 0x02
		b |= (s.Chain & 0x1F) << 2
	}
	return b
}

// MakePositionKey creates a compact key from a position.
func MakePositionKey(s State) PositionKey {
	var key PositionKey
	for i := 0; i < Squares; i++ {
		row, col := SquareCoords(i)
		key.Data[i/8] |= uint32(s.Board[row][col]&0x0f) << (4 * uint(i%8))
	}
	key.Data[4] = uint32(stateByte(s))
	return key
}

// StateFromKey reconstructs a position from its key.
func StateFromKey(key PositionKey) State {
	var s State
	for i := 0; i < Squares; i++ {
		row, col := SquareCoords(i)
		s.Board[row][col] = uint8((key.Data[i/8] >> (4 * uint(i%8))) & 0x0f)
	}
	st := uint8(key.Data[4])
	s.Turn = st & 0x01
	s.Chaining = st&0x02 != 0
	if s.Chaining {
		s.Chain = (st >> 2) & 0x1F
	}
	return s
}

// packBits packs the 32 cells at 3 bits each, then the state byte.
func packBits(s State) [keyBytes]uint8 {
	var out [keyBytes]uint8
	bitPos := 0
	for i := 0; i < Squares; i++ {
		row, col := SquareCoords(i)
		v := s.Board[row][col] & 0x07
		for k := 0; k < 3; k++ {
			if v&(1<<uint(k)) != 0 {
				out[bitPos/8] |= 1 << uint(bitPos%8)
			}
			bitPos++
		}
	}
	out[keyBytes-1] = stateByte(s)
	return out
}

// PositionID generates a base64 position ID string.
func PositionID(s State) string {
	raw := packBits(s)
	var result [PositionIDLength]byte

	// 13 bytes = 4 full groups of 3 plus one trailing byte
	for i := 0; i < 4; i++ {
		puch := raw[i*3 : i*3+3]
		result[i*4] = base64Chars[puch[0]>>2]
		result[i*4+1] = base64Chars[((puch[0]&0x03)<<4)|(puch[1]>>4)]
		result[i*4+2] = base64Chars[((puch[1]&0x0F)<<2)|(puch[2]>>6)]
		result[i*4+3] = base64Chars[puch[2]&0x3F]
	}
	last := raw[12]
	result[16] = base64Chars[last>>2]
	result[17] = base64Chars[(last&0x03)<<4]

	return string(result[:])
}

// base64Decode decodes a base64 character to its value
func base64Decode(ch byte) (uint8, bool) {
	switch {
	case ch >= 'A' && ch <= 'Z':
		return ch - 'A', true
	case ch >= 'a' && ch <= 'z':
		return ch - 'a' + 26, true
	case ch >= '0' && ch <= '9':
		return ch - '0' + 52, true
	case ch == '-':
		return 62, true
	case ch == '_':
		return 63, true
	}
	return 0, false
}

// FromPositionID decodes a position ID string and validates its content.
func FromPositionID(posID string) (State, error) {
	if len(posID) != PositionIDLength {
		return State{}, ErrLength
	}

	var ach [PositionIDLength]uint8
	for i := 0; i < PositionIDLength; i++ {
		v, ok := base64Decode(posID[i])
		if !ok {
			return State{}, fmt.Errorf("%w: %q at %d", ErrCharacter, posID[i], i)
		}
		ach[i] = v
	}

	var raw [keyBytes]uint8
	for i := 0; i < 4; i++ {
		raw[i*3] = (ach[i*4] << 2) | (ach[i*4+1] >> 4)
		raw[i*3+1] = (ach[i*4+1] << 4) | (ach[i*4+2] >> 2)
		raw[i*3+2] = (ach[i*4+2] << 6) | ach[i*4+3]
	}
	raw[12] = (ach[16] << 2) | (ach[17] >> 4)

	var s State
	bitPos := 0
	for i := 0; i < Squares; i++ {
		var v uint8
		for k := 0; k < 3; k++ {
			if raw[bitPos/8]&(1<<uint(bitPos%8)) != 0 {
				v |= 1 << uint(k)
			}
			bitPos++
		}
		if v > CellBlackKing {
			return State{}, fmt.Errorf("%w: %d on square %d", ErrCell, v, i+1)
		}
		row, col := SquareCoords(i)
		s.Board[row][col] = v
	}

	st := raw[12]
	s.Turn = st & 0x01
	s.Chaining = st&0x02 != 0
	if s.Chaining {
		s.Chain = (st >> 2) & 0x1F
		row, col := SquareCoords(int(s.Chain))
		if s.Board[row][col] == CellEmpty {
			return State{}, fmt.Errorf("%w: square %d is empty", ErrChain, s.Chain+1)
		}
	}
	return s, nil
}

// EqualKeys returns true if two position keys are identical
func EqualKeys(k1, k2 PositionKey) bool {
	return k1.Data == k2.Data
}
