package engine

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Default material weights.
const (
	ManValue  = 100
	KingValue = 175
)

// MaterialWeights values pieces for the static evaluation.
type MaterialWeights struct {
	Man  float64
	King float64
}

// DefaultWeights returns the standard man/king values.
func DefaultWeights() MaterialWeights {
	return MaterialWeights{Man: ManValue, King: KingValue}
}

// vector lays the weights out against the feature order of features():
// own men, own kings, opposing men, opposing kings.
func (w MaterialWeights) vector() []float64 {
	return []float64{w.Man, w.King, -w.Man, -w.King}
}

// features counts the material on the board from side's point of view.
func features(b *Board, side Side) []float64 {
	f := make([]float64, 4)
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			p := b.cells[row][col]
			if p == Empty {
				continue
			}
			i := 0
			if p.Side() != side {
				i = 2
			}
			if p.IsKing() {
				i++
			}
			f[i]++
		}
	}
	return f
}

// evaluateWeighted is the material score for side under w.
func evaluateWeighted(b *Board, side Side, w []float64) int {
	return int(math.Round(floats.Dot(features(b, side), w)))
}

// Evaluate scores the board for side using the default material weights:
// +100 per own man, +175 per own king, and the negation for the opponent.
// There is no positional or mobility term.
func Evaluate(b *Board, side Side) int {
	return evaluateWeighted(b, side, DefaultWeights().vector())
}
