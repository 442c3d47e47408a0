package bot

import (
	"math/rand"

	"github.com/hpark-dev/footchess-server/internal/engine"
)

// captureValue weighs a capture by how dangerous the victim is.
func captureValue(t engine.PieceType) float64 {
	switch t {
	case engine.Forward:
		return 5
	case engine.Midfielder:
		return 4
	case engine.LaneRunner:
		return 3
	default:
		return 2
	}
}

// ScoreMove rates a candidate: an immediate goal dominates everything, then
// captures, forward progress toward the opposing goal row, and proximity to
// the goal columns.
func ScoreMove(state *engine.GameState, mv engine.Move, p Preset) float64 {
	score := 0.0
	piece := state.Board.At(mv.From)
	if piece == nil {
		return score
	}

	if piece.Type.CanScore() && engine.IsGoalCell(mv.Player, mv.To) {
		score += p.GoalWeight
	}
	if victim := state.Board.At(mv.To); victim != nil && victim.Owner != mv.Player {
		score += captureValue(victim.Type) * p.CaptureWeight
	}

	advance := mv.To.Row - mv.From.Row
	if mv.Player == engine.Away {
		advance = -advance
	}
	score += float64(advance) * p.ProgressWeight

	colDist := mv.To.Col - engine.GoalCols[0]
	if d := mv.To.Col - engine.GoalCols[1]; abs(d) < abs(colDist) {
		colDist = d
	}
	score -= float64(abs(colDist)) * p.ColumnWeight

	return score
}

// ChooseMove picks the best-scoring candidate, with preset noise applied so
// lower difficulties do not play deterministically.
func ChooseMove(state *engine.GameState, legal []engine.Move, p Preset, rng *rand.Rand) engine.Move {
	best := legal[0]
	bestScore := -1e18
	for _, mv := range legal {
		s := ScoreMove(state, mv, p)
		if p.Noise > 0 && rng != nil {
			s += rng.Float64() * p.Noise
		}
		if s > bestScore {
			bestScore = s
			best = mv
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
