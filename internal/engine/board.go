package engine

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	Rows = 12
	Cols = 8

	// HomeGoalRow is the back row home defends; AwayGoalRow the one away
	// defends. A non-defender landing on the opposing goal row inside the
	// goal columns scores.
	HomeGoalRow = 0
	AwayGoalRow = Rows - 1
)

// GoalCols are the two center columns of either back row.
var GoalCols = [2]int{3, 4}

// Board holds at most one piece per cell.
type Board struct {
	Grid [Rows][Cols]*Piece `json:"grid"`
}

// NewBoard returns a board with both sides in starting formation, twelve
// pieces each: four defenders shielding the goal, lane-runners on the
// flanks, four midfielders inside them and two forwards ahead of the line.
func NewBoard() *Board {
	b := &Board{}
	place := func(owner Player, row, col int, t PieceType, n int) {
		b.Grid[row][col] = &Piece{
			ID:    fmt.Sprintf("%s-%s-%d", owner, t, n),
			Type:  t,
			Owner: owner,
		}
	}

	// home occupies rows 1-3 and attacks toward row 11
	for i, col := range []int{2, 3, 4, 5} {
		place(Home, 1, col, Defender, i+1)
	}
	place(Home, 2, 0, LaneRunner, 1)
	place(Home, 2, 7, LaneRunner, 2)
	for i, col := range []int{1, 2, 5, 6} {
		place(Home, 2, col, Midfielder, i+1)
	}
	place(Home, 3, 3, Forward, 1)
	place(Home, 3, 4, Forward, 2)

	// away mirrored on rows 8-10
	for i, col := range []int{2, 3, 4, 5} {
		place(Away, 10, col, Defender, i+1)
	}
	place(Away, 9, 0, LaneRunner, 1)
	place(Away, 9, 7, LaneRunner, 2)
	for i, col := range []int{1, 2, 5, 6} {
		place(Away, 9, col, Midfielder, i+1)
	}
	place(Away, 8, 3, Forward, 1)
	place(Away, 8, 4, Forward, 2)

	return b
}

// InBounds reports whether p addresses a real cell.
func (p Position) InBounds() bool {
	return p.Row >= 0 && p.Row < Rows && p.Col >= 0 && p.Col < Cols
}

// At returns the piece at p, or nil for an empty cell.
func (b *Board) At(p Position) *Piece {
	if !p.InBounds() {
		return nil
	}
	return b.Grid[p.Row][p.Col]
}

func (b *Board) set(p Position, piece *Piece) {
	b.Grid[p.Row][p.Col] = piece
}

// Clone deep-copies the board.
func (b *Board) Clone() *Board {
	out := &Board{}
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if pc := b.Grid[r][c]; pc != nil {
				cp := *pc
				out.Grid[r][c] = &cp
			}
		}
	}
	return out
}

// PieceCount returns the number of pieces owned by p still on the board.
func (b *Board) PieceCount(p Player) int {
	n := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if pc := b.Grid[r][c]; pc != nil && pc.Owner == p {
				n++
			}
		}
	}
	return n
}

// Positions returns every cell occupied by a piece owned by p.
func (b *Board) Positions(p Player) []Position {
	var out []Position
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if pc := b.Grid[r][c]; pc != nil && pc.Owner == p {
				out = append(out, Position{Row: r, Col: c})
			}
		}
	}
	return out
}

// goalRowOf returns the row p attacks.
func goalRowOf(p Player) int {
	if p == Home {
		return AwayGoalRow
	}
	return HomeGoalRow
}

// IsGoalCell reports whether pos is a scoring cell for the attacking player.
func IsGoalCell(attacker Player, pos Position) bool {
	if pos.Row != goalRowOf(attacker) {
		return false
	}
	return pos.Col == GoalCols[0] || pos.Col == GoalCols[1]
}

// DrawStartingPlayer picks the side that opens the game by fair coin flip.
func DrawStartingPlayer() Player {
	if n, err := rand.Int(rand.Reader, big.NewInt(2)); err == nil && n.Int64() == 0 {
		return Away
	}
	return Home
}

// NewInitialState builds a fresh game. Deterministic given the draw outcome;
// the draw itself is recorded as StartingPlayer and never mutated afterwards.
func NewInitialState(starting Player) *GameState {
	if starting != Home && starting != Away {
		starting = Home
	}
	return &GameState{
		Board:          NewBoard(),
		Turn:           starting,
		Score:          Score{},
		History:        []MoveRecord{},
		StartingPlayer: starting,
	}
}
