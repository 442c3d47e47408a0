package engine

type direction struct{ dr, dc int }

var (
	orthoDirs = []direction{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	diagDirs  = []direction{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	allDirs   = append(append([]direction{}, orthoDirs...), diagDirs...)
)

// LegalMovesForPiece returns every destination reachable by the piece at
// from, per its type's movement rule. Empty if the cell is empty.
func LegalMovesForPiece(state *GameState, from Position) []Position {
	piece := state.Board.At(from)
	if piece == nil {
		return nil
	}
	switch piece.Type {
	case LaneRunner:
		return steppedMoves(state.Board, from, piece.Owner, orthoDirs, 2)
	case Defender:
		return steppedMoves(state.Board, from, piece.Owner, allDirs, 1)
	case Midfielder:
		return slidingMoves(state.Board, from, piece.Owner, diagDirs)
	case Forward:
		return slidingMoves(state.Board, from, piece.Owner, allDirs)
	}
	return nil
}

// steppedMoves walks up to maxSteps cells per direction. A friendly piece
// blocks; an enemy piece is a capture destination and ends the path, so no
// piece moves through a capture.
func steppedMoves(b *Board, from Position, owner Player, dirs []direction, maxSteps int) []Position {
	var out []Position
	for _, d := range dirs {
		for step := 1; step <= maxSteps; step++ {
			to := Position{Row: from.Row + d.dr*step, Col: from.Col + d.dc*step}
			if !to.InBounds() {
				break
			}
			occ := b.At(to)
			if occ == nil {
				out = append(out, to)
				continue
			}
			if occ.Owner != owner {
				out = append(out, to)
			}
			break
		}
	}
	return out
}

// slidingMoves walks each direction until blocked.
func slidingMoves(b *Board, from Position, owner Player, dirs []direction) []Position {
	var out []Position
	for _, d := range dirs {
		for step := 1; ; step++ {
			to := Position{Row: from.Row + d.dr*step, Col: from.Col + d.dc*step}
			if !to.InBounds() {
				break
			}
			occ := b.At(to)
			if occ == nil {
				out = append(out, to)
				continue
			}
			if occ.Owner != owner {
				out = append(out, to)
			}
			break
		}
	}
	return out
}

// LegalMoves returns the union of per-piece moves for player, paired back
// into full Move values. Empty means the player must pass.
func LegalMoves(state *GameState, player Player) []Move {
	var out []Move
	for _, from := range state.Board.Positions(player) {
		for _, to := range LegalMovesForPiece(state, from) {
			out = append(out, Move{Player: player, From: from, To: to})
		}
	}
	return out
}
