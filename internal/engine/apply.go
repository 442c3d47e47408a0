package engine

import (
	"fmt"
	"time"
)

// Illegal-move reasons, in the order the checks run.
const (
	ReasonNoPiece     = "no piece at origin"
	ReasonNotOwner    = "piece is not yours"
	ReasonNotYourTurn = "not your turn"
	ReasonUnreachable = "destination not reachable"
)

// IllegalMoveError reports a validation failure; the reason identifies the
// first violated rule.
type IllegalMoveError struct {
	Reason string
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move: %s", e.Reason)
}

// ValidateMove checks, in order: a piece exists at from and belongs to the
// mover, the mover holds the turn, and to is within the piece's legal set.
func ValidateMove(state *GameState, move Move) error {
	piece := state.Board.At(move.From)
	if piece == nil {
		return &IllegalMoveError{Reason: ReasonNoPiece}
	}
	if piece.Owner != move.Player {
		return &IllegalMoveError{Reason: ReasonNotOwner}
	}
	if state.Turn != move.Player {
		return &IllegalMoveError{Reason: ReasonNotYourTurn}
	}
	for _, to := range LegalMovesForPiece(state, move.From) {
		if to == move.To {
			return nil
		}
	}
	return &IllegalMoveError{Reason: ReasonUnreachable}
}

// ApplyMove validates and applies a move, returning the next state. History
// grows by exactly one record per call, goal or not. On a goal the board
// resets to starting formation and the non-scoring side moves first;
// StartingPlayer is a record of the original draw and is never touched.
func ApplyMove(state *GameState, move Move) (MoveOutcome, error) {
	if err := ValidateMove(state, move); err != nil {
		return MoveOutcome{}, err
	}

	next := state.Clone()
	piece := next.Board.At(move.From)

	var capture *Piece
	if victim := next.Board.At(move.To); victim != nil {
		cp := *victim
		capture = &cp
	}
	next.Board.set(move.From, nil)
	next.Board.set(move.To, piece)

	rec := MoveRecord{
		MoveNumber: len(next.History) + 1,
		Player:     move.Player,
		PieceID:    piece.ID,
		From:       move.From,
		To:         move.To,
		Timestamp:  time.Now().UTC(),
	}
	if capture != nil {
		rec.CapturedPieceID = capture.ID
	}

	var goal *GoalEvent
	if piece.Type.CanScore() && IsGoalCell(move.Player, move.To) {
		goal = &GoalEvent{ScoringPlayer: move.Player}
		if move.Player == Home {
			next.Score.Home++
		} else {
			next.Score.Away++
		}
		rec.Goal = goal
		next.Board = NewBoard()
	}
	// after a goal the non-scoring side moves first, which is the same
	// flip a normal move performs
	next.Turn = move.Player.Opponent()

	next.History = append(next.History, rec)
	next.LastMove = &rec

	return MoveOutcome{Next: next, Capture: capture, Goal: goal}, nil
}

// Pass flips the turn without touching the board or appending history.
// Used for timeouts and for a side with no legal moves; it is a defined
// transition, not an error.
func Pass(state *GameState) *GameState {
	next := state.Clone()
	next.Turn = next.Turn.Opponent()
	return next
}
