package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/connectfour/internal/apperror"
)

var (
	ErrOutOfRange    = errors.New("cell out of range")
	ErrCellOccupied  = errors.New("cell is already occupied")
	ErrFloatingPiece = errors.New("cell has no piece below it")
)

// MoveListener receives every move written to the board.
type MoveListener func(move MoveRecord)

// Board is the 6x7 grid. Row 0 is the top row; pieces fill each column from
// the bottom, tracked by a per column cursor that is -1 once the column is full.
// Board is not safe for concurrent use.
type Board struct {
	cells       [Rows][Cols]Color
	nextFreeRow [Cols]int
	listeners   []MoveListener
}

func NewBoard() *Board {
	board := &Board{}
	for col := range board.nextFreeRow {
		board.nextFreeRow[col] = Rows - 1
	}

	return board
}

// AddListener registers a listener. Listeners are called synchronously in
// registration order before Apply or Place returns.
func (that *Board) AddListener(listener MoveListener) {
	that.listeners = append(that.listeners, listener)
}

// Apply drops a piece into col and returns the row it landed on.
func (that *Board) Apply(col int, color Color) (int, error) {
	if col < 0 || col >= Cols {
		return 0, fmt.Errorf("%w: %d", apperror.ErrInvalidColumn, col)
	}

	if !color.IsPlayer() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidColor, int(color))
	}

	row := that.nextFreeRow[col]
	if row < 0 {
		return 0, fmt.Errorf("%w: %d", apperror.ErrColumnFull, col)
	}

	that.write(MoveRecord{Column: col, Row: row, Color: color})

	return row, nil
}

// Place writes a move at its exact coordinates, as received from the peer.
// The cell must be empty and rest on a piece or on the bottom row.
func (that *Board) Place(move MoveRecord) error {
	if err := move.Validate(); err != nil {
		return err
	}

	if that.cells[move.Row][move.Column] != Empty {
		return fmt.Errorf("%w: %s", ErrCellOccupied, move)
	}

	if move.Row < Rows-1 && that.cells[move.Row+1][move.Column] == Empty {
		return fmt.Errorf("%w: %s", ErrFloatingPiece, move)
	}

	that.write(move)

	return nil
}

func (that *Board) write(move MoveRecord) {
	that.cells[move.Row][move.Column] = move.Color
	that.nextFreeRow[move.Column] = move.Row - 1

	for _, listener := range that.listeners {
		listener(move)
	}
}

// Cell returns the color at (row, col). Out of range coordinates read as Empty.
func (that *Board) Cell(row, col int) Color {
	if row < 0 || row >= Rows || col < 0 || col >= Cols {
		return Empty
	}
	return that.cells[row][col]
}

// NextFreeRow returns the row the next piece in col lands on, or -1.
func (that *Board) NextFreeRow(col int) int {
	if col < 0 || col >= Cols {
		return -1
	}
	return that.nextFreeRow[col]
}

func (that *Board) IsFull() bool {
	for _, row := range that.nextFreeRow {
		if row >= 0 {
			return false
		}
	}
	return true
}

// OpenColumns lists the columns that can still take a piece, in ascending order.
func (that *Board) OpenColumns() []int {
	open := make([]int, 0, Cols)
	for col, row := range that.nextFreeRow {
		if row >= 0 {
			open = append(open, col)
		}
	}
	return open
}

func (that *Board) String() string {
	var sb strings.Builder

	for row := 0; row < Rows; row++ {
		sb.WriteByte('|')
		for col := 0; col < Cols; col++ {
			switch that.cells[row][col] {
			case PlayerA:
				sb.WriteByte('R')
			case PlayerB:
				sb.WriteByte('Y')
			default:
				sb.WriteByte('.')
			}
			sb.WriteByte('|')
		}
		sb.WriteByte('\n')
	}

	for col := 1; col <= Cols; col++ {
		fmt.Fprintf(&sb, " %d", col)
	}
	sb.WriteByte('\n')

	return sb.String()
}
