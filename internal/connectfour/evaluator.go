package connectfour

import (
	"github.com/rocketscienceinc/connectfour/internal/entity"
)

// direction is a (row, column) step along a line.
type direction struct {
	dRow int
	dCol int
}

var directions = []direction{
	{dRow: 0, dCol: 1},  // horizontal
	{dRow: 1, dCol: 0},  // vertical
	{dRow: 1, dCol: 1},  // diagonal down-right
	{dRow: 1, dCol: -1}, // diagonal down-left
}

// CheckWin reports whether color has four in a row. Without a line it reports
// ResultBoardFull once every column is exhausted and ResultNoWin otherwise.
func CheckWin(board *entity.Board, color entity.Color) entity.Result {
	if hasLine(board, color, directions) {
		return entity.ResultWin
	}

	if board.IsFull() {
		return entity.ResultBoardFull
	}

	return entity.ResultNoWin
}

// hasLine checks every cell as a line start in each direction. Starts whose
// last cell falls off the board are skipped; the first line found wins.
func hasLine(board *entity.Board, color entity.Color, dirs []direction) bool {
	if !color.IsPlayer() {
		return false
	}

	for _, dir := range dirs {
		for row := 0; row < entity.Rows; row++ {
			for col := 0; col < entity.Cols; col++ {
				if !inBounds(row+(entity.WinLength-1)*dir.dRow, col+(entity.WinLength-1)*dir.dCol) {
					continue
				}

				if isLine(board, color, row, col, dir) {
					return true
				}
			}
		}
	}

	return false
}

func isLine(board *entity.Board, color entity.Color, row, col int, dir direction) bool {
	for step := 0; step < entity.WinLength; step++ {
		if board.Cell(row+step*dir.dRow, col+step*dir.dCol) != color {
			return false
		}
	}
	return true
}

func inBounds(row, col int) bool {
	return row >= 0 && row < entity.Rows && col >= 0 && col < entity.Cols
}
