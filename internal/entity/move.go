package entity

import (
	"errors"
	"fmt"
)

const (
	Rows = 6
	Cols = 7

	// WinLength is the number of consecutive pieces that wins the game.
	WinLength = 4
)

type Color int

const (
	Empty Color = iota
	PlayerA
	PlayerB
)

var ErrInvalidColor = errors.New("invalid color")

// Name returns the color as shown to the user.
func (that Color) Name() string {
	switch that {
	case PlayerA:
		return "Red"
	case PlayerB:
		return "Yellow"
	default:
		return "Empty"
	}
}

// Opponent returns the other player's color.
func (that Color) Opponent() Color {
	switch that {
	case PlayerA:
		return PlayerB
	case PlayerB:
		return PlayerA
	default:
		return Empty
	}
}

func (that Color) IsPlayer() bool {
	return that == PlayerA || that == PlayerB
}

func (that Color) MarshalText() ([]byte, error) {
	switch that {
	case PlayerA:
		return []byte("A"), nil
	case PlayerB:
		return []byte("B"), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidColor, int(that))
	}
}

func (that *Color) UnmarshalText(text []byte) error {
	switch string(text) {
	case "A":
		*that = PlayerA
	case "B":
		*that = PlayerB
	default:
		return fmt.Errorf("%w: %q", ErrInvalidColor, string(text))
	}

	return nil
}

type Role string

const (
	RoleHost Role = "host"
	RolePeer Role = "peer"
)

// Color returns the color a role plays: the host moves first with PlayerA.
func (that Role) Color() Color {
	if that == RoleHost {
		return PlayerA
	}
	return PlayerB
}

// MovesFirst reports whether the role owns the opening move.
func (that Role) MovesFirst() bool {
	return that == RoleHost
}

func (that Role) IsValid() bool {
	return that == RoleHost || that == RolePeer
}

type Result string

const (
	ResultNoWin     Result = "no_win"
	ResultWin       Result = "win"
	ResultBoardFull Result = "board_full"
)

// IsTerminal reports whether the result ends the game.
func (that Result) IsTerminal() bool {
	return that == ResultWin || that == ResultBoardFull
}

// MoveRecord is one placed piece. Row is resolved by the mover's board and sent
// as is, so the peer writes to the identical cell.
type MoveRecord struct {
	Column int   `json:"column"`
	Row    int   `json:"row"`
	Color  Color `json:"color"`
}

// Validate checks that the record addresses a cell on the board with a player color.
func (that MoveRecord) Validate() error {
	if that.Column < 0 || that.Column >= Cols {
		return fmt.Errorf("%w: column %d", ErrOutOfRange, that.Column)
	}

	if that.Row < 0 || that.Row >= Rows {
		return fmt.Errorf("%w: row %d", ErrOutOfRange, that.Row)
	}

	if !that.Color.IsPlayer() {
		return fmt.Errorf("%w: %d", ErrInvalidColor, int(that.Color))
	}

	return nil
}

func (that MoveRecord) String() string {
	return fmt.Sprintf("%s@(%d,%d)", that.Color.Name(), that.Row, that.Column)
}
