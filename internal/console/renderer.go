package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/rocketscienceinc/connectfour/internal/entity"
	"github.com/rocketscienceinc/connectfour/internal/usecase"
)

// Renderer prints the game for a terminal player. Its Render method is meant to
// be subscribed to a TurnCoordinator.
type Renderer struct {
	mu sync.Mutex

	out         io.Writer
	board       *entity.Board
	local       entity.Color
	interactive bool
}

// NewRenderer draws board to out. When interactive, the player is prompted
// whenever the turn comes back to local.
func NewRenderer(out io.Writer, board *entity.Board, local entity.Color, interactive bool) *Renderer {
	return &Renderer{
		out:         out,
		board:       board,
		local:       local,
		interactive: interactive,
	}
}

// Render runs under the coordinator lock, so reading the board here is safe.
func (that *Renderer) Render(event usecase.Event) {
	switch event.Kind {
	case usecase.EventMove:
		who := "Opponent"
		if event.Local {
			who = "You"
		}

		that.Printf("%s (%s) played column %d\n%s", who, event.Move.Color.Name(), event.Move.Column+1, that.board.String())

		if !event.Local && that.interactive {
			that.Prompt()
		}
	case usecase.EventOutcome:
		that.Printf("%s\n", Outcome(event.Result, event.Winner))
	case usecase.EventLinkLost:
		that.Printf("Connection to the other player lost: %v\n", event.Err)
	}
}

// Prompt asks the local player for a column.
func (that *Renderer) Prompt() {
	that.Printf("Your turn (%s), choose a column 1-%d: ", that.local.Name(), entity.Cols)
}

func (that *Renderer) Printf(format string, args ...any) {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, _ = fmt.Fprintf(that.out, format, args...)
}

// Outcome is the line shown when the game ends.
func Outcome(result entity.Result, winner entity.Color) string {
	switch result {
	case entity.ResultWin:
		return winner.Name() + " Won!"
	case entity.ResultBoardFull:
		return "Board Full"
	default:
		return "No winner yet"
	}
}
