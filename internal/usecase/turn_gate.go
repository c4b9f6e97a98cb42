package usecase

import "github.com/rocketscienceinc/connectfour/internal/entity"

type State string

const (
	StateAwaitingLocal  State = "awaiting_local"
	StateAwaitingRemote State = "awaiting_remote"
	StateFinished       State = "finished"
	StateLinkLost       State = "link_lost"
)

// TurnGate holds the single flag deciding whether the local side may move.
type TurnGate struct {
	localMayMove bool
}

// NewTurnGate opens the gate for the role that moves first.
func NewTurnGate(role entity.Role) *TurnGate {
	return &TurnGate{localMayMove: role.MovesFirst()}
}

func (that *TurnGate) LocalMayMove() bool {
	return that.localMayMove
}

// Concede closes the gate after a local move was applied and sent.
func (that *TurnGate) Concede() {
	that.localMayMove = false
}

// Reclaim opens the gate after a remote move was applied.
func (that *TurnGate) Reclaim() {
	that.localMayMove = true
}
