package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/connectfour/internal/apperror"
	"github.com/rocketscienceinc/connectfour/internal/connectfour"
	"github.com/rocketscienceinc/connectfour/internal/entity"
)

var ErrNoPolicy = errors.New("no automatic policy configured")

type moveSender interface {
	Send(ctx context.Context, move entity.MoveRecord) error
}

type movePolicy interface {
	ChooseColumn(board *entity.Board) (int, error)
}

type moveSource interface {
	Inbox() <-chan entity.MoveRecord
	Err() error
}

type EventKind string

const (
	EventMove     EventKind = "move"
	EventOutcome  EventKind = "outcome"
	EventLinkLost EventKind = "link_lost"
)

// Event is the single notification path: every applied move, the terminal
// outcome and a lost link are all delivered through it.
type Event struct {
	Kind   EventKind
	Move   entity.MoveRecord
	Local  bool
	Result entity.Result
	Winner entity.Color
	Err    error
}

// EventListener is called synchronously while the coordinator holds its lock,
// so it must not call back into the coordinator.
type EventListener func(event Event)

// TurnCoordinator owns the board and the turn gate of one session. Local and
// remote moves both go through its mutex, so at most one mutation is in flight.
type TurnCoordinator struct {
	logger *slog.Logger

	mu        sync.Mutex
	board     *entity.Board
	gate      *TurnGate
	role      entity.Role
	color     entity.Color
	sender    moveSender
	policy    movePolicy
	result    entity.Result
	winner    entity.Color
	linkErr   error
	listeners []EventListener
}

// NewTurnCoordinator builds the coordinator for role. A nil policy means a human
// drives local moves through LocalMove.
func NewTurnCoordinator(logger *slog.Logger, board *entity.Board, role entity.Role, sender moveSender, policy movePolicy) *TurnCoordinator {
	that := &TurnCoordinator{
		logger: logger.With("component", "coordinator", "role", string(role)),

		board:  board,
		gate:   NewTurnGate(role),
		role:   role,
		color:  role.Color(),
		sender: sender,
		policy: policy,
		result: entity.ResultNoWin,
	}

	board.AddListener(that.onBoardMove)

	return that
}

func (that *TurnCoordinator) Subscribe(listener EventListener) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.listeners = append(that.listeners, listener)
}

// Start plays the opening move when the local side moves first automatically.
func (that *TurnCoordinator) Start(ctx context.Context) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.policy == nil || !that.gate.LocalMayMove() {
		return nil
	}

	if _, err := that.playAutomatic(ctx); err != nil {
		return fmt.Errorf("failed to play opening move: %w", err)
	}

	return nil
}

// LocalMove drops a local piece into col and sends it to the peer.
func (that *TurnCoordinator) LocalMove(ctx context.Context, col int) (entity.MoveRecord, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.localMove(ctx, col)
}

// PlayAutomatic lets the policy make one local move.
func (that *TurnCoordinator) PlayAutomatic(ctx context.Context) (entity.MoveRecord, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.playAutomatic(ctx)
}

// ApplyRemote places the peer's move at its exact coordinates and hands the
// turn back. With an automatic policy the next local move is played before it returns.
// A move the protocol does not allow is fatal for the session.
func (that *TurnCoordinator) ApplyRemote(ctx context.Context, move entity.MoveRecord) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "ApplyRemote")

	if err := that.confirmActive(); err != nil {
		return err
	}

	if err := that.validateRemote(move); err != nil {
		that.loseLink(fmt.Errorf("%w: %w", apperror.ErrProtocolViolation, err))

		return that.linkErr
	}

	that.gate.Reclaim()
	log.Debug("remote move applied", "move", move.String())

	if that.evaluate(move.Color) {
		return nil
	}

	if that.policy == nil {
		return nil
	}

	if _, err := that.playAutomatic(ctx); err != nil {
		return fmt.Errorf("failed to play automatic move: %w", err)
	}

	return nil
}

// Run consumes remote moves until the game ends, the link breaks or ctx is done.
func (that *TurnCoordinator) Run(ctx context.Context, source moveSource) error {
	log := that.logger.With("method", "Run")

	inbox := source.Inbox()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case move, ok := <-inbox:
			if !ok {
				if that.State() == StateFinished {
					return nil
				}

				err := source.Err()
				if err == nil {
					err = apperror.ErrLinkLost
				}
				that.ReportLinkLost(err)

				return fmt.Errorf("receive loop stopped: %w", err)
			}

			err := that.ApplyRemote(ctx, move)
			if errors.Is(err, apperror.ErrGameFinished) {
				log.Warn("move received after game end", "move", move.String())
				continue
			}

			if err != nil {
				return fmt.Errorf("failed to apply remote move: %w", err)
			}

			if that.State() == StateFinished {
				return nil
			}
		}
	}
}

// ReportLinkLost marks the session as failed. Board state stays readable.
func (that *TurnCoordinator) ReportLinkLost(err error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.result.IsTerminal() {
		return
	}

	that.loseLink(err)
}

func (that *TurnCoordinator) State() State {
	that.mu.Lock()
	defer that.mu.Unlock()

	switch {
	case that.result.IsTerminal():
		return StateFinished
	case that.linkErr != nil:
		return StateLinkLost
	case that.gate.LocalMayMove():
		return StateAwaitingLocal
	default:
		return StateAwaitingRemote
	}
}

// Result returns the outcome so far and the winner, Empty unless someone won.
func (that *TurnCoordinator) Result() (entity.Result, entity.Color) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.result, that.winner
}

// LinkErr returns why the session lost its link, nil while it is intact.
func (that *TurnCoordinator) LinkErr() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.linkErr
}

func (that *TurnCoordinator) Color() entity.Color {
	return that.color
}

func (that *TurnCoordinator) Role() entity.Role {
	return that.role
}

// Automatic reports whether a policy plays the local side.
func (that *TurnCoordinator) Automatic() bool {
	return that.policy != nil
}

// BoardString renders the board under the coordinator lock.
func (that *TurnCoordinator) BoardString() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.board.String()
}

func (that *TurnCoordinator) localMove(ctx context.Context, col int) (entity.MoveRecord, error) {
	log := that.logger.With("method", "localMove")

	if err := that.confirmActive(); err != nil {
		return entity.MoveRecord{}, err
	}

	if !that.gate.LocalMayMove() {
		return entity.MoveRecord{}, apperror.ErrNotYourTurn
	}

	row, err := that.board.Apply(col, that.color)
	if err != nil {
		return entity.MoveRecord{}, fmt.Errorf("invalid move: %w", err)
	}

	move := entity.MoveRecord{Column: col, Row: row, Color: that.color}
	that.gate.Concede()

	if err = that.sender.Send(ctx, move); err != nil {
		that.loseLink(err)

		return move, fmt.Errorf("failed to send move: %w", that.linkErr)
	}

	log.Debug("local move sent", "move", move.String())

	that.evaluate(that.color)

	return move, nil
}

func (that *TurnCoordinator) playAutomatic(ctx context.Context) (entity.MoveRecord, error) {
	if that.policy == nil {
		return entity.MoveRecord{}, ErrNoPolicy
	}

	if err := that.confirmActive(); err != nil {
		return entity.MoveRecord{}, err
	}

	if !that.gate.LocalMayMove() {
		return entity.MoveRecord{}, apperror.ErrNotYourTurn
	}

	// one attempt per open column is enough, the policy only picks open ones
	attempts := len(that.board.OpenColumns())

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		col, err := that.policy.ChooseColumn(that.board)
		if err != nil {
			return entity.MoveRecord{}, fmt.Errorf("policy failed to choose column: %w", err)
		}

		move, err := that.localMove(ctx, col)
		if errors.Is(err, apperror.ErrColumnFull) {
			lastErr = err
			continue
		}

		return move, err
	}

	if lastErr == nil {
		lastErr = connectfour.ErrNoAvailableMoves
	}

	return entity.MoveRecord{}, lastErr
}

func (that *TurnCoordinator) validateRemote(move entity.MoveRecord) error {
	if that.gate.LocalMayMove() {
		return fmt.Errorf("%w: move %s received", apperror.ErrNotYourTurn, move)
	}

	if move.Color != that.color.Opponent() {
		return fmt.Errorf("%w: peer sent %s", entity.ErrInvalidColor, move.Color.Name())
	}

	if err := that.board.Place(move); err != nil {
		return fmt.Errorf("failed to place move: %w", err)
	}

	return nil
}

func (that *TurnCoordinator) confirmActive() error {
	switch {
	case that.result.IsTerminal():
		return apperror.ErrGameFinished
	case that.linkErr != nil:
		return that.linkErr
	default:
		return nil
	}
}

// evaluate checks whether the last mover ended the game and reports true if so.
func (that *TurnCoordinator) evaluate(color entity.Color) bool {
	result := connectfour.CheckWin(that.board, color)
	if !result.IsTerminal() {
		return false
	}

	that.result = result
	if result == entity.ResultWin {
		that.winner = color
	}

	that.logger.Info("game finished", "result", string(result), "winner", that.winner.Name())
	that.emit(Event{Kind: EventOutcome, Result: result, Winner: that.winner})

	return true
}

func (that *TurnCoordinator) loseLink(err error) {
	if that.linkErr != nil {
		return
	}

	if !errors.Is(err, apperror.ErrLinkLost) {
		err = fmt.Errorf("%w: %w", apperror.ErrLinkLost, err)
	}

	that.linkErr = err
	that.logger.Error("link lost", "error", err)
	that.emit(Event{Kind: EventLinkLost, Err: err})
}

func (that *TurnCoordinator) onBoardMove(move entity.MoveRecord) {
	that.emit(Event{Kind: EventMove, Move: move, Local: move.Color == that.color})
}

func (that *TurnCoordinator) emit(event Event) {
	for _, listener := range that.listeners {
		listener(event)
	}
}
