package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/connectfour/internal/apperror"
	"github.com/rocketscienceinc/connectfour/internal/connectfour"
	"github.com/rocketscienceinc/connectfour/internal/entity"
	mockedUseCase "github.com/rocketscienceinc/connectfour/mocks/usecase"
	"github.com/rocketscienceinc/connectfour/testing/suite"
)

var errBrokenPipe = errors.New("broken pipe")

const (
	maxWait = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// fakeSource feeds remote moves to Run the way the connection's receive loop does.
type fakeSource struct {
	inbox chan entity.MoveRecord
	err   error
}

func newFakeSource() *fakeSource {
	return &fakeSource{inbox: make(chan entity.MoveRecord, 8)}
}

func (that *fakeSource) Inbox() <-chan entity.MoveRecord {
	return that.inbox
}

func (that *fakeSource) Err() error {
	return that.err
}

type recorder struct {
	events []Event
}

func (that *recorder) listen(event Event) {
	that.events = append(that.events, event)
}

func (that *recorder) ofKind(kind EventKind) []Event {
	var found []Event
	for _, event := range that.events {
		if event.Kind == kind {
			found = append(found, event)
		}
	}
	return found
}

func fillColumnsExcept(t *testing.T, board *entity.Board, open int) {
	t.Helper()

	for col := 0; col < entity.Cols; col++ {
		if col == open {
			continue
		}
		// alternate colors by pairs so no column holds four of one color
		for i := 0; i < entity.Rows; i++ {
			color := entity.PlayerA
			if (i/2+col)%2 == 1 {
				color = entity.PlayerB
			}
			_, err := board.Apply(col, color)
			require.NoError(t, err)
		}
	}
}

func TestTurnCoordinator_InitialState(t *testing.T) {
	_, st := suite.New(t)

	t.Run("Host may move first", func(t *testing.T) {
		coordinator := NewTurnCoordinator(st.Logger, entity.NewBoard(), entity.RoleHost, mockedUseCase.NewMockmoveSender(t), nil)

		assert.Equal(t, StateAwaitingLocal, coordinator.State())
		assert.Equal(t, entity.PlayerA, coordinator.Color())
	})

	t.Run("Peer waits for the host", func(t *testing.T) {
		coordinator := NewTurnCoordinator(st.Logger, entity.NewBoard(), entity.RolePeer, mockedUseCase.NewMockmoveSender(t), nil)

		assert.Equal(t, StateAwaitingRemote, coordinator.State())
		assert.Equal(t, entity.PlayerB, coordinator.Color())
	})
}

func TestTurnCoordinator_LocalMove(t *testing.T) {
	t.Run("Turn passes back and forth", func(t *testing.T) {
		ctx, st := suite.New(t)

		// Given: a host coordinator whose sender accepts every move
		mockSender := mockedUseCase.NewMockmoveSender(t)
		coordinator := NewTurnCoordinator(st.Logger, entity.NewBoard(), entity.RoleHost, mockSender, nil)

		mockSender.EXPECT().
			Send(mock.Anything, entity.MoveRecord{Column: 2, Row: 5, Color: entity.PlayerA}).
			Return(nil).
			Once()

		// When: the host moves
		move, err := coordinator.LocalMove(ctx, 2)

		// Then: the move is sent with its resolved row and the turn passes
		require.NoError(t, err)
		assert.Equal(t, entity.MoveRecord{Column: 2, Row: 5, Color: entity.PlayerA}, move)
		assert.Equal(t, StateAwaitingRemote, coordinator.State())

		// When: the host tries to move again
		_, err = coordinator.LocalMove(ctx, 3)

		// Then: it is rejected until the peer moves
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, StateAwaitingRemote, coordinator.State())

		// When: the peer's move arrives
		err = coordinator.ApplyRemote(ctx, entity.MoveRecord{Column: 2, Row: 4, Color: entity.PlayerB})

		// Then: the host may move again
		require.NoError(t, err)
		assert.Equal(t, StateAwaitingLocal, coordinator.State())

		mockSender.EXPECT().
			Send(mock.Anything, entity.MoveRecord{Column: 3, Row: 5, Color: entity.PlayerA}).
			Return(nil).
			Once()

		_, err = coordinator.LocalMove(ctx, 3)
		require.NoError(t, err)
	})

	t.Run("Error on full column keeps the turn", func(t *testing.T) {
		ctx, st := suite.New(t)

		// Given: a board whose column 0 is full
		board := entity.NewBoard()
		for i := 0; i < entity.Rows; i++ {
			_, err := board.Apply(0, entity.PlayerB)
			require.NoError(t, err)
		}
		mockSender := mockedUseCase.NewMockmoveSender(t)
		coordinator := NewTurnCoordinator(st.Logger, board, entity.RoleHost, mockSender, nil)

		// When: the host drops into column 0
		_, err := coordinator.LocalMove(ctx, 0)

		// Then: ErrColumnFull is returned, nothing is sent and it is still the host's turn
		require.ErrorIs(t, err, apperror.ErrColumnFull)
		assert.Equal(t, StateAwaitingLocal, coordinator.State())
		mockSender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("Error on invalid column keeps the turn", func(t *testing.T) {
		ctx, st := suite.New(t)

		coordinator := NewTurnCoordinator(st.Logger, entity.NewBoard(), entity.RoleHost, mockedUseCase.NewMockmoveSender(t), nil)

		_, err := coordinator.LocalMove(ctx, 11)

		require.ErrorIs(t, err, apperror.ErrInvalidColumn)
		assert.Equal(t, StateAwaitingLocal, coordinator.State())
	})

	t.Run("Peer cannot open the game", func(t *testing.T) {
		ctx, st := suite.New(t)

		coordinator := NewTurnCoordinator(st.Logger, entity.NewBoard(), entity.RolePeer, mockedUseCase.NewMockmoveSender(t), nil)

		_, err := coordinator.LocalMove(ctx, 0)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Send failure loses the link", func(t *testing.T) {
		ctx, st := suite.New(t)

		// Given: a sender whose write fails
		mockSender := mockedUseCase.NewMockmoveSender(t)
		board := entity.NewBoard()
		coordinator := NewTurnCoordinator(st.Logger, board, entity.RoleHost, mockSender, nil)
		events := &recorder{}
		coordinator.Subscribe(events.listen)

		mockSender.EXPECT().
			Send(mock.Anything, mock.AnythingOfType("entity.MoveRecord")).
			Return(errBrokenPipe).
			Once()

		// When: the host moves
		_, err := coordinator.LocalMove(ctx, 6)

		// Then: ErrLinkLost is reported and surfaced as an event
		require.ErrorIs(t, err, apperror.ErrLinkLost)
		require.ErrorIs(t, err, errBrokenPipe)
		assert.Equal(t, StateLinkLost, coordinator.State())
		require.Len(t, events.ofKind(EventLinkLost), 1)

		// Then: the board still holds the applied move
		assert.Equal(t, entity.PlayerA, board.Cell(entity.Rows-1, 6))

		// Then: further moves are refused
		_, err = coordinator.LocalMove(ctx, 5)
		require.ErrorIs(t, err, apperror.ErrLinkLost)
	})
}

func TestTurnCoordinator_HostWinsInColumnThree(t *testing.T) {
	ctx, st := suite.New(t)

	// Given: a host whose peer always answers in another column
	mockSender := mockedUseCase.NewMockmoveSender(t)
	coordinator := NewTurnCoordinator(st.Logger, entity.NewBoard(), entity.RoleHost, mockSender, nil)
	events := &recorder{}
	coordinator.Subscribe(events.listen)

	mockSender.EXPECT().
		Send(mock.Anything, mock.AnythingOfType("entity.MoveRecord")).
		Return(nil).
		Times(4)

	for i := 0; i < 4; i++ {
		// When: the host drops into column 3
		move, err := coordinator.LocalMove(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, entity.Rows-1-i, move.Row)

		result, winner := coordinator.Result()
		if i < 3 {
			// Then: no win before the fourth piece
			assert.Equal(t, entity.ResultNoWin, result)
			assert.Empty(t, events.ofKind(EventOutcome))

			err = coordinator.ApplyRemote(ctx, entity.MoveRecord{Column: i, Row: entity.Rows - 1, Color: entity.PlayerB})
			require.NoError(t, err)

			continue
		}

		// Then: the fourth piece wins
		assert.Equal(t, entity.ResultWin, result)
		assert.Equal(t, entity.PlayerA, winner)
	}

	// Then: exactly one outcome was reported and the game is frozen
	outcomes := events.ofKind(EventOutcome)
	require.Len(t, outcomes, 1)
	assert.Equal(t, entity.ResultWin, outcomes[0].Result)
	assert.Equal(t, entity.PlayerA, outcomes[0].Winner)
	assert.Len(t, events.ofKind(EventMove), 7)
	assert.Equal(t, StateFinished, coordinator.State())

	_, err := coordinator.LocalMove(ctx, 0)
	require.ErrorIs(t, err, apperror.ErrGameFinished)

	err = coordinator.ApplyRemote(ctx, entity.MoveRecord{Column: 4, Row: entity.Rows - 1, Color: entity.PlayerB})
	require.ErrorIs(t, err, apperror.ErrGameFinished)
}

func TestTurnCoordinator_ApplyRemote(t *testing.T) {
	t.Run("Places at the received row", func(t *testing.T) {
		ctx, st := suite.New(t)

		// Given: a peer coordinator
		board := entity.NewBoard()
		coordinator := NewTurnCoordinator(st.Logger, board, entity.RolePeer, mockedUseCase.NewMockmoveSender(t), nil)
		events := &recorder{}
		coordinator.Subscribe(events.listen)

		// When: the host's opening move arrives
		err := coordinator.ApplyRemote(ctx, entity.MoveRecord{Column: 5, Row: 5, Color: entity.PlayerA})

		// Then: it is placed and reported as a remote move
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerA, board.Cell(5, 5))
		assert.Equal(t, StateAwaitingLocal, coordinator.State())

		moves := events.ofKind(EventMove)
		require.Len(t, moves, 1)
		assert.False(t, moves[0].Local)
	})

	t.Run("Error on move out of turn", func(t *testing.T) {
		ctx, st := suite.New(t)

		// Given: a host that has not moved yet
		coordinator := NewTurnCoordinator(st.Logger, entity.NewBoard(), entity.RoleHost, mockedUseCase.NewMockmoveSender(t), nil)
		events := &recorder{}
		coordinator.Subscribe(events.listen)

		// When: the peer sends a move anyway
		err := coordinator.ApplyRemote(ctx, entity.MoveRecord{Column: 0, Row: 5, Color: entity.PlayerB})

		// Then: the session is lost with a protocol violation
		require.ErrorIs(t, err, apperror.ErrProtocolViolation)
		require.ErrorIs(t, err, apperror.ErrLinkLost)
		assert.Equal(t, StateLinkLost, coordinator.State())
		assert.Len(t, events.ofKind(EventLinkLost), 1)
		assert.Empty(t, events.ofKind(EventMove))
	})

	t.Run("Error on move in the local color", func(t *testing.T) {
		ctx, st := suite.New(t)

		coordinator := NewTurnCoordinator(st.Logger, entity.NewBoard(), entity.RolePeer, mockedUseCase.NewMockmoveSender(t), nil)

		err := coordinator.ApplyRemote(ctx, entity.MoveRecord{Column: 0, Row: 5, Color: entity.PlayerB})

		require.ErrorIs(t, err, apperror.ErrProtocolViolation)
		require.ErrorIs(t, err, entity.ErrInvalidColor)
	})

	t.Run("Error on floating move", func(t *testing.T) {
		ctx, st := suite.New(t)

		board := entity.NewBoard()
		coordinator := NewTurnCoordinator(st.Logger, board, entity.RolePeer, mockedUseCase.NewMockmoveSender(t), nil)

		err := coordinator.ApplyRemote(ctx, entity.MoveRecord{Column: 0, Row: 2, Color: entity.PlayerA})

		require.ErrorIs(t, err, entity.ErrFloatingPiece)
		assert.Equal(t, entity.Empty, board.Cell(2, 0))
		assert.Equal(t, StateLinkLost, coordinator.State())
	})
}

func TestTurnCoordinator_Automatic(t *testing.T) {
	t.Run("Host opens automatically", func(t *testing.T) {
		ctx, st := suite.New(t)

		mockSender := mockedUseCase.NewMockmoveSender(t)
		coordinator := NewTurnCoordinator(st.Logger, entity.NewBoard(), entity.RoleHost, mockSender, connectfour.NewRandomPolicy(3))

		mockSender.EXPECT().
			Send(mock.Anything, mock.AnythingOfType("entity.MoveRecord")).
			Return(nil).
			Once()

		require.NoError(t, coordinator.Start(ctx))
		assert.Equal(t, StateAwaitingRemote, coordinator.State())
	})

	t.Run("Peer does not open", func(t *testing.T) {
		ctx, st := suite.New(t)

		mockSender := mockedUseCase.NewMockmoveSender(t)
		coordinator := NewTurnCoordinator(st.Logger, entity.NewBoard(), entity.RolePeer, mockSender, connectfour.NewRandomPolicy(3))

		require.NoError(t, coordinator.Start(ctx))
		assert.Equal(t, StateAwaitingRemote, coordinator.State())
		mockSender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("Remote move chains the next automatic move", func(t *testing.T) {
		ctx, st := suite.New(t)

		// Given: an automatic peer
		mockSender := mockedUseCase.NewMockmoveSender(t)
		coordinator := NewTurnCoordinator(st.Logger, entity.NewBoard(), entity.RolePeer, mockSender, connectfour.NewRandomPolicy(11))

		var sent []entity.MoveRecord
		mockSender.EXPECT().
			Send(mock.Anything, mock.AnythingOfType("entity.MoveRecord")).
			Run(func(_ context.Context, move entity.MoveRecord) {
				sent = append(sent, move)
			}).
			Return(nil).
			Once()

		// When: the host's move arrives
		err := coordinator.ApplyRemote(ctx, entity.MoveRecord{Column: 3, Row: 5, Color: entity.PlayerA})

		// Then: the peer answered before ApplyRemote returned
		require.NoError(t, err)
		require.Len(t, sent, 1)
		assert.Equal(t, entity.PlayerB, sent[0].Color)
		assert.Equal(t, StateAwaitingRemote, coordinator.State())
	})

	t.Run("Only the open column is targeted", func(t *testing.T) {
		ctx, st := suite.New(t)

		// Given: a board with only column 6 open
		board := entity.NewBoard()
		fillColumnsExcept(t, board, 6)
		mockSender := mockedUseCase.NewMockmoveSender(t)
		coordinator := NewTurnCoordinator(st.Logger, board, entity.RoleHost, mockSender, connectfour.NewRandomPolicy(5))

		mockSender.EXPECT().
			Send(mock.Anything, entity.MoveRecord{Column: 6, Row: 5, Color: entity.PlayerA}).
			Return(nil).
			Once()

		// When: the host plays automatically
		move, err := coordinator.PlayAutomatic(ctx)

		// Then: the move went to column 6
		require.NoError(t, err)
		assert.Equal(t, 6, move.Column)
	})

	t.Run("Error without a policy", func(t *testing.T) {
		ctx, st := suite.New(t)

		coordinator := NewTurnCoordinator(st.Logger, entity.NewBoard(), entity.RoleHost, mockedUseCase.NewMockmoveSender(t), nil)

		_, err := coordinator.PlayAutomatic(ctx)

		require.ErrorIs(t, err, ErrNoPolicy)
	})
}

func TestTurnCoordinator_Run(t *testing.T) {
	t.Run("Applies queued moves in order until the game ends", func(t *testing.T) {
		ctx, st := suite.New(t)

		// Given: a human peer fed host moves in column 1 one at a time
		mockSender := mockedUseCase.NewMockmoveSender(t)
		board := entity.NewBoard()
		coordinator := NewTurnCoordinator(st.Logger, board, entity.RolePeer, mockSender, nil)
		source := newFakeSource()

		mockSender.EXPECT().
			Send(mock.Anything, mock.AnythingOfType("entity.MoveRecord")).
			Return(nil).
			Times(3)

		done := make(chan error, 1)
		go func() {
			done <- coordinator.Run(ctx, source)
		}()

		for i := 0; i < 4; i++ {
			// When: the host's next move arrives
			source.inbox <- entity.MoveRecord{Column: 1, Row: entity.Rows - 1 - i, Color: entity.PlayerA}
			if i == 3 {
				break
			}

			// Then: the peer gets the turn and answers in column 4
			require.Eventually(t, func() bool {
				return coordinator.State() == StateAwaitingLocal
			}, maxWait, tick)

			_, err := coordinator.LocalMove(ctx, 4)
			require.NoError(t, err)
		}

		// Then: Run returns once the host's fourth piece wins
		require.NoError(t, <-done)

		result, winner := coordinator.Result()
		assert.Equal(t, entity.ResultWin, result)
		assert.Equal(t, entity.PlayerA, winner)
		for i := 0; i < 4; i++ {
			assert.Equal(t, entity.PlayerA, board.Cell(entity.Rows-1-i, 1))
		}
	})

	t.Run("Closed inbox reports link lost", func(t *testing.T) {
		ctx, st := suite.New(t)

		// Given: a source whose receive loop stopped on a decode failure
		coordinator := NewTurnCoordinator(st.Logger, entity.NewBoard(), entity.RolePeer, mockedUseCase.NewMockmoveSender(t), nil)
		events := &recorder{}
		coordinator.Subscribe(events.listen)

		source := newFakeSource()
		source.err = errBrokenPipe
		close(source.inbox)

		// When: Run drains it
		err := coordinator.Run(ctx, source)

		// Then: the link loss is returned and notified
		require.ErrorIs(t, err, errBrokenPipe)
		assert.Equal(t, StateLinkLost, coordinator.State())

		lost := events.ofKind(EventLinkLost)
		require.Len(t, lost, 1)
		require.ErrorIs(t, lost[0].Err, apperror.ErrLinkLost)
	})

	t.Run("Stops on context cancel", func(t *testing.T) {
		ctx, st := suite.New(t)

		coordinator := NewTurnCoordinator(st.Logger, entity.NewBoard(), entity.RolePeer, mockedUseCase.NewMockmoveSender(t), nil)

		ctx, cancel := context.WithCancel(ctx)
		cancel()

		err := coordinator.Run(ctx, newFakeSource())

		require.ErrorIs(t, err, context.Canceled)
	})
}
