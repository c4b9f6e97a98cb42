package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/connectfour/internal/config"
	"github.com/rocketscienceinc/connectfour/internal/connectfour"
	"github.com/rocketscienceinc/connectfour/internal/console"
	"github.com/rocketscienceinc/connectfour/internal/entity"
	"github.com/rocketscienceinc/connectfour/internal/usecase"
	"github.com/rocketscienceinc/connectfour/transport/tcp"
)

// Session is one game over an established connection.
type Session struct {
	logger *slog.Logger

	connection  *tcp.Connection
	coordinator *usecase.TurnCoordinator
	renderer    *console.Renderer
	in          io.Reader

	finished chan struct{}
	once     sync.Once
}

func NewSession(logger *slog.Logger, connection *tcp.Connection, conf *config.Config, in io.Reader, out io.Writer) *Session {
	logger = logger.With("session", connection.SessionID())

	board := entity.NewBoard()
	role := connection.Role()

	var coordinator *usecase.TurnCoordinator
	if conf.IsComputer() {
		coordinator = usecase.NewTurnCoordinator(logger, board, role, connection, connectfour.NewRandomPolicy(conf.Seed))
	} else {
		coordinator = usecase.NewTurnCoordinator(logger, board, role, connection, nil)
	}

	that := &Session{
		logger: logger.With("component", "session"),

		connection:  connection,
		coordinator: coordinator,
		renderer:    console.NewRenderer(out, board, role.Color(), !conf.IsComputer()),
		in:          in,
		finished:    make(chan struct{}),
	}

	coordinator.Subscribe(that.renderer.Render)
	coordinator.Subscribe(that.onEvent)

	return that
}

// Play runs the game until it has an outcome, the link is lost, local input
// ends or ctx is done. The result is ResultNoWin unless the game finished.
func (that *Session) Play(ctx context.Context) (entity.Result, error) {
	log := that.logger.With("method", "Play")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	that.connection.Start(ctx)

	runErr := make(chan error, 1)
	go func() {
		runErr <- that.coordinator.Run(ctx, that.connection)
	}()

	inputDone := make(chan error, 1)

	if that.coordinator.Automatic() {
		if err := that.coordinator.Start(ctx); err != nil {
			return that.outcome(fmt.Errorf("could not start automatic play: %w", err))
		}
	} else {
		that.renderer.Printf("You are %s, %s moves first\n%s", that.coordinator.Color().Name(), entity.PlayerA.Name(), that.coordinator.BoardString())
		if that.coordinator.Role().MovesFirst() {
			that.renderer.Prompt()
		}

		go func() {
			inputDone <- console.ReadMoves(ctx, that.in, that.renderer, that.coordinator)
		}()
	}

	select {
	case <-that.finished:
	case err := <-runErr:
		if err != nil && ctx.Err() == nil {
			return that.outcome(err)
		}
	case err := <-inputDone:
		if err != nil {
			return that.outcome(err)
		}
		log.Info("input closed before the game ended")
	case <-ctx.Done():
	}

	return that.outcome(nil)
}

func (that *Session) BoardString() string {
	return that.coordinator.BoardString()
}

func (that *Session) Winner() entity.Color {
	_, winner := that.coordinator.Result()
	return winner
}

// outcome prefers the lost link over err since it names the root cause.
func (that *Session) outcome(err error) (entity.Result, error) {
	result, _ := that.coordinator.Result()

	if linkErr := that.coordinator.LinkErr(); linkErr != nil {
		return result, linkErr
	}

	return result, err
}

func (that *Session) onEvent(event usecase.Event) {
	if event.Kind == usecase.EventMove {
		return
	}

	that.once.Do(func() {
		close(that.finished)
	})
}
