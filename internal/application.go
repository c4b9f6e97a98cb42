package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/connectfour/internal/config"
	"github.com/rocketscienceinc/connectfour/internal/entity"
	"github.com/rocketscienceinc/connectfour/transport/tcp"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connection, err := connect(ctx, logger, conf)
	if err != nil {
		return fmt.Errorf("could not establish link: %w", err)
	}

	defer func() {
		if err = connection.Close(); err != nil {
			log.Debug("could not close connection", "error", err)
		}
	}()

	session := NewSession(logger, connection, conf, os.Stdin, os.Stdout)

	result, err := session.Play(ctx)
	if err != nil {
		return fmt.Errorf("game aborted: %w", err)
	}

	if ctx.Err() != nil {
		log.Info("Received signal, shutting down")
		return nil
	}

	log.Info("Game over", "result", string(result))

	return nil
}

func connect(ctx context.Context, logger *slog.Logger, conf *config.Config) (*tcp.Connection, error) {
	if conf.GetRole() == entity.RoleHost {
		logger.Info("Hosting game", "addr", conf.GetAddr())
		return tcp.ListenAndAccept(ctx, logger, conf.GetAddr())
	}

	logger.Info("Joining game", "addr", conf.GetAddr())
	return tcp.ConnectTo(ctx, logger, conf.GetAddr())
}
