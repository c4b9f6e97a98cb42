package suite

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"testing"
	"time"
)

const maxWaitDuration = 10 * time.Second

// LoopbackAddr binds an ephemeral port on the loopback interface.
const LoopbackAddr = "127.0.0.1:0"

type Suite struct {
	*testing.T
	Logger *slog.Logger
}

// New returns a context bounded by maxWaitDuration and a logger that stays quiet
// unless CONNECTFOUR_TEST_LOG is set.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(func() {
		cancel()
	})

	var out io.Writer = io.Discard
	if os.Getenv("CONNECTFOUR_TEST_LOG") != "" {
		out = os.Stdout
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return ctx, &Suite{
		T:      t,
		Logger: logger,
	}
}

// FreeAddr returns a loopback address that nothing listens on.
func (that *Suite) FreeAddr() string {
	that.Helper()

	listener, err := net.Listen("tcp", LoopbackAddr)
	if err != nil {
		that.Fatalf("could not reserve port: %v", err)
	}

	addr := listener.Addr().String()
	if err = listener.Close(); err != nil {
		that.Fatalf("could not release port: %v", err)
	}

	return addr
}
