package tcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/connectfour/internal/apperror"
	"github.com/rocketscienceinc/connectfour/internal/entity"
)

const inboxSize = 16

// Connection is one established link to the other player. It is created only
// after a successful handshake and is never re-established.
type Connection struct {
	logger *slog.Logger

	conn            net.Conn
	decoder         *json.Decoder
	role            entity.Role
	sessionID       string
	remoteSessionID string

	writeMutex sync.Mutex

	inbox     chan entity.MoveRecord
	startOnce sync.Once
	closeOnce sync.Once

	errMutex sync.Mutex
	err      error
}

// Acceptor is a bound listener waiting for the single peer of a session.
type Acceptor struct {
	logger   *slog.Logger
	listener net.Listener
}

// Listen binds addr for the host side.
func Listen(ctx context.Context, logger *slog.Logger, addr string) (*Acceptor, error) {
	var listenConfig net.ListenConfig

	listener, err := listenConfig.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperror.ErrBind, addr, err)
	}

	return &Acceptor{
		logger:   logger,
		listener: listener,
	}, nil
}

func (that *Acceptor) Addr() string {
	return that.listener.Addr().String()
}

// Accept blocks until exactly one peer connects, then stops listening. Cancelling
// ctx closes the listener and unblocks it.
func (that *Acceptor) Accept(ctx context.Context) (*Connection, error) {
	log := that.logger.With("component", "acceptor", "method", "Accept")

	defer func() {
		_ = that.listener.Close()
	}()

	stop := context.AfterFunc(ctx, func() {
		_ = that.listener.Close()
	})
	defer stop()

	log.Info("waiting for peer", "addr", that.Addr())

	conn, err := that.listener.Accept()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", apperror.ErrAccept, ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", apperror.ErrAccept, err)
	}

	log.Info("peer connected", "remote_addr", conn.RemoteAddr().String())

	return establish(ctx, that.logger, conn, entity.RoleHost)
}

func (that *Acceptor) Close() error {
	return that.listener.Close()
}

// ListenAndAccept binds addr and waits for one peer. The caller becomes the host.
func ListenAndAccept(ctx context.Context, logger *slog.Logger, addr string) (*Connection, error) {
	acceptor, err := Listen(ctx, logger, addr)
	if err != nil {
		return nil, err
	}

	return acceptor.Accept(ctx)
}

// ConnectTo dials the host at addr once. The caller becomes the peer.
func ConnectTo(ctx context.Context, logger *slog.Logger, addr string) (*Connection, error) {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperror.ErrConnect, addr, err)
	}

	logger.Info("connected to host", "addr", addr)

	return establish(ctx, logger, conn, entity.RolePeer)
}

func establish(ctx context.Context, logger *slog.Logger, conn net.Conn, role entity.Role) (*Connection, error) {
	sessionID := uuid.NewString()

	connection := &Connection{
		logger: logger.With("component", "connection", "role", string(role), "session", sessionID),

		conn:      conn,
		decoder:   json.NewDecoder(conn),
		role:      role,
		sessionID: sessionID,
		inbox:     make(chan entity.MoveRecord, inboxSize),
	}

	if err := connection.handshake(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return connection, nil
}

func (that *Connection) Role() entity.Role {
	return that.role
}

func (that *Connection) SessionID() string {
	return that.sessionID
}

func (that *Connection) RemoteSessionID() string {
	return that.remoteSessionID
}

// Start runs the receive loop in the background. Calling it again has no effect.
func (that *Connection) Start(ctx context.Context) {
	that.startOnce.Do(func() {
		go that.receiveLoop(ctx)
	})
}

// Inbox yields remote moves in the order the peer sent them. It is closed when
// the receive loop stops; Err then tells why.
func (that *Connection) Inbox() <-chan entity.MoveRecord {
	return that.inbox
}

// Err returns the reason the receive loop stopped, wrapping apperror.ErrLinkLost.
func (that *Connection) Err() error {
	that.errMutex.Lock()
	defer that.errMutex.Unlock()

	return that.err
}

// Send writes one move. A failed write is reported as ErrLinkLost and not retried.
func (that *Connection) Send(ctx context.Context, move entity.MoveRecord) error {
	if err := move.Validate(); err != nil {
		return fmt.Errorf("refusing to send move: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := that.conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("%w: failed to set write deadline: %w", apperror.ErrLinkLost, err)
		}
		defer func() {
			_ = that.conn.SetWriteDeadline(time.Time{})
		}()
	}

	if err := that.writeMessage(actionMove, newMovePayload(move)); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrLinkLost, err)
	}

	return nil
}

// Close shuts the link down and unblocks a pending read. It is safe to call more than once.
func (that *Connection) Close() error {
	var err error

	that.closeOnce.Do(func() {
		err = that.conn.Close()
	})

	return err
}

func (that *Connection) receiveLoop(ctx context.Context) {
	log := that.logger.With("method", "receiveLoop")

	defer close(that.inbox)

	stop := context.AfterFunc(ctx, func() {
		_ = that.Close()
	})
	defer stop()

	for {
		move, err := that.readMove()
		if err != nil {
			that.setErr(fmt.Errorf("%w: %w", apperror.ErrLinkLost, err))
			log.Info("receive loop stopped", "error", err)

			return
		}

		log.Debug("move received", "move", move.String())

		select {
		case that.inbox <- move:
		case <-ctx.Done():
			that.setErr(fmt.Errorf("%w: %w", apperror.ErrLinkLost, ctx.Err()))
			return
		}
	}
}

func (that *Connection) setErr(err error) {
	that.errMutex.Lock()
	defer that.errMutex.Unlock()

	if that.err == nil {
		that.err = err
	}
}
