package tcp

import (
	"context"
	"fmt"
	"time"

	"github.com/rocketscienceinc/connectfour/internal/apperror"
)

const (
	protocolVersion  = 1
	handshakeTimeout = 10 * time.Second
)

// handshake exchanges one hello in each direction and checks that the other
// side speaks the same protocol version from the opposite role.
func (that *Connection) handshake(ctx context.Context) error {
	log := that.logger.With("method", "handshake")

	deadline := time.Now().Add(handshakeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := that.conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("%w: failed to set deadline: %w", apperror.ErrHandshake, err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = that.conn.SetDeadline(time.Now())
	})
	defer stop()

	hello := HelloPayload{
		Version:   protocolVersion,
		Role:      that.role,
		SessionID: that.sessionID,
	}

	if err := that.writeMessage(actionHello, hello); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrHandshake, err)
	}

	message, err := that.readMessage()
	if err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrHandshake, err)
	}

	if message.Action != actionHello {
		return fmt.Errorf("%w: %w: %q", apperror.ErrHandshake, ErrUnknownAction, message.Action)
	}

	var remote HelloPayload
	if err = decodePayload(message.Payload, &remote); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrHandshake, err)
	}

	if remote.Version != protocolVersion {
		return fmt.Errorf("%w: protocol version %d, want %d", apperror.ErrHandshake, remote.Version, protocolVersion)
	}

	if !remote.Role.IsValid() || remote.Role == that.role {
		return fmt.Errorf("%w: remote role %q against local role %q", apperror.ErrHandshake, remote.Role, that.role)
	}

	if err = that.conn.SetDeadline(time.Time{}); err != nil {
		return fmt.Errorf("%w: failed to clear deadline: %w", apperror.ErrHandshake, err)
	}

	that.remoteSessionID = remote.SessionID
	log.Info("handshake completed", "remote_session", remote.SessionID, "remote_role", string(remote.Role))

	return nil
}
