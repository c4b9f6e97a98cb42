package tcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/connectfour/internal/entity"
)

const (
	actionHello = "hello"
	actionMove  = "move"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrMissingField  = errors.New("missing field")
)

// Message is one newline terminated JSON object on the wire.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type HelloPayload struct {
	Version   int         `json:"version"`
	Role      entity.Role `json:"role"`
	SessionID string      `json:"session_id"`
}

// MovePayload uses pointers so a missing field is told apart from a zero value.
type MovePayload struct {
	Column *int          `json:"column"`
	Row    *int          `json:"row"`
	Color  *entity.Color `json:"color"`
}

func newMovePayload(move entity.MoveRecord) MovePayload {
	return MovePayload{
		Column: &move.Column,
		Row:    &move.Row,
		Color:  &move.Color,
	}
}

func (that MovePayload) toMove() (entity.MoveRecord, error) {
	if that.Column == nil || that.Row == nil || that.Color == nil {
		return entity.MoveRecord{}, fmt.Errorf("%w in move payload", ErrMissingField)
	}

	move := entity.MoveRecord{
		Column: *that.Column,
		Row:    *that.Row,
		Color:  *that.Color,
	}

	if err := move.Validate(); err != nil {
		return entity.MoveRecord{}, fmt.Errorf("invalid move payload: %w", err)
	}

	return move, nil
}

func encodeMessage(action string, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	messageBytes, err := json.Marshal(Message{
		Action:  action,
		Payload: payloadBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return append(messageBytes, '\n'), nil
}

// decodePayload rejects fields the payload type does not know.
func decodePayload(raw json.RawMessage, payload any) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return nil
}

func (that *Connection) writeMessage(action string, payload any) error {
	messageBytes, err := encodeMessage(action, payload)
	if err != nil {
		return err
	}

	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	if _, err = that.conn.Write(messageBytes); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *Connection) readMessage() (*Message, error) {
	var message Message
	if err := that.decoder.Decode(&message); err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	return &message, nil
}

func (that *Connection) readMove() (entity.MoveRecord, error) {
	message, err := that.readMessage()
	if err != nil {
		return entity.MoveRecord{}, err
	}

	if message.Action != actionMove {
		return entity.MoveRecord{}, fmt.Errorf("%w: %q", ErrUnknownAction, message.Action)
	}

	var payload MovePayload
	if err = decodePayload(message.Payload, &payload); err != nil {
		return entity.MoveRecord{}, err
	}

	return payload.toMove()
}
