package apperror

import "errors"

var (
	ErrColumnFull        = errors.New("column is full")
	ErrInvalidColumn     = errors.New("invalid column index")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrGameFinished      = errors.New("game is already finished")
	ErrProtocolViolation = errors.New("peer violated the move protocol")

	ErrBind      = errors.New("could not bind listener")
	ErrAccept    = errors.New("could not accept peer")
	ErrConnect   = errors.New("could not connect to host")
	ErrHandshake = errors.New("handshake failed")
	ErrLinkLost  = errors.New("link to peer lost")
)
