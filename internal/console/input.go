package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/connectfour/internal/apperror"
	"github.com/rocketscienceinc/connectfour/internal/entity"
)

type localMover interface {
	LocalMove(ctx context.Context, col int) (entity.MoveRecord, error)
}

// ReadMoves turns lines from in into local moves. Columns are 1-based as shown
// on the board. It returns nil at end of input, when the game is over or when
// ctx is done, and the error when the link to the peer is gone.
func ReadMoves(ctx context.Context, in io.Reader, renderer *Renderer, mover localMover) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}

		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}

				return nil
			}

			done, err := handleLine(ctx, line, renderer, mover)
			if done || err != nil {
				return err
			}
		}
	}
}

func handleLine(ctx context.Context, line string, renderer *Renderer, mover localMover) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	column, err := strconv.Atoi(line)
	if err != nil {
		renderer.Printf("%q is not a column, enter a number 1-%d\n", line, entity.Cols)
		return false, nil
	}

	_, err = mover.LocalMove(ctx, column-1)

	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, apperror.ErrGameFinished):
		return true, nil
	case errors.Is(err, apperror.ErrLinkLost):
		return true, err
	case errors.Is(err, apperror.ErrNotYourTurn):
		renderer.Printf("Wait for the other player to move\n")
	case errors.Is(err, apperror.ErrColumnFull):
		renderer.Printf("Column %d is full, pick another\n", column)
	case errors.Is(err, apperror.ErrInvalidColumn):
		renderer.Printf("Column %d does not exist, enter a number 1-%d\n", column, entity.Cols)
	default:
		return true, err
	}

	return false, nil
}
