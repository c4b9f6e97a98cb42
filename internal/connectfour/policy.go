package connectfour

import (
	"errors"
	"math/rand"
	"time"

	"github.com/rocketscienceinc/connectfour/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// RandomPolicy picks a uniformly random open column. It owns a single generator,
// so a fixed seed replays the same sequence of choices.
type RandomPolicy struct {
	rng *rand.Rand
}

// NewRandomPolicy returns a policy seeded with seed, or with the current time when seed is 0.
func NewRandomPolicy(seed int64) *RandomPolicy {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &RandomPolicy{
		rng: rand.New(rand.NewSource(seed)), //nolint: gosec // game moves, not secrets
	}
}

func (that *RandomPolicy) ChooseColumn(board *entity.Board) (int, error) {
	availableColumns := board.OpenColumns()
	if len(availableColumns) == 0 {
		return 0, ErrNoAvailableMoves
	}

	return availableColumns[that.rng.Intn(len(availableColumns))], nil
}
