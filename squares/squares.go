// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package squares

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// Size is the board width and height.
const Size = 10

var (
	ErrNotLocked     = errors.New("board digits have not been drawn")
	ErrOutOfRange    = errors.New("square is off the board")
	ErrInvalidDigits = errors.New("digits must be a permutation of 0-9")
	ErrNegativeScore = errors.New("scores must not be negative")
	ErrSquareTaken   = errors.New("square already claimed")
	ErrBoardLocked   = errors.New("board is locked")
)

// Board is a football squares grid. Rows track the home team's last digit and
// columns the away team's. Owners are empty for unclaimed squares.
type Board struct {
	Owners    [Size][Size]string
	RowDigits []int
	ColDigits []int
}

// Locked reports whether digits have been drawn.
func (b *Board) Locked() bool {
	return len(b.RowDigits) == Size && len(b.ColDigits) == Size
}

// InRange reports whether (row, col) is on the board.
func InRange(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// Claim assigns an open square. Claims stop once digits are drawn.
func (b *Board) Claim(row, col int, owner string) error {
	if !InRange(row, col) {
		return ErrOutOfRange
	}
	if b.Locked() {
		return ErrBoardLocked
	}
	if b.Owners[row][col] != "" {
		return ErrSquareTaken
	}
	b.Owners[row][col] = owner
	return nil
}

// ShuffleDigits returns a random permutation of 0-9.
func ShuffleDigits(r *rand.Rand) []int {
	digits := make([]int, Size)
	for i := range digits {
		digits[i] = i
	}
	r.Shuffle(len(digits), func(i, j int) {
		digits[i], digits[j] = digits[j], digits[i]
	})
	return digits
}

// Winner finds the square matching the last digit of each score.
func Winner(b *Board, homeScore, awayScore int) (row, col int, owner string, err error) {
	if !b.Locked() {
		return 0, 0, "", ErrNotLocked
	}
	if homeScore < 0 || awayScore < 0 {
		return 0, 0, "", ErrNegativeScore
	}

	row = indexOf(b.RowDigits, homeScore%10)
	col = indexOf(b.ColDigits, awayScore%10)
	if row < 0 || col < 0 {
		return 0, 0, "", ErrInvalidDigits
	}

	return row, col, b.Owners[row][col], nil
}

// Unclaimed counts empty squares.
func (b *Board) Unclaimed() int {
	n := 0
	for _, row := range b.Owners {
		for _, owner := range row {
			if owner == "" {
				n++
			}
		}
	}
	return n
}

// EncodeDigits stores digits as a comma separated string.
func EncodeDigits(digits []int) string {
	parts := make([]string, len(digits))
	for i, d := range digits {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// DecodeDigits parses digits written by EncodeDigits. An empty string means
// digits have not been drawn yet.
func DecodeDigits(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != Size {
		return nil, ErrInvalidDigits
	}

	seen := make(map[int]bool, Size)
	digits := make([]int, Size)
	for i, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDigits, err)
		}
		if d < 0 || d > 9 || seen[d] {
			return nil, ErrInvalidDigits
		}
		seen[d] = true
		digits[i] = d
	}
	return digits, nil
}

func indexOf(digits []int, d int) int {
	for i, v := range digits {
		if v == d {
			return i
		}
	}
	return -1
}
