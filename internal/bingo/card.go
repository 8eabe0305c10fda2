package bingo

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Column layout of a 5x5 card. Columns are indexed B=0 .. O=4,
// each holding 5 cells drawn from a fixed sub-range.
const (
	ColB = iota
	ColI
	ColN
	ColG
	ColO
)

const (
	// FreeNumber is the sentinel stored in the free center cell.
	FreeNumber = 0

	// CardSize is the number of cells on a card.
	CardSize = 25

	freeCol = ColN
	freeRow = 2
)

var Letters = [5]string{"B", "I", "N", "G", "O"}

// columnRanges holds the inclusive number range for each column.
var columnRanges = [5]struct{ min, max int }{
	{1, 15},  // B
	{16, 30}, // I
	{31, 45}, // N
	{46, 60}, // G
	{61, 75}, // O
}

type Cell struct {
	Number int  `json:"number"`
	Marked bool `json:"marked"`
	Called bool `json:"called"`
}

type Card struct {
	ID       string `json:"id"`
	PlayerID int64  `json:"player_id"`
	// Columns[c][r] is the cell at column c (B..O), row r (top to bottom).
	Columns [5][5]Cell `json:"columns"`
}

// Generate builds a fresh card for a player. Each column samples uniformly
// from its sub-range until 5 distinct numbers are collected; the center of
// the N column is the free space and starts pre-marked.
func Generate(playerID int64) *Card {
	card := &Card{
		ID:       uuid.NewString(),
		PlayerID: playerID,
	}

	for c := 0; c < 5; c++ {
		r := columnRanges[c]
		span := r.max - r.min + 1
		seen := make(map[int]bool, 5)
		for row := 0; row < 5; row++ {
			for {
				n := rand.Intn(span) + r.min
				if !seen[n] {
					seen[n] = true
					card.Columns[c][row] = Cell{Number: n}
					break
				}
			}
		}
	}

	card.Columns[freeCol][freeRow] = Cell{Number: FreeNumber, Marked: true}
	return card
}

// Mark sets the marked flag on one cell.
func (c *Card) Mark(col, row int) error {
	return c.setMarked(col, row, true)
}

// Unmark clears the marked flag on one cell. The free center stays marked.
func (c *Card) Unmark(col, row int) error {
	if col == freeCol && row == freeRow {
		return nil
	}
	return c.setMarked(col, row, false)
}

func (c *Card) setMarked(col, row int, marked bool) error {
	if col < 0 || col > 4 || row < 0 || row > 4 {
		return fmt.Errorf("cell out of range: col=%d row=%d", col, row)
	}
	c.Columns[col][row].Marked = marked
	return nil
}

// SetCalled flags every cell holding the given number as called.
func (c *Card) SetCalled(number int) {
	for col := 0; col < 5; col++ {
		for row := 0; row < 5; row++ {
			if c.Columns[col][row].Number == number {
				c.Columns[col][row].Called = true
			}
		}
	}
}

// Serialize renders the card as 25 comma separated numbers in row-major
// order, the persisted form used by the cards table.
func (c *Card) Serialize() string {
	parts := make([]string, 0, CardSize)
	for i := 0; i < CardSize; i++ {
		row, col := i/5, i%5
		parts = append(parts, strconv.Itoa(c.Columns[col][row].Number))
	}
	return strings.Join(parts, ",")
}

// ParseNumbers splits a serialized card back into its 25 row-major numbers.
func ParseNumbers(data string) ([]int, error) {
	parts := strings.Split(data, ",")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid card number %q: %w", p, err)
		}
		nums = append(nums, n)
	}
	if len(nums) != CardSize {
		return nil, fmt.Errorf("expected %d numbers, got %d", CardSize, len(nums))
	}
	return nums, nil
}
