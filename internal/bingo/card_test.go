package bingo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateColumnsDistinctAndInRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		card := Generate(7)

		for col := 0; col < 5; col++ {
			seen := make(map[int]bool)
			for row := 0; row < 5; row++ {
				cell := card.Columns[col][row]
				if col == ColN && row == 2 {
					continue
				}
				assert.False(t, seen[cell.Number], "duplicate %d in column %s", cell.Number, Letters[col])
				seen[cell.Number] = true

				r := columnRanges[col]
				assert.GreaterOrEqual(t, cell.Number, r.min, "column %s", Letters[col])
				assert.LessOrEqual(t, cell.Number, r.max, "column %s", Letters[col])
			}
		}
	}
}

func TestGenerateFreeCenter(t *testing.T) {
	card := Generate(1)

	center := card.Columns[ColN][2]
	assert.Equal(t, FreeNumber, center.Number)
	assert.True(t, center.Marked)

	for col := 0; col < 5; col++ {
		for row := 0; row < 5; row++ {
			if col == ColN && row == 2 {
				continue
			}
			cell := card.Columns[col][row]
			assert.False(t, cell.Marked)
			assert.False(t, cell.Called)
		}
	}
}

func TestMarkUnmark(t *testing.T) {
	card := Generate(1)

	require.NoError(t, card.Mark(0, 0))
	assert.True(t, card.Columns[0][0].Marked)

	require.NoError(t, card.Unmark(0, 0))
	assert.False(t, card.Columns[0][0].Marked)

	// free center never unmarks
	require.NoError(t, card.Unmark(ColN, 2))
	assert.True(t, card.Columns[ColN][2].Marked)

	assert.Error(t, card.Mark(5, 0))
	assert.Error(t, card.Mark(0, -1))
}

func TestSerializeRoundTrip(t *testing.T) {
	card := Generate(42)

	nums, err := ParseNumbers(card.Serialize())
	require.NoError(t, err)
	require.Len(t, nums, CardSize)

	// row-major: index 12 is the free center
	assert.Equal(t, FreeNumber, nums[12])
	for i, n := range nums {
		row, col := i/5, i%5
		assert.Equal(t, card.Columns[col][row].Number, n)
	}
}

func TestParseNumbersRejectsBadData(t *testing.T) {
	_, err := ParseNumbers("1,2,3")
	assert.Error(t, err)

	_, err = ParseNumbers("a,b,c")
	assert.Error(t, err)
}
