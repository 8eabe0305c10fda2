package bingo

// Pattern names the winning line kind.
type Pattern string

const (
	PatternNone     Pattern = ""
	PatternRow      Pattern = "row"
	PatternColumn   Pattern = "column"
	PatternDiagonal Pattern = "diagonal"
)

// CheckWin evaluates the marked grid for a complete line. Rows are checked
// top to bottom, then columns B to O, then the two diagonals (top-left to
// bottom-right first), and the first complete line wins.
func CheckWin(c *Card) (bool, Pattern) {
	for row := 0; row < 5; row++ {
		complete := true
		for col := 0; col < 5; col++ {
			if !c.Columns[col][row].Marked {
				complete = false
				break
			}
		}
		if complete {
			return true, PatternRow
		}
	}

	for col := 0; col < 5; col++ {
		complete := true
		for row := 0; row < 5; row++ {
			if !c.Columns[col][row].Marked {
				complete = false
				break
			}
		}
		if complete {
			return true, PatternColumn
		}
	}

	diag1, diag2 := true, true
	for i := 0; i < 5; i++ {
		if !c.Columns[i][i].Marked {
			diag1 = false
		}
		if !c.Columns[4-i][i].Marked {
			diag2 = false
		}
	}
	if diag1 || diag2 {
		return true, PatternDiagonal
	}

	return false, PatternNone
}

// ValidateClaim checks a player's bingo claim against the serialized card
// and the call history. A cell only counts as covered when the player
// marked it and the number was actually called; the free center is always
// covered.
//   - card:  25 numbers, row-major
//   - marks: 25 numbers, 0 = not selected, otherwise the number marked
func ValidateClaim(card []int, history, marks []int) bool {
	if len(card) != CardSize || len(marks) != CardSize {
		return false
	}

	called := make(map[int]bool, len(history))
	for _, n := range history {
		called[n] = true
	}

	var grid [5][5]bool
	for i, n := range card {
		r, c := i/5, i%5

		if n == FreeNumber {
			grid[r][c] = true
			continue
		}
		if marks[i] != 0 && marks[i] == n && called[n] {
			grid[r][c] = true
		}
	}

	for i := 0; i < 5; i++ {
		rowComplete, colComplete := true, true
		for j := 0; j < 5; j++ {
			if !grid[i][j] {
				rowComplete = false
			}
			if !grid[j][i] {
				colComplete = false
			}
		}
		if rowComplete || colComplete {
			return true
		}
	}

	diag1, diag2 := true, true
	for i := 0; i < 5; i++ {
		if !grid[i][i] {
			diag1 = false
		}
		if !grid[i][4-i] {
			diag2 = false
		}
	}
	return diag1 || diag2
}
