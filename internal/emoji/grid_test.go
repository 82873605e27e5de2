package emoji

import "testing"

func TestBuildGridContents(t *testing.T) {
	pools := DefaultPools()
	key := pools.PoolFor(Round1)[3]
	otherKey := pools.PoolFor(Round2)[5]

	tests := []struct {
		name     string
		round    int
		gridSize int
	}{
		{name: "round 1, 2x2", round: Round1, gridSize: 2},
		{name: "round 1, 4x4", round: Round1, gridSize: 4},
		{name: "round 1, 5x5 fills the pool", round: Round1, gridSize: 5},
		{name: "round 2, 3x3", round: Round2, gridSize: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, other := key, otherKey
			if tt.round == Round2 {
				k, other = otherKey, key
			}

			grid, err := pools.BuildGrid(tt.round, k, other, tt.gridSize)
			if err != nil {
				t.Fatalf("BuildGrid() error = %v", err)
			}

			required := tt.gridSize * tt.gridSize
			if len(grid.Rows) != tt.gridSize {
				t.Fatalf("got %d rows, want %d", len(grid.Rows), tt.gridSize)
			}

			seen := make(map[string]bool, required)
			keyCount := 0
			pos := 0
			for _, row := range grid.Rows {
				if len(row) != tt.gridSize {
					t.Fatalf("got row of %d cells, want %d", len(row), tt.gridSize)
				}
				for _, cell := range row {
					pos++
					if cell.Pos != pos {
						t.Errorf("cell position = %d, want %d", cell.Pos, pos)
					}
					if seen[cell.Emoji] {
						t.Errorf("duplicate emoji %q in grid", cell.Emoji)
					}
					seen[cell.Emoji] = true
					if cell.Emoji == k {
						keyCount++
						if grid.CorrectPos != cell.Pos {
							t.Errorf("CorrectPos = %d, key found at %d", grid.CorrectPos, cell.Pos)
						}
					}
					if cell.Emoji == other {
						t.Errorf("grid contains the other round's key %q", other)
					}
				}
			}

			if keyCount != 1 {
				t.Errorf("key emoji appears %d times, want exactly once", keyCount)
			}
			if grid.CorrectPos < 1 || grid.CorrectPos > required {
				t.Errorf("CorrectPos = %d, out of range [1, %d]", grid.CorrectPos, required)
			}
		})
	}
}

func TestBuildGridInsufficientPool(t *testing.T) {
	pools, err := NewPools(
		[]string{"😺", "⭐", "🌳", "🐶"},
		[]string{"🍒", "🔔", "🌸", "🎁"},
	)
	if err != nil {
		t.Fatalf("NewPools() error = %v", err)
	}

	// 4 symbols minus the key leave 3 fillers, a 2x2 grid needs 3: fits.
	if _, err := pools.BuildGrid(Round1, "😺", "🍒", 2); err != nil {
		t.Errorf("BuildGrid(2x2) error = %v, want nil", err)
	}

	// A 3x3 grid needs 8 fillers: cannot fit.
	if _, err := pools.BuildGrid(Round1, "😺", "🍒", 3); err != ErrInsufficientPool {
		t.Errorf("BuildGrid(3x3) error = %v, want ErrInsufficientPool", err)
	}
}

func TestBuildGridRejectsTinySizes(t *testing.T) {
	pools := DefaultPools()
	for _, size := range []int{-1, 0, 1} {
		if _, err := pools.BuildGrid(Round1, "😺", "🍒", size); err == nil {
			t.Errorf("BuildGrid(size=%d) expected error, got nil", size)
		}
	}
}

func TestGridEmojisFlattens(t *testing.T) {
	pools := DefaultPools()
	grid, err := pools.BuildGrid(Round1, "😺", "🍒", 3)
	if err != nil {
		t.Fatalf("BuildGrid() error = %v", err)
	}

	flat := grid.Emojis()
	if len(flat) != 9 {
		t.Fatalf("Emojis() returned %d symbols, want 9", len(flat))
	}
	if flat[grid.CorrectPos-1] != "😺" {
		t.Errorf("Emojis()[CorrectPos-1] = %q, want key emoji", flat[grid.CorrectPos-1])
	}
}
