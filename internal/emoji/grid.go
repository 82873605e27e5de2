package emoji

import (
	"fmt"
	"math/rand"
)

// Cell is one grid position with its 1-based row-major position number.
type Cell struct {
	Pos   int    `json:"pos"`
	Emoji string `json:"emoji"`
}

// Grid is a materialized N×N challenge grid. CorrectPos is the 1-based
// position of the round's key emoji.
type Grid struct {
	Size       int      `json:"size"`
	Rows       [][]Cell `json:"rows"`
	CorrectPos int      `json:"correct_pos"`
}

// Emojis returns the grid's symbols in position order.
func (g *Grid) Emojis() []string {
	flat := make([]string, 0, g.Size*g.Size)
	for _, row := range g.Rows {
		for _, cell := range row {
			flat = append(flat, cell.Emoji)
		}
	}
	return flat
}

// BuildGrid materializes a round's grid: the key emoji exactly once among
// gridSize²-1 unique fillers sampled from the round's pool (both key emojis
// excluded), shuffled into random position order and reshaped row-major.
func (p *Pools) BuildGrid(round int, keyEmoji, otherKeyEmoji string, gridSize int) (*Grid, error) {
	if gridSize < 2 {
		return nil, fmt.Errorf("grid size must be at least 2, got %d", gridSize)
	}
	required := gridSize * gridSize

	available := p.Available(round, keyEmoji, otherKeyEmoji)
	if len(available) < required-1 {
		return nil, ErrInsufficientPool
	}

	// Sample required-1 fillers without replacement, then shuffle the key in.
	rand.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})
	symbols := append(available[:required-1:required-1], keyEmoji)
	rand.Shuffle(len(symbols), func(i, j int) {
		symbols[i], symbols[j] = symbols[j], symbols[i]
	})

	// Should never trigger: the sample is distinct by construction.
	seen := make(map[string]bool, required)
	for _, e := range symbols {
		if seen[e] {
			return nil, ErrDuplicateEmoji
		}
		seen[e] = true
	}

	rows := make([][]Cell, gridSize)
	correctPos := 0
	pos := 0
	for r := range rows {
		rows[r] = make([]Cell, gridSize)
		for c := range rows[r] {
			symbol := symbols[pos]
			pos++
			rows[r][c] = Cell{Pos: pos, Emoji: symbol}
			if symbol == keyEmoji {
				correctPos = pos
			}
		}
	}

	// Should never trigger: the key was appended above.
	if correctPos == 0 {
		return nil, ErrKeyNotFound
	}

	return &Grid{Size: gridSize, Rows: rows, CorrectPos: correctPos}, nil
}
