// internal/board/board.go
//
// Authoritative grid state for a single player.
// Responsibilities:
//   - Placement validation (bounds + occupancy).
//   - Simultaneous row/column clear detection and scoring.
//   - Gravity compaction when rows clear.
//   - Garbage injection (opponent attacks).
//   - Terminal-state detection (no shape fits anywhere).
//
// Notes:
//   - Cells store 0 = empty, 1–8 = color class, 9 = garbage.
//   - The board is single-owner; callers provide their own synchronization
//     if they share one across goroutines (the server never does).
//   - Dirty-cell tracking exists only so a renderer can redraw
//     incrementally; it has no effect on game state.

package board

import (
	"math/rand"
)

// Size is the board edge length. Boards are always Size×Size.
const Size = 9

// Garbage is the cell value for opaque penalty blocks.
const Garbage int8 = 9

// ClearedCell records one zeroed cell from a clear, with the color it held.
// Consumed by the renderer to pick a clear effect; not needed for scoring
// beyond its count.
type ClearedCell struct {
	Idx   int  `json:"idx"`
	Color int8 `json:"color"`
}

// ClearResult is the outcome of a single placement.
type ClearResult struct {
	LinesCleared int           `json:"clearedLines"`
	Score        int           `json:"score"`
	ClearedCells []ClearedCell `json:"clearedCells"`
}

// Board is a Size×Size grid of cell states.
type Board struct {
	cells []int8
	dirty map[int]struct{}
	rng   *rand.Rand
}

// New constructs an empty board.
func New() *Board {
	b := &Board{
		cells: make([]int8, Size*Size),
		dirty: make(map[int]struct{}, Size*Size),
	}
	b.markAllDirty()
	return b
}

// NewWithRand constructs an empty board whose garbage placement draws from
// rng instead of the shared source. Used by tests.
func NewWithRand(rng *rand.Rand) *Board {
	b := New()
	b.rng = rng
	return b
}

// Index maps (row, col) to the flat cell index.
func Index(row, col int) int { return row*Size + col }

// Cell returns the value at (row, col).
func (b *Board) Cell(row, col int) int8 { return b.cells[Index(row, col)] }

// Grid returns the raw cell slice. Callers must not mutate it.
func (b *Board) Grid() []int8 { return b.cells }

// SetGrid overwrites the whole board, e.g. to sync an opponent mirror from
// a reported snapshot. Length mismatches are ignored.
func (b *Board) SetGrid(cells []int8) {
	if len(cells) != len(b.cells) {
		return
	}
	copy(b.cells, cells)
	b.markAllDirty()
}

// Reset empties the board.
func (b *Board) Reset() {
	for i := range b.cells {
		b.cells[i] = 0
	}
	b.markAllDirty()
}

// CanPlace reports whether every cell of shape, anchored at (row, col),
// lands in bounds on an empty cell. Pure; no side effects.
func (b *Board) CanPlace(shape Shape, row, col int) bool {
	for _, c := range shape.Cells {
		r := row + c.Row
		cc := col + c.Col
		if r < 0 || r >= Size || cc < 0 || cc >= Size {
			return false
		}
		if b.cells[Index(r, cc)] != 0 {
			return false
		}
	}
	return true
}

// Place puts shape on the board anchored at (row, col) and resolves clears.
// An invalid placement is a no-op returning a zero ClearResult — never an
// error; the client is expected not to send one.
func (b *Board) Place(shape Shape, row, col int) ClearResult {
	if !b.CanPlace(shape, row, col) {
		return ClearResult{ClearedCells: []ClearedCell{}}
	}
	for _, c := range shape.Cells {
		idx := Index(row+c.Row, col+c.Col)
		b.cells[idx] = shape.Color
		b.dirty[idx] = struct{}{}
	}
	return b.resolveClears()
}

// resolveClears finds full rows and columns on the post-placement grid
// simultaneously, zeroes their union, applies gravity if any row cleared,
// and scores the placement.
func (b *Board) resolveClears() ClearResult {
	fullRows := make(map[int]struct{})
	fullCols := make(map[int]struct{})

	for r := 0; r < Size; r++ {
		full := true
		for c := 0; c < Size; c++ {
			if b.cells[Index(r, c)] == 0 {
				full = false
				break
			}
		}
		if full {
			fullRows[r] = struct{}{}
		}
	}
	for c := 0; c < Size; c++ {
		full := true
		for r := 0; r < Size; r++ {
			if b.cells[Index(r, c)] == 0 {
				full = false
				break
			}
		}
		if full {
			fullCols[c] = struct{}{}
		}
	}

	// Union of all cells in any full row or full column. A cell at a
	// row/column intersection is collected once.
	toClear := make(map[int]struct{})
	for r := range fullRows {
		for c := 0; c < Size; c++ {
			toClear[Index(r, c)] = struct{}{}
		}
	}
	for c := range fullCols {
		for r := 0; r < Size; r++ {
			toClear[Index(r, c)] = struct{}{}
		}
	}

	cleared := make([]ClearedCell, 0, len(toClear))
	for idx := range toClear {
		cleared = append(cleared, ClearedCell{Idx: idx, Color: b.cells[idx]})
		b.cells[idx] = 0
		b.dirty[idx] = struct{}{}
	}

	lines := len(fullRows) + len(fullCols)

	// Column-only clears leave rows where they are.
	if len(fullRows) > 0 {
		b.applyGravity(fullRows)
	}

	return ClearResult{
		LinesCleared: lines,
		Score:        lines*100 + len(toClear)*10,
		ClearedCells: cleared,
	}
}

// applyGravity compacts surviving rows downward over the cleared ones,
// preserving their relative order, and empties the vacated top rows.
func (b *Board) applyGravity(clearedRows map[int]struct{}) {
	writeRow := Size - 1
	for readRow := Size - 1; readRow >= 0; readRow-- {
		if _, ok := clearedRows[readRow]; ok {
			continue
		}
		if writeRow != readRow {
			for c := 0; c < Size; c++ {
				readIdx := Index(readRow, c)
				writeIdx := Index(writeRow, c)
				if b.cells[writeIdx] != b.cells[readIdx] {
					b.cells[writeIdx] = b.cells[readIdx]
					b.dirty[writeIdx] = struct{}{}
				}
			}
		}
		writeRow--
	}
	for ; writeRow >= 0; writeRow-- {
		for c := 0; c < Size; c++ {
			idx := Index(writeRow, c)
			if b.cells[idx] != 0 {
				b.cells[idx] = 0
				b.dirty[idx] = struct{}{}
			}
		}
	}
}

// AddGarbage places up to amount garbage cells on random empty cells,
// giving up after 100 attempts. A crowded board receives fewer cells
// without error.
func (b *Board) AddGarbage(amount int) {
	placed := 0
	for attempts := 0; placed < amount && attempts < 100; attempts++ {
		idx := Index(b.intn(Size), b.intn(Size))
		if b.cells[idx] == 0 {
			b.cells[idx] = Garbage
			b.dirty[idx] = struct{}{}
			placed++
		}
	}
}

// HasPossibleMoves reports whether any of the given shapes fits anywhere on
// the board. Nil entries (consumed queue slots) are skipped. Returns false
// for an empty slice: no pieces means no moves.
func (b *Board) HasPossibleMoves(shapes []*Shape) bool {
	for _, s := range shapes {
		if s == nil {
			continue
		}
		for r := 0; r < Size; r++ {
			for c := 0; c < Size; c++ {
				if b.CanPlace(*s, r, c) {
					return true
				}
			}
		}
	}
	return false
}

// DirtyCells returns the indices mutated since the last call and clears
// the set.
func (b *Board) DirtyCells() []int {
	out := make([]int, 0, len(b.dirty))
	for idx := range b.dirty {
		out = append(out, idx)
	}
	b.dirty = make(map[int]struct{}, Size*Size)
	return out
}

func (b *Board) markAllDirty() {
	for i := range b.cells {
		b.dirty[i] = struct{}{}
	}
}

func (b *Board) intn(n int) int {
	if b.rng != nil {
		return b.rng.Intn(n)
	}
	return rand.Intn(n)
}
