// internal/board/shapes.go
//
// Static piece catalog.
// Shapes are a closed enumeration: each kind carries its fixed cell-offset
// list and color class, resolved at compile time. Color classes 1–8 drive
// scoring display and clear effects only; clear logic ignores them.

package board

// Cell is a (row, col) offset relative to a shape's anchor.
type Cell struct {
	Row int
	Col int
}

// ShapeKind enumerates every placeable piece.
type ShapeKind int

const (
	Single ShapeKind = iota
	DominoH
	DominoV
	TrioH
	TrioV
	CornerTL
	TetrisL
	TetrisT
	Square

	numShapeKinds
)

// Shape is an immutable piece definition.
type Shape struct {
	Kind  ShapeKind
	Cells []Cell
	Color int8
}

var shapeDefs = [numShapeKinds]Shape{
	Single:   {Kind: Single, Color: 1, Cells: []Cell{{0, 0}}},
	DominoH:  {Kind: DominoH, Color: 2, Cells: []Cell{{0, 0}, {0, 1}}},
	DominoV:  {Kind: DominoV, Color: 3, Cells: []Cell{{0, 0}, {1, 0}}},
	TrioH:    {Kind: TrioH, Color: 4, Cells: []Cell{{0, 0}, {0, 1}, {0, 2}}},
	TrioV:    {Kind: TrioV, Color: 5, Cells: []Cell{{0, 0}, {1, 0}, {2, 0}}},
	CornerTL: {Kind: CornerTL, Color: 6, Cells: []Cell{{0, 0}, {0, 1}, {1, 0}}},
	TetrisL:  {Kind: TetrisL, Color: 7, Cells: []Cell{{0, 0}, {1, 0}, {2, 0}, {2, 1}}},
	TetrisT:  {Kind: TetrisT, Color: 8, Cells: []Cell{{0, 0}, {0, 1}, {0, 2}, {1, 1}}},
	Square:   {Kind: Square, Color: 1, Cells: []Cell{{0, 0}, {0, 1}, {1, 0}, {1, 1}}},
}

// Lookup returns the definition for kind. Unknown kinds fall back to Single.
func Lookup(kind ShapeKind) Shape {
	if kind < 0 || kind >= numShapeKinds {
		return shapeDefs[Single]
	}
	return shapeDefs[kind]
}

// AllShapes returns every shape definition in catalog order.
func AllShapes() []Shape {
	out := make([]Shape, numShapeKinds)
	copy(out, shapeDefs[:])
	return out
}

// ClearEffect tags the visual effect a renderer plays when a cell of a
// given color clears. The server never interprets these.
type ClearEffect string

const (
	EffectFlash    ClearEffect = "flash"
	EffectShatter  ClearEffect = "shatter"
	EffectMelt     ClearEffect = "melt"
	EffectPulse    ClearEffect = "pulse"
	EffectRipple   ClearEffect = "ripple"
	EffectSpark    ClearEffect = "spark"
	EffectDissolve ClearEffect = "dissolve"
	EffectSweep    ClearEffect = "sweep"
)

var colorEffects = map[int8]ClearEffect{
	1: EffectFlash,
	2: EffectShatter,
	3: EffectMelt,
	4: EffectPulse,
	5: EffectRipple,
	6: EffectSpark,
	7: EffectDissolve,
	8: EffectSweep,
	9: EffectFlash, // garbage
}

// EffectForColor maps a color class to its clear effect.
func EffectForColor(color int8) ClearEffect {
	if e, ok := colorEffects[color]; ok {
		return e
	}
	return EffectFlash
}
