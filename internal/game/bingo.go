package game

type LineType string

const (
	LineRow      LineType = "row"
	LineColumn   LineType = "column"
	LineDiagonal LineType = "diagonal"
	LineCorners  LineType = "corners"
)

const (
	DiagonalMain = 0 // top-left to bottom-right
	DiagonalAnti = 1 // top-right to bottom-left
)

var corners = NewCellSet(
	Cell{Row: 0, Col: 0},
	Cell{Row: 0, Col: GridSize - 1},
	Cell{Row: GridSize - 1, Col: 0},
	Cell{Row: GridSize - 1, Col: GridSize - 1},
)

type Line struct {
	Type  LineType `json:"type"`
	Index int      `json:"index"`
}

// Lines records the bingo lines a participant already completed. Rows, Cols
// and Diagonals are bitmasks keyed by line index.
type Lines struct {
	Rows      uint8 `json:"rows"`
	Cols      uint8 `json:"cols"`
	Diagonals uint8 `json:"diagonals"`
	Corners   bool  `json:"corners"`
}

func (l Lines) Has(line Line) bool {
	switch line.Type {
	case LineRow:
		return l.Rows&(1<<uint(line.Index)) != 0
	case LineColumn:
		return l.Cols&(1<<uint(line.Index)) != 0
	case LineDiagonal:
		return l.Diagonals&(1<<uint(line.Index)) != 0
	case LineCorners:
		return l.Corners
	}
	return false
}

func (l Lines) With(line Line) Lines {
	switch line.Type {
	case LineRow:
		l.Rows |= 1 << uint(line.Index)
	case LineColumn:
		l.Cols |= 1 << uint(line.Index)
	case LineDiagonal:
		l.Diagonals |= 1 << uint(line.Index)
	case LineCorners:
		l.Corners = true
	}
	return l
}

func (l Lines) Without(line Line) Lines {
	switch line.Type {
	case LineRow:
		l.Rows &^= 1 << uint(line.Index)
	case LineColumn:
		l.Cols &^= 1 << uint(line.Index)
	case LineDiagonal:
		l.Diagonals &^= 1 << uint(line.Index)
	case LineCorners:
		l.Corners = false
	}
	return l
}

type DetectResult struct {
	Rows      []int `json:"rows"`
	Cols      []int `json:"cols"`
	Diagonals []int `json:"diagonals"`
	Corners   bool  `json:"corners"`
}

func (r DetectResult) Empty() bool {
	return len(r.Rows) == 0 && len(r.Cols) == 0 && len(r.Diagonals) == 0 && !r.Corners
}

// Ordered lists the new lines in award priority: rows, columns, diagonals,
// then corners when enabled.
func (r DetectResult) Ordered(withCorners bool) []Line {
	out := make([]Line, 0, len(r.Rows)+len(r.Cols)+len(r.Diagonals)+1)
	for _, i := range r.Rows {
		out = append(out, Line{Type: LineRow, Index: i})
	}
	for _, i := range r.Cols {
		out = append(out, Line{Type: LineColumn, Index: i})
	}
	for _, i := range r.Diagonals {
		out = append(out, Line{Type: LineDiagonal, Index: i})
	}
	if withCorners && r.Corners {
		out = append(out, Line{Type: LineCorners})
	}
	return out
}

func (r DetectResult) First(withCorners bool) (Line, bool) {
	lines := r.Ordered(withCorners)
	if len(lines) == 0 {
		return Line{}, false
	}
	return lines[0], true
}

// Detect reports lines fully covered by unlocked that are not yet in completed.
func Detect(unlocked CellSet, completed Lines) DetectResult {
	var res DetectResult
	for i := 0; i < GridSize; i++ {
		if unlocked&rowMask(i) == rowMask(i) && !completed.Has(Line{Type: LineRow, Index: i}) {
			res.Rows = append(res.Rows, i)
		}
	}
	for i := 0; i < GridSize; i++ {
		if unlocked&colMask(i) == colMask(i) && !completed.Has(Line{Type: LineColumn, Index: i}) {
			res.Cols = append(res.Cols, i)
		}
	}
	for _, d := range []int{DiagonalMain, DiagonalAnti} {
		m := diagonalMask(d)
		if unlocked&m == m && !completed.Has(Line{Type: LineDiagonal, Index: d}) {
			res.Diagonals = append(res.Diagonals, d)
		}
	}
	res.Corners = unlocked&corners == corners && !completed.Corners
	return res
}

func rowMask(row int) CellSet {
	var m CellSet
	for c := 0; c < GridSize; c++ {
		m = m.With(Cell{Row: row, Col: c})
	}
	return m
}

func colMask(col int) CellSet {
	var m CellSet
	for r := 0; r < GridSize; r++ {
		m = m.With(Cell{Row: r, Col: col})
	}
	return m
}

func diagonalMask(d int) CellSet {
	var m CellSet
	for i := 0; i < GridSize; i++ {
		if d == DiagonalMain {
			m = m.With(Cell{Row: i, Col: i})
		} else {
			m = m.With(Cell{Row: i, Col: GridSize - 1 - i})
		}
	}
	return m
}
