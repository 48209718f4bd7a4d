package model

// Layout describes the shape of the seating area used to seed an empty
// inventory.  Every row holds Cols seats except the final row, which
// holds LastRowCols seats when that value is positive.  The default
// layout is eleven rows of seven and a last row of three (80 seats).
type Layout struct {
    Rows        int
    Cols        int
    LastRowCols int
}

// DefaultLayout returns the 80 seat coach layout.
func DefaultLayout() Layout {
    return Layout{Rows: 12, Cols: 7, LastRowCols: 3}
}

// RowWidth returns the number of seats in row r.
func (l Layout) RowWidth(r int) int {
    if r == l.Rows-1 && l.LastRowCols > 0 {
        return l.LastRowCols
    }
    return l.Cols
}

// Size returns the total number of seats in the layout.
func (l Layout) Size() int {
    n := 0
    for r := 0; r < l.Rows; r++ {
        n += l.RowWidth(r)
    }
    return n
}

// Seats expands the layout into vacant seats with sequential IDs
// starting at 1, ordered by row then column.
func (l Layout) Seats() []Seat {
    out := make([]Seat, 0, l.Size())
    id := uint64(1)
    for r := 0; r < l.Rows; r++ {
        for c := 0; c < l.RowWidth(r); c++ {
            out = append(out, Seat{ID: id, Row: r, Column: c})
            id++
        }
    }
    return out
}
