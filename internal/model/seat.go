package model

// Seat describes a single bookable seat.  Seats are uniquely identified
// by ID and positioned by a zero-based row and column.  Only the
// inventory store flips the Booked flag.
//
// Fields:
//  ID     – primary key identifier, immutable.
//  Row    – zero-based row number.
//  Column – zero-based position within the row, unique per row.
//  Booked – whether the seat has been sold.
type Seat struct {
    ID     uint64 `json:"id"`       // seats.id
    Row    int    `json:"rowNum"`    // seats.row_num
    Column int    `json:"columnNum"` // seats.col_num
    Booked bool   `json:"booked"`    // seats.booked
}

// RowVacancy summarises one row of the inventory.  Vacant must always
// equal the number of seats in Row whose Booked flag is false.
type RowVacancy struct {
    Row    int `json:"rowNum"`      // seat_rows.row_num
    Vacant int `json:"vacantSeats"` // seat_rows.vacant_seats
}

// Snapshot is a read-only view of the committed row vacancies.  Rows are
// ordered by ascending row number and TotalVacant is their sum.
type Snapshot struct {
    Rows        []RowVacancy `json:"rows"`
    TotalVacant int          `json:"totalVacant"`
}
