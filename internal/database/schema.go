package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the inventory tables.  seat_rows.vacant_seats is kept in
// step with seats.booked by the repository; it is a table rather than a
// view so a commit can update both under the same row locks.  booked_by
// holds the id of the booking that took the seat.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS seats (
		id      BIGINT UNSIGNED NOT NULL PRIMARY KEY,
		row_num INT NOT NULL,
		col_num INT NOT NULL,
		booked  TINYINT(1) NOT NULL DEFAULT 0,
		booked_by VARCHAR(64) NULL,
		UNIQUE KEY uq_seats_row_col (row_num, col_num),
		KEY idx_seats_row_booked (row_num, booked, col_num)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS seat_rows (
		row_num      INT NOT NULL PRIMARY KEY,
		vacant_seats INT NOT NULL
	) ENGINE=InnoDB`,
}

// Migrate applies the schema.  Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
