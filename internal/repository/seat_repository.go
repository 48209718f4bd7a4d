package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/iliyamo/ticket-booking/internal/model"
)

// MySQL error numbers that mean "another transaction got there first".
const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// SeatRepo stores the inventory in MySQL.  Seats live in `seats` and the
// per-row vacancy counts in `seat_rows`; both tables are only written
// inside one transaction so the counts never drift from the flags.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// DB exposes the underlying handle for health checks.
func (r *SeatRepo) DB() *sql.DB {
	return r.db
}

// Snapshot reads the committed row vacancies ordered by row number.
func (r *SeatRepo) Snapshot(ctx context.Context) (model.Snapshot, error) {
	const q = `SELECT row_num, vacant_seats FROM seat_rows ORDER BY row_num`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return model.Snapshot{}, errors.Wrap(err, "query seat_rows")
	}
	defer rows.Close()

	var snap model.Snapshot
	for rows.Next() {
		var rv model.RowVacancy
		if err := rows.Scan(&rv.Row, &rv.Vacant); err != nil {
			return model.Snapshot{}, errors.Wrap(err, "scan seat_rows")
		}
		snap.Rows = append(snap.Rows, rv)
		snap.TotalVacant += rv.Vacant
	}
	if err := rows.Err(); err != nil {
		return model.Snapshot{}, errors.Wrap(err, "iterate seat_rows")
	}
	return snap, nil
}

// VacantSeatsInRow returns up to limit unbooked seats of row, lowest
// column first.
func (r *SeatRepo) VacantSeatsInRow(ctx context.Context, row, limit int) ([]model.Seat, error) {
	const q = `SELECT id, row_num, col_num, booked
	           FROM seats
	           WHERE row_num = ? AND booked = 0
	           ORDER BY col_num
	           LIMIT ?`
	return r.query(ctx, q, row, limit)
}

// Seats retrieves every seat ordered by row then column.
func (r *SeatRepo) Seats(ctx context.Context) ([]model.Seat, error) {
	const q = `SELECT id, row_num, col_num, booked FROM seats ORDER BY row_num, col_num`
	return r.query(ctx, q)
}

func (r *SeatRepo) query(ctx context.Context, q string, args ...any) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query seats")
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.Row, &s.Column, &s.Booked); err != nil {
			return nil, errors.Wrap(err, "scan seat")
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate seats")
	}
	return result, nil
}

// TryCommit books ids if every one of them is still vacant.  The seats
// are locked with SELECT ... FOR UPDATE in id order, so overlapping
// commits serialise on InnoDB row locks and the loser sees booked=1.
// A deadlock or lock wait timeout is reported as a lost race.
func (r *SeatRepo) TryCommit(ctx context.Context, owner string, ids []uint64) (bool, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return true, nil
	}
	ok, err := r.flip(ctx, owner, ids, false)
	if isLockConflict(err) {
		return false, nil
	}
	return ok, err
}

// Release returns the seats among ids still booked by owner to vacant.
// Vacant seats and seats held by another booking are left alone.
func (r *SeatRepo) Release(ctx context.Context, owner string, ids []uint64) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}
	_, err := r.flip(ctx, owner, ids, true)
	return err
}

// flip toggles the booked flag of ids under row locks.  When release is
// false every seat must be vacant or nothing changes, and the booked
// seats are stamped with owner; when release is true only the subset
// stamped with owner is flipped back.
func (r *SeatRepo) flip(ctx context.Context, owner string, ids []uint64, release bool) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "begin tx")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	in, args := inClause(ids)
	rows, err := tx.QueryContext(ctx,
		`SELECT id, row_num, booked, booked_by FROM seats WHERE id IN (`+in+`) ORDER BY id FOR UPDATE`, args...)
	if err != nil {
		return false, errors.Wrap(err, "lock seats")
	}
	perRow := map[int]int{}
	var rowOrder []int
	var targets []uint64
	found := 0
	for rows.Next() {
		var (
			id       uint64
			row      int
			booked   bool
			bookedBy sql.NullString
		)
		if err := rows.Scan(&id, &row, &booked, &bookedBy); err != nil {
			rows.Close()
			return false, errors.Wrap(err, "scan locked seat")
		}
		found++
		if !release && booked {
			rows.Close()
			return false, nil
		}
		if release && (!booked || bookedBy.String != owner) {
			continue
		}
		if _, ok := perRow[row]; !ok {
			rowOrder = append(rowOrder, row)
		}
		perRow[row]++
		targets = append(targets, id)
	}
	if err := rows.Close(); err != nil {
		return false, errors.Wrap(err, "close locked seats")
	}
	if found != len(ids) {
		return false, ErrSeatNotFound
	}
	if len(targets) == 0 {
		return true, nil
	}

	newState, stamp, delta := 1, any(owner), -1
	if release {
		newState, stamp, delta = 0, nil, 1
	}
	in, args = inClause(targets)
	res, err := tx.ExecContext(ctx,
		`UPDATE seats SET booked = ?, booked_by = ? WHERE id IN (`+in+`)`, append([]any{newState, stamp}, args...)...)
	if err != nil {
		return false, errors.Wrap(err, "update seats")
	}
	if n, _ := res.RowsAffected(); n != int64(len(targets)) {
		return false, nil
	}
	for _, row := range rowOrder {
		if _, err := tx.ExecContext(ctx,
			`UPDATE seat_rows SET vacant_seats = vacant_seats + ? WHERE row_num = ?`,
			delta*perRow[row], row); err != nil {
			return false, errors.Wrap(err, "update seat_rows")
		}
	}
	if err := tx.Commit(); err != nil {
		return false, errors.Wrap(err, "commit")
	}
	committed = true
	return true, nil
}

// Reset marks every seat vacant and recomputes all row counts in one
// transaction.  The UPDATE locks every seat row, so concurrent commits
// wait for it and never see a half-reset inventory.
func (r *SeatRepo) Reset(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `UPDATE seats SET booked = 0, booked_by = NULL`); err != nil {
		return errors.Wrap(err, "reset seats")
	}
	const recount = `UPDATE seat_rows r
	                 SET r.vacant_seats = (SELECT COUNT(*) FROM seats s WHERE s.row_num = r.row_num AND s.booked = 0)`
	if _, err := tx.ExecContext(ctx, recount); err != nil {
		return errors.Wrap(err, "recount seat_rows")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	committed = true
	return nil
}

// SeedIfEmpty inserts the seats of layout and their row counts when the
// seats table is empty.  It returns the number of seats inserted.
func (r *SeatRepo) SeedIfEmpty(ctx context.Context, layout model.Layout) (int, error) {
	seats := layout.Seats()
	if len(seats) == 0 {
		return 0, ErrEmptyInventory
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin tx")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count seats")
	}
	if n > 0 {
		return 0, nil
	}

	query := `INSERT INTO seats (id, row_num, col_num, booked) VALUES `
	args := make([]interface{}, 0, len(seats)*3)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, 0)"
		args = append(args, s.ID, s.Row, s.Column)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, errors.Wrap(err, "insert seats")
	}

	query = `INSERT INTO seat_rows (row_num, vacant_seats) VALUES `
	args = args[:0]
	for row := 0; row < layout.Rows; row++ {
		if row > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, row, layout.RowWidth(row))
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, errors.Wrap(err, "insert seat_rows")
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	committed = true
	return len(seats), nil
}

func inClause(ids []uint64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

func isLockConflict(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == errDeadlock || me.Number == errLockWaitTimeout
}
