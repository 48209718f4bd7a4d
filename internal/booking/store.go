package booking

import (
	"context"

	"github.com/iliyamo/ticket-booking/internal/model"
)

// Store is the inventory the booking engine allocates from.  It is the
// sole owner of seat and row-vacancy state; everything in this package
// only reads snapshots or submits commits.
//
// TryCommit must be linearizable with respect to every other TryCommit,
// Release and Reset: it either flips all ids from vacant to booked,
// stamps them with owner and decrements their rows' vacancy, or changes
// nothing and reports false.  Release only vacates seats still stamped
// with owner; Reset clears every stamp, so a release issued after a
// reset never touches seats another booking has since taken.
type Store interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
	VacantSeatsInRow(ctx context.Context, row, limit int) ([]model.Seat, error)
	TryCommit(ctx context.Context, owner string, ids []uint64) (bool, error)
	Release(ctx context.Context, owner string, ids []uint64) error
	Reset(ctx context.Context) error
	Seats(ctx context.Context) ([]model.Seat, error)
}
