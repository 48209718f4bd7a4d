package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/ticket-booking/internal/model"
)

// inventory is the store surface shared by the memory and Redis
// repositories.
type inventory interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
	VacantSeatsInRow(ctx context.Context, row, limit int) ([]model.Seat, error)
	TryCommit(ctx context.Context, owner string, ids []uint64) (bool, error)
	Release(ctx context.Context, owner string, ids []uint64) error
	Reset(ctx context.Context) error
	Seats(ctx context.Context) ([]model.Seat, error)
}

var smallLayout = model.Layout{Rows: 3, Cols: 4, LastRowCols: 2} // 10 seats

func ids(seats []model.Seat) []uint64 {
	out := make([]uint64, len(seats))
	for i, s := range seats {
		out[i] = s.ID
	}
	return out
}

func runInventoryContract(t *testing.T, open func(t *testing.T) inventory) {
	ctx := context.Background()

	t.Run("snapshot reflects layout", func(t *testing.T) {
		inv := open(t)
		snap, err := inv.Snapshot(ctx)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		want := []model.RowVacancy{{Row: 0, Vacant: 4}, {Row: 1, Vacant: 4}, {Row: 2, Vacant: 2}}
		if len(snap.Rows) != len(want) {
			t.Fatalf("rows = %+v, want %+v", snap.Rows, want)
		}
		for i := range want {
			if snap.Rows[i] != want[i] {
				t.Fatalf("row %d = %+v, want %+v", i, snap.Rows[i], want[i])
			}
		}
		if snap.TotalVacant != 10 {
			t.Fatalf("total = %d, want 10", snap.TotalVacant)
		}
	})

	t.Run("vacant seats lowest column first", func(t *testing.T) {
		inv := open(t)
		seats, err := inv.VacantSeatsInRow(ctx, 1, 3)
		if err != nil {
			t.Fatalf("vacant: %v", err)
		}
		if len(seats) != 3 {
			t.Fatalf("got %d seats, want 3", len(seats))
		}
		for i, s := range seats {
			if s.Row != 1 || s.Column != i || s.Booked {
				t.Fatalf("seat %d = %+v", i, s)
			}
		}
	})

	t.Run("commit is all or nothing", func(t *testing.T) {
		inv := open(t)
		row0, _ := inv.VacantSeatsInRow(ctx, 0, 4)
		ok, err := inv.TryCommit(ctx, "b-1", ids(row0[:2]))
		if err != nil || !ok {
			t.Fatalf("first commit = %v, %v", ok, err)
		}
		// Overlaps seat 2 which is now booked.
		ok, err = inv.TryCommit(ctx, "b-1", ids(row0[1:]))
		if err != nil || ok {
			t.Fatalf("overlapping commit = %v, %v", ok, err)
		}
		left, _ := inv.VacantSeatsInRow(ctx, 0, 4)
		if len(left) != 2 || left[0].Column != 2 {
			t.Fatalf("row 0 vacant after conflict = %+v", left)
		}
		snap, _ := inv.Snapshot(ctx)
		if snap.Rows[0].Vacant != 2 || snap.TotalVacant != 8 {
			t.Fatalf("snapshot after commit = %+v", snap)
		}
	})

	t.Run("unknown seat", func(t *testing.T) {
		inv := open(t)
		if _, err := inv.TryCommit(ctx, "b-1", []uint64{1, 999}); !errors.Is(err, ErrSeatNotFound) {
			t.Fatalf("commit: expected ErrSeatNotFound, got %v", err)
		}
		if err := inv.Release(ctx, "b-1", []uint64{999}); !errors.Is(err, ErrSeatNotFound) {
			t.Fatalf("release: expected ErrSeatNotFound, got %v", err)
		}
		snap, _ := inv.Snapshot(ctx)
		if snap.TotalVacant != 10 {
			t.Fatalf("total = %d after failed commit", snap.TotalVacant)
		}
	})

	t.Run("duplicate ids count once", func(t *testing.T) {
		inv := open(t)
		ok, err := inv.TryCommit(ctx, "b-1", []uint64{9, 9, 10})
		if err != nil || !ok {
			t.Fatalf("commit = %v, %v", ok, err)
		}
		snap, _ := inv.Snapshot(ctx)
		if snap.Rows[2].Vacant != 0 {
			t.Fatalf("row 2 vacant = %d, want 0", snap.Rows[2].Vacant)
		}
	})

	t.Run("release restores vacancy", func(t *testing.T) {
		inv := open(t)
		if ok, _ := inv.TryCommit(ctx, "b-1", []uint64{5, 6}); !ok {
			t.Fatal("commit failed")
		}
		// Seat 7 was never booked and is left alone.
		if err := inv.Release(ctx, "b-1", []uint64{5, 6, 7}); err != nil {
			t.Fatalf("release: %v", err)
		}
		snap, _ := inv.Snapshot(ctx)
		if snap.Rows[1].Vacant != 4 || snap.TotalVacant != 10 {
			t.Fatalf("snapshot after release = %+v", snap)
		}
		seats, _ := inv.VacantSeatsInRow(ctx, 1, 4)
		if len(seats) != 4 || seats[0].ID != 5 {
			t.Fatalf("row 1 after release = %+v", seats)
		}
	})

	t.Run("release leaves other bookings alone", func(t *testing.T) {
		inv := open(t)
		if ok, _ := inv.TryCommit(ctx, "b-1", []uint64{5, 6}); !ok {
			t.Fatal("commit failed")
		}
		if err := inv.Reset(ctx); err != nil {
			t.Fatalf("reset: %v", err)
		}
		if ok, _ := inv.TryCommit(ctx, "b-2", []uint64{5, 6, 7}); !ok {
			t.Fatal("rebook after reset failed")
		}
		// b-1 no longer holds 5 and 6.
		if err := inv.Release(ctx, "b-1", []uint64{5, 6}); err != nil {
			t.Fatalf("release: %v", err)
		}
		snap, _ := inv.Snapshot(ctx)
		if snap.Rows[1].Vacant != 1 || snap.TotalVacant != 7 {
			t.Fatalf("snapshot after stale release = %+v", snap)
		}
		if ok, _ := inv.TryCommit(ctx, "b-3", []uint64{5}); ok {
			t.Fatal("seat 5 booked twice")
		}
		if err := inv.Release(ctx, "b-2", []uint64{5, 6, 7}); err != nil {
			t.Fatalf("release: %v", err)
		}
		snap, _ = inv.Snapshot(ctx)
		if snap.TotalVacant != 10 {
			t.Fatalf("total after owner release = %d", snap.TotalVacant)
		}
	})

	t.Run("reset is idempotent", func(t *testing.T) {
		inv := open(t)
		if ok, _ := inv.TryCommit(ctx, "b-1", []uint64{1, 2, 5, 9}); !ok {
			t.Fatal("commit failed")
		}
		for i := 0; i < 2; i++ {
			if err := inv.Reset(ctx); err != nil {
				t.Fatalf("reset: %v", err)
			}
			snap, _ := inv.Snapshot(ctx)
			if snap.TotalVacant != 10 {
				t.Fatalf("total after reset = %d", snap.TotalVacant)
			}
		}
	})

	t.Run("seats in row column order", func(t *testing.T) {
		inv := open(t)
		if ok, _ := inv.TryCommit(ctx, "b-1", []uint64{3}); !ok {
			t.Fatal("commit failed")
		}
		seats, err := inv.Seats(ctx)
		if err != nil {
			t.Fatalf("seats: %v", err)
		}
		if len(seats) != 10 {
			t.Fatalf("got %d seats, want 10", len(seats))
		}
		for i, s := range seats {
			if s.ID != uint64(i+1) {
				t.Fatalf("seat %d has id %d", i, s.ID)
			}
			if s.Booked != (s.ID == 3) {
				t.Fatalf("seat %+v has wrong booked flag", s)
			}
		}
	})
}
