package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/ticket-booking/internal/model"
)

// MemorySeatRepo keeps the inventory in process.  A single RWMutex
// serialises every mutation, which makes TryCommit linearizable; reads
// take the shared lock and never observe a half-applied commit.
type MemorySeatRepo struct {
	mu     sync.RWMutex
	seats  map[uint64]*model.Seat
	rows   map[int][]uint64 // seat ids per row, ascending column
	vacant map[int]int
	owner  map[uint64]string // booking that holds each booked seat
	order  []int             // row numbers, ascending
}

// NewMemorySeatRepo builds an inventory holding copies of seats.
func NewMemorySeatRepo(seats []model.Seat) *MemorySeatRepo {
	r := &MemorySeatRepo{
		seats:  make(map[uint64]*model.Seat, len(seats)),
		rows:   make(map[int][]uint64),
		vacant: make(map[int]int),
		owner:  make(map[uint64]string),
	}
	for _, s := range seats {
		s := s
		r.seats[s.ID] = &s
		if _, ok := r.rows[s.Row]; !ok {
			r.order = append(r.order, s.Row)
		}
		r.rows[s.Row] = append(r.rows[s.Row], s.ID)
		if !s.Booked {
			r.vacant[s.Row]++
		}
	}
	sort.Ints(r.order)
	for row, ids := range r.rows {
		sort.Slice(ids, func(i, j int) bool {
			return r.seats[ids[i]].Column < r.seats[ids[j]].Column
		})
		r.rows[row] = ids
	}
	return r
}

func (r *MemorySeatRepo) Snapshot(ctx context.Context) (model.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := model.Snapshot{Rows: make([]model.RowVacancy, 0, len(r.order))}
	for _, row := range r.order {
		v := r.vacant[row]
		snap.Rows = append(snap.Rows, model.RowVacancy{Row: row, Vacant: v})
		snap.TotalVacant += v
	}
	return snap, nil
}

func (r *MemorySeatRepo) VacantSeatsInRow(ctx context.Context, row, limit int) ([]model.Seat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Seat
	for _, id := range r.rows[row] {
		if len(out) >= limit {
			break
		}
		if s := r.seats[id]; !s.Booked {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *MemorySeatRepo) TryCommit(ctx context.Context, owner string, ids []uint64) (bool, error) {
	ids = dedupe(ids)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		s, ok := r.seats[id]
		if !ok {
			return false, ErrSeatNotFound
		}
		if s.Booked {
			return false, nil
		}
	}
	for _, id := range ids {
		s := r.seats[id]
		s.Booked = true
		r.owner[id] = owner
		r.vacant[s.Row]--
	}
	return true, nil
}

// Release vacates the seats among ids that owner still holds.
func (r *MemorySeatRepo) Release(ctx context.Context, owner string, ids []uint64) error {
	ids = dedupe(ids)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if _, ok := r.seats[id]; !ok {
			return ErrSeatNotFound
		}
	}
	for _, id := range ids {
		s := r.seats[id]
		if s.Booked && r.owner[id] == owner {
			s.Booked = false
			delete(r.owner, id)
			r.vacant[s.Row]++
		}
	}
	return nil
}

func (r *MemorySeatRepo) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.seats {
		s.Booked = false
	}
	clear(r.owner)
	for row, ids := range r.rows {
		r.vacant[row] = len(ids)
	}
	return nil
}

func (r *MemorySeatRepo) Seats(ctx context.Context) ([]model.Seat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Seat, 0, len(r.seats))
	for _, row := range r.order {
		for _, id := range r.rows[row] {
			out = append(out, *r.seats[id])
		}
	}
	return out, nil
}
