// Package repository implements the seat inventory on top of memory,
// MySQL and Redis.  Every implementation satisfies booking.Store: commits
// are compare-and-set over a set of seat ids and row vacancy counts move
// in the same atomic step as the seat flags they summarise.
package repository

import "errors"

// ErrSeatNotFound is returned when a commit or release names a seat id
// that does not exist in the inventory.  It indicates a corrupt plan,
// not a booking conflict.
var ErrSeatNotFound = errors.New("seat not found")

// ErrEmptyInventory is returned when a store is asked to seed itself with
// an empty layout.
var ErrEmptyInventory = errors.New("inventory layout has no seats")

// dedupe returns ids without repeats, preserving first occurrence order.
func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
