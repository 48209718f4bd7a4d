package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ticket-booking/internal/model"
)

func newRedisRepo(t *testing.T) (*RedisSeatRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisSeatRepo(rdb, "test"), mr
}

func TestRedisSeatRepo(t *testing.T) {
	runInventoryContract(t, func(t *testing.T) inventory {
		repo, _ := newRedisRepo(t)
		n, err := repo.SeedIfEmpty(context.Background(), smallLayout)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		if n != 10 {
			t.Fatalf("seeded %d seats, want 10", n)
		}
		return repo
	})
}

func TestRedisSeatRepo_SeedIfEmpty(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	if _, err := repo.SeedIfEmpty(ctx, model.Layout{}); err != ErrEmptyInventory {
		t.Fatalf("empty layout: got %v", err)
	}
	if n, err := repo.SeedIfEmpty(ctx, model.DefaultLayout()); err != nil || n != 80 {
		t.Fatalf("first seed = %d, %v", n, err)
	}
	if ok, _ := repo.TryCommit(ctx, "b-1", []uint64{1}); !ok {
		t.Fatal("commit failed")
	}
	// A second seed must not wipe bookings.
	if n, err := repo.SeedIfEmpty(ctx, model.DefaultLayout()); err != nil || n != 0 {
		t.Fatalf("second seed = %d, %v", n, err)
	}
	snap, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.TotalVacant != 79 || len(snap.Rows) != 12 {
		t.Fatalf("snapshot = %d vacant in %d rows", snap.TotalVacant, len(snap.Rows))
	}
	if pos := mr.HGet("{test}:layout", "80"); pos != "11:2" {
		t.Fatalf("seat 80 stored at %q, want 11:2", pos)
	}
	if owner := mr.HGet("{test}:booked", "1"); owner != "b-1" {
		t.Fatalf("seat 1 booked by %q, want b-1", owner)
	}
}

func TestRedisSeatRepo_FixedKeySet(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	if _, err := repo.SeedIfEmpty(ctx, model.DefaultLayout()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if ok, _ := repo.TryCommit(ctx, "b-1", []uint64{1, 2, 36}); !ok {
		t.Fatal("commit failed")
	}
	if err := repo.Release(ctx, "b-1", []uint64{2}); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := repo.Snapshot(ctx); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	// Scripts may only touch the keys they are handed, all in one slot.
	want := []string{"{test}:booked", "{test}:layout", "{test}:rows", "{test}:vacant"}
	got := mr.Keys()
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}

	seats, err := repo.VacantSeatsInRow(ctx, 5, 8)
	if err != nil {
		t.Fatalf("vacant: %v", err)
	}
	// Seat 36 is row 5 column 0 in the default layout.
	if len(seats) != 6 || seats[0].Column != 1 || seats[0].Row != 5 {
		t.Fatalf("row 5 vacant = %+v", seats)
	}
}

func TestRedisSeatRepo_StoreDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	repo := NewRedisSeatRepo(rdb, "")
	mr.Close()

	if _, err := repo.Snapshot(context.Background()); err == nil {
		t.Fatal("expected error with redis down")
	}
	if _, err := repo.TryCommit(context.Background(), "b-1", []uint64{1}); err == nil {
		t.Fatal("expected error with redis down")
	}
}
