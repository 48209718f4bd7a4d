package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/ticket-booking/internal/metrics"
	"github.com/iliyamo/ticket-booking/internal/model"
)

const (
	defaultMaxAttempts = 5
	defaultRowRetries  = 3
	commitTimeout      = 5 * time.Second
	releaseTimeout     = 5 * time.Second
)

// Coordinator turns plans into committed seats.  Each plan row is
// committed independently with compare-and-set; a row whose vacancy fell
// below its share marks the plan stale, and the shortfall is replanned
// from a fresh snapshot.
type Coordinator struct {
	store       Store
	maxAttempts int
	rowRetries  int
	log         zerolog.Logger
	metrics     *metrics.Metrics
}

// NewCoordinator returns a Coordinator with the default retry bounds.
func NewCoordinator(store Store, log zerolog.Logger, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		store:       store,
		maxAttempts: defaultMaxAttempts,
		rowRetries:  defaultRowRetries,
		log:         log,
		metrics:     m,
	}
}

// rowOutcome is what one plan row contributed to an attempt.  unsure
// holds ids whose commit errored and may still have landed.
type rowOutcome struct {
	seats  []model.Seat
	unsure []uint64
	stale  bool
}

// Book commits exactly k seats stamped with owner, or none.  Seats
// committed by an attempt whose plan went stale are kept and only the
// shortfall is replanned.  When the request finally fails, every seat it
// may have committed is released under owner so no booking is ever
// partial.
func (c *Coordinator) Book(ctx context.Context, owner string, k int) ([]model.Seat, error) {
	var (
		booked []model.Seat
		unsure []uint64
	)
	fail := func(err error) ([]model.Seat, error) {
		c.release(ctx, owner, append(seatIDs(booked), unsure...))
		return nil, err
	}
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		need := k - len(booked)
		snap, err := c.store.Snapshot(ctx)
		if err != nil {
			return fail(storageFault(err))
		}
		if need > snap.TotalVacant {
			return fail(unavailable())
		}
		plan := Plan(snap.Rows, need)
		if len(plan) == 0 {
			return fail(unavailable())
		}

		out, err := c.execute(ctx, owner, plan)
		booked = append(booked, out.seats...)
		unsure = append(unsure, out.unsure...)
		if err != nil {
			return fail(storageFault(err))
		}
		if !out.stale && len(booked) == k {
			c.metrics.Attempts(attempt)
			return booked, nil
		}
		c.metrics.Replan()
		c.log.Debug().
			Int("attempt", attempt).
			Int("requested", k).
			Int("committed", len(booked)).
			Msg("plan went stale, replanning shortfall")
	}
	c.metrics.Attempts(c.maxAttempts)
	return fail(contention(c.maxAttempts))
}

// execute commits every plan row concurrently.  Rows are disjoint so
// their commits never conflict with each other.  The merged outcome
// holds seats in plan order and includes rows that succeeded even when
// another row went stale or failed.
func (c *Coordinator) execute(ctx context.Context, owner string, plan []Allocation) (rowOutcome, error) {
	outcomes := make([]rowOutcome, len(plan))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range plan {
		i, a := i, a
		g.Go(func() error {
			out, err := c.commitRow(gctx, owner, a)
			outcomes[i] = out
			return err
		})
	}
	err := g.Wait()

	var merged rowOutcome
	for _, o := range outcomes {
		merged.seats = append(merged.seats, o.seats...)
		merged.unsure = append(merged.unsure, o.unsure...)
		merged.stale = merged.stale || o.stale
	}
	return merged, err
}

// commitRow books a.Count of the lowest-column vacant seats in a.Row,
// retrying when a concurrent booking wins a race for one of them.  The
// commit itself runs detached from ctx: once submitted it completes, so
// a cancelled request learns the real outcome instead of a context
// error over seats the store already booked.
func (c *Coordinator) commitRow(ctx context.Context, owner string, a Allocation) (rowOutcome, error) {
	for try := 0; try < c.rowRetries; try++ {
		seats, err := c.store.VacantSeatsInRow(ctx, a.Row, a.Count)
		if err != nil {
			return rowOutcome{}, err
		}
		if len(seats) < a.Count {
			return rowOutcome{stale: true}, nil
		}
		ids := seatIDs(seats)
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
		ok, err := c.store.TryCommit(cctx, owner, ids)
		cancel()
		if err != nil {
			return rowOutcome{unsure: ids}, err
		}
		if ok {
			for i := range seats {
				seats[i].Booked = true
			}
			return rowOutcome{seats: seats}, nil
		}
		c.metrics.Conflict()
		c.log.Debug().Int("row", a.Row).Int("try", try+1).Msg("commit conflict")
	}
	return rowOutcome{stale: true}, nil
}

// release hands seats back to the inventory after a failed request.  It
// runs detached from ctx so a cancelled caller cannot strand seats, and
// the store only vacates seats still stamped with owner.
func (c *Coordinator) release(ctx context.Context, owner string, ids []uint64) {
	if len(ids) == 0 {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := c.store.Release(rctx, owner, ids); err != nil {
		c.log.Error().Err(err).Str("booking_id", owner).Uints64("seat_ids", ids).Msg("failed to release seats of aborted booking")
		return
	}
	c.log.Warn().Str("booking_id", owner).Int("seats", len(ids)).Msg("released seats of aborted booking")
}

func seatIDs(seats []model.Seat) []uint64 {
	ids := make([]uint64, len(seats))
	for i, s := range seats {
		ids[i] = s.ID
	}
	return ids
}
