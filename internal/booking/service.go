package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/ticket-booking/internal/metrics"
	"github.com/iliyamo/ticket-booking/internal/model"
	"github.com/iliyamo/ticket-booking/internal/queue"
)

// EventPublisher receives notifications about inventory changes.  Publish
// failures are logged and never fail the booking that triggered them.
type EventPublisher interface {
	PublishSeatsBooked(ctx context.Context, ev queue.SeatsBookedEvent) error
	PublishInventoryReset(ctx context.Context, ev queue.InventoryResetEvent) error
}

// Result is a successful booking.
type Result struct {
	ID    string       `json:"bookingId"`
	Seats []model.Seat `json:"seats"`
}

// Service is the booking façade used by the transport layer.
type Service struct {
	store     Store
	coord     *Coordinator
	publisher EventPublisher
	log       zerolog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*Service)

// WithLogger sets the logger used by the service and its coordinator.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMetrics records booking outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPublisher emits booking and reset events through p.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMaxAttempts bounds how many times a booking is replanned.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.coord.maxAttempts = n
		}
	}
}

// WithRowRetries bounds how many commit conflicts a single plan row
// absorbs before the plan is considered stale.
func WithRowRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.coord.rowRetries = n
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		coord: NewCoordinator(store, zerolog.Nop(), nil),
		log:   zerolog.Nop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.coord.log = s.log
	s.coord.metrics = s.metrics
	return s
}

// BookSeats books k seats, preferring a single row and otherwise the
// fewest adjacent rows.
func (s *Service) BookSeats(ctx context.Context, k int) (Result, error) {
	res, err := s.bookSeats(ctx, k)
	if err != nil {
		s.metrics.Request(string(KindOf(err)))
		ev := s.log.Info()
		if KindOf(err) == KindStorageFault {
			ev = s.log.Error()
		}
		ev.Err(err).Int("requested", k).Msg("booking rejected")
		return Result{}, err
	}
	s.metrics.Request("ok")
	s.metrics.SeatsBooked(len(res.Seats))
	s.log.Info().Str("booking_id", res.ID).Int("seats", len(res.Seats)).Msg("seats booked")
	s.publishBooked(ctx, res)
	return res, nil
}

func (s *Service) bookSeats(ctx context.Context, k int) (Result, error) {
	if k <= 0 {
		return Result{}, invalidRequest("minimum 1 seat required")
	}
	if k > MaxSeats {
		return Result{}, invalidRequest(fmt.Sprintf("maximum %d seats allowed", MaxSeats))
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return Result{}, storageFault(err)
	}
	if k > snap.TotalVacant {
		return Result{}, unavailable()
	}
	id := uuid.NewString()
	seats, err := s.coord.Book(ctx, id, k)
	if err != nil {
		return Result{}, err
	}
	return Result{ID: id, Seats: seats}, nil
}

// Reset marks every seat vacant again in one atomic store operation.
func (s *Service) Reset(ctx context.Context) (int, error) {
	if err := s.store.Reset(ctx); err != nil {
		s.log.Error().Err(err).Msg("inventory reset failed")
		return 0, storageFault(err)
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return 0, storageFault(err)
	}
	s.metrics.Reset()
	s.log.Info().Int("seats", snap.TotalVacant).Msg("inventory reset")
	if s.publisher != nil {
		ev := queue.InventoryResetEvent{Seats: snap.TotalVacant, ResetAt: s.now().UTC().Format(time.RFC3339)}
		if err := s.publisher.PublishInventoryReset(ctx, ev); err != nil {
			s.log.Warn().Err(err).Msg("publish inventory reset event")
		}
	}
	return snap.TotalVacant, nil
}

// Seats returns the full seat map ordered by row and column.
func (s *Service) Seats(ctx context.Context) ([]model.Seat, error) {
	seats, err := s.store.Seats(ctx)
	if err != nil {
		return nil, storageFault(err)
	}
	return seats, nil
}

// Summary returns the committed row vacancies.
func (s *Service) Summary(ctx context.Context) (model.Snapshot, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return model.Snapshot{}, storageFault(err)
	}
	return snap, nil
}

func (s *Service) publishBooked(ctx context.Context, res Result) {
	if s.publisher == nil {
		return
	}
	ev := queue.SeatsBookedEvent{
		BookingID: res.ID,
		BookedAt:  s.now().UTC().Format(time.RFC3339),
	}
	for _, seat := range res.Seats {
		ev.SeatIDs = append(ev.SeatIDs, seat.ID)
		ev.SeatLabels = append(ev.SeatLabels, SeatLabel(seat))
	}
	if err := s.publisher.PublishSeatsBooked(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("booking_id", res.ID).Msg("publish seats booked event")
	}
}

// SeatLabel renders a seat as row letter plus 1-based column, e.g. "A1".
func SeatLabel(s model.Seat) string {
	return rowLabel(s.Row) + fmt.Sprint(s.Column+1)
}

// rowLabel converts a zero-based row index to A, B, ... Z, AA, AB.
func rowLabel(i int) string {
	if i < 0 {
		return ""
	}
	res := []rune{}
	for {
		res = append(res, rune('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}
