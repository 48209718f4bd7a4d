package queue

const (
    // SeatsBookedQueue carries one SeatsBookedEvent per successful booking.
    SeatsBookedQueue = "seats.booked"
    // InventoryResetQueue carries one InventoryResetEvent per reset.
    InventoryResetQueue = "seats.reset"
)

// SeatsBookedEvent is published when a booking commits.  It contains
// enough information for downstream consumers to log or notify without
// querying the inventory.
type SeatsBookedEvent struct {
    BookingID  string   `json:"booking_id"`
    SeatIDs    []uint64 `json:"seat_ids"`
    SeatLabels []string `json:"seats"`
    BookedAt   string   `json:"booked_at"`
}

// InventoryResetEvent is published after an administrative reset.
type InventoryResetEvent struct {
    Seats   int    `json:"seats"`
    ResetAt string `json:"reset_at"`
}
