package queries

import (
	"time"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type ReservationView struct {
	ID                      uuid.UUID   `json:"id"`
	UnitIDs                 []uuid.UUID `json:"unit_ids"`
	UnitNames               []string    `json:"unit_names"`
	UserID                  uuid.UUID   `json:"user_id"`
	Begin                   time.Time   `json:"begin"`
	End                     time.Time   `json:"end"`
	State                   string      `json:"state"`
	Type                    string      `json:"type"`
	BufferBeforeMinutes     int32       `json:"buffer_before_minutes"`
	BufferAfterMinutes      int32       `json:"buffer_after_minutes"`
	PriceCents              int64       `json:"price_cents"`
	NetPriceCents           int64       `json:"net_price_cents"`
	UnitPriceCents          int64       `json:"unit_price_cents"`
	NonSubsidisedPriceCents int64       `json:"non_subsidised_price_cents"`
	TaxPercentage           float64     `json:"tax_percentage"`
	DenyReason              *string     `json:"deny_reason,omitempty"`
	PaymentDeadline         *time.Time  `json:"payment_deadline,omitempty"`
	OrderID                 *string     `json:"order_id,omitempty"`
	CreatedAt               time.Time   `json:"created_at"`
	UpdatedAt               time.Time   `json:"updated_at"`
}

type ReservationListItem struct {
	ID         uuid.UUID `json:"id"`
	UnitNames  []string  `json:"unit_names"`
	Begin      time.Time `json:"begin"`
	End        time.Time `json:"end"`
	State      string    `json:"state"`
	Type       string    `json:"type"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

type SuitableTimeRangeView struct {
	Weekday      int32  `json:"weekday"`
	StartMinutes int32  `json:"start_minutes"`
	EndMinutes   int32  `json:"end_minutes"`
	Priority     string `json:"priority"`
}

type AllocationView struct {
	ID           uuid.UUID  `json:"id"`
	UnitID       uuid.UUID  `json:"unit_id"`
	UnitName     string     `json:"unit_name"`
	Weekday      int32      `json:"weekday"`
	BeginMinutes int32      `json:"begin_minutes"`
	EndMinutes   int32      `json:"end_minutes"`
	Declined     bool       `json:"declined"`
	AppliedAt    *time.Time `json:"applied_at,omitempty"`
}

type SectionView struct {
	ID                 uuid.UUID               `json:"id"`
	Name               string                  `json:"name"`
	Status             string                  `json:"status"`
	EventsPerWeek      int32                   `json:"events_per_week"`
	MinDurationMinutes int32                   `json:"min_duration_minutes"`
	MaxDurationMinutes int32                   `json:"max_duration_minutes"`
	Begin              time.Time               `json:"begin"`
	End                time.Time               `json:"end"`
	Biweekly           bool                    `json:"biweekly"`
	SuitableTimeRanges []SuitableTimeRangeView `json:"suitable_time_ranges"`
	Allocations        []AllocationView        `json:"allocations"`
}

type ApplicationView struct {
	ID        uuid.UUID     `json:"id"`
	RoundID   uuid.UUID     `json:"round_id"`
	RoundName string        `json:"round_name"`
	UserID    uuid.UUID     `json:"user_id"`
	Applicant string        `json:"applicant"`
	Status    string        `json:"status"`
	Flagged   bool          `json:"flagged"`
	SentAt    *time.Time    `json:"sent_at,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Sections  []SectionView `json:"sections"`
}

type ApplicationListItem struct {
	ID           uuid.UUID `json:"id"`
	RoundID      uuid.UUID `json:"round_id"`
	Applicant    string    `json:"applicant"`
	Status       string    `json:"status"`
	Flagged      bool      `json:"flagged"`
	SectionCount int32     `json:"section_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type AvailabilityView struct {
	UnitID     uuid.UUID   `json:"unit_id"`
	Date       string      `json:"date"`
	Duration   int32       `json:"duration_minutes"`
	StartTimes []time.Time `json:"start_times"`
}
