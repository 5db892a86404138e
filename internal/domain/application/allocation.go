package application

import (
	"errors"
	"time"

	"booking-core/internal/domain/scheduling"

	"github.com/google/uuid"
)

var (
	ErrAllocationDeclined = errors.New("allocated time slot is declined")
	ErrInvalidTimeRange   = errors.New("allocation start must be before end")
)

// AllocatedTimeSlot is the staff-assigned outcome of allocation: a
// concrete weekday, time range and reservation unit satisfying (or
// partially satisfying) a section.
type AllocatedTimeSlot struct {
	id        uuid.UUID
	sectionID uuid.UUID
	unitID    uuid.UUID
	weekday   time.Weekday
	start     time.Duration // offset from local midnight
	end       time.Duration
	declined  bool
	appliedAt *time.Time
}

func NewAllocatedTimeSlot(
	sectionID, unitID uuid.UUID,
	weekday time.Weekday,
	start, end time.Duration,
) (*AllocatedTimeSlot, error) {
	if start >= end {
		return nil, ErrInvalidTimeRange
	}
	return &AllocatedTimeSlot{
		id:        uuid.New(),
		sectionID: sectionID,
		unitID:    unitID,
		weekday:   weekday,
		start:     start,
		end:       end,
	}, nil
}

func ReconstructAllocatedTimeSlot(
	id, sectionID, unitID uuid.UUID,
	weekday time.Weekday,
	start, end time.Duration,
	declined bool,
	appliedAt *time.Time,
) *AllocatedTimeSlot {
	return &AllocatedTimeSlot{
		id:        id,
		sectionID: sectionID,
		unitID:    unitID,
		weekday:   weekday,
		start:     start,
		end:       end,
		declined:  declined,
		appliedAt: appliedAt,
	}
}

// Decline excludes the slot from series generation and statistics.
func (a *AllocatedTimeSlot) Decline() error {
	if a.appliedAt != nil {
		return ErrStatusConflict
	}
	a.declined = true
	return nil
}

func (a *AllocatedTimeSlot) MarkApplied(now time.Time) {
	a.appliedAt = &now
}

// SeriesSpec expands the slot into the recurring pattern to generate
// reservations for, over the owning section's date range.
func (a *AllocatedTimeSlot) SeriesSpec(section *Section, loc *time.Location) (scheduling.SeriesSpec, error) {
	if a.declined {
		return scheduling.SeriesSpec{}, ErrAllocationDeclined
	}
	return scheduling.SeriesSpec{
		Begin:    section.Begin(),
		End:      section.End(),
		Weekday:  a.weekday,
		Start:    a.start,
		Duration: a.end - a.start,
		Biweekly: section.Biweekly(),
		Location: loc,
	}, nil
}

func (a *AllocatedTimeSlot) ID() uuid.UUID          { return a.id }
func (a *AllocatedTimeSlot) SectionID() uuid.UUID   { return a.sectionID }
func (a *AllocatedTimeSlot) UnitID() uuid.UUID      { return a.unitID }
func (a *AllocatedTimeSlot) Weekday() time.Weekday  { return a.weekday }
func (a *AllocatedTimeSlot) Start() time.Duration   { return a.start }
func (a *AllocatedTimeSlot) End() time.Duration     { return a.end }
func (a *AllocatedTimeSlot) Declined() bool         { return a.declined }
func (a *AllocatedTimeSlot) AppliedAt() *time.Time  { return a.appliedAt }
