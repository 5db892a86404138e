package application

import (
	"time"

	"github.com/google/uuid"
)

// SuitableTimeRange is a requested weekday and time-of-day preference
// with a priority tier. Offsets are from local midnight.
type SuitableTimeRange struct {
	Weekday  time.Weekday
	Start    time.Duration
	End      time.Duration
	Priority Priority
}

// Section is one requested recurring pattern of an application: how
// many events per week, their duration bounds, and the date range the
// series should cover.
type Section struct {
	id            uuid.UUID
	applicationID uuid.UUID
	name          string
	eventsPerWeek int
	minDuration   time.Duration
	maxDuration   time.Duration
	begin         time.Time
	end           time.Time
	biweekly      bool
	status        SectionStatus
	suitable      []SuitableTimeRange
}

func NewSection(
	applicationID uuid.UUID,
	name string,
	eventsPerWeek int,
	minDuration, maxDuration time.Duration,
	begin, end time.Time,
	biweekly bool,
	suitable []SuitableTimeRange,
) (*Section, error) {
	if minDuration > maxDuration {
		return nil, ErrInvalidDuration
	}
	if begin.After(end) {
		return nil, ErrInvalidPeriod
	}

	return &Section{
		id:            uuid.New(),
		applicationID: applicationID,
		name:          name,
		eventsPerWeek: eventsPerWeek,
		minDuration:   minDuration,
		maxDuration:   maxDuration,
		begin:         begin,
		end:           end,
		biweekly:      biweekly,
		status:        SectionCreated,
		suitable:      suitable,
	}, nil
}

func ReconstructSection(
	id, applicationID uuid.UUID,
	name string,
	eventsPerWeek int,
	minDuration, maxDuration time.Duration,
	begin, end time.Time,
	biweekly bool,
	status SectionStatus,
	suitable []SuitableTimeRange,
) *Section {
	return &Section{
		id:            id,
		applicationID: applicationID,
		name:          name,
		eventsPerWeek: eventsPerWeek,
		minDuration:   minDuration,
		maxDuration:   maxDuration,
		begin:         begin,
		end:           end,
		biweekly:      biweekly,
		status:        status,
		suitable:      suitable,
	}
}

func (s *Section) Validate() error {
	if s.status != SectionCreated {
		return ErrStatusConflict
	}
	s.status = SectionValidated
	return nil
}

// Approve marks the section ready for series generation.
func (s *Section) Approve() error {
	if s.status != SectionValidated {
		return ErrStatusConflict
	}
	s.status = SectionApproved
	return nil
}

func (s *Section) Decline() error {
	switch s.status {
	case SectionCreated, SectionValidated:
		s.status = SectionDeclined
		return nil
	default:
		return ErrStatusConflict
	}
}

func (s *Section) ID() uuid.UUID                 { return s.id }
func (s *Section) ApplicationID() uuid.UUID      { return s.applicationID }
func (s *Section) Name() string                  { return s.name }
func (s *Section) EventsPerWeek() int            { return s.eventsPerWeek }
func (s *Section) MinDuration() time.Duration    { return s.minDuration }
func (s *Section) MaxDuration() time.Duration    { return s.maxDuration }
func (s *Section) Begin() time.Time              { return s.begin }
func (s *Section) End() time.Time                { return s.end }
func (s *Section) Biweekly() bool                { return s.biweekly }
func (s *Section) Status() SectionStatus         { return s.status }
func (s *Section) Suitable() []SuitableTimeRange { return s.suitable }
