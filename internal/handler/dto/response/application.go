package response

import (
	"time"

	"booking-core/internal/usecase/commands"
	"booking-core/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ApplicationResponse struct {
	ID        uuid.UUID         `json:"id"`
	RoundID   uuid.UUID         `json:"roundId"`
	RoundName string            `json:"roundName"`
	UserID    uuid.UUID         `json:"userId"`
	Applicant string            `json:"applicant"`
	Status    string            `json:"status"`
	Flagged   bool              `json:"flagged"`
	SentAt    *time.Time        `json:"sentAt,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Sections  []SectionResponse `json:"sections"`
}

type SectionResponse struct {
	ID                 uuid.UUID                   `json:"id"`
	Name               string                      `json:"name"`
	Status             string                      `json:"status"`
	EventsPerWeek      int32                       `json:"eventsPerWeek"`
	MinDurationMinutes int32                       `json:"minDurationMinutes"`
	MaxDurationMinutes int32                       `json:"maxDurationMinutes"`
	Begin              time.Time                   `json:"begin"`
	End                time.Time                   `json:"end"`
	Biweekly           bool                        `json:"biweekly"`
	SuitableTimeRanges []SuitableTimeRangeResponse `json:"suitableTimeRanges"`
	Allocations        []AllocationResponse        `json:"allocations"`
}

type SuitableTimeRangeResponse struct {
	Weekday      int32  `json:"weekday"`
	StartMinutes int32  `json:"startMinutes"`
	EndMinutes   int32  `json:"endMinutes"`
	Priority     string `json:"priority"`
}

type AllocationResponse struct {
	ID           uuid.UUID  `json:"id"`
	UnitID       uuid.UUID  `json:"unitId"`
	UnitName     string     `json:"unitName"`
	Weekday      int32      `json:"weekday"`
	BeginMinutes int32      `json:"beginMinutes"`
	EndMinutes   int32      `json:"endMinutes"`
	Declined     bool       `json:"declined"`
	AppliedAt    *time.Time `json:"appliedAt,omitempty"`
}

type ApplicationListItemResponse struct {
	ID           uuid.UUID `json:"id"`
	RoundID      uuid.UUID `json:"roundId"`
	Applicant    string    `json:"applicant"`
	Status       string    `json:"status"`
	Flagged      bool      `json:"flagged"`
	SectionCount int32     `json:"sectionCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

type SeriesResultResponse struct {
	AllocationID uuid.UUID            `json:"allocationId"`
	Occurrences  []OccurrenceResponse `json:"occurrences"`
}

type OccurrenceResponse struct {
	Begin         time.Time  `json:"begin"`
	End           time.Time  `json:"end"`
	ReservationID *uuid.UUID `json:"reservationId,omitempty"`
	Accepted      bool       `json:"accepted"`
	Reason        *string    `json:"reason,omitempty"`
}

func FromApplicationView(am *queries.ApplicationView) *ApplicationResponse {
	sections := make([]SectionResponse, 0, len(am.Sections))
	for _, sec := range am.Sections {
		sections = append(sections, fromSectionView(sec))
	}
	return &ApplicationResponse{
		ID:        am.ID,
		RoundID:   am.RoundID,
		RoundName: am.RoundName,
		UserID:    am.UserID,
		Applicant: am.Applicant,
		Status:    am.Status,
		Flagged:   am.Flagged,
		SentAt:    am.SentAt,
		CreatedAt: am.CreatedAt,
		UpdatedAt: am.UpdatedAt,
		Sections:  sections,
	}
}

func fromSectionView(sv queries.SectionView) SectionResponse {
	ranges := make([]SuitableTimeRangeResponse, 0, len(sv.SuitableTimeRanges))
	for _, tr := range sv.SuitableTimeRanges {
		ranges = append(ranges, SuitableTimeRangeResponse(tr))
	}
	allocations := make([]AllocationResponse, 0, len(sv.Allocations))
	for _, al := range sv.Allocations {
		allocations = append(allocations, AllocationResponse(al))
	}
	return SectionResponse{
		ID:                 sv.ID,
		Name:               sv.Name,
		Status:             sv.Status,
		EventsPerWeek:      sv.EventsPerWeek,
		MinDurationMinutes: sv.MinDurationMinutes,
		MaxDurationMinutes: sv.MaxDurationMinutes,
		Begin:              sv.Begin,
		End:                sv.End,
		Biweekly:           sv.Biweekly,
		SuitableTimeRanges: ranges,
		Allocations:        allocations,
	}
}

func FromApplicationListItem(am *queries.ApplicationListItem) *ApplicationListItemResponse {
	var resp ApplicationListItemResponse
	_ = copier.Copy(&resp, am)
	return &resp
}

func FromSeriesOutcomes(allocationID uuid.UUID, outcomes []commands.OccurrenceOutcome) *SeriesResultResponse {
	occurrences := make([]OccurrenceResponse, 0, len(outcomes))
	for _, o := range outcomes {
		occ := OccurrenceResponse{
			Begin:    o.Begin,
			End:      o.End,
			Accepted: o.Accepted,
			Reason:   o.Reason,
		}
		if o.ReservationID != uuid.Nil {
			id := o.ReservationID
			occ.ReservationID = &id
		}
		occurrences = append(occurrences, occ)
	}
	return &SeriesResultResponse{AllocationID: allocationID, Occurrences: occurrences}
}
