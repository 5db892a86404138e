package request

import (
	"time"

	"github.com/google/uuid"
)

type CreateApplicationRequest struct {
	RoundID   uuid.UUID        `json:"round_id" binding:"required"`
	Applicant string           `json:"applicant" binding:"required"`
	Sections  []SectionRequest `json:"sections" binding:"required,min=1,dive"`
}

type SectionRequest struct {
	Name               string                     `json:"name" binding:"required"`
	EventsPerWeek      int                        `json:"events_per_week" binding:"required,min=1"`
	MinDurationMinutes int32                      `json:"min_duration_minutes" binding:"required,min=1"`
	MaxDurationMinutes int32                      `json:"max_duration_minutes" binding:"required,min=1"`
	Begin              time.Time                  `json:"begin" binding:"required"`
	End                time.Time                  `json:"end" binding:"required"`
	Biweekly           bool                       `json:"biweekly"`
	SuitableTimeRanges []SuitableTimeRangeRequest `json:"suitable_time_ranges" binding:"omitempty,dive"`
}

type SuitableTimeRangeRequest struct {
	Weekday      int32  `json:"weekday" binding:"min=0,max=6"`
	StartMinutes int32  `json:"start_minutes" binding:"min=0,max=1440"`
	EndMinutes   int32  `json:"end_minutes" binding:"min=0,max=1440"`
	Priority     string `json:"priority" binding:"omitempty,oneof=primary secondary other"`
}

type FlagApplicationRequest struct {
	Flagged bool `json:"flagged"`
}

type AdvanceApplicationRequest struct {
	Action string `json:"action" binding:"required,oneof=start_allocation mark_handled mark_sent"`
}

type CreateAllocationRequest struct {
	UnitID       uuid.UUID `json:"unit_id" binding:"required"`
	Weekday      int32     `json:"weekday" binding:"min=0,max=6"`
	BeginMinutes int32     `json:"begin_minutes" binding:"min=0,max=1440"`
	EndMinutes   int32     `json:"end_minutes" binding:"required,min=1,max=1440"`
}

type AdvanceSectionRequest struct {
	Action string `json:"action" binding:"required,oneof=validate approve decline"`
}
