package request

import (
	"time"

	"github.com/google/uuid"
)

type CreateReservationRequest struct {
	UnitIDs             []uuid.UUID `json:"unit_ids" binding:"required,min=1"`
	Begin               time.Time   `json:"begin" binding:"required"`
	End                 time.Time   `json:"end" binding:"required"`
	Type                string      `json:"type,omitempty"`
	BufferBeforeMinutes *int32      `json:"buffer_before_minutes,omitempty" binding:"omitempty,min=0"`
	BufferAfterMinutes  *int32      `json:"buffer_after_minutes,omitempty" binding:"omitempty,min=0"`
}

type AdjustReservationTimeRequest struct {
	Begin time.Time `json:"begin" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
}

type DenyReservationRequest struct {
	Reason string `json:"reason" binding:"required"`
}
