package response

import (
	"time"

	"booking-core/internal/usecase/queries"

	"github.com/google/uuid"
)

type AvailabilityResponse struct {
	UnitID          uuid.UUID   `json:"unitId"`
	Date            string      `json:"date"`
	DurationMinutes int32       `json:"durationMinutes"`
	StartTimes      []time.Time `json:"startTimes"`
}

func FromAvailabilityView(av *queries.AvailabilityView) *AvailabilityResponse {
	return &AvailabilityResponse{
		UnitID:          av.UnitID,
		Date:            av.Date,
		DurationMinutes: av.Duration,
		StartTimes:      av.StartTimes,
	}
}
