package shared

import (
	"time"

	"github.com/google/uuid"
)

// Write-side snapshots prevent dependency on Read-side query types (CQRS separation)

// ReservationSnapshot carries just enough for command-side checks.
type ReservationSnapshot struct {
	ID      uuid.UUID
	UnitIDs []uuid.UUID
	UserID  uuid.UUID
	State   string
	Type    string
	Begin   time.Time
	End     time.Time
}

type RoundSnapshot struct {
	ID                uuid.UUID
	Name              string
	ApplicationBegins time.Time
	ApplicationEnds   time.Time
	ReservationBegins time.Time
	ReservationEnds   time.Time
}

type IdempotencyRecord struct {
	Key                 uuid.UUID
	UserID              uuid.UUID
	Status              string
	RequestHash         string
	ResultReservationID *uuid.UUID
	ExpiresAt           time.Time
}
