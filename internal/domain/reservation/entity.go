package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrReservationInactive    = errors.New("reservation is no longer active")
	ErrNoUnits                = errors.New("reservation needs at least one reservation unit")
)

// Reservation is a confirmed or tentative occupation of one or more
// reservation units over a time slot. Units booked together share the
// slot and the combined buffers.
type Reservation struct {
	id                uuid.UUID
	unitIDs           []uuid.UUID
	userID            uuid.UUID
	slot              TimeSlot
	state             State
	typ               Type
	bufferBefore      time.Duration
	bufferAfter       time.Duration
	price             PriceBreakdown
	denyReason        *string
	paymentDeadline   *time.Time
	orderID           *string
	orderCancelFailed bool
	createdAt         time.Time
	updatedAt         time.Time
}

func NewReservation(
	unitIDs []uuid.UUID,
	userID uuid.UUID,
	slot TimeSlot,
	typ Type,
	bufferBefore, bufferAfter time.Duration,
	price PriceBreakdown,
) (*Reservation, error) {
	if len(unitIDs) == 0 {
		return nil, ErrNoUnits
	}
	if !typ.IsValid() {
		return nil, errors.New("invalid reservation type")
	}

	return &Reservation{
		id:           uuid.New(),
		unitIDs:      unitIDs,
		userID:       userID,
		slot:         slot,
		state:        StateCreated,
		typ:          typ,
		bufferBefore: bufferBefore,
		bufferAfter:  bufferAfter,
		price:        price,
	}, nil
}

// NewDeniedOccurrence builds a reservation that records a seasonal
// occurrence which failed validation. The series keeps going; the
// denied row preserves what was attempted and why.
func NewDeniedOccurrence(
	unitIDs []uuid.UUID,
	userID uuid.UUID,
	slot TimeSlot,
	reason string,
) *Reservation {
	return &Reservation{
		id:         uuid.New(),
		unitIDs:    unitIDs,
		userID:     userID,
		slot:       slot,
		state:      StateDenied,
		typ:        TypeSeasonal,
		denyReason: &reason,
	}
}

func ReconstructReservation(
	id uuid.UUID,
	unitIDs []uuid.UUID,
	userID uuid.UUID,
	slot TimeSlot,
	state State,
	typ Type,
	bufferBefore, bufferAfter time.Duration,
	price PriceBreakdown,
	denyReason *string,
	paymentDeadline *time.Time,
	orderID *string,
	orderCancelFailed bool,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:                id,
		unitIDs:           unitIDs,
		userID:            userID,
		slot:              slot,
		state:             state,
		typ:               typ,
		bufferBefore:      bufferBefore,
		bufferAfter:       bufferAfter,
		price:             price,
		denyReason:        denyReason,
		paymentDeadline:   paymentDeadline,
		orderID:           orderID,
		orderCancelFailed: orderCancelFailed,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

func (r *Reservation) RequirePayment(deadline time.Time, orderID string) error {
	if r.state != StateCreated {
		return ErrInvalidStateTransition
	}
	r.state = StateWaitingForPayment
	r.paymentDeadline = &deadline
	r.orderID = &orderID
	return nil
}

func (r *Reservation) Confirm() error {
	switch r.state {
	case StateCreated, StateRequiresHandling, StateWaitingForPayment:
		r.state = StateConfirmed
		return nil
	default:
		return ErrInvalidStateTransition
	}
}

func (r *Reservation) RequireHandling() error {
	switch r.state {
	case StateCreated, StateConfirmed:
		r.state = StateRequiresHandling
		return nil
	default:
		return ErrInvalidStateTransition
	}
}

func (r *Reservation) Deny(reason string) error {
	switch r.state {
	case StateCreated, StateRequiresHandling:
		r.state = StateDenied
		r.denyReason = &reason
		return nil
	default:
		return ErrInvalidStateTransition
	}
}

func (r *Reservation) Cancel() error {
	switch r.state {
	case StateCreated, StateConfirmed, StateWaitingForPayment:
		r.state = StateCancelled
		return nil
	default:
		return ErrInvalidStateTransition
	}
}

// AdjustTime moves an active reservation to a new slot. Validation
// against other reservations happens in the scheduling engine before
// this is called.
func (r *Reservation) AdjustTime(slot TimeSlot, bufferBefore, bufferAfter time.Duration, price PriceBreakdown) error {
	if !r.state.IsActive() {
		return ErrReservationInactive
	}
	r.slot = slot
	r.bufferBefore = bufferBefore
	r.bufferAfter = bufferAfter
	r.price = price
	return nil
}

// ExpireUnpaid cancels a reservation whose payment deadline has passed.
// Returns false when the reservation is not expirable.
func (r *Reservation) ExpireUnpaid(now time.Time) bool {
	if r.state != StateWaitingForPayment || r.paymentDeadline == nil {
		return false
	}
	if now.Before(*r.paymentDeadline) {
		return false
	}
	r.state = StateCancelled
	return true
}

// MarkOrderCancelFailed records that the webshop refused or failed to
// cancel the remote order. Local state stays authoritative; the flag
// exists for manual follow-up.
func (r *Reservation) MarkOrderCancelFailed() {
	r.orderCancelFailed = true
}

func (r *Reservation) HasExpired(now time.Time) bool {
	return now.After(r.slot.End())
}

func (r *Reservation) ID() uuid.UUID                 { return r.id }
func (r *Reservation) UnitIDs() []uuid.UUID          { return r.unitIDs }
func (r *Reservation) UserID() uuid.UUID             { return r.userID }
func (r *Reservation) Slot() TimeSlot                { return r.slot }
func (r *Reservation) State() State                  { return r.state }
func (r *Reservation) Type() Type                    { return r.typ }
func (r *Reservation) BufferBefore() time.Duration   { return r.bufferBefore }
func (r *Reservation) BufferAfter() time.Duration    { return r.bufferAfter }
func (r *Reservation) Price() PriceBreakdown         { return r.price }
func (r *Reservation) DenyReason() *string           { return r.denyReason }
func (r *Reservation) PaymentDeadline() *time.Time   { return r.paymentDeadline }
func (r *Reservation) OrderID() *string              { return r.orderID }
func (r *Reservation) OrderCancelFailed() bool       { return r.orderCancelFailed }
func (r *Reservation) CreatedAt() time.Time          { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time          { return r.updatedAt }
