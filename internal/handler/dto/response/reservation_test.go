package response_test

import (
	"testing"
	"time"

	"booking-core/internal/handler/dto/response"
	"booking-core/internal/usecase/commands"
	"booking-core/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The converters copy by field name, so every view field must land in
// the response. A populated view with no zero values catches a renamed
// field going silently missing.
func TestFromReservationView(t *testing.T) {
	deadline := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	orderID := "order-1"
	reason := "double booking"

	view := &queries.ReservationView{
		ID:                      uuid.New(),
		UnitIDs:                 []uuid.UUID{uuid.New(), uuid.New()},
		UnitNames:               []string{"Sauna 1", "Sauna 2"},
		UserID:                  uuid.New(),
		Begin:                   time.Date(2024, 6, 4, 12, 0, 0, 0, time.UTC),
		End:                     time.Date(2024, 6, 4, 14, 0, 0, 0, time.UTC),
		State:                   "confirmed",
		Type:                    "normal",
		BufferBeforeMinutes:     15,
		BufferAfterMinutes:      30,
		PriceCents:              4500,
		NetPriceCents:           3629,
		UnitPriceCents:          2250,
		NonSubsidisedPriceCents: 6000,
		TaxPercentage:           24,
		DenyReason:              &reason,
		PaymentDeadline:         &deadline,
		OrderID:                 &orderID,
		CreatedAt:               time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
		UpdatedAt:               time.Date(2024, 6, 3, 9, 5, 0, 0, time.UTC),
	}

	got := response.FromReservationView(view)

	assert.Equal(t, view.ID, got.ID)
	assert.Equal(t, view.UnitIDs, got.UnitIDs)
	assert.Equal(t, view.UnitNames, got.UnitNames)
	assert.Equal(t, view.UserID, got.UserID)
	assert.Equal(t, view.Begin, got.Begin)
	assert.Equal(t, view.End, got.End)
	assert.Equal(t, view.State, got.State)
	assert.Equal(t, view.Type, got.Type)
	assert.Equal(t, view.BufferBeforeMinutes, got.BufferBeforeMinutes)
	assert.Equal(t, view.BufferAfterMinutes, got.BufferAfterMinutes)
	assert.Equal(t, view.PriceCents, got.PriceCents)
	assert.Equal(t, view.NetPriceCents, got.NetPriceCents)
	assert.Equal(t, view.UnitPriceCents, got.UnitPriceCents)
	assert.Equal(t, view.NonSubsidisedPriceCents, got.NonSubsidisedPriceCents)
	assert.Equal(t, view.TaxPercentage, got.TaxPercentage)
	require.NotNil(t, got.DenyReason)
	assert.Equal(t, reason, *got.DenyReason)
	require.NotNil(t, got.PaymentDeadline)
	assert.Equal(t, deadline, *got.PaymentDeadline)
	require.NotNil(t, got.OrderID)
	assert.Equal(t, orderID, *got.OrderID)
	assert.Equal(t, view.CreatedAt, got.CreatedAt)
	assert.Equal(t, view.UpdatedAt, got.UpdatedAt)
	assert.Nil(t, got.CheckoutURL)
}

func TestFromCreateReservationResult(t *testing.T) {
	url := "https://shop.example/checkout/order-1"
	result := &commands.CreateReservationResult{
		Reservation: &queries.ReservationView{ID: uuid.New(), State: "waiting_for_payment"},
		CheckoutURL: &url,
	}

	got := response.FromCreateReservationResult(result)

	assert.Equal(t, result.Reservation.ID, got.ID)
	require.NotNil(t, got.CheckoutURL)
	assert.Equal(t, url, *got.CheckoutURL)
}

func TestFromReservationListItem(t *testing.T) {
	item := &queries.ReservationListItem{
		ID:         uuid.New(),
		UnitNames:  []string{"Meeting room A"},
		Begin:      time.Date(2024, 6, 4, 12, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 6, 4, 13, 0, 0, 0, time.UTC),
		State:      "confirmed",
		Type:       "normal",
		PriceCents: 1500,
		CreatedAt:  time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
	}

	got := response.FromReservationListItem(item)

	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, item.UnitNames, got.UnitNames)
	assert.Equal(t, item.Begin, got.Begin)
	assert.Equal(t, item.End, got.End)
	assert.Equal(t, item.State, got.State)
	assert.Equal(t, item.Type, got.Type)
	assert.Equal(t, item.PriceCents, got.PriceCents)
	assert.Equal(t, item.CreatedAt, got.CreatedAt)
}
