package response

import (
	"time"

	"booking-core/internal/usecase/commands"
	"booking-core/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ReservationResponse struct {
	ID                      uuid.UUID   `json:"id"`
	UnitIDs                 []uuid.UUID `json:"unitIds"`
	UnitNames               []string    `json:"unitNames"`
	UserID                  uuid.UUID   `json:"userId"`
	Begin                   time.Time   `json:"begin"`
	End                     time.Time   `json:"end"`
	State                   string      `json:"state"`
	Type                    string      `json:"type"`
	BufferBeforeMinutes     int32       `json:"bufferBeforeMinutes"`
	BufferAfterMinutes      int32       `json:"bufferAfterMinutes"`
	PriceCents              int64       `json:"priceCents"`
	NetPriceCents           int64       `json:"netPriceCents"`
	UnitPriceCents          int64       `json:"unitPriceCents"`
	NonSubsidisedPriceCents int64       `json:"nonSubsidisedPriceCents"`
	TaxPercentage           float64     `json:"taxPercentage"`
	DenyReason              *string     `json:"denyReason,omitempty"`
	PaymentDeadline         *time.Time  `json:"paymentDeadline,omitempty"`
	OrderID                 *string     `json:"orderId,omitempty"`
	CheckoutURL             *string     `json:"checkoutUrl,omitempty"`
	CreatedAt               time.Time   `json:"createdAt"`
	UpdatedAt               time.Time   `json:"updatedAt"`
}

type ReservationListItemResponse struct {
	ID         uuid.UUID `json:"id"`
	UnitNames  []string  `json:"unitNames"`
	Begin      time.Time `json:"begin"`
	End        time.Time `json:"end"`
	State      string    `json:"state"`
	Type       string    `json:"type"`
	PriceCents int64     `json:"priceCents"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ReservationListResponse struct {
	Items      []*ReservationListItemResponse `json:"items"`
	NextCursor *string                        `json:"nextCursor,omitempty"`
}

// View and response fields share names, so the flat converters copy
// by field name. CheckoutURL has no view counterpart and stays unset.
func FromReservationView(rm *queries.ReservationView) *ReservationResponse {
	var resp ReservationResponse
	_ = copier.Copy(&resp, rm)
	return &resp
}

func FromCreateReservationResult(result *commands.CreateReservationResult) *ReservationResponse {
	resp := FromReservationView(result.Reservation)
	resp.CheckoutURL = result.CheckoutURL
	return resp
}

func FromReservationListItem(rm *queries.ReservationListItem) *ReservationListItemResponse {
	var resp ReservationListItemResponse
	_ = copier.Copy(&resp, rm)
	return &resp
}

func FromReservationList(items []*queries.ReservationListItem, nextCursor *string) *ReservationListResponse {
	out := make([]*ReservationListItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, FromReservationListItem(item))
	}
	return &ReservationListResponse{Items: out, NextCursor: nextCursor}
}
