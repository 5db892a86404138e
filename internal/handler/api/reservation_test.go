package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"booking-core/internal/domain/user"
	"booking-core/internal/handler/api"
	reqdto "booking-core/internal/handler/dto/request"
	resdto "booking-core/internal/handler/dto/response"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/usecase/commands"
	"booking-core/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type fakeReservationCommands struct {
	createResult *commands.CreateReservationResult
	createErr    error
	adjustView   *queries.ReservationView
	adjustErr    error
	cancelErr    error
	confirmErr   error
	approveErr   error
	denyErr      error

	lastDenyReason string
}

func (f *fakeReservationCommands) Create(_ context.Context, _ reqdto.CreateReservationRequest, _ uuid.UUID, _ user.Role, _ uuid.UUID) (*commands.CreateReservationResult, error) {
	return f.createResult, f.createErr
}

func (f *fakeReservationCommands) AdjustTime(_ context.Context, _ uuid.UUID, _ reqdto.AdjustReservationTimeRequest, _ uuid.UUID, _ user.Role) (*queries.ReservationView, error) {
	return f.adjustView, f.adjustErr
}

func (f *fakeReservationCommands) Cancel(_ context.Context, _ uuid.UUID, _ uuid.UUID, _ user.Role) error {
	return f.cancelErr
}

func (f *fakeReservationCommands) Confirm(_ context.Context, _ uuid.UUID) error { return f.confirmErr }
func (f *fakeReservationCommands) Approve(_ context.Context, _ uuid.UUID) error { return f.approveErr }

func (f *fakeReservationCommands) Deny(_ context.Context, _ uuid.UUID, reason string) error {
	f.lastDenyReason = reason
	return f.denyErr
}

type fakeReservationQueries struct {
	view    *queries.ReservationView
	viewErr error
	items   []*queries.ReservationListItem
	next    *queries.Cursor
	listErr error
}

func (f *fakeReservationQueries) GetByID(_ context.Context, _ uuid.UUID, _ user.Role, _ uuid.UUID) (*queries.ReservationView, error) {
	return f.view, f.viewErr
}

func (f *fakeReservationQueries) GetByIDSystem(_ context.Context, _ uuid.UUID) (*queries.ReservationView, error) {
	return f.view, f.viewErr
}

func (f *fakeReservationQueries) ListByUser(_ context.Context, _ uuid.UUID, _ *queries.Cursor, _ int) ([]*queries.ReservationListItem, *queries.Cursor, error) {
	return f.items, f.next, f.listErr
}

type ReservationHandlerTestSuite struct {
	suite.Suite
	router   *gin.Engine
	commands *fakeReservationCommands
	queries  *fakeReservationQueries
}

func (s *ReservationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.commands = &fakeReservationCommands{}
	s.queries = &fakeReservationQueries{}
	handler := api.NewReservationHandler(s.commands, s.queries)

	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("user_id", uuid.New())
		c.Set("user_role", user.RoleViewer)
		c.Next()
	}

	s.router.POST("/reservations", authMiddleware, handler.CreateReservation)
	s.router.GET("/reservations", authMiddleware, handler.ListReservations)
	s.router.GET("/reservations/:id", authMiddleware, handler.GetReservation)
	s.router.DELETE("/reservations/:id", authMiddleware, handler.CancelReservation)
	s.router.POST("/reservations/:id/confirm", authMiddleware, handler.ConfirmReservation)
	s.router.POST("/reservations/:id/deny", authMiddleware, handler.DenyReservation)
}

func TestReservationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReservationHandlerTestSuite))
}

func (s *ReservationHandlerTestSuite) perform(method, url string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func validCreateRequest() reqdto.CreateReservationRequest {
	return reqdto.CreateReservationRequest{
		UnitIDs: []uuid.UUID{uuid.New()},
		Begin:   time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC),
	}
}

func authedHeaders() map[string]string {
	return map[string]string{
		"Authorization":   "Bearer token",
		"Idempotency-Key": uuid.NewString(),
	}
}

func (s *ReservationHandlerTestSuite) TestCreateReservation() {
	view := &queries.ReservationView{
		ID:     uuid.New(),
		UserID: uuid.New(),
		State:  "confirmed",
		Type:   "normal",
	}

	s.Run("success: returns 201 Created", func() {
		checkout := "https://checkout.example/session"
		s.commands.createResult = &commands.CreateReservationResult{Reservation: view, CheckoutURL: &checkout}
		s.commands.createErr = nil

		rec := s.perform(http.MethodPost, "/reservations", validCreateRequest(), authedHeaders())

		s.Equal(http.StatusCreated, rec.Code)
		var resp resdto.ReservationResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal(view.ID, resp.ID)
		s.Require().NotNil(resp.CheckoutURL)
		s.Equal(checkout, *resp.CheckoutURL)
	})

	s.Run("success: replayed request returns 200 OK", func() {
		s.commands.createResult = &commands.CreateReservationResult{Reservation: view, IsReplayed: true}
		s.commands.createErr = nil

		rec := s.perform(http.MethodPost, "/reservations", validCreateRequest(), authedHeaders())
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("error: 400 without idempotency key", func() {
		rec := s.perform(http.MethodPost, "/reservations", validCreateRequest(), map[string]string{
			"Authorization": "Bearer token",
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 400 for malformed idempotency key", func() {
		rec := s.perform(http.MethodPost, "/reservations", validCreateRequest(), map[string]string{
			"Authorization":   "Bearer token",
			"Idempotency-Key": "not-a-uuid",
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 400 for missing unit ids", func() {
		req := validCreateRequest()
		req.UnitIDs = nil
		rec := s.perform(http.MethodPost, "/reservations", req, authedHeaders())
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 401 when unauthenticated", func() {
		rec := s.perform(http.MethodPost, "/reservations", validCreateRequest(), nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
		}{
			{name: "unit not found", commandsError: errs.ErrReservationUnitNotFound, expectedStatus: http.StatusNotFound},
			{name: "type forbidden", commandsError: errs.ErrForbidden, expectedStatus: http.StatusForbidden},
			{name: "invalid time slot", commandsError: errs.ErrInvalidTimeSlot, expectedStatus: http.StatusBadRequest},
			{name: "duplicate request", commandsError: errs.ErrDuplicateReservation, expectedStatus: http.StatusConflict},
			{name: "request in progress", commandsError: errs.ErrIdempotencyInProgress, expectedStatus: http.StatusConflict},
			{name: "time overlap", commandsError: errs.ErrReservationConflict, expectedStatus: http.StatusConflict},
			{name: "domain validation", commandsError: errs.ErrDomainValidation, expectedStatus: http.StatusUnprocessableEntity},
			{name: "opening hours down", commandsError: errs.ErrOpeningHoursUnavailable, expectedStatus: http.StatusServiceUnavailable},
			{name: "internal error", commandsError: errors.New("database error"), expectedStatus: http.StatusInternalServerError},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.commands.createResult = nil
				s.commands.createErr = tc.commandsError

				rec := s.perform(http.MethodPost, "/reservations", validCreateRequest(), authedHeaders())
				s.Equal(tc.expectedStatus, rec.Code)
			})
		}
	})
}

func (s *ReservationHandlerTestSuite) TestGetReservation() {
	reservationID := uuid.New()
	url := "/reservations/" + reservationID.String()
	headers := map[string]string{"Authorization": "Bearer token"}

	s.Run("success: returns 200 OK with reservation", func() {
		s.queries.view = &queries.ReservationView{ID: reservationID, State: "confirmed"}
		s.queries.viewErr = nil

		rec := s.perform(http.MethodGet, url, nil, headers)

		s.Equal(http.StatusOK, rec.Code)
		var resp resdto.ReservationResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal(reservationID, resp.ID)
	})

	s.Run("error: 400 for invalid UUID", func() {
		rec := s.perform(http.MethodGet, "/reservations/invalid-uuid", nil, headers)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 404 for missing reservation", func() {
		s.queries.view = nil
		s.queries.viewErr = queries.ErrReservationNotFound

		rec := s.perform(http.MethodGet, url, nil, headers)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("error: 403 for foreign reservation", func() {
		s.queries.view = nil
		s.queries.viewErr = queries.ErrNotOwned

		rec := s.perform(http.MethodGet, url, nil, headers)
		s.Equal(http.StatusForbidden, rec.Code)
	})
}

func (s *ReservationHandlerTestSuite) TestListReservations() {
	headers := map[string]string{"Authorization": "Bearer token"}

	s.Run("success: returns items and next cursor", func() {
		s.queries.items = []*queries.ReservationListItem{
			{ID: uuid.New(), State: "confirmed"},
			{ID: uuid.New(), State: "cancelled"},
		}
		s.queries.next = &queries.Cursor{After: "next123"}
		s.queries.listErr = nil

		rec := s.perform(http.MethodGet, "/reservations?limit=2", nil, headers)

		s.Equal(http.StatusOK, rec.Code)
		var resp resdto.ReservationListResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Len(resp.Items, 2)
		s.Require().NotNil(resp.NextCursor)
		s.Equal("next123", *resp.NextCursor)
	})

	s.Run("error: 400 for invalid cursor", func() {
		s.queries.items = nil
		s.queries.next = nil
		s.queries.listErr = queries.ErrInvalidCursor

		rec := s.perform(http.MethodGet, "/reservations?after=garbage", nil, headers)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *ReservationHandlerTestSuite) TestCancelReservation() {
	url := "/reservations/" + uuid.NewString()
	headers := map[string]string{"Authorization": "Bearer token"}

	s.Run("success: returns 204 No Content", func() {
		s.commands.cancelErr = nil
		rec := s.perform(http.MethodDelete, url, nil, headers)
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("error: 409 when state forbids cancelling", func() {
		s.commands.cancelErr = errs.ErrStatusConflict
		rec := s.perform(http.MethodDelete, url, nil, headers)
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *ReservationHandlerTestSuite) TestConfirmReservation() {
	url := "/reservations/" + uuid.NewString() + "/confirm"
	headers := map[string]string{"Authorization": "Bearer token"}

	s.Run("success: returns 204 No Content", func() {
		s.commands.confirmErr = nil
		rec := s.perform(http.MethodPost, url, nil, headers)
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("error: 409 on state conflict", func() {
		s.commands.confirmErr = errs.ErrStatusConflict
		rec := s.perform(http.MethodPost, url, nil, headers)
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *ReservationHandlerTestSuite) TestDenyReservation() {
	url := "/reservations/" + uuid.NewString() + "/deny"
	headers := map[string]string{"Authorization": "Bearer token"}

	s.Run("success: passes reason through", func() {
		s.commands.denyErr = nil
		rec := s.perform(http.MethodPost, url, reqdto.DenyReservationRequest{Reason: "double booking"}, headers)

		s.Equal(http.StatusNoContent, rec.Code)
		s.Equal("double booking", s.commands.lastDenyReason)
	})

	s.Run("error: 400 for missing reason", func() {
		rec := s.perform(http.MethodPost, url, map[string]any{}, headers)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}
