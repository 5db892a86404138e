package api

import (
	"context"
	"errors"
	"net/http"

	reqdto "booking-core/internal/handler/dto/request"
	resdto "booking-core/internal/handler/dto/response"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/usecase/commands"
	"booking-core/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReservationHandler struct {
	commands commands.ReservationCommands
	queries  queries.ReservationQueries
}

func NewReservationHandler(cmds commands.ReservationCommands, qrys queries.ReservationQueries) *ReservationHandler {
	return &ReservationHandler{
		commands: cmds,
		queries:  qrys,
	}
}

// @Summary Create reservation
// @Description Create a new reservation with idempotency key
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key for duplicate prevention"
// @Param request body reqdto.CreateReservationRequest true "Reservation request"
// @Success 201 {object} resdto.ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /reservations [post]
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	userID, role, ok := actor(c)
	if !ok {
		return
	}

	idempotencyKey, err := h.getIdempotencyKey(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	var req reqdto.CreateReservationRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.commands.Create(c.Request.Context(), req, userID, role, idempotencyKey)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrReservationUnitNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Reservation unit not found",
			})
		case errors.Is(err, errs.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Reservation type not allowed for this user",
			})
		case errors.Is(err, errs.ErrInvalidTimeSlot):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid time slot",
			})
		case errors.Is(err, errs.ErrDuplicateReservation):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Duplicate reservation request with different parameters",
			})
		case errors.Is(err, errs.ErrIdempotencyInProgress):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Reservation request is currently being processed",
			})
		case errors.Is(err, errs.ErrReservationConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Requested time overlaps another reservation",
			})
		case errors.Is(err, errs.ErrDomainValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": err.Error(),
			})
		case errors.Is(err, errs.ErrOpeningHoursUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Opening hours service unavailable",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.JSON(status, resdto.FromCreateReservationResult(result))
}

// @Summary Get reservation
// @Description Get reservation by ID
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 200 {object} resdto.ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	userID, role, ok := actor(c)
	if !ok {
		return
	}

	id, err := pathID(c)
	if err != nil {
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), userID, role, id)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrReservationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Reservation not found",
			})
		case errors.Is(err, queries.ErrNotOwned):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Reservation belongs to another user",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

// @Summary List own reservations
// @Description List the current user's reservations, newest first
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param after query string false "Pagination cursor from a previous page"
// @Param limit query int false "Page size (default 20, max 200)"
// @Success 200 {object} resdto.ReservationListResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /reservations [get]
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}

	var after *queries.Cursor
	if raw := c.Query("after"); raw != "" {
		after = &queries.Cursor{After: raw}
	}
	limit := intQuery(c, "limit", 0)

	items, next, err := h.queries.ListByUser(c.Request.Context(), userID, after, limit)
	if err != nil {
		if errors.Is(err, queries.ErrInvalidCursor) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid pagination cursor",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var nextCursor *string
	if next != nil {
		nextCursor = &next.After
	}
	c.JSON(http.StatusOK, resdto.FromReservationList(items, nextCursor))
}

// @Summary Adjust reservation time
// @Description Move an existing reservation to a new time slot
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Param request body reqdto.AdjustReservationTimeRequest true "New time slot"
// @Success 200 {object} resdto.ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /reservations/{id}/time [put]
func (h *ReservationHandler) AdjustReservationTime(c *gin.Context) {
	userID, role, ok := actor(c)
	if !ok {
		return
	}

	id, err := pathID(c)
	if err != nil {
		return
	}

	var req reqdto.AdjustReservationTimeRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	view, err := h.commands.AdjustTime(c.Request.Context(), id, req, userID, role)
	if err != nil {
		h.respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

// @Summary Cancel reservation
// @Description Cancel a reservation and release its time slot
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 204
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id} [delete]
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	userID, role, ok := actor(c)
	if !ok {
		return
	}

	id, err := pathID(c)
	if err != nil {
		return
	}

	if err := h.commands.Cancel(c.Request.Context(), id, userID, role); err != nil {
		h.respondMutationError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Confirm reservation
// @Description Staff confirmation of a pending reservation
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 204
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/confirm [post]
func (h *ReservationHandler) ConfirmReservation(c *gin.Context) {
	h.transition(c, h.commands.Confirm)
}

// @Summary Approve reservation
// @Description Staff approval of a reservation waiting for handling
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 204
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/approve [post]
func (h *ReservationHandler) ApproveReservation(c *gin.Context) {
	h.transition(c, h.commands.Approve)
}

// @Summary Deny reservation
// @Description Staff denial of a reservation with a reason
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Param request body reqdto.DenyReservationRequest true "Denial reason"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/deny [post]
func (h *ReservationHandler) DenyReservation(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}

	var req reqdto.DenyReservationRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.commands.Deny(c.Request.Context(), id, req.Reason); err != nil {
		h.respondMutationError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ReservationHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) error) {
	id, err := pathID(c)
	if err != nil {
		return
	}

	if err := fn(c.Request.Context(), id); err != nil {
		h.respondMutationError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ReservationHandler) respondMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrReservationNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Reservation not found",
		})
	case errors.Is(err, errs.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Reservation belongs to another user",
		})
	case errors.Is(err, errs.ErrInvalidTimeSlot):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid time slot",
		})
	case errors.Is(err, errs.ErrReservationConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Requested time overlaps another reservation",
		})
	case errors.Is(err, errs.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Reservation state does not allow this operation",
		})
	case errors.Is(err, errs.ErrDomainValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, errs.ErrOpeningHoursUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Opening hours service unavailable",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

func (h *ReservationHandler) getIdempotencyKey(c *gin.Context) (uuid.UUID, error) {
	keyStr := c.GetHeader("Idempotency-Key")
	if keyStr == "" {
		return uuid.Nil, errs.ErrIdempotencyKeyRequired
	}

	key, err := uuid.Parse(keyStr)
	if err != nil {
		return uuid.Nil, errors.New("invalid idempotency key format")
	}

	return key, nil
}
