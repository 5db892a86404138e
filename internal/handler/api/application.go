package api

import (
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

type ApplicationHandler struct {
	commands commands.ApplicationCommands
	queries  queries.ApplicationQueries
}

func NewApplicationHandler(cmds commands.ApplicationCommands, qrys queries.ApplicationQueries) *ApplicationHandler {
	return &ApplicationHandler{
		commands: cmds,
		queries:  qrys,
	}
}

// @Summary Create application
// @Description Create a seasonal application with its sections in an open round
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateApplicationRequest true "Application request"
// @Success 201 {object} resdto.ApplicationResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /applications [post]
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	userID, _, ok := actor(c)
	if !ok {
		return
	}

	var req reqdto.CreateApplicationRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	view, err := h.commands.Create(c.Request.Context(), req, userID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrRoundNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Application round not found",
			})
		case errors.Is(err, commands.ErrRoundClosed):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Application round is not open",
			})
		case errors.Is(err, errs.ErrDomainValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.FromApplicationView(view))
}

// @Summary Get application
// @Description Get an application with its sections and allocations
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} resdto.ApplicationResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /applications/{id} [get]
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
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
		case errors.Is(err, queries.ErrApplicationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Application not found",
			})
		case errors.Is(err, queries.ErrNotOwned):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Application belongs to another user",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromApplicationView(view))
}

// @Summary List round applications
// @Description List the applications of a round for allocation work
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Round ID"
// @Param limit query int false "Page size (default 20, max 200)"
// @Success 200 {array} resdto.ApplicationListItemResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /rounds/{id}/applications [get]
func (h *ApplicationHandler) ListRoundApplications(c *gin.Context) {
	roundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid round ID format",
		})
		return
	}

	items, err := h.queries.ListByRound(c.Request.Context(), roundID, intQuery(c, "limit", 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	response := make([]*resdto.ApplicationListItemResponse, len(items))
	for i, item := range items {
		response[i] = resdto.FromApplicationListItem(item)
	}
	c.JSON(http.StatusOK, response)
}

// @Summary Send application
// @Description Submit a draft application for handling
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 204
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /applications/{id}/send [post]
func (h *ApplicationHandler) SendApplication(c *gin.Context) {
	userID, role, ok := actor(c)
	if !ok {
		return
	}

	id, err := pathID(c)
	if err != nil {
		return
	}

	if err := h.commands.Send(c.Request.Context(), id, userID, role); err != nil {
		h.respondMutationError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Flag application
// @Description Set or clear the review flag on an application
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param request body reqdto.FlagApplicationRequest true "Flag value"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /applications/{id}/flag [put]
func (h *ApplicationHandler) FlagApplication(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}

	var req reqdto.FlagApplicationRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.commands.SetFlag(c.Request.Context(), id, req.Flagged); err != nil {
		h.respondMutationError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Advance application status
// @Description Move an application through the staff handling statuses
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param request body reqdto.AdvanceApplicationRequest true "Status action"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /applications/{id}/status [put]
func (h *ApplicationHandler) AdvanceApplication(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}

	var req reqdto.AdvanceApplicationRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.commands.Advance(c.Request.Context(), id, req.Action); err != nil {
		h.respondMutationError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ApplicationHandler) respondMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrApplicationNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Application not found",
		})
	case errors.Is(err, errs.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Application belongs to another user",
		})
	case errors.Is(err, errs.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Application status does not allow this operation",
		})
	case errors.Is(err, errs.ErrDomainValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
