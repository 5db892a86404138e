package api

import (
	"errors"
	"net/http"

	reqdto "booking-core/internal/handler/dto/request"
	resdto "booking-core/internal/handler/dto/response"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type AllocationHandler struct {
	commands commands.AllocationCommands
}

func NewAllocationHandler(cmds commands.AllocationCommands) *AllocationHandler {
	return &AllocationHandler{commands: cmds}
}

// @Summary Allocate a time slot
// @Description Attach a weekly time slot to a section during allocation
// @Tags allocations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Section ID"
// @Param request body reqdto.CreateAllocationRequest true "Allocation request"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /sections/{id}/allocations [post]
func (h *AllocationHandler) CreateAllocation(c *gin.Context) {
	sectionID, err := pathID(c)
	if err != nil {
		return
	}

	var req reqdto.CreateAllocationRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	id, err := h.commands.CreateAllocation(c.Request.Context(), sectionID, req)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrSectionNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Section not found",
			})
		case errors.Is(err, errs.ErrReservationUnitNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Reservation unit not found",
			})
		case errors.Is(err, errs.ErrStatusConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Section status does not allow allocation",
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

	c.JSON(http.StatusCreated, gin.H{"id": id.String()})
}

// @Summary Advance section status
// @Description Validate, approve or decline a section
// @Tags allocations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Section ID"
// @Param request body reqdto.AdvanceSectionRequest true "Status action"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /sections/{id}/status [put]
func (h *AllocationHandler) AdvanceSection(c *gin.Context) {
	sectionID, err := pathID(c)
	if err != nil {
		return
	}

	var req reqdto.AdvanceSectionRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.commands.AdvanceSection(c.Request.Context(), sectionID, req.Action); err != nil {
		switch {
		case errors.Is(err, errs.ErrSectionNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Section not found",
			})
		case errors.Is(err, commands.ErrSectionTransition):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Unknown section status action",
			})
		case errors.Is(err, errs.ErrStatusConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Section status does not allow this transition",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Decline allocation
// @Description Applicant declines an allocated time slot
// @Tags allocations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Allocation ID"
// @Success 204
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /allocations/{id}/decline [post]
func (h *AllocationHandler) DeclineAllocation(c *gin.Context) {
	allocationID, err := pathID(c)
	if err != nil {
		return
	}

	if err := h.commands.Decline(c.Request.Context(), allocationID); err != nil {
		switch {
		case errors.Is(err, errs.ErrAllocationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Allocation not found",
			})
		case errors.Is(err, errs.ErrStatusConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Allocation cannot be declined",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Apply allocation series
// @Description Expand an approved allocation into its weekly reservations
// @Tags allocations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Allocation ID"
// @Success 200 {object} resdto.SeriesResultResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /allocations/{id}/apply [post]
func (h *AllocationHandler) ApplySeries(c *gin.Context) {
	allocationID, err := pathID(c)
	if err != nil {
		return
	}

	outcomes, err := h.commands.ApplySeries(c.Request.Context(), allocationID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrAllocationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Allocation not found",
			})
		case errors.Is(err, errs.ErrReservationUnitNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Reservation unit not found",
			})
		case errors.Is(err, commands.ErrSectionNotApproved):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Section is not approved",
			})
		case errors.Is(err, commands.ErrAllocationApplied):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Allocation has already been applied",
			})
		case errors.Is(err, errs.ErrStatusConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Allocation state does not allow series generation",
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

	c.JSON(http.StatusOK, resdto.FromSeriesOutcomes(allocationID, outcomes))
}
