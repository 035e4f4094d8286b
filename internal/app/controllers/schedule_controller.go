package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/unisphere-scheduler/internal/app/models/dto"
	"github.com/yigit/unisphere-scheduler/internal/app/services"
	"github.com/yigit/unisphere-scheduler/internal/middleware"
	"github.com/yigit/unisphere-scheduler/internal/pkg/helpers"
)

// ScheduleController handles schedule generation endpoints
type ScheduleController struct {
	schedulingService services.SchedulingService
}

// NewScheduleController creates a new ScheduleController
func NewScheduleController(schedulingService services.SchedulingService) *ScheduleController {
	return &ScheduleController{
		schedulingService: schedulingService,
	}
}

// GenerateSchedule runs the scheduler for a term
// @Summary Generate a term schedule
// @Description Runs the scheduling engine once for the term. With preview_only the result is returned without being saved;
// @Description otherwise the term's schedule is atomically replaced. Sections that could not be placed are listed in
// @Description `unassigned` and do not make the request fail.
// @Tags schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.GenerateScheduleRequest true "Term and mode"
// @Success 200 {object} dto.APIResponse{data=dto.RunResult} "Run finished"
// @Failure 400 {object} dto.ErrorResponse "Invalid semester or year"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Admin only"
// @Failure 409 {object} dto.ErrorResponse "Another run holds the term"
// @Failure 503 {object} dto.ErrorResponse "Commit failed or run canceled, nothing was saved"
// @Router /schedule/generate [post]
func (c *ScheduleController) GenerateSchedule(ctx *gin.Context) {
	var req dto.GenerateScheduleRequest
	if !middleware.BindAndValidate(ctx, &req) {
		return
	}

	result, err := c.schedulingService.Generate(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	message := "Schedule generated successfully"
	if len(result.Unassigned) > 0 {
		message = "Schedule generated with conflicts"
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, message))
}

// ClearSchedule removes a term's schedule
// @Summary Clear a term schedule
// @Description Removes every persisted assignment of the term. Clearing an empty term succeeds.
// @Tags schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ClearScheduleRequest true "Term"
// @Success 200 {object} dto.APIResponse{data=dto.ClearScheduleResponse} "Schedule cleared"
// @Failure 400 {object} dto.ErrorResponse "Invalid semester or year"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Admin only"
// @Failure 409 {object} dto.ErrorResponse "Another run holds the term"
// @Router /schedule [delete]
func (c *ScheduleController) ClearSchedule(ctx *gin.Context) {
	var req dto.ClearScheduleRequest
	if !middleware.BindAndValidate(ctx, &req) {
		return
	}

	result, err := c.schedulingService.ClearSchedule(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, "Schedule cleared"))
}

// GetScheduleInfo returns dashboard counts
// @Summary Scheduling data pool summary
// @Description Returns section, classroom and instructor counts and the number of weekly time slots.
// @Description With semester and year, sections are counted for that term and the saved schedule is summarized.
// @Tags schedule
// @Produce json
// @Security BearerAuth
// @Param semester query string false "FALL, SPRING or SUMMER"
// @Param year query int false "Academic year"
// @Success 200 {object} dto.APIResponse{data=dto.ScheduleInfoResponse} "Counts"
// @Failure 400 {object} dto.ErrorResponse "Invalid semester or year"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /schedule/info [get]
func (c *ScheduleController) GetScheduleInfo(ctx *gin.Context) {
	semester := ctx.Query("semester")
	year, ok := parseYearQuery(ctx)
	if !ok {
		return
	}

	info, err := c.schedulingService.GetInfo(ctx.Request.Context(), semester, year)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(info, ""))
}

// GetSchedule lists a term's saved schedule
// @Summary List a term schedule
// @Description Returns the persisted assignments of a term ordered by section.
// @Tags schedule
// @Produce json
// @Security BearerAuth
// @Param semester query string true "FALL, SPRING or SUMMER"
// @Param year query int true "Academic year"
// @Param page query int false "Page number (1-based)" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.ScheduledSectionResponse}} "Assignments"
// @Failure 400 {object} dto.ErrorResponse "Invalid semester or year"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /schedule [get]
func (c *ScheduleController) GetSchedule(ctx *gin.Context) {
	year, ok := parseYearQuery(ctx)
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	list, err := c.schedulingService.GetSchedule(ctx.Request.Context(), ctx.Query("semester"), year, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(list, ""))
}

func parseYearQuery(ctx *gin.Context) (int, bool) {
	raw := ctx.Query("year")
	if raw == "" {
		return 0, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid year").
			WithField("year").
			WithDetails("Year must be a valid number")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return year, true
}
