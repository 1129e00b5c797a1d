package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/dto"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/service"
	pkgerrors "github.com/shinystaratnight/endless-backend-sub001/backend/pkg/errors"
	"github.com/shinystaratnight/endless-backend-sub001/backend/pkg/response"
)

// TimeSheetHandler timesheet endpoints
type TimeSheetHandler struct {
	sheetSvc   service.TimeSheetService
	pricingSvc service.PricingService
}

// NewTimeSheetHandler creates a TimeSheetHandler
func NewTimeSheetHandler(sheetSvc service.TimeSheetService, pricingSvc service.PricingService) *TimeSheetHandler {
	return &TimeSheetHandler{sheetSvc: sheetSvc, pricingSvc: pricingSvc}
}

// Get
// GET /api/v1/timesheets/:id
func (h *TimeSheetHandler) Get(c *gin.Context) {
	resp, err := h.sheetSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTimeSheetError(c, err)
		return
	}
	response.OK(c, resp)
}

// History lists the workflow transitions, oldest first
// GET /api/v1/timesheets/:id/history
func (h *TimeSheetHandler) History(c *gin.Context) {
	resp, err := h.sheetSvc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTimeSheetError(c, err)
		return
	}
	response.OK(c, resp)
}

// Attendance answers the going-to-work check
// POST /api/v1/timesheets/:id/attendance
func (h *TimeSheetHandler) Attendance(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request: "+err.Error())
		return
	}

	resp, err := h.sheetSvc.ConfirmAttendance(c.Request.Context(), c.Param("id"), *req.Confirmed, userID)
	if err != nil {
		h.handleTimeSheetError(c, err)
		return
	}
	response.OK(c, resp)
}

// Submit records the worker's times
// POST /api/v1/timesheets/:id/submit
func (h *TimeSheetHandler) Submit(c *gin.Context) {
	h.withTimes(c, h.sheetSvc.Submit)
}

// Modify is a supervisor correction
// POST /api/v1/timesheets/:id/modify
func (h *TimeSheetHandler) Modify(c *gin.Context) {
	h.withTimes(c, h.sheetSvc.Modify)
}

// Approve
// POST /api/v1/timesheets/:id/approve
func (h *TimeSheetHandler) Approve(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.sheetSvc.Approve(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleTimeSheetError(c, err)
		return
	}
	response.OK(c, resp)
}

// PayLines prices the timesheet, candidate scope unless asked otherwise
// GET /api/v1/timesheets/:id/pay-lines?scope=company
func (h *TimeSheetHandler) PayLines(c *gin.Context) {
	var q dto.PayLinesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "invalid request: "+err.Error())
		return
	}
	if q.Scope == "" {
		q.Scope = model.ModifierScopeCandidate
	}

	resp, err := h.pricingSvc.PayLines(c.Request.Context(), c.Param("id"), q.Scope)
	if err != nil {
		h.handleTimeSheetError(c, err)
		return
	}
	response.OK(c, resp)
}

type timesFn func(ctx context.Context, id string, req *dto.TimeSheetTimesRequest, actorID string) (*dto.TimeSheetResponse, error)

func (h *TimeSheetHandler) withTimes(c *gin.Context, fn timesFn) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.TimeSheetTimesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request: "+err.Error())
		return
	}

	resp, err := fn(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		h.handleTimeSheetError(c, err)
		return
	}
	response.OK(c, resp)
}

func (h *TimeSheetHandler) handleTimeSheetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimeSheetNotFound):
		response.NotFound(c, 31001, "timesheet not found")
	case errors.Is(err, service.ErrTransitionNotAllowed):
		response.Conflict(c, 31002, "timesheet cannot move to that state now")
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 31003, "shift end must be after start and the break inside the shift")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 31004, "timesheet was modified concurrently, reload and retry")
	case errors.Is(err, service.ErrTimeSheetIncomplete):
		response.Conflict(c, 32002, "timesheet has no start or end time")
	case errors.Is(err, service.ErrInvalidModifierScope):
		response.BadRequest(c, 32001, "scope must be company or candidate")
	default:
		response.InternalError(c)
	}
}
