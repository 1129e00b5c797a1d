package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/service"
	"github.com/shinystaratnight/endless-backend-sub001/backend/pkg/jwt"
	"github.com/shinystaratnight/endless-backend-sub001/backend/pkg/response"
)

// CalendarHandler candidate calendar feed
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler creates a CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// CandidateCalendar accepted shifts as iCalendar. Candidates may only read their own.
// GET /api/v1/candidates/:id/calendar.ics
func (h *CalendarHandler) CandidateCalendar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	candidateID := c.Param("id")
	if role == jwt.RoleCandidate && candidateID != userID {
		response.Forbidden(c, 10003, "forbidden")
		return
	}

	ics, err := h.calendarSvc.CandidateCalendar(c.Request.Context(), candidateID)
	if err != nil {
		if errors.Is(err, service.ErrCandidateNotFound) {
			response.NotFound(c, 34001, "candidate not found")
			return
		}
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shifts.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}
