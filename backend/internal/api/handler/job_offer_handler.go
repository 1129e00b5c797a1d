package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/dto"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/service"
	"github.com/shinystaratnight/endless-backend-sub001/backend/pkg/response"
)

// JobOfferHandler job offer endpoints
type JobOfferHandler struct {
	offerSvc service.JobOfferService
}

// NewJobOfferHandler creates a JobOfferHandler
func NewJobOfferHandler(offerSvc service.JobOfferService) *JobOfferHandler {
	return &JobOfferHandler{offerSvc: offerSvc}
}

// Create offers a shift to a candidate
// POST /api/v1/job-offers
func (h *JobOfferHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateJobOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request: "+err.Error())
		return
	}

	resp, err := h.offerSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleJobOfferError(c, err)
		return
	}
	response.Created(c, resp)
}

// Get returns one offer
// GET /api/v1/job-offers/:id
func (h *JobOfferHandler) Get(c *gin.Context) {
	resp, err := h.offerSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleJobOfferError(c, err)
		return
	}
	response.OK(c, resp)
}

// Accept
// POST /api/v1/job-offers/:id/accept
func (h *JobOfferHandler) Accept(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.offerSvc.Accept(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleJobOfferError(c, err)
		return
	}
	response.OK(c, resp)
}

// Cancel
// POST /api/v1/job-offers/:id/cancel
func (h *JobOfferHandler) Cancel(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.offerSvc.Cancel(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleJobOfferError(c, err)
		return
	}
	response.OK(c, resp)
}

// Resend reopens the offer and sends it again
// POST /api/v1/job-offers/:id/resend
func (h *JobOfferHandler) Resend(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.offerSvc.Resend(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleJobOfferError(c, err)
		return
	}
	response.OK(c, resp)
}

// Reply applies the candidate's parsed answer
// POST /api/v1/job-offers/:id/reply
func (h *JobOfferHandler) Reply(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.JobOfferReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request: "+err.Error())
		return
	}

	resp, err := h.offerSvc.ProcessReply(c.Request.Context(), c.Param("id"), req.Positive, userID)
	if err != nil {
		h.handleJobOfferError(c, err)
		return
	}
	response.OK(c, resp)
}

// Quota reports whether the offer's shift is full
// GET /api/v1/job-offers/:id/quota
func (h *JobOfferHandler) Quota(c *gin.Context) {
	resp, err := h.offerSvc.IsQuotaFilled(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleJobOfferError(c, err)
		return
	}
	response.OK(c, resp)
}

func (h *JobOfferHandler) handleJobOfferError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrJobOfferNotFound):
		response.NotFound(c, 30001, "job offer not found")
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 30002, "shift not found")
	case errors.Is(err, service.ErrCandidateNotFound):
		response.NotFound(c, 30003, "candidate not found")
	case errors.Is(err, service.ErrShiftFulfilled):
		response.Conflict(c, 30004, "shift already has all the workers it needs")
	case errors.Is(err, service.ErrOfferCancelled):
		response.Conflict(c, 30005, "job offer is cancelled")
	case errors.Is(err, service.ErrOfferAccepted):
		response.Conflict(c, 30006, "job offer is already accepted")
	case errors.Is(err, service.ErrAmbiguousReply):
		response.BadRequest(c, 30007, "reply is neither yes nor no")
	case errors.Is(err, service.ErrDuplicateOffer):
		response.Conflict(c, 30008, "candidate already has an open offer for this shift")
	default:
		response.InternalError(c)
	}
}
