package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/dto"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/service"
	"github.com/shinystaratnight/endless-backend-sub001/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler spreadsheet downloads
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportPayLines priced lines of approved timesheets as xlsx
// GET /api/v1/exports/pay-lines?candidate_id=xxx&from=2026-03-01&to=2026-04-01&scope=candidate
func (h *ExportHandler) ExportPayLines(c *gin.Context) {
	var q dto.PayLinesExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "invalid request: "+err.Error())
		return
	}

	buf, filename, err := h.exportSvc.ExportPayLines(c.Request.Context(), &q)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportInvalidRange):
		response.BadRequest(c, 33001, "from and to must be YYYY-MM-DD with from before to")
	case errors.Is(err, service.ErrExportNoTimeSheets):
		response.NotFound(c, 33002, "no approved timesheets in the range")
	case errors.Is(err, service.ErrInvalidModifierScope):
		response.BadRequest(c, 32001, "scope must be company or candidate")
	default:
		response.InternalError(c)
	}
}
