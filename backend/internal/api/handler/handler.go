package handler

import "github.com/shinystaratnight/endless-backend-sub001/backend/internal/service"

// Handler aggregates every HTTP handler
type Handler struct {
	JobOffer  *JobOfferHandler
	TimeSheet *TimeSheetHandler
	Pricing   *PricingHandler
	Export    *ExportHandler
	Calendar  *CalendarHandler
}

// NewHandler builds the aggregate
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		JobOffer:  NewJobOfferHandler(svc.JobOffer),
		TimeSheet: NewTimeSheetHandler(svc.TimeSheet, svc.Pricing),
		Pricing:   NewPricingHandler(svc.Pricing),
		Export:    NewExportHandler(svc.Export),
		Calendar:  NewCalendarHandler(svc.Calendar),
	}
}
