package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/dto"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/pricing"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/repository"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/worktime"
)

// ── Export module business errors ──

var (
	ErrExportInvalidRange = errors.New("from and to must be YYYY-MM-DD with from before to")
	ErrExportNoTimeSheets = errors.New("no approved timesheets in the range")
	ErrExportGenerateFail = errors.New("failed to generate the spreadsheet")
)

// ExportService spreadsheet exports
//
//   - pay lines of approved timesheets, one row per line, plus a summary sheet merged per notes and rate
//   - the range is by shift start, [from, to) in the default zone
//   - the result is returned as a buffer; the handler sets the download headers
type ExportService interface {
	ExportPayLines(ctx context.Context, q *dto.PayLinesExportQuery) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo    *repository.Repository
	pricing *pricingService
	zones   *worktime.Resolver
	logger  *zap.Logger
}

// NewExportService creates an ExportService
func NewExportService(repo *repository.Repository, pricing *pricingService, zones *worktime.Resolver, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, pricing: pricing, zones: zones, logger: logger}
}

const (
	linesSheet   = "Lines"
	summarySheet = "Summary"
	dateLayout   = "2006-01-02"
)

var lineHeaders = []string{"Candidate", "Date", "Site", "Position", "Notes", "Hours", "Rate", "Amount"}

// ═══════════════════════════════════════════════════════════
// ExportPayLines
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportPayLines(ctx context.Context, q *dto.PayLinesExportQuery) (*bytes.Buffer, string, error) {
	loc := s.zones.Default()
	from, errFrom := time.ParseInLocation(dateLayout, q.From, loc)
	to, errTo := time.ParseInLocation(dateLayout, q.To, loc)
	if errFrom != nil || errTo != nil || !to.After(from) {
		return nil, "", ErrExportInvalidRange
	}
	scope := q.Scope
	if scope == "" {
		scope = model.ModifierScopeCandidate
	}

	// 1. approved timesheets in range
	sheets, err := s.repo.TimeSheet.ListApproved(ctx, repository.ApprovedFilter{
		CandidateID: q.CandidateID,
		From:        from,
		To:          to,
	})
	if err != nil {
		s.logger.Error("list approved timesheets failed", zap.Error(err))
		return nil, "", err
	}
	if len(sheets) == 0 {
		return nil, "", ErrExportNoTimeSheets
	}

	// 2. price every timesheet with the same coefficient set
	coefficients, byID, err := s.pricing.coefficients(ctx, scope)
	if err != nil {
		return nil, "", err
	}

	type row struct {
		candidate, date, site, position string
		line                            pricing.PayLine
	}
	var rows []row
	var all []pricing.PayLine
	for i := range sheets {
		ts := &sheets[i]
		lines, _, err := s.pricing.linesFor(ts, scope, coefficients, byID)
		if err != nil {
			s.logger.Warn("timesheet skipped in export", zap.String("time_sheet_id", ts.TimeSheetID), zap.Error(err))
			continue
		}
		candidate, site, position := describe(ts)
		date := ts.ShiftStartedAt.In(s.siteZone(ts)).Format(dateLayout)
		for _, l := range lines {
			rows = append(rows, row{candidate: candidate, date: date, site: site, position: position, line: l})
		}
		all = append(all, lines...)
	}
	if len(rows) == 0 {
		return nil, "", ErrExportNoTimeSheets
	}

	// 3. workbook
	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(linesSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")
	f.NewSheet(summarySheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range lineHeaders {
		f.SetCellValue(linesSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(linesSheet, "A1", cell(colName(len(lineHeaders)-1), 1), headerStyle)
	f.SetColWidth(linesSheet, "A", "A", 24)
	f.SetColWidth(linesSheet, "B", "B", 12)
	f.SetColWidth(linesSheet, "C", "E", 20)

	for i, r := range rows {
		n := i + 2
		f.SetCellValue(linesSheet, cell("A", n), r.candidate)
		f.SetCellValue(linesSheet, cell("B", n), r.date)
		f.SetCellValue(linesSheet, cell("C", n), r.site)
		f.SetCellValue(linesSheet, cell("D", n), r.position)
		f.SetCellValue(linesSheet, cell("E", n), r.line.Notes)
		f.SetCellValue(linesSheet, cell("F", n), r.line.Units.InexactFloat64())
		f.SetCellValue(linesSheet, cell("G", n), r.line.Rate.InexactFloat64())
		f.SetCellValue(linesSheet, cell("H", n), r.line.Amount.InexactFloat64())
	}

	// summary: merged lines plus the total
	f.SetCellValue(summarySheet, "A1", "Notes")
	f.SetCellValue(summarySheet, "B1", "Hours")
	f.SetCellValue(summarySheet, "C1", "Rate")
	f.SetCellValue(summarySheet, "D1", "Amount")
	f.SetCellStyle(summarySheet, "A1", "D1", headerStyle)
	f.SetColWidth(summarySheet, "A", "A", 24)

	n := 2
	for _, l := range pricing.Aggregate(all) {
		f.SetCellValue(summarySheet, cell("A", n), l.Notes)
		f.SetCellValue(summarySheet, cell("B", n), l.Units.InexactFloat64())
		f.SetCellValue(summarySheet, cell("C", n), l.Rate.InexactFloat64())
		f.SetCellValue(summarySheet, cell("D", n), l.Amount.InexactFloat64())
		n++
	}
	f.SetCellValue(summarySheet, cell("A", n), "Total")
	f.SetCellValue(summarySheet, cell("D", n), pricing.Total(all).InexactFloat64())

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write workbook failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("pay-lines_%s_%s_%s.xlsx", scope, q.From, q.To)
	return buf, filename, nil
}

func (s *exportService) siteZone(ts *model.TimeSheet) *time.Location {
	if ts.JobOffer != nil && ts.JobOffer.Shift != nil {
		return s.zones.Resolve(ts.JobOffer.Shift.Timezone())
	}
	return s.zones.Default()
}

func describe(ts *model.TimeSheet) (candidate, site, position string) {
	if ts.JobOffer == nil {
		return "", "", ""
	}
	if ts.JobOffer.Candidate != nil {
		candidate = ts.JobOffer.Candidate.FullName()
	}
	if sh := ts.JobOffer.Shift; sh != nil && sh.ShiftDate != nil && sh.ShiftDate.Job != nil {
		position = sh.ShiftDate.Job.Position
		if sh.ShiftDate.Job.Jobsite != nil {
			site = sh.ShiftDate.Job.Jobsite.Name
		}
	}
	return candidate, site, position
}

// ── helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
