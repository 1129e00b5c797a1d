package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/shinystaratnight/endless-backend-sub001/backend/config"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/dto"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/repository"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/workflow"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/worktime"
)

// ── Test helpers ──

var london, _ = time.LoadLocation("Europe/London")

func londonTime(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, london)
}

func testConfig() *config.Config {
	return &config.Config{
		Offer: config.OfferConfig{
			ResendDelay:      10 * time.Second,
			ImmediateDelay:   10 * time.Second,
			MorningHour:      10,
			DayBoundaryHour:  5,
			LateWindow:       time.Hour,
			GraceAfterStart:  2 * time.Hour,
			MorningCutoff:    90 * time.Minute,
			FastTrackHorizon: 96 * time.Hour,
			ShortNotice:      time.Hour,
		},
		TimeSheet: config.TimeSheetConfig{
			BreakStartOffset: 5 * time.Hour,
			BreakLength:      30 * time.Minute,
			ShiftLength:      8*time.Hour + 30*time.Minute,
			GoingToWorkLead:  2 * time.Hour,
			PlacementGrace:   2 * time.Hour,
			AutoApproveAfter: 72 * time.Hour,
			AutoFillLength:   4 * time.Hour,
		},
		Timezone: config.TimezoneConfig{Default: "Europe/London"},
	}
}

type testEnv struct {
	store    *mockStore
	repo     *repository.Repository
	sched    *mockScheduler
	notifier *mockNotifier
	offers   *jobOfferService
	sheets   *timeSheetService
	pricing  *pricingService
	clock    *time.Time
}

// setupTestEnv wires the services over the mock store with a settable clock
func setupTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	zones, err := worktime.NewResolver("Europe/London")
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	rules, err := workflow.Default()
	if err != nil {
		t.Fatalf("rules: %v", err)
	}

	cfg := testConfig()
	store := newMockStore()
	repo := store.repository()
	sched := &mockScheduler{}
	notifier := &mockNotifier{}
	logger := zap.NewNop()

	clock := now
	nowFn := func() time.Time { return clock }

	sheets := newTimeSheetService(cfg, repo, sched, notifier, rules, zones, logger)
	sheets.now = nowFn
	offers := newJobOfferService(cfg, repo, sched, notifier, sheets, zones, logger)
	offers.now = nowFn

	return &testEnv{
		store:    store,
		repo:     repo,
		sched:    sched,
		notifier: notifier,
		offers:   offers,
		sheets:   sheets,
		pricing:  newPricingService(repo, zones, logger),
		clock:    &clock,
	}
}

func (e *testEnv) setNow(t time.Time) { *e.clock = t }

// addShift creates a site, job, day and shift. date is the local day, start is HH:MM.
func (e *testEnv) addShift(id string, date time.Time, start string, workers int) *model.Shift {
	site := &model.Jobsite{JobsiteID: "site-1", Name: "Riverside Depot", Address: "1 Dock Road", Timezone: "Europe/London"}
	job := &model.Job{JobID: "job-1", JobsiteID: site.JobsiteID, Position: "Picker", DefaultHourlyRate: decimal.NewFromInt(10), Jobsite: site}
	day := &model.ShiftDate{
		ShiftDateID: "sd-" + id,
		JobID:       job.JobID,
		Date:        datatypes.Date(time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)),
		Job:         job,
	}
	shift := &model.Shift{ShiftID: id, ShiftDateID: day.ShiftDateID, StartTime: start, Workers: workers, ShiftDate: day}

	e.store.mu.Lock()
	e.store.shifts[id] = shift
	e.store.mu.Unlock()
	return shift
}

func (e *testEnv) addCandidate(id, name string) *model.Candidate {
	chat := int64(1000 + len(e.store.candidates))
	c := &model.Candidate{CandidateID: id, FirstName: name, LastName: "Test", TelegramChatID: &chat}
	e.store.mu.Lock()
	e.store.candidates[id] = c
	e.store.mu.Unlock()
	return c
}

func (e *testEnv) createOffer(t *testing.T, shiftID, candidateID string, accepted bool) *dto.JobOfferResponse {
	t.Helper()
	resp, err := e.offers.Create(context.Background(), &dto.CreateJobOfferRequest{
		ShiftID:     shiftID,
		CandidateID: candidateID,
		Accepted:    accepted,
	}, "recruiter-1")
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	return resp
}

func (e *testEnv) offer(t *testing.T, id string) *model.JobOffer {
	t.Helper()
	o, err := e.repo.JobOffer.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load offer %s: %v", id, err)
	}
	return o
}

func (e *testEnv) timeSheetsOf(t *testing.T, offerID string) []model.TimeSheet {
	t.Helper()
	list, err := e.repo.TimeSheet.ListByOffer(context.Background(), offerID)
	if err != nil {
		t.Fatalf("list timesheets: %v", err)
	}
	return list
}

func (e *testEnv) markSent(id string) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	sent := "n-sent-" + id
	e.store.offers[id].OfferSentNotificationID = &sent
}
