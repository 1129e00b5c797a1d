package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/model"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/repository"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/task"
	pkgerrors "github.com/shinystaratnight/endless-backend-sub001/backend/pkg/errors"
)

// ── Shared in-memory store ──
//
// The mock repositories share one store so that graph loads (offer → shift → site) behave
// like the preloads of the real repositories. Every read returns a copy.

type mockStore struct {
	mu            sync.Mutex
	seq           int
	shifts        map[string]*model.Shift
	candidates    map[string]*model.Candidate
	offers        map[string]*model.JobOffer
	carrierLists  map[string]*model.CarrierList
	timeSheets    map[string]*model.TimeSheet
	logs          []model.TimeSheetStateLog
	coefficients  []model.RateCoefficient
	notifications map[string]*model.Notification
}

func newMockStore() *mockStore {
	return &mockStore{
		shifts:        make(map[string]*model.Shift),
		candidates:    make(map[string]*model.Candidate),
		offers:        make(map[string]*model.JobOffer),
		carrierLists:  make(map[string]*model.CarrierList),
		timeSheets:    make(map[string]*model.TimeSheet),
		notifications: make(map[string]*model.Notification),
	}
}

func (s *mockStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *mockStore) repository() *repository.Repository {
	return &repository.Repository{
		Candidate:       &mockCandidateRepo{s},
		Shift:           &mockShiftRepo{s},
		JobOffer:        &mockJobOfferRepo{s},
		CarrierList:     &mockCarrierListRepo{s},
		TimeSheet:       &mockTimeSheetRepo{s},
		TimeSheetLog:    &mockTimeSheetLogRepo{s},
		RateCoefficient: &mockRateCoefficientRepo{s},
		Notification:    &mockNotificationRepo{s},
	}
}

// offerGraph must be called with mu held
func (s *mockStore) offerGraph(id string) (*model.JobOffer, bool) {
	stored, ok := s.offers[id]
	if !ok {
		return nil, false
	}
	o := *stored
	o.Shift = s.shifts[o.ShiftID]
	o.Candidate = s.candidates[o.CandidateID]
	return &o, true
}

// timeSheetGraph must be called with mu held
func (s *mockStore) timeSheetGraph(id string) (*model.TimeSheet, bool) {
	stored, ok := s.timeSheets[id]
	if !ok {
		return nil, false
	}
	ts := *stored
	ts.JobOffer, _ = s.offerGraph(ts.JobOfferID)
	return &ts, true
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct{ s *mockStore }

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if sh, ok := m.s.shifts[id]; ok {
		cp := *sh
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Shift, error) {
	return m.GetByID(ctx, id)
}

// ── Mock CandidateRepository ──

type mockCandidateRepo struct{ s *mockStore }

func (m *mockCandidateRepo) GetByID(_ context.Context, id string) (*model.Candidate, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c, ok := m.s.candidates[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock JobOfferRepository ──

type mockJobOfferRepo struct{ s *mockStore }

func (m *mockJobOfferRepo) Create(_ context.Context, offer *model.JobOffer) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if offer.JobOfferID == "" {
		offer.JobOfferID = m.s.nextID("jo")
	}
	cp := *offer
	cp.Shift, cp.Candidate = nil, nil
	m.s.offers[cp.JobOfferID] = &cp
	return nil
}

func (m *mockJobOfferRepo) GetByID(_ context.Context, id string) (*model.JobOffer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if o, ok := m.s.offerGraph(id); ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockJobOfferRepo) Update(_ context.Context, offer *model.JobOffer) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.offers[offer.JobOfferID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = offer.Status
	stored.ScheduledNotificationAt = offer.ScheduledNotificationAt
	stored.OfferSentNotificationID = offer.OfferSentNotificationID
	stored.ReplyNotificationID = offer.ReplyNotificationID
	stored.UpdatedBy = offer.UpdatedBy
	return nil
}

func (m *mockJobOfferRepo) CountAcceptedByShift(_ context.Context, shiftID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, o := range m.s.offers {
		if o.ShiftID == shiftID && o.IsAccepted() {
			n++
		}
	}
	return n, nil
}

func (m *mockJobOfferRepo) CountForCandidate(_ context.Context, shiftID, candidateID, exceptID string, statuses ...string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, o := range m.s.offers {
		if o.ShiftID != shiftID || o.CandidateID != candidateID || id == exceptID {
			continue
		}
		for _, st := range statuses {
			if o.Status == st {
				n++
				break
			}
		}
	}
	return n, nil
}

func (m *mockJobOfferRepo) ListCancellableByShift(_ context.Context, shiftID, exceptID string) ([]model.JobOffer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.JobOffer
	for id, o := range m.s.offers {
		if o.ShiftID != shiftID || id == exceptID || !o.IsUndefined() {
			continue
		}
		if o.OfferSentNotificationID != nil && m.hasTimeSheet(id) {
			continue
		}
		g, _ := m.s.offerGraph(id)
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].JobOfferID < result[j].JobOfferID })
	return result, nil
}

func (m *mockJobOfferRepo) hasTimeSheet(offerID string) bool {
	for _, ts := range m.s.timeSheets {
		if ts.JobOfferID == offerID {
			return true
		}
	}
	return false
}

func (m *mockJobOfferRepo) CancelMany(_ context.Context, ids []string, actorID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, id := range ids {
		if o, ok := m.s.offers[id]; ok {
			o.Status = model.OfferStatusCancelled
			o.ScheduledNotificationAt = nil
			o.UpdatedBy = &actorID
		}
	}
	return nil
}

func (m *mockJobOfferRepo) MarkSent(_ context.Context, id, notificationID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	o, ok := m.s.offers[id]
	if !ok || !o.IsUndefined() {
		return nil
	}
	o.ScheduledNotificationAt = nil
	if notificationID != "" {
		o.OfferSentNotificationID = &notificationID
	}
	return nil
}

func (m *mockJobOfferRepo) SetReplyNotification(_ context.Context, id, notificationID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if o, ok := m.s.offers[id]; ok {
		o.ReplyNotificationID = &notificationID
	}
	return nil
}

func (m *mockJobOfferRepo) ListByCandidateAndJob(_ context.Context, candidateID, jobID string) ([]model.JobOffer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.JobOffer
	for id, o := range m.s.offers {
		if o.CandidateID != candidateID {
			continue
		}
		g, _ := m.s.offerGraph(id)
		if g.Shift == nil || g.Shift.JobID() != jobID {
			continue
		}
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].JobOfferID < result[j].JobOfferID })
	return result, nil
}

func (m *mockJobOfferRepo) ListAcceptedByCandidate(_ context.Context, candidateID string) ([]model.JobOffer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.JobOffer
	for id, o := range m.s.offers {
		if o.CandidateID == candidateID && o.IsAccepted() {
			g, _ := m.s.offerGraph(id)
			result = append(result, *g)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].JobOfferID < result[j].JobOfferID })
	return result, nil
}

// ── Mock CarrierListRepository ──

type mockCarrierListRepo struct{ s *mockStore }

func carrierKey(candidateID string, target time.Time) string {
	return fmt.Sprintf("%s|%d", candidateID, target.Unix())
}

func (m *mockCarrierListRepo) GetByCandidateAndTarget(_ context.Context, candidateID string, target time.Time) (*model.CarrierList, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if cl, ok := m.s.carrierLists[carrierKey(candidateID, target)]; ok {
		cp := *cl
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCarrierListRepo) Create(_ context.Context, cl *model.CarrierList) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	key := carrierKey(cl.CandidateID, cl.TargetDate)
	if _, exists := m.s.carrierLists[key]; exists {
		return fmt.Errorf("duplicate carrier list entry %s", key)
	}
	if cl.CarrierListID == "" {
		cl.CarrierListID = m.s.nextID("cl")
	}
	cp := *cl
	m.s.carrierLists[key] = &cp
	return nil
}

func (m *mockCarrierListRepo) Update(_ context.Context, cl *model.CarrierList) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *cl
	m.s.carrierLists[carrierKey(cl.CandidateID, cl.TargetDate)] = &cp
	return nil
}

// ── Mock TimeSheetRepository ──

type mockTimeSheetRepo struct{ s *mockStore }

func (m *mockTimeSheetRepo) Create(_ context.Context, ts *model.TimeSheet) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if ts.TimeSheetID == "" {
		ts.TimeSheetID = m.s.nextID("ts")
	}
	if ts.Version == 0 {
		ts.Version = 1
	}
	cp := *ts
	cp.JobOffer = nil
	m.s.timeSheets[cp.TimeSheetID] = &cp
	return nil
}

func (m *mockTimeSheetRepo) GetByID(_ context.Context, id string) (*model.TimeSheet, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if ts, ok := m.s.timeSheetGraph(id); ok {
		return ts, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimeSheetRepo) GetByOfferAndStart(_ context.Context, offerID string, start time.Time) (*model.TimeSheet, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, ts := range m.s.timeSheets {
		if ts.JobOfferID == offerID && ts.ShiftStartedAt != nil && ts.ShiftStartedAt.Equal(start) {
			cp := *ts
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimeSheetRepo) ListByOffer(_ context.Context, offerID string) ([]model.TimeSheet, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.TimeSheet
	for _, ts := range m.s.timeSheets {
		if ts.JobOfferID == offerID {
			result = append(result, *ts)
		}
	}
	sortByStart(result)
	return result, nil
}

func (m *mockTimeSheetRepo) ListApproved(_ context.Context, f repository.ApprovedFilter) ([]model.TimeSheet, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.TimeSheet
	for id, ts := range m.s.timeSheets {
		if ts.Status != model.TimeSheetApproved || ts.ShiftStartedAt == nil {
			continue
		}
		if ts.ShiftStartedAt.Before(f.From) || !ts.ShiftStartedAt.Before(f.To) {
			continue
		}
		g, _ := m.s.timeSheetGraph(id)
		if f.CandidateID != "" && (g.JobOffer == nil || g.JobOffer.CandidateID != f.CandidateID) {
			continue
		}
		result = append(result, *g)
	}
	sortByStart(result)
	return result, nil
}

func (m *mockTimeSheetRepo) Update(_ context.Context, ts *model.TimeSheet) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.timeSheets[ts.TimeSheetID]
	if !ok || stored.Version != ts.Version {
		return pkgerrors.ErrOptimisticLock
	}
	ts.Version++
	cp := *ts
	cp.JobOffer = nil
	m.s.timeSheets[ts.TimeSheetID] = &cp
	return nil
}

func (m *mockTimeSheetRepo) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.timeSheets, id)
	return nil
}

func sortByStart(list []model.TimeSheet) {
	sort.Slice(list, func(i, j int) bool { return list[i].ShiftStartedAt.Before(*list[j].ShiftStartedAt) })
}

// ── Mock TimeSheetStateLogRepository ──

type mockTimeSheetLogRepo struct{ s *mockStore }

func (m *mockTimeSheetLogRepo) Create(_ context.Context, entry *model.TimeSheetStateLog) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if entry.LogID == "" {
		entry.LogID = m.s.nextID("log")
	}
	m.s.logs = append(m.s.logs, *entry)
	return nil
}

func (m *mockTimeSheetLogRepo) ListByTimeSheet(_ context.Context, id string) ([]model.TimeSheetStateLog, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.TimeSheetStateLog
	for _, l := range m.s.logs {
		if l.TimeSheetID == id {
			result = append(result, l)
		}
	}
	return result, nil
}

// ── Mock RateCoefficientRepository ──

type mockRateCoefficientRepo struct{ s *mockStore }

func (m *mockRateCoefficientRepo) Create(_ context.Context, c *model.RateCoefficient) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c.RateCoefficientID == "" {
		c.RateCoefficientID = m.s.nextID("rc")
	}
	m.s.coefficients = append(m.s.coefficients, *c)
	return nil
}

func (m *mockRateCoefficientRepo) ListActiveByScope(_ context.Context, scope string) ([]model.RateCoefficient, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []model.RateCoefficient
	for _, c := range m.s.coefficients {
		if c.Active && c.ModifierFor(scope) != nil {
			result = append(result, c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Priority > result[j].Priority })
	return result, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct{ s *mockStore }

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if n.NotificationID == "" {
		n.NotificationID = m.s.nextID("n")
	}
	cp := *n
	m.s.notifications[n.NotificationID] = &cp
	return nil
}

func (m *mockNotificationRepo) UpdateStatus(_ context.Context, id, status, errMsg string, sentAt *time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n, ok := m.s.notifications[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	n.Status, n.Error, n.SentAt = status, errMsg, sentAt
	return nil
}

// ── Recording scheduler and notifier ──

type mockScheduler struct {
	mu    sync.Mutex
	tasks []task.Task
	err   error
}

func (m *mockScheduler) Schedule(_ context.Context, name string, args map[string]string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, task.Task{Name: name, Args: args, At: at})
	return nil
}

func (m *mockScheduler) named(name string) []task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []task.Task
	for _, t := range m.tasks {
		if t.Name == name {
			result = append(result, t)
		}
	}
	return result
}

type mockNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (m *mockNotifier) Notify(_ context.Context, n Notice) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, n)
	return fmt.Sprintf("n-%d", len(m.notices))
}

func (m *mockNotifier) templates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, 0, len(m.notices))
	for _, n := range m.notices {
		result = append(result, n.Template)
	}
	return result
}
