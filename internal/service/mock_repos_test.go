package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"bornfit/backend/internal/model"
	"bornfit/backend/internal/repository"
	pkgerrors "bornfit/backend/pkg/errors"
)

// ── Mock PatternRepository ──

type mockPatternRepo struct {
	patterns map[string]*model.RecurrencePattern
	seq      int
}

func newMockPatternRepo() *mockPatternRepo {
	return &mockPatternRepo{patterns: make(map[string]*model.RecurrencePattern)}
}

func (m *mockPatternRepo) Create(_ context.Context, pattern *model.RecurrencePattern) error {
	if pattern.PatternID == "" {
		m.seq++
		pattern.PatternID = fmt.Sprintf("pat-%03d", m.seq)
	}
	m.patterns[pattern.PatternID] = pattern
	return nil
}

func (m *mockPatternRepo) GetByID(_ context.Context, id string) (*model.RecurrencePattern, error) {
	if p, ok := m.patterns[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPatternRepo) List(_ context.Context, coachID string, offset, limit int) ([]model.RecurrencePattern, int64, error) {
	var result []model.RecurrencePattern
	for _, p := range m.patterns {
		if coachID != "" && p.CoachID != coachID {
			continue
		}
		result = append(result, *p)
	}
	return result, int64(len(result)), nil
}

func (m *mockPatternRepo) Update(_ context.Context, pattern *model.RecurrencePattern) error {
	stored, ok := m.patterns[pattern.PatternID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != pattern.Version {
		return pkgerrors.ErrOptimisticLock
	}
	pattern.Version++
	cp := *pattern
	m.patterns[pattern.PatternID] = &cp
	return nil
}

func (m *mockPatternRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.patterns, id)
	return nil
}

// ── Mock SessionInstanceRepository ──

type mockSessionRepo struct {
	sessions map[string]*model.SessionInstance
	// attendance 在 setup 中回填，对账时级联取消预约
	attendance *mockAttendanceRepo
	seq        int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.SessionInstance)}
}

func (m *mockSessionRepo) Create(_ context.Context, session *model.SessionInstance) error {
	if session.SessionID == "" {
		m.seq++
		session.SessionID = fmt.Sprintf("sess-%03d", m.seq)
	}
	m.sessions[session.SessionID] = session
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.SessionInstance, error) {
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) ListByPattern(_ context.Context, patternID string) ([]model.SessionInstance, error) {
	var result []model.SessionInstance
	for _, s := range m.sessions {
		if s.PatternID != nil && *s.PatternID == patternID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSessionRepo) ListByWindow(_ context.Context, start, end time.Time, coachIDs []string) ([]model.SessionInstance, error) {
	coachSet := make(map[string]bool, len(coachIDs))
	for _, id := range coachIDs {
		coachSet[id] = true
	}
	var result []model.SessionInstance
	for _, s := range m.sessions {
		if s.StartsAt.After(end) || s.EndsAt.Before(start) {
			continue
		}
		if len(coachSet) > 0 && !coachSet[s.CoachID] {
			continue
		}
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockSessionRepo) Update(_ context.Context, session *model.SessionInstance) error {
	if _, ok := m.sessions[session.SessionID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *session
	m.sessions[session.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) ApplyReconciliation(_ context.Context, changes *repository.ReconcileChanges) error {
	for _, id := range changes.Remove {
		if m.attendance != nil {
			m.attendance.cancelBookedBySession(id)
		}
		delete(m.sessions, id)
	}
	for _, id := range changes.Detach {
		if s, ok := m.sessions[id]; ok {
			s.PatternID = nil
		}
	}
	for i := range changes.RefreshWindow {
		upd := &changes.RefreshWindow[i]
		if s, ok := m.sessions[upd.SessionID]; ok {
			s.CoachID = upd.CoachID
			s.TemplateID = upd.TemplateID
			s.Date = upd.Date
			s.StartsAt = upd.StartsAt
			s.EndsAt = upd.EndsAt
			s.Capacity = upd.Capacity
		}
	}
	for i := range changes.RefreshMeta {
		upd := &changes.RefreshMeta[i]
		if s, ok := m.sessions[upd.SessionID]; ok {
			s.CoachID = upd.CoachID
			s.TemplateID = upd.TemplateID
			s.Capacity = upd.Capacity
		}
	}
	for i := range changes.Create {
		cp := changes.Create[i]
		m.seq++
		cp.SessionID = fmt.Sprintf("sess-%03d", m.seq)
		m.sessions[cp.SessionID] = &cp
	}
	return nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	mu       sync.Mutex
	records  map[string]*model.AttendanceRecord
	sessions *mockSessionRepo
	seq      int
}

func newMockAttendanceRepo(sessions *mockSessionRepo) *mockAttendanceRepo {
	m := &mockAttendanceRepo{
		records:  make(map[string]*model.AttendanceRecord),
		sessions: sessions,
	}
	sessions.attendance = m
	return m
}

func (m *mockAttendanceRepo) cancelBookedBySession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.SessionID == sessionID && r.Status == model.AttendanceBooked {
			r.Status = model.AttendanceCancelled
		}
	}
}

// CreateBooking 与真实实现一致：在互斥区内复核容量后写入
func (m *mockAttendanceRepo) CreateBooking(_ context.Context, record *model.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions.sessions[record.SessionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}

	if session.Capacity != model.UnlimitedCapacity {
		active := 0
		for _, r := range m.records {
			if r.SessionID == record.SessionID && r.Status != model.AttendanceCancelled {
				active++
			}
		}
		if active+session.ManualCheckinCount >= session.Capacity {
			return pkgerrors.ErrCapacityExceeded
		}
	}

	m.seq++
	record.AttendanceID = fmt.Sprintf("att-%03d", m.seq)
	m.records[record.AttendanceID] = record
	return nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, id string) (*model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) GetActiveBySessionAndMember(_ context.Context, sessionID, memberID string) (*model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.SessionID == sessionID && r.MemberID == memberID && r.Status != model.AttendanceCancelled {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) UpdateStatus(_ context.Context, id, status string, checkedInAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.Status = status
	if checkedInAt != nil {
		r.CheckedInAt = checkedInAt
	}
	return nil
}

func (m *mockAttendanceRepo) ListByInstance(_ context.Context, sessionID string) ([]model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.SessionID == sessionID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) CountActiveByInstance(_ context.Context, sessionID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, r := range m.records {
		if r.SessionID == sessionID && r.Status != model.AttendanceCancelled {
			count++
		}
	}
	return count, nil
}

func (m *mockAttendanceRepo) CountCheckedInByInstances(_ context.Context, sessionIDs []string) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idSet := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		idSet[id] = true
	}
	result := make(map[string]int64)
	for _, r := range m.records {
		if idSet[r.SessionID] && r.Status == model.AttendanceCheckedIn {
			result[r.SessionID]++
		}
	}
	return result, nil
}

// ── Mock ManualBlockRepository ──

type mockManualBlockRepo struct {
	blocks map[string]*model.ManualBlock
	seq    int
}

func newMockManualBlockRepo() *mockManualBlockRepo {
	return &mockManualBlockRepo{blocks: make(map[string]*model.ManualBlock)}
}

func (m *mockManualBlockRepo) Create(_ context.Context, block *model.ManualBlock) error {
	m.seq++
	block.BlockID = fmt.Sprintf("blk-%03d", m.seq)
	m.blocks[block.BlockID] = block
	return nil
}

func (m *mockManualBlockRepo) BatchCreate(_ context.Context, blocks []model.ManualBlock) error {
	for i := range blocks {
		m.seq++
		blocks[i].BlockID = fmt.Sprintf("blk-%03d", m.seq)
		cp := blocks[i]
		m.blocks[cp.BlockID] = &cp
	}
	return nil
}

func (m *mockManualBlockRepo) GetByID(_ context.Context, id string) (*model.ManualBlock, error) {
	if b, ok := m.blocks[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockManualBlockRepo) Delete(_ context.Context, id string) error {
	delete(m.blocks, id)
	return nil
}

func (m *mockManualBlockRepo) ListByWindow(_ context.Context, start, end time.Time, staffIDs []string) ([]model.ManualBlock, error) {
	staffSet := make(map[string]bool, len(staffIDs))
	for _, id := range staffIDs {
		staffSet[id] = true
	}
	var result []model.ManualBlock
	for _, b := range m.blocks {
		if b.StartsAt.After(end) || b.EndsAt.Before(start) {
			continue
		}
		if len(staffSet) > 0 && !staffSet[b.StaffID] {
			continue
		}
		result = append(result, *b)
	}
	return result, nil
}

// ── Mock PTBookingRepository ──

type mockPTBookingRepo struct {
	bookings map[string]*model.PTBooking
}

func newMockPTBookingRepo() *mockPTBookingRepo {
	return &mockPTBookingRepo{bookings: make(map[string]*model.PTBooking)}
}

func (m *mockPTBookingRepo) ListByWindow(_ context.Context, start, end time.Time, coachIDs []string) ([]model.PTBooking, error) {
	coachSet := make(map[string]bool, len(coachIDs))
	for _, id := range coachIDs {
		coachSet[id] = true
	}
	var result []model.PTBooking
	for _, b := range m.bookings {
		if b.Status == "cancelled" {
			continue
		}
		if b.StartsAt.After(end) || b.EndsAt.Before(start) {
			continue
		}
		if len(coachSet) > 0 && !coachSet[b.CoachID] {
			continue
		}
		result = append(result, *b)
	}
	return result, nil
}

// ── Mock ClassTemplateRepository ──

type mockTemplateRepo struct {
	templates map[string]*model.ClassTemplate
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{templates: make(map[string]*model.ClassTemplate)}
}

func (m *mockTemplateRepo) GetByID(_ context.Context, id string) (*model.ClassTemplate, error) {
	if t, ok := m.templates[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTemplateRepo) List(_ context.Context, activeOnly bool) ([]model.ClassTemplate, error) {
	var result []model.ClassTemplate
	for _, t := range m.templates {
		if activeOnly && !t.IsActive {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

// ── Mock StaffRepository ──

type mockStaffRepo struct {
	staff map[string]*model.Staff
}

func newMockStaffRepo() *mockStaffRepo {
	return &mockStaffRepo{staff: make(map[string]*model.Staff)}
}

func (m *mockStaffRepo) GetByID(_ context.Context, id string) (*model.Staff, error) {
	if s, ok := m.staff[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStaffRepo) ListByIDs(_ context.Context, ids []string) ([]model.Staff, error) {
	var result []model.Staff
	for _, id := range ids {
		if s, ok := m.staff[id]; ok {
			result = append(result, *s)
		}
	}
	return result, nil
}

// ── 测试固定设施 ──

// fixedClock 测试用钉死时钟
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// testMocks 打包全部 mock，便于各测试按需取用
type testMocks struct {
	repo        *repository.Repository
	patterns    *mockPatternRepo
	sessions    *mockSessionRepo
	attendance  *mockAttendanceRepo
	manualBlock *mockManualBlockRepo
	ptBookings  *mockPTBookingRepo
	templates   *mockTemplateRepo
	staff       *mockStaffRepo
}

func newTestMocks() *testMocks {
	sessions := newMockSessionRepo()
	attendance := newMockAttendanceRepo(sessions)
	m := &testMocks{
		patterns:    newMockPatternRepo(),
		sessions:    sessions,
		attendance:  attendance,
		manualBlock: newMockManualBlockRepo(),
		ptBookings:  newMockPTBookingRepo(),
		templates:   newMockTemplateRepo(),
		staff:       newMockStaffRepo(),
	}
	m.repo = &repository.Repository{
		Pattern:       m.patterns,
		Session:       m.sessions,
		Attendance:    m.attendance,
		ManualBlock:   m.manualBlock,
		PTBooking:     m.ptBookings,
		ClassTemplate: m.templates,
		Staff:         m.staff,
	}
	return m
}

// seedDirectory 预置一名教练与一个课程模板
func (m *testMocks) seedDirectory() {
	m.staff.staff["coach-001"] = &model.Staff{
		StaffID: "coach-001", Name: "王教练", Role: "coach", ColorCode: "#FF6B6B", IsActive: true,
	}
	m.templates.templates["tpl-yoga"] = &model.ClassTemplate{
		TemplateID: "tpl-yoga", Name: "瑜伽", Capacity: 10, DurationMinutes: 60, ColorCode: "#4ECDC4", IsActive: true,
	}
}

