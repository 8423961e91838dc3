package booking

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VietNguyen1207/Health-Support-System-sub001/internal/config"
	"github.com/VietNguyen1207/Health-Support-System-sub001/internal/menu"
	redisclient "github.com/VietNguyen1207/Health-Support-System-sub001/internal/redis"
	"github.com/VietNguyen1207/Health-Support-System-sub001/internal/schedule"
)

type fakeRepo struct {
	students     map[uuid.UUID]*Student
	psychs       map[uuid.UUID]*Psychologist
	templates    []schedule.TimeSlotTemplate
	slots        map[uuid.UUID]*ScheduledSlot
	appointments map[uuid.UUID]*Appointment
	leaves       map[uuid.UUID]*LeaveRequest
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		students:     make(map[uuid.UUID]*Student),
		psychs:       make(map[uuid.UUID]*Psychologist),
		slots:        make(map[uuid.UUID]*ScheduledSlot),
		appointments: make(map[uuid.UUID]*Appointment),
		leaves:       make(map[uuid.UUID]*LeaveRequest),
	}
}

func (f *fakeRepo) GetStudentByID(_ context.Context, id uuid.UUID) (*Student, error) {
	if s, ok := f.students[id]; ok {
		return s, nil
	}
	return nil, ErrStudentNotFound
}

func (f *fakeRepo) GetPsychologistByID(_ context.Context, id uuid.UUID) (*Psychologist, error) {
	if p, ok := f.psychs[id]; ok {
		return p, nil
	}
	return nil, ErrPsychologistNotFound
}

func (f *fakeRepo) ListTemplates(_ context.Context) ([]schedule.TimeSlotTemplate, error) {
	return f.templates, nil
}

func (f *fakeRepo) ListScheduledSlots(_ context.Context, psychologistID uuid.UUID, fromDate string) ([]ScheduledSlot, error) {
	var out []ScheduledSlot
	for _, s := range f.slots {
		if s.PsychologistID == psychologistID && s.SlotDate >= fromDate {
			out = append(out, *s)
		}
	}
	sortSlots(out)
	return out, nil
}

func (f *fakeRepo) ListScheduledSlotsForDate(_ context.Context, psychologistID uuid.UUID, slotDate string) ([]ScheduledSlot, error) {
	var out []ScheduledSlot
	for _, s := range f.slots {
		if s.PsychologistID == psychologistID && s.SlotDate == slotDate {
			out = append(out, *s)
		}
	}
	sortSlots(out)
	return out, nil
}

func sortSlots(slots []ScheduledSlot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].SlotDate != slots[j].SlotDate {
			return slots[i].SlotDate < slots[j].SlotDate
		}
		return slots[i].SlotIndex < slots[j].SlotIndex
	})
}

func (f *fakeRepo) GetScheduledSlotByID(_ context.Context, id uuid.UUID) (*ScheduledSlot, error) {
	if s, ok := f.slots[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, ErrSlotNotFound
}

func (f *fakeRepo) CreateScheduledSlot(_ context.Context, slot ScheduledSlot) (*ScheduledSlot, error) {
	for _, existing := range f.slots {
		if existing.PsychologistID == slot.PsychologistID &&
			existing.SlotDate == slot.SlotDate &&
			existing.TemplateID == slot.TemplateID {
			return nil, ErrSlotAlreadyScheduled
		}
	}
	slot.ID = uuid.New()
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = slot.CreatedAt
	f.slots[slot.ID] = &slot
	copied := slot
	return &copied, nil
}

func (f *fakeRepo) GetActiveAppointment(_ context.Context, slotID, studentID uuid.UUID) (*Appointment, error) {
	for _, a := range f.appointments {
		if a.SlotID == slotID && a.StudentID == studentID && a.Status == StatusConfirmed {
			return a, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (f *fakeRepo) CreateAppointment(_ context.Context, slotID, studentID uuid.UUID, apptType AppointmentType) (*Appointment, error) {
	slot, ok := f.slots[slotID]
	if !ok {
		return nil, ErrSlotNotFound
	}
	slot.CurrentBookings++
	if slot.CurrentBookings >= slot.MaxCapacity {
		slot.Status = SlotBooked
	}
	a := &Appointment{
		ID:        uuid.New(),
		SlotID:    slotID,
		StudentID: studentID,
		Type:      apptType,
		Status:    StatusConfirmed,
	}
	f.appointments[a.ID] = a
	return a, nil
}

func (f *fakeRepo) listDetails(filter func(*ScheduledSlot) bool) []AppointmentDetail {
	var out []AppointmentDetail
	for _, a := range f.appointments {
		slot := f.slots[a.SlotID]
		if slot == nil || !filter(slot) {
			continue
		}
		copied := *slot
		out = append(out, AppointmentDetail{Appointment: *a, Slot: &copied})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot.SlotIndex < out[j].Slot.SlotIndex })
	return out
}

func (f *fakeRepo) ListAppointmentsByStudent(_ context.Context, studentID uuid.UUID) ([]AppointmentDetail, error) {
	var out []AppointmentDetail
	for _, d := range f.listDetails(func(*ScheduledSlot) bool { return true }) {
		if d.StudentID == studentID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAppointmentsByPsychologist(_ context.Context, psychologistID uuid.UUID) ([]AppointmentDetail, error) {
	return f.listDetails(func(s *ScheduledSlot) bool { return s.PsychologistID == psychologistID }), nil
}

func (f *fakeRepo) ListAppointments(_ context.Context) ([]AppointmentDetail, error) {
	return f.listDetails(func(*ScheduledSlot) bool { return true }), nil
}

func (f *fakeRepo) CreateLeaveRequest(_ context.Context, req LeaveRequest) (*LeaveRequest, error) {
	req.ID = uuid.New()
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	f.leaves[req.ID] = &req
	copied := req
	return &copied, nil
}

func (f *fakeRepo) GetLeaveRequestByID(_ context.Context, id uuid.UUID) (*LeaveRequest, error) {
	if r, ok := f.leaves[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, ErrLeaveRequestNotFound
}

func (f *fakeRepo) ListLeaveRequestsByPsychologist(_ context.Context, psychologistID uuid.UUID) ([]LeaveRequest, error) {
	var out []LeaveRequest
	for _, r := range f.leaves {
		if r.PsychologistID == psychologistID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListLeaveRequests(_ context.Context) ([]LeaveRequest, error) {
	var out []LeaveRequest
	for _, r := range f.leaves {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepo) UpdateLeaveRequestStatus(_ context.Context, id uuid.UUID, from, to LeaveStatus) (*LeaveRequest, error) {
	r, ok := f.leaves[id]
	if !ok || r.Status != from {
		return nil, ErrLeaveRequestNotFound
	}
	r.Status = to
	copied := *r
	return &copied, nil
}

func (f *fakeRepo) FindLeaveRequestsToExpire(_ context.Context, today string) ([]LeaveRequest, error) {
	var out []LeaveRequest
	for _, r := range f.leaves {
		if r.Status == LeavePending && r.StartDate < today {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakeLocker struct {
	fail bool
}

func (l *fakeLocker) WithSlotLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	if l.fail {
		return redisclient.ErrLockNotAcquired
	}
	return fn(ctx)
}

func newTestService(repo Repository, locker redisclient.Locker) *Service {
	svc := NewService(repo, locker, config.Config{SlotCapacity: 1}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC) }
	return svc
}

func seedActors(repo *fakeRepo) (psych Actor, student Actor, manager Actor) {
	pID, sID, mID := uuid.New(), uuid.New(), uuid.New()
	repo.psychs[pID] = &Psychologist{ID: pID, Name: "Dr. Tran"}
	repo.students[sID] = &Student{ID: sID, Name: "An Nguyen"}
	return Actor{ID: pID, Role: menu.RolePsychologist},
		Actor{ID: sID, Role: menu.RoleStudent},
		Actor{ID: mID, Role: menu.RoleManager}
}

func TestCreateSchedule_EmptySelection(t *testing.T) {
	repo := newFakeRepo()
	psych, _, _ := seedActors(repo)
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.CreateSchedule(context.Background(), psych, schedule.CreateScheduleRequest{SlotDate: "2025-01-12"})
	require.ErrorIs(t, err, schedule.ErrEmptySelection)
}

func TestCreateSchedule_CreatesSlots(t *testing.T) {
	repo := newFakeRepo()
	psych, _, _ := seedActors(repo)
	repo.templates = []schedule.TimeSlotTemplate{
		{ID: "MORNING-01", StartTime: "08:00", EndTime: "08:30", Period: schedule.PeriodMorning},
		{ID: "MORNING-03", StartTime: "09:00", EndTime: "09:30", Period: schedule.PeriodMorning},
	}
	svc := newTestService(repo, &fakeLocker{})

	created, err := svc.CreateSchedule(context.Background(), psych, schedule.CreateScheduleRequest{
		SlotDate:       "2025-01-12",
		DefaultSlotIDs: []string{"MORNING-01", "MORNING-03"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	require.Equal(t, 0, created[0].SlotIndex)
	require.Equal(t, 2, created[1].SlotIndex)
	require.Equal(t, SlotAvailable, created[0].Status)
	require.Equal(t, 1, created[0].MaxCapacity)

	// Re-creating the same template for the same date is rejected up front.
	_, err = svc.CreateSchedule(context.Background(), psych, schedule.CreateScheduleRequest{
		SlotDate:       "2025-01-12",
		DefaultSlotIDs: []string{"MORNING-01"},
	})
	require.ErrorIs(t, err, ErrSlotAlreadyScheduled)
}

func TestCreateSchedule_ExpiredSlot(t *testing.T) {
	repo := newFakeRepo()
	psych, _, _ := seedActors(repo)
	repo.templates = []schedule.TimeSlotTemplate{
		{ID: "MORNING-01", StartTime: "08:00", EndTime: "08:30", Period: schedule.PeriodMorning},
	}
	svc := newTestService(repo, &fakeLocker{})

	// now is 2025-01-10 08:00; 08:00 today counts as expired (tie).
	_, err := svc.CreateSchedule(context.Background(), psych, schedule.CreateScheduleRequest{
		SlotDate:       "2025-01-10",
		DefaultSlotIDs: []string{"MORNING-01"},
	})
	require.ErrorIs(t, err, ErrSlotExpired)
}

func TestCreateSchedule_RequiresPsychologist(t *testing.T) {
	repo := newFakeRepo()
	_, student, _ := seedActors(repo)
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.CreateSchedule(context.Background(), student, schedule.CreateScheduleRequest{
		SlotDate:       "2025-01-12",
		DefaultSlotIDs: []string{"MORNING-01"},
	})
	require.ErrorIs(t, err, ErrNotAuthorized)
}

func TestGetScheduleCandidates(t *testing.T) {
	repo := newFakeRepo()
	psych, _, _ := seedActors(repo)
	repo.templates = []schedule.TimeSlotTemplate{
		{ID: "MORNING-01", StartTime: "08:00", EndTime: "08:30", Period: schedule.PeriodMorning},
		{ID: "MORNING-03", StartTime: "09:00", EndTime: "09:30", Period: schedule.PeriodMorning},
		{ID: "BROKEN", StartTime: "not-a-time", EndTime: "x", Period: schedule.PeriodMorning},
	}
	slotID := uuid.New()
	repo.slots[slotID] = &ScheduledSlot{
		ID: slotID, PsychologistID: psych.ID, TemplateID: "MORNING-03",
		SlotDate: "2025-01-10", SlotIndex: 2, Status: SlotAvailable, MaxCapacity: 1,
	}
	svc := newTestService(repo, &fakeLocker{})

	candidates, err := svc.GetScheduleCandidates(context.Background(), psych, "2025-01-10")
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	byID := make(map[string]ScheduleCandidate)
	for _, c := range candidates {
		byID[c.Template.ID] = c
	}
	// 08:00 already started at now=08:00.
	require.False(t, byID["MORNING-01"].Selectable)
	require.Equal(t, "expired", byID["MORNING-01"].Reason)
	// Already instantiated for the date.
	require.False(t, byID["MORNING-03"].Selectable)
	require.Equal(t, "scheduled", byID["MORNING-03"].Reason)
	// Malformed start time fails open.
	require.True(t, byID["BROKEN"].Selectable)
}

func TestGetAvailability(t *testing.T) {
	repo := newFakeRepo()
	psych, _, _ := seedActors(repo)
	svc := newTestService(repo, &fakeLocker{})

	open := &ScheduledSlot{
		ID: uuid.New(), PsychologistID: psych.ID, TemplateID: "MORNING-01",
		SlotDate: "2025-01-12", SlotIndex: 0, Status: SlotAvailable, CurrentBookings: 0, MaxCapacity: 1,
	}
	full := &ScheduledSlot{
		ID: uuid.New(), PsychologistID: psych.ID, TemplateID: "MORNING-02",
		SlotDate: "2025-01-12", SlotIndex: 1, Status: SlotBooked, CurrentBookings: 1, MaxCapacity: 1,
	}
	repo.slots[open.ID] = open
	repo.slots[full.ID] = full

	slots, err := svc.GetAvailability(context.Background(), psych.ID, "2025-01-12")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	require.True(t, slots[0].Available)
	require.False(t, slots[1].Available)

	// No date selected is a defined empty state, not an error.
	slots, err = svc.GetAvailability(context.Background(), psych.ID, "")
	require.NoError(t, err)
	require.Empty(t, slots)
}

func bookableSlot(repo *fakeRepo, psychID uuid.UUID, capacity int) *ScheduledSlot {
	slot := &ScheduledSlot{
		ID: uuid.New(), PsychologistID: psychID, TemplateID: "MORNING-05",
		SlotDate: "2025-01-12", StartTime: "10:00", EndTime: "10:30",
		SlotIndex: 4, Status: SlotAvailable, MaxCapacity: capacity,
	}
	repo.slots[slot.ID] = slot
	return slot
}

func TestBookAppointment(t *testing.T) {
	repo := newFakeRepo()
	psych, student, _ := seedActors(repo)
	slot := bookableSlot(repo, psych.ID, 1)
	svc := newTestService(repo, &fakeLocker{})

	appt, err := svc.BookAppointment(context.Background(), student, slot.ID, TypeOnline)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, appt.Status)
	require.Equal(t, student.ID, appt.StudentID)

	// Slot hit capacity and is no longer open.
	_, err = svc.BookAppointment(context.Background(), student, slot.ID, TypeOnline)
	require.ErrorIs(t, err, ErrSlotNotOpen)
}

func TestBookAppointment_DoubleBooking(t *testing.T) {
	repo := newFakeRepo()
	psych, student, _ := seedActors(repo)
	slot := bookableSlot(repo, psych.ID, 2)
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.BookAppointment(context.Background(), student, slot.ID, TypeInPerson)
	require.NoError(t, err)

	// Capacity remains, but the same student cannot book the slot twice.
	_, err = svc.BookAppointment(context.Background(), student, slot.ID, TypeInPerson)
	require.ErrorIs(t, err, ErrAlreadyBooked)
}

func TestBookAppointment_PastSlot(t *testing.T) {
	repo := newFakeRepo()
	psych, student, _ := seedActors(repo)
	slot := bookableSlot(repo, psych.ID, 1)
	slot.SlotDate = "2025-01-09"
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.BookAppointment(context.Background(), student, slot.ID, TypeOnline)
	require.ErrorIs(t, err, ErrSlotExpired)
}

func TestBookAppointment_LockContention(t *testing.T) {
	repo := newFakeRepo()
	psych, student, _ := seedActors(repo)
	slot := bookableSlot(repo, psych.ID, 1)
	svc := newTestService(repo, &fakeLocker{fail: true})

	_, err := svc.BookAppointment(context.Background(), student, slot.ID, TypeOnline)
	require.ErrorIs(t, err, ErrSlotBeingBooked)
}

func TestBookAppointment_RoleGate(t *testing.T) {
	repo := newFakeRepo()
	psych, _, _ := seedActors(repo)
	slot := bookableSlot(repo, psych.ID, 1)
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.BookAppointment(context.Background(), psych, slot.ID, TypeOnline)
	require.ErrorIs(t, err, ErrNotAuthorized)
}

func TestGetCalendar_Buckets(t *testing.T) {
	repo := newFakeRepo()
	psych, student, manager := seedActors(repo)
	svc := newTestService(repo, &fakeLocker{})

	morning := bookableSlot(repo, psych.ID, 1)
	morning.StartTime = "08:00"
	afternoon := &ScheduledSlot{
		ID: uuid.New(), PsychologistID: psych.ID, TemplateID: "AFTERNOON-03",
		SlotDate: "2025-01-13", StartTime: "14:00", EndTime: "14:30",
		SlotIndex: 10, Status: SlotAvailable, MaxCapacity: 1,
	}
	repo.slots[afternoon.ID] = afternoon

	_, err := svc.BookAppointment(context.Background(), student, morning.ID, TypeOnline)
	require.NoError(t, err)
	_, err = svc.BookAppointment(context.Background(), student, afternoon.ID, TypeInPerson)
	require.NoError(t, err)

	buckets, err := svc.GetCalendar(context.Background(), student)
	require.NoError(t, err)
	require.Equal(t, 2, len(buckets))
	require.Equal(t, 2, buckets.Total())
	require.Equal(t, []string{"2025-01-12", "2025-01-13"}, buckets.Dates())
	require.Equal(t, schedule.CategoryMorningUrgent, buckets["2025-01-12"][0].Category)
	require.Equal(t, schedule.CategoryAfternoon, buckets["2025-01-13"][0].Category)

	// Managers see everything, unknown roles see nothing.
	all, err := svc.GetCalendar(context.Background(), manager)
	require.NoError(t, err)
	require.Equal(t, 2, all.Total())

	_, err = svc.GetCalendar(context.Background(), Actor{ID: uuid.New(), Role: "intruder"})
	require.ErrorIs(t, err, ErrNotAuthorized)
}

func TestSubmitLeaveRequest_Validation(t *testing.T) {
	repo := newFakeRepo()
	psych, _, _ := seedActors(repo)
	svc := newTestService(repo, &fakeLocker{})
	ctx := context.Background()

	// now is 2025-01-10; minimum start is 2025-01-12.
	_, err := svc.SubmitLeaveRequest(ctx, psych, "2025-01-11", "2025-01-11", "checkup")
	require.ErrorIs(t, err, ErrShortNotice)

	_, err = svc.SubmitLeaveRequest(ctx, psych, "2025-01-15", "2025-01-19", "vacation")
	require.ErrorIs(t, err, ErrLeaveTooLong)

	_, err = svc.SubmitLeaveRequest(ctx, psych, "2025-01-15", "2025-01-14", "typo")
	require.ErrorIs(t, err, ErrInvalidDateRange)

	req, err := svc.SubmitLeaveRequest(ctx, psych, "2025-01-15", "2025-01-17", "conference")
	require.NoError(t, err)
	require.Equal(t, LeavePending, req.Status)
	require.Equal(t, "Dr. Tran", req.PsychologistName)
}

func TestDecideLeaveRequest(t *testing.T) {
	repo := newFakeRepo()
	psych, _, manager := seedActors(repo)
	svc := newTestService(repo, &fakeLocker{})
	ctx := context.Background()

	req, err := svc.SubmitLeaveRequest(ctx, psych, "2025-01-15", "2025-01-16", "conference")
	require.NoError(t, err)

	_, err = svc.DecideLeaveRequest(ctx, psych, req.ID, true)
	require.ErrorIs(t, err, ErrNotAuthorized)

	approved, err := svc.DecideLeaveRequest(ctx, manager, req.ID, true)
	require.NoError(t, err)
	require.Equal(t, LeaveApproved, approved.Status)

	// A decided request cannot be decided again.
	_, err = svc.DecideLeaveRequest(ctx, manager, req.ID, false)
	require.ErrorIs(t, err, ErrDecisionNotPending)
}

func TestExpireLeaveRequests(t *testing.T) {
	repo := newFakeRepo()
	psych, _, _ := seedActors(repo)
	svc := newTestService(repo, &fakeLocker{})

	stale := &LeaveRequest{ID: uuid.New(), PsychologistID: psych.ID, StartDate: "2025-01-05", EndDate: "2025-01-06", Status: LeavePending}
	fresh := &LeaveRequest{ID: uuid.New(), PsychologistID: psych.ID, StartDate: "2025-01-20", EndDate: "2025-01-21", Status: LeavePending}
	repo.leaves[stale.ID] = stale
	repo.leaves[fresh.ID] = fresh

	require.NoError(t, svc.ExpireLeaveRequests(context.Background()))
	require.Equal(t, LeaveExpired, repo.leaves[stale.ID].Status)
	require.Equal(t, LeavePending, repo.leaves[fresh.ID].Status)
}
