package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VietNguyen1207/Health-Support-System-sub001/internal/config"
	"github.com/VietNguyen1207/Health-Support-System-sub001/internal/menu"
	redisclient "github.com/VietNguyen1207/Health-Support-System-sub001/internal/redis"
	"github.com/VietNguyen1207/Health-Support-System-sub001/internal/schedule"
)

var (
	ErrNotAuthorized      = errors.New("actor role not allowed for this operation")
	ErrTemplateNotFound   = errors.New("time slot template not found")
	ErrSlotExpired        = errors.New("slot is in the past")
	ErrSlotNotOpen        = errors.New("slot is not open for booking")
	ErrSlotFull           = errors.New("slot has no remaining capacity")
	ErrAlreadyBooked      = errors.New("student already booked this slot")
	ErrSlotBeingBooked    = errors.New("slot is currently being booked, please retry")
	ErrInvalidDateRange   = errors.New("end date is before start date")
	ErrLeaveTooLong       = errors.New("leave duration exceeds 3 days")
	ErrShortNotice        = errors.New("leave requests need at least 2 days notice")
	ErrDecisionNotPending = errors.New("leave request is not pending")
)

const (
	maxLeaveDays  = 3
	minNoticeDays = 2
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// GetAvailability resolves the bookable candidates for one psychologist on
// one date. An empty date is the defined "nothing selected yet" state and
// yields an empty list without touching storage.
func (s *Service) GetAvailability(ctx context.Context, psychologistID uuid.UUID, dateKey string) ([]schedule.SlotAvailability, error) {
	if dateKey == "" {
		return nil, nil
	}
	if _, err := schedule.ParseDateKey(dateKey); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetPsychologistByID(ctx, psychologistID); err != nil {
		return nil, err
	}

	slots, err := s.repo.ListScheduledSlotsForDate(ctx, psychologistID, dateKey)
	if err != nil {
		return nil, fmt.Errorf("list scheduled slots: %w", err)
	}

	available := make(map[string][]int)
	booked := make(map[string][]int)
	for _, slot := range slots {
		if slot.SlotIndex < 0 {
			continue
		}
		if slot.Status == SlotAvailable && slot.CurrentBookings < slot.MaxCapacity {
			available[slot.SlotDate] = append(available[slot.SlotDate], slot.SlotIndex)
		} else {
			booked[slot.SlotDate] = append(booked[slot.SlotDate], slot.SlotIndex)
		}
	}

	return schedule.ResolveAvailableSlots(dateKey, available, booked), nil
}

// ScheduleCandidate is one template slot annotated with whether it can still
// be selected for the target date.
type ScheduleCandidate struct {
	Template   schedule.TimeSlotTemplate
	Selectable bool
	Reason     string // "scheduled" or "expired" when not selectable
}

// GetScheduleCandidates lists the acting psychologist's template slots with
// their selectable state for targetDate.
func (s *Service) GetScheduleCandidates(ctx context.Context, actor Actor, targetDate string) ([]ScheduleCandidate, error) {
	if actor.Role != menu.RolePsychologist {
		return nil, ErrNotAuthorized
	}
	if _, err := schedule.ParseDateKey(targetDate); err != nil {
		return nil, err
	}

	templates, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	existing, err := s.instantiatedFor(ctx, actor.ID, targetDate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	candidates := make([]ScheduleCandidate, 0, len(templates))
	for _, tmpl := range templates {
		c := ScheduleCandidate{Template: tmpl, Selectable: true}
		if existing.Has(tmpl.ID, targetDate) {
			c.Selectable = false
			c.Reason = "scheduled"
		} else {
			expired, warn := schedule.SlotExpired(tmpl, targetDate, now)
			if warn != nil {
				s.logWarning(warn)
			}
			if expired {
				c.Selectable = false
				c.Reason = "expired"
			}
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// ListSchedule returns the acting psychologist's scheduled slots from
// fromDate onward; an empty fromDate means today.
func (s *Service) ListSchedule(ctx context.Context, actor Actor, fromDate string) ([]ScheduledSlot, error) {
	if actor.Role != menu.RolePsychologist {
		return nil, ErrNotAuthorized
	}
	if fromDate == "" {
		fromDate = schedule.DateKey(s.now())
	} else if _, err := schedule.ParseDateKey(fromDate); err != nil {
		return nil, err
	}
	return s.repo.ListScheduledSlots(ctx, actor.ID, fromDate)
}

// CreateSchedule instantiates the selected template slots for one date. Every
// id must name a known template that is neither already instantiated for the
// date nor expired; an empty selection is rejected before anything else.
func (s *Service) CreateSchedule(ctx context.Context, actor Actor, req schedule.CreateScheduleRequest) ([]ScheduledSlot, error) {
	if actor.Role != menu.RolePsychologist {
		return nil, ErrNotAuthorized
	}
	if len(req.DefaultSlotIDs) == 0 {
		return nil, schedule.ErrEmptySelection
	}
	if _, err := schedule.ParseDateKey(req.SlotDate); err != nil {
		return nil, err
	}

	templates, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	byID := make(map[string]schedule.TimeSlotTemplate, len(templates))
	for _, tmpl := range templates {
		byID[tmpl.ID] = tmpl
	}

	existing, err := s.instantiatedFor(ctx, actor.ID, req.SlotDate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	toCreate := make([]schedule.TimeSlotTemplate, 0, len(req.DefaultSlotIDs))
	for _, id := range req.DefaultSlotIDs {
		tmpl, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
		}
		if existing.Has(tmpl.ID, req.SlotDate) {
			return nil, fmt.Errorf("%w: %s on %s", ErrSlotAlreadyScheduled, id, req.SlotDate)
		}
		expired, warn := schedule.SlotExpired(tmpl, req.SlotDate, now)
		if warn != nil {
			s.logWarning(warn)
		}
		if expired {
			return nil, fmt.Errorf("%w: %s on %s", ErrSlotExpired, id, req.SlotDate)
		}
		toCreate = append(toCreate, tmpl)
	}

	created := make([]ScheduledSlot, 0, len(toCreate))
	for _, tmpl := range toCreate {
		slot := ScheduledSlot{
			PsychologistID: actor.ID,
			TemplateID:     tmpl.ID,
			SlotDate:       req.SlotDate,
			StartTime:      tmpl.StartTime,
			EndTime:        tmpl.EndTime,
			SlotIndex:      slotIndexFor(tmpl),
			Status:         SlotAvailable,
			MaxCapacity:    s.cfg.SlotCapacity,
		}
		saved, err := s.repo.CreateScheduledSlot(ctx, slot)
		if err != nil {
			return created, fmt.Errorf("create scheduled slot %s: %w", tmpl.ID, err)
		}
		created = append(created, *saved)
	}

	s.logger.Info("schedule created",
		zap.String("psychologist_id", actor.ID.String()),
		zap.String("slot_date", req.SlotDate),
		zap.Int("slots", len(created)),
	)
	return created, nil
}

// BookAppointment reserves a scheduled slot for a student. A per-slot Redis
// lock serializes concurrent bookings so the capacity check and the insert
// are atomic with respect to other bookers.
func (s *Service) BookAppointment(ctx context.Context, actor Actor, slotID uuid.UUID, apptType AppointmentType) (*Appointment, error) {
	if actor.Role != menu.RoleStudent {
		return nil, ErrNotAuthorized
	}
	if _, err := s.repo.GetStudentByID(ctx, actor.ID); err != nil {
		return nil, err
	}

	slot, err := s.repo.GetScheduledSlotByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("load slot: %w", err)
	}
	if slot.Status != SlotAvailable {
		return nil, ErrSlotNotOpen
	}
	if s.slotInPast(slot) {
		return nil, ErrSlotExpired
	}

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, slotID, func(lockCtx context.Context) error {
		existing, err := s.repo.GetActiveAppointment(lockCtx, slotID, actor.ID)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("check existing appointment: %w", err)
		}
		if existing != nil {
			return ErrAlreadyBooked
		}

		// Re-read inside the critical section: another booking may have
		// consumed the last spot since the first check.
		fresh, err := s.repo.GetScheduledSlotByID(lockCtx, slotID)
		if err != nil {
			return fmt.Errorf("reload slot: %w", err)
		}
		if fresh.CurrentBookings >= fresh.MaxCapacity {
			return ErrSlotFull
		}

		appt, err := s.repo.CreateAppointment(lockCtx, slotID, actor.ID, apptType)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logger.Info("appointment booked",
		zap.String("slot_id", slotID.String()),
		zap.String("student_id", actor.ID.String()),
		zap.String("type", string(apptType)),
	)
	return created, nil
}

// GetCalendar lists the appointments visible to the actor, bucketed by
// calendar date. Students and psychologists see their own; managers see all.
func (s *Service) GetCalendar(ctx context.Context, actor Actor) (schedule.DayBuckets, error) {
	var (
		details []AppointmentDetail
		err     error
	)
	switch actor.Role {
	case menu.RoleStudent:
		details, err = s.repo.ListAppointmentsByStudent(ctx, actor.ID)
	case menu.RolePsychologist:
		details, err = s.repo.ListAppointmentsByPsychologist(ctx, actor.ID)
	case menu.RoleManager:
		details, err = s.repo.ListAppointments(ctx)
	default:
		return nil, ErrNotAuthorized
	}
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	appts := make([]schedule.CalendarAppointment, 0, len(details))
	for _, d := range details {
		startsAt, ok := s.slotStart(d.Slot)
		if !ok {
			continue
		}
		appts = append(appts, schedule.CalendarAppointment{
			ID:       d.ID.String(),
			StartsAt: startsAt,
			Type:     string(d.Type),
			Status:   string(d.Status),
		})
	}
	return schedule.BucketAppointments(appts), nil
}

// SubmitLeaveRequest validates and records a psychologist's leave request.
// Validation failures are reported synchronously, before any write.
func (s *Service) SubmitLeaveRequest(ctx context.Context, actor Actor, startDate, endDate, reason string) (*LeaveRequest, error) {
	if actor.Role != menu.RolePsychologist {
		return nil, ErrNotAuthorized
	}

	start, err := schedule.ParseDateKey(startDate)
	if err != nil {
		return nil, err
	}
	end, err := schedule.ParseDateKey(endDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > maxLeaveDays {
		return nil, ErrLeaveTooLong
	}

	today, _ := schedule.ParseDateKey(schedule.DateKey(s.now()))
	if start.Before(today.AddDate(0, 0, minNoticeDays)) {
		return nil, ErrShortNotice
	}

	psych, err := s.repo.GetPsychologistByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	req := LeaveRequest{
		PsychologistID:   actor.ID,
		PsychologistName: psych.Name,
		StartDate:        startDate,
		EndDate:          endDate,
		Reason:           reason,
		Status:           LeavePending,
	}
	created, err := s.repo.CreateLeaveRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create leave request: %w", err)
	}

	s.logger.Info("leave request submitted",
		zap.String("request_id", created.ID.String()),
		zap.String("psychologist_id", actor.ID.String()),
		zap.String("start_date", startDate),
		zap.String("end_date", endDate),
	)
	return created, nil
}

// ListLeaveRequests returns all requests for managers and own requests for
// psychologists.
func (s *Service) ListLeaveRequests(ctx context.Context, actor Actor) ([]LeaveRequest, error) {
	switch actor.Role {
	case menu.RoleManager:
		return s.repo.ListLeaveRequests(ctx)
	case menu.RolePsychologist:
		return s.repo.ListLeaveRequestsByPsychologist(ctx, actor.ID)
	default:
		return nil, ErrNotAuthorized
	}
}

// DecideLeaveRequest applies a manager's approve/reject decision to a pending
// request.
func (s *Service) DecideLeaveRequest(ctx context.Context, actor Actor, id uuid.UUID, approve bool) (*LeaveRequest, error) {
	if actor.Role != menu.RoleManager {
		return nil, ErrNotAuthorized
	}

	req, err := s.repo.GetLeaveRequestByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load leave request: %w", err)
	}
	if req.Status != LeavePending {
		return nil, ErrDecisionNotPending
	}

	to := LeaveRejected
	if approve {
		to = LeaveApproved
	}
	updated, err := s.repo.UpdateLeaveRequestStatus(ctx, id, LeavePending, to)
	if err != nil {
		return nil, fmt.Errorf("update leave request: %w", err)
	}

	s.logger.Info("leave request decided",
		zap.String("request_id", id.String()),
		zap.String("manager_id", actor.ID.String()),
		zap.String("status", string(to)),
	)
	return updated, nil
}

// ExpireLeaveRequests marks pending requests whose start date has passed as
// expired. Called periodically by the expiry worker.
func (s *Service) ExpireLeaveRequests(ctx context.Context) error {
	today := schedule.DateKey(s.now())
	candidates, err := s.repo.FindLeaveRequestsToExpire(ctx, today)
	if err != nil {
		return fmt.Errorf("find expirable leave requests: %w", err)
	}

	for _, req := range candidates {
		if _, err := s.repo.UpdateLeaveRequestStatus(ctx, req.ID, LeavePending, LeaveExpired); err != nil {
			if errors.Is(err, ErrLeaveRequestNotFound) {
				continue
			}
			s.logger.Warn("failed to expire leave request",
				zap.String("request_id", req.ID.String()),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("leave request expired", zap.String("request_id", req.ID.String()))
	}
	return nil
}

func (s *Service) instantiatedFor(ctx context.Context, psychologistID uuid.UUID, slotDate string) (schedule.InstantiatedSet, error) {
	slots, err := s.repo.ListScheduledSlotsForDate(ctx, psychologistID, slotDate)
	if err != nil {
		return nil, fmt.Errorf("list scheduled slots: %w", err)
	}
	existing := schedule.InstantiatedSet{}
	for _, slot := range slots {
		existing.Add(slot.TemplateID, slot.SlotDate)
	}
	return existing, nil
}

func (s *Service) slotInPast(slot *ScheduledSlot) bool {
	tmpl := schedule.TimeSlotTemplate{ID: slot.TemplateID, StartTime: slot.StartTime}
	expired, warn := schedule.SlotExpired(tmpl, slot.SlotDate, s.now())
	if warn != nil {
		s.logWarning(warn)
	}
	return expired
}

func (s *Service) slotStart(slot *ScheduledSlot) (time.Time, bool) {
	if slot == nil {
		return time.Time{}, false
	}
	day, err := schedule.ParseDateKey(slot.SlotDate)
	if err != nil {
		s.logger.Warn("scheduled slot has invalid date",
			zap.String("slot_id", slot.ID.String()),
			zap.String("slot_date", slot.SlotDate),
		)
		return time.Time{}, false
	}
	clock, err := schedule.ParseClock(slot.StartTime)
	if err != nil {
		s.logger.Warn("scheduled slot has invalid start time",
			zap.String("slot_id", slot.ID.String()),
			zap.String("start_time", slot.StartTime),
		)
		return time.Time{}, false
	}
	return day.Add(time.Duration(clock.Hour)*time.Hour + time.Duration(clock.Minute)*time.Minute), true
}

func (s *Service) logWarning(w *schedule.ClockWarning) {
	s.logger.Warn("unparseable slot time, failing open",
		zap.String("template_id", w.TemplateID),
		zap.String("value", w.Value),
		zap.Error(w.Err),
	)
}

func slotIndexFor(tmpl schedule.TimeSlotTemplate) int {
	start, err := schedule.ParseClock(tmpl.StartTime)
	if err != nil {
		return -1
	}
	end, err := schedule.ParseClock(tmpl.EndTime)
	if err != nil {
		return -1
	}
	return schedule.SlotIndexForWindow(start, end)
}
