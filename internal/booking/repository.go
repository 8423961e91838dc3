package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/VietNguyen1207/Health-Support-System-sub001/internal/schedule"
)

var (
	ErrStudentNotFound      = errors.New("student not found")
	ErrPsychologistNotFound = errors.New("psychologist not found")
	ErrSlotNotFound         = errors.New("scheduled slot not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrLeaveRequestNotFound = errors.New("leave request not found")
	ErrSlotAlreadyScheduled = errors.New("slot already scheduled for this date")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetStudentByID(ctx context.Context, id uuid.UUID) (*Student, error)
	GetPsychologistByID(ctx context.Context, id uuid.UUID) (*Psychologist, error)

	// Template slots are reference data, loaded once per session.
	ListTemplates(ctx context.Context) ([]schedule.TimeSlotTemplate, error)

	// Scheduled slots
	ListScheduledSlots(ctx context.Context, psychologistID uuid.UUID, fromDate string) ([]ScheduledSlot, error)
	ListScheduledSlotsForDate(ctx context.Context, psychologistID uuid.UUID, slotDate string) ([]ScheduledSlot, error)
	GetScheduledSlotByID(ctx context.Context, id uuid.UUID) (*ScheduledSlot, error)
	CreateScheduledSlot(ctx context.Context, slot ScheduledSlot) (*ScheduledSlot, error)

	// Appointments
	GetActiveAppointment(ctx context.Context, slotID, studentID uuid.UUID) (*Appointment, error)
	CreateAppointment(ctx context.Context, slotID, studentID uuid.UUID, apptType AppointmentType) (*Appointment, error)
	ListAppointmentsByStudent(ctx context.Context, studentID uuid.UUID) ([]AppointmentDetail, error)
	ListAppointmentsByPsychologist(ctx context.Context, psychologistID uuid.UUID) ([]AppointmentDetail, error)
	ListAppointments(ctx context.Context) ([]AppointmentDetail, error)

	// Leave requests
	CreateLeaveRequest(ctx context.Context, req LeaveRequest) (*LeaveRequest, error)
	GetLeaveRequestByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error)
	ListLeaveRequestsByPsychologist(ctx context.Context, psychologistID uuid.UUID) ([]LeaveRequest, error)
	ListLeaveRequests(ctx context.Context) ([]LeaveRequest, error)
	UpdateLeaveRequestStatus(ctx context.Context, id uuid.UUID, from, to LeaveStatus) (*LeaveRequest, error)

	// Expiry worker
	FindLeaveRequestsToExpire(ctx context.Context, today string) ([]LeaveRequest, error)
}
