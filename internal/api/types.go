package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/VietNguyen1207/Health-Support-System-sub001/internal/booking"
	"github.com/VietNguyen1207/Health-Support-System-sub001/internal/schedule"
)

type BookAppointmentRequest struct {
	SlotID string `json:"slot_id"`
	Type   string `json:"type"` // in-person or online
}

type AppointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	SlotID    uuid.UUID `json:"slot_id"`
	StudentID uuid.UUID `json:"student_id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ScheduledSlotResponse struct {
	ID              uuid.UUID `json:"id"`
	PsychologistID  uuid.UUID `json:"psychologist_id"`
	TemplateID      string    `json:"template_id"`
	SlotDate        string    `json:"slot_date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	SlotIndex       int       `json:"slot_index"`
	Status          string    `json:"status"`
	CurrentBookings int       `json:"current_bookings"`
	MaxCapacity     int       `json:"max_capacity"`
}

func toSlotResponse(s booking.ScheduledSlot) ScheduledSlotResponse {
	return ScheduledSlotResponse{
		ID:              s.ID,
		PsychologistID:  s.PsychologistID,
		TemplateID:      s.TemplateID,
		SlotDate:        s.SlotDate,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		SlotIndex:       s.SlotIndex,
		Status:          string(s.Status),
		CurrentBookings: s.CurrentBookings,
		MaxCapacity:     s.MaxCapacity,
	}
}

type ScheduleCandidateResponse struct {
	TemplateID string `json:"template_id"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Period     string `json:"period"`
	Selectable bool   `json:"selectable"`
	Reason     string `json:"reason,omitempty"`
}

type AvailabilityResponse struct {
	Date  string                      `json:"date"`
	Slots []schedule.SlotAvailability `json:"slots"`
}

type CalendarEntryResponse struct {
	AppointmentID string    `json:"appointment_id"`
	StartsAt      time.Time `json:"starts_at"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	Category      string    `json:"category,omitempty"`
}

type CalendarResponse struct {
	Dates   []string                           `json:"dates"`
	Buckets map[string][]CalendarEntryResponse `json:"buckets"`
}

type CreateLeaveRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

type DecideLeaveRequest struct {
	Approve bool `json:"approve"`
}

type LeaveRequestResponse struct {
	ID               uuid.UUID `json:"request_id"`
	PsychologistName string    `json:"psychologist_name"`
	StartDate        string    `json:"start_date"`
	EndDate          string    `json:"end_date"`
	Reason           string    `json:"reason"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

func toLeaveResponse(r booking.LeaveRequest) LeaveRequestResponse {
	return LeaveRequestResponse{
		ID:               r.ID,
		PsychologistName: r.PsychologistName,
		StartDate:        r.StartDate,
		EndDate:          r.EndDate,
		Reason:           r.Reason,
		Status:           string(r.Status),
		CreatedAt:        r.CreatedAt,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
