package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/VietNguyen1207/Health-Support-System-sub001/internal/menu"
)

type AppointmentStatus string

const (
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

type AppointmentType string

const (
	TypeInPerson AppointmentType = "in-person"
	TypeOnline   AppointmentType = "online"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotClosed    SlotStatus = "closed"
)

type LeaveStatus string

const (
	LeavePending   LeaveStatus = "PENDING"
	LeaveApproved  LeaveStatus = "APPROVED"
	LeaveCancelled LeaveStatus = "CANCELLED"
	LeaveExpired   LeaveStatus = "EXPIRED"
	LeaveRejected  LeaveStatus = "REJECTED"
)

// Actor is the authenticated user performing an operation. Every service
// method takes it as an explicit argument; nothing reads session state as a
// side channel.
type Actor struct {
	ID   uuid.UUID
	Role menu.Role
}

type Student struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Psychologist struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScheduledSlot is a template slot instantiated for one calendar date for one
// psychologist. At most one row exists per (psychologist, slot date,
// template); the candidate filter enforces it on the way in and a unique
// index backs it up.
type ScheduledSlot struct {
	ID              uuid.UUID
	PsychologistID  uuid.UUID
	TemplateID      string
	SlotDate        string // YYYY-MM-DD
	StartTime       string // wall clock
	EndTime         string
	SlotIndex       int
	Status          SlotStatus
	CurrentBookings int
	MaxCapacity     int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Appointment struct {
	ID        uuid.UUID
	SlotID    uuid.UUID
	StudentID uuid.UUID
	Type      AppointmentType
	Status    AppointmentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AppointmentDetail struct {
	Appointment
	Slot         *ScheduledSlot
	Student      *Student
	Psychologist *Psychologist
}

type LeaveRequest struct {
	ID               uuid.UUID
	PsychologistID   uuid.UUID
	PsychologistName string
	StartDate        string // YYYY-MM-DD
	EndDate          string
	Reason           string
	Status           LeaveStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
