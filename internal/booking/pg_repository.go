package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VietNguyen1207/Health-Support-System-sub001/internal/schedule"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanStudent(row pgx.Row) (*Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanPsychologist(row pgx.Row) (*Psychologist, error) {
	var p Psychologist
	err := row.Scan(&p.ID, &p.Name, &p.Specialty, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPsychologistNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanScheduledSlot(row pgx.Row) (*ScheduledSlot, error) {
	var s ScheduledSlot
	err := row.Scan(
		&s.ID,
		&s.PsychologistID,
		&s.TemplateID,
		&s.SlotDate,
		&s.StartTime,
		&s.EndTime,
		&s.SlotIndex,
		&s.Status,
		&s.CurrentBookings,
		&s.MaxCapacity,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanLeaveRequest(row pgx.Row) (*LeaveRequest, error) {
	var r LeaveRequest
	err := row.Scan(
		&r.ID,
		&r.PsychologistID,
		&r.PsychologistName,
		&r.StartDate,
		&r.EndDate,
		&r.Reason,
		&r.Status,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeaveRequestNotFound
		}
		return nil, err
	}
	return &r, nil
}

const scheduledSlotColumns = `
	id, psychologist_id, template_id, slot_date::text, start_time, end_time,
	slot_index, status, current_bookings, max_capacity, created_at, updated_at`

const leaveRequestColumns = `
	lr.id, lr.psychologist_id, p.name, lr.start_date::text, lr.end_date::text,
	lr.reason, lr.status, lr.created_at, lr.updated_at`

func (r *PgRepository) GetStudentByID(ctx context.Context, id uuid.UUID) (*Student, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, email, created_at, updated_at FROM students WHERE id = $1`, id)
	return scanStudent(row)
}

func (r *PgRepository) GetPsychologistByID(ctx context.Context, id uuid.UUID) (*Psychologist, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, specialty, created_at, updated_at FROM psychologists WHERE id = $1`, id)
	return scanPsychologist(row)
}

func (r *PgRepository) ListTemplates(ctx context.Context) ([]schedule.TimeSlotTemplate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, start_time, end_time, period FROM slot_templates ORDER BY start_time, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []schedule.TimeSlotTemplate
	for rows.Next() {
		var t schedule.TimeSlotTemplate
		if err := rows.Scan(&t.ID, &t.StartTime, &t.EndTime, &t.Period); err != nil {
			return nil, err
		}
		if t.Period == "" {
			if start, err := schedule.ParseClock(t.StartTime); err == nil {
				t.Period = schedule.PeriodForClock(start)
			}
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *PgRepository) ListScheduledSlots(ctx context.Context, psychologistID uuid.UUID, fromDate string) ([]ScheduledSlot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+scheduledSlotColumns+`
		 FROM scheduled_slots
		 WHERE psychologist_id = $1 AND slot_date >= $2
		 ORDER BY slot_date, slot_index`, psychologistID, fromDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func (r *PgRepository) ListScheduledSlotsForDate(ctx context.Context, psychologistID uuid.UUID, slotDate string) ([]ScheduledSlot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+scheduledSlotColumns+`
		 FROM scheduled_slots
		 WHERE psychologist_id = $1 AND slot_date = $2
		 ORDER BY slot_index`, psychologistID, slotDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func collectSlots(rows pgx.Rows) ([]ScheduledSlot, error) {
	var slots []ScheduledSlot
	for rows.Next() {
		slot, err := scanScheduledSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *slot)
	}
	return slots, rows.Err()
}

func (r *PgRepository) GetScheduledSlotByID(ctx context.Context, id uuid.UUID) (*ScheduledSlot, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+scheduledSlotColumns+` FROM scheduled_slots WHERE id = $1`, id)
	return scanScheduledSlot(row)
}

func (r *PgRepository) CreateScheduledSlot(ctx context.Context, slot ScheduledSlot) (*ScheduledSlot, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO scheduled_slots
		   (psychologist_id, template_id, slot_date, start_time, end_time, slot_index, status, max_capacity)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+scheduledSlotColumns,
		slot.PsychologistID, slot.TemplateID, slot.SlotDate, slot.StartTime,
		slot.EndTime, slot.SlotIndex, slot.Status, slot.MaxCapacity)

	created, err := scanScheduledSlot(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSlotAlreadyScheduled
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetActiveAppointment(ctx context.Context, slotID, studentID uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, slot_id, student_id, type, status, created_at, updated_at
		 FROM appointments
		 WHERE slot_id = $1 AND student_id = $2 AND status = $3`,
		slotID, studentID, StatusConfirmed)

	var a Appointment
	err := row.Scan(&a.ID, &a.SlotID, &a.StudentID, &a.Type, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

// CreateAppointment inserts the appointment and bumps the slot's booking
// count in one transaction. A slot that reaches capacity flips to booked.
func (r *PgRepository) CreateAppointment(ctx context.Context, slotID, studentID uuid.UUID, apptType AppointmentType) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`INSERT INTO appointments (slot_id, student_id, type, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, slot_id, student_id, type, status, created_at, updated_at`,
		slotID, studentID, apptType, StatusConfirmed)

	var a Appointment
	if err := row.Scan(&a.ID, &a.SlotID, &a.StudentID, &a.Type, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}

	ct, err := tx.Exec(ctx,
		`UPDATE scheduled_slots
		 SET current_bookings = current_bookings + 1,
		     status = CASE WHEN current_bookings + 1 >= max_capacity THEN $2 ELSE status END,
		     updated_at = now()
		 WHERE id = $1 AND current_bookings < max_capacity`,
		slotID, SlotBooked)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrSlotNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &a, nil
}

const appointmentDetailQuery = `
	SELECT a.id, a.slot_id, a.student_id, a.type, a.status, a.created_at, a.updated_at,
	       s.id, s.psychologist_id, s.template_id, s.slot_date::text, s.start_time, s.end_time,
	       s.slot_index, s.status, s.current_bookings, s.max_capacity, s.created_at, s.updated_at,
	       st.id, st.name, st.email, st.created_at, st.updated_at,
	       p.id, p.name, p.specialty, p.created_at, p.updated_at
	FROM appointments a
	JOIN scheduled_slots s ON s.id = a.slot_id
	JOIN students st ON st.id = a.student_id
	JOIN psychologists p ON p.id = s.psychologist_id`

func (r *PgRepository) ListAppointmentsByStudent(ctx context.Context, studentID uuid.UUID) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx,
		appointmentDetailQuery+` WHERE a.student_id = $1 ORDER BY s.slot_date, s.slot_index`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

func (r *PgRepository) ListAppointmentsByPsychologist(ctx context.Context, psychologistID uuid.UUID) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx,
		appointmentDetailQuery+` WHERE s.psychologist_id = $1 ORDER BY s.slot_date, s.slot_index`, psychologistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

func (r *PgRepository) ListAppointments(ctx context.Context) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx,
		appointmentDetailQuery+` ORDER BY s.slot_date, s.slot_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

func collectDetails(rows pgx.Rows) ([]AppointmentDetail, error) {
	var details []AppointmentDetail
	for rows.Next() {
		var (
			d  AppointmentDetail
			s  ScheduledSlot
			st Student
			p  Psychologist
		)
		err := rows.Scan(
			&d.ID, &d.SlotID, &d.StudentID, &d.Type, &d.Status, &d.CreatedAt, &d.UpdatedAt,
			&s.ID, &s.PsychologistID, &s.TemplateID, &s.SlotDate, &s.StartTime, &s.EndTime,
			&s.SlotIndex, &s.Status, &s.CurrentBookings, &s.MaxCapacity, &s.CreatedAt, &s.UpdatedAt,
			&st.ID, &st.Name, &st.Email, &st.CreatedAt, &st.UpdatedAt,
			&p.ID, &p.Name, &p.Specialty, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		d.Slot = &s
		d.Student = &st
		d.Psychologist = &p
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *PgRepository) CreateLeaveRequest(ctx context.Context, req LeaveRequest) (*LeaveRequest, error) {
	row := r.pool.QueryRow(ctx,
		`WITH inserted AS (
		   INSERT INTO leave_requests (psychologist_id, start_date, end_date, reason, status)
		   VALUES ($1, $2, $3, $4, $5)
		   RETURNING *
		 )
		 SELECT `+leaveRequestColumns+`
		 FROM inserted lr JOIN psychologists p ON p.id = lr.psychologist_id`,
		req.PsychologistID, req.StartDate, req.EndDate, req.Reason, req.Status)
	return scanLeaveRequest(row)
}

func (r *PgRepository) GetLeaveRequestByID(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+leaveRequestColumns+`
		 FROM leave_requests lr JOIN psychologists p ON p.id = lr.psychologist_id
		 WHERE lr.id = $1`, id)
	return scanLeaveRequest(row)
}

func (r *PgRepository) ListLeaveRequestsByPsychologist(ctx context.Context, psychologistID uuid.UUID) ([]LeaveRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+leaveRequestColumns+`
		 FROM leave_requests lr JOIN psychologists p ON p.id = lr.psychologist_id
		 WHERE lr.psychologist_id = $1
		 ORDER BY lr.created_at DESC`, psychologistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeaveRequests(rows)
}

func (r *PgRepository) ListLeaveRequests(ctx context.Context) ([]LeaveRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+leaveRequestColumns+`
		 FROM leave_requests lr JOIN psychologists p ON p.id = lr.psychologist_id
		 ORDER BY lr.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeaveRequests(rows)
}

func collectLeaveRequests(rows pgx.Rows) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func (r *PgRepository) UpdateLeaveRequestStatus(ctx context.Context, id uuid.UUID, from, to LeaveStatus) (*LeaveRequest, error) {
	row := r.pool.QueryRow(ctx,
		`WITH updated AS (
		   UPDATE leave_requests
		   SET status = $3, updated_at = now()
		   WHERE id = $1 AND status = $2
		   RETURNING *
		 )
		 SELECT `+leaveRequestColumns+`
		 FROM updated lr JOIN psychologists p ON p.id = lr.psychologist_id`,
		id, from, to)
	return scanLeaveRequest(row)
}

func (r *PgRepository) FindLeaveRequestsToExpire(ctx context.Context, today string) ([]LeaveRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+leaveRequestColumns+`
		 FROM leave_requests lr JOIN psychologists p ON p.id = lr.psychologist_id
		 WHERE lr.status = $1 AND lr.start_date < $2`, LeavePending, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeaveRequests(rows)
}
