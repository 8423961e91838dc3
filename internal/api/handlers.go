package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/VietNguyen1207/Health-Support-System-sub001/internal/booking"
	"github.com/VietNguyen1207/Health-Support-System-sub001/internal/menu"
	"github.com/VietNguyen1207/Health-Support-System-sub001/internal/schedule"
)

func availabilityHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		psychID, err := uuid.Parse(r.URL.Query().Get("psychologist_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_psychologist_id", "psychologist_id must be a valid UUID")
			return
		}
		date := r.URL.Query().Get("date")

		slots, err := svc.GetAvailability(r.Context(), psychID, date)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if slots == nil {
			// Keep the empty list explicit: "no slots" renders differently
			// from "loading" and from "nothing selected".
			slots = []schedule.SlotAvailability{}
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{Date: date, Slots: slots})
	}
}

func scheduleCandidatesHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			writeError(w, http.StatusBadRequest, "missing_date", "date query parameter is required")
			return
		}

		candidates, err := svc.GetScheduleCandidates(r.Context(), actorFrom(r), date)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]ScheduleCandidateResponse, 0, len(candidates))
		for _, c := range candidates {
			resp = append(resp, ScheduleCandidateResponse{
				TemplateID: c.Template.ID,
				StartTime:  c.Template.StartTime,
				EndTime:    c.Template.EndTime,
				Period:     string(c.Template.Period),
				Selectable: c.Selectable,
				Reason:     c.Reason,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listScheduleHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := svc.ListSchedule(r.Context(), actorFrom(r), r.URL.Query().Get("from"))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]ScheduledSlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, toSlotResponse(s))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createScheduleHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req schedule.CreateScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		created, err := svc.CreateSchedule(r.Context(), actorFrom(r), req)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]ScheduledSlotResponse, 0, len(created))
		for _, s := range created {
			resp = append(resp, toSlotResponse(s))
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func bookAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		slotID, err := uuid.Parse(req.SlotID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "slot_id must be a valid UUID")
			return
		}

		apptType := booking.AppointmentType(req.Type)
		if apptType != booking.TypeInPerson && apptType != booking.TypeOnline {
			writeError(w, http.StatusBadRequest, "invalid_type", "type must be in-person or online")
			return
		}

		appt, err := svc.BookAppointment(r.Context(), actorFrom(r), slotID, apptType)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, AppointmentResponse{
			ID:        appt.ID,
			SlotID:    appt.SlotID,
			StudentID: appt.StudentID,
			Type:      string(appt.Type),
			Status:    string(appt.Status),
			CreatedAt: appt.CreatedAt,
		})
	}
}

func calendarHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buckets, err := svc.GetCalendar(r.Context(), actorFrom(r))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := CalendarResponse{
			Dates:   buckets.Dates(),
			Buckets: make(map[string][]CalendarEntryResponse, len(buckets)),
		}
		for date, entries := range buckets {
			out := make([]CalendarEntryResponse, 0, len(entries))
			for _, e := range entries {
				out = append(out, CalendarEntryResponse{
					AppointmentID: e.ID,
					StartsAt:      e.StartsAt,
					Type:          e.Type,
					Status:        e.Status,
					Category:      string(e.Category),
				})
			}
			resp.Buckets[date] = out
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createLeaveRequestHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateLeaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		created, err := svc.SubmitLeaveRequest(r.Context(), actorFrom(r), req.StartDate, req.EndDate, req.Reason)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toLeaveResponse(*created))
	}
}

func listLeaveRequestsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests, err := svc.ListLeaveRequests(r.Context(), actorFrom(r))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]LeaveRequestResponse, 0, len(requests))
		for _, req := range requests {
			resp = append(resp, toLeaveResponse(req))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func decideLeaveRequestHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_id", "id must be a valid UUID")
			return
		}

		var req DecideLeaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := svc.DecideLeaveRequest(r.Context(), actorFrom(r), id, req.Approve)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toLeaveResponse(*updated))
	}
}

func menuHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		writeJSON(w, http.StatusOK, menu.Filter(menu.Default, actor.Role))
	}
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrEmptySelection):
		writeError(w, http.StatusBadRequest, "empty_selection", err.Error())
	case errors.Is(err, schedule.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, booking.ErrInvalidDateRange),
		errors.Is(err, booking.ErrLeaveTooLong),
		errors.Is(err, booking.ErrShortNotice):
		writeError(w, http.StatusBadRequest, "invalid_leave_request", err.Error())
	case errors.Is(err, booking.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, booking.ErrStudentNotFound),
		errors.Is(err, booking.ErrPsychologistNotFound),
		errors.Is(err, booking.ErrSlotNotFound),
		errors.Is(err, booking.ErrLeaveRequestNotFound),
		errors.Is(err, booking.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, booking.ErrSlotAlreadyScheduled):
		writeError(w, http.StatusConflict, "slot_already_scheduled", err.Error())
	case errors.Is(err, booking.ErrSlotExpired):
		writeError(w, http.StatusConflict, "slot_expired", err.Error())
	case errors.Is(err, booking.ErrSlotNotOpen):
		writeError(w, http.StatusConflict, "slot_not_open", err.Error())
	case errors.Is(err, booking.ErrSlotFull):
		writeError(w, http.StatusConflict, "slot_full", err.Error())
	case errors.Is(err, booking.ErrAlreadyBooked):
		writeError(w, http.StatusConflict, "already_booked", err.Error())
	case errors.Is(err, booking.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrDecisionNotPending):
		writeError(w, http.StatusConflict, "not_pending", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
