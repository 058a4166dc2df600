package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/c-moralesv/lexagenda/internal/booking"
	"github.com/c-moralesv/lexagenda/internal/model"
	"github.com/c-moralesv/lexagenda/internal/schedule"
	"github.com/c-moralesv/lexagenda/internal/storage"
)

// AppointmentStore is what the appointment endpoints need from storage
// beyond the state machine's own surface.
type AppointmentStore interface {
	Create(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	List(ctx context.Context) ([]model.AppointmentSummary, error)
	OccupiedStarts(ctx context.Context, lawyerID, date string) ([]string, error)
	FindConflicting(ctx context.Context, lawyerID, date, startTime string) (model.Appointment, bool, error)
}

type AppointmentHandler struct {
	store      AppointmentStore
	directory  booking.Directory
	calculator *schedule.Calculator
	blackouts  schedule.BlackoutSource
	machine    *booking.Machine
	logger     *slog.Logger
}

func NewAppointmentHandler(store AppointmentStore, directory booking.Directory, calc *schedule.Calculator, blackouts schedule.BlackoutSource, machine *booking.Machine, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		store:      store,
		directory:  directory,
		calculator: calc,
		blackouts:  blackouts,
		machine:    machine,
		logger:     logger,
	}
}

type createAppointmentRequest struct {
	ServiceID   string `json:"service_id"`
	LawyerID    string `json:"lawyer_id"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ClientPhone string `json:"client_phone"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	Comment     string `json:"comment"`
}

func (req *createAppointmentRequest) validate() string {
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.LawyerID = strings.TrimSpace(req.LawyerID)
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ClientEmail = strings.TrimSpace(req.ClientEmail)
	req.ClientPhone = strings.TrimSpace(req.ClientPhone)
	req.Date = strings.TrimSpace(req.Date)
	req.StartTime = strings.TrimSpace(req.StartTime)

	switch {
	case req.ServiceID == "":
		return "service_id is required"
	case req.LawyerID == "":
		return "lawyer_id is required"
	case req.ClientName == "":
		return "client_name is required"
	case req.ClientEmail == "" || !strings.Contains(req.ClientEmail, "@"):
		return "a valid client_email is required"
	case !model.ValidDate(req.Date):
		return "date must be formatted YYYY-MM-DD"
	case !model.ValidClock(req.StartTime):
		return "start_time must be formatted HH:MM"
	}
	return ""
}

// Create handles POST /api/v1/appointments. The availability check here
// is a fast path for a friendly 409; the database's uniqueness
// constraint still decides races.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	service, err := h.directory.GetService(r.Context(), req.ServiceID)
	if storage.IsNotFound(err) || (err == nil && !service.Active) {
		writeError(w, http.StatusNotFound, "unknown service")
		return
	}
	if err != nil {
		h.serverError(w, r, "load service", err)
		return
	}
	lawyer, err := h.directory.GetLawyer(r.Context(), req.LawyerID)
	if storage.IsNotFound(err) || (err == nil && !lawyer.Active) {
		writeError(w, http.StatusNotFound, "unknown lawyer")
		return
	}
	if err != nil {
		h.serverError(w, r, "load lawyer", err)
		return
	}

	onGrid, err := h.calculator.Schedule.Contains(req.Date, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
		return
	}
	if !onGrid {
		writeError(w, http.StatusBadRequest, "start_time is not a bookable slot on that date")
		return
	}

	// Friendly fast path; the unique index still decides races.
	_, taken, err := h.store.FindConflicting(r.Context(), req.LawyerID, req.Date, req.StartTime)
	if err != nil {
		h.serverError(w, r, "check conflicts", err)
		return
	}
	if taken {
		writeError(w, http.StatusConflict, "the selected time is already booked")
		return
	}

	available, err := h.calculator.IsSlotAvailable(r.Context(), req.LawyerID, req.Date, req.StartTime)
	if err != nil {
		h.serverError(w, r, "check availability", err)
		return
	}
	if !available {
		writeError(w, http.StatusConflict, "the requested slot is no longer available")
		return
	}

	appt, err := h.store.Create(r.Context(), model.Appointment{
		ServiceID:       req.ServiceID,
		LawyerID:        req.LawyerID,
		ClientName:      req.ClientName,
		ClientEmail:     req.ClientEmail,
		ClientPhone:     req.ClientPhone,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: service.DurationMinutes,
		Comment:         req.Comment,
	})
	if storage.IsConflict(err) {
		writeError(w, http.StatusConflict, "the requested slot is no longer available")
		return
	}
	if err != nil {
		h.serverError(w, r, "create appointment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentJSON(appt))
}

// Availability handles GET /api/v1/availability?lawyer_id=&date=.
func (h *AppointmentHandler) Availability(w http.ResponseWriter, r *http.Request) {
	lawyerID := strings.TrimSpace(r.URL.Query().Get("lawyer_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if lawyerID == "" {
		writeError(w, http.StatusBadRequest, "lawyer_id is required")
		return
	}
	if !model.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
		return
	}

	slots, err := h.calculator.AvailableSlots(r.Context(), lawyerID, date)
	if err != nil {
		h.serverError(w, r, "compute availability", err)
		return
	}
	occupied, err := h.store.OccupiedStarts(r.Context(), lawyerID, date)
	if err != nil {
		h.serverError(w, r, "list occupied slots", err)
		return
	}
	blackouts, err := h.blackouts.ListForDate(r.Context(), lawyerID, date)
	if err != nil {
		h.serverError(w, r, "list blackouts", err)
		return
	}

	type slotJSON struct {
		Start     string `json:"start"`
		End       string `json:"end"`
		Available bool   `json:"available"`
	}
	slotsOut := make([]slotJSON, 0, len(slots))
	for _, s := range slots {
		slotsOut = append(slotsOut, slotJSON{Start: s.Start, End: s.End, Available: s.Available})
	}
	blackoutsOut := make([]blackoutJSON, 0, len(blackouts))
	for _, b := range blackouts {
		blackoutsOut = append(blackoutsOut, toBlackoutJSON(b))
	}
	if occupied == nil {
		occupied = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lawyer_id":      lawyerID,
		"date":           date,
		"slots":          slotsOut,
		"occupied_times": occupied,
		"blackouts":      blackoutsOut,
	})
}

// List handles GET /api/v1/appointments (staff only).
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.List(r.Context())
	if err != nil {
		h.serverError(w, r, "list appointments", err)
		return
	}
	out := make([]appointmentSummaryJSON, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, appointmentSummaryJSON{
			appointmentJSON: toAppointmentJSON(s.Appointment),
			ServiceName:     s.ServiceName,
			LawyerName:      s.LawyerName,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": out})
}

// Get handles GET /api/v1/appointments/{id} (staff only).
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	appt, err := h.store.Get(r.Context(), r.PathValue("id"))
	if storage.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		h.serverError(w, r, "load appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentJSON(appt))
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	// Comment is accepted as an alias for reason.
	Comment string `json:"comment"`
}

// UpdateStatus handles PATCH /api/v1/appointments/{id} (staff only).
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = strings.TrimSpace(req.Comment)
	}
	res, err := h.machine.Transition(r.Context(), r.PathValue("id"), model.AppointmentStatus(req.Status), reason)
	switch {
	case err == nil:
	case errors.Is(err, booking.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	case storage.IsNotFound(err):
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	case errors.Is(err, booking.ErrIllegalTransition):
		writeError(w, http.StatusConflict, err.Error())
		return
	default:
		h.serverError(w, r, "update appointment status", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"appointment":       toAppointmentJSON(res.Appointment),
		"committed":         res.Committed,
		"calendar_synced":   res.CalendarSynced,
		"notification_sent": res.NotificationSent,
	})
}

func (h *AppointmentHandler) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error("appointment handler: "+op, "method", r.Method, "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
