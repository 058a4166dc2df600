package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/c-moralesv/lexagenda/internal/booking"
	"github.com/c-moralesv/lexagenda/internal/model"
	"github.com/c-moralesv/lexagenda/internal/storage"
)

type BlackoutStore interface {
	Create(ctx context.Context, b model.Blackout) (model.Blackout, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.BlackoutSummary, error)
	ListForDate(ctx context.Context, lawyerID, date string) ([]model.Blackout, error)
	IsBlocked(ctx context.Context, lawyerID, date, clock string) (bool, error)
}

type BlackoutHandler struct {
	store    BlackoutStore
	resolver *booking.Resolver
	logger   *slog.Logger
}

func NewBlackoutHandler(store BlackoutStore, resolver *booking.Resolver, logger *slog.Logger) *BlackoutHandler {
	return &BlackoutHandler{store: store, resolver: resolver, logger: logger}
}

type blackoutRequest struct {
	LawyerID  string `json:"lawyer_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Kind      string `json:"kind"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason"`
}

func (req *blackoutRequest) toModel() (model.Blackout, string) {
	req.LawyerID = strings.TrimSpace(req.LawyerID)
	req.StartDate = strings.TrimSpace(req.StartDate)
	req.EndDate = strings.TrimSpace(req.EndDate)
	req.StartTime = strings.TrimSpace(req.StartTime)
	req.EndTime = strings.TrimSpace(req.EndTime)

	// A single-day blackout may omit end_date.
	if req.EndDate == "" {
		req.EndDate = req.StartDate
	}

	kind := model.BlackoutKind(req.Kind)
	switch {
	case req.LawyerID == "":
		return model.Blackout{}, "lawyer_id is required"
	case !model.ValidDate(req.StartDate):
		return model.Blackout{}, "start_date must be formatted YYYY-MM-DD"
	case !model.ValidDate(req.EndDate):
		return model.Blackout{}, "end_date must be formatted YYYY-MM-DD"
	case req.EndDate < req.StartDate:
		return model.Blackout{}, "end_date must not precede start_date"
	case kind != model.BlackoutFullDay && kind != model.BlackoutTimeRange:
		return model.Blackout{}, "kind must be full_day or time_range"
	}

	b := model.Blackout{
		LawyerID:  req.LawyerID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Kind:      kind,
		Reason:    strings.TrimSpace(req.Reason),
	}
	if kind == model.BlackoutTimeRange {
		switch {
		case !model.ValidClock(req.StartTime):
			return model.Blackout{}, "start_time must be formatted HH:MM"
		case !model.ValidClock(req.EndTime):
			return model.Blackout{}, "end_time must be formatted HH:MM"
		case req.EndTime <= req.StartTime:
			return model.Blackout{}, "end_time must be after start_time"
		}
		b.StartTime = req.StartTime
		b.EndTime = req.EndTime
	}
	return b, ""
}

// Create handles POST /api/v1/blackouts (staff only). The affected set
// is recomputed after the blackout is stored, so the response reflects
// what was actually flagged, not what a preview promised.
func (h *BlackoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req blackoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	b, msg := req.toModel()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := h.store.Create(r.Context(), b)
	if err != nil {
		h.serverError(w, r, "create blackout", err)
		return
	}

	flagged, err := h.resolver.Resolve(r.Context(), created)
	if err != nil {
		h.serverError(w, r, "resolve blackout conflicts", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"blackout":              toBlackoutJSON(created),
		"affected_appointments": toAppointmentJSONList(flagged),
	})
}

// Preview handles POST /api/v1/blackouts/preview (staff only). Nothing
// is persisted; the response lists the appointments the blackout would
// collide with.
func (h *BlackoutHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req blackoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	b, msg := req.toModel()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	affected, err := h.resolver.Preview(r.Context(), b)
	if err != nil {
		h.serverError(w, r, "preview blackout conflicts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"affected_appointments": toAppointmentJSONList(affected),
	})
}

// List handles GET /api/v1/blackouts (staff only).
func (h *BlackoutHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.List(r.Context())
	if err != nil {
		h.serverError(w, r, "list blackouts", err)
		return
	}
	type summaryJSON struct {
		blackoutJSON
		LawyerName string `json:"lawyer_name"`
	}
	out := make([]summaryJSON, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, summaryJSON{blackoutJSON: toBlackoutJSON(s.Blackout), LawyerName: s.LawyerName})
	}
	writeJSON(w, http.StatusOK, map[string]any{"blackouts": out})
}

// Delete handles DELETE /api/v1/blackouts/{id} (staff only). Flags set
// when the blackout was created stay in place.
func (h *BlackoutHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.Delete(r.Context(), r.PathValue("id"))
	if storage.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "blackout not found")
		return
	}
	if err != nil {
		h.serverError(w, r, "delete blackout", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      r.PathValue("id"),
		"deleted": true,
	})
}

// Check handles GET /api/v1/blackouts/check?lawyer_id=&date=&time=.
// Without time it reports full-day blackouts only.
func (h *BlackoutHandler) Check(w http.ResponseWriter, r *http.Request) {
	lawyerID := strings.TrimSpace(r.URL.Query().Get("lawyer_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	clock := strings.TrimSpace(r.URL.Query().Get("time"))
	if lawyerID == "" {
		writeError(w, http.StatusBadRequest, "lawyer_id is required")
		return
	}
	if !model.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
		return
	}
	if clock != "" && !model.ValidClock(clock) {
		writeError(w, http.StatusBadRequest, "time must be formatted HH:MM")
		return
	}

	blocked, err := h.store.IsBlocked(r.Context(), lawyerID, date, clock)
	if err != nil {
		h.serverError(w, r, "check blackout", err)
		return
	}
	blackouts, err := h.store.ListForDate(r.Context(), lawyerID, date)
	if err != nil {
		h.serverError(w, r, "list blackouts for date", err)
		return
	}
	out := make([]blackoutJSON, 0, len(blackouts))
	for _, b := range blackouts {
		out = append(out, toBlackoutJSON(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"blocked":   blocked,
		"blackouts": out,
	})
}

func (h *BlackoutHandler) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error("blackout handler: "+op, "method", r.Method, "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
