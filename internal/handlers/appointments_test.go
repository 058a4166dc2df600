package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/c-moralesv/lexagenda/internal/model"
)

func createBody(overrides map[string]string) string {
	body := map[string]string{
		"service_id":   "s1",
		"lawyer_id":    "l1",
		"client_name":  "Ana Torres",
		"client_email": "ana@example.com",
		"client_phone": "+56911112222",
		"date":         "2025-06-04",
		"start_time":   "12:30",
		"comment":      "first visit",
	}
	for k, v := range overrides {
		body[k] = v
	}
	raw, _ := json.Marshal(body)
	return string(raw)
}

func postAppointment(t *testing.T, env *testEnv, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	env.appointments.Create(rec, req)
	return rec
}

func TestCreateAppointment(t *testing.T) {
	env := newTestEnv()

	rec := postAppointment(t, env, createBody(nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got appointmentJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != "requested" {
		t.Errorf("status = %s, want requested", got.Status)
	}
	if got.DurationMinutes != 45 {
		t.Errorf("duration = %d, want 45 copied from the service", got.DurationMinutes)
	}
	if got.ID == "" {
		t.Error("response should carry the new appointment id")
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	env := newTestEnv()

	cases := []struct {
		name string
		body string
	}{
		{"bad json", "{"},
		{"missing name", createBody(map[string]string{"client_name": ""})},
		{"bad email", createBody(map[string]string{"client_email": "not-an-email"})},
		{"bad date", createBody(map[string]string{"date": "04/06/2025"})},
		{"bad time", createBody(map[string]string{"start_time": "12h30"})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postAppointment(t, env, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateAppointmentUnknownCatalog(t *testing.T) {
	env := newTestEnv()

	rec := postAppointment(t, env, createBody(map[string]string{"service_id": "missing"}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown service: status = %d, want 404", rec.Code)
	}
	rec = postAppointment(t, env, createBody(map[string]string{"lawyer_id": "missing"}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown lawyer: status = %d, want 404", rec.Code)
	}
}

func TestCreateAppointmentOffGrid(t *testing.T) {
	env := newTestEnv()

	// 12:00 is a valid clock but never a slot start.
	rec := postAppointment(t, env, createBody(map[string]string{"start_time": "12:00"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	// Sunday has no grid at all.
	rec = postAppointment(t, env, createBody(map[string]string{"date": "2025-06-08", "start_time": "09:30"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Sunday: status = %d, want 400", rec.Code)
	}
}

func TestCreateAppointmentSlotTaken(t *testing.T) {
	env := newTestEnv()

	if rec := postAppointment(t, env, createBody(nil)); rec.Code != http.StatusCreated {
		t.Fatalf("first booking: status = %d", rec.Code)
	}
	rec := postAppointment(t, env, createBody(map[string]string{
		"client_name":  "Pedro Soto",
		"client_email": "pedro@example.com",
	}))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestCreateAppointmentBlackedOut(t *testing.T) {
	env := newTestEnv()
	env.blackouts.blackouts["blk-1"] = model.Blackout{
		ID: "blk-1", LawyerID: "l1", StartDate: "2025-06-04", EndDate: "2025-06-04",
		Kind: model.BlackoutTimeRange, StartTime: "12:00", EndTime: "14:00",
	}

	rec := postAppointment(t, env, createBody(nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	// A slot outside the window still books fine.
	rec = postAppointment(t, env, createBody(map[string]string{"start_time": "15:30"}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("outside blackout: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestCancelledSlotCanBeRebooked(t *testing.T) {
	env := newTestEnv()

	rec := postAppointment(t, env, createBody(nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first booking: status = %d", rec.Code)
	}
	var first appointmentJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}

	patchStatus(t, env, first.ID, `{"status":"cancelled"}`)

	rec = postAppointment(t, env, createBody(map[string]string{
		"client_name":  "Pedro Soto",
		"client_email": "pedro@example.com",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("rebooking a cancelled slot: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func patchStatus(t *testing.T, env *testEnv, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/appointments/"+id, strings.NewReader(body))
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	env.appointments.UpdateStatus(rec, req)
	return rec
}

func TestUpdateStatusConfirm(t *testing.T) {
	env := newTestEnv()
	rec := postAppointment(t, env, createBody(nil))
	var appt appointmentJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = patchStatus(t, env, appt.ID, `{"status":"confirmed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Appointment      appointmentJSON `json:"appointment"`
		Committed        bool            `json:"committed"`
		CalendarSynced   bool            `json:"calendar_synced"`
		NotificationSent bool            `json:"notification_sent"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Appointment.Status != "confirmed" || !resp.Committed || !resp.CalendarSynced || !resp.NotificationSent {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Appointment.MeetingLink == "" {
		t.Error("confirmed appointment should carry the meeting link")
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	env := newTestEnv()
	rec := postAppointment(t, env, createBody(nil))
	var appt appointmentJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if rec := patchStatus(t, env, appt.ID, `{"status":"archived"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown status: code = %d, want 400", rec.Code)
	}
	if rec := patchStatus(t, env, "missing", `{"status":"confirmed"}`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown appointment: code = %d, want 404", rec.Code)
	}

	patchStatus(t, env, appt.ID, `{"status":"cancelled"}`)
	if rec := patchStatus(t, env, appt.ID, `{"status":"confirmed"}`); rec.Code != http.StatusConflict {
		t.Errorf("confirm after cancel: code = %d, want 409", rec.Code)
	}
}

func TestGetAppointment(t *testing.T) {
	env := newTestEnv()
	rec := postAppointment(t, env, createBody(nil))
	var appt appointmentJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/"+appt.ID, nil)
	req.SetPathValue("id", appt.ID)
	got := httptest.NewRecorder()
	env.appointments.Get(got, req)
	if got.Code != http.StatusOK {
		t.Fatalf("status = %d", got.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/appointments/missing", nil)
	req.SetPathValue("id", "missing")
	missing := httptest.NewRecorder()
	env.appointments.Get(missing, req)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("missing: status = %d, want 404", missing.Code)
	}
}

func TestListAppointments(t *testing.T) {
	env := newTestEnv()
	postAppointment(t, env, createBody(nil))
	postAppointment(t, env, createBody(map[string]string{"start_time": "15:30"}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	rec := httptest.NewRecorder()
	env.appointments.List(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Appointments []appointmentSummaryJSON `json:"appointments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Appointments) != 2 {
		t.Fatalf("listed %d appointments, want 2", len(resp.Appointments))
	}
	if resp.Appointments[0].LawyerName == "" {
		t.Error("summary rows should carry the lawyer name")
	}
}

func TestAvailability(t *testing.T) {
	env := newTestEnv()
	postAppointment(t, env, createBody(nil)) // occupies 12:30
	env.blackouts.blackouts["blk-1"] = model.Blackout{
		ID: "blk-1", LawyerID: "l1", StartDate: "2025-06-04", EndDate: "2025-06-04",
		Kind: model.BlackoutTimeRange, StartTime: "15:30", EndTime: "16:30",
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/availability?lawyer_id=l1&date=2025-06-04", nil)
	rec := httptest.NewRecorder()
	env.appointments.Availability(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Slots []struct {
			Start     string `json:"start"`
			Available bool   `json:"available"`
		} `json:"slots"`
		OccupiedTimes []string       `json:"occupied_times"`
		Blackouts     []blackoutJSON `json:"blackouts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Slots) != 10 {
		t.Fatalf("slots = %d, want 10", len(resp.Slots))
	}
	unavailable := map[string]bool{}
	for _, s := range resp.Slots {
		if !s.Available {
			unavailable[s.Start] = true
		}
	}
	for _, start := range []string{"12:30", "15:30"} {
		if !unavailable[start] {
			t.Errorf("slot %s should be unavailable", start)
		}
	}
	if len(unavailable) != 2 {
		t.Errorf("unavailable slots = %v, want exactly 12:30 and 15:30", unavailable)
	}
	if len(resp.OccupiedTimes) != 1 || resp.OccupiedTimes[0] != "12:30" {
		t.Errorf("occupied_times = %v, want [12:30]", resp.OccupiedTimes)
	}
	if len(resp.Blackouts) != 1 {
		t.Errorf("blackouts = %d, want 1", len(resp.Blackouts))
	}
}

func TestAvailabilityValidation(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/availability?date=2025-06-04", nil)
	rec := httptest.NewRecorder()
	env.appointments.Availability(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing lawyer_id: status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/appointments/availability?lawyer_id=l1&date=junk", nil)
	rec = httptest.NewRecorder()
	env.appointments.Availability(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: status = %d, want 400", rec.Code)
	}
}
