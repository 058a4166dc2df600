package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/c-moralesv/lexagenda/internal/booking"
	"github.com/c-moralesv/lexagenda/internal/calendar"
	"github.com/c-moralesv/lexagenda/internal/model"
	"github.com/c-moralesv/lexagenda/internal/schedule"
)

// fakeAppointments backs both the handler store and the state machine
// store in tests.
type fakeAppointments struct {
	appts map[string]model.Appointment
	seq   int
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{appts: map[string]model.Appointment{}}
}

func (s *fakeAppointments) Create(_ context.Context, appt model.Appointment) (model.Appointment, error) {
	for _, existing := range s.appts {
		if existing.LawyerID == appt.LawyerID && existing.Date == appt.Date &&
			existing.StartTime == appt.StartTime && existing.Status.Live() {
			return model.Appointment{}, errors.New("duplicate slot")
		}
	}
	s.seq++
	appt.ID = fmt.Sprintf("appt-%d", s.seq)
	appt.Status = model.StatusRequested
	s.appts[appt.ID] = appt
	return appt, nil
}

func (s *fakeAppointments) Get(_ context.Context, id string) (model.Appointment, error) {
	appt, ok := s.appts[id]
	if !ok {
		return model.Appointment{}, pgx.ErrNoRows
	}
	return appt, nil
}

func (s *fakeAppointments) List(_ context.Context) ([]model.AppointmentSummary, error) {
	var out []model.AppointmentSummary
	for _, appt := range s.appts {
		out = append(out, model.AppointmentSummary{
			Appointment: appt,
			ServiceName: "Initial consultation",
			LawyerName:  "Carolina Morales",
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeAppointments) OccupiedStarts(_ context.Context, lawyerID, date string) ([]string, error) {
	var starts []string
	for _, appt := range s.appts {
		if appt.LawyerID == lawyerID && appt.Date == date && appt.Status.Live() {
			starts = append(starts, appt.StartTime)
		}
	}
	sort.Strings(starts)
	return starts, nil
}

func (s *fakeAppointments) FindConflicting(_ context.Context, lawyerID, date, startTime string) (model.Appointment, bool, error) {
	for _, appt := range s.appts {
		if appt.LawyerID == lawyerID && appt.Date == date && appt.StartTime == startTime && appt.Status.Live() {
			return appt, true, nil
		}
	}
	return model.Appointment{}, false, nil
}

func (s *fakeAppointments) UpdateStatus(_ context.Context, id string, status model.AppointmentStatus, upd booking.StatusUpdate) (model.Appointment, error) {
	appt, ok := s.appts[id]
	if !ok {
		return model.Appointment{}, pgx.ErrNoRows
	}
	appt.Status = status
	if upd.Comment != nil {
		appt.Comment = *upd.Comment
	}
	if upd.CalendarEventID != nil {
		appt.CalendarEventID = *upd.CalendarEventID
	}
	if upd.MeetingLink != nil {
		appt.MeetingLink = *upd.MeetingLink
	}
	s.appts[id] = appt
	return appt, nil
}

func (s *fakeAppointments) ListLiveInRange(_ context.Context, lawyerID, startDate, endDate string) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, appt := range s.appts {
		if appt.LawyerID == lawyerID && appt.Status.Live() &&
			startDate <= appt.Date && appt.Date <= endDate {
			out = append(out, appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeBlackoutRepo struct {
	blackouts map[string]model.Blackout
	seq       int
}

func newFakeBlackoutRepo() *fakeBlackoutRepo {
	return &fakeBlackoutRepo{blackouts: map[string]model.Blackout{}}
}

func (s *fakeBlackoutRepo) Create(_ context.Context, b model.Blackout) (model.Blackout, error) {
	s.seq++
	b.ID = fmt.Sprintf("blk-%d", s.seq)
	s.blackouts[b.ID] = b
	return b, nil
}

func (s *fakeBlackoutRepo) Delete(_ context.Context, id string) error {
	if _, ok := s.blackouts[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.blackouts, id)
	return nil
}

func (s *fakeBlackoutRepo) List(_ context.Context) ([]model.BlackoutSummary, error) {
	var out []model.BlackoutSummary
	for _, b := range s.blackouts {
		out = append(out, model.BlackoutSummary{Blackout: b, LawyerName: "Carolina Morales"})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeBlackoutRepo) ListForDate(_ context.Context, lawyerID, date string) ([]model.Blackout, error) {
	var out []model.Blackout
	for _, b := range s.blackouts {
		if b.LawyerID == lawyerID && b.CoversDate(date) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeBlackoutRepo) IsBlocked(_ context.Context, lawyerID, date, clock string) (bool, error) {
	blackouts, _ := s.ListForDate(context.Background(), lawyerID, date)
	for _, b := range blackouts {
		if clock == "" {
			if b.Kind == model.BlackoutFullDay {
				return true, nil
			}
			continue
		}
		if b.Covers(date, clock) {
			return true, nil
		}
	}
	return false, nil
}

type fakeCatalog struct{}

func (fakeCatalog) GetLawyer(_ context.Context, id string) (model.Lawyer, error) {
	if id != "l1" {
		return model.Lawyer{}, pgx.ErrNoRows
	}
	return model.Lawyer{ID: id, Name: "Carolina Morales", Email: "carolina@example.com", Active: true}, nil
}

func (fakeCatalog) GetService(_ context.Context, id string) (model.Service, error) {
	if id != "s1" {
		return model.Service{}, pgx.ErrNoRows
	}
	return model.Service{ID: id, Name: "Initial consultation", Price: "45000.00", DurationMinutes: 45, Active: true}, nil
}

func (fakeCatalog) ListLawyers(_ context.Context) ([]model.Lawyer, error) {
	return []model.Lawyer{{ID: "l1", Name: "Carolina Morales", Specialty: "Family law", Active: true}}, nil
}

func (fakeCatalog) ListServices(_ context.Context) ([]model.Service, error) {
	return []model.Service{{ID: "s1", Name: "Initial consultation", Price: "45000.00", DurationMinutes: 45, Active: true}}, nil
}

type noopCalendar struct{}

func (noopCalendar) CreateEvent(_ context.Context, _ calendar.EventRequest) (calendar.Event, error) {
	return calendar.Event{ID: "evt-1", MeetLink: "https://meet.example.com/abc"}, nil
}

func (noopCalendar) DeleteEvent(_ context.Context, _ string) error { return nil }

type noopMailer struct{}

func (noopMailer) Send(_ string, _ string, _ string) error { return nil }

type testEnv struct {
	appts        *fakeAppointments
	blackouts    *fakeBlackoutRepo
	appointments *AppointmentHandler
	blackoutH    *BlackoutHandler
	catalogH     *CatalogHandler
}

func newTestEnv() *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appts := newFakeAppointments()
	blackouts := newFakeBlackoutRepo()
	catalog := fakeCatalog{}

	calc := schedule.NewCalculator(schedule.Default(), appts, blackouts)
	machine := booking.NewMachine(appts, catalog, noopCalendar{}, noopMailer{}, logger)
	resolver := booking.NewResolver(appts, machine, logger)

	return &testEnv{
		appts:        appts,
		blackouts:    blackouts,
		appointments: NewAppointmentHandler(appts, catalog, calc, blackouts, machine, logger),
		blackoutH:    NewBlackoutHandler(blackouts, resolver, logger),
		catalogH:     NewCatalogHandler(catalog, logger),
	}
}
