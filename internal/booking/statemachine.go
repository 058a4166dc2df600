package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/c-moralesv/lexagenda/internal/calendar"
	"github.com/c-moralesv/lexagenda/internal/model"
	"github.com/c-moralesv/lexagenda/internal/notify"
)

var (
	ErrInvalidStatus     = errors.New("invalid appointment status")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// StatusUpdate carries the optional column changes that ride along with
// a status transition. Nil fields keep the stored value.
type StatusUpdate struct {
	Comment         *string
	CalendarEventID *string
	MeetingLink     *string
}

// Store is the persistence surface the state machine needs.
type Store interface {
	Create(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus, upd StatusUpdate) (model.Appointment, error)
	ListLiveInRange(ctx context.Context, lawyerID, startDate, endDate string) ([]model.Appointment, error)
}

// Directory resolves lawyers and services for display names, emails and
// service durations.
type Directory interface {
	GetLawyer(ctx context.Context, id string) (model.Lawyer, error)
	GetService(ctx context.Context, id string) (model.Service, error)
}

// Result reports what a transition actually did. A committed status
// change with a failed side effect is still a success; the outcome
// flags let callers surface the partial result.
type Result struct {
	Appointment      model.Appointment
	Committed        bool
	CalendarSynced   bool
	NotificationSent bool
}

// Machine owns appointment status transitions. The status write is the
// transaction; calendar and email are best-effort follow-ups that are
// never rolled back.
type Machine struct {
	store     Store
	directory Directory
	calendar  calendar.Client
	mailer    notify.Sender
	logger    *slog.Logger
}

func NewMachine(store Store, directory Directory, cal calendar.Client, mailer notify.Sender, logger *slog.Logger) *Machine {
	return &Machine{
		store:     store,
		directory: directory,
		calendar:  cal,
		mailer:    mailer,
		logger:    logger,
	}
}

// Transition moves an appointment to target. Cancelled is terminal;
// re-confirming a confirmed appointment is an idempotent no-op that
// does not mint a second calendar event or email.
func (m *Machine) Transition(ctx context.Context, id string, target model.AppointmentStatus, reason string) (Result, error) {
	if !target.Valid() {
		return Result{}, ErrInvalidStatus
	}
	appt, err := m.store.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if appt.Status == model.StatusCancelled {
		return Result{}, fmt.Errorf("%w: appointment is cancelled", ErrIllegalTransition)
	}
	if appt.Status == target && target != model.StatusNeedsRescheduling {
		return Result{Appointment: appt}, nil
	}

	switch target {
	case model.StatusConfirmed:
		return m.confirm(ctx, appt)
	case model.StatusCancelled:
		return m.cancel(ctx, appt)
	case model.StatusNeedsRescheduling:
		return m.flag(ctx, appt, reason)
	case model.StatusRequested:
		updated, err := m.store.UpdateStatus(ctx, appt.ID, model.StatusRequested, StatusUpdate{})
		if err != nil {
			return Result{}, err
		}
		return Result{Appointment: updated, Committed: true}, nil
	}
	return Result{}, ErrInvalidStatus
}

// FlagNeedsReschedule marks an appointment as needing rescheduling,
// appending the reason to its comment trail.
func (m *Machine) FlagNeedsReschedule(ctx context.Context, id string, reason string) (Result, error) {
	return m.Transition(ctx, id, model.StatusNeedsRescheduling, reason)
}

func (m *Machine) confirm(ctx context.Context, appt model.Appointment) (Result, error) {
	upd := StatusUpdate{}
	calendarSynced := false

	// An appointment that already carries an event reference keeps it:
	// re-confirming after a reschedule flag must not mint a second one.
	if appt.CalendarEventID != "" {
		calendarSynced = true
	} else {
		ev, err := m.createCalendarEvent(ctx, appt)
		if err != nil {
			m.logger.Warn("calendar event creation failed, confirming without it",
				"appointment_id", appt.ID, "err", err)
		} else if ev.ID != "" {
			upd.CalendarEventID = &ev.ID
			upd.MeetingLink = &ev.MeetLink
			calendarSynced = true
		}
	}

	updated, err := m.store.UpdateStatus(ctx, appt.ID, model.StatusConfirmed, upd)
	if err != nil {
		return Result{}, err
	}
	res := Result{Appointment: updated, Committed: true, CalendarSynced: calendarSynced}

	lawyer, service := m.lookupNames(ctx, updated)
	subject, body := notify.ConfirmationMessage(updated, lawyer, service)
	if err := m.mailer.Send(updated.ClientEmail, subject, body); err != nil {
		m.logger.Warn("confirmation email failed", "appointment_id", updated.ID, "err", err)
	} else {
		res.NotificationSent = true
	}
	return res, nil
}

func (m *Machine) cancel(ctx context.Context, appt model.Appointment) (Result, error) {
	updated, err := m.store.UpdateStatus(ctx, appt.ID, model.StatusCancelled, StatusUpdate{})
	if err != nil {
		return Result{}, err
	}
	res := Result{Appointment: updated, Committed: true}

	if appt.CalendarEventID != "" {
		if err := m.calendar.DeleteEvent(ctx, appt.CalendarEventID); err != nil {
			m.logger.Warn("calendar event deletion failed", "appointment_id", appt.ID,
				"event_id", appt.CalendarEventID, "err", err)
		} else {
			res.CalendarSynced = true
		}
	}

	lawyer, _ := m.lookupNames(ctx, updated)
	subject, body := notify.CancellationMessage(updated, lawyer)
	if err := m.mailer.Send(updated.ClientEmail, subject, body); err != nil {
		m.logger.Warn("cancellation email failed", "appointment_id", updated.ID, "err", err)
	} else {
		res.NotificationSent = true
	}
	return res, nil
}

func (m *Machine) flag(ctx context.Context, appt model.Appointment, reason string) (Result, error) {
	// Already flagged: keep the first annotation, do not stack reasons.
	if appt.Status == model.StatusNeedsRescheduling {
		return Result{Appointment: appt}, nil
	}

	comment := annotateComment(appt.Comment, reason)
	upd := StatusUpdate{Comment: &comment}
	updated, err := m.store.UpdateStatus(ctx, appt.ID, model.StatusNeedsRescheduling, upd)
	if err != nil {
		return Result{}, err
	}
	return Result{Appointment: updated, Committed: true}, nil
}

// annotateComment always writes the marker; the reason is optional
// detail, not what makes the annotation.
func annotateComment(comment, reason string) string {
	annotation := "[needs rescheduling]"
	if reason != "" {
		annotation += " " + reason
	}
	if strings.TrimSpace(comment) == "" {
		return annotation
	}
	return comment + "\n" + annotation
}

func (m *Machine) createCalendarEvent(ctx context.Context, appt model.Appointment) (calendar.Event, error) {
	lawyerName, serviceName := m.lookupNames(ctx, appt)
	attendees := []string{appt.ClientEmail}
	if lawyer, err := m.directory.GetLawyer(ctx, appt.LawyerID); err == nil && lawyer.Email != "" {
		attendees = append(attendees, lawyer.Email)
	}
	return m.calendar.CreateEvent(ctx, calendar.EventRequest{
		Summary:         fmt.Sprintf("%s consultation: %s with %s", serviceName, appt.ClientName, lawyerName),
		Description:     appt.Comment,
		Date:            appt.Date,
		StartTime:       appt.StartTime,
		DurationMinutes: appt.DurationMinutes,
		Attendees:       attendees,
	})
}

func (m *Machine) lookupNames(ctx context.Context, appt model.Appointment) (lawyerName, serviceName string) {
	if lawyer, err := m.directory.GetLawyer(ctx, appt.LawyerID); err == nil {
		lawyerName = lawyer.Name
	}
	if service, err := m.directory.GetService(ctx, appt.ServiceID); err == nil {
		serviceName = service.Name
	}
	return lawyerName, serviceName
}
