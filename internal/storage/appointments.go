package storage

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/c-moralesv/lexagenda/internal/booking"
	"github.com/c-moralesv/lexagenda/internal/model"
	"github.com/c-moralesv/lexagenda/internal/outbox"
	"github.com/c-moralesv/lexagenda/libs/db"
)

const appointmentColumns = `
	id, service_id, lawyer_id, client_name, client_email, client_phone,
	to_char(date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), duration_minutes,
	comment, status, COALESCE(calendar_event_id, ''), COALESCE(meeting_link, ''), created_at
`

type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, ob *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: ob}
}

// Create inserts the appointment as requested and records the domain
// event in the same transaction. The partial unique index over live
// rows makes the insert itself the last word on slot ownership; a
// losing racer gets a conflict error from the database.
func (r *AppointmentRepository) Create(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	appt.ID = uuid.NewString()
	appt.Status = model.StatusRequested

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (id, service_id, lawyer_id, client_name, client_email, client_phone,
		                          date, start_time, duration_minutes, comment, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`, appt.ID, appt.ServiceID, appt.LawyerID, appt.ClientName, appt.ClientEmail, appt.ClientPhone,
		appt.Date, appt.StartTime, appt.DurationMinutes, appt.Comment, appt.Status,
	).Scan(&appt.CreatedAt)
	if err != nil {
		return model.Appointment{}, err
	}

	evt, err := appointmentEvent(outbox.EventAppointmentRequested, appt)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

// List returns the admin view, newest consultation first.
func (r *AppointmentRepository) List(ctx context.Context) ([]model.AppointmentSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.service_id, a.lawyer_id, a.client_name, a.client_email, a.client_phone,
		       to_char(a.date, 'YYYY-MM-DD'), to_char(a.start_time, 'HH24:MI'), a.duration_minutes,
		       a.comment, a.status, COALESCE(a.calendar_event_id, ''), COALESCE(a.meeting_link, ''), a.created_at,
		       s.name, l.name
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		JOIN lawyers l ON l.id = a.lawyer_id
		ORDER BY a.date DESC, a.start_time DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AppointmentSummary
	for rows.Next() {
		var sum model.AppointmentSummary
		a := &sum.Appointment
		if err := rows.Scan(&a.ID, &a.ServiceID, &a.LawyerID, &a.ClientName, &a.ClientEmail, &a.ClientPhone,
			&a.Date, &a.StartTime, &a.DurationMinutes, &a.Comment, &a.Status, &a.CalendarEventID, &a.MeetingLink, &a.CreatedAt,
			&sum.ServiceName, &sum.LawyerName); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// OccupiedStarts returns the slot starts held by live appointments for
// one lawyer on one date.
func (r *AppointmentRepository) OccupiedStarts(ctx context.Context, lawyerID, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(start_time, 'HH24:MI')
		FROM appointments
		WHERE lawyer_id = $1 AND date = $2 AND status <> 'cancelled'
		ORDER BY start_time
	`, lawyerID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var starts []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		starts = append(starts, s)
	}
	return starts, rows.Err()
}

// FindConflicting returns the live appointment holding a slot, if any.
func (r *AppointmentRepository) FindConflicting(ctx context.Context, lawyerID, date, startTime string) (model.Appointment, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE lawyer_id = $1 AND date = $2 AND start_time = $3 AND status <> 'cancelled'
		LIMIT 1
	`, lawyerID, date, startTime)
	appt, err := scanAppointment(row)
	if IsNotFound(err) {
		return model.Appointment{}, false, nil
	}
	if err != nil {
		return model.Appointment{}, false, err
	}
	return appt, true, nil
}

// ListLiveInRange returns live appointments for a lawyer whose date
// falls inside [startDate, endDate], ordered for stable review output.
func (r *AppointmentRepository) ListLiveInRange(ctx context.Context, lawyerID, startDate, endDate string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE lawyer_id = $1 AND date BETWEEN $2 AND $3 AND status <> 'cancelled'
		ORDER BY date, start_time
	`, lawyerID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, appt)
	}
	return out, rows.Err()
}

// UpdateStatus applies a decided transition and records its event in
// the same transaction. The status write always commits even if later
// side effects (calendar, email) fail upstream.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus, upd booking.StatusUpdate) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    comment = COALESCE($3, comment),
		    calendar_event_id = COALESCE($4, calendar_event_id),
		    meeting_link = COALESCE($5, meeting_link)
		WHERE id = $1
		RETURNING `+appointmentColumns,
		id, status, upd.Comment, upd.CalendarEventID, upd.MeetingLink)
	appt, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, err
	}

	if eventType := statusEventType(status); eventType != "" {
		evt, err := appointmentEvent(eventType, appt)
		if err != nil {
			return model.Appointment{}, err
		}
		if err := r.outbox.Insert(ctx, tx, evt); err != nil {
			return model.Appointment{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func statusEventType(status model.AppointmentStatus) string {
	switch status {
	case model.StatusRequested:
		return outbox.EventAppointmentRequested
	case model.StatusConfirmed:
		return outbox.EventAppointmentConfirmed
	case model.StatusCancelled:
		return outbox.EventAppointmentCancelled
	case model.StatusNeedsRescheduling:
		return outbox.EventAppointmentReschedule
	}
	return ""
}

func appointmentEvent(eventType string, appt model.Appointment) (outbox.Event, error) {
	payload, err := json.Marshal(map[string]any{
		"appointment_id":   appt.ID,
		"service_id":       appt.ServiceID,
		"lawyer_id":        appt.LawyerID,
		"client_name":      appt.ClientName,
		"client_email":     appt.ClientEmail,
		"date":             appt.Date,
		"start_time":       appt.StartTime,
		"duration_minutes": appt.DurationMinutes,
		"status":           appt.Status,
	})
	if err != nil {
		return outbox.Event{}, err
	}
	return outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(&a.ID, &a.ServiceID, &a.LawyerID, &a.ClientName, &a.ClientEmail, &a.ClientPhone,
		&a.Date, &a.StartTime, &a.DurationMinutes, &a.Comment, &a.Status, &a.CalendarEventID, &a.MeetingLink, &a.CreatedAt)
	if err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}
