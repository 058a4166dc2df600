package storage

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/c-moralesv/lexagenda/internal/model"
	"github.com/c-moralesv/lexagenda/internal/outbox"
	"github.com/c-moralesv/lexagenda/libs/db"
)

const blackoutColumns = `
	id, lawyer_id, to_char(start_date, 'YYYY-MM-DD'), to_char(end_date, 'YYYY-MM-DD'),
	kind, COALESCE(to_char(start_time, 'HH24:MI'), ''), COALESCE(to_char(end_time, 'HH24:MI'), ''),
	COALESCE(reason, ''), created_at
`

type BlackoutRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewBlackoutRepository(pool *db.Pool, ob *outbox.Repository) *BlackoutRepository {
	return &BlackoutRepository{pool: pool, outbox: ob}
}

func (r *BlackoutRepository) Create(ctx context.Context, b model.Blackout) (model.Blackout, error) {
	b.ID = uuid.NewString()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Blackout{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var startTime, endTime any
	if b.Kind == model.BlackoutTimeRange {
		startTime, endTime = b.StartTime, b.EndTime
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO blackouts (id, lawyer_id, start_date, end_date, kind, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, b.ID, b.LawyerID, b.StartDate, b.EndDate, b.Kind, startTime, endTime, b.Reason).Scan(&b.CreatedAt)
	if err != nil {
		return model.Blackout{}, err
	}

	evt, err := blackoutEvent(outbox.EventBlackoutCreated, b)
	if err != nil {
		return model.Blackout{}, err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Blackout{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Blackout{}, err
	}
	return b, nil
}

// Delete removes a blackout. Appointments flagged because of it keep
// their needs_rescheduling status; freeing the window never silently
// reinstates bookings.
func (r *BlackoutRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `DELETE FROM blackouts WHERE id = $1 RETURNING `+blackoutColumns, id)
	b, err := scanBlackout(row)
	if err != nil {
		return err
	}

	evt, err := blackoutEvent(outbox.EventBlackoutDeleted, b)
	if err != nil {
		return err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *BlackoutRepository) Get(ctx context.Context, id string) (model.Blackout, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+blackoutColumns+` FROM blackouts WHERE id = $1`, id)
	return scanBlackout(row)
}

func (r *BlackoutRepository) List(ctx context.Context) ([]model.BlackoutSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.lawyer_id, to_char(b.start_date, 'YYYY-MM-DD'), to_char(b.end_date, 'YYYY-MM-DD'),
		       b.kind, COALESCE(to_char(b.start_time, 'HH24:MI'), ''), COALESCE(to_char(b.end_time, 'HH24:MI'), ''),
		       COALESCE(b.reason, ''), b.created_at, l.name
		FROM blackouts b
		JOIN lawyers l ON l.id = b.lawyer_id
		ORDER BY b.start_date DESC, b.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BlackoutSummary
	for rows.Next() {
		var sum model.BlackoutSummary
		b := &sum.Blackout
		if err := rows.Scan(&b.ID, &b.LawyerID, &b.StartDate, &b.EndDate, &b.Kind, &b.StartTime, &b.EndTime,
			&b.Reason, &b.CreatedAt, &sum.LawyerName); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// ListForDate returns the blackouts touching one lawyer's date.
func (r *BlackoutRepository) ListForDate(ctx context.Context, lawyerID, date string) ([]model.Blackout, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+blackoutColumns+`
		FROM blackouts
		WHERE lawyer_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY created_at
	`, lawyerID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Blackout
	for rows.Next() {
		b, err := scanBlackout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// IsBlocked answers whether a lawyer is unavailable on a date, or at a
// specific time on that date when clock is non-empty. A date-only probe
// reports full-day blackouts only; time-range blackouts still leave
// part of the day bookable.
func (r *BlackoutRepository) IsBlocked(ctx context.Context, lawyerID, date, clock string) (bool, error) {
	blackouts, err := r.ListForDate(ctx, lawyerID, date)
	if err != nil {
		return false, err
	}
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

func blackoutEvent(eventType string, b model.Blackout) (outbox.Event, error) {
	payload, err := json.Marshal(map[string]any{
		"blackout_id": b.ID,
		"lawyer_id":   b.LawyerID,
		"start_date":  b.StartDate,
		"end_date":    b.EndDate,
		"kind":        b.Kind,
		"start_time":  b.StartTime,
		"end_time":    b.EndTime,
		"reason":      b.Reason,
	})
	if err != nil {
		return outbox.Event{}, err
	}
	return outbox.Event{
		AggregateType: "blackout",
		AggregateID:   b.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}

func scanBlackout(row rowScanner) (model.Blackout, error) {
	var b model.Blackout
	err := row.Scan(&b.ID, &b.LawyerID, &b.StartDate, &b.EndDate, &b.Kind, &b.StartTime, &b.EndTime, &b.Reason, &b.CreatedAt)
	if err != nil {
		return model.Blackout{}, err
	}
	return b, nil
}
