package booking

import (
	"context"
	"log/slog"

	"github.com/c-moralesv/lexagenda/internal/model"
)

// Resolver reconciles existing bookings with a new blackout. Staff
// preview the damage first, then commit; commit recomputes the affected
// set server-side so a stale preview can never skip an appointment
// booked in between.
type Resolver struct {
	store   Store
	machine *Machine
	logger  *slog.Logger
}

func NewResolver(store Store, machine *Machine, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, machine: machine, logger: logger}
}

// Preview returns the live appointments the blackout would collide
// with. Appointments already flagged for rescheduling are left out.
func (r *Resolver) Preview(ctx context.Context, b model.Blackout) ([]model.Appointment, error) {
	appts, err := r.store.ListLiveInRange(ctx, b.LawyerID, b.StartDate, b.EndDate)
	if err != nil {
		return nil, err
	}

	var affected []model.Appointment
	for _, appt := range appts {
		if appt.Status == model.StatusNeedsRescheduling {
			continue
		}
		if b.Covers(appt.Date, appt.StartTime) {
			affected = append(affected, appt)
		}
	}
	return affected, nil
}

// Resolve flags every appointment the blackout collides with and
// returns the flagged set. A failure on one appointment does not stop
// the rest.
func (r *Resolver) Resolve(ctx context.Context, b model.Blackout) ([]model.Appointment, error) {
	affected, err := r.Preview(ctx, b)
	if err != nil {
		return nil, err
	}

	var flagged []model.Appointment
	for _, appt := range affected {
		res, err := r.machine.FlagNeedsReschedule(ctx, appt.ID, b.Reason)
		if err != nil {
			r.logger.Error("failed to flag appointment for rescheduling",
				"appointment_id", appt.ID, "blackout_id", b.ID, "err", err)
			continue
		}
		flagged = append(flagged, res.Appointment)
	}
	return flagged, nil
}
