package schedule

import (
	"context"
	"time"

	"github.com/c-moralesv/lexagenda/internal/model"
)

// Slot is one bookable unit of the daily grid, annotated with whether
// it can currently be booked.
type Slot struct {
	Start     string
	End       string
	Available bool
}

// OccupancySource answers which slot starts hold a live appointment.
type OccupancySource interface {
	OccupiedStarts(ctx context.Context, lawyerID, date string) ([]string, error)
}

// BlackoutSource lists the blackouts overlapping a date for a lawyer.
type BlackoutSource interface {
	ListForDate(ctx context.Context, lawyerID, date string) ([]model.Blackout, error)
}

// Calculator derives the bookable slots for a lawyer and date from the
// week schedule, current occupancy and blackouts. It is read-only:
// callers must tolerate the answer going stale under concurrent
// bookings (the store's uniqueness constraint is the final arbiter).
type Calculator struct {
	Schedule     WeekSchedule
	Appointments OccupancySource
	Blackouts    BlackoutSource
}

func NewCalculator(ws WeekSchedule, appts OccupancySource, blackouts BlackoutSource) *Calculator {
	return &Calculator{Schedule: ws, Appointments: appts, Blackouts: blackouts}
}

// AvailableSlots returns the full ordered grid for the date, each slot
// flagged available unless occupied or blacked out.
func (c *Calculator) AvailableSlots(ctx context.Context, lawyerID, date string) ([]Slot, error) {
	starts, err := c.Schedule.SlotStarts(date)
	if err != nil {
		return nil, err
	}
	if len(starts) == 0 {
		return []Slot{}, nil
	}

	occupied, err := c.Appointments.OccupiedStarts(ctx, lawyerID, date)
	if err != nil {
		return nil, err
	}
	occupiedSet := make(map[string]struct{}, len(occupied))
	for _, s := range occupied {
		occupiedSet[s] = struct{}{}
	}

	blackouts, err := c.Blackouts.ListForDate(ctx, lawyerID, date)
	if err != nil {
		return nil, err
	}

	slots := make([]Slot, 0, len(starts))
	for _, start := range starts {
		_, taken := occupiedSet[start]
		slots = append(slots, Slot{
			Start:     start,
			End:       slotEnd(start),
			Available: !taken && !coveredByAny(blackouts, date, start),
		})
	}
	return slots, nil
}

// IsSlotAvailable is the single predicate the booking path re-validates
// against: the slot must be on the grid, unoccupied and not blacked out.
func (c *Calculator) IsSlotAvailable(ctx context.Context, lawyerID, date, start string) (bool, error) {
	onGrid, err := c.Schedule.Contains(date, start)
	if err != nil || !onGrid {
		return false, err
	}

	occupied, err := c.Appointments.OccupiedStarts(ctx, lawyerID, date)
	if err != nil {
		return false, err
	}
	for _, s := range occupied {
		if s == start {
			return false, nil
		}
	}

	blackouts, err := c.Blackouts.ListForDate(ctx, lawyerID, date)
	if err != nil {
		return false, err
	}
	return !coveredByAny(blackouts, date, start), nil
}

func coveredByAny(blackouts []model.Blackout, date, start string) bool {
	for _, b := range blackouts {
		if b.Covers(date, start) {
			return true
		}
	}
	return false
}

func slotEnd(start string) string {
	t, err := time.Parse(model.ClockLayout, start)
	if err != nil {
		return start
	}
	return t.Add(SlotMinutes * time.Minute).Format(model.ClockLayout)
}
