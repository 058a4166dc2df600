package schedule

import (
	"fmt"
	"time"

	"github.com/c-moralesv/lexagenda/internal/model"
)

// SlotMinutes is the fixed consultation slot length.
const SlotMinutes = 30

// WeekSchedule maps a weekday to the slot start offsets (minutes from
// midnight) the office sells on that day. An absent or empty entry
// means the office is closed.
type WeekSchedule map[time.Weekday][]int

// Default returns the office schedule: closed Sundays, a short Saturday
// morning, and ten hourly slots on weekdays starting at half past.
func Default() WeekSchedule {
	weekday := make([]int, 0, 10)
	for h := 9; h <= 18; h++ {
		weekday = append(weekday, h*60+30)
	}
	saturday := []int{9*60 + 30, 10*60 + 30, 11*60 + 30}

	ws := WeekSchedule{
		time.Saturday: saturday,
	}
	for d := time.Monday; d <= time.Friday; d++ {
		ws[d] = weekday
	}
	return ws
}

// Clock formats minutes-from-midnight as an HH:MM wall time.
func Clock(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// SlotStarts returns the ordered slot start times for a date.
func (ws WeekSchedule) SlotStarts(date string) ([]string, error) {
	day, err := model.Weekday(date)
	if err != nil {
		return nil, err
	}
	offsets := ws[day]
	starts := make([]string, 0, len(offsets))
	for _, m := range offsets {
		starts = append(starts, Clock(m))
	}
	return starts, nil
}

// Contains reports whether start is a sellable slot start on date.
func (ws WeekSchedule) Contains(date, start string) (bool, error) {
	starts, err := ws.SlotStarts(date)
	if err != nil {
		return false, err
	}
	for _, s := range starts {
		if s == start {
			return true, nil
		}
	}
	return false, nil
}
