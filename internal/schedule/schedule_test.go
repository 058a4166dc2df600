package schedule

import (
	"testing"
)

func TestSlotStartsWeekday(t *testing.T) {
	ws := Default()

	starts, err := ws.SlotStarts("2025-06-04") // Wednesday
	if err != nil {
		t.Fatalf("SlotStarts: %v", err)
	}
	if len(starts) != 10 {
		t.Fatalf("expected 10 weekday slots, got %d (%v)", len(starts), starts)
	}
	if starts[0] != "09:30" {
		t.Errorf("first slot = %s, want 09:30", starts[0])
	}
	if starts[len(starts)-1] != "18:30" {
		t.Errorf("last slot = %s, want 18:30", starts[len(starts)-1])
	}
	for i := 1; i < len(starts); i++ {
		if starts[i] <= starts[i-1] {
			t.Errorf("slots out of order: %s before %s", starts[i-1], starts[i])
		}
	}
}

func TestSlotStartsSaturday(t *testing.T) {
	starts, err := Default().SlotStarts("2025-06-07")
	if err != nil {
		t.Fatalf("SlotStarts: %v", err)
	}
	want := []string{"09:30", "10:30", "11:30"}
	if len(starts) != len(want) {
		t.Fatalf("expected %d Saturday slots, got %v", len(want), starts)
	}
	for i := range want {
		if starts[i] != want[i] {
			t.Errorf("slot[%d] = %s, want %s", i, starts[i], want[i])
		}
	}
}

func TestSlotStartsSundayClosed(t *testing.T) {
	starts, err := Default().SlotStarts("2025-06-08")
	if err != nil {
		t.Fatalf("SlotStarts: %v", err)
	}
	if len(starts) != 0 {
		t.Fatalf("expected no Sunday slots, got %v", starts)
	}
}

func TestSlotStartsBadDate(t *testing.T) {
	if _, err := Default().SlotStarts("04/06/2025"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestContains(t *testing.T) {
	ws := Default()
	cases := []struct {
		date  string
		start string
		want  bool
	}{
		{"2025-06-04", "09:30", true},
		{"2025-06-04", "18:30", true},
		{"2025-06-04", "09:00", false}, // off grid
		{"2025-06-04", "19:30", false}, // past closing
		{"2025-06-07", "11:30", true},
		{"2025-06-07", "12:30", false}, // Saturday afternoon
		{"2025-06-08", "09:30", false}, // Sunday
	}
	for _, tc := range cases {
		got, err := ws.Contains(tc.date, tc.start)
		if err != nil {
			t.Fatalf("Contains(%s, %s): %v", tc.date, tc.start, err)
		}
		if got != tc.want {
			t.Errorf("Contains(%s, %s) = %v, want %v", tc.date, tc.start, got, tc.want)
		}
	}
}

func TestClock(t *testing.T) {
	if got := Clock(9*60 + 30); got != "09:30" {
		t.Errorf("Clock(570) = %s, want 09:30", got)
	}
	if got := Clock(18*60 + 30); got != "18:30" {
		t.Errorf("Clock(1110) = %s, want 18:30", got)
	}
}
