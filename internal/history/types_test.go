package history

import (
	"testing"
	"time"
)

// at returns a timestamp inside the given hour.
func at(hour int) time.Time {
	return time.Date(2026, 3, 10, hour, 30, 0, 0, time.UTC)
}

// TestNew verifies the empty-history shape.
func TestNew(t *testing.T) {
	h := New("place-1", "Cafe", at(9))

	if len(h.Hourly) != 24 {
		t.Fatalf("len(Hourly) = %d, want 24", len(h.Hourly))
	}
	for i, b := range h.Hourly {
		if b.Hour != i {
			t.Errorf("bucket %d has Hour = %d", i, b.Hour)
		}
		if b.AvgOccupancy != 0 || b.PeakOccupancy != 0 || b.TotalVisitors != 0 {
			t.Errorf("bucket %d not zeroed: %+v", i, b)
		}
	}
	if h.TodayStats.PeakTime != "N/A" {
		t.Errorf("PeakTime = %q, want \"N/A\"", h.TodayStats.PeakTime)
	}
}

// TestRecord verifies bucket folding across repeated readings.
func TestRecord(t *testing.T) {
	t.Run("first reading seeds the bucket", func(t *testing.T) {
		h := New("place-1", "Cafe", at(14))
		h.Record(10, 20, at(14)) // 50% occupancy

		b := h.Hourly[14]
		// round((0+50)/2) = 25
		if b.AvgOccupancy != 25 {
			t.Errorf("AvgOccupancy = %v, want 25", b.AvgOccupancy)
		}
		if b.PeakOccupancy != 50 {
			t.Errorf("PeakOccupancy = %v, want 50", b.PeakOccupancy)
		}
		if b.TotalVisitors != 10 {
			t.Errorf("TotalVisitors = %d, want 10", b.TotalVisitors)
		}
	})

	t.Run("average folds towards recent readings", func(t *testing.T) {
		h := New("place-1", "Cafe", at(14))
		h.Record(10, 20, at(14)) // avg 25
		h.Record(15, 20, at(14)) // round((25+75)/2) = 50

		if got := h.Hourly[14].AvgOccupancy; got != 50 {
			t.Errorf("AvgOccupancy = %v, want 50", got)
		}
	})

	t.Run("peak never decreases", func(t *testing.T) {
		h := New("place-1", "Cafe", at(14))
		h.Record(18, 20, at(14)) // 90%
		h.Record(2, 20, at(14))  // 10%

		if got := h.Hourly[14].PeakOccupancy; got != 90 {
			t.Errorf("PeakOccupancy = %v, want 90", got)
		}
	})

	t.Run("visitors accumulate", func(t *testing.T) {
		h := New("place-1", "Cafe", at(14))
		h.Record(10, 20, at(14))
		h.Record(5, 20, at(14))

		if got := h.Hourly[14].TotalVisitors; got != 15 {
			t.Errorf("TotalVisitors = %d, want 15", got)
		}
	})

	t.Run("readings land in their own hour buckets", func(t *testing.T) {
		h := New("place-1", "Cafe", at(9))
		h.Record(10, 20, at(9))
		h.Record(16, 20, at(13))

		if h.Hourly[9].TotalVisitors != 10 {
			t.Errorf("hour 9 visitors = %d, want 10", h.Hourly[9].TotalVisitors)
		}
		if h.Hourly[13].TotalVisitors != 16 {
			t.Errorf("hour 13 visitors = %d, want 16", h.Hourly[13].TotalVisitors)
		}
	})

	t.Run("zero total seats is ignored", func(t *testing.T) {
		h := New("place-1", "Cafe", at(9))
		h.Record(5, 0, at(9))

		if h.Hourly[9].TotalVisitors != 0 {
			t.Error("reading with zero seats should not be recorded")
		}
	})
}

// TestTodayStats verifies the day roll-up.
func TestTodayStats(t *testing.T) {
	t.Run("average spans only active buckets", func(t *testing.T) {
		h := New("place-1", "Cafe", at(9))
		h.Record(10, 20, at(9))  // bucket avg 25
		h.Record(15, 20, at(13)) // bucket avg 38

		// mean(25, 38) = 31.5 -> 32
		if got := h.TodayStats.AvgOccupancy; got != 32 {
			t.Errorf("AvgOccupancy = %d, want 32", got)
		}
	})

	t.Run("peak time names the busiest window", func(t *testing.T) {
		h := New("place-1", "Cafe", at(9))
		h.Record(5, 20, at(9))
		h.Record(18, 20, at(13))

		if got := h.TodayStats.PeakTime; got != "13:00 - 14:00" {
			t.Errorf("PeakTime = %q, want \"13:00 - 14:00\"", got)
		}
	})

	t.Run("wait time tracks the latest reading", func(t *testing.T) {
		tests := []struct {
			occupied int
			want     string
		}{
			{2, "0-2 min"},    // 10%
			{10, "3-5 min"},   // 50%
			{16, "5-10 min"},  // 80%
			{19, "10+ min"},   // 95%
		}
		for _, tt := range tests {
			h := New("place-1", "Cafe", at(9))
			h.Record(tt.occupied, 20, at(9))
			if got := h.TodayStats.AvgWaitTime; got != tt.want {
				t.Errorf("AvgWaitTime after %d/20 = %q, want %q", tt.occupied, got, tt.want)
			}
		}
	})

	t.Run("total visitors sums every bucket", func(t *testing.T) {
		h := New("place-1", "Cafe", at(9))
		h.Record(10, 20, at(9))
		h.Record(16, 20, at(13))
		h.Record(4, 20, at(20))

		if got := h.TodayStats.TotalVisitors; got != 30 {
			t.Errorf("TotalVisitors = %d, want 30", got)
		}
	})
}

// TestPeakHours verifies top-bucket selection and formatting.
func TestPeakHours(t *testing.T) {
	t.Run("empty history has no peaks", func(t *testing.T) {
		h := New("place-1", "Cafe", at(9))
		if got := h.PeakHours(); len(got) != 0 {
			t.Errorf("PeakHours() = %v, want empty", got)
		}
	})

	t.Run("top three buckets, busiest first", func(t *testing.T) {
		h := New("place-1", "Cafe", at(0))
		h.Record(4, 20, at(8))   // 20%
		h.Record(18, 20, at(12)) // 90%
		h.Record(12, 20, at(15)) // 60%
		h.Record(8, 20, at(19))  // 40%

		peaks := h.PeakHours()
		if len(peaks) != 3 {
			t.Fatalf("len(PeakHours()) = %d, want 3", len(peaks))
		}
		if peaks[0].Time != "12:00 - 13:00" || peaks[0].Occupancy != "90%" {
			t.Errorf("peaks[0] = %+v", peaks[0])
		}
		if peaks[1].Time != "15:00 - 16:00" {
			t.Errorf("peaks[1] = %+v", peaks[1])
		}
		if peaks[2].Time != "19:00 - 20:00" {
			t.Errorf("peaks[2] = %+v", peaks[2])
		}
	})
}
