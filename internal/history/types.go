package history

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// hoursPerDay is the fixed bucket count per place.
const hoursPerDay = 24

// maxPeakHours is how many top buckets the peak-hours summary lists.
const maxPeakHours = 3

// HourlyBucket aggregates occupancy readings for one hour of day.
type HourlyBucket struct {
	Hour          int     `json:"hour"`
	AvgOccupancy  float64 `json:"avg_occupancy"`
	PeakOccupancy float64 `json:"peak_occupancy"`
	TotalVisitors int     `json:"total_visitors"`
}

// TodayStats is the day-level roll-up recomputed on every update.
type TodayStats struct {
	AvgOccupancy  int    `json:"avg_occupancy"`
	PeakTime      string `json:"peak_time"`
	AvgWaitTime   string `json:"avg_wait_time"`
	TotalVisitors int    `json:"total_visitors"`
}

// PeakHour is one entry of the top-buckets summary, preformatted for
// display.
type PeakHour struct {
	Time      string `json:"time"`
	Occupancy string `json:"occupancy"`
}

// History is the complete occupancy trend record for one place.
type History struct {
	PlaceID    string         `json:"place_id"`
	PlaceName  string         `json:"place_name"`
	Date       time.Time      `json:"date"`
	Hourly     []HourlyBucket `json:"hourly_data"`
	TodayStats TodayStats     `json:"today_stats"`
}

// New creates an empty history with all 24 buckets zeroed.
func New(placeID, placeName string, now time.Time) *History {
	hourly := make([]HourlyBucket, hoursPerDay)
	for h := range hourly {
		hourly[h].Hour = h
	}
	return &History{
		PlaceID:   placeID,
		PlaceName: placeName,
		Date:      now,
		Hourly:    hourly,
		TodayStats: TodayStats{
			PeakTime:    "N/A",
			AvgWaitTime: "0 min",
		},
	}
}

// Record folds one occupancy reading into the bucket for now's hour
// and recomputes the day-level stats.
//
// The bucket average is a running fold, round((avg+rate)/2), which
// weights recent readings more heavily than a true mean. That matches
// the product's bias towards "what is it like right now".
func (h *History) Record(occupiedSeats, totalSeats int, now time.Time) {
	if totalSeats < 1 {
		return
	}
	rate := float64(occupiedSeats) / float64(totalSeats) * 100

	b := &h.Hourly[now.Hour()]
	b.AvgOccupancy = math.Round((b.AvgOccupancy + rate) / 2)
	b.PeakOccupancy = math.Max(b.PeakOccupancy, rate)
	b.TotalVisitors += occupiedSeats

	h.recomputeTodayStats(rate)
	h.Date = now
}

// recomputeTodayStats derives the day roll-up from the buckets plus
// the rate of the reading that triggered the update.
func (h *History) recomputeTodayStats(currentRate float64) {
	sum, active := 0.0, 0
	for _, b := range h.Hourly {
		if b.AvgOccupancy > 0 {
			sum += b.AvgOccupancy
			active++
		}
	}
	if active > 0 {
		h.TodayStats.AvgOccupancy = int(math.Round(sum / float64(active)))
	} else {
		h.TodayStats.AvgOccupancy = 0
	}

	peak := h.Hourly[0]
	for _, b := range h.Hourly[1:] {
		if b.PeakOccupancy > peak.PeakOccupancy {
			peak = b
		}
	}
	if peak.PeakOccupancy > 0 {
		h.TodayStats.PeakTime = hourWindow(peak.Hour)
	} else {
		h.TodayStats.PeakTime = "N/A"
	}

	h.TodayStats.AvgWaitTime = waitTimeFor(currentRate)

	total := 0
	for _, b := range h.Hourly {
		total += b.TotalVisitors
	}
	h.TodayStats.TotalVisitors = total
}

// PeakHours returns up to three buckets with the highest peaks,
// formatted for display. Buckets that never saw occupancy are
// excluded.
func (h *History) PeakHours() []PeakHour {
	buckets := make([]HourlyBucket, 0, hoursPerDay)
	for _, b := range h.Hourly {
		if b.PeakOccupancy > 0 {
			buckets = append(buckets, b)
		}
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].PeakOccupancy > buckets[j].PeakOccupancy
	})
	if len(buckets) > maxPeakHours {
		buckets = buckets[:maxPeakHours]
	}

	peaks := make([]PeakHour, len(buckets))
	for i, b := range buckets {
		peaks[i] = PeakHour{
			Time:      hourWindow(b.Hour),
			Occupancy: fmt.Sprintf("%d%%", int(math.Round(b.PeakOccupancy))),
		}
	}
	return peaks
}

// hourWindow formats an hour bucket as a display range.
func hourWindow(hour int) string {
	return fmt.Sprintf("%d:00 - %d:00", hour, hour+1)
}

// waitTimeFor maps an occupancy rate onto the rough wait estimate
// shown to visitors.
func waitTimeFor(rate float64) string {
	switch {
	case rate < 30:
		return "0-2 min"
	case rate < 70:
		return "3-5 min"
	case rate < 90:
		return "5-10 min"
	default:
		return "10+ min"
	}
}
