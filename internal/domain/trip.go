package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type TripStatus string

const (
	TripStatusRunning     TripStatus = "Running"
	TripStatusMaintenance TripStatus = "Maintenance"
	TripStatusCancelled   TripStatus = "Cancelled"
)

// Bus describes a physical coach. Seats are numbered "1".."TotalSeats";
// a seat carries no per-trip state, availability is always derived.
type Bus struct {
	ID         int64
	Name       string
	Category   string
	TotalSeats int
}

// Trip is one recurring run of a bus, keyed by day-of-month slot (1-31).
// Trips are populated by the import collaborator and read-only here.
type Trip struct {
	ID            int64
	DayNo         int
	Bus           Bus
	FromCity      string
	ToCity        string
	DepartureTime string
	ArrivalTime   string
	TotalKm       int
	Price         int
	Status        TripStatus
	Stops         []TripStop
}

// TripStop is one entry of a trip's ordered route. SeqNo is 0-based and
// contiguous, CumulativeKm strictly increases with SeqNo.
type TripStop struct {
	TripID       int64
	SeqNo        int
	StopName     string
	ArriveTime   *string
	DepartTime   *string
	CumulativeKm int
}

// StopBySeq finds a stop by sequence number.
func (t *Trip) StopBySeq(seq int) (TripStop, bool) {
	for _, s := range t.Stops {
		if s.SeqNo == seq {
			return s, true
		}
	}
	return TripStop{}, false
}

// StopByName finds a stop by case-insensitive name match.
func (t *Trip) StopByName(name string) (TripStop, bool) {
	for _, s := range t.Stops {
		if strings.EqualFold(s.StopName, name) {
			return s, true
		}
	}
	return TripStop{}, false
}

// SeatNumbers returns the full seat set for the bus.
func (b Bus) SeatNumbers() []string {
	seats := make([]string, 0, b.TotalSeats)
	for i := 1; i <= b.TotalSeats; i++ {
		seats = append(seats, strconv.Itoa(i))
	}
	return seats
}

// SeatLayout labels a seat window/aisle from its number. Cosmetic only:
// sleepers run 2+1, seaters 2+2. Non-numeric seats get "standard".
func SeatLayout(seatNo, category string) string {
	n, err := strconv.Atoi(seatNo)
	if err != nil {
		return "standard"
	}
	if strings.Contains(strings.ToLower(category), "sleeper") {
		if m := n % 3; m == 1 || m == 2 {
			return "window"
		}
		return "aisle"
	}
	if m := n % 4; m == 1 || m == 0 {
		return "window"
	}
	return "aisle"
}

// ClockMinutes parses an "HH:MM" route time into minutes since midnight.
func ClockMinutes(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
