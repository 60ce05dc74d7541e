package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking is one confirmed seat over one segment of a trip on a travel
// date. A group booking produces one row per seat sharing the same PNR.
// Rows are never deleted; cancellation only flips Status.
type Booking struct {
	ID             int64
	PNR            string
	TripID         int64
	TravelDate     time.Time
	SeatNo         string
	FromStopSeq    int
	ToStopSeq      int
	PassengerName  string
	PassengerPhone string
	FareAmount     int
	Status         BookingStatus
	BookedAt       time.Time
	AccountID      *string
}

// Segment returns the booked stop range.
func (b Booking) Segment() Segment {
	return Segment{From: b.FromStopSeq, To: b.ToStopSeq}
}

// BookedSeats collects the seats of CONFIRMED bookings whose segment
// overlaps the requested one. Cancelled rows never count.
func BookedSeats(bookings []Booking, seg Segment) map[string]struct{} {
	taken := make(map[string]struct{})
	for _, b := range bookings {
		if b.Status != BookingStatusConfirmed {
			continue
		}
		if seg.OverlapsSegment(b.Segment()) {
			taken[b.SeatNo] = struct{}{}
		}
	}
	return taken
}

// AvailableSeats subtracts overlap-booked seats from the bus's full seat
// set. The result is exact: no seat is reported free while any confirmed
// booking holds it on an overlapping segment.
func AvailableSeats(bus Bus, bookings []Booking, seg Segment) []string {
	taken := BookedSeats(bookings, seg)
	free := make([]string, 0, bus.TotalSeats)
	for _, seat := range bus.SeatNumbers() {
		if _, ok := taken[seat]; !ok {
			free = append(free, seat)
		}
	}
	return free
}
