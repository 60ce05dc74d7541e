package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func confirmedBooking(seat string, from, to int) Booking {
	return Booking{SeatNo: seat, FromStopSeq: from, ToStopSeq: to, Status: BookingStatusConfirmed}
}

func TestAvailableSeats(t *testing.T) {
	bus := Bus{TotalSeats: 4, Category: "AC Seater"}
	bookings := []Booking{
		confirmedBooking("1", 0, 2),
		confirmedBooking("2", 2, 4),
	}

	// [0,2) clashes with seat 1 only; seat 2's [2,4) is adjacent.
	free := AvailableSeats(bus, bookings, Segment{From: 0, To: 2})
	assert.ElementsMatch(t, []string{"2", "3", "4"}, free)

	// [1,3) clashes with both.
	free = AvailableSeats(bus, bookings, Segment{From: 1, To: 3})
	assert.ElementsMatch(t, []string{"3", "4"}, free)
}

func TestAvailableSeats_CancelledRowsDoNotCount(t *testing.T) {
	bus := Bus{TotalSeats: 2}
	cancelled := confirmedBooking("1", 0, 2)
	cancelled.Status = BookingStatusCancelled

	free := AvailableSeats(bus, []Booking{cancelled}, Segment{From: 0, To: 2})
	assert.ElementsMatch(t, []string{"1", "2"}, free)
}

func TestAvailableSeats_Conservation(t *testing.T) {
	bus := Bus{TotalSeats: 10}
	bookings := []Booking{
		confirmedBooking("1", 0, 3),
		confirmedBooking("2", 1, 2),
		confirmedBooking("3", 3, 5),
	}

	for _, seg := range []Segment{{0, 1}, {0, 3}, {2, 4}, {3, 5}, {0, 5}} {
		free := AvailableSeats(bus, bookings, seg)
		taken := BookedSeats(bookings, seg)
		assert.Equal(t, bus.TotalSeats, len(free)+len(taken), "segment %+v", seg)
	}
}

func TestSeatLayout(t *testing.T) {
	// Seater 2+2: seats 1 and 4 sit at the window.
	assert.Equal(t, "window", SeatLayout("1", "AC Seater"))
	assert.Equal(t, "aisle", SeatLayout("2", "AC Seater"))
	assert.Equal(t, "window", SeatLayout("4", "AC Seater"))

	// Sleeper 2+1.
	assert.Equal(t, "window", SeatLayout("1", "AC Sleeper"))
	assert.Equal(t, "aisle", SeatLayout("3", "AC Sleeper"))

	assert.Equal(t, "standard", SeatLayout("A1", "AC Seater"))
}
