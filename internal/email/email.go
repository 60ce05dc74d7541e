package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgtravels/busbooking/internal/kafka"
)

// Sender delivers ticket notifications for booking events. Delivery is a
// stdout stub; the SMS/email gateway sits behind this type.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	fmt.Printf("notify %s: %s for PNR %s, trip %d on %s, seats %s, fare %d\n",
		event.PassengerPhone, event.Type, event.PNR, event.TripID, event.TravelDate,
		strings.Join(event.Seats, ","), event.FareAmount)
	return nil
}
