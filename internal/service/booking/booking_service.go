package booking

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mgtravels/busbooking/internal/domain"
	"github.com/mgtravels/busbooking/internal/kafka"
	"github.com/mgtravels/busbooking/internal/pnr"
	"github.com/mgtravels/busbooking/internal/repository"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*BookingRecord, error)
	GetBooking(ctx context.Context, ref string) (*BookingRecord, error)
	CancelBooking(ctx context.Context, ref string) (*BookingRecord, error)
	ListBookingsForAccount(ctx context.Context, accountID string) ([]BookingRecord, error)
}

type Cache interface {
	AcquireSegmentHold(ctx context.Context, tripID int64, travelDate time.Time, seatNo string, seg domain.Segment, ttl time.Duration) (bool, error)
	ReleaseSegmentHold(ctx context.Context, tripID int64, travelDate time.Time, seatNo string, seg domain.Segment) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// SeatRequest is one seat of a (possibly group) booking request.
type SeatRequest struct {
	SeatNo         string `json:"seat_no"`
	PassengerName  string `json:"passenger_name"`
	PassengerPhone string `json:"passenger_phone"`
}

type CreateBookingInput struct {
	TripID      int64         `json:"trip_id"`
	TravelDate  time.Time     `json:"travel_date"`
	FromStopSeq int           `json:"from_stop_seq"`
	ToStopSeq   int           `json:"to_stop_seq"`
	Seats       []SeatRequest `json:"seats"`
	AccountID   *string       `json:"account_id,omitempty"`
}

// SeatBooking is one committed seat of a record.
type SeatBooking struct {
	SeatNo         string `json:"seat_no"`
	PassengerName  string `json:"passenger_name"`
	PassengerPhone string `json:"passenger_phone"`
	FareAmount     int    `json:"fare_amount"`
}

// BookingRecord is the caller-facing view of a booking: the reference, the
// echoed trip/segment details and every seat committed under the PNR.
type BookingRecord struct {
	PNR         string               `json:"pnr"`
	Status      domain.BookingStatus `json:"status"`
	TripID      int64                `json:"trip_id"`
	BusName     string               `json:"bus_name,omitempty"`
	BusCategory string               `json:"bus_category,omitempty"`
	TravelDate  time.Time            `json:"travel_date"`
	FromStop    string               `json:"from_stop,omitempty"`
	ToStop      string               `json:"to_stop,omitempty"`
	FromStopSeq int                  `json:"from_stop_seq"`
	ToStopSeq   int                  `json:"to_stop_seq"`
	DistanceKm  int                  `json:"distance_km,omitempty"`
	FareAmount  int                  `json:"fare_amount"`
	Seats       []SeatBooking        `json:"seats"`
	BookedAt    time.Time            `json:"booked_at"`
}

type BookingService struct {
	bookings           repository.BookingRepository
	trips              repository.TripRepository
	cache              Cache
	producer           Producer
	refs               *pnr.Generator
	bookingTopic       string
	notificationsTopic string
	holdTTL            time.Duration
	zone               *time.Location
	now                func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithClock injects the time source for past-date and departure-time
// rejection. Tests use fixed clocks.
func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	trips repository.TripRepository,
	cache Cache,
	producer Producer,
	refs *pnr.Generator,
	bookingTopic string,
	holdTTL time.Duration,
	zone *time.Location,
	opts ...BookingServiceOption,
) *BookingService {
	if zone == nil {
		zone = time.UTC
	}
	if refs == nil {
		refs = pnr.New("")
	}
	service := &BookingService{
		bookings:     bookings,
		trips:        trips,
		cache:        cache,
		producer:     producer,
		refs:         refs,
		bookingTopic: bookingTopic,
		holdTTL:      holdTTL,
		zone:         zone,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking validates a request and commits all its seats atomically.
// The repository re-checks availability under the trip lock, so a positive
// pre-check here can never turn into a double sale.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*BookingRecord, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	trip, err := s.trips.GetByID(ctx, input.TripID)
	if err != nil {
		return nil, err
	}

	fromStop, ok := trip.StopBySeq(input.FromStopSeq)
	if !ok {
		return nil, domain.NotFoundError{Resource: "boarding stop"}
	}
	toStop, ok := trip.StopBySeq(input.ToStopSeq)
	if !ok {
		return nil, domain.NotFoundError{Resource: "alighting stop"}
	}

	if err := s.validateTravelTime(input.TravelDate, fromStop); err != nil {
		return nil, err
	}

	if trip.Status != domain.TripStatusRunning {
		return nil, domain.RejectedError{Reason: "trip is not available for booking"}
	}

	seg := domain.Segment{From: input.FromStopSeq, To: input.ToStopSeq}
	if err := s.checkAvailability(ctx, trip, input.TravelDate, seg, input.Seats); err != nil {
		return nil, err
	}

	held, err := s.acquireHolds(ctx, input.TripID, input.TravelDate, seg, input.Seats)
	if err != nil {
		return nil, err
	}
	defer s.releaseHolds(ctx, input.TripID, input.TravelDate, seg, held)

	rates, err := s.trips.FareRates(ctx)
	if err != nil {
		return nil, err
	}
	farePerSeat := domain.NewFareTable(rates).Fare(trip.Bus.Category, domain.SegmentDistance(fromStop, toStop))

	ref := s.refs.NewReference()
	bookedAt := s.now().In(s.zone)
	rows := make([]domain.Booking, 0, len(input.Seats))
	for _, seat := range input.Seats {
		rows = append(rows, domain.Booking{
			PNR:            ref,
			TripID:         input.TripID,
			TravelDate:     input.TravelDate,
			SeatNo:         seat.SeatNo,
			FromStopSeq:    input.FromStopSeq,
			ToStopSeq:      input.ToStopSeq,
			PassengerName:  seat.PassengerName,
			PassengerPhone: seat.PassengerPhone,
			FareAmount:     farePerSeat,
			Status:         domain.BookingStatusConfirmed,
			BookedAt:       bookedAt,
			AccountID:      input.AccountID,
		})
	}

	booked, err := s.bookings.BookSeats(ctx, rows, s.refs.NewReference)
	if err != nil {
		return nil, err
	}

	record := buildRecord(booked, trip)
	s.publish(ctx, "booking_confirmed", record)
	return record, nil
}

func (s *BookingService) GetBooking(ctx context.Context, ref string) (*BookingRecord, error) {
	rows, err := s.bookings.GetByPNR(ctx, ref)
	if err != nil {
		return nil, err
	}
	trip, err := s.trips.GetByID(ctx, rows[0].TripID)
	if err != nil {
		return nil, err
	}
	return buildRecord(rows, trip), nil
}

// CancelBooking frees the booking's seat-interval for future sales. The
// rows stay behind with status CANCELLED; re-cancelling is a no-op.
func (s *BookingService) CancelBooking(ctx context.Context, ref string) (*BookingRecord, error) {
	current, err := s.bookings.GetByPNR(ctx, ref)
	if err != nil {
		return nil, err
	}

	trip, err := s.trips.GetByID(ctx, current[0].TripID)
	if err != nil {
		return nil, err
	}

	if current[0].Status == domain.BookingStatusCancelled {
		return buildRecord(current, trip), nil
	}

	cancelled, err := s.bookings.CancelByPNR(ctx, ref)
	if err != nil {
		return nil, err
	}
	if len(cancelled) == 0 {
		// A concurrent cancel flipped the rows between the read and the
		// update; only the winner publishes the event.
		if current, err = s.bookings.GetByPNR(ctx, ref); err != nil {
			return nil, err
		}
		return buildRecord(current, trip), nil
	}

	record := buildRecord(cancelled, trip)
	s.publish(ctx, "booking_cancelled", record)
	return record, nil
}

// ListBookingsForAccount returns the account's records, most recent first.
func (s *BookingService) ListBookingsForAccount(ctx context.Context, accountID string) ([]BookingRecord, error) {
	rows, err := s.bookings.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	records := make([]BookingRecord, 0)
	index := make(map[string]int)
	for _, row := range rows {
		if i, ok := index[row.PNR]; ok {
			rec := &records[i]
			rec.Seats = append(rec.Seats, SeatBooking{
				SeatNo:         row.SeatNo,
				PassengerName:  row.PassengerName,
				PassengerPhone: row.PassengerPhone,
				FareAmount:     row.FareAmount,
			})
			rec.FareAmount += row.FareAmount
			continue
		}
		index[row.PNR] = len(records)
		records = append(records, *buildRecord([]domain.Booking{row}, nil))
	}
	return records, nil
}

func validateInput(input CreateBookingInput) error {
	if input.TravelDate.IsZero() {
		return domain.InvalidRequestError{Msg: "travel date is required"}
	}
	if len(input.Seats) == 0 {
		return domain.InvalidRequestError{Msg: "at least one seat is required"}
	}
	if input.FromStopSeq >= input.ToStopSeq {
		return domain.InvalidRequestError{Msg: "invalid journey segment"}
	}
	seen := make(map[string]struct{}, len(input.Seats))
	for _, seat := range input.Seats {
		if seat.SeatNo == "" {
			return domain.InvalidRequestError{Msg: "seat number is required"}
		}
		if seat.PassengerName == "" || seat.PassengerPhone == "" {
			return domain.InvalidRequestError{Msg: "passenger name and phone are required"}
		}
		if _, dup := seen[seat.SeatNo]; dup {
			return domain.InvalidRequestError{Msg: "duplicate seat " + seat.SeatNo}
		}
		seen[seat.SeatNo] = struct{}{}
	}
	return nil
}

func (s *BookingService) validateTravelTime(travelDate time.Time, fromStop domain.TripStop) error {
	now := s.now().In(s.zone)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.zone)
	travel := time.Date(travelDate.Year(), travelDate.Month(), travelDate.Day(), 0, 0, 0, 0, s.zone)

	if travel.Before(today) {
		return domain.RejectedError{Reason: "cannot book for past dates"}
	}
	if travel.Equal(today) && fromStop.DepartTime != nil {
		depart, err := domain.ClockMinutes(*fromStop.DepartTime)
		if err == nil && depart < now.Hour()*60+now.Minute() {
			return domain.RejectedError{Reason: "cannot book for past departure times"}
		}
	}
	return nil
}

// checkAvailability requires every requested seat to be a member of the
// segment's available set, so a seat number the bus does not have is
// rejected the same way a taken one is.
func (s *BookingService) checkAvailability(ctx context.Context, trip *domain.Trip, travelDate time.Time, seg domain.Segment, seats []SeatRequest) error {
	confirmed, err := s.bookings.ListConfirmed(ctx, trip.ID, travelDate)
	if err != nil {
		return err
	}
	available := make(map[string]struct{})
	for _, seatNo := range domain.AvailableSeats(trip.Bus, confirmed, seg) {
		available[seatNo] = struct{}{}
	}
	for _, seat := range seats {
		if _, free := available[seat.SeatNo]; !free {
			return domain.SeatUnavailable(seat.SeatNo)
		}
	}
	return nil
}

func (s *BookingService) acquireHolds(ctx context.Context, tripID int64, travelDate time.Time, seg domain.Segment, seats []SeatRequest) ([]string, error) {
	if s.cache == nil {
		return nil, nil
	}
	held := make([]string, 0, len(seats))
	for _, seat := range seats {
		ok, err := s.cache.AcquireSegmentHold(ctx, tripID, travelDate, seat.SeatNo, seg, s.holdTTL)
		if err != nil {
			// Redis being down must not block sales; the transaction still
			// serializes writers.
			log.Printf("segment hold unavailable: %v", err)
			return held, nil
		}
		if !ok {
			s.releaseHolds(ctx, tripID, travelDate, seg, held)
			return nil, domain.SeatUnavailable(seat.SeatNo)
		}
		held = append(held, seat.SeatNo)
	}
	return held, nil
}

func (s *BookingService) releaseHolds(ctx context.Context, tripID int64, travelDate time.Time, seg domain.Segment, seats []string) {
	if s.cache == nil {
		return
	}
	for _, seatNo := range seats {
		_ = s.cache.ReleaseSegmentHold(ctx, tripID, travelDate, seatNo, seg)
	}
}

func buildRecord(rows []domain.Booking, trip *domain.Trip) *BookingRecord {
	first := rows[0]
	record := &BookingRecord{
		PNR:         first.PNR,
		Status:      first.Status,
		TripID:      first.TripID,
		TravelDate:  first.TravelDate,
		FromStopSeq: first.FromStopSeq,
		ToStopSeq:   first.ToStopSeq,
		BookedAt:    first.BookedAt,
	}
	for _, row := range rows {
		record.Seats = append(record.Seats, SeatBooking{
			SeatNo:         row.SeatNo,
			PassengerName:  row.PassengerName,
			PassengerPhone: row.PassengerPhone,
			FareAmount:     row.FareAmount,
		})
		record.FareAmount += row.FareAmount
	}
	if trip != nil {
		record.BusName = trip.Bus.Name
		record.BusCategory = trip.Bus.Category
		from, okFrom := trip.StopBySeq(first.FromStopSeq)
		to, okTo := trip.StopBySeq(first.ToStopSeq)
		if okFrom {
			record.FromStop = from.StopName
		}
		if okTo {
			record.ToStop = to.StopName
		}
		if okFrom && okTo {
			record.DistanceKm = domain.SegmentDistance(from, to)
		}
	}
	return record
}

func (s *BookingService) publish(ctx context.Context, eventType string, record *BookingRecord) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	seats := make([]string, 0, len(record.Seats))
	for _, seat := range record.Seats {
		seats = append(seats, seat.SeatNo)
	}
	event := kafka.BookingEvent{
		EventID:        uuid.NewString(),
		Type:           eventType,
		PNR:            record.PNR,
		TripID:         record.TripID,
		TravelDate:     record.TravelDate.Format("2006-01-02"),
		Seats:          seats,
		FromStopSeq:    record.FromStopSeq,
		ToStopSeq:      record.ToStopSeq,
		PassengerPhone: record.Seats[0].PassengerPhone,
		FareAmount:     record.FareAmount,
		Status:         string(record.Status),
		BookedAt:       record.BookedAt,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, record.PNR, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for booking %s: %v", eventType, record.PNR, err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, record.PNR, event); err != nil {
			log.Printf("WARNING: failed to publish %s notification for booking %s: %v", eventType, record.PNR, err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
