package trips

import (
	"context"
	"strings"
	"time"

	"github.com/mgtravels/busbooking/internal/domain"
	"github.com/mgtravels/busbooking/internal/repository"
)

type TripUseCase interface {
	Search(ctx context.Context, input SearchInput) (*SearchResult, error)
	SeatMap(ctx context.Context, input SeatMapInput) (*SeatMap, error)
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)
}

type Cache interface {
	GetTripsForDay(ctx context.Context, dayNo int) ([]domain.Trip, error)
	SetTripsForDay(ctx context.Context, dayNo int, trips []domain.Trip) error
}

type SearchInput struct {
	Date     time.Time
	From     string
	To       string
	Category string
	Seats    int
}

// TripResult is one bookable trip matching a search.
type TripResult struct {
	TripID         int64   `json:"trip_id"`
	BusName        string  `json:"bus_name"`
	BusCategory    string  `json:"bus_category"`
	Route          string  `json:"route"`
	DepartureTime  string  `json:"departure_time"`
	ArrivalTime    string  `json:"arrival_time"`
	BoardingTime   *string `json:"boarding_time,omitempty"`
	DroppingTime   *string `json:"dropping_time,omitempty"`
	DistanceKm     int     `json:"distance_km"`
	FareAmount     int     `json:"fare_amount"`
	AvailableSeats int     `json:"available_seats"`
	FromStopSeq    int     `json:"from_stop_seq"`
	ToStopSeq      int     `json:"to_stop_seq"`
}

type SearchResult struct {
	SearchDate time.Time    `json:"search_date"`
	FromStop   string       `json:"from_stop"`
	ToStop     string       `json:"to_stop"`
	Trips      []TripResult `json:"trips"`
}

type SeatMapInput struct {
	TripID      int64
	Date        time.Time
	FromStopSeq int
	ToStopSeq   int
}

type SeatInfo struct {
	SeatNo    string `json:"seat_no"`
	Available bool   `json:"available"`
	Layout    string `json:"layout"`
}

type SeatMap struct {
	TripID      int64      `json:"trip_id"`
	Date        time.Time  `json:"date"`
	FromStopSeq int        `json:"from_stop_seq"`
	ToStopSeq   int        `json:"to_stop_seq"`
	Seats       []SeatInfo `json:"seats"`
}

type TripService struct {
	trips    repository.TripRepository
	bookings repository.BookingRepository
	cache    Cache
	zone     *time.Location
	now      func() time.Time
}

type TripServiceOption func(*TripService)

// WithClock injects the time source used for past-date filtering.
func WithClock(now func() time.Time) TripServiceOption {
	return func(s *TripService) {
		s.now = now
	}
}

func NewTripService(trips repository.TripRepository, bookings repository.BookingRepository, cache Cache, zone *time.Location, opts ...TripServiceOption) *TripService {
	if zone == nil {
		zone = time.UTC
	}
	service := &TripService{
		trips:    trips,
		bookings: bookings,
		cache:    cache,
		zone:     zone,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Search lists the date's running trips whose route contains both named
// stops in order, with segment fare and the exact available-seat count.
// Trips departing earlier today are skipped.
func (s *TripService) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	if input.From == "" || input.To == "" {
		return nil, domain.InvalidRequestError{Msg: "from and to stops are required"}
	}
	if input.Seats <= 0 {
		input.Seats = 1
	}
	_, isToday, err := s.checkDate(input.Date)
	if err != nil {
		return nil, err
	}

	dayTrips, err := s.tripsForDay(ctx, input.Date.Day())
	if err != nil {
		return nil, err
	}

	rates, err := s.trips.FareRates(ctx)
	if err != nil {
		return nil, err
	}
	fares := domain.NewFareTable(rates)

	results := make([]TripResult, 0)
	for i := range dayTrips {
		trip := &dayTrips[i]
		fromStop, okFrom := trip.StopByName(input.From)
		toStop, okTo := trip.StopByName(input.To)
		if !okFrom || !okTo || fromStop.SeqNo >= toStop.SeqNo {
			continue
		}
		if isToday && s.departed(fromStop) {
			continue
		}
		if input.Category != "" && !strings.EqualFold(trip.Bus.Category, input.Category) {
			continue
		}

		confirmed, err := s.bookings.ListConfirmed(ctx, trip.ID, input.Date)
		if err != nil {
			return nil, err
		}
		seg := domain.Segment{From: fromStop.SeqNo, To: toStop.SeqNo}
		free := domain.AvailableSeats(trip.Bus, confirmed, seg)
		if len(free) < input.Seats {
			continue
		}

		distance := domain.SegmentDistance(fromStop, toStop)
		results = append(results, TripResult{
			TripID:         trip.ID,
			BusName:        trip.Bus.Name,
			BusCategory:    trip.Bus.Category,
			Route:          trip.FromCity + " - " + trip.ToCity,
			DepartureTime:  trip.DepartureTime,
			ArrivalTime:    trip.ArrivalTime,
			BoardingTime:   fromStop.DepartTime,
			DroppingTime:   toStop.ArriveTime,
			DistanceKm:     distance,
			FareAmount:     fares.Fare(trip.Bus.Category, distance),
			AvailableSeats: len(free),
			FromStopSeq:    fromStop.SeqNo,
			ToStopSeq:      toStop.SeqNo,
		})
	}

	return &SearchResult{
		SearchDate: input.Date,
		FromStop:   input.From,
		ToStop:     input.To,
		Trips:      results,
	}, nil
}

// SeatMap reports per-seat availability for an exact segment, with a
// cosmetic window/aisle label.
func (s *TripService) SeatMap(ctx context.Context, input SeatMapInput) (*SeatMap, error) {
	seg := domain.Segment{From: input.FromStopSeq, To: input.ToStopSeq}
	if !seg.Valid() {
		return nil, domain.InvalidRequestError{Msg: "invalid journey segment"}
	}
	if _, _, err := s.checkDate(input.Date); err != nil {
		return nil, err
	}

	trip, err := s.trips.GetByID(ctx, input.TripID)
	if err != nil {
		return nil, err
	}
	if _, ok := trip.StopBySeq(input.FromStopSeq); !ok {
		return nil, domain.NotFoundError{Resource: "boarding stop"}
	}
	if _, ok := trip.StopBySeq(input.ToStopSeq); !ok {
		return nil, domain.NotFoundError{Resource: "alighting stop"}
	}

	confirmed, err := s.bookings.ListConfirmed(ctx, trip.ID, input.Date)
	if err != nil {
		return nil, err
	}
	taken := domain.BookedSeats(confirmed, seg)

	seats := make([]SeatInfo, 0, trip.Bus.TotalSeats)
	for _, seatNo := range trip.Bus.SeatNumbers() {
		_, booked := taken[seatNo]
		seats = append(seats, SeatInfo{
			SeatNo:    seatNo,
			Available: !booked,
			Layout:    domain.SeatLayout(seatNo, trip.Bus.Category),
		})
	}

	return &SeatMap{
		TripID:      input.TripID,
		Date:        input.Date,
		FromStopSeq: input.FromStopSeq,
		ToStopSeq:   input.ToStopSeq,
		Seats:       seats,
	}, nil
}

func (s *TripService) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	return s.trips.GetByID(ctx, id)
}

// WarmDay refreshes the cached trip list for a day slot.
func (s *TripService) WarmDay(ctx context.Context, dayNo int) error {
	trips, err := s.trips.ListRunningByDay(ctx, dayNo)
	if err != nil {
		return err
	}
	if s.cache != nil {
		return s.cache.SetTripsForDay(ctx, dayNo, trips)
	}
	return nil
}

func (s *TripService) tripsForDay(ctx context.Context, dayNo int) ([]domain.Trip, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetTripsForDay(ctx, dayNo); err == nil && cached != nil {
			return cached, nil
		}
	}
	trips, err := s.trips.ListRunningByDay(ctx, dayNo)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetTripsForDay(ctx, dayNo, trips)
	}
	return trips, nil
}

func (s *TripService) checkDate(date time.Time) (time.Time, bool, error) {
	if date.IsZero() {
		return time.Time{}, false, domain.InvalidRequestError{Msg: "date is required"}
	}
	now := s.now().In(s.zone)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.zone)
	travel := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.zone)
	if travel.Before(today) {
		return today, false, domain.RejectedError{Reason: "cannot book for past dates"}
	}
	return today, travel.Equal(today), nil
}

func (s *TripService) departed(stop domain.TripStop) bool {
	if stop.DepartTime == nil {
		return false
	}
	depart, err := domain.ClockMinutes(*stop.DepartTime)
	if err != nil {
		return false
	}
	now := s.now().In(s.zone)
	return depart < now.Hour()*60+now.Minute()
}

var _ TripUseCase = (*TripService)(nil)
