package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mgtravels/busbooking/internal/domain"
)

// TripRepository is the read-only trip/stop directory owned by the route
// import collaborator. Nothing in the booking core writes through it.
type TripRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)
	ListRunningByDay(ctx context.Context, dayNo int) ([]domain.Trip, error)
	FareRates(ctx context.Context) (map[string]float64, error)
}

type PGTripRepository struct {
	db *pgxpool.Pool
}

func NewTripRepository(db *pgxpool.Pool) TripRepository {
	return &PGTripRepository{db: db}
}

const tripColumns = `t.id, t.day_no, t.from_city, t.to_city, t.departure_time, t.arrival_time, t.total_km, t.price, t.status,
	b.id, b.name, b.category, b.total_seats`

func (r *PGTripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+tripColumns+` FROM trips t JOIN buses b ON b.id = t.bus_id WHERE t.id=$1`, id)
	trip, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "trip"}
		}
		return nil, err
	}

	stops, err := r.stopsByTrip(ctx, []int64{trip.ID})
	if err != nil {
		return nil, err
	}
	trip.Stops = stops[trip.ID]
	return trip, nil
}

func (r *PGTripRepository) ListRunningByDay(ctx context.Context, dayNo int) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+tripColumns+` FROM trips t JOIN buses b ON b.id = t.bus_id
		 WHERE t.day_no=$1 AND t.status=$2 ORDER BY t.departure_time`,
		dayNo, domain.TripStatusRunning)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]domain.Trip, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *trip)
		ids = append(ids, trip.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return trips, nil
	}

	stops, err := r.stopsByTrip(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range trips {
		trips[i].Stops = stops[trips[i].ID]
	}
	return trips, nil
}

func (r *PGTripRepository) FareRates(ctx context.Context) (map[string]float64, error) {
	rows, err := r.db.Query(ctx, `SELECT category, rate_per_km FROM fare_rates`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rates := make(map[string]float64)
	for rows.Next() {
		var category string
		var rate float64
		if err := rows.Scan(&category, &rate); err != nil {
			return nil, err
		}
		rates[category] = rate
	}
	return rates, rows.Err()
}

func (r *PGTripRepository) stopsByTrip(ctx context.Context, tripIDs []int64) (map[int64][]domain.TripStop, error) {
	rows, err := r.db.Query(ctx,
		`SELECT trip_id, seq_no, stop_name, arrive_time, depart_time, cumulative_km
		 FROM trip_stops WHERE trip_id = ANY($1) ORDER BY trip_id, seq_no`, tripIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stops := make(map[int64][]domain.TripStop)
	for rows.Next() {
		var s domain.TripStop
		if err := rows.Scan(&s.TripID, &s.SeqNo, &s.StopName, &s.ArriveTime, &s.DepartTime, &s.CumulativeKm); err != nil {
			return nil, err
		}
		stops[s.TripID] = append(stops[s.TripID], s)
	}
	return stops, rows.Err()
}

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	var t domain.Trip
	if err := row.Scan(&t.ID, &t.DayNo, &t.FromCity, &t.ToCity, &t.DepartureTime, &t.ArrivalTime,
		&t.TotalKm, &t.Price, &t.Status, &t.Bus.ID, &t.Bus.Name, &t.Bus.Category, &t.Bus.TotalSeats); err != nil {
		return nil, err
	}
	return &t, nil
}

var _ TripRepository = (*PGTripRepository)(nil)
