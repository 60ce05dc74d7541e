package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mgtravels/busbooking/internal/domain"
)

// maxPNRAttempts bounds regeneration when a reference collides with an
// existing booking.
const maxPNRAttempts = 3

type BookingRepository interface {
	// BookSeats commits all rows of one booking request atomically. Every
	// row shares the same trip, travel date, segment and PNR. newRef is
	// called for a replacement reference if the PNR collides.
	BookSeats(ctx context.Context, rows []domain.Booking, newRef func() string) ([]domain.Booking, error)
	ListConfirmed(ctx context.Context, tripID int64, travelDate time.Time) ([]domain.Booking, error)
	GetByPNR(ctx context.Context, pnr string) ([]domain.Booking, error)
	// CancelByPNR returns the rows this call flipped to CANCELLED; an empty
	// result means the booking was already cancelled.
	CancelByPNR(ctx context.Context, pnr string) ([]domain.Booking, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

func NewBookingRepository(db *pgxpool.Pool, lockTimeout time.Duration) BookingRepository {
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	return &PGBookingRepository{db: db, lockTimeout: lockTimeout}
}

const bookingColumns = `id, pnr, trip_id, travel_date, seat_no, from_stop_seq, to_stop_seq, passenger_name, passenger_phone, fare_amount, status, booked_at, account_id`

// BookSeats serializes against other writers on the same trip by locking
// the trip row FOR UPDATE, re-checks seat existence and segment overlaps
// under that lock, then inserts every seat row in the same transaction.
// Either the whole request commits or nothing does.
func (r *PGBookingRepository) BookSeats(ctx context.Context, rows []domain.Booking, newRef func() string) ([]domain.Booking, error) {
	if len(rows) == 0 {
		return nil, domain.InvalidRequestError{Msg: "no seats requested"}
	}

	for attempt := 0; attempt < maxPNRAttempts; attempt++ {
		booked, err := r.bookTx(ctx, rows)
		if err == nil {
			return booked, nil
		}
		if isUniqueViolation(err) && newRef != nil {
			ref := newRef()
			for i := range rows {
				rows[i].PNR = ref
			}
			continue
		}
		return nil, err
	}
	return nil, domain.ConflictError{Err: errors.New("could not allocate a unique booking reference")}
}

func (r *PGBookingRepository) bookTx(ctx context.Context, rows []domain.Booking) ([]domain.Booking, error) {
	tripID := rows[0].TripID
	travelDate := rows[0].TravelDate
	seg := rows[0].Segment()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Bounded wait: a writer stuck behind a long commit fails with a lock
	// timeout rather than a misleading "seat unavailable".
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
		return nil, fmt.Errorf("set lock timeout: %w", err)
	}

	var totalSeats int
	err = tx.QueryRow(ctx,
		`SELECT b.total_seats FROM trips t JOIN buses b ON b.id = t.bus_id WHERE t.id=$1 FOR UPDATE OF t`,
		tripID).Scan(&totalSeats)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "trip"}
		}
		if isLockTimeout(err) {
			return nil, domain.ErrLockTimeout
		}
		return nil, fmt.Errorf("lock trip row: %w", err)
	}

	confirmed, err := scanBookings(tx.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE trip_id=$1 AND travel_date=$2 AND status=$3`,
		tripID, travelDate, domain.BookingStatusConfirmed))
	if err != nil {
		return nil, fmt.Errorf("load confirmed bookings: %w", err)
	}

	// Membership in the available set, not just absence from the booked
	// set: a seat number the bus does not have fails here too.
	available := make(map[string]struct{})
	for _, seatNo := range domain.AvailableSeats(domain.Bus{TotalSeats: totalSeats}, confirmed, seg) {
		available[seatNo] = struct{}{}
	}
	for _, row := range rows {
		if _, free := available[row.SeatNo]; !free {
			return nil, domain.SeatUnavailable(row.SeatNo)
		}
	}

	booked := make([]domain.Booking, 0, len(rows))
	for _, row := range rows {
		if err := tx.QueryRow(ctx,
			`INSERT INTO bookings (pnr, trip_id, travel_date, seat_no, from_stop_seq, to_stop_seq, passenger_name, passenger_phone, fare_amount, status, booked_at, account_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 RETURNING id`,
			row.PNR, row.TripID, row.TravelDate, row.SeatNo, row.FromStopSeq, row.ToStopSeq,
			row.PassengerName, row.PassengerPhone, row.FareAmount, row.Status, row.BookedAt, row.AccountID).
			Scan(&row.ID); err != nil {
			return nil, err
		}
		booked = append(booked, row)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit booking: %w", err)
	}
	return booked, nil
}

func (r *PGBookingRepository) ListConfirmed(ctx context.Context, tripID int64, travelDate time.Time) ([]domain.Booking, error) {
	return scanBookings(r.db.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE trip_id=$1 AND travel_date=$2 AND status=$3`,
		tripID, travelDate, domain.BookingStatusConfirmed))
}

func (r *PGBookingRepository) GetByPNR(ctx context.Context, pnr string) ([]domain.Booking, error) {
	bookings, err := scanBookings(r.db.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE pnr=$1 ORDER BY seat_no`, pnr))
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, domain.NotFoundError{Resource: "booking"}
	}
	return bookings, nil
}

// CancelByPNR flips every confirmed row of the reference to CANCELLED and
// returns only the rows this call flipped. An empty result means another
// caller cancelled first; rows are never deleted.
func (r *PGBookingRepository) CancelByPNR(ctx context.Context, pnr string) ([]domain.Booking, error) {
	cancelled, err := scanBookings(r.db.Query(ctx,
		`UPDATE bookings SET status=$1 WHERE pnr=$2 AND status=$3 RETURNING `+bookingColumns,
		domain.BookingStatusCancelled, pnr, domain.BookingStatusConfirmed))
	if err != nil {
		return nil, err
	}
	if len(cancelled) > 0 {
		return cancelled, nil
	}
	if _, err := r.GetByPNR(ctx, pnr); err != nil {
		return nil, err
	}
	return nil, nil
}

func (r *PGBookingRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.Booking, error) {
	return scanBookings(r.db.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE account_id=$1 ORDER BY booked_at DESC, id DESC`, accountID))
}

func scanBookings(rows pgx.Rows, err error) ([]domain.Booking, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.PNR, &b.TripID, &b.TravelDate, &b.SeatNo, &b.FromStopSeq, &b.ToStopSeq,
			&b.PassengerName, &b.PassengerPhone, &b.FareAmount, &b.Status, &b.BookedAt, &b.AccountID); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}

var _ BookingRepository = (*PGBookingRepository)(nil)
