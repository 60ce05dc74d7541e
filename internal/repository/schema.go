package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema creates the tables the service reads and writes. Trips, stops,
// buses and fare rates are filled by the route import pipeline; the booking
// core only writes bookings. The (pnr, seat_no) unique index backs the
// reference-collision retry in BookSeats.
const schema = `
CREATE TABLE IF NOT EXISTS buses (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL,
	total_seats INT  NOT NULL
);

CREATE TABLE IF NOT EXISTS trips (
	id             BIGSERIAL PRIMARY KEY,
	day_no         INT  NOT NULL CHECK (day_no BETWEEN 1 AND 31),
	bus_id         BIGINT NOT NULL REFERENCES buses(id),
	from_city      TEXT NOT NULL,
	to_city        TEXT NOT NULL,
	departure_time TEXT NOT NULL,
	arrival_time   TEXT NOT NULL,
	total_km       INT  NOT NULL,
	price          INT  NOT NULL,
	status         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trip_stops (
	id            BIGSERIAL PRIMARY KEY,
	trip_id       BIGINT NOT NULL REFERENCES trips(id),
	seq_no        INT  NOT NULL,
	stop_name     TEXT NOT NULL,
	arrive_time   TEXT,
	depart_time   TEXT,
	cumulative_km INT  NOT NULL,
	UNIQUE (trip_id, seq_no)
);

CREATE TABLE IF NOT EXISTS fare_rates (
	category    TEXT PRIMARY KEY,
	rate_per_km NUMERIC(10,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
	id              BIGSERIAL PRIMARY KEY,
	pnr             TEXT NOT NULL,
	trip_id         BIGINT NOT NULL REFERENCES trips(id),
	travel_date     DATE NOT NULL,
	seat_no         TEXT NOT NULL,
	from_stop_seq   INT  NOT NULL,
	to_stop_seq     INT  NOT NULL CHECK (from_stop_seq < to_stop_seq),
	passenger_name  TEXT NOT NULL,
	passenger_phone TEXT NOT NULL,
	fare_amount     INT  NOT NULL,
	status          TEXT NOT NULL,
	booked_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	account_id      TEXT,
	UNIQUE (pnr, seat_no)
);

CREATE INDEX IF NOT EXISTS idx_bookings_trip_date ON bookings (trip_id, travel_date, status);
CREATE INDEX IF NOT EXISTS idx_bookings_account ON bookings (account_id, booked_at DESC);
`

// EnsureSchema creates missing tables and indexes on startup.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
