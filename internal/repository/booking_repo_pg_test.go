package repository

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewBookingRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewBookingRepository(pool, 0)
	assert.NotNil(t, repo)
	assert.Equal(t, 3*time.Second, repo.(*PGBookingRepository).lockTimeout)
}

func TestNewBookingRepositoryCustomLockTimeout(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewBookingRepository(pool, 500*time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, repo.(*PGBookingRepository).lockTimeout)
}
