// Package pnr issues booking reference codes.
package pnr

import (
	"crypto/rand"
	"encoding/base32"
	"strconv"
	"strings"
	"time"
)

// DefaultPrefix marks references issued by this operator.
const DefaultPrefix = "MGT"

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Generator produces references that are practically collision-free across
// concurrent service instances: a second-resolution time component plus 40
// bits of crypto randomness. The unique index on bookings.pnr backstops the
// residual collision chance; the repository retries with a fresh reference
// on a unique violation.
type Generator struct {
	prefix string
}

func New(prefix string) *Generator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Generator{prefix: prefix}
}

// NewReference returns a new booking reference, e.g. "MGT1SKW3G4QJ3A2Z7HE".
func (g *Generator) NewReference() string {
	var buf [5]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing means the platform entropy source is broken;
		// fall back to the nanosecond clock rather than refuse bookings.
		now := time.Now().UnixNano()
		for i := range buf {
			buf[i] = byte(now >> (8 * i))
		}
	}
	ts := strings.ToUpper(strconv.FormatInt(time.Now().Unix(), 32))
	return g.prefix + ts + encoding.EncodeToString(buf[:])
}
