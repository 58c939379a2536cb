package order

import (
	"fmt"
	"math/rand"
	"time"
)

// NumberGenerator produces human readable order numbers. Uniqueness is
// enforced by the service and the orders.number constraint.
type NumberGenerator interface {
	Generate(now time.Time) string
}

type NumberGeneratorFunc func(now time.Time) string

func (f NumberGeneratorFunc) Generate(now time.Time) string {
	return f(now)
}

// RandomNumberGenerator formats numbers as PED-YYYYMMDD-NNNNN.
type RandomNumberGenerator struct{}

func (RandomNumberGenerator) Generate(now time.Time) string {
	return fmt.Sprintf("PED-%s-%05d", now.Format("20060102"), rand.Intn(100000))
}
