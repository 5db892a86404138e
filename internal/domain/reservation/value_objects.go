package reservation

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTimeSlot = errors.New("start time must be before end time")

// TimeSlot is a half-open occupation range [begin, end).
type TimeSlot struct {
	begin time.Time
	end   time.Time
}

func NewTimeSlot(begin, end time.Time) (TimeSlot, error) {
	if !begin.Before(end) {
		return TimeSlot{}, ErrInvalidTimeSlot
	}
	return TimeSlot{begin: begin, end: end}, nil
}

func (ts TimeSlot) Begin() time.Time {
	return ts.begin
}

func (ts TimeSlot) End() time.Time {
	return ts.end
}

func (ts TimeSlot) Duration() time.Duration {
	return ts.end.Sub(ts.begin)
}

// Overlaps uses half-open semantics: slots that merely touch do not overlap.
func (ts TimeSlot) Overlaps(other TimeSlot) bool {
	return ts.begin.Before(other.end) && other.begin.Before(ts.end)
}

func (ts TimeSlot) ToTstzrange() string {
	return fmt.Sprintf("[%s,%s)", ts.begin.Format(time.RFC3339), ts.end.Format(time.RFC3339))
}

// Money is an amount of integer cents.
type Money struct {
	cents int64
}

func NewMoney(cents int64) Money {
	return Money{cents: cents}
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

func (m Money) IsZero() bool {
	return m.cents == 0
}

// PriceBreakdown carries the computed price fields of a reservation.
type PriceBreakdown struct {
	Price              Money
	NetPrice           Money
	UnitPrice          Money
	NonSubsidisedPrice Money
	TaxPercentage      float64
}
