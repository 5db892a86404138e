package scheduling

import (
	"math"
	"time"

	"booking-core/internal/domain/reservation"
)

type PricingType string

const (
	PricingFree        PricingType = "free"
	PricingFixed       PricingType = "fixed"
	PricingPerTimeUnit PricingType = "per_time_unit"
)

// PricingRecord prices a unit from its Begins date onward. Units carry
// a history of records; the latest one whose Begins has arrived wins.
type PricingRecord struct {
	Begins            time.Time
	Type              PricingType
	HighestPriceCents int64
	LowestPriceCents  int64
	PriceUnit         time.Duration // billed unit length for per_time_unit
	TaxPercentage     float64
}

// activePricing picks the record in effect at the given instant.
// A unit with no applicable record is free.
func activePricing(records []PricingRecord, at time.Time) (PricingRecord, bool) {
	var best PricingRecord
	found := false
	for _, rec := range records {
		if rec.Begins.After(at) {
			continue
		}
		if !found || rec.Begins.After(best.Begins) {
			best = rec
			found = true
		}
	}
	return best, found
}

// CalculatePrice computes the price fields for a reservation over
// [begin, end). Prices sum across units booked together; the reported
// tax percentage and unit price always come from the first unit.
func CalculatePrice(units []UnitConfig, begin, end time.Time) reservation.PriceBreakdown {
	duration := end.Sub(begin)

	var total int64
	var unitPrice int64
	var taxPercentage float64

	for i, unit := range units {
		rec, ok := activePricing(unit.Pricings, begin)
		if !ok {
			continue
		}

		gross := grossPrice(rec, duration)
		total += gross

		if i == 0 {
			unitPrice = rec.HighestPriceCents
			taxPercentage = rec.TaxPercentage
		}
	}

	return reservation.PriceBreakdown{
		Price:              reservation.NewMoney(total),
		NetPrice:           reservation.NewMoney(netPrice(total, taxPercentage)),
		UnitPrice:          reservation.NewMoney(unitPrice),
		NonSubsidisedPrice: reservation.NewMoney(total),
		TaxPercentage:      taxPercentage,
	}
}

func grossPrice(rec PricingRecord, duration time.Duration) int64 {
	switch rec.Type {
	case PricingFree:
		return 0
	case PricingFixed:
		return rec.HighestPriceCents
	case PricingPerTimeUnit:
		if rec.PriceUnit <= 0 {
			return rec.HighestPriceCents
		}
		units := int64(math.Ceil(float64(duration) / float64(rec.PriceUnit)))
		return rec.HighestPriceCents * units
	default:
		return 0
	}
}

// netPrice strips the tax component, rounding half-up to cents.
func netPrice(grossCents int64, taxPercentage float64) int64 {
	if taxPercentage <= 0 {
		return grossCents
	}
	net := float64(grossCents) / (1 + taxPercentage/100)
	return int64(math.Floor(net + 0.5))
}
