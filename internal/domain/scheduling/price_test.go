package scheduling_test

import (
	"testing"
	"time"

	"booking-core/internal/domain/scheduling"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func pricedUnit(rec scheduling.PricingRecord) scheduling.UnitConfig {
	return scheduling.UnitConfig{
		ID:       uuid.New(),
		Location: helsinki,
		Pricings: []scheduling.PricingRecord{rec},
	}
}

func TestCalculatePrice_Fixed(t *testing.T) {
	unit := pricedUnit(scheduling.PricingRecord{
		Begins:            at(1, 0, 0),
		Type:              scheduling.PricingFixed,
		HighestPriceCents: 5000,
		TaxPercentage:     24,
	})

	short := scheduling.CalculatePrice([]scheduling.UnitConfig{unit}, at(3, 13, 0), at(3, 14, 0))
	long := scheduling.CalculatePrice([]scheduling.UnitConfig{unit}, at(3, 13, 0), at(3, 17, 0))

	assert.Equal(t, int64(5000), short.Price.Cents())
	assert.Equal(t, int64(5000), long.Price.Cents(), "fixed price is independent of duration")
	assert.Equal(t, 24.0, short.TaxPercentage)
	// 5000 / 1.24 = 4032.258... rounds half-up to 4032
	assert.Equal(t, int64(4032), short.NetPrice.Cents())
}

func TestCalculatePrice_PerTimeUnit(t *testing.T) {
	unit := pricedUnit(scheduling.PricingRecord{
		Begins:            at(1, 0, 0),
		Type:              scheduling.PricingPerTimeUnit,
		HighestPriceCents: 250,
		PriceUnit:         15 * time.Minute,
		TaxPercentage:     10,
	})

	tests := []struct {
		name  string
		hours time.Duration
		want  int64
	}{
		{name: "one hour is four units", hours: time.Hour, want: 1000},
		{name: "two hours is eight units", hours: 2 * time.Hour, want: 2000},
		{name: "partial unit rounds up", hours: 70 * time.Minute, want: 1250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scheduling.CalculatePrice([]scheduling.UnitConfig{unit}, at(3, 13, 0), at(3, 13, 0).Add(tt.hours))
			assert.Equal(t, tt.want, got.Price.Cents())
		})
	}
}

func TestCalculatePrice_Free(t *testing.T) {
	unit := pricedUnit(scheduling.PricingRecord{
		Begins: at(1, 0, 0),
		Type:   scheduling.PricingFree,
	})

	got := scheduling.CalculatePrice([]scheduling.UnitConfig{unit}, at(3, 13, 0), at(3, 15, 0))
	assert.Equal(t, int64(0), got.Price.Cents())
	assert.Equal(t, int64(0), got.NetPrice.Cents())
}

func TestCalculatePrice_PricingRecordSelection(t *testing.T) {
	unit := scheduling.UnitConfig{
		ID:       uuid.New(),
		Location: helsinki,
		Pricings: []scheduling.PricingRecord{
			{Begins: at(1, 0, 0), Type: scheduling.PricingFixed, HighestPriceCents: 1000, TaxPercentage: 24},
			{Begins: at(3, 0, 0), Type: scheduling.PricingFixed, HighestPriceCents: 2000, TaxPercentage: 24},
			{Begins: at(10, 0, 0), Type: scheduling.PricingFixed, HighestPriceCents: 9000, TaxPercentage: 24},
		},
	}

	got := scheduling.CalculatePrice([]scheduling.UnitConfig{unit}, at(3, 13, 0), at(3, 14, 0))
	assert.Equal(t, int64(2000), got.Price.Cents(), "latest record whose begins date has arrived wins")
}

func TestCalculatePrice_MultipleUnits(t *testing.T) {
	first := pricedUnit(scheduling.PricingRecord{
		Begins:            at(1, 0, 0),
		Type:              scheduling.PricingFixed,
		HighestPriceCents: 1000,
		TaxPercentage:     14,
	})
	second := pricedUnit(scheduling.PricingRecord{
		Begins:            at(1, 0, 0),
		Type:              scheduling.PricingFixed,
		HighestPriceCents: 3000,
		TaxPercentage:     24,
	})

	got := scheduling.CalculatePrice([]scheduling.UnitConfig{first, second}, at(3, 13, 0), at(3, 14, 0))
	assert.Equal(t, int64(4000), got.Price.Cents(), "prices sum across units")
	assert.Equal(t, 14.0, got.TaxPercentage, "tax comes from the first unit")
	assert.Equal(t, int64(1000), got.UnitPrice.Cents(), "unit price comes from the first unit")
}

func TestCalculatePrice_NoPricingIsFree(t *testing.T) {
	unit := scheduling.UnitConfig{ID: uuid.New(), Location: helsinki}
	got := scheduling.CalculatePrice([]scheduling.UnitConfig{unit}, at(3, 13, 0), at(3, 14, 0))
	assert.Equal(t, int64(0), got.Price.Cents())
}
