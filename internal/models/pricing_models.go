package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentType classifies a dynamic pricing rule.
type AdjustmentType int

const (
	AdjustmentPeakHour   AdjustmentType = 1
	AdjustmentWeekend    AdjustmentType = 2
	AdjustmentHighDemand AdjustmentType = 3
	AdjustmentPromotion  AdjustmentType = 4
	AdjustmentEvent      AdjustmentType = 5
)

// IsValidAdjustmentType checks if the provided code is a known AdjustmentType.
func IsValidAdjustmentType(t int) bool {
	a := AdjustmentType(t)
	switch a {
	case AdjustmentPeakHour, AdjustmentWeekend, AdjustmentHighDemand, AdjustmentPromotion, AdjustmentEvent:
		return true
	default:
		return false
	}
}

func (a AdjustmentType) String() string {
	switch a {
	case AdjustmentPeakHour:
		return "peak_hour"
	case AdjustmentWeekend:
		return "weekend"
	case AdjustmentHighDemand:
		return "high_demand"
	case AdjustmentPromotion:
		return "promotion"
	case AdjustmentEvent:
		return "event"
	default:
		return "unknown"
	}
}

// DynamicPricingRule adjusts a category's hourly rate by a signed
// percentage. A rule applies to an instant iff every constraint that is
// set matches it; constraints left nil are wildcards.
//
// TimeStart/TimeEnd are wall-clock "HH:MM:SS" strings compared
// lexicographically, which is equivalent to chronological comparison
// for zero-padded 24h values.
type DynamicPricingRule struct {
	ID             int64           `json:"id" db:"id"`
	CategoryID     int64           `json:"category_id" db:"category_id" binding:"required"`
	AdjustmentType AdjustmentType  `json:"adjustment_type" db:"adjustment_type"`
	Percentage     decimal.Decimal `json:"percentage" db:"percentage"` // signed, e.g. +50 or -20
	TimeStart      *string         `json:"time_start,omitempty" db:"time_start"`
	TimeEnd        *string         `json:"time_end,omitempty" db:"time_end"`
	Weekday        *int            `json:"weekday,omitempty" db:"weekday"` // ISO: 1=Mon .. 7=Sun
	DateStart      *time.Time      `json:"date_start,omitempty" db:"date_start"`
	DateEnd        *time.Time      `json:"date_end,omitempty" db:"date_end"`
	IsActive       bool            `json:"is_active" db:"is_active"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// PriceAdjustment is one matched rule inside a price quote.
type PriceAdjustment struct {
	RuleID         int64           `json:"rule_id"`
	AdjustmentType AdjustmentType  `json:"adjustment_type"`
	Percentage     decimal.Decimal `json:"percentage"`
}

// PriceQuote is the full cost breakdown for a session window.
// Monetary fields are rounded to 2 decimal places; intermediate
// accumulation happens at full precision.
type PriceQuote struct {
	CategoryID                int64             `json:"category_id"`
	BasePrice                 decimal.Decimal   `json:"base_price"`
	DurationHours             decimal.Decimal   `json:"duration_hours"`
	BaseCost                  decimal.Decimal   `json:"base_cost"`
	Adjustments               []PriceAdjustment `json:"adjustments"`
	TotalPercentageAdjustment decimal.Decimal   `json:"total_percentage_adjustment"`
	FinalPrice                decimal.Decimal   `json:"final_price"`
}
