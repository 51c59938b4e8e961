package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billiard_hall_backend/internal/models"
)

func newPricingFixture(basePrice string, rules ...models.DynamicPricingRule) PricingService {
	categoryRepo := &stubCategoryRepo{
		categories: map[int64]*models.TableCategory{
			1: {ID: 1, Name: "Standard", BasePrice: decimal.RequireFromString(basePrice), IsActive: true},
		},
	}
	ruleRepo := &stubRuleRepo{rules: rules}
	return NewPricingService(categoryRepo, ruleRepo, nil)
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func TestCalculateSessionPrice_BaseRate(t *testing.T) {
	svc := newPricingFixture("10.00")

	start := time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC) // Tuesday
	end := start.Add(2*time.Hour + 30*time.Minute)

	quote, err := svc.CalculateSessionPrice(1, start, &end)
	require.NoError(t, err)

	assert.Equal(t, "2.5", quote.DurationHours.String())
	assert.Equal(t, "25", quote.BaseCost.String())
	assert.Equal(t, "25", quote.FinalPrice.String())
	assert.Empty(t, quote.Adjustments)
}

func TestCalculateSessionPrice_WeekendSurcharge(t *testing.T) {
	weekendRule := models.DynamicPricingRule{
		ID:             1,
		CategoryID:     1,
		AdjustmentType: models.AdjustmentWeekend,
		Percentage:     decimal.RequireFromString("20"),
		Weekday:        intPtr(6), // Saturday
		IsActive:       true,
	}
	svc := newPricingFixture("10.00", weekendRule)

	saturday := time.Date(2026, 3, 7, 14, 0, 0, 0, time.UTC)
	saturdayEnd := saturday.Add(2*time.Hour + 30*time.Minute)

	quote, err := svc.CalculateSessionPrice(1, saturday, &saturdayEnd)
	require.NoError(t, err)
	assert.Equal(t, "30", quote.FinalPrice.String())
	require.Len(t, quote.Adjustments, 1)
	assert.Equal(t, int64(1), quote.Adjustments[0].RuleID)

	tuesday := time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC)
	tuesdayEnd := tuesday.Add(2*time.Hour + 30*time.Minute)

	quote, err = svc.CalculateSessionPrice(1, tuesday, &tuesdayEnd)
	require.NoError(t, err)
	assert.Equal(t, "25", quote.FinalPrice.String())
	assert.Empty(t, quote.Adjustments)
}

func TestCalculateSessionPrice_RulesStack(t *testing.T) {
	peak := models.DynamicPricingRule{
		ID:             1,
		CategoryID:     1,
		AdjustmentType: models.AdjustmentPeakHour,
		Percentage:     decimal.RequireFromString("25"),
		TimeStart:      strPtr("18:00:00"),
		TimeEnd:        strPtr("22:00:00"),
		IsActive:       true,
	}
	promo := models.DynamicPricingRule{
		ID:             2,
		CategoryID:     1,
		AdjustmentType: models.AdjustmentPromotion,
		Percentage:     decimal.RequireFromString("-10"),
		IsActive:       true,
	}
	svc := newPricingFixture("20.00", peak, promo)

	start := time.Date(2026, 3, 4, 19, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	quote, err := svc.CalculateSessionPrice(1, start, &end)
	require.NoError(t, err)

	// 20.00 base, +25% and -10% stack additively to +15%.
	assert.Equal(t, "15", quote.TotalPercentageAdjustment.String())
	assert.Equal(t, "23", quote.FinalPrice.String())
	assert.Len(t, quote.Adjustments, 2)
}

func TestCalculateSessionPrice_RuleEvaluatedAtStartOnly(t *testing.T) {
	peak := models.DynamicPricingRule{
		ID:             1,
		CategoryID:     1,
		AdjustmentType: models.AdjustmentPeakHour,
		Percentage:     decimal.RequireFromString("50"),
		TimeStart:      strPtr("18:00:00"),
		TimeEnd:        strPtr("22:00:00"),
		IsActive:       true,
	}
	svc := newPricingFixture("10.00", peak)

	// Starts before the peak window but runs into it: no surcharge.
	start := time.Date(2026, 3, 4, 16, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)

	quote, err := svc.CalculateSessionPrice(1, start, &end)
	require.NoError(t, err)
	assert.Equal(t, "40", quote.FinalPrice.String())
	assert.Empty(t, quote.Adjustments)

	// Starting exactly on the window's lower bound applies the rule.
	start = time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC)
	end = start.Add(time.Hour)

	quote, err = svc.CalculateSessionPrice(1, start, &end)
	require.NoError(t, err)
	assert.Equal(t, "15", quote.FinalPrice.String())
}

func TestCalculateSessionPrice_NonPositiveDuration(t *testing.T) {
	svc := newPricingFixture("10.00")

	start := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	end := start

	quote, err := svc.CalculateSessionPrice(1, start, &end)
	require.NoError(t, err)
	assert.True(t, quote.FinalPrice.IsZero())
	assert.True(t, quote.BaseCost.IsZero())

	end = start.Add(-time.Hour)
	quote, err = svc.CalculateSessionPrice(1, start, &end)
	require.NoError(t, err)
	assert.True(t, quote.FinalPrice.IsZero())
}

func TestCalculateSessionPrice_DiscountBelowBase(t *testing.T) {
	promo := models.DynamicPricingRule{
		ID:             1,
		CategoryID:     1,
		AdjustmentType: models.AdjustmentPromotion,
		Percentage:     decimal.RequireFromString("-30"),
		IsActive:       true,
	}
	svc := newPricingFixture("10.00", promo)

	start := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	quote, err := svc.CalculateSessionPrice(1, start, &end)
	require.NoError(t, err)
	assert.Equal(t, "7", quote.FinalPrice.String())
}

func TestCalculateSessionPrice_UnknownCategory(t *testing.T) {
	svc := newPricingFixture("10.00")

	start := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	_, err := svc.CalculateSessionPrice(99, start, &end)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestGetApplicablePricing_ReadOnly(t *testing.T) {
	weekendRule := models.DynamicPricingRule{
		ID:             1,
		CategoryID:     1,
		AdjustmentType: models.AdjustmentWeekend,
		Percentage:     decimal.RequireFromString("20"),
		Weekday:        intPtr(7), // Sunday, ISO numbering
		IsActive:       true,
	}
	svc := newPricingFixture("10.00", weekendRule)

	sunday := time.Date(2026, 3, 8, 14, 0, 0, 0, time.UTC)

	first, err := svc.GetApplicablePricing(1, sunday)
	require.NoError(t, err)
	second, err := svc.GetApplicablePricing(1, sunday)
	require.NoError(t, err)

	require.Len(t, first, 1)
	assert.Equal(t, first, second)

	monday := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)
	none, err := svc.GetApplicablePricing(1, monday)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateRule_Validation(t *testing.T) {
	svc := newPricingFixture("10.00")

	_, err := svc.CreateRule(CreatePricingRuleRequest{
		CategoryID:     1,
		AdjustmentType: 99,
		Percentage:     decimal.RequireFromString("10"),
	})
	assert.ErrorIs(t, err, ErrPricingValidation)

	_, err = svc.CreateRule(CreatePricingRuleRequest{
		CategoryID:     1,
		AdjustmentType: int(models.AdjustmentPeakHour),
		Percentage:     decimal.RequireFromString("10"),
		Weekday:        intPtr(8),
	})
	assert.ErrorIs(t, err, ErrPricingValidation)

	_, err = svc.CreateRule(CreatePricingRuleRequest{
		CategoryID:     1,
		AdjustmentType: int(models.AdjustmentPeakHour),
		Percentage:     decimal.RequireFromString("10"),
		TimeStart:      strPtr("18:00"),
	})
	assert.ErrorIs(t, err, ErrPricingValidation)

	rule, err := svc.CreateRule(CreatePricingRuleRequest{
		CategoryID:     1,
		AdjustmentType: int(models.AdjustmentPeakHour),
		Percentage:     decimal.RequireFromString("10"),
		TimeStart:      strPtr("18:00"),
		TimeEnd:        strPtr("22:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "18:00:00", *rule.TimeStart)
	assert.Equal(t, "22:00:00", *rule.TimeEnd)
}
