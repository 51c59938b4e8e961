package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"billiard_hall_backend/internal/models"
	"billiard_hall_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Pricing ---
var (
	ErrCategoryNotFound    = errors.New("table category not found")
	ErrPricingRuleNotFound = errors.New("pricing rule not found")
	ErrPricingValidation   = errors.New("pricing rule validation error")
)

var secondsPerHour = decimal.NewFromInt(3600)

// --- Pricing DTOs ---
type CreatePricingRuleRequest struct {
	CategoryID     int64           `json:"category_id" binding:"required"`
	AdjustmentType int             `json:"adjustment_type" binding:"required"`
	Percentage     decimal.Decimal `json:"percentage" binding:"required"`
	TimeStart      *string         `json:"time_start"`
	TimeEnd        *string         `json:"time_end"`
	Weekday        *int            `json:"weekday"`
	DateStart      *string         `json:"date_start"` // "2006-01-02"
	DateEnd        *string         `json:"date_end"`
	IsActive       *bool           `json:"is_active"`
}

// PricingService computes session costs from category base rates and
// dynamic pricing rules, and manages the rules themselves.
type PricingService interface {
	// CalculateSessionPrice prices the window [startTime, endTime).
	// A nil endTime means "now", for in-progress estimates. Rules are
	// evaluated against the start instant only; a session spanning a
	// rule boundary is not charged a blended rate.
	CalculateSessionPrice(categoryID int64, startTime time.Time, endTime *time.Time) (*models.PriceQuote, error)
	// GetApplicablePricing returns the active rules matching the given
	// instant. Read-only, used for display and audit.
	GetApplicablePricing(categoryID int64, at time.Time) ([]models.DynamicPricingRule, error)

	CreateRule(req CreatePricingRuleRequest) (*models.DynamicPricingRule, error)
	GetRuleByID(id int64) (*models.DynamicPricingRule, error)
	GetRulesByCategory(categoryID int64) ([]models.DynamicPricingRule, error)
	UpdateRule(id int64, req CreatePricingRuleRequest) (*models.DynamicPricingRule, error)
	DeleteRule(id int64) error
}

type pricingService struct {
	categoryRepo repositories.TableCategoryRepository
	ruleRepo     repositories.PricingRuleRepository
	db           *sql.DB
}

// NewPricingService creates a new instance of PricingService.
func NewPricingService(
	cr repositories.TableCategoryRepository,
	rr repositories.PricingRuleRepository,
	db *sql.DB,
) PricingService {
	return &pricingService{categoryRepo: cr, ruleRepo: rr, db: db}
}

// ruleApplies tests a rule against an instant. Every constraint that is
// set must match; constraints left nil are wildcards.
func ruleApplies(rule models.DynamicPricingRule, at time.Time) bool {
	if rule.TimeStart != nil && rule.TimeEnd != nil {
		// Zero-padded 24h "HH:MM:SS" strings compare lexicographically
		// in chronological order. Bounds are inclusive.
		clock := at.Format("15:04:05")
		if clock < *rule.TimeStart || clock > *rule.TimeEnd {
			return false
		}
	}
	if rule.Weekday != nil {
		if isoWeekday(at) != *rule.Weekday {
			return false
		}
	}
	if rule.DateStart != nil && rule.DateEnd != nil {
		date := at.Format("2006-01-02")
		if date < rule.DateStart.Format("2006-01-02") || date > rule.DateEnd.Format("2006-01-02") {
			return false
		}
	}
	return true
}

// isoWeekday maps time.Weekday (Sunday=0) to ISO numbering (Mon=1..Sun=7).
func isoWeekday(t time.Time) int {
	w := int(t.Weekday())
	if w == 0 {
		return 7
	}
	return w
}

func (s *pricingService) CalculateSessionPrice(categoryID int64, startTime time.Time, endTime *time.Time) (*models.PriceQuote, error) {
	category, err := s.categoryRepo.GetCategoryByID(categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrCategoryNotFound, categoryID)
		}
		return nil, fmt.Errorf("failed to fetch category for pricing: %w", err)
	}

	end := time.Now()
	if endTime != nil {
		end = *endTime
	}

	quote := &models.PriceQuote{
		CategoryID:  categoryID,
		BasePrice:   category.BasePrice.Round(2),
		Adjustments: []models.PriceAdjustment{},
	}

	duration := end.Sub(startTime)
	if duration <= 0 {
		// End at or before start yields a zero-cost quote, never a
		// negative charge.
		quote.DurationHours = decimal.Zero
		quote.BaseCost = decimal.Zero
		quote.TotalPercentageAdjustment = decimal.Zero
		quote.FinalPrice = decimal.Zero
		return quote, nil
	}

	// Accumulate at full precision; round only the returned fields.
	durationHours := decimal.NewFromFloat(duration.Seconds()).Div(secondsPerHour)
	baseCost := category.BasePrice.Mul(durationHours)

	rules, err := s.ruleRepo.GetActiveRulesByCategory(categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pricing rules: %w", err)
	}

	totalPercentage := decimal.Zero
	for _, rule := range rules {
		if !ruleApplies(rule, startTime) {
			continue
		}
		totalPercentage = totalPercentage.Add(rule.Percentage)
		quote.Adjustments = append(quote.Adjustments, models.PriceAdjustment{
			RuleID:         rule.ID,
			AdjustmentType: rule.AdjustmentType,
			Percentage:     rule.Percentage,
		})
	}

	// A net negative percentage may discount below the base cost; that
	// is how promotions are meant to combine with the base rate.
	adjustment := baseCost.Mul(totalPercentage).Div(decimal.NewFromInt(100))
	finalPrice := baseCost.Add(adjustment)

	quote.DurationHours = durationHours.Round(2)
	quote.BaseCost = baseCost.Round(2)
	quote.TotalPercentageAdjustment = totalPercentage
	quote.FinalPrice = finalPrice.Round(2)
	return quote, nil
}

func (s *pricingService) GetApplicablePricing(categoryID int64, at time.Time) ([]models.DynamicPricingRule, error) {
	if _, err := s.categoryRepo.GetCategoryByID(categoryID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrCategoryNotFound, categoryID)
		}
		return nil, fmt.Errorf("failed to fetch category: %w", err)
	}

	rules, err := s.ruleRepo.GetActiveRulesByCategory(categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pricing rules: %w", err)
	}

	applicable := []models.DynamicPricingRule{}
	for _, rule := range rules {
		if ruleApplies(rule, at) {
			applicable = append(applicable, rule)
		}
	}
	return applicable, nil
}

// buildRuleFromRequest validates a rule request and maps it onto a model.
func (s *pricingService) buildRuleFromRequest(req CreatePricingRuleRequest) (*models.DynamicPricingRule, error) {
	if !models.IsValidAdjustmentType(req.AdjustmentType) {
		return nil, fmt.Errorf("%w: unknown adjustment type %d", ErrPricingValidation, req.AdjustmentType)
	}
	if req.Weekday != nil && (*req.Weekday < 1 || *req.Weekday > 7) {
		return nil, fmt.Errorf("%w: weekday must be 1 (Monday) through 7 (Sunday)", ErrPricingValidation)
	}
	if (req.TimeStart == nil) != (req.TimeEnd == nil) {
		return nil, fmt.Errorf("%w: time_start and time_end must be set together", ErrPricingValidation)
	}
	if (req.DateStart == nil) != (req.DateEnd == nil) {
		return nil, fmt.Errorf("%w: date_start and date_end must be set together", ErrPricingValidation)
	}

	if _, err := s.categoryRepo.GetCategoryByID(req.CategoryID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrCategoryNotFound, req.CategoryID)
		}
		return nil, fmt.Errorf("failed to validate category for pricing rule: %w", err)
	}

	rule := &models.DynamicPricingRule{
		CategoryID:     req.CategoryID,
		AdjustmentType: models.AdjustmentType(req.AdjustmentType),
		Percentage:     req.Percentage,
		Weekday:        req.Weekday,
		IsActive:       true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if req.TimeStart != nil {
		start, err := parseTimeOfDay(*req.TimeStart)
		if err != nil {
			return nil, err
		}
		end, err := parseTimeOfDay(*req.TimeEnd)
		if err != nil {
			return nil, err
		}
		if end < start {
			return nil, fmt.Errorf("%w: time_end must not precede time_start", ErrPricingValidation)
		}
		rule.TimeStart = &start
		rule.TimeEnd = &end
	}

	if req.DateStart != nil {
		start, err := time.Parse("2006-01-02", *req.DateStart)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date_start: %v", ErrPricingValidation, err)
		}
		end, err := time.Parse("2006-01-02", *req.DateEnd)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date_end: %v", ErrPricingValidation, err)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("%w: date_end must not precede date_start", ErrPricingValidation)
		}
		rule.DateStart = &start
		rule.DateEnd = &end
	}
	return rule, nil
}

// parseTimeOfDay validates "HH:MM" or "HH:MM:SS" and returns the
// zero-padded "HH:MM:SS" form.
func parseTimeOfDay(value string) (string, error) {
	if _, err := time.Parse("15:04:05", value); err == nil {
		return value, nil
	}
	if t, err := time.Parse("15:04", value); err == nil {
		return t.Format("15:04:05"), nil
	}
	return "", fmt.Errorf("%w: invalid time of day '%s', use HH:MM or HH:MM:SS", ErrPricingValidation, value)
}

func (s *pricingService) CreateRule(req CreatePricingRuleRequest) (*models.DynamicPricingRule, error) {
	rule, err := s.buildRuleFromRequest(req)
	if err != nil {
		return nil, err
	}
	id, err := s.ruleRepo.CreateRule(s.db, rule)
	if err != nil {
		return nil, fmt.Errorf("failed to create pricing rule: %w", err)
	}
	rule.ID = id
	return rule, nil
}

func (s *pricingService) GetRuleByID(id int64) (*models.DynamicPricingRule, error) {
	rule, err := s.ruleRepo.GetRuleByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPricingRuleNotFound
		}
		return nil, fmt.Errorf("failed to get pricing rule: %w", err)
	}
	return rule, nil
}

func (s *pricingService) GetRulesByCategory(categoryID int64) ([]models.DynamicPricingRule, error) {
	rules, err := s.ruleRepo.GetRulesByCategory(categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pricing rules: %w", err)
	}
	return rules, nil
}

func (s *pricingService) UpdateRule(id int64, req CreatePricingRuleRequest) (*models.DynamicPricingRule, error) {
	if _, err := s.ruleRepo.GetRuleByID(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPricingRuleNotFound
		}
		return nil, fmt.Errorf("failed to find pricing rule for update: %w", err)
	}
	rule, err := s.buildRuleFromRequest(req)
	if err != nil {
		return nil, err
	}
	rule.ID = id
	if err := s.ruleRepo.UpdateRule(s.db, rule); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPricingRuleNotFound
		}
		return nil, fmt.Errorf("failed to update pricing rule: %w", err)
	}
	return rule, nil
}

func (s *pricingService) DeleteRule(id int64) error {
	err := s.ruleRepo.DeleteRule(s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrPricingRuleNotFound
		}
		return fmt.Errorf("failed to delete pricing rule: %w", err)
	}
	return nil
}
