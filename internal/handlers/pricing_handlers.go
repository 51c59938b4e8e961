package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"billiard_hall_backend/internal/services"
	"billiard_hall_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PricingHandler holds the pricing service.
type PricingHandler struct {
	pricingService services.PricingService
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(ps services.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: ps}
}

// respondPricingError maps pricing service errors to HTTP responses.
func respondPricingError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrPricingRuleNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Pricing rule not found.", err.Error()))
	case errors.Is(err, services.ErrCategoryNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Referenced category not found.", err.Error()))
	case errors.Is(err, services.ErrPricingValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error"))
	}
}

// CreateRule creates a new dynamic pricing rule.
func (h *PricingHandler) CreateRule(c *gin.Context) {
	var req services.CreatePricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateRule: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	rule, err := h.pricingService.CreateRule(req)
	if err != nil {
		utils.LogError(err, "CreateRule: Error from pricingService.CreateRule")
		respondPricingError(c, err, "Failed to create pricing rule.")
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// GetRuleByID retrieves a single pricing rule.
func (h *PricingHandler) GetRuleByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid rule ID format.", err.Error()))
		return
	}

	rule, err := h.pricingService.GetRuleByID(id)
	if err != nil {
		utils.LogError(err, "GetRuleByID: Error for ID "+utils.Int64ToStr(id))
		respondPricingError(c, err, "Failed to fetch pricing rule.")
		return
	}
	c.JSON(http.StatusOK, rule)
}

// GetRulesByCategory lists a category's pricing rules, active or not.
func (h *PricingHandler) GetRulesByCategory(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid category ID format.", err.Error()))
		return
	}

	rules, err := h.pricingService.GetRulesByCategory(categoryID)
	if err != nil {
		utils.LogError(err, "GetRulesByCategory: Error for category "+utils.Int64ToStr(categoryID))
		respondPricingError(c, err, "Failed to fetch pricing rules.")
		return
	}
	c.JSON(http.StatusOK, rules)
}

// UpdateRule updates a pricing rule.
func (h *PricingHandler) UpdateRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid rule ID format.", err.Error()))
		return
	}

	var req services.CreatePricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateRule: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	rule, err := h.pricingService.UpdateRule(id, req)
	if err != nil {
		utils.LogError(err, "UpdateRule: Error for ID "+utils.Int64ToStr(id))
		respondPricingError(c, err, "Failed to update pricing rule.")
		return
	}
	c.JSON(http.StatusOK, rule)
}

// DeleteRule deletes a pricing rule.
func (h *PricingHandler) DeleteRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid rule ID format.", err.Error()))
		return
	}

	if err := h.pricingService.DeleteRule(id); err != nil {
		utils.LogError(err, "DeleteRule: Error for ID "+utils.Int64ToStr(id))
		respondPricingError(c, err, "Failed to delete pricing rule.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pricing rule deleted successfully"})
}

// GetQuote prices a hypothetical session for a category and window.
func (h *PricingHandler) GetQuote(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Query("category_id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Query parameter 'category_id' is required and must be numeric.", "category_id"))
		return
	}
	start, err := time.Parse(time.RFC3339, c.Query("start_time"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid start_time. Use RFC3339, e.g. 2026-01-02T15:00:00Z.", err.Error()))
		return
	}

	var end *time.Time
	if endStr := c.Query("end_time"); endStr != "" {
		t, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid end_time. Use RFC3339.", err.Error()))
			return
		}
		end = &t
	}

	quote, err := h.pricingService.CalculateSessionPrice(categoryID, start, end)
	if err != nil {
		utils.LogError(err, "GetQuote: Error from pricingService.CalculateSessionPrice")
		respondPricingError(c, err, "Failed to calculate quote.")
		return
	}
	c.JSON(http.StatusOK, quote)
}

// GetApplicableRules shows which rules would apply at a given instant.
func (h *PricingHandler) GetApplicableRules(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Query("category_id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Query parameter 'category_id' is required and must be numeric.", "category_id"))
		return
	}

	at := time.Now()
	if atStr := c.Query("at"); atStr != "" {
		t, err := time.Parse(time.RFC3339, atStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid 'at' timestamp. Use RFC3339.", err.Error()))
			return
		}
		at = t
	}

	rules, err := h.pricingService.GetApplicablePricing(categoryID, at)
	if err != nil {
		utils.LogError(err, "GetApplicableRules: Error from pricingService.GetApplicablePricing")
		respondPricingError(c, err, "Failed to fetch applicable rules.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category_id": categoryID,
		"at":          at,
		"rules":       rules,
	})
}
