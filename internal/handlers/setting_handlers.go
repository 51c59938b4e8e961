package handlers

import (
	"errors"
	"net/http"

	"billiard_hall_backend/internal/services"
	"billiard_hall_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SettingHandler holds the settings service.
type SettingHandler struct {
	settingsService services.SettingsService
}

// NewSettingHandler creates a new SettingHandler.
func NewSettingHandler(ss services.SettingsService) *SettingHandler {
	return &SettingHandler{settingsService: ss}
}

// GetSettings retrieves all system settings.
func (h *SettingHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.GetSettings()
	if err != nil {
		utils.LogError(err, "GetSettings: Error from settingsService.GetSettings")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch settings.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetSettingByKey retrieves a specific system setting by its key.
func (h *SettingHandler) GetSettingByKey(c *gin.Context) {
	key := c.Param("key")
	setting, err := h.settingsService.GetSettingByKey(key)
	if err != nil {
		utils.LogError(err, "GetSettingByKey: Error from settingsService.GetSettingByKey for key "+key)
		if errors.Is(err, services.ErrSettingNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Setting not found for key: "+key, err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch setting.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, setting)
}

// UpsertSetting creates a new setting or updates an existing one by key.
func (h *SettingHandler) UpsertSetting(c *gin.Context) {
	var req services.UpsertSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpsertSetting: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	setting, err := h.settingsService.UpsertSetting(req)
	if err != nil {
		utils.LogError(err, "UpsertSetting: Error from settingsService.UpsertSetting")
		if errors.Is(err, services.ErrSettingValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to save setting.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, setting)
}

// DeleteSetting deletes a system setting by its key. The affected
// business rule falls back to its default value.
func (h *SettingHandler) DeleteSetting(c *gin.Context) {
	key := c.Param("key")
	if err := h.settingsService.DeleteSetting(key); err != nil {
		utils.LogError(err, "DeleteSetting: Error from settingsService.DeleteSetting for key "+key)
		if errors.Is(err, services.ErrSettingNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Setting not found to delete for key: "+key, err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete setting.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Setting '" + key + "' deleted successfully"})
}

// GetBusinessRules returns the effective business rules with defaults
// applied for any missing keys.
func (h *SettingHandler) GetBusinessRules(c *gin.Context) {
	rules, err := h.settingsService.BusinessRules()
	if err != nil {
		utils.LogError(err, "GetBusinessRules: Error from settingsService.BusinessRules")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to resolve business rules.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, rules)
}
