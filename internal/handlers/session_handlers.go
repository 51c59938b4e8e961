package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"billiard_hall_backend/internal/models"
	"billiard_hall_backend/internal/services"
	"billiard_hall_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SessionHandler holds the session service.
type SessionHandler struct {
	sessionService services.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(ss services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: ss}
}

// respondSessionError maps session service errors to HTTP responses.
func respondSessionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Session not found.", err.Error()))
	case errors.Is(err, services.ErrReservationNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Referenced reservation not found.", err.Error()))
	case errors.Is(err, services.ErrTableNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Referenced table not found.", err.Error()))
	case errors.Is(err, services.ErrTableOccupied),
		errors.Is(err, services.ErrTableUnderMaintenance),
		errors.Is(err, services.ErrSessionNotActive),
		errors.Is(err, services.ErrInvalidStatusTransition):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
	case errors.Is(err, services.ErrSessionValidation),
		errors.Is(err, services.ErrPenaltyValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error"))
	}
}

// StartSession opens a new session, either from a confirmed reservation
// or as a walk-in.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "StartSession: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	session, err := h.sessionService.StartSession(req)
	if err != nil {
		utils.LogError(err, "StartSession: Error from sessionService.StartSession")
		respondSessionError(c, err, "Failed to start session.")
		return
	}
	c.JSON(http.StatusCreated, session)
}

// CloseSession ends a session, prices it and releases the table.
func (h *SessionHandler) CloseSession(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid session ID format.", err.Error()))
		return
	}

	var req struct {
		Notes *string `json:"notes"`
	}
	// Body is optional.
	_ = c.ShouldBindJSON(&req)

	result, err := h.sessionService.CloseSession(id, req.Notes)
	if err != nil {
		utils.LogError(err, "CloseSession: Error for ID "+utils.Int64ToStr(id))
		respondSessionError(c, err, "Failed to close session.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// CancelSession voids an active session without billing.
func (h *SessionHandler) CancelSession(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid session ID format.", err.Error()))
		return
	}

	session, err := h.sessionService.CancelSession(id)
	if err != nil {
		utils.LogError(err, "CancelSession: Error for ID "+utils.Int64ToStr(id))
		respondSessionError(c, err, "Failed to cancel session.")
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetSessions handles fetching sessions with pagination and filters.
func (h *SessionHandler) GetSessions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	var filters models.SessionFilters
	filters.Page = page
	filters.PageSize = pageSize

	if tableIDStr := c.Query("table_id"); tableIDStr != "" {
		id, err := strconv.ParseInt(tableIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table_id format.", err.Error()))
			return
		}
		filters.TableID = &id
	}
	if userIDStr := c.Query("user_id"); userIDStr != "" {
		id, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid user_id format.", err.Error()))
			return
		}
		filters.UserID = &id
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status, err := strconv.Atoi(statusStr)
		if err != nil || !models.IsValidSessionStatus(status) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid status value.", "status: "+statusStr))
			return
		}
		filters.Status = &status
	}
	if dateFromStr := c.Query("date_from"); dateFromStr != "" {
		t, err := time.Parse("2006-01-02", dateFromStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid date_from format. Use YYYY-MM-DD.", err.Error()))
			return
		}
		filters.DateFrom = &t
	}
	if dateToStr := c.Query("date_to"); dateToStr != "" {
		t, err := time.Parse("2006-01-02", dateToStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid date_to format. Use YYYY-MM-DD.", err.Error()))
			return
		}
		t = t.Add(23*time.Hour + 59*time.Minute + 59*time.Second) // End of day
		filters.DateTo = &t
	}

	sessions, totalCount, err := h.sessionService.GetSessions(filters)
	if err != nil {
		utils.LogError(err, "GetSessions: Error from sessionService.GetSessions")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch sessions.", "Internal error"))
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      sessions,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetSessionByID handles fetching a single session by ID.
func (h *SessionHandler) GetSessionByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid session ID format.", err.Error()))
		return
	}

	session, err := h.sessionService.GetSessionByID(id)
	if err != nil {
		utils.LogError(err, "GetSessionByID: Error for ID "+utils.Int64ToStr(id))
		respondSessionError(c, err, "Failed to fetch session.")
		return
	}
	c.JSON(http.StatusOK, session)
}

// AddPenalty records a penalty against an active session.
func (h *SessionHandler) AddPenalty(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid session ID format.", err.Error()))
		return
	}

	var req services.AddPenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "AddPenalty: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if req.AppliedBy == 0 {
		if adminID, ok := adminUserID(c); ok {
			req.AppliedBy = adminID
		}
	}

	penalty, err := h.sessionService.AddPenalty(id, req)
	if err != nil {
		utils.LogError(err, "AddPenalty: Error for session ID "+utils.Int64ToStr(id))
		respondSessionError(c, err, "Failed to add penalty.")
		return
	}
	c.JSON(http.StatusCreated, penalty)
}

// GetSessionEstimate returns what the session would cost if it were
// closed right now.
func (h *SessionHandler) GetSessionEstimate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid session ID format.", err.Error()))
		return
	}

	estimate, err := h.sessionService.EstimateCurrentCost(id)
	if err != nil {
		utils.LogError(err, "GetSessionEstimate: Error for ID "+utils.Int64ToStr(id))
		respondSessionError(c, err, "Failed to estimate session cost.")
		return
	}
	c.JSON(http.StatusOK, estimate)
}
