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

// ReservationHandler holds the reservation service.
type ReservationHandler struct {
	reservationService services.ReservationService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(rs services.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: rs}
}

// respondReservationError maps reservation service errors to HTTP responses.
func respondReservationError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrReservationNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Reservation not found.", err.Error()))
	case errors.Is(err, services.ErrTableNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Referenced table not found.", err.Error()))
	case errors.Is(err, services.ErrTableNotAvailable):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
	case errors.Is(err, services.ErrAlreadyCancelled),
		errors.Is(err, services.ErrInvalidStatusTransition):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
	case errors.Is(err, services.ErrReservationValidation),
		errors.Is(err, services.ErrNotBusinessDay),
		errors.Is(err, services.ErrOutsideBusinessHours),
		errors.Is(err, services.ErrDurationOutOfRange),
		errors.Is(err, services.ErrAdvanceNoticeViolation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error"))
	}
}

// CreateReservation handles the creation of a new reservation.
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req services.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateReservation: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	reservation, err := h.reservationService.CreateReservation(req)
	if err != nil {
		utils.LogError(err, "CreateReservation: Error from reservationService.CreateReservation")
		respondReservationError(c, err, "Failed to create reservation.")
		return
	}
	c.JSON(http.StatusCreated, reservation)
}

// GetReservations handles fetching reservations with pagination and filters.
func (h *ReservationHandler) GetReservations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	var filters models.ReservationFilters
	filters.Page = page
	filters.PageSize = pageSize

	if userIDStr := c.Query("user_id"); userIDStr != "" {
		id, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid user_id format.", err.Error()))
			return
		}
		filters.UserID = &id
	}
	if tableIDStr := c.Query("table_id"); tableIDStr != "" {
		id, err := strconv.ParseInt(tableIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table_id format.", err.Error()))
			return
		}
		filters.TableID = &id
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status, err := strconv.Atoi(statusStr)
		if err != nil || !models.IsValidReservationStatus(status) {
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

	reservations, totalCount, err := h.reservationService.GetReservations(filters)
	if err != nil {
		utils.LogError(err, "GetReservations: Error from reservationService.GetReservations")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch reservations.", "Internal error"))
		return
	}
	if reservations == nil {
		reservations = []models.Reservation{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      reservations,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetReservationByID handles fetching a single reservation by ID.
func (h *ReservationHandler) GetReservationByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid reservation ID format.", err.Error()))
		return
	}

	reservation, err := h.reservationService.GetReservationByID(id)
	if err != nil {
		utils.LogError(err, "GetReservationByID: Error for ID "+utils.Int64ToStr(id))
		respondReservationError(c, err, "Failed to fetch reservation.")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// UpdateReservation handles updating a reservation's table, time or notes.
func (h *ReservationHandler) UpdateReservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid reservation ID format.", err.Error()))
		return
	}

	var req services.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateReservation: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	reservation, err := h.reservationService.UpdateReservation(id, req)
	if err != nil {
		utils.LogError(err, "UpdateReservation: Error for ID "+utils.Int64ToStr(id))
		respondReservationError(c, err, "Failed to update reservation.")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// adminUserID pulls the acting admin's user ID out of the auth context.
func adminUserID(c *gin.Context) (int64, bool) {
	raw, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	id, ok := raw.(int64)
	return id, ok
}

// ApproveReservation confirms a pending reservation.
func (h *ReservationHandler) ApproveReservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid reservation ID format.", err.Error()))
		return
	}
	adminID, ok := adminUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return
	}

	reservation, err := h.reservationService.ApproveReservation(id, adminID)
	if err != nil {
		utils.LogError(err, "ApproveReservation: Error for ID "+utils.Int64ToStr(id))
		respondReservationError(c, err, "Failed to approve reservation.")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// RejectReservation rejects a pending reservation with an optional reason.
func (h *ReservationHandler) RejectReservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid reservation ID format.", err.Error()))
		return
	}
	adminID, ok := adminUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional; a missing reason gets a default downstream.
	_ = c.ShouldBindJSON(&req)

	reservation, err := h.reservationService.RejectReservation(id, adminID, req.Reason)
	if err != nil {
		utils.LogError(err, "RejectReservation: Error for ID "+utils.Int64ToStr(id))
		respondReservationError(c, err, "Failed to reject reservation.")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// CancelReservation cancels a reservation.
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid reservation ID format.", err.Error()))
		return
	}

	reservation, err := h.reservationService.CancelReservation(id)
	if err != nil {
		utils.LogError(err, "CancelReservation: Error for ID "+utils.Int64ToStr(id))
		respondReservationError(c, err, "Failed to cancel reservation.")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// ExpireReservation marks a reservation as expired. Intended for the
// admin console; a scheduled job would call the service directly.
func (h *ReservationHandler) ExpireReservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid reservation ID format.", err.Error()))
		return
	}

	reservation, err := h.reservationService.ExpireReservation(id)
	if err != nil {
		utils.LogError(err, "ExpireReservation: Error for ID "+utils.Int64ToStr(id))
		respondReservationError(c, err, "Failed to expire reservation.")
		return
	}
	c.JSON(http.StatusOK, reservation)
}
