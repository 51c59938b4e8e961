package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"billiard_hall_backend/internal/models"
	"billiard_hall_backend/internal/repositories"
	"billiard_hall_backend/internal/services"
	"billiard_hall_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TableHandler exposes table and category management. It talks to the
// repositories directly; the domain logic here is thin enough that a
// dedicated service layer would only forward calls.
type TableHandler struct {
	categoryRepo repositories.TableCategoryRepository
	tableRepo    repositories.BilliardTableRepository
	availability services.AvailabilityService
	db           *sql.DB
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(
	cr repositories.TableCategoryRepository,
	tr repositories.BilliardTableRepository,
	av services.AvailabilityService,
	db *sql.DB,
) *TableHandler {
	return &TableHandler{categoryRepo: cr, tableRepo: tr, availability: av, db: db}
}

// --- Table Categories ---

// CreateCategory creates a new table category.
func (h *TableHandler) CreateCategory(c *gin.Context) {
	var category models.TableCategory
	if err := c.ShouldBindJSON(&category); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if category.Name == "" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Category name is required.", "name: empty"))
		return
	}
	if category.BasePrice.IsNegative() {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Base price cannot be negative.", "base_price"))
		return
	}

	id, err := h.categoryRepo.CreateCategory(h.db, &category)
	if err != nil {
		utils.LogError(err, "CreateCategory: Error from categoryRepo.CreateCategory")
		if errors.Is(err, repositories.ErrDuplicateKey) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Category name already exists.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create category.", "Internal error"))
		}
		return
	}
	category.ID = id
	c.JSON(http.StatusCreated, category)
}

// GetCategories retrieves all table categories.
func (h *TableHandler) GetCategories(c *gin.Context) {
	activeOnly := c.Query("active_only") == "true"
	categories, err := h.categoryRepo.GetCategories(activeOnly)
	if err != nil {
		utils.LogError(err, "GetCategories: Error from categoryRepo.GetCategories")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch categories.", "Internal error"))
		return
	}
	if categories == nil {
		categories = []models.TableCategory{}
	}
	c.JSON(http.StatusOK, categories)
}

// GetCategoryByID retrieves a single table category.
func (h *TableHandler) GetCategoryByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid category ID format.", err.Error()))
		return
	}

	category, err := h.categoryRepo.GetCategoryByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Category not found.", err.Error()))
		} else {
			utils.LogError(err, "GetCategoryByID: Error from categoryRepo.GetCategoryByID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch category.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, category)
}

// UpdateCategory updates a table category.
func (h *TableHandler) UpdateCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid category ID format.", err.Error()))
		return
	}

	var category models.TableCategory
	if err := c.ShouldBindJSON(&category); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if category.BasePrice.IsNegative() {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Base price cannot be negative.", "base_price"))
		return
	}
	category.ID = id

	if err := h.categoryRepo.UpdateCategory(h.db, &category); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Category not found to update.", err.Error()))
		} else {
			utils.LogError(err, "UpdateCategory: Error from categoryRepo.UpdateCategory")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update category.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory deletes a table category.
func (h *TableHandler) DeleteCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid category ID format.", err.Error()))
		return
	}

	if err := h.categoryRepo.DeleteCategory(h.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Category not found to delete.", err.Error()))
		} else {
			utils.LogError(err, "DeleteCategory: Error from categoryRepo.DeleteCategory")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Failed to delete category. It may still have tables assigned.", err.Error()))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// --- Billiard Tables ---

// CreateTable creates a new billiard table.
func (h *TableHandler) CreateTable(c *gin.Context) {
	var table models.BilliardTable
	if err := c.ShouldBindJSON(&table); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if table.Code == "" || table.CategoryID == 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Table code and category_id are required.", "code, category_id"))
		return
	}
	if table.Status != 0 && !models.IsValidTableStatus(int(table.Status)) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table status.", "status"))
		return
	}

	id, err := h.tableRepo.CreateTable(h.db, &table)
	if err != nil {
		utils.LogError(err, "CreateTable: Error from tableRepo.CreateTable")
		if errors.Is(err, repositories.ErrDuplicateKey) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Table code already exists.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create table.", "Internal error"))
		}
		return
	}

	created, err := h.tableRepo.GetTableByID(id)
	if err != nil {
		table.ID = id
		c.JSON(http.StatusCreated, table)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetTables retrieves billiard tables, optionally filtered by status and category.
func (h *TableHandler) GetTables(c *gin.Context) {
	var status *int
	if statusStr := c.Query("status"); statusStr != "" {
		s, err := strconv.Atoi(statusStr)
		if err != nil || !models.IsValidTableStatus(s) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid status value.", "status: "+statusStr))
			return
		}
		status = &s
	}
	var categoryID *int64
	if categoryIDStr := c.Query("category_id"); categoryIDStr != "" {
		id, err := strconv.ParseInt(categoryIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid category_id format.", err.Error()))
			return
		}
		categoryID = &id
	}

	tables, err := h.tableRepo.GetTables(status, categoryID)
	if err != nil {
		utils.LogError(err, "GetTables: Error from tableRepo.GetTables")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch tables.", "Internal error"))
		return
	}
	if tables == nil {
		tables = []models.BilliardTable{}
	}
	c.JSON(http.StatusOK, tables)
}

// GetTableByID retrieves a single billiard table with its category.
func (h *TableHandler) GetTableByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table ID format.", err.Error()))
		return
	}

	table, err := h.tableRepo.GetTableByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found.", err.Error()))
		} else {
			utils.LogError(err, "GetTableByID: Error from tableRepo.GetTableByID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch table.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, table)
}

// UpdateTable updates a billiard table.
func (h *TableHandler) UpdateTable(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table ID format.", err.Error()))
		return
	}

	var table models.BilliardTable
	if err := c.ShouldBindJSON(&table); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if table.Status != 0 && !models.IsValidTableStatus(int(table.Status)) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table status.", "status"))
		return
	}
	table.ID = id

	if err := h.tableRepo.UpdateTable(h.db, &table); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found to update.", err.Error()))
		} else if errors.Is(err, repositories.ErrDuplicateKey) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Table code already exists.", err.Error()))
		} else {
			utils.LogError(err, "UpdateTable: Error from tableRepo.UpdateTable")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update table.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, table)
}

// UpdateTableStatus changes only the status of a table, e.g. to put it
// into or out of maintenance.
func (h *TableHandler) UpdateTableStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table ID format.", err.Error()))
		return
	}

	var req struct {
		Status int `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if !models.IsValidTableStatus(req.Status) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table status.", "status"))
		return
	}

	if err := h.tableRepo.UpdateTableStatus(h.db, id, models.TableStatus(req.Status)); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found to update.", err.Error()))
		} else {
			utils.LogError(err, "UpdateTableStatus: Error from tableRepo.UpdateTableStatus")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update table status.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table status updated successfully"})
}

// DeleteTable deletes a billiard table.
func (h *TableHandler) DeleteTable(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table ID format.", err.Error()))
		return
	}

	if err := h.tableRepo.DeleteTable(h.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found to delete.", err.Error()))
		} else {
			utils.LogError(err, "DeleteTable: Error from tableRepo.DeleteTable")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Failed to delete table. It may have reservations or sessions.", err.Error()))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table deleted successfully"})
}

// --- Availability ---

// GetAvailableSlots lists the free hourly slots for a table on a date.
func (h *TableHandler) GetAvailableSlots(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table ID format.", err.Error()))
		return
	}

	dateStr := c.Query("date")
	if dateStr == "" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Query parameter 'date' is required.", "date: empty"))
		return
	}
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid date format. Use YYYY-MM-DD.", err.Error()))
		return
	}

	slotsSeq, err := h.availability.AvailableSlots(id, date)
	if err != nil {
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found.", err.Error()))
		} else {
			utils.LogError(err, "GetAvailableSlots: Error from availability.AvailableSlots")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to compute available slots.", "Internal error"))
		}
		return
	}

	slots := slices.Collect(slotsSeq)
	if slots == nil {
		slots = []models.TimeSlot{}
	}
	c.JSON(http.StatusOK, gin.H{
		"table_id": id,
		"date":     dateStr,
		"slots":    slots,
	})
}
