package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cbms/internal/errors"
	"cbms/internal/pagination"
	"cbms/internal/services"
)

// DepartmentHandler handles department management requests.
type DepartmentHandler struct {
	departmentService services.DepartmentServicer
	auditService      services.AuditServicer
}

// NewDepartmentHandler creates a new DepartmentHandler.
func NewDepartmentHandler(departmentService services.DepartmentServicer, auditService services.AuditServicer) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService, auditService: auditService}
}

// CreateDepartmentRequest represents the request payload for creating a department.
type CreateDepartmentRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
	Code string `json:"code" binding:"required,min=1,max=20"`
}

// UpdateDepartmentRequest represents the request payload for updating a department.
type UpdateDepartmentRequest struct {
	Name     string `json:"name" binding:"omitempty,min=1,max=200"`
	IsActive *bool  `json:"is_active"`
}

// CreateDepartment handles the creation of a new department.
// @Summary     Create a department
// @Description Create a new department with a unique code
// @Tags        departments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateDepartmentRequest true "Department details"
// @Success     201 {object} models.Department "Department created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate code"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /departments [post]
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	dept, err := h.departmentService.CreateDepartment(req.Name, req.Code)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_DEPARTMENT", "department", dept.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "code": req.Code})

	c.JSON(http.StatusCreated, gin.H{"department": dept})
}

// GetDepartments handles listing departments.
// @Summary     Get departments
// @Description Get a paginated list of departments
// @Tags        departments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       search      query string false "Filter by name or code"
// @Param       active_only query bool   false "Only active departments"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Department] "Paginated departments"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /departments [get]
func (h *DepartmentHandler) GetDepartments(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.departmentService.ListDepartments(page, c.Query("search"), c.Query("active_only") == "true")
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDepartment handles retrieving a specific department.
// @Summary     Get department by ID
// @Description Get a specific department by ID
// @Tags        departments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Department ID"
// @Success     200 {object} models.Department "Department details"
// @Failure     400 {object} ErrorResponse "Invalid department ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Department not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /departments/{id} [get]
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	dept, err := h.departmentService.GetDepartmentByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"department": dept})
}

// UpdateDepartment handles updating a department. The code is immutable.
// @Summary     Update department
// @Description Update a department's name or active flag
// @Tags        departments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                     true "Department ID"
// @Param       request body UpdateDepartmentRequest true "Updated department details"
// @Success     200 {object} models.Department "Updated department"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Department not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /departments/{id} [put]
func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	dept, err := h.departmentService.UpdateDepartment(id, req.Name, req.IsActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_DEPARTMENT", "department", id, c.ClientIP(),
		map[string]interface{}{"name": req.Name})

	c.JSON(http.StatusOK, gin.H{"department": dept})
}

// DeleteDepartment handles deleting a department.
// @Summary     Delete department
// @Description Delete a department by ID (soft delete)
// @Tags        departments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Department ID"
// @Success     200 {object} MessageResponse "Department deleted"
// @Failure     400 {object} ErrorResponse "Invalid department ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Department not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /departments/{id} [delete]
func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.departmentService.DeleteDepartment(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_DEPARTMENT", "department", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Department deleted successfully"})
}
