package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cbms/internal/errors"
	"cbms/internal/models"
	"cbms/internal/pagination"
	"cbms/internal/services"
)

// UserHandler handles user administration requests.
type UserHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer, auditService services.AuditServicer) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// CreateUserRequest represents the request payload for creating a user.
type CreateUserRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8,max=72"`
	FirstName    string `json:"first_name" binding:"required,min=1,max=100"`
	LastName     string `json:"last_name" binding:"required,min=1,max=100"`
	Role         string `json:"role" binding:"required,oneof=admin principal vice_principal office hod department"`
	DepartmentID *uint  `json:"department_id"`
}

// CreateUser handles creating a new user account.
// @Summary     Create a user
// @Description Create a new user account with a role and optional department
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateUserRequest true "User details"
// @Success     201 {object} UserResponse "User created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Role not allowed"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.CreateUser(req.Email, req.Password, req.FirstName, req.LastName, models.Role(req.Role), req.DepartmentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, "CREATE_USER", "user", user.ID, c.ClientIP(),
		map[string]interface{}{"email": req.Email, "role": req.Role})

	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

// GetUsers handles listing users.
// @Summary     Get users
// @Description Get a paginated list of users, optionally filtered by role
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       role      query string false "Filter by role"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[UserResponse] "Paginated users"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users [get]
func (h *UserHandler) GetUsers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var role *models.Role
	if v := c.Query("role"); v != "" {
		r := models.Role(v)
		role = &r
	}

	result, err := h.userService.ListUsers(page, role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUser handles retrieving a specific user.
// @Summary     Get user by ID
// @Description Get a single user account
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Success     200 {object} UserResponse "User details"
// @Failure     400 {object} ErrorResponse "Invalid user ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}
