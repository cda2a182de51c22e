package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ecomove/internal/domain"
	"ecomove/internal/repository"
	"ecomove/internal/service"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	userRepo      repository.UserRepository
	reportService *service.ReportService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userRepo repository.UserRepository, reportService *service.ReportService) *UserHandler {
	return &UserHandler{userRepo: userRepo, reportService: reportService}
}

// RegisterRequest is the HTTP request body for user registration.
type RegisterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse is the HTTP response for user data.
type UserResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// UserHistoryResponse is the HTTP response for a user's loan history.
type UserHistoryResponse struct {
	Loans []LoanResponse `json:"loans"`
	Stats UserStatsInfo  `json:"stats"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// UserStatsInfo contains aggregate stats over a user's loan history.
type UserStatsInfo struct {
	TotalLoans        int     `json:"total_loans"`
	CompletedLoans    int     `json:"completed_loans"`
	CancelledLoans    int     `json:"cancelled_loans"`
	TotalSpent        float64 `json:"total_spent"`
	FavoriteTransport string  `json:"favorite_transport,omitempty"`
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Status: string(user.Status),
	}
}

// Register handles POST /v1/users
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" {
		respondBadRequest(c, "name and email are required")
		return
	}

	existing, err := h.userRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, Envelope{
			Success: false,
			Message: "user already registered",
			Data:    toUserResponse(existing),
		})
		return
	}

	user := &domain.User{
		Name:   req.Name,
		Email:  req.Email,
		Status: domain.UserStatusActive,
	}

	if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toUserResponse(user))
}

// GetUser handles GET /v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, service.ErrInvalidUserID)
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toUserResponse(user))
}

// ListUsers handles GET /v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, toUserResponse(user))
	}

	respondJSON(c, http.StatusOK, responses)
}

// GetUserLoans handles GET /v1/users/:id/loans
func (h *UserHandler) GetUserLoans(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, service.ErrInvalidUserID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	history, err := h.reportService.GetUserHistory(c.Request.Context(), service.UserHistoryRequest{
		UserID: userID,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	loans := make([]LoanResponse, 0, len(history.Loans))
	for _, loan := range history.Loans {
		loans = append(loans, toLoanResponse(loan))
	}

	respondJSON(c, http.StatusOK, UserHistoryResponse{
		Loans: loans,
		Stats: UserStatsInfo{
			TotalLoans:        history.Stats.TotalLoans,
			CompletedLoans:    history.Stats.CompletedLoans,
			CancelledLoans:    history.Stats.CancelledLoans,
			TotalSpent:        history.Stats.TotalSpent,
			FavoriteTransport: string(history.Stats.FavoriteTransport),
		},
		Page:  history.Page,
		Limit: history.Limit,
	})
}
