package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideid/internal/domain"
	"rideid/internal/service"
)

// IdentityHandler handles HTTP requests for identity administration.
type IdentityHandler struct {
	identityService *service.IdentityService
}

// NewIdentityHandler creates a new IdentityHandler.
func NewIdentityHandler(identityService *service.IdentityService) *IdentityHandler {
	return &IdentityHandler{identityService: identityService}
}

// IdentityResponse is the HTTP response for identity data.
type IdentityResponse struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	IsVerified bool   `json:"is_verified"`
	DriverID   string `json:"driver_id,omitempty"`
}

// Get handles GET /v1/identities/:id
func (h *IdentityHandler) Get(c *gin.Context) {
	identity, err := h.identityService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toIdentityResponse(identity))
}

// SetStatusRequest is the HTTP request body for updating account status.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles PATCH /v1/identities/:id/status
func (h *IdentityHandler) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	status := domain.AccountStatus(req.Status)
	switch status {
	case domain.AccountStatusActive, domain.AccountStatusInactive, domain.AccountStatusBlocked:
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "status must be active, inactive or blocked"})
		return
	}

	if err := h.identityService.SetStatus(c.Request.Context(), c.Param("id"), status); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toIdentityResponse(identity *domain.Identity) *IdentityResponse {
	if identity == nil {
		return nil
	}
	return &IdentityResponse{
		ID:         identity.ID,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		Email:      identity.Email,
		Phone:      identity.Phone,
		Role:       string(identity.EffectiveRole()),
		Status:     string(identity.Status),
		IsVerified: identity.IsVerified,
		DriverID:   identity.DriverID,
	}
}
