package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rideid/internal/domain"
	"rideid/internal/repository"
	"rideid/internal/service"
)

// DriverHandler handles HTTP requests for driver provisioning.
type DriverHandler struct {
	provisioner *service.ProvisionerService
	driverRepo  repository.DriverRepository
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(provisioner *service.ProvisionerService, driverRepo repository.DriverRepository) *DriverHandler {
	return &DriverHandler{
		provisioner: provisioner,
		driverRepo:  driverRepo,
	}
}

// ProvisionDriverRequest is the HTTP request body for provisioning a driver.
type ProvisionDriverRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Status  string `json:"status"`
	Vehicle struct {
		Model        string `json:"model"`
		Registration string `json:"registration"`
		Color        string `json:"color"`
	} `json:"vehicle"`

	// Strategy selects how the login identity is created:
	// "credentials" creates a directory principal with a temporary
	// password now; "deferred" (default) waits for the driver's first
	// phone verification.
	Strategy string `json:"strategy"`
}

// ProvisionDriverResponse is the HTTP response for a provisioned driver.
type ProvisionDriverResponse struct {
	DriverID   string `json:"driver_id"`
	SubjectID  string `json:"subject_id,omitempty"`
	TempUserID string `json:"temp_user_id,omitempty"`
	LoginEmail string `json:"login_email,omitempty"`
}

// Provision handles POST /v1/drivers
func (h *DriverHandler) Provision(c *gin.Context) {
	var req ProvisionDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Name == "" || req.Phone == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name and phone are required"})
		return
	}

	status := domain.AccountStatusActive
	if req.Status == string(domain.AccountStatusInactive) {
		status = domain.AccountStatusInactive
	}

	provisionReq := service.ProvisionDriverRequest{
		DriverID: uuid.New().String(),
		Name:     req.Name,
		Phone:    req.Phone,
		Status:   status,
		Vehicle: domain.VehicleInfo{
			Model:        req.Vehicle.Model,
			Registration: req.Vehicle.Registration,
			Color:        req.Vehicle.Color,
		},
	}

	var result *service.ProvisionResult
	var err error
	if req.Strategy == "credentials" {
		result, err = h.provisioner.ProvisionWithCredentials(c.Request.Context(), provisionReq)
	} else {
		result, err = h.provisioner.ProvisionDeferred(c.Request.Context(), provisionReq)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, ProvisionDriverResponse{
		DriverID:   result.DriverID,
		SubjectID:  result.SubjectID,
		TempUserID: result.TempUserID,
		LoginEmail: result.LoginEmail,
	})
}

// DriverResponse is the HTTP response for driver data.
type DriverResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Status     string `json:"status"`
	AuthUID    string `json:"auth_uid,omitempty"`
	TempUserID string `json:"temp_user_id,omitempty"`
	Linked     bool   `json:"linked"`
}

// GetAll handles GET /v1/drivers
func (h *DriverHandler) GetAll(c *gin.Context) {
	drivers, err := h.driverRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, toDriverResponse(d))
	}
	respondJSON(c, http.StatusOK, response)
}

// Get handles GET /v1/drivers/:id
func (h *DriverHandler) Get(c *gin.Context) {
	driver, err := h.driverRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

func toDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:         d.ID,
		Name:       d.Name,
		Phone:      d.Phone,
		Status:     string(d.Status),
		AuthUID:    d.AuthUID,
		TempUserID: d.TempUserID,
		Linked:     d.Linked(),
	}
}
