package handler

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"rideid/internal/domain"
	"rideid/internal/service"
)

// AuthHandler handles HTTP requests for phone verification and sessions.
// It is the caller layer of the verification core: it holds the session
// handles returned by BeginChallenge and threads them back through
// SubmitCode/Resend.
type AuthHandler struct {
	verification *service.VerificationService
	guard        *service.SessionGuard
	identity     *service.IdentityService

	mu       sync.Mutex
	sessions map[string]*domain.VerificationSession
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	verification *service.VerificationService,
	guard *service.SessionGuard,
	identity *service.IdentityService,
) *AuthHandler {
	return &AuthHandler{
		verification: verification,
		guard:        guard,
		identity:     identity,
		sessions:     make(map[string]*domain.VerificationSession),
	}
}

// ChallengeRequest is the HTTP request body for starting verification.
type ChallengeRequest struct {
	DeviceID string `json:"device_id"`
	Phone    string `json:"phone"`
}

// ChallengeResponse is the HTTP response for a started challenge.
type ChallengeResponse struct {
	SessionID string `json:"session_id"`
	ExpiresAt string `json:"expires_at"`
}

// Challenge handles POST /v1/auth/challenge
func (h *AuthHandler) Challenge(c *gin.Context) {
	var req ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.DeviceID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "device_id is required"})
		return
	}

	session, err := h.verification.BeginChallenge(c.Request.Context(), req.DeviceID, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	h.storeSession(session)

	respondJSON(c, http.StatusOK, ChallengeResponse{
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
	})
}

// VerifyRequest is the HTTP request body for submitting a code.
type VerifyRequest struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}

// VerifyResponse is the HTTP response for a verified code.
type VerifyResponse struct {
	SubjectID            string            `json:"subject_id"`
	RegistrationRequired bool              `json:"registration_required"`
	Identity             *IdentityResponse `json:"identity,omitempty"`
}

// Verify handles POST /v1/auth/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	session := h.getSession(req.SessionID)
	principal, err := h.verification.SubmitCode(c.Request.Context(), session, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	h.dropSession(session)

	snapshot, err := h.guard.HandleSignIn(c.Request.Context(), principal.SubjectID, principal.Phone)
	if err != nil {
		// A verified principal with no identity record is a brand-new
		// customer: hand the subject id back so the client can register.
		if errors.Is(err, service.ErrAccountDataMissing) {
			respondJSON(c, http.StatusOK, VerifyResponse{
				SubjectID:            principal.SubjectID,
				RegistrationRequired: true,
			})
			return
		}
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, VerifyResponse{
		SubjectID: principal.SubjectID,
		Identity:  toIdentityResponse(snapshot.Identity),
	})
}

// ResendRequest is the HTTP request body for resending a code.
type ResendRequest struct {
	SessionID string `json:"session_id"`
}

// Resend handles POST /v1/auth/resend
func (h *AuthHandler) Resend(c *gin.Context) {
	var req ResendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	old := h.getSession(req.SessionID)
	session, err := h.verification.Resend(c.Request.Context(), old)
	if err != nil {
		respondError(c, err)
		return
	}
	h.dropSession(old)
	h.storeSession(session)

	respondJSON(c, http.StatusOK, ChallengeResponse{
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
	})
}

// RegisterRequest is the HTTP request body for customer registration.
type RegisterRequest struct {
	SubjectID string `json:"subject_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	identity, err := h.identity.RegisterCustomer(c.Request.Context(), service.RegisterCustomerRequest{
		SubjectID: req.SubjectID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	// Admit the freshly registered session.
	snapshot, err := h.guard.HandleSignIn(c.Request.Context(), identity.ID, identity.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, VerifyResponse{
		SubjectID: identity.ID,
		Identity:  toIdentityResponse(snapshot.Identity),
	})
}

// SessionResponse is the HTTP response for the current session state.
type SessionResponse struct {
	State    string            `json:"state"`
	Reason   string            `json:"reason,omitempty"`
	Identity *IdentityResponse `json:"identity,omitempty"`
}

// Session handles GET /v1/auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	snapshot := h.guard.State()
	respondJSON(c, http.StatusOK, toSessionResponse(snapshot))
}

// Refresh handles POST /v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	snapshot, err := h.guard.RefreshIdentity(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toSessionResponse(snapshot))
}

// Logout handles POST /v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	snapshot := h.guard.SignOut(c.Request.Context())
	respondJSON(c, http.StatusOK, toSessionResponse(snapshot))
}

func (h *AuthHandler) storeSession(session *domain.VerificationSession) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// A device keeps at most one live handle; drop its older ones.
	for id, s := range h.sessions {
		if s.DeviceID == session.DeviceID {
			delete(h.sessions, id)
		}
	}
	h.sessions[session.ID] = session
}

func (h *AuthHandler) getSession(id string) *domain.VerificationSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[id]
}

func (h *AuthHandler) dropSession(session *domain.VerificationSession) {
	if session == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, session.ID)
}

func toSessionResponse(snapshot service.Snapshot) SessionResponse {
	return SessionResponse{
		State:    string(snapshot.State),
		Reason:   string(snapshot.Reason),
		Identity: toIdentityResponse(snapshot.Identity),
	}
}
