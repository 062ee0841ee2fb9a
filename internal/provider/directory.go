package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPDirectory is a DirectoryAdmin backed by the hosted identity
// directory's admin API.
type HTTPDirectory struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPDirectory creates a new HTTPDirectory.
func NewHTTPDirectory(baseURL, apiKey string) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type createUserResponse struct {
	SubjectID string `json:"subject_id"`
	Error     string `json:"error"`
}

// CreateUser creates a principal and returns its subject id.
func (d *HTTPDirectory) CreateUser(ctx context.Context, email, password, phone string) (string, error) {
	var resp createUserResponse
	status, err := d.post(ctx, "/v1/users", createUserRequest{
		Email:    email,
		Password: password,
		Phone:    phone,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	switch status {
	case http.StatusOK, http.StatusCreated:
		return resp.SubjectID, nil
	case http.StatusConflict:
		return "", ErrEmailExists
	default:
		return "", fmt.Errorf("%w: unexpected status %d", ErrNetwork, status)
	}
}

// SendPasswordReset triggers an out-of-band credential reset email.
func (d *HTTPDirectory) SendPasswordReset(ctx context.Context, email string) error {
	status, err := d.post(ctx, "/v1/users/password-reset", map[string]string{"email": email}, &struct{}{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return fmt.Errorf("%w: unexpected status %d", ErrNetwork, status)
	}
	return nil
}

// RevokeSessions terminates all provider sessions for a subject.
func (d *HTTPDirectory) RevokeSessions(ctx context.Context, subjectID string) error {
	status, err := d.post(ctx, "/v1/users/"+subjectID+"/revoke", struct{}{}, &struct{}{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return fmt.Errorf("%w: unexpected status %d", ErrNetwork, status)
	}
	return nil
}

func (d *HTTPDirectory) post(ctx context.Context, path string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	res, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	_ = json.NewDecoder(res.Body).Decode(out)
	return res.StatusCode, nil
}

// Ensure interface is satisfied.
var _ DirectoryAdmin = (*HTTPDirectory)(nil)
