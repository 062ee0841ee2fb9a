package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPVerifier is a PhoneVerifier backed by the hosted verification API.
type HTTPVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPVerifier creates a new HTTPVerifier.
func NewHTTPVerifier(baseURL, apiKey string) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type issueChallengeRequest struct {
	Phone         string `json:"phone"`
	BotCheckToken string `json:"bot_check_token"`
}

type issueChallengeResponse struct {
	ChallengeRef string `json:"challenge_ref"`
	Error        string `json:"error"`
}

// IssueChallenge delivers a one-time code and returns the challenge handle.
func (v *HTTPVerifier) IssueChallenge(ctx context.Context, phone, botCheckToken string) (string, error) {
	var resp issueChallengeResponse
	status, err := v.post(ctx, "/v1/challenges", issueChallengeRequest{
		Phone:         phone,
		BotCheckToken: botCheckToken,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	switch {
	case status == http.StatusOK:
		return resp.ChallengeRef, nil
	case status == http.StatusBadRequest && resp.Error == "invalid-phone":
		return "", ErrInvalidPhone
	case status == http.StatusTooManyRequests:
		return "", ErrQuotaExceeded
	case status == http.StatusForbidden && resp.Error == "bot-check-failed":
		return "", ErrBotCheckFailed
	default:
		return "", fmt.Errorf("%w: unexpected status %d", ErrNetwork, status)
	}
}

type confirmChallengeRequest struct {
	ChallengeRef string `json:"challenge_ref"`
	Code         string `json:"code"`
}

type confirmChallengeResponse struct {
	SubjectID string `json:"subject_id"`
	Error     string `json:"error"`
}

// ConfirmChallenge verifies the code and returns the provider subject id.
func (v *HTTPVerifier) ConfirmChallenge(ctx context.Context, challengeRef, code string) (string, error) {
	var resp confirmChallengeResponse
	status, err := v.post(ctx, "/v1/challenges/confirm", confirmChallengeRequest{
		ChallengeRef: challengeRef,
		Code:         code,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	switch {
	case status == http.StatusOK:
		return resp.SubjectID, nil
	case status == http.StatusBadRequest && resp.Error == "invalid-code":
		return "", ErrInvalidCode
	case status == http.StatusNotFound:
		return "", ErrInvalidSession
	case status == http.StatusGone:
		return "", ErrCodeExpired
	default:
		return "", fmt.Errorf("%w: unexpected status %d", ErrNetwork, status)
	}
}

func (v *HTTPVerifier) post(ctx context.Context, path string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	res, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	// The error payload matters for mapping; decode failures on non-JSON
	// bodies are ignored and fall through to status-based mapping.
	_ = json.NewDecoder(res.Body).Decode(out)
	return res.StatusCode, nil
}

// Ensure interface is satisfied.
var _ PhoneVerifier = (*HTTPVerifier)(nil)
