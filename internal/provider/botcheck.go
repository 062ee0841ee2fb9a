package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// HTTPBotCheck obtains per-device bot-check tokens from the verification
// provider. A device is initialized once: its token is cached and reused
// for subsequent challenges.
type HTTPBotCheck struct {
	baseURL string
	apiKey  string
	client  *http.Client

	mu     sync.Mutex
	tokens map[string]string // deviceID -> token
}

// NewHTTPBotCheck creates a new HTTPBotCheck.
func NewHTTPBotCheck(baseURL, apiKey string) *HTTPBotCheck {
	return &HTTPBotCheck{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		tokens:  make(map[string]string),
	}
}

type botCheckResponse struct {
	Token string `json:"token"`
}

// Token returns the bot-check token for a device, initializing it on first use.
func (b *HTTPBotCheck) Token(ctx context.Context, deviceID string) (string, error) {
	b.mu.Lock()
	if token, ok := b.tokens[deviceID]; ok {
		b.mu.Unlock()
		return token, nil
	}
	b.mu.Unlock()

	payload, err := json.Marshal(map[string]string{"device_id": deviceID})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/botcheck", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	res, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", ErrBotCheckFailed
	}

	var resp botCheckResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	b.mu.Lock()
	b.tokens[deviceID] = resp.Token
	b.mu.Unlock()

	return resp.Token, nil
}

// Ensure interface is satisfied.
var _ BotCheck = (*HTTPBotCheck)(nil)
