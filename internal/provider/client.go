// Package provider is a thin client for the identity provider's admin API.
// The service only needs one call from it: deleting an account, which the
// provider confirms with an "account deleted" webhook.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"identity-service/pkg/config"
)

// AdminClient talks to the identity provider's admin endpoints using the
// service-role key.
type AdminClient struct {
	BaseURL    string
	ServiceKey string
	HTTPClient *http.Client
}

// ErrorResponse represents an error body returned by the provider
type ErrorResponse struct {
	Message string `json:"message"`
}

var client *AdminClient

// Initialize configures the package-level admin client
func Initialize(cfg *config.ProviderConfig) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client = &AdminClient{
		BaseURL:    cfg.BaseURL,
		ServiceKey: cfg.ServiceKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// GetClient returns the package-level admin client
func GetClient() *AdminClient {
	return client
}

// DeleteAccount deletes an account at the identity provider. The local
// mirror is not touched here; that stays the provisioning layer's job.
func (c *AdminClient) DeleteAccount(ctx context.Context, identity string) error {
	url := fmt.Sprintf("%s/admin/users/%s", c.BaseURL, identity)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	// Already gone at the provider counts as deleted.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, errResp.Message)
	}
	return fmt.Errorf("provider returned %d", resp.StatusCode)
}
