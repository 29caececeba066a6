/**
 * @description
 * This package provides a client for the MikroTik RouterOS REST API, used to
 * create hotspot users on the access router. Only the single capability this
 * service needs is modeled: adding a hotspot credential with a name, secret,
 * profile and comment.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package mikrotikclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client is a client for the RouterOS REST API.
type Client struct {
	BaseURL    string
	Username   string
	Password   string
	HTTPClient *http.Client
}

// NewClient creates a new RouterOS API client. baseURL is the router's REST
// endpoint root, e.g. "https://192.168.88.1".
func NewClient(baseURL, username, password string) *Client {
	return &Client{
		BaseURL:  baseURL,
		Username: username,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// hotspotUserRequest is the payload for /rest/ip/hotspot/user.
type hotspotUserRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Profile  string `json:"profile"`
	Comment  string `json:"comment,omitempty"`
}

// ErrorResponse represents an error returned by the RouterOS REST API.
type ErrorResponse struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (e *ErrorResponse) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("routeros api error: %s - %s", e.Message, e.Detail)
	}
	if e.Message != "" {
		return fmt.Sprintf("routeros api error: %s", e.Message)
	}
	return fmt.Sprintf("routeros api error (status %d)", e.Code)
}

// CreateHotspotCredential adds a hotspot user to the router. A timeout or
// connection failure is returned as an error and treated by the caller as a
// provisioning failure.
func (c *Client) CreateHotspotCredential(ctx context.Context, identity, secret, profile, comment string) error {
	payload := hotspotUserRequest{
		Name:     identity,
		Password: secret,
		Profile:  profile,
		Comment:  comment,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal hotspot user request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/rest/ip/hotspot/user", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create hotspot user request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.Username, c.Password)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute hotspot user request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read hotspot user response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil {
			log.Printf("level=warn component=mikrotik_client op=create_hotspot_user status=%d msg=\"non-2xx response (unparsable error body)\"", resp.StatusCode)
			return fmt.Errorf("failed to decode error response (status %d)", resp.StatusCode)
		}
		if errResp.Code == 0 {
			errResp.Code = resp.StatusCode
		}
		log.Printf("level=warn component=mikrotik_client op=create_hotspot_user status=%d identity=%s profile=%s message=%q detail=%q", resp.StatusCode, identity, profile, errResp.Message, errResp.Detail)
		return &errResp
	}

	log.Printf("level=info component=mikrotik_client op=create_hotspot_user identity=%s profile=%s", identity, profile)
	return nil
}
