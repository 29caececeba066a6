/**
 * @description
 * This package provides a client for the PayHero payments API. It encapsulates
 * the logic for making authenticated STK push requests, handling request body
 * construction, and parsing responses.
 *
 * The synchronous response only acknowledges the push; the final payment result
 * arrives later on the callback URL registered with each request.
 *
 * @dependencies
 * - bytes, context, encoding/base64, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package payheroclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client is a client for the PayHero API.
type Client struct {
	BaseURL     string
	AuthToken   string
	ChannelID   int
	Provider    string
	CallbackURL string
	HTTPClient  *http.Client
}

// NewClient creates a new PayHero API client. The API username and password are
// combined into the Basic authorization token PayHero expects.
func NewClient(baseURL, apiUsername, apiPassword string, channelID int, provider, callbackURL string) *Client {
	credentials := base64.StdEncoding.EncodeToString([]byte(apiUsername + ":" + apiPassword))
	return &Client{
		BaseURL:     baseURL,
		AuthToken:   "Basic " + credentials,
		ChannelID:   channelID,
		Provider:    provider,
		CallbackURL: callbackURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// stkPushRequest is the payload for PayHero's payments endpoint.
type stkPushRequest struct {
	Amount            int64  `json:"amount"`
	PhoneNumber       string `json:"phone_number"`
	ChannelID         int    `json:"channel_id"`
	Provider          string `json:"provider"`
	ExternalReference string `json:"external_reference"`
	CallbackURL       string `json:"callback_url"`
}

// stkPushResponse is the synchronous acknowledgement from PayHero.
type stkPushResponse struct {
	Success      bool   `json:"success"`
	Status       string `json:"status"`
	Reference    string `json:"reference"`
	ErrorMessage string `json:"error_message"`
}

// ErrorResponse represents a rejection from the PayHero API.
type ErrorResponse struct {
	StatusCode int
	Message    string
}

func (e *ErrorResponse) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("payhero api error: %s", e.Message)
	}
	return fmt.Sprintf("payhero api error (status %d)", e.StatusCode)
}

// SendSTKPush asks PayHero to push a payment prompt to the payer's phone. A nil
// error means the push was accepted, not that the payment completed.
func (c *Client) SendSTKPush(ctx context.Context, amount int64, phoneNumber, reference string) error {
	payload := stkPushRequest{
		Amount:            amount,
		PhoneNumber:       phoneNumber,
		ChannelID:         c.ChannelID,
		Provider:          c.Provider,
		ExternalReference: reference,
		CallbackURL:       c.CallbackURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal stk push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/api/v2/payments", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create stk push request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.AuthToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute stk push request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read stk push response: %w", err)
	}

	var ack stkPushResponse
	if err := json.Unmarshal(bodyBytes, &ack); err != nil {
		log.Printf("level=warn component=payhero_client op=stk_push status=%d msg=\"unparsable response body\"", resp.StatusCode)
		return &ErrorResponse{StatusCode: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !ack.Success {
		message := ack.ErrorMessage
		if message == "" {
			message = ack.Status
		}
		log.Printf("level=warn component=payhero_client op=stk_push status=%d reference=%s message=%q", resp.StatusCode, reference, message)
		return &ErrorResponse{StatusCode: resp.StatusCode, Message: message}
	}

	log.Printf("level=info component=payhero_client op=stk_push status=%d reference=%s gateway_reference=%s", resp.StatusCode, reference, ack.Reference)
	return nil
}
