// Package whatsapp implements the WhatsApp Business (Cloud API) channel adapter.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultAPIURL is the Graph API root. Tests substitute a local server.
	DefaultAPIURL = "https://graph.facebook.com"

	// apiVersion pins the Graph API version the gateway speaks.
	apiVersion = "v18.0"

	maxResponseBytes   = 10 << 20
	defaultHTTPTimeout = 10 * time.Second
)

// Client is a thin HTTP wrapper around the Cloud API messages endpoint.
type Client struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	http          *http.Client
}

// NewClient creates a Cloud API client for a single business phone number.
// An empty baseURL selects the public Graph API.
func NewClient(accessToken, phoneNumberID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		baseURL:       baseURL,
		http: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
	}
}

// SendMessage posts a message payload to the Cloud API. Success requires
// HTTP 200 and an acknowledged message id in the body, because the platform
// can answer 200 with an embedded error.
func (c *Client) SendMessage(ctx context.Context, req SendRequest) (*SendResponse, error) {
	req.MessagingProduct = "whatsapp"

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, apiVersion, c.phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create send request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: send request failed: %w", err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read send response: %w", err)
	}

	// The Graph API reports failures in a structured error body, sometimes
	// under HTTP 200. Check for it before trusting the status code.
	var errBody errorResponse
	if jsonErr := json.Unmarshal(body, &errBody); jsonErr == nil && errBody.Error != nil {
		errBody.Error.HTTPStatus = resp.StatusCode
		return nil, errBody.Error
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Message:    http.StatusText(resp.StatusCode),
			HTTPStatus: resp.StatusCode,
		}
	}

	var sendResp SendResponse
	if err := json.Unmarshal(body, &sendResp); err != nil {
		return nil, fmt.Errorf("whatsapp: decode send response: %w", err)
	}
	if len(sendResp.Messages) == 0 || sendResp.Messages[0].ID == "" {
		return nil, errors.New("whatsapp: response carries no message id")
	}
	return &sendResp, nil
}
