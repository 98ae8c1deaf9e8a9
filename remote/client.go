// Package remote talks to the command execution and captcha services.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	webterm "github.com/Paranoid-AF/webterm"
)

// ErrNetwork wraps every transport-level failure: the request never got a
// decodable answer from the service.
var ErrNetwork = errors.New("network error")

// Client calls POST /api/command and GET /api/captcha.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the service at baseURL. A zero timeout
// leaves calls unbounded except by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Command submits a command. token, when non-empty, is sent as a bearer
// token. A response with success=false is returned without error: it is a
// remote failure, not a transport one.
func (c *Client) Command(ctx context.Context, req webterm.CommandRequest, token string) (*webterm.CommandResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/command", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	var result webterm.CommandResponse
	if err := c.do(httpReq, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Help issues the help command and returns its message.
func (c *Client) Help(ctx context.Context) (string, error) {
	resp, err := c.Command(ctx, webterm.CommandRequest{Command: "help"}, "")
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("help command failed: %s", resp.Message)
	}
	return resp.Message, nil
}

// Captcha requests a fresh challenge.
func (c *Client) Captcha(ctx context.Context) (*webterm.Captcha, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/captcha", nil)
	if err != nil {
		return nil, err
	}

	var result webterm.CaptchaResponse
	if err := c.do(httpReq, &result); err != nil {
		return nil, err
	}
	if !result.Success || result.Data == nil {
		msg := result.Message
		if msg == "" {
			msg = "no captcha in response"
		}
		return nil, fmt.Errorf("captcha request failed: %s", msg)
	}
	return result.Data, nil
}

// do sends req and decodes the JSON body into out. The service reports
// command failures with 4xx/5xx statuses and a regular JSON body, so the
// status code alone is not an error.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: status %d: unparseable body: %s", ErrNetwork, resp.StatusCode, truncate(string(body), 200))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
