// Package mailer sends transactional emails through an EmailJS-compatible REST API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/BloggingApp/writerspace/internal/config"
)

const sendEndpoint = "/api/v1.0/email/send"

type TemplateParams map[string]string

// Sender delivers one templated email per call.
type Sender interface {
	Send(ctx context.Context, params TemplateParams) error
}

type Client struct {
	cfg        config.EmailConfig
	httpClient *http.Client
}

func New(cfg config.EmailConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
	}
}

type sendRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	AccessToken    string         `json:"accessToken,omitempty"`
	TemplateParams TemplateParams `json:"template_params"`
}

// SendError carries the provider's answer for a rejected send.
type SendError struct {
	StatusCode int
	Details    string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("email provider returned %d: %s", e.StatusCode, e.Details)
}

func (c *Client) Send(ctx context.Context, params TemplateParams) error {
	body, err := json.Marshal(sendRequest{
		ServiceID:      c.cfg.ServiceID,
		TemplateID:     c.cfg.TemplateID,
		UserID:         c.cfg.PublicKey,
		AccessToken:    c.cfg.PrivateKey,
		TemplateParams: params,
	})
	if err != nil {
		return err
	}

	url := strings.TrimRight(c.cfg.APIURL, "/") + sendEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		details, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &SendError{StatusCode: resp.StatusCode, Details: strings.TrimSpace(string(details))}
	}

	return nil
}
