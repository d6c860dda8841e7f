// Package client reads a running bithub server over its /v1 HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"bithub/internal/models"

	fiberclient "github.com/gofiber/fiber/v3/client"
)

// DefaultHost is used when neither --api nor BITHUB_API is set.
const DefaultHost = "http://localhost:8080"

// Client wraps the fiber HTTP client with the bithub routes.
type Client struct {
	http *fiberclient.Client
}

// Host resolves the API root from flag, then BITHUB_API, then DefaultHost.
func Host(flag string) string {
	host := strings.TrimSpace(flag)
	if host == "" {
		host = strings.TrimSpace(os.Getenv("BITHUB_API"))
	}
	if host == "" {
		host = DefaultHost
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/")
}

func New(host string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: fiberclient.New().SetBaseURL(Host(host)).SetTimeout(timeout),
	}
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get(path)
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	body := append([]byte(nil), resp.Body()...)
	if resp.StatusCode() != 200 {
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &e) == nil && e.Message != "" {
			return nil, fmt.Errorf("%s: %d %s", path, resp.StatusCode(), e.Message)
		}
		return nil, fmt.Errorf("%s: status %d", path, resp.StatusCode())
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode: %w", path, err)
	}
	return nil
}

// Ping returns nil when the server answers PONG.
func (c *Client) Ping(ctx context.Context) error {
	body, err := c.get(ctx, "/v1/ping")
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(body)) != "PONG" {
		return fmt.Errorf("unexpected ping reply %q", body)
	}
	return nil
}

func (c *Client) Version(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "/v1/version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func (c *Client) Payment(ctx context.Context) (models.PaymentView, error) {
	var view models.PaymentView
	err := c.getJSON(ctx, "/v1/status/payment/commit", &view)
	return view, err
}

func (c *Client) Transactions(ctx context.Context) ([]models.Transaction, error) {
	var body struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	err := c.getJSON(ctx, "/v1/status/transactions", &body)
	return body.Transactions, err
}

func (c *Client) Repositories(ctx context.Context) ([]models.Repository, error) {
	var body struct {
		Repositories []models.Repository `json:"repositories"`
	}
	err := c.getJSON(ctx, "/v1/status/repositories", &body)
	return body.Repositories, err
}
