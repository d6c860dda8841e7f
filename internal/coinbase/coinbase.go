// Package coinbase implements providers.PaymentProvider against the
// Coinbase v2 REST API.
package coinbase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bithub/internal/models"
	"bithub/internal/providers"

	"github.com/gofiber/fiber/v3/client"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://api.coinbase.com"
	apiVersion     = "2016-08-10"
	currencyBTC    = "BTC"
	currencyUSD    = "USD"
)

var ErrNoPrimaryAccount = errors.New("no primary coinbase account")

type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// Client talks to Coinbase with HMAC signed requests.
type Client struct {
	http   *client.Client
	key    string
	secret []byte
	now    func() time.Time
}

var _ providers.PaymentProvider = (*Client)(nil)

func New(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		http:   client.New().SetBaseURL(baseURL).SetTimeout(timeout),
		key:    cfg.APIKey,
		secret: []byte(cfg.APISecret),
		now:    time.Now,
	}
}

type money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type account struct {
	ID      string `json:"id"`
	Primary bool   `json:"primary"`
	Balance money  `json:"balance"`
}

type transaction struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Amount      money  `json:"amount"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type sendRequest struct {
	Type        string `json:"type"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type apiError struct {
	Errors []struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"errors"`
}

// AccountBalance returns the primary account balance, or zero when the
// account has no primary wallet.
func (c *Client) AccountBalance(ctx context.Context) (decimal.Decimal, error) {
	primary, err := c.primaryAccount(ctx)
	if errors.Is(err, ErrNoPrimaryAccount) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := decimal.NewFromString(primary.Balance.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("coinbase: parse balance %q: %w", primary.Balance.Amount, err)
	}

	return balance, nil
}

// ExchangeRate returns the BTC to USD rate.
func (c *Client) ExchangeRate(ctx context.Context) (decimal.Decimal, error) {
	var body struct {
		Data struct {
			Currency string            `json:"currency"`
			Rates    map[string]string `json:"rates"`
		} `json:"data"`
	}

	if err := c.do(ctx, "GET", "/v2/exchange-rates?currency="+currencyBTC, nil, &body); err != nil {
		return decimal.Zero, err
	}

	raw, ok := body.Data.Rates[currencyUSD]
	if !ok {
		return decimal.Zero, errors.New("coinbase: exchange rate response has no USD rate")
	}

	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("coinbase: parse exchange rate %q: %w", raw, err)
	}

	return rate, nil
}

// SendPayment sends BTC to an email address. Anything other than a
// completed transaction is reported as providers.ErrTransferFailed.
func (c *Client) SendPayment(ctx context.Context, destination string, amount decimal.Decimal, note string) error {
	primary, err := c.primaryAccount(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", providers.ErrTransferFailed, err)
	}

	req := sendRequest{
		Type:        "send",
		To:          destination,
		Amount:      amount.String(),
		Currency:    currencyBTC,
		Description: note,
	}

	var body struct {
		Data transaction `json:"data"`
	}

	if err := c.do(ctx, "POST", "/v2/accounts/"+primary.ID+"/transactions", req, &body); err != nil {
		return fmt.Errorf("%w: %v", providers.ErrTransferFailed, err)
	}

	if body.Data.Status != models.TransactionCompleted {
		return fmt.Errorf("%w: transaction %s is %s", providers.ErrTransferFailed, body.Data.ID, body.Data.Status)
	}

	return nil
}

// RecentTransactions lists the primary account's transactions.
func (c *Client) RecentTransactions(ctx context.Context) ([]models.ProviderTransaction, error) {
	primary, err := c.primaryAccount(ctx)
	if errors.Is(err, ErrNoPrimaryAccount) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var body struct {
		Data []transaction `json:"data"`
	}

	if err := c.do(ctx, "GET", "/v2/accounts/"+primary.ID+"/transactions", nil, &body); err != nil {
		return nil, err
	}

	out := make([]models.ProviderTransaction, 0, len(body.Data))
	for _, tx := range body.Data {
		amount, err := decimal.NewFromString(tx.Amount.Amount)
		if err != nil {
			return nil, fmt.Errorf("coinbase: parse amount of transaction %s: %w", tx.ID, err)
		}

		out = append(out, models.ProviderTransaction{
			ID:        tx.ID,
			Amount:    amount,
			Currency:  tx.Amount.Currency,
			Notes:     tx.Description,
			Status:    tx.Status,
			CreatedAt: tx.CreatedAt,
		})
	}

	return out, nil
}

func (c *Client) primaryAccount(ctx context.Context) (account, error) {
	var body struct {
		Data []account `json:"data"`
	}

	if err := c.do(ctx, "GET", "/v2/accounts", nil, &body); err != nil {
		return account{}, err
	}

	for _, acc := range body.Data {
		if acc.Primary {
			return acc, nil
		}
	}

	return account{}, ErrNoPrimaryAccount
}

func (c *Client) do(ctx context.Context, method, path string, in any, out any) error {
	var payload []byte
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("coinbase: encode request: %w", err)
		}
		payload = encoded
	}

	timestamp := strconv.FormatInt(c.now().Unix(), 10)

	req := c.http.R().
		SetContext(ctx).
		SetHeader("CB-ACCESS-KEY", c.key).
		SetHeader("CB-ACCESS-SIGN", c.sign(timestamp, method, path, payload)).
		SetHeader("CB-ACCESS-TIMESTAMP", timestamp).
		SetHeader("CB-VERSION", apiVersion).
		SetHeader("Accept", "application/json")

	var (
		resp *client.Response
		err  error
	)

	switch method {
	case "POST":
		resp, err = req.
			SetHeader("Content-Type", "application/json").
			SetRawBody(payload).
			Post(path)
	default:
		resp, err = req.Get(path)
	}
	if err != nil {
		return fmt.Errorf("coinbase: %s %s: %w", method, path, err)
	}
	defer resp.Close()

	if status := resp.StatusCode(); status < 200 || status > 299 {
		return fmt.Errorf("coinbase: %s %s: status %d: %s", method, path, status, errorMessage(resp.Body()))
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("coinbase: decode %s response: %w", path, err)
	}

	return nil
}

// sign computes the CB-ACCESS-SIGN header value.
func (c *Client) sign(timestamp, method, path string, body []byte) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(timestamp + method + path))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func errorMessage(body []byte) string {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.Errors) > 0 {
		return apiErr.Errors[0].Message
	}
	return strings.TrimSpace(string(body))
}
