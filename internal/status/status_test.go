package status

import (
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"bithub/internal/models"
	"bithub/internal/testhelpers"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	payment      models.CurrentPayment
	transactions []models.Transaction
	repositories []models.Repository
	updates      chan models.CurrentPayment
}

func (f *fakeReader) CurrentPayout() models.CurrentPayment     { return f.payment }
func (f *fakeReader) RecentTransactions() []models.Transaction { return f.transactions }
func (f *fakeReader) Repositories() []models.Repository        { return f.repositories }
func (f *fakeReader) Subscribe() (<-chan models.CurrentPayment, func()) {
	return f.updates, func() {}
}

func newStatusApp(reader *fakeReader) *fiber.App {
	app := fiber.New()
	Routes(app.Group("/v1"), reader, Settings{
		RepositoryURLs: []string{"https://github.com/acme/widget"},
		DonationCode:   "abc123",
		Organization:   "Acme",
		DonationURL:    "https://acme.example/donate",
	})
	return app
}

func testReader() *fakeReader {
	return &fakeReader{
		payment: models.CurrentPayment{Amount: decimal.RequireFromString("0.21")},
		transactions: []models.Transaction{{
			Destination: "octocat",
			Amount:      "0.21",
			AmountInBTC: "0.2002",
			CommitURL:   "https://github.com/acme/widget/commit/6a8e2c4f0b",
			CommitSha:   "6a8e2c4f",
			Timestamp:   "2024-03-01T10:00:00+0000",
			Description: "Fix parser",
		}},
		repositories: []models.Repository{{URL: "https://github.com/acme/widget", Name: "widget"}},
		updates:      make(chan models.CurrentPayment, 1),
	}
}

func TestCurrentPayment(t *testing.T) {
	app := newStatusApp(testReader())

	for _, format := range []string{"", "?format=json", "?format=png", "?format=png_small"} {
		body, code := testhelpers.RequestRunner(t, app, http.MethodGet, "/v1/status/payment/commit"+format, nil, nil)
		require.Equal(t, http.StatusOK, code)

		var view models.PaymentView
		require.NoError(t, json.Unmarshal(body, &view))
		assert.Equal(t, "0.21", view.Payment)
	}
}

func TestTransactions(t *testing.T) {
	app := newStatusApp(testReader())

	body, code := testhelpers.RequestRunner(t, app, http.MethodGet, "/v1/status/transactions?format=html", nil, nil)
	require.Equal(t, http.StatusOK, code)

	var res transactionsResponse
	require.NoError(t, json.Unmarshal(body, &res))
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "6a8e2c4f", res.Transactions[0].CommitSha)
	assert.Contains(t, string(body), `"amountInBTC":"0.2002"`)
}

func TestRepositories(t *testing.T) {
	app := newStatusApp(testReader())

	body, code := testhelpers.RequestRunner(t, app, http.MethodGet, "/v1/status/repositories", nil, nil)
	require.Equal(t, http.StatusOK, code)

	var res repositoriesResponse
	require.NoError(t, json.Unmarshal(body, &res))
	require.Len(t, res.Repositories, 1)
	assert.Equal(t, "widget", res.Repositories[0].Name)
}

func TestStatusCORS(t *testing.T) {
	app := newStatusApp(testReader())

	req, err := http.NewRequest(http.MethodGet, "/v1/status/transactions", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://acme.example")

	res, err := app.Test(req, fiber.TestConfig{Timeout: 0, FailOnTimeout: false})
	require.NoError(t, err)
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestConfigEndpoints(t *testing.T) {
	app := newStatusApp(testReader())

	body, code := testhelpers.RequestRunner(t, app, http.MethodGet, "/v1/config/repositories", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["https://github.com/acme/widget"]`, string(body))

	body, code = testhelpers.RequestRunner(t, app, http.MethodGet, "/v1/config/donations", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"coinbase":"abc123"}`, string(body))

	body, code = testhelpers.RequestRunner(t, app, http.MethodGet, "/v1/config/organization", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"name":"Acme","donationUrl":"https://acme.example/donate"}`, string(body))
}

func TestStream(t *testing.T) {
	reader := testReader()
	app := newStatusApp(reader)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/v1/status/stream", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg struct {
		Type string             `json:"type"`
		Data models.PaymentView `json:"data"`
	}

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "payment", msg.Type)
	assert.Equal(t, "0.21", msg.Data.Payment)

	reader.updates <- models.CurrentPayment{Amount: decimal.RequireFromString("0.5")}

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "0.50", msg.Data.Payment)
}
