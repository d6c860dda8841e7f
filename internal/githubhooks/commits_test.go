package githubhooks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bithub/internal/errmsg"
	"bithub/internal/ingress"
	"bithub/internal/models"
	"bithub/internal/payout"
	"bithub/internal/policy"
	"bithub/internal/providers/providerstest"
	"bithub/internal/testhelpers"

	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Fixture values shared by the webhook tests.
const (
	testUser     = "bithub"
	testPassword = "hunter2"
	trustedIP    = "192.30.252.1"
	untrustedIP  = "192.30.242.1"
	hookPath     = "/v1/github/commits/"
)

type hookFixture struct {
	app      *fiber.App
	payments *providerstest.PaymentProvider
	source   *providerstest.SourceHost
}

func newHookFixture(t *testing.T) hookFixture {
	t.Helper()

	hash, err := ingress.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)

	guard, err := ingress.New(ingress.Config{Username: testUser, PasswordHash: string(hash)})
	require.NoError(t, err)

	pol, err := policy.New([]policy.RepositoryConfig{{URL: "https://github.com/acme/widget"}})
	require.NoError(t, err)

	payments := &providerstest.PaymentProvider{
		Balance: decimal.RequireFromString("10.01"),
		Rate:    decimal.RequireFromString("1.0"),
	}
	source := &providerstest.SourceHost{}

	engine := payout.NewEngine(payout.Config{PayoutRate: decimal.RequireFromString("0.02")}, pol, payments, source)

	app := fiber.New()
	Routes(app.Group("/v1"), guard, engine)

	return hookFixture{app: app, payments: payments, source: source}
}

func loadPayload(t *testing.T, mutate func(map[string]any)) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", "push_master.json"))
	require.NoError(t, err)

	if mutate == nil {
		return data
	}

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	mutate(doc)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return out
}

func TestPushPaysQualifyingCommits(t *testing.T) {
	f := newHookFixture(t)

	body, code := testhelpers.WebhookRunner(t, f.app, hookPath, loadPayload(t, nil), trustedIP, testUser, testPassword)
	require.Equal(t, fiber.StatusOK, code, string(body))

	var res pushResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, pushResponse{Qualified: 2, Paid: 2}, res)

	sent := f.payments.SentPayments()
	require.Len(t, sent, 2)
	assert.Equal(t, "otherauthor@noway.biz", sent[0].Destination)
	assert.True(t, sent[0].Amount.Equal(decimal.RequireFromString("0.2002")))
	assert.Equal(t, "lolwut@noway.biz", sent[1].Destination)
	assert.True(t, sent[1].Amount.Equal(decimal.RequireFromString("0.196196")))

	assert.Len(t, f.source.PostedComments(), 2)
}

func TestPushFromUntrustedAddress(t *testing.T) {
	f := newHookFixture(t)

	body, code := testhelpers.WebhookRunner(t, f.app, hookPath, loadPayload(t, nil), untrustedIP, testUser, testPassword)
	testhelpers.ResponseErrorCheck(t, errmsg.WebhookUnauthorized, body, code)

	assert.Zero(t, f.payments.BalanceCallCount)
}

func TestPushWithoutForwardedFor(t *testing.T) {
	f := newHookFixture(t)

	body, code := testhelpers.WebhookRunner(t, f.app, hookPath, loadPayload(t, nil), "", testUser, testPassword)
	testhelpers.ResponseErrorCheck(t, errmsg.WebhookUnauthorized, body, code)
}

func TestPushWithBadCredentials(t *testing.T) {
	f := newHookFixture(t)

	body, code := testhelpers.WebhookRunner(t, f.app, hookPath, loadPayload(t, nil), trustedIP, testUser, "wrong")
	testhelpers.ResponseErrorCheck(t, errmsg.WebhookUnauthorized, body, code)

	body, code = testhelpers.WebhookRunner(t, f.app, hookPath, loadPayload(t, nil), trustedIP, "", "")
	testhelpers.ResponseErrorCheck(t, errmsg.WebhookUnauthorized, body, code)
}

func TestPushForUnknownRepository(t *testing.T) {
	f := newHookFixture(t)

	payload := loadPayload(t, func(doc map[string]any) {
		doc["repository"].(map[string]any)["url"] = "https://github.com/acme/elsewhere"
	})

	body, code := testhelpers.WebhookRunner(t, f.app, hookPath, payload, trustedIP, testUser, testPassword)
	testhelpers.ResponseErrorCheck(t, errmsg.WebhookUnknownRepository, body, code)

	assert.Empty(t, f.payments.SentPayments())
}

func TestPushWithoutRefChecksRepositoryFirst(t *testing.T) {
	f := newHookFixture(t)

	payload := loadPayload(t, func(doc map[string]any) {
		delete(doc, "ref")
		doc["repository"].(map[string]any)["url"] = "https://github.com/acme/elsewhere"
	})

	body, code := testhelpers.WebhookRunner(t, f.app, hookPath, payload, trustedIP, testUser, testPassword)
	testhelpers.ResponseErrorCheck(t, errmsg.WebhookUnknownRepository, body, code)

	payload = loadPayload(t, func(doc map[string]any) {
		delete(doc, "ref")
	})

	body, code = testhelpers.WebhookRunner(t, f.app, hookPath, payload, trustedIP, testUser, testPassword)
	testhelpers.ResponseErrorCheck(t, errmsg.WebhookInvalidPayload, body, code)

	assert.Zero(t, f.payments.BalanceCallCount)
}

type recordingHandler struct {
	ctx context.Context
}

func (h *recordingHandler) HandlePush(ctx context.Context, deliveryID string, event models.PushEvent) (payout.Result, error) {
	h.ctx = ctx
	return payout.Result{}, nil
}

func TestPushHandlerReceivesRequestContext(t *testing.T) {
	guard, err := ingress.New(ingress.Config{Username: testUser, Password: testPassword})
	require.NoError(t, err)

	handler := &recordingHandler{}
	app := fiber.New()
	Routes(app.Group("/v1"), guard, handler)

	body, code := testhelpers.WebhookRunner(t, app, hookPath, loadPayload(t, nil), trustedIP, testUser, testPassword)
	require.Equal(t, fiber.StatusOK, code, string(body))

	require.NotNil(t, handler.ctx)
}

func TestPushToOtherBranch(t *testing.T) {
	f := newHookFixture(t)

	payload := loadPayload(t, func(doc map[string]any) {
		doc["ref"] = "refs/heads/feature"
	})

	body, code := testhelpers.WebhookRunner(t, f.app, hookPath, payload, trustedIP, testUser, testPassword)
	require.Equal(t, fiber.StatusOK, code)

	var res pushResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res.Ignored)

	assert.Zero(t, f.payments.BalanceCallCount)
	assert.Empty(t, f.source.PostedComments())
}

func TestPushWithMalformedPayload(t *testing.T) {
	f := newHookFixture(t)

	body, code := testhelpers.WebhookRunner(t, f.app, hookPath, []byte("{not json"), trustedIP, testUser, testPassword)
	testhelpers.ResponseErrorCheck(t, errmsg.WebhookInvalidPayload, body, code)

	body, code = testhelpers.WebhookRunner(t, f.app, hookPath, []byte(`{"ref":"refs/heads/master"}`), trustedIP, testUser, testPassword)
	testhelpers.ResponseErrorCheck(t, errmsg.WebhookInvalidPayload, body, code)

	body, code = testhelpers.WebhookRunner(t, f.app, hookPath, nil, trustedIP, testUser, testPassword)
	testhelpers.ResponseErrorCheck(t, errmsg.WebhookPayloadMissing, body, code)
}

func TestPushWhenProviderDown(t *testing.T) {
	f := newHookFixture(t)
	f.payments.AccountBalanceFunc = func(ctx context.Context) (decimal.Decimal, error) {
		return decimal.Zero, errors.New("connection reset")
	}

	body, code := testhelpers.WebhookRunner(t, f.app, hookPath, loadPayload(t, nil), trustedIP, testUser, testPassword)
	testhelpers.ResponseErrorCheck(t, errmsg.WebhookProviderDown, body, code)
}
