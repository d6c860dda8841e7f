// Package testhelpers drives a Fiber app in tests.
package testhelpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"testing"

	"bithub/internal/errmsg"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"
)

// RequestRunner sends one request through app and returns the body and
// status. Headers are applied after the default JSON content type.
func RequestRunner(
	t *testing.T,
	app *fiber.App,
	method string,
	path string,
	sendBytes []byte,
	headers map[string]string,
	config ...fiber.TestConfig,
) (bodyBytes []byte, statusCode int) {
	t.Helper()

	config = append(config, fiber.TestConfig{Timeout: 0, FailOnTimeout: false})
	req, err := http.NewRequest(
		method,
		path,
		bytes.NewBuffer(sendBytes),
	)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := app.Test(req, config[0])
	require.NoError(t, err)
	defer res.Body.Close()

	statusCode = res.StatusCode

	bodyBytes, err = io.ReadAll(res.Body)
	require.NoError(t, err)

	return
}

// WebhookRunner posts payload as the form field GitHub uses for push
// deliveries, from sourceIP with basic auth.
func WebhookRunner(
	t *testing.T,
	app *fiber.App,
	path string,
	payload []byte,
	sourceIP string,
	username string,
	password string,
) (bodyBytes []byte, statusCode int) {
	t.Helper()

	form := url.Values{}
	form.Set("payload", string(payload))

	req, err := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if sourceIP != "" {
		req.Header.Set("X-Forwarded-For", sourceIP)
	}
	if username != "" || password != "" {
		req.SetBasicAuth(username, password)
	}

	res, err := app.Test(req, fiber.TestConfig{Timeout: 0, FailOnTimeout: false})
	require.NoError(t, err)
	defer res.Body.Close()

	bodyBytes, err = io.ReadAll(res.Body)
	require.NoError(t, err)

	return bodyBytes, res.StatusCode
}

// ResponseErrorCheck asserts the response carries serr.
func ResponseErrorCheck(
	t *testing.T,
	serr errmsg.StatusError,
	bodyBytes []byte,
	statusCode int,
) {
	t.Helper()

	require.Equal(t, serr.StatusCode, statusCode)

	var body struct {
		Message string `json:"message"`
	}
	err := json.Unmarshal(bodyBytes, &body)
	require.NoError(t, err)

	require.Equal(t, serr.Message, body.Message)
}
