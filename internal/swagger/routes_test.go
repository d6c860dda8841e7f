package swagger

import (
	"encoding/json"
	"net/http"
	"testing"

	"bithub/internal/env"
	"bithub/internal/testhelpers"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocJSON(t *testing.T) {
	env.VERSION = "9.9.9"
	env.ORGANIZATION_NAME = "Acme"
	t.Cleanup(func() {
		env.VERSION = ""
		env.ORGANIZATION_NAME = ""
	})

	app := fiber.New()
	Register(app)

	body, code := testhelpers.RequestRunner(t, app, http.MethodGet, "/docs/doc.json", nil, nil)
	require.Equal(t, http.StatusOK, code)

	var doc struct {
		Info struct {
			Title        string `json:"title"`
			Version      string `json:"version"`
			Organization string `json:"x-organization"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))

	assert.Equal(t, "BitHub API", doc.Info.Title)
	assert.Equal(t, "9.9.9", doc.Info.Version)
	assert.Equal(t, "Acme", doc.Info.Organization)
	assert.Contains(t, doc.Paths, "/v1/github/commits")
}

func TestDocsUI(t *testing.T) {
	app := fiber.New()
	Register(app)

	body, code := testhelpers.RequestRunner(t, app, http.MethodGet, "/docs", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "/docs/doc.json")
}
