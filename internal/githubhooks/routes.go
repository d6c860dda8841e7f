// Package githubhooks exposes handlers for GitHub webhook callbacks.
package githubhooks

import (
	"bithub/internal/ingress"

	"github.com/gofiber/fiber/v3"
)

// Routes wires the GitHub webhook endpoints under /v1/github.
func Routes(app fiber.Router, guard *ingress.Guard, engine PushHandler) {
	group := app.Group("/github", ingress.Middleware(guard))

	// POST /v1/github/commits pays out push notifications from GitHub.
	group.Post("/commits", commitsHandler(engine))
}
