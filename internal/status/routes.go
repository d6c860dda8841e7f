// Package status serves the cached, read-only views of the payout service.
package status

import (
	"bithub/internal/models"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// Reader is the cache surface the read endpoints depend on.
type Reader interface {
	CurrentPayout() models.CurrentPayment
	RecentTransactions() []models.Transaction
	Repositories() []models.Repository
	Subscribe() (<-chan models.CurrentPayment, func())
}

// Settings are the static values served under /config.
type Settings struct {
	RepositoryURLs []string
	DonationCode   string
	Organization   string
	DonationURL    string
}

// Routes wires /status and /config under app.
func Routes(app fiber.Router, reader Reader, settings Settings) {
	h := &handlers{reader: reader, settings: settings}

	status := app.Group("/status", cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{fiber.MethodGet, fiber.MethodOptions},
	}))

	status.Get("/payment/commit", h.currentPayment)
	status.Get("/transactions", h.transactions)
	status.Get("/repositories", h.repositories)
	status.Get("/stream", h.stream)

	config := app.Group("/config")

	config.Get("/repositories", h.configRepositories)
	config.Get("/donations", h.donations)
	config.Get("/organization", h.organization)
}
