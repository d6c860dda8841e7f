package status

import (
	"context"

	"bithub/internal/models"
	"bithub/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type handlers struct {
	reader   Reader
	settings Settings
}

type transactionsResponse struct {
	Transactions []models.Transaction `json:"transactions"`
}

type repositoriesResponse struct {
	Repositories []models.Repository `json:"repositories"`
}

type donationsResponse struct {
	Coinbase string `json:"coinbase"`
}

type organizationResponse struct {
	Name        string `json:"name"`
	DonationURL string `json:"donationUrl"`
}

// currentPayment serves the cached USD value of the next commit payout.
// Badge formats are answered with the same JSON body.
//
//	@Summary	Current commit payout
//	@Tags		Status
//	@Produce	json
//	@Param		format	query		string	false	"json, png or png_small"
//	@Success	200		{object}	models.PaymentView
//	@Router		/v1/status/payment/commit [get]
func (h *handlers) currentPayment(c fiber.Ctx) error {
	return c.JSON(h.reader.CurrentPayout().View())
}

// transactions serves the cached recent payouts.
//
//	@Summary	Recent payouts
//	@Tags		Status
//	@Produce	json
//	@Param		format	query		string	false	"json or html"
//	@Success	200		{object}	transactionsResponse
//	@Router		/v1/status/transactions [get]
func (h *handlers) transactions(c fiber.Ctx) error {
	return c.JSON(transactionsResponse{Transactions: h.reader.RecentTransactions()})
}

// repositories serves the cached repository metadata.
//
//	@Summary	Participating repositories
//	@Tags		Status
//	@Produce	json
//	@Success	200	{object}	repositoriesResponse
//	@Router		/v1/status/repositories [get]
func (h *handlers) repositories(c fiber.Ctx) error {
	return c.JSON(repositoriesResponse{Repositories: h.reader.Repositories()})
}

// stream pushes the current payout and every refreshed value over a websocket.
//
//	@Summary	Live payout stream
//	@Tags		Status
//	@Router		/v1/status/stream [get]
func (h *handlers) stream(c fiber.Ctx) error {
	return ws.Stream(c, func(ctx context.Context, w *ws.Writer) error {
		updates, cancel := h.reader.Subscribe()
		defer cancel()

		if err := w.Send("payment", h.reader.CurrentPayout().View()); err != nil {
			return err
		}

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case p := <-updates:
				if err := w.Send("payment", p.View()); err != nil {
					return err
				}
			}
		}
	})
}

// configRepositories lists the configured repository URLs.
//
//	@Summary	Configured repository URLs
//	@Tags		Config
//	@Produce	json
//	@Success	200	{array}	string
//	@Router		/v1/config/repositories [get]
func (h *handlers) configRepositories(c fiber.Ctx) error {
	urls := h.settings.RepositoryURLs
	if urls == nil {
		urls = []string{}
	}
	return c.JSON(urls)
}

// donations serves the donation widget code.
//
//	@Summary	Donation widget data
//	@Tags		Config
//	@Produce	json
//	@Success	200	{object}	donationsResponse
//	@Router		/v1/config/donations [get]
func (h *handlers) donations(c fiber.Ctx) error {
	return c.JSON(donationsResponse{Coinbase: h.settings.DonationCode})
}

// organization serves the organization name and donation page.
//
//	@Summary	Organization details
//	@Tags		Config
//	@Produce	json
//	@Success	200	{object}	organizationResponse
//	@Router		/v1/config/organization [get]
func (h *handlers) organization(c fiber.Ctx) error {
	return c.JSON(organizationResponse{
		Name:        h.settings.Organization,
		DonationURL: h.settings.DonationURL,
	})
}
