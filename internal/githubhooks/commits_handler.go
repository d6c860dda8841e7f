package githubhooks

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"bithub/internal/errmsg"
	"bithub/internal/models"
	"bithub/internal/payout"
	"bithub/internal/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/google/uuid"
)

// GitHub header and form keys used by push deliveries.
const (
	deliveryHeader = "X-GitHub-Delivery"
	payloadField   = "payload"
)

// PushHandler runs the payout algorithm for an admitted push.
type PushHandler interface {
	HandlePush(ctx context.Context, deliveryID string, event models.PushEvent) (payout.Result, error)
}

type pushResponse struct {
	Ignored   bool `json:"ignored"`
	Qualified int  `json:"qualified"`
	Paid      int  `json:"paid"`
}

// commitsHandler decodes a form encoded push delivery and pays its commits.
//
//	@Summary		Receive a GitHub push
//	@Description	Pays qualifying commits of a push to the default branch. Requires a trusted X-Forwarded-For and basic auth.
//	@Tags			Webhooks
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			payload	formData	string	true	"GitHub push event JSON"
//	@Success		200		{object}	pushResponse
//	@Failure		400		{object}	errmsg._WebhookInvalidPayload
//	@Failure		401		{object}	errmsg._WebhookUnknownRepository
//	@Failure		500		{object}	errmsg._WebhookProviderDown
//	@Router			/v1/github/commits [post]
func commitsHandler(engine PushHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		raw := strings.TrimSpace(c.FormValue(payloadField))
		if raw == "" {
			return utils.StatusError(c, errmsg.WebhookPayloadMissing)
		}

		var event models.PushEvent
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			return utils.StatusError(c, errmsg.WebhookInvalidPayload)
		}

		if strings.TrimSpace(event.Repository.URL) == "" {
			return utils.StatusError(c, errmsg.WebhookInvalidPayload)
		}

		deliveryID := strings.TrimSpace(c.Get(deliveryHeader))
		if deliveryID == "" {
			deliveryID = uuid.NewString()
		}

		// fiber.Ctx carries the request's cancellation as a context.Context.
		res, err := engine.HandlePush(c, deliveryID, event)
		switch {
		case errors.Is(err, payout.ErrUnknownRepository):
			log.Warnf("delivery %s: %v", deliveryID, err)
			return utils.StatusError(c, errmsg.WebhookUnknownRepository)
		case errors.Is(err, payout.ErrMissingRef):
			return utils.StatusError(c, errmsg.WebhookInvalidPayload)
		case errors.Is(err, payout.ErrProviderUnavailable):
			log.Errorf("delivery %s: %v", deliveryID, err)
			return utils.StatusError(c, errmsg.WebhookProviderDown)
		case err != nil:
			return utils.StatusError(c, errmsg.InternalServerError(err))
		}

		paid := 0
		for _, p := range res.Payments {
			if p.Sent {
				paid++
			}
		}

		return c.Status(fiber.StatusOK).JSON(pushResponse{
			Ignored:   res.Ignored,
			Qualified: len(res.Qualified),
			Paid:      paid,
		})
	}
}
