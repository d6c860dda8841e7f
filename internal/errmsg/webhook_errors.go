package errmsg

import "net/http"

// Webhook StatusError values surfaced by the push handler.
var (
	WebhookUnauthorized      = NewStatusError(http.StatusUnauthorized, "unauthorized")
	WebhookUnknownRepository = NewStatusError(http.StatusUnauthorized, "repository not configured for payouts")
	WebhookPayloadMissing    = NewStatusError(http.StatusBadRequest, "missing payload form field")
	WebhookInvalidPayload    = NewStatusError(http.StatusBadRequest, "invalid webhook payload")
	WebhookProviderDown      = NewStatusError(http.StatusInternalServerError, "payment provider unavailable")
)

type _WebhookUnauthorized struct {
	Message string `json:"message" example:"unauthorized"`
}

type _WebhookUnknownRepository struct {
	Message string `json:"message" example:"repository not configured for payouts"`
}

type _WebhookInvalidPayload struct {
	Message string `json:"message" example:"invalid webhook payload"`
}

type _WebhookProviderDown struct {
	Message string `json:"message" example:"payment provider unavailable"`
}
