package events

import (
	"bithub/internal/models"

	"github.com/shopspring/decimal"
)

// WebhookRejected records a delivery turned away by the ingress guard.
func (e *Emitter) WebhookRejected(sourceIP, reason string) {
	if e == nil {
		return
	}

	e.Emit(models.Event{
		Action: "webhook.rejected",

		ActorRole: ActorWebhook,
		ActorID:   sourceIP,

		TargetType: TargetSource,
		TargetID:   sourceIP,

		Props: map[string]any{
			"reason": reason,
		},
	})
}

// PushIgnored records a push to a branch other than the default one.
func (e *Emitter) PushIgnored(deliveryID, repoURL, ref string) {
	if e == nil {
		return
	}

	e.Emit(models.Event{
		Action: "webhook.push.ignored",

		ActorRole: ActorWebhook,
		ActorID:   deliveryID,

		TargetType: TargetRepository,
		TargetID:   repoURL,

		Props: map[string]any{
			"ref": ref,
		},
	})
}

// PayoutSent records a completed commit payment.
func (e *Emitter) PayoutSent(deliveryID string, commit models.Commit, amount decimal.Decimal) {
	if e == nil {
		return
	}

	e.Emit(models.Event{
		Action: "payout.sent",

		ActorRole: ActorWebhook,
		ActorID:   deliveryID,

		TargetType: TargetCommit,
		TargetID:   commit.ID,

		Props: map[string]any{
			"destination": commit.Author.Email,
			"username":    commit.Author.Username,
			"amount":      amount.String(),
			"url":         commit.URL,
		},
	})
}

// PayoutFailed records a payment the provider did not complete.
func (e *Emitter) PayoutFailed(deliveryID string, commit models.Commit, amount decimal.Decimal, reason string) {
	if e == nil {
		return
	}

	e.Emit(models.Event{
		Action: "payout.failed",

		ActorRole: ActorWebhook,
		ActorID:   deliveryID,

		TargetType: TargetCommit,
		TargetID:   commit.ID,

		Props: map[string]any{
			"destination": commit.Author.Email,
			"amount":      amount.String(),
			"reason":      reason,
		},
	})
}

// CommentFailed records a commit comment the source host refused.
func (e *Emitter) CommentFailed(deliveryID string, commit models.Commit, reason string) {
	if e == nil {
		return
	}

	e.Emit(models.Event{
		Action: "payout.comment_failed",

		ActorRole: ActorWebhook,
		ActorID:   deliveryID,

		TargetType: TargetCommit,
		TargetID:   commit.ID,

		Props: map[string]any{
			"reason": reason,
		},
	})
}

// CacheRefreshed records a refresh cycle and the payout it published.
func (e *Emitter) CacheRefreshed(payment string, transactions, repositories int) {
	if e == nil {
		return
	}

	e.Emit(models.Event{
		Action: "cache.refreshed",

		ActorRole: ActorSystem,
		ActorID:   "cache",

		TargetType: TargetCache,
		TargetID:   "status",

		Props: map[string]any{
			"payment":      payment,
			"transactions": transactions,
			"repositories": repositories,
		},
	})
}

// CacheRefreshFailed records a refresh cycle that kept stale values.
func (e *Emitter) CacheRefreshFailed(reason string) {
	if e == nil {
		return
	}

	e.Emit(models.Event{
		Action: "cache.refresh_failed",

		ActorRole: ActorSystem,
		ActorID:   "cache",

		TargetType: TargetCache,
		TargetID:   "status",

		Props: map[string]any{
			"reason": reason,
		},
	})
}
