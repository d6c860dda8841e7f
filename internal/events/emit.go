package events

import (
	"context"

	"bithub/internal/models"

	"github.com/google/uuid"
)

const (
	ActorWebhook = "webhook"
	ActorSystem  = "system"
)

const (
	TargetCommit     = "commit"
	TargetRepository = "repository"
	TargetCache      = "cache"
	TargetSource     = "source"
)

// Emit stamps the event and queues it, writing it directly when the buffer
// is full.
func (e *Emitter) Emit(evt models.Event) {
	if e == nil {
		return
	}

	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	evt.TimeStamp = e.now().UTC()
	evt.Deployment = e.deployment

	select {
	case e.buf <- evt:
	default:
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.WriteTimeout)
		defer cancel()

		_ = e.InsertOne(ctx, evt)
	}
}
