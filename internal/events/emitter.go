package events

import (
	"context"
	"strings"
	"sync"
	"time"

	"bithub/internal/models"

	"github.com/gofiber/fiber/v3/log"
	"go.mongodb.org/mongo-driver/mongo"
)

// Em is the process wide emitter. A nil Em drops events.
var Em *Emitter

// Config is the audit write policy. Events are written in batches of
// BatchSize or every FlushEvery, whichever comes first. An event whose
// action starts with one of UrgentPrefixes flushes its batch at once.
type Config struct {
	Buffer         int
	BatchSize      int
	FlushEvery     time.Duration
	WriteTimeout   time.Duration
	UrgentPrefixes []string
}

// payoutPrefix marks events recording money movement.
const payoutPrefix = "payout."

var (
	prodConfig = Config{
		Buffer:         1000,
		BatchSize:      50,
		FlushEvery:     2 * time.Second,
		WriteTimeout:   2 * time.Second,
		UrgentPrefixes: []string{payoutPrefix},
	}
	devConfig = Config{
		Buffer:         100,
		BatchSize:      10,
		FlushEvery:     50 * time.Millisecond,
		WriteTimeout:   time.Second,
		UrgentPrefixes: []string{payoutPrefix},
	}
)

// ConfigFor returns the write policy of a deployment profile. Unknown
// profiles get the production policy.
func ConfigFor(deployment string) Config {
	switch strings.TrimSpace(deployment) {
	case "dev", "test":
		return devConfig
	default:
		return prodConfig
	}
}

// Emitter batches audit events into a Mongo collection from a single
// worker goroutine.
type Emitter struct {
	coll       *mongo.Collection
	buf        chan models.Event
	cfg        Config
	deployment string
	now        func() time.Time

	wg        sync.WaitGroup
	onceClose sync.Once

	InsertOne  func(context.Context, models.Event) error
	InsertMany func(context.Context, []models.Event) error
}

func NewEmitter(coll *mongo.Collection, deployment string) *Emitter {
	return NewEmitterWithConfig(coll, deployment, ConfigFor(deployment))
}

func NewEmitterWithConfig(coll *mongo.Collection, deployment string, cfg Config) *Emitter {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = prodConfig.FlushEvery
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = prodConfig.WriteTimeout
	}

	e := &Emitter{
		coll:       coll,
		buf:        make(chan models.Event, cfg.Buffer),
		cfg:        cfg,
		deployment: deployment,
		now:        time.Now,
	}

	e.InsertOne = func(ctx context.Context, evt models.Event) error {
		_, err := e.coll.InsertOne(ctx, evt)
		return err
	}

	e.InsertMany = func(ctx context.Context, evts []models.Event) error {
		docs := make([]interface{}, len(evts))
		for i, evt := range evts {
			docs[i] = evt
		}

		_, err := e.coll.InsertMany(ctx, docs)
		return err
	}

	e.wg.Add(1)
	go e.worker()

	return e
}

// Close flushes queued events and stops the worker.
func (e *Emitter) Close() {
	if e == nil {
		return
	}

	e.onceClose.Do(func() {
		close(e.buf)
		e.wg.Wait()
	})
}

func (e *Emitter) urgent(evt models.Event) bool {
	for _, prefix := range e.cfg.UrgentPrefixes {
		if strings.HasPrefix(evt.Action, prefix) {
			return true
		}
	}
	return false
}

// write stores a batch, retrying event by event when the batch insert
// fails so one bad document does not drop a payout record.
func (e *Emitter) write(batch []models.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.WriteTimeout)
	defer cancel()

	err := e.InsertMany(ctx, batch)
	if err == nil {
		return
	}

	log.Warnf("[Events] Batch of %d failed, writing one by one: %v", len(batch), err)

	for _, evt := range batch {
		oneCtx, oneCancel := context.WithTimeout(context.Background(), e.cfg.WriteTimeout)
		if err := e.InsertOne(oneCtx, evt); err != nil {
			log.Errorf("[Events] Dropped %s for %s %s: %v", evt.Action, evt.TargetType, evt.TargetID, err)
		}
		oneCancel()
	}
}

func (e *Emitter) worker() {
	defer e.wg.Done()

	batch := make([]models.Event, 0, e.cfg.BatchSize)
	timer := time.NewTimer(e.cfg.FlushEvery)

	defer timer.Stop()

	flush := func() {
		if len(batch) > 0 {
			e.write(batch)
			batch = batch[:0]
		}
		timer.Reset(e.cfg.FlushEvery)
	}

	for {
		select {
		case evt, ok := <-e.buf:
			if !ok {
				flush()
				return
			}

			batch = append(batch, evt)

			if len(batch) >= e.cfg.BatchSize || e.urgent(evt) {
				flush()
			}
		case <-timer.C:
			flush()
		}
	}
}
