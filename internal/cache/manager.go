// Package cache keeps periodically refreshed snapshots of the public status
// data so read endpoints never wait on the providers.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"bithub/internal/events"
	"bithub/internal/memo"
	"bithub/internal/models"
	"bithub/internal/money"
	"bithub/internal/providers"

	"github.com/gofiber/fiber/v3/log"
	"github.com/shopspring/decimal"
)

const (
	DefaultInterval        = time.Minute
	DefaultMaxTransactions = 10

	timestampLayout = "2006-01-02T15:04:05-0700"
)

type Config struct {
	Interval        time.Duration
	PayoutRate      decimal.Decimal
	Repositories    []string
	MaxTransactions int
}

// Snapshot is the full published state after a refresh cycle.
type Snapshot struct {
	Payment      models.CurrentPayment
	Transactions []models.Transaction
	Repositories []models.Repository
}

// Publisher receives each snapshot after a refresh cycle.
type Publisher interface {
	Publish(ctx context.Context, snap Snapshot) error
}

type Option func(*Manager)

// WithPublisher mirrors every refreshed snapshot to p.
func WithPublisher(p Publisher) Option {
	return func(m *Manager) {
		m.publisher = p
	}
}

// WithClock overrides the refresh timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager owns three independently refreshed snapshots: the current payout,
// the recent transactions and the repository metadata.
type Manager struct {
	cfg       Config
	payments  providers.PaymentProvider
	source    providers.SourceHost
	publisher Publisher
	now       func() time.Time

	payment      atomic.Pointer[models.CurrentPayment]
	transactions atomic.Pointer[[]models.Transaction]
	repositories atomic.Pointer[[]models.Repository]

	refreshMu sync.Mutex

	subsMu  sync.Mutex
	subs    map[int]chan models.CurrentPayment
	nextSub int

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewManager(cfg Config, payments providers.PaymentProvider, source providers.SourceHost, opts ...Option) *Manager {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxTransactions <= 0 {
		cfg.MaxTransactions = DefaultMaxTransactions
	}

	m := &Manager{
		cfg:      cfg,
		payments: payments,
		source:   source,
		now:      time.Now,
		subs:     make(map[int]chan models.CurrentPayment),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start populates every snapshot before returning and then refreshes them
// on the configured interval until Stop. An initial population error is
// returned and no background refresh is started.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	if err := m.Refresh(ctx); err != nil {
		return fmt.Errorf("initial cache population: %w", err)
	}

	m.stopCh = make(chan struct{})
	m.running = true

	m.wg.Add(1)
	go m.refreshWorker(m.stopCh)

	log.Infof("[Cache Manager] Started (interval: %s)", m.cfg.Interval)
	return nil
}

// Stop halts the background refresh and waits for an in-flight cycle.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	close(m.stopCh)
	m.running = false
	m.wg.Wait()

	log.Info("[Cache Manager] Stopped")
}

func (m *Manager) refreshWorker(stopCh <-chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-stopCh
		cancel()
	}()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if err := m.Refresh(ctx); err != nil {
				log.Warnf("[Cache Manager] Refresh kept stale values: %v", err)
			}
		}
	}
}

// Refresh recomputes all three snapshots. Each one is replaced only when
// its own computation succeeds; the joined errors of the others are
// returned. Concurrent calls run one at a time.
func (m *Manager) Refresh(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	var errs []error

	payment, err := m.computePayment(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("current payout: %w", err))
	} else {
		m.payment.Store(&payment)
		m.broadcast(payment)
	}

	transactions, err := m.computeTransactions(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("recent transactions: %w", err))
	} else {
		m.transactions.Store(&transactions)
	}

	repositories, err := m.computeRepositories(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("repositories: %w", err))
	} else {
		m.repositories.Store(&repositories)
	}

	snap := m.Snapshot()

	joined := errors.Join(errs...)
	if joined != nil {
		events.Em.CacheRefreshFailed(joined.Error())
	} else {
		events.Em.CacheRefreshed(snap.Payment.Amount.StringFixed(money.USDPlaces), len(snap.Transactions), len(snap.Repositories))
	}

	if m.publisher != nil {
		if err := m.publisher.Publish(ctx, snap); err != nil {
			log.Warnf("[Cache Manager] Publish failed: %v", err)
		}
	}

	return joined
}

// CurrentPayout returns the last published payout. It never blocks on I/O.
func (m *Manager) CurrentPayout() models.CurrentPayment {
	if p := m.payment.Load(); p != nil {
		return *p
	}
	return models.CurrentPayment{}
}

// RecentTransactions returns a copy of the last published transactions.
func (m *Manager) RecentTransactions() []models.Transaction {
	p := m.transactions.Load()
	if p == nil {
		return []models.Transaction{}
	}
	return append([]models.Transaction{}, (*p)...)
}

// Repositories returns a copy of the last published repository metadata.
func (m *Manager) Repositories() []models.Repository {
	p := m.repositories.Load()
	if p == nil {
		return []models.Repository{}
	}
	return append([]models.Repository{}, (*p)...)
}

// Snapshot returns copies of all three published values.
func (m *Manager) Snapshot() Snapshot {
	return Snapshot{
		Payment:      m.CurrentPayout(),
		Transactions: m.RecentTransactions(),
		Repositories: m.Repositories(),
	}
}

// Subscribe delivers every newly published payout until the returned
// cancel func is called. Slow subscribers miss updates.
func (m *Manager) Subscribe() (<-chan models.CurrentPayment, func()) {
	ch := make(chan models.CurrentPayment, 1)

	m.subsMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subsMu.Lock()
			delete(m.subs, id)
			m.subsMu.Unlock()
		})
	}
}

func (m *Manager) broadcast(payment models.CurrentPayment) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	for _, ch := range m.subs {
		select {
		case ch <- payment:
		default:
		}
	}
}

func (m *Manager) computePayment(ctx context.Context) (models.CurrentPayment, error) {
	balance, err := m.payments.AccountBalance(ctx)
	if err != nil {
		return models.CurrentPayment{}, err
	}

	rate, err := m.payments.ExchangeRate(ctx)
	if err != nil {
		return models.CurrentPayment{}, err
	}

	return models.CurrentPayment{
		Amount:      money.ToUSD(balance.Mul(m.cfg.PayoutRate), rate),
		RefreshedAt: m.now(),
	}, nil
}

func (m *Manager) computeTransactions(ctx context.Context) ([]models.Transaction, error) {
	recent, err := m.payments.RecentTransactions(ctx)
	if err != nil {
		return nil, err
	}

	rate, err := m.payments.ExchangeRate(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Transaction, 0, m.cfg.MaxTransactions)
	for _, tx := range recent {
		if !tx.IsSent() {
			continue
		}

		note, err := memo.Parse(tx.Notes)
		if err != nil {
			log.Warnf("[Cache Manager] Skipping transaction %s: %v", tx.ID, err)
			continue
		}

		description, err := m.source.CommitDescription(ctx, note.URL)
		if err != nil {
			log.Warnf("[Cache Manager] No description for %s: %v", note.URL, err)
			description = ""
		}

		out = append(out, models.Transaction{
			Destination: note.Destination,
			Amount:      money.FormatUSD(tx.Amount.Abs().Mul(rate)),
			AmountInBTC: money.FormatBTC(tx.Amount),
			CommitURL:   note.URL,
			CommitSha:   note.ShortSha,
			Timestamp:   formatTimestamp(tx.CreatedAt),
			Description: description,
		})

		if len(out) >= m.cfg.MaxTransactions {
			break
		}
	}

	return out, nil
}

func (m *Manager) computeRepositories(ctx context.Context) ([]models.Repository, error) {
	out := make([]models.Repository, 0, len(m.cfg.Repositories))
	for _, url := range m.cfg.Repositories {
		repo, err := m.source.Repository(ctx, url)
		if err != nil {
			return nil, err
		}
		out = append(out, repo)
	}
	return out, nil
}

func formatTimestamp(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.Format(timestampLayout)
}
