// Package providerstest offers in-memory provider fakes for tests.
package providerstest

import (
	"context"
	"sync"

	"bithub/internal/models"

	"github.com/shopspring/decimal"
)

// Payment is a recorded SendPayment call.
type Payment struct {
	Destination string
	Amount      decimal.Decimal
	Note        string
}

// PaymentProvider is a configurable fake. Nil funcs fall back to the
// Balance, Rate and Transactions fields.
type PaymentProvider struct {
	mu sync.Mutex

	Balance      decimal.Decimal
	Rate         decimal.Decimal
	Transactions []models.ProviderTransaction

	AccountBalanceFunc     func(ctx context.Context) (decimal.Decimal, error)
	ExchangeRateFunc       func(ctx context.Context) (decimal.Decimal, error)
	SendPaymentFunc        func(ctx context.Context, destination string, amount decimal.Decimal, note string) error
	RecentTransactionsFunc func(ctx context.Context) ([]models.ProviderTransaction, error)

	BalanceCallCount      int
	RateCallCount         int
	TransactionsCallCount int
	Payments              []Payment
}

func (f *PaymentProvider) AccountBalance(ctx context.Context) (decimal.Decimal, error) {
	f.mu.Lock()
	f.BalanceCallCount++
	fn := f.AccountBalanceFunc
	balance := f.Balance
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return balance, nil
}

func (f *PaymentProvider) ExchangeRate(ctx context.Context) (decimal.Decimal, error) {
	f.mu.Lock()
	f.RateCallCount++
	fn := f.ExchangeRateFunc
	rate := f.Rate
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return rate, nil
}

func (f *PaymentProvider) SendPayment(ctx context.Context, destination string, amount decimal.Decimal, note string) error {
	f.mu.Lock()
	f.Payments = append(f.Payments, Payment{Destination: destination, Amount: amount, Note: note})
	fn := f.SendPaymentFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, destination, amount, note)
	}
	return nil
}

func (f *PaymentProvider) RecentTransactions(ctx context.Context) ([]models.ProviderTransaction, error) {
	f.mu.Lock()
	f.TransactionsCallCount++
	fn := f.RecentTransactionsFunc
	txs := append([]models.ProviderTransaction(nil), f.Transactions...)
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return txs, nil
}

// SentPayments returns a copy of the recorded payments.
func (f *PaymentProvider) SentPayments() []Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Payment(nil), f.Payments...)
}

// Comment is a recorded AddCommitComment call.
type Comment struct {
	RepositoryURL string
	CommitURL     string
	Body          string
}

// SourceHost is a configurable fake source host.
type SourceHost struct {
	mu sync.Mutex

	Repositories map[string]models.Repository
	Descriptions map[string]string

	RepositoryFunc        func(ctx context.Context, url string) (models.Repository, error)
	CommitDescriptionFunc func(ctx context.Context, commitURL string) (string, error)
	AddCommitCommentFunc  func(ctx context.Context, repo models.PushRepository, commit models.Commit, body string) error

	RepositoryCallCount int
	Comments            []Comment
}

func (f *SourceHost) Repository(ctx context.Context, url string) (models.Repository, error) {
	f.mu.Lock()
	f.RepositoryCallCount++
	fn := f.RepositoryFunc
	repo, ok := f.Repositories[url]
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, url)
	}
	if !ok {
		return models.Repository{URL: url}, nil
	}
	return repo, nil
}

func (f *SourceHost) CommitDescription(ctx context.Context, commitURL string) (string, error) {
	f.mu.Lock()
	fn := f.CommitDescriptionFunc
	desc := f.Descriptions[commitURL]
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, commitURL)
	}
	return desc, nil
}

func (f *SourceHost) AddCommitComment(ctx context.Context, repo models.PushRepository, commit models.Commit, body string) error {
	f.mu.Lock()
	f.Comments = append(f.Comments, Comment{RepositoryURL: repo.URL, CommitURL: commit.URL, Body: body})
	fn := f.AddCommitCommentFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, repo, commit, body)
	}
	return nil
}

// PostedComments returns a copy of the recorded comments.
func (f *SourceHost) PostedComments() []Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Comment(nil), f.Comments...)
}
