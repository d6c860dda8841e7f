// Package providers declares the outbound collaborators of the payout
// service: the payment provider holding the bitcoin balance and the source
// host that owns the repositories.
package providers

import (
	"context"
	"errors"

	"bithub/internal/models"

	"github.com/shopspring/decimal"
)

// ErrTransferFailed is returned when the payment provider did not complete a send.
var ErrTransferFailed = errors.New("transfer failed")

// PaymentProvider moves bitcoin and reports on the account.
type PaymentProvider interface {
	// AccountBalance returns the BTC balance of the primary account.
	AccountBalance(ctx context.Context) (decimal.Decimal, error)
	// ExchangeRate returns the USD value of one BTC.
	ExchangeRate(ctx context.Context) (decimal.Decimal, error)
	// SendPayment sends amount BTC to destination with note attached.
	// Failures wrap ErrTransferFailed.
	SendPayment(ctx context.Context, destination string, amount decimal.Decimal, note string) error
	// RecentTransactions lists the account history, newest first.
	RecentTransactions(ctx context.Context) ([]models.ProviderTransaction, error)
}

// SourceHost reads repository metadata and posts commit comments.
type SourceHost interface {
	Repository(ctx context.Context, url string) (models.Repository, error)
	CommitDescription(ctx context.Context, commitURL string) (string, error)
	AddCommitComment(ctx context.Context, repo models.PushRepository, commit models.Commit, body string) error
}
