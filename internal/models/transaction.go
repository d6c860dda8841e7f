package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionCompleted is the provider status of a settled transfer.
const TransactionCompleted = "completed"

// ProviderTransaction is a raw transaction as listed by the payment provider.
type ProviderTransaction struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Notes     string          `json:"notes"`
	Status    string          `json:"status"`
	CreatedAt string          `json:"created_at"`
}

// IsSent reports whether the transaction moved funds out of the account.
func (t ProviderTransaction) IsSent() bool {
	return t.Amount.IsNegative()
}

// Transaction is one entry of the public recent transactions list.
type Transaction struct {
	Destination string `json:"destination" bson:"destination"`
	Amount      string `json:"amount" bson:"amount"`
	AmountInBTC string `json:"amountInBTC" bson:"amountInBTC"`
	CommitURL   string `json:"commitUrl" bson:"commitUrl"`
	CommitSha   string `json:"commitSha" bson:"commitSha"`
	Timestamp   string `json:"timestamp" bson:"timestamp"`
	Description string `json:"description" bson:"description"`
}

// CurrentPayment is the USD value the next qualifying commit would receive.
type CurrentPayment struct {
	Amount      decimal.Decimal `json:"-"`
	RefreshedAt time.Time       `json:"-"`
}

// PaymentView is the wire form of CurrentPayment.
type PaymentView struct {
	Payment     string    `json:"payment"`
	RefreshedAt time.Time `json:"refreshedAt"`
}

// View renders the payment with two decimal places.
func (p CurrentPayment) View() PaymentView {
	return PaymentView{
		Payment:     p.Amount.StringFixed(2),
		RefreshedAt: p.RefreshedAt,
	}
}
