// Package payout decides which commits of a push earn a payment and pays
// them out of the provider balance one after another.
package payout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bithub/internal/events"
	"bithub/internal/memo"
	"bithub/internal/models"
	"bithub/internal/money"
	"bithub/internal/policy"
	"bithub/internal/providers"

	"github.com/gofiber/fiber/v3/log"
	"github.com/shopspring/decimal"
)

// DefaultRef is the only ref whose pushes are paid when the payload names
// no default branch.
const DefaultRef = "refs/heads/master"

const branchRefPrefix = "refs/heads/"

var (
	ErrUnknownRepository   = errors.New("unknown repository")
	ErrMissingRef          = errors.New("push has no ref")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

const (
	paidCommentFormat = "Thanks! BitHub has sent payment of $%s USD for this commit."
	zeroBalanceNote   = "Thanks! Unfortunately our BitHub balance is $0.00, so no payout can be made."
)

type Config struct {
	// PayoutRate is the fraction of the running balance paid per commit.
	PayoutRate decimal.Decimal
	// DefaultRef applies when the payload names no default branch.
	DefaultRef string
}

// Engine runs the payout algorithm for admitted push events.
type Engine struct {
	cfg      Config
	policy   *policy.Policy
	payments providers.PaymentProvider
	source   providers.SourceHost
}

func NewEngine(cfg Config, pol *policy.Policy, payments providers.PaymentProvider, source providers.SourceHost) *Engine {
	if strings.TrimSpace(cfg.DefaultRef) == "" {
		cfg.DefaultRef = DefaultRef
	}

	return &Engine{
		cfg:      cfg,
		policy:   pol,
		payments: payments,
		source:   source,
	}
}

// PaymentOutcome describes what happened to one qualifying commit.
type PaymentOutcome struct {
	Commit      models.Commit
	Amount      decimal.Decimal
	Sent        bool
	TransferErr error
	Comment     string
	CommentErr  error
}

// Result summarises a handled push.
type Result struct {
	Ignored   bool
	Mode      policy.Mode
	Qualified []models.Commit
	Payments  []PaymentOutcome
}

// HandlePush authorizes the repository, filters the branch and pays every
// qualifying commit. Transfer and comment failures are recorded in the
// result and never abort the batch.
func (e *Engine) HandlePush(ctx context.Context, deliveryID string, event models.PushEvent) (Result, error) {
	repoURL := event.Repository.URL

	mode, ok := e.policy.Lookup(repoURL)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownRepository, repoURL)
	}

	if strings.TrimSpace(event.Ref) == "" {
		return Result{Mode: mode}, fmt.Errorf("%w: %s", ErrMissingRef, repoURL)
	}

	if ref := e.defaultRef(event.Repository); event.Ref != ref {
		log.Infof("ignoring push to %s on %s, not %s", event.Ref, repoURL, ref)
		events.Em.PushIgnored(deliveryID, repoURL, event.Ref)
		return Result{Ignored: true, Mode: mode}, nil
	}

	qualified := QualifyingCommits(event.Commits, mode)

	balance, err := e.payments.AccountBalance(ctx)
	if err != nil {
		return Result{Mode: mode, Qualified: qualified}, fmt.Errorf("%w: balance: %v", ErrProviderUnavailable, err)
	}

	exchangeRate, err := e.payments.ExchangeRate(ctx)
	if err != nil {
		return Result{Mode: mode, Qualified: qualified}, fmt.Errorf("%w: exchange rate: %v", ErrProviderUnavailable, err)
	}

	log.Infof("push to %s: %d of %d commits qualify, balance %s BTC", repoURL, len(qualified), len(event.Commits), balance.String())

	return Result{
		Mode:      mode,
		Qualified: qualified,
		Payments:  e.distribute(ctx, deliveryID, event.Repository, qualified, balance, exchangeRate),
	}, nil
}

// distribute pays each commit payoutRate of the running balance. The
// running balance drops by the intended payout whether or not the transfer
// completed.
func (e *Engine) distribute(
	ctx context.Context,
	deliveryID string,
	repo models.PushRepository,
	commits []models.Commit,
	balance decimal.Decimal,
	exchangeRate decimal.Decimal,
) []PaymentOutcome {
	outcomes := make([]PaymentOutcome, 0, len(commits))
	running := balance

	for _, commit := range commits {
		payout := running.Mul(e.cfg.PayoutRate)
		outcome := PaymentOutcome{Commit: commit, Amount: payout}

		if payout.IsPositive() {
			note := memo.Format(commit.Author.Username, commit.URL)
			if err := e.payments.SendPayment(ctx, commit.Author.Email, payout, note); err != nil {
				outcome.TransferErr = err
				log.Warnf("payment of %s BTC to %s for %s failed: %v", payout.String(), commit.Author.Email, commit.ID, err)
				events.Em.PayoutFailed(deliveryID, commit, payout, err.Error())
			} else {
				outcome.Sent = true
				events.Em.PayoutSent(deliveryID, commit, payout)
			}
		}

		running = running.Sub(payout)

		outcome.Comment = CommentFor(payout, exchangeRate)
		if err := e.source.AddCommitComment(ctx, repo, commit, outcome.Comment); err != nil {
			outcome.CommentErr = err
			log.Warnf("comment on %s failed: %v", commit.ID, err)
			events.Em.CommentFailed(deliveryID, commit, err.Error())
		}

		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func (e *Engine) defaultRef(repo models.PushRepository) string {
	if branch := strings.TrimSpace(repo.DefaultBranch); branch != "" {
		return branchRefPrefix + branch
	}
	if branch := strings.TrimSpace(repo.MasterBranch); branch != "" {
		return branchRefPrefix + branch
	}
	return e.cfg.DefaultRef
}

// QualifyingCommits keeps, in payload order, the first commit per author
// email whose message qualifies under mode. An author whose earlier commit
// did not qualify may still qualify with a later one.
func QualifyingCommits(commits []models.Commit, mode policy.Mode) []models.Commit {
	seen := make(map[string]struct{}, len(commits))
	out := make([]models.Commit, 0, len(commits))

	for _, commit := range commits {
		if _, dup := seen[commit.Author.Email]; dup {
			continue
		}
		if !policy.Qualifies(commit.Message, mode) {
			continue
		}

		seen[commit.Author.Email] = struct{}{}
		out = append(out, commit)
	}

	return out
}

// CommentFor renders the commit comment for a payout.
func CommentFor(payout, exchangeRate decimal.Decimal) string {
	if !payout.IsPositive() {
		return zeroBalanceNote
	}
	return fmt.Sprintf(paidCommentFormat, money.FormatUSD(payout.Mul(exchangeRate)))
}
