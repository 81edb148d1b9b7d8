// internal/service/ledger.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"valley-ledger/internal/domain"
	"valley-ledger/internal/idgen"
	"valley-ledger/internal/notify"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/util"
	"valley-ledger/pkg/db"
)

// Notifier receives balance events after a successful commit.
type Notifier interface {
	Notify(events ...notify.Event)
}

// Engine executes commit units: every balance mutation and every leg of one
// money movement land in a single database transaction or not at all.
// It holds no balances between calls.
type Engine struct {
	dbBeginner   db.DBTxBeginner
	accounts     repository.AccountRepository
	admins       repository.AdminRepository
	cards        repository.CardRepository
	transactions repository.TransactionRepository
	beginTx      db.BeginTxFunc
	commitTx     db.CommitTxFunc
	rollbackTx   db.RollbackTxFunc
	notifier     Notifier
	logger       *slog.Logger
	now          func() time.Time
}

// NewEngine creates a new Engine.
func NewEngine(
	dbBeginner db.DBTxBeginner,
	accounts repository.AccountRepository,
	admins repository.AdminRepository,
	cards repository.CardRepository,
	transactions repository.TransactionRepository,
	tx db.TxFuncs,
	notifier Notifier,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		dbBeginner:   dbBeginner,
		accounts:     accounts,
		admins:       admins,
		cards:        cards,
		transactions: transactions,
		beginTx:      tx.Begin,
		commitTx:     tx.Commit,
		rollbackTx:   tx.Rollback,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

// Commit validates and applies unit. The amount is rounded to cents before
// any check. Failures leave no balance change and no leg behind.
func (e *Engine) Commit(ctx context.Context, unit domain.CommitUnit) (*domain.CommitResult, error) {
	amount := domain.NormalizeAmount(unit.Amount)
	if !amount.IsPositive() {
		return nil, util.ErrInvalidAmount
	}
	if unit.Debit == nil && unit.Credit == nil {
		return nil, fmt.Errorf("%w: commit unit has no postings", util.ErrInvalidInput)
	}
	for _, p := range []*domain.Posting{unit.Debit, unit.Credit} {
		if p != nil && !p.Party.AllowsBucket(p.Bucket) {
			return nil, fmt.Errorf("%w: %s has no %q bucket", util.ErrInvalidBucket, p.Party, p.Bucket)
		}
	}
	if unit.Debit.SameParty(unit.Credit) {
		return nil, util.ErrSelfTransfer
	}

	correlationID := unit.CorrelationID
	if correlationID == "" {
		correlationID = idgen.CorrelationID()
	}
	status := unit.Status
	if status == "" {
		status = domain.TransactionStatusCompleted
	}

	txController, err := e.beginTx(ctx, e.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("commit: failed to begin transaction: %w: %w", util.ErrStorage, err)
	}
	defer e.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("commit: transaction controller does not implement DBExecutor")
	}

	locked, err := e.lockParties(ctx, txExecutor, unit.Debit, unit.Credit)
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if unit.Debit != nil {
		if locked[unit.Debit].LessThan(amount) {
			return nil, util.ErrInsufficientFunds
		}
		if err := e.debit(ctx, txExecutor, unit.Debit, amount); err != nil {
			return nil, fmt.Errorf("commit: debit %s %s: %w", unit.Debit.Party, unit.Debit.PartyID, err)
		}
	}
	if unit.Credit != nil {
		if err := e.credit(ctx, txExecutor, unit.Credit, amount); err != nil {
			return nil, fmt.Errorf("commit: credit %s %s: %w", unit.Credit.Party, unit.Credit.PartyID, err)
		}
	}

	result := &domain.CommitResult{CorrelationID: correlationID}
	createdAt := e.now().UTC()
	for _, side := range []struct {
		posting   *domain.Posting
		direction domain.Direction
		after     *decimal.Decimal
	}{
		{unit.Debit, domain.DirectionOutflow, &result.DebitBalance},
		{unit.Credit, domain.DirectionInflow, &result.CreditBalance},
	} {
		if side.posting == nil {
			continue
		}
		balance, err := e.balanceOf(ctx, txExecutor, side.posting)
		if err != nil {
			return nil, fmt.Errorf("commit: failed to re-fetch %s %s: %w", side.posting.Party, side.posting.PartyID, err)
		}
		*side.after = balance

		leg := &domain.Transaction{
			OwnerID:       side.posting.OwnerID,
			OwnerKind:     side.posting.OwnerKind(),
			Direction:     side.direction,
			Amount:        amount,
			Description:   side.posting.Description,
			AccountType:   side.posting.Bucket,
			BalanceAfter:  balance,
			CorrelationID: correlationID,
			Status:        status,
			CreatedAt:     createdAt,
		}
		if err := e.transactions.Create(ctx, txExecutor, leg); err != nil {
			return nil, fmt.Errorf("commit: failed to record %s leg: %w", side.direction, err)
		}
		result.Legs = append(result.Legs, leg)
	}

	if err := e.commitTx(txController); err != nil {
		return nil, fmt.Errorf("commit: failed to commit transaction: %w: %w", util.ErrStorage, err)
	}

	e.logger.Info("Ledger unit committed",
		"correlation_id", correlationID,
		"amount", amount.StringFixed(domain.MoneyPlaces),
		"legs", len(result.Legs),
	)
	if e.notifier != nil {
		e.notifier.Notify(notify.FromLegs(result.Legs)...)
	}
	return result, nil
}

// lockParties locks every party row in a fixed order (kind, then id) so two
// units touching the same rows cannot deadlock, and re-checks each party
// under the lock.
func (e *Engine) lockParties(ctx context.Context, q repository.DBExecutor, postings ...*domain.Posting) (map[*domain.Posting]decimal.Decimal, error) {
	ordered := make([]*domain.Posting, 0, len(postings))
	for _, p := range postings {
		if p != nil {
			ordered = append(ordered, p)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Party != ordered[j].Party {
			return ordered[i].Party < ordered[j].Party
		}
		return ordered[i].PartyID.String() < ordered[j].PartyID.String()
	})

	locked := make(map[*domain.Posting]decimal.Decimal, len(ordered))
	for _, p := range ordered {
		balance, err := e.lockParty(ctx, q, p)
		if err != nil {
			return nil, err
		}
		locked[p] = balance
	}
	return locked, nil
}

func (e *Engine) lockParty(ctx context.Context, q repository.DBExecutor, p *domain.Posting) (decimal.Decimal, error) {
	switch p.Party {
	case domain.PartyUser:
		account, err := e.accounts.GetByIDForUpdate(ctx, q, p.PartyID)
		if err != nil {
			return decimal.Zero, err
		}
		if account.IsDeleted {
			return decimal.Zero, util.ErrPartyNotFound
		}
		if !account.IsActive {
			return decimal.Zero, fmt.Errorf("%w: account %s is deactivated", util.ErrInvalidState, account.ID)
		}
		balance, _ := account.Balance(p.Bucket)
		return balance, nil
	case domain.PartyAdmin:
		admin, err := e.admins.GetByIDForUpdate(ctx, q, p.PartyID)
		if err != nil {
			return decimal.Zero, err
		}
		if admin.IsDeleted {
			return decimal.Zero, util.ErrPartyNotFound
		}
		if !admin.IsActive {
			return decimal.Zero, fmt.Errorf("%w: admin %s is deactivated", util.ErrInvalidState, admin.ID)
		}
		return admin.Wallet, nil
	case domain.PartyCard:
		card, err := e.cards.GetByIDForUpdate(ctx, q, p.PartyID)
		if err != nil {
			return decimal.Zero, err
		}
		if card.UserID != p.OwnerID {
			return decimal.Zero, util.ErrCardNotFound
		}
		if !card.Eligible() {
			return decimal.Zero, util.ErrCardNotEligible
		}
		return card.Balance, nil
	default:
		return decimal.Zero, util.ErrInvalidBucket
	}
}

func (e *Engine) debit(ctx context.Context, q repository.DBExecutor, p *domain.Posting, amount decimal.Decimal) error {
	switch p.Party {
	case domain.PartyUser:
		return e.accounts.Debit(ctx, q, p.PartyID, p.Bucket, amount)
	case domain.PartyAdmin:
		return e.admins.DebitWallet(ctx, q, p.PartyID, amount)
	default:
		return e.cards.DebitBalance(ctx, q, p.PartyID, amount)
	}
}

func (e *Engine) credit(ctx context.Context, q repository.DBExecutor, p *domain.Posting, amount decimal.Decimal) error {
	switch p.Party {
	case domain.PartyUser:
		return e.accounts.Credit(ctx, q, p.PartyID, p.Bucket, amount)
	case domain.PartyAdmin:
		return e.admins.CreditWallet(ctx, q, p.PartyID, amount)
	default:
		return e.cards.CreditBalance(ctx, q, p.PartyID, amount)
	}
}

func (e *Engine) balanceOf(ctx context.Context, q repository.DBExecutor, p *domain.Posting) (decimal.Decimal, error) {
	switch p.Party {
	case domain.PartyUser:
		account, err := e.accounts.GetByID(ctx, q, p.PartyID)
		if err != nil {
			return decimal.Zero, err
		}
		balance, _ := account.Balance(p.Bucket)
		return balance, nil
	case domain.PartyAdmin:
		admin, err := e.admins.GetByID(ctx, q, p.PartyID)
		if err != nil {
			return decimal.Zero, err
		}
		return admin.Wallet, nil
	default:
		card, err := e.cards.GetByID(ctx, q, p.PartyID)
		if err != nil {
			return decimal.Zero, err
		}
		return card.Balance, nil
	}
}
