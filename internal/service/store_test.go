// internal/service/store_test.go
package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"valley-ledger/internal/domain"
	"valley-ledger/internal/notify"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/util"
	"valley-ledger/pkg/db"
)

// memStore is an in-memory stand-in for the four Postgres repositories.
// Transactions are serialized by txMu and rolled back by restoring a
// snapshot taken at begin, which is enough to observe all-or-nothing
// behavior without a database.
type memStore struct {
	txMu sync.Mutex

	mu       sync.Mutex
	accounts map[uuid.UUID]domain.Account
	admins   map[uuid.UUID]domain.AdminWallet
	cards    map[uuid.UUID]domain.Card
	loans    map[uuid.UUID]domain.LoanApplication
	legs     []domain.Transaction
	nextLeg  int64
	faults   map[string]error
	begins   int
	commits  int
}

type memSnapshot struct {
	accounts map[uuid.UUID]domain.Account
	admins   map[uuid.UUID]domain.AdminWallet
	cards    map[uuid.UUID]domain.Card
	legs     []domain.Transaction
	nextLeg  int64
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[uuid.UUID]domain.Account{},
		admins:   map[uuid.UUID]domain.AdminWallet{},
		cards:    map[uuid.UUID]domain.Card{},
		loans:    map[uuid.UUID]domain.LoanApplication{},
		faults:   map[string]error{},
	}
}

func (s *memStore) fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// fault must be called with mu held.
func (s *memStore) fault(op string) error {
	return s.faults[op]
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		accounts: make(map[uuid.UUID]domain.Account, len(s.accounts)),
		admins:   make(map[uuid.UUID]domain.AdminWallet, len(s.admins)),
		cards:    make(map[uuid.UUID]domain.Card, len(s.cards)),
		legs:     append([]domain.Transaction(nil), s.legs...),
		nextLeg:  s.nextLeg,
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.admins {
		snap.admins[k] = v
	}
	for k, v := range s.cards {
		snap.cards[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts, s.admins, s.cards = snap.accounts, snap.admins, snap.cards
	s.legs, s.nextLeg = snap.legs, snap.nextLeg
}

// txFuncs returns begin/commit/rollback helpers bound to the store.
func (s *memStore) txFuncs() db.TxFuncs {
	return db.TxFuncs{
		Begin: func(ctx context.Context, _ db.DBTxBeginner) (db.TxController, error) {
			s.mu.Lock()
			err := s.fault("begin")
			s.mu.Unlock()
			if err != nil {
				return nil, err
			}
			s.txMu.Lock()
			s.mu.Lock()
			s.begins++
			s.mu.Unlock()
			return &memTx{store: s, snap: s.snapshot()}, nil
		},
		Commit: func(tx db.TxController) error { return tx.Commit() },
		Rollback: func(tx db.TxController) {
			_ = tx.Rollback()
		},
	}
}

func (s *memStore) account(id uuid.UUID) domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id]
}

func (s *memStore) admin(id uuid.UUID) domain.AdminWallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admins[id]
}

func (s *memStore) card(id uuid.UUID) domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cards[id]
}

func (s *memStore) loan(id uuid.UUID) domain.LoanApplication {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loans[id]
}

func (s *memStore) allLegs() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Transaction(nil), s.legs...)
}

// total sums every balance bucket in the store.
func (s *memStore) total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, a := range s.accounts {
		sum = sum.Add(a.Savings).Add(a.Current).Add(a.Loan)
	}
	for _, a := range s.admins {
		sum = sum.Add(a.Wallet)
	}
	for _, c := range s.cards {
		sum = sum.Add(c.Balance)
	}
	return sum
}

func (s *memStore) putAccount(a *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = *a
}

func (s *memStore) putAdmin(a *domain.AdminWallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[a.ID] = *a
}

func (s *memStore) putCard(c *domain.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[c.ID] = *c
}

// memTx is the fake transaction handed out by memStore.txFuncs.
type memTx struct {
	nopExecutor
	store *memStore
	snap  memSnapshot
	done  bool
}

func (t *memTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.store.mu.Lock()
	err := t.store.fault("commit")
	t.store.mu.Unlock()
	if err != nil {
		return err
	}
	t.done = true
	t.store.mu.Lock()
	t.store.commits++
	t.store.mu.Unlock()
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.store.restore(t.snap)
	t.store.txMu.Unlock()
	return nil
}

// nopExecutor satisfies repository.DBExecutor; the memory repositories
// never issue SQL.
type nopExecutor struct{}

var errNoSQL = errors.New("memory store executes no SQL")

func (nopExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return errNoSQL
}

func (nopExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return errNoSQL
}

func (nopExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}

func (nopExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

// memAccounts implements repository.AccountRepository.
type memAccounts struct{ s *memStore }

var _ repository.AccountRepository = memAccounts{}

func (r memAccounts) Create(ctx context.Context, q repository.DBExecutor, account *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Email == account.Email {
			return util.ErrAlreadyExists
		}
	}
	r.s.accounts[account.ID] = *account
	return nil
}

func (r memAccounts) GetByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, util.ErrPartyNotFound
	}
	return &a, nil
}

func (r memAccounts) GetByIDForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Account, error) {
	return r.GetByID(ctx, q, id)
}

func (r memAccounts) GetByEmail(ctx context.Context, q repository.DBExecutor, email string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, util.ErrPartyNotFound
}

func (r memAccounts) GetByAccountNumber(ctx context.Context, q repository.DBExecutor, number string) (*domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if !a.IsDeleted && (a.SavingsAccountNumber == number || a.CurrentAccountNumber == number) {
			return &a, nil
		}
	}
	return nil, util.ErrPartyNotFound
}

func (r memAccounts) AccountNumberExists(ctx context.Context, q repository.DBExecutor, number string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.SavingsAccountNumber == number || a.CurrentAccountNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r memAccounts) List(ctx context.Context, q repository.DBExecutor, filter repository.AccountFilter, limit, offset int) ([]domain.Account, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	live := []domain.Account{}
	for _, a := range r.s.accounts {
		if a.IsDeleted || (filter.Active != nil && a.IsActive != *filter.Active) {
			continue
		}
		live = append(live, a)
	}
	sort.Slice(live, func(i, j int) bool { return live[i].CreatedAt.After(live[j].CreatedAt) })
	return page(live, limit, offset), int64(len(live)), nil
}

func (r memAccounts) ListDeleted(ctx context.Context, q repository.DBExecutor, limit, offset int) ([]domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	deleted := []domain.Account{}
	for _, a := range r.s.accounts {
		if a.IsDeleted {
			deleted = append(deleted, a)
		}
	}
	return page(deleted, limit, offset), nil
}

func (r memAccounts) Debit(ctx context.Context, q repository.DBExecutor, id uuid.UUID, bucket domain.Bucket, amount decimal.Decimal) error {
	return r.move(id, bucket, amount.Neg(), "account.debit")
}

func (r memAccounts) Credit(ctx context.Context, q repository.DBExecutor, id uuid.UUID, bucket domain.Bucket, amount decimal.Decimal) error {
	return r.move(id, bucket, amount, "account.credit")
}

func (r memAccounts) move(id uuid.UUID, bucket domain.Bucket, delta decimal.Decimal, op string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(op); err != nil {
		return err
	}
	a, ok := r.s.accounts[id]
	if !ok {
		return util.ErrPartyNotFound
	}
	balance, ok := a.Balance(bucket)
	if !ok {
		return util.ErrInvalidBucket
	}
	balance = balance.Add(delta)
	if balance.IsNegative() {
		return util.ErrInsufficientFunds
	}
	switch bucket {
	case domain.BucketSavings:
		a.Savings = balance
	case domain.BucketCurrent:
		a.Current = balance
	case domain.BucketLoan:
		a.Loan = balance
	}
	if delta.IsNegative() {
		a.Outflow = a.Outflow.Sub(delta)
	} else {
		a.Inflow = a.Inflow.Add(delta)
	}
	r.s.accounts[id] = a
	return nil
}

func (r memAccounts) SetTransactionPin(ctx context.Context, q repository.DBExecutor, id uuid.UUID, pinHash string) error {
	return r.update(id, func(a *domain.Account) error {
		a.TransactionPinHash = &pinHash
		return nil
	})
}

func (r memAccounts) Deactivate(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, actorRole domain.Role, at time.Time) error {
	return r.update(id, func(a *domain.Account) error {
		if !a.IsActive || a.IsDeleted {
			return util.ErrInvalidState
		}
		a.IsActive, a.DeactivatedBy, a.DeactivatedByRole, a.DeactivatedAt = false, &actorID, &actorRole, &at
		return nil
	})
}

func (r memAccounts) Reactivate(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, at time.Time) error {
	return r.update(id, func(a *domain.Account) error {
		if a.IsActive || a.IsDeleted {
			return util.ErrInvalidState
		}
		a.IsActive, a.ReactivatedBy, a.ReactivatedAt = true, &actorID, &at
		a.DeactivatedBy, a.DeactivatedByRole, a.DeactivatedAt = nil, nil, nil
		return nil
	})
}

func (r memAccounts) SoftDelete(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, actorRole domain.Role, at time.Time) error {
	return r.update(id, func(a *domain.Account) error {
		if a.IsDeleted {
			return util.ErrInvalidState
		}
		a.IsDeleted, a.DeletedBy, a.DeletedByRole, a.DeletedAt = true, &actorID, &actorRole, &at
		return nil
	})
}

func (r memAccounts) Restore(ctx context.Context, q repository.DBExecutor, id uuid.UUID) error {
	return r.update(id, func(a *domain.Account) error {
		if !a.IsDeleted {
			return util.ErrInvalidState
		}
		a.IsDeleted, a.DeletedBy, a.DeletedByRole, a.DeletedAt = false, nil, nil, nil
		return nil
	})
}

func (r memAccounts) Delete(ctx context.Context, q repository.DBExecutor, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("account.delete"); err != nil {
		return err
	}
	if _, ok := r.s.accounts[id]; !ok {
		return util.ErrPartyNotFound
	}
	delete(r.s.accounts, id)
	return nil
}

func (r memAccounts) update(id uuid.UUID, fn func(a *domain.Account) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return util.ErrPartyNotFound
	}
	if err := fn(&a); err != nil {
		return err
	}
	r.s.accounts[id] = a
	return nil
}

// memAdmins implements repository.AdminRepository.
type memAdmins struct{ s *memStore }

var _ repository.AdminRepository = memAdmins{}

func (r memAdmins) Create(ctx context.Context, q repository.DBExecutor, admin *domain.AdminWallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.admins {
		if a.Email == admin.Email || a.Username == admin.Username {
			return util.ErrAlreadyExists
		}
	}
	r.s.admins[admin.ID] = *admin
	return nil
}

func (r memAdmins) GetByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.AdminWallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins[id]
	if !ok {
		return nil, util.ErrPartyNotFound
	}
	return &a, nil
}

func (r memAdmins) GetByIDForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.AdminWallet, error) {
	return r.GetByID(ctx, q, id)
}

func (r memAdmins) GetByEmail(ctx context.Context, q repository.DBExecutor, email string) (*domain.AdminWallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.admins {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, util.ErrPartyNotFound
}

func (r memAdmins) List(ctx context.Context, q repository.DBExecutor, limit, offset int) ([]domain.AdminWallet, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	admins := []domain.AdminWallet{}
	for _, a := range r.s.admins {
		if !a.IsDeleted {
			admins = append(admins, a)
		}
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].CreatedAt.Before(admins[j].CreatedAt) })
	return page(admins, limit, offset), int64(len(admins)), nil
}

func (r memAdmins) DebitWallet(ctx context.Context, q repository.DBExecutor, id uuid.UUID, amount decimal.Decimal) error {
	return r.move(id, amount.Neg(), "admin.debit")
}

func (r memAdmins) CreditWallet(ctx context.Context, q repository.DBExecutor, id uuid.UUID, amount decimal.Decimal) error {
	return r.move(id, amount, "admin.credit")
}

func (r memAdmins) move(id uuid.UUID, delta decimal.Decimal, op string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(op); err != nil {
		return err
	}
	a, ok := r.s.admins[id]
	if !ok {
		return util.ErrPartyNotFound
	}
	if a.Wallet.Add(delta).IsNegative() {
		return util.ErrInsufficientFunds
	}
	a.Wallet = a.Wallet.Add(delta)
	r.s.admins[id] = a
	return nil
}

func (r memAdmins) SetActive(ctx context.Context, q repository.DBExecutor, id uuid.UUID, active bool, actorID *uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins[id]
	if !ok || a.IsDeleted {
		return util.ErrPartyNotFound
	}
	if a.IsActive == active {
		return util.ErrInvalidState
	}
	a.IsActive = active
	a.DeactivatedBy = nil
	if !active {
		a.DeactivatedBy = actorID
	}
	r.s.admins[id] = a
	return nil
}

func (r memAdmins) SoftDelete(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins[id]
	if !ok || a.IsDeleted {
		return util.ErrPartyNotFound
	}
	a.IsDeleted, a.DeletedBy, a.DeletedAt = true, &actorID, &at
	r.s.admins[id] = a
	return nil
}

// memCards implements repository.CardRepository.
type memCards struct{ s *memStore }

var _ repository.CardRepository = memCards{}

func (r memCards) Create(ctx context.Context, q repository.DBExecutor, card *domain.Card) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.cards {
		if c.CardNumber == card.CardNumber || (c.UserID == card.UserID && c.Blocks()) {
			return util.ErrAlreadyExists
		}
	}
	r.s.cards[card.ID] = *card
	return nil
}

func (r memCards) GetByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cards[id]
	if !ok {
		return nil, util.ErrCardNotFound
	}
	return &c, nil
}

func (r memCards) GetByIDForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Card, error) {
	return r.GetByID(ctx, q, id)
}

func (r memCards) GetCurrentByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) (*domain.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var current *domain.Card
	for _, c := range r.s.cards {
		if c.UserID != userID || !c.Blocks() {
			continue
		}
		if current == nil || c.CreatedAt.After(current.CreatedAt) {
			c := c
			current = &c
		}
	}
	if current == nil {
		return nil, util.ErrCardNotFound
	}
	return current, nil
}

func (r memCards) ListPending(ctx context.Context, q repository.DBExecutor) ([]domain.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	pending := []domain.Card{}
	for _, c := range r.s.cards {
		if c.Status == domain.CardPending && !c.IsDeleted {
			pending = append(pending, c)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	return pending, nil
}

func (r memCards) List(ctx context.Context, q repository.DBExecutor, filter repository.CardFilter, limit, offset int) ([]domain.Card, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cards := []domain.Card{}
	for _, c := range r.s.cards {
		switch {
		case c.IsDeleted,
			filter.Status != "" && c.Status != filter.Status,
			filter.Active != nil && c.IsActive != *filter.Active,
			filter.CardType != "" && c.CardType != filter.CardType:
			continue
		}
		cards = append(cards, c)
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].CreatedAt.After(cards[j].CreatedAt) })
	return page(cards, limit, offset), int64(len(cards)), nil
}

func (r memCards) CardNumberExists(ctx context.Context, q repository.DBExecutor, number string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.cards {
		if c.CardNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r memCards) DebitBalance(ctx context.Context, q repository.DBExecutor, id uuid.UUID, amount decimal.Decimal) error {
	return r.move(id, amount.Neg(), "card.debit")
}

func (r memCards) CreditBalance(ctx context.Context, q repository.DBExecutor, id uuid.UUID, amount decimal.Decimal) error {
	return r.move(id, amount, "card.credit")
}

func (r memCards) move(id uuid.UUID, delta decimal.Decimal, op string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(op); err != nil {
		return err
	}
	c, ok := r.s.cards[id]
	if !ok {
		return util.ErrCardNotFound
	}
	if !c.Eligible() {
		return util.ErrCardNotEligible
	}
	if c.Balance.Add(delta).IsNegative() {
		return util.ErrInsufficientFunds
	}
	c.Balance = c.Balance.Add(delta)
	r.s.cards[id] = c
	return nil
}

func (r memCards) Approve(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, at time.Time) error {
	return r.update(id, func(c *domain.Card) error {
		if c.Status != domain.CardPending {
			return util.ErrInvalidState
		}
		c.Status, c.IsActive, c.ApprovedBy, c.ApprovedAt = domain.CardApproved, true, &actorID, &at
		return nil
	})
}

func (r memCards) Reject(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, reason string, at time.Time) error {
	return r.update(id, func(c *domain.Card) error {
		if c.Status != domain.CardPending {
			return util.ErrInvalidState
		}
		c.Status, c.IsActive, c.RejectedBy, c.RejectedAt, c.RejectionReason = domain.CardRejected, false, &actorID, &at, &reason
		return nil
	})
}

func (r memCards) SetActive(ctx context.Context, q repository.DBExecutor, id uuid.UUID, active bool) error {
	return r.update(id, func(c *domain.Card) error {
		if c.Status != domain.CardApproved {
			return util.ErrInvalidState
		}
		c.IsActive = active
		return nil
	})
}

func (r memCards) SoftDeleteByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("card.softdelete"); err != nil {
		return err
	}
	for id, c := range r.s.cards {
		if c.UserID == userID && !c.IsDeleted {
			c.IsDeleted, c.DeletedAt = true, &at
			r.s.cards[id] = c
		}
	}
	return nil
}

func (r memCards) RestoreByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.cards {
		if c.UserID == userID && c.IsDeleted {
			c.IsDeleted, c.DeletedAt = false, nil
			r.s.cards[id] = c
		}
	}
	return nil
}

func (r memCards) DeleteByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, c := range r.s.cards {
		if c.UserID == userID {
			delete(r.s.cards, id)
			n++
		}
	}
	return n, nil
}

func (r memCards) update(id uuid.UUID, fn func(c *domain.Card) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cards[id]
	if !ok {
		return util.ErrCardNotFound
	}
	if err := fn(&c); err != nil {
		return err
	}
	r.s.cards[id] = c
	return nil
}

// memTransactions implements repository.TransactionRepository.
type memTransactions struct{ s *memStore }

var _ repository.TransactionRepository = memTransactions{}

func (r memTransactions) Create(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("transaction.create"); err != nil {
		return err
	}
	r.s.nextLeg++
	transaction.ID = r.s.nextLeg
	r.s.legs = append(r.s.legs, *transaction)
	return nil
}

func (r memTransactions) GetByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.legs {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, util.ErrTransactionNotFound
}

func (r memTransactions) ListByOwner(ctx context.Context, q repository.DBExecutor, ownerID uuid.UUID, limit, offset int) ([]domain.Transaction, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	owned := []domain.Transaction{}
	for i := len(r.s.legs) - 1; i >= 0; i-- {
		if r.s.legs[i].OwnerID == ownerID {
			owned = append(owned, r.s.legs[i])
		}
	}
	return page(owned, limit, offset), int64(len(owned)), nil
}

func matchesLeg(t domain.Transaction, filter repository.TransactionFilter) bool {
	switch {
	case filter.OwnerID != nil && t.OwnerID != *filter.OwnerID,
		filter.Status != "" && t.Status != filter.Status,
		filter.Direction != "" && t.Direction != filter.Direction,
		filter.AccountType != "" && t.AccountType != filter.AccountType:
		return false
	}
	return true
}

func (r memTransactions) List(ctx context.Context, q repository.DBExecutor, filter repository.TransactionFilter, limit, offset int) ([]domain.Transaction, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	matched := []domain.Transaction{}
	for i := len(r.s.legs) - 1; i >= 0; i-- {
		if matchesLeg(r.s.legs[i], filter) {
			matched = append(matched, r.s.legs[i])
		}
	}
	return page(matched, limit, offset), int64(len(matched)), nil
}

func (r memTransactions) Stats(ctx context.Context, q repository.DBExecutor, filter repository.TransactionFilter) (*domain.TransactionStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stats := domain.NewTransactionStats()
	for _, t := range r.s.legs {
		if matchesLeg(t, filter) {
			stats.Add(t.Status, t.Direction, 1, t.Amount)
		}
	}
	return stats, nil
}

func (r memTransactions) ListByCorrelation(ctx context.Context, q repository.DBExecutor, correlationID string) ([]domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	legs := []domain.Transaction{}
	for _, t := range r.s.legs {
		if t.CorrelationID == correlationID {
			legs = append(legs, t)
		}
	}
	return legs, nil
}

func (r memTransactions) UpdateStatus(ctx context.Context, q repository.DBExecutor, id int64, status domain.TransactionStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.legs {
		if r.s.legs[i].ID == id {
			r.s.legs[i].Status = status
			return nil
		}
	}
	return util.ErrTransactionNotFound
}

func (r memTransactions) DeleteByOwner(ctx context.Context, q repository.DBExecutor, ownerID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.legs[:0:0]
	var n int64
	for _, t := range r.s.legs {
		if t.OwnerID == ownerID {
			n++
			continue
		}
		kept = append(kept, t)
	}
	r.s.legs = kept
	return n, nil
}

// memLoans implements repository.LoanRepository.
type memLoans struct{ s *memStore }

var _ repository.LoanRepository = memLoans{}

func (r memLoans) Create(ctx context.Context, q repository.DBExecutor, loan *domain.LoanApplication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.loans[loan.ID] = *loan
	return nil
}

func (r memLoans) GetByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.LoanApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.loans[id]
	if !ok {
		return nil, util.ErrLoanNotFound
	}
	return &l, nil
}

func (r memLoans) List(ctx context.Context, q repository.DBExecutor, filter repository.LoanFilter, limit, offset int) ([]domain.LoanApplication, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	loans := []domain.LoanApplication{}
	for _, l := range r.s.loans {
		if (filter.UserID != nil && l.UserID != *filter.UserID) || (filter.Status != "" && l.Status != filter.Status) {
			continue
		}
		loans = append(loans, l)
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].CreatedAt.After(loans[j].CreatedAt) })
	return page(loans, limit, offset), int64(len(loans)), nil
}

func (r memLoans) Review(ctx context.Context, q repository.DBExecutor, id uuid.UUID, status domain.LoanStatus, message string, reviewerID uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.loans[id]
	if !ok {
		return util.ErrLoanNotFound
	}
	if l.Status != domain.LoanPending {
		return util.ErrInvalidState
	}
	l.Status, l.AdminMessage, l.ReviewedBy, l.ReviewedAt, l.UpdatedAt = status, &message, &reviewerID, &at, at
	r.s.loans[id] = l
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// recordingNotifier collects the events the engine emits.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(events ...notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, events...)
}

func (n *recordingNotifier) all() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

// fixture wires the memory store into real services.
type fixture struct {
	store     *memStore
	notifier  *recordingNotifier
	pins      *fakePins
	engine    *Engine
	ledger    LedgerService
	cards     CardService
	accounts  AccountService
	lifecycle LifecycleService
	loans     LoanService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture() *fixture {
	store := newMemStore()
	f := &fixture{store: store, notifier: &recordingNotifier{}, pins: newFakePins()}
	logger := discardLogger()
	exec := nopExecutor{}
	accounts, admins, cards, legs := memAccounts{store}, memAdmins{store}, memCards{store}, memTransactions{store}

	f.engine = NewEngine(nil, accounts, admins, cards, legs, store.txFuncs(), f.notifier, logger)
	f.ledger = NewLedgerService(f.engine, exec, accounts, admins, legs, f.pins)
	f.cards = NewCardService(f.engine, exec, accounts, cards, f.pins, logger)
	f.accounts = NewAccountService(exec, accounts, admins, f.pins, logger)
	f.lifecycle = NewLifecycleService(nil, exec, accounts, admins, cards, legs, store.txFuncs(), logger)
	f.loans = NewLoanService(exec, accounts, memLoans{store}, f.notifier, logger)
	return f
}

// fakePins accepts a PIN when it equals the stored digest verbatim, so
// tests can seed digests without bcrypt.
type fakePins struct {
	mu       sync.Mutex
	subjects []string
}

func newFakePins() *fakePins { return &fakePins{} }

func (p *fakePins) CheckPIN(ctx context.Context, subject, supplied string, digest *string) error {
	p.mu.Lock()
	p.subjects = append(p.subjects, subject)
	p.mu.Unlock()
	switch {
	case supplied == "":
		return util.ErrPinRequired
	case digest == nil || *digest == "":
		return util.ErrPinNotSet
	case *digest != supplied:
		return util.ErrInvalidPin
	}
	return nil
}

func (f *fixture) customer(savings, current string, pin string) *domain.Account {
	a := domain.NewAccount("Customer "+uuid.NewString()[:6], uuid.NewString()+"@example.com", "555-0100", "hash",
		uuid.NewString()[:10], uuid.NewString()[:10])
	a.Savings = decimal.RequireFromString(savings)
	a.Current = decimal.RequireFromString(current)
	if pin != "" {
		a.TransactionPinHash = &pin
	}
	f.store.putAccount(a)
	return a
}

func (f *fixture) admin(role domain.Role, wallet string) *domain.AdminWallet {
	a := domain.NewAdminWallet("admin-"+uuid.NewString()[:6], uuid.NewString()+"@bank.test", "hash", role)
	a.Wallet = decimal.RequireFromString(wallet)
	f.store.putAdmin(a)
	return a
}

func (f *fixture) approvedCard(owner *domain.Account, balance, pin string) *domain.Card {
	now := time.Now().UTC()
	c := &domain.Card{
		ID:         uuid.New(),
		UserID:     owner.ID,
		HolderName: owner.Fullname,
		CardType:   domain.CardVisa,
		CardNumber: "4" + uuid.NewString()[:15],
		ExpiryDate: "01/30",
		PinHash:    pin,
		Balance:    decimal.RequireFromString(balance),
		Status:     domain.CardApproved,
		IsActive:   true,
		CreatedBy:  "admin",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.store.putCard(c)
	return c
}

func userPrincipal(a *domain.Account) *domain.Principal {
	return &domain.Principal{ID: a.ID, Kind: domain.PartyUser, Role: domain.RoleUser, Email: a.Email, Active: true}
}

func adminPrincipal(a *domain.AdminWallet) *domain.Principal {
	return &domain.Principal{ID: a.ID, Kind: domain.PartyAdmin, Role: a.Role, Email: a.Email, Active: true}
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }
