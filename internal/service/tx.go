// internal/service/tx.go
package service

import (
	"context"
	"fmt"

	"valley-ledger/internal/repository"
	"valley-ledger/internal/util"
	"valley-ledger/pkg/db"
)

// txRunner runs a function inside one database transaction using the
// injected begin/commit/rollback helpers.
type txRunner struct {
	dbBeginner db.DBTxBeginner
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc
}

func newTxRunner(dbBeginner db.DBTxBeginner, tx db.TxFuncs) txRunner {
	return txRunner{dbBeginner: dbBeginner, beginTx: tx.Begin, commitTx: tx.Commit, rollbackTx: tx.Rollback}
}

// inTx commits when fn returns nil and rolls back otherwise.
func (r txRunner) inTx(ctx context.Context, op string, fn func(q repository.DBExecutor) error) error {
	txController, err := r.beginTx(ctx, r.dbBeginner)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w: %w", op, util.ErrStorage, err)
	}
	defer r.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("%s: transaction controller does not implement DBExecutor", op)
	}

	if err := fn(txExecutor); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.commitTx(txController); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w: %w", op, util.ErrStorage, err)
	}
	return nil
}
