package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/newtechs/backend/internal/apperr"
)

// UnitOfWork is one explicit transaction. Stage runs work inside a
// savepoint so a failed step can be undone without losing the rest.
type UnitOfWork struct {
	tx   *gorm.DB
	done bool
}

// Begin opens a transaction bound to ctx.
func (d *Database) Begin(ctx context.Context) (*UnitOfWork, error) {
	tx := d.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperr.Storage("failed to begin transaction", tx.Error)
	}
	return &UnitOfWork{tx: tx}, nil
}

// Tx returns the transaction handle for direct reads and writes.
func (u *UnitOfWork) Tx() *gorm.DB {
	return u.tx
}

// Stage runs fn in a nested transaction. If fn returns an error, only its
// writes are rolled back.
func (u *UnitOfWork) Stage(fn func(tx *gorm.DB) error) error {
	return u.tx.Transaction(fn)
}

func (u *UnitOfWork) Commit() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Commit().Error; err != nil {
		u.tx.Rollback()
		return apperr.Storage("failed to commit transaction", err)
	}
	return nil
}

// Rollback is a no-op after Commit or a previous Rollback.
func (u *UnitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback().Error; err != nil {
		return apperr.Storage("failed to roll back transaction", err)
	}
	return nil
}
