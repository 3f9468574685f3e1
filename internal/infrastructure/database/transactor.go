package database

import (
	"context"

	"gorm.io/gorm"
)

// Transactor hands out request-scoped database handles and runs units of work
// in a single transaction.
type Transactor interface {
	DB(ctx context.Context) *gorm.DB
	WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) DB(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx)
}

// WithinTransaction commits when fn returns nil and rolls back on error or panic.
func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := t.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit().Error
}
