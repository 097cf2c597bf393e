package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type txKey struct{}

// tx is the unit of work carried in a context. Sub-stores pick it up through FromContext.
type tx struct {
	db      *gorm.DB
	log     logrus.FieldLogger
	started time.Time
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	if t == nil || t.db == nil {
		return nil
	}
	return t
}

// newTransactionContext begins a transaction unless ctx already carries one, in which case
// the caller joins the outer transaction.
func newTransactionContext(ctx context.Context, db *gorm.DB, log logrus.FieldLogger) (context.Context, error) {
	if txFrom(ctx) != nil {
		return ctx, nil
	}

	gtx := db.WithContext(ctx).Begin()
	if gtx.Error != nil {
		return ctx, gtx.Error
	}

	return context.WithValue(ctx, txKey{}, &tx{db: gtx, log: log, started: time.Now()}), nil
}

// Commit ends the transaction carried by ctx. It does nothing when there is none.
func Commit(ctx context.Context) (context.Context, error) {
	return end(ctx, "commit", (*gorm.DB).Commit)
}

// Rollback discards the transaction carried by ctx. It does nothing when there is none.
func Rollback(ctx context.Context) (context.Context, error) {
	return end(ctx, "rollback", (*gorm.DB).Rollback)
}

// FromContext returns the open transaction in ctx, or nil.
func FromContext(ctx context.Context) *gorm.DB {
	if t := txFrom(ctx); t != nil {
		return t.db
	}
	return nil
}

// SQLTx exposes the database/sql transaction in ctx so that another driver, such as the
// job queue's, can write in the same transaction. It returns nil when there is none.
func SQLTx(ctx context.Context) *sql.Tx {
	db := FromContext(ctx)
	if db == nil {
		return nil
	}
	sqlTx, _ := db.Statement.ConnPool.(*sql.Tx)
	return sqlTx
}

func end(ctx context.Context, op string, finish func(*gorm.DB) *gorm.DB) (context.Context, error) {
	t := txFrom(ctx)
	if t == nil {
		return ctx, nil
	}

	err := finish(t.db).Error
	t.db = nil

	entry := t.log.WithFields(logrus.Fields{"op": op, "duration": time.Since(t.started)})
	if err != nil {
		entry.WithError(err).Error("transaction failed to end")
		return context.WithValue(ctx, txKey{}, (*tx)(nil)), err
	}
	entry.Debug("transaction ended")

	return context.WithValue(ctx, txKey{}, (*tx)(nil)), nil
}
