package repository

import (
	"context"

	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/internal/applog"
	"go-distribution-ws/pkg/database"

	"gorm.io/gorm"
)

const maxTxAttempts = 3

// RunInTx runs fn in one storage transaction, replaying it when Postgres
// aborts on a serialization failure or deadlock. fn must not touch the outer
// *gorm.DB and must reset any state it captures, since it may run again.
func RunInTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = db.WithContext(ctx).Transaction(fn)
		if err == nil || !database.IsRetryable(err) {
			return err
		}
		applog.Warn(nil, "storage.tx_retry", err, map[string]any{"attempt": attempt, "max_attempts": maxTxAttempts})
	}
	return apperr.Wrap(apperr.KindConflict, err, "concurrent update, please retry")
}

// classify turns storage errors into business errors.
func classify(err error, notFound, conflict string) error {
	switch {
	case err == nil:
		return nil
	case database.IsNotFound(err):
		return apperr.NotFound("%s", notFound)
	case database.IsUniqueViolation(err):
		return apperr.Wrap(apperr.KindConflict, err, conflict)
	}
	return err
}
