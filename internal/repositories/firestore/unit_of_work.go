package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/cameron-natural/api/internal/platform/firestore"
	"github.com/cameron-natural/api/internal/repositories"
)

// UnitOfWork groups repository reads and writes into a single Firestore
// transaction, so a status check and the write it guards commit atomically.
type UnitOfWork struct {
	provider *pfirestore.Provider
}

// NewUnitOfWork constructs a transactional boundary over the shared provider.
func NewUnitOfWork(provider *pfirestore.Provider) (*UnitOfWork, error) {
	if provider == nil {
		return nil, errors.New("unit of work requires firestore provider")
	}
	return &UnitOfWork{provider: provider}, nil
}

// RunInTx executes fn inside a Firestore transaction. Repository calls made
// with the supplied context read and write through that transaction; when a
// concurrent commit invalidates a read, Firestore aborts the attempt and
// reruns fn with fresh reads.
func (u *UnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u == nil || u.provider == nil {
		return errors.New("unit of work not initialised")
	}
	if fn == nil {
		return errors.New("unit of work: fn is required")
	}
	return u.provider.RunTransaction(ctx, func(txCtx context.Context, tx *firestore.Transaction) error {
		return fn(pfirestore.ContextWithTransaction(txCtx, tx))
	})
}

var _ repositories.UnitOfWork = (*UnitOfWork)(nil)
