package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
)

// PaymentRepository is the append-only payment ledger. Upsert is keyed by
// transaction_id so duplicate invoice deliveries never produce two rows.
type PaymentRepository interface {
	Upsert(ctx context.Context, payment *model.Payment) error
	GetByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Payment, error)
}
