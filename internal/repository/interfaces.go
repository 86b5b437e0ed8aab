package repository

import (
	"context"

	"github.com/rpattn/stockhist/internal/domain"
)

// HistoryRepository defines the interface for history record persistence.
// Paging parameters are assumed valid here: page >= 0 and size in [1, 100];
// the service layer clamps caller input before delegating.
type HistoryRepository interface {
	// Save persists a new record together with all of its line items in one
	// transaction and returns the record with assigned id and timestamps.
	Save(ctx context.Context, record domain.HistoryRecord) (domain.HistoryRecord, error)
	FindByMember(ctx context.Context, memberID int64, page, size int) (domain.HistoryPage, error)
	FindAll(ctx context.Context, page, size int) (domain.HistoryPage, error)
	FindByOrderNumber(ctx context.Context, orderNumber string, page, size int) (domain.HistoryPage, error)
}
