// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/amirphl/listing-price-history/models"
	"github.com/shopspring/decimal"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
}

// TxManager opens a transaction and exposes it to repositories through the context
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
}

// ListingRepository defines operations for listings
type ListingRepository interface {
	Repository[models.Listing, models.ListingFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Listing, error)
	UpdateCurrentPrice(ctx context.Context, listingID uint, transactionType models.TransactionType, amount decimal.NullDecimal, actorID uint) error
}

// PriceIntervalRepository defines operations for price intervals. Every read
// excludes soft-deleted rows.
type PriceIntervalRepository interface {
	Repository[models.PriceInterval, models.PriceIntervalFilter]
	Update(ctx context.Context, interval *models.PriceInterval) error
	SoftDelete(ctx context.Context, id uint, actorID uint) error
	ListByKey(ctx context.Context, listingID uint, transactionType models.TransactionType) ([]*models.PriceInterval, error)
	ListByListing(ctx context.Context, listingID uint) ([]*models.PriceInterval, error)
	CurrentByKey(ctx context.Context, listingID uint, transactionType models.TransactionType) (*models.PriceInterval, error)
	LatestStartedByKey(ctx context.Context, listingID uint, transactionType models.TransactionType) (*models.PriceInterval, error)
	LockKey(ctx context.Context, listingID uint, transactionType models.TransactionType) error
}

// PriceHistoryAuditLogRepository defines operations for the price history audit trail
type PriceHistoryAuditLogRepository interface {
	Repository[models.PriceHistoryAuditLog, models.PriceHistoryAuditLogFilter]
	ListByListing(ctx context.Context, listingID uint, limit, offset int) ([]*models.PriceHistoryAuditLog, error)
}
