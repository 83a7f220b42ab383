package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/listing-price-history/models"
	"github.com/amirphl/listing-price-history/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ListingRepositoryImpl implements ListingRepository
type ListingRepositoryImpl struct {
	*BaseRepository[models.Listing, models.ListingFilter]
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &ListingRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Listing, models.ListingFilter](db),
	}
}

// ByUUID retrieves a listing by its public UUID
func (r *ListingRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Listing, error) {
	db := r.getDB(ctx)

	var listing models.Listing
	err := db.Where("uuid = ?", uuid).Last(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find listing by UUID: %w", err)
	}
	return &listing, nil
}

// UpdateCurrentPrice writes the denormalized price column of one transaction type.
// A null amount clears the column.
func (r *ListingRepositoryImpl) UpdateCurrentPrice(ctx context.Context, listingID uint, transactionType models.TransactionType, amount decimal.NullDecimal, actorID uint) error {
	column, ok := models.PriceColumn(transactionType)
	if !ok {
		return fmt.Errorf("no price column for transaction type %q", transactionType)
	}

	return r.write(ctx, func(db *gorm.DB) error {
		res := db.Model(&models.Listing{}).
			Where("id = ?", listingID).
			Updates(map[string]any{
				column:       amount,
				"updated_by": actorID,
				"updated_at": utils.UTCNow(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update %s of listing %d: %w", column, listingID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("failed to update %s of listing %d: %w", column, listingID, gorm.ErrRecordNotFound)
		}
		return nil
	})
}

// ByFilter retrieves listings based on filter criteria.
func (r *ListingRepositoryImpl) ByFilter(ctx context.Context, filter models.ListingFilter, orderBy string, limit, offset int) ([]*models.Listing, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Listing{}), filter)

	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Listing
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of listings matching the filter.
func (r *ListingRepositoryImpl) Count(ctx context.Context, filter models.ListingFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Listing{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ListingRepositoryImpl) applyFilter(db *gorm.DB, filter models.ListingFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return db
}
