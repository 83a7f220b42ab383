package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/listing-price-history/models"
	"github.com/amirphl/listing-price-history/utils"
	"gorm.io/gorm"
)

// PriceIntervalRepositoryImpl implements PriceIntervalRepository
type PriceIntervalRepositoryImpl struct {
	*BaseRepository[models.PriceInterval, models.PriceIntervalFilter]
}

// NewPriceIntervalRepository creates a new price interval repository
func NewPriceIntervalRepository(db *gorm.DB) PriceIntervalRepository {
	return &PriceIntervalRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PriceInterval, models.PriceIntervalFilter](db),
	}
}

// ByFilter retrieves price intervals based on filter criteria.
func (r *PriceIntervalRepositoryImpl) ByFilter(ctx context.Context, filter models.PriceIntervalFilter, orderBy string, limit, offset int) ([]*models.PriceInterval, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PriceInterval{}), filter)

	if orderBy == "" {
		orderBy = "start_date DESC"
	}
	query = query.Order(orderBy).Order("id ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.PriceInterval
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list price intervals: %w", err)
	}
	return rows, nil
}

// Count returns the number of price intervals matching the filter.
func (r *PriceIntervalRepositoryImpl) Count(ctx context.Context, filter models.PriceIntervalFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PriceInterval{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count price intervals: %w", err)
	}
	return count, nil
}

// Update persists the mutable columns of an interval.
func (r *PriceIntervalRepositoryImpl) Update(ctx context.Context, interval *models.PriceInterval) error {
	return r.write(ctx, func(db *gorm.DB) error {
		res := db.Model(interval).
			Select("amount", "start_date", "end_date", "reason", "note", "updated_by", "updated_at").
			Updates(&models.PriceInterval{
				Amount:    interval.Amount,
				StartDate: interval.StartDate,
				EndDate:   interval.EndDate,
				Reason:    interval.Reason,
				Note:      interval.Note,
				UpdatedBy: interval.UpdatedBy,
				UpdatedAt: utils.UTCNow(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update price interval %d: %w", interval.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("failed to update price interval %d: %w", interval.ID, gorm.ErrRecordNotFound)
		}
		return nil
	})
}

// SoftDelete marks an interval deleted and records who removed it.
func (r *PriceIntervalRepositoryImpl) SoftDelete(ctx context.Context, id uint, actorID uint) error {
	return r.write(ctx, func(db *gorm.DB) error {
		now := utils.UTCNow()
		res := db.Model(&models.PriceInterval{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"deleted_at": now,
				"deleted_by": actorID,
				"updated_by": actorID,
				"updated_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to delete price interval %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("failed to delete price interval %d: %w", id, gorm.ErrRecordNotFound)
		}
		return nil
	})
}

// ListByKey returns every live interval of a (listing, transaction type) ordered by start date.
func (r *PriceIntervalRepositoryImpl) ListByKey(ctx context.Context, listingID uint, transactionType models.TransactionType) ([]*models.PriceInterval, error) {
	db := r.getDB(ctx)

	var rows []*models.PriceInterval
	err := db.Where("listing_id = ? AND transaction_type = ?", listingID, transactionType).
		Order("start_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list price intervals for listing %d (%s): %w", listingID, transactionType, err)
	}
	return rows, nil
}

// ListByListing returns every live interval of a listing grouped by type then start date.
func (r *PriceIntervalRepositoryImpl) ListByListing(ctx context.Context, listingID uint) ([]*models.PriceInterval, error) {
	db := r.getDB(ctx)

	var rows []*models.PriceInterval
	err := db.Where("listing_id = ?", listingID).
		Order("transaction_type ASC, start_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list price intervals for listing %d: %w", listingID, err)
	}
	return rows, nil
}

// CurrentByKey returns the open interval of a key, or nil.
func (r *PriceIntervalRepositoryImpl) CurrentByKey(ctx context.Context, listingID uint, transactionType models.TransactionType) (*models.PriceInterval, error) {
	db := r.getDB(ctx)

	var row models.PriceInterval
	err := db.Where("listing_id = ? AND transaction_type = ? AND end_date IS NULL", listingID, transactionType).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find current price interval: %w", err)
	}
	return &row, nil
}

// LatestStartedByKey returns the live interval with the greatest start date, or nil.
func (r *PriceIntervalRepositoryImpl) LatestStartedByKey(ctx context.Context, listingID uint, transactionType models.TransactionType) (*models.PriceInterval, error) {
	db := r.getDB(ctx)

	var row models.PriceInterval
	err := db.Where("listing_id = ? AND transaction_type = ?", listingID, transactionType).
		Order("start_date DESC").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find latest price interval: %w", err)
	}
	return &row, nil
}

// LockKey serializes writers of one (listing, transaction type) until the surrounding
// transaction ends. Writers of other keys are not blocked.
func (r *PriceIntervalRepositoryImpl) LockKey(ctx context.Context, listingID uint, transactionType models.TransactionType) error {
	tx, ok := txFromContext(ctx)
	if !ok {
		return ErrTransactionRequired
	}

	key := fmt.Sprintf("price_interval:%d:%s", listingID, transactionType)
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
		return fmt.Errorf("failed to lock %s: %w", key, err)
	}
	return nil
}

// applyFilter applies filter conditions to the GORM query
func (r *PriceIntervalRepositoryImpl) applyFilter(db *gorm.DB, filter models.PriceIntervalFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.ListingID != nil {
		db = db.Where("listing_id = ?", *filter.ListingID)
	}
	if filter.TransactionType != nil {
		db = db.Where("transaction_type = ?", *filter.TransactionType)
	}
	if filter.StartAfter != nil {
		db = db.Where("start_date >= ?", *filter.StartAfter)
	}
	if filter.EndBefore != nil {
		// open intervals extend to +infinity and never end before anything
		db = db.Where("end_date IS NOT NULL AND end_date <= ?", *filter.EndBefore)
	}
	if filter.CurrentOnly {
		db = db.Where("end_date IS NULL")
	}
	return db
}
