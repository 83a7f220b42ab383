// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/listing-price-history/models"
	"gorm.io/gorm"
)

// PriceHistoryAuditLogRepositoryImpl implements PriceHistoryAuditLogRepository interface
type PriceHistoryAuditLogRepositoryImpl struct {
	*BaseRepository[models.PriceHistoryAuditLog, models.PriceHistoryAuditLogFilter]
}

// NewPriceHistoryAuditLogRepository creates a new audit log repository
func NewPriceHistoryAuditLogRepository(db *gorm.DB) PriceHistoryAuditLogRepository {
	return &PriceHistoryAuditLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PriceHistoryAuditLog, models.PriceHistoryAuditLogFilter](db),
	}
}

// ListByListing retrieves audit entries for a listing with pagination, newest first
func (r *PriceHistoryAuditLogRepositoryImpl) ListByListing(ctx context.Context, listingID uint, limit, offset int) ([]*models.PriceHistoryAuditLog, error) {
	db := r.getDB(ctx)

	query := db.Where("listing_id = ?", listingID).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var logs []*models.PriceHistoryAuditLog
	err := query.Find(&logs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs by listing: %w", err)
	}

	return logs, nil
}

// ByFilter retrieves audit entries based on filter criteria
func (r *PriceHistoryAuditLogRepositoryImpl) ByFilter(ctx context.Context, filter models.PriceHistoryAuditLogFilter, orderBy string, limit, offset int) ([]*models.PriceHistoryAuditLog, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PriceHistoryAuditLog{}), filter)

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

	var logs []*models.PriceHistoryAuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}

// Count returns the number of audit entries matching the filter
func (r *PriceHistoryAuditLogRepositoryImpl) Count(ctx context.Context, filter models.PriceHistoryAuditLogFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	if err := r.applyFilter(db.Model(&models.PriceHistoryAuditLog{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}
	return count, nil
}

func (r *PriceHistoryAuditLogRepositoryImpl) applyFilter(db *gorm.DB, filter models.PriceHistoryAuditLogFilter) *gorm.DB {
	if filter.ListingID != nil {
		db = db.Where("listing_id = ?", *filter.ListingID)
	}
	if filter.PriceIntervalID != nil {
		db = db.Where("price_interval_id = ?", *filter.PriceIntervalID)
	}
	if filter.ActorID != nil {
		db = db.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != nil {
		db = db.Where("action = ?", *filter.Action)
	}
	if filter.RequestID != nil {
		db = db.Where("request_id = ?", *filter.RequestID)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return db
}
