package models

import (
	"time"

	"gorm.io/datatypes"
)

// PriceHistoryAuditLog records every mutation of a listing's price history
type PriceHistoryAuditLog struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ListingID       uint            `gorm:"not null;index:idx_price_audit_listing_id" json:"listing_id"`
	PriceIntervalID *uint           `gorm:"index:idx_price_audit_interval_id" json:"price_interval_id,omitempty"`
	TransactionType TransactionType `gorm:"type:varchar(16);not null" json:"transaction_type"`
	ActorID         uint            `gorm:"not null;index:idx_price_audit_actor_id" json:"actor_id"`
	Action          string          `gorm:"size:64;not null;index:idx_price_audit_action" json:"action"`
	Description     *string         `gorm:"type:text" json:"description,omitempty"`
	Before          datatypes.JSON  `gorm:"type:jsonb" json:"before,omitempty"`
	After           datatypes.JSON  `gorm:"type:jsonb" json:"after,omitempty"`
	IPAddress       *string         `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent       *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID       *string         `gorm:"size:255;index:idx_price_audit_request_id" json:"request_id,omitempty"`
	CreatedAt       time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_price_audit_created_at" json:"created_at"`
}

func (PriceHistoryAuditLog) TableName() string {
	return "price_history_audit_log"
}

// Audit action constants
const (
	AuditActionPriceIntervalCreated  = "price_interval_created"
	AuditActionPriceIntervalClosed   = "price_interval_closed"
	AuditActionPriceIntervalUpdated  = "price_interval_updated"
	AuditActionPriceIntervalDeleted  = "price_interval_deleted"
	AuditActionPriceIntervalReopened = "price_interval_reopened"
)

// PriceHistoryAuditLogFilter represents filter criteria for audit log queries
type PriceHistoryAuditLogFilter struct {
	ListingID       *uint
	PriceIntervalID *uint
	ActorID         *uint
	Action          *string
	RequestID       *string
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
}
