// Package models contains domain entities for listings and their price history
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType is the business mode a price applies to
type TransactionType string

const (
	TransactionTypeSale     TransactionType = "SALE"
	TransactionTypeLease    TransactionType = "LEASE"
	TransactionTypeSeasonal TransactionType = "SEASONAL"
)

// TransactionTypes lists every supported transaction type in a stable order
var TransactionTypes = []TransactionType{
	TransactionTypeSale,
	TransactionTypeLease,
	TransactionTypeSeasonal,
}

// ParseTransactionType accepts any letter case
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
	return t, nil
}

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeSale, TransactionTypeLease, TransactionTypeSeasonal:
		return true
	}
	return false
}

func (t TransactionType) String() string {
	return string(t)
}

// PriceInterval is one contiguous date range during which a single price applies
// to a listing for one transaction type. EndDate nil means the interval is open (current).
type PriceInterval struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UUID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uk_price_intervals_uuid" json:"uuid"`
	ListingID       uint            `gorm:"not null;index:idx_price_intervals_listing_type" json:"listing_id"`
	TransactionType TransactionType `gorm:"type:varchar(16);not null;index:idx_price_intervals_listing_type" json:"transaction_type"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	StartDate       time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate         *time.Time      `gorm:"type:date" json:"end_date,omitempty"`
	Reason          string          `gorm:"size:255;not null" json:"reason"`
	Note            *string         `gorm:"type:text" json:"note,omitempty"`

	CreatedBy uint  `gorm:"not null" json:"created_by"`
	UpdatedBy uint  `gorm:"not null" json:"updated_by"`
	DeletedBy *uint `json:"deleted_by,omitempty"`

	CreatedAt time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index:idx_price_intervals_deleted_at" json:"-"`
}

func (PriceInterval) TableName() string {
	return "price_intervals"
}

// BeforeCreate ensures UUID is set for PriceInterval
func (p *PriceInterval) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	return nil
}

// IsOpen reports whether the interval has no end date
func (p *PriceInterval) IsOpen() bool {
	return p.EndDate == nil
}

// IsClosedBefore reports whether the interval ended strictly before day
func (p *PriceInterval) IsClosedBefore(day time.Time) bool {
	return p.EndDate != nil && p.EndDate.Before(day)
}

// Intersects reports whether the closed ranges [p.start, p.end] and [o.start, o.end]
// share at least one day; a missing end counts as +infinity.
func (p *PriceInterval) Intersects(o *PriceInterval) bool {
	if p.EndDate != nil && p.EndDate.Before(o.StartDate) {
		return false
	}
	if o.EndDate != nil && o.EndDate.Before(p.StartDate) {
		return false
	}
	return true
}

// PriceIntervalFilter represents filter criteria for price interval queries
type PriceIntervalFilter struct {
	ID              *uint            `json:"id,omitempty"`
	UUID            *uuid.UUID       `json:"uuid,omitempty"`
	ListingID       *uint            `json:"listing_id,omitempty"`
	TransactionType *TransactionType `json:"transaction_type,omitempty"`
	StartAfter      *time.Time       `json:"start_after,omitempty"`
	EndBefore       *time.Time       `json:"end_before,omitempty"`
	CurrentOnly     bool             `json:"current_only,omitempty"`
}

// Granularity is the width of one analytics bucket
type Granularity string

const (
	GranularityMonthly   Granularity = "MONTHLY"
	GranularityQuarterly Granularity = "QUARTERLY"
	GranularityYearly    Granularity = "YEARLY"
)

// Granularities lists every supported granularity in a stable order
var Granularities = []Granularity{
	GranularityMonthly,
	GranularityQuarterly,
	GranularityYearly,
}

// ParseGranularity accepts any letter case
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToUpper(strings.TrimSpace(s)))
	switch g {
	case GranularityMonthly, GranularityQuarterly, GranularityYearly:
		return g, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

func (g Granularity) String() string {
	return string(g)
}
