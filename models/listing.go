package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Listing is the property listing a price history belongs to. Only the fields the
// price engine reads or projects into are modelled here.
type Listing struct {
	ID    uint      `gorm:"primaryKey" json:"id"`
	UUID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_listings_uuid" json:"uuid"`
	Title string    `gorm:"size:255;not null" json:"title"`

	// Denormalized current prices, kept in sync with the open interval of each transaction type
	SalePrice     decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"sale_price"`
	LeasePrice    decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"lease_price"`
	SeasonalPrice decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"seasonal_price"`

	DisplaySettings datatypes.JSONType[ListingDisplaySettings] `gorm:"type:jsonb;not null;default:'{}'" json:"display_settings"`

	UpdatedBy *uint          `json:"updated_by,omitempty"`
	CreatedAt time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index:idx_listings_deleted_at" json:"-"`
}

func (Listing) TableName() string {
	return "listings"
}

// BeforeCreate ensures UUID is set for Listing
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.UUID == uuid.Nil {
		l.UUID = uuid.New()
	}
	return nil
}

// ListingDisplaySettings holds the auxiliary display options of a listing
type ListingDisplaySettings struct {
	ShowPriceHistory       bool   `json:"show_price_history"`
	ShowPriceChart         bool   `json:"show_price_chart"`
	HighlightPriceDrops    bool   `json:"highlight_price_drops"`
	DefaultGranularity     string `json:"default_granularity,omitempty"`
	DefaultLookbackPeriods int    `json:"default_lookback_periods,omitempty"`
}

// PriceColumn returns the listing column that mirrors the current price of t
func PriceColumn(t TransactionType) (string, bool) {
	switch t {
	case TransactionTypeSale:
		return "sale_price", true
	case TransactionTypeLease:
		return "lease_price", true
	case TransactionTypeSeasonal:
		return "seasonal_price", true
	}
	return "", false
}

// CurrentPrice returns the denormalized price for t
func (l *Listing) CurrentPrice(t TransactionType) decimal.NullDecimal {
	switch t {
	case TransactionTypeSale:
		return l.SalePrice
	case TransactionTypeLease:
		return l.LeasePrice
	case TransactionTypeSeasonal:
		return l.SeasonalPrice
	}
	return decimal.NullDecimal{}
}

// ListingFilter represents filter criteria for listing queries
type ListingFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
