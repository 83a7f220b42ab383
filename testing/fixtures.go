package testing

import (
	"fmt"
	"time"

	"github.com/amirphl/listing-price-history/models"
	"github.com/amirphl/listing-price-history/utils"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestListing inserts a listing without prices
func (tf *TestFixtures) CreateTestListing(title string) (*models.Listing, error) {
	listing := &models.Listing{
		Title:           title,
		DisplaySettings: datatypes.NewJSONType(models.ListingDisplaySettings{ShowPriceHistory: true}),
	}
	if err := tf.DB.DB.Create(listing).Error; err != nil {
		return nil, fmt.Errorf("failed to create test listing: %w", err)
	}
	return listing, nil
}

// CreateTestInterval inserts an interval directly, bypassing the business flow.
// end is "" for an open interval.
func (tf *TestFixtures) CreateTestInterval(listingID uint, t models.TransactionType, amount, start, end string) (*models.PriceInterval, error) {
	startDate, err := utils.ParseDate(start)
	if err != nil {
		return nil, err
	}

	var endDate *time.Time
	if end != "" {
		d, err := utils.ParseDate(end)
		if err != nil {
			return nil, err
		}
		endDate = &d
	}

	interval := &models.PriceInterval{
		ListingID:       listingID,
		TransactionType: t,
		Amount:          decimal.RequireFromString(amount),
		StartDate:       startDate,
		EndDate:         endDate,
		Reason:          "fixture",
		CreatedBy:       1,
		UpdatedBy:       1,
	}
	if err := tf.DB.DB.Create(interval).Error; err != nil {
		return nil, fmt.Errorf("failed to create test interval: %w", err)
	}
	return interval, nil
}
