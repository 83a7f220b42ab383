package dto

import "github.com/shopspring/decimal"

// CreatePriceIntervalRequest registers a new price for a listing and transaction type.
// Omitting end_date registers the new current price and closes the previous one.
type CreatePriceIntervalRequest struct {
	ListingID       uint             `json:"-"`
	ActorID         uint             `json:"-"`
	TransactionType string           `json:"type" validate:"required,transaction_type"`
	Amount          *decimal.Decimal `json:"amount" validate:"required"`
	StartDate       string           `json:"start_date" validate:"required,iso_date"`
	EndDate         *string          `json:"end_date,omitempty" validate:"omitempty,iso_date"`
	Reason          string           `json:"reason" validate:"required,max=255"`
	Note            *string          `json:"note,omitempty" validate:"omitempty,max=2000"`
}

// UpdatePriceIntervalRequest patches an interval; nil fields are left untouched.
// ClearEndDate reopens the interval and takes precedence over EndDate.
type UpdatePriceIntervalRequest struct {
	ListingID    uint             `json:"-"`
	IntervalID   uint             `json:"-"`
	ActorID      uint             `json:"-"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	StartDate    *string          `json:"start_date,omitempty" validate:"omitempty,iso_date"`
	EndDate      *string          `json:"end_date,omitempty" validate:"omitempty,iso_date"`
	ClearEndDate bool             `json:"clear_end_date,omitempty"`
	Reason       *string          `json:"reason,omitempty" validate:"omitempty,min=1,max=255"`
	Note         *string          `json:"note,omitempty" validate:"omitempty,max=2000"`
}

// DeletePriceIntervalRequest soft-deletes one interval
type DeletePriceIntervalRequest struct {
	ListingID  uint `json:"-"`
	IntervalID uint `json:"-"`
	ActorID    uint `json:"-"`
}

// GetPriceIntervalRequest fetches one interval of a listing
type GetPriceIntervalRequest struct {
	ListingID  uint `json:"-"`
	IntervalID uint `json:"-"`
}

// ListPriceHistoryRequest carries the list filters taken from the query string
type ListPriceHistoryRequest struct {
	ListingID       uint    `json:"-"`
	TransactionType *string `query:"type" validate:"omitempty,transaction_type"`
	StartAfter      *string `query:"start_after" validate:"omitempty,iso_date"`
	EndBefore       *string `query:"end_before" validate:"omitempty,iso_date"`
	CurrentOnly     bool    `query:"current_only"`
	SortBy          string  `query:"sort_by"`
	SortOrder       string  `query:"sort_order"`
	Page            int     `query:"page"`
	PageSize        int     `query:"page_size"`
}

// PriceIntervalItem is the API representation of a price interval
type PriceIntervalItem struct {
	ID              uint    `json:"id"`
	UUID            string  `json:"uuid"`
	ListingID       uint    `json:"listing_id"`
	TransactionType string  `json:"type"`
	Amount          string  `json:"amount"`
	StartDate       string  `json:"start_date"`
	EndDate         *string `json:"end_date"`
	IsCurrent       bool    `json:"is_current"`
	Reason          string  `json:"reason"`
	Note            *string `json:"note,omitempty"`
	CreatedBy       uint    `json:"created_by"`
	UpdatedBy       uint    `json:"updated_by"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type ListPriceHistoryResponse struct {
	Message    string              `json:"message"`
	Items      []PriceIntervalItem `json:"items"`
	Pagination PaginationInfo      `json:"pagination"`
}

type GetPriceIntervalResponse struct {
	Message  string            `json:"message"`
	Interval PriceIntervalItem `json:"interval"`
}

type CreatePriceIntervalResponse struct {
	Message  string            `json:"message"`
	Interval PriceIntervalItem `json:"interval"`
	// ClosedIntervalID is set when registering the price closed the previous current interval
	ClosedIntervalID *uint `json:"closed_interval_id,omitempty"`
}

type UpdatePriceIntervalResponse struct {
	Message  string            `json:"message"`
	Interval PriceIntervalItem `json:"interval"`
}

type DeletePriceIntervalResponse struct {
	Message   string `json:"message"`
	DeletedID uint   `json:"deleted_id"`
	// ReopenedInterval is the predecessor made current again, if any
	ReopenedInterval *PriceIntervalItem `json:"reopened_interval,omitempty"`
}

// PriceAnalysisRequest selects the series to build. Nil granularity or lookback
// fall back to the listing display settings, then to service defaults.
type PriceAnalysisRequest struct {
	ListingID       uint    `json:"-"`
	TransactionType string  `query:"type" validate:"required,transaction_type"`
	Granularity     *string `query:"granularity" validate:"omitempty,granularity"`
	LookbackPeriods *int    `query:"lookback_periods" validate:"omitempty,min=1"`
}

// PriceBucket is one period of the series. Amount is nil before the first known price.
type PriceBucket struct {
	Period           string  `json:"period"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	Amount           *string `json:"amount"`
	VariationPercent *string `json:"variation_percent"`
	Carried          bool    `json:"carried"`
}

// PriceStatistics summarizes every interval of the key, not only the window
type PriceStatistics struct {
	Count                   int     `json:"count"`
	Min                     *string `json:"min"`
	Max                     *string `json:"max"`
	Mean                    *string `json:"mean"`
	TotalVariationPercent   *string `json:"total_variation_percent"`
	AverageVariationPercent *string `json:"average_variation_percent"`
}

type PriceAnalysis struct {
	ListingID       uint            `json:"listing_id"`
	TransactionType string          `json:"type"`
	Granularity     string          `json:"granularity"`
	LookbackPeriods int             `json:"lookback_periods"`
	CurrentPeriod   string          `json:"current_period"`
	Buckets         []PriceBucket   `json:"buckets"`
	Statistics      PriceStatistics `json:"statistics"`
}

type PriceAnalysisResponse struct {
	Message  string         `json:"message"`
	Analysis *PriceAnalysis `json:"analysis"`
}

// ExportPriceHistoryRequest selects the listing whose history is exported
type ExportPriceHistoryRequest struct {
	ListingID uint `json:"-"`
}
