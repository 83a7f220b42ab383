package utils

import (
	"time"
)

type contextKey string

// Request-scoped context keys populated by the HTTP handlers
const (
	RequestIDKey contextKey = "request_id"
	UserAgentKey contextKey = "user_agent"
	IPAddressKey contextKey = "ip_address"
	EndpointKey  contextKey = "endpoint"
	TimeoutKey   contextKey = "timeout"
	UserIDKey    contextKey = "user_id"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Price history constants
const (
	// DateLayout is the wire format of every price interval date
	DateLayout = "2006-01-02"

	// AnalyticsCacheTTL is the default lifetime of a cached price analysis
	AnalyticsCacheTTL = 1 * time.Hour

	// DefaultLookbackPeriods is used when neither the request nor the listing settings choose one
	DefaultLookbackPeriods = 12

	// MaxLookbackPeriods bounds lookback_periods
	MaxLookbackPeriods = 36

	DefaultPageSize = 20
	MaxPageSize     = 100

	// PriceAnalysisCacheKey is the key family of cached analyses:
	// listing, generation, type, granularity, lookback, current period
	PriceAnalysisCacheKey = "price_analysis:%d:g%d:%s:%s:%d:%s"
	// PriceAnalysisGenerationKey holds the invalidation counter of a listing
	PriceAnalysisGenerationKey = "price_analysis:%d:gen"
)
