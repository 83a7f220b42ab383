package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/listing-price-history/app/dto"
	"github.com/amirphl/listing-price-history/config"
	"github.com/amirphl/listing-price-history/models"
	"github.com/amirphl/listing-price-history/repository"
	"github.com/amirphl/listing-price-history/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var priceIntervalMutations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "price_interval_mutations_total",
		Help: "Committed price interval mutations partitioned by action and transaction type",
	},
	[]string{"action", "transaction_type"},
)

// PriceHistoryFlow handles the price history of listings
type PriceHistoryFlow interface {
	ListPriceHistory(ctx context.Context, req *dto.ListPriceHistoryRequest) (*dto.ListPriceHistoryResponse, error)
	GetPriceInterval(ctx context.Context, req *dto.GetPriceIntervalRequest) (*dto.GetPriceIntervalResponse, error)
	CreatePriceInterval(ctx context.Context, req *dto.CreatePriceIntervalRequest, metadata *ClientMetadata) (*dto.CreatePriceIntervalResponse, error)
	UpdatePriceInterval(ctx context.Context, req *dto.UpdatePriceIntervalRequest, metadata *ClientMetadata) (*dto.UpdatePriceIntervalResponse, error)
	DeletePriceInterval(ctx context.Context, req *dto.DeletePriceIntervalRequest, metadata *ClientMetadata) (*dto.DeletePriceIntervalResponse, error)
	GetPriceAnalysis(ctx context.Context, req *dto.PriceAnalysisRequest) (*dto.PriceAnalysisResponse, error)
	ExportPriceHistory(ctx context.Context, req *dto.ExportPriceHistoryRequest) (string, []byte, error)
}

// PriceHistoryFlowImpl implements the price history business flow
type PriceHistoryFlowImpl struct {
	listingRepo  repository.ListingRepository
	intervalRepo repository.PriceIntervalRepository
	auditRepo    repository.PriceHistoryAuditLogRepository
	txManager    repository.TxManager
	projector    CurrentPriceProjector
	cache        *AnalyticsCache
	cfg          config.PriceHistoryConfig
	now          func() time.Time
}

// NewPriceHistoryFlow creates a new price history flow instance
func NewPriceHistoryFlow(
	listingRepo repository.ListingRepository,
	intervalRepo repository.PriceIntervalRepository,
	auditRepo repository.PriceHistoryAuditLogRepository,
	txManager repository.TxManager,
	projector CurrentPriceProjector,
	cache *AnalyticsCache,
	cfg config.PriceHistoryConfig,
) PriceHistoryFlow {
	if cfg.MaxLookbackPeriods <= 0 {
		cfg.MaxLookbackPeriods = utils.MaxLookbackPeriods
	}
	if cfg.DefaultLookbackPeriods <= 0 || cfg.DefaultLookbackPeriods > cfg.MaxLookbackPeriods {
		cfg.DefaultLookbackPeriods = min(utils.DefaultLookbackPeriods, cfg.MaxLookbackPeriods)
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = utils.MaxPageSize
	}
	if cfg.DefaultPageSize <= 0 || cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = min(utils.DefaultPageSize, cfg.MaxPageSize)
	}

	return &PriceHistoryFlowImpl{
		listingRepo:  listingRepo,
		intervalRepo: intervalRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		projector:    projector,
		cache:        cache,
		cfg:          cfg,
		now:          utils.UTCNow,
	}
}

var sortColumns = map[string]string{
	"start_date": "start_date",
	"end_date":   "end_date",
	"amount":     "amount",
	"created_at": "created_at",
}

// ListPriceHistory returns one page of a listing's intervals
func (f *PriceHistoryFlowImpl) ListPriceHistory(ctx context.Context, req *dto.ListPriceHistoryRequest) (*dto.ListPriceHistoryResponse, error) {
	filter, orderBy, page, pageSize, err := f.buildListQuery(req)
	if err != nil {
		return nil, NewBusinessError("PRICE_HISTORY_LIST_VALIDATION_FAILED", "Price history list validation failed", err)
	}

	if _, err := getListing(ctx, f.listingRepo, req.ListingID); err != nil {
		return nil, wrapFlowError("LIST", err)
	}

	total, err := f.intervalRepo.Count(ctx, filter)
	if err != nil {
		return nil, wrapFlowError("LIST", err)
	}

	rows, err := f.intervalRepo.ByFilter(ctx, filter, orderBy, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, wrapFlowError("LIST", err)
	}

	items := make([]dto.PriceIntervalItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, ToPriceIntervalItem(r))
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	return &dto.ListPriceHistoryResponse{
		Message: "Price history retrieved successfully",
		Items:   items,
		Pagination: dto.PaginationInfo{
			Total:      total,
			Page:       page,
			Limit:      pageSize,
			TotalPages: totalPages,
		},
	}, nil
}

func (f *PriceHistoryFlowImpl) buildListQuery(req *dto.ListPriceHistoryRequest) (models.PriceIntervalFilter, string, int, int, error) {
	filter := models.PriceIntervalFilter{
		ListingID:   &req.ListingID,
		CurrentOnly: req.CurrentOnly,
	}

	if req.TransactionType != nil && strings.TrimSpace(*req.TransactionType) != "" {
		t, err := models.ParseTransactionType(*req.TransactionType)
		if err != nil {
			return filter, "", 0, 0, ErrInvalidTransactionType
		}
		filter.TransactionType = &t
	}

	startAfter, err := utils.ParseDatePtr(req.StartAfter)
	if err != nil {
		return filter, "", 0, 0, ErrInvalidDate
	}
	endBefore, err := utils.ParseDatePtr(req.EndBefore)
	if err != nil {
		return filter, "", 0, 0, ErrInvalidDate
	}
	filter.StartAfter = startAfter
	filter.EndBefore = endBefore

	sortBy := strings.ToLower(strings.TrimSpace(req.SortBy))
	if sortBy == "" {
		sortBy = "start_date"
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return filter, "", 0, 0, ErrInvalidSortField
	}

	sortOrder := strings.ToLower(strings.TrimSpace(req.SortOrder))
	switch sortOrder {
	case "":
		sortOrder = "desc"
	case "asc", "desc":
	default:
		return filter, "", 0, 0, ErrInvalidSortOrder
	}

	page := req.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return filter, "", 0, 0, ErrInvalidPage
	}

	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = f.cfg.DefaultPageSize
	}
	if pageSize < 1 || pageSize > f.cfg.MaxPageSize {
		return filter, "", 0, 0, ErrInvalidPageSize
	}

	return filter, column + " " + strings.ToUpper(sortOrder), page, pageSize, nil
}

// GetPriceInterval returns one interval of a listing
func (f *PriceHistoryFlowImpl) GetPriceInterval(ctx context.Context, req *dto.GetPriceIntervalRequest) (*dto.GetPriceIntervalResponse, error) {
	if _, err := getListing(ctx, f.listingRepo, req.ListingID); err != nil {
		return nil, wrapFlowError("GET", err)
	}

	row, err := getPriceInterval(ctx, f.intervalRepo, req.ListingID, req.IntervalID)
	if err != nil {
		return nil, wrapFlowError("GET", err)
	}

	return &dto.GetPriceIntervalResponse{
		Message:  "Price interval retrieved successfully",
		Interval: ToPriceIntervalItem(row),
	}, nil
}

// CreatePriceInterval registers a price. An open-ended price becomes the current one and
// closes the previous current interval the day before it starts.
func (f *PriceHistoryFlowImpl) CreatePriceInterval(ctx context.Context, req *dto.CreatePriceIntervalRequest, metadata *ClientMetadata) (*dto.CreatePriceIntervalResponse, error) {
	candidate, err := buildCandidate(req)
	if err != nil {
		return nil, wrapFlowError("CREATE", err)
	}

	if _, err := getListing(ctx, f.listingRepo, req.ListingID); err != nil {
		return nil, wrapFlowError("CREATE", err)
	}

	var closed *models.PriceInterval
	err = f.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := f.intervalRepo.LockKey(txCtx, candidate.ListingID, candidate.TransactionType); err != nil {
			return err
		}

		existing, err := f.intervalRepo.ListByKey(txCtx, candidate.ListingID, candidate.TransactionType)
		if err != nil {
			return err
		}

		var closedBefore *models.PriceInterval
		if candidate.IsOpen() {
			if current := findOpen(existing); current != nil && current.StartDate.Before(candidate.StartDate) {
				closedBefore = clonePriceInterval(current)
				current.EndDate = utils.ToPtr(candidate.StartDate.AddDate(0, 0, -1))
				current.UpdatedBy = req.ActorID
				closed = current
			}
		}

		if err := ValidateNoOverlap(existing, candidate, nil); err != nil {
			return err
		}

		if closed != nil {
			if err := f.intervalRepo.Update(txCtx, closed); err != nil {
				return err
			}
			desc := fmt.Sprintf("Price interval %d closed on %s", closed.ID, utils.FormatDate(*closed.EndDate))
			if err := f.createAuditLog(txCtx, models.AuditActionPriceIntervalClosed, desc, req.ActorID, closedBefore, closed, metadata); err != nil {
				return err
			}
		}

		if err := f.intervalRepo.Save(txCtx, candidate); err != nil {
			return err
		}

		if candidate.IsOpen() {
			if err := f.projector.Project(txCtx, candidate.ListingID, candidate.TransactionType, decimal.NewNullDecimal(candidate.Amount), req.ActorID); err != nil {
				return err
			}
		}

		desc := fmt.Sprintf("Price interval %d created: %s from %s", candidate.ID, candidate.Amount.StringFixed(2), utils.FormatDate(candidate.StartDate))
		return f.createAuditLog(txCtx, models.AuditActionPriceIntervalCreated, desc, req.ActorID, nil, candidate, metadata)
	})
	if err != nil {
		return nil, wrapFlowError("CREATE", err)
	}

	f.afterCommit(ctx, "create", candidate.ListingID, candidate.TransactionType)

	resp := &dto.CreatePriceIntervalResponse{
		Message:  "Price interval created successfully",
		Interval: ToPriceIntervalItem(candidate),
	}
	if closed != nil {
		resp.ClosedIntervalID = utils.ToPtr(closed.ID)
	}
	return resp, nil
}

func buildCandidate(req *dto.CreatePriceIntervalRequest) (*models.PriceInterval, error) {
	t, err := models.ParseTransactionType(req.TransactionType)
	if err != nil {
		return nil, ErrInvalidTransactionType
	}
	if req.Amount == nil {
		return nil, ErrAmountRequired
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	start, err := utils.ParseDate(req.StartDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := utils.ParseDatePtr(req.EndDate)
	if err != nil {
		return nil, ErrInvalidDate
	}

	candidate := &models.PriceInterval{
		ListingID:       req.ListingID,
		TransactionType: t,
		Amount:          req.Amount.Round(2),
		StartDate:       start,
		EndDate:         end,
		Reason:          reason,
		Note:            req.Note,
		CreatedBy:       req.ActorID,
		UpdatedBy:       req.ActorID,
	}
	if err := validateIntervalFields(candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// UpdatePriceInterval patches an interval that has not ended before today
func (f *PriceHistoryFlowImpl) UpdatePriceInterval(ctx context.Context, req *dto.UpdatePriceIntervalRequest, metadata *ClientMetadata) (*dto.UpdatePriceIntervalResponse, error) {
	if req.Amount == nil && req.StartDate == nil && req.EndDate == nil && !req.ClearEndDate && req.Reason == nil && req.Note == nil {
		return nil, wrapFlowError("UPDATE", ErrPriceIntervalUpdateRequired)
	}

	start, err := utils.ParseDatePtr(req.StartDate)
	if err != nil {
		return nil, wrapFlowError("UPDATE", ErrInvalidDate)
	}
	end, err := utils.ParseDatePtr(req.EndDate)
	if err != nil {
		return nil, wrapFlowError("UPDATE", ErrInvalidDate)
	}

	if _, err := getListing(ctx, f.listingRepo, req.ListingID); err != nil {
		return nil, wrapFlowError("UPDATE", err)
	}

	var updated *models.PriceInterval
	err = f.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		row, err := f.lockedInterval(txCtx, req.ListingID, req.IntervalID)
		if err != nil {
			return err
		}

		if row.IsClosedBefore(utils.DateOnly(f.now())) {
			return ErrClosedIntervalImmutable
		}

		before := clonePriceInterval(row)

		if req.Amount != nil {
			row.Amount = req.Amount.Round(2)
		}
		if start != nil {
			row.StartDate = *start
		}
		if req.ClearEndDate {
			row.EndDate = nil
		} else if end != nil {
			row.EndDate = end
		}
		if req.Reason != nil {
			reason := strings.TrimSpace(*req.Reason)
			if reason == "" {
				return ErrReasonRequired
			}
			row.Reason = reason
		}
		if req.Note != nil {
			row.Note = req.Note
		}
		if err := validateIntervalFields(row); err != nil {
			return err
		}

		if !row.StartDate.Equal(before.StartDate) || !sameDate(row.EndDate, before.EndDate) {
			existing, err := f.intervalRepo.ListByKey(txCtx, row.ListingID, row.TransactionType)
			if err != nil {
				return err
			}
			if err := ValidateNoOverlap(existing, row, &row.ID); err != nil {
				return err
			}
		}

		row.UpdatedBy = req.ActorID
		if err := f.intervalRepo.Update(txCtx, row); err != nil {
			return err
		}

		switch {
		case row.IsOpen() && (!before.IsOpen() || !row.Amount.Equal(before.Amount)):
			err = f.projector.Project(txCtx, row.ListingID, row.TransactionType, decimal.NewNullDecimal(row.Amount), req.ActorID)
		case !row.IsOpen() && before.IsOpen():
			err = f.projector.Project(txCtx, row.ListingID, row.TransactionType, decimal.NullDecimal{}, req.ActorID)
		}
		if err != nil {
			return err
		}

		action := models.AuditActionPriceIntervalUpdated
		if row.IsOpen() && !before.IsOpen() {
			action = models.AuditActionPriceIntervalReopened
		}
		desc := fmt.Sprintf("Price interval %d updated", row.ID)
		if err := f.createAuditLog(txCtx, action, desc, req.ActorID, before, row, metadata); err != nil {
			return err
		}

		updated = row
		return nil
	})
	if err != nil {
		return nil, wrapFlowError("UPDATE", err)
	}

	f.afterCommit(ctx, "update", updated.ListingID, updated.TransactionType)

	return &dto.UpdatePriceIntervalResponse{
		Message:  "Price interval updated successfully",
		Interval: ToPriceIntervalItem(updated),
	}, nil
}

// DeletePriceInterval soft-deletes an interval. Deleting the current interval reopens the
// latest-started remaining one, or clears the listing price when none is left.
func (f *PriceHistoryFlowImpl) DeletePriceInterval(ctx context.Context, req *dto.DeletePriceIntervalRequest, metadata *ClientMetadata) (*dto.DeletePriceIntervalResponse, error) {
	if _, err := getListing(ctx, f.listingRepo, req.ListingID); err != nil {
		return nil, wrapFlowError("DELETE", err)
	}

	var (
		deleted  *models.PriceInterval
		reopened *models.PriceInterval
	)
	err := f.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		row, err := f.lockedInterval(txCtx, req.ListingID, req.IntervalID)
		if err != nil {
			return err
		}

		if err := f.intervalRepo.SoftDelete(txCtx, row.ID, req.ActorID); err != nil {
			return err
		}
		desc := fmt.Sprintf("Price interval %d deleted", row.ID)
		if err := f.createAuditLog(txCtx, models.AuditActionPriceIntervalDeleted, desc, req.ActorID, row, nil, metadata); err != nil {
			return err
		}
		deleted = row

		if !row.IsOpen() {
			return nil
		}

		latest, err := f.intervalRepo.LatestStartedByKey(txCtx, row.ListingID, row.TransactionType)
		if err != nil {
			return err
		}
		if latest == nil {
			return f.projector.Project(txCtx, row.ListingID, row.TransactionType, decimal.NullDecimal{}, req.ActorID)
		}

		before := clonePriceInterval(latest)
		latest.EndDate = nil
		latest.UpdatedBy = req.ActorID
		if err := f.intervalRepo.Update(txCtx, latest); err != nil {
			return err
		}
		if err := f.projector.Project(txCtx, latest.ListingID, latest.TransactionType, decimal.NewNullDecimal(latest.Amount), req.ActorID); err != nil {
			return err
		}
		desc = fmt.Sprintf("Price interval %d reopened after deleting %d", latest.ID, row.ID)
		if err := f.createAuditLog(txCtx, models.AuditActionPriceIntervalReopened, desc, req.ActorID, before, latest, metadata); err != nil {
			return err
		}
		reopened = latest
		return nil
	})
	if err != nil {
		return nil, wrapFlowError("DELETE", err)
	}

	f.afterCommit(ctx, "delete", deleted.ListingID, deleted.TransactionType)

	resp := &dto.DeletePriceIntervalResponse{
		Message:   "Price interval deleted successfully",
		DeletedID: deleted.ID,
	}
	if reopened != nil {
		item := ToPriceIntervalItem(reopened)
		resp.ReopenedInterval = &item
	}
	return resp, nil
}

// GetPriceAnalysis returns the bucketed series and statistics, served from cache when warm
func (f *PriceHistoryFlowImpl) GetPriceAnalysis(ctx context.Context, req *dto.PriceAnalysisRequest) (*dto.PriceAnalysisResponse, error) {
	t, err := models.ParseTransactionType(req.TransactionType)
	if err != nil {
		return nil, wrapFlowError("ANALYSIS", ErrInvalidTransactionType)
	}

	listing, err := getListing(ctx, f.listingRepo, req.ListingID)
	if err != nil {
		return nil, wrapFlowError("ANALYSIS", err)
	}

	granularity, lookback, err := f.analysisWindow(listing, req)
	if err != nil {
		return nil, wrapFlowError("ANALYSIS", err)
	}

	now := f.now()
	analysis, err := f.cache.GetOrCompute(ctx, listing.ID, t, granularity, lookback, now, func() (*dto.PriceAnalysis, error) {
		intervals, err := f.intervalRepo.ListByKey(ctx, listing.ID, t)
		if err != nil {
			return nil, err
		}
		return AnalyzePriceHistory(intervals, listing.ID, t, granularity, lookback, now), nil
	})
	if err != nil {
		return nil, wrapFlowError("ANALYSIS", err)
	}

	return &dto.PriceAnalysisResponse{
		Message:  "Price analysis retrieved successfully",
		Analysis: analysis,
	}, nil
}

// analysisWindow resolves granularity and lookback: request first, then the listing's
// display settings, then service defaults.
func (f *PriceHistoryFlowImpl) analysisWindow(listing *models.Listing, req *dto.PriceAnalysisRequest) (models.Granularity, int, error) {
	settings := listing.DisplaySettings.Data()

	granularity := models.GranularityMonthly
	switch {
	case req.Granularity != nil && strings.TrimSpace(*req.Granularity) != "":
		g, err := models.ParseGranularity(*req.Granularity)
		if err != nil {
			return "", 0, ErrInvalidGranularity
		}
		granularity = g
	case settings.DefaultGranularity != "":
		if g, err := models.ParseGranularity(settings.DefaultGranularity); err == nil {
			granularity = g
		}
	}

	lookback := f.cfg.DefaultLookbackPeriods
	switch {
	case req.LookbackPeriods != nil:
		lookback = *req.LookbackPeriods
		if lookback < 1 || lookback > f.cfg.MaxLookbackPeriods {
			return "", 0, ErrInvalidLookbackPeriods
		}
	case settings.DefaultLookbackPeriods >= 1 && settings.DefaultLookbackPeriods <= f.cfg.MaxLookbackPeriods:
		lookback = settings.DefaultLookbackPeriods
	}

	return granularity, lookback, nil
}

// afterCommit runs the post-commit steps of a write. Cache failures only degrade freshness
// until the TTL expires, so they are logged rather than returned.
func (f *PriceHistoryFlowImpl) afterCommit(ctx context.Context, action string, listingID uint, t models.TransactionType) {
	priceIntervalMutations.WithLabelValues(action, t.String()).Inc()

	if err := f.cache.Invalidate(ctx, listingID); err != nil {
		log.Warn().Err(err).Uint("listing_id", listingID).Str("action", action).Msg("failed to invalidate price analysis cache")
	}
}

// lockedInterval loads an interval of the listing, takes the key lock and reloads it so
// the caller sees the state no concurrent writer can change.
func (f *PriceHistoryFlowImpl) lockedInterval(ctx context.Context, listingID, intervalID uint) (*models.PriceInterval, error) {
	row, err := getPriceInterval(ctx, f.intervalRepo, listingID, intervalID)
	if err != nil {
		return nil, err
	}
	if err := f.intervalRepo.LockKey(ctx, row.ListingID, row.TransactionType); err != nil {
		return nil, err
	}
	return getPriceInterval(ctx, f.intervalRepo, listingID, intervalID)
}

func (f *PriceHistoryFlowImpl) createAuditLog(ctx context.Context, action, description string, actorID uint, before, after *models.PriceInterval, metadata *ClientMetadata) error {
	subject := after
	if subject == nil {
		subject = before
	}

	audit := &models.PriceHistoryAuditLog{
		ListingID:       subject.ListingID,
		PriceIntervalID: utils.ToPtr(subject.ID),
		TransactionType: subject.TransactionType,
		ActorID:         actorID,
		Action:          action,
		Description:     &description,
		Before:          snapshot(before),
		After:           snapshot(after),
		RequestID:       requestIDFromContext(ctx),
	}
	if metadata != nil {
		audit.IPAddress = &metadata.IPAddress
		audit.UserAgent = &metadata.UserAgent
		if audit.RequestID == nil && metadata.RequestID != "" {
			audit.RequestID = &metadata.RequestID
		}
	}

	return f.auditRepo.Save(ctx, audit)
}

func getListing(ctx context.Context, repo repository.ListingRepository, id uint) (*models.Listing, error) {
	listing, err := repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

// getPriceInterval returns a live interval only when it belongs to the listing
func getPriceInterval(ctx context.Context, repo repository.PriceIntervalRepository, listingID, id uint) (*models.PriceInterval, error) {
	row, err := repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil || row.ListingID != listingID {
		return nil, ErrPriceIntervalNotFound
	}
	return row, nil
}

func findOpen(rows []*models.PriceInterval) *models.PriceInterval {
	for _, r := range rows {
		if r.IsOpen() {
			return r
		}
	}
	return nil
}

func clonePriceInterval(p *models.PriceInterval) *models.PriceInterval {
	c := *p
	if p.EndDate != nil {
		c.EndDate = utils.ToPtr(*p.EndDate)
	}
	if p.Note != nil {
		c.Note = utils.ToPtr(*p.Note)
	}
	return &c
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// wrapFlowError gives every failure of an operation a stable code; anything that is not a
// known business rule is treated as a persistence failure and logged.
func wrapFlowError(op string, err error) error {
	switch {
	case IsIntervalOverlap(err):
		return NewBusinessError("PRICE_INTERVAL_OVERLAP", "Price interval overlaps an existing interval", err)
	case IsValidationError(err):
		return NewBusinessError("PRICE_INTERVAL_VALIDATION_FAILED", "Price interval validation failed", err)
	case IsConflictError(err):
		return NewBusinessError("PRICE_INTERVAL_IMMUTABLE", "Closed price interval cannot be edited", err)
	case IsListingNotFound(err):
		return NewBusinessError("LISTING_NOT_FOUND", "Listing not found", err)
	case IsPriceIntervalNotFound(err):
		return NewBusinessError("PRICE_INTERVAL_NOT_FOUND", "Price interval not found", err)
	}

	log.Error().Err(err).Str("operation", op).Msg("price history operation failed")
	return NewBusinessErrorf("PRICE_INTERVAL_"+op+"_FAILED", "Price history %s failed", err, strings.ToLower(op))
}
