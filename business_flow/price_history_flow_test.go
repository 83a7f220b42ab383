package businessflow

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/amirphl/listing-price-history/app/dto"
	"github.com/amirphl/listing-price-history/config"
	"github.com/amirphl/listing-price-history/models"
	"github.com/amirphl/listing-price-history/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

const actorID uint = 42

type flowFixture struct {
	flow    *PriceHistoryFlowImpl
	store   *memStore
	backend *MemoryCacheBackend
	ctx     context.Context
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	store := newMemStore()
	store.addListing(1)
	store.addListing(2)

	backend := NewMemoryCacheBackend()
	listingRepo := &fakeListingRepo{store: store}
	flow := NewPriceHistoryFlow(
		listingRepo,
		&fakeIntervalRepo{store: store},
		&fakeAuditRepo{store: store},
		&fakeTxManager{store: store},
		NewCurrentPriceProjector(listingRepo),
		NewAnalyticsCache(backend, "test", time.Hour),
		config.PriceHistoryConfig{},
	).(*PriceHistoryFlowImpl)
	flow.now = func() time.Time { return june2024 }

	return &flowFixture{
		flow:    flow,
		store:   store,
		backend: backend,
		ctx:     context.Background(),
	}
}

func (fx *flowFixture) seed(start string, end *string, amount string) *models.PriceInterval {
	return fx.store.addInterval(interval(0, start, end, amount))
}

func (fx *flowFixture) salePrice() decimal.NullDecimal {
	return fx.store.listings[1].SalePrice
}

func amountPtr(v string) *decimal.Decimal {
	return utils.ToPtr(decimal.RequireFromString(v))
}

func createReq(start string, end *string, amount string) *dto.CreatePriceIntervalRequest {
	return &dto.CreatePriceIntervalRequest{
		ListingID:       1,
		ActorID:         actorID,
		TransactionType: "sale",
		Amount:          amountPtr(amount),
		StartDate:       start,
		EndDate:         end,
		Reason:          "market adjustment",
	}
}

func TestCreatePriceInterval_FirstCurrentPrice(t *testing.T) {
	fx := newFlowFixture(t)

	resp, err := fx.flow.CreatePriceInterval(fx.ctx, createReq("2024-04-01", nil, "1200"), NewClientMetadata("127.0.0.1", "test"))
	require.NoError(t, err)

	assert.True(t, resp.Interval.IsCurrent)
	assert.Equal(t, "SALE", resp.Interval.TransactionType)
	assert.Equal(t, "1200.00", resp.Interval.Amount)
	assert.Nil(t, resp.ClosedIntervalID)
	require.True(t, fx.salePrice().Valid)
	assert.Equal(t, "1200.00", fx.salePrice().Decimal.StringFixed(2))
	assert.Equal(t, []string{"SALE"}, fx.store.locks)

	require.Len(t, fx.store.audits, 1)
	audit := fx.store.audits[0]
	assert.Equal(t, models.AuditActionPriceIntervalCreated, audit.Action)
	assert.Equal(t, actorID, audit.ActorID)
	assert.Equal(t, "127.0.0.1", utils.StringValue(audit.IPAddress))
	assert.Nil(t, audit.Before)
	assert.NotEmpty(t, audit.After)
}

func TestCreatePriceInterval_ClosesPreviousCurrent(t *testing.T) {
	fx := newFlowFixture(t)
	a := fx.seed("2024-01-01", nil, "1000")

	resp, err := fx.flow.CreatePriceInterval(fx.ctx, createReq("2024-04-01", nil, "1200"), nil)
	require.NoError(t, err)

	require.NotNil(t, resp.ClosedIntervalID)
	assert.Equal(t, a.ID, *resp.ClosedIntervalID)

	closed := fx.store.intervals[a.ID]
	require.NotNil(t, closed.EndDate)
	assert.Equal(t, "2024-03-31", utils.FormatDate(*closed.EndDate))
	assert.Equal(t, actorID, closed.UpdatedBy)
	assert.Equal(t, 1, fx.store.openCount(1, models.TransactionTypeSale))
	assert.Equal(t, "1200.00", fx.salePrice().Decimal.StringFixed(2))

	require.Len(t, fx.store.audits, 2)
	assert.Equal(t, models.AuditActionPriceIntervalClosed, fx.store.audits[0].Action)
	assert.Equal(t, models.AuditActionPriceIntervalCreated, fx.store.audits[1].Action)
}

func TestCreatePriceInterval_OverlapLeavesStoreUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   *string
	}{
		{"start inside closed interval", "2024-03-15", utils.ToPtr("2024-04-15")},
		{"containing the closed interval", "2023-12-01", utils.ToPtr("2024-04-01")},
		{"open price starting before the current one", "2024-05-01", nil},
		{"explicit range inside the current one", "2024-07-01", utils.ToPtr("2024-07-31")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFlowFixture(t)
			a := fx.seed("2024-01-01", utils.ToPtr("2024-03-31"), "1000")
			b := fx.seed("2024-06-01", nil, "1200")
			before := fx.store.snapshot()

			_, err := fx.flow.CreatePriceInterval(fx.ctx, createReq(tt.start, tt.end, "1300"), nil)
			require.Error(t, err)
			assert.True(t, IsIntervalOverlap(err))
			assert.True(t, IsValidationError(err))

			var be *BusinessError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, "PRICE_INTERVAL_OVERLAP", be.Code)

			assert.Equal(t, before.intervals, fx.store.intervals)
			assert.Empty(t, fx.store.audits)
			assert.Nil(t, fx.store.intervals[b.ID].EndDate)
			assert.NotNil(t, fx.store.intervals[a.ID].EndDate)
		})
	}
}

func TestCreatePriceInterval_ExplicitRangeInGapDoesNotProject(t *testing.T) {
	fx := newFlowFixture(t)
	fx.seed("2024-01-01", utils.ToPtr("2024-01-31"), "900")
	fx.seed("2024-03-01", nil, "1100")
	fx.store.listings[1].SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("1100"))

	resp, err := fx.flow.CreatePriceInterval(fx.ctx, createReq("2024-02-01", utils.ToPtr("2024-02-29"), "1000"), nil)
	require.NoError(t, err)

	assert.False(t, resp.Interval.IsCurrent)
	assert.Nil(t, resp.ClosedIntervalID)
	assert.Equal(t, "1100.00", fx.salePrice().Decimal.StringFixed(2))
}

func TestCreatePriceInterval_Validation(t *testing.T) {
	fx := newFlowFixture(t)

	negative := createReq("2024-01-01", nil, "-5")
	_, err := fx.flow.CreatePriceInterval(fx.ctx, negative, nil)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	inverted := createReq("2024-02-01", utils.ToPtr("2024-01-01"), "5")
	_, err = fx.flow.CreatePriceInterval(fx.ctx, inverted, nil)
	assert.ErrorIs(t, err, ErrStartDateAfterEndDate)

	badType := createReq("2024-01-01", nil, "5")
	badType.TransactionType = "RENT"
	_, err = fx.flow.CreatePriceInterval(fx.ctx, badType, nil)
	assert.ErrorIs(t, err, ErrInvalidTransactionType)

	badDate := createReq("01/02/2024", nil, "5")
	_, err = fx.flow.CreatePriceInterval(fx.ctx, badDate, nil)
	assert.ErrorIs(t, err, ErrInvalidDate)

	missingListing := createReq("2024-01-01", nil, "5")
	missingListing.ListingID = 99
	_, err = fx.flow.CreatePriceInterval(fx.ctx, missingListing, nil)
	assert.True(t, IsNotFoundError(err))

	assert.Empty(t, fx.store.intervals)
}

func TestCreatePriceInterval_ProjectionFailureRollsBack(t *testing.T) {
	fx := newFlowFixture(t)
	a := fx.seed("2024-01-01", nil, "1000")
	fx.store.failProject = true

	_, err := fx.flow.CreatePriceInterval(fx.ctx, createReq("2024-04-01", nil, "1200"), nil)
	require.Error(t, err)

	var be *BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "PRICE_INTERVAL_CREATE_FAILED", be.Code)
	assert.Len(t, fx.store.intervals, 1)
	assert.Nil(t, fx.store.intervals[a.ID].EndDate)
	assert.Empty(t, fx.store.audits)
}

func TestUpdatePriceInterval_ClosedHistoricalIsImmutable(t *testing.T) {
	fx := newFlowFixture(t)
	a := fx.seed("2024-01-01", utils.ToPtr("2024-03-31"), "1000")

	_, err := fx.flow.UpdatePriceInterval(fx.ctx, &dto.UpdatePriceIntervalRequest{
		ListingID:  1,
		IntervalID: a.ID,
		ActorID:    actorID,
		Amount:     amountPtr("1100"),
	}, nil)
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
	assert.False(t, IsValidationError(err))
	assert.Equal(t, "1000.00", fx.store.intervals[a.ID].Amount.StringFixed(2))
}

func TestUpdatePriceInterval_IntervalEndingTodayIsEditable(t *testing.T) {
	fx := newFlowFixture(t)
	a := fx.seed("2024-06-01", utils.ToPtr("2024-06-15"), "1000")

	resp, err := fx.flow.UpdatePriceInterval(fx.ctx, &dto.UpdatePriceIntervalRequest{
		ListingID:  1,
		IntervalID: a.ID,
		ActorID:    actorID,
		Note:       utils.ToPtr("corrected"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "corrected", utils.StringValue(resp.Interval.Note))
}

func TestUpdatePriceInterval_CurrentAmountIsProjected(t *testing.T) {
	fx := newFlowFixture(t)
	b := fx.seed("2024-04-01", nil, "1200")

	resp, err := fx.flow.UpdatePriceInterval(fx.ctx, &dto.UpdatePriceIntervalRequest{
		ListingID:  1,
		IntervalID: b.ID,
		ActorID:    actorID,
		Amount:     amountPtr("1250.5"),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "1250.50", resp.Interval.Amount)
	assert.Equal(t, "1250.50", fx.salePrice().Decimal.StringFixed(2))
	assert.Equal(t, actorID, *fx.store.listings[1].UpdatedBy)
	require.Len(t, fx.store.audits, 1)
	assert.Equal(t, models.AuditActionPriceIntervalUpdated, fx.store.audits[0].Action)
	assert.NotEmpty(t, fx.store.audits[0].Before)
}

func TestUpdatePriceInterval_OverlapExcludesItself(t *testing.T) {
	fx := newFlowFixture(t)
	fx.seed("2024-01-01", utils.ToPtr("2024-03-31"), "1000")
	b := fx.seed("2024-04-01", nil, "1200")

	_, err := fx.flow.UpdatePriceInterval(fx.ctx, &dto.UpdatePriceIntervalRequest{
		ListingID:  1,
		IntervalID: b.ID,
		ActorID:    actorID,
		StartDate:  utils.ToPtr("2024-04-10"),
	}, nil)
	require.NoError(t, err)

	_, err = fx.flow.UpdatePriceInterval(fx.ctx, &dto.UpdatePriceIntervalRequest{
		ListingID:  1,
		IntervalID: b.ID,
		ActorID:    actorID,
		StartDate:  utils.ToPtr("2024-03-01"),
	}, nil)
	require.Error(t, err)
	assert.True(t, IsIntervalOverlap(err))
	assert.Equal(t, "2024-04-10", utils.FormatDate(fx.store.intervals[b.ID].StartDate))
}

func TestUpdatePriceInterval_ClosingCurrentClearsListingPrice(t *testing.T) {
	fx := newFlowFixture(t)
	b := fx.seed("2024-04-01", nil, "1200")
	fx.store.listings[1].SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("1200"))

	_, err := fx.flow.UpdatePriceInterval(fx.ctx, &dto.UpdatePriceIntervalRequest{
		ListingID:  1,
		IntervalID: b.ID,
		ActorID:    actorID,
		EndDate:    utils.ToPtr("2024-12-31"),
	}, nil)
	require.NoError(t, err)
	assert.False(t, fx.salePrice().Valid)

	resp, err := fx.flow.UpdatePriceInterval(fx.ctx, &dto.UpdatePriceIntervalRequest{
		ListingID:    1,
		IntervalID:   b.ID,
		ActorID:      actorID,
		ClearEndDate: true,
	}, nil)
	require.NoError(t, err)
	assert.True(t, resp.Interval.IsCurrent)
	assert.Equal(t, "1200.00", fx.salePrice().Decimal.StringFixed(2))
	assert.Equal(t, models.AuditActionPriceIntervalReopened, fx.store.audits[len(fx.store.audits)-1].Action)
}

func TestUpdatePriceInterval_Validation(t *testing.T) {
	fx := newFlowFixture(t)
	b := fx.seed("2024-04-01", nil, "1200")

	_, err := fx.flow.UpdatePriceInterval(fx.ctx, &dto.UpdatePriceIntervalRequest{ListingID: 1, IntervalID: b.ID}, nil)
	assert.ErrorIs(t, err, ErrPriceIntervalUpdateRequired)

	_, err = fx.flow.UpdatePriceInterval(fx.ctx, &dto.UpdatePriceIntervalRequest{ListingID: 1, IntervalID: b.ID, Amount: amountPtr("-1")}, nil)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = fx.flow.UpdatePriceInterval(fx.ctx, &dto.UpdatePriceIntervalRequest{ListingID: 1, IntervalID: b.ID, EndDate: utils.ToPtr("2024-03-01")}, nil)
	assert.ErrorIs(t, err, ErrStartDateAfterEndDate)

	_, err = fx.flow.UpdatePriceInterval(fx.ctx, &dto.UpdatePriceIntervalRequest{ListingID: 2, IntervalID: b.ID, Note: utils.ToPtr("x")}, nil)
	assert.True(t, IsPriceIntervalNotFound(err))

	assert.Nil(t, fx.store.intervals[b.ID].EndDate)
}

func TestDeletePriceInterval_ReopensPredecessor(t *testing.T) {
	fx := newFlowFixture(t)
	a := fx.seed("2024-01-01", utils.ToPtr("2024-03-31"), "1000")
	b := fx.seed("2024-04-01", nil, "1200")
	fx.store.listings[1].SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("1200"))

	resp, err := fx.flow.DeletePriceInterval(fx.ctx, &dto.DeletePriceIntervalRequest{ListingID: 1, IntervalID: b.ID, ActorID: actorID}, nil)
	require.NoError(t, err)

	assert.Equal(t, b.ID, resp.DeletedID)
	require.NotNil(t, resp.ReopenedInterval)
	assert.Equal(t, a.ID, resp.ReopenedInterval.ID)

	assert.True(t, fx.store.intervals[b.ID].DeletedAt.Valid)
	assert.Equal(t, actorID, *fx.store.intervals[b.ID].DeletedBy)
	assert.Nil(t, fx.store.intervals[a.ID].EndDate)
	assert.Equal(t, "1000.00", fx.salePrice().Decimal.StringFixed(2))
	assert.Equal(t, 1, fx.store.openCount(1, models.TransactionTypeSale))

	require.Len(t, fx.store.audits, 2)
	assert.Equal(t, models.AuditActionPriceIntervalDeleted, fx.store.audits[0].Action)
	assert.Equal(t, models.AuditActionPriceIntervalReopened, fx.store.audits[1].Action)
}

func TestDeletePriceInterval_LastCurrentClearsListingPrice(t *testing.T) {
	fx := newFlowFixture(t)
	b := fx.seed("2024-04-01", nil, "1200")
	fx.store.listings[1].SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("1200"))

	resp, err := fx.flow.DeletePriceInterval(fx.ctx, &dto.DeletePriceIntervalRequest{ListingID: 1, IntervalID: b.ID, ActorID: actorID}, nil)
	require.NoError(t, err)

	assert.Nil(t, resp.ReopenedInterval)
	assert.False(t, fx.salePrice().Valid)
}

func TestDeletePriceInterval_HistoricalKeepsCurrent(t *testing.T) {
	fx := newFlowFixture(t)
	a := fx.seed("2024-01-01", utils.ToPtr("2024-03-31"), "1000")
	b := fx.seed("2024-04-01", nil, "1200")
	fx.store.listings[1].SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("1200"))

	resp, err := fx.flow.DeletePriceInterval(fx.ctx, &dto.DeletePriceIntervalRequest{ListingID: 1, IntervalID: a.ID, ActorID: actorID}, nil)
	require.NoError(t, err)

	assert.Nil(t, resp.ReopenedInterval)
	assert.Nil(t, fx.store.intervals[b.ID].EndDate)
	assert.Equal(t, "1200.00", fx.salePrice().Decimal.StringFixed(2))
}

func TestDeletePriceInterval_ReopenFailureRollsBack(t *testing.T) {
	fx := newFlowFixture(t)
	a := fx.seed("2024-01-01", utils.ToPtr("2024-03-31"), "1000")
	b := fx.seed("2024-04-01", nil, "1200")
	fx.store.listings[1].SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("1200"))
	fx.store.failUpdate = true

	_, err := fx.flow.DeletePriceInterval(fx.ctx, &dto.DeletePriceIntervalRequest{ListingID: 1, IntervalID: b.ID, ActorID: actorID}, nil)
	require.Error(t, err)

	var be *BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "PRICE_INTERVAL_DELETE_FAILED", be.Code)
	assert.False(t, fx.store.intervals[b.ID].DeletedAt.Valid)
	assert.NotNil(t, fx.store.intervals[a.ID].EndDate)
	assert.Equal(t, "1200.00", fx.salePrice().Decimal.StringFixed(2))
	assert.Empty(t, fx.store.audits)
}

func TestDeletePriceInterval_NotFound(t *testing.T) {
	fx := newFlowFixture(t)
	b := fx.seed("2024-04-01", nil, "1200")

	_, err := fx.flow.DeletePriceInterval(fx.ctx, &dto.DeletePriceIntervalRequest{ListingID: 2, IntervalID: b.ID, ActorID: actorID}, nil)
	assert.True(t, IsPriceIntervalNotFound(err))

	_, err = fx.flow.DeletePriceInterval(fx.ctx, &dto.DeletePriceIntervalRequest{ListingID: 1, IntervalID: 9999, ActorID: actorID}, nil)
	assert.True(t, IsNotFoundError(err))

	_, err = fx.flow.DeletePriceInterval(fx.ctx, &dto.DeletePriceIntervalRequest{ListingID: 1, IntervalID: b.ID, ActorID: actorID}, nil)
	require.NoError(t, err)
	_, err = fx.flow.DeletePriceInterval(fx.ctx, &dto.DeletePriceIntervalRequest{ListingID: 1, IntervalID: b.ID, ActorID: actorID}, nil)
	assert.True(t, IsPriceIntervalNotFound(err))
}

func TestAtMostOneOpenIntervalAcrossOperations(t *testing.T) {
	fx := newFlowFixture(t)

	steps := []func() error{
		func() error {
			_, err := fx.flow.CreatePriceInterval(fx.ctx, createReq("2024-01-01", nil, "1000"), nil)
			return err
		},
		func() error {
			_, err := fx.flow.CreatePriceInterval(fx.ctx, createReq("2024-02-01", nil, "1100"), nil)
			return err
		},
		func() error {
			_, err := fx.flow.CreatePriceInterval(fx.ctx, createReq("2024-01-15", nil, "999"), nil)
			return err
		},
		func() error {
			_, err := fx.flow.CreatePriceInterval(fx.ctx, createReq("2024-05-01", nil, "1300"), nil)
			return err
		},
		func() error {
			current := findOpen(fx.store.live(1, models.TransactionTypeSale))
			_, err := fx.flow.DeletePriceInterval(fx.ctx, &dto.DeletePriceIntervalRequest{ListingID: 1, IntervalID: current.ID, ActorID: actorID}, nil)
			return err
		},
		func() error {
			current := findOpen(fx.store.live(1, models.TransactionTypeSale))
			_, err := fx.flow.DeletePriceInterval(fx.ctx, &dto.DeletePriceIntervalRequest{ListingID: 1, IntervalID: current.ID, ActorID: actorID}, nil)
			return err
		},
	}

	for _, step := range steps {
		_ = step()
		assert.LessOrEqual(t, fx.store.openCount(1, models.TransactionTypeSale), 1)
	}

	current := findOpen(fx.store.live(1, models.TransactionTypeSale))
	require.NotNil(t, current)
	assert.Equal(t, "1000.00", current.Amount.StringFixed(2))
	assert.Equal(t, "1000.00", fx.salePrice().Decimal.StringFixed(2))
}

func TestGetPriceAnalysis_CachedUntilWrite(t *testing.T) {
	fx := newFlowFixture(t)
	fx.seed("2024-01-01", utils.ToPtr("2024-03-31"), "1000")
	fx.seed("2024-04-01", nil, "1200")

	req := &dto.PriceAnalysisRequest{
		ListingID:       1,
		TransactionType: "SALE",
		Granularity:     utils.ToPtr("monthly"),
		LookbackPeriods: utils.ToPtr(6),
	}

	first, err := fx.flow.GetPriceAnalysis(fx.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, fx.backend.Len())
	assert.Equal(t, utils.ToPtr("20.00"), first.Analysis.Buckets[3].VariationPercent)

	second, err := fx.flow.GetPriceAnalysis(fx.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.Analysis, second.Analysis)

	_, err = fx.flow.CreatePriceInterval(fx.ctx, createReq("2024-06-01", nil, "1500"), nil)
	require.NoError(t, err)
	gen, err := fx.flow.cache.Generation(fx.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	third, err := fx.flow.GetPriceAnalysis(fx.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, utils.ToPtr("1500.00"), third.Analysis.Buckets[5].Amount)
	assert.Equal(t, utils.ToPtr("25.00"), third.Analysis.Buckets[5].VariationPercent)
}

func TestGetPriceAnalysis_RecomputedWhenPeriodRollsOver(t *testing.T) {
	fx := newFlowFixture(t)
	fx.seed("2024-05-01", nil, "1200")

	req := &dto.PriceAnalysisRequest{
		ListingID:       1,
		TransactionType: "SALE",
		Granularity:     utils.ToPtr("MONTHLY"),
		LookbackPeriods: utils.ToPtr(3),
	}

	june, err := fx.flow.GetPriceAnalysis(fx.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "2024-06", june.Analysis.CurrentPeriod)

	fx.flow.now = func() time.Time { return time.Date(2024, time.July, 1, 0, 5, 0, 0, time.UTC) }

	july, err := fx.flow.GetPriceAnalysis(fx.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "2024-07", july.Analysis.CurrentPeriod)
	assert.Equal(t, "2024-05", july.Analysis.Buckets[0].Period)
	assert.Equal(t, utils.ToPtr("1200.00"), july.Analysis.Buckets[2].Amount)
	assert.True(t, july.Analysis.Buckets[2].Carried)
}

func TestGetPriceAnalysis_DefaultsFromDisplaySettings(t *testing.T) {
	fx := newFlowFixture(t)
	fx.store.listings[1].DisplaySettings = datatypes.NewJSONType(models.ListingDisplaySettings{
		ShowPriceChart:         true,
		DefaultGranularity:     "QUARTERLY",
		DefaultLookbackPeriods: 4,
	})

	resp, err := fx.flow.GetPriceAnalysis(fx.ctx, &dto.PriceAnalysisRequest{ListingID: 1, TransactionType: "LEASE"})
	require.NoError(t, err)
	assert.Equal(t, "QUARTERLY", resp.Analysis.Granularity)
	assert.Equal(t, 4, resp.Analysis.LookbackPeriods)
	assert.Equal(t, "2024-Q2", resp.Analysis.CurrentPeriod)

	resp, err = fx.flow.GetPriceAnalysis(fx.ctx, &dto.PriceAnalysisRequest{ListingID: 2, TransactionType: "LEASE"})
	require.NoError(t, err)
	assert.Equal(t, "MONTHLY", resp.Analysis.Granularity)
	assert.Equal(t, utils.DefaultLookbackPeriods, resp.Analysis.LookbackPeriods)
}

func TestGetPriceAnalysis_Validation(t *testing.T) {
	fx := newFlowFixture(t)

	_, err := fx.flow.GetPriceAnalysis(fx.ctx, &dto.PriceAnalysisRequest{ListingID: 1, TransactionType: "SALE", LookbackPeriods: utils.ToPtr(37)})
	assert.ErrorIs(t, err, ErrInvalidLookbackPeriods)

	_, err = fx.flow.GetPriceAnalysis(fx.ctx, &dto.PriceAnalysisRequest{ListingID: 1, TransactionType: "SALE", Granularity: utils.ToPtr("WEEKLY")})
	assert.ErrorIs(t, err, ErrInvalidGranularity)

	_, err = fx.flow.GetPriceAnalysis(fx.ctx, &dto.PriceAnalysisRequest{ListingID: 1, TransactionType: "BARTER"})
	assert.ErrorIs(t, err, ErrInvalidTransactionType)

	_, err = fx.flow.GetPriceAnalysis(fx.ctx, &dto.PriceAnalysisRequest{ListingID: 9, TransactionType: "SALE"})
	assert.True(t, IsListingNotFound(err))
}

func TestListPriceHistory(t *testing.T) {
	fx := newFlowFixture(t)
	fx.seed("2023-01-01", utils.ToPtr("2023-12-31"), "900")
	fx.seed("2024-01-01", utils.ToPtr("2024-03-31"), "1000")
	fx.seed("2024-04-01", nil, "1200")

	resp, err := fx.flow.ListPriceHistory(fx.ctx, &dto.ListPriceHistoryRequest{ListingID: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "2024-04-01", resp.Items[0].StartDate)

	resp, err = fx.flow.ListPriceHistory(fx.ctx, &dto.ListPriceHistoryRequest{ListingID: 1, SortOrder: "asc", Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "2024-04-01", resp.Items[0].StartDate)

	resp, err = fx.flow.ListPriceHistory(fx.ctx, &dto.ListPriceHistoryRequest{ListingID: 1, CurrentOnly: true})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Items[0].IsCurrent)

	resp, err = fx.flow.ListPriceHistory(fx.ctx, &dto.ListPriceHistoryRequest{
		ListingID:  1,
		StartAfter: utils.ToPtr("2023-06-01"),
		EndBefore:  utils.ToPtr("2024-12-31"),
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "1000.00", resp.Items[0].Amount)

	resp, err = fx.flow.ListPriceHistory(fx.ctx, &dto.ListPriceHistoryRequest{ListingID: 1, TransactionType: utils.ToPtr("lease")})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestListPriceHistory_Validation(t *testing.T) {
	fx := newFlowFixture(t)

	tests := []struct {
		name string
		req  *dto.ListPriceHistoryRequest
		want error
	}{
		{"sort field", &dto.ListPriceHistoryRequest{ListingID: 1, SortBy: "reason"}, ErrInvalidSortField},
		{"sort order", &dto.ListPriceHistoryRequest{ListingID: 1, SortOrder: "up"}, ErrInvalidSortOrder},
		{"page", &dto.ListPriceHistoryRequest{ListingID: 1, Page: -1}, ErrInvalidPage},
		{"page size", &dto.ListPriceHistoryRequest{ListingID: 1, PageSize: 101}, ErrInvalidPageSize},
		{"date", &dto.ListPriceHistoryRequest{ListingID: 1, StartAfter: utils.ToPtr("yesterday")}, ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.flow.ListPriceHistory(fx.ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidationError(err))
		})
	}

	_, err := fx.flow.ListPriceHistory(fx.ctx, &dto.ListPriceHistoryRequest{ListingID: 77})
	assert.True(t, IsListingNotFound(err))
}

func TestGetPriceInterval(t *testing.T) {
	fx := newFlowFixture(t)
	b := fx.seed("2024-04-01", nil, "1200")

	resp, err := fx.flow.GetPriceInterval(fx.ctx, &dto.GetPriceIntervalRequest{ListingID: 1, IntervalID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, b.ID, resp.Interval.ID)
	assert.Nil(t, resp.Interval.EndDate)

	_, err = fx.flow.GetPriceInterval(fx.ctx, &dto.GetPriceIntervalRequest{ListingID: 2, IntervalID: b.ID})
	assert.True(t, IsPriceIntervalNotFound(err))
}

func TestExportPriceHistory(t *testing.T) {
	fx := newFlowFixture(t)
	fx.seed("2024-01-01", utils.ToPtr("2024-03-31"), "1000")
	fx.seed("2024-04-01", nil, "1200")
	lease := interval(0, "2024-02-01", nil, "80")
	lease.TransactionType = models.TransactionTypeLease
	fx.store.addInterval(lease)

	filename, content, err := fx.flow.ExportPriceHistory(fx.ctx, &dto.ExportPriceHistoryRequest{ListingID: 1})
	require.NoError(t, err)
	assert.Equal(t, "listing_1_price_history.xlsx", filename)

	xl, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer func() { _ = xl.Close() }()

	assert.Equal(t, []string{"SALE", "LEASE", "SEASONAL"}, xl.GetSheetList())

	sale, err := xl.GetRows("SALE")
	require.NoError(t, err)
	require.Len(t, sale, 3)
	assert.Equal(t, exportHeader, sale[0])
	assert.Equal(t, "1000.00", sale[1][2])
	assert.Equal(t, "2024-03-31", sale[1][4])
	assert.Equal(t, "true", sale[2][5])

	leaseRows, err := xl.GetRows("LEASE")
	require.NoError(t, err)
	assert.Len(t, leaseRows, 2)

	seasonal, err := xl.GetRows("SEASONAL")
	require.NoError(t, err)
	assert.Len(t, seasonal, 1)

	_, _, err = fx.flow.ExportPriceHistory(fx.ctx, &dto.ExportPriceHistoryRequest{ListingID: 5})
	assert.True(t, IsListingNotFound(err))
}
