package businessflow

import (
	"fmt"
	"sort"
	"time"

	"github.com/amirphl/listing-price-history/app/dto"
	"github.com/amirphl/listing-price-history/models"
	"github.com/amirphl/listing-price-history/utils"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// bucket is one working slot of the series
type bucket struct {
	start   time.Time
	end     time.Time
	amount  decimal.NullDecimal
	source  *models.PriceInterval
	carried bool
}

// AnalyzePriceHistory builds the bucketed series and the summary statistics of one
// (listing, transaction type). The window holds lookback periods ending with the period
// that contains now. Missing data never fails; it shows up as nil values.
func AnalyzePriceHistory(intervals []*models.PriceInterval, listingID uint, transactionType models.TransactionType, granularity models.Granularity, lookback int, now time.Time) *dto.PriceAnalysis {
	if lookback < 1 {
		lookback = 1
	}
	current := periodStart(now, granularity)
	first := addPeriods(current, granularity, -(lookback - 1))

	buckets := make([]*bucket, lookback)
	for i := range buckets {
		start := addPeriods(first, granularity, i)
		buckets[i] = &bucket{
			start: start,
			end:   addPeriods(start, granularity, 1).AddDate(0, 0, -1),
		}
	}

	// place each interval that starts inside the window; the latest start wins a bucket
	windowEnd := buckets[len(buckets)-1].end
	for _, p := range intervals {
		if p == nil {
			continue
		}
		start := utils.DateOnly(p.StartDate)
		if start.Before(first) || start.After(windowEnd) {
			continue
		}
		b := buckets[periodsBetween(first, periodStart(start, granularity), granularity)]
		if b.source == nil || startsLater(p, b.source) {
			b.source = p
			b.amount = decimal.NewNullDecimal(p.Amount)
		}
	}

	// forward fill
	for i := 1; i < len(buckets); i++ {
		if !buckets[i].amount.Valid && buckets[i-1].amount.Valid {
			buckets[i].amount = buckets[i-1].amount
			buckets[i].carried = true
		}
	}

	out := make([]dto.PriceBucket, 0, len(buckets))
	for i, b := range buckets {
		item := dto.PriceBucket{
			Period:    periodKey(b.start, granularity),
			StartDate: utils.FormatDate(b.start),
			EndDate:   utils.FormatDate(b.end),
			Amount:    formatFixed(b.amount),
			Carried:   b.carried,
		}
		if i > 0 {
			item.VariationPercent = formatFixed(variation(buckets[i-1].amount, b.amount))
		}
		out = append(out, item)
	}

	return &dto.PriceAnalysis{
		ListingID:       listingID,
		TransactionType: transactionType.String(),
		Granularity:     granularity.String(),
		LookbackPeriods: lookback,
		CurrentPeriod:   periodKey(current, granularity),
		Buckets:         out,
		Statistics:      priceStatistics(intervals),
	}
}

// priceStatistics summarizes every amount of the history in start date order.
func priceStatistics(intervals []*models.PriceInterval) dto.PriceStatistics {
	ordered := make([]*models.PriceInterval, 0, len(intervals))
	for _, p := range intervals {
		if p != nil {
			ordered = append(ordered, p)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return startsLater(ordered[j], ordered[i])
	})

	stats := dto.PriceStatistics{Count: len(ordered)}
	if len(ordered) == 0 {
		return stats
	}

	lo, hi, sum := ordered[0].Amount, ordered[0].Amount, decimal.Zero
	var pairSum decimal.Decimal
	pairs := 0
	for i, p := range ordered {
		sum = sum.Add(p.Amount)
		if p.Amount.LessThan(lo) {
			lo = p.Amount
		}
		if p.Amount.GreaterThan(hi) {
			hi = p.Amount
		}
		if i > 0 {
			if v := variation(decimal.NewNullDecimal(ordered[i-1].Amount), decimal.NewNullDecimal(p.Amount)); v.Valid {
				pairSum = pairSum.Add(v.Decimal)
				pairs++
			}
		}
	}

	stats.Min = formatFixed(decimal.NewNullDecimal(lo))
	stats.Max = formatFixed(decimal.NewNullDecimal(hi))
	stats.Mean = formatFixed(decimal.NewNullDecimal(sum.Div(decimal.NewFromInt(int64(len(ordered))))))
	stats.TotalVariationPercent = formatFixed(variation(
		decimal.NewNullDecimal(ordered[0].Amount),
		decimal.NewNullDecimal(ordered[len(ordered)-1].Amount),
	))
	if pairs > 0 {
		stats.AverageVariationPercent = formatFixed(decimal.NewNullDecimal(pairSum.Div(decimal.NewFromInt(int64(pairs)))))
	}
	return stats
}

// variation is the change from prev to cur as a percentage of prev. It is null when
// either side is unknown or prev is zero.
func variation(prev, cur decimal.NullDecimal) decimal.NullDecimal {
	if !prev.Valid || !cur.Valid || prev.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(cur.Decimal.Sub(prev.Decimal).Div(prev.Decimal).Mul(hundred))
}

func startsLater(a, b *models.PriceInterval) bool {
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	return a.ID > b.ID
}

// formatFixed renders money and percentages with two decimals
func formatFixed(v decimal.NullDecimal) *string {
	if !v.Valid {
		return nil
	}
	return utils.ToPtr(v.Decimal.StringFixed(2))
}

func monthsPerPeriod(g models.Granularity) int {
	switch g {
	case models.GranularityQuarterly:
		return 3
	case models.GranularityYearly:
		return 12
	default:
		return 1
	}
}

// periodStart returns the first day of the period containing t
func periodStart(t time.Time, g models.Granularity) time.Time {
	y, m, _ := t.UTC().Date()
	switch g {
	case models.GranularityQuarterly:
		m = time.Month((int(m)-1)/3*3 + 1)
	case models.GranularityYearly:
		m = time.January
	}
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func addPeriods(start time.Time, g models.Granularity, n int) time.Time {
	return start.AddDate(0, n*monthsPerPeriod(g), 0)
}

// periodsBetween counts whole periods from one period start to another
func periodsBetween(from, to time.Time, g models.Granularity) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	return months / monthsPerPeriod(g)
}

// periodKey renders a period as 2024-01, 2024-Q1 or 2024
func periodKey(start time.Time, g models.Granularity) string {
	switch g {
	case models.GranularityQuarterly:
		return fmt.Sprintf("%d-Q%d", start.Year(), (int(start.Month())-1)/3+1)
	case models.GranularityYearly:
		return fmt.Sprintf("%d", start.Year())
	default:
		return start.Format("2006-01")
	}
}
