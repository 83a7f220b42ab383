package businessflow

import (
	"github.com/amirphl/listing-price-history/models"
)

// ValidateNoOverlap rejects candidate when its closed range [start, end] shares a day with
// any live interval of the same listing and transaction type. A missing end date counts
// as +infinity, so two open intervals always collide. The interval with id excludeID
// (the record being edited) is ignored.
//
// The first collision found is returned as *OverlapError.
func ValidateNoOverlap(existing []*models.PriceInterval, candidate *models.PriceInterval, excludeID *uint) error {
	for _, e := range existing {
		if e == nil || e.DeletedAt.Valid {
			continue
		}
		if excludeID != nil && e.ID == *excludeID {
			continue
		}
		if e.ListingID != candidate.ListingID || e.TransactionType != candidate.TransactionType {
			continue
		}
		if candidate.Intersects(e) {
			return &OverlapError{ConflictingID: e.ID}
		}
	}
	return nil
}

// validateIntervalFields checks the per-record rules: non-negative amount and start <= end.
func validateIntervalFields(p *models.PriceInterval) error {
	if p.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return ErrStartDateAfterEndDate
	}
	return nil
}
