package businessflow

import (
	"context"

	"github.com/amirphl/listing-price-history/models"
	"github.com/amirphl/listing-price-history/repository"
	"github.com/shopspring/decimal"
)

// CurrentPriceProjector mirrors the amount of a key's current interval into the listing.
// A null amount clears the listing field.
type CurrentPriceProjector interface {
	Project(ctx context.Context, listingID uint, transactionType models.TransactionType, amount decimal.NullDecimal, actorID uint) error
}

type ListingPriceProjector struct {
	listingRepo repository.ListingRepository
}

func NewCurrentPriceProjector(listingRepo repository.ListingRepository) CurrentPriceProjector {
	return &ListingPriceProjector{listingRepo: listingRepo}
}

// Project writes amount and actor into the sale, lease or seasonal price of the listing.
// Writing the same values again leaves the listing unchanged apart from its timestamps.
func (p *ListingPriceProjector) Project(ctx context.Context, listingID uint, transactionType models.TransactionType, amount decimal.NullDecimal, actorID uint) error {
	if !transactionType.IsValid() {
		return ErrInvalidTransactionType
	}
	return p.listingRepo.UpdateCurrentPrice(ctx, listingID, transactionType, amount, actorID)
}
