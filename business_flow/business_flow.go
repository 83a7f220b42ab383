package businessflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/amirphl/listing-price-history/app/dto"
	"github.com/amirphl/listing-price-history/models"
	"github.com/amirphl/listing-price-history/utils"
	"gorm.io/datatypes"
)

// ClientMetadata holds client information recorded with every audit entry
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToPriceIntervalItem converts a price interval model to its API representation
func ToPriceIntervalItem(p *models.PriceInterval) dto.PriceIntervalItem {
	return dto.PriceIntervalItem{
		ID:              p.ID,
		UUID:            p.UUID.String(),
		ListingID:       p.ListingID,
		TransactionType: p.TransactionType.String(),
		Amount:          p.Amount.StringFixed(2),
		StartDate:       utils.FormatDate(p.StartDate),
		EndDate:         utils.FormatDatePtr(p.EndDate),
		IsCurrent:       p.IsOpen(),
		Reason:          p.Reason,
		Note:            p.Note,
		CreatedBy:       p.CreatedBy,
		UpdatedBy:       p.UpdatedBy,
		CreatedAt:       p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// snapshot renders an interval for the before/after columns of the audit log
func snapshot(p *models.PriceInterval) datatypes.JSON {
	if p == nil {
		return nil
	}
	b, err := json.Marshal(ToPriceIntervalItem(p))
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// requestIDFromContext returns the request id the handler stored in ctx, if any
func requestIDFromContext(ctx context.Context) *string {
	if v, ok := ctx.Value(utils.RequestIDKey).(string); ok && v != "" {
		return &v
	}
	return nil
}
