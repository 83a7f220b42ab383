package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/amirphl/listing-price-history/app/dto"
	"github.com/amirphl/listing-price-history/models"
	"github.com/amirphl/listing-price-history/utils"
	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{"id", "uuid", "amount", "start_date", "end_date", "current", "reason", "note", "created_by", "updated_by", "created_at"}

// ExportPriceHistory renders every live interval of a listing as an XLSX workbook with one
// sheet per transaction type.
func (f *PriceHistoryFlowImpl) ExportPriceHistory(ctx context.Context, req *dto.ExportPriceHistoryRequest) (string, []byte, error) {
	if _, err := getListing(ctx, f.listingRepo, req.ListingID); err != nil {
		return "", nil, wrapFlowError("EXPORT", err)
	}

	rows, err := f.intervalRepo.ListByListing(ctx, req.ListingID)
	if err != nil {
		return "", nil, wrapFlowError("EXPORT", err)
	}

	content, err := buildPriceHistoryWorkbook(rows)
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	filename := fmt.Sprintf("listing_%d_price_history.xlsx", req.ListingID)
	return filename, content, nil
}

func buildPriceHistoryWorkbook(rows []*models.PriceInterval) ([]byte, error) {
	byType := make(map[models.TransactionType][]*models.PriceInterval, len(models.TransactionTypes))
	for _, r := range rows {
		byType[r.TransactionType] = append(byType[r.TransactionType], r)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	for i, t := range models.TransactionTypes {
		name := t.String()
		if i == 0 {
			if err := xl.SetSheetName(xl.GetSheetName(0), name); err != nil {
				return nil, err
			}
		} else if _, err := xl.NewSheet(name); err != nil {
			return nil, err
		}

		header := exportHeader
		if err := xl.SetSheetRow(name, "A1", &header); err != nil {
			return nil, err
		}

		for ri, r := range byType[t] {
			record := []string{
				strconv.FormatUint(uint64(r.ID), 10),
				r.UUID.String(),
				r.Amount.StringFixed(2),
				utils.FormatDate(r.StartDate),
				utils.StringValue(utils.FormatDatePtr(r.EndDate)),
				strconv.FormatBool(r.IsOpen()),
				r.Reason,
				utils.StringValue(r.Note),
				strconv.FormatUint(uint64(r.CreatedBy), 10),
				strconv.FormatUint(uint64(r.UpdatedBy), 10),
				r.CreatedAt.UTC().Format(time.RFC3339),
			}
			cellRef, err := excelize.CoordinatesToCellName(1, ri+2)
			if err != nil {
				return nil, err
			}
			if err := xl.SetSheetRow(name, cellRef, &record); err != nil {
				return nil, err
			}
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
