package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/listing-price-history/app/dto"
	businessflow "github.com/amirphl/listing-price-history/business_flow"
	"github.com/amirphl/listing-price-history/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PriceHistoryHandlerInterface defines the contract for price history handlers
type PriceHistoryHandlerInterface interface {
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	Analysis(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// PriceHistoryHandler serves the price history of listings
type PriceHistoryHandler struct {
	flow      businessflow.PriceHistoryFlow
	validator *validator.Validate
	timeout   time.Duration
}

// NewPriceHistoryHandler creates a new price history handler. A non-positive timeout uses 30s.
func NewPriceHistoryHandler(flow businessflow.PriceHistoryFlow, timeout time.Duration) *PriceHistoryHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PriceHistoryHandler{
		flow:      flow,
		validator: newValidator(),
		timeout:   timeout,
	}
}

func (h *PriceHistoryHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *PriceHistoryHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// List lists the price intervals of a listing.
// @Summary List price history
// @Description Paginated price intervals of a listing, newest first by default
// @Tags Price History
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Param type query string false "SALE, LEASE or SEASONAL"
// @Param start_after query string false "Only intervals starting on or after this date (YYYY-MM-DD)"
// @Param end_before query string false "Only intervals ending on or before this date (YYYY-MM-DD)"
// @Param current_only query bool false "Only open intervals"
// @Param sort_by query string false "start_date, end_date, amount or created_at"
// @Param sort_order query string false "asc or desc"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.ListPriceHistoryResponse} "Retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid query"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Listing not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/listings/{id}/price-history [get]
func (h *PriceHistoryHandler) List(c fiber.Ctx) error {
	listingID, ok := parseIDParam(c, "id")
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid listing id", "INVALID_LISTING_ID", nil)
	}

	req := dto.ListPriceHistoryRequest{
		ListingID: listingID,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if v := c.Query("type"); v != "" {
		req.TransactionType = &v
	}
	if v := c.Query("start_after"); v != "" {
		req.StartAfter = &v
	}
	if v := c.Query("end_before"); v != "" {
		req.EndBefore = &v
	}
	if v := c.Query("current_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid current_only", "INVALID_QUERY", "current_only must be a boolean")
		}
		req.CurrentOnly = b
	}
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page", "INVALID_QUERY", "page must be an integer")
		}
		req.Page = n
	}
	if v := c.Query("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page_size", "INVALID_QUERY", "page_size must be an integer")
		}
		req.PageSize = n
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/listings/{id}/price-history")
	defer cancel()

	res, err := h.flow.ListPriceHistory(ctx, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list price history", "PRICE_HISTORY_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// Get returns a single price interval.
// @Summary Get price interval
// @Tags Price History
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Param historyId path int true "Price interval ID"
// @Success 200 {object} dto.APIResponse{data=dto.GetPriceIntervalResponse} "Retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid id"
// @Failure 404 {object} dto.APIResponse "Not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/listings/{id}/price-history/{historyId} [get]
func (h *PriceHistoryHandler) Get(c fiber.Ctx) error {
	listingID, intervalID, ok, err := h.parseIntervalPath(c)
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/listings/{id}/price-history/{historyId}")
	defer cancel()

	res, ferr := h.flow.GetPriceInterval(ctx, &dto.GetPriceIntervalRequest{ListingID: listingID, IntervalID: intervalID})
	if ferr != nil {
		return h.handleFlowError(c, ferr, "Failed to get price interval", "PRICE_INTERVAL_GET_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// Create registers a new price interval.
// @Summary Create price interval
// @Description Without end_date the new price becomes current and the previous current interval is closed the day before
// @Tags Price History
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Param request body dto.CreatePriceIntervalRequest true "Price interval payload"
// @Success 201 {object} dto.APIResponse{data=dto.CreatePriceIntervalResponse} "Created"
// @Failure 400 {object} dto.APIResponse "Invalid request body"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Listing not found"
// @Failure 422 {object} dto.APIResponse "Validation failed or overlapping interval"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/listings/{id}/price-history [post]
func (h *PriceHistoryHandler) Create(c fiber.Ctx) error {
	listingID, ok := parseIDParam(c, "id")
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid listing id", "INVALID_LISTING_ID", nil)
	}
	actorID, ok := c.Locals("user_id").(uint)
	if !ok || actorID == 0 {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	var req dto.CreatePriceIntervalRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}
	req.ListingID = listingID
	req.ActorID = actorID

	ctx, cancel := h.createRequestContext(c, "/api/v1/listings/{id}/price-history")
	defer cancel()

	res, err := h.flow.CreatePriceInterval(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to create price interval", "PRICE_INTERVAL_CREATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, res.Message, res)
}

// Update patches a price interval.
// @Summary Update price interval
// @Description Intervals that ended before today cannot be edited. clear_end_date reopens the interval.
// @Tags Price History
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Param historyId path int true "Price interval ID"
// @Param request body dto.UpdatePriceIntervalRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.UpdatePriceIntervalResponse} "Updated"
// @Failure 400 {object} dto.APIResponse "Invalid request body"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Not found"
// @Failure 422 {object} dto.APIResponse "Validation failed, overlapping or immutable interval"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/listings/{id}/price-history/{historyId} [put]
func (h *PriceHistoryHandler) Update(c fiber.Ctx) error {
	listingID, intervalID, ok, err := h.parseIntervalPath(c)
	if !ok {
		return err
	}
	actorID, ok := c.Locals("user_id").(uint)
	if !ok || actorID == 0 {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	var req dto.UpdatePriceIntervalRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}
	req.ListingID = listingID
	req.IntervalID = intervalID
	req.ActorID = actorID

	ctx, cancel := h.createRequestContext(c, "/api/v1/listings/{id}/price-history/{historyId}")
	defer cancel()

	res, ferr := h.flow.UpdatePriceInterval(ctx, &req, h.clientMetadata(c))
	if ferr != nil {
		return h.handleFlowError(c, ferr, "Failed to update price interval", "PRICE_INTERVAL_UPDATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// Delete soft-deletes a price interval.
// @Summary Delete price interval
// @Description Deleting the current interval reopens its latest predecessor
// @Tags Price History
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Param historyId path int true "Price interval ID"
// @Success 200 {object} dto.APIResponse{data=dto.DeletePriceIntervalResponse} "Deleted"
// @Failure 400 {object} dto.APIResponse "Invalid id"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/listings/{id}/price-history/{historyId} [delete]
func (h *PriceHistoryHandler) Delete(c fiber.Ctx) error {
	listingID, intervalID, ok, err := h.parseIntervalPath(c)
	if !ok {
		return err
	}
	actorID, ok := c.Locals("user_id").(uint)
	if !ok || actorID == 0 {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/listings/{id}/price-history/{historyId}")
	defer cancel()

	req := &dto.DeletePriceIntervalRequest{ListingID: listingID, IntervalID: intervalID, ActorID: actorID}
	res, ferr := h.flow.DeletePriceInterval(ctx, req, h.clientMetadata(c))
	if ferr != nil {
		return h.handleFlowError(c, ferr, "Failed to delete price interval", "PRICE_INTERVAL_DELETE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// Analysis returns the bucketed price series and statistics of a listing.
// @Summary Price analysis
// @Description Forward-filled price series over the last lookback_periods periods plus statistics over every interval
// @Tags Price History
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Param type query string true "SALE, LEASE or SEASONAL"
// @Param granularity query string false "MONTHLY, QUARTERLY or YEARLY"
// @Param lookback_periods query int false "Number of periods ending with the current one"
// @Success 200 {object} dto.APIResponse{data=dto.PriceAnalysisResponse} "Analysis"
// @Failure 400 {object} dto.APIResponse "Invalid query"
// @Failure 404 {object} dto.APIResponse "Listing not found"
// @Failure 422 {object} dto.APIResponse "Lookback out of range"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/listings/{id}/price-history/analysis [get]
func (h *PriceHistoryHandler) Analysis(c fiber.Ctx) error {
	listingID, ok := parseIDParam(c, "id")
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid listing id", "INVALID_LISTING_ID", nil)
	}

	req := dto.PriceAnalysisRequest{
		ListingID:       listingID,
		TransactionType: c.Query("type"),
	}
	if v := c.Query("granularity"); v != "" {
		req.Granularity = &v
	}
	if v := c.Query("lookback_periods"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lookback_periods", "INVALID_QUERY", "lookback_periods must be an integer")
		}
		req.LookbackPeriods = &n
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/listings/{id}/price-history/analysis")
	defer cancel()

	res, err := h.flow.GetPriceAnalysis(ctx, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to analyze price history", "PRICE_INTERVAL_ANALYSIS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// Export downloads the price history of a listing as an Excel workbook.
// @Summary Export price history
// @Tags Price History
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Success 200 {file} file "Workbook"
// @Failure 400 {object} dto.APIResponse "Invalid id"
// @Failure 404 {object} dto.APIResponse "Listing not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/listings/{id}/price-history/export [get]
func (h *PriceHistoryHandler) Export(c fiber.Ctx) error {
	listingID, ok := parseIDParam(c, "id")
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid listing id", "INVALID_LISTING_ID", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/listings/{id}/price-history/export")
	defer cancel()

	filename, data, err := h.flow.ExportPriceHistory(ctx, &dto.ExportPriceHistoryRequest{ListingID: listingID})
	if err != nil {
		return h.handleFlowError(c, err, "Failed to export price history", "PRICE_INTERVAL_EXPORT_FAILED")
	}

	c.Set("Content-Type", xlsxContentType)
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// handleFlowError maps business errors onto HTTP statuses
func (h *PriceHistoryHandler) handleFlowError(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	var be *businessflow.BusinessError
	if errors.As(err, &be) {
		switch be.Code {
		case "PRICE_INTERVAL_OVERLAP":
			var details any = be.Err.Error()
			if id, ok := businessflow.ConflictingIntervalID(err); ok {
				details = fiber.Map{"conflicting_interval_id": id}
			}
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, be.Message, be.Code, details)
		case "PRICE_INTERVAL_VALIDATION_FAILED", "PRICE_INTERVAL_IMMUTABLE":
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, be.Message, be.Code, be.Err.Error())
		case "PRICE_HISTORY_LIST_VALIDATION_FAILED":
			return h.ErrorResponse(c, fiber.StatusBadRequest, be.Message, be.Code, be.Err.Error())
		case "LISTING_NOT_FOUND", "PRICE_INTERVAL_NOT_FOUND":
			return h.ErrorResponse(c, fiber.StatusNotFound, be.Message, be.Code, nil)
		}
	}
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
}

// parseIntervalPath reads the listing and interval ids of the path. When ok is false the
// 400 response is already written and err is the result of writing it.
func (h *PriceHistoryHandler) parseIntervalPath(c fiber.Ctx) (listingID, intervalID uint, ok bool, err error) {
	listingID, ok = parseIDParam(c, "id")
	if !ok {
		return 0, 0, false, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid listing id", "INVALID_LISTING_ID", nil)
	}
	intervalID, ok = parseIDParam(c, "historyId")
	if !ok {
		return 0, 0, false, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid price interval id", "INVALID_PRICE_INTERVAL_ID", nil)
	}
	return listingID, intervalID, true, nil
}

func parseIDParam(c fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *PriceHistoryHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(requestID(c))
	return metadata
}

func (h *PriceHistoryHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, requestID(c))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, h.timeout)
	if userID, ok := c.Locals("user_id").(uint); ok && userID != 0 {
		ctx = context.WithValue(ctx, utils.UserIDKey, userID)
	}
	return ctx, cancel
}

// requestID prefers the id the requestid middleware put on the response
func requestID(c fiber.Ctx) string {
	if id := strings.TrimSpace(c.GetRespHeader("X-Request-ID")); id != "" {
		return id
	}
	return c.Get("X-Request-ID")
}
