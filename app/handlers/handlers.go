// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"fmt"

	"github.com/amirphl/listing-price-history/models"
	"github.com/amirphl/listing-price-history/utils"
	"github.com/go-playground/validator/v10"
)

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "min":
		return err.Field() + " must be at least " + err.Param()
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "transaction_type":
		return err.Field() + " must be one of: SALE, LEASE, SEASONAL"
	case "granularity":
		return err.Field() + " must be one of: MONTHLY, QUARTERLY, YEARLY"
	case "iso_date":
		return err.Field() + " must be a date in YYYY-MM-DD format"
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

// newValidator returns a validator carrying the price history tags
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterValidation("transaction_type", func(fl validator.FieldLevel) bool {
		_, err := models.ParseTransactionType(fl.Field().String())
		return err == nil
	})

	v.RegisterValidation("granularity", func(fl validator.FieldLevel) bool {
		_, err := models.ParseGranularity(fl.Field().String())
		return err == nil
	})

	v.RegisterValidation("iso_date", func(fl validator.FieldLevel) bool {
		_, err := utils.ParseDate(fl.Field().String())
		return err == nil
	})

	return v
}

// validationMessages flattens validator errors into readable messages
func validationMessages(err error) []string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, getValidationErrorMessage(e))
	}
	return out
}
