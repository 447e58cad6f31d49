package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// YearMonthTag validates a "2006-01" ledger month
const YearMonthTag = "yearmonth"

// SetupValidator reports fields by their json or form name and registers
// the procurement tags. Call it once before serving.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(fieldName)
	_ = v.RegisterValidation(YearMonthTag, func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01", fl.Field().String())
		return err == nil
	})
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return fld.Name
}

// FormatValidationErrors turns binding errors into the validation envelope.
// Errors that are not field errors mean the body could not be decoded.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewValidationErrorResponse("Malformed request body: "+err.Error(), requestID, nil)
	}
	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: describe(fe)})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError writes a 400 validation envelope
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, getRequestID(c)))
}

var tagMessages = map[string]string{
	"required":   "This field is required",
	"uuid":       "Invalid UUID format",
	"oneof":      "Must be one of: %s",
	"gte":        "Must be greater than or equal to %s",
	"lte":        "Must be less than or equal to %s",
	"gt":         "Must be greater than %s",
	"lt":         "Must be less than %s",
	"numeric":    "Must be numeric",
	YearMonthTag: "Must be a month in YYYY-MM format",
}

func describe(fe validator.FieldError) string {
	text := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "min":
		if text {
			return "Must be at least " + fe.Param() + " characters"
		}
		return "Must be at least " + fe.Param()
	case "max":
		if text {
			return "Must be at most " + fe.Param() + " characters"
		}
		return "Must be at most " + fe.Param()
	case "len":
		if text {
			return "Must be exactly " + fe.Param() + " characters"
		}
		return "Must have exactly " + fe.Param() + " items"
	}
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return "Invalid value"
	}
	return strings.Replace(msg, "%s", fe.Param(), 1)
}
