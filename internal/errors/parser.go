package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a code plus a user facing message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps storage errors to an ErrorInfo without leaking SQL details.
// context names the operation, e.g. "create product".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	errStrLower := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: getNotFoundMessage(context)}
	}

	// unique_violation (23505); sqlite reports "UNIQUE constraint failed"
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(errStrLower, "duplicate key") ||
		strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStrLower)
	}

	// foreign_key_violation (23503)
	if errors.Is(err, gorm.ErrForeignKeyViolated) || strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStrLower, context)
	}

	// not_null_violation (23502)
	if strings.Contains(errStrLower, "violates not-null constraint") || strings.Contains(errStrLower, "not null constraint failed") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}

	// check_violation (23514)
	if strings.Contains(errStrLower, "check constraint") {
		return ErrorInfo{Code: ValidationInvalidInput, Message: "One of the values is out of range"}
	}

	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "A backing service is unavailable. Please try again later",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: getDefaultErrorMessage(context)}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "This email is already registered"}
	case strings.Contains(errLower, "products") && strings.Contains(errLower, "slug"):
		return ErrorInfo{Code: ProductSlugExists, Message: "A product with this slug already exists"}
	case strings.Contains(errLower, "categories") && strings.Contains(errLower, "slug"):
		return ErrorInfo{Code: CategorySlugExists, Message: "A category with this slug already exists"}
	case strings.Contains(errLower, "code"):
		return ErrorInfo{Code: CouponCodeExists, Message: "A coupon with this code already exists"}
	case strings.Contains(errLower, "invoice"):
		return ErrorInfo{Code: ResourceConflict, Message: "Invoice number collision, please retry"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
}

func parseForeignKeyError(errLower, context string) ErrorInfo {
	if strings.Contains(errLower, "still referenced") {
		if strings.Contains(strings.ToLower(context), "category") {
			return ErrorInfo{Code: CategoryInUse, Message: "This category still has products"}
		}
		return ErrorInfo{Code: ResourceConflict, Message: "This record is still in use and cannot be deleted"}
	}
	if strings.Contains(errLower, "category_id") {
		return ErrorInfo{Code: CategoryNotFound, Message: "The selected category does not exist"}
	}
	if strings.Contains(errLower, "product_id") {
		return ErrorInfo{Code: ProductNotFound, Message: "The selected product does not exist"}
	}
	return ErrorInfo{Code: ResourceNotFound, Message: "A referenced record could not be found"}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)
	for _, noun := range []string{"product", "category", "coupon", "customer", "order", "staff", "user"} {
		if strings.Contains(contextLower, noun) {
			return "The requested " + noun + " could not be found"
		}
	}
	return "The requested record could not be found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "create"):
		return "Could not save. Please try again later"
	case strings.Contains(contextLower, "update"):
		return "Could not update. Please try again later"
	case strings.Contains(contextLower, "delete"):
		return "Could not delete. Please try again later"
	}
	return "Something went wrong. Please try again later"
}

// ParseAndRespond parses err and writes it with statusCode.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}

// StatusFor picks the HTTP status that matches an ErrorInfo code.
func StatusFor(info ErrorInfo) int {
	switch info.Code {
	case ResourceNotFound, ProductNotFound, CategoryNotFound:
		return 404
	case AuthEmailAlreadyExists, ProductSlugExists, CategorySlugExists, CouponCodeExists,
		ResourceAlreadyExists, ResourceConflict, CategoryInUse:
		return 409
	case ValidationRequired, ValidationInvalidInput:
		return 400
	}
	return 500
}

// RespondWithParsedError parses err and picks the status from the result.
func RespondWithParsedError(c interface{ JSON(int, interface{}) }, err error, context string) {
	info := ParseError(err, context)
	c.JSON(StatusFor(info), ErrorResponse{Error: info.Code, Message: info.Message})
}
