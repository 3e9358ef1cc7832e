package errors

// Error codes returned in ErrorResponse.Error.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to copy; the
// message field is a readable fallback.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // session required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthResetTokenInvalid  = "AUTH_RESET_TOKEN_INVALID"
	AuthRateLimited        = "AUTH_RATE_LIMITED"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"
	AuthzSelfAction   = "AUTHZ_SELF_ACTION" // staff acting on their own account

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Catalogue (PRODUCT_, CATEGORY_, COUPON_) ====================
	ProductNotFound       = "PRODUCT_NOT_FOUND"
	ProductSlugExists     = "PRODUCT_SLUG_EXISTS"
	ProductOutOfStock     = "PRODUCT_OUT_OF_STOCK"
	CategoryNotFound      = "CATEGORY_NOT_FOUND"
	CategorySlugExists    = "CATEGORY_SLUG_EXISTS"
	CategoryInUse         = "CATEGORY_IN_USE"
	CouponNotFound        = "COUPON_NOT_FOUND"
	CouponCodeExists      = "COUPON_CODE_EXISTS"
	CouponInvalid         = "COUPON_INVALID"
	CustomerNotFound      = "CUSTOMER_NOT_FOUND"
	StaffNotFound         = "STAFF_NOT_FOUND"

	// ==================== Cart & orders (CART_, ORDER_) ====================
	CartEmpty             = "CART_EMPTY"
	CartBelowMinimum      = "CART_BELOW_MINIMUM"
	OrderNotFound         = "ORDER_NOT_FOUND"
	OrderInvalidStatus    = "ORDER_INVALID_STATUS"
	OrderExportFailed     = "ORDER_EXPORT_FAILED"

	// ==================== Upload (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
