package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField Code = "REQUIRED_FIELD"
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeInvalidFormat Code = "INVALID_FORMAT"
	CodeNotFound      Code = "NOT_FOUND"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Swap-pool specific error codes
const (
	// Ledger errors
	CodeInvariantViolation    Code = "INVARIANT_VIOLATION"
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeInsufficientSupply    Code = "INSUFFICIENT_SUPPLY"
	CodeUnknownAsset          Code = "UNKNOWN_ASSET"

	// Persistence errors
	CodeStoreError     Code = "STORE_ERROR"
	CodeMigrationError Code = "MIGRATION_ERROR"

	// Collaborator (chat platform) errors
	CodeGatewayError           Code = "GATEWAY_ERROR"
	CodeOutboundDeliveryFailed Code = "OUTBOUND_DELIVERY_FAILED"
	CodeTransferParseError     Code = "TRANSFER_PARSE_ERROR"

	// Charting errors
	CodeChartRenderFailed Code = "CHART_RENDER_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
