package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField: "Required field is missing",
	CodeInvalidInput:  "Invalid input provided",
	CodeInvalidFormat: "Invalid data format",
	CodeNotFound:      "Resource not found",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Ledger errors
	CodeInvariantViolation:    "Ledger invariant violation",
	CodeInsufficientLiquidity: "Insufficient liquidity in the swapping pool",
	CodeInsufficientSupply:    "Insufficient supply for withdrawal",
	CodeUnknownAsset:          "Unknown asset",

	// Persistence errors
	CodeStoreError:     "Persistent store operation failed",
	CodeMigrationError: "Schema migration failed",

	// Collaborator errors
	CodeGatewayError:           "Chat gateway error",
	CodeOutboundDeliveryFailed: "Outbound transfer delivery failed",
	CodeTransferParseError:     "Transfer message could not be parsed",

	// Charting errors
	CodeChartRenderFailed: "Chart rendering failed",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
