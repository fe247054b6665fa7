package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Position algebra errors
const (
	CodeInvalidPartition         Code = "INVALID_PARTITION"
	CodeInvalidIndexSet          Code = "INVALID_INDEX_SET"
	CodeNotDisjoint              Code = "NOT_DISJOINT"
	CodeInvalidCollectionID      Code = "INVALID_COLLECTION_ID"
	CodeInvalidOutcomeSlotCount  Code = "INVALID_OUTCOME_SLOT_COUNT"
	CodeConditionNotPrepared     Code = "CONDITION_NOT_PREPARED"
	CodeConditionAlreadyPrepared Code = "CONDITION_ALREADY_PREPARED"
	CodeInvalidPayouts           Code = "INVALID_PAYOUTS"
	CodeAlreadyResolved          Code = "ALREADY_RESOLVED"
	CodeNotResolved              Code = "NOT_RESOLVED"
	CodeInsufficientBalance      Code = "INSUFFICIENT_BALANCE"
	CodeInvalidAmount            Code = "INVALID_AMOUNT"
)

// Oracle / resolution errors
const (
	CodeAnswerNotFinalized Code = "ANSWER_NOT_FINALIZED"
	CodeAnsweredTooSoon    Code = "ANSWERED_TOO_SOON"
	CodeInvalidAnswer      Code = "INVALID_ANSWER"
	CodeUnknownShape       Code = "UNKNOWN_SHAPE"
	CodeOracleCallFailed   Code = "ORACLE_CALL_FAILED"
)

// Market graph errors
const (
	CodeMarketNotFound      Code = "MARKET_NOT_FOUND"
	CodeMarketAlreadyExists Code = "MARKET_ALREADY_EXISTS"
	CodeInvalidMarket       Code = "INVALID_MARKET"
	CodeInvalidOutcome      Code = "INVALID_OUTCOME"
	CodeMarketDepthExceeded Code = "MARKET_DEPTH_EXCEEDED"
	CodeMarketCycle         Code = "MARKET_CYCLE"
	CodeInvalidPath         Code = "INVALID_PATH"
	CodeStoreFailed         Code = "STORE_FAILED"
)

// Trading errors
const (
	CodeNoRouteAvailable      Code = "NO_ROUTE_AVAILABLE"
	CodeDeadlineExpired       Code = "DEADLINE_EXPIRED"
	CodeSlippageExceeded      Code = "SLIPPAGE_EXCEEDED"
	CodeHopFailed             Code = "HOP_FAILED"
	CodePoolNotFound          Code = "POOL_NOT_FOUND"
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeQuoteFailed           Code = "QUOTE_FAILED"
	CodeContractCallFailed    Code = "CONTRACT_CALL_FAILED"
)

// Blockchain errors
const (
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
)

// Circuit breaker errors
const (
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
