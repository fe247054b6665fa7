package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Position algebra
	CodeInvalidPartition:         "Partition must contain at least two index sets",
	CodeInvalidIndexSet:          "Index set is empty or outside the outcome range",
	CodeNotDisjoint:              "Partition index sets are not disjoint",
	CodeInvalidCollectionID:      "Parent collection id is not a valid curve point",
	CodeInvalidOutcomeSlotCount:  "Outcome slot count must be between 2 and 256",
	CodeConditionNotPrepared:     "Condition not prepared",
	CodeConditionAlreadyPrepared: "Condition already prepared",
	CodeInvalidPayouts:           "Payout vector is invalid",
	CodeAlreadyResolved:          "Condition already resolved",
	CodeNotResolved:              "Condition not resolved",
	CodeInsufficientBalance:      "Insufficient balance",
	CodeInvalidAmount:            "Amount must be positive",

	// Oracle / resolution
	CodeAnswerNotFinalized: "Oracle answer is not finalized",
	CodeAnsweredTooSoon:    "Question was answered too soon",
	CodeInvalidAnswer:      "Oracle answer is malformed",
	CodeUnknownShape:       "Unknown market shape",
	CodeOracleCallFailed:   "Oracle call failed",

	// Market graph
	CodeMarketNotFound:      "Market not found",
	CodeMarketAlreadyExists: "Market already exists",
	CodeInvalidMarket:       "Invalid market parameters",
	CodeInvalidOutcome:      "Outcome index out of range",
	CodeMarketDepthExceeded: "Market tree is deeper than the configured maximum",
	CodeMarketCycle:         "Market tree contains a cycle",
	CodeInvalidPath:         "Invalid trade path",
	CodeStoreFailed:         "Market store operation failed",

	// Trading
	CodeNoRouteAvailable:      "No route available for hop",
	CodeDeadlineExpired:       "Transaction deadline expired",
	CodeSlippageExceeded:      "Output below minimum amount",
	CodeHopFailed:             "Hop execution failed",
	CodePoolNotFound:          "Pool not found",
	CodeInsufficientLiquidity: "Insufficient liquidity for trade size",
	CodeQuoteFailed:           "Failed to get quote",
	CodeContractCallFailed:    "Smart contract call failed",

	// Blockchain
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",

	CodeCircuitOpen: "Circuit breaker is open",
}
