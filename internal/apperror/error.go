package apperror

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Kind groups codes by how a caller is expected to react.
type Kind string

const (
	// KindValidation errors are surfaced synchronously and never retried.
	KindValidation Kind = "validation"
	// KindLiquidity errors are recovered locally as zero quotes.
	KindLiquidity Kind = "liquidity"
	// KindExecution errors abort a multi-hop operation; the caller may retry with new bounds.
	KindExecution Kind = "execution"
	// KindOracle errors are rejected before any balance mutation.
	KindOracle Kind = "oracle"
	// KindExternal errors come from RPC, caches or stores.
	KindExternal Kind = "external"
	// KindInternal is everything else.
	KindInternal Kind = "internal"
)

// AppError implements the error interface and provides structured error handling
type AppError struct {
	Code      Code      `json:"code"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
	TraceID   string    `json:"traceId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
	stack     []uintptr
}

// Error implements the error interface
func (e *AppError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", e.Code, e.Message)
	if e.Context != "" {
		fmt.Fprintf(&sb, " (%s)", e.Context)
	}
	if e.cause != nil {
		fmt.Fprintf(&sb, ": %v", e.cause)
	}
	return sb.String()
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithTraceID sets the trace ID for distributed tracing
func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// Retryable reports whether retrying with adjusted parameters can succeed.
func (e *AppError) Retryable() bool {
	return e.Kind == KindExecution || e.Kind == KindExternal
}

// ToLog serializes the error for logging with stack trace
func (e *AppError) ToLog() map[string]any {
	log := map[string]any{
		"code":      e.Code,
		"kind":      e.Kind,
		"message":   e.Message,
		"timestamp": e.Timestamp.Format(time.RFC3339),
	}

	if e.Context != "" {
		log["context"] = e.Context
	}
	if e.TraceID != "" {
		log["traceId"] = e.TraceID
	}
	if e.cause != nil {
		log["cause"] = e.cause.Error()
	}
	if len(e.stack) > 0 {
		log["stack"] = e.formatStack()
	}

	return log
}

func (e *AppError) formatStack() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			sb.WriteString(fmt.Sprintf("\n\t%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}
	return sb.String()
}

func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// New creates a new AppError with the given code and options
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:      code,
		Kind:      kindOf(code),
		Message:   messages[code],
		Timestamp: time.Now(),
		stack:     captureStack(),
	}

	for _, opt := range opts {
		opt(err)
	}

	if err.Message == "" {
		err.Message = string(code)
	}

	return err
}

// Option is a functional option for AppError
type Option func(*AppError)

// WithMessage sets a custom message
func WithMessage(message string) Option {
	return func(e *AppError) {
		e.Message = message
	}
}

// WithContext adds context information
func WithContext(context string) Option {
	return func(e *AppError) {
		e.Context = context
	}
}

// WithContextf adds formatted context information
func WithContextf(format string, args ...any) Option {
	return func(e *AppError) {
		e.Context = fmt.Sprintf(format, args...)
	}
}

// WithCause wraps an underlying error
func WithCause(cause error) Option {
	return func(e *AppError) {
		e.cause = cause
	}
}

// WithKind overrides the kind derived from the code
func WithKind(kind Kind) Option {
	return func(e *AppError) {
		e.Kind = kind
	}
}

// NotFound creates a not found error
func NotFound(code Code, context string) *AppError {
	return New(code, WithContext(context))
}

// Validation creates a validation error
func Validation(code Code, context string) *AppError {
	return New(code, WithContext(context), WithKind(KindValidation))
}

// Internal creates an internal error
func Internal(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause))
}

// External creates an external service error
func External(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithKind(KindExternal))
}

// Wrap wraps a standard error into AppError. AppErrors pass through unchanged
// apart from filling an empty context.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}

	return Internal(code, context, err)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode extracts the outermost error code from an error
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetKind extracts the error kind from an error
func GetKind(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func kindOf(code Code) Kind {
	switch code {
	case CodeInvalidInput, CodeValidationError, CodeInvalidPartition, CodeInvalidIndexSet, CodeNotDisjoint,
		CodeInvalidCollectionID, CodeInvalidOutcomeSlotCount, CodeConditionNotPrepared,
		CodeConditionAlreadyPrepared, CodeInvalidPayouts, CodeAlreadyResolved, CodeInvalidAmount,
		CodeInvalidMarket, CodeInvalidOutcome, CodeMarketNotFound, CodeMarketAlreadyExists,
		CodeMarketDepthExceeded, CodeMarketCycle, CodeInvalidPath, CodeUnknownShape, CodeConfigurationError:
		return KindValidation
	case CodePoolNotFound, CodeInsufficientLiquidity, CodeQuoteFailed, CodeNoRouteAvailable:
		return KindLiquidity
	case CodeDeadlineExpired, CodeSlippageExceeded, CodeHopFailed, CodeInsufficientBalance:
		return KindExecution
	case CodeNotResolved, CodeAnswerNotFinalized, CodeAnsweredTooSoon, CodeInvalidAnswer:
		return KindOracle
	case CodeExternalServiceError, CodeServiceTimeout, CodeRateLimitExceeded, CodeOracleCallFailed,
		CodeContractCallFailed, CodeEthereumConnectionFailed, CodeEthereumRPCError, CodeCircuitOpen,
		CodeStoreFailed:
		return KindExternal
	default:
		return KindInternal
	}
}
