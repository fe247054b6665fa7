package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fd1az/condrouter/internal/apperror"
)

func TestNew_DefaultsFromCode(t *testing.T) {
	tests := []struct {
		name     string
		code     apperror.Code
		wantKind apperror.Kind
	}{
		{"partition_is_validation", apperror.CodeInvalidPartition, apperror.KindValidation},
		{"no_route_is_liquidity", apperror.CodeNoRouteAvailable, apperror.KindLiquidity},
		{"slippage_is_execution", apperror.CodeSlippageExceeded, apperror.KindExecution},
		{"too_soon_is_oracle", apperror.CodeAnsweredTooSoon, apperror.KindOracle},
		{"rpc_is_external", apperror.CodeEthereumRPCError, apperror.KindExternal},
		{"unknown_is_internal", apperror.Code("SOMETHING_ELSE"), apperror.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := apperror.New(tt.code)
			assert.Equal(t, tt.wantKind, err.Kind)
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestAppError_ChainInspection(t *testing.T) {
	inner := apperror.New(apperror.CodeInsufficientBalance, apperror.WithContext("account 0x01"))
	outer := apperror.New(apperror.CodeHopFailed,
		apperror.WithCause(inner),
		apperror.WithContextf("hop %d", 1))
	wrapped := fmt.Errorf("exact input: %w", outer)

	assert.Equal(t, apperror.CodeHopFailed, apperror.GetCode(wrapped))
	assert.True(t, apperror.HasCode(wrapped, apperror.CodeInsufficientBalance))
	assert.False(t, apperror.HasCode(wrapped, apperror.CodeNotDisjoint))
	assert.True(t, errors.Is(wrapped, apperror.New(apperror.CodeHopFailed)))
	assert.Contains(t, outer.Error(), "hop 1")
	assert.Contains(t, outer.Error(), "account 0x01")
	assert.True(t, outer.Retryable())
}

func TestWrap(t *testing.T) {
	assert.Nil(t, apperror.Wrap(nil, apperror.CodeInternalError, "ctx"))

	plain := errors.New("boom")
	wrapped := apperror.Wrap(plain, apperror.CodeStoreFailed, "save market")
	assert.Equal(t, apperror.CodeStoreFailed, wrapped.Code)
	assert.ErrorIs(t, wrapped, plain)

	existing := apperror.New(apperror.CodeMarketNotFound)
	assert.Same(t, existing, apperror.Wrap(existing, apperror.CodeStoreFailed, "lookup"))
	assert.Equal(t, "lookup", existing.Context)
}

func TestGetCode_NonAppError(t *testing.T) {
	assert.Equal(t, apperror.CodeUnknownError, apperror.GetCode(errors.New("plain")))
	assert.Equal(t, apperror.KindInternal, apperror.GetKind(errors.New("plain")))
}
