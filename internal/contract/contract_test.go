package contract_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/circuitbreaker"
	"github.com/fd1az/condrouter/internal/contract"
)

const valueABI = `[{"inputs":[{"name":"id","type":"bytes32"}],"name":"value","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

type revertError struct{ data string }

func (e revertError) Error() string          { return "execution reverted" }
func (e revertError) ErrorData() interface{} { return e.data }

type fakeCaller struct {
	calls int
	fn    func(msg ethereum.CallMsg) ([]byte, error)
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	return f.fn(msg)
}

func revertData(t *testing.T, reason string) string {
	t.Helper()
	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	require.NoError(t, err)
	return hexutil.Encode(append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...))
}

func TestCaller_PackCallUnpack(t *testing.T) {
	addr := common.HexToAddress("0xc0ffee")
	id := common.HexToHash("0x2a")

	fake := &fakeCaller{fn: func(msg ethereum.CallMsg) ([]byte, error) {
		require.Equal(t, addr, *msg.To)
		require.Equal(t, id.Bytes(), msg.Data[4:36])
		return common.LeftPadBytes(big.NewInt(77).Bytes(), 32), nil
	}}

	c, err := contract.New(fake, addr, valueABI, "test")
	require.NoError(t, err)

	out, err := c.Call(context.Background(), "value", id)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(77), out[0].(*big.Int).Int64())
}

func TestCaller_RevertReasonAndBreaker(t *testing.T) {
	data := revertData(t, "pool missing")
	fake := &fakeCaller{fn: func(ethereum.CallMsg) ([]byte, error) {
		return nil, revertError{data: data}
	}}

	cfg := circuitbreaker.DefaultConfig("reverts")
	cfg.FailureThreshold = 2
	c, err := contract.New(fake, common.HexToAddress("0x01"), valueABI, "reverts", contract.WithBreaker(cfg))
	require.NoError(t, err)

	for range 5 {
		_, err = c.Call(context.Background(), "value", common.Hash{})
		require.Error(t, err)
		assert.Equal(t, apperror.CodeContractCallFailed, apperror.GetCode(err))
		assert.Contains(t, err.Error(), "pool missing")
	}
	assert.Equal(t, 5, fake.calls, "reverts must not open the breaker")
}

func TestCaller_TransportFailuresOpenBreaker(t *testing.T) {
	fake := &fakeCaller{fn: func(ethereum.CallMsg) ([]byte, error) {
		return nil, errors.New("connection refused")
	}}

	cfg := circuitbreaker.DefaultConfig("flaky")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour

	var opened bool
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		opened = opened || to == gobreaker.StateOpen
	}

	c, err := contract.New(fake, common.HexToAddress("0x01"), valueABI, "flaky",
		contract.WithBreaker(cfg), contract.WithTimeout(time.Second))
	require.NoError(t, err)

	for range 2 {
		_, err = c.Call(context.Background(), "value", common.Hash{})
		assert.Equal(t, apperror.CodeContractCallFailed, apperror.GetCode(err))
	}

	_, err = c.Call(context.Background(), "value", common.Hash{})
	assert.Equal(t, apperror.CodeCircuitOpen, apperror.GetCode(err))
	assert.Equal(t, 2, fake.calls)
	assert.True(t, opened)
}

func TestIsRevert(t *testing.T) {
	assert.True(t, contract.IsRevert(revertError{}))
	assert.False(t, contract.IsRevert(errors.New("eof")))
}
