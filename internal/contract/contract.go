// Package contract calls view functions on deployed contracts through an
// ethereum.ContractCaller, with ABI encoding, a circuit breaker and an optional
// rate limiter.
package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/circuitbreaker"
	"github.com/fd1az/condrouter/internal/ratelimit"
)

// Caller binds one contract address to its ABI.
type Caller struct {
	client  ethereum.ContractCaller
	address common.Address
	abi     abi.ABI
	cb      *circuitbreaker.CircuitBreaker[[]byte]
	limiter *ratelimit.Limiter
	timeout time.Duration
}

// Option configures a Caller.
type Option func(*Caller)

// WithLimiter throttles calls through l.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Caller) { c.limiter = l }
}

// WithTimeout bounds every call.
func WithTimeout(d time.Duration) Option {
	return func(c *Caller) { c.timeout = d }
}

// WithBreaker replaces the default breaker settings. Reverts never count as failures.
func WithBreaker(cfg circuitbreaker.Config) Option {
	return func(c *Caller) {
		cfg.IsSuccessful = isSuccessful
		c.cb = circuitbreaker.New[[]byte](cfg)
	}
}

// New parses abiJSON and returns a Caller for address.
func New(client ethereum.ContractCaller, address common.Address, abiJSON, name string, opts ...Option) (*Caller, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s ABI: %w", name, err)
	}

	cbCfg := circuitbreaker.DefaultConfig(name)
	cbCfg.IsSuccessful = isSuccessful

	c := &Caller{
		client:  client,
		address: address,
		abi:     parsed,
		cb:      circuitbreaker.New[[]byte](cbCfg),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Address returns the bound contract address.
func (c *Caller) Address() common.Address {
	return c.address
}

// ABI returns the parsed ABI.
func (c *Caller) ABI() abi.ABI {
	return c.abi
}

// Call packs method(args...), executes it at the latest block and unpacks the outputs.
// A revert comes back as CodeContractCallFailed with the revert reason when one is available.
func (c *Caller) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithCause(err),
			apperror.WithContextf("pack %s", method))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := c.cb.Execute(func() ([]byte, error) {
		return c.client.CallContract(ctx, ethereum.CallMsg{
			To:   &c.address,
			Data: data,
		}, nil)
	})
	if err != nil {
		if apperror.HasCode(err, apperror.CodeCircuitOpen) {
			return nil, err
		}
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContextf("%s.%s at %s%s", c.cb.Name(), method, c.address.Hex(), revertReason(err)))
	}

	outputs, err := c.abi.Unpack(method, result)
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContextf("unpack %s", method))
	}
	return outputs, nil
}

// IsRevert reports whether err came from the contract rejecting the call
// rather than from the transport.
func IsRevert(err error) bool {
	var de rpc.DataError
	return errors.As(err, &de)
}

func isSuccessful(err error) bool {
	return err == nil || IsRevert(err)
}

func revertReason(err error) string {
	var de rpc.DataError
	if !errors.As(err, &de) {
		return ""
	}
	hexData, ok := de.ErrorData().(string)
	if !ok {
		return ""
	}
	reason, uerr := abi.UnpackRevert(common.FromHex(hexData))
	if uerr != nil {
		return ""
	}
	return ": " + reason
}
