package asset_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/condrouter/internal/asset"
)

func wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return v
}

func TestAmount_Display(t *testing.T) {
	one := asset.NewAmount(asset.SDAI, wei("1000000000000000000"))

	assert.False(t, one.IsZero())
	assert.True(t, one.ToDecimal().Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "1 sDAI", one.String())
	assert.Equal(t, "1.00 sDAI", one.StringFixed(2))
}

func TestAmount_LessBps(t *testing.T) {
	tests := []struct {
		raw  int64
		bps  int64
		want int64
	}{
		{raw: 10_000, bps: 50, want: 9_950},
		{raw: 10_000, bps: 0, want: 10_000},
		{raw: 999, bps: 100, want: 989},
		{raw: 5, bps: 10_000, want: 0},
	}

	for _, tt := range tests {
		got := asset.NewAmount(asset.SDAI, big.NewInt(tt.raw)).LessBps(tt.bps)
		assert.Equal(t, tt.want, got.Raw().Int64(), "raw=%d bps=%d", tt.raw, tt.bps)
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "integer", input: "12", want: "12000000000000000000"},
		{name: "fraction", input: "0.25", want: "250000000000000000"},
		{name: "negative", input: "-1", wantErr: asset.ErrNegativeAmount},
		{name: "too_precise", input: "0.0000000000000000001", wantErr: asset.ErrTooManyDecimals},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := asset.ParseString(asset.SDAI, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Raw().String())
		})
	}

	_, err := asset.ParseString(asset.SDAI, "abc")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := asset.DefaultRegistry()
	assert.Equal(t, 3, r.Count())

	got, ok := r.Get(asset.AddrSDAIGnosis)
	require.True(t, ok)
	assert.Equal(t, asset.KindCollateral, got.Kind())

	yes := asset.NewOutcomeToken(asset.ChainIDGnosis, common.HexToAddress("0x01"), "YES", "Yes")
	yes2 := asset.NewOutcomeToken(asset.ChainIDGnosis, common.HexToAddress("0x02"), "YES", "Yes")
	require.NoError(t, r.Register(yes))
	require.NoError(t, r.Register(yes2))
	assert.Error(t, r.Register(yes))

	assert.Len(t, r.GetBySymbol("YES"), 2)
	assert.Equal(t, "YES", r.Symbol(common.HexToAddress("0x01")))
	assert.Equal(t, "0x00000000", r.Symbol(common.HexToAddress("0x03"))[:10])
	assert.Len(t, r.All(), 5)
}
