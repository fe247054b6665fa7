package domain_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/condrouter/business/resolution/domain"
	"github.com/fd1az/condrouter/internal/apperror"
)

func answer(v int64) common.Hash {
	return common.BigToHash(big.NewInt(v))
}

func vec(vs ...int64) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = big.NewInt(v)
	}
	return out
}

func requirePayouts(t *testing.T, want, got []*big.Int) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Zero(t, want[i].Cmp(got[i]), "slot %d: want %s got %s", i, want[i], got[i])
	}
}

func TestResolve_Scalar(t *testing.T) {
	shape := domain.Scalar{Lower: big.NewInt(20), Upper: big.NewInt(100)}

	tests := []struct {
		name   string
		answer common.Hash
		want   []*big.Int
	}{
		{name: "below_lower", answer: answer(10), want: vec(1, 0, 0)},
		{name: "at_lower", answer: answer(20), want: vec(1, 0, 0)},
		{name: "inside", answer: answer(80), want: vec(20, 60, 0)},
		{name: "at_upper", answer: answer(100), want: vec(0, 1, 0)},
		{name: "above_upper", answer: answer(120), want: vec(0, 1, 0)},
		{name: "invalid", answer: domain.InvalidResult, want: vec(0, 0, 1)},
		{name: "too_soon_is_just_large", answer: domain.AnsweredTooSoon, want: vec(0, 1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.Resolve(shape, []common.Hash{tt.answer})
			require.NoError(t, err)
			requirePayouts(t, tt.want, got)
		})
	}
}

func TestResolve_Categorical(t *testing.T) {
	shape := domain.Categorical{Outcomes: 2}

	tests := []struct {
		name   string
		answer common.Hash
		want   []*big.Int
	}{
		{name: "first", answer: answer(0), want: vec(1, 0, 0)},
		{name: "second", answer: answer(1), want: vec(0, 1, 0)},
		{name: "out_of_range", answer: answer(2), want: vec(0, 0, 1)},
		{name: "invalid", answer: domain.InvalidResult, want: vec(0, 0, 1)},
		{name: "huge", answer: common.HexToHash("0x0100000000000000000000000000000000"), want: vec(0, 0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.Resolve(shape, []common.Hash{tt.answer})
			require.NoError(t, err)
			requirePayouts(t, tt.want, got)
		})
	}
}

func TestResolve_MultiCategorical(t *testing.T) {
	shape := domain.MultiCategorical{Outcomes: 3}

	tests := []struct {
		name   string
		answer common.Hash
		want   []*big.Int
	}{
		{name: "single_bit", answer: answer(0b010), want: vec(0, 1, 0, 0)},
		{name: "two_bits", answer: answer(0b101), want: vec(1, 0, 1, 0)},
		{name: "no_bits", answer: answer(0), want: vec(0, 0, 0, 1)},
		{name: "only_out_of_range_bits", answer: answer(0b11000), want: vec(0, 0, 0, 1)},
		{name: "mixed_range", answer: answer(0b1001), want: vec(1, 0, 0, 0)},
		{name: "invalid", answer: domain.InvalidResult, want: vec(0, 0, 0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.Resolve(shape, []common.Hash{tt.answer})
			require.NoError(t, err)
			requirePayouts(t, tt.want, got)
		})
	}
}

func TestResolve_MultiScalar(t *testing.T) {
	shape := domain.MultiScalar{Outcomes: 2}
	maxPayout := domain.MaxPayout()

	tests := []struct {
		name    string
		answers []common.Hash
		want    []*big.Int
	}{
		{name: "all_zero", answers: []common.Hash{answer(0), answer(0)}, want: vec(0, 0, 1)},
		{name: "proportional", answers: []common.Hash{answer(3), answer(7)}, want: vec(3, 7, 0)},
		{name: "one_invalid", answers: []common.Hash{domain.InvalidResult, answer(5)}, want: vec(0, 5, 0)},
		{name: "all_invalid", answers: []common.Hash{domain.InvalidResult, domain.InvalidResult}, want: vec(0, 0, 1)},
		{
			name:    "clamped",
			answers: []common.Hash{domain.AnsweredTooSoon, answer(1)},
			want:    []*big.Int{maxPayout, big.NewInt(1), big.NewInt(0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.Resolve(shape, tt.answers)
			require.NoError(t, err)
			requirePayouts(t, tt.want, got)
		})
	}

	assert.Equal(t, 128, maxPayout.BitLen())
	assert.Zero(t, new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)).Cmp(maxPayout))
}

func TestResolve_Totality(t *testing.T) {
	shapes := []domain.Shape{
		domain.Categorical{Outcomes: 1},
		domain.Categorical{Outcomes: 5},
		domain.MultiCategorical{Outcomes: 4},
		domain.MultiCategorical{Outcomes: 255},
		domain.Scalar{Lower: big.NewInt(0), Upper: big.NewInt(1)},
		domain.Scalar{Lower: big.NewInt(1000), Upper: big.NewInt(5000)},
		domain.MultiScalar{Outcomes: 3},
	}
	raw := []common.Hash{
		{},
		answer(1),
		answer(2),
		answer(3000),
		domain.InvalidResult,
		domain.AnsweredTooSoon,
		crypto.Keccak256Hash([]byte("noise")),
	}

	for _, shape := range shapes {
		for _, r := range raw {
			answers := make([]common.Hash, shape.Questions())
			for i := range answers {
				answers[i] = r
			}

			got, err := domain.Resolve(shape, answers)
			require.NoError(t, err, "%s %s", shape, r.Hex())
			require.Len(t, got, int(shape.Slots()))

			sum := new(big.Int)
			for _, p := range got {
				require.GreaterOrEqual(t, p.Sign(), 0)
				sum.Add(sum, p)
			}
			assert.Positive(t, sum.Sign(), "%s %s", shape, r.Hex())
		}
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name    string
		shape   domain.Shape
		answers []common.Hash
		want    apperror.Code
	}{
		{name: "nil_shape", shape: nil, answers: []common.Hash{{}}, want: apperror.CodeUnknownShape},
		{name: "no_outcomes", shape: domain.Categorical{}, answers: []common.Hash{{}}, want: apperror.CodeInvalidOutcomeSlotCount},
		{name: "too_many_outcomes", shape: domain.MultiScalar{Outcomes: 256}, want: apperror.CodeInvalidOutcomeSlotCount},
		{
			name:    "inverted_bounds",
			shape:   domain.Scalar{Lower: big.NewInt(5), Upper: big.NewInt(5)},
			answers: []common.Hash{{}},
			want:    apperror.CodeInvalidMarket,
		},
		{
			name:    "answer_count",
			shape:   domain.MultiScalar{Outcomes: 2},
			answers: []common.Hash{{}},
			want:    apperror.CodeInvalidAnswer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.Resolve(tt.shape, tt.answers)
			assert.Equal(t, tt.want, apperror.GetCode(err))
		})
	}
}

func TestNewShape(t *testing.T) {
	s, err := domain.NewShape(domain.KindScalar, 0, big.NewInt(1), big.NewInt(9))
	require.NoError(t, err)
	assert.Equal(t, domain.KindScalar, domain.KindOf(s))
	assert.Equal(t, domain.TemplateUint, domain.TemplateID(s))

	s, err = domain.NewShape(domain.KindMultiCategorical, 3, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), s.Slots())
	assert.Equal(t, domain.TemplateMultipleSelect, domain.TemplateID(s))

	_, err = domain.NewShape("ranked", 3, nil, nil)
	assert.Equal(t, apperror.CodeUnknownShape, apperror.GetCode(err))
}
