package protoarray

import (
	mathutil "github.com/sextantlabs/sextant/math"
	"github.com/pkg/errors"
)

// JustifiedBalances holds the effective balances of every validator at the
// last justified state, together with the aggregates fork choice needs to
// weigh votes and compute committee fractions. A validator inactive or
// slashed at the justified epoch carries a zero balance. The struct is
// replaced wholesale whenever the justified checkpoint moves, it is never
// mutated in place.
type JustifiedBalances struct {
	effectiveBalances     []uint64
	totalEffectiveBalance uint64
	numActiveValidators   uint64
}

// NewJustifiedBalances builds the aggregates from the raw per-validator
// effective balances of the justified state.
func NewJustifiedBalances(balances []uint64) (*JustifiedBalances, error) {
	j := &JustifiedBalances{effectiveBalances: balances}
	for _, balance := range balances {
		if balance != 0 {
			total, err := mathutil.Add64(j.totalEffectiveBalance, balance)
			if err != nil {
				return nil, errors.Wrap(err, "could not sum effective balances")
			}
			j.totalEffectiveBalance = total
			j.numActiveValidators++
		}
	}
	return j, nil
}

// Balances returns the per-validator effective balances.
func (j *JustifiedBalances) Balances() []uint64 {
	return j.effectiveBalances
}

// TotalEffectiveBalance returns the sum of all effective balances.
func (j *JustifiedBalances) TotalEffectiveBalance() uint64 {
	return j.totalEffectiveBalance
}

// NumActiveValidators returns the count of validators with a non-zero
// effective balance.
func (j *JustifiedBalances) NumActiveValidators() uint64 {
	return j.numActiveValidators
}
