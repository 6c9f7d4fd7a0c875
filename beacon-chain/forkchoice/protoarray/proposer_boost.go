package protoarray

import (
	fieldparams "github.com/sextantlabs/sextant/config/fieldparams"
	"github.com/sextantlabs/sextant/config/params"
	mathutil "github.com/sextantlabs/sextant/math"
)

// calculateCommitteeFraction returns the given percentage of the weight an
// average committee carries in one slot. The committee weight is the total
// effective balance spread over the slots of an epoch, computed as average
// balance times committee size so the intermediate products stay small. All
// multiplications are checked, weights are safety relevant quantities and
// must never silently truncate.
func calculateCommitteeFraction(justifiedBalances *JustifiedBalances, percentage uint64) (uint64, error) {
	if justifiedBalances == nil || justifiedBalances.numActiveValidators == 0 {
		return 0, nil
	}
	averageBalance := justifiedBalances.totalEffectiveBalance / justifiedBalances.numActiveValidators
	committeeSize := justifiedBalances.numActiveValidators / uint64(params.BeaconConfig().SlotsPerEpoch)
	committeeWeight, err := mathutil.Mul64(committeeSize, averageBalance)
	if err != nil {
		return 0, err
	}
	fraction, err := mathutil.Mul64(committeeWeight, percentage)
	if err != nil {
		return 0, err
	}
	return fraction / 100, nil
}

// computeProposerBoostScore returns the transient extra weight granted to a
// timely block proposal, a configured percentage of one committee's weight.
func computeProposerBoostScore(justifiedBalances *JustifiedBalances) (uint64, error) {
	score, err := calculateCommitteeFraction(justifiedBalances, params.BeaconConfig().ProposerScoreBoost)
	if err != nil {
		return 0, ErrProposerBoostOverflow
	}
	return score, nil
}

// ProposerBoost returns the root that currently carries the proposer boost.
func (f *ForkChoice) ProposerBoost() [fieldparams.RootLength]byte {
	f.store.proposerBoostLock.RLock()
	defer f.store.proposerBoostLock.RUnlock()
	return f.store.proposerBoostRoot
}
