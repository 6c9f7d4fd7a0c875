package scenarios

// FFG01 builds a single chain whose blocks progressively justify and finalize,
// then queries the head from every justification level.
func FFG01() *Definition {
	balances := []uint64{1, 1}

	ops := []*Operation{
		// The head starts at the finalized block.
		findHeadOp(getCheckpoint(0), getCheckpoint(0), balances, 0),

		//            0 <- just: 0, fin: 0
		//            |
		//            1 <- just: 0, fin: 0
		//            |
		//            2 <- just: 1, fin: 0
		//            |
		//            3 <- just: 2, fin: 1
		processBlockOp(1, 1, 0, getCheckpoint(0), getCheckpoint(0)),
		processBlockOp(2, 2, 1, getCheckpoint(1), getCheckpoint(0)),
		processBlockOp(3, 3, 2, getCheckpoint(2), getCheckpoint(1)),

		// From justified epoch 0 the whole chain is viable.
		findHeadOp(getCheckpoint(0), getCheckpoint(0), balances, 3),

		// From justified epoch 1 the head block's higher justification is
		// tolerated.
		findHeadOp(getCheckpoint(1), getCheckpoint(0), balances, 3),

		// From justified epoch 2 the walk starts at the head itself.
		findHeadOp(getCheckpoint(2), getCheckpoint(1), balances, 3),
	}

	return &Definition{
		Name:                "ffg_01",
		FinalizedBlockSlot:  0,
		JustifiedCheckpoint: *getCheckpoint(0),
		FinalizedCheckpoint: *getCheckpoint(0),
		Operations:          ops,
	}
}

// FFG02 builds two competing chains with diverging justification, then flips
// the head back and forth with single votes while querying from different
// justified roots and epochs.
func FFG02() *Definition {
	balances := []uint64{1, 1}

	ops := []*Operation{
		// The head starts at the finalized block.
		findHeadOp(getCheckpoint(0), getCheckpoint(0), balances, 0),

		// Build the following tree.
		//
		//                       0
		//                      / \
		//  just: 0, fin: 0 -> 1   2 <- just: 0, fin: 0
		//                     |   |
		//  just: 1, fin: 0 -> 3   4 <- just: 0, fin: 0
		//                     |   |
		//  just: 1, fin: 0 -> 5   6 <- just: 0, fin: 0
		//                     |   |
		//  just: 1, fin: 0 -> 7   8 <- just: 1, fin: 0
		//                     |   |
		//  just: 2, fin: 0 -> 9  10 <- just: 2, fin: 0
		processBlockOp(1, 1, 0, getCheckpoint(0), getCheckpoint(0)),
		processBlockOp(2, 3, 1, checkpointAt(1, 1), getCheckpoint(0)),
		processBlockOp(3, 5, 3, checkpointAt(1, 1), getCheckpoint(0)),
		processBlockOp(4, 7, 5, checkpointAt(1, 1), getCheckpoint(0)),
		processBlockOp(5, 9, 7, checkpointAt(2, 3), getCheckpoint(0)),
		processBlockOp(1, 2, 0, getCheckpoint(0), getCheckpoint(0)),
		processBlockOp(2, 4, 2, getCheckpoint(0), getCheckpoint(0)),
		processBlockOp(3, 6, 4, getCheckpoint(0), getCheckpoint(0)),
		processBlockOp(4, 8, 6, checkpointAt(1, 2), getCheckpoint(0)),
		processBlockOp(5, 10, 8, checkpointAt(2, 4), getCheckpoint(0)),

		// With no weight anywhere the tie goes to the higher-root branch,
		// from any justification level.
		findHeadOp(getCheckpoint(0), getCheckpoint(0), balances, 10),
		findHeadOp(checkpointAt(2, 4), getCheckpoint(0), balances, 10),
		findHeadOp(checkpointAt(3, 6), getCheckpoint(0), balances, 10),

		// A vote on 1 tips the balance to the left branch.
		//
		//                 0
		//                / \
		//    +1 vote -> 1   2
		//               |   |
		//               9  10
		attestationOp(0, 1, 0),
		findHeadOp(getCheckpoint(0), getCheckpoint(0), balances, 9),
		findHeadOp(checkpointAt(2, 3), getCheckpoint(0), balances, 9),
		findHeadOp(checkpointAt(3, 5), getCheckpoint(0), balances, 9),

		// A vote on 2 restores the tie, the higher root wins again.
		//
		//                 0
		//                / \
		//               1   2 <- +1 vote
		//               |   |
		//               9  10
		attestationOp(1, 2, 0),
		findHeadOp(getCheckpoint(0), getCheckpoint(0), balances, 10),
		findHeadOp(checkpointAt(2, 4), getCheckpoint(0), balances, 10),
		findHeadOp(checkpointAt(3, 6), getCheckpoint(0), balances, 10),

		// Starting inside the left branch pins the head to it.
		findHeadOp(checkpointAt(0, 1), getCheckpoint(0), balances, 9),
		findHeadOp(checkpointAt(2, 3), getCheckpoint(0), balances, 9),
		findHeadOp(checkpointAt(3, 5), getCheckpoint(0), balances, 9),

		// And inside the right branch.
		findHeadOp(checkpointAt(0, 2), getCheckpoint(0), balances, 10),
		findHeadOp(checkpointAt(2, 4), getCheckpoint(0), balances, 10),
		findHeadOp(checkpointAt(3, 6), getCheckpoint(0), balances, 10),
	}

	return &Definition{
		Name:                "ffg_02",
		FinalizedBlockSlot:  0,
		JustifiedCheckpoint: *getCheckpoint(0),
		FinalizedCheckpoint: *getCheckpoint(0),
		Operations:          ops,
	}
}
