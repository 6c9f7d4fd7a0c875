package scenarios

// ExecutionStatus01 invalidates a voted branch down to its fork point and
// checks that the weight it carried is fully shed.
func ExecutionStatus01() *Definition {
	balances := []uint64{1, 1}
	jc := checkpointAt(1, 0)

	ops := []*Operation{
		// Two branches off block 1: a deep one through 2 and a leaf 4.
		//
		//            0
		//            |
		//            1
		//           / \
		//          2   4
		//          |
		//          3
		processBlockOp(1, 1, 0, jc, jc),
		processBlockOp(2, 2, 1, jc, jc),
		processBlockOp(3, 3, 2, jc, jc),
		processBlockOp(2, 4, 1, jc, jc),

		// Weightless, the tie at the fork goes to the higher root 4.
		findHeadOp(jc, jc, balances, 4),

		// Both votes land on 3, its branch takes the head.
		attestationOp(0, 3, 2),
		attestationOp(1, 3, 2),
		findHeadOp(jc, jc, balances, 3),
		assertWeightOp(1, 2),
		assertWeightOp(2, 2),
		assertWeightOp(3, 2),
		assertWeightOp(4, 0),

		// The execution layer reports 1 as the last valid payload, the whole
		// voted branch is invalid and its weight evaporates.
		invalidatePayloadOp(3, 1),
		findHeadOp(jc, jc, balances, 4),
		assertWeightOp(1, 0),
		assertWeightOp(2, 0),
		assertWeightOp(3, 0),
		assertWeightOp(4, 0),
	}

	return &Definition{
		Name:                "execution_status_01",
		FinalizedBlockSlot:  0,
		JustifiedCheckpoint: *jc,
		FinalizedCheckpoint: *jc,
		Operations:          ops,
	}
}

// ExecutionStatus02 invalidates a mid-chain block and checks that the
// sibling branch hanging off it is swept along with it.
func ExecutionStatus02() *Definition {
	balances := []uint64{1, 1}
	jc := checkpointAt(1, 0)

	ops := []*Operation{
		//            0
		//            |
		//            1
		//            |
		//            2
		//           / \
		//          3   4
		processBlockOp(1, 1, 0, jc, jc),
		processBlockOp(2, 2, 1, jc, jc),
		processBlockOp(3, 3, 2, jc, jc),
		processBlockOp(3, 4, 2, jc, jc),

		// Split votes tie the leaves, the higher root wins.
		attestationOp(0, 3, 2),
		attestationOp(1, 4, 2),
		findHeadOp(jc, jc, balances, 4),

		// Invalidating the head back to 1 takes 2 down, and 3 descends
		// from 2 so it goes down too.
		invalidatePayloadOp(4, 1),
		findHeadOp(jc, jc, balances, 1),
		assertWeightOp(1, 0),
		assertWeightOp(2, 0),
	}

	return &Definition{
		Name:                "execution_status_02",
		FinalizedBlockSlot:  0,
		JustifiedCheckpoint: *jc,
		FinalizedCheckpoint: *jc,
		Operations:          ops,
	}
}

// ExecutionStatus03 exercises the proposer boost against an invalidation: a
// boosted block ties a voted sibling, loses the boost on the next query, and
// takes the head for good once the sibling's payload is invalidated.
func ExecutionStatus03() *Definition {
	balances := make([]uint64, 64)
	for i := range balances {
		balances[i] = 32
	}
	jc := checkpointAt(1, 0)

	ops := []*Operation{
		//            0
		//            |
		//            1
		//           / \
		//          2   3
		processBlockOp(0, 1, 0, jc, jc),
		processBlockOp(0, 2, 1, jc, jc),
		processBlockOp(0, 3, 1, jc, jc),

		// Weightless tie, higher root.
		findHeadOp(jc, jc, balances, 3),

		// One vote puts 2 ahead.
		attestationOp(0, 2, 2),
		findHeadOp(jc, jc, balances, 2),
		assertWeightOp(2, 32),

		// A timely proposal of 3 earns the boost, one committee's worth of
		// weight, and ties the vote. The tie goes to 3.
		boostFindHeadOp(jc, jc, balances, 3, 3),

		// The boost is gone on the next query.
		findHeadOp(jc, jc, balances, 2),
		assertWeightOp(2, 32),
		assertWeightOp(3, 0),

		// With 2's payload invalid the head settles on 3.
		invalidatePayloadOp(2, 1),
		findHeadOp(jc, jc, balances, 3),
		assertWeightOp(1, 0),
		assertWeightOp(3, 0),
	}

	return &Definition{
		Name:                "execution_status_03",
		FinalizedBlockSlot:  0,
		JustifiedCheckpoint: *jc,
		FinalizedCheckpoint: *jc,
		Operations:          ops,
	}
}
