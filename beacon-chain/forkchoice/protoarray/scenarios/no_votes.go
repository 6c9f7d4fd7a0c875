package scenarios

// NoVotes builds the vote-free suite: with zero balances everywhere the head
// is decided purely by tree shape, tie breaks and the viability filter.
func NoVotes() *Definition {
	balances := make([]uint64, 16)
	jc1 := checkpointAt(1, 0)
	jc2 := checkpointAt(2, 5)
	fc2 := checkpointAt(2, 1)

	ops := []*Operation{
		// The head starts at the finalized block.
		findHeadOp(jc1, jc1, balances, 0),

		//          0
		//         /
		// head-> 2
		processBlockOp(1, 2, 0, jc1, jc1),
		findHeadOp(jc1, jc1, balances, 2),

		// A fork with no weight anywhere, the higher root wins.
		//          0
		//         / \
		// head-> 2   1
		processBlockOp(1, 1, 0, jc1, jc1),
		findHeadOp(jc1, jc1, balances, 2),

		//          0
		//         / \
		// head-> 2   1
		//            |
		//            3
		processBlockOp(2, 3, 1, jc1, jc1),
		findHeadOp(jc1, jc1, balances, 2),

		//          0
		//         / \
		//        2   1
		//        |   |
		// head-> 4   3
		processBlockOp(3, 4, 2, jc1, jc1),
		findHeadOp(jc1, jc1, balances, 4),

		// Block 5 carries checkpoints of an unfinalized chain, it is
		// filtered and the head stays at 4.
		//          2
		//          |
		// head-> 4
		//          |
		//          5
		processBlockOp(4, 5, 4, checkpointAt(2, 5), fc2),
		findHeadOp(jc1, jc1, balances, 4),

		// Starting a head query at 5 while the store disagrees with its
		// checkpoints has no viable answer.
		invalidFindHeadOp(checkpointAt(1, 5), jc1, balances),

		// Once the store adopts 5's view the head lands on it.
		findHeadOp(jc2, fc2, balances, 5),

		//          5
		//          |
		//          6 <- head
		processBlockOp(5, 6, 5, jc2, fc2),
		findHeadOp(jc2, fc2, balances, 6),
	}

	return &Definition{
		Name:                "no_votes",
		FinalizedBlockSlot:  0,
		JustifiedCheckpoint: *checkpointAt(1, 0),
		FinalizedCheckpoint: *checkpointAt(1, 0),
		Operations:          ops,
	}
}
