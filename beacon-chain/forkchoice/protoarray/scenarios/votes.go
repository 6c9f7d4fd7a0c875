package scenarios

// Votes builds the voting suite: two validators steer the head across a fork,
// the justified checkpoint advances mid-run, two more validators join and
// leave through balance changes, and the tree is pruned at the new finalized
// root.
func Votes() *Definition {
	two := []uint64{1, 1}
	four := []uint64{1, 1, 1, 1}
	fadeOut := []uint64{1, 1, 0, 0}
	jc1 := checkpointAt(1, 0)
	jc2 := checkpointAt(2, 5)

	ops := []*Operation{
		// The head starts at the finalized block.
		findHeadOp(jc1, jc1, two, 0),

		//          0
		//         /
		// head-> 2
		processBlockOp(1, 2, 0, jc1, jc1),
		findHeadOp(jc1, jc1, two, 2),

		// A fork, the tie goes to the higher root.
		//          0
		//         / \
		// head-> 2   1
		processBlockOp(1, 1, 0, jc1, jc1),
		findHeadOp(jc1, jc1, two, 2),

		// A vote lands on 1.
		//          0
		//         / \
		//        2   1 <- head
		attestationOp(0, 1, 2),
		findHeadOp(jc1, jc1, two, 1),

		// A vote lands on 2, back to the tie break.
		//          0
		//         / \
		// head-> 2   1
		attestationOp(1, 2, 2),
		findHeadOp(jc1, jc1, two, 2),

		//          0
		//         / \
		// head-> 2   1
		//            |
		//            3
		processBlockOp(2, 3, 1, jc1, jc1),
		findHeadOp(jc1, jc1, two, 2),

		// Validator 0 moves from 1 to 3, the branches stay tied.
		attestationOp(0, 3, 3),
		findHeadOp(jc1, jc1, two, 2),

		// Validator 1 moves from 2 to 1, the right branch wins outright.
		//          0
		//         / \
		//        2   1
		//            |
		//            3 <- head
		attestationOp(1, 1, 3),
		findHeadOp(jc1, jc1, two, 3),

		//            3
		//            |
		//            4 <- head
		processBlockOp(3, 4, 3, jc1, jc1),
		findHeadOp(jc1, jc1, two, 4),

		// Block 5 carries checkpoints from a chain the store has not
		// finalized, it is filtered out and the head stays at 4.
		//            4 <- head
		//           /
		//          5
		processBlockOp(4, 5, 4, checkpointAt(2, 1), checkpointAt(2, 1)),
		findHeadOp(jc1, jc1, two, 4),
		findHeadOp(jc1, jc1, two, 4),

		//            4
		//           / \
		//          5   6
		processBlockOp(0, 6, 4, jc1, jc1),

		// Both validators vote for 5, but its branch stays unviable under
		// the old finalized checkpoint so 6 holds the head.
		attestationOp(0, 5, 4),
		attestationOp(1, 5, 4),
		processBlockOp(0, 7, 5, jc2, jc2),
		processBlockOp(0, 8, 7, jc2, jc2),
		processBlockOp(0, 9, 8, jc2, jc2),
		findHeadOp(jc1, jc1, two, 6),

		// The store advances to the new checkpoints, the voted branch opens
		// up and the head lands on 9.
		//          5
		//          |
		//          7
		//          |
		//          8
		//          |
		//          9 <- head
		findHeadOp(jc2, jc2, two, 9),

		// Both validators move to 9, block 10 forks off 8.
		//          8
		//         / \
		// head-> 9  10
		attestationOp(0, 9, 5),
		attestationOp(1, 9, 5),
		processBlockOp(0, 10, 8, jc2, jc2),

		// Two new validators appear and vote for 10, the branches tie and
		// the higher root wins.
		//          8
		//         / \
		//        9  10 <- head
		attestationOp(2, 10, 5),
		attestationOp(3, 10, 5),
		findHeadOp(jc2, jc2, four, 10),

		// The new validators' balances drop to zero, 9 retakes the head.
		findHeadOp(jc2, jc2, fadeOut, 9),

		// And return, 10 again.
		findHeadOp(jc2, jc2, four, 10),

		// The new validators leave the balance list entirely.
		findHeadOp(jc2, jc2, two, 9),

		// A prune below the threshold is a no-op.
		pruneOp(5, ^uint64(0), 11),
		findHeadOp(jc2, jc2, two, 9),

		// A real prune drops everything below the finalized root 5.
		//          5   6
		//          |
		//          7
		//          |
		//          8
		//         / \
		//        9  10
		pruneOp(5, 1, 6),
		findHeadOp(jc2, jc2, two, 9),

		//        9  10
		//        |
		// head-> 11
		processBlockOp(0, 11, 9, jc2, jc2),
		findHeadOp(jc2, jc2, two, 11),
	}

	return &Definition{
		Name:                "votes",
		FinalizedBlockSlot:  0,
		JustifiedCheckpoint: *checkpointAt(1, 0),
		FinalizedCheckpoint: *checkpointAt(1, 0),
		Operations:          ops,
	}
}
