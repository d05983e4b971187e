package points

// FlashLoanGuard gates checkpoint crediting behind a minimum number of
// blocks since the previous checkpoint. A zero MinHoldingBlocks disables
// the gate entirely.
type FlashLoanGuard struct {
	MinHoldingBlocks uint64
}

// Allows reports whether a checkpoint at currentBlock may credit points for
// a user whose previous checkpoint landed at lastBlock. A user that has
// never checkpointed (lastBlock == 0) always passes.
func (g FlashLoanGuard) Allows(lastBlock, currentBlock uint64) bool {
	if g.MinHoldingBlocks == 0 || lastBlock == 0 {
		return true
	}
	return currentBlock >= lastBlock+g.MinHoldingBlocks
}
