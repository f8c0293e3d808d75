package state

// SetAfterSolve registers f to run each time MineNextBlock has found a
// proof and before it tries to seal the block.
func SetAfterSolve(s *State, f func()) {
	s.testHookAfterSolve = f
}
