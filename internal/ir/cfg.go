package ir

// RecomputePredecessors rebuilds every block's predecessor list in this
// function from its blocks' terminators, in block-id order. Builder leaves
// terminators mutable (last-writer-wins, spec §7), so predecessor lists are
// a derived view recomputed by passes that need an accurate CFG rather than
// incrementally maintained as the builder edits terminators.
func RecomputePredecessors(f *Function) {
	for _, b := range f.Blocks {
		b.Preds = nil
	}
	for _, b := range f.Blocks {
		for _, s := range Successors(b.Terminator) {
			f.Block(s).Preds = append(f.Block(s).Preds, b.ID)
		}
	}
}
