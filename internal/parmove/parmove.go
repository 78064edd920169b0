// Package parmove schedules a set of parallel copies (every pair assigned
// "as if simultaneously") into a sequence of ordinary one-at-a-time moves,
// breaking cycles with a single scratch value (spec §4.4). It is used by
// phi removal to turn a block's phi operands into real moves.
package parmove

// Pair is one parallel copy: Dst := Src.
type Pair[T comparable] struct {
	Dst T
	Src T
}

// Schedule linearizes pcopy into a sequence of moves that has the same
// effect as executing every pair in pcopy simultaneously. alloc(dst, src)
// is called to synthesize a scratch value of the same kind as dst when a
// cycle must be broken; ported directly from the original algorithm
// (par_move.rs), including its contract that alloc may be called with the
// same value for both arguments.
//
// pcopy is consumed (its backing array is mutated) and must not be reused
// by the caller afterward.
func Schedule[T comparable](pcopy []Pair[T], alloc func(dst, src T) T) []Pair[T] {
	seq := make([]Pair[T], 0, len(pcopy))

	hasNonIdentity := func() bool {
		for _, p := range pcopy {
			if p.Src != p.Dst {
				return true
			}
		}
		return false
	}

	isReadAsSource := func(dst T) bool {
		for _, p := range pcopy {
			if p.Src == dst {
				return true
			}
		}
		return false
	}

	for hasNonIdentity() {
		freeIndex := -1
		for i, p := range pcopy {
			if !isReadAsSource(p.Dst) {
				freeIndex = i
				break
			}
		}

		if freeIndex >= 0 {
			p := pcopy[freeIndex]
			seq = append(seq, Pair[T]{Dst: p.Dst, Src: p.Src})
			pcopy = append(pcopy[:freeIndex], pcopy[freeIndex+1:]...)
			continue
		}

		// Every remaining destination is also read as a source somewhere:
		// the remaining pairs form one or more cycles. Break one by
		// routing its destination through a fresh scratch value.
		cycleIndex := -1
		for i, p := range pcopy {
			if p.Src != p.Dst {
				cycleIndex = i
				break
			}
		}
		p := pcopy[cycleIndex]
		scratch := alloc(p.Dst, p.Dst)
		seq = append(seq, Pair[T]{Dst: scratch, Src: p.Src})
		pcopy[cycleIndex] = Pair[T]{Dst: p.Dst, Src: scratch}
	}

	return seq
}
