package ssalower

import "kanso/internal/ir"

// domInfo holds the dominator tree and dominance frontier of one function's
// CFG, computed with the standard Cooper/Harvey/Kennedy iterative
// algorithm (no external graph library appears anywhere in the example
// pack, so this is written directly against ir.Function/ir.BasicBlock).
type domInfo struct {
	order   []ir.BlockID   // reverse postorder
	postIdx map[ir.BlockID]int
	idom    map[ir.BlockID]ir.BlockID
	frontier map[ir.BlockID][]ir.BlockID
}

func computeDominance(f *ir.Function) *domInfo {
	ir.RecomputePredecessors(f)

	entry := ir.BlockID(0)
	order := reversePostorder(f, entry)
	postIdx := make(map[ir.BlockID]int, len(order))
	for i, b := range order {
		postIdx[b] = i
	}

	idom := map[ir.BlockID]ir.BlockID{entry: entry}
	changed := true
	for changed {
		changed = false
		// Process in reverse postorder, skipping the entry block.
		for i := 1; i < len(order); i++ {
			b := order[i]
			var newIdom ir.BlockID
			set := false
			for _, p := range f.Block(b).Preds {
				if _, ok := idom[p]; !ok {
					continue
				}
				if !set {
					newIdom = p
					set = true
					continue
				}
				newIdom = intersect(idom, postIdx, newIdom, p)
			}
			if set && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	frontier := make(map[ir.BlockID][]ir.BlockID)
	for _, b := range order {
		preds := f.Block(b).Preds
		if len(preds) < 2 {
			continue
		}
		for _, p := range preds {
			runner := p
			for runner != idom[b] {
				frontier[runner] = appendUnique(frontier[runner], b)
				runner = idom[runner]
			}
		}
	}

	return &domInfo{order: order, postIdx: postIdx, idom: idom, frontier: frontier}
}

func intersect(idom map[ir.BlockID]ir.BlockID, postIdx map[ir.BlockID]int, a, b ir.BlockID) ir.BlockID {
	// order is reverse postorder (entry has the smallest index), so an
	// immediate dominator always has a smaller index than its child. Walk
	// whichever finger is deeper (larger index) up toward entry.
	for a != b {
		for postIdx[a] > postIdx[b] {
			a = idom[a]
		}
		for postIdx[b] > postIdx[a] {
			b = idom[b]
		}
	}
	return a
}

func reversePostorder(f *ir.Function, entry ir.BlockID) []ir.BlockID {
	visited := make(map[ir.BlockID]bool)
	var post []ir.BlockID
	var visit func(b ir.BlockID)
	visit = func(b ir.BlockID) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range ir.Successors(f.Block(b).Terminator) {
			visit(s)
		}
		post = append(post, b)
	}
	visit(entry)

	reversed := make([]ir.BlockID, len(post))
	for i, b := range post {
		reversed[len(post)-1-i] = b
	}

	// Any block unreachable from entry (dead code the builder still created,
	// e.g. an orphaned block never jumped to) is appended after the
	// reachable reverse-postorder, so it can never displace entry from
	// order[0] or receive a postIdx smaller than a block that dominates it.
	for _, b := range f.Blocks {
		if !visited[b.ID] {
			reversed = append(reversed, b.ID)
		}
	}
	return reversed
}

func appendUnique(list []ir.BlockID, b ir.BlockID) []ir.BlockID {
	for _, x := range list {
		if x == b {
			return list
		}
	}
	return append(list, b)
}

// children groups blocks by immediate dominator, so callers can walk the
// dominator tree recursively (needed for SSA renaming's push-on-entry,
// pop-on-exit stack discipline, which a flat preorder slice cannot express
// because sibling subtrees must not see each other's pushes).
func (d *domInfo) children(entry ir.BlockID) map[ir.BlockID][]ir.BlockID {
	children := make(map[ir.BlockID][]ir.BlockID)
	for _, b := range d.order {
		if b == entry {
			continue
		}
		idom, ok := d.idom[b]
		if !ok {
			// b is unreachable from entry; dominance is undefined for it,
			// so it is simply left out of the dominator-tree walk.
			continue
		}
		children[idom] = append(children[idom], b)
	}
	return children
}
