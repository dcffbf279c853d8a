// Package cfg derives control-flow facts from a built function. Graphs are
// read-only views over an immutable blocks.Function.
package cfg

import (
	"sort"

	"bril/interpreter-go/pkg/ast"
	"bril/interpreter-go/pkg/blocks"
)

// Node is one basic block in the graph.
type Node struct {
	Block        int
	Name         string
	Successors   []int
	Predecessors []int
	// Dominators is sorted and includes the block itself; nil when unreachable.
	Dominators []int
	Reachable  bool
}

// Graph is the control-flow graph of one function. Block 0 is the entry.
type Graph struct {
	Function string
	Nodes    []Node
}

// Build computes edges, reachability and dominator sets for fn.
func Build(fn *blocks.Function) *Graph {
	g := &Graph{Function: fn.Name, Nodes: make([]Node, len(fn.Blocks))}
	for i := range fn.Blocks {
		g.Nodes[i] = Node{Block: i, Name: fn.Blocks[i].Name()}
	}
	for i := range fn.Blocks {
		succs := Successors(fn, i)
		g.Nodes[i].Successors = succs
		for _, succ := range succs {
			g.Nodes[succ].Predecessors = append(g.Nodes[succ].Predecessors, i)
		}
	}
	g.markReachable()
	g.computeDominators()
	return g
}

// Successors lists the blocks control can move to from block i.
func Successors(fn *blocks.Function, i int) []int {
	block := &fn.Blocks[i]
	if len(block.Instrs) > 0 {
		last := block.Instrs[len(block.Instrs)-1]
		switch last.Op {
		case ast.OpRet:
			return nil
		case ast.OpJmp, ast.OpBr:
			return dedupe(last.Targets)
		}
	}
	if i+1 < len(fn.Blocks) {
		return []int{i + 1}
	}
	return nil
}

func dedupe(targets []int) []int {
	out := make([]int, 0, len(targets))
	seen := make(map[int]struct{}, len(targets))
	for _, t := range targets {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (g *Graph) markReachable() {
	if len(g.Nodes) == 0 {
		return
	}
	stack := []int{0}
	g.Nodes[0].Reachable = true
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, succ := range g.Nodes[n].Successors {
			if !g.Nodes[succ].Reachable {
				g.Nodes[succ].Reachable = true
				stack = append(stack, succ)
			}
		}
	}
}

// computeDominators runs the iterative set-intersection algorithm over the
// reachable nodes.
func (g *Graph) computeDominators() {
	if len(g.Nodes) == 0 {
		return
	}
	all := make([]int, 0, len(g.Nodes))
	for i := range g.Nodes {
		if g.Nodes[i].Reachable {
			all = append(all, i)
		}
	}
	for _, i := range all {
		g.Nodes[i].Dominators = append([]int(nil), all...)
	}
	g.Nodes[0].Dominators = []int{0}

	changed := true
	for changed {
		changed = false
		for _, i := range all {
			if i == 0 {
				continue
			}
			var next []int
			first := true
			for _, pred := range g.Nodes[i].Predecessors {
				if !g.Nodes[pred].Reachable {
					continue
				}
				if first {
					next = append([]int(nil), g.Nodes[pred].Dominators...)
					first = false
					continue
				}
				next = intersect(next, g.Nodes[pred].Dominators)
			}
			next = insertSorted(next, i)
			if !equalSlices(g.Nodes[i].Dominators, next) {
				g.Nodes[i].Dominators = next
				changed = true
			}
		}
	}
}

// Unreachable lists blocks that no path from the entry reaches.
func (g *Graph) Unreachable() []int {
	var out []int
	for i := range g.Nodes {
		if !g.Nodes[i].Reachable {
			out = append(out, i)
		}
	}
	return out
}

// Dominates reports whether every path from the entry to b passes through a.
func (g *Graph) Dominates(a, b int) bool {
	if b < 0 || b >= len(g.Nodes) {
		return false
	}
	doms := g.Nodes[b].Dominators
	idx := sort.SearchInts(doms, a)
	return idx < len(doms) && doms[idx] == a
}

// ImmediateDominator returns the closest strict dominator of b, or -1 for the
// entry block and unreachable blocks.
func (g *Graph) ImmediateDominator(b int) int {
	if b <= 0 || b >= len(g.Nodes) {
		return -1
	}
	best := -1
	for _, d := range g.Nodes[b].Dominators {
		if d == b {
			continue
		}
		// The strict dominator dominated by all others is the immediate one.
		if best == -1 || g.Dominates(best, d) {
			best = d
		}
	}
	return best
}

func intersect(a, b []int) []int {
	var result []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			result = append(result, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return result
}

func insertSorted(s []int, v int) []int {
	idx := sort.SearchInts(s, v)
	if idx < len(s) && s[idx] == v {
		return s
	}
	s = append(s, 0)
	copy(s[idx+1:], s[idx:])
	s[idx] = v
	return s
}

func equalSlices(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
