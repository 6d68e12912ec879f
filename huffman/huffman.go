// Package huffman builds an optional frequency-weighted prefix code for the
// opcode table, as an alternative to isa.DefaultOpcodes. It is a direct port
// of the binary-heap Huffman-tree builder in
// _examples/original_source/compiler/util.rs's huffman() function.
package huffman

import (
	"container/heap"
	"sort"
)

// node is one entry in the working forest: a frequency-weighted partial
// code assignment for a set of symbols.
type node struct {
	freq  int
	codes []symbolCode
	seq   int // insertion order, for deterministic tie-breaking
}

type symbolCode struct {
	prefix string
	symbol string
}

// forest is a min-heap on (freq, seq), mirroring Rust's
// BinaryHeap<Reverse<(usize, Vec<...>)>> popping lowest frequency first.
type forest []*node

func (f forest) Len() int { return len(f) }
func (f forest) Less(i, j int) bool {
	if f[i].freq != f[j].freq {
		return f[i].freq < f[j].freq
	}
	return f[i].seq < f[j].seq
}
func (f forest) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }
func (f *forest) Push(x any)        { *f = append(*f, x.(*node)) }
func (f *forest) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

// Build assigns a prefix-free binary code to every key in counts, weighted
// by frequency, using the classic two-lowest-merge Huffman construction. A
// single-symbol input gets the code "0" (matching util.rs's huffman(), which
// special-cases a forest of size one rather than leaving it uncoded).
func Build(counts map[string]int) map[string]string {
	if len(counts) == 0 {
		return map[string]string{}
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	f := make(forest, 0, len(counts))
	seq := 0
	for _, key := range keys {
		f = append(f, &node{
			freq:  counts[key],
			codes: []symbolCode{{prefix: "", symbol: key}},
			seq:   seq,
		})
		seq++
	}
	heap.Init(&f)

	if f.Len() == 1 {
		single := heap.Pop(&f).(*node)
		single.codes[0].prefix = "0"
		return toMap(single.codes)
	}

	for f.Len() > 1 {
		left := heap.Pop(&f).(*node)
		right := heap.Pop(&f).(*node)

		merged := make([]symbolCode, 0, len(left.codes)+len(right.codes))
		for _, c := range left.codes {
			merged = append(merged, symbolCode{prefix: "0" + c.prefix, symbol: c.symbol})
		}
		for _, c := range right.codes {
			merged = append(merged, symbolCode{prefix: "1" + c.prefix, symbol: c.symbol})
		}

		heap.Push(&f, &node{
			freq:  left.freq + right.freq,
			codes: merged,
			seq:   seq,
		})
		seq++
	}

	root := heap.Pop(&f).(*node)
	return toMap(root.codes)
}

func toMap(codes []symbolCode) map[string]string {
	out := make(map[string]string, len(codes))
	for _, c := range codes {
		out[c.symbol] = c.prefix
	}
	return out
}
