// SPDX-License-Identifier: EPL-2.0

package mp3

// clumpBits is the widest lookup one trie level does.
const clumpBits = 4

// huffNode is one slot of a clumped decoding trie. A final node holds a
// decoded value and the code bits it consumed at its level; any other node
// points at the next level, bits wide.
type huffNode struct {
	final bool
	value uint8 // x<<4 | y for pairs, vwxy for quadruples
	bits  uint8
	next  uint16
}

type pairTable struct {
	nodes   []huffNode
	start   int
	linbits int
}

type quadTable struct {
	nodes []huffNode
	start int
}

var (
	pairTables [32]pairTable
	quadTables [2]quadTable
)

// init builds the tries of ISO/IEC 11172-3 Table B.7 from pairCodes and
// quadCodesA. Tables 16 to 23 share the codes of table 16 and tables 24 to
// 31 those of table 24; only their linbits differ.
func init() {
	// Table 0 decodes nothing but zeros without consuming input.
	pairTables[0] = pairTable{nodes: []huffNode{{final: true}}}

	for n := 1; n < 16; n++ {
		if n == 4 || n == 14 {
			continue
		}
		pairTables[n] = newPairTable(n, 0)
	}

	for i, linbits := range [8]int{1, 2, 3, 4, 6, 8, 10, 13} {
		pairTables[16+i] = newPairTable(16, linbits)
	}
	for i, linbits := range [8]int{4, 5, 6, 7, 8, 9, 11, 13} {
		pairTables[24+i] = newPairTable(24, linbits)
	}

	quadTables[0] = quadTable{nodes: buildTrie(quadCodesA, 4), start: 4}

	b := codeTable{width: 16, codes: make([]uint16, 16), lens: make([]uint8, 16)}
	for i := range b.codes {
		b.codes[i] = uint16(15 - i)
		b.lens[i] = 4
	}
	quadTables[1] = quadTable{nodes: buildTrie(b, 4), start: 4}
}

func newPairTable(src, linbits int) pairTable {
	start := 4
	if src <= 3 {
		start = 3
	}

	return pairTable{nodes: buildTrie(pairCodes[src], start), start: start, linbits: linbits}
}

type codeWord struct {
	code  uint16
	len   int
	value uint8
}

// buildTrie turns a table of prefix codes into lookup levels. The root
// level is start bits wide; deeper levels cover at most clumpBits. Short
// codes fill every slot that shares their prefix.
func buildTrie(t codeTable, start int) []huffNode {
	words := make([]codeWord, len(t.codes))
	for i, code := range t.codes {
		words[i] = codeWord{
			code:  code,
			len:   int(t.lens[i]),
			value: uint8(i/t.width<<4 | i%t.width),
		}
	}

	var (
		nodes []huffNode
		level func(words []codeWord, depth, bits int) int
	)

	level = func(words []codeWord, depth, bits int) int {
		base := len(nodes)
		nodes = append(nodes, make([]huffNode, 1<<bits)...)

		groups := make([][]codeWord, 1<<bits)
		for _, w := range words {
			rest := w.len - depth
			code := int(w.code) & (1<<rest - 1)
			if rest <= bits {
				shift := bits - rest
				for s := range 1 << shift {
					nodes[base+(code<<shift|s)] = huffNode{final: true, value: w.value, bits: uint8(rest)}
				}
				continue
			}

			prefix := code >> (rest - bits)
			groups[prefix] = append(groups[prefix], w)
		}

		for prefix, g := range groups {
			if len(g) == 0 {
				continue
			}

			longest := 0
			for _, w := range g {
				longest = max(longest, w.len)
			}
			width := min(clumpBits, longest-depth-bits)
			next := level(g, depth+bits, width)
			nodes[base+prefix] = huffNode{bits: uint8(width), next: uint16(next)}
		}

		return base
	}

	level(words, 0, start)

	return nodes
}
