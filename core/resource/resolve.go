package resource

// Resolve descends from root along tokens. At every node the children are
// tried in precedence order and the first that accepts the token at the
// cursor wins; there is no backtracking. Leftover tokens yield an incomplete
// path. An empty token list resolves to the root.
//
// Resolve does not modify the tree or tokens and is safe for concurrent use
// on a sealed tree.
func Resolve(root *Node, conv Converter, tokens []string) Path {
	node := root
	var matches []Match
	offset := 0

	for offset < len(tokens) {
		found := false
		for _, child := range node.children {
			m, consumed, ok := child.tryMatch(conv, tokens, offset)
			if !ok {
				continue
			}
			matches = append(matches, m)
			offset += consumed
			node = child
			found = true
			break
		}
		if !found {
			break
		}
	}

	if offset < len(tokens) {
		return Path{matches: matches}
	}
	return Path{matches: matches, node: node}
}
