package commenttree

// DefaultMaxDepth — ограничение глубины обхода по умолчанию.
const DefaultMaxDepth = 64

// Walk обходит лес в pre-order и вызывает fn для каждого узла с его глубиной (корень = 0).
// Узлы глубже maxDepth не посещаются; maxDepth <= 0 означает DefaultMaxDepth.
// Повторно встреченный узел пропускается, так что обход конечен даже на испорченных данных.
// Если fn вернула false, обход поддерева этого узла прекращается.
func Walk(roots []*Node, maxDepth int, fn func(n *Node, depth int) bool) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	type item struct {
		node  *Node
		depth int
	}

	visited := make(map[*Node]struct{})
	stack := make([]item, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, item{node: roots[i]})
	}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := visited[it.node]; ok {
			continue
		}
		visited[it.node] = struct{}{}

		if !fn(it.node, it.depth) {
			continue
		}

		if it.depth+1 > maxDepth {
			continue
		}

		children := it.node.Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, item{node: children[i], depth: it.depth + 1})
		}
	}
}

// Flatten возвращает id узлов в pre-order. Заглушки включаются.
func Flatten(roots []*Node) []string {
	var ids []string
	Walk(roots, 0, func(n *Node, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})

	return ids
}

// Count — число узлов в лесе (включая заглушки).
func Count(roots []*Node) int {
	total := 0
	Walk(roots, 0, func(*Node, int) bool {
		total++
		return true
	})

	return total
}
