package protoarray

import (
	"encoding/hex"
	"strconv"

	"github.com/emicklei/dot"
)

// DotGraph renders the block tree in Graphviz DOT form. Canonical nodes as of
// the last head computation are drawn green.
func (f *ForkChoice) DotGraph() string {
	f.store.nodesLock.RLock()
	defer f.store.nodesLock.RUnlock()

	nodes := f.store.nodes
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "RL")
	graph.Attr("labeljust", "l")

	dotNodes := make([]*dot.Node, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		label := "slot: " + strconv.FormatUint(uint64(n.slot), 10) +
			"\n root: " + hex.EncodeToString(n.root[:4]) +
			"\n index: " + strconv.Itoa(i) +
			"\n bestDescendant: " + formatIndex(n.bestDescendant) +
			"\n weight: " + strconv.FormatUint(n.weight, 10)
		dotN := graph.Node(strconv.Itoa(i)).Box().Attr("label", label)
		if f.store.canonicalNodes[n.root] {
			dotN = dotN.Attr("color", "green")
		}
		dotNodes[i] = &dotN
	}

	for i := len(nodes) - 1; i >= 0; i-- {
		parent := nodes[i].parent
		if parent != NonExistentNode && parent < uint64(len(dotNodes)) {
			graph.Edge(*dotNodes[i], *dotNodes[parent])
		}
	}

	return graph.String()
}

func formatIndex(i uint64) string {
	if i == NonExistentNode {
		return "none"
	}
	return strconv.FormatUint(i, 10)
}
