package trace

import "slices"

// DeriveLinks returns a copy of nodes in which the reverse relations are
// filled in: every node listed in another node's PreIDs gains that node in
// its PostIDs, and every node named as FatherID gains the child in its
// ChildIDs. Existing entries keep their order and nothing is duplicated.
// References to ids outside the list are left untouched.
//
// Recorders usually store only pre-node ids and the father id; the layout
// and markup generators need the forward direction as well.
func DeriveLinks(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	index := make(map[string]int, len(nodes))
	for i := range nodes {
		out[i] = nodes[i].clone()
		if _, seen := index[out[i].ID]; !seen {
			index[out[i].ID] = i
		}
	}

	for _, n := range nodes {
		for _, pre := range n.PreIDs {
			if j, ok := index[pre]; ok && !slices.Contains(out[j].PostIDs, n.ID) {
				out[j].PostIDs = append(out[j].PostIDs, n.ID)
			}
		}
		if j, ok := index[n.FatherID]; ok && n.FatherID != "" && !slices.Contains(out[j].ChildIDs, n.ID) {
			out[j].ChildIDs = append(out[j].ChildIDs, n.ID)
		}
	}
	return out
}
