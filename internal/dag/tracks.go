package dag

import "sort"

// Track is a set of tasks that share no dependency edges with tasks in any
// other track. Tracks can be worked on in parallel without waiting on each
// other.
type Track struct {
	// ID is the position of the track after sorting, starting at 0.
	ID int `json:"id"`

	// NodeIDs lists the member tasks. When the graph is acyclic they are in
	// topological order; otherwise they keep insertion order.
	NodeIDs []string `json:"tasks"`
}

// Tracks partitions the graph into weakly connected components. Tracks are
// sorted by size descending, then by the insertion position of their first
// member.
func (g *Graph) Tracks() []Track {
	if len(g.order) == 0 {
		return nil
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		order = g.order
	}
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	uf := newUnionFind(len(g.order))
	for _, from := range g.order {
		for _, to := range g.adjacency[from] {
			uf.union(g.index[from], g.index[to])
		}
	}

	groups := uf.groups()
	tracks := make([]Track, 0, len(groups))
	for _, group := range groups {
		members := make([]string, len(group))
		for i, idx := range group {
			members[i] = g.order[idx]
		}
		sort.Slice(members, func(i, j int) bool {
			return pos[members[i]] < pos[members[j]]
		})
		tracks = append(tracks, Track{NodeIDs: members})
	}

	// groups arrive ordered by first member, so a stable sort on size keeps
	// that as the tie-break.
	sort.SliceStable(tracks, func(i, j int) bool {
		return len(tracks[i].NodeIDs) > len(tracks[j].NodeIDs)
	})
	for i := range tracks {
		tracks[i].ID = i
	}
	return tracks
}
