package dag

// unionFind is a disjoint-set forest over dense integer indexes with path
// compression and union by rank.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

// find returns the root of x's set, compressing the path on the way.
func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// union merges the sets containing x and y.
func (uf *unionFind) union(x, y int) {
	rx, ry := uf.find(x), uf.find(y)
	if rx == ry {
		return
	}
	switch {
	case uf.rank[rx] < uf.rank[ry]:
		uf.parent[rx] = ry
	case uf.rank[rx] > uf.rank[ry]:
		uf.parent[ry] = rx
	default:
		uf.parent[ry] = rx
		uf.rank[rx]++
	}
}

func (uf *unionFind) connected(x, y int) bool {
	return uf.find(x) == uf.find(y)
}

// groups returns the disjoint sets. Groups are ordered by their smallest
// member and members are ascending.
func (uf *unionFind) groups() [][]int {
	slot := make(map[int]int)
	var out [][]int
	for i := range uf.parent {
		root := uf.find(i)
		s, ok := slot[root]
		if !ok {
			s = len(out)
			slot[root] = s
			out = append(out, nil)
		}
		out[s] = append(out[s], i)
	}
	return out
}
