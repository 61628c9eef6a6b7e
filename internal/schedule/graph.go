package schedule

// edge is a resolved dependency: from is the predecessor, to the successor.
type edge struct {
	from, to string
	dep      Dependency
}

// graph is the dependency graph of a forest. Node order follows the tree's
// pre-order so every traversal is deterministic.
type graph struct {
	tasks        map[string]*Task
	order        []string
	position     map[string]int
	successors   map[string][]string
	incoming     map[string][]edge
	outgoing     map[string][]edge
	unresolvable []edge
}

func newGraph(roots []*Task) *graph {
	g := &graph{
		tasks:      make(map[string]*Task),
		position:   make(map[string]int),
		successors: make(map[string][]string),
		incoming:   make(map[string][]edge),
		outgoing:   make(map[string][]edge),
	}
	Walk(roots, func(t *Task, _ *Task) bool {
		g.position[t.ID] = len(g.order)
		g.order = append(g.order, t.ID)
		g.tasks[t.ID] = t
		return true
	})
	for _, id := range g.order {
		for _, d := range g.tasks[id].Dependencies {
			e := edge{from: d.PredecessorID, to: id, dep: d}
			if _, ok := g.tasks[d.PredecessorID]; !ok || d.PredecessorID == id {
				g.unresolvable = append(g.unresolvable, e)
				continue
			}
			g.incoming[id] = append(g.incoming[id], e)
			g.outgoing[e.from] = append(g.outgoing[e.from], e)
			g.successors[e.from] = append(g.successors[e.from], id)
		}
	}
	return g
}

// topoOrder returns the nodes in dependency order (Kahn's algorithm,
// ties broken by tree position). Nodes left over because they sit on or
// behind a cycle are returned separately.
func (g *graph) topoOrder() (order []string, cyclic []string) {
	inDegree := make(map[string]int, len(g.order))
	for _, id := range g.order {
		inDegree[id] = len(g.incoming[id])
	}
	ready := make([]string, 0)
	for _, id := range g.order {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, succ := range g.successors[id] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				ready = g.insertByPosition(ready, succ)
			}
		}
	}
	if len(order) < len(g.order) {
		for _, id := range g.order {
			if inDegree[id] > 0 {
				cyclic = append(cyclic, id)
			}
		}
	}
	return order, cyclic
}

func (g *graph) insertByPosition(queue []string, id string) []string {
	pos := g.position[id]
	i := len(queue)
	for i > 0 && g.position[queue[i-1]] > pos {
		i--
	}
	queue = append(queue, "")
	copy(queue[i+1:], queue[i:])
	queue[i] = id
	return queue
}

// downstream returns every node reachable from id along successor edges,
// excluding id itself.
func (g *graph) downstream(id string) map[string]bool {
	seen := make(map[string]bool)
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, succ := range g.successors[cur] {
			if !seen[succ] {
				seen[succ] = true
				stack = append(stack, succ)
			}
		}
	}
	delete(seen, id)
	return seen
}

// pathBetween returns the ids along a successor path from "from" to "to"
// (both included), or nil when "to" is unreachable.
func (g *graph) pathBetween(from, to string) []string {
	if from == to {
		return []string{from}
	}
	parent := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, succ := range g.successors[cur] {
			if _, ok := parent[succ]; ok {
				continue
			}
			parent[succ] = cur
			if succ == to {
				var path []string
				for n := to; n != ""; n = parent[n] {
					path = append([]string{n}, path...)
				}
				return path
			}
			queue = append(queue, succ)
		}
	}
	return nil
}
