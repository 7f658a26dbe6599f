package graph

import "slices"

type outgoing struct {
	direct   []string
	branch   *branch
	endLabel string
}

// targets lists every destination reachable through this edge set, in label
// declaration order for conditional edges.
func (o outgoing) targets() []string {
	if o.branch == nil {
		return o.direct
	}
	var out []string
	for _, label := range o.branch.router.Labels {
		for _, to := range o.branch.routes[label] {
			if !slices.Contains(out, to) {
				out = append(out, to)
			}
		}
	}
	return out
}

// Graph is a compiled, immutable workflow. It is safe for concurrent runs.
type Graph struct {
	name  string
	nodes map[string]*node
	order []string
	index map[string]int
	out   map[string]outgoing
	preds map[string][]string
	opts  options
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// Nodes returns node names in declaration order.
func (g *Graph) Nodes() []string { return slices.Clone(g.order) }

// Checkpointer returns the configured checkpoint store, if any.
func (g *Graph) Checkpointer() CheckpointStore { return g.opts.checkpointer }

// reachableFrom returns every node reachable from starts, including the starts
// themselves, without expanding past skip.
func (g *Graph) reachableFrom(starts []string, skip string) map[string]bool {
	seen := make(map[string]bool)
	queue := make([]string, 0, len(starts))
	for _, s := range starts {
		if !seen[s] {
			seen[s] = true
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == skip && cur != "" {
			continue
		}
		for _, to := range g.out[cur].targets() {
			if !seen[to] {
				seen[to] = true
				queue = append(queue, to)
			}
		}
	}
	return seen
}

func (g *Graph) canReachEnd() map[string]bool {
	reverse := make(map[string][]string)
	for from, o := range g.out {
		for _, to := range o.targets() {
			reverse[to] = append(reverse[to], from)
		}
	}
	seen := map[string]bool{End: true}
	queue := []string{End}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, from := range reverse[cur] {
			if !seen[from] {
				seen[from] = true
				queue = append(queue, from)
			}
		}
	}
	return seen
}
