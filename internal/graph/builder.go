package graph

import (
	"slices"
)

type branch struct {
	router Router
	routes Routes
}

// Builder assembles nodes and edges. Mistakes are recorded and reported by
// Compile so declarations can be chained.
type Builder struct {
	name     string
	nodes    map[string]*node
	order    []string
	direct   map[string][]string
	branches map[string]*branch
	sources  []string
	errs     []error
}

// NewBuilder starts a graph description.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:     name,
		nodes:    make(map[string]*node),
		direct:   make(map[string][]string),
		branches: make(map[string]*branch),
	}
}

// AddNode registers a task node.
func (b *Builder) AddNode(name string, fn NodeFunc) *Builder {
	return b.add(name, fn, kindTask)
}

// AddJoin registers a barrier join node. It fires once per run after every
// predecessor that can still deliver has done so.
func (b *Builder) AddJoin(name string, fn NodeFunc) *Builder {
	return b.add(name, fn, kindJoin)
}

func (b *Builder) add(name string, fn NodeFunc, kind nodeKind) *Builder {
	switch {
	case name == Start || name == End || name == "":
		b.fail(ErrReservedName, name, "")
	case b.nodes[name] != nil:
		b.fail(ErrDuplicateNode, name, "")
	case fn == nil:
		b.fail(ErrNilFunc, name, "")
	default:
		b.nodes[name] = &node{name: name, fn: fn, kind: kind}
		b.order = append(b.order, name)
	}
	return b
}

// AddEdge declares an unconditional edge. Several edges from one node fan out.
func (b *Builder) AddEdge(from, to string) *Builder {
	if _, ok := b.branches[from]; ok {
		b.fail(ErrMixedEdges, from, "")
		return b
	}
	b.touch(from)
	b.direct[from] = append(b.direct[from], to)
	return b
}

// AddConditionalEdges attaches a router to from. Each router label must be a
// key of routes.
func (b *Builder) AddConditionalEdges(from string, router Router, routes Routes) *Builder {
	if _, ok := b.branches[from]; ok || len(b.direct[from]) > 0 {
		b.fail(ErrMixedEdges, from, "")
		return b
	}
	if router.Route == nil {
		b.fail(ErrNilFunc, from, "")
		return b
	}
	b.touch(from)
	copied := make(Routes, len(routes))
	for label, targets := range routes {
		copied[label] = slices.Clone(targets)
	}
	b.branches[from] = &branch{
		router: Router{Labels: slices.Clone(router.Labels), Route: router.Route},
		routes: copied,
	}
	return b
}

// SetEntry declares the node a run starts from.
func (b *Builder) SetEntry(name string) *Builder {
	return b.AddEdge(Start, name)
}

// SetConditionalEntry picks the first node from the seed state.
func (b *Builder) SetConditionalEntry(router Router, routes Routes) *Builder {
	return b.AddConditionalEdges(Start, router, routes)
}

func (b *Builder) touch(from string) {
	if !slices.Contains(b.sources, from) {
		b.sources = append(b.sources, from)
	}
}

func (b *Builder) fail(kind error, node, label string) {
	b.errs = append(b.errs, &BuildError{Graph: b.name, Kind: kind, Node: node, Label: label})
}

// Compile validates the description and returns an immutable Graph. The first
// defect found is returned as a *BuildError.
func (b *Builder) Compile(opts ...Option) (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	g := &Graph{
		name:  b.name,
		nodes: make(map[string]*node, len(b.nodes)),
		order: slices.Clone(b.order),
		index: make(map[string]int, len(b.order)),
		out:   make(map[string]outgoing, len(b.sources)),
		preds: make(map[string][]string),
		opts:  defaultOptions(),
	}
	for _, opt := range opts {
		opt(&g.opts)
	}
	for i, name := range b.order {
		g.nodes[name] = b.nodes[name]
		g.index[name] = i
	}

	if len(b.direct[Start]) == 0 && b.branches[Start] == nil {
		return nil, b.err(ErrNoEntry, "", "")
	}

	for _, from := range b.sources {
		if from != Start && g.nodes[from] == nil {
			return nil, b.err(ErrUnknownNode, from, "")
		}
		if targets, ok := b.direct[from]; ok {
			for _, to := range targets {
				if err := b.checkTarget(g, to, ""); err != nil {
					return nil, err
				}
			}
			g.out[from] = outgoing{direct: slices.Clone(targets)}
			continue
		}
		br := b.branches[from]
		if err := b.checkBranch(g, from, br); err != nil {
			return nil, err
		}
		g.out[from] = outgoing{branch: br, endLabel: endLabel(br)}
	}

	for _, from := range b.sources {
		for _, to := range g.out[from].targets() {
			if to != End && !slices.Contains(g.preds[to], from) {
				g.preds[to] = append(g.preds[to], from)
			}
		}
	}
	for _, name := range g.order {
		if g.nodes[name].kind == kindJoin && len(g.preds[name]) < 2 {
			return nil, b.err(ErrJoinArity, name, "")
		}
	}

	reached := g.reachableFrom([]string{Start}, "")
	for _, name := range g.order {
		if !reached[name] {
			return nil, b.err(ErrOrphanNode, name, "")
		}
	}
	canFinish := g.canReachEnd()
	for _, name := range g.order {
		if !canFinish[name] {
			return nil, b.err(ErrDeadEnd, name, "")
		}
	}
	return g, nil
}

func (b *Builder) err(kind error, node, label string) error {
	return &BuildError{Graph: b.name, Kind: kind, Node: node, Label: label}
}

func (b *Builder) checkTarget(g *Graph, to, label string) error {
	if to == End {
		return nil
	}
	if to == Start || g.nodes[to] == nil {
		return b.err(ErrUnknownNode, to, label)
	}
	return nil
}

func (b *Builder) checkBranch(g *Graph, from string, br *branch) error {
	if len(br.router.Labels) == 0 {
		return b.err(ErrUnmappedLabel, from, "")
	}
	for _, label := range br.router.Labels {
		if len(br.routes[label]) == 0 {
			return b.err(ErrUnmappedLabel, from, label)
		}
	}
	labels := make([]string, 0, len(br.routes))
	for label := range br.routes {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	for _, label := range labels {
		if !br.router.declares(label) {
			return b.err(ErrUndeclaredLabel, from, label)
		}
		for _, to := range br.routes[label] {
			if err := b.checkTarget(g, to, label); err != nil {
				return err
			}
		}
	}
	if from != Start && endLabel(br) == "" {
		return b.err(ErrNoTerminalRoute, from, "")
	}
	return nil
}

// endLabel returns the first declared label whose destinations include End.
func endLabel(br *branch) string {
	for _, label := range br.router.Labels {
		if slices.Contains(br.routes[label], End) {
			return label
		}
	}
	return ""
}
