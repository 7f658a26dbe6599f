package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Topology is a serializable description of a compiled graph.
type Topology struct {
	Name  string     `yaml:"name" json:"name"`
	Entry []string   `yaml:"entry" json:"entry"`
	Nodes []NodeSpec `yaml:"nodes" json:"nodes"`
	Edges []EdgeSpec `yaml:"edges" json:"edges"`
}

// NodeSpec describes one node.
type NodeSpec struct {
	ID           string   `yaml:"id" json:"id"`
	Type         string   `yaml:"type" json:"type"`
	Predecessors []string `yaml:"predecessors,omitempty" json:"predecessors,omitempty"`
}

// EdgeSpec describes an edge. Label is set for conditional edges.
type EdgeSpec struct {
	From  string `yaml:"from" json:"from"`
	To    string `yaml:"to" json:"to"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
}

// Topology describes the compiled graph.
func (g *Graph) Topology() Topology {
	t := Topology{Name: g.name}
	for _, name := range g.order {
		n := g.nodes[name]
		spec := NodeSpec{ID: name, Type: n.kind.String()}
		if n.kind == kindJoin {
			spec.Predecessors = append([]string(nil), g.preds[name]...)
		}
		t.Nodes = append(t.Nodes, spec)
	}
	t.Entry = append(t.Entry, g.out[Start].targets()...)
	for _, from := range append([]string{Start}, g.order...) {
		o, ok := g.out[from]
		if !ok {
			continue
		}
		if o.branch == nil {
			for _, to := range o.direct {
				t.Edges = append(t.Edges, EdgeSpec{From: from, To: to})
			}
			continue
		}
		for _, label := range o.branch.router.Labels {
			for _, to := range o.branch.routes[label] {
				t.Edges = append(t.Edges, EdgeSpec{From: from, To: to, Label: label})
			}
		}
	}
	return t
}

// ToMermaid renders the topology as a Mermaid flowchart.
func (t Topology) ToMermaid() string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(fmt.Sprintf("    %s((start))\n", mermaidID(Start)))
	for _, n := range t.Nodes {
		if n.Type == kindJoin.String() {
			sb.WriteString(fmt.Sprintf("    %s{{%s}}\n", n.ID, n.ID))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s[%s]\n", n.ID, n.ID))
	}
	sb.WriteString(fmt.Sprintf("    %s((end))\n", mermaidID(End)))
	for _, e := range t.Edges {
		if e.Label != "" {
			sb.WriteString(fmt.Sprintf("    %s -->|%s| %s\n", mermaidID(e.From), e.Label, mermaidID(e.To)))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", mermaidID(e.From), mermaidID(e.To)))
	}
	return sb.String()
}

// ToJSON renders the topology as indented JSON.
func (t Topology) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML renders the topology as YAML.
func (t Topology) ToYAML() ([]byte, error) {
	return yaml.Marshal(t)
}

func mermaidID(name string) string {
	switch name {
	case Start:
		return "start"
	case End:
		return "stop"
	}
	return name
}
