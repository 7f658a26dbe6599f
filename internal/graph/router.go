package graph

import "fmt"

const (
	// Start is the virtual node edges leave from to declare the entry point.
	Start = "__start__"
	// End is the terminal marker.
	End = "__end__"

	LabelContinue = "continue"
	LabelEnd      = "end"
)

// Router selects the next edge label at a conditional junction. Labels is the
// closed set Route may return; every label must be mapped when the graph is
// compiled.
type Router struct {
	Labels []string
	Route  func(State) string
}

// NewRouter declares a router with its label set.
func NewRouter(route func(State) string, labels ...string) Router {
	return Router{Labels: labels, Route: route}
}

// ContinueOrEnd is the binary junction used throughout the pipelines: it
// returns LabelContinue when ok reports true and LabelEnd otherwise.
func ContinueOrEnd(ok func(State) bool) Router {
	return NewRouter(func(s State) string {
		if ok(s) {
			return LabelContinue
		}
		return LabelEnd
	}, LabelContinue, LabelEnd)
}

// Routes maps each router label to its destinations. A label may fan out to
// several nodes.
type Routes map[string][]string

func (r Router) declares(label string) bool {
	for _, l := range r.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// decide evaluates the router, recovering panics and rejecting labels outside
// the declared set.
func (r Router) decide(s State) (label string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			label = ""
			err = fmt.Errorf("router panicked: %v", rec)
		}
	}()
	label = r.Route(s)
	if !r.declares(label) {
		return "", fmt.Errorf("router returned undeclared label %q", label)
	}
	return label, nil
}
