package graph

import (
	"context"
	"fmt"
)

// NodeFunc is a node body. It reads the state and returns the fields it
// produces. Expected failures belong in the returned partial under KeyError;
// the function must never mutate the state it receives.
type NodeFunc func(ctx context.Context, s State) Partial

type nodeKind int

const (
	kindTask nodeKind = iota
	kindJoin
)

func (k nodeKind) String() string {
	if k == kindJoin {
		return "join"
	}
	return "task"
}

type node struct {
	name string
	fn   NodeFunc
	kind nodeKind
}

// invoke runs the node body against a private copy of the state and converts a
// panic into an error partial.
func (n *node) invoke(ctx context.Context, s State) (partial Partial) {
	defer func() {
		if r := recover(); r != nil {
			partial = Partial{
				KeyError:     fmt.Sprintf("node %s panicked: %v", n.name, r),
				KeyErrorType: fmt.Sprintf("%T", r),
			}
		}
	}()
	partial = n.fn(ctx, s.Clone())
	if partial == nil {
		partial = Partial{}
	}
	return partial
}
