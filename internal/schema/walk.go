package schema

import "errors"

// SkipChildren can be returned by an enter handler to skip the node's subtree.
var SkipChildren = errors.New("skip children")

// Cursor describes the position of a visited node.
type Cursor struct {
	Node *Node
	// Path holds the ids from the first visited level down to Node.
	Path Path
	// Numbers holds the 1-based sibling position at each level, e.g. [2 1] for "2.1".
	Numbers []int
	Parent  *Node
}

// Depth is 1 for the nodes passed to Walk.
func (c Cursor) Depth() int {
	return len(c.Path)
}

// Handler is called for each visited node.
type Handler func(c Cursor) error

// Walk visits nodes depth-first in document order. enter runs before a
// node's children and leave after them; either may be nil. Returning
// SkipChildren from enter skips the subtree (leave still runs). Any other
// error aborts the walk.
func Walk(nodes []*Node, enter, leave Handler) error {
	return walk(nodes, nil, nil, nil, enter, leave)
}

// WalkFrom visits node and its descendants, prefixing paths with prefix.
func WalkFrom(node *Node, prefix Path, enter, leave Handler) error {
	return walk([]*Node{node}, prefix, nil, nil, enter, leave)
}

func walk(nodes []*Node, prefix Path, numbers []int, parent *Node, enter, leave Handler) error {
	for i, n := range nodes {
		if n == nil {
			continue
		}
		c := Cursor{
			Node:    n,
			Path:    prefix.Child(n.ID),
			Numbers: appendNumber(numbers, i+1),
			Parent:  parent,
		}
		skip := false
		if enter != nil {
			if err := enter(c); err != nil {
				if !errors.Is(err, SkipChildren) {
					return err
				}
				skip = true
			}
		}
		if !skip {
			if err := walk(n.Children, c.Path, c.Numbers, n, enter, leave); err != nil {
				return err
			}
		}
		if leave != nil {
			if err := leave(c); err != nil {
				return err
			}
		}
	}
	return nil
}

func appendNumber(numbers []int, n int) []int {
	out := make([]int, len(numbers)+1)
	copy(out, numbers)
	out[len(numbers)] = n
	return out
}

// Leaves returns the input nodes under node (node included) with their paths.
func Leaves(node *Node, prefix Path) []Cursor {
	var out []Cursor
	_ = WalkFrom(node, prefix, func(c Cursor) error {
		if c.Node.IsLeaf() {
			out = append(out, c)
		}
		return nil
	}, nil)
	return out
}

// Find returns every node of the given kind in the template, with paths.
func Find(nodes []*Node, kind Kind) []Cursor {
	var out []Cursor
	_ = Walk(nodes, func(c Cursor) error {
		if c.Node.Kind == kind {
			out = append(out, c)
		}
		return nil
	}, nil)
	return out
}
