package services

import (
	"fmt"
	"sort"
)

// CheckParent validates that giving child the parent newParent keeps the
// deliverable tree acyclic. parents maps every deliverable id in the project
// to its current parent id ("" for roots).
func CheckParent(parents map[string]string, child, newParent string) error {
	if newParent == "" {
		return nil
	}
	if _, ok := parents[newParent]; !ok {
		return notFound("parent deliverable", newParent)
	}
	if newParent == child {
		return fmt.Errorf("deliverable %q cannot be its own parent: %w", child, ErrDeliverableCycle)
	}

	seen := map[string]bool{child: true}
	for cur := newParent; cur != ""; cur = parents[cur] {
		if seen[cur] {
			return fmt.Errorf("deliverable %q is an ancestor of %q: %w", child, newParent, ErrDeliverableCycle)
		}
		seen[cur] = true
	}
	return nil
}

// Node is a deliverable with its own and subtree-rolled figures.
type Node struct {
	Deliverable     Deliverable `json:"deliverable"`
	Depth           int         `json:"depth"`
	Children        []string    `json:"children,omitempty"`
	OwnBudget       float64     `json:"own_budget"`
	OwnEarned       float64     `json:"own_earned"`
	OwnFTC          float64     `json:"own_ftc"`
	OwnActual       float64     `json:"own_actual"`
	RolledBudget    float64     `json:"rolled_budget"`
	RolledEarned    float64     `json:"rolled_earned"`
	RolledFTC       float64     `json:"rolled_ftc"`
	RolledActual    float64     `json:"rolled_actual"`
	PercentComplete float64     `json:"percent_complete"`
}

// Forest is the deliverable tree of one project in depth-first WBS order.
type Forest struct {
	Nodes map[string]*Node
	Order []string
	Roots []string
}

// BuildForest arranges deliverables into a tree. It fails with
// ErrDeliverableCycle if the stored parent links are cyclic, which only
// happens when records were written around the engine.
func BuildForest(deliverables []Deliverable) (*Forest, error) {
	f := &Forest{Nodes: make(map[string]*Node, len(deliverables))}
	for _, d := range deliverables {
		f.Nodes[d.ID] = &Node{Deliverable: d}
	}

	for _, d := range deliverables {
		if d.ParentID == "" {
			f.Roots = append(f.Roots, d.ID)
			continue
		}
		parent, ok := f.Nodes[d.ParentID]
		if !ok {
			// Dangling parent (e.g. deleted): treat as a root.
			f.Roots = append(f.Roots, d.ID)
			continue
		}
		parent.Children = append(parent.Children, d.ID)
	}

	byWBS := func(ids []string) {
		sort.SliceStable(ids, func(i, j int) bool {
			a, b := f.Nodes[ids[i]].Deliverable, f.Nodes[ids[j]].Deliverable
			if a.WBSCode != b.WBSCode {
				return a.WBSCode < b.WBSCode
			}
			return a.ID < b.ID
		})
	}
	byWBS(f.Roots)

	visited := make(map[string]bool, len(deliverables))
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		visited[id] = true
		n := f.Nodes[id]
		n.Depth = depth
		f.Order = append(f.Order, id)
		byWBS(n.Children)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, r := range f.Roots {
		walk(r, 0)
	}

	if len(visited) != len(deliverables) {
		for _, d := range deliverables {
			if !visited[d.ID] {
				return nil, fmt.Errorf("deliverable %q is unreachable from any root: %w", d.ID, ErrDeliverableCycle)
			}
		}
	}
	return f, nil
}

// Rollup fills the rolled figures bottom-up: a node's rolled value is its own
// value plus the rolled values of its children.
func (f *Forest) Rollup() {
	for i := len(f.Order) - 1; i >= 0; i-- {
		n := f.Nodes[f.Order[i]]
		n.RolledBudget = n.OwnBudget
		n.RolledEarned = n.OwnEarned
		n.RolledFTC = n.OwnFTC
		n.RolledActual = n.OwnActual
		for _, c := range n.Children {
			child := f.Nodes[c]
			n.RolledBudget += child.RolledBudget
			n.RolledEarned += child.RolledEarned
			n.RolledFTC += child.RolledFTC
			n.RolledActual += child.RolledActual
		}
		if n.RolledBudget > 0 {
			n.PercentComplete = clampPercent(n.RolledEarned / n.RolledBudget * 100)
		}
	}
}
