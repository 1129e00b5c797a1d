// Package workflow decides whether an object may enter a state.
//
// Requirements are a small tree of AndGroup, OrGroup, StateRequirement and FunctionRequirement
// nodes decoded once from YAML. A RuleSet is immutable after Parse and safe to share.
package workflow

// Subject is the object being moved through the workflow
type Subject interface {
	// HasState reports whether state is currently active
	HasState(state string) bool
	// Check runs the named predicate; unknown names must report false
	Check(name string) bool
}

// Rule is closed over the four node kinds below
type Rule interface {
	Satisfied(s Subject) bool
	node()
}

// AndGroup holds when every child holds; empty is true
type AndGroup struct {
	Rules []Rule
}

func (g AndGroup) Satisfied(s Subject) bool {
	for _, r := range g.Rules {
		if !r.Satisfied(s) {
			return false
		}
	}
	return true
}

func (AndGroup) node() {}

// OrGroup holds when any child holds; empty is false
type OrGroup struct {
	Rules []Rule
}

func (g OrGroup) Satisfied(s Subject) bool {
	for _, r := range g.Rules {
		if r.Satisfied(s) {
			return true
		}
	}
	return false
}

func (OrGroup) node() {}

// StateRequirement needs State to be active
type StateRequirement struct {
	State string
}

func (r StateRequirement) Satisfied(s Subject) bool { return s.HasState(r.State) }
func (StateRequirement) node()                      {}

// FunctionRequirement needs the named predicate to pass
type FunctionRequirement struct {
	Name string
}

func (r FunctionRequirement) Satisfied(s Subject) bool { return s.Check(r.Name) }
func (FunctionRequirement) node()                      {}

// walk visits every node depth first
func walk(r Rule, visit func(Rule)) {
	if r == nil {
		return
	}
	visit(r)
	switch n := r.(type) {
	case AndGroup:
		for _, c := range n.Rules {
			walk(c, visit)
		}
	case OrGroup:
		for _, c := range n.Rules {
			walk(c, visit)
		}
	}
}
