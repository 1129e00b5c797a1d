package workflow

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRules []byte

// RuleSet maps a target state to its entry requirement
type RuleSet struct {
	rules map[string]Rule // nil value: no requirement
}

// Allowed reports whether s may move into target.
// Undeclared targets and the currently active state are never allowed.
func (rs *RuleSet) Allowed(target string, s Subject) bool {
	req, ok := rs.rules[target]
	if !ok || s.HasState(target) {
		return false
	}
	if req == nil {
		return true
	}
	return req.Satisfied(s)
}

// Requirement returns the tree guarding target
func (rs *RuleSet) Requirement(target string) (Rule, bool) {
	r, ok := rs.rules[target]
	return r, ok
}

// States lists declared targets in sorted order
func (rs *RuleSet) States() []string {
	out := make([]string, 0, len(rs.rules))
	for s := range rs.rules {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Functions lists every predicate name the rules reference
func (rs *RuleSet) Functions() []string {
	seen := make(map[string]struct{})
	for _, r := range rs.rules {
		walk(r, func(n Rule) {
			if f, ok := n.(FunctionRequirement); ok {
				seen[f.Name] = struct{}{}
			}
		})
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ── loading ──

type document struct {
	States map[string]yaml.Node `yaml:"states"`
}

// Default is the built-in timesheet rule set
func Default() (*RuleSet, error) {
	return Parse(defaultRules)
}

// Load reads a rule file; an empty path uses the built-in rules
func Load(path string) (*RuleSet, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workflow: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document of the form
//
//	states:
//	  approved:
//	    and:
//	      - or: [{state: approval_pending}, {state: modified}]
//	      - func: has_times
func Parse(data []byte) (*RuleSet, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("workflow: decode: %w", err)
	}
	if len(doc.States) == 0 {
		return nil, fmt.Errorf("workflow: no states declared")
	}

	rs := &RuleSet{rules: make(map[string]Rule, len(doc.States))}
	for state, node := range doc.States {
		n := node
		r, err := decodeRule(&n)
		if err != nil {
			return nil, fmt.Errorf("workflow: state %q: %w", state, err)
		}
		rs.rules[state] = r
	}
	return rs, nil
}

func decodeRule(n *yaml.Node) (Rule, error) {
	switch {
	case n.Kind == 0, n.Tag == "!!null":
		return nil, nil
	case n.Kind == yaml.MappingNode && len(n.Content) == 0:
		return nil, nil
	case n.Kind != yaml.MappingNode || len(n.Content) != 2:
		return nil, fmt.Errorf("line %d: expected a single-key mapping", n.Line)
	}

	key, val := n.Content[0].Value, n.Content[1]
	switch key {
	case "and", "or":
		if val.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("line %d: %s needs a list", val.Line, key)
		}
		children := make([]Rule, 0, len(val.Content))
		for _, c := range val.Content {
			r, err := decodeRule(c)
			if err != nil {
				return nil, err
			}
			if r == nil {
				return nil, fmt.Errorf("line %d: empty rule inside %s", c.Line, key)
			}
			children = append(children, r)
		}
		if key == "and" {
			return AndGroup{Rules: children}, nil
		}
		return OrGroup{Rules: children}, nil
	case "state":
		if val.Kind != yaml.ScalarNode || val.Value == "" {
			return nil, fmt.Errorf("line %d: state needs a name", val.Line)
		}
		return StateRequirement{State: val.Value}, nil
	case "func":
		if val.Kind != yaml.ScalarNode || val.Value == "" {
			return nil, fmt.Errorf("line %d: func needs a name", val.Line)
		}
		return FunctionRequirement{Name: val.Value}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown rule %q", n.Content[0].Line, key)
	}
}

// Require fails when the rules reference a predicate outside known
func (rs *RuleSet) Require(known ...string) error {
	have := make(map[string]struct{}, len(known))
	for _, k := range known {
		have[k] = struct{}{}
	}
	var missing []string
	for _, name := range rs.Functions() {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("workflow: unknown predicates %s", strings.Join(missing, ", "))
	}
	return nil
}
