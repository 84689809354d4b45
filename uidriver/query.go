package uidriver

import (
	"fmt"
	"strings"
)

// Queryable is anything that renders to an inspector query expression.
type Queryable interface {
	Expression() string
	String() string
}

// Selector identifies an element of the client UI, such as "//controllerTitle". A selector
// by itself does not say what state the element must be in; use Visible, Hidden or Ready to
// build a Query. Building a query never touches the application.
type Selector string

// State is the state a Query requires of its element.
type State int

const (
	// Visible requires the element to exist and be shown.
	Visible State = iota + 1
	// Hidden requires the element to exist and not be shown.
	Hidden
	// Ready requires the element to exist and not be busy, e.g. a loader that finished.
	Ready
)

func (s State) String() string {
	switch s {
	case Visible:
		return "visible"
	case Hidden:
		return "hidden"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) filter() string {
	switch s {
	case Visible:
		return "{visible=true}"
	case Hidden:
		return "{visible=false}"
	case Ready:
		return "{busy=false}"
	default:
		return ""
	}
}

func (s Selector) Visible() Query { return Query{selector: s, state: Visible} }
func (s Selector) Hidden() Query  { return Query{selector: s, state: Hidden} }
func (s Selector) Ready() Query   { return Query{selector: s, state: Ready} }

// Prop returns a narrower selector that also requires a property value, for instance
// Selector("//serverCountry").Prop("code", "it").
func (s Selector) Prop(name string, value interface{}) Selector {
	return Selector(fmt.Sprintf("%s{%s=%v}", s, name, value))
}

func (s Selector) Expression() string { return string(s) }
func (s Selector) String() string     { return string(s) }

// Query is a selector plus the state its element must be in. It is an immutable value.
type Query struct {
	selector Selector
	state    State
}

func (q Query) Selector() Selector { return q.selector }
func (q Query) State() State       { return q.state }

func (q Query) Expression() string {
	return string(q.selector) + q.state.filter()
}

func (q Query) String() string {
	return fmt.Sprintf("%s (%s)", q.selector, q.state)
}

// ParseExpression splits an expression into its path and property filters. It is the inverse
// of Expression, used by fake inspectors.
func ParseExpression(expr string) (path string, filters map[string]string, err error) {
	i := strings.IndexByte(expr, '{')
	if i < 0 {
		return expr, nil, nil
	}
	path, rest := expr[:i], expr[i:]
	filters = make(map[string]string)
	for rest != "" {
		end := strings.IndexByte(rest, '}')
		if rest[0] != '{' || end < 0 {
			return "", nil, fmt.Errorf("malformed query expression %q", expr)
		}
		name, value, ok := strings.Cut(rest[1:end], "=")
		if !ok || name == "" {
			return "", nil, fmt.Errorf("malformed property filter in %q", expr)
		}
		filters[name] = value
		rest = rest[end+1:]
	}
	return path, filters, nil
}
