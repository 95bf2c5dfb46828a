// Package store implements the Essential Store: the
// mutable backing cells that are the leaves of the dependency graph.
package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dqnykamp/doenetgraph/internal/value"
)

// OriginKind discriminates why an essential cell exists.
type OriginKind int

const (
	// OriginStateVar is an explicit essential request from a state
	// variable's own dependency instructions.
	OriginStateVar OriginKind = iota
	// OriginStringChild backs a literal string child of a component so it
	// can be edited as if it were a state variable.
	OriginStringChild
	// OriginAttribute backs an attribute literal that a dependency
	// instruction requested essential storage for.
	OriginAttribute
	// OriginParsedExpression caches the MathExpression a Child
	// instruction's parse_into_expression assembled from a component's
	// children, keyed by the owning state variable rather than by the
	// common-parent component it is physically stored against.
	OriginParsedExpression
)

// Origin identifies why an essential cell exists within a component: a
// state variable's own essential request, a literal string child, an
// attribute literal that requested essential storage, or a cached
// parse_into_expression result.
type Origin struct {
	Kind     OriginKind
	StateVar int    // meaningful for OriginStateVar, OriginAttribute, OriginParsedExpression
	Name     string // attribute name, meaningful for OriginAttribute
	Index    int    // child/value index k, meaningful for StringChild and Attribute
	Owner    string // owning component name, meaningful for OriginParsedExpression
}

// String renders a stable key fragment for debugging and devtools output.
func (o Origin) String() string {
	switch o.Kind {
	case OriginStateVar:
		return fmt.Sprintf("sv:%d", o.StateVar)
	case OriginStringChild:
		return fmt.Sprintf("child:%d", o.Index)
	case OriginAttribute:
		return fmt.Sprintf("attr:%d:%s:%d", o.StateVar, o.Name, o.Index)
	case OriginParsedExpression:
		return fmt.Sprintf("expr:%s:%d", o.Owner, o.StateVar)
	default:
		return "origin:?"
	}
}

// ParseOrigin reverses Origin.String(), used when reloading a serialized
// essential-cell dump.
func ParseOrigin(s string) (Origin, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Origin{}, false
	}
	switch parts[0] {
	case "sv":
		i, err := strconv.Atoi(parts[1])
		if err != nil {
			return Origin{}, false
		}
		return Origin{Kind: OriginStateVar, StateVar: i}, true
	case "child":
		i, err := strconv.Atoi(parts[1])
		if err != nil {
			return Origin{}, false
		}
		return Origin{Kind: OriginStringChild, Index: i}, true
	case "attr":
		fields := strings.SplitN(parts[1], ":", 3)
		if len(fields) != 3 {
			return Origin{}, false
		}
		sv, err1 := strconv.Atoi(fields[0])
		idx, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil {
			return Origin{}, false
		}
		return Origin{Kind: OriginAttribute, StateVar: sv, Name: fields[1], Index: idx}, true
	case "expr":
		fields := strings.SplitN(parts[1], ":", 2)
		if len(fields) != 2 {
			return Origin{}, false
		}
		sv, err := strconv.Atoi(fields[1])
		if err != nil {
			return Origin{}, false
		}
		return Origin{Kind: OriginParsedExpression, Owner: fields[0], StateVar: sv}, true
	default:
		return Origin{}, false
	}
}

// Key addresses a single essential cell by owning component and origin.
type Key struct {
	Component string
	Origin    Origin
}

// Cell is a single mutable backing value plus whether it still holds the
// type's default (as opposed to a value supplied by markup or a reload
// dump).
type Cell struct {
	Value       value.Value
	UsedDefault bool
}

// Store holds every essential cell for one engine instance. The engine is
// single-threaded and cooperative: Store performs no locking of
// its own.
type Store struct {
	cells map[Key]*Cell
}

// New creates an empty store.
func New() *Store {
	return &Store{cells: make(map[Key]*Cell)}
}

// Get returns the cell at key, if one has been created.
func (s *Store) Get(key Key) (*Cell, bool) {
	c, ok := s.cells[key]
	return c, ok
}

// GetOrCreate returns the existing cell at key, or creates it from init and
// stores it. init is only invoked when the cell does not already exist.
func (s *Store) GetOrCreate(key Key, init func() Cell) *Cell {
	if c, ok := s.cells[key]; ok {
		return c
	}
	c := init()
	cp := &c
	s.cells[key] = cp
	return cp
}

// Set overwrites the value of the cell at key (creating the cell if it
// does not exist yet), clearing UsedDefault. The
// caller (inverse propagator, or reload) is responsible for invalidating
// any reader of this cell afterward.
func (s *Store) Set(key Key, v value.Value) {
	c, ok := s.cells[key]
	if !ok {
		c = &Cell{}
		s.cells[key] = c
	}
	c.Value = v
	c.UsedDefault = false
}

// All returns every (key, cell) pair currently stored, used by
// serialization.
func (s *Store) All() map[Key]*Cell {
	return s.cells
}
