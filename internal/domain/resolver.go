package domain

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

// ErrUnknownUnit is returned when a forest has no unit with the given name.
var ErrUnknownUnit = errors.New("unknown unit")

// ErrNoMatch is returned when a path resolves to nothing.
var ErrNoMatch = errors.New("path did not resolve")

// Match is one concrete location a path resolved to.
type Match struct {
	// Path is the concrete path with every wildcard replaced by an index.
	Path  string
	Value m.Value

	unit   *m.Unit
	owners []*m.Object
	assign func(m.Value)
}

// commit stores v at the match location and marks every object on the way
// dirty.
func (mt Match) commit(v m.Value) {
	mt.assign(v)

	for _, o := range mt.owners {
		o.MarkDirty()
	}

	if mt.unit != nil {
		mt.unit.MarkDirty()
	}
}

// LookupUnit finds a unit by name.
func LookupUnit(f *m.Forest, name string) (*m.Unit, error) {
	u, ok := f.Unit(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, name)
	}

	return u, nil
}

// Resolve returns every concrete match of path under the unit, in document
// order. An unresolved path yields no matches and no error.
func Resolve(u *m.Unit, path string) ([]Match, error) {
	pp, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	return resolve(u, pp, false), nil
}

// Has reports whether path resolves under the unit. For `[*]` a single
// matching element is enough.
func Has(u *m.Unit, path string) bool {
	pp, err := ParsePath(path)
	if err != nil {
		return false
	}

	return len(resolve(u, pp, true)) > 0
}

// Get returns the value at path, or the first match when the path has
// wildcards.
func Get(u *m.Unit, path string) (m.Value, bool) {
	pp, err := ParsePath(path)
	if err != nil {
		return nil, false
	}

	matches := resolve(u, pp, true)
	if len(matches) == 0 {
		return nil, false
	}

	return matches[0].Value, true
}

// Set stores a copy of v at every match of path and reports whether
// anything was updated. It bypasses the ledger; use Mutator.Apply for
// recorded edits.
func Set(u *m.Unit, path string, v m.Value) bool {
	pp, err := ParsePath(path)
	if err != nil {
		return false
	}

	matches := resolve(u, pp, false)
	for _, mt := range matches {
		mt.commit(m.Clone(v))
	}

	return len(matches) > 0
}

type resolution struct {
	out       []Match
	firstOnly bool
	unit      *m.Unit
}

func resolve(u *m.Unit, pp PropertyPath, firstOnly bool) []Match {
	r := &resolution{firstOnly: firstOnly, unit: u}
	r.walk(u.Value, pp, 0, "", nil, func(v m.Value) { u.Value = v })

	return r.out
}

// walk descends one segment at a time. sel is the number of selectors of
// pp[0] already applied.
func (r *resolution) walk(v m.Value, pp PropertyPath, sel int, at string, owners []*m.Object, assign func(m.Value)) {
	if r.firstOnly && len(r.out) > 0 {
		return
	}

	if len(pp) == 0 {
		r.out = append(r.out, Match{Path: at, Value: v, unit: r.unit, owners: owners, assign: assign})
		return
	}

	seg := pp[0]

	if sel == 0 && seg.Name != "" {
		obj, ok := v.(*m.Object)
		if !ok {
			return
		}

		current, ok := obj.Get(seg.Name)
		if !ok {
			return
		}

		name, next := seg.Name, seg.Name

		if at != "" {
			next = at + "." + seg.Name
		}

		r.step(current, pp, sel, next, append(slices.Clip(owners), obj), func(nv m.Value) { obj.Set(name, nv) })

		return
	}

	r.step(v, pp, sel, at, owners, assign)
}

// step applies the remaining selectors of pp[0] to v.
func (r *resolution) step(v m.Value, pp PropertyPath, sel int, at string, owners []*m.Object, assign func(m.Value)) {
	seg := pp[0]
	if sel == len(seg.Selectors) {
		r.walk(v, pp[1:], 0, at, owners, assign)
		return
	}

	arr, ok := v.(*m.Array)
	if !ok {
		return
	}

	visit := func(i int) {
		r.step(arr.Elements[i], pp, sel+1, at+"["+strconv.Itoa(i)+"]", owners, func(nv m.Value) { arr.Elements[i] = nv })
	}

	s := seg.Selectors[sel]
	if !s.Wildcard {
		if s.Index < len(arr.Elements) {
			visit(s.Index)
		}

		return
	}

	for i := range arr.Elements {
		if r.firstOnly && len(r.out) > 0 {
			return
		}

		visit(i)
	}
}

// LeafPaths lists every concrete path under the unit that holds a value
// rather than further objects. Arrays holding objects or arrays are
// descended into instead of listed.
func LeafPaths(u *m.Unit) []string {
	var out []string

	var walk func(v m.Value, at string)

	walk = func(v m.Value, at string) {
		switch x := v.(type) {
		case *m.Object:
			for _, p := range x.Properties {
				next := p.Name
				if at != "" {
					next = at + "." + p.Name
				}

				walk(p.Value, next)
			}
		case *m.Array:
			container := false

			for i, e := range x.Elements {
				switch e.(type) {
				case *m.Object, *m.Array:
					container = true
					walk(e, at+"["+strconv.Itoa(i)+"]")
				}
			}

			if at != "" && !container {
				out = append(out, at)
			}
		default:
			if at != "" {
				out = append(out, at)
			}
		}
	}

	walk(u.Value, "")

	return out
}
