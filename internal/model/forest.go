package model

// Path represents a file system path.
type Path string

// Unit is one top-level statement of a file, usually
// `export Name is TypeName ( ... )`.
type Unit struct {
	// Name is the instance name; empty for unnamed statements.
	Name string
	// Modifier is export, private, unnamed, template or empty.
	Modifier string
	Value    Value
	// Leading is the whitespace and comments between the previous unit and
	// this one.
	Leading string
	// Span covers the statement itself, excluding Leading.
	Span  Span
	dirty bool
}

// Object returns the unit's value when it is an object literal.
func (u *Unit) Object() (*Object, bool) {
	o, ok := u.Value.(*Object)
	return o, ok
}

// MarkDirty forces canonical re-emission of the unit.
func (u *Unit) MarkDirty() { u.dirty = true }

// Dirty reports whether the unit or its top-level object changed since load.
func (u *Unit) Dirty() bool {
	if u.dirty {
		return true
	}

	if o, ok := u.Object(); ok {
		return o.Dirty()
	}

	return false
}

// Forest is the parsed content of one file.
type Forest struct {
	Source   []byte
	Units    []*Unit
	Trailing string
	index    map[string]*Unit
}

// NewForest indexes units by name. The first unit wins on duplicate names.
func NewForest(source []byte, units []*Unit, trailing string) *Forest {
	f := &Forest{
		Source:   source,
		Units:    units,
		Trailing: trailing,
		index:    make(map[string]*Unit, len(units)),
	}

	for _, u := range units {
		if u.Name == "" {
			continue
		}

		if _, exists := f.index[u.Name]; !exists {
			f.index[u.Name] = u
		}
	}

	return f
}

// Unit looks a unit up by instance name.
func (f *Forest) Unit(name string) (*Unit, bool) {
	u, ok := f.index[name]
	return u, ok
}

// Names returns every named unit in source order.
func (f *Forest) Names() []string {
	names := make([]string, 0, len(f.index))

	for _, u := range f.Units {
		if u.Name != "" && f.index[u.Name] == u {
			names = append(names, u.Name)
		}
	}

	return names
}

// Dirty returns the units that will be canonically re-emitted.
func (f *Forest) Dirty() []*Unit {
	var dirty []*Unit

	for _, u := range f.Units {
		if u.Dirty() {
			dirty = append(dirty, u)
		}
	}

	return dirty
}

// Original returns the unit's source text.
func (f *Forest) Original(u *Unit) []byte {
	if !u.Span.Valid() || u.Span.End > len(f.Source) {
		return nil
	}

	return f.Source[u.Span.Start:u.Span.End]
}
