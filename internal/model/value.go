// Package model defines the data structures shared by the ndfkit engine.
package model

import "fmt"

// Kind identifies the concrete variant of a Value.
type Kind int

const (
	// KindObject is a typed object literal: TypeName ( Prop = value ... ).
	KindObject Kind = iota
	// KindArray is a bracketed list: [ a, b ].
	KindArray
	// KindMap is a MAP [ (k, v), ... ] literal.
	KindMap
	// KindStr is a single or double quoted string.
	KindStr
	// KindNum is an integer or decimal number.
	KindNum
	// KindBool is true or false.
	KindBool
	// KindTemplateRef is a ~/Path reference.
	KindTemplateRef
	// KindResourceRef is a $/Path reference.
	KindResourceRef
	// KindGuid is a GUID:{...} literal.
	KindGuid
	// KindEnum is a Type/Member literal.
	KindEnum
	// KindTuple is a parenthesised ( a, b ) group.
	KindTuple
	// KindRawExpr is source text the parser keeps verbatim.
	KindRawExpr
)

var kindNames = map[Kind]string{
	KindObject:      "object",
	KindArray:       "array",
	KindMap:         "map",
	KindStr:         "string",
	KindNum:         "number",
	KindBool:        "bool",
	KindTemplateRef: "template_ref",
	KindResourceRef: "resource_ref",
	KindGuid:        "guid",
	KindEnum:        "enum",
	KindTuple:       "tuple",
	KindRawExpr:     "raw",
}

// String returns the stable lowercase name used in profiles and reports.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, error) {
	for kind, n := range kindNames {
		if n == name {
			return kind, nil
		}
	}

	return 0, fmt.Errorf("unknown value kind %q", name)
}

// Value is the closed set of NDF literals. Only types in this package
// implement it.
type Value interface {
	Kind() Kind
	value()
}

// Span is a half-open byte range [Start, End) into the parsed source.
type Span struct {
	Start int
	End   int
}

// Valid reports whether the span covers any source text.
func (s Span) Valid() bool {
	return s.End > s.Start && s.Start >= 0
}

// QuoteStyle records which delimiter a string literal used.
type QuoteStyle byte

const (
	// QuoteDouble is "text".
	QuoteDouble QuoteStyle = '"'
	// QuoteSingle is 'text'.
	QuoteSingle QuoteStyle = '\''
)

// Property is one Name = Value pair of an Object.
type Property struct {
	Name  string
	Value Value
}

// Object is a typed object literal. Properties keep source order.
type Object struct {
	TypeName     string
	InstanceName string
	Properties   []*Property
	// Span of the literal in the source; invalid for synthesized objects.
	Span  Span
	dirty bool
}

// Index returns the position of the named property or -1.
func (o *Object) Index(name string) int {
	for i, p := range o.Properties {
		if p.Name == name {
			return i
		}
	}

	return -1
}

// Get returns the value of the named property.
func (o *Object) Get(name string) (Value, bool) {
	i := o.Index(name)
	if i < 0 {
		return nil, false
	}

	return o.Properties[i].Value, true
}

// Set replaces the named property, appending it when absent, and marks the
// object dirty.
func (o *Object) Set(name string, v Value) {
	o.dirty = true

	if i := o.Index(name); i >= 0 {
		o.Properties[i].Value = v
		return
	}

	o.Properties = append(o.Properties, &Property{Name: name, Value: v})
}

// MarkDirty flags the object as changed since load.
func (o *Object) MarkDirty() { o.dirty = true }

// Dirty reports whether the object changed since load.
func (o *Object) Dirty() bool { return o.dirty }

// Array is an ordered list. CommaAfter[i] reports whether element i was
// followed by a comma in the source.
type Array struct {
	Elements   []Value
	CommaAfter []bool
	// Reshaped is set once elements were added or removed; the writer then
	// falls back to a comma after every element but the last.
	Reshaped bool
}

// Map is an ordered MAP [ (k, v) ] literal.
type Map struct {
	Entries    []MapEntry
	CommaAfter []bool
}

// MapEntry is one (key, value) pair.
type MapEntry struct {
	Key   Value
	Value Value
}

// Str is a quoted string. Text holds the raw characters between the quotes.
type Str struct {
	Text  string
	Quote QuoteStyle
}

// Num is a number. Integer controls rendering and rounding; Raw keeps the
// original spelling until the number is modified.
type Num struct {
	Value   float64
	Integer bool
	Raw     string
}

// Bool is a boolean literal.
type Bool struct {
	Value bool
	Raw   string
}

// TemplateRef is ~/Path.
type TemplateRef struct{ Path string }

// ResourceRef is $/Path.
type ResourceRef struct{ Path string }

// Guid is GUID:{Text}.
type Guid struct{ Text string }

// Enum is TypeName/Member.
type Enum struct {
	TypeName string
	Member   string
}

// Tuple is a fixed ( a, b, ... ) group.
type Tuple struct{ Elements []Value }

// RawExpr is source text kept verbatim and never interpreted.
type RawExpr struct{ Text string }

func (*Object) Kind() Kind      { return KindObject }
func (*Array) Kind() Kind       { return KindArray }
func (*Map) Kind() Kind         { return KindMap }
func (*Str) Kind() Kind         { return KindStr }
func (*Num) Kind() Kind         { return KindNum }
func (*Bool) Kind() Kind        { return KindBool }
func (*TemplateRef) Kind() Kind { return KindTemplateRef }
func (*ResourceRef) Kind() Kind { return KindResourceRef }
func (*Guid) Kind() Kind        { return KindGuid }
func (*Enum) Kind() Kind        { return KindEnum }
func (*Tuple) Kind() Kind       { return KindTuple }
func (*RawExpr) Kind() Kind     { return KindRawExpr }

func (*Object) value()      {}
func (*Array) value()       {}
func (*Map) value()         {}
func (*Str) value()         {}
func (*Num) value()         {}
func (*Bool) value()        {}
func (*TemplateRef) value() {}
func (*ResourceRef) value() {}
func (*Guid) value()        {}
func (*Enum) value()        {}
func (*Tuple) value()       {}
func (*RawExpr) value()     {}

// Strings returns the texts of an array made only of strings.
func (a *Array) Strings() ([]string, bool) {
	out := make([]string, 0, len(a.Elements))

	for _, e := range a.Elements {
		s, ok := e.(*Str)
		if !ok {
			return nil, false
		}

		out = append(out, s.Text)
	}

	return out, true
}

// Numbers reports whether the array is non-empty and made only of numbers.
func (a *Array) Numbers() bool {
	if len(a.Elements) == 0 {
		return false
	}

	for _, e := range a.Elements {
		if _, ok := e.(*Num); !ok {
			return false
		}
	}

	return true
}

// Clone returns a deep copy of v. Cloned objects are never dirty and keep
// their source span.
func Clone(v Value) Value {
	switch x := v.(type) {
	case *Object:
		out := &Object{TypeName: x.TypeName, InstanceName: x.InstanceName, Span: x.Span}
		for _, p := range x.Properties {
			out.Properties = append(out.Properties, &Property{Name: p.Name, Value: Clone(p.Value)})
		}

		return out
	case *Array:
		out := &Array{CommaAfter: append([]bool(nil), x.CommaAfter...), Reshaped: x.Reshaped}
		for _, e := range x.Elements {
			out.Elements = append(out.Elements, Clone(e))
		}

		return out
	case *Map:
		out := &Map{CommaAfter: append([]bool(nil), x.CommaAfter...)}
		for _, e := range x.Entries {
			out.Entries = append(out.Entries, MapEntry{Key: Clone(e.Key), Value: Clone(e.Value)})
		}

		return out
	case *Tuple:
		out := &Tuple{}
		for _, e := range x.Elements {
			out.Elements = append(out.Elements, Clone(e))
		}

		return out
	case *Str:
		c := *x
		return &c
	case *Num:
		c := *x
		return &c
	case *Bool:
		c := *x
		return &c
	case *TemplateRef:
		c := *x
		return &c
	case *ResourceRef:
		c := *x
		return &c
	case *Guid:
		c := *x
		return &c
	case *Enum:
		c := *x
		return &c
	case *RawExpr:
		c := *x
		return &c
	}

	return nil
}
