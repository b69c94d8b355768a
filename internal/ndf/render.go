package ndf

import (
	"math"
	"strconv"
	"strings"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

const indentUnit = "    "

// renderer emits canonical text. When src is set, nested objects that are
// not dirty are replayed from their original span.
type renderer struct {
	b   strings.Builder
	src []byte
}

// Render returns the canonical text of v. Scalars keep their formatting
// hints (quote style, integer-ness, original spelling).
func Render(v m.Value) string {
	r := &renderer{}
	r.value(v, 0, true)

	return r.b.String()
}

// FormatNumber renders a number the way the writer does: integers without a
// fraction, decimals always with one.
func FormatNumber(v float64, integer bool) string {
	if integer {
		return strconv.FormatInt(int64(math.Round(v)), 10)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !math.IsInf(v, 0) && !math.IsNaN(v) {
		s += ".0"
	}

	return s
}

func (r *renderer) indent(depth int) {
	for range depth {
		r.b.WriteString(indentUnit)
	}
}

//nolint:cyclop // one case per value kind
func (r *renderer) value(v m.Value, depth int, withInstance bool) {
	switch x := v.(type) {
	case *m.Object:
		r.object(x, depth, withInstance)
	case *m.Array:
		r.array(x, depth)
	case *m.Map:
		r.mapLiteral(x, depth)
	case *m.Tuple:
		r.b.WriteByte('(')

		for i, e := range x.Elements {
			if i > 0 {
				r.b.WriteString(", ")
			}

			r.value(e, depth, true)
		}

		r.b.WriteByte(')')
	case *m.Str:
		quote := byte(x.Quote)
		if quote == 0 {
			quote = byte(m.QuoteDouble)
		}

		r.b.WriteByte(quote)
		r.b.WriteString(x.Text)
		r.b.WriteByte(quote)
	case *m.Num:
		if x.Raw != "" {
			r.b.WriteString(x.Raw)
		} else {
			r.b.WriteString(FormatNumber(x.Value, x.Integer))
		}
	case *m.Bool:
		switch {
		case x.Raw != "":
			r.b.WriteString(x.Raw)
		case x.Value:
			r.b.WriteString("true")
		default:
			r.b.WriteString("false")
		}
	case *m.TemplateRef:
		r.b.WriteString("~/")
		r.b.WriteString(x.Path)
	case *m.ResourceRef:
		r.b.WriteString("$/")
		r.b.WriteString(x.Path)
	case *m.Guid:
		r.b.WriteString("GUID:{")
		r.b.WriteString(x.Text)
		r.b.WriteByte('}')
	case *m.Enum:
		if x.TypeName != "" {
			r.b.WriteString(x.TypeName)
			r.b.WriteByte('/')
		}

		r.b.WriteString(x.Member)
	case *m.RawExpr:
		r.b.WriteString(x.Text)
	case nil:
		r.b.WriteString("nil")
	}
}

func (r *renderer) object(o *m.Object, depth int, withInstance bool) {
	if withInstance && o.InstanceName != "" {
		r.b.WriteString(o.InstanceName)
		r.b.WriteString(" is ")
	}

	if !o.Dirty() && r.src != nil && o.Span.Valid() && o.Span.End <= len(r.src) {
		r.b.Write(r.src[o.Span.Start:o.Span.End])
		return
	}

	r.b.WriteString(o.TypeName)
	r.b.WriteByte('\n')
	r.indent(depth)
	r.b.WriteString("(\n")

	for _, p := range o.Properties {
		r.indent(depth + 1)
		r.b.WriteString(p.Name)
		r.b.WriteString(" = ")
		r.value(p.Value, depth+1, true)
		r.b.WriteByte('\n')
	}

	r.indent(depth)
	r.b.WriteByte(')')
}

func (r *renderer) array(a *m.Array, depth int) {
	if len(a.Elements) == 0 {
		r.b.WriteString("[]")
		return
	}

	commas := a.CommaAfter
	if a.Reshaped || len(commas) != len(a.Elements) {
		commas = defaultCommas(len(a.Elements))
	}

	if inline(a.Elements) {
		r.b.WriteByte('[')

		for i, e := range a.Elements {
			if i > 0 {
				r.b.WriteByte(' ')
			}

			r.value(e, depth, true)

			if commas[i] {
				r.b.WriteByte(',')
			}
		}

		r.b.WriteByte(']')

		return
	}

	r.b.WriteString("[\n")

	for i, e := range a.Elements {
		r.indent(depth + 1)
		r.value(e, depth+1, true)

		if commas[i] {
			r.b.WriteByte(',')
		}

		r.b.WriteByte('\n')
	}

	r.indent(depth)
	r.b.WriteByte(']')
}

func (r *renderer) mapLiteral(mp *m.Map, depth int) {
	if len(mp.Entries) == 0 {
		r.b.WriteString("MAP []")
		return
	}

	commas := mp.CommaAfter
	if len(commas) != len(mp.Entries) {
		commas = defaultCommas(len(mp.Entries))
	}

	r.b.WriteString("MAP [\n")

	for i, e := range mp.Entries {
		r.indent(depth + 1)
		r.b.WriteByte('(')
		r.value(e.Key, depth+1, true)
		r.b.WriteString(", ")
		r.value(e.Value, depth+1, true)
		r.b.WriteByte(')')

		if commas[i] {
			r.b.WriteByte(',')
		}

		r.b.WriteByte('\n')
	}

	r.indent(depth)
	r.b.WriteByte(']')
}

func defaultCommas(n int) []bool {
	out := make([]bool, n)
	for i := range n - 1 {
		out[i] = true
	}

	return out
}

// inline reports whether every element fits on one line.
func inline(elems []m.Value) bool {
	for _, e := range elems {
		switch x := e.(type) {
		case *m.Object, *m.Array, *m.Map:
			return false
		case *m.Tuple:
			if !inline(x.Elements) {
				return false
			}
		}
	}

	return true
}
