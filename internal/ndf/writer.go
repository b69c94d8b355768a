package ndf

import (
	"bytes"
	"io"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

// Write serializes the forest. Units that are not dirty are replayed
// byte-for-byte from the source; dirty units are re-emitted canonically.
// Inter-unit trivia is always kept.
func Write(f *m.Forest) []byte {
	var buf bytes.Buffer

	_, _ = WriteTo(&buf, f)

	return buf.Bytes()
}

// WriteTo streams Write's output to w.
func WriteTo(w io.Writer, f *m.Forest) (int64, error) {
	var total int64

	emit := func(p []byte) error {
		n, err := w.Write(p)
		total += int64(n)

		return err
	}

	for _, u := range f.Units {
		if err := emit([]byte(u.Leading)); err != nil {
			return total, err
		}

		original := f.Original(u)
		if !u.Dirty() && original != nil {
			if err := emit(original); err != nil {
				return total, err
			}

			continue
		}

		if err := emit([]byte(renderUnit(u, f.Source))); err != nil {
			return total, err
		}
	}

	err := emit([]byte(f.Trailing))

	return total, err
}

// RenderUnit returns the canonical statement for u.
func RenderUnit(u *m.Unit) string {
	return renderUnit(u, nil)
}

func renderUnit(u *m.Unit, src []byte) string {
	r := &renderer{src: src}

	if raw, ok := u.Value.(*m.RawExpr); ok && u.Modifier == kwTemplate {
		return raw.Text
	}

	switch {
	case u.Modifier == kwUnnamed:
		r.b.WriteString(kwUnnamed + " ")
	case u.Name == "":
	case u.Modifier != "":
		r.b.WriteString(u.Modifier + " " + u.Name + " is ")
	default:
		r.b.WriteString(u.Name + " is ")
	}

	r.value(u.Value, 0, false)

	return r.b.String()
}
