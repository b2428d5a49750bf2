package features

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transformer maps a feature table to a numeric matrix with one row per
// table row.
type Transformer interface {
	Transform(t *Table) (*mat.Dense, error)
}

var _ Transformer = (*Artifact)(nil)

// Transform applies the fitted steps to t.
func (a *Artifact) Transform(t *Table) (*mat.Dense, error) {
	if t == nil || t.Rows == 0 {
		return nil, fmt.Errorf("%w: empty feature table", ErrTransform)
	}
	width := a.Width()
	if width == 0 {
		return nil, fmt.Errorf("%w: transform has no output columns", ErrTransform)
	}

	out := mat.NewDense(t.Rows, width, nil)
	offset := 0
	for i, s := range a.Steps {
		var err error
		switch s.Type {
		case StepStandardScaler:
			err = scale(out, offset, t, s)
		case StepOneHot:
			err = oneHot(out, offset, t, s)
		case StepPassthrough:
			err = passthrough(out, offset, t, s)
		default:
			err = fmt.Errorf("unknown type %q", s.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrTransform, i, err)
		}
		offset += s.Width()
	}
	return out, nil
}

func scale(out *mat.Dense, offset int, t *Table, s Step) error {
	for j, c := range s.Columns {
		vals, ok := t.Numeric[c]
		if !ok {
			return fmt.Errorf("numeric column %q not in table", c)
		}
		for r, v := range vals {
			out.Set(r, offset+j, (v-s.Mean[j])/s.Scale[j])
		}
	}
	return nil
}

func passthrough(out *mat.Dense, offset int, t *Table, s Step) error {
	for j, c := range s.Columns {
		vals, ok := t.Numeric[c]
		if !ok {
			return fmt.Errorf("numeric column %q not in table", c)
		}
		for r, v := range vals {
			out.Set(r, offset+j, v)
		}
	}
	return nil
}

func oneHot(out *mat.Dense, offset int, t *Table, s Step) error {
	for j, c := range s.Columns {
		vals, ok := t.text(c)
		if !ok {
			return fmt.Errorf("column %q not in table", c)
		}

		index := make(map[string]int, len(s.Categories[j]))
		for k, cat := range s.Categories[j] {
			index[cat] = k
		}

		for r, v := range vals {
			k, ok := index[v]
			if !ok {
				if s.HandleUnknown == UnknownIgnore {
					continue
				}
				return fmt.Errorf("unknown category %q in column %q", v, c)
			}
			out.Set(r, offset+k, 1)
		}
		offset += len(s.Categories[j])
	}
	return nil
}
