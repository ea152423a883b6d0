package store

import "bytes"

// Filter restricts the rows or cells returned by a scan or get. Backends translate filters into their native
// form. Apply is the reference semantics and is used as is by backends that filter in process.
type Filter interface {
	// Apply returns the filtered result or nil if the row must be skipped.
	Apply(result *Result) *Result
}

// PrefixFilter keeps rows whose key starts with Prefix.
type PrefixFilter struct {
	Prefix []byte
}

func (f *PrefixFilter) Apply(result *Result) *Result {
	if bytes.HasPrefix(result.Row, f.Prefix) {
		return result
	}
	return nil
}

// ColumnValueFilter keeps rows where the column equals Value. Rows without the column are kept unless
// FilterIfMissing is set.
type ColumnValueFilter struct {
	Family          string
	Qualifier       string
	Value           []byte
	FilterIfMissing bool
}

func (f *ColumnValueFilter) Apply(result *Result) *Result {
	for _, cell := range result.Cells {
		if string(cell.Family) == f.Family && string(cell.Qualifier) == f.Qualifier {
			if bytes.Equal(cell.Value, f.Value) {
				return result
			}
			return nil
		}
	}
	if f.FilterIfMissing {
		return nil
	}
	return result
}

// KeyOnlyFilter strips the values and keeps the keys of every cell.
type KeyOnlyFilter struct{}

func (f *KeyOnlyFilter) Apply(result *Result) *Result {
	stripped := &Result{Row: result.Row, Cells: make([]*Cell, 0, len(result.Cells))}
	for _, cell := range result.Cells {
		c := *cell
		c.Value = nil
		stripped.Cells = append(stripped.Cells, &c)
	}
	return stripped
}

// ApplyFilters runs the result through every filter. Returns nil as soon as one filter drops the row.
func ApplyFilters(result *Result, filters []Filter) *Result {
	for _, filter := range filters {
		if result == nil {
			return nil
		}
		result = filter.Apply(result)
	}
	return result
}
