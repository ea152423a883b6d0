package store

import (
	"bytes"
	"sort"
)

// Cell is a single versioned value addressed by row, column family and qualifier.
type Cell struct {
	Row       []byte
	Family    []byte
	Qualifier []byte
	Value     []byte
	Timestamp uint64 // Milliseconds since epoch.
}

// Result holds the cells of a single row. Cells are sorted by family and qualifier.
type Result struct {
	Row   []byte
	Cells []*Cell
}

// IsEmpty returns true if the row has no cells, which is what a Get returns for a missing row.
func (r *Result) IsEmpty() bool {
	return r == nil || len(r.Cells) == 0
}

// Value returns the value of the given column or nil if the row does not have it.
func (r *Result) Value(family string, qualifier string) []byte {
	if r == nil {
		return nil
	}
	for _, cell := range r.Cells {
		if string(cell.Family) == family && string(cell.Qualifier) == qualifier {
			return cell.Value
		}
	}
	return nil
}

// Families returns the distinct families present in the row in sorted order.
func (r *Result) Families() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var families []string
	for _, cell := range r.Cells {
		if _, ok := seen[string(cell.Family)]; ok {
			continue
		}
		seen[string(cell.Family)] = struct{}{}
		families = append(families, string(cell.Family))
	}
	sort.Strings(families)
	return families
}

// Column selects a family or, when Qualifier is set, a single column.
type Column struct {
	Family    string
	Qualifier string
}

// Scan describes a range scan. StartRow is inclusive and StopRow exclusive unless IncludeStopRow is set. For
// reversed scans StartRow is the high key and StopRow the low key. Empty rows mean the range is unbounded on
// that side.
type Scan struct {
	StartRow       []byte
	StopRow        []byte
	IncludeStopRow bool
	Reversed       bool
	Columns        []Column
	Filters        []Filter
	Limit          int // Max rows returned. 0 means no limit.
	Caching        int // Rows fetched per round trip. 0 lets the backend decide.
}

// NewScan returns a scan over [startRow, stopRow).
func NewScan(startRow []byte, stopRow []byte) *Scan {
	return &Scan{StartRow: startRow, StopRow: stopRow}
}

// AddFamily selects all columns of the family.
func (s *Scan) AddFamily(family string) *Scan {
	s.Columns = append(s.Columns, Column{Family: family})
	return s
}

// AddColumn selects a single column.
func (s *Scan) AddColumn(family string, qualifier string) *Scan {
	s.Columns = append(s.Columns, Column{Family: family, Qualifier: qualifier})
	return s
}

// AddFilter appends a filter. All filters must pass for a row to be returned.
func (s *Scan) AddFilter(filter Filter) *Scan {
	s.Filters = append(s.Filters, filter)
	return s
}

// Clone returns a copy of the scan that can be changed without affecting s.
func (s *Scan) Clone() *Scan {
	clone := *s
	clone.Columns = append([]Column(nil), s.Columns...)
	clone.Filters = append([]Filter(nil), s.Filters...)
	return &clone
}

// InRange returns true if row lies within the scan's row range.
func (s *Scan) InRange(row []byte) bool {
	low, high := s.StartRow, s.StopRow
	lowInclusive, highInclusive := true, s.IncludeStopRow
	if s.Reversed {
		low, high = s.StopRow, s.StartRow
		lowInclusive, highInclusive = s.IncludeStopRow, true
	}
	if len(low) > 0 {
		cmp := bytes.Compare(row, low)
		if cmp < 0 || (cmp == 0 && !lowInclusive) {
			return false
		}
	}
	if len(high) > 0 {
		cmp := bytes.Compare(row, high)
		if cmp > 0 || (cmp == 0 && !highInclusive) {
			return false
		}
	}
	return true
}

// Get fetches a single row, optionally restricted to some columns.
type Get struct {
	Row     []byte
	Columns []Column
	Filters []Filter
}

// NewGet returns a get for the whole row.
func NewGet(row []byte) *Get {
	return &Get{Row: row}
}

// AddFamily selects all columns of the family.
func (g *Get) AddFamily(family string) *Get {
	g.Columns = append(g.Columns, Column{Family: family})
	return g
}

// AddColumn selects a single column.
func (g *Get) AddColumn(family string, qualifier string) *Get {
	g.Columns = append(g.Columns, Column{Family: family, Qualifier: qualifier})
	return g
}

type MutationKind int

const (
	KindPut MutationKind = iota
	KindDelete
)

func (k MutationKind) String() string {
	switch k {
	case KindPut:
		return "put"
	case KindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Mutation is a put or a delete on a single row. A delete without cells removes the whole row, a delete cell
// without a qualifier removes the whole family.
type Mutation struct {
	Kind  MutationKind
	Row   []byte
	Cells []*Cell
}

// NewPut returns an empty put for the row.
func NewPut(row []byte) *Mutation {
	return &Mutation{Kind: KindPut, Row: row}
}

// NewDelete returns a delete of the whole row.
func NewDelete(row []byte) *Mutation {
	return &Mutation{Kind: KindDelete, Row: row}
}

// AddColumn adds a value to a put.
func (m *Mutation) AddColumn(family string, qualifier string, value []byte) *Mutation {
	m.Cells = append(m.Cells, &Cell{
		Row:       m.Row,
		Family:    []byte(family),
		Qualifier: []byte(qualifier),
		Value:     value,
	})
	return m
}

// DeleteColumn narrows a delete to a single column.
func (m *Mutation) DeleteColumn(family string, qualifier string) *Mutation {
	m.Cells = append(m.Cells, &Cell{Row: m.Row, Family: []byte(family), Qualifier: []byte(qualifier)})
	return m
}

// DeleteFamily narrows a delete to a whole family.
func (m *Mutation) DeleteFamily(family string) *Mutation {
	m.Cells = append(m.Cells, &Cell{Row: m.Row, Family: []byte(family)})
	return m
}

// Size returns an estimate of the bytes the mutation occupies in a write buffer.
func (m *Mutation) Size() int64 {
	size := int64(len(m.Row))
	for _, cell := range m.Cells {
		size += int64(len(cell.Family) + len(cell.Qualifier) + len(cell.Value) + 8)
	}
	return size
}

// Validate checks that the mutation names a row and, for puts, at least one column.
func (m *Mutation) Validate() error {
	if len(m.Row) == 0 {
		return ErrEmptyRow
	}
	if m.Kind == KindPut && len(m.Cells) == 0 {
		return ErrNoColumns
	}
	return nil
}
