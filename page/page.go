// Package page turns page requests into range scans. Pages are found by moving the scan range past the first or
// last row key of the current page, so there is no random access to page N; the total row count comes from a
// store side count over the whole range.
package page

import (
	"errors"
	"hbasekit/store"
)

const DefaultPageSize = 10

// Direction is the order rows are displayed in.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Move says which page to fetch relative to the current one.
type Move int

const (
	MoveFirst Move = iota
	MoveNext
	MovePrevious
)

func (m Move) String() string {
	switch m {
	case MoveNext:
		return "next"
	case MovePrevious:
		return "previous"
	default:
		return "first"
	}
}

var (
	ErrInvalidPageSize = errors.New("ErrInvalidPageSize: page size must be positive")
	ErrMissingAnchor   = errors.New("ErrMissingAnchor: next and previous pages need the current page's row keys")
)

// Column names a column to return.
type Column = store.Column

// Request describes the page to fetch. StartRow and StopRow bound the whole result set and are both
// inclusive; either may be empty. PageFirstRowKey and PageLastRowKey are the smallest and largest row keys
// of the current page in row key order, whatever the direction.
type Request struct {
	Direction       Direction
	Move            Move
	PageSize        int
	PageFirstRowKey []byte
	PageLastRowKey  []byte
	StartRow        []byte
	StopRow         []byte
	Columns         []Column
}

// NewRequest returns a request for the first ascending page of the default size over [startRow, stopRow].
func NewRequest(startRow []byte, stopRow []byte) *Request {
	return &Request{PageSize: DefaultPageSize, StartRow: startRow, StopRow: stopRow}
}

// Next returns the request for the page after res in the same direction.
func (req *Request) Next(res PageKeys) *Request {
	next := *req
	next.Move = MoveNext
	next.PageFirstRowKey, next.PageLastRowKey = res.Keys()
	return &next
}

// Previous returns the request for the page before res in the same direction.
func (req *Request) Previous(res PageKeys) *Request {
	prev := *req
	prev.Move = MovePrevious
	prev.PageFirstRowKey, prev.PageLastRowKey = res.Keys()
	return &prev
}

// PageKeys is implemented by page results.
type PageKeys interface {
	Keys() (first []byte, last []byte)
}

// Result is one page of mapped rows.
type Result[T any] struct {
	TotalCount      int64  // Rows in [StartRow, StopRow].
	PageFirstRowKey []byte // Smallest row key of the page.
	PageLastRowKey  []byte // Largest row key of the page.
	Data            []T
}

func (res *Result[T]) Keys() ([]byte, []byte) {
	return res.PageFirstRowKey, res.PageLastRowKey
}
