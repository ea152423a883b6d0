package page

import (
	"bytes"
	"hbasekit/store"
)

// Plan is the scan that fetches a page and what to do with the rows it returns.
type Plan struct {
	Scan     *store.Scan
	PageSize int
	// Anchor is the row of the current page the scan starts from. It is dropped if it comes back.
	Anchor []byte
	// ReverseResults restores the display order when the scan runs against it.
	ReverseResults bool
}

// FirstPage scans forward over [startRow, stopRow].
func FirstPage(startRow []byte, stopRow []byte, pageSize int) (*Plan, error) {
	if pageSize <= 0 {
		return nil, ErrInvalidPageSize
	}
	return &Plan{
		Scan: &store.Scan{
			StartRow:       startRow,
			StopRow:        stopRow,
			IncludeStopRow: true,
			Limit:          pageSize,
		},
		PageSize: pageSize,
	}, nil
}

// LastPage scans backwards from stopRow down to startRow. Rows come back in descending order.
func LastPage(startRow []byte, stopRow []byte, pageSize int) (*Plan, error) {
	if pageSize <= 0 {
		return nil, ErrInvalidPageSize
	}
	return &Plan{
		Scan: &store.Scan{
			StartRow:       stopRow,
			StopRow:        startRow,
			IncludeStopRow: true,
			Reversed:       true,
			Limit:          pageSize,
		},
		PageSize: pageSize,
	}, nil
}

// NextPage scans forward from lastRowKey, the largest key of the current page, to stopRow. One extra row is
// fetched since the scan starts at the anchor itself.
func NextPage(lastRowKey []byte, stopRow []byte, pageSize int) (*Plan, error) {
	if pageSize <= 0 {
		return nil, ErrInvalidPageSize
	}
	if len(lastRowKey) == 0 {
		return nil, ErrMissingAnchor
	}
	return &Plan{
		Scan: &store.Scan{
			StartRow:       lastRowKey,
			StopRow:        stopRow,
			IncludeStopRow: true,
			Limit:          pageSize + 1,
		},
		PageSize: pageSize,
		Anchor:   lastRowKey,
	}, nil
}

// PreviousPage scans backwards from firstRowKey, the smallest key of the current page, down to startRow. Rows
// come back in descending order.
func PreviousPage(startRow []byte, firstRowKey []byte, pageSize int) (*Plan, error) {
	if pageSize <= 0 {
		return nil, ErrInvalidPageSize
	}
	if len(firstRowKey) == 0 {
		return nil, ErrMissingAnchor
	}
	return &Plan{
		Scan: &store.Scan{
			StartRow:       firstRowKey,
			StopRow:        startRow,
			IncludeStopRow: true,
			Reversed:       true,
			Limit:          pageSize + 1,
		},
		PageSize: pageSize,
		Anchor:   firstRowKey,
	}, nil
}

// PlanRequest picks the scan for the request.
//
//	asc  first    -> FirstPage
//	desc first    -> LastPage
//	asc  next     -> NextPage from the last key
//	desc next     -> PreviousPage from the first key
//	asc  previous -> PreviousPage from the first key, re-ordered ascending
//	desc previous -> NextPage from the last key, re-ordered descending
func PlanRequest(req *Request) (*Plan, error) {
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	var plan *Plan
	var err error
	switch req.Move {
	case MoveNext:
		if req.Direction == Asc {
			plan, err = NextPage(req.PageLastRowKey, req.StopRow, pageSize)
		} else {
			plan, err = PreviousPage(req.StartRow, req.PageFirstRowKey, pageSize)
		}
	case MovePrevious:
		if req.Direction == Asc {
			plan, err = PreviousPage(req.StartRow, req.PageFirstRowKey, pageSize)
		} else {
			plan, err = NextPage(req.PageLastRowKey, req.StopRow, pageSize)
		}
		if err == nil {
			plan.ReverseResults = true
		}
	default:
		if req.Direction == Asc {
			plan, err = FirstPage(req.StartRow, req.StopRow, pageSize)
		} else {
			plan, err = LastPage(req.StartRow, req.StopRow, pageSize)
		}
	}
	if err != nil {
		return nil, err
	}
	plan.Scan.Columns = append(plan.Scan.Columns, req.Columns...)
	return plan, nil
}

// Trim drops the anchor row, cuts the rows down to the page size and restores the display order. results must
// be in scan order.
func (plan *Plan) Trim(results []*store.Result) []*store.Result {
	if len(plan.Anchor) > 0 && len(results) > 0 && bytes.Equal(results[0].Row, plan.Anchor) {
		results = results[1:]
	}
	if len(results) > plan.PageSize {
		results = results[:plan.PageSize]
	}
	trimmed := append([]*store.Result(nil), results...)
	if plan.ReverseResults {
		for ii, jj := 0, len(trimmed)-1; ii < jj; ii, jj = ii+1, jj-1 {
			trimmed[ii], trimmed[jj] = trimmed[jj], trimmed[ii]
		}
	}
	return trimmed
}

// RowKeyBounds returns the smallest and largest row keys of the results.
func RowKeyBounds(results []*store.Result) (first []byte, last []byte) {
	for _, result := range results {
		if first == nil || bytes.Compare(result.Row, first) < 0 {
			first = result.Row
		}
		if last == nil || bytes.Compare(result.Row, last) > 0 {
			last = result.Row
		}
	}
	return
}

// CountScan returns the scan counting every row of the request's range.
func CountScan(startRow []byte, stopRow []byte) *store.Scan {
	return &store.Scan{StartRow: startRow, StopRow: stopRow, IncludeStopRow: true}
}
