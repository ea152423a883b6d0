package template

import (
	"context"
	"hbasekit/mapper"
	"hbasekit/page"
	"hbasekit/store"
)

// PageOption narrows the scans issued for a page.
type PageOption func(plan *page.Plan)

// WithColumns restricts the page to the given columns. An empty qualifier selects the whole family.
func WithColumns(columns ...store.Column) PageOption {
	return func(plan *page.Plan) {
		plan.Scan.Columns = append(plan.Scan.Columns, columns...)
	}
}

// WithFilters adds filters to the page scan. FindPage applies them to the row count as well.
func WithFilters(filters ...store.Filter) PageOption {
	return func(plan *page.Plan) {
		plan.Scan.Filters = append(plan.Scan.Filters, filters...)
	}
}

// FirstPage maps the first pageSize rows of [startRow, stopRow].
func FirstPage[T any](ctx context.Context, ops Operations, table string, startRow []byte, stopRow []byte,
	pageSize int, rowMapper mapper.RowMapper[T], opts ...PageOption) ([]T, error) {
	plan, err := page.FirstPage(startRow, stopRow, pageSize)
	if err != nil {
		return nil, wrapError("first_page", table, err)
	}
	return fetchPage(ctx, ops, table, plan, rowMapper, opts)
}

// LastPage maps the last pageSize rows of [startRow, stopRow], largest row key first.
func LastPage[T any](ctx context.Context, ops Operations, table string, startRow []byte, stopRow []byte,
	pageSize int, rowMapper mapper.RowMapper[T], opts ...PageOption) ([]T, error) {
	plan, err := page.LastPage(startRow, stopRow, pageSize)
	if err != nil {
		return nil, wrapError("last_page", table, err)
	}
	return fetchPage(ctx, ops, table, plan, rowMapper, opts)
}

// NextPage maps up to pageSize rows following lastRowKey, up to and including stopRow.
func NextPage[T any](ctx context.Context, ops Operations, table string, lastRowKey []byte, stopRow []byte,
	pageSize int, rowMapper mapper.RowMapper[T], opts ...PageOption) ([]T, error) {
	plan, err := page.NextPage(lastRowKey, stopRow, pageSize)
	if err != nil {
		return nil, wrapError("next_page", table, err)
	}
	return fetchPage(ctx, ops, table, plan, rowMapper, opts)
}

// PreviousPage maps up to pageSize rows preceding firstRowKey, down to and including startRow, largest row key
// first.
func PreviousPage[T any](ctx context.Context, ops Operations, table string, startRow []byte, firstRowKey []byte,
	pageSize int, rowMapper mapper.RowMapper[T], opts ...PageOption) ([]T, error) {
	plan, err := page.PreviousPage(startRow, firstRowKey, pageSize)
	if err != nil {
		return nil, wrapError("previous_page", table, err)
	}
	return fetchPage(ctx, ops, table, plan, rowMapper, opts)
}

func fetchPage[T any](ctx context.Context, ops Operations, table string, plan *page.Plan,
	rowMapper mapper.RowMapper[T], opts []PageOption) ([]T, error) {
	results, err := fetchPlan(ctx, ops, table, plan, opts)
	if err != nil {
		return nil, err
	}
	return mapResults(table, results, rowMapper)
}

func fetchPlan(ctx context.Context, ops Operations, table string, plan *page.Plan,
	opts []PageOption) ([]*store.Result, error) {
	for _, opt := range opts {
		opt(plan)
	}
	results, err := ops.FindResults(ctx, table, plan.Scan)
	if err != nil {
		return nil, err
	}
	return plan.Trim(results), nil
}

func mapResults[T any](table string, results []*store.Result, rowMapper mapper.RowMapper[T]) ([]T, error) {
	if rowMapper == nil {
		return nil, wrapError("page", table, ErrNilCallback)
	}
	values, err := mapper.MapAll(results, 0, rowMapper)
	if err != nil {
		return nil, wrapError("page", table, err)
	}
	return values, nil
}

// FindPage serves a page request: it fetches the page the request moves to, maps it and counts every row of
// the request's range. The returned row keys feed the next request through Request.Next and Request.Previous.
func FindPage[T any](ctx context.Context, ops Operations, table string, req *page.Request,
	rowMapper mapper.RowMapper[T], opts ...PageOption) (*page.Result[T], error) {
	if req == nil {
		req = page.NewRequest(nil, nil)
	}
	if req.PageSize == 0 {
		withSize := *req
		withSize.PageSize = ops.DefaultPageSize()
		req = &withSize
	}
	plan, err := page.PlanRequest(req)
	if err != nil {
		return nil, wrapError("find_page", table, err)
	}
	results, err := fetchPlan(ctx, ops, table, plan, opts)
	if err != nil {
		return nil, err
	}
	data, err := mapResults(table, results, rowMapper)
	if err != nil {
		return nil, err
	}
	countScan := page.CountScan(req.StartRow, req.StopRow)
	countScan.Filters = append(countScan.Filters, plan.Scan.Filters...)
	total, err := ops.CountRows(ctx, table, countScan)
	if err != nil {
		return nil, err
	}
	first, last := page.RowKeyBounds(results)
	return &page.Result[T]{
		TotalCount:      total,
		PageFirstRowKey: first,
		PageLastRowKey:  last,
		Data:            data,
	}, nil
}
