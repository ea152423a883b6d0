package template

import (
	"context"
	"hbasekit/mapper"
	"hbasekit/store"
)

// Find maps every row returned by scan.
func Find[T any](ctx context.Context, ops Operations, table string, scan *store.Scan,
	rowMapper mapper.RowMapper[T]) ([]T, error) {
	if rowMapper == nil {
		return nil, wrapError("find", table, ErrNilCallback)
	}
	var values []T
	err := ops.ForEach(ctx, table, scan, func(result *store.Result, rowNum int) error {
		value, err := rowMapper(result, rowNum)
		if err != nil {
			return err
		}
		values = append(values, value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// FindFamily maps every row of the table restricted to a column family.
func FindFamily[T any](ctx context.Context, ops Operations, table string, family string,
	rowMapper mapper.RowMapper[T]) ([]T, error) {
	return Find(ctx, ops, table, store.NewScan(nil, nil).AddFamily(family), rowMapper)
}

// FindColumn maps every row of the table restricted to a single column.
func FindColumn[T any](ctx context.Context, ops Operations, table string, family string, qualifier string,
	rowMapper mapper.RowMapper[T]) ([]T, error) {
	return Find(ctx, ops, table, store.NewScan(nil, nil).AddColumn(family, qualifier), rowMapper)
}

// FindMaps returns every row returned by scan as qualifier -> value.
func FindMaps(ctx context.Context, ops Operations, table string, scan *store.Scan) ([]map[string][]byte, error) {
	return Find(ctx, ops, table, scan, mapper.Default)
}

// GetWith maps the row fetched by get. A missing row is handed to the mapper as an empty result.
func GetWith[T any](ctx context.Context, ops Operations, table string, get *store.Get,
	rowMapper mapper.RowMapper[T]) (T, error) {
	var zero T
	if rowMapper == nil {
		return zero, wrapError("get", table, ErrNilCallback)
	}
	result, err := ops.Get(ctx, table, get)
	if err != nil {
		return zero, err
	}
	value, err := rowMapper(result, 0)
	if err != nil {
		return zero, wrapError("get", table, err)
	}
	return value, nil
}

// GetRow maps a whole row.
func GetRow[T any](ctx context.Context, ops Operations, table string, row []byte,
	rowMapper mapper.RowMapper[T]) (T, error) {
	return GetWith(ctx, ops, table, store.NewGet(row), rowMapper)
}

// GetFamily maps a row restricted to a column family.
func GetFamily[T any](ctx context.Context, ops Operations, table string, row []byte, family string,
	rowMapper mapper.RowMapper[T]) (T, error) {
	return GetWith(ctx, ops, table, store.NewGet(row).AddFamily(family), rowMapper)
}

// GetColumn maps a row restricted to a single column.
func GetColumn[T any](ctx context.Context, ops Operations, table string, row []byte, family string,
	qualifier string, rowMapper mapper.RowMapper[T]) (T, error) {
	return GetWith(ctx, ops, table, store.NewGet(row).AddColumn(family, qualifier), rowMapper)
}

// MultiGet fetches and maps the rows in the given order. Missing rows are skipped unless keepMissing is set, in
// which case they are handed to the mapper as empty results. rowNum is the position in rows.
func MultiGet[T any](ctx context.Context, ops Operations, table string, rows [][]byte, keepMissing bool,
	rowMapper mapper.RowMapper[T], columns ...store.Column) ([]T, error) {
	if rowMapper == nil {
		return nil, wrapError("multi_get", table, ErrNilCallback)
	}
	gets := make([]*store.Get, 0, len(rows))
	for _, row := range rows {
		get := store.NewGet(row)
		get.Columns = append(get.Columns, columns...)
		gets = append(gets, get)
	}
	results, err := ops.BatchGet(ctx, table, gets)
	if err != nil {
		return nil, err
	}
	values := make([]T, 0, len(results))
	for ii, result := range results {
		if result.IsEmpty() && !keepMissing {
			continue
		}
		value, err := rowMapper(result, ii)
		if err != nil {
			return nil, wrapError("multi_get", table, err)
		}
		values = append(values, value)
	}
	return values, nil
}
