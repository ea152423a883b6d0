// Package mapper turns store results into application values and application values into mutations.
package mapper

import (
	"hbasekit/store"
)

// RowMapper maps a single row. rowNum is the position of the row in the scan, starting at 0.
type RowMapper[T any] func(result *store.Result, rowNum int) (T, error)

// Default maps a row to qualifier -> raw value. Qualifiers of different families collide; the last family wins.
func Default(result *store.Result, rowNum int) (map[string][]byte, error) {
	values := make(map[string][]byte, len(result.Cells))
	for _, cell := range result.Cells {
		values[string(cell.Qualifier)] = append([]byte(nil), cell.Value...)
	}
	return values, nil
}

// Strings maps a row to qualifier -> value as a string.
func Strings(result *store.Result, rowNum int) (map[string]string, error) {
	values := make(map[string]string, len(result.Cells))
	for _, cell := range result.Cells {
		values[string(cell.Qualifier)] = string(cell.Value)
	}
	return values, nil
}

// Objects maps a row to qualifier -> value. The values are strings; the map type suits decoders that want
// map[string]interface{}.
func Objects(result *store.Result, rowNum int) (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(result.Cells))
	for _, cell := range result.Cells {
		values[string(cell.Qualifier)] = string(cell.Value)
	}
	return values, nil
}

// RowKeys maps a row to its key.
func RowKeys(result *store.Result, rowNum int) ([]byte, error) {
	return result.Row, nil
}

// Raw returns the result as is.
func Raw(result *store.Result, rowNum int) (*store.Result, error) {
	return result, nil
}

// MapAll maps every result. rowNum starts at offset.
func MapAll[T any](results []*store.Result, offset int, mapper RowMapper[T]) ([]T, error) {
	mapped := make([]T, 0, len(results))
	for ii, result := range results {
		value, err := mapper(result, offset+ii)
		if err != nil {
			return nil, err
		}
		mapped = append(mapped, value)
	}
	return mapped, nil
}
