package hbase_store

import (
	"context"
	"errors"
	"fmt"
	"hbasekit/store"
	"io"
	"strings"

	"github.com/tsuna/gohbase"
	"github.com/tsuna/gohbase/filter"
	"github.com/tsuna/gohbase/hrpc"
)

// scanRequest is a gohbase scan plus the part of the range gohbase cannot express.
type scanRequest struct {
	scan   *hrpc.Scan
	cutoff []byte
}

// scanSettings collects the filters and call options of a scan before the gohbase request is built.
type scanSettings struct {
	filters  []filter.Filter
	callOpts []func(hrpc.Call) error
}

type scanRequestOption func(settings *scanSettings)

// withRowCountFilters makes the region servers return only the keys of every row, and only the first key when
// no filter needs to look at the other columns. FirstKeyOnlyFilter skips the rest of the row after the first
// cell, so a SingleColumnValueFilter would never see its column.
func withRowCountFilters(filters []store.Filter) scanRequestOption {
	return func(settings *scanSettings) {
		if !hasColumnValueFilter(filters) {
			settings.filters = append(settings.filters, filter.NewFirstKeyOnlyFilter())
		}
		settings.filters = append(settings.filters, filter.NewKeyOnlyFilter(false))
	}
}

// withMaxResultSize caps the bytes a region server returns per scan round trip.
func withMaxResultSize(maxResultSize uint64) scanRequestOption {
	return func(settings *scanSettings) {
		if maxResultSize > 0 {
			settings.callOpts = append(settings.callOpts, hrpc.MaxResultSize(maxResultSize))
		}
	}
}

func hasColumnValueFilter(filters []store.Filter) bool {
	for _, f := range filters {
		if _, ok := f.(*store.ColumnValueFilter); ok {
			return true
		}
	}
	return false
}

// newScanSettings translates the scan's filters and limit and applies the options.
func newScanSettings(scan *store.Scan, opts ...scanRequestOption) *scanSettings {
	settings := &scanSettings{filters: translateFilters(scan.Filters)}
	if scan.Limit > 0 {
		// PageFilter is evaluated per region so the limit is also enforced by the scanner.
		settings.filters = append(settings.filters, filter.NewPageFilter(int64(scan.Limit)))
	}
	for _, opt := range opts {
		opt(settings)
	}
	return settings
}

// newScanRequest translates the scan into a gohbase scan. HBase stop rows are exclusive: an inclusive stop row
// becomes the smallest greater key for forward scans and a client side cutoff for reversed scans.
func newScanRequest(ctx context.Context, table string, scan *store.Scan, defaultCaching int,
	opts ...scanRequestOption) (*scanRequest, error) {
	request := &scanRequest{}
	startRow := scan.StartRow
	stopRow := scan.StopRow
	if scan.IncludeStopRow && len(stopRow) > 0 {
		if scan.Reversed {
			request.cutoff = stopRow
			stopRow = nil
		} else {
			stopRow = append(append([]byte(nil), stopRow...), 0x00)
		}
	}
	settings := newScanSettings(scan, opts...)
	caching := scan.Caching
	if caching <= 0 {
		caching = defaultCaching
	}
	callOpts := callOptions(scan.Columns, nil, caching)
	if len(settings.filters) > 0 {
		callOpts = append(callOpts, hrpc.Filters(filter.NewList(filter.MustPassAll, settings.filters...)))
	}
	callOpts = append(callOpts, settings.callOpts...)
	if scan.Reversed {
		callOpts = append(callOpts, hrpc.Reversed())
	}
	hscan, err := hrpc.NewScanRange(ctx, []byte(table), startRow, stopRow, callOpts...)
	if err != nil {
		return nil, err
	}
	request.scan = hscan
	return request, nil
}

// callOptions builds the column selection, filter and caching options shared by gets and scans.
func callOptions(columns []store.Column, filters []store.Filter, caching int) []func(hrpc.Call) error {
	var opts []func(hrpc.Call) error
	if families := toFamilies(columns); families != nil {
		opts = append(opts, hrpc.Families(families))
	}
	if translated := translateFilters(filters); len(translated) > 0 {
		opts = append(opts, hrpc.Filters(filter.NewList(filter.MustPassAll, translated...)))
	}
	if caching > 0 {
		opts = append(opts, hrpc.NumberOfRows(uint32(caching)))
	}
	return opts
}

// toFamilies converts the column selection into gohbase's family map. A nil qualifier list selects the family.
func toFamilies(columns []store.Column) map[string][]string {
	if len(columns) == 0 {
		return nil
	}
	families := make(map[string][]string)
	wholeFamily := make(map[string]bool)
	for _, column := range columns {
		if len(column.Qualifier) == 0 {
			wholeFamily[column.Family] = true
			families[column.Family] = nil
			continue
		}
		if wholeFamily[column.Family] {
			continue
		}
		families[column.Family] = append(families[column.Family], column.Qualifier)
	}
	return families
}

// translateFilters converts the filters into gohbase filters. KeyOnlyFilter is also applied client side since
// it changes the returned cells rather than selecting rows.
func translateFilters(filters []store.Filter) []filter.Filter {
	var translated []filter.Filter
	for _, f := range filters {
		switch typed := f.(type) {
		case *store.PrefixFilter:
			translated = append(translated, filter.NewPrefixFilter(typed.Prefix))
		case *store.ColumnValueFilter:
			translated = append(translated, filter.NewSingleColumnValueFilter([]byte(typed.Family),
				[]byte(typed.Qualifier), filter.Equal,
				filter.NewBinaryComparator(filter.NewByteArrayComparable(typed.Value)),
				typed.FilterIfMissing, true))
		case *store.KeyOnlyFilter:
			translated = append(translated, filter.NewKeyOnlyFilter(false))
		}
	}
	return translated
}

func keyOnly(filters []store.Filter) bool {
	for _, f := range filters {
		if _, ok := f.(*store.KeyOnlyFilter); ok {
			return true
		}
	}
	return false
}

// toValues converts a mutation into gohbase's family -> qualifier -> value map. A delete of the whole row maps
// to a nil map and a family delete to an empty qualifier map.
func toValues(mutation *store.Mutation) map[string]map[string][]byte {
	if len(mutation.Cells) == 0 {
		return nil
	}
	values := make(map[string]map[string][]byte)
	for _, cell := range mutation.Cells {
		family := string(cell.Family)
		if _, ok := values[family]; !ok {
			values[family] = make(map[string][]byte)
		}
		if mutation.Kind == store.KindDelete && len(cell.Qualifier) == 0 {
			continue
		}
		values[family][string(cell.Qualifier)] = cell.Value
	}
	return values
}

// toResult converts a gohbase result. row is used for empty results that carry no cells.
func toResult(row []byte, resp *hrpc.Result) *store.Result {
	result := &store.Result{Row: row}
	if resp == nil {
		return result
	}
	for _, c := range resp.Cells {
		cell := &store.Cell{Row: c.Row, Family: c.Family, Qualifier: c.Qualifier, Value: c.Value}
		if c.Timestamp != nil {
			cell.Timestamp = *c.Timestamp
		}
		if result.Row == nil {
			result.Row = c.Row
		}
		result.Cells = append(result.Cells, cell)
	}
	return result
}

// translateError maps gohbase and HBase server errors to the store errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || err == io.EOF {
		return err
	}
	if errors.Is(err, gohbase.TableNotFound) || strings.Contains(err.Error(), "TableNotFoundException") {
		return store.ErrTableNotFound
	}
	if strings.Contains(err.Error(), "TableExistsException") {
		return store.ErrTableExists
	}
	if strings.Contains(err.Error(), "NoSuchColumnFamilyException") {
		return store.ErrFamilyNotFound
	}
	return fmt.Errorf("%w: %v", store.ErrStore, err)
}

func isEOF(err error) bool {
	return err == io.EOF
}
