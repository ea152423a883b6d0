package hbase_store

import (
	"bytes"
	"context"
	"hbasekit/store"
	"hbasekit/util/logging"
	"io"

	"github.com/tsuna/gohbase/hrpc"
	"golang.org/x/sync/errgroup"
)

// Table is a store.Table that issues gohbase RPCs.
type Table struct {
	conn   *Connection
	name   string
	logger *logging.PrefixLogger
}

func (table *Table) Name() string {
	return table.name
}

func (table *Table) Close() error {
	return nil
}

func (table *Table) Scan(ctx context.Context, scan *store.Scan) (store.Scanner, error) {
	if table.conn.isClosed() {
		return nil, store.ErrClosed
	}
	request, err := newScanRequest(ctx, table.name, scan, table.conn.opts.ScannerCaching,
		withMaxResultSize(table.conn.opts.ScannerMaxResultSize))
	if err != nil {
		return nil, err
	}
	return &hbaseScanner{
		scanner: table.conn.client.Scan(request.scan),
		scan:    scan,
		cutoff:  request.cutoff,
	}, nil
}

func (table *Table) Get(ctx context.Context, get *store.Get) (*store.Result, error) {
	if table.conn.isClosed() {
		return nil, store.ErrClosed
	}
	if len(get.Row) == 0 {
		return nil, store.ErrEmptyRow
	}
	request, err := hrpc.NewGet(ctx, []byte(table.name), get.Row, callOptions(get.Columns, get.Filters, 0)...)
	if err != nil {
		return nil, err
	}
	resp, err := table.conn.client.Get(request)
	if err != nil {
		table.logger.Errorf("Unable to get row: %s due to err: %s", get.Row, err.Error())
		return nil, translateError(err)
	}
	result := toResult(get.Row, resp)
	if keyOnly(get.Filters) {
		result = (&store.KeyOnlyFilter{}).Apply(result)
	}
	return result, nil
}

// BatchGet issues the gets concurrently, bounded by the connection's concurrency limit.
func (table *Table) BatchGet(ctx context.Context, gets []*store.Get) ([]*store.Result, error) {
	results := make([]*store.Result, len(gets))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(table.conn.opts.ConcurrencyLimit)
	for ii, get := range gets {
		ii, get := ii, get
		group.Go(func() error {
			result, err := table.Get(gctx, get)
			if err != nil {
				return err
			}
			results[ii] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Mutate issues the puts and deletes concurrently. HBase only guarantees atomicity per row.
func (table *Table) Mutate(ctx context.Context, mutations []*store.Mutation) error {
	if table.conn.isClosed() {
		return store.ErrClosed
	}
	for _, mutation := range mutations {
		if err := mutation.Validate(); err != nil {
			return err
		}
	}
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(table.conn.opts.ConcurrencyLimit)
	for _, mutation := range mutations {
		mutation := mutation
		group.Go(func() error {
			return table.mutate(gctx, mutation)
		})
	}
	return group.Wait()
}

func (table *Table) mutate(ctx context.Context, mutation *store.Mutation) error {
	values := toValues(mutation)
	var err error
	switch mutation.Kind {
	case store.KindPut:
		var put *hrpc.Mutate
		if put, err = hrpc.NewPut(ctx, []byte(table.name), mutation.Row, values); err == nil {
			_, err = table.conn.client.Put(put)
		}
	case store.KindDelete:
		var del *hrpc.Mutate
		if del, err = hrpc.NewDel(ctx, []byte(table.name), mutation.Row, values); err == nil {
			_, err = table.conn.client.Delete(del)
		}
	}
	if err != nil {
		table.logger.Errorf("Unable to apply %s on row: %s due to err: %s", mutation.Kind, mutation.Row,
			err.Error())
		return translateError(err)
	}
	return nil
}

// RowCount scans the range with a KeyOnly filter, plus FirstKeyOnly when no column value filter is involved, so
// that the region servers ship keys only. gohbase has no client for the aggregation coprocessor.
func (table *Table) RowCount(ctx context.Context, scan *store.Scan) (int64, error) {
	if table.conn.isClosed() {
		return 0, store.ErrClosed
	}
	countScan := scan.Clone()
	countScan.Limit = 0
	request, err := newScanRequest(ctx, table.name, countScan, table.conn.opts.ScannerCaching,
		withRowCountFilters(countScan.Filters), withMaxResultSize(table.conn.opts.ScannerMaxResultSize))
	if err != nil {
		return 0, err
	}
	scanner := &hbaseScanner{scanner: table.conn.client.Scan(request.scan), scan: countScan,
		cutoff: request.cutoff}
	defer scanner.Close()
	var count int64
	for {
		_, err := scanner.Next()
		if err != nil {
			if err == io.EOF {
				return count, nil
			}
			table.logger.Errorf("Unable to count rows due to err: %s", err.Error())
			return 0, translateError(err)
		}
		count++
	}
}

/****************************************************** SCANNER *******************************************************/
type hbaseScanner struct {
	scanner  hrpc.Scanner
	scan     *store.Scan
	cutoff   []byte // Inclusive low bound enforced client side for reversed scans.
	returned int
	done     bool
}

func (scanner *hbaseScanner) Next() (*store.Result, error) {
	if scanner.done {
		return nil, io.EOF
	}
	if scanner.scan.Limit > 0 && scanner.returned >= scanner.scan.Limit {
		scanner.done = true
		return nil, io.EOF
	}
	resp, err := scanner.scanner.Next()
	if err != nil {
		if err == io.EOF {
			scanner.done = true
		}
		return nil, err
	}
	result := toResult(nil, resp)
	if scanner.cutoff != nil && bytes.Compare(result.Row, scanner.cutoff) < 0 {
		scanner.done = true
		return nil, io.EOF
	}
	if keyOnly(scanner.scan.Filters) {
		result = (&store.KeyOnlyFilter{}).Apply(result)
	}
	scanner.returned++
	return result, nil
}

func (scanner *hbaseScanner) Close() error {
	scanner.done = true
	return scanner.scanner.Close()
}
