// Package template runs operations against a wide-column store through callbacks. The template owns the
// connection and the table handles, times every operation and turns failures into SystemErrors.
package template

import (
	"context"
	"hbasekit/config"
	"hbasekit/metrics"
	"hbasekit/store"
	"hbasekit/util"
	"hbasekit/util/logging"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const (
	kDefaultWriteBufferSize   = 3 * 1024 * 1024
	kDefaultMultiGetBatchSize = 100
	kDefaultConcurrencyLimit  = 32
	kDefaultRetriesNumber     = 5
	kDefaultPageSize          = 10
	kConnectBackoffInitial    = 50 * time.Millisecond
	kConnectBackoffMax        = 2 * time.Second
)

// Options tunes a Template. Zero values select the defaults.
type Options struct {
	WriteBufferSize   int64
	MultiGetBatchSize int
	ConcurrencyLimit  int
	ScannerCaching    int
	ScannerTimeout    time.Duration
	RetriesNumber     int
	DefaultPageSize   int
	// Registerer receives the template's metrics. Nil keeps them unregistered.
	Registerer prometheus.Registerer
}

// OptionsFromConfig builds the template options out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		WriteBufferSize:   cfg.WriteBufferSize,
		MultiGetBatchSize: cfg.MultiGetBatchSize,
		ConcurrencyLimit:  cfg.ThreadsCore,
		ScannerCaching:    cfg.ScannerCaching,
		ScannerTimeout:    time.Duration(cfg.ScannerTimeout),
		RetriesNumber:     cfg.RetriesNumber,
		DefaultPageSize:   cfg.DefaultPageSize,
	}
}

func (opts *Options) setDefaults() {
	if opts.WriteBufferSize <= 0 {
		opts.WriteBufferSize = kDefaultWriteBufferSize
	}
	if opts.MultiGetBatchSize <= 0 {
		opts.MultiGetBatchSize = kDefaultMultiGetBatchSize
	}
	if opts.ConcurrencyLimit <= 0 {
		opts.ConcurrencyLimit = kDefaultConcurrencyLimit
	}
	if opts.RetriesNumber <= 0 {
		opts.RetriesNumber = kDefaultRetriesNumber
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = kDefaultPageSize
	}
}

// Template implements Operations on top of a store connection that is created on first use.
type Template struct {
	connector store.Connector
	opts      Options
	metrics   *metrics.Collector
	logger    *logging.PrefixLogger
	backoffFn util.BackoffFunc

	connMu sync.Mutex
	conn   store.Connection
}

var _ Operations = (*Template)(nil)

// New creates a template that reaches the store through connector.
func New(connector store.Connector, opts Options) (*Template, error) {
	if connector == nil {
		return nil, errors.New("template: connector must not be nil")
	}
	opts.setDefaults()
	collector, err := metrics.NewCollector(opts.Registerer)
	if err != nil {
		return nil, errors.Wrap(err, "unable to register template metrics")
	}
	return &Template{
		connector: connector,
		opts:      opts,
		metrics:   collector,
		logger:    logging.NewPrefixLogger("HBaseTemplate"),
		backoffFn: util.NewBackoffFn(kConnectBackoffInitial, kConnectBackoffMax),
	}, nil
}

// NewFromConfig validates cfg and creates a template for the backend it names.
func NewFromConfig(cfg *config.Config, reg prometheus.Registerer) (*Template, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	connector, err := cfg.Connector()
	if err != nil {
		return nil, err
	}
	opts := OptionsFromConfig(cfg)
	opts.Registerer = reg
	return New(connector, opts)
}

// SetConnection replaces the template's connection. The previous connection, if any, is not closed.
func (tpl *Template) SetConnection(conn store.Connection) {
	tpl.connMu.Lock()
	defer tpl.connMu.Unlock()
	tpl.conn = conn
}

// Close closes the connection. The next operation opens a new one.
func (tpl *Template) Close() error {
	tpl.connMu.Lock()
	defer tpl.connMu.Unlock()
	if tpl.conn == nil {
		return nil
	}
	err := tpl.conn.Close()
	tpl.conn = nil
	return err
}

// DefaultPageSize returns the page size used by page requests that leave it unset.
func (tpl *Template) DefaultPageSize() int {
	return tpl.opts.DefaultPageSize
}

func (tpl *Template) connection(ctx context.Context) (store.Connection, error) {
	tpl.connMu.Lock()
	defer tpl.connMu.Unlock()
	if tpl.conn != nil {
		return tpl.conn, nil
	}
	err := util.DoRetryWithContext(ctx, func(attempt int) (bool, error) {
		conn, err := tpl.connector(ctx)
		if err != nil {
			tpl.logger.Warningf("Unable to connect to store on attempt %d/%d due to err: %s", attempt,
				tpl.opts.RetriesNumber, err.Error())
			return true, err
		}
		tpl.conn = conn
		return false, nil
	}, tpl.backoffFn, tpl.opts.RetriesNumber)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to connect to store")
	}
	return tpl.conn, nil
}

// track logs and records the time taken by an operation. Use as: defer tpl.track(op, table)(&err).
func (tpl *Template) track(op string, table string) func(*error) {
	start := time.Now()
	return func(errp *error) {
		elapsed := time.Since(start)
		tpl.metrics.Observe(op, table, elapsed, *errp)
		tpl.logger.VInfof(1, "%s on table: %s took %v", op, table, elapsed)
	}
}

// Execute runs action against a handle of the named table.
func (tpl *Template) Execute(ctx context.Context, table string, action TableCallback) (err error) {
	defer tpl.track("execute", table)(&err)
	return tpl.execute(ctx, "execute", table, action)
}

func (tpl *Template) execute(ctx context.Context, op string, tableName string, action TableCallback) error {
	if action == nil {
		return wrapError(op, tableName, ErrNilCallback)
	}
	if len(tableName) == 0 {
		return wrapError(op, tableName, ErrNoTable)
	}
	conn, err := tpl.connection(ctx)
	if err != nil {
		return wrapError(op, tableName, err)
	}
	table, err := conn.Table(ctx, tableName)
	if err != nil {
		return wrapError(op, tableName, err)
	}
	defer func() {
		if cerr := table.Close(); cerr != nil {
			tpl.logger.Errorf("Unable to release table: %s due to err: %s", tableName, cerr.Error())
		}
	}()
	return wrapError(op, tableName, action(ctx, table))
}

// Scan opens a scanner over the table and hands it to action. The scanner is always closed.
func (tpl *Template) Scan(ctx context.Context, table string, scan *store.Scan, action ScannerCallback) (err error) {
	defer tpl.track("scan", table)(&err)
	return tpl.scan(ctx, "scan", table, scan, action)
}

func (tpl *Template) scan(ctx context.Context, op string, tableName string, scan *store.Scan,
	action ScannerCallback) error {
	if action == nil {
		return wrapError(op, tableName, ErrNilCallback)
	}
	scan = tpl.prepareScan(scan)
	return tpl.execute(ctx, op, tableName, func(ctx context.Context, table store.Table) error {
		if tpl.opts.ScannerTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, tpl.opts.ScannerTimeout)
			defer cancel()
		}
		scanner, err := table.Scan(ctx, scan)
		if err != nil {
			return err
		}
		defer scanner.Close()
		return action(scanner)
	})
}

func (tpl *Template) prepareScan(scan *store.Scan) *store.Scan {
	if scan == nil {
		scan = store.NewScan(nil, nil)
	} else {
		scan = scan.Clone()
	}
	if scan.Caching <= 0 {
		scan.Caching = tpl.opts.ScannerCaching
	}
	return scan
}

// ForEach calls fn for every row returned by scan.
func (tpl *Template) ForEach(ctx context.Context, table string, scan *store.Scan, fn RowCallback) (err error) {
	defer tpl.track("for_each", table)(&err)
	if fn == nil {
		return wrapError("for_each", table, ErrNilCallback)
	}
	return tpl.scan(ctx, "for_each", table, scan, func(scanner store.Scanner) error {
		rowNum := 0
		for {
			result, err := scanner.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if err := fn(result, rowNum); err != nil {
				return err
			}
			rowNum++
		}
	})
}

// FindResults returns every row returned by scan.
func (tpl *Template) FindResults(ctx context.Context, table string, scan *store.Scan) (
	results []*store.Result, err error) {
	defer tpl.track("find", table)(&err)
	err = tpl.scan(ctx, "find", table, scan, func(scanner store.Scanner) error {
		for {
			result, err := scanner.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			results = append(results, result)
		}
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Get fetches a single row. A missing row yields an empty result.
func (tpl *Template) Get(ctx context.Context, table string, get *store.Get) (result *store.Result, err error) {
	defer tpl.track("get", table)(&err)
	if get == nil || len(get.Row) == 0 {
		return nil, wrapError("get", table, store.ErrEmptyRow)
	}
	err = tpl.execute(ctx, "get", table, func(ctx context.Context, t store.Table) error {
		var gerr error
		result, gerr = t.Get(ctx, get)
		return gerr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BatchGet fetches the rows in batches of MultiGetBatchSize, running up to ConcurrencyLimit batches at once. The
// results keep the order of gets.
func (tpl *Template) BatchGet(ctx context.Context, table string, gets []*store.Get) (
	results []*store.Result, err error) {
	defer tpl.track("batch_get", table)(&err)
	for _, get := range gets {
		if get == nil || len(get.Row) == 0 {
			return nil, wrapError("batch_get", table, store.ErrEmptyRow)
		}
	}
	results = make([]*store.Result, len(gets))
	if len(gets) == 0 {
		return results, nil
	}
	err = tpl.execute(ctx, "batch_get", table, func(ctx context.Context, t store.Table) error {
		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(tpl.opts.ConcurrencyLimit)
		for start := 0; start < len(gets); start += tpl.opts.MultiGetBatchSize {
			start := start
			end := start + tpl.opts.MultiGetBatchSize
			if end > len(gets) {
				end = len(gets)
			}
			eg.Go(func() error {
				batch, err := t.BatchGet(gctx, gets[start:end])
				if err != nil {
					return err
				}
				copy(results[start:end], batch)
				return nil
			})
		}
		return eg.Wait()
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// RowCount counts the rows in [startRow, stopRow). The stop row is included when includeStop is set. Empty
// bounds are open.
func (tpl *Template) RowCount(ctx context.Context, table string, startRow []byte, stopRow []byte,
	includeStop bool) (int64, error) {
	scan := store.NewScan(startRow, stopRow)
	scan.IncludeStopRow = includeStop
	return tpl.CountRows(ctx, table, scan)
}

// CountRows counts the rows matched by scan on the store side.
func (tpl *Template) CountRows(ctx context.Context, table string, scan *store.Scan) (count int64, err error) {
	defer tpl.track("row_count", table)(&err)
	scan = tpl.prepareScan(scan)
	err = tpl.execute(ctx, "row_count", table, func(ctx context.Context, t store.Table) error {
		var cerr error
		count, cerr = t.RowCount(ctx, scan)
		return cerr
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Mutate hands a buffered mutator to action. Mutations still buffered when action returns are flushed, or
// discarded if action failed.
func (tpl *Template) Mutate(ctx context.Context, table string, action MutatorCallback) (err error) {
	defer tpl.track("mutate", table)(&err)
	return tpl.mutate(ctx, "mutate", table, action)
}

func (tpl *Template) mutate(ctx context.Context, op string, tableName string, action MutatorCallback) error {
	if action == nil {
		return wrapError(op, tableName, ErrNilCallback)
	}
	return tpl.execute(ctx, op, tableName, func(ctx context.Context, table store.Table) error {
		mutator := newBufferedMutator(ctx, table, tpl.opts.WriteBufferSize, tpl.logger)
		if err := action(mutator); err != nil {
			mutator.discard()
			return err
		}
		return mutator.Flush()
	})
}

// SaveOrUpdate applies a single put or delete.
func (tpl *Template) SaveOrUpdate(ctx context.Context, table string, mutation *store.Mutation) (err error) {
	defer tpl.track("save_or_update", table)(&err)
	return tpl.mutate(ctx, "save_or_update", table, func(mutator *BufferedMutator) error {
		return mutator.Mutate(mutation)
	})
}

// SaveOrUpdates applies the puts and deletes through the buffered mutator.
func (tpl *Template) SaveOrUpdates(ctx context.Context, table string, mutations []*store.Mutation) (err error) {
	defer tpl.track("save_or_updates", table)(&err)
	return tpl.mutate(ctx, "save_or_updates", table, func(mutator *BufferedMutator) error {
		return mutator.Mutate(mutations...)
	})
}

// Admin hands the store's admin interface to action.
func (tpl *Template) Admin(ctx context.Context, action AdminCallback) (err error) {
	defer tpl.track("admin", "")(&err)
	if action == nil {
		return wrapError("admin", "", ErrNilCallback)
	}
	conn, err := tpl.connection(ctx)
	if err != nil {
		return wrapError("admin", "", err)
	}
	return wrapError("admin", "", action(ctx, conn.Admin()))
}
