package badger_store

import (
	"bytes"
	"context"
	"hbasekit/store"
	"hbasekit/util"
	"hbasekit/util/logging"
	"io"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v2"
)

const kTimestampBytes = 8

// Table is a store.Table backed by the connection's badger DB.
type Table struct {
	conn     *Connection
	name     string
	prefix   []byte
	families map[string]struct{}
	logger   *logging.PrefixLogger
	closed   atomic.Bool
}

func newTable(conn *Connection, name string, families []string) *Table {
	table := &Table{
		conn:     conn,
		name:     name,
		prefix:   tablePrefix(name),
		families: make(map[string]struct{}, len(families)),
		logger:   logging.NewPrefixLoggerWithParent(name, conn.logger),
	}
	for _, family := range families {
		table.families[family] = struct{}{}
	}
	return table
}

func (table *Table) Name() string {
	return table.name
}

func (table *Table) Close() error {
	table.closed.Store(true)
	return nil
}

func (table *Table) checkOpen() error {
	if table.closed.Load() || table.conn.isClosed() {
		return store.ErrClosed
	}
	return nil
}

func (table *Table) checkColumns(columns []store.Column) error {
	for _, column := range columns {
		if _, ok := table.families[column.Family]; !ok {
			return store.ErrFamilyNotFound
		}
	}
	return nil
}

// Scan opens a scanner over the scan's range.
func (table *Table) Scan(ctx context.Context, scan *store.Scan) (store.Scanner, error) {
	if err := table.checkOpen(); err != nil {
		return nil, err
	}
	if err := table.checkColumns(scan.Columns); err != nil {
		return nil, err
	}
	return newBadgerScanner(ctx, table, scan), nil
}

// Get fetches a single row. A missing row yields an empty result.
func (table *Table) Get(ctx context.Context, get *store.Get) (*store.Result, error) {
	if err := table.checkOpen(); err != nil {
		return nil, err
	}
	if len(get.Row) == 0 {
		return nil, store.ErrEmptyRow
	}
	if err := table.checkColumns(get.Columns); err != nil {
		return nil, err
	}
	txn := table.conn.db.NewTransaction(false)
	defer txn.Discard()
	return table.getWithTxn(txn, get)
}

// BatchGet fetches many rows from a single snapshot.
func (table *Table) BatchGet(ctx context.Context, gets []*store.Get) ([]*store.Result, error) {
	if err := table.checkOpen(); err != nil {
		return nil, err
	}
	txn := table.conn.db.NewTransaction(false)
	defer txn.Discard()
	results := make([]*store.Result, 0, len(gets))
	for _, get := range gets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(get.Row) == 0 {
			return nil, store.ErrEmptyRow
		}
		if err := table.checkColumns(get.Columns); err != nil {
			return nil, err
		}
		result, err := table.getWithTxn(txn, get)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (table *Table) getWithTxn(txn *badger.Txn, get *store.Get) (*store.Result, error) {
	prefix := rowPrefix(table.prefix, get.Row)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	itr := txn.NewIterator(opts)
	defer itr.Close()
	var cells []*store.Cell
	for itr.Seek(prefix); itr.ValidForPrefix(prefix); itr.Next() {
		cell, err := table.readCell(itr.Item())
		if err != nil {
			return nil, err
		}
		if selectCell(cell, get.Columns) {
			cells = append(cells, cell)
		}
	}
	empty := &store.Result{Row: get.Row}
	if len(cells) == 0 {
		return empty, nil
	}
	result := store.ApplyFilters(&store.Result{Row: get.Row, Cells: cells}, get.Filters)
	if result == nil {
		return empty, nil
	}
	return result, nil
}

// readCell decodes the cell stored in the item.
func (table *Table) readCell(item *badger.Item) (*store.Cell, error) {
	row, family, qualifier, err := parseCellKey(table.prefix, item.KeyCopy(nil))
	if err != nil {
		table.logger.Errorf("Unable to parse key: %v due to err: %s", item.Key(), err.Error())
		return nil, store.ErrStore
	}
	cell := &store.Cell{Row: row, Family: family, Qualifier: qualifier}
	val, err := item.ValueCopy(nil)
	if err != nil {
		table.logger.Errorf("Unable to read value of row: %s due to err: %s", row, err.Error())
		return nil, store.ErrStore
	}
	if len(val) < kTimestampBytes {
		table.logger.Errorf("Value of row: %s is too short: %d bytes", row, len(val))
		return nil, store.ErrStore
	}
	cell.Timestamp = util.BytesToUint(val[:kTimestampBytes])
	cell.Value = val[kTimestampBytes:]
	return cell, nil
}

// Mutate applies the mutations in a single transaction unless the batch is too big for one, in which case it is
// split over several commits.
func (table *Table) Mutate(ctx context.Context, mutations []*store.Mutation) error {
	if err := table.checkOpen(); err != nil {
		return err
	}
	for _, mutation := range mutations {
		if err := mutation.Validate(); err != nil {
			return err
		}
		for _, cell := range mutation.Cells {
			if _, ok := table.families[string(cell.Family)]; !ok {
				return store.ErrFamilyNotFound
			}
		}
	}
	db := table.conn.db
	txn := db.NewTransaction(true)
	defer func() { txn.Discard() }()
	apply := func(op func(txn *badger.Txn) error) error {
		err := op(txn)
		if err != badger.ErrTxnTooBig {
			return err
		}
		if err = txn.Commit(); err != nil {
			return err
		}
		txn = db.NewTransaction(true)
		return op(txn)
	}
	now := uint64(time.Now().UnixNano() / int64(time.Millisecond))
	for _, mutation := range mutations {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch mutation.Kind {
		case store.KindPut:
			for _, cell := range mutation.Cells {
				ts := cell.Timestamp
				if ts == 0 {
					ts = now
				}
				key := cellKey(table.prefix, mutation.Row, cell.Family, cell.Qualifier)
				val := append(util.UintToBytes(ts), cell.Value...)
				if err = apply(func(txn *badger.Txn) error { return txn.Set(key, val) }); err != nil {
					break
				}
			}
		case store.KindDelete:
			err = table.deleteWithTxn(mutation, apply, func() *badger.Txn { return txn })
		}
		if err != nil {
			table.logger.Errorf("Unable to apply %s on row: %s due to err: %s", mutation.Kind, mutation.Row,
				err.Error())
			return store.ErrStore
		}
	}
	if err := txn.Commit(); err != nil {
		table.logger.Errorf("Unable to commit %d mutations due to err: %s", len(mutations), err.Error())
		return store.ErrStore
	}
	return nil
}

// deleteWithTxn removes the row, families or columns named by the delete mutation.
func (table *Table) deleteWithTxn(mutation *store.Mutation, apply func(func(*badger.Txn) error) error,
	currTxn func() *badger.Txn) error {
	var prefixes [][]byte
	if len(mutation.Cells) == 0 {
		prefixes = append(prefixes, rowPrefix(table.prefix, mutation.Row))
	}
	for _, cell := range mutation.Cells {
		if len(cell.Qualifier) == 0 {
			prefixes = append(prefixes, familyPrefix(table.prefix, mutation.Row, cell.Family))
			continue
		}
		key := cellKey(table.prefix, mutation.Row, cell.Family, cell.Qualifier)
		if err := apply(func(txn *badger.Txn) error { return txn.Delete(key) }); err != nil {
			return err
		}
	}
	for _, prefix := range prefixes {
		for _, key := range keysWithPrefix(currTxn(), prefix) {
			k := key
			if err := apply(func(txn *badger.Txn) error { return txn.Delete(k) }); err != nil {
				return err
			}
		}
	}
	return nil
}

// keysWithPrefix lists the keys visible to the transaction that start with prefix.
func keysWithPrefix(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	itr := txn.NewIterator(opts)
	defer itr.Close()
	var keys [][]byte
	for itr.Seek(prefix); itr.ValidForPrefix(prefix); itr.Next() {
		keys = append(keys, itr.Item().KeyCopy(nil))
	}
	return keys
}

// RowCount counts the rows in the scan's range. Without columns or filters only keys are read.
func (table *Table) RowCount(ctx context.Context, scan *store.Scan) (int64, error) {
	if err := table.checkOpen(); err != nil {
		return 0, err
	}
	if len(scan.Columns) > 0 || len(scan.Filters) > 0 {
		return table.rowCountWithScanner(ctx, scan)
	}
	txn := table.conn.db.NewTransaction(false)
	defer txn.Discard()
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Reverse = scan.Reversed
	itr := txn.NewIterator(opts)
	defer itr.Close()
	var count int64
	var lastRow []byte
	for itr.Seek(seekKey(table.prefix, scan)); itr.ValidForPrefix(table.prefix); itr.Next() {
		if count%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		row, _, _, err := parseCellKey(table.prefix, itr.Item().Key())
		if err != nil {
			return 0, store.ErrStore
		}
		if !scan.InRange(row) {
			break
		}
		if lastRow == nil || !bytes.Equal(row, lastRow) {
			count++
			lastRow = row
		}
	}
	return count, nil
}

func (table *Table) rowCountWithScanner(ctx context.Context, scan *store.Scan) (int64, error) {
	countScan := scan.Clone()
	countScan.Limit = 0
	scanner, err := table.Scan(ctx, countScan)
	if err != nil {
		return 0, err
	}
	defer scanner.Close()
	var count int64
	for {
		_, err := scanner.Next()
		if err != nil {
			if err == io.EOF {
				return count, nil
			}
			return 0, err
		}
		count++
	}
}

// selectCell returns true if the cell is selected by the columns. No columns select everything.
func selectCell(cell *store.Cell, columns []store.Column) bool {
	if len(columns) == 0 {
		return true
	}
	for _, column := range columns {
		if string(cell.Family) != column.Family {
			continue
		}
		if len(column.Qualifier) == 0 || string(cell.Qualifier) == column.Qualifier {
			return true
		}
	}
	return false
}

// seekKey returns the key the iterator has to seek to for the first row of the scan.
func seekKey(prefix []byte, scan *store.Scan) []byte {
	if scan.Reversed {
		if len(scan.StartRow) == 0 {
			return tableUpperBound(prefix)
		}
		return rowUpperBound(prefix, scan.StartRow)
	}
	if len(scan.StartRow) == 0 {
		return append([]byte(nil), prefix...)
	}
	return rowSeekKey(prefix, scan.StartRow)
}
