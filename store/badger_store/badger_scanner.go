package badger_store

import (
	"bytes"
	"context"
	"hbasekit/store"
	"io"

	"github.com/dgraph-io/badger/v2"
)

// BadgerScanner walks the rows of a table within the scan's range. It holds a read transaction open until it is
// closed so the rows it returns come from a single snapshot.
type BadgerScanner struct {
	ctx      context.Context
	table    *Table
	scan     *store.Scan
	txn      *badger.Txn      // Badger transaction.
	iter     *badger.Iterator // Badger iterator.
	returned int              // Number of rows handed out so far.
	done     bool
}

func newBadgerScanner(ctx context.Context, table *Table, scan *store.Scan) *BadgerScanner {
	scanner := &BadgerScanner{
		ctx:   ctx,
		table: table,
		scan:  scan,
		txn:   table.conn.db.NewTransaction(false),
	}
	opts := badger.DefaultIteratorOptions
	opts.Reverse = scan.Reversed
	if scan.Caching > 0 {
		opts.PrefetchSize = scan.Caching
	}
	scanner.iter = scanner.txn.NewIterator(opts)
	scanner.iter.Seek(seekKey(table.prefix, scan))
	return scanner
}

// Next returns the next row that matches the scan's columns and filters or io.EOF.
func (scanner *BadgerScanner) Next() (*store.Result, error) {
	for {
		if scanner.done {
			return nil, io.EOF
		}
		if err := scanner.ctx.Err(); err != nil {
			return nil, err
		}
		if scanner.scan.Limit > 0 && scanner.returned >= scanner.scan.Limit {
			scanner.done = true
			return nil, io.EOF
		}
		row, cells, err := scanner.readRow()
		if err != nil {
			return nil, err
		}
		if row == nil || !scanner.scan.InRange(row) {
			scanner.done = true
			return nil, io.EOF
		}
		var selected []*store.Cell
		for _, cell := range cells {
			if selectCell(cell, scanner.scan.Columns) {
				selected = append(selected, cell)
			}
		}
		if len(selected) == 0 {
			continue
		}
		result := store.ApplyFilters(&store.Result{Row: row, Cells: selected}, scanner.scan.Filters)
		if result == nil {
			continue
		}
		scanner.returned++
		return result, nil
	}
}

// readRow reads all the cells of the row under the iterator and leaves the iterator on the following row.
func (scanner *BadgerScanner) readRow() ([]byte, []*store.Cell, error) {
	var row []byte
	var cells []*store.Cell
	for ; scanner.iter.ValidForPrefix(scanner.table.prefix); scanner.iter.Next() {
		cell, err := scanner.table.readCell(scanner.iter.Item())
		if err != nil {
			return nil, nil, err
		}
		if row == nil {
			row = cell.Row
		} else if !bytes.Equal(row, cell.Row) {
			break
		}
		cells = append(cells, cell)
	}
	if scanner.scan.Reversed {
		// Cells of a row come in descending order when iterating backwards.
		for ii, jj := 0, len(cells)-1; ii < jj; ii, jj = ii+1, jj-1 {
			cells[ii], cells[jj] = cells[jj], cells[ii]
		}
	}
	return row, cells, nil
}

func (scanner *BadgerScanner) Close() error {
	scanner.done = true
	if scanner.iter != nil {
		scanner.iter.Close()
		scanner.iter = nil
		scanner.txn.Discard()
	}
	return nil
}
