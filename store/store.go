// Package store defines the minimal set of capabilities the rest of hbasekit needs from a wide-column store.
// Backends live in sub packages.
package store

import (
	"context"
)

// Connection is a (typically pooled) connection to a store. It is safe for concurrent use.
type Connection interface {
	// Table returns a lightweight handle to the table. Handles must be closed after use.
	Table(ctx context.Context, name string) (Table, error)
	// Admin returns the administrative interface of the store.
	Admin() Admin
	Close() error
}

// Table is a handle to a single table.
type Table interface {
	Name() string
	// Scan opens a scanner over the scan's range. The scanner must be closed.
	Scan(ctx context.Context, scan *Scan) (Scanner, error)
	// Get fetches a single row. A missing row yields an empty result.
	Get(ctx context.Context, get *Get) (*Result, error)
	// BatchGet fetches many rows. Results are in the order of gets.
	BatchGet(ctx context.Context, gets []*Get) ([]*Result, error)
	// Mutate applies puts and deletes.
	Mutate(ctx context.Context, mutations []*Mutation) error
	// RowCount counts the rows in the scan's range on the store side.
	RowCount(ctx context.Context, scan *Scan) (int64, error)
	Close() error
}

// Scanner is a cursor over a row range. Next returns io.EOF once the range is exhausted.
type Scanner interface {
	Next() (*Result, error)
	Close() error
}

// Admin manages tables.
type Admin interface {
	CreateTable(ctx context.Context, name string, families []string) error
	DeleteTable(ctx context.Context, name string) error
	TableExists(ctx context.Context, name string) (bool, error)
}

// Connector creates a new connection.
type Connector func(ctx context.Context) (Connection, error)
