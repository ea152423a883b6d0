package template

import (
	"context"
	"hbasekit/store"
)

// TableCallback runs against a table handle. The handle is released by the template once it returns.
type TableCallback func(ctx context.Context, table store.Table) error

// ScannerCallback consumes a scanner. The scanner is closed by the template once it returns.
type ScannerCallback func(scanner store.Scanner) error

// RowCallback is called for every row of a scan. rowNum starts at 0.
type RowCallback func(result *store.Result, rowNum int) error

// MutatorCallback issues puts and deletes through a buffered mutator. Buffered mutations are flushed when it
// returns nil and dropped when it fails.
type MutatorCallback func(mutator *BufferedMutator) error

// AdminCallback manages tables.
type AdminCallback func(ctx context.Context, admin store.Admin) error

// Operations is the set of operations implemented by Template. Code that only needs to run operations should
// depend on it so that tests can stub the store out.
type Operations interface {
	Execute(ctx context.Context, table string, action TableCallback) error
	Scan(ctx context.Context, table string, scan *store.Scan, action ScannerCallback) error
	ForEach(ctx context.Context, table string, scan *store.Scan, fn RowCallback) error
	FindResults(ctx context.Context, table string, scan *store.Scan) ([]*store.Result, error)
	Get(ctx context.Context, table string, get *store.Get) (*store.Result, error)
	BatchGet(ctx context.Context, table string, gets []*store.Get) ([]*store.Result, error)
	RowCount(ctx context.Context, table string, startRow []byte, stopRow []byte, includeStop bool) (int64, error)
	CountRows(ctx context.Context, table string, scan *store.Scan) (int64, error)
	Mutate(ctx context.Context, table string, action MutatorCallback) error
	SaveOrUpdate(ctx context.Context, table string, mutation *store.Mutation) error
	SaveOrUpdates(ctx context.Context, table string, mutations []*store.Mutation) error
	Admin(ctx context.Context, action AdminCallback) error
	DefaultPageSize() int
}
