// Package hbase_store implements the store capabilities on a remote HBase cluster through gohbase.
package hbase_store

import (
	"context"
	"hbasekit/store"
	"hbasekit/util/logging"
	"sync"
	"time"

	"github.com/tsuna/gohbase"
	"github.com/tsuna/gohbase/hrpc"
)

// Options configures the gohbase clients. The mapstructure tags are the HBase client properties accepted by
// ApplyProperties.
type Options struct {
	Quorum           string        `mapstructure:"hbase.zookeeper.quorum"` // e.g. "zk1:2181,zk2:2181".
	ZookeeperRoot    string        `mapstructure:"zookeeper.znode.parent"` // "/hbase" by default.
	RPCTimeout       time.Duration `mapstructure:"hbase.rpc.timeout"`      // Region lookup and read timeout.
	EffectiveUser    string        `mapstructure:"-"`                      // User the RPCs are issued as.
	ScannerCaching   int           `mapstructure:"hbase.client.scanner.caching"`
	ConcurrencyLimit int           `mapstructure:"-"` // Max RPCs in flight for a single batched call.

	ZookeeperTimeout     time.Duration `mapstructure:"zookeeper.session.timeout"`
	ScannerMaxResultSize uint64        `mapstructure:"hbase.client.scanner.max.result.size"`
}

// Connection is a store.Connection over a gohbase client. gohbase pools the region server connections itself so
// the table handles are cheap.
type Connection struct {
	client      gohbase.Client
	adminClient gohbase.AdminClient
	opts        Options
	logger      *logging.PrefixLogger
	mu          sync.RWMutex
	closed      bool
}

// NewConnection creates the gohbase clients. gohbase connects lazily so this does not fail when the cluster is
// unreachable; the first RPC does.
func NewConnection(opts Options) *Connection {
	logger := logging.NewPrefixLogger("hbase_store")
	if opts.ConcurrencyLimit <= 0 {
		opts.ConcurrencyLimit = 1
	}
	clientOpts := clientOptions(opts)
	logger.Infof("Connecting to HBase cluster with quorum: %s, root: %s", opts.Quorum, opts.ZookeeperRoot)
	return &Connection{
		client:      gohbase.NewClient(opts.Quorum, clientOpts...),
		adminClient: gohbase.NewAdminClient(opts.Quorum, clientOpts...),
		opts:        opts,
		logger:      logger,
	}
}

// NewConnector returns a connector that creates a new connection on every call.
func NewConnector(opts Options) store.Connector {
	return func(ctx context.Context) (store.Connection, error) {
		return NewConnection(opts), nil
	}
}

func clientOptions(opts Options) []gohbase.Option {
	var clientOpts []gohbase.Option
	if len(opts.ZookeeperRoot) > 0 {
		clientOpts = append(clientOpts, gohbase.ZookeeperRoot(opts.ZookeeperRoot))
	}
	if opts.RPCTimeout > 0 {
		clientOpts = append(clientOpts, gohbase.RegionLookupTimeout(opts.RPCTimeout),
			gohbase.RegionReadTimeout(opts.RPCTimeout))
	}
	if len(opts.EffectiveUser) > 0 {
		clientOpts = append(clientOpts, gohbase.EffectiveUser(opts.EffectiveUser))
	}
	if opts.ZookeeperTimeout > 0 {
		clientOpts = append(clientOpts, gohbase.ZookeeperTimeout(opts.ZookeeperTimeout))
	}
	return clientOpts
}

// Table returns a handle to the table. Existence is checked by the first RPC on the handle.
func (conn *Connection) Table(ctx context.Context, name string) (store.Table, error) {
	if conn.isClosed() {
		return nil, store.ErrClosed
	}
	if len(name) == 0 {
		return nil, store.ErrInvalidTableName
	}
	return &Table{
		conn:   conn,
		name:   name,
		logger: logging.NewPrefixLoggerWithParent(name, conn.logger),
	}, nil
}

func (conn *Connection) Admin() store.Admin {
	return &admin{conn: conn}
}

func (conn *Connection) Close() error {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.closed {
		return nil
	}
	conn.logger.Infof("Closing HBase connection to quorum: %s", conn.opts.Quorum)
	conn.closed = true
	conn.client.Close()
	return nil
}

func (conn *Connection) isClosed() bool {
	conn.mu.RLock()
	defer conn.mu.RUnlock()
	return conn.closed
}

/******************************************************* ADMIN ********************************************************/
type admin struct {
	conn *Connection
}

func (adm *admin) CreateTable(ctx context.Context, name string, families []string) error {
	if adm.conn.isClosed() {
		return store.ErrClosed
	}
	if len(name) == 0 || len(families) == 0 {
		return store.ErrInvalidTableName
	}
	cfs := make(map[string]map[string]string, len(families))
	for _, family := range families {
		// gohbase fills in the default attributes, the map must not be nil.
		cfs[family] = map[string]string{}
	}
	if err := adm.conn.adminClient.CreateTable(hrpc.NewCreateTable(ctx, []byte(name), cfs)); err != nil {
		adm.conn.logger.Errorf("Unable to create table: %s due to err: %s", name, err.Error())
		return translateError(err)
	}
	adm.conn.logger.Infof("Created table: %s with families: %v", name, families)
	return nil
}

// DeleteTable disables and then deletes the table.
func (adm *admin) DeleteTable(ctx context.Context, name string) error {
	if adm.conn.isClosed() {
		return store.ErrClosed
	}
	if err := adm.conn.adminClient.DisableTable(hrpc.NewDisableTable(ctx, []byte(name))); err != nil {
		adm.conn.logger.Errorf("Unable to disable table: %s due to err: %s", name, err.Error())
		return translateError(err)
	}
	if err := adm.conn.adminClient.DeleteTable(hrpc.NewDeleteTable(ctx, []byte(name))); err != nil {
		adm.conn.logger.Errorf("Unable to delete table: %s due to err: %s", name, err.Error())
		return translateError(err)
	}
	adm.conn.logger.Infof("Deleted table: %s", name)
	return nil
}

// TableExists checks the table with a single row scan.
func (adm *admin) TableExists(ctx context.Context, name string) (bool, error) {
	if adm.conn.isClosed() {
		return false, store.ErrClosed
	}
	table, err := adm.conn.Table(ctx, name)
	if err != nil {
		return false, err
	}
	defer table.Close()
	scanner, err := table.Scan(ctx, &store.Scan{Limit: 1, Filters: []store.Filter{&store.KeyOnlyFilter{}}})
	if err != nil {
		return false, err
	}
	defer scanner.Close()
	if _, err = scanner.Next(); err != nil && !isEOF(err) {
		if translateError(err) == store.ErrTableNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
